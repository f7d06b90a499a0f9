package secretservice

import (
	"errors"
	"fmt"

	dbus "github.com/godbus/dbus/v5"
	ss "github.com/zalando/go-keyring/secret_service"
)

// client is the part of the Secret Service API the store needs, expressed
// in item paths so that a fake can stand in for the bus.
type client interface {
	search(attrs map[string]string) ([]dbus.ObjectPath, error)
	create(label string, attrs map[string]string, secret []byte, contentType string) error
	secret(item dbus.ObjectPath) ([]byte, error)
	remove(item dbus.ObjectPath) error
	attributes(item dbus.ObjectPath) (map[string]string, error)
}

const (
	secretsBusName     = "org.freedesktop.secrets"
	itemAttributesProp = "org.freedesktop.Secret.Item.Attributes"
)

// dbusClient talks to the Secret Service daemon on the session bus. A
// fresh plain session is opened for every call that transfers a secret.
type dbusClient struct {
	svc        *ss.SecretService
	collection string
}

func dial(collection string) (client, error) {
	svc, err := ss.NewSecretService()
	if err != nil {
		return nil, err
	}
	return &dbusClient{svc: svc, collection: collection}, nil
}

func (c *dbusClient) target() (dbus.BusObject, error) {
	collection := c.svc.GetLoginCollection()
	if c.collection != "" {
		collection = c.svc.GetCollection(c.collection)
	}
	if err := c.svc.Unlock(collection.Path()); err != nil {
		return nil, &lockedError{err: err}
	}
	return collection, nil
}

func (c *dbusClient) withSession(fn func(session dbus.BusObject) error) error {
	session, err := c.svc.OpenSession()
	if err != nil {
		return err
	}
	defer func() {
		_ = c.svc.Close(session)
	}()
	return fn(session)
}

func (c *dbusClient) search(attrs map[string]string) ([]dbus.ObjectPath, error) {
	collection, err := c.target()
	if err != nil {
		return nil, err
	}
	return c.svc.SearchItems(collection, attrs)
}

func (c *dbusClient) create(label string, attrs map[string]string, secret []byte, contentType string) error {
	collection, err := c.target()
	if err != nil {
		return err
	}
	return c.withSession(func(session dbus.BusObject) error {
		return c.svc.CreateItem(collection, label, attrs, ss.Secret{
			Session:     session.Path(),
			Parameters:  []byte{},
			Value:       secret,
			ContentType: contentType,
		})
	})
}

func (c *dbusClient) secret(item dbus.ObjectPath) ([]byte, error) {
	var value []byte
	err := c.withSession(func(session dbus.BusObject) error {
		s, err := c.svc.GetSecret(item, session.Path())
		if err != nil {
			return err
		}
		value = s.Value
		return nil
	})
	return value, err
}

func (c *dbusClient) remove(item dbus.ObjectPath) error {
	return c.svc.Delete(item)
}

func (c *dbusClient) attributes(item dbus.ObjectPath) (map[string]string, error) {
	v, err := c.svc.Object(secretsBusName, item).GetProperty(itemAttributesProp)
	if err != nil {
		return nil, err
	}
	attrs, ok := v.Value().(map[string]string)
	if !ok {
		return nil, fmt.Errorf("item %s: attributes have signature %s", item, v.Signature())
	}
	return attrs, nil
}

// lockedError marks a collection that could not be unlocked.
type lockedError struct {
	err error
}

func (e *lockedError) Error() string {
	return "collection is locked: " + e.err.Error()
}

func (e *lockedError) Unwrap() error {
	return e.err
}

var unreachableNames = map[string]bool{
	"org.freedesktop.DBus.Error.ServiceUnknown": true,
	"org.freedesktop.DBus.Error.NoReply":        true,
	"org.freedesktop.DBus.Error.AccessDenied":   true,
	"org.freedesktop.Secret.Error.IsLocked":     true,
}

// unreachable reports errors that mean the daemon or the collection cannot
// be used at all.
func unreachable(err error) bool {
	var locked *lockedError
	if errors.As(err, &locked) {
		return true
	}
	var dbusErr dbus.Error
	if errors.As(err, &dbusErr) {
		return unreachableNames[dbusErr.Name]
	}
	var dbusErrPtr *dbus.Error
	if errors.As(err, &dbusErrPtr) {
		return unreachableNames[dbusErrPtr.Name]
	}
	return false
}
