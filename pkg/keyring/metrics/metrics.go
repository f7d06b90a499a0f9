// Package metrics instruments a credential store with Prometheus counters
// and latency histograms.
package metrics

import (
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/systmms/keyring/pkg/keyring"
)

// ResultOK is the result label of successful operations. Failures carry
// the error kind, e.g. "no_entry".
const ResultOK = "ok"

// Collector owns the keyring metrics registered on one Registerer.
type Collector struct {
	operations *prometheus.CounterVec
	duration   *prometheus.HistogramVec
	now        func() time.Time
}

// NewCollector registers the keyring metrics on reg. Registering twice on
// the same Registerer panics, as with promauto.
func NewCollector(reg prometheus.Registerer) *Collector {
	factory := promauto.With(reg)
	return &Collector{
		operations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "keyring_operations_total",
				Help: "Total number of credential store operations",
			},
			[]string{"backend", "operation", "result"},
		),
		duration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "keyring_operation_duration_seconds",
				Help:    "Duration of credential store operations in seconds",
				Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
			},
			[]string{"backend", "operation"},
		),
		now: time.Now,
	}
}

// Operations returns the operation counter, for tests.
func (c *Collector) Operations() *prometheus.CounterVec {
	return c.operations
}

// Duration returns the latency histogram, for tests.
func (c *Collector) Duration() *prometheus.HistogramVec {
	return c.duration
}

// Instrument wraps store so that every operation is counted and timed.
func (c *Collector) Instrument(store keyring.CredentialStore) keyring.CredentialStore {
	return &instrumentedStore{inner: store, collector: c}
}

// Result returns the result label for err.
func Result(err error) string {
	if err == nil {
		return ResultOK
	}
	return strings.ReplaceAll(keyring.KindOf(err).String(), " ", "_")
}

func (c *Collector) observe(backend string, op keyring.Operation, start time.Time, err error) {
	c.operations.WithLabelValues(backend, string(op), Result(err)).Inc()
	c.duration.WithLabelValues(backend, string(op)).Observe(c.now().Sub(start).Seconds())
}

type instrumentedStore struct {
	inner     keyring.CredentialStore
	collector *Collector
}

func (s *instrumentedStore) Name() string {
	return s.inner.Name()
}

func (s *instrumentedStore) SupportedPlatforms() []keyring.Platform {
	return s.inner.SupportedPlatforms()
}

func (s *instrumentedStore) Build(id keyring.Identity) (keyring.Credential, error) {
	start := s.collector.now()
	cred, err := s.inner.Build(id)
	s.collector.observe(s.inner.Name(), keyring.OpBuild, start, err)
	if err != nil {
		return nil, err
	}
	return &instrumentedCredential{inner: cred, backend: s.inner.Name(), collector: s.collector}, nil
}

type instrumentedCredential struct {
	inner     keyring.Credential
	backend   string
	collector *Collector
}

func (c *instrumentedCredential) SetSecret(secret []byte) error {
	start := c.collector.now()
	err := c.inner.SetSecret(secret)
	c.collector.observe(c.backend, keyring.OpSetSecret, start, err)
	return err
}

func (c *instrumentedCredential) GetSecret() ([]byte, error) {
	start := c.collector.now()
	secret, err := c.inner.GetSecret()
	c.collector.observe(c.backend, keyring.OpGetSecret, start, err)
	return secret, err
}

func (c *instrumentedCredential) DeleteCredential() error {
	start := c.collector.now()
	err := c.inner.DeleteCredential()
	c.collector.observe(c.backend, keyring.OpDelete, start, err)
	return err
}
