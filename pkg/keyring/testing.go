package keyring

import (
	"bytes"
	"errors"
	"testing"

	"github.com/google/uuid"
)

// ContractTest describes a store to run through RunContractTests.
type ContractTest struct {
	// NewStore creates the store under test.
	NewStore func(t *testing.T) CredentialStore

	// NewIdentity returns an identity not used by any other subtest.
	// Defaults to a random service name.
	NewIdentity func(t *testing.T) Identity

	// SkipBinary skips the non-UTF-8 secret checks for stores that only
	// hold text.
	SkipBinary bool
}

// RunContractTests checks the behaviour every CredentialStore must have.
func RunContractTests(t *testing.T, contract ContractTest) {
	if contract.NewIdentity == nil {
		contract.NewIdentity = func(t *testing.T) Identity {
			return NewIdentity("keyring-contract-"+uuid.NewString(), "contract-user")
		}
	}

	t.Run("Contract", func(t *testing.T) {
		t.Run("Name", func(t *testing.T) {
			testStoreName(t, contract)
		})
		t.Run("Platforms", func(t *testing.T) {
			testStorePlatforms(t, contract)
		})
		t.Run("MissingEntry", func(t *testing.T) {
			testMissingEntry(t, contract)
		})
		t.Run("RoundTrip", func(t *testing.T) {
			testRoundTrip(t, contract)
		})
		t.Run("Overwrite", func(t *testing.T) {
			testOverwrite(t, contract)
		})
		t.Run("DeleteThenGet", func(t *testing.T) {
			testDeleteThenGet(t, contract)
		})
		if !contract.SkipBinary {
			t.Run("BinarySecret", func(t *testing.T) {
				testBinarySecret(t, contract)
			})
		}
	})
}

func contractEntry(t *testing.T, contract ContractTest) *Entry {
	t.Helper()

	store := contract.NewStore(t)
	id := contract.NewIdentity(t)
	entry, err := NewEntryFromStore(store, id)
	if err != nil {
		t.Fatalf("Build(%v) failed: %v", id, err)
	}
	t.Cleanup(func() {
		_ = entry.DeleteCredential()
	})
	return entry
}

func testStoreName(t *testing.T, contract ContractTest) {
	store := contract.NewStore(t)
	name := store.Name()
	if name == "" {
		t.Error("CredentialStore.Name() returned empty string")
	}
	if name2 := store.Name(); name != name2 {
		t.Errorf("CredentialStore.Name() not consistent: %q != %q", name, name2)
	}
}

func testStorePlatforms(t *testing.T, contract ContractTest) {
	store := contract.NewStore(t)
	platforms := store.SupportedPlatforms()
	if len(platforms) == 0 {
		t.Fatal("CredentialStore.SupportedPlatforms() is empty")
	}
	for _, p := range platforms {
		if !Supports(AllPlatforms, p) {
			t.Errorf("unknown platform %q", p)
		}
	}
}

func testMissingEntry(t *testing.T, contract ContractTest) {
	entry := contractEntry(t, contract)

	if _, err := entry.GetPassword(); !errors.Is(err, ErrNoEntry) {
		t.Errorf("GetPassword() on missing entry: got %v, want NoEntry", err)
	}
	if _, err := entry.GetSecret(); !errors.Is(err, ErrNoEntry) {
		t.Errorf("GetSecret() on missing entry: got %v, want NoEntry", err)
	}
	if err := entry.DeleteCredential(); !errors.Is(err, ErrNoEntry) {
		t.Errorf("DeleteCredential() on missing entry: got %v, want NoEntry", err)
	}
}

func testRoundTrip(t *testing.T, contract ContractTest) {
	entry := contractEntry(t, contract)

	const password = "topS3cr3tP4$$w0rd"
	if err := entry.SetPassword(password); err != nil {
		t.Fatalf("SetPassword() failed: %v", err)
	}
	got, err := entry.GetPassword()
	if err != nil {
		t.Fatalf("GetPassword() failed: %v", err)
	}
	if got != password {
		t.Errorf("GetPassword() = %q, want %q", got, password)
	}
	secret, err := entry.GetSecret()
	if err != nil {
		t.Fatalf("GetSecret() failed: %v", err)
	}
	if !bytes.Equal(secret, []byte(password)) {
		t.Errorf("GetSecret() = %v, want UTF-8 bytes of the password", secret)
	}
}

func testOverwrite(t *testing.T, contract ContractTest) {
	entry := contractEntry(t, contract)

	for _, password := range []string{"first", "second"} {
		if err := entry.SetPassword(password); err != nil {
			t.Fatalf("SetPassword(%q) failed: %v", password, err)
		}
	}
	got, err := entry.GetPassword()
	if err != nil {
		t.Fatalf("GetPassword() failed: %v", err)
	}
	if got != "second" {
		t.Errorf("GetPassword() after overwrite = %q, want %q", got, "second")
	}
}

func testDeleteThenGet(t *testing.T, contract ContractTest) {
	entry := contractEntry(t, contract)

	if err := entry.SetPassword("short-lived"); err != nil {
		t.Fatalf("SetPassword() failed: %v", err)
	}
	if err := entry.DeleteCredential(); err != nil {
		t.Fatalf("DeleteCredential() failed: %v", err)
	}
	if _, err := entry.GetPassword(); !errors.Is(err, ErrNoEntry) {
		t.Errorf("GetPassword() after delete: got %v, want NoEntry", err)
	}
}

func testBinarySecret(t *testing.T, contract ContractTest) {
	entry := contractEntry(t, contract)

	secret := []byte{0xff, 0xfe, 0x00, 0x80, 'k', 'e', 'y'}
	if err := entry.SetSecret(secret); err != nil {
		t.Fatalf("SetSecret() failed: %v", err)
	}
	got, err := entry.GetSecret()
	if err != nil {
		t.Fatalf("GetSecret() failed: %v", err)
	}
	if !bytes.Equal(got, secret) {
		t.Errorf("GetSecret() = %v, want %v", got, secret)
	}
	if _, err := entry.GetPassword(); !errors.Is(err, ErrBadEncoding) {
		t.Errorf("GetPassword() on binary secret: got %v, want BadEncoding", err)
	}
}
