package driven

import (
	"context"
	"errors"

	"github.com/evalyhq/shoplens/internal/domain/model"
)

// ErrEncryptionKeyNotSet is returned by CredentialStore operations when
// SHOPLENS_SECRET_KEY has not been configured.
var ErrEncryptionKeyNotSet = errors.New("encryption key not configured: set SHOPLENS_SECRET_KEY")

// CredentialStore defines the driven port for encrypted credential persistence.
// The adapter layer is responsible for encryption/decryption; this interface
// operates on plaintext values at the domain boundary.
type CredentialStore interface {
	// Set stores or replaces the credential for the given key with the
	// provided plaintext value. Returns ErrEncryptionKeyNotSet if the adapter
	// was constructed without an encryption key.
	Set(ctx context.Context, key, plaintext string) error

	// Get retrieves the plaintext credential for the given key.
	// Returns ("", nil) if no credential exists for that key.
	// Returns ErrEncryptionKeyNotSet if the adapter was constructed without
	// an encryption key.
	Get(ctx context.Context, key string) (string, error)

	// List returns all stored credentials. Values are decrypted plaintext.
	List(ctx context.Context) ([]model.Credential, error)

	// Delete removes the credential for the given key.
	Delete(ctx context.Context, key string) error
}
