package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/fernet/fernet-go"
)

// ErrDecryptFailed indicates a stored value that is not a valid token for the configured key.
var ErrDecryptFailed = errors.New("failed to decrypt stored value")

// KeyValueStore is the storage contract shared by every ledger store.
type KeyValueStore interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	PutAll(ctx context.Context, entries map[string][]byte) error
	Ping(ctx context.Context) error
}

// EncryptedRepository wraps a KeyValueStore and encrypts values at rest with fernet.
// Keys are stored in clear text.
type EncryptedRepository struct {
	inner KeyValueStore
	key   *fernet.Key
}

// NewEncryptedRepository decodes encodedKey (32 bytes, base64) and wraps inner.
func NewEncryptedRepository(inner KeyValueStore, encodedKey string) (*EncryptedRepository, error) {
	key, err := fernet.DecodeKey(encodedKey)
	if err != nil {
		return nil, fmt.Errorf("invalid encryption key: %w", err)
	}
	return &EncryptedRepository{inner: inner, key: key}, nil
}

// Get returns the decrypted value stored under key.
func (r *EncryptedRepository) Get(ctx context.Context, key string) ([]byte, bool, error) {
	token, ok, err := r.inner.Get(ctx, key)
	if err != nil || !ok {
		return nil, ok, err
	}

	value := fernet.VerifyAndDecrypt(token, 0, []*fernet.Key{r.key})
	if value == nil {
		return nil, false, fmt.Errorf("%w: %s", ErrDecryptFailed, key)
	}
	return value, true, nil
}

// PutAll encrypts every value and writes them through in one call.
func (r *EncryptedRepository) PutAll(ctx context.Context, entries map[string][]byte) error {
	sealed := make(map[string][]byte, len(entries))
	for k, v := range entries {
		token, err := fernet.EncryptAndSign(v, r.key)
		if err != nil {
			return fmt.Errorf("failed to encrypt %s: %w", k, err)
		}
		sealed[k] = token
	}
	return r.inner.PutAll(ctx, sealed)
}

// Ping delegates to the wrapped store.
func (r *EncryptedRepository) Ping(ctx context.Context) error {
	return r.inner.Ping(ctx)
}
