// Package vault keeps the AI service secret encrypted at rest.
//
// The key material and the encrypted secret are stored side by side in the
// same Store, so the vault only protects against casual disclosure of stored
// or exported data. Anyone who can read the store can decrypt the secret.
package vault

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"
)

// Names of the persisted values
const (
	KeyMaterialName = "encryptionKey"
	SecretBlobName  = "encryptedApiKey"
)

const (
	keySize   = 32
	nonceSize = 12
)

var (
	// ErrNoCredential means there is no usable secret; callers should ask the
	// user for one.
	ErrNoCredential = errors.New("no usable credential")

	// ErrDecrypt is returned for blobs that are malformed or fail
	// authentication, including blobs sealed under an older key.
	ErrDecrypt = fmt.Errorf("%w: decryption failed", ErrNoCredential)

	// ErrCorruptKey means the persisted key material cannot be decoded. Nothing
	// can be sealed or opened until ResetKey discards it.
	ErrCorruptKey = fmt.Errorf("%w: stored key material is corrupt", ErrDecrypt)
)

var encoding = base64.StdEncoding

// Vault encrypts and decrypts the stored secret
type Vault struct {
	store  Store
	logger *log.Logger
	mu     sync.Mutex
	key    []byte
}

// New creates a Vault over store
func New(store Store, logger *log.Logger) *Vault {
	if logger == nil {
		logger = log.Default()
	}
	return &Vault{store: store, logger: logger}
}

// KeyMaterial returns the persisted key material, generating and persisting a
// fresh 256-bit key the first time. The key is never rotated.
func (v *Vault) KeyMaterial() (string, error) {
	key, err := v.loadKey()
	if err != nil {
		return "", err
	}
	return encoding.EncodeToString(key), nil
}

func (v *Vault) loadKey() ([]byte, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.key != nil {
		return v.key, nil
	}

	encoded, ok, err := v.store.Get(KeyMaterialName)
	if err != nil {
		return nil, fmt.Errorf("failed to read key material: %w", err)
	}
	if !ok {
		fresh := make([]byte, keySize)
		if _, err := rand.Read(fresh); err != nil {
			return nil, fmt.Errorf("failed to generate key material: %w", err)
		}
		encoded, err = v.store.PutIfAbsent(KeyMaterialName, encoding.EncodeToString(fresh))
		if err != nil {
			return nil, fmt.Errorf("failed to persist key material: %w", err)
		}
		v.logger.Info("Generated new key material")
	}

	key, err := encoding.DecodeString(encoded)
	if err != nil || len(key) != keySize {
		return nil, ErrCorruptKey
	}
	v.key = key
	return key, nil
}

func (v *Vault) aead() (cipher.AEAD, error) {
	key, err := v.loadKey()
	if err != nil {
		return nil, err
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	return cipher.NewGCM(block)
}

// Encrypt seals secret under the key material with a fresh nonce, persists
// the blob and returns it.
func (v *Vault) Encrypt(secret string) (string, error) {
	gcm, err := v.aead()
	if err != nil {
		return "", err
	}

	nonce := make([]byte, nonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}

	sealed := gcm.Seal(nonce, nonce, []byte(secret), nil)
	blob := encoding.EncodeToString(sealed)

	if err := v.store.Put(SecretBlobName, blob); err != nil {
		return "", fmt.Errorf("failed to persist encrypted secret: %w", err)
	}
	return blob, nil
}

// Decrypt opens a blob produced by Encrypt. Any failure is reported as
// ErrDecrypt.
func (v *Vault) Decrypt(blob string) (string, error) {
	raw, err := encoding.DecodeString(blob)
	if err != nil || len(raw) <= nonceSize {
		return "", ErrDecrypt
	}

	gcm, err := v.aead()
	if err != nil {
		return "", err
	}

	plain, err := gcm.Open(nil, raw[:nonceSize], raw[nonceSize:], nil)
	if err != nil {
		return "", ErrDecrypt
	}
	return string(plain), nil
}

// StoredSecret decrypts the persisted secret. It returns ErrNoCredential when
// nothing is stored or the stored blob is unusable.
func (v *Vault) StoredSecret() (string, error) {
	blob, ok, err := v.store.Get(SecretBlobName)
	if err != nil {
		return "", fmt.Errorf("failed to read encrypted secret: %w", err)
	}
	if !ok || blob == "" {
		return "", ErrNoCredential
	}

	secret, err := v.Decrypt(blob)
	if err != nil {
		v.logger.Warn("Stored secret is unusable", "err", err)
		return "", err
	}
	if secret == "" {
		return "", ErrNoCredential
	}
	return secret, nil
}

// SaveSecret encrypts and persists secret
func (v *Vault) SaveSecret(secret string) error {
	if secret == "" {
		return ErrNoCredential
	}
	_, err := v.Encrypt(secret)
	return err
}

// Forget removes the stored secret. The key material is kept.
func (v *Vault) Forget() error {
	return v.store.Delete(SecretBlobName)
}

// ResetKey discards the key material together with the secret sealed under
// it. The next Encrypt generates a fresh key.
func (v *Vault) ResetKey() error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if err := v.store.Delete(SecretBlobName); err != nil {
		return fmt.Errorf("failed to remove encrypted secret: %w", err)
	}
	if err := v.store.Delete(KeyMaterialName); err != nil {
		return fmt.Errorf("failed to remove key material: %w", err)
	}
	v.key = nil
	v.logger.Warn("Key material discarded")
	return nil
}
