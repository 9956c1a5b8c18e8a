package keyring

import (
	"encoding/base64"
	"errors"
	"fmt"
	"os"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/kryptor-go/kryptor/crypt"
)

const (
	keystoreVersion = 1

	keyTypePrivate = "x25519-private"
	keyTypePublic  = "x25519-public"
)

var (
	ErrUnknownKeyType = errors.New("unknown key type")
	ErrWrongKeyFile   = errors.New("incorrect password, or the key file has been tampered with")
)

// storedKey is the msgpack record persisted for each key. Private keys are
// sealed under a password-derived key; public keys are stored raw.
type storedKey struct {
	Version int    `msgpack:"version"`
	Type    string `msgpack:"type"`
	Salt    []byte `msgpack:"salt,omitempty"`
	Nonce   []byte `msgpack:"nonce,omitempty"`
	Key     []byte `msgpack:"key"`
}

// SavePrivate seals privateKey under password and writes it to path with
// owner-only permissions.
func SavePrivate(path string, privateKey, password []byte) error {
	if len(privateKey) != crypt.KeySize {
		return ErrInvalidKeyLength
	}
	if len(password) == 0 {
		return ErrEmptyPassword
	}

	salt, err := crypt.Rand(crypt.SaltSize)
	if err != nil {
		return err
	}
	nonce, err := crypt.Rand(crypt.NonceSize)
	if err != nil {
		return err
	}

	wrapKey := crypt.DeriveKeyArgon2(password, salt)
	defer crypt.Zero(wrapKey)
	sealed, err := crypt.Seal(wrapKey, nonce, privateKey, []byte(keyTypePrivate))
	if err != nil {
		return fmt.Errorf("failed to seal private key: %w", err)
	}

	record, err := msgpack.Marshal(&storedKey{
		Version: keystoreVersion,
		Type:    keyTypePrivate,
		Salt:    salt,
		Nonce:   nonce,
		Key:     sealed,
	})
	if err != nil {
		return fmt.Errorf("failed to encode key record: %w", err)
	}
	return os.WriteFile(path, record, 0o600)
}

// LoadPrivate reads a sealed private key from path and opens it with
// password. The caller owns wiping the returned key.
func LoadPrivate(path string, password []byte) ([]byte, error) {
	record, err := readRecord(path)
	if err != nil {
		return nil, err
	}
	if record.Type != keyTypePrivate {
		return nil, ErrUnknownKeyType
	}
	if len(record.Salt) != crypt.SaltSize || len(record.Nonce) != crypt.NonceSize {
		return nil, ErrWrongKeyFile
	}

	wrapKey := crypt.DeriveKeyArgon2(password, record.Salt)
	defer crypt.Zero(wrapKey)
	privateKey, err := crypt.Open(wrapKey, record.Nonce, record.Key, []byte(keyTypePrivate))
	if err != nil {
		if errors.Is(err, crypt.ErrAuthenticationFailed) {
			return nil, ErrWrongKeyFile
		}
		return nil, err
	}
	if len(privateKey) != crypt.KeySize {
		crypt.Zero(privateKey)
		return nil, ErrWrongKeyFile
	}
	return privateKey, nil
}

// SavePublic writes publicKey to path.
func SavePublic(path string, publicKey []byte) error {
	if len(publicKey) != crypt.PublicKeySize {
		return ErrInvalidKeyLength
	}
	record, err := msgpack.Marshal(&storedKey{
		Version: keystoreVersion,
		Type:    keyTypePublic,
		Key:     publicKey,
	})
	if err != nil {
		return fmt.Errorf("failed to encode key record: %w", err)
	}
	return os.WriteFile(path, record, 0o644)
}

// LoadPublic resolves a public key from either a key file path or an inline
// standard-base64 string.
func LoadPublic(pathOrInline string) ([]byte, error) {
	if decoded, err := base64.StdEncoding.DecodeString(pathOrInline); err == nil && len(decoded) == crypt.PublicKeySize {
		return decoded, nil
	}

	record, err := readRecord(pathOrInline)
	if err != nil {
		return nil, err
	}
	if record.Type != keyTypePublic {
		return nil, ErrUnknownKeyType
	}
	if len(record.Key) != crypt.PublicKeySize {
		return nil, ErrUnknownKeyType
	}
	return record.Key, nil
}

// HashKeyfile reduces an arbitrary keyfile to 32 bytes of key material.
func HashKeyfile(path string) ([]byte, error) {
	contents, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read keyfile: %w", err)
	}
	defer crypt.Zero(contents)
	return crypt.Blake2bKeyed(nil, contents, crypt.KeySize)
}

func readRecord(path string) (*storedKey, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read key file: %w", err)
	}
	record := &storedKey{}
	if err := msgpack.Unmarshal(raw, record); err != nil {
		return nil, fmt.Errorf("failed to decode key record: %w", err)
	}
	if record.Version != keystoreVersion {
		return nil, fmt.Errorf("unsupported key record version %d", record.Version)
	}
	return record, nil
}
