// Package keyring derives per-file key encryption keys from passwords,
// symmetric keys, and X25519 key material, and manages stored key pairs.
package keyring

import (
	"errors"
	"fmt"

	"github.com/kryptor-go/kryptor/crypt"
)

var (
	ErrEmptyPassword    = errors.New("password must not be empty")
	ErrInvalidKeyLength = errors.New("key material must be 32 bytes long")
)

// A KEKSource derives the key encryption key for a single file. Password and
// symmetric sources use the header nonce as the derivation salt and
// asymmetric sources use a fresh ephemeral key pair, so every file gets an
// independent KEK even under the same credentials.
type KEKSource interface {
	// DeriveEncrypt returns the KEK and the ephemeral public key to embed
	// in the header. Sources without an ephemeral key pair return 32 zero
	// bytes.
	DeriveEncrypt(headerNonce []byte) (kek *crypt.Secret, ephemeralPublic []byte, err error)
	// DeriveDecrypt recomputes the KEK from the header nonce and the
	// ephemeral public key read back from the header.
	DeriveDecrypt(headerNonce, ephemeralPublic []byte) (*crypt.Secret, error)
}

// PasswordSource derives KEKs from a password with Argon2id, optionally
// peppered with a pre-shared symmetric key.
type PasswordSource struct {
	// Password is the UTF-8 password. Must not be empty when encrypting.
	Password []byte
	// Pepper is an optional 32-byte pre-shared key mixed in after the
	// password hash. Nil means 32 zero bytes.
	Pepper []byte
}

func (s *PasswordSource) derive(headerNonce []byte) (*crypt.Secret, error) {
	if len(s.Password) == 0 {
		return nil, ErrEmptyPassword
	}
	pepper := s.Pepper
	if pepper == nil {
		pepper = make([]byte, crypt.KeySize)
	}
	if len(pepper) != crypt.KeySize {
		return nil, ErrInvalidKeyLength
	}

	hash := crypt.DeriveKeyArgon2(s.Password, headerNonce[:crypt.SaltSize])
	defer crypt.Zero(hash)
	kek, err := crypt.Blake2bKeyed(hash, pepper, crypt.KeySize)
	if err != nil {
		return nil, fmt.Errorf("failed to derive kek: %w", err)
	}
	return crypt.NewSecret(kek), nil
}

func (s *PasswordSource) DeriveEncrypt(headerNonce []byte) (*crypt.Secret, []byte, error) {
	kek, err := s.derive(headerNonce)
	if err != nil {
		return nil, nil, err
	}
	return kek, make([]byte, crypt.PublicKeySize), nil
}

func (s *PasswordSource) DeriveDecrypt(headerNonce, _ []byte) (*crypt.Secret, error) {
	return s.derive(headerNonce)
}

// SymmetricSource derives KEKs from a pre-shared 32-byte symmetric key.
type SymmetricSource struct {
	Key []byte
}

func (s *SymmetricSource) derive(headerNonce []byte) (*crypt.Secret, error) {
	if len(s.Key) != crypt.KeySize {
		return nil, ErrInvalidKeyLength
	}
	kek, err := crypt.Blake2bKeyed(s.Key, headerNonce, crypt.KeySize)
	if err != nil {
		return nil, fmt.Errorf("failed to derive kek: %w", err)
	}
	return crypt.NewSecret(kek), nil
}

func (s *SymmetricSource) DeriveEncrypt(headerNonce []byte) (*crypt.Secret, []byte, error) {
	kek, err := s.derive(headerNonce)
	if err != nil {
		return nil, nil, err
	}
	return kek, make([]byte, crypt.PublicKeySize), nil
}

func (s *SymmetricSource) DeriveDecrypt(headerNonce, _ []byte) (*crypt.Secret, error) {
	return s.derive(headerNonce)
}

// AsymmetricSource derives KEKs from X25519 key agreement. On the sender
// side PrivateKey is the sender's key and PeerPublicKey the recipient's; on
// the recipient side PrivateKey is the recipient's key and PeerPublicKey the
// sender's.
//
// Each encryption uses a fresh ephemeral key pair whose public half is
// persisted in the header and whose secret half is destroyed as soon as the
// KEK exists.
type AsymmetricSource struct {
	PrivateKey    []byte
	PeerPublicKey []byte
	// PreSharedKey is an optional 32-byte key mixed into the transcript.
	// Nil means 32 zero bytes; presence or absence is authenticated.
	PreSharedKey []byte
}

// NewSelfSource returns a source that encrypts to the holder of privateKey
// itself.
func NewSelfSource(privateKey, preSharedKey []byte) (*AsymmetricSource, error) {
	if len(privateKey) != crypt.KeySize {
		return nil, ErrInvalidKeyLength
	}
	public, err := crypt.X25519Base(privateKey)
	if err != nil {
		return nil, err
	}
	return &AsymmetricSource{
		PrivateKey:    privateKey,
		PeerPublicKey: public,
		PreSharedKey:  preSharedKey,
	}, nil
}

func (s *AsymmetricSource) validate() ([]byte, error) {
	if len(s.PrivateKey) != crypt.KeySize || len(s.PeerPublicKey) != crypt.PublicKeySize {
		return nil, ErrInvalidKeyLength
	}
	psk := s.PreSharedKey
	if psk == nil {
		psk = make([]byte, crypt.KeySize)
	}
	if len(psk) != crypt.KeySize {
		return nil, ErrInvalidKeyLength
	}
	return psk, nil
}

// transcriptKEK hashes both shared secrets together with the ephemeral and
// recipient public keys and the pre-shared key. Both sides must feed the
// exact same transcript or the header AEAD rejects the result.
func transcriptKEK(s1, s2, ephemeralPublic, recipientPublic, psk []byte) (*crypt.Secret, error) {
	transcript := make([]byte, 0, len(s1)+len(s2)+len(ephemeralPublic)+len(recipientPublic)+len(psk))
	transcript = append(transcript, s1...)
	transcript = append(transcript, s2...)
	transcript = append(transcript, ephemeralPublic...)
	transcript = append(transcript, recipientPublic...)
	transcript = append(transcript, psk...)
	defer crypt.Zero(transcript)

	kek, err := crypt.Blake2bKeyed(nil, transcript, crypt.KeySize)
	if err != nil {
		return nil, fmt.Errorf("failed to derive kek: %w", err)
	}
	return crypt.NewSecret(kek), nil
}

func (s *AsymmetricSource) DeriveEncrypt(_ []byte) (*crypt.Secret, []byte, error) {
	psk, err := s.validate()
	if err != nil {
		return nil, nil, err
	}

	ephemeralPrivate, ephemeralPublic, err := crypt.GenerateKeyPair()
	if err != nil {
		return nil, nil, err
	}
	defer crypt.Zero(ephemeralPrivate)

	s1, err := crypt.X25519(ephemeralPrivate, s.PeerPublicKey)
	if err != nil {
		return nil, nil, err
	}
	defer crypt.Zero(s1)
	s2, err := crypt.X25519(s.PrivateKey, s.PeerPublicKey)
	if err != nil {
		return nil, nil, err
	}
	defer crypt.Zero(s2)

	kek, err := transcriptKEK(s1, s2, ephemeralPublic, s.PeerPublicKey, psk)
	if err != nil {
		return nil, nil, err
	}
	return kek, ephemeralPublic, nil
}

func (s *AsymmetricSource) DeriveDecrypt(_, ephemeralPublic []byte) (*crypt.Secret, error) {
	psk, err := s.validate()
	if err != nil {
		return nil, err
	}
	if len(ephemeralPublic) != crypt.PublicKeySize {
		return nil, ErrInvalidKeyLength
	}

	s1, err := crypt.X25519(s.PrivateKey, ephemeralPublic)
	if err != nil {
		return nil, err
	}
	defer crypt.Zero(s1)
	s2, err := crypt.X25519(s.PrivateKey, s.PeerPublicKey)
	if err != nil {
		return nil, err
	}
	defer crypt.Zero(s2)

	recipientPublic, err := crypt.X25519Base(s.PrivateKey)
	if err != nil {
		return nil, err
	}

	return transcriptKEK(s1, s2, ephemeralPublic, recipientPublic, psk)
}
