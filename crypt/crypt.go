// Package crypt wraps the cryptographic primitives used by the kryptor file
// format: the XChaCha20-BLAKE2b AEAD, Argon2id, keyed BLAKE2b, and X25519.
package crypt

import (
	"crypto/hmac"
	"crypto/rand"
	"errors"
	"fmt"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/blake2b"
	"golang.org/x/crypto/chacha20"
	"golang.org/x/crypto/curve25519"
)

const (
	// KeySize is the size of all symmetric keys in bytes.
	KeySize = 32
	// NonceSize is the size of an XChaCha20 nonce in bytes.
	NonceSize = chacha20.NonceSizeX
	// TagSize is the size of the AEAD authentication tag in bytes.
	TagSize = 16
	// SaltSize is the size of the Argon2id salt in bytes.
	SaltSize = 16
	// PublicKeySize is the size of an X25519 public key in bytes.
	PublicKeySize = curve25519.PointSize
)

// Argon2id parameters. These are part of the file format: changing any of
// them makes existing ciphertexts undecryptable.
const (
	Argon2Memory      = 256 * 1024
	Argon2Iterations  = 12
	Argon2Parallelism = 1
)

var (
	ErrAuthenticationFailed = errors.New("message authentication failed")
	ErrInvalidKeySize       = errors.New("key must be 32 bytes long")
	ErrInvalidNonceSize     = errors.New("nonce must be 24 bytes long")
)

// Seal encrypts plaintext under key and nonce, authenticating the ciphertext
// together with ad. The output is len(plaintext) + TagSize bytes.
//
// The construction is encrypt-then-MAC: the BLAKE2b MAC key is taken from
// XChaCha20 keystream block zero, the plaintext is encrypted from keystream
// block one, and the 16-byte tag covers ad, the ciphertext, and both lengths.
func Seal(key, nonce, plaintext, ad []byte) ([]byte, error) {
	stream, macKey, err := newStream(key, nonce)
	if err != nil {
		return nil, err
	}
	defer Zero(macKey)

	out := make([]byte, len(plaintext)+TagSize)
	stream.XORKeyStream(out[:len(plaintext)], plaintext)

	tag, err := authTag(macKey, out[:len(plaintext)], ad)
	if err != nil {
		return nil, err
	}
	copy(out[len(plaintext):], tag)
	return out, nil
}

// Open verifies and decrypts a ciphertext produced by Seal. On authentication
// failure it returns ErrAuthenticationFailed and no plaintext bytes.
func Open(key, nonce, ciphertext, ad []byte) ([]byte, error) {
	if len(ciphertext) < TagSize {
		return nil, ErrAuthenticationFailed
	}
	stream, macKey, err := newStream(key, nonce)
	if err != nil {
		return nil, err
	}
	defer Zero(macKey)

	body := ciphertext[:len(ciphertext)-TagSize]
	tag, err := authTag(macKey, body, ad)
	if err != nil {
		return nil, err
	}
	if !hmac.Equal(tag, ciphertext[len(ciphertext)-TagSize:]) {
		return nil, ErrAuthenticationFailed
	}

	plaintext := make([]byte, len(body))
	stream.XORKeyStream(plaintext, body)
	return plaintext, nil
}

// newStream returns an XChaCha20 cipher positioned at keystream block one,
// along with the MAC key taken from block zero.
func newStream(key, nonce []byte) (*chacha20.Cipher, []byte, error) {
	if len(key) != KeySize {
		return nil, nil, ErrInvalidKeySize
	}
	if len(nonce) != NonceSize {
		return nil, nil, ErrInvalidNonceSize
	}
	stream, err := chacha20.NewUnauthenticatedCipher(key, nonce)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create stream cipher: %w", err)
	}
	block0 := make([]byte, 64)
	stream.XORKeyStream(block0, block0)
	macKey := block0[:KeySize]
	Zero(block0[KeySize:])
	return stream, macKey, nil
}

func authTag(macKey, ciphertext, ad []byte) ([]byte, error) {
	mac, err := blake2b.New(TagSize, macKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create mac: %w", err)
	}
	mac.Write(ad)
	mac.Write(ciphertext)
	var lengths [16]byte
	putUint64LE(lengths[:8], uint64(len(ad)))
	putUint64LE(lengths[8:], uint64(len(ciphertext)))
	mac.Write(lengths[:])
	return mac.Sum(nil), nil
}

func putUint64LE(b []byte, v uint64) {
	for i := 0; i < 8; i++ {
		b[i] = byte(v >> (8 * i))
	}
}

// Rand fills a new buffer of n bytes from the operating system CSPRNG.
func Rand(n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return nil, fmt.Errorf("failed to read random bytes: %w", err)
	}
	return b, nil
}

// DeriveKeyArgon2 derives a 32-byte key from a password and a 16-byte salt
// using Argon2id with the format's frozen parameters.
func DeriveKeyArgon2(password, salt []byte) []byte {
	return argon2.IDKey(password, salt, Argon2Iterations, Argon2Memory, Argon2Parallelism, KeySize)
}

// Blake2bKeyed computes a keyed BLAKE2b digest of size bytes. A nil key
// yields the unkeyed hash.
func Blake2bKeyed(key, input []byte, size int) ([]byte, error) {
	h, err := blake2b.New(size, key)
	if err != nil {
		return nil, fmt.Errorf("failed to create hash: %w", err)
	}
	h.Write(input)
	return h.Sum(nil), nil
}

// X25519 computes the shared secret between a private scalar and a public
// point.
func X25519(scalar, point []byte) ([]byte, error) {
	shared, err := curve25519.X25519(scalar, point)
	if err != nil {
		return nil, fmt.Errorf("failed to compute shared secret: %w", err)
	}
	return shared, nil
}

// X25519Base returns the public point for a private scalar.
func X25519Base(scalar []byte) ([]byte, error) {
	public, err := curve25519.X25519(scalar, curve25519.Basepoint)
	if err != nil {
		return nil, fmt.Errorf("failed to derive public key: %w", err)
	}
	return public, nil
}

// GenerateKeyPair returns a fresh X25519 key pair.
func GenerateKeyPair() (privateKey, publicKey []byte, err error) {
	privateKey, err = Rand(KeySize)
	if err != nil {
		return nil, nil, err
	}
	publicKey, err = X25519Base(privateKey)
	if err != nil {
		Zero(privateKey)
		return nil, nil, err
	}
	return privateKey, publicKey, nil
}
