package crypt

import "github.com/awnumar/memguard"

// Zero wipes b in a way the compiler cannot elide. Safe on nil and empty
// slices.
func Zero(b []byte) {
	if len(b) == 0 {
		return
	}
	memguard.WipeBytes(b)
}

// Secret owns a byte buffer holding key material. It must not be copied; the
// underlying bytes are reachable only through Bytes and are destroyed by
// Wipe.
type Secret struct {
	data  []byte
	wiped bool
}

// NewSecret takes ownership of b. The caller must not retain b.
func NewSecret(b []byte) *Secret {
	return &Secret{data: b}
}

// NewRandomSecret returns a Secret filled with n random bytes.
func NewRandomSecret(n int) (*Secret, error) {
	b, err := Rand(n)
	if err != nil {
		return nil, err
	}
	return NewSecret(b), nil
}

// Bytes returns a read-only view of the secret. The view is invalid after
// Wipe.
func (s *Secret) Bytes() []byte {
	if s == nil || s.wiped {
		return nil
	}
	return s.data
}

// Len returns the secret length in bytes, zero once wiped.
func (s *Secret) Len() int {
	return len(s.Bytes())
}

// Wipe destroys the secret. Idempotent.
func (s *Secret) Wipe() {
	if s == nil || s.wiped {
		return
	}
	Zero(s.data)
	s.data = nil
	s.wiped = true
}

// Close implements io.Closer by wiping the secret.
func (s *Secret) Close() error {
	s.Wipe()
	return nil
}
