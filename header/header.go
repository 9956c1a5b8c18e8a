// Package header encodes and decodes the kryptor file header: a fixed
// plaintext prefix followed by an inner header sealed under the key
// encryption key.
package header

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/kryptor-go/kryptor/crypt"
)

// On-disk layout. All offsets are relative to the start of the file and all
// integers are little-endian.
//
//	[0:4)     magic
//	[4:6)     format version
//	[6:38)    ephemeral public key (zeros for password and symmetric modes)
//	[38:62)   header nonce
//	[62:374)  sealed inner header
//	[374:...) ciphertext chunks
//
// Inner header plaintext, sealed as one block:
//
//	[0:4)     padding length
//	[4:5)     directory flag
//	[5:9)     file name length
//	[9:264)   file name, zero-padded to FileNameMax
//	[264:296) data encryption key
const (
	// FileNameMax is the maximum stored file name length in bytes.
	FileNameMax = 255
	// FixedSize is the size of the plaintext prefix.
	FixedSize = 4 + 2 + crypt.PublicKeySize + crypt.NonceSize
	// InnerSize is the size of the inner header before sealing.
	InnerSize = 4 + 1 + 4 + FileNameMax + crypt.KeySize
	// SealedInnerSize is the size of the inner header after sealing.
	SealedInnerSize = InnerSize + crypt.TagSize
	// Size is the total header size.
	Size = FixedSize + SealedInnerSize
)

var (
	MagicBytes     = [4]byte{'K', 'R', 'Y', 'P'}
	CurrentVersion = [2]byte{0x00, 0x01}

	ErrInvalidHeaderSize = errors.New("invalid header size")
	ErrUnrecognizedMagic = errors.New("unrecognized magic bytes")
	ErrVersionMismatch   = errors.New("unsupported format version")
	ErrFileNameTooLong   = errors.New("file name exceeds 255 bytes")
)

// Header describes the header of an encrypted file.
type Header struct {
	// Magic identifies the file as kryptor ciphertext.
	Magic [4]byte
	// Version is the format version.
	Version [2]byte
	// EphemeralPublicKey is the per-file X25519 public key, or zeros when
	// key derivation did not use an ephemeral key pair.
	EphemeralPublicKey [crypt.PublicKeySize]byte
	// Nonce is the random header nonce; chunk nonces are derived from it.
	Nonce [crypt.NonceSize]byte

	// PaddingLength is the number of zero bytes appended to the plaintext
	// to fill the final chunk.
	PaddingLength uint32
	// IsDirectory reports whether the plaintext is a packed directory
	// archive.
	IsDirectory bool
	// FileName is the original file name, empty when not recorded.
	FileName string
	// DataKey is the per-file data encryption key.
	DataKey []byte
}

func NewHeader() *Header {
	return &Header{
		Magic:   MagicBytes,
		Version: CurrentVersion,
	}
}

// MarshalFixed encodes the plaintext prefix.
func (h *Header) MarshalFixed() []byte {
	fixed := make([]byte, FixedSize)
	copy(fixed[:4], h.Magic[:])
	copy(fixed[4:6], h.Version[:])
	copy(fixed[6:38], h.EphemeralPublicKey[:])
	copy(fixed[38:62], h.Nonce[:])
	return fixed
}

// UnmarshalFixed decodes the plaintext prefix. Magic and version are
// compared byte-exact; a mismatch leaves the header unmodified.
func (h *Header) UnmarshalFixed(data []byte) error {
	if len(data) < FixedSize {
		return ErrInvalidHeaderSize
	}
	for i, b := range data[:4] {
		if b != MagicBytes[i] {
			return ErrUnrecognizedMagic
		}
	}
	for i, b := range data[4:6] {
		if b != CurrentVersion[i] {
			return ErrVersionMismatch
		}
	}
	copy(h.Magic[:], data[:4])
	copy(h.Version[:], data[4:6])
	copy(h.EphemeralPublicKey[:], data[6:38])
	copy(h.Nonce[:], data[38:62])
	return nil
}

// Seal encrypts the inner header under kek. ciphertextLength is the total
// length of the file past the fixed prefix, which binds the sealed header to
// the body it fronts. The plaintext inner header is wiped before returning.
func (h *Header) Seal(kek []byte, ciphertextLength uint64) ([]byte, error) {
	name := []byte(h.FileName)
	if len(name) > FileNameMax {
		return nil, ErrFileNameTooLong
	}
	if len(h.DataKey) != crypt.KeySize {
		return nil, crypt.ErrInvalidKeySize
	}

	inner := make([]byte, InnerSize)
	defer crypt.Zero(inner)
	binary.LittleEndian.PutUint32(inner[0:4], h.PaddingLength)
	if h.IsDirectory {
		inner[4] = 1
	}
	binary.LittleEndian.PutUint32(inner[5:9], uint32(len(name)))
	copy(inner[9:9+FileNameMax], name)
	copy(inner[9+FileNameMax:], h.DataKey)

	sealed, err := crypt.Seal(kek, h.Nonce[:], inner, h.associatedData(ciphertextLength))
	if err != nil {
		return nil, fmt.Errorf("failed to seal header: %w", err)
	}
	return sealed, nil
}

// Open authenticates and decrypts a sealed inner header, filling in the
// padding length, directory flag, file name, and data key. The decrypted
// buffer is wiped before returning; the data key is the only secret that
// survives, and the caller owns wiping it.
func (h *Header) Open(kek, sealed []byte, ciphertextLength uint64) error {
	if len(sealed) != SealedInnerSize {
		return ErrInvalidHeaderSize
	}
	inner, err := crypt.Open(kek, h.Nonce[:], sealed, h.associatedData(ciphertextLength))
	if err != nil {
		return err
	}
	defer crypt.Zero(inner)

	h.PaddingLength = binary.LittleEndian.Uint32(inner[0:4])
	h.IsDirectory = inner[4] == 1
	nameLen := binary.LittleEndian.Uint32(inner[5:9])
	if nameLen > FileNameMax {
		return ErrInvalidHeaderSize
	}
	h.FileName = string(inner[9 : 9+nameLen])
	h.DataKey = make([]byte, crypt.KeySize)
	copy(h.DataKey, inner[9+FileNameMax:])
	return nil
}

// associatedData builds the transcript that the sealed inner header
// authenticates: the body length and every plaintext prefix field except the
// nonce, which the AEAD consumes directly.
func (h *Header) associatedData(ciphertextLength uint64) []byte {
	ad := make([]byte, 8+4+2+crypt.PublicKeySize)
	binary.LittleEndian.PutUint64(ad[0:8], ciphertextLength)
	copy(ad[8:12], h.Magic[:])
	copy(ad[12:14], h.Version[:])
	copy(ad[14:], h.EphemeralPublicKey[:])
	return ad
}
