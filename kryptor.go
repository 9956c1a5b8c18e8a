// Package kryptor encrypts, decrypts, and authenticates files and
// directories using XChaCha20-BLAKE2b in fixed-size chunks, with per-file
// data keys enveloped under password-, key-, or X25519-derived key
// encryption keys.
package kryptor

import (
	"errors"

	"github.com/kryptor-go/kryptor/crypt"
	"github.com/kryptor-go/kryptor/header"
)

const (
	// ChunkSize is the plaintext chunk size in bytes.
	ChunkSize = 16 * 1024
	// EncryptedChunkSize is the on-disk size of one sealed chunk.
	EncryptedChunkSize = ChunkSize + crypt.TagSize
	// Extension is appended to every encrypted file name.
	Extension = ".kryptor"
)

var (
	// ErrTamperOrWrongKey is returned whenever authentication fails. It
	// deliberately does not say which of the two causes applies.
	ErrTamperOrWrongKey = errors.New("incorrect password/key, or this file has been tampered with")
	// ErrUnsupportedFormat is returned when the magic bytes or format
	// version do not match. The input file is left untouched.
	ErrUnsupportedFormat = errors.New("not a kryptor file, or an unsupported format version")
	// ErrValidation is the base error for path, option, and key-material
	// precondition failures. No files have been touched when it surfaces.
	ErrValidation = errors.New("validation failed")
	// ErrCancelled is returned when a file operation is cancelled between
	// chunks.
	ErrCancelled = errors.New("operation cancelled")
	// ErrInternal wraps primitive failures not attributable to the input.
	ErrInternal = errors.New("internal error")
)

// Options controls how a file is encrypted.
type Options struct {
	// OverwriteInput unlinks the input file after the whole operation has
	// succeeded.
	OverwriteInput bool
	// EncryptNames records the original file name inside the sealed header
	// and gives the output a random name.
	EncryptNames bool
}

// ProgressSink receives per-file progress events. Implementations must be
// safe for use from the goroutine running the file operation.
type ProgressSink interface {
	FileStarted(path string, totalBytes int64)
	FileProgress(path string, processedBytes int64)
	FileCompleted(path string)
	FileFailed(path string, err error)
}

// chunkCount returns the number of chunks a plaintext of the given size
// occupies. The empty plaintext still produces one all-padding chunk so that
// every file carries at least one authenticated chunk.
func chunkCount(plaintextSize int64) int64 {
	if plaintextSize == 0 {
		return 1
	}
	return (plaintextSize + ChunkSize - 1) / ChunkSize
}

// paddingLength returns the number of zero bytes appended to fill the final
// chunk.
func paddingLength(plaintextSize int64) uint32 {
	if plaintextSize == 0 {
		return ChunkSize
	}
	rem := plaintextSize % ChunkSize
	if rem == 0 {
		return 0
	}
	return uint32(ChunkSize - rem)
}

// bodyLength returns the length of everything past the fixed header: the
// sealed inner header plus all sealed chunks. It is derivable from the input
// size alone, which lets the header be committed before any chunk is
// written.
func bodyLength(plaintextSize int64) uint64 {
	return uint64(header.SealedInnerSize) + uint64(chunkCount(plaintextSize))*EncryptedChunkSize
}
