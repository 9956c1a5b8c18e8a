package kryptor

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/kryptor-go/kryptor/crypt"
	"github.com/kryptor-go/kryptor/util"
)

// sealChunks streams plaintextSize bytes from src through the AEAD in
// ChunkSize windows, writing sealed chunks to dst. The final window is
// filled with zero bytes up to ChunkSize. Chunk k is sealed with nonce
// headerNonce+k+1, so the header's own nonce is never reused.
//
// The data key is borrowed, not owned; the caller wipes it.
func sealChunks(ctx context.Context, dst io.Writer, src io.Reader, dek, headerNonce []byte, plaintextSize int64) error {
	chunks := chunkCount(plaintextSize)
	padding := int64(paddingLength(plaintextSize))
	padded := io.MultiReader(src, &util.ZeroReadSeeker{Size: padding})

	nonce := make([]byte, crypt.NonceSize)
	copy(nonce, headerNonce)

	buf := make([]byte, ChunkSize)
	defer crypt.Zero(buf)
	for i := int64(0); i < chunks; i++ {
		if err := ctx.Err(); err != nil {
			return ErrCancelled
		}
		if _, err := io.ReadFull(padded, buf); err != nil {
			return fmt.Errorf("failed to read plaintext chunk %d: %w", i, err)
		}
		if err := crypt.IncrementNonce(nonce); err != nil {
			return fmt.Errorf("%w: %v", ErrInternal, err)
		}
		sealed, err := crypt.Seal(dek, nonce, buf, nil)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrInternal, err)
		}
		if _, err := dst.Write(sealed); err != nil {
			return fmt.Errorf("failed to write chunk %d: %w", i, err)
		}
	}
	return nil
}

// openChunks reads sealed chunks from src, authenticates and decrypts each
// one, and writes the plaintext to dst with the trailing padding stripped
// from the final chunk. chunkBytes is the length of the chunk region, which
// must be a whole number of sealed chunks.
func openChunks(ctx context.Context, dst io.Writer, src io.Reader, dek, headerNonce []byte, chunkBytes int64, padding uint32) error {
	if chunkBytes <= 0 || chunkBytes%EncryptedChunkSize != 0 {
		return ErrTamperOrWrongKey
	}
	chunks := chunkBytes / EncryptedChunkSize
	if int64(padding) > ChunkSize {
		return ErrTamperOrWrongKey
	}

	nonce := make([]byte, crypt.NonceSize)
	copy(nonce, headerNonce)

	sealed := make([]byte, EncryptedChunkSize)
	for i := int64(0); i < chunks; i++ {
		if err := ctx.Err(); err != nil {
			return ErrCancelled
		}
		if _, err := io.ReadFull(src, sealed); err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				return ErrTamperOrWrongKey
			}
			return fmt.Errorf("failed to read chunk %d: %w", i, err)
		}
		if err := crypt.IncrementNonce(nonce); err != nil {
			return fmt.Errorf("%w: %v", ErrInternal, err)
		}
		plain, err := crypt.Open(dek, nonce, sealed, nil)
		if err != nil {
			if errors.Is(err, crypt.ErrAuthenticationFailed) {
				return ErrTamperOrWrongKey
			}
			return fmt.Errorf("%w: %v", ErrInternal, err)
		}
		if i == chunks-1 {
			plain = plain[:ChunkSize-int(padding)]
		}
		_, err = dst.Write(plain)
		crypt.Zero(plain[:cap(plain)])
		if err != nil {
			return fmt.Errorf("failed to write chunk %d: %w", i, err)
		}
	}
	return nil
}
