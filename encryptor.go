package kryptor

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/mitchellh/ioprogress"

	"github.com/kryptor-go/kryptor/archive"
	"github.com/kryptor-go/kryptor/crypt"
	"github.com/kryptor-go/kryptor/header"
	"github.com/kryptor-go/kryptor/keyring"
)

// Encryptor drives single files and directories through the encryption
// pipeline: derive a KEK, envelope a fresh data key inside the sealed
// header, then stream the plaintext through the chunk pipeline.
type Encryptor struct {
	Source   keyring.KEKSource
	Options  Options
	Progress ProgressSink
}

func NewEncryptor(source keyring.KEKSource, opts Options) *Encryptor {
	return &Encryptor{Source: source, Options: opts}
}

// EncryptFile encrypts the file or directory at inputPath and returns the
// path of the encrypted output. Directories are packed to a temporary
// archive first and flagged in the header so decryption can restore the
// tree.
//
// On any failure the partial output is removed and every key buffer is
// wiped before the error is returned.
func (e *Encryptor) EncryptFile(ctx context.Context, inputPath string) (outputPath string, err error) {
	info, err := os.Stat(inputPath)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrValidation, err)
	}

	plaintextPath := inputPath
	isDirectory := info.IsDir()
	if isDirectory {
		packed, err := packDirectory(inputPath)
		if err != nil {
			return "", err
		}
		defer os.Remove(packed)
		plaintextPath = packed
		if info, err = os.Stat(packed); err != nil {
			return "", fmt.Errorf("failed to stat packed archive: %w", err)
		}
	}
	plaintextSize := info.Size()

	outputPath = encryptedOutputPath(inputPath, e.Options.EncryptNames)
	if e.Progress != nil {
		e.Progress.FileStarted(inputPath, plaintextSize)
	}
	if err := e.encrypt(ctx, plaintextPath, outputPath, plaintextSize, isDirectory, filepath.Base(inputPath)); err != nil {
		if e.Progress != nil {
			e.Progress.FileFailed(inputPath, err)
		}
		return "", err
	}

	if e.Options.OverwriteInput {
		if isDirectory {
			err = os.RemoveAll(inputPath)
		} else {
			err = os.Remove(inputPath)
		}
		if err != nil {
			return "", fmt.Errorf("failed to remove input: %w", err)
		}
	}
	if e.Progress != nil {
		e.Progress.FileCompleted(inputPath)
	}
	return outputPath, nil
}

func (e *Encryptor) encrypt(ctx context.Context, plaintextPath, outputPath string, plaintextSize int64, isDirectory bool, originalName string) (err error) {
	nonce, err := crypt.Rand(crypt.NonceSize)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInternal, err)
	}
	dek, err := crypt.NewRandomSecret(crypt.KeySize)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInternal, err)
	}
	defer dek.Wipe()

	kek, ephemeralPublic, err := e.Source.DeriveEncrypt(nonce)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	defer kek.Wipe()

	hdr := header.NewHeader()
	copy(hdr.EphemeralPublicKey[:], ephemeralPublic)
	copy(hdr.Nonce[:], nonce)
	hdr.PaddingLength = paddingLength(plaintextSize)
	hdr.IsDirectory = isDirectory
	hdr.DataKey = dek.Bytes()
	if e.Options.EncryptNames {
		hdr.FileName = originalName
	}

	// The body length is known before any chunk is written, so the sealed
	// header is committed first and a crash can never leave a file whose
	// header promises chunks that were never written.
	sealedInner, err := hdr.Seal(kek.Bytes(), bodyLength(plaintextSize))
	if err != nil {
		return fmt.Errorf("failed to seal header: %w", err)
	}
	kek.Wipe()

	in, err := os.Open(plaintextPath)
	if err != nil {
		return fmt.Errorf("failed to open input: %w", err)
	}
	defer in.Close()

	out, err := os.OpenFile(outputPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return fmt.Errorf("failed to create output: %w", err)
	}
	defer func() {
		out.Close()
		if err != nil {
			os.Remove(outputPath)
		}
	}()

	if _, err = out.Write(hdr.MarshalFixed()); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	if _, err = out.Write(sealedInner); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	var src io.Reader = in
	if e.Progress != nil {
		src = e.progressReader(in, plaintextPath, plaintextSize)
	}
	if err = sealChunks(ctx, out, src, dek.Bytes(), hdr.Nonce[:], plaintextSize); err != nil {
		return err
	}
	dek.Wipe()

	if err = out.Close(); err != nil {
		return fmt.Errorf("failed to close output: %w", err)
	}
	return nil
}

func (e *Encryptor) progressReader(r io.Reader, path string, size int64) io.Reader {
	return &ioprogress.Reader{
		Reader: r,
		Size:   size,
		DrawFunc: func(processed, _ int64) error {
			e.Progress.FileProgress(path, processed)
			return nil
		},
	}
}

// packDirectory packs dirPath into a temporary archive beside it.
func packDirectory(dirPath string) (string, error) {
	tmp, err := os.CreateTemp(filepath.Dir(dirPath), ".kryptor-pack-*")
	if err != nil {
		return "", fmt.Errorf("failed to create archive: %w", err)
	}
	if err := archive.Pack(tmp, dirPath); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", fmt.Errorf("failed to pack directory: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("failed to finish archive: %w", err)
	}
	return tmp.Name(), nil
}
