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
	"github.com/kryptor-go/kryptor/util"
)

// Decryptor reverses the encryption pipeline: authenticate and open the
// sealed header, recover the data key, stream the chunks, then restore the
// original name or directory tree.
type Decryptor struct {
	Source   keyring.KEKSource
	Progress ProgressSink
}

func NewDecryptor(source keyring.KEKSource) *Decryptor {
	return &Decryptor{Source: source}
}

// DecryptFile decrypts the file at inputPath and returns the path of the
// restored file or directory. Authentication failure anywhere leaves no
// plaintext on disk.
func (d *Decryptor) DecryptFile(ctx context.Context, inputPath string) (string, error) {
	info, err := os.Stat(inputPath)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if info.IsDir() {
		return "", fmt.Errorf("%w: %s is a directory", ErrValidation, inputPath)
	}

	if d.Progress != nil {
		d.Progress.FileStarted(inputPath, info.Size())
	}
	outputPath, err := d.decrypt(ctx, inputPath, info.Size())
	if err != nil {
		if d.Progress != nil {
			d.Progress.FileFailed(inputPath, err)
		}
		return "", err
	}
	if d.Progress != nil {
		d.Progress.FileCompleted(inputPath)
	}
	return outputPath, nil
}

func (d *Decryptor) decrypt(ctx context.Context, inputPath string, fileSize int64) (string, error) {
	in, err := os.Open(inputPath)
	if err != nil {
		return "", fmt.Errorf("failed to open input: %w", err)
	}
	defer in.Close()

	hdr, err := readHeader(in, fileSize)
	if err != nil {
		return "", err
	}

	kek, err := d.Source.DeriveDecrypt(hdr.Nonce[:], hdr.EphemeralPublicKey[:])
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrValidation, err)
	}
	defer kek.Wipe()

	sealedInner := make([]byte, header.SealedInnerSize)
	if _, err := io.ReadFull(in, sealedInner); err != nil {
		return "", ErrTamperOrWrongKey
	}
	bodyLen := uint64(fileSize - header.FixedSize)
	if err := hdr.Open(kek.Bytes(), sealedInner, bodyLen); err != nil {
		return "", ErrTamperOrWrongKey
	}
	kek.Wipe()
	dek := crypt.NewSecret(hdr.DataKey)
	defer dek.Wipe()

	outputPath := decryptedOutputPath(inputPath)
	if err := d.writeOutput(ctx, in, inputPath, outputPath, hdr, dek, fileSize); err != nil {
		return "", err
	}

	return d.restore(outputPath, hdr)
}

// readHeader validates the fixed prefix. Unrecognised magic or version means
// the file is left untouched and ErrUnsupportedFormat surfaces.
func readHeader(in io.Reader, fileSize int64) (*header.Header, error) {
	if fileSize < header.Size+EncryptedChunkSize {
		fixed := make([]byte, header.FixedSize)
		if _, err := io.ReadFull(in, fixed); err != nil {
			return nil, ErrUnsupportedFormat
		}
		hdr := &header.Header{}
		if err := hdr.UnmarshalFixed(fixed); err != nil {
			return nil, ErrUnsupportedFormat
		}
		return nil, ErrTamperOrWrongKey
	}

	fixed := make([]byte, header.FixedSize)
	if _, err := io.ReadFull(in, fixed); err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	hdr := &header.Header{}
	if err := hdr.UnmarshalFixed(fixed); err != nil {
		return nil, ErrUnsupportedFormat
	}
	return hdr, nil
}

func (d *Decryptor) writeOutput(ctx context.Context, in *os.File, inputPath, outputPath string, hdr *header.Header, dek *crypt.Secret, fileSize int64) (err error) {
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

	chunkBytes := fileSize - header.Size
	var src io.Reader = util.NewLimitReader(in, chunkBytes)
	if d.Progress != nil {
		src = &ioprogress.Reader{
			Reader: src,
			Size:   chunkBytes,
			DrawFunc: func(processed, _ int64) error {
				d.Progress.FileProgress(inputPath, processed)
				return nil
			},
		}
	}

	if err = openChunks(ctx, out, src, dek.Bytes(), hdr.Nonce[:], chunkBytes, hdr.PaddingLength); err != nil {
		return err
	}
	dek.Wipe()

	if err = out.Close(); err != nil {
		return fmt.Errorf("failed to close output: %w", err)
	}
	return nil
}

// restore applies the recovered metadata: unpack directory archives, rename
// to the original file name when one was recorded.
func (d *Decryptor) restore(outputPath string, hdr *header.Header) (string, error) {
	finalName := hdr.FileName
	dir := filepath.Dir(outputPath)

	if hdr.IsDirectory {
		if finalName == "" {
			finalName = filepath.Base(outputPath)
		}
		destDir := resolveCollision(filepath.Join(dir, finalName))
		if err := unpackArchive(outputPath, destDir); err != nil {
			os.Remove(outputPath)
			return "", err
		}
		if err := os.Remove(outputPath); err != nil {
			return "", fmt.Errorf("failed to remove archive: %w", err)
		}
		return destDir, nil
	}

	if finalName != "" {
		renamed := resolveCollision(filepath.Join(dir, finalName))
		if err := os.Rename(outputPath, renamed); err != nil {
			os.Remove(outputPath)
			return "", fmt.Errorf("failed to restore file name: %w", err)
		}
		return renamed, nil
	}
	return outputPath, nil
}

func unpackArchive(archivePath, destDir string) error {
	f, err := os.Open(archivePath)
	if err != nil {
		return fmt.Errorf("failed to open archive: %w", err)
	}
	defer f.Close()
	if err := os.MkdirAll(destDir, 0o700); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	if err := archive.Unpack(f, destDir); err != nil {
		os.RemoveAll(destDir)
		return fmt.Errorf("failed to unpack directory: %w", err)
	}
	return nil
}
