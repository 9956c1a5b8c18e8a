package kryptor

import (
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// encryptedOutputPath picks the output name for an encrypted file. With
// hideName set the name carries no trace of the input; otherwise the input
// name gains the kryptor extension.
func encryptedOutputPath(inputPath string, hideName bool) string {
	dir := filepath.Dir(inputPath)
	if hideName {
		id := uuid.New()
		return resolveCollision(filepath.Join(dir, hex.EncodeToString(id[:])+".bin"+Extension))
	}
	return resolveCollision(inputPath + Extension)
}

// decryptedOutputPath strips the kryptor extension, or marks the file as
// decrypted when the extension is absent.
func decryptedOutputPath(inputPath string) string {
	if strings.HasSuffix(inputPath, Extension) {
		return resolveCollision(strings.TrimSuffix(inputPath, Extension))
	}
	return resolveCollision(inputPath + ".decrypted")
}

// resolveCollision returns path unchanged when nothing exists there, or the
// first "name (n)" variant that is free. The suffix goes before the final
// extension, the way desktop file managers rename duplicates.
func resolveCollision(path string) string {
	if _, err := os.Lstat(path); err != nil {
		return path
	}
	ext := filepath.Ext(path)
	stem := strings.TrimSuffix(path, ext)
	for n := 1; ; n++ {
		candidate := fmt.Sprintf("%s (%d)%s", stem, n, ext)
		if _, err := os.Lstat(candidate); err != nil {
			return candidate
		}
	}
}
