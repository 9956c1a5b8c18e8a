// Package cmd implements the kryptor subcommands.
package cmd

import (
	"encoding/hex"
	"fmt"
	"os"

	"golang.org/x/term"

	"github.com/kryptor-go/kryptor/crypt"
	"github.com/kryptor-go/kryptor/keyring"
	"github.com/kryptor-go/kryptor/util"
)

// promptPassword reads a password from the terminal without echo. With
// confirm set the password is read twice and both entries must match.
func promptPassword(confirm bool) ([]byte, error) {
	fmt.Fprint(os.Stderr, "Password: ")
	password, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return nil, fmt.Errorf("failed to read password: %w", err)
	}
	if !confirm {
		return password, nil
	}

	fmt.Fprint(os.Stderr, "Confirm password: ")
	again, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		crypt.Zero(password)
		return nil, fmt.Errorf("failed to read password: %w", err)
	}
	defer crypt.Zero(again)

	if len(password) != len(again) || string(password) != string(again) {
		crypt.Zero(password)
		return nil, fmt.Errorf("passwords do not match")
	}
	return password, nil
}

// resolveSymmetricKey accepts either 64 hex characters inline or a path to a
// keyfile, which is hashed down to 32 bytes of key material.
func resolveSymmetricKey(keyArg string) ([]byte, error) {
	if decoded, err := hex.DecodeString(keyArg); err == nil && len(decoded) == crypt.KeySize {
		return decoded, nil
	}
	if _, err := os.Stat(keyArg); err == nil {
		return keyring.HashKeyfile(keyArg)
	}
	return nil, fmt.Errorf("key must be 64 hex characters or a keyfile path")
}

// consoleProgress prints per-file progress to stderr. Progress lines are
// rewritten in place; start and completion get their own lines.
type consoleProgress struct {
	size int64
}

func (p *consoleProgress) FileStarted(path string, size int64) {
	p.size = size
	fmt.Fprintf(os.Stderr, "%s (%s)\n", path, util.FormatSize(size))
}

func (p *consoleProgress) FileProgress(path string, processed int64) {
	if p.size <= 0 {
		return
	}
	fmt.Fprintf(os.Stderr, "\r%s / %s", util.FormatSize(processed), util.FormatSize(p.size))
}

func (p *consoleProgress) FileCompleted(path string) {
	fmt.Fprint(os.Stderr, "\rdone\n")
}

func (p *consoleProgress) FileFailed(path string, err error) {
	fmt.Fprintf(os.Stderr, "\rfailed: %v\n", err)
}
