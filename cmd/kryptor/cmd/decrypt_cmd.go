package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/kryptor-go/kryptor"
	"github.com/kryptor-go/kryptor/crypt"
	"github.com/kryptor-go/kryptor/keyring"
)

var (
	DecryptCmd  = flag.NewFlagSet("decrypt", flag.ExitOnError)
	decPassword = DecryptCmd.String("password", "", "password (prompted when omitted and no other key source is given)")
	decKey      = DecryptCmd.String("key", "", "symmetric key: 64 hex characters or a keyfile path")
	decPrivate  = DecryptCmd.String("private", "", "path to your private key file")
	decPublic   = DecryptCmd.String("public", "", "sender public key: base64 or a key file path")
)

func RunDecryptCmd() int {
	paths := DecryptCmd.Args()
	if len(paths) == 0 {
		fmt.Fprintln(os.Stderr, "You must specify at least one file to decrypt.")
		return 1
	}

	source, cleanup, err := decryptSource()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer cleanup()

	driver := kryptor.NewBatchDriver()
	driver.Progress = &consoleProgress{}

	stats, results := driver.DecryptFiles(context.Background(), paths, source)
	for _, r := range results {
		if r.Err == nil {
			fmt.Println(r.OutputPath)
		}
	}
	fmt.Fprintf(os.Stderr, "%d/%d files decrypted\n", stats.Succeeded, stats.Total)
	if stats.Failed > 0 {
		return 1
	}
	return 0
}

func decryptSource() (keyring.KEKSource, func(), error) {
	var symKey []byte
	if *decKey != "" {
		var err error
		if symKey, err = resolveSymmetricKey(*decKey); err != nil {
			return nil, nil, err
		}
	}

	if *decPrivate != "" {
		return asymmetricSource(*decPrivate, *decPublic, symKey)
	}

	if symKey != nil && *decPassword == "" {
		return &keyring.SymmetricSource{Key: symKey}, func() { crypt.Zero(symKey) }, nil
	}

	password := []byte(*decPassword)
	if len(password) == 0 {
		var err error
		if password, err = promptPassword(false); err != nil {
			return nil, nil, err
		}
	}
	source := &keyring.PasswordSource{Password: password, Pepper: symKey}
	return source, func() {
		crypt.Zero(password)
		crypt.Zero(symKey)
	}, nil
}
