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
	EncryptCmd   = flag.NewFlagSet("encrypt", flag.ExitOnError)
	encPassword  = EncryptCmd.String("password", "", "password (prompted when omitted and no other key source is given)")
	encKey       = EncryptCmd.String("key", "", "symmetric key: 64 hex characters or a keyfile path")
	encPrivate   = EncryptCmd.String("private", "", "path to your private key file")
	encPublic    = EncryptCmd.String("public", "", "recipient public key: base64 or a key file path")
	encNames     = EncryptCmd.Bool("names", false, "replace output file names with random ones and store the originals encrypted")
	encOverwrite = EncryptCmd.Bool("overwrite", false, "delete the input after successful encryption")
)

func RunEncryptCmd() int {
	paths := EncryptCmd.Args()
	if len(paths) == 0 {
		fmt.Fprintln(os.Stderr, "You must specify at least one file or directory to encrypt.")
		return 1
	}

	source, cleanup, err := encryptSource()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer cleanup()

	driver := kryptor.NewBatchDriver()
	driver.Progress = &consoleProgress{}
	opts := kryptor.Options{
		OverwriteInput: *encOverwrite,
		EncryptNames:   *encNames,
	}

	stats, results := driver.EncryptFiles(context.Background(), paths, source, opts)
	for _, r := range results {
		if r.Err == nil {
			fmt.Println(r.OutputPath)
		}
	}
	fmt.Fprintf(os.Stderr, "%d/%d files encrypted\n", stats.Succeeded, stats.Total)
	if stats.Failed > 0 {
		return 1
	}
	return 0
}

// encryptSource builds the key source from the encrypt flags. A private key
// selects asymmetric mode, a bare symmetric key selects symmetric mode, and
// everything else falls back to a password, with the symmetric key acting as
// an optional pepper.
func encryptSource() (keyring.KEKSource, func(), error) {
	var symKey []byte
	if *encKey != "" {
		var err error
		if symKey, err = resolveSymmetricKey(*encKey); err != nil {
			return nil, nil, err
		}
	}

	if *encPrivate != "" {
		return asymmetricSource(*encPrivate, *encPublic, symKey)
	}

	if symKey != nil && *encPassword == "" {
		return &keyring.SymmetricSource{Key: symKey}, func() { crypt.Zero(symKey) }, nil
	}

	password := []byte(*encPassword)
	if len(password) == 0 {
		var err error
		if password, err = promptPassword(true); err != nil {
			return nil, nil, err
		}
	}
	source := &keyring.PasswordSource{Password: password, Pepper: symKey}
	return source, func() {
		crypt.Zero(password)
		crypt.Zero(symKey)
	}, nil
}

func asymmetricSource(privatePath, public string, preShared []byte) (keyring.KEKSource, func(), error) {
	password, err := promptPassword(false)
	if err != nil {
		return nil, nil, err
	}
	defer crypt.Zero(password)

	privateKey, err := keyring.LoadPrivate(privatePath, password)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		crypt.Zero(privateKey)
		crypt.Zero(preShared)
	}

	if public == "" {
		source, err := keyring.NewSelfSource(privateKey, preShared)
		if err != nil {
			cleanup()
			return nil, nil, err
		}
		return source, cleanup, nil
	}

	peerPublic, err := keyring.LoadPublic(public)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	return &keyring.AsymmetricSource{
		PrivateKey:    privateKey,
		PeerPublicKey: peerPublic,
		PreSharedKey:  preShared,
	}, cleanup, nil
}
