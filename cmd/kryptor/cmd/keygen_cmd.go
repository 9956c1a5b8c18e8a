package cmd

import (
	"encoding/base64"
	"flag"
	"fmt"
	"os"

	"github.com/kryptor-go/kryptor/crypt"
	"github.com/kryptor-go/kryptor/keyring"
)

var (
	KeygenCmd  = flag.NewFlagSet("keygen", flag.ExitOnError)
	kgPrivate  = KeygenCmd.String("private", "private.key", "output path for the sealed private key")
	kgPublic   = KeygenCmd.String("public", "public.key", "output path for the public key")
	kgPassword = KeygenCmd.String("password", "", "password to seal the private key (prompted when omitted)")
)

func RunKeygenCmd() int {
	password := []byte(*kgPassword)
	if len(password) == 0 {
		var err error
		if password, err = promptPassword(true); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
	}
	defer crypt.Zero(password)

	privateKey, publicKey, err := crypt.GenerateKeyPair()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Failed to generate key pair:", err)
		return 1
	}
	defer crypt.Zero(privateKey)

	if err := keyring.SavePrivate(*kgPrivate, privateKey, password); err != nil {
		fmt.Fprintln(os.Stderr, "Failed to save private key:", err)
		return 1
	}
	if err := keyring.SavePublic(*kgPublic, publicKey); err != nil {
		fmt.Fprintln(os.Stderr, "Failed to save public key:", err)
		return 1
	}

	fmt.Fprintf(os.Stderr, "Private key: %s\nPublic key:  %s\n", *kgPrivate, *kgPublic)
	fmt.Println(base64.StdEncoding.EncodeToString(publicKey))
	return 0
}
