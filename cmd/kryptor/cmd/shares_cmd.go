package cmd

import (
	"encoding/hex"
	"flag"
	"fmt"
	"os"

	"github.com/kryptor-go/kryptor/crypt"
	"github.com/kryptor-go/kryptor/keyring"
)

var (
	SharesCmd   = flag.NewFlagSet("shares", flag.ExitOnError)
	shKey       = SharesCmd.String("key", "", "symmetric key to split: 64 hex characters or a keyfile path")
	shParts     = SharesCmd.Int("parts", 3, "number of shares to produce")
	shThreshold = SharesCmd.Int("threshold", 2, "number of shares needed to recover the key")
	shCombine   = SharesCmd.Bool("combine", false, "combine hex shares given as arguments instead of splitting")
)

func RunSharesCmd() int {
	if *shCombine {
		return combineShares(SharesCmd.Args())
	}
	return splitShares()
}

func splitShares() int {
	if *shKey == "" {
		fmt.Fprintln(os.Stderr, "You must specify -key to split.")
		return 1
	}
	key, err := resolveSymmetricKey(*shKey)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer crypt.Zero(key)

	shares, err := keyring.SplitKey(key, *shParts, *shThreshold)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Failed to split key:", err)
		return 1
	}
	for _, share := range shares {
		fmt.Println(hex.EncodeToString(share))
		crypt.Zero(share)
	}
	return 0
}

func combineShares(args []string) int {
	if len(args) < 2 {
		fmt.Fprintln(os.Stderr, "You must pass at least two shares to combine.")
		return 1
	}
	shares := make([][]byte, 0, len(args))
	for _, arg := range args {
		share, err := hex.DecodeString(arg)
		if err != nil {
			fmt.Fprintln(os.Stderr, "Invalid share:", err)
			return 1
		}
		shares = append(shares, share)
	}
	defer func() {
		for _, share := range shares {
			crypt.Zero(share)
		}
	}()

	key, err := keyring.CombineKey(shares)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Failed to combine shares:", err)
		return 1
	}
	fmt.Println(hex.EncodeToString(key))
	crypt.Zero(key)
	return 0
}
