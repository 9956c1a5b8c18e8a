package keyring

import (
	"fmt"

	"github.com/hashicorp/vault/shamir"

	"github.com/kryptor-go/kryptor/crypt"
)

// SplitKey splits a 32-byte symmetric key into parts recovery shares, any
// threshold of which reconstruct it.
func SplitKey(key []byte, parts, threshold int) ([][]byte, error) {
	if len(key) != crypt.KeySize {
		return nil, ErrInvalidKeyLength
	}
	shares, err := shamir.Split(key, parts, threshold)
	if err != nil {
		return nil, fmt.Errorf("failed to split key: %w", err)
	}
	return shares, nil
}

// CombineKey reconstructs a key from recovery shares produced by SplitKey.
func CombineKey(shares [][]byte) ([]byte, error) {
	key, err := shamir.Combine(shares)
	if err != nil {
		return nil, fmt.Errorf("failed to combine shares: %w", err)
	}
	if len(key) != crypt.KeySize {
		crypt.Zero(key)
		return nil, ErrInvalidKeyLength
	}
	return key, nil
}
