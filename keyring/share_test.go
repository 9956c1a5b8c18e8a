package keyring_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kryptor-go/kryptor/crypt"
	"github.com/kryptor-go/kryptor/keyring"
)

func TestSplitCombineKey(t *testing.T) {
	assert := assert.New(t)

	key, err := crypt.Rand(crypt.KeySize)
	assert.Nil(err)

	shares, err := keyring.SplitKey(key, 5, 3)
	assert.Nil(err)
	assert.Equal(5, len(shares))

	recovered, err := keyring.CombineKey(shares[:3])
	assert.Nil(err)
	assert.Equal(key, recovered)

	recovered, err = keyring.CombineKey([][]byte{shares[4], shares[1], shares[2]})
	assert.Nil(err)
	assert.Equal(key, recovered)
}

func TestCombineKeyBelowThreshold(t *testing.T) {
	assert := assert.New(t)

	key, err := crypt.Rand(crypt.KeySize)
	assert.Nil(err)

	shares, err := keyring.SplitKey(key, 3, 2)
	assert.Nil(err)

	recovered, err := keyring.CombineKey(shares[:1])
	if err == nil {
		assert.NotEqual(key, recovered)
	}
}

func TestSplitKeyRejectsBadInput(t *testing.T) {
	assert := assert.New(t)

	_, err := keyring.SplitKey(make([]byte, 16), 3, 2)
	assert.ErrorIs(err, keyring.ErrInvalidKeyLength)

	_, err = keyring.SplitKey(make([]byte, crypt.KeySize), 2, 3)
	assert.NotNil(err)
}
