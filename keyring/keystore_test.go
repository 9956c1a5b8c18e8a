package keyring_test

import (
	"encoding/base64"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kryptor-go/kryptor/crypt"
	"github.com/kryptor-go/kryptor/keyring"
)

func TestPrivateKeyRoundTrip(t *testing.T) {
	assert := assert.New(t)

	dir := t.TempDir()
	path := filepath.Join(dir, "private.key")
	privateKey := []byte("-KEYKEYKEYKEYKEYKEYKEYKEYKEYKEY-")
	password := []byte("hunter2")

	assert.Nil(keyring.SavePrivate(path, privateKey, password))

	info, err := os.Stat(path)
	assert.Nil(err)
	assert.Equal(os.FileMode(0o600), info.Mode().Perm())

	loaded, err := keyring.LoadPrivate(path, password)
	assert.Nil(err)
	assert.Equal(privateKey, loaded)
}

func TestLoadPrivateWrongPassword(t *testing.T) {
	assert := assert.New(t)

	path := filepath.Join(t.TempDir(), "private.key")
	assert.Nil(keyring.SavePrivate(path, make([]byte, crypt.KeySize), []byte("right")))

	_, err := keyring.LoadPrivate(path, []byte("wrong"))
	assert.ErrorIs(err, keyring.ErrWrongKeyFile)
}

func TestSavePrivateRejectsBadInput(t *testing.T) {
	assert := assert.New(t)

	path := filepath.Join(t.TempDir(), "private.key")
	assert.ErrorIs(keyring.SavePrivate(path, make([]byte, 16), []byte("pw")), keyring.ErrInvalidKeyLength)
	assert.ErrorIs(keyring.SavePrivate(path, make([]byte, crypt.KeySize), nil), keyring.ErrEmptyPassword)
}

func TestPublicKeyRoundTrip(t *testing.T) {
	assert := assert.New(t)

	path := filepath.Join(t.TempDir(), "public.key")
	publicKey := []byte("-PUBPUBPUBPUBPUBPUBPUBPUBPUBPUB-")

	assert.Nil(keyring.SavePublic(path, publicKey))
	loaded, err := keyring.LoadPublic(path)
	assert.Nil(err)
	assert.Equal(publicKey, loaded)
}

func TestLoadPublicInline(t *testing.T) {
	assert := assert.New(t)

	publicKey := []byte("-PUBPUBPUBPUBPUBPUBPUBPUBPUBPUB-")
	loaded, err := keyring.LoadPublic(base64.StdEncoding.EncodeToString(publicKey))
	assert.Nil(err)
	assert.Equal(publicKey, loaded)
}

func TestLoadPublicRejectsPrivateRecord(t *testing.T) {
	assert := assert.New(t)

	path := filepath.Join(t.TempDir(), "private.key")
	assert.Nil(keyring.SavePrivate(path, make([]byte, crypt.KeySize), []byte("pw")))

	_, err := keyring.LoadPublic(path)
	assert.ErrorIs(err, keyring.ErrUnknownKeyType)
}

func TestLoadPrivateRejectsPublicRecord(t *testing.T) {
	assert := assert.New(t)

	path := filepath.Join(t.TempDir(), "public.key")
	assert.Nil(keyring.SavePublic(path, make([]byte, crypt.PublicKeySize)))

	_, err := keyring.LoadPrivate(path, []byte("pw"))
	assert.ErrorIs(err, keyring.ErrUnknownKeyType)
}

func TestHashKeyfile(t *testing.T) {
	assert := assert.New(t)

	path := filepath.Join(t.TempDir(), "keyfile.bin")
	assert.Nil(os.WriteFile(path, []byte("arbitrary keyfile contents"), 0o600))

	key, err := keyring.HashKeyfile(path)
	assert.Nil(err)
	assert.Equal(crypt.KeySize, len(key))

	again, err := keyring.HashKeyfile(path)
	assert.Nil(err)
	assert.Equal(key, again)

	other := filepath.Join(t.TempDir(), "other.bin")
	assert.Nil(os.WriteFile(other, []byte("different contents"), 0o600))
	otherKey, err := keyring.HashKeyfile(other)
	assert.Nil(err)
	assert.NotEqual(key, otherKey)
}
