package crypt_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kryptor-go/kryptor/crypt"
)

var (
	testKey   = []byte("-KEYKEYKEYKEYKEYKEYKEYKEYKEYKEY-")
	testNonce = []byte("NONCENONCENONCENONCENONC")
)

func TestSealOpen(t *testing.T) {
	assert := assert.New(t)

	plaintext := []byte("attack at dawn")
	ad := []byte("context")

	sealed, err := crypt.Seal(testKey, testNonce, plaintext, ad)
	assert.Nil(err)
	assert.Equal(len(plaintext)+crypt.TagSize, len(sealed))
	assert.NotEqual(plaintext, sealed[:len(plaintext)])

	opened, err := crypt.Open(testKey, testNonce, sealed, ad)
	assert.Nil(err)
	assert.Equal(plaintext, opened)
}

func TestSealOpenEmptyPlaintext(t *testing.T) {
	assert := assert.New(t)

	sealed, err := crypt.Seal(testKey, testNonce, nil, nil)
	assert.Nil(err)
	assert.Equal(crypt.TagSize, len(sealed))

	opened, err := crypt.Open(testKey, testNonce, sealed, nil)
	assert.Nil(err)
	assert.Empty(opened)
}

func TestOpenRejectsTampering(t *testing.T) {
	assert := assert.New(t)

	plaintext := []byte("attack at dawn")
	sealed, err := crypt.Seal(testKey, testNonce, plaintext, []byte("ad"))
	assert.Nil(err)

	for i := range sealed {
		mangled := append([]byte{}, sealed...)
		mangled[i] ^= 0x01
		_, err := crypt.Open(testKey, testNonce, mangled, []byte("ad"))
		assert.ErrorIs(err, crypt.ErrAuthenticationFailed, "byte %d", i)
	}
}

func TestOpenRejectsWrongKeyNonceAd(t *testing.T) {
	assert := assert.New(t)

	sealed, err := crypt.Seal(testKey, testNonce, []byte("secret"), []byte("ad"))
	assert.Nil(err)

	wrongKey := append([]byte{}, testKey...)
	wrongKey[0] ^= 0x01
	_, err = crypt.Open(wrongKey, testNonce, sealed, []byte("ad"))
	assert.ErrorIs(err, crypt.ErrAuthenticationFailed)

	wrongNonce := append([]byte{}, testNonce...)
	wrongNonce[0] ^= 0x01
	_, err = crypt.Open(testKey, wrongNonce, sealed, []byte("ad"))
	assert.ErrorIs(err, crypt.ErrAuthenticationFailed)

	_, err = crypt.Open(testKey, testNonce, sealed, []byte("da"))
	assert.ErrorIs(err, crypt.ErrAuthenticationFailed)
}

func TestOpenRejectsShortCiphertext(t *testing.T) {
	assert := assert.New(t)

	_, err := crypt.Open(testKey, testNonce, make([]byte, crypt.TagSize-1), nil)
	assert.ErrorIs(err, crypt.ErrAuthenticationFailed)
}

func TestSealRejectsBadSizes(t *testing.T) {
	assert := assert.New(t)

	_, err := crypt.Seal(testKey[:16], testNonce, []byte("x"), nil)
	assert.ErrorIs(err, crypt.ErrInvalidKeySize)

	_, err = crypt.Seal(testKey, testNonce[:12], []byte("x"), nil)
	assert.ErrorIs(err, crypt.ErrInvalidNonceSize)
}

func TestIncrementNonce(t *testing.T) {
	assert := assert.New(t)

	nonce := make([]byte, crypt.NonceSize)
	assert.Nil(crypt.IncrementNonce(nonce))
	assert.Equal(byte(1), nonce[0])

	nonce[0] = 0xff
	assert.Nil(crypt.IncrementNonce(nonce))
	assert.Equal(byte(0), nonce[0])
	assert.Equal(byte(1), nonce[1])
}

func TestIncrementNonceOverflow(t *testing.T) {
	assert := assert.New(t)

	nonce := make([]byte, crypt.NonceSize)
	for i := range nonce {
		nonce[i] = 0xff
	}
	assert.ErrorIs(crypt.IncrementNonce(nonce), crypt.ErrNonceOverflow)

	assert.ErrorIs(crypt.IncrementNonce(make([]byte, 12)), crypt.ErrInvalidNonceSize)
}

func TestDistinctNoncesProduceDistinctCiphertexts(t *testing.T) {
	assert := assert.New(t)

	plaintext := make([]byte, 64)
	a, err := crypt.Seal(testKey, testNonce, plaintext, nil)
	assert.Nil(err)

	next := append([]byte{}, testNonce...)
	assert.Nil(crypt.IncrementNonce(next))
	b, err := crypt.Seal(testKey, next, plaintext, nil)
	assert.Nil(err)

	assert.NotEqual(a, b)
}

func TestX25519Agreement(t *testing.T) {
	assert := assert.New(t)

	alicePriv, alicePub, err := crypt.GenerateKeyPair()
	assert.Nil(err)
	bobPriv, bobPub, err := crypt.GenerateKeyPair()
	assert.Nil(err)
	assert.NotEqual(alicePub, bobPub)

	s1, err := crypt.X25519(alicePriv, bobPub)
	assert.Nil(err)
	s2, err := crypt.X25519(bobPriv, alicePub)
	assert.Nil(err)
	assert.Equal(s1, s2)
}

func TestSecretWipe(t *testing.T) {
	assert := assert.New(t)

	s, err := crypt.NewRandomSecret(crypt.KeySize)
	assert.Nil(err)
	assert.Equal(crypt.KeySize, s.Len())

	s.Wipe()
	assert.Nil(s.Bytes())
	assert.Equal(0, s.Len())
	s.Wipe()
	assert.Nil(s.Close())
}

func TestBlake2bKeyed(t *testing.T) {
	assert := assert.New(t)

	keyed, err := crypt.Blake2bKeyed(testKey, []byte("input"), crypt.KeySize)
	assert.Nil(err)
	assert.Equal(crypt.KeySize, len(keyed))

	unkeyed, err := crypt.Blake2bKeyed(nil, []byte("input"), crypt.KeySize)
	assert.Nil(err)
	assert.NotEqual(keyed, unkeyed)

	again, err := crypt.Blake2bKeyed(testKey, []byte("input"), crypt.KeySize)
	assert.Nil(err)
	assert.Equal(keyed, again)
}
