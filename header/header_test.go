package header_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kryptor-go/kryptor/crypt"
	"github.com/kryptor-go/kryptor/header"
)

var (
	testKek = []byte("-KEKKEKKEKKEKKEKKEKKEKKEKKEKKEK-")
	testDek = []byte("-DEKDEKDEKDEKDEKDEKDEKDEKDEKDEK-")
)

func newTestHeader() *header.Header {
	h := header.NewHeader()
	copy(h.Nonce[:], []byte("NONCENONCENONCENONCENONC"))
	copy(h.EphemeralPublicKey[:], []byte("EPKEPKEPKEPKEPKEPKEPKEPKEPKEPKEP"))
	h.PaddingLength = 42
	h.FileName = "report.pdf"
	h.DataKey = append([]byte{}, testDek...)
	return h
}

func TestMarshalUnmarshalFixed(t *testing.T) {
	assert := assert.New(t)

	h := newTestHeader()
	fixed := h.MarshalFixed()
	assert.Equal(header.FixedSize, len(fixed))

	h2 := &header.Header{}
	assert.Nil(h2.UnmarshalFixed(fixed))
	assert.Equal(h.Magic, h2.Magic)
	assert.Equal(h.Version, h2.Version)
	assert.Equal(h.EphemeralPublicKey, h2.EphemeralPublicKey)
	assert.Equal(h.Nonce, h2.Nonce)
}

func TestUnmarshalFixedRejectsBadPrefix(t *testing.T) {
	assert := assert.New(t)

	h := newTestHeader()
	fixed := h.MarshalFixed()

	short := &header.Header{}
	assert.ErrorIs(short.UnmarshalFixed(fixed[:header.FixedSize-1]), header.ErrInvalidHeaderSize)

	badMagic := append([]byte{}, fixed...)
	badMagic[0] = 'X'
	assert.ErrorIs((&header.Header{}).UnmarshalFixed(badMagic), header.ErrUnrecognizedMagic)

	badVersion := append([]byte{}, fixed...)
	badVersion[5] = 0x02
	assert.ErrorIs((&header.Header{}).UnmarshalFixed(badVersion), header.ErrVersionMismatch)
}

func TestSealOpen(t *testing.T) {
	assert := assert.New(t)

	h := newTestHeader()
	h.IsDirectory = true
	sealed, err := h.Seal(testKek, 1000)
	assert.Nil(err)
	assert.Equal(header.SealedInnerSize, len(sealed))

	h2 := &header.Header{}
	assert.Nil(h2.UnmarshalFixed(h.MarshalFixed()))
	assert.Nil(h2.Open(testKek, sealed, 1000))
	assert.Equal(uint32(42), h2.PaddingLength)
	assert.True(h2.IsDirectory)
	assert.Equal("report.pdf", h2.FileName)
	assert.Equal(testDek, h2.DataKey)
}

func TestSealLeavesCallerDataKeyIntact(t *testing.T) {
	assert := assert.New(t)

	h := newTestHeader()
	_, err := h.Seal(testKek, 1000)
	assert.Nil(err)
	assert.Equal(testDek, h.DataKey)
}

func TestOpenRejectsWrongKek(t *testing.T) {
	assert := assert.New(t)

	h := newTestHeader()
	sealed, err := h.Seal(testKek, 1000)
	assert.Nil(err)

	wrongKek := append([]byte{}, testKek...)
	wrongKek[0] ^= 0x01
	h2 := &header.Header{}
	assert.Nil(h2.UnmarshalFixed(h.MarshalFixed()))
	assert.ErrorIs(h2.Open(wrongKek, sealed, 1000), crypt.ErrAuthenticationFailed)
}

func TestOpenBindsBodyLength(t *testing.T) {
	assert := assert.New(t)

	h := newTestHeader()
	sealed, err := h.Seal(testKek, 1000)
	assert.Nil(err)

	h2 := &header.Header{}
	assert.Nil(h2.UnmarshalFixed(h.MarshalFixed()))
	assert.ErrorIs(h2.Open(testKek, sealed, 1001), crypt.ErrAuthenticationFailed)
}

func TestOpenBindsEphemeralPublicKey(t *testing.T) {
	assert := assert.New(t)

	h := newTestHeader()
	sealed, err := h.Seal(testKek, 1000)
	assert.Nil(err)

	h2 := &header.Header{}
	assert.Nil(h2.UnmarshalFixed(h.MarshalFixed()))
	h2.EphemeralPublicKey[0] ^= 0x01
	assert.ErrorIs(h2.Open(testKek, sealed, 1000), crypt.ErrAuthenticationFailed)
}

func TestOpenRejectsTamperedInner(t *testing.T) {
	assert := assert.New(t)

	h := newTestHeader()
	sealed, err := h.Seal(testKek, 1000)
	assert.Nil(err)

	sealed[10] ^= 0x01
	h2 := &header.Header{}
	assert.Nil(h2.UnmarshalFixed(h.MarshalFixed()))
	assert.ErrorIs(h2.Open(testKek, sealed, 1000), crypt.ErrAuthenticationFailed)

	assert.ErrorIs(h2.Open(testKek, sealed[:header.SealedInnerSize-1], 1000), header.ErrInvalidHeaderSize)
}

func TestSealRejectsLongFileName(t *testing.T) {
	assert := assert.New(t)

	h := newTestHeader()
	name := make([]byte, header.FileNameMax+1)
	for i := range name {
		name[i] = 'a'
	}
	h.FileName = string(name)
	_, err := h.Seal(testKek, 1000)
	assert.ErrorIs(err, header.ErrFileNameTooLong)
}

func TestSealRejectsBadDataKey(t *testing.T) {
	assert := assert.New(t)

	h := newTestHeader()
	h.DataKey = h.DataKey[:16]
	_, err := h.Seal(testKek, 1000)
	assert.ErrorIs(err, crypt.ErrInvalidKeySize)
}
