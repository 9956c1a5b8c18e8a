package util

import "io"

// ZeroReadSeeker reads as a file of Size zero bytes.
type ZeroReadSeeker struct {
	Size   int64
	cursor int64
}

var _ io.ReadSeeker = &ZeroReadSeeker{}

func (z *ZeroReadSeeker) Read(p []byte) (int, error) {
	if z.cursor >= z.Size {
		return 0, io.EOF
	}
	n := int64(len(p))
	if z.cursor+n > z.Size {
		n = z.Size - z.cursor
	}
	for i := int64(0); i < n; i++ {
		p[i] = 0
	}
	z.cursor += n
	return int(n), nil
}

func (z *ZeroReadSeeker) Seek(offset int64, whence int) (int64, error) {
	switch whence {
	case io.SeekStart:
		z.cursor = offset
	case io.SeekCurrent:
		z.cursor += offset
	case io.SeekEnd:
		z.cursor = z.Size + offset
	}
	if z.cursor < 0 {
		z.cursor = 0
	}
	if z.cursor > z.Size {
		z.cursor = z.Size
	}
	return z.cursor, nil
}
