package bytecounter

import "io"

// ByteCounter is an io.Reader that counts bytes read through it
type ByteCounter struct {
	N int64
	r io.Reader
}

// New returns a new ByteCounter
func New(r io.Reader) *ByteCounter {
	return &ByteCounter{r: r}
}

// Read reads from the underlying io.Reader and counts total read bytes
func (b *ByteCounter) Read(data []byte) (n int, err error) {
	defer func() { b.N += int64(n) }()
	return b.r.Read(data)
}
