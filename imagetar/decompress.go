package imagetar

import (
	"bufio"
	"bytes"
	"compress/bzip2"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
	"github.com/ulikunitz/xz"
)

var (
	_magicGzip  = []byte{0x1f, 0x8b}
	_magicBzip2 = []byte("BZh")
	_magicXz    = []byte{0xfd, '7', 'z', 'X', 'Z', 0x00}
	_magicZstd  = []byte{0x28, 0xb5, 0x2f, 0xfd}
	_magicLZ4   = []byte{0x04, 0x22, 0x4d, 0x18}
)

const (
	_blockSize = 512
	// _chksumOff and _chksumEnd delimit the checksum field of a tar header
	_chksumOff = 148
	_chksumEnd = 156
)

// decompress sniffs the compression of r and returns a reader of the
// uncompressed stream. A stream starting with a valid tar header, or with
// no known magic number, is passed through as is.
func decompress(r io.Reader) (io.ReadCloser, error) {
	br := bufio.NewReader(r)
	magic, err := br.Peek(_blockSize)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	if isTarHeader(magic) {
		return io.NopCloser(br), nil
	}

	switch {
	case bytes.HasPrefix(magic, _magicGzip):
		zr, err := gzip.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("gzip: %w", err)
		}
		return zr, nil
	case bytes.HasPrefix(magic, _magicZstd):
		zr, err := zstd.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("zstd: %w", err)
		}
		return zr.IOReadCloser(), nil
	case bytes.HasPrefix(magic, _magicLZ4):
		return io.NopCloser(lz4.NewReader(br)), nil
	case bytes.HasPrefix(magic, _magicXz):
		xr, err := xz.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("xz: %w", err)
		}
		return io.NopCloser(xr), nil
	case bytes.HasPrefix(magic, _magicBzip2) && len(magic) > 3 && magic[3] >= '1' && magic[3] <= '9':
		return io.NopCloser(bzip2.NewReader(br)), nil
	}
	return io.NopCloser(br), nil
}

// isTarHeader reports whether block is a tar header with a valid checksum.
// The checksum is the sum of all header bytes with the checksum field read as
// spaces; some old implementations summed signed bytes.
func isTarHeader(block []byte) bool {
	if len(block) < _blockSize {
		return false
	}
	want, err := strconv.ParseInt(strings.Trim(string(block[_chksumOff:_chksumEnd]), " \x00"), 8, 64)
	if err != nil {
		return false
	}
	var unsigned, signed int64
	for i, c := range block[:_blockSize] {
		if i >= _chksumOff && i < _chksumEnd {
			c = ' '
		}
		unsigned += int64(c)
		signed += int64(int8(c))
	}
	return want == unsigned || want == signed
}
