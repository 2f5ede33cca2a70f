// Package tartest builds image and layer tarballs for tests.
package tartest

import (
	"archive/tar"
	"bytes"
	"encoding/json"
	"io"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
	"github.com/ulikunitz/xz"
)

type (
	Tarrer interface {
		Tar(*tar.Writer) error
	}

	Tarball []Tarrer

	Dir struct {
		Name string
	}

	// File is a regular file. Contents take precedence over Size; a File
	// with only Size set is filled with that many zero bytes.
	File struct {
		Name     string
		Size     int64
		Contents *bytes.Buffer
	}

	Hardlink struct {
		Name     string
		Linkname string
	}

	Symlink struct {
		Name     string
		Linkname string
	}

	// Manifest is manifest.json listing the given layers.
	Manifest []string

	dockerManifestJSON []struct {
		Layers []string `json:"Layers"`
	}
)

// Buffer returns the tarball.
func (tb Tarball) Buffer() *bytes.Buffer {
	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)
	for _, member := range tb {
		if err := member.Tar(tw); err != nil {
			panic("tartest: " + err.Error())
		}
	}
	if err := tw.Close(); err != nil {
		panic("tartest: " + err.Error())
	}
	return &buf
}

// Gzip returns the tarball compressed with gzip.
func (tb Tarball) Gzip() *bytes.Buffer {
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	mustWrite(zw, tb.Buffer().Bytes())
	if err := zw.Close(); err != nil {
		panic("tartest: " + err.Error())
	}
	return &buf
}

// Zstd returns the tarball compressed with zstd.
func (tb Tarball) Zstd() *bytes.Buffer {
	var buf bytes.Buffer
	zw, err := zstd.NewWriter(&buf)
	if err != nil {
		panic("tartest: " + err.Error())
	}
	mustWrite(zw, tb.Buffer().Bytes())
	if err := zw.Close(); err != nil {
		panic("tartest: " + err.Error())
	}
	return &buf
}

// LZ4 returns the tarball compressed with lz4.
func (tb Tarball) LZ4() *bytes.Buffer {
	var buf bytes.Buffer
	zw := lz4.NewWriter(&buf)
	mustWrite(zw, tb.Buffer().Bytes())
	if err := zw.Close(); err != nil {
		panic("tartest: " + err.Error())
	}
	return &buf
}

// Xz returns the tarball compressed with xz.
func (tb Tarball) Xz() *bytes.Buffer {
	var buf bytes.Buffer
	zw, err := xz.NewWriter(&buf)
	if err != nil {
		panic("tartest: " + err.Error())
	}
	mustWrite(zw, tb.Buffer().Bytes())
	if err := zw.Close(); err != nil {
		panic("tartest: " + err.Error())
	}
	return &buf
}

func (d Dir) Tar(tw *tar.Writer) error {
	hdr := &tar.Header{
		Typeflag: tar.TypeDir,
		Name:     d.Name,
		Mode:     0755,
	}
	return tw.WriteHeader(hdr)
}

func (f File) Tar(tw *tar.Writer) error {
	var contents []byte
	if f.Contents != nil {
		contents = f.Contents.Bytes()
	} else {
		contents = make([]byte, f.Size)
	}
	hdr := &tar.Header{
		Typeflag: tar.TypeReg,
		Name:     f.Name,
		Mode:     0644,
		Size:     int64(len(contents)),
	}
	if err := tw.WriteHeader(hdr); err != nil {
		return err
	}
	if _, err := tw.Write(contents); err != nil {
		return err
	}
	return nil
}

func (h Hardlink) Tar(tw *tar.Writer) error {
	return tw.WriteHeader(&tar.Header{
		Typeflag: tar.TypeLink,
		Name:     h.Name,
		Linkname: h.Linkname,
		Mode:     0644,
	})
}

func (s Symlink) Tar(tw *tar.Writer) error {
	return tw.WriteHeader(&tar.Header{
		Typeflag: tar.TypeSymlink,
		Name:     s.Name,
		Linkname: s.Linkname,
		Mode:     0777,
	})
}

func (m Manifest) Tar(tw *tar.Writer) error {
	b, err := json.Marshal(dockerManifestJSON{{Layers: m}})
	if err != nil {
		return err
	}
	return File{Name: "manifest.json", Contents: bytes.NewBuffer(b)}.Tar(tw)
}

func mustWrite(w io.Writer, b []byte) {
	if _, err := w.Write(b); err != nil {
		panic("tartest: " + err.Error())
	}
}
