package imagetar

import (
	"archive/tar"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"git.sr.ht/~motiejus/cruftspy/internal/bytecounter"
	"go.uber.org/multierr"
)

const (
	_manifestJSON = "manifest.json"
	_layerSuffix  = "/layer.tar"
)

var (
	// ErrBadManifest is returned in manifest order mode when manifest.json
	// is missing, empty, or names a layer the image does not contain.
	ErrBadManifest = errors.New("bad or missing manifest.json")

	errNotSeekable = errors.New("manifest order requires a seekable image")
	errEmptyLayer  = errors.New("empty file")
)

type dockerManifestJSON []struct {
	Layers []string `json:"Layers"`
}

// Member is a single entry of a layer tarball.
type Member struct {
	Name string
	Size int64
}

// Layer is a layer tarball of an image with all of its members, in archive
// order.
type Layer struct {
	// ID is the name of the layer entry in the image, e.g.
	// a9b123c0daa/layer.tar.
	ID      string
	Members []Member
}

// Names returns member names in archive order.
func (l Layer) Names() []string {
	names := make([]string, len(l.Members))
	for i, m := range l.Members {
		names[i] = m.Name
	}
	return names
}

// Read reads a docker image tarball and returns its layers. Both the image
// and its layers may be compressed with gzip, zstd, lz4, xz or bzip2.
func Read(r io.Reader, opts ...Option) ([]Layer, error) {
	layers := []Layer{}
	err := Walk(r, func(l Layer) error {
		layers = append(layers, l)
		return nil
	}, opts...)
	if err != nil {
		return nil, err
	}
	return layers, nil
}

// Walk reads a docker image tarball and calls fn for every layer. In archive
// order, fn is called as soon as a layer is read; an error from fn stops the
// walk and is returned as is.
func Walk(r io.Reader, fn func(Layer) error, opts ...Option) error {
	o := newOptions(opts)
	if !o.manifestOrder {
		return walkLayers(r, o, isLayerTar, fn)
	}

	layers, err := readManifestOrder(r, o)
	if err != nil {
		return err
	}
	for _, l := range layers {
		if err := fn(l); err != nil {
			return err
		}
	}
	return nil
}

func readManifestOrder(r io.Reader, o options) ([]Layer, error) {
	rs, ok := r.(io.ReadSeeker)
	if !ok {
		return nil, errNotSeekable
	}
	manifest, err := readManifest(rs)
	if err != nil {
		return nil, err
	}
	if len(manifest) == 0 || len(manifest[0].Layers) == 0 {
		return nil, ErrBadManifest
	}
	if _, err := rs.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}

	want := map[string]struct{}{}
	for _, name := range manifest[0].Layers {
		want[path.Clean(name)] = struct{}{}
	}
	byName := map[string]Layer{}
	err = walkLayers(rs, o, func(name string) bool {
		_, ok := want[path.Clean(name)]
		return ok
	}, func(l Layer) error {
		byName[path.Clean(l.ID)] = l
		return nil
	})
	if err != nil {
		return nil, err
	}

	layers := make([]Layer, 0, len(manifest[0].Layers))
	for _, name := range manifest[0].Layers {
		l, ok := byName[path.Clean(name)]
		if !ok {
			return nil, fmt.Errorf("%w: layer %s not found", ErrBadManifest, name)
		}
		layers = append(layers, Layer{ID: name, Members: l.Members})
	}
	return layers, nil
}

func isLayerTar(name string) bool {
	return strings.HasSuffix(name, _layerSuffix)
}

// walkLayers goes through the image once, reads members of every entry for
// which isLayer is true and passes the layer to fn.
//
// Docker writes a repeated layer as a link to its first copy, so a link must
// point to a layer earlier in the archive. Link chains resolve because every
// resolved link is recorded under its own name too.
func walkLayers(r io.Reader, o options, isLayer func(string) bool, fn func(Layer) error) (err error) {
	bc := bytecounter.New(r)
	rd, err := decompress(bc)
	if err != nil {
		return fmt.Errorf("open image: %w", err)
	}
	defer func() { err = multierr.Append(err, rd.Close()) }()

	nlayers := 0
	// seen maps a cleaned entry name to the members of that layer
	seen := map[string][]Member{}

	tr := tar.NewReader(rd)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("read image: %w", err)
		}
		if hdr.Typeflag == tar.TypeDir || !isLayer(hdr.Name) {
			continue
		}

		var members []Member
		switch hdr.Typeflag {
		case tar.TypeSymlink, tar.TypeLink:
			target := path.Clean(hdr.Linkname)
			if hdr.Typeflag == tar.TypeSymlink {
				target = path.Join(path.Dir(hdr.Name), hdr.Linkname)
			}
			var ok bool
			if members, ok = seen[target]; !ok {
				return fmt.Errorf("read layer %s: link target %s not found", hdr.Name, target)
			}
		default:
			var n int64
			if members, n, err = readMembers(tr); err != nil {
				return fmt.Errorf("read layer %s: %w", hdr.Name, err)
			}
			o.logger.Debug("read layer",
				"layer", hdr.Name,
				"members", len(members),
				"bytes", n,
			)
		}
		seen[path.Clean(hdr.Name)] = members

		nlayers++
		if err := fn(Layer{ID: hdr.Name, Members: members}); err != nil {
			return err
		}
	}
	o.logger.Debug("read image", "layers", nlayers, "bytes", bc.N)
	return nil
}

// readMembers lists a layer tarball. It returns the members and the number of
// bytes consumed from r.
func readMembers(r io.Reader) (_ []Member, _ int64, err error) {
	bc := bytecounter.New(r)
	rd, err := decompress(bc)
	if err != nil {
		return nil, bc.N, err
	}
	defer func() { err = multierr.Append(err, rd.Close()) }()

	members := []Member{}
	tr := tar.NewReader(rd)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, bc.N, err
		}
		name := hdr.Name
		if hdr.Typeflag == tar.TypeDir {
			name = strings.TrimRight(name, "/")
		}
		members = append(members, Member{Name: name, Size: hdr.Size})
	}
	if bc.N == 0 {
		return nil, 0, errEmptyLayer
	}
	return members, bc.N, nil
}

// readManifest finds and decodes manifest.json.
func readManifest(r io.Reader) (_ dockerManifestJSON, err error) {
	rd, err := decompress(r)
	if err != nil {
		return nil, fmt.Errorf("open image: %w", err)
	}
	defer func() { err = multierr.Append(err, rd.Close()) }()

	tr := tar.NewReader(rd)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return nil, ErrBadManifest
		}
		if err != nil {
			return nil, fmt.Errorf("read image: %w", err)
		}
		if hdr.Typeflag != tar.TypeReg || path.Clean(hdr.Name) != _manifestJSON {
			continue
		}
		var manifest dockerManifestJSON
		dec := json.NewDecoder(tr)
		if err := dec.Decode(&manifest); err != nil {
			return nil, fmt.Errorf("decode %s: %w", _manifestJSON, err)
		}
		return manifest, nil
	}
}
