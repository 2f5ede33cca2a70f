// Package imagetar lists the layers of a Docker container image tarball, as
// written by `docker save`.
//
// An image tarball contains one tarball per layer, named
// `<layer id>/layer.tar`, plus image metadata. Walk goes through the image
// once and passes every layer tarball it finds to a callback, in the order
// they appear in the image, as soon as the layer is read. Read collects them.
// Only tar headers are read; file contents are skipped. An empty layer
// tarball is an error.
//
// == Repeated layers ==
//
// Newer Docker versions write a layer that appears twice in an image as a
// symlink to the first copy. Such layers are reported under their own name
// with the members of the link target, which must come earlier in the
// image. Links to links are followed.
//
// == Manifest order ==
//
// With WithManifestOrder, layers are taken from `Layers` of manifest.json
// instead, in the order they are laid down. This also finds layers of OCI
// layouts, which are stored as `blobs/sha256/<digest>`. The manifest is
// usually the last file in the image, so this mode reads the image twice,
// needs an io.ReadSeeker and calls back only after all layers are read.
//
// == Compression ==
//
// The image and each layer are decompressed if they start with a gzip, zstd,
// lz4, xz or bzip2 magic number. A stream starting with a valid tar header
// and anything else is read as a plain tarball.
package imagetar
