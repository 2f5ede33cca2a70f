// Package cruft finds wasteful files in container image layers and
// accounts for their size.
//
// == Detectors ==
//
// A Detector recognizes one category of cruft by looking at a member path
// only; file contents are never read. Detectors are tried in the fixed order
// of Detectors, and the first one whose pattern matches owns the path.
//
// Prefix detectors (logs, tmp, package manager caches) report the matched
// prefix itself, e.g. `var/log/`. Substring detectors (bundler, yarn, pip,
// git, sprockets) rebuild the base path from everything in front of the
// marker plus a category suffix:
//
//   srv/app/.git/objects/ab/cdef -> srv/app/.git/
//   .git/objects/ab/cdef         -> (root).git/
//
// `(root)` is kept literally. It is not a prefix of any member, so such
// detections account to 0 bytes.
//
// == Deduplication ==
//
// Every detection is recorded in a Ledger under (layer, detector, base path).
// A path whose key is already there is dropped; it is not offered to
// lower-priority detectors. Since the key contains the layer id, the same
// cruft is reported once per layer.
//
// == Accounting ==
//
// The size of a detection is the sum of the sizes of all members whose name
// starts with the base path. This is a plain string prefix: base path `tmp`
// would also count `tmpfoo`.
package cruft
