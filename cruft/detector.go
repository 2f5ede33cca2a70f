package cruft

import (
	"regexp"
	"strings"
)

// _rootMarker stands in for an empty prefix in front of a substring match.
const _rootMarker = "(root)"

var _gemCacheRe = regexp.MustCompile(`/ruby/[^/]*/cache/[^/]*\.gem`)

// Detector recognizes one category of cruft by its path.
type Detector struct {
	// Name is stable and is part of the dedup key.
	Name string
	// Category is the label printed in reports.
	Category string

	match func(path string) (string, bool)
}

// Match returns the base path of the cruft location path belongs to.
func (d Detector) Match(path string) (base string, ok bool) {
	return d.match(path)
}

// Detectors is the ordered set of detectors. The first match wins.
var Detectors = []Detector{
	prefixDetector("logs", "Log files", "var/log/"),
	prefixDetector("tmp", "Tmp files", "tmp/", "var/tmp/"),
	substringDetector("bundler_cache", "Bundler cache", ".bundle/cache", ".bundle/cache"),
	{Name: "bundle_gems", Category: "Bundle cached gems", match: matchGemCache},
	substringDetector("yarn_cache", "Yarn cache", ".cache/yarn", ".cache/yarn"),
	substringDetector("pip_cache", "Pip cache", ".cache/pip", ".cache/pip"),
	substringDetector("git_repo", "Git repository", ".git/objects/", ".git/"),
	prefixDetector("apk_cache", "APK cache", "var/cache/apk/"),
	prefixDetector("apt_cache", "APT lists cache", "var/lib/apt/lists/"),
	prefixDetector("dnf_cache", "DNF cache", "var/cache/dnf/", "var/lib/dnf/repos/"),
	substringDetector("sprockets_cache", "Sprockets cache", "cache/assets/sprockets/", "cache/assets/sprockets/"),
}

// prefixDetector matches paths starting with any of prefixes. The base path
// is the prefix itself.
func prefixDetector(name, category string, prefixes ...string) Detector {
	return Detector{
		Name:     name,
		Category: category,
		match: func(path string) (string, bool) {
			for _, p := range prefixes {
				if strings.HasPrefix(path, p) {
					return p, true
				}
			}
			return "", false
		},
	}
}

// substringDetector matches paths containing marker anywhere. The base path
// is whatever precedes the first marker, followed by suffix.
func substringDetector(name, category, marker, suffix string) Detector {
	return Detector{
		Name:     name,
		Category: category,
		match: func(path string) (string, bool) {
			i := strings.Index(path, marker)
			if i < 0 {
				return "", false
			}
			return rootOr(path[:i]) + suffix, true
		},
	}
}

func matchGemCache(path string) (string, bool) {
	loc := _gemCacheRe.FindStringIndex(path)
	if loc == nil {
		return "", false
	}
	return rootOr(path[:loc[0]]), true
}

func rootOr(prefix string) string {
	if prefix == "" {
		return _rootMarker
	}
	return prefix
}
