package codec

import (
	"regexp"
	"strings"
	"sync"
)

var (
	mu       sync.Mutex
	patterns = map[string]*regexp.Regexp{}
)

// Encode derives the physical storage key for a logical identifier.
func Encode(prefix, id string) string {
	return prefix + id
}

// Reduce collapses every run of two or more consecutive prefix occurrences
// into a single one. The prefix is matched literally.
func Reduce(prefix, key string) string {
	if prefix == "" || !strings.Contains(key, prefix+prefix) {
		return key
	}
	return repeated(prefix).ReplaceAllLiteralString(key, prefix)
}

// Resolve encodes and reduces in one step. It is the lookup key used by read
// and delete paths.
func Resolve(prefix, id string) string {
	return Reduce(prefix, Encode(prefix, id))
}

// HasNamespace reports whether a physical key belongs to the prefix namespace.
func HasNamespace(prefix, key string) bool {
	return strings.HasPrefix(key, prefix)
}

// Logical strips a single leading prefix from a physical key.
func Logical(prefix, key string) string {
	return strings.TrimPrefix(Reduce(prefix, key), prefix)
}

// repeated returns the cached "(prefix){2,}" pattern for prefix.
func repeated(prefix string) *regexp.Regexp {
	mu.Lock()
	defer mu.Unlock()

	re, ok := patterns[prefix]
	if !ok {
		re = regexp.MustCompile("(?:" + regexp.QuoteMeta(prefix) + "){2,}")
		patterns[prefix] = re
	}
	return re
}
