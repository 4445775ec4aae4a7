package sanitize

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

const maxPasses = 3

var policy = bluemonday.StrictPolicy()

// String strips every HTML element and script body from s. Entity escapes
// produced by the policy are decoded again so plain text such as "O'Brien"
// survives, and the pass is repeated until the output is stable so encoded
// markup cannot survive a single round.
func String(s string) string {
	out := s
	for i := 0; i < maxPasses; i++ {
		next := html.UnescapeString(policy.Sanitize(out))
		if next == out {
			break
		}
		out = next
	}
	return strings.TrimSpace(out)
}

// IsOperatorKey reports whether a map key looks like a query operator
func IsOperatorKey(k string) bool {
	return strings.HasPrefix(k, "$")
}

// Value sanitizes a decoded JSON value in place and returns it along with the
// operator keys that were removed.
func Value(v any) (any, []string) {
	var removed []string
	out := walk(v, &removed)
	return out, removed
}

func walk(v any, removed *[]string) any {
	switch t := v.(type) {
	case string:
		return String(t)
	case map[string]any:
		for k, val := range t {
			if IsOperatorKey(k) {
				delete(t, k)
				*removed = append(*removed, k)
				continue
			}
			t[k] = walk(val, removed)
		}
		return t
	case []any:
		for i, val := range t {
			t[i] = walk(val, removed)
		}
		return t
	default:
		return v
	}
}
