package domain

import "strings"

// Normalize produces the canonical case-folded form used for uniqueness and
// lookup. The store never applies it implicitly when persisting entities;
// callers supply normalized fields themselves. It IS applied when matching
// role names for membership operations, on the store side only, so local and
// proxied bindings agree.
func Normalize(s string) string {
	return strings.ToUpper(s)
}
