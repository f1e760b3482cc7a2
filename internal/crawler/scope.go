package crawler

import "strings"

// Scope decides whether a URL belongs to the crawl.
type Scope struct {
	base string
}

// NewScope returns a Scope rooted at base, normally the seed URL.
func NewScope(base string) Scope {
	return Scope{base: base}
}

// Base returns the prefix every in-scope URL starts with.
func (s Scope) Base() string {
	return s.base
}

// Contains reports whether candidate starts with the scope base.
// No normalization is applied: scheme, host case and trailing slashes must
// match exactly.
func (s Scope) Contains(candidate string) bool {
	return s.base != "" && strings.HasPrefix(candidate, s.base)
}
