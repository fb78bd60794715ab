package ident

import (
	"regexp"
	"sort"
	"strings"
)

const uuidBody = `[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}`

var (
	// TokenPattern matches a UUID-shaped whole token anywhere in a text.
	TokenPattern = regexp.MustCompile(`(?i)\b` + uuidBody + `\b`)

	exactPattern = regexp.MustCompile(`(?i)^` + uuidBody + `$`)
)

// IsUUID reports whether s is exactly one UUID in 8-4-4-4-12 form, any case.
func IsUUID(s string) bool {
	return exactPattern.MatchString(s)
}

// Canonical lower-cases a UUID string.
func Canonical(s string) string {
	return strings.ToLower(s)
}

// Set is a set of canonical identifiers.
type Set map[string]struct{}

func NewSet(ids ...string) Set {
	s := make(Set, len(ids))
	for _, id := range ids {
		s.Add(id)
	}
	return s
}

func (s Set) Add(id string) {
	s[Canonical(id)] = struct{}{}
}

func (s Set) Has(id string) bool {
	_, ok := s[Canonical(id)]
	return ok
}

func (s Set) Len() int {
	return len(s)
}

// Sorted returns the members in lexical order.
func (s Set) Sorted() []string {
	out := make([]string, 0, len(s))
	for id := range s {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Mapping maps original identifiers to their replacements. Keys and values
// are canonical.
type Mapping map[string]string

// Lookup returns the replacement for id, ignoring case.
func (m Mapping) Lookup(id string) (string, bool) {
	v, ok := m[Canonical(id)]
	return v, ok
}

// Images returns the set of replacement identifiers.
func (m Mapping) Images() Set {
	images := make(Set, len(m))
	for _, repl := range m {
		images.Add(repl)
	}
	return images
}

// Validate checks that m is injective and that no replacement is also an
// original identifier.
func (m Mapping) Validate() error {
	seen := make(map[string]string, len(m))
	for old, repl := range m {
		if _, clash := m[repl]; clash {
			return &MappingError{Old: old, New: repl, Reason: "replacement is also an original identifier"}
		}
		if prev, dup := seen[repl]; dup {
			return &MappingError{Old: old, New: repl, Reason: "replacement already assigned to " + prev}
		}
		seen[repl] = old
	}
	return nil
}

type MappingError struct {
	Old    string
	New    string
	Reason string
}

func (e *MappingError) Error() string {
	return "invalid mapping " + e.Old + " -> " + e.New + ": " + e.Reason
}
