// Package uri implements hierarchical viking:// addresses for the
// context hierarchy and the fixed category-to-namespace table.
package uri

import (
	"fmt"
	"strings"

	"github.com/NecrosisO-O/VikingClaw/internal/models"
)

// Scheme is the URI scheme for all context addresses.
const Scheme = "viking"

const prefix = Scheme + "://"

// URI is a hierarchical address of the form viking://scope/path.
// The root URI "viking://" has an empty scope, an empty path and no
// parent.
type URI struct {
	raw string
}

// Parse validates and wraps a raw URI string. Trailing separators are
// dropped; the root URI viking:// keeps its two.
func Parse(raw string) (URI, error) {
	if !IsValid(raw) {
		return URI{}, fmt.Errorf("parsing uri %q: missing %s prefix", raw, prefix)
	}
	trimmed := strings.TrimRight(raw, "/")
	if len(trimmed) < len(prefix) {
		return Root(), nil
	}
	return URI{raw: trimmed}, nil
}

// Root returns the root URI viking://.
func Root() URI {
	return URI{raw: prefix}
}

// IsValid reports whether raw carries the viking:// scheme.
func IsValid(raw string) bool {
	return strings.HasPrefix(raw, prefix)
}

// String returns the raw URI text.
func (u URI) String() string { return u.raw }

// IsRoot reports whether the URI is the hierarchy root.
func (u URI) IsRoot() bool { return u.rest() == "" }

// rest is everything after the scheme marker.
func (u URI) rest() string {
	return strings.TrimPrefix(u.raw, prefix)
}

// Scope returns the first path segment (e.g. "user" or "agent"), or
// "" for the root URI.
func (u URI) Scope() string {
	rest := u.rest()
	if rest == "" {
		return ""
	}
	if i := strings.IndexByte(rest, '/'); i >= 0 {
		return rest[:i]
	}
	return rest
}

// Path returns the path below the scope, without leading separator.
func (u URI) Path() string {
	rest := u.rest()
	if i := strings.IndexByte(rest, '/'); i >= 0 {
		return rest[i+1:]
	}
	return ""
}

// Join normalizes leading and trailing separators of segment and
// appends it under the current path. Joining from the root yields
// viking://segment.
func (u URI) Join(segment string) URI {
	seg := strings.Trim(segment, "/")
	if seg == "" {
		return u
	}
	if u.IsRoot() {
		return URI{raw: prefix + seg}
	}
	return URI{raw: u.raw + "/" + seg}
}

// Parent returns the containing URI and true, or the zero URI and
// false for the root, which has no parent.
func (u URI) Parent() (URI, bool) {
	rest := u.rest()
	if rest == "" {
		return URI{}, false
	}
	if i := strings.LastIndexByte(rest, '/'); i >= 0 {
		return URI{raw: prefix + rest[:i]}, true
	}
	return Root(), true
}

// categoryPrefixes is the fixed category-to-namespace table. User
// memories live under the user scope, agent memories under the agent
// scope. The profile entry deliberately has no trailing separator:
// the profile is a single document, not a directory.
var categoryPrefixes = map[models.Category]string{
	models.CategoryPreferences: prefix + "user/memories/preferences/",
	models.CategoryEntities:    prefix + "user/memories/entities/",
	models.CategoryEvents:      prefix + "user/memories/events/",
	models.CategoryCases:       prefix + "agent/memories/cases/",
	models.CategoryPatterns:    prefix + "agent/memories/patterns/",
	models.CategoryProfile:     prefix + "user/memories/profile",
}

// CategoryPrefix returns the URI namespace for a memory category, or
// "" for an unrecognized category.
func CategoryPrefix(c models.Category) string {
	return categoryPrefixes[c]
}
