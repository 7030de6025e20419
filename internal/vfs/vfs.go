// Package vfs exposes the virtual filesystem the context hierarchy is
// written to. The core only lists, reads and fetches abstracts; the
// directory layout itself is owned by the committer.
package vfs

import "context"

// ListMode selects raw vs. rendered entries from Ls.
type ListMode string

const (
	// ModeOriginal lists entries as stored.
	ModeOriginal ListMode = "original"
	// ModeRendered lists entries after any rendering layer.
	ModeRendered ListMode = "rendered"
)

// Entry is one directory listing result.
type Entry struct {
	URI   string `json:"uri"`
	IsDir bool   `json:"isDir"`
}

// FS is the filesystem capability the core depends on. ReadFile and
// Abstract are best-effort: callers treat failures as missing data and
// keep going.
type FS interface {
	// Ls lists the entries directly under uriPrefix (non-recursive).
	Ls(ctx context.Context, uriPrefix string, mode ListMode) ([]Entry, error)

	// ReadFile returns the content of the leaf at uri.
	ReadFile(ctx context.Context, uri string) (string, error)

	// Abstract returns the short abstract of the node at uri.
	Abstract(ctx context.Context, uri string) (string, error)
}
