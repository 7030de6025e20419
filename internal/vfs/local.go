package vfs

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/NecrosisO-O/VikingClaw/internal/uri"
)

// abstractMaxLen bounds the fallback first-line abstract.
const abstractMaxLen = 200

// LocalFS maps viking:// URIs onto a directory tree on the local
// filesystem. A uri viking://scope/path resolves to <root>/scope/path.
// Abstracts come from a "abstract:" front-matter line when present,
// otherwise the first non-empty content line; directories use a
// .abstract sidecar file.
type LocalFS struct {
	root   string
	logger *slog.Logger
}

// NewLocalFS creates a LocalFS rooted at dir.
func NewLocalFS(dir string, logger *slog.Logger) *LocalFS {
	return &LocalFS{root: dir, logger: logger}
}

// Path resolves a viking:// uri to a local filesystem path.
func (l *LocalFS) Path(rawURI string) (string, error) {
	u, err := uri.Parse(rawURI)
	if err != nil {
		return "", err
	}
	rel := u.Scope()
	if p := u.Path(); p != "" {
		rel = filepath.Join(rel, filepath.FromSlash(p))
	}
	return filepath.Join(l.root, rel), nil
}

func (l *LocalFS) Ls(_ context.Context, uriPrefix string, _ ListMode) ([]Entry, error) {
	base, err := uri.Parse(uriPrefix)
	if err != nil {
		return nil, err
	}
	dir, err := l.Path(base.String())
	if err != nil {
		return nil, err
	}

	dirEntries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("listing %s: %w", base.String(), err)
	}

	entries := make([]Entry, 0, len(dirEntries))
	for _, de := range dirEntries {
		if strings.HasPrefix(de.Name(), ".") {
			continue
		}
		entries = append(entries, Entry{
			URI:   base.Join(de.Name()).String(),
			IsDir: de.IsDir(),
		})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].URI < entries[j].URI })
	return entries, nil
}

func (l *LocalFS) ReadFile(_ context.Context, rawURI string) (string, error) {
	path, err := l.Path(rawURI)
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", rawURI, err)
	}
	return string(data), nil
}

func (l *LocalFS) Abstract(ctx context.Context, rawURI string) (string, error) {
	path, err := l.Path(rawURI)
	if err != nil {
		return "", err
	}

	// Directories describe themselves through a .abstract sidecar.
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		data, err := os.ReadFile(filepath.Join(path, ".abstract"))
		if err != nil {
			if os.IsNotExist(err) {
				return "", nil
			}
			return "", fmt.Errorf("reading abstract for %s: %w", rawURI, err)
		}
		return strings.TrimSpace(string(data)), nil
	}

	content, err := l.ReadFile(ctx, rawURI)
	if err != nil {
		return "", err
	}
	return AbstractFromContent(content), nil
}

// AbstractFromContent extracts a short abstract from document text:
// an "abstract:" front-matter line wins, otherwise the first non-empty
// line with markdown heading markers stripped, truncated.
func AbstractFromContent(content string) string {
	scanner := bufio.NewScanner(strings.NewReader(content))
	inFrontMatter := false
	firstLine := ""
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "---" {
			inFrontMatter = !inFrontMatter
			continue
		}
		if inFrontMatter {
			if v, ok := strings.CutPrefix(line, "abstract:"); ok {
				return strings.TrimSpace(v)
			}
			continue
		}
		if line == "" {
			continue
		}
		if firstLine == "" {
			firstLine = strings.TrimSpace(strings.TrimLeft(line, "# "))
		}
	}

	if len(firstLine) > abstractMaxLen {
		firstLine = firstLine[:abstractMaxLen]
	}
	return firstLine
}
