// Package indexer walks the context tree on the virtual filesystem and
// writes Context records into the vector collection through the
// reconciler, so re-indexing converges instead of accumulating
// duplicate records per URI.
package indexer

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/NecrosisO-O/VikingClaw/internal/embedder"
	"github.com/NecrosisO-O/VikingClaw/internal/metrics"
	"github.com/NecrosisO-O/VikingClaw/internal/models"
	"github.com/NecrosisO-O/VikingClaw/internal/reconcile"
	"github.com/NecrosisO-O/VikingClaw/internal/store"
	"github.com/NecrosisO-O/VikingClaw/internal/uri"
	"github.com/NecrosisO-O/VikingClaw/internal/vfs"
)

// Indexer scans the filesystem tree and indexes contexts.
type Indexer struct {
	recon      *reconcile.Reconciler
	embedder   embedder.Embedder
	fs         vfs.FS
	summarizer *Summarizer
	logger     *slog.Logger
}

// New creates an Indexer. summarizer may be nil; abstracts then come
// from file content alone.
func New(recon *reconcile.Reconciler, emb embedder.Embedder, fs vfs.FS, summarizer *Summarizer, logger *slog.Logger) *Indexer {
	return &Indexer{recon: recon, embedder: emb, fs: fs, summarizer: summarizer, logger: logger}
}

// IndexTree walks the tree under rootURI and indexes every directory
// and markdown leaf. Returns the number of contexts indexed.
// Unreadable entries are skipped, not fatal.
func (idx *Indexer) IndexTree(ctx context.Context, rootURI string) (int, error) {
	root, err := uri.Parse(rootURI)
	if err != nil {
		return 0, fmt.Errorf("indexing tree: %w", err)
	}
	return idx.indexDir(ctx, root.String())
}

func (idx *Indexer) indexDir(ctx context.Context, dirURI string) (int, error) {
	entries, err := idx.fs.Ls(ctx, dirURI, vfs.ModeOriginal)
	if err != nil {
		return 0, fmt.Errorf("listing %s: %w", dirURI, err)
	}

	indexed := 0
	for _, entry := range entries {
		if entry.IsDir {
			if err := idx.indexNode(ctx, entry.URI, dirURI, false, ""); err != nil {
				idx.logger.Warn("indexing directory failed", "uri", entry.URI, "error", err)
			} else {
				indexed++
			}
			n, err := idx.indexDir(ctx, entry.URI)
			if err != nil {
				idx.logger.Warn("descending failed", "uri", entry.URI, "error", err)
			}
			indexed += n
			continue
		}

		if !strings.HasSuffix(entry.URI, ".md") {
			continue
		}
		content, err := idx.fs.ReadFile(ctx, entry.URI)
		if err != nil {
			idx.logger.Warn("reading leaf failed", "uri", entry.URI, "error", err)
			continue
		}
		if err := idx.indexNode(ctx, entry.URI, dirURI, true, content); err != nil {
			idx.logger.Warn("indexing leaf failed", "uri", entry.URI, "error", err)
			continue
		}
		indexed++
	}
	return indexed, nil
}

// indexNode builds the Context record for one node and writes it
// through the reconciler.
func (idx *Indexer) indexNode(ctx context.Context, nodeURI, parentURI string, isLeaf bool, content string) error {
	abstract := ""
	if isLeaf {
		abstract = vfs.AbstractFromContent(content)
		if abstract == "" && idx.summarizer != nil {
			abstract = idx.summarizer.Summarize(ctx, content)
		}
	} else if a, err := idx.fs.Abstract(ctx, nodeURI); err == nil {
		abstract = a
	}

	c := models.Context{
		URI:         nodeURI,
		ParentURI:   parentURI,
		IsLeaf:      isLeaf,
		Abstract:    abstract,
		ContextType: contextTypeForURI(nodeURI),
		Category:    categoryForURI(nodeURI),
		UpdatedAt:   time.Now().UTC(),
	}

	embedText := abstract
	if isLeaf {
		embedText = abstract + " " + content
	}
	if strings.TrimSpace(embedText) == "" {
		embedText = nodeURI
	}
	vector, err := idx.embedder.Embed(ctx, embedText)
	if err != nil {
		return fmt.Errorf("embedding %s: %w", nodeURI, err)
	}

	if _, err := idx.recon.Insert(ctx, store.ContextFields(c), vector); err != nil {
		return err
	}
	metrics.Inc(metrics.IndexedContexts)
	idx.logger.Debug("indexed context", "uri", nodeURI, "leaf", isLeaf)
	return nil
}

// categoryForURI reverse-maps a URI into its memory category via the
// fixed namespace table.
func categoryForURI(nodeURI string) string {
	for _, cat := range models.ValidCategories {
		prefix := uri.CategoryPrefix(cat)
		if strings.HasPrefix(nodeURI, prefix) || nodeURI == strings.TrimRight(prefix, "/") {
			return string(cat)
		}
	}
	return ""
}

func contextTypeForURI(nodeURI string) models.ContextType {
	if strings.Contains(nodeURI, "/memories/") || strings.HasSuffix(nodeURI, "/memories") {
		return models.ContextTypeMemory
	}
	if strings.Contains(nodeURI, "/skills/") || strings.HasSuffix(nodeURI, "/skills") {
		return models.ContextTypeSkill
	}
	return models.ContextTypeResource
}
