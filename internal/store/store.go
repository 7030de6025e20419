package store

import (
	"context"
	"errors"
	"time"

	"github.com/NecrosisO-O/VikingClaw/internal/models"
)

// ErrNotFound is returned when a lookup matches no record.
var ErrNotFound = errors.New("record not found")

// Record is the physical unit stored by the vector collection: an
// opaque id plus a field map. The field map must include "uri" and
// "updated_at"; "created_at", "category", "is_leaf" and "abstract" are
// optional. Multiple records may transiently share a uri under
// concurrent or retried writes; the reconciler collapses them.
type Record struct {
	ID     string         `json:"id"`
	Fields map[string]any `json:"fields"`
	Vector []float32      `json:"-"`
}

// ScoredRecord is a Record with its similarity score. Higher is closer.
type ScoredRecord struct {
	Record
	Score float64 `json:"score"`
}

// VectorStore is the contract the core depends on for one vector
// collection. Search runs similarity queries; FilterScroll runs
// exact-field lookups without a query vector. Delete is idempotent:
// deleting an absent id is not an error.
type VectorStore interface {
	// EnsureCollection creates the collection if it does not exist.
	EnsureCollection(ctx context.Context) error

	// Search finds records similar to the query vector.
	Search(ctx context.Context, vector []float32, limit uint64, filter *Filter) ([]ScoredRecord, error)

	// FilterScroll returns records matching the filter, no similarity.
	FilterScroll(ctx context.Context, filter *Filter, limit uint64) ([]Record, error)

	// Upsert writes records with overwrite semantics keyed by id.
	Upsert(ctx context.Context, records []Record) error

	// Delete removes records by id and returns how many were targeted.
	Delete(ctx context.Context, ids []string) (int, error)

	// Close cleans up resources.
	Close() error
}

// Op combines child filters in a branch node.
type Op string

const (
	OpAnd Op = "and"
	OpOr  Op = "or"
)

// Filter is a boolean tree of field conditions. A node is either a
// branch (Op + Children) or a leaf (Field + Values, matching when the
// record's field equals any listed value).
type Filter struct {
	Op       Op        `json:"op,omitempty"`
	Children []*Filter `json:"conds,omitempty"`
	Field    string    `json:"field,omitempty"`
	Values   []any     `json:"values,omitempty"`
}

// FieldEquals builds a leaf condition.
func FieldEquals(field string, values ...any) *Filter {
	return &Filter{Field: field, Values: values}
}

// And combines conditions that must all hold.
func And(children ...*Filter) *Filter {
	return &Filter{Op: OpAnd, Children: children}
}

// Or combines conditions of which at least one must hold.
func Or(children ...*Filter) *Filter {
	return &Filter{Op: OpOr, Children: children}
}

// IsBranch reports whether the node combines children.
func (f *Filter) IsBranch() bool { return len(f.Children) > 0 }

// --- record field helpers ---

// StringField returns the named field as a string, or "".
func (r Record) StringField(key string) string {
	if v, ok := r.Fields[key].(string); ok {
		return v
	}
	return ""
}

// BoolField returns the named field as a bool, or false.
func (r Record) BoolField(key string) bool {
	if v, ok := r.Fields[key].(bool); ok {
		return v
	}
	return false
}

// TimeField parses the named field as an RFC 3339 timestamp. A missing
// or malformed value yields the zero time, which sorts oldest.
func (r Record) TimeField(key string) time.Time {
	s := r.StringField(key)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

// ToContext converts a stored record into a Context.
func (r Record) ToContext() models.Context {
	return models.Context{
		URI:         r.StringField("uri"),
		ParentURI:   r.StringField("parent_uri"),
		IsLeaf:      r.BoolField("is_leaf"),
		Abstract:    r.StringField("abstract"),
		ContextType: models.ContextType(r.StringField("context_type")),
		Category:    r.StringField("category"),
		CreatedAt:   r.TimeField("created_at"),
		UpdatedAt:   r.TimeField("updated_at"),
	}
}

// ContextFields flattens a Context into a record field map.
func ContextFields(c models.Context) map[string]any {
	fields := map[string]any{
		"uri":          c.URI,
		"parent_uri":   c.ParentURI,
		"is_leaf":      c.IsLeaf,
		"abstract":     c.Abstract,
		"context_type": string(c.ContextType),
	}
	if c.Category != "" {
		fields["category"] = c.Category
	}
	if !c.CreatedAt.IsZero() {
		fields["created_at"] = c.CreatedAt.UTC().Format(time.RFC3339)
	}
	if !c.UpdatedAt.IsZero() {
		fields["updated_at"] = c.UpdatedAt.UTC().Format(time.RFC3339)
	}
	return fields
}
