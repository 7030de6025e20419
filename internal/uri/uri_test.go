package uri

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NecrosisO-O/VikingClaw/internal/models"
)

func TestParseValid(t *testing.T) {
	u, err := Parse("viking://user/memories/preferences/editor.md")
	require.NoError(t, err)
	assert.Equal(t, "viking://user/memories/preferences/editor.md", u.String())
	assert.Equal(t, "user", u.Scope())
	assert.Equal(t, "memories/preferences/editor.md", u.Path())
	assert.False(t, u.IsRoot())
}

func TestParseRejectsOtherSchemes(t *testing.T) {
	_, err := Parse("file:///tmp/editor.md")
	require.Error(t, err)

	_, err = Parse("user/memories")
	require.Error(t, err)
}

func TestParseTrimsTrailingSeparator(t *testing.T) {
	u, err := Parse("viking://user/memories/")
	require.NoError(t, err)
	assert.Equal(t, "viking://user/memories", u.String())
}

func TestParseRoot(t *testing.T) {
	u, err := Parse("viking://")
	require.NoError(t, err)
	assert.Equal(t, "viking://", u.String())
	assert.True(t, u.IsRoot())
	assert.Empty(t, u.Scope())
	assert.Empty(t, u.Path())

	// Round-trips through its own string form.
	again, err := Parse(u.String())
	require.NoError(t, err)
	assert.Equal(t, u, again)

	roundTrip, err := Parse(Root().String())
	require.NoError(t, err)
	assert.True(t, roundTrip.IsRoot())
}

func TestRoot(t *testing.T) {
	r := Root()
	assert.Equal(t, "viking://", r.String())
	assert.True(t, r.IsRoot())
	assert.Empty(t, r.Scope())
	assert.Empty(t, r.Path())

	_, ok := r.Parent()
	assert.False(t, ok)
}

func TestJoin(t *testing.T) {
	u := Root().Join("user").Join("memories").Join("events")
	assert.Equal(t, "viking://user/memories/events", u.String())
}

func TestJoinNormalizesSeparators(t *testing.T) {
	u := Root().Join("/user/").Join("memories/")
	assert.Equal(t, "viking://user/memories", u.String())
}

func TestJoinEmptySegment(t *testing.T) {
	u := Root().Join("user")
	assert.Equal(t, u, u.Join(""))
}

func TestParent(t *testing.T) {
	u, err := Parse("viking://user/memories/events")
	require.NoError(t, err)

	p, ok := u.Parent()
	require.True(t, ok)
	assert.Equal(t, "viking://user/memories", p.String())

	top, err := Parse("viking://user")
	require.NoError(t, err)
	p, ok = top.Parent()
	require.True(t, ok)
	assert.True(t, p.IsRoot())
}

func TestCategoryPrefixes(t *testing.T) {
	assert.Equal(t, "viking://user/memories/preferences/", CategoryPrefix(models.CategoryPreferences))
	assert.Equal(t, "viking://user/memories/entities/", CategoryPrefix(models.CategoryEntities))
	assert.Equal(t, "viking://user/memories/events/", CategoryPrefix(models.CategoryEvents))
	assert.Equal(t, "viking://agent/memories/cases/", CategoryPrefix(models.CategoryCases))
	assert.Equal(t, "viking://agent/memories/patterns/", CategoryPrefix(models.CategoryPatterns))
}

func TestProfilePrefixIsSingleDocument(t *testing.T) {
	// The profile namespace has no trailing separator: one document,
	// not a directory of memories.
	assert.Equal(t, "viking://user/memories/profile", CategoryPrefix(models.CategoryProfile))
}

func TestCategoryPrefixUnknown(t *testing.T) {
	assert.Empty(t, CategoryPrefix(models.Category("nonsense")))
}
