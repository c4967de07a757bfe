package demoworld

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lait-kelomins/laits-entity-inspector/internal/model"
)

func TestAssets_CategoriesAndList(t *testing.T) {
	a := NewAssets()

	cats := a.Categories()
	names := map[string]int{}
	for _, c := range cats {
		names[c.Name] = c.Count
	}
	assert.Equal(t, 2, names["npc"])
	assert.Equal(t, 1, names["item"])

	npcs := a.List("npc")
	assert.Len(t, npcs, 2)

	all := a.List("")
	assert.Len(t, all, 4)
}

func TestAssets_DetailAndExpand(t *testing.T) {
	a := NewAssets()

	detail, ok := a.Detail("npc/sentry.json")
	require.True(t, ok)
	assert.Equal(t, "npc/sentry.json", detail.Path)

	value, ok := a.Expand("npc/sentry.json", "speed")
	require.True(t, ok)
	assert.Equal(t, 2.5, value)

	_, ok = a.Detail("npc/does-not-exist.json")
	assert.False(t, ok)
}

func TestAssets_Search(t *testing.T) {
	a := NewAssets()
	results := a.Search("sentry")
	require.Len(t, results, 1)
	assert.Equal(t, "npc/sentry.json", results[0].Path)
}

func TestAssets_TestWildcard(t *testing.T) {
	a := NewAssets()
	matches := a.TestWildcard("npc/*.json")
	assert.Len(t, matches, 2)

	matches = a.TestWildcard("*.json")
	assert.Len(t, matches, 4)

	matches = a.TestWildcard("item/health-potion.json")
	assert.Equal(t, []string{"item/health-potion.json"}, matches)
}

func TestAssets_GenerateAndPublish(t *testing.T) {
	a := NewAssets()

	patch, err := a.Generate("npc/sentry.json", map[string]any{"speed": 9.0})
	require.NoError(t, err)
	assert.Equal(t, "npc/sentry.json", patch.BaseAssetPath)

	err = a.Publish(patch)
	require.NoError(t, err)

	value, ok := a.Expand("npc/sentry.json", "speed")
	require.True(t, ok)
	assert.Equal(t, 9.0, value)
}

func TestAssets_GenerateUnknownBase(t *testing.T) {
	a := NewAssets()
	_, err := a.Generate("npc/unknown.json", map[string]any{})
	assert.Error(t, err)
}

func TestAssets_PublishRequiresObjectOverlay(t *testing.T) {
	a := NewAssets()
	err := a.Publish(model.Patch{BaseAssetPath: "npc/sentry.json", Overlay: "not-an-object"})
	assert.Error(t, err)
}
