package demoworld

import (
	"fmt"
	"strings"
	"sync"

	"github.com/lait-kelomins/laits-entity-inspector/internal/model"
)

// asset is one catalog entry in the in-memory demo asset registry. The real
// asset registry and patch engine are external collaborators (§1 out of scope)
// this engine only ever talks to through internal/assets.AssetStore/
// PatchEngine; this is a seed catalog so cmd/inspectord's serve command has
// something to browse and patch when run standalone.
type asset struct {
	path     string
	category string
	name     string
	body     map[string]any
}

// Assets is an in-memory AssetStore + PatchEngine seeded with a small
// catalog of NPC and item definitions.
type Assets struct {
	mu      sync.Mutex
	catalog []asset
}

// NewAssets returns a seeded Assets registry.
func NewAssets() *Assets {
	return &Assets{
		catalog: []asset{
			{path: "npc/sentry.json", category: "npc", name: "sentry", body: map[string]any{
				"detectionRadius": 12.0, "attackRange": 3.0, "speed": 2.5,
			}},
			{path: "npc/wanderer.json", category: "npc", name: "wanderer", body: map[string]any{
				"detectionRadius": 6.0, "attackRange": 0.0, "speed": 1.2,
			}},
			{path: "item/health-potion.json", category: "item", name: "health-potion", body: map[string]any{
				"restoreAmount": 25, "stackSize": 10,
			}},
			{path: "world/demo-world.json", category: "world", name: "demo-world", body: map[string]any{
				"spawnRadius": 8.0,
			}},
		},
	}
}

func (a *Assets) Categories() []model.AssetCategory {
	a.mu.Lock()
	defer a.mu.Unlock()
	counts := map[string]int{}
	for _, it := range a.catalog {
		counts[it.category]++
	}
	cats := make([]model.AssetCategory, 0, len(counts))
	for name, count := range counts {
		cats = append(cats, model.AssetCategory{Name: name, Count: count})
	}
	return cats
}

func (a *Assets) List(category string) []model.AssetSummary {
	a.mu.Lock()
	defer a.mu.Unlock()
	var out []model.AssetSummary
	for _, it := range a.catalog {
		if category != "" && it.category != category {
			continue
		}
		out = append(out, model.AssetSummary{Path: it.path, Category: it.category, Name: it.name})
	}
	return out
}

func (a *Assets) Detail(path string) (model.AssetDetail, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, it := range a.catalog {
		if it.path == path {
			return model.AssetDetail{Path: it.path, Body: it.body}, true
		}
	}
	return model.AssetDetail{}, false
}

func (a *Assets) Expand(path, fieldPath string) (any, bool) {
	detail, ok := a.Detail(path)
	if !ok {
		return nil, false
	}
	body, ok := detail.Body.(map[string]any)
	if !ok {
		return nil, false
	}
	value, ok := body[fieldPath]
	return value, ok
}

func (a *Assets) Search(query string) []model.AssetSummary {
	a.mu.Lock()
	defer a.mu.Unlock()
	query = strings.ToLower(query)
	var out []model.AssetSummary
	for _, it := range a.catalog {
		if strings.Contains(strings.ToLower(it.name), query) || strings.Contains(strings.ToLower(it.path), query) {
			out = append(out, model.AssetSummary{Path: it.path, Category: it.category, Name: it.name})
		}
	}
	return out
}

func (a *Assets) TestWildcard(pattern string) []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	var out []string
	for _, it := range a.catalog {
		if matchWildcard(pattern, it.path) {
			out = append(out, it.path)
		}
	}
	return out
}

// Generate implements assets.PatchEngine: a demo base asset must already
// exist in the catalog, the overlay is taken as-is.
func (a *Assets) Generate(baseAssetPath string, overlay any) (model.Patch, error) {
	if _, ok := a.Detail(baseAssetPath); !ok {
		return model.Patch{}, fmt.Errorf("demoworld: base asset %q not found", baseAssetPath)
	}
	return model.Patch{BaseAssetPath: baseAssetPath, Overlay: overlay}, nil
}

// Publish merges patch.Overlay into the base asset's body in place.
func (a *Assets) Publish(patch model.Patch) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	overlay, ok := patch.Overlay.(map[string]any)
	if !ok {
		return fmt.Errorf("demoworld: overlay must be an object")
	}
	for i := range a.catalog {
		if a.catalog[i].path != patch.BaseAssetPath {
			continue
		}
		for k, v := range overlay {
			a.catalog[i].body[k] = v
		}
		return nil
	}
	return fmt.Errorf("demoworld: base asset %q not found", patch.BaseAssetPath)
}

// matchWildcard supports a single leading/trailing/interior "*" against s,
// mirroring the narrow glob semantics a path-browsing client needs without
// pulling in a filepath-matching library for four seed assets.
func matchWildcard(pattern, s string) bool {
	if pattern == "" {
		return true
	}
	parts := strings.Split(pattern, "*")
	if len(parts) == 1 {
		return pattern == s
	}
	if !strings.HasPrefix(s, parts[0]) {
		return false
	}
	s = s[len(parts[0]):]
	for _, p := range parts[1 : len(parts)-1] {
		idx := strings.Index(s, p)
		if idx == -1 {
			return false
		}
		s = s[idx+len(p):]
	}
	return strings.HasSuffix(s, parts[len(parts)-1])
}
