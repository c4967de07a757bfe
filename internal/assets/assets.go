// Package assets wraps the external asset registry and patch engine behind
// a narrow, permission-gated façade, in the spirit of the lineage codebase's
// mod-API adapters: every call checks a feature gate before it ever reaches
// the underlying subsystem, and returns a sentinel error rather than
// partially executing (§4.6, §9).
package assets

import (
	"errors"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/lait-kelomins/laits-entity-inspector/internal/config"
	"github.com/lait-kelomins/laits-entity-inspector/internal/model"
	"github.com/lait-kelomins/laits-entity-inspector/internal/telemetry"
)

// Sentinel errors the inspector dispatch layer distinguishes by identity:
// ErrDisabled maps to the feature's empty answer, the rest map to the
// fixed §7 error strings.
var (
	ErrDisabled      = errors.New("feature disabled via debug config")
	ErrAssetNotFound = errors.New("asset not found")
	ErrDraftNotFound = errors.New("draft not found")
)

// AssetStore is the read surface of the external asset registry. The engine
// itself is out of scope (§1); this interface is only the shape the
// wrapper needs from it.
type AssetStore interface {
	Categories() []model.AssetCategory
	List(category string) []model.AssetSummary
	Detail(path string) (model.AssetDetail, bool)
	Expand(path, fieldPath string) (any, bool)
	Search(query string) []model.AssetSummary
	TestWildcard(pattern string) []string
}

// PatchEngine is the write surface of the external patch subsystem. Drafts
// are held by the wrapper, not the engine; Publish is the only call that
// reaches across the boundary.
type PatchEngine interface {
	Generate(baseAssetPath string, overlay any) (model.Patch, error)
	Publish(patch model.Patch) error
}

// Wrapper is the thin, feature-gated adapter §4.6 calls for asset browsing
// and §4.6/§6's patch authoring RPCs. gates is read fresh on every call so
// a CONFIG_UPDATE takes effect on the next request without restarting the
// wrapper.
type Wrapper struct {
	store   AssetStore
	patches PatchEngine
	gates   func() config.FeatureGates

	mu      sync.Mutex
	drafts  map[string]model.Draft
	history *History

	log zerolog.Logger
}

// New builds a Wrapper around store and patches, reading the live feature
// gate snapshot from gates on every call.
func New(store AssetStore, patches PatchEngine, gates func() config.FeatureGates) *Wrapper {
	return &Wrapper{
		store:   store,
		patches: patches,
		gates:   gates,
		drafts:  make(map[string]model.Draft),
		history: newHistory(),
		log:     telemetry.WithComponent("assets"),
	}
}

func (w *Wrapper) browserEnabled() bool { return w.gates().AssetBrowser }
func (w *Wrapper) patchesEnabled() bool { return w.gates().PatchManagement }

// Categories lists the asset registry's top-level categories.
func (w *Wrapper) Categories() ([]model.AssetCategory, error) {
	if !w.browserEnabled() {
		return nil, ErrDisabled
	}
	return w.store.Categories(), nil
}

// List returns the asset summaries under category.
func (w *Wrapper) List(category string) ([]model.AssetSummary, error) {
	if !w.browserEnabled() {
		return nil, ErrDisabled
	}
	return w.store.List(category), nil
}

// Detail returns the full body of the asset at path.
func (w *Wrapper) Detail(path string) (model.AssetDetail, error) {
	if !w.browserEnabled() {
		return model.AssetDetail{}, ErrDisabled
	}
	detail, ok := w.store.Detail(path)
	if !ok {
		return model.AssetDetail{}, ErrAssetNotFound
	}
	return detail, nil
}

// Expand resolves a dotted field path within the asset at path, mirroring
// the Cache's lazy expansion protocol but against the asset store instead
// of a live component reference.
func (w *Wrapper) Expand(path, fieldPath string) (any, error) {
	if !w.browserEnabled() {
		return nil, ErrDisabled
	}
	value, ok := w.store.Expand(path, fieldPath)
	if !ok {
		return nil, ErrAssetNotFound
	}
	return value, nil
}

// Search performs a substring search across the registry.
func (w *Wrapper) Search(query string) ([]model.AssetSummary, error) {
	if !w.browserEnabled() {
		return nil, ErrDisabled
	}
	return w.store.Search(query), nil
}

// TestWildcard returns the asset paths a glob-style pattern matches.
func (w *Wrapper) TestWildcard(pattern string) ([]string, error) {
	if !w.browserEnabled() {
		return nil, ErrDisabled
	}
	return w.store.TestWildcard(pattern), nil
}

// GeneratePatch asks the patch engine to diff overlay against the base
// asset, without saving anything (a preview step ahead of SaveDraft).
func (w *Wrapper) GeneratePatch(baseAssetPath string, overlay any) (model.Patch, error) {
	if !w.patchesEnabled() {
		return model.Patch{}, ErrDisabled
	}
	return w.patches.Generate(baseAssetPath, overlay)
}

// SaveDraft stores patch under a generated filename and records a "draft"
// history entry. The draft is held in memory only; nothing reaches the
// patch engine until PublishPatch.
func (w *Wrapper) SaveDraft(patch model.Patch) (model.Draft, error) {
	if !w.patchesEnabled() {
		return model.Draft{}, ErrDisabled
	}
	draft := model.Draft{Filename: uuid.NewString() + ".json", Patch: patch}

	w.mu.Lock()
	w.drafts[draft.Filename] = draft
	w.mu.Unlock()

	w.history.record(draft.Filename, patch.BaseAssetPath, model.HistoryOpDraft)
	return draft, nil
}

// PublishPatch looks up filename among saved drafts and publishes it
// through the patch engine, recording a "publish" history entry on
// success.
func (w *Wrapper) PublishPatch(filename string) error {
	if !w.patchesEnabled() {
		return ErrDisabled
	}
	w.mu.Lock()
	draft, ok := w.drafts[filename]
	w.mu.Unlock()
	if !ok {
		return ErrDraftNotFound
	}

	if err := w.patches.Publish(draft.Patch); err != nil {
		w.log.Error().Err(err).Str("filename", filename).Msg("patch publish failed")
		return err
	}
	w.history.record(filename, draft.Patch.BaseAssetPath, model.HistoryOpPublish)
	return nil
}

// ListDrafts returns the saved-but-unpublished drafts in no particular
// order; the session history (History) is the ordered view.
func (w *Wrapper) ListDrafts() ([]model.Draft, error) {
	if !w.patchesEnabled() {
		return nil, ErrDisabled
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]model.Draft, 0, len(w.drafts))
	for _, d := range w.drafts {
		out = append(out, d)
	}
	return out, nil
}

// History returns the last draft/publish actions, oldest first.
func (w *Wrapper) History() []model.SessionHistoryEntry {
	return w.history.entries()
}
