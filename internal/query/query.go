// Package query derives the higher-level entity views — lists, timers,
// alarms, instruction trees — from cached snapshots and live component
// references. It never touches the host ECS directly; everything it reads
// comes from internal/cache. Grounded on a query/builder.go filter-DSL
// idiom, generalized from ECS archetype filters to the simpler
// string-match filters this service's views need.
package query

import (
	"strings"

	"github.com/lait-kelomins/laits-entity-inspector/internal/cache"
	"github.com/lait-kelomins/laits-entity-inspector/internal/collector"
	"github.com/lait-kelomins/laits-entity-inspector/internal/instructions"
	"github.com/lait-kelomins/laits-entity-inspector/internal/model"
)

// Clock supplies the current game-time epoch and rate the service needs to
// derive real-world remaining-seconds figures from scheduled game time
// (§4.5 scenario S6). A live World satisfies this trivially.
type Clock interface {
	GameTimeEpochMilli() int64
	GameTimeRate() float64
}

const (
	defaultListLimit = 50
	maxListLimit     = 200
	defaultFindLimit = 20
	maxFindLimit     = 100
)

// Service derives query views from an EntityCache.
type Service struct {
	entities *cache.EntityCache
	clock    Clock
	trees    *instructions.Serializer
}

// New returns a Service reading from entities, using clock for game-time
// derived fields and trees to build instruction-tree views from a live
// NPCEntity reference (§4.5's getInstructions).
func New(entities *cache.EntityCache, clock Clock, trees *instructions.Serializer) *Service {
	return &Service{entities: entities, clock: clock, trees: trees}
}

// ListEntities implements §4.5's listEntities: filter by type, substring
// search across name/role/modelAssetId, paginate with default/cap limits.
func (s *Service) ListEntities(filter, search string, limit, offset int) []model.EntityListItem {
	limit = clamp(limit, defaultListLimit, maxListLimit)
	if offset < 0 {
		offset = 0
	}
	search = strings.ToLower(strings.TrimSpace(search))
	filter = strings.ToLower(strings.TrimSpace(filter))

	var matched []model.EntityListItem
	for _, snap := range s.entities.Snapshots() {
		item := toListItem(snap)
		if !matchesFilter(item, filter) {
			continue
		}
		if search != "" && !matchesSearch(item, search) {
			continue
		}
		matched = append(matched, item)
	}

	if offset >= len(matched) {
		return []model.EntityListItem{}
	}
	end := offset + limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[offset:end]
}

func toListItem(snap model.EntitySnapshot) model.EntityListItem {
	item := model.EntityListItem{
		EntityID:     snap.EntityID,
		UUID:         snap.UUID,
		EntityType:   snap.EntityType,
		ModelAssetID: snap.ModelAssetID,
	}
	if npc, ok := snap.Component(collector.NPCType); ok && npc.Fields != nil {
		if name, ok := npc.Fields.Get("Name"); ok {
			item.Name, _ = name.(string)
		}
		if role, ok := npc.Fields.Get("Role"); ok {
			item.Role = roleToString(role)
		}
	}
	return item
}

// roleToString handles the documented shape where role may itself be a
// nested map carrying a "path" key (§4.5).
func roleToString(role any) string {
	switch v := role.(type) {
	case string:
		return v
	case *model.OrderedMap:
		if path, ok := v.Get("path"); ok {
			if s, ok := path.(string); ok {
				return s
			}
		}
	}
	return ""
}

func matchesFilter(item model.EntityListItem, filter string) bool {
	switch filter {
	case "", "all":
		return true
	case "npc":
		return strings.EqualFold(item.EntityType, "NPC")
	case "player":
		return strings.EqualFold(item.EntityType, "Player")
	case "item":
		return strings.EqualFold(item.EntityType, "Item")
	default:
		return true
	}
}

func matchesSearch(item model.EntityListItem, search string) bool {
	return strings.Contains(strings.ToLower(item.Name), search) ||
		strings.Contains(strings.ToLower(item.Role), search) ||
		strings.Contains(strings.ToLower(item.ModelAssetID), search)
}

// GetEntityDetail returns the cached snapshot for id, if any.
func (s *Service) GetEntityDetail(id int64) (*model.EntitySnapshot, bool) {
	entry, ok := s.entities.Get(id)
	if !ok || entry.Snapshot == nil {
		return nil, false
	}
	return entry.Snapshot, true
}

// GetInstructions implements §4.5's getInstructions: it requires a live
// NPCEntity reference (not the cached snapshot, which only holds the
// already-serialized shape), extracts the NPC's Role object from it, and
// hands the role to the read-only instruction-tree walker.
func (s *Service) GetInstructions(id int64) (model.InstructionTree, bool) {
	entry, ok := s.entities.Get(id)
	if !ok || entry.Refs == nil {
		return model.InstructionTree{}, false
	}
	npc, ok := entry.Refs[collector.NPCType]
	if !ok {
		return model.InstructionTree{}, false
	}
	role, ok := instructions.ExtractRole(npc)
	if !ok {
		return model.InstructionTree{}, false
	}
	return s.trees.BuildTree(role), true
}

// GetTimers implements §4.5's getTimers.
func (s *Service) GetTimers(id int64) []model.TimerInfo {
	entry, ok := s.entities.Get(id)
	if !ok || entry.Snapshot == nil {
		return nil
	}
	comp, ok := entry.Snapshot.Component("Timers")
	if !ok || comp.Fields == nil {
		return nil
	}
	raw, ok := comp.Fields.Get("timers")
	if !ok {
		return nil
	}
	items, ok := raw.([]any)
	if !ok {
		return nil
	}

	out := make([]model.TimerInfo, 0, len(items))
	for i, item := range items {
		om, ok := item.(*model.OrderedMap)
		if !ok {
			continue
		}
		out = append(out, normalizeTimer(i, om))
	}
	return out
}

func normalizeTimer(index int, om *model.OrderedMap) model.TimerInfo {
	info := model.TimerInfo{Index: index, State: model.TimerStopped, MaxValue: 0, Rate: 1, Repeating: false}
	if v, ok := om.Get("state"); ok {
		if s, ok := v.(string); ok && s != "" {
			info.State = model.TimerState(s)
		}
	}
	if v, ok := om.Get("value"); ok {
		info.Value = asFloat(v)
	}
	if v, ok := om.Get("maxValue"); ok {
		info.MaxValue = asFloat(v)
	}
	if v, ok := om.Get("rate"); ok {
		info.Rate = asFloat(v)
	}
	if v, ok := om.Get("repeating"); ok {
		info.Repeating, _ = v.(bool)
	}
	return info
}

func asFloat(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int64:
		return float64(n)
	case uint64:
		return float64(n)
	case int:
		return float64(n)
	default:
		return 0
	}
}

func clamp(value, def, max int) int {
	if value <= 0 {
		return def
	}
	if value > max {
		return max
	}
	return value
}

// FindByTimerState implements §4.5's findByTimerState.
func (s *Service) FindByTimerState(state model.TimerState, limit int) []model.EntityListItem {
	limit = clamp(limit, defaultFindLimit, maxFindLimit)
	var out []model.EntityListItem
	for _, snap := range s.entities.Snapshots() {
		for _, t := range s.GetTimers(snap.EntityID) {
			if t.State == state {
				out = append(out, toListItem(snap))
				break
			}
		}
		if len(out) >= limit {
			break
		}
	}
	return out
}
