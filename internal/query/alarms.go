package query

import (
	"strings"

	"github.com/lait-kelomins/laits-entity-inspector/internal/collector"
	"github.com/lait-kelomins/laits-entity-inspector/internal/model"
)

// alarmSearchPaths are the four dotted locations §4.5 requires getAlarms to
// merge, in priority order — a name found at an earlier path is never
// overwritten by the same name found later.
var alarmSearchPaths = []string{
	"InteractionManager.entity.alarmStore.parameters",
	collector.NPCType + ".entity.alarmStore.parameters",
	collector.NPCType + ".alarms",
	"Alarms.alarms",
}

// GetAlarms implements §4.5's getAlarms.
func (s *Service) GetAlarms(id int64) []model.AlarmInfo {
	entry, ok := s.entities.Get(id)
	if !ok || entry.Snapshot == nil {
		return nil
	}

	found := make(map[string]model.AlarmInfo)
	order := make([]string, 0)
	addAlarm := func(name string, raw any) {
		if _, exists := found[name]; exists {
			return
		}
		order = append(order, name)
		found[name] = s.deriveAlarm(name, raw)
	}

	for _, path := range alarmSearchPaths {
		segments := strings.Split(path, ".")
		container := lookupPath(entry.Snapshot, segments)
		om, ok := container.(*model.OrderedMap)
		if !ok {
			continue
		}
		for _, key := range om.Keys() {
			v, _ := om.Get(key)
			addAlarm(key, v)
		}
	}

	persistent := lookupPath(entry.Snapshot, []string{"PersistentParameters"})
	if om, ok := persistent.(*model.OrderedMap); ok {
		for _, key := range om.Keys() {
			if !strings.Contains(strings.ToLower(key), "alarm") {
				continue
			}
			v, _ := om.Get(key)
			addAlarm(key, v)
		}
	}

	out := make([]model.AlarmInfo, 0, len(order))
	for _, name := range order {
		out = append(out, found[name])
	}
	return out
}

// lookupPath walks a snapshot's serialized components map along segments,
// entirely from already-serialized data (no reflection) — getAlarms only
// ever reads what was captured in the snapshot, not the live refs.
func lookupPath(snap *model.EntitySnapshot, segments []string) any {
	if len(segments) == 0 {
		return nil
	}
	comp, ok := snap.Component(segments[0])
	if !ok || comp.Fields == nil {
		return nil
	}
	var cur any = comp.Fields
	for _, seg := range segments[1:] {
		om, ok := cur.(*model.OrderedMap)
		if !ok {
			return nil
		}
		v, ok := om.Get(seg)
		if !ok {
			return nil
		}
		cur = v
	}
	return cur
}

// deriveAlarm normalizes one alarm entry. raw may be the Alarm special
// shape (an OrderedMap with _type:"Alarm" and a "state" key already derived
// by the serializer), an expansion placeholder (treated as SET per §4.5),
// or a bare millisecond schedule from PersistentParameters.
func (s *Service) deriveAlarm(name string, raw any) model.AlarmInfo {
	info := model.AlarmInfo{Name: name, State: model.AlarmSet}

	switch v := raw.(type) {
	case model.ExpandPlaceholder:
		info.State = model.AlarmSet
		return info
	case *model.OrderedMap:
		if model.IsExpandable(v) {
			info.State = model.AlarmSet
			return info
		}
		hasPassed, hasPassedOK := v.Get("hasPassed")
		isSet, isSetOK := v.Get("isSet")
		state, stateOK := v.Get("state")

		switch {
		case asBool(hasPassed) && hasPassedOK:
			info.State = model.AlarmPassed
		case stateOK:
			info.State = model.AlarmState(stateToString(state))
		case asBool(isSet) && isSetOK:
			info.State = model.AlarmSet
		case hasPassedOK || isSetOK:
			info.State = model.AlarmUnset
		default:
			info.State = model.AlarmSet
		}

		if scheduled, ok := v.Get("scheduledTime"); ok {
			info.ScheduledTime, _ = scheduled.(string)
		}
		if ms, ok := extractScheduledMs(v); ok {
			remaining := s.remainingSeconds(ms)
			info.RemainingSeconds = &remaining
		}
		return info
	case float64, int64:
		ms := asFloat(v)
		remaining := s.remainingSeconds(ms)
		info.RemainingSeconds = &remaining
		info.State = model.AlarmSet
		return info
	default:
		return info
	}
}

func stateToString(v any) string {
	s, _ := v.(string)
	return s
}

func asBool(v any) bool {
	b, _ := v.(bool)
	return b
}

func extractScheduledMs(om *model.OrderedMap) (float64, bool) {
	epoch, ok := om.Get("epochMilli")
	if !ok {
		return 0, false
	}
	return asFloat(epoch), true
}

// remainingSeconds implements §8 scenario S6: game-time delta converted to
// real-world seconds via the game-time rate, clamped at zero.
func (s *Service) remainingSeconds(scheduledMs float64) float64 {
	if s.clock == nil {
		return 0
	}
	deltaGameMs := scheduledMs - float64(s.clock.GameTimeEpochMilli())
	if deltaGameMs <= 0 {
		return 0
	}
	rate := s.clock.GameTimeRate()
	if rate <= 0 {
		rate = 1
	}
	realSeconds := (deltaGameMs / 1000) / rate
	if realSeconds < 0 {
		return 0
	}
	return realSeconds
}

// FindByAlarm implements §4.5's findByAlarm.
func (s *Service) FindByAlarm(name string, state model.AlarmState, limit int) []model.EntityListItem {
	limit = clamp(limit, defaultFindLimit, maxFindLimit)
	var out []model.EntityListItem
	for _, snap := range s.entities.Snapshots() {
		for _, alarm := range s.GetAlarms(snap.EntityID) {
			if !strings.EqualFold(alarm.Name, name) {
				continue
			}
			if state != "" && alarm.State != state {
				continue
			}
			out = append(out, toListItem(snap))
			break
		}
		if len(out) >= limit {
			break
		}
	}
	return out
}
