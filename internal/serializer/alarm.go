package serializer

import (
	"reflect"
	"time"

	"github.com/lait-kelomins/laits-entity-inspector/internal/model"
)

// alarmAccessors is the exhaustive, denylisted method set the serializer is
// willing to invoke on a value named "Alarm". Every name here is a pure
// accessor on the original engine's alarm type; none of them mutate state or
// advance game time. No other method is ever called reflectively.
var alarmAccessors = []string{"IsSet", "HasPassed", "GetAlarmInstant", "Instant", "ScheduledTime"}

// serializeAlarm builds the normalized {state, scheduledTime, epochMilli}
// shape for a value recognized as an Alarm by best-effort probing of the
// accessor names above. A host alarm type that exposes none of them falls
// back to the generic field walk for whatever fields it has. Remaining
// seconds are deliberately NOT computed here: that conversion depends on
// the current game-time clock and rate, which only the query service has
// access to (§4.5 scenario S6) — the serializer only ever sees the raw
// alarm value, never a game-time supplier.
func (s *Serializer) serializeAlarm(v reflect.Value) any {
	isSet, hasIsSet := callBoolAccessor(v, "IsSet")
	hasPassed, hasHasPassed := callBoolAccessor(v, "HasPassed")
	instant, hasInstant := callTimeAccessor(v)

	if !hasIsSet && !hasHasPassed && !hasInstant {
		return s.walkStructFields(v, ModeDeep, 0)
	}

	out := model.NewOrderedMap()
	out.Set("_type", "Alarm")

	switch {
	case hasIsSet && !isSet:
		out.Set("state", string(model.AlarmUnset))
	case hasHasPassed && hasPassed:
		out.Set("state", string(model.AlarmPassed))
	default:
		out.Set("state", string(model.AlarmSet))
	}

	out.Set("isSet", isSet)
	out.Set("hasPassed", hasPassed)

	if hasInstant {
		out.Set("scheduledTime", instant.UTC().Format(time.RFC3339Nano))
		out.Set("epochMilli", instant.UnixMilli())
	}
	return out
}

func callBoolAccessor(v reflect.Value, name string) (result bool, ok bool) {
	m := v.MethodByName(name)
	if !m.IsValid() {
		if v.CanAddr() {
			m = v.Addr().MethodByName(name)
		}
	}
	if !m.IsValid() || m.Type().NumIn() != 0 || m.Type().NumOut() != 1 {
		return false, false
	}
	if m.Type().Out(0).Kind() != reflect.Bool {
		return false, false
	}
	defer func() { recover() }()
	out := m.Call(nil)
	return out[0].Bool(), true
}

func callTimeAccessor(v reflect.Value) (result time.Time, ok bool) {
	for _, name := range []string{"GetAlarmInstant", "Instant", "ScheduledTime"} {
		m := v.MethodByName(name)
		if !m.IsValid() && v.CanAddr() {
			m = v.Addr().MethodByName(name)
		}
		if !m.IsValid() || m.Type().NumIn() != 0 || m.Type().NumOut() != 1 {
			continue
		}
		if m.Type().Out(0) != timeType {
			continue
		}
		var t time.Time
		func() {
			defer func() { recover() }()
			out := m.Call(nil)
			t = out[0].Interface().(time.Time)
			ok = true
		}()
		if ok {
			return t, true
		}
	}
	return time.Time{}, false
}

// walkStructFields exposes the generic field walk to alarm.go's fallback
// path without re-entering trySpecialShape (which would loop back here).
func (s *Serializer) walkStructFields(v reflect.Value, mode Mode, depth int) any {
	typeName := simpleTypeName(v.Type())
	fields := s.fields.discover(v.Type())
	out := model.NewOrderedMap()
	out.Set("_type", typeName)
	for _, f := range fields {
		fv := v.FieldByIndex(f.Index)
		if !fv.CanInterface() {
			continue
		}
		out.Set(fieldName(f), s.walk(fv.Interface(), mode, depth+1, nil))
	}
	return out
}
