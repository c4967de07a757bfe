package serializer

import (
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/lait-kelomins/laits-entity-inspector/internal/model"
)

var stringerType = reflect.TypeOf((*fmt.Stringer)(nil)).Elem()

// trySpecialShape recognizes the fixed set of shapes the serializer never
// hands to the generic field walker: timestamps, vectors, alarms, and any
// value with a String() method (this covers both host enums and opaque
// identifier types such as a UUID, which the original is a 16-byte array
// rather than a string kind).
func (s *Serializer) trySpecialShape(v reflect.Value, mode Mode, depth int) (any, bool) {
	if v.Type() == timeType {
		t := v.Interface().(time.Time)
		return model.NewInstant(t.UnixMilli(), t.UTC().Format(time.RFC3339Nano)), true
	}

	if vec, ok := tryVector(v); ok {
		return vec, true
	}

	if v.Kind() == reflect.Struct && simpleTypeName(v.Type()) == "Alarm" {
		return s.serializeAlarm(v), true
	}

	if str, ok := tryStringer(v); ok {
		return str, true
	}

	return nil, false
}

// tryVector recognizes any struct whose fields are exactly X/Y/Z (a position,
// velocity or scale triple) or Yaw/Pitch (a rotation pair), case-insensitive,
// all numeric. It emits a plain ordered sequence of floats rather than an
// object, matching how the original protocol represents these on the wire.
func tryVector(v reflect.Value) ([]float64, bool) {
	if v.Kind() != reflect.Struct {
		return nil, false
	}
	t := v.Type()
	if t.NumField() != 2 && t.NumField() != 3 {
		return nil, false
	}

	want3 := []string{"x", "y", "z"}
	want2 := []string{"yaw", "pitch"}
	var want []string
	switch t.NumField() {
	case 3:
		want = want3
	case 2:
		want = want2
	}

	out := make([]float64, 0, len(want))
	for i, name := range want {
		if i >= t.NumField() {
			return nil, false
		}
		f := t.Field(i)
		if !strings.EqualFold(f.Name, name) {
			return nil, false
		}
		fv := v.Field(i)
		switch fv.Kind() {
		case reflect.Float32, reflect.Float64:
			out = append(out, fv.Float())
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			out = append(out, float64(fv.Int()))
		default:
			return nil, false
		}
	}
	return out, true
}

// tryStringer calls String() on any value whose type implements fmt.Stringer,
// covering both host enum types and opaque identifier types (e.g. a UUID).
// This is the one "invoke a method" exception outside alarm.go, and it is
// deliberately narrow: String() is assumed side-effect free by convention.
func tryStringer(v reflect.Value) (string, bool) {
	if v.Type().Implements(stringerType) {
		return v.Interface().(fmt.Stringer).String(), true
	}
	if v.CanAddr() && reflect.PtrTo(v.Type()).Implements(stringerType) {
		return v.Addr().Interface().(fmt.Stringer).String(), true
	}
	return "", false
}
