package serializer

import (
	"reflect"
	"strconv"
)

// Resolve walks root through a dotted path's already-split segments using
// the same field-discovery rules as the generic field walk: each segment is
// either a struct field name or a decimal sequence index. It never invokes
// a method — path expansion against live component references is read-only
// field/index navigation only (§4.3).
func (s *Serializer) Resolve(root any, segments []string) (result any, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			result, ok = nil, false
		}
	}()

	cur := reflect.ValueOf(root)
	for _, seg := range segments {
		cur = deref(cur)
		if !cur.IsValid() {
			return nil, false
		}

		if idx, err := strconv.Atoi(seg); err == nil {
			switch cur.Kind() {
			case reflect.Slice, reflect.Array:
				if idx < 0 || idx >= cur.Len() {
					return nil, false
				}
				cur = cur.Index(idx)
				continue
			}
		}

		switch cur.Kind() {
		case reflect.Struct:
			field, ok := findField(s.fields.discover(cur.Type()), seg)
			if !ok {
				return nil, false
			}
			cur = cur.FieldByIndex(field.Index)
		case reflect.Map:
			v := cur.MapIndex(reflect.ValueOf(seg))
			if !v.IsValid() {
				return nil, false
			}
			cur = v
		default:
			return nil, false
		}
	}

	cur = deref(cur)
	if !cur.IsValid() {
		return nil, false
	}
	if !cur.CanInterface() {
		return nil, false
	}
	return cur.Interface(), true
}

func deref(v reflect.Value) reflect.Value {
	for v.IsValid() && (v.Kind() == reflect.Ptr || v.Kind() == reflect.Interface) {
		if v.IsNil() {
			return reflect.Value{}
		}
		v = v.Elem()
	}
	return v
}

func findField(fields []reflect.StructField, name string) (reflect.StructField, bool) {
	for _, f := range fields {
		if fieldName(f) == name || f.Name == name {
			return f, true
		}
	}
	return reflect.StructField{}, false
}
