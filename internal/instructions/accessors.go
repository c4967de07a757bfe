package instructions

import "reflect"

// callMethod invokes a zero-argument, single-return method by name, after
// checking it against forbiddenPrefixes. Any panic during the call (host
// type doing something unexpected) is swallowed, matching the engine-wide
// silent-omission failure policy for reflective access.
func callMethod(v reflect.Value, name string) (result reflect.Value, ok bool) {
	if isForbidden(name) {
		return reflect.Value{}, false
	}
	m := v.MethodByName(name)
	if !m.IsValid() && v.CanAddr() {
		m = v.Addr().MethodByName(name)
	}
	if !m.IsValid() || m.Type().NumIn() != 0 || m.Type().NumOut() != 1 {
		return reflect.Value{}, false
	}
	defer func() {
		if recover() != nil {
			result = reflect.Value{}
			ok = false
		}
	}()
	out := m.Call(nil)
	return out[0], true
}

func callAccessorValue(v reflect.Value, name string) (any, bool) {
	out, ok := callMethod(v, name)
	if !ok || !out.IsValid() {
		return nil, false
	}
	return out.Interface(), true
}

func callStringAccessor(v reflect.Value, name string) (string, bool) {
	out, ok := callMethod(v, name)
	if !ok || out.Kind() != reflect.String {
		return "", false
	}
	return out.String(), true
}

func callIntAccessor(v reflect.Value, name string) (int, bool) {
	out, ok := callMethod(v, name)
	if !ok {
		return 0, false
	}
	switch out.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return int(out.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return int(out.Uint()), true
	default:
		return 0, false
	}
}

func callFloatAccessor(v reflect.Value, name string) (float64, bool) {
	out, ok := callMethod(v, name)
	if !ok {
		return 0, false
	}
	switch out.Kind() {
	case reflect.Float32, reflect.Float64:
		return out.Float(), true
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(out.Int()), true
	default:
		return 0, false
	}
}

func callBoolAccessor(v reflect.Value, name string) (bool, bool) {
	out, ok := callMethod(v, name)
	if !ok || out.Kind() != reflect.Bool {
		return false, false
	}
	return out.Bool(), true
}

// fieldByName looks up an exported field by case-sensitive name on a
// struct value, returning the zero Value if absent or unreadable.
func fieldByName(v reflect.Value, name string) (reflect.Value, bool) {
	if v.Kind() != reflect.Struct {
		return reflect.Value{}, false
	}
	fv := v.FieldByName(name)
	if !fv.IsValid() || !fv.CanInterface() {
		return reflect.Value{}, false
	}
	return fv, true
}

// fieldOrAccessorValue tries a struct field first, falling back to a
// denylist-checked zero-arg accessor method, matching the two
// representations a host role/instruction object might use.
func fieldOrAccessorValue(v reflect.Value, fieldName, accessorName string) (any, bool) {
	if fv, ok := fieldByName(v, fieldName); ok {
		return fv.Interface(), true
	}
	return callAccessorValue(v, accessorName)
}

func fieldOrAccessorString(v reflect.Value, fieldName, accessorName string) (string, bool) {
	if fv, ok := fieldByName(v, fieldName); ok && fv.Kind() == reflect.String {
		return fv.String(), true
	}
	return callStringAccessor(v, accessorName)
}

func fieldOrAccessorBool(v reflect.Value, fieldName, accessorName string) (bool, bool) {
	if fv, ok := fieldByName(v, fieldName); ok && fv.Kind() == reflect.Bool {
		return fv.Bool(), true
	}
	return callBoolAccessor(v, accessorName)
}

// fieldOrAccessorSlice returns the elements of a slice field or accessor
// result as a []any, so callers don't need reflect.Value at the call site.
func fieldOrAccessorSlice(v reflect.Value, fieldName, accessorName string) ([]any, bool) {
	var sv reflect.Value
	if fv, ok := fieldByName(v, fieldName); ok {
		sv = fv
	} else if out, ok := callMethod(v, accessorName); ok {
		sv = out
	} else {
		return nil, false
	}
	sv = deref(sv)
	if !sv.IsValid() || (sv.Kind() != reflect.Slice && sv.Kind() != reflect.Array) {
		return nil, false
	}
	out := make([]any, sv.Len())
	for i := 0; i < sv.Len(); i++ {
		ev := sv.Index(i)
		if ev.CanInterface() {
			out[i] = ev.Interface()
		}
	}
	return out, true
}
