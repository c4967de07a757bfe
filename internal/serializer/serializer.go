// Package serializer converts arbitrary in-memory host values into the
// model.Value tree the transport can carry: depth-bounded, collection
// capped, and lazily expandable. It never invokes a method on the value
// being serialized other than the narrow accessor set this package itself
// recognizes (see alarm.go) — the rest of the conversion is pure field
// reflection, grounded in the same reflect-walk idiom the host codebase
// uses for its own Go/Lua value bridge.
package serializer

import (
	"encoding/hex"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"time"

	"github.com/lait-kelomins/laits-entity-inspector/internal/model"
)

// Limits from §3/§4.1.
const (
	MaxDepth            = 5
	PlaceholderDepth     = 2
	MaxCollectionLength  = 50
	MaxByteArrayLength   = 100
)

// Mode selects between the depth-gated default serializer and the
// always-expand deep serializer used exclusively by path expansion.
type Mode int

const (
	// ModeDefault places an expansion placeholder in front of any complex
	// object reached at depth >= PlaceholderDepth.
	ModeDefault Mode = iota
	// ModeDeep never emits a placeholder; it recurses complex objects up to
	// MaxDepth.
	ModeDeep
)

// Serializer converts Go values into model.Value trees. It caches the
// reflected field set for each struct type it walks, since field discovery
// is the hot path for a live inspector streaming many components a second.
type Serializer struct {
	fields *fieldCache
}

// New returns a ready-to-use Serializer.
func New() *Serializer {
	return &Serializer{fields: newFieldCache()}
}

// Serialize runs the depth-gated default mode (§4.1).
func (s *Serializer) Serialize(value any) any {
	return s.walk(value, ModeDefault, 0, nil)
}

// SerializeDeep runs the always-expand deep mode used by path expansion.
func (s *Serializer) SerializeDeep(value any) any {
	return s.walk(value, ModeDeep, 0, nil)
}

// redactionCtx threads the enclosing packet's class name and the active
// redaction set through an entire walk. It is set once at the root call and
// never changes with depth, which is what makes redaction apply "even when
// nested inside a wrapper packet" (§8 scenario S4): the outer packet name is
// the one that matters for every field the walk ever reaches.
type redactionCtx struct {
	packetName string
	set        model.RedactionSet
}

// SerializeWithRedaction serializes a protocol packet body, replacing any
// field whose (packetName, fieldName) pair matches redactions with the
// literal redacted-value string, regardless of nesting depth. Packet logs
// use deep mode rather than the default placeholder-gated mode: a redacted
// token buried inside a wrapper packet must still be caught by the walk, and
// a placeholder at depth 2 would hide it from the redaction check entirely
// (§8 scenario S4's "anywhere in the walk" requirement).
func (s *Serializer) SerializeWithRedaction(packetName string, redactions model.RedactionSet, value any) any {
	return s.walk(value, ModeDeep, 0, &redactionCtx{packetName: packetName, set: redactions})
}

// walk is the single recursive entry point for both modes.
func (s *Serializer) walk(value any, mode Mode, depth int, redact *redactionCtx) (result any) {
	defer func() {
		if r := recover(); r != nil {
			// Reflective failures are always silent per §4.1/§7: omit, don't
			// propagate. A panic here means a value refused CanInterface or
			// similar; fall back to a best-effort type label.
			result = fallbackLabel(value)
		}
	}()

	if value == nil {
		return nil
	}

	v := reflect.ValueOf(value)
	for v.Kind() == reflect.Ptr || v.Kind() == reflect.Interface {
		if v.IsNil() {
			return nil
		}
		v = v.Elem()
	}
	if !v.IsValid() {
		return nil
	}

	if special, ok := s.trySpecialShape(v, mode, depth); ok {
		return special
	}

	switch v.Kind() {
	case reflect.Bool:
		return v.Bool()
	case reflect.String:
		return v.String()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int()
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return v.Uint()
	case reflect.Float32, reflect.Float64:
		return v.Float()

	case reflect.Slice, reflect.Array:
		if isByteSlice(v) {
			return serializeBytes(v)
		}
		return s.walkSequence(v, mode, depth, redact)

	case reflect.Map:
		return s.walkMap(v, mode, depth, redact)

	case reflect.Struct:
		return s.walkStruct(v, mode, depth, redact)

	default:
		return fallbackLabel(value)
	}
}

func (s *Serializer) walkSequence(v reflect.Value, mode Mode, depth int, redact *redactionCtx) any {
	n := v.Len()
	if n > MaxCollectionLength {
		return fmt.Sprintf("[%d items]", n)
	}
	out := make([]any, n)
	for i := 0; i < n; i++ {
		out[i] = s.walk(v.Index(i).Interface(), mode, depth+1, redact)
	}
	return out
}

func (s *Serializer) walkMap(v reflect.Value, mode Mode, depth int, redact *redactionCtx) any {
	n := v.Len()
	if n > MaxCollectionLength {
		return fmt.Sprintf("{%d entries}", n)
	}
	keys := v.MapKeys()
	sort.Slice(keys, func(i, j int) bool {
		return fmt.Sprint(keys[i].Interface()) < fmt.Sprint(keys[j].Interface())
	})
	out := model.NewOrderedMap()
	for _, k := range keys {
		key := fmt.Sprint(k.Interface())
		if redact != nil && redact.set.Matches(redact.packetName, key) {
			out.Set(key, model.RedactedValue)
			continue
		}
		val := v.MapIndex(k)
		out.Set(key, s.walk(val.Interface(), mode, depth+1, redact))
	}
	if out.Len() == 0 {
		return nil
	}
	return out
}

// walkStruct is where the placeholder/depth gate and the generic field walk
// both live. Special-cased shapes never reach here (trySpecialShape already
// handled them), so everything seen here is a genuine complex object subject
// to the depth gate.
func (s *Serializer) walkStruct(v reflect.Value, mode Mode, depth int, redact *redactionCtx) any {
	typeName := simpleTypeName(v.Type())

	if mode == ModeDefault && depth >= PlaceholderDepth {
		return model.NewExpandPlaceholder(typeName)
	}
	if depth > MaxDepth {
		return fmt.Sprintf("[%s]", typeName)
	}

	fields := s.fields.discover(v.Type())
	out := model.NewOrderedMap()
	out.Set("_type", typeName)
	emitted := false
	for _, f := range fields {
		fv := v.FieldByIndex(f.Index)
		if !fv.CanInterface() {
			continue
		}
		name := fieldName(f)
		if redact != nil && redact.set.Matches(redact.packetName, name) {
			out.Set(name, model.RedactedValue)
			emitted = true
			continue
		}
		out.Set(name, s.walk(fv.Interface(), mode, depth+1, redact))
		emitted = true
	}
	if !emitted {
		return fmt.Sprintf("[%s]", typeName)
	}
	return out
}

func fallbackLabel(value any) any {
	if value == nil {
		return nil
	}
	t := reflect.TypeOf(value)
	if t == nil {
		return nil
	}
	return fmt.Sprintf("[%s]", simpleTypeName(t))
}

func simpleTypeName(t reflect.Type) string {
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	name := t.Name()
	if name == "" {
		return t.String()
	}
	return name
}

func isByteSlice(v reflect.Value) bool {
	elem := v.Type().Elem()
	return elem.Kind() == reflect.Uint8
}

func serializeBytes(v reflect.Value) any {
	n := v.Len()
	if n > MaxByteArrayLength {
		return fmt.Sprintf("[%d bytes]", n)
	}
	b := make([]byte, n)
	for i := 0; i < n; i++ {
		b[i] = byte(v.Index(i).Uint())
	}
	hexStr := strings.ToUpper(hex.EncodeToString(b))
	var sb strings.Builder
	for i := 0; i < len(hexStr); i += 2 {
		if i > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(hexStr[i : i+2])
	}
	return sb.String()
}

var timeType = reflect.TypeOf(time.Time{})
