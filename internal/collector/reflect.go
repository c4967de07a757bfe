package collector

import (
	"reflect"
	"strings"
	"time"

	"github.com/lait-kelomins/laits-entity-inspector/internal/hostecs"
	"github.com/lait-kelomins/laits-entity-inspector/internal/model"
)

// reflectTransform and extractStringField do their own minimal field
// lookup rather than reusing internal/serializer's field cache: the
// collector only ever needs to pull two or three well-known fields off a
// handful of component types, not walk an entire object graph, so a small
// direct reflect.Value.FieldByName is the right tool (and keeps this
// package from depending on serializer's private cache machinery).

func structValue(comp hostecs.Component) (reflect.Value, bool) {
	v := reflect.ValueOf(comp)
	for v.Kind() == reflect.Ptr || v.Kind() == reflect.Interface {
		if v.IsNil() {
			return reflect.Value{}, false
		}
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return reflect.Value{}, false
	}
	return v, true
}

func fieldByAnyName(v reflect.Value, names ...string) (reflect.Value, bool) {
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		for _, name := range names {
			if strings.EqualFold(f.Name, name) {
				return v.Field(i), true
			}
		}
	}
	return reflect.Value{}, false
}

func extractStringField(comp hostecs.Component, names ...string) (string, bool) {
	defer func() { recover() }()
	v, ok := structValue(comp)
	if !ok {
		return "", false
	}
	fv, ok := fieldByAnyName(v, names...)
	if !ok || fv.Kind() != reflect.String {
		return "", false
	}
	return fv.String(), true
}

func reflectTransform(comp hostecs.Component) (result transformShape, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			result, ok = transformShape{}, false
		}
	}()

	v, found := structValue(comp)
	if !found {
		return transformShape{}, false
	}

	posField, hasPos := fieldByAnyName(v, "Position", "Pos")
	rotField, hasRot := fieldByAnyName(v, "Rotation", "Rot")
	if !hasPos {
		return transformShape{}, false
	}

	var shape transformShape
	shape.Position, _ = asVector3(posField)
	if hasRot {
		shape.Rotation, _ = asRotation(rotField)
	}
	return shape, true
}

func asVector3(v reflect.Value) (model.Vector3, bool) {
	for v.Kind() == reflect.Ptr {
		if v.IsNil() {
			return model.Vector3{}, false
		}
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return model.Vector3{}, false
	}
	x, xok := fieldByAnyName(v, "X")
	y, yok := fieldByAnyName(v, "Y")
	z, zok := fieldByAnyName(v, "Z")
	if !xok || !yok || !zok {
		return model.Vector3{}, false
	}
	return model.Vector3{X: asFloat(x), Y: asFloat(y), Z: asFloat(z)}, true
}

func asRotation(v reflect.Value) (model.Rotation, bool) {
	for v.Kind() == reflect.Ptr {
		if v.IsNil() {
			return model.Rotation{}, false
		}
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return model.Rotation{}, false
	}
	yaw, yok := fieldByAnyName(v, "Yaw")
	pitch, pok := fieldByAnyName(v, "Pitch")
	if !yok || !pok {
		return model.Rotation{}, false
	}
	return model.Rotation{Yaw: float32(asFloat(yaw)), Pitch: float32(asFloat(pitch))}, true
}

func asFloat(v reflect.Value) float64 {
	switch v.Kind() {
	case reflect.Float32, reflect.Float64:
		return v.Float()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(v.Int())
	default:
		return 0
	}
}

func nowMilli() int64 {
	return time.Now().UnixMilli()
}
