package model

import "reflect"

// ComponentData is the serialized form of a single live component: its
// simple type name and its ordered field map. Equality is field-wise and
// backs change detection (§4.4, invariant 8).
type ComponentData struct {
	TypeName string      `json:"typeName"`
	Fields   *OrderedMap `json:"fields"`
}

// Equal reports whether two ComponentData values carry the same type name
// and field-for-field identical values.
func (c *ComponentData) Equal(other *ComponentData) bool {
	if c == nil || other == nil {
		return c == other
	}
	if c.TypeName != other.TypeName {
		return false
	}
	aKeys, bKeys := fieldKeys(c.Fields), fieldKeys(other.Fields)
	if len(aKeys) != len(bKeys) {
		return false
	}
	for i, k := range aKeys {
		if bKeys[i] != k {
			return false
		}
		av, _ := c.Fields.Get(k)
		bv, _ := other.Fields.Get(k)
		if !reflect.DeepEqual(av, bv) {
			return false
		}
	}
	return true
}

func fieldKeys(m *OrderedMap) []string {
	if m == nil {
		return nil
	}
	return m.Keys()
}

// Vector3 is a plain position/velocity/scale shape, mirrors hostecs.Vector3
// so the model package has no dependency on the host interfaces.
type Vector3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Rotation is yaw/pitch, mirrors hostecs.Rotation.
type Rotation struct {
	Yaw   float32 `json:"yaw"`
	Pitch float32 `json:"pitch"`
}

// EntitySnapshot is a value-shaped copy of one entity's state at a point in
// time (§3). Insertion order of Components is observable.
type EntitySnapshot struct {
	EntityID      int64       `json:"entityId"`
	UUID          string      `json:"uuid"`
	ModelAssetID  string      `json:"modelAssetId,omitempty"`
	EntityType    string      `json:"entityType,omitempty"`
	Position      Vector3     `json:"position"`
	Rotation      Rotation    `json:"rotation"`
	Components    *OrderedMap `json:"components"`
	Timestamp     int64       `json:"timestamp"`
}

// Component looks up a component by its simple type name.
func (s *EntitySnapshot) Component(typeName string) (*ComponentData, bool) {
	if s == nil || s.Components == nil {
		return nil, false
	}
	v, ok := s.Components.Get(typeName)
	if !ok {
		return nil, false
	}
	cd, ok := v.(*ComponentData)
	return cd, ok
}

// PositionUpdate is one entry of a throttled position batch (§4.4).
type PositionUpdate struct {
	EntityID int64   `json:"entityId"`
	UUID     string  `json:"uuid,omitempty"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Z        float64 `json:"z"`
	Yaw      float32 `json:"yaw"`
	Pitch    float32 `json:"pitch"`
}
