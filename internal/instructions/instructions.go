// Package instructions implements the read-only Instruction-Tree
// Serializer (§4.5, §9): a reflective walker over an NPC role's behavior
// tree that produces model.InstructionTree views without ever invoking a
// method that could mutate state. The host's Role/Instruction/Sensor types
// expose both pure accessors and side-effecting lifecycle methods
// (evaluate/tick can clear an armed alarm); this package calls only the
// former, by name, off an explicit allowlist, the same denylist-vocabulary
// approach a mod-API security validator uses to gate reflective access to
// untrusted surfaces.
package instructions

import (
	"reflect"
	"strings"

	"github.com/lait-kelomins/laits-entity-inspector/internal/model"
	"github.com/lait-kelomins/laits-entity-inspector/internal/serializer"
)

// forbiddenPrefixes names the method-name families the walker refuses to
// call under any circumstance, even if a future accessor name happens to
// collide. This is the enforcement half of invariant 10: the serializer
// must never invoke evaluate/tick/update/apply/execute/perform.
var forbiddenPrefixes = []string{"evaluate", "tick", "update", "apply", "execute", "perform"}

// roleAccessors names the pure, zero-argument accessors the walker calls on
// a role for its name and state-machine position. The instruction lists are
// read separately, as fields or Get<List> accessors (see BuildTree).
var roleAccessors = struct {
	roleName    string
	state       string
	subState    string
	stateName   string
}{
	roleName:  "GetRoleName",
	state:     "GetStateIndex",
	subState:  "GetSubStateIndex",
	stateName: "GetStateName",
}

// instructionAccessors mirrors the pure accessor set on an Instruction node.
var instructionAccessors = struct {
	weight        string
	continueAfter string
	sensor        string
}{
	weight:        "GetWeight",
	continueAfter: "IsContinueAfter",
	sensor:        "GetSensor",
}

// deniedFieldNames excludes noisy internal bookkeeping fields from the
// generic property extraction pass (§4.5: "denylist of noisy internal
// fields"). These are host-side implementation details with no inspection
// value, not security-sensitive in themselves.
var deniedFieldNames = map[string]bool{
	"parent":    true,
	"world":     true,
	"entity":    true,
	"lock":      true,
	"mu":        true,
	"listeners": true,
}

// Serializer builds InstructionTree views from host role objects.
type Serializer struct {
	values *serializer.Serializer
}

// New returns an instruction-tree Serializer. values is used only for leaf
// property extraction (the same generic reflective walk as the rest of the
// engine), never to reach back into evaluation methods.
func New(values *serializer.Serializer) *Serializer {
	return &Serializer{values: values}
}

// BuildTree implements §4.5's getInstructions for a role value discovered
// on an NPC's entity. role is expected to expose GetRoleName/GetStateIndex/
// GetSubStateIndex/GetStateName plus Root/Interaction/Death instruction
// slices reachable as fields (RootInstructions, InteractionInstructions,
// DeathInstructions) or as GetRootInstructions/GetInteractionInstructions/
// GetDeathInstructions accessor methods.
func (s *Serializer) BuildTree(role any) model.InstructionTree {
	v := reflect.ValueOf(role)
	tree := model.InstructionTree{}
	if !v.IsValid() {
		return tree
	}
	v = deref(v)
	if !v.IsValid() {
		return tree
	}

	tree.RoleName, _ = callStringAccessor(v, roleAccessors.roleName)
	tree.StateMachine.State, _ = callIntAccessor(v, roleAccessors.state)
	tree.StateMachine.SubState, _ = callIntAccessor(v, roleAccessors.subState)
	tree.StateMachine.StateName, _ = callStringAccessor(v, roleAccessors.stateName)

	tree.RootInstructions = s.instructionList(v, "RootInstructions", "GetRootInstructions")
	tree.InteractionInstructions = s.instructionList(v, "InteractionInstructions", "GetInteractionInstructions")
	tree.DeathInstructions = s.instructionList(v, "DeathInstructions", "GetDeathInstructions")
	return tree
}

// ExtractRole pulls the Role object off a live NPCEntity component
// reference, as either a "Role" field or a GetRole accessor, so
// query.Service.GetInstructions can hand it to BuildTree without the
// query package needing to know the host's field/accessor naming.
func ExtractRole(npcRef any) (any, bool) {
	v := deref(reflect.ValueOf(npcRef))
	if !v.IsValid() {
		return nil, false
	}
	return fieldOrAccessorValue(v, "Role", "GetRole")
}

func (s *Serializer) instructionList(roleValue reflect.Value, fieldName, accessorName string) []model.Instruction {
	items, ok := fieldOrAccessorSlice(roleValue, fieldName, accessorName)
	if !ok {
		return nil
	}
	out := make([]model.Instruction, 0, len(items))
	for i, item := range items {
		out = append(out, s.buildInstruction(i, item))
	}
	return out
}

func (s *Serializer) buildInstruction(index int, raw any) model.Instruction {
	inst := model.Instruction{Index: index}
	v := deref(reflect.ValueOf(raw))
	if !v.IsValid() {
		return inst
	}

	inst.Name, _ = fieldOrAccessorString(v, "Name", "GetName")
	inst.Tag, _ = fieldOrAccessorString(v, "Tag", "GetTag")
	inst.TreeMode, _ = fieldOrAccessorString(v, "TreeMode", "GetTreeMode")
	inst.Weight, _ = callFloatAccessor(v, instructionAccessors.weight)
	inst.ContinueAfter, _ = callBoolAccessor(v, instructionAccessors.continueAfter)

	if sensorVal, ok := callAccessorValue(v, instructionAccessors.sensor); ok {
		sensor := s.buildSensor(sensorVal)
		inst.Sensor = &sensor
	}

	if actions, ok := fieldOrAccessorSlice(v, "Actions", "GetActions"); ok {
		for _, a := range actions {
			inst.Actions = append(inst.Actions, s.buildAction(a))
		}
	}
	if children, ok := fieldOrAccessorSlice(v, "Children", "GetChildren"); ok {
		for i, c := range children {
			inst.Children = append(inst.Children, s.buildInstruction(i, c))
		}
	}
	return inst
}

// sensorStopFields are the field names present on every sensor variant
// (SensorBase) that the generic property pass must not re-emit, since
// they're already surfaced as Type/Once/Triggered.
var sensorStopFields = map[string]bool{
	"once": true, "triggered": true, "type": true, "kind": true,
}

func (s *Serializer) buildSensor(raw any) model.Sensor {
	sensor := model.Sensor{Type: model.SensorKindGeneric}
	v := deref(reflect.ValueOf(raw))
	if !v.IsValid() {
		return sensor
	}

	typeName := simpleTypeName(v.Type())
	sensor.Type = classifySensor(typeName)
	sensor.Once, _ = fieldOrAccessorBool(v, "Once", "IsOnce")
	sensor.Triggered, _ = fieldOrAccessorBool(v, "Triggered", "IsTriggered")

	switch sensor.Type {
	case model.SensorKindAnd, model.SensorKindOr, model.SensorKindNot:
		if children, ok := fieldOrAccessorSlice(v, "Children", "GetChildren"); ok {
			for _, c := range children {
				sensor.Children = append(sensor.Children, s.buildSensor(c))
			}
		}
		if child, ok := fieldOrAccessorValue(v, "Child", "GetChild"); ok {
			sensor.Children = append(sensor.Children, s.buildSensor(child))
		}
	default:
		sensor.Properties = s.genericProperties(v)
	}
	return sensor
}

func (s *Serializer) buildAction(raw any) model.Action {
	action := model.Action{}
	v := deref(reflect.ValueOf(raw))
	if !v.IsValid() {
		return action
	}
	action.Name, _ = fieldOrAccessorString(v, "Name", "GetName")
	action.Properties = s.genericProperties(v)
	return action
}

// genericProperties walks v's exported fields with the ordinary value
// serializer, skipping denylisted bookkeeping fields and the ones already
// surfaced structurally (type/once/triggered/name).
func (s *Serializer) genericProperties(v reflect.Value) *model.OrderedMap {
	if v.Kind() != reflect.Struct {
		return nil
	}
	out := model.NewOrderedMap()
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if f.PkgPath != "" {
			continue
		}
		lower := strings.ToLower(f.Name)
		if deniedFieldNames[lower] || sensorStopFields[lower] {
			continue
		}
		fv := v.Field(i)
		if !fv.CanInterface() {
			continue
		}
		out.Set(f.Name, s.values.Serialize(fv.Interface()))
	}
	if out.Len() == 0 {
		return nil
	}
	return out
}

func classifySensor(typeName string) model.SensorKind {
	switch {
	case strings.Contains(typeName, "Alarm"):
		return model.SensorKindAlarm
	case strings.Contains(typeName, "Timer"):
		return model.SensorKindTimer
	case strings.Contains(typeName, "And"):
		return model.SensorKindAnd
	case strings.Contains(typeName, "Or"):
		return model.SensorKindOr
	case strings.Contains(typeName, "Not"):
		return model.SensorKindNot
	case strings.Contains(typeName, "Null"), strings.Contains(typeName, "Any"):
		return model.SensorKindAny
	default:
		return model.SensorKindGeneric
	}
}

func simpleTypeName(t reflect.Type) string {
	name := t.Name()
	if name == "" {
		return t.String()
	}
	return name
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

func isForbidden(name string) bool {
	lower := strings.ToLower(name)
	for _, prefix := range forbiddenPrefixes {
		if strings.HasPrefix(lower, prefix) {
			return true
		}
	}
	return false
}
