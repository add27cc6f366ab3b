// Package runtime implements the tree-walking interpreter and runtime value
// system for YPSH.
package runtime

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"ypsh-lang/internal/ast"
)

// Value is the interface for all runtime values.
type Value interface {
	TypeName() string
	String() string
}

// ---- Primitive values ----

// IntVal represents an integer value.
type IntVal int64

func (v IntVal) TypeName() string { return "int" }
func (v IntVal) String() string   { return fmt.Sprintf("%d", int64(v)) }

// FloatVal represents a floating-point value. Its string form always carries
// a decimal marker so int and float results stay distinguishable.
type FloatVal float64

func (v FloatVal) TypeName() string { return "float" }
func (v FloatVal) String() string {
	s := strconv.FormatFloat(float64(v), 'g', -1, 64)
	if !strings.ContainsAny(s, ".eE") && !strings.Contains(s, "Inf") && s != "NaN" {
		s += ".0"
	}
	return s
}

// StrVal represents a string value.
type StrVal string

func (v StrVal) TypeName() string { return "str" }
func (v StrVal) String() string   { return string(v) }

// BoolVal represents a boolean value.
type BoolVal bool

func (v BoolVal) TypeName() string { return "bool" }
func (v BoolVal) String() string   { return fmt.Sprintf("%t", bool(v)) }

// NoneVal represents the absence of a value.
type NoneVal struct{}

func (v NoneVal) TypeName() string { return "none" }
func (v NoneVal) String() string   { return "none" }

// ---- Container values ----

// ListVal represents an ordered, mutable list. Lists are shared by
// reference; aliasing is observable.
type ListVal struct {
	Elements []Value
}

func (v *ListVal) TypeName() string { return "list" }
func (v *ListVal) String() string {
	parts := make([]string, len(v.Elements))
	for i, elem := range v.Elements {
		if s, ok := elem.(StrVal); ok {
			parts[i] = fmt.Sprintf("\"%s\"", string(s))
		} else {
			parts[i] = elem.String()
		}
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// DictVal represents an insertion-ordered string-keyed mapping, shared by
// reference.
type DictVal struct {
	Keys   []string
	Values map[string]Value
}

// NewDict creates an empty dict.
func NewDict() *DictVal {
	return &DictVal{Values: make(map[string]Value)}
}

// Set inserts or updates a key, preserving insertion order.
func (v *DictVal) Set(key string, val Value) {
	if _, exists := v.Values[key]; !exists {
		v.Keys = append(v.Keys, key)
	}
	v.Values[key] = val
}

func (v *DictVal) TypeName() string { return "dict" }
func (v *DictVal) String() string {
	parts := make([]string, len(v.Keys))
	for i, k := range v.Keys {
		val := v.Values[k]
		if s, ok := val.(StrVal); ok {
			parts[i] = fmt.Sprintf("\"%s\": \"%s\"", k, string(s))
		} else {
			parts[i] = fmt.Sprintf("\"%s\": %s", k, val.String())
		}
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// ---- Callable values ----

// FuncVal represents a user-defined function. The closure is the Environment
// active at the definition point, not at call time.
type FuncVal struct {
	Name       string
	Params     []ast.Param
	ReturnType string
	Body       *ast.BlockStmt
	Closure    *Environment
}

func (v *FuncVal) TypeName() string { return "func" }
func (v *FuncVal) String() string   { return fmt.Sprintf("<func %s>", v.Name) }

// BoundMethodVal pairs a method with its receiver instance. Invoking it binds
// the receiver to the method's explicit self parameter.
type BoundMethodVal struct {
	Fn   *FuncVal
	Recv *InstanceVal
}

func (v *BoundMethodVal) TypeName() string { return "method" }
func (v *BoundMethodVal) String() string {
	return fmt.Sprintf("<method %s.%s>", v.Recv.Class.Name, v.Fn.Name)
}

// BuiltinFn is the Go signature for built-in functions.
type BuiltinFn func(args []Value) (Value, error)

// BuiltinVal represents a built-in (native) function.
type BuiltinVal struct {
	Name string
	Fn   BuiltinFn
}

func (v *BuiltinVal) TypeName() string { return "builtin" }
func (v *BuiltinVal) String() string   { return fmt.Sprintf("<builtin %s>", v.Name) }

// ---- Template / class / instance values ----

// TemplateVal is an inheritable blueprint of default fields and methods.
// Templates cannot be instantiated directly.
type TemplateVal struct {
	Name    string
	Fields  []*ast.VarDeclStmt // ordered field initializers
	Methods map[string]*FuncVal
	DefEnv  *Environment // environment where the template was declared
}

func (v *TemplateVal) TypeName() string { return "template" }
func (v *TemplateVal) String() string   { return fmt.Sprintf("<template %s>", v.Name) }

// ClassVal is an instantiable type with at most one parent (a template or
// another class).
type ClassVal struct {
	Name    string
	Parent  Value // *TemplateVal or *ClassVal, may be nil
	Fields  []*ast.VarDeclStmt
	Methods map[string]*FuncVal
	DefEnv  *Environment
}

func (v *ClassVal) TypeName() string { return "class" }
func (v *ClassVal) String() string   { return fmt.Sprintf("<class %s>", v.Name) }

// InstanceVal is a heap object produced by instantiating a class, with its
// own mutable field mapping.
type InstanceVal struct {
	Class  *ClassVal
	Fields map[string]Value
}

func (v *InstanceVal) TypeName() string { return v.Class.Name }
func (v *InstanceVal) String() string   { return fmt.Sprintf("<%s instance>", v.Class.Name) }

// ---- Enum values ----

// EnumTypeVal represents a declared enum type with its ordered case table.
type EnumTypeVal struct {
	Name    string
	Cases   []string
	Members map[string]*EnumMemberVal
}

func (v *EnumTypeVal) TypeName() string { return "enum" }
func (v *EnumTypeVal) String() string   { return fmt.Sprintf("<enum %s>", v.Name) }

// EnumMemberVal is a singleton case of an enum. Equality is owning-type
// identity plus ordinal, never structural.
type EnumMemberVal struct {
	Enum    *EnumTypeVal
	Name    string
	Ordinal int
}

func (v *EnumMemberVal) TypeName() string { return v.Enum.Name }
func (v *EnumMemberVal) String() string   { return v.Enum.Name + "." + v.Name }

// ---- Foreign-bridge values ----

// OpaqueVal wraps a foreign-host result that has no primitive mapping. The
// handle makes distinct results distinguishable across the bridge.
type OpaqueVal struct {
	Handle uuid.UUID
	Desc   string
}

func (v *OpaqueVal) TypeName() string { return "opaque" }
func (v *OpaqueVal) String() string   { return fmt.Sprintf("<opaque %s>", v.Handle) }

// ---- Truthiness ----

// IsTruthy returns the truthiness of a value.
func IsTruthy(v Value) bool {
	switch val := v.(type) {
	case NoneVal:
		return false
	case BoolVal:
		return bool(val)
	case IntVal:
		return int64(val) != 0
	case FloatVal:
		return float64(val) != 0
	case StrVal:
		return string(val) != ""
	case *ListVal:
		return len(val.Elements) != 0
	case *DictVal:
		return len(val.Keys) != 0
	default:
		return true
	}
}

// ---- Helpers ----

// ToFloat64 attempts to convert a numeric value to float64.
func ToFloat64(v Value) (float64, bool) {
	switch val := v.(type) {
	case IntVal:
		return float64(int64(val)), true
	case FloatVal:
		return float64(val), true
	default:
		return 0, false
	}
}

// ToInt64 attempts to convert a numeric value to int64. Floats convert
// only when integral; 1.9 is not a valid index.
func ToInt64(v Value) (int64, bool) {
	switch val := v.(type) {
	case IntVal:
		return int64(val), true
	case FloatVal:
		f := float64(val)
		if f != math.Trunc(f) {
			return 0, false
		}
		return int64(f), true
	default:
		return 0, false
	}
}

// valuesEqual implements == semantics. Numbers compare across int/float,
// lists and dicts compare structurally, enum members compare by owning type
// and ordinal, everything else by reference.
func valuesEqual(a, b Value) bool {
	switch av := a.(type) {
	case IntVal:
		if bv, ok := b.(IntVal); ok {
			return int64(av) == int64(bv)
		}
		if bv, ok := b.(FloatVal); ok {
			return float64(int64(av)) == float64(bv)
		}
		return false
	case FloatVal:
		if bv, ok := b.(FloatVal); ok {
			return float64(av) == float64(bv)
		}
		if bv, ok := b.(IntVal); ok {
			return float64(av) == float64(int64(bv))
		}
		return false
	case StrVal:
		bv, ok := b.(StrVal)
		return ok && string(av) == string(bv)
	case BoolVal:
		bv, ok := b.(BoolVal)
		return ok && bool(av) == bool(bv)
	case NoneVal:
		_, ok := b.(NoneVal)
		return ok
	case *EnumMemberVal:
		bv, ok := b.(*EnumMemberVal)
		return ok && av.Enum == bv.Enum && av.Ordinal == bv.Ordinal
	case *ListVal:
		bv, ok := b.(*ListVal)
		if !ok || len(av.Elements) != len(bv.Elements) {
			return false
		}
		for i := range av.Elements {
			if !valuesEqual(av.Elements[i], bv.Elements[i]) {
				return false
			}
		}
		return true
	case *DictVal:
		bv, ok := b.(*DictVal)
		if !ok || len(av.Keys) != len(bv.Keys) {
			return false
		}
		for _, k := range av.Keys {
			bval, exists := bv.Values[k]
			if !exists || !valuesEqual(av.Values[k], bval) {
				return false
			}
		}
		return true
	}
	return a == b
}
