package dbgobj

import (
	"fmt"
	"strconv"
)

// ElementKind is the declared kind of a value observed in the target
// process, mirroring the runtime's element-type codes.
type ElementKind int

const (
	KindObject ElementKind = iota
	KindBoolean
	KindChar
	KindI1
	KindU1
	KindI2
	KindU2
	KindI4
	KindU4
	KindI8
	KindU8
	KindR4
	KindR8
	KindString
	KindClass
)

var kindNames = map[ElementKind]string{
	KindObject:  "System.Object",
	KindBoolean: "System.Boolean",
	KindChar:    "System.Char",
	KindI1:      "System.SByte",
	KindU1:      "System.Byte",
	KindI2:      "System.Int16",
	KindU2:      "System.UInt16",
	KindI4:      "System.Int32",
	KindU4:      "System.UInt32",
	KindI8:      "System.Int64",
	KindU8:      "System.UInt64",
	KindR4:      "System.Single",
	KindR8:      "System.Double",
	KindString:  "System.String",
	KindClass:   "System.Object",
}

// Name returns the managed type name the debugger displays for the kind.
func (k ElementKind) Name() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "System.Object"
}

func (k ElementKind) String() string { return k.Name() }

// Char is the target runtime's 16-bit character type. Keeping it a distinct
// Go type lets a Primitive carry the char kind while still participating in
// numeric extraction.
type Char uint16

// ScalarValue enumerates the Go representations a primitive payload can take.
type ScalarValue interface {
	~int8 | ~uint8 | ~int16 | ~uint16 | ~int32 | ~uint32 | ~int64 | ~uint64 | ~float32 | ~float64
}

// Object is a value observed in the target process: a primitive scalar, a
// string, or a composite reference. Once handed out by an evaluator an Object
// is immutable.
type Object interface {
	Kind() ElementKind
	// Address is the identity of a reference value in the target's memory.
	// Primitives that only exist as computation results report zero.
	Address() uint64
	Inspect() string
}

// Primitive is a scalar payload extracted from (or computed for) the target.
type Primitive[T ScalarValue] struct {
	Value T
}

func NewPrimitive[T ScalarValue](v T) *Primitive[T] { return &Primitive[T]{Value: v} }

func (p *Primitive[T]) Kind() ElementKind { return kindOfScalar(p.Value) }
func (p *Primitive[T]) Address() uint64   { return 0 }
func (p *Primitive[T]) Inspect() string   { return fmt.Sprintf("%v", p.Value) }

type Boolean struct {
	Value bool
}

func (b *Boolean) Kind() ElementKind { return KindBoolean }
func (b *Boolean) Address() uint64   { return 0 }
func (b *Boolean) Inspect() string   { return strconv.FormatBool(b.Value) }

// String is the backing text of a managed string together with the object's
// identity in the target process.
type String struct {
	Addr  uint64
	Value string
}

func (s *String) Kind() ElementKind { return KindString }
func (s *String) Address() uint64   { return s.Addr }
func (s *String) Inspect() string   { return strconv.Quote(s.Value) }

// Reference is an opaque composite object. The evaluator only ever needs its
// identity; member layout belongs to the value-model collaborator.
type Reference struct {
	Addr      uint64
	ClassName string
}

func (r *Reference) Kind() ElementKind { return KindClass }
func (r *Reference) Address() uint64   { return r.Addr }
func (r *Reference) Inspect() string {
	if r.Addr == 0 {
		return "null"
	}
	return fmt.Sprintf("%s@0x%x", r.ClassName, r.Addr)
}

func kindOfScalar(v any) ElementKind {
	switch v.(type) {
	case Char:
		return KindChar
	case int8:
		return KindI1
	case uint8:
		return KindU1
	case int16:
		return KindI2
	case uint16:
		return KindU2
	case int32:
		return KindI4
	case uint32:
		return KindU4
	case int64:
		return KindI8
	case uint64:
		return KindU8
	case float32:
		return KindR4
	case float64:
		return KindR8
	default:
		return KindObject
	}
}
