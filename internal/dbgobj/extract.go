package dbgobj

import (
	"fmt"

	"github.com/iantalarico/google-cloud-dotnet-debugger/internal/dbgerror"
)

type scalarClass int

const (
	classSigned scalarClass = iota
	classUnsigned
	classFloating
)

// scalarSource is implemented by objects whose payload can be read as a
// number. The three accessors perform the widening conversion; Scalar picks
// the one matching the payload's class so unsigned 64-bit values never round
// trip through a signed representation.
type scalarSource interface {
	scalarClass() scalarClass
	asInt64() int64
	asUint64() uint64
	asFloat64() float64
}

func (p *Primitive[T]) scalarClass() scalarClass {
	switch p.Kind() {
	case KindU1, KindU2, KindU4, KindU8, KindChar:
		return classUnsigned
	case KindR4, KindR8:
		return classFloating
	default:
		return classSigned
	}
}

func (p *Primitive[T]) asInt64() int64     { return int64(p.Value) }
func (p *Primitive[T]) asUint64() uint64   { return uint64(p.Value) }
func (p *Primitive[T]) asFloat64() float64 { return float64(p.Value) }

// Scalar extracts obj's payload as T, applying the numeric conversion the
// source language would apply for the corresponding cast.
func Scalar[T ScalarValue](obj Object) (T, error) {
	src, ok := obj.(scalarSource)
	if !ok {
		return 0, fmt.Errorf("%w: cannot read %s as a number", dbgerror.ErrTypeMismatch, obj.Kind().Name())
	}
	switch src.scalarClass() {
	case classUnsigned:
		return T(src.asUint64()), nil
	case classFloating:
		return T(src.asFloat64()), nil
	default:
		return T(src.asInt64()), nil
	}
}

// Bool extracts a boolean payload. Only genuine booleans qualify; numeric
// kinds never implicitly convert.
func Bool(obj Object) (bool, error) {
	b, ok := obj.(*Boolean)
	if !ok {
		return false, fmt.Errorf("%w: cannot read %s as a boolean", dbgerror.ErrTypeMismatch, obj.Kind().Name())
	}
	return b.Value, nil
}

// Text extracts the backing content of a managed string.
func Text(obj Object) (string, error) {
	s, ok := obj.(*String)
	if !ok {
		return "", fmt.Errorf("%w: cannot read %s as a string", dbgerror.ErrTypeMismatch, obj.Kind().Name())
	}
	return s.Value, nil
}
