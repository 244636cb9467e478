// Package sig holds the static type signatures the expression compiler works
// with, together with the source language's binary numeric promotion rules.
package sig

import (
	"github.com/iantalarico/google-cloud-dotnet-debugger/internal/dbgerror"
	"github.com/iantalarico/google-cloud-dotnet-debugger/internal/dbgobj"
)

// TypeSignature is the static result type of a compiled expression node.
// It is immutable once computed by Compile.
type TypeSignature struct {
	Kind dbgobj.ElementKind
	Name string
}

// Signature builds the signature for a kind with its display name.
func Signature(kind dbgobj.ElementKind) TypeSignature {
	return TypeSignature{Kind: kind, Name: kind.Name()}
}

// IsNumericalType reports whether arithmetic is defined over the kind.
func IsNumericalType(k dbgobj.ElementKind) bool {
	return IsIntegralType(k) || k == dbgobj.KindR4 || k == dbgobj.KindR8
}

// IsIntegralType reports whether the kind is a whole-number kind, including
// char, which the source language treats as an integral type.
func IsIntegralType(k dbgobj.ElementKind) bool {
	switch k {
	case dbgobj.KindI1, dbgobj.KindU1, dbgobj.KindI2, dbgobj.KindU2,
		dbgobj.KindI4, dbgobj.KindU4, dbgobj.KindI8, dbgobj.KindU8,
		dbgobj.KindChar:
		return true
	}
	return false
}

// IsNumericallyPromotedToInt reports whether the kind widens to int before
// any arithmetic or shift is performed.
func IsNumericallyPromotedToInt(k dbgobj.ElementKind) bool {
	switch k {
	case dbgobj.KindI1, dbgobj.KindU1, dbgobj.KindI2, dbgobj.KindU2,
		dbgobj.KindChar:
		return true
	}
	return false
}

func isSignedKind(k dbgobj.ElementKind) bool {
	switch k {
	case dbgobj.KindI1, dbgobj.KindI2, dbgobj.KindI4, dbgobj.KindI8:
		return true
	}
	return false
}

// BinaryNumericalPromotion maps a pair of operand kinds to the kind the
// operation is actually performed in, following the source language's
// precedence: double, float, ulong, long, uint, then the int default.
// Mixing ulong with any signed kind has no representable result and fails
// with a type mismatch.
func BinaryNumericalPromotion(k1, k2 dbgobj.ElementKind) (dbgobj.ElementKind, error) {
	if !IsNumericalType(k1) || !IsNumericalType(k2) {
		return dbgobj.KindObject, dbgerror.ErrTypeMismatch
	}

	switch {
	case k1 == dbgobj.KindR8 || k2 == dbgobj.KindR8:
		return dbgobj.KindR8, nil

	case k1 == dbgobj.KindR4 || k2 == dbgobj.KindR4:
		return dbgobj.KindR4, nil

	case k1 == dbgobj.KindU8 || k2 == dbgobj.KindU8:
		if isSignedKind(k1) || isSignedKind(k2) {
			return dbgobj.KindObject, dbgerror.ErrTypeMismatch
		}
		return dbgobj.KindU8, nil

	case k1 == dbgobj.KindI8 || k2 == dbgobj.KindI8:
		return dbgobj.KindI8, nil

	case k1 == dbgobj.KindU4 || k2 == dbgobj.KindU4:
		// uint paired with a signed kind narrower than long widens both
		// sides to long, the smallest signed kind holding every uint.
		if isSignedKind(k1) || isSignedKind(k2) {
			return dbgobj.KindI8, nil
		}
		return dbgobj.KindU4, nil

	default:
		return dbgobj.KindI4, nil
	}
}
