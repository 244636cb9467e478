package expr

import (
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/iantalarico/google-cloud-dotnet-debugger/internal/dbgerror"
	"github.com/iantalarico/google-cloud-dotnet-debugger/internal/dbgobj"
)

// workingScalar enumerates the kinds an operation can actually be performed
// in after promotion.
type workingScalar interface {
	~int32 | ~uint32 | ~int64 | ~uint64 | ~float32 | ~float64
}

// workingInteger is the subset the bitwise and shift operations run over.
type workingInteger interface {
	~int32 | ~uint32 | ~int64 | ~uint64
}

// compute invokes the operation selected at compile time. Reaching the
// default arm means Evaluate ran without a successful Compile, which the
// two-phase contract forbids.
func (b *BinaryExpression) compute(first, second dbgobj.Object, errs io.Writer) (dbgobj.Object, error) {
	switch b.computer.class {
	case computerArithmetic:
		switch b.computer.kind {
		case dbgobj.KindI4:
			return arithmeticCompute[int32](b.op, first, second, errs)
		case dbgobj.KindU4:
			return arithmeticCompute[uint32](b.op, first, second, errs)
		case dbgobj.KindI8:
			return arithmeticCompute[int64](b.op, first, second, errs)
		case dbgobj.KindU8:
			return arithmeticCompute[uint64](b.op, first, second, errs)
		case dbgobj.KindR4:
			return arithmeticCompute[float32](b.op, first, second, errs)
		case dbgobj.KindR8:
			return arithmeticCompute[float64](b.op, first, second, errs)
		}

	case computerBitwise:
		switch b.computer.kind {
		case dbgobj.KindI4:
			return bitwiseCompute[int32](b.op, first, second)
		case dbgobj.KindU4:
			return bitwiseCompute[uint32](b.op, first, second)
		case dbgobj.KindI8:
			return bitwiseCompute[int64](b.op, first, second)
		case dbgobj.KindU8:
			return bitwiseCompute[uint64](b.op, first, second)
		}

	case computerShift:
		switch b.computer.kind {
		case dbgobj.KindI4:
			return shiftCompute[int32](b.op, 0x1f, first, second)
		case dbgobj.KindU4:
			return shiftCompute[uint32](b.op, 0x1f, first, second)
		case dbgobj.KindI8:
			return shiftCompute[int64](b.op, 0x3f, first, second)
		case dbgobj.KindU8:
			return shiftCompute[uint64](b.op, 0x3f, first, second)
		}

	case computerNumericCompare:
		switch b.computer.kind {
		case dbgobj.KindI4:
			return numericCompare[int32](b.op, first, second)
		case dbgobj.KindU4:
			return numericCompare[uint32](b.op, first, second)
		case dbgobj.KindI8:
			return numericCompare[int64](b.op, first, second)
		case dbgobj.KindU8:
			return numericCompare[uint64](b.op, first, second)
		case dbgobj.KindR4:
			return numericCompare[float32](b.op, first, second)
		case dbgobj.KindR8:
			return numericCompare[float64](b.op, first, second)
		}

	case computerStringCompare:
		return stringCompare(b.op, first, second)

	case computerObjectCompare:
		return objectCompare(b.op, first, second)

	case computerBoolean:
		return booleanCompute(b.op, first, second)
	}

	return nil, errors.New("expression evaluated without a successful compile")
}

func isFloating[T workingScalar]() bool {
	var zero T
	switch any(zero).(type) {
	case float32, float64:
		return true
	}
	return false
}

// isDivisionByZero guards the integral kinds only; floating division by zero
// follows IEEE semantics and never traps.
func isDivisionByZero[T workingScalar](divisor T) bool {
	if isFloating[T]() {
		return false
	}
	return divisor == 0
}

// isDivisionOverflow detects the one input pattern whose quotient is not
// representable: the signed minimum divided by -1. Unsigned and floating
// kinds are exempt.
func isDivisionOverflow[T workingScalar](value1, value2 T) bool {
	switch v1 := any(value1).(type) {
	case int32:
		return v1 == math.MinInt32 && any(value2).(int32) == -1
	case int64:
		return v1 == math.MinInt64 && any(value2).(int64) == -1
	}
	return false
}

// computeModulo implements the source language's % operator: truncated
// remainder for the integer kinds, the runtime's floating-point remainder
// for float and double.
func computeModulo[T workingScalar](x, y T) T {
	switch v := any(x).(type) {
	case int32:
		return T(v % any(y).(int32))
	case uint32:
		return T(v % any(y).(uint32))
	case int64:
		return T(v % any(y).(int64))
	case uint64:
		return T(v % any(y).(uint64))
	case float32:
		return T(float32(math.Mod(float64(v), float64(any(y).(float32)))))
	case float64:
		return T(math.Mod(v, any(y).(float64)))
	}
	var zero T
	return zero
}

func arithmeticCompute[T workingScalar](op BinaryOperator, first, second dbgobj.Object, errs io.Writer) (dbgobj.Object, error) {
	value1, err := dbgobj.Scalar[T](first)
	if err != nil {
		return nil, fmt.Errorf("first operand: %w", err)
	}
	value2, err := dbgobj.Scalar[T](second)
	if err != nil {
		return nil, fmt.Errorf("second operand: %w", err)
	}

	switch op {
	case OpAdd:
		return dbgobj.NewPrimitive(value1 + value2), nil
	case OpSub:
		return dbgobj.NewPrimitive(value1 - value2), nil
	case OpMul:
		return dbgobj.NewPrimitive(value1 * value2), nil
	case OpDiv, OpMod:
		if isDivisionByZero(value2) {
			fmt.Fprintln(errs, dbgerror.MsgDivisionByZero)
			return nil, dbgerror.ErrDivisionByZero
		}
		if isDivisionOverflow(value1, value2) {
			fmt.Fprintln(errs, dbgerror.MsgArithmeticOverflow)
			return nil, dbgerror.ErrArithmeticOverflow
		}
		if op == OpDiv {
			return dbgobj.NewPrimitive(value1 / value2), nil
		}
		return dbgobj.NewPrimitive(computeModulo(value1, value2)), nil
	}
	return nil, fmt.Errorf("%w: %v is not an arithmetic operator", dbgerror.ErrNotSupported, op)
}

func bitwiseCompute[T workingInteger](op BinaryOperator, first, second dbgobj.Object) (dbgobj.Object, error) {
	value1, err := dbgobj.Scalar[T](first)
	if err != nil {
		return nil, fmt.Errorf("first operand: %w", err)
	}
	value2, err := dbgobj.Scalar[T](second)
	if err != nil {
		return nil, fmt.Errorf("second operand: %w", err)
	}

	switch op {
	case OpBitwiseAnd:
		return dbgobj.NewPrimitive(value1 & value2), nil
	case OpBitwiseOr:
		return dbgobj.NewPrimitive(value1 | value2), nil
	case OpBitwiseXor:
		return dbgobj.NewPrimitive(value1 ^ value2), nil
	}
	return nil, fmt.Errorf("%w: %v is not a bitwise operator", dbgerror.ErrNotSupported, op)
}

// shiftCompute masks the count to the working kind's width before shifting:
// five low-order bits for 32-bit kinds, six for 64-bit kinds. Signed and
// unsigned right shift differ only through the working kind selected at
// compile time.
func shiftCompute[T workingInteger](op BinaryOperator, mask int32, first, second dbgobj.Object) (dbgobj.Object, error) {
	value1, err := dbgobj.Scalar[T](first)
	if err != nil {
		return nil, fmt.Errorf("first operand: %w", err)
	}
	count, err := dbgobj.Scalar[int32](second)
	if err != nil {
		return nil, fmt.Errorf("second operand: %w", err)
	}
	count &= mask

	switch op {
	case OpShl:
		return dbgobj.NewPrimitive(value1 << count), nil
	case OpShrS, OpShrU:
		return dbgobj.NewPrimitive(value1 >> count), nil
	}
	return nil, fmt.Errorf("%w: %v is not a shift operator", dbgerror.ErrNotSupported, op)
}

func numericCompare[T workingScalar](op BinaryOperator, first, second dbgobj.Object) (dbgobj.Object, error) {
	value1, err := dbgobj.Scalar[T](first)
	if err != nil {
		return nil, fmt.Errorf("first operand: %w", err)
	}
	value2, err := dbgobj.Scalar[T](second)
	if err != nil {
		return nil, fmt.Errorf("second operand: %w", err)
	}

	switch op {
	case OpEq:
		return &dbgobj.Boolean{Value: value1 == value2}, nil
	case OpNe:
		return &dbgobj.Boolean{Value: value1 != value2}, nil
	case OpLt:
		return &dbgobj.Boolean{Value: value1 < value2}, nil
	case OpLe:
		return &dbgobj.Boolean{Value: value1 <= value2}, nil
	case OpGt:
		return &dbgobj.Boolean{Value: value1 > value2}, nil
	case OpGe:
		return &dbgobj.Boolean{Value: value1 >= value2}, nil
	}
	return nil, fmt.Errorf("%w: %v is not a comparison operator", dbgerror.ErrNotSupported, op)
}

func stringCompare(op BinaryOperator, first, second dbgobj.Object) (dbgobj.Object, error) {
	text1, err := dbgobj.Text(first)
	if err != nil {
		return nil, fmt.Errorf("first operand: %w", err)
	}
	text2, err := dbgobj.Text(second)
	if err != nil {
		return nil, fmt.Errorf("second operand: %w", err)
	}

	equal := text1 == text2
	switch op {
	case OpEq:
		return &dbgobj.Boolean{Value: equal}, nil
	case OpNe:
		return &dbgobj.Boolean{Value: !equal}, nil
	}
	return nil, fmt.Errorf("%w: %v is not defined over strings", dbgerror.ErrNotSupported, op)
}

// objectCompare compares the identity of two reference values. ne reports
// the inverted identity result.
func objectCompare(op BinaryOperator, first, second dbgobj.Object) (dbgobj.Object, error) {
	sameAddress := first.Address() == second.Address()

	switch op {
	case OpEq:
		return &dbgobj.Boolean{Value: sameAddress}, nil
	case OpNe:
		return &dbgobj.Boolean{Value: !sameAddress}, nil
	}
	return nil, fmt.Errorf("%w: %v is not defined over references", dbgerror.ErrNotSupported, op)
}

// booleanCompute serves the conditional operators once short-circuiting has
// been ruled out, and eq/ne/xor over a pair of booleans.
func booleanCompute(op BinaryOperator, first, second dbgobj.Object) (dbgobj.Object, error) {
	boolean1, err := dbgobj.Bool(first)
	if err != nil {
		return nil, fmt.Errorf("first operand: %w", err)
	}
	boolean2, err := dbgobj.Bool(second)
	if err != nil {
		return nil, fmt.Errorf("second operand: %w", err)
	}

	switch op {
	case OpConditionalAnd, OpBitwiseAnd:
		return &dbgobj.Boolean{Value: boolean1 && boolean2}, nil
	case OpConditionalOr, OpBitwiseOr:
		return &dbgobj.Boolean{Value: boolean1 || boolean2}, nil
	case OpEq:
		return &dbgobj.Boolean{Value: boolean1 == boolean2}, nil
	case OpNe, OpBitwiseXor:
		return &dbgobj.Boolean{Value: boolean1 != boolean2}, nil
	}
	return nil, fmt.Errorf("%w: %v is not defined over booleans", dbgerror.ErrNotSupported, op)
}
