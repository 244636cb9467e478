package expr

import (
	"fmt"
	"io"

	"github.com/iantalarico/google-cloud-dotnet-debugger/internal/dbgerror"
	"github.com/iantalarico/google-cloud-dotnet-debugger/internal/dbgobj"
	"github.com/iantalarico/google-cloud-dotnet-debugger/internal/evalcoord"
	"github.com/iantalarico/google-cloud-dotnet-debugger/internal/frame"
	"github.com/iantalarico/google-cloud-dotnet-debugger/internal/sig"
)

// computerClass names the runtime operation Compile selects for a binary
// node. Together with the working kind it fully determines what Evaluate
// does, which keeps the dispatch inspectable: a class, a kind, and a switch.
type computerClass int

const (
	computerNone computerClass = iota
	computerArithmetic
	computerBitwise
	computerShift
	computerNumericCompare
	computerStringCompare
	computerObjectCompare
	computerBoolean
)

// selectedOp is the operation a binary node resolved during Compile. It
// stays fixed for the node's lifetime; re-compiling rebinds it.
type selectedOp struct {
	class computerClass
	kind  dbgobj.ElementKind
}

// BinaryExpression evaluates one binary operator over its two operands.
type BinaryExpression struct {
	op          BinaryOperator
	left, right Expression
	computer    selectedOp
	staticType  sig.TypeSignature
}

// NewBinary builds a binary node owning both operand subtrees.
func NewBinary(op BinaryOperator, left, right Expression) *BinaryExpression {
	return &BinaryExpression{
		op:         op,
		left:       left,
		right:      right,
		staticType: sig.Signature(dbgobj.KindObject),
	}
}

func (b *BinaryExpression) StaticType() sig.TypeSignature { return b.staticType }

// Compile type-checks both operands, then selects the runtime operation for
// the operator category. Operand errors propagate unchanged.
func (b *BinaryExpression) Compile(fr *frame.Frame, errs io.Writer) error {
	if err := b.left.Compile(fr, errs); err != nil {
		return err
	}
	if err := b.right.Compile(fr, errs); err != nil {
		return err
	}

	switch b.op {
	case OpAdd, OpSub, OpMul, OpDiv, OpMod:
		return b.compileArithmetical(errs)
	case OpEq, OpNe, OpLt, OpLe, OpGt, OpGe:
		return b.compileRelational(errs)
	case OpConditionalAnd, OpConditionalOr:
		return b.compileBooleanConditional(errs)
	case OpBitwiseAnd, OpBitwiseOr, OpBitwiseXor:
		return b.compileLogical(errs)
	case OpShl, OpShrS, OpShrU:
		return b.compileShift(errs)
	}
	return fmt.Errorf("unhandled binary operator %v", b.op)
}

func (b *BinaryExpression) compileArithmetical(errs io.Writer) error {
	promoted, err := sig.BinaryNumericalPromotion(
		b.left.StaticType().Kind, b.right.StaticType().Kind)
	if err != nil {
		fmt.Fprintln(errs, dbgerror.MsgTypeMismatch)
		return err
	}

	b.staticType = sig.Signature(promoted)
	b.computer = selectedOp{class: computerArithmetic, kind: promoted}
	return nil
}

func (b *BinaryExpression) compileRelational(errs io.Writer) error {
	kind1 := b.left.StaticType().Kind
	kind2 := b.right.StaticType().Kind
	b.staticType = sig.Signature(dbgobj.KindBoolean)

	// If both operands are numerical, compare in the promoted kind.
	if sig.IsNumericalType(kind1) && sig.IsNumericalType(kind2) {
		promoted, err := sig.BinaryNumericalPromotion(kind1, kind2)
		if err != nil {
			fmt.Fprintln(errs, dbgerror.MsgTypeMismatch)
			return err
		}
		b.computer = selectedOp{class: computerNumericCompare, kind: promoted}
		return nil
	}

	// Ordering operators are only defined over numbers.
	if b.op != OpEq && b.op != OpNe {
		fmt.Fprintln(errs, dbgerror.MsgExpressionNotSupported)
		return dbgerror.ErrNotSupported
	}

	if kind1 == dbgobj.KindBoolean && kind2 == dbgobj.KindBoolean {
		return b.compileBooleanConditional(errs)
	}

	if kind1 == dbgobj.KindString && kind2 == dbgobj.KindString {
		b.computer = selectedOp{class: computerStringCompare}
		return nil
	}

	// Identity comparison applies only when neither side is numeric.
	if !sig.IsNumericalType(kind1) && !sig.IsNumericalType(kind2) {
		b.computer = selectedOp{class: computerObjectCompare}
		return nil
	}

	fmt.Fprintln(errs, dbgerror.MsgTypeMismatch)
	return dbgerror.ErrTypeMismatch
}

func (b *BinaryExpression) compileBooleanConditional(errs io.Writer) error {
	if b.left.StaticType().Kind == dbgobj.KindBoolean &&
		b.right.StaticType().Kind == dbgobj.KindBoolean {
		b.computer = selectedOp{class: computerBoolean, kind: dbgobj.KindBoolean}
		b.staticType = sig.Signature(dbgobj.KindBoolean)
		return nil
	}

	fmt.Fprintln(errs, dbgerror.MsgTypeMismatch)
	return dbgerror.ErrTypeMismatch
}

func (b *BinaryExpression) compileLogical(errs io.Writer) error {
	kind1 := b.left.StaticType().Kind
	kind2 := b.right.StaticType().Kind

	// Two cases: integer bitwise operations, or non-short-circuiting
	// operators over a pair of booleans.
	if sig.IsIntegralType(kind1) && sig.IsIntegralType(kind2) {
		promoted, err := sig.BinaryNumericalPromotion(kind1, kind2)
		if err != nil {
			fmt.Fprintln(errs, dbgerror.MsgTypeMismatch)
			return err
		}

		b.staticType = sig.Signature(promoted)
		b.computer = selectedOp{class: computerBitwise, kind: promoted}
		return nil
	}

	return b.compileBooleanConditional(errs)
}

func (b *BinaryExpression) compileShift(errs io.Writer) error {
	kind1 := b.left.StaticType().Kind
	kind2 := b.right.StaticType().Kind

	if !sig.IsIntegralType(kind1) || !sig.IsIntegralType(kind2) {
		fmt.Fprintln(errs, dbgerror.MsgTypeMismatch)
		return dbgerror.ErrTypeMismatch
	}

	// The shift count has to be an int or numerically promotable to one.
	if !sig.IsNumericallyPromotedToInt(kind2) && kind2 != dbgobj.KindI4 {
		fmt.Fprintln(errs, dbgerror.MsgTypeMismatch)
		return dbgerror.ErrTypeMismatch
	}

	working := kind1
	if sig.IsNumericallyPromotedToInt(working) {
		working = dbgobj.KindI4
	}

	b.staticType = sig.Signature(working)
	b.computer = selectedOp{class: computerShift, kind: working}
	return nil
}

// Evaluate computes the node's value. The left operand always evaluates
// first; the conditional operators stop there when the left value already
// decides the result, so the right subtree is never touched.
func (b *BinaryExpression) Evaluate(coord *evalcoord.Coordinator, factory dbgobj.Factory, errs io.Writer) (dbgobj.Object, error) {
	first, err := b.left.Evaluate(coord, factory, errs)
	if err != nil {
		fmt.Fprintln(errs, dbgerror.MsgFailedToEvalFirstItem)
		return nil, fmt.Errorf("first operand: %w", err)
	}

	switch b.op {
	case OpConditionalAnd:
		value, err := dbgobj.Bool(first)
		if err != nil {
			return nil, fmt.Errorf("first operand: %w", err)
		}
		if !value {
			return &dbgobj.Boolean{Value: false}, nil
		}
	case OpConditionalOr:
		value, err := dbgobj.Bool(first)
		if err != nil {
			return nil, fmt.Errorf("first operand: %w", err)
		}
		if value {
			return &dbgobj.Boolean{Value: true}, nil
		}
	}

	second, err := b.right.Evaluate(coord, factory, errs)
	if err != nil {
		fmt.Fprintln(errs, dbgerror.MsgFailedToEvalSecondItem)
		return nil, fmt.Errorf("second operand: %w", err)
	}

	return b.compute(first, second, errs)
}
