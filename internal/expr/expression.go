// Package expr implements the expression-evaluation core: a tree of
// expression nodes compiled once against a suspended stack frame and then
// evaluated against the live snapshot. Compilation is pure static analysis;
// evaluation may reach into the target process through the evaluation
// coordinator.
package expr

import (
	"io"

	"github.com/iantalarico/google-cloud-dotnet-debugger/internal/dbgobj"
	"github.com/iantalarico/google-cloud-dotnet-debugger/internal/evalcoord"
	"github.com/iantalarico/google-cloud-dotnet-debugger/internal/frame"
	"github.com/iantalarico/google-cloud-dotnet-debugger/internal/sig"
)

// Expression is one node of a compiled expression tree. Compile performs the
// static type check and selects the runtime operation; Evaluate produces a
// value, possibly performing a remote evaluation through the coordinator.
// Compile must succeed before Evaluate is called. Nodes own their children
// exclusively; the tree is read-only during evaluation.
type Expression interface {
	Compile(fr *frame.Frame, errs io.Writer) error
	Evaluate(coord *evalcoord.Coordinator, factory dbgobj.Factory, errs io.Writer) (dbgobj.Object, error)
	StaticType() sig.TypeSignature
}

// BinaryOperator is the closed set of binary operators the evaluator
// implements.
type BinaryOperator int

const (
	OpAdd BinaryOperator = iota
	OpSub
	OpMul
	OpDiv
	OpMod
	OpEq
	OpNe
	OpLt
	OpLe
	OpGt
	OpGe
	OpConditionalAnd
	OpConditionalOr
	OpBitwiseAnd
	OpBitwiseOr
	OpBitwiseXor
	OpShl
	OpShrS
	OpShrU
)

var operatorTokens = map[BinaryOperator]string{
	OpAdd:            "+",
	OpSub:            "-",
	OpMul:            "*",
	OpDiv:            "/",
	OpMod:            "%",
	OpEq:             "==",
	OpNe:             "!=",
	OpLt:             "<",
	OpLe:             "<=",
	OpGt:             ">",
	OpGe:             ">=",
	OpConditionalAnd: "&&",
	OpConditionalOr:  "||",
	OpBitwiseAnd:     "&",
	OpBitwiseOr:      "|",
	OpBitwiseXor:     "^",
	OpShl:            "<<",
	OpShrS:           ">>",
	OpShrU:           ">>>",
}

func (op BinaryOperator) String() string {
	if tok, ok := operatorTokens[op]; ok {
		return tok
	}
	return "?"
}
