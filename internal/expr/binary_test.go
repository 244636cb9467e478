package expr

import (
	"bytes"
	"errors"
	"io"
	"math"
	"strings"
	"testing"

	"github.com/iantalarico/google-cloud-dotnet-debugger/internal/dbgerror"
	"github.com/iantalarico/google-cloud-dotnet-debugger/internal/dbgobj"
	"github.com/iantalarico/google-cloud-dotnet-debugger/internal/evalcoord"
	"github.com/iantalarico/google-cloud-dotnet-debugger/internal/frame"
	"github.com/iantalarico/google-cloud-dotnet-debugger/internal/sig"
)

func lit(value dbgobj.Object) *Literal { return NewLiteral(value) }

func mustEval(t *testing.T, node Expression) dbgobj.Object {
	t.Helper()
	if err := node.Compile(frame.New("test"), io.Discard); err != nil {
		t.Fatalf("compile: %v", err)
	}
	result, err := node.Evaluate(nil, dbgobj.NewStandardFactory(), io.Discard)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	return result
}

func scalarOf[T dbgobj.ScalarValue](t *testing.T, obj dbgobj.Object) T {
	t.Helper()
	value, err := dbgobj.Scalar[T](obj)
	if err != nil {
		t.Fatalf("scalar extraction: %v", err)
	}
	return value
}

func boolOf(t *testing.T, obj dbgobj.Object) bool {
	t.Helper()
	value, err := dbgobj.Bool(obj)
	if err != nil {
		t.Fatalf("boolean extraction: %v", err)
	}
	return value
}

// countingLeaf records how many times it was evaluated, which pins down the
// conditional operators' short-circuit behavior.
type countingLeaf struct {
	value dbgobj.Object
	calls int
}

func (c *countingLeaf) Compile(_ *frame.Frame, _ io.Writer) error { return nil }

func (c *countingLeaf) Evaluate(_ *evalcoord.Coordinator, _ dbgobj.Factory, _ io.Writer) (dbgobj.Object, error) {
	c.calls++
	return c.value, nil
}

func (c *countingLeaf) StaticType() sig.TypeSignature {
	return sig.Signature(c.value.Kind())
}

// failingLeaf compiles fine and then fails at evaluation time.
type failingLeaf struct {
	err error
}

func (f *failingLeaf) Compile(_ *frame.Frame, _ io.Writer) error { return nil }

func (f *failingLeaf) Evaluate(_ *evalcoord.Coordinator, _ dbgobj.Factory, _ io.Writer) (dbgobj.Object, error) {
	return nil, f.err
}

func (f *failingLeaf) StaticType() sig.TypeSignature {
	return sig.Signature(dbgobj.KindI4)
}

func TestArithmetic(t *testing.T) {
	type testCase struct {
		name  string
		node  Expression
		kind  dbgobj.ElementKind
		check func(t *testing.T, result dbgobj.Object)
	}

	testCases := []testCase{
		{
			name: "int addition",
			node: NewBinary(OpAdd, lit(dbgobj.NewPrimitive(int32(2))), lit(dbgobj.NewPrimitive(int32(3)))),
			kind: dbgobj.KindI4,
			check: func(t *testing.T, result dbgobj.Object) {
				if got := scalarOf[int32](t, result); got != 5 {
					t.Fatalf("got %d, want 5", got)
				}
			},
		},
		{
			name: "int and long promote to long",
			node: NewBinary(OpMul, lit(dbgobj.NewPrimitive(int32(4))), lit(dbgobj.NewPrimitive(int64(1<<40)))),
			kind: dbgobj.KindI8,
			check: func(t *testing.T, result dbgobj.Object) {
				if got := scalarOf[int64](t, result); got != 4<<40 {
					t.Fatalf("got %d, want %d", got, int64(4)<<40)
				}
			},
		},
		{
			name: "uint and int promote to long",
			node: NewBinary(OpSub, lit(dbgobj.NewPrimitive(uint32(1))), lit(dbgobj.NewPrimitive(int32(2)))),
			kind: dbgobj.KindI8,
			check: func(t *testing.T, result dbgobj.Object) {
				if got := scalarOf[int64](t, result); got != -1 {
					t.Fatalf("got %d, want -1", got)
				}
			},
		},
		{
			name: "short operands widen to int",
			node: NewBinary(OpAdd, lit(dbgobj.NewPrimitive(int16(300))), lit(dbgobj.NewPrimitive(int16(300)))),
			kind: dbgobj.KindI4,
			check: func(t *testing.T, result dbgobj.Object) {
				if got := scalarOf[int32](t, result); got != 600 {
					t.Fatalf("got %d, want 600", got)
				}
			},
		},
		{
			name: "integer division truncates",
			node: NewBinary(OpDiv, lit(dbgobj.NewPrimitive(int32(7))), lit(dbgobj.NewPrimitive(int32(2)))),
			kind: dbgobj.KindI4,
			check: func(t *testing.T, result dbgobj.Object) {
				if got := scalarOf[int32](t, result); got != 3 {
					t.Fatalf("got %d, want 3", got)
				}
			},
		},
		{
			name: "negative modulo keeps dividend sign",
			node: NewBinary(OpMod, lit(dbgobj.NewPrimitive(int32(-7))), lit(dbgobj.NewPrimitive(int32(2)))),
			kind: dbgobj.KindI4,
			check: func(t *testing.T, result dbgobj.Object) {
				if got := scalarOf[int32](t, result); got != -1 {
					t.Fatalf("got %d, want -1", got)
				}
			},
		},
		{
			name: "float modulo",
			node: NewBinary(OpMod, lit(dbgobj.NewPrimitive(float64(5.5))), lit(dbgobj.NewPrimitive(float64(2)))),
			kind: dbgobj.KindR8,
			check: func(t *testing.T, result dbgobj.Object) {
				if got := scalarOf[float64](t, result); got != 1.5 {
					t.Fatalf("got %v, want 1.5", got)
				}
			},
		},
		{
			name: "int plus double promotes to double",
			node: NewBinary(OpAdd, lit(dbgobj.NewPrimitive(int32(1))), lit(dbgobj.NewPrimitive(float64(0.5)))),
			kind: dbgobj.KindR8,
			check: func(t *testing.T, result dbgobj.Object) {
				if got := scalarOf[float64](t, result); got != 1.5 {
					t.Fatalf("got %v, want 1.5", got)
				}
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			result := mustEval(t, tc.node)
			if result.Kind() != tc.kind {
				t.Fatalf("result kind %v, want %v", result.Kind(), tc.kind)
			}
			tc.check(t, result)
		})
	}
}

func TestDivisionGuards(t *testing.T) {
	t.Run("integer division by zero", func(t *testing.T) {
		node := NewBinary(OpDiv, lit(dbgobj.NewPrimitive(int32(5))), lit(dbgobj.NewPrimitive(int32(0))))
		if err := node.Compile(frame.New("test"), io.Discard); err != nil {
			t.Fatalf("compile: %v", err)
		}
		var diag bytes.Buffer
		_, err := node.Evaluate(nil, nil, &diag)
		if !errors.Is(err, dbgerror.ErrDivisionByZero) {
			t.Fatalf("expected division by zero, got %v", err)
		}
		if !strings.Contains(diag.String(), dbgerror.MsgDivisionByZero) {
			t.Fatalf("diagnostic sink missing message, got %q", diag.String())
		}
	})

	t.Run("integer modulo by zero", func(t *testing.T) {
		node := NewBinary(OpMod, lit(dbgobj.NewPrimitive(int64(7))), lit(dbgobj.NewPrimitive(int64(0))))
		if err := node.Compile(frame.New("test"), io.Discard); err != nil {
			t.Fatalf("compile: %v", err)
		}
		_, err := node.Evaluate(nil, nil, io.Discard)
		if !errors.Is(err, dbgerror.ErrDivisionByZero) {
			t.Fatalf("expected division by zero, got %v", err)
		}
	})

	t.Run("float division by zero yields infinity", func(t *testing.T) {
		node := NewBinary(OpDiv, lit(dbgobj.NewPrimitive(float64(1))), lit(dbgobj.NewPrimitive(float64(0))))
		result := mustEval(t, node)
		if got := scalarOf[float64](t, result); !math.IsInf(got, 1) {
			t.Fatalf("got %v, want +Inf", got)
		}
	})

	t.Run("signed minimum over minus one overflows", func(t *testing.T) {
		for _, tc := range []struct {
			name string
			node Expression
		}{
			{"int32", NewBinary(OpDiv, lit(dbgobj.NewPrimitive(int32(math.MinInt32))), lit(dbgobj.NewPrimitive(int32(-1))))},
			{"int64", NewBinary(OpDiv, lit(dbgobj.NewPrimitive(int64(math.MinInt64))), lit(dbgobj.NewPrimitive(int64(-1))))},
			{"int32 modulo", NewBinary(OpMod, lit(dbgobj.NewPrimitive(int32(math.MinInt32))), lit(dbgobj.NewPrimitive(int32(-1))))},
		} {
			t.Run(tc.name, func(t *testing.T) {
				if err := tc.node.Compile(frame.New("test"), io.Discard); err != nil {
					t.Fatalf("compile: %v", err)
				}
				_, err := tc.node.Evaluate(nil, nil, io.Discard)
				if !errors.Is(err, dbgerror.ErrArithmeticOverflow) {
					t.Fatalf("expected overflow, got %v", err)
				}
			})
		}
	})

	t.Run("unsigned kinds never overflow on division", func(t *testing.T) {
		node := NewBinary(OpDiv,
			lit(dbgobj.NewPrimitive(uint32(math.MaxUint32))),
			lit(dbgobj.NewPrimitive(uint32(math.MaxUint32))))
		result := mustEval(t, node)
		if got := scalarOf[uint32](t, result); got != 1 {
			t.Fatalf("got %d, want 1", got)
		}
	})
}

func TestShift(t *testing.T) {
	type testCase struct {
		name string
		node Expression
		kind dbgobj.ElementKind
		want int64
	}

	testCases := []testCase{
		{
			name: "int left shift",
			node: NewBinary(OpShl, lit(dbgobj.NewPrimitive(int32(1))), lit(dbgobj.NewPrimitive(int32(4)))),
			kind: dbgobj.KindI4,
			want: 16,
		},
		{
			name: "count masks to five bits for int",
			node: NewBinary(OpShl, lit(dbgobj.NewPrimitive(int32(1))), lit(dbgobj.NewPrimitive(int32(33)))),
			kind: dbgobj.KindI4,
			want: 2,
		},
		{
			name: "count masks to six bits for long",
			node: NewBinary(OpShl, lit(dbgobj.NewPrimitive(int64(1))), lit(dbgobj.NewPrimitive(int32(65)))),
			kind: dbgobj.KindI8,
			want: 2,
		},
		{
			name: "signed right shift extends the sign",
			node: NewBinary(OpShrS, lit(dbgobj.NewPrimitive(int32(-8))), lit(dbgobj.NewPrimitive(int32(1)))),
			kind: dbgobj.KindI4,
			want: -4,
		},
		{
			name: "short left operand widens to int",
			node: NewBinary(OpShl, lit(dbgobj.NewPrimitive(int16(1))), lit(dbgobj.NewPrimitive(int32(20)))),
			kind: dbgobj.KindI4,
			want: 1 << 20,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			result := mustEval(t, tc.node)
			if result.Kind() != tc.kind {
				t.Fatalf("result kind %v, want %v", result.Kind(), tc.kind)
			}
			var got int64
			switch tc.kind {
			case dbgobj.KindI4:
				got = int64(scalarOf[int32](t, result))
			case dbgobj.KindI8:
				got = scalarOf[int64](t, result)
			}
			if got != tc.want {
				t.Fatalf("got %d, want %d", got, tc.want)
			}
		})
	}

	t.Run("unsigned right shift over uint fills with zeros", func(t *testing.T) {
		node := NewBinary(OpShrU, lit(dbgobj.NewPrimitive(uint32(0x80000000))), lit(dbgobj.NewPrimitive(int32(1))))
		result := mustEval(t, node)
		if got := scalarOf[uint32](t, result); got != 0x40000000 {
			t.Fatalf("got %#x, want 0x40000000", got)
		}
	})

	t.Run("float operand is rejected at compile", func(t *testing.T) {
		node := NewBinary(OpShl, lit(dbgobj.NewPrimitive(float64(1))), lit(dbgobj.NewPrimitive(int32(1))))
		err := node.Compile(frame.New("test"), io.Discard)
		if !errors.Is(err, dbgerror.ErrTypeMismatch) {
			t.Fatalf("expected type mismatch, got %v", err)
		}
	})

	t.Run("long count is rejected at compile", func(t *testing.T) {
		node := NewBinary(OpShl, lit(dbgobj.NewPrimitive(int32(1))), lit(dbgobj.NewPrimitive(int64(1))))
		err := node.Compile(frame.New("test"), io.Discard)
		if !errors.Is(err, dbgerror.ErrTypeMismatch) {
			t.Fatalf("expected type mismatch, got %v", err)
		}
	})
}

func TestBitwise(t *testing.T) {
	t.Run("integral operands use bit operations", func(t *testing.T) {
		node := NewBinary(OpBitwiseXor, lit(dbgobj.NewPrimitive(int32(0b1100))), lit(dbgobj.NewPrimitive(int32(0b1010))))
		result := mustEval(t, node)
		if got := scalarOf[int32](t, result); got != 0b0110 {
			t.Fatalf("got %b, want 110", got)
		}
	})

	t.Run("boolean operands use logic without short-circuit", func(t *testing.T) {
		right := &countingLeaf{value: &dbgobj.Boolean{Value: true}}
		node := NewBinary(OpBitwiseAnd, lit(&dbgobj.Boolean{Value: false}), right)
		result := mustEval(t, node)
		if boolOf(t, result) {
			t.Fatalf("false & true must be false")
		}
		if right.calls != 1 {
			t.Fatalf("non-conditional and must evaluate the right operand, calls=%d", right.calls)
		}
	})

	t.Run("mixed boolean and integer is rejected", func(t *testing.T) {
		node := NewBinary(OpBitwiseOr, lit(&dbgobj.Boolean{Value: true}), lit(dbgobj.NewPrimitive(int32(1))))
		err := node.Compile(frame.New("test"), io.Discard)
		if !errors.Is(err, dbgerror.ErrTypeMismatch) {
			t.Fatalf("expected type mismatch, got %v", err)
		}
	})
}

func TestConditionalShortCircuit(t *testing.T) {
	t.Run("false and skips the right operand", func(t *testing.T) {
		right := &countingLeaf{value: &dbgobj.Boolean{Value: true}}
		node := NewBinary(OpConditionalAnd, lit(&dbgobj.Boolean{Value: false}), right)
		result := mustEval(t, node)
		if boolOf(t, result) {
			t.Fatalf("false && x must be false")
		}
		if right.calls != 0 {
			t.Fatalf("right operand evaluated %d times, want 0", right.calls)
		}
	})

	t.Run("true or skips the right operand", func(t *testing.T) {
		right := &countingLeaf{value: &dbgobj.Boolean{Value: false}}
		node := NewBinary(OpConditionalOr, lit(&dbgobj.Boolean{Value: true}), right)
		result := mustEval(t, node)
		if !boolOf(t, result) {
			t.Fatalf("true || x must be true")
		}
		if right.calls != 0 {
			t.Fatalf("right operand evaluated %d times, want 0", right.calls)
		}
	})

	t.Run("true and evaluates the right operand", func(t *testing.T) {
		right := &countingLeaf{value: &dbgobj.Boolean{Value: false}}
		node := NewBinary(OpConditionalAnd, lit(&dbgobj.Boolean{Value: true}), right)
		result := mustEval(t, node)
		if boolOf(t, result) {
			t.Fatalf("true && false must be false")
		}
		if right.calls != 1 {
			t.Fatalf("right operand evaluated %d times, want 1", right.calls)
		}
	})

	t.Run("non-boolean operand is rejected at compile", func(t *testing.T) {
		node := NewBinary(OpConditionalAnd, lit(dbgobj.NewPrimitive(int32(1))), lit(&dbgobj.Boolean{Value: true}))
		err := node.Compile(frame.New("test"), io.Discard)
		if !errors.Is(err, dbgerror.ErrTypeMismatch) {
			t.Fatalf("expected type mismatch, got %v", err)
		}
	})
}

func TestComparison(t *testing.T) {
	t.Run("numeric comparison promotes both operands", func(t *testing.T) {
		node := NewBinary(OpLt, lit(dbgobj.NewPrimitive(int32(2))), lit(dbgobj.NewPrimitive(int64(3))))
		if !boolOf(t, mustEval(t, node)) {
			t.Fatalf("2 < 3 must hold across kinds")
		}
	})

	t.Run("string equality compares content not identity", func(t *testing.T) {
		left := &dbgobj.String{Addr: 0x1000, Value: "abc"}
		right := &dbgobj.String{Addr: 0x2000, Value: "abc"}
		node := NewBinary(OpEq, lit(left), lit(right))
		if !boolOf(t, mustEval(t, node)) {
			t.Fatalf("equal contents at distinct addresses must compare equal")
		}
	})

	t.Run("string inequality", func(t *testing.T) {
		node := NewBinary(OpNe, lit(&dbgobj.String{Value: "a"}), lit(&dbgobj.String{Value: "b"}))
		if !boolOf(t, mustEval(t, node)) {
			t.Fatalf("distinct contents must compare unequal")
		}
	})

	t.Run("string ordering is rejected at compile", func(t *testing.T) {
		node := NewBinary(OpLt, lit(&dbgobj.String{Value: "a"}), lit(&dbgobj.String{Value: "b"}))
		err := node.Compile(frame.New("test"), io.Discard)
		if !errors.Is(err, dbgerror.ErrNotSupported) {
			t.Fatalf("expected not supported, got %v", err)
		}
	})

	t.Run("reference identity", func(t *testing.T) {
		first := &dbgobj.Reference{Addr: 0xdead, ClassName: "System.Object"}
		second := &dbgobj.Reference{Addr: 0xdead, ClassName: "System.Object"}
		third := &dbgobj.Reference{Addr: 0xbeef, ClassName: "System.Object"}

		eq := NewBinary(OpEq, lit(first), lit(second))
		if !boolOf(t, mustEval(t, eq)) {
			t.Fatalf("same address must compare equal")
		}

		ne := NewBinary(OpNe, lit(first), lit(third))
		if !boolOf(t, mustEval(t, ne)) {
			t.Fatalf("ne over distinct addresses must be true")
		}

		neSame := NewBinary(OpNe, lit(first), lit(second))
		if boolOf(t, mustEval(t, neSame)) {
			t.Fatalf("ne over the same address must be false")
		}
	})

	t.Run("boolean equality", func(t *testing.T) {
		node := NewBinary(OpEq, lit(&dbgobj.Boolean{Value: true}), lit(&dbgobj.Boolean{Value: true}))
		if !boolOf(t, mustEval(t, node)) {
			t.Fatalf("true == true must hold")
		}
	})

	t.Run("string against number is rejected", func(t *testing.T) {
		node := NewBinary(OpEq, lit(&dbgobj.String{Value: "1"}), lit(dbgobj.NewPrimitive(int32(1))))
		err := node.Compile(frame.New("test"), io.Discard)
		if !errors.Is(err, dbgerror.ErrTypeMismatch) {
			t.Fatalf("expected type mismatch, got %v", err)
		}
	})
}

func TestOperandErrorTagging(t *testing.T) {
	t.Run("first operand failure", func(t *testing.T) {
		sentinel := errors.New("boom")
		node := NewBinary(OpAdd, &failingLeaf{err: sentinel}, lit(dbgobj.NewPrimitive(int32(1))))
		if err := node.Compile(frame.New("test"), io.Discard); err != nil {
			t.Fatalf("compile: %v", err)
		}
		var diag bytes.Buffer
		_, err := node.Evaluate(nil, nil, &diag)
		if !errors.Is(err, sentinel) {
			t.Fatalf("cause lost: %v", err)
		}
		if !strings.Contains(diag.String(), dbgerror.MsgFailedToEvalFirstItem) {
			t.Fatalf("diagnostic sink missing first-operand message, got %q", diag.String())
		}
	})

	t.Run("second operand failure", func(t *testing.T) {
		sentinel := errors.New("boom")
		node := NewBinary(OpAdd, lit(dbgobj.NewPrimitive(int32(1))), &failingLeaf{err: sentinel})
		if err := node.Compile(frame.New("test"), io.Discard); err != nil {
			t.Fatalf("compile: %v", err)
		}
		var diag bytes.Buffer
		_, err := node.Evaluate(nil, nil, &diag)
		if !errors.Is(err, sentinel) {
			t.Fatalf("cause lost: %v", err)
		}
		if !strings.Contains(diag.String(), dbgerror.MsgFailedToEvalSecondItem) {
			t.Fatalf("diagnostic sink missing second-operand message, got %q", diag.String())
		}
	})
}

func TestEvaluateWithoutCompile(t *testing.T) {
	node := NewBinary(OpAdd, lit(dbgobj.NewPrimitive(int32(1))), lit(dbgobj.NewPrimitive(int32(2))))
	if _, err := node.Evaluate(nil, nil, io.Discard); err == nil {
		t.Fatalf("evaluating an uncompiled node must fail")
	}
}

func TestIdentifierResolution(t *testing.T) {
	fr := frame.New("Main")
	if err := fr.Define("x", dbgobj.NewPrimitive(int32(21))); err != nil {
		t.Fatalf("define: %v", err)
	}

	node := NewBinary(OpMul, NewIdentifier("x"), lit(dbgobj.NewPrimitive(int32(2))))
	if err := node.Compile(fr, io.Discard); err != nil {
		t.Fatalf("compile: %v", err)
	}
	result, err := node.Evaluate(nil, nil, io.Discard)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if got := scalarOf[int32](t, result); got != 42 {
		t.Fatalf("got %d, want 42", got)
	}

	t.Run("unknown identifier fails at compile", func(t *testing.T) {
		var diag bytes.Buffer
		missing := NewIdentifier("ghost")
		if err := missing.Compile(fr, &diag); err == nil {
			t.Fatalf("expected a lookup failure")
		}
		if !strings.Contains(diag.String(), dbgerror.MsgVariableNotFound) {
			t.Fatalf("diagnostic sink missing message, got %q", diag.String())
		}
	})
}

func TestPropertyWithoutCoordinator(t *testing.T) {
	node := NewProperty(lit(&dbgobj.Reference{Addr: 1, ClassName: "System.String"}), "Length", sig.Signature(dbgobj.KindI4))
	if err := node.Compile(frame.New("test"), io.Discard); err != nil {
		t.Fatalf("compile: %v", err)
	}
	_, err := node.Evaluate(nil, nil, io.Discard)
	if !errors.Is(err, dbgerror.ErrNotImplemented) {
		t.Fatalf("expected not implemented, got %v", err)
	}
}

func TestStaticTypeAfterCompile(t *testing.T) {
	node := NewBinary(OpGe, lit(dbgobj.NewPrimitive(int32(1))), lit(dbgobj.NewPrimitive(int32(2))))
	if err := node.Compile(frame.New("test"), io.Discard); err != nil {
		t.Fatalf("compile: %v", err)
	}
	if node.StaticType().Kind != dbgobj.KindBoolean {
		t.Fatalf("relational result type %v, want boolean", node.StaticType().Kind)
	}
}
