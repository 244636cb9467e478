package dbgerror

import "errors"

// Sentinel errors shared by the expression compiler, the evaluator and the
// evaluation coordinator. Callers classify with errors.Is; human readable
// messages for the operator tooling live in messages.go.
var (
	// ErrTypeMismatch reports operand kinds that cannot be combined under
	// the requested operator.
	ErrTypeMismatch = errors.New("type mismatch")

	// ErrNotSupported reports an operator that is syntactically valid but
	// not implemented for the given operand kinds.
	ErrNotSupported = errors.New("expression not supported")

	// ErrDivisionByZero reports integral division or modulo by zero.
	ErrDivisionByZero = errors.New("division by zero")

	// ErrArithmeticOverflow reports the signed MinInt / -1 division edge
	// case that traps on common hardware.
	ErrArithmeticOverflow = errors.New("arithmetic overflow")

	// ErrEvalFailed reports that a remote evaluation finished with an
	// exception inside the target process.
	ErrEvalFailed = errors.New("evaluation threw an exception")

	// ErrCoordinatorBusy reports a second evaluation request while one is
	// already outstanding on the same coordinator.
	ErrCoordinatorBusy = errors.New("evaluation already in progress")

	// ErrEvalTimeout reports that the target runtime did not finish a
	// remote evaluation within the configured window.
	ErrEvalTimeout = errors.New("evaluation timed out")

	// ErrNotImplemented reports an operation that requires a remote call
	// while property evaluation is disabled.
	ErrNotImplemented = errors.New("not implemented")

	// ErrDetached reports that the target process or thread went away
	// while an evaluation was outstanding.
	ErrDetached = errors.New("debugger detached from target")
)
