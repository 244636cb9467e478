package dbgerror

// Category labels written to the caller supplied diagnostic stream so the
// surrounding tool can render a readable compile or evaluation error next to
// the status it receives.
const (
	MsgTypeMismatch           = "Type mismatch between the two operands."
	MsgExpressionNotSupported = "The expression is not supported for these operand types."
	MsgFailedToEvalFirstItem  = "Failed to evaluate the first operand."
	MsgFailedToEvalSecondItem = "Failed to evaluate the second operand."
	MsgDivisionByZero         = "Attempted to divide by zero."
	MsgArithmeticOverflow     = "Arithmetic operation resulted in an overflow."
	MsgEvaluationDisabled     = "Property evaluation is disabled on this session."
	MsgEvaluationThrew        = "Evaluation threw an exception in the target process."
	MsgVariableNotFound       = "No local variable or argument with the given name is in scope."
	MsgEvaluationInProgress   = "Another evaluation is already in progress on this thread."
	MsgTargetDetached         = "The target process detached before the evaluation completed."
)
