package expr

import (
	"errors"
	"fmt"
	"io"

	"github.com/iantalarico/google-cloud-dotnet-debugger/internal/dbgerror"
	"github.com/iantalarico/google-cloud-dotnet-debugger/internal/dbgobj"
	"github.com/iantalarico/google-cloud-dotnet-debugger/internal/evalcoord"
	"github.com/iantalarico/google-cloud-dotnet-debugger/internal/frame"
	"github.com/iantalarico/google-cloud-dotnet-debugger/internal/sig"
)

// Literal wraps an already-materialized value, typically parsed from the
// expression text.
type Literal struct {
	value      dbgobj.Object
	staticType sig.TypeSignature
}

func NewLiteral(value dbgobj.Object) *Literal {
	return &Literal{value: value}
}

func (l *Literal) Compile(_ *frame.Frame, _ io.Writer) error {
	l.staticType = sig.Signature(l.value.Kind())
	return nil
}

func (l *Literal) Evaluate(_ *evalcoord.Coordinator, _ dbgobj.Factory, _ io.Writer) (dbgobj.Object, error) {
	return l.value, nil
}

func (l *Literal) StaticType() sig.TypeSignature { return l.staticType }

// Raw exposes the wrapped object, letting the parser rebuild adjusted
// literals (for example a folded leading minus).
func (l *Literal) Raw() dbgobj.Object { return l.value }

// Identifier resolves a local variable or method argument against the
// suspended frame's snapshot: the static type at compile time, the captured
// value at evaluation time.
type Identifier struct {
	name       string
	resolved   dbgobj.Object
	staticType sig.TypeSignature
}

func NewIdentifier(name string) *Identifier {
	return &Identifier{name: name}
}

func (i *Identifier) Compile(fr *frame.Frame, errs io.Writer) error {
	if fr == nil {
		return fmt.Errorf("identifier %q compiled without a frame", i.name)
	}
	value, err := fr.Lookup(i.name)
	if err != nil {
		fmt.Fprintln(errs, dbgerror.MsgVariableNotFound)
		return err
	}
	i.resolved = value
	i.staticType = sig.Signature(value.Kind())
	return nil
}

func (i *Identifier) Evaluate(_ *evalcoord.Coordinator, _ dbgobj.Factory, _ io.Writer) (dbgobj.Object, error) {
	if i.resolved == nil {
		return nil, fmt.Errorf("identifier %q evaluated without a successful compile", i.name)
	}
	return i.resolved, nil
}

func (i *Identifier) StaticType() sig.TypeSignature { return i.staticType }

// Property invokes a property getter inside the target process through the
// evaluation coordinator. The result signature comes from metadata the
// resolver supplies when it builds the node; compiling a Property performs
// no target-process interaction.
type Property struct {
	target     Expression
	name       string
	staticType sig.TypeSignature
}

// NewProperty builds a getter-invocation leaf. target may be nil for a
// static property.
func NewProperty(target Expression, name string, result sig.TypeSignature) *Property {
	return &Property{target: target, name: name, staticType: result}
}

func (p *Property) Compile(fr *frame.Frame, errs io.Writer) error {
	if p.target != nil {
		return p.target.Compile(fr, errs)
	}
	return nil
}

func (p *Property) Evaluate(coord *evalcoord.Coordinator, factory dbgobj.Factory, errs io.Writer) (dbgobj.Object, error) {
	if coord == nil {
		return nil, fmt.Errorf("%w: property %s requires a remote evaluation", dbgerror.ErrNotImplemented, p.name)
	}

	var receiver dbgobj.Object
	if p.target != nil {
		var err error
		receiver, err = p.target.Evaluate(coord, factory, errs)
		if err != nil {
			return nil, err
		}
	}

	handle, err := coord.CreateEval(receiver, p.name)
	if err != nil {
		if errors.Is(err, dbgerror.ErrNotImplemented) {
			fmt.Fprintln(errs, dbgerror.MsgEvaluationDisabled)
		}
		return nil, err
	}

	result, err := coord.WaitForEval(handle)
	if err != nil {
		if errors.Is(err, dbgerror.ErrEvalFailed) {
			fmt.Fprintln(errs, dbgerror.MsgEvaluationThrew)
		}
		return nil, err
	}
	return result, nil
}

func (p *Property) StaticType() sig.TypeSignature { return p.staticType }
