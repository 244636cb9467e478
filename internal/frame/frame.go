// Package frame holds the snapshot of a suspended stack frame the expression
// compiler resolves identifiers against. The snapshot is captured while the
// target thread is suspended and is read-only afterwards, so evaluation needs
// no synchronization.
package frame

import (
	"fmt"

	"github.com/iantalarico/google-cloud-dotnet-debugger/internal/dbgerror"
	"github.com/iantalarico/google-cloud-dotnet-debugger/internal/dbgobj"
)

// Binding is one named local variable or method argument.
type Binding struct {
	Name  string
	Value dbgobj.Object
}

type Frame struct {
	Method   string
	bindings map[string]*Binding
	order    []string
}

func New(method string) *Frame {
	return &Frame{
		Method:   method,
		bindings: make(map[string]*Binding),
	}
}

// Define records a local or argument. Redefining a name is a capture error,
// not a scoping feature; the snapshot is flat.
func (f *Frame) Define(name string, value dbgobj.Object) error {
	if _, exists := f.bindings[name]; exists {
		return fmt.Errorf("variable %q captured twice in frame %s", name, f.Method)
	}
	f.bindings[name] = &Binding{Name: name, Value: value}
	f.order = append(f.order, name)
	return nil
}

// Lookup resolves an identifier to the value captured for it.
func (f *Frame) Lookup(name string) (dbgobj.Object, error) {
	b, ok := f.bindings[name]
	if !ok {
		return nil, fmt.Errorf("%q: %s", name, dbgerror.MsgVariableNotFound)
	}
	return b.Value, nil
}

// Bindings returns the captured variables in capture order.
func (f *Frame) Bindings() []*Binding {
	out := make([]*Binding, 0, len(f.order))
	for _, name := range f.order {
		out = append(out, f.bindings[name])
	}
	return out
}
