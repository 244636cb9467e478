package dbgobj

import "sync/atomic"

// Factory constructs result objects on behalf of leaf evaluators. The
// standard factory assigns synthetic addresses to reference results so that
// identity comparison keeps working for values that never lived in the
// target's heap.
type Factory interface {
	CreateBoolean(v bool) Object
	CreateString(s string) Object
}

type StandardFactory struct {
	nextAddr atomic.Uint64
}

func NewStandardFactory() *StandardFactory {
	f := &StandardFactory{}
	// Address zero means "no identity"; start above it.
	f.nextAddr.Store(1)
	return f
}

func (f *StandardFactory) CreateBoolean(v bool) Object {
	return &Boolean{Value: v}
}

func (f *StandardFactory) CreateString(s string) Object {
	return &String{Addr: f.nextAddr.Add(1), Value: s}
}
