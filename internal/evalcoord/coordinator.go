// Package evalcoord arbitrates between the debug callback thread, which
// alone may resume or suspend the target process and which receives the
// runtime's evaluation-complete notifications, and the worker threads that
// compile and evaluate expressions against a suspended thread.
//
// The target runtime can only execute code while its controlling debugger
// resumes it, but resuming invalidates the callback thread's suspended-state
// inspection. The coordinator makes "run code on the target, then come back
// to suspended inspection" look synchronous to the evaluator while control
// actually trades between the two threads twice: once to start the remote
// call, once to resume final inspection.
package evalcoord

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/iantalarico/google-cloud-dotnet-debugger/internal/dbgerror"
	"github.com/iantalarico/google-cloud-dotnet-debugger/internal/dbgobj"
	"github.com/iantalarico/google-cloud-dotnet-debugger/internal/util/future"
)

// ThreadID identifies a thread in the target process.
type ThreadID int32

// DebugController is the slice of the runtime-control surface the
// coordinator needs: resuming the target so a submitted evaluation can run.
type DebugController interface {
	Continue(outOfBand bool) error
}

// Eval is one evaluation handle, bound to the thread that was active when it
// was created. It lives for a single suspend/resume cycle.
type Eval struct {
	Thread ThreadID
	// Target is the receiver the remote call runs against; nil for statics.
	Target dbgobj.Object
	// Method names the getter or function the runtime should execute.
	Method string
}

// BreakpointOutcome tells the callback thread why its wait released.
type BreakpointOutcome int

const (
	// PrintingFinished means the worker signaled that all extraction and
	// formatting is done; the target may be resumed for good.
	PrintingFinished BreakpointOutcome = iota
	// EvaluationRequested means the worker submitted a remote evaluation;
	// the callback must return promptly so the runtime can execute it,
	// then call SignalFinishedEval and WaitForVariablePrinting again.
	EvaluationRequested
	// Detached means the coordinator shut down while waiting.
	Detached
)

// Coordinator serializes remote evaluations for one debug session. At most
// one evaluation may be pending at any time; a second request fails fast
// with dbgerror.ErrCoordinatorBusy instead of queuing, because the
// underlying runtime supports only one outstanding evaluation per thread.
type Coordinator struct {
	controller DebugController

	// evalTimeout bounds how long WaitForEval blocks on the runtime's
	// completion signal. Zero means no bound.
	evalTimeout time.Duration

	mu               sync.Mutex
	cond             *sync.Cond
	activeThread     ThreadID
	threadSuspended  bool
	readyToPrint     bool
	finishedPrinting bool
	pending          *future.Future[dbgobj.Object]
	shutdownErr      error

	waitingForEval atomic.Bool
	propertyEval   atomic.Bool
}

func New(controller DebugController) *Coordinator {
	c := &Coordinator{controller: controller}
	c.cond = sync.NewCond(&c.mu)
	c.propertyEval.Store(true)
	return c
}

// CreateEval obtains a fresh evaluation handle bound to the currently active
// thread. It must be called while that thread is suspended under debugger
// control. With property evaluation disabled it fails with
// dbgerror.ErrNotImplemented so callers never hang on a remote call that can
// not happen.
func (c *Coordinator) CreateEval(target dbgobj.Object, method string) (*Eval, error) {
	if !c.PropertyEvaluation() {
		return nil, fmt.Errorf("%w: %s", dbgerror.ErrNotImplemented, dbgerror.MsgEvaluationDisabled)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.shutdownErr != nil {
		return nil, c.shutdownErr
	}
	if !c.threadSuspended {
		return nil, errors.New("no active thread is suspended under debugger control")
	}
	return &Eval{Thread: c.activeThread, Target: target, Method: method}, nil
}

// WaitForEval submits the evaluation, resumes the target so the runtime can
// execute it, and blocks the calling worker until the callback thread
// signals completion or exception. Exactly one goroutine may be inside this
// call per coordinator; a concurrent call fails immediately.
func (c *Coordinator) WaitForEval(e *Eval) (dbgobj.Object, error) {
	c.mu.Lock()
	if c.shutdownErr != nil {
		c.mu.Unlock()
		return nil, c.shutdownErr
	}
	if c.pending != nil {
		c.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", dbgerror.ErrCoordinatorBusy, dbgerror.MsgEvaluationInProgress)
	}
	pending := future.Pending[dbgobj.Object]()
	c.pending = pending
	c.waitingForEval.Store(true)
	// Wake the callback thread so it can return from its callback and let
	// the runtime run the submitted evaluation.
	c.cond.Broadcast()
	c.mu.Unlock()

	defer c.waitingForEval.Store(false)

	slog.Debug("submitting remote evaluation",
		slog.String("method", e.Method),
		slog.Int("thread", int(e.Thread)))

	if err := c.controller.Continue(false); err != nil {
		c.mu.Lock()
		c.pending = nil
		c.mu.Unlock()
		return nil, fmt.Errorf("resuming target for evaluation: %w", err)
	}

	if c.evalTimeout > 0 {
		result, err, ok := pending.AwaitTimeout(c.evalTimeout)
		if ok {
			return result, err
		}
		c.mu.Lock()
		if c.pending == pending {
			c.pending = nil
		}
		c.mu.Unlock()
		return nil, fmt.Errorf("%w: no completion within %s", dbgerror.ErrEvalTimeout, c.evalTimeout)
	}

	return pending.Await()
}

// SetEvalTimeout bounds every subsequent WaitForEval. A completion signal
// arriving after the window has expired finds no pending evaluation and
// panics, surfacing the protocol violation instead of dropping a result.
func (c *Coordinator) SetEvalTimeout(d time.Duration) {
	c.evalTimeout = d
}

// SignalFinishedEval is called from the debug callback thread when the
// runtime reports the evaluation completed. It records the thread the
// notification arrived on as the active thread and wakes the blocked worker,
// handing it exactly the result given here.
func (c *Coordinator) SignalFinishedEval(thread ThreadID, result dbgobj.Object) {
	c.mu.Lock()
	pending := c.pending
	c.pending = nil
	c.activeThread = thread
	c.mu.Unlock()

	if pending == nil {
		panic("evalcoord: SignalFinishedEval without a pending evaluation")
	}
	pending.Complete(result, nil)
}

// SignalException is called from the debug callback thread when the
// evaluation faulted inside the target.
func (c *Coordinator) SignalException() {
	c.mu.Lock()
	pending := c.pending
	c.pending = nil
	c.mu.Unlock()

	if pending == nil {
		panic("evalcoord: SignalException without a pending evaluation")
	}
	pending.Complete(nil, fmt.Errorf("%w: %s", dbgerror.ErrEvalFailed, dbgerror.MsgEvaluationThrew))
}

// WaitForReadySignal blocks the worker until the callback thread has parked
// the target and it is safe to read the suspended thread's memory.
func (c *Coordinator) WaitForReadySignal() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for !c.readyToPrint && c.shutdownErr == nil {
		c.cond.Wait()
	}
	return c.shutdownErr
}

// SignalFinishedPrintingVariable is called by the worker once every value it
// needed has been extracted and formatted. Only after this may the callback
// thread resume the target for good, since resuming invalidates the live
// references the worker reads.
func (c *Coordinator) SignalFinishedPrintingVariable() {
	c.mu.Lock()
	c.finishedPrinting = true
	c.cond.Broadcast()
	c.mu.Unlock()
}

// ProcessBreakpoint runs on the debug callback thread when the target stops.
// It records the active thread, starts work on a fresh worker goroutine,
// grants the ready signal, and waits. The wait releases either because the
// worker finished printing or because it submitted a remote evaluation, in
// which case the callback must return promptly and come back through
// SignalFinishedEval plus WaitForVariablePrinting.
func (c *Coordinator) ProcessBreakpoint(thread ThreadID, work func()) BreakpointOutcome {
	c.mu.Lock()
	if c.shutdownErr != nil {
		c.mu.Unlock()
		return Detached
	}
	c.activeThread = thread
	c.threadSuspended = true
	c.readyToPrint = true
	c.finishedPrinting = false
	c.cond.Broadcast()
	c.mu.Unlock()

	go work()

	return c.WaitForVariablePrinting()
}

// WaitForVariablePrinting blocks the callback thread until the worker either
// finishes printing or requests an evaluation. Callback methods must return
// promptly, so the wait never outlives the worker's next handoff.
func (c *Coordinator) WaitForVariablePrinting() BreakpointOutcome {
	c.mu.Lock()
	defer c.mu.Unlock()
	for !c.finishedPrinting && c.pending == nil && c.shutdownErr == nil {
		c.cond.Wait()
	}

	switch {
	case c.shutdownErr != nil:
		return Detached
	case c.finishedPrinting:
		c.readyToPrint = false
		c.threadSuspended = false
		return PrintingFinished
	default:
		return EvaluationRequested
	}
}

// ActiveThread returns the thread the coordinator currently considers under
// debugger control.
func (c *Coordinator) ActiveThread() ThreadID {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.activeThread
}

// WaitingForEval reports whether a worker is blocked on a remote evaluation.
func (c *Coordinator) WaitingForEval() bool {
	return c.waitingForEval.Load()
}

// SetPropertyEvaluation toggles whether remote evaluations may run at all.
func (c *Coordinator) SetPropertyEvaluation(enabled bool) {
	c.propertyEval.Store(enabled)
}

// PropertyEvaluation reports whether remote evaluations may run.
func (c *Coordinator) PropertyEvaluation() bool {
	return c.propertyEval.Load()
}

// Shutdown releases every blocked thread with an error. The callback thread
// must call this when the target process or thread disappears so that no
// worker blocks forever on a completion signal that will never arrive.
func (c *Coordinator) Shutdown(cause error) {
	if cause == nil {
		cause = dbgerror.ErrDetached
	}

	c.mu.Lock()
	if c.shutdownErr == nil {
		c.shutdownErr = fmt.Errorf("%w: %s", cause, dbgerror.MsgTargetDetached)
	}
	pending := c.pending
	c.pending = nil
	err := c.shutdownErr
	c.cond.Broadcast()
	c.mu.Unlock()

	if pending != nil {
		pending.Complete(nil, err)
	}
}
