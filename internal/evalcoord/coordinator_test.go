package evalcoord

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/iantalarico/google-cloud-dotnet-debugger/internal/dbgerror"
	"github.com/iantalarico/google-cloud-dotnet-debugger/internal/dbgobj"
)

// fakeController records resume requests and reports each one on a channel so
// tests can order themselves against the worker's handoff.
type fakeController struct {
	mu        sync.Mutex
	calls     int
	continued chan struct{}
}

func newFakeController() *fakeController {
	return &fakeController{continued: make(chan struct{}, 16)}
}

func (f *fakeController) Continue(outOfBand bool) error {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	f.continued <- struct{}{}
	return nil
}

func (f *fakeController) continueCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func TestEvaluationRoundTrip(t *testing.T) {
	ctrl := newFakeController()
	c := New(ctrl)

	want := dbgobj.NewPrimitive(int32(42))
	results := make(chan dbgobj.Object, 1)
	workerErr := make(chan error, 1)

	outcome := c.ProcessBreakpoint(7, func() {
		if err := c.WaitForReadySignal(); err != nil {
			workerErr <- err
			return
		}
		handle, err := c.CreateEval(nil, "get_Count")
		if err != nil {
			workerErr <- err
			return
		}
		if handle.Thread != 7 {
			workerErr <- errors.New("handle bound to the wrong thread")
			return
		}
		value, err := c.WaitForEval(handle)
		if err != nil {
			workerErr <- err
			return
		}
		results <- value
		c.SignalFinishedPrintingVariable()
	})

	if outcome != EvaluationRequested {
		t.Fatalf("first wait released with %v, want EvaluationRequested", outcome)
	}
	if !c.WaitingForEval() {
		t.Fatalf("a worker must be blocked on the evaluation")
	}

	c.SignalFinishedEval(7, want)

	if outcome := c.WaitForVariablePrinting(); outcome != PrintingFinished {
		t.Fatalf("second wait released with %v, want PrintingFinished", outcome)
	}

	select {
	case err := <-workerErr:
		t.Fatalf("worker failed: %v", err)
	case got := <-results:
		if got != dbgobj.Object(want) {
			t.Fatalf("worker received %v, want the exact signaled object", got)
		}
	}

	if ctrl.continueCalls() != 1 {
		t.Fatalf("target resumed %d times, want 1", ctrl.continueCalls())
	}
	if c.ActiveThread() != 7 {
		t.Fatalf("active thread %d, want 7", c.ActiveThread())
	}
}

func TestSecondEvaluationFailsFast(t *testing.T) {
	ctrl := newFakeController()
	c := New(ctrl)

	workerErr := make(chan error, 1)
	go c.ProcessBreakpoint(1, func() {
		handle, err := c.CreateEval(nil, "get_First")
		if err != nil {
			workerErr <- err
			return
		}
		_, err = c.WaitForEval(handle)
		workerErr <- err
	})

	// The worker is inside WaitForEval once the target was resumed.
	<-ctrl.continued

	handle := &Eval{Thread: 1, Method: "get_Second"}
	_, err := c.WaitForEval(handle)
	if !errors.Is(err, dbgerror.ErrCoordinatorBusy) {
		t.Fatalf("second request got %v, want ErrCoordinatorBusy", err)
	}

	c.Shutdown(nil)
	if err := <-workerErr; !errors.Is(err, dbgerror.ErrDetached) {
		t.Fatalf("blocked worker released with %v, want detached", err)
	}
}

func TestExceptionReleasesWorker(t *testing.T) {
	ctrl := newFakeController()
	c := New(ctrl)

	errs := make(chan error, 1)
	outcome := c.ProcessBreakpoint(3, func() {
		handle, err := c.CreateEval(nil, "get_Boom")
		if err != nil {
			errs <- err
			return
		}
		_, err = c.WaitForEval(handle)
		errs <- err
		c.SignalFinishedPrintingVariable()
	})
	if outcome != EvaluationRequested {
		t.Fatalf("wait released with %v, want EvaluationRequested", outcome)
	}

	c.SignalException()

	if outcome := c.WaitForVariablePrinting(); outcome != PrintingFinished {
		t.Fatalf("wait released with %v, want PrintingFinished", outcome)
	}
	if err := <-errs; !errors.Is(err, dbgerror.ErrEvalFailed) {
		t.Fatalf("worker got %v, want ErrEvalFailed", err)
	}
}

func TestPrintingOnlyBreakpoint(t *testing.T) {
	ctrl := newFakeController()
	c := New(ctrl)

	ran := make(chan struct{})
	outcome := c.ProcessBreakpoint(2, func() {
		if err := c.WaitForReadySignal(); err != nil {
			t.Errorf("ready signal: %v", err)
		}
		close(ran)
		c.SignalFinishedPrintingVariable()
	})

	if outcome != PrintingFinished {
		t.Fatalf("wait released with %v, want PrintingFinished", outcome)
	}
	<-ran
	if ctrl.continueCalls() != 0 {
		t.Fatalf("printing-only breakpoint must not resume the target")
	}
}

func TestCreateEvalRequiresSuspendedThread(t *testing.T) {
	c := New(newFakeController())
	if _, err := c.CreateEval(nil, "get_Count"); err == nil {
		t.Fatalf("creating a handle with no suspended thread must fail")
	}
}

func TestDisabledPropertyEvaluation(t *testing.T) {
	c := New(newFakeController())
	c.SetPropertyEvaluation(false)

	_, err := c.CreateEval(nil, "get_Count")
	if !errors.Is(err, dbgerror.ErrNotImplemented) {
		t.Fatalf("got %v, want ErrNotImplemented", err)
	}
}

func TestSignalWithoutPendingPanics(t *testing.T) {
	c := New(newFakeController())
	defer func() {
		if recover() == nil {
			t.Fatalf("signaling with no pending evaluation must panic")
		}
	}()
	c.SignalFinishedEval(1, dbgobj.NewPrimitive(int32(0)))
}

func TestShutdownReleasesBlockedWorker(t *testing.T) {
	ctrl := newFakeController()
	c := New(ctrl)

	released := make(chan error, 1)
	go c.ProcessBreakpoint(5, func() {
		handle, err := c.CreateEval(nil, "get_Count")
		if err != nil {
			released <- err
			return
		}
		_, err = c.WaitForEval(handle)
		released <- err
	})

	<-ctrl.continued
	c.Shutdown(nil)

	select {
	case err := <-released:
		if !errors.Is(err, dbgerror.ErrDetached) {
			t.Fatalf("worker released with %v, want ErrDetached", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("worker still blocked after shutdown")
	}

	// Once shut down, nothing new may start.
	if outcome := c.ProcessBreakpoint(6, func() {}); outcome != Detached {
		t.Fatalf("breakpoint after shutdown released with %v, want Detached", outcome)
	}
	if _, err := c.CreateEval(nil, "get_Count"); !errors.Is(err, dbgerror.ErrDetached) {
		t.Fatalf("create after shutdown got %v, want ErrDetached", err)
	}
}

func TestEvaluationTimeout(t *testing.T) {
	ctrl := newFakeController()
	c := New(ctrl)
	c.SetEvalTimeout(20 * time.Millisecond)

	errs := make(chan error, 1)
	outcome := c.ProcessBreakpoint(4, func() {
		handle, err := c.CreateEval(nil, "get_Slow")
		if err != nil {
			errs <- err
			return
		}
		_, err = c.WaitForEval(handle)
		errs <- err
		c.SignalFinishedPrintingVariable()
	})
	if outcome != EvaluationRequested {
		t.Fatalf("wait released with %v, want EvaluationRequested", outcome)
	}

	// No completion signal ever arrives.
	if err := <-errs; !errors.Is(err, dbgerror.ErrEvalTimeout) {
		t.Fatalf("worker got %v, want ErrEvalTimeout", err)
	}
	if outcome := c.WaitForVariablePrinting(); outcome != PrintingFinished {
		t.Fatalf("wait released with %v, want PrintingFinished", outcome)
	}

	// The slot is free again after the timeout.
	if c.WaitingForEval() {
		t.Fatalf("no worker should be waiting after the timeout")
	}
}

func TestShutdownReleasesReadyWaiter(t *testing.T) {
	c := New(newFakeController())

	released := make(chan error, 1)
	go func() {
		released <- c.WaitForReadySignal()
	}()

	// Give the goroutine a moment to park before shutting down.
	time.Sleep(10 * time.Millisecond)
	c.Shutdown(nil)

	select {
	case err := <-released:
		if !errors.Is(err, dbgerror.ErrDetached) {
			t.Fatalf("waiter released with %v, want ErrDetached", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("waiter still blocked after shutdown")
	}
}
