package testutil

import (
	"testing"
	"time"
)

// StepTimeout bounds how long Step waits for a dispatched callback.
const StepTimeout = 2 * time.Second

// StepDispatcher queues dispatched callbacks until the test runs them with
// Step. The test goroutine acts as the owner context, so the test decides
// exactly when each fetch result lands.
type StepDispatcher struct {
	queue chan func()
}

// NewStepDispatcher creates an empty StepDispatcher.
func NewStepDispatcher() *StepDispatcher {
	return &StepDispatcher{queue: make(chan func(), 128)}
}

// Dispatch queues fn.
func (d *StepDispatcher) Dispatch(fn func()) {
	d.queue <- fn
}

// Step waits for the next dispatched callback and runs it.
func (d *StepDispatcher) Step(t testing.TB) {
	t.Helper()
	select {
	case fn := <-d.queue:
		fn()
	case <-time.After(StepTimeout):
		t.Fatal("timed out waiting for a dispatched callback")
	}
}

// ExpectIdle fails the test if a callback is dispatched within wait.
func (d *StepDispatcher) ExpectIdle(t testing.TB, wait time.Duration) {
	t.Helper()
	select {
	case <-d.queue:
		t.Fatal("unexpected dispatched callback")
	case <-time.After(wait):
	}
}
