// Package loadable models the lifecycle of an asynchronously loaded value.
//
// A State is exactly one of Idle, Loading, Loaded or Failed. The variants are
// distinct types behind a sealed interface, so a type switch over a State is
// exhaustive and a Loaded value can never coexist with an error:
//
//	switch st := s.(type) {
//	case loadable.Idle[T]:
//	case loadable.Loading[T]:
//	case loadable.Loaded[T]:
//		render(st.Value)
//	case loadable.Failed[T]:
//		showRetry(st.Err)
//	}
package loadable

// Kind identifies the active variant of a State.
type Kind int

const (
	// KindIdle means nothing has been requested yet.
	KindIdle Kind = iota

	// KindLoading means a request is in flight.
	KindLoading

	// KindLoaded means the last request resolved with a value.
	KindLoaded

	// KindFailed means the last request resolved with an error.
	KindFailed
)

func (k Kind) String() string {
	switch k {
	case KindIdle:
		return "idle"
	case KindLoading:
		return "loading"
	case KindLoaded:
		return "loaded"
	case KindFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// State is the sealed sum of Idle, Loading, Loaded and Failed.
type State[T any] interface {
	Kind() Kind
	sealed(T)
}

// Idle is the state before anything was requested.
type Idle[T any] struct{}

// Loading is the state while a request is in flight.
type Loading[T any] struct{}

// Loaded carries the value of a successful request.
type Loaded[T any] struct {
	Value T
}

// Failed carries the error of an unsuccessful request.
type Failed[T any] struct {
	Err error
}

func (Idle[T]) Kind() Kind    { return KindIdle }
func (Loading[T]) Kind() Kind { return KindLoading }
func (Loaded[T]) Kind() Kind  { return KindLoaded }
func (Failed[T]) Kind() Kind  { return KindFailed }

func (Idle[T]) sealed(T)    {}
func (Loading[T]) sealed(T) {}
func (Loaded[T]) sealed(T)  {}
func (Failed[T]) sealed(T)  {}

// NewLoaded wraps v in a Loaded state.
func NewLoaded[T any](v T) State[T] {
	return Loaded[T]{Value: v}
}

// NewFailed wraps err in a Failed state.
func NewFailed[T any](err error) State[T] {
	return Failed[T]{Err: err}
}

// Value returns the loaded value. ok is true iff s is Loaded.
func Value[T any](s State[T]) (v T, ok bool) {
	if l, isLoaded := s.(Loaded[T]); isLoaded {
		return l.Value, true
	}
	return v, false
}

// Err returns the failure. It is non-nil iff s is Failed.
func Err[T any](s State[T]) error {
	if f, ok := s.(Failed[T]); ok {
		return f.Err
	}
	return nil
}

// IsLoading reports whether s is Loading.
func IsLoading[T any](s State[T]) bool {
	_, ok := s.(Loading[T])
	return ok
}

// KindOf returns the variant of s. A nil State is Idle.
func KindOf[T any](s State[T]) Kind {
	if s == nil {
		return KindIdle
	}
	return s.Kind()
}
