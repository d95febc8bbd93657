package supervisor

import (
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"time"
)

// State is the lifecycle of one boundary instance.
type State int

const (
	Healthy State = iota
	Faulted
	Recovering
)

func (s State) String() string {
	switch s {
	case Healthy:
		return "healthy"
	case Faulted:
		return "faulted"
	case Recovering:
		return "recovering"
	default:
		return "unknown"
	}
}

// ErrFaulted is returned by Do while a boundary is in the Faulted state.
// Callers serve the fallback instead of running work.
var ErrFaulted = errors.New("supervisor: boundary is faulted")

// Fault captures one trip of a boundary for observability.
type Fault struct {
	Scope      string    `json:"scope"`
	Err        error     `json:"-"`
	Message    string    `json:"message"`
	Stack      string    `json:"stack,omitempty"`
	RetryCount int       `json:"retry_count"`
	At         time.Time `json:"at"`
}

// FallbackFunc renders the scoped fallback payload for a fault. Callers may
// supply their own; the default names the scope and offers retry.
type FallbackFunc func(f Fault) map[string]any

// FaultHook observes every fault transition, typically forwarding to an
// error tracker. Hooks must not be able to take the boundary down with them.
type FaultHook func(f Fault)

// Boundary isolates faults in one scope of work. A panic inside Do trips the
// boundary into Faulted; only an explicit Retry (or process restart) brings
// it back. Three nested instances make up the application/route/component
// hierarchy, with the innermost enclosing boundary handling a fault.
type Boundary struct {
	scope    string
	fallback FallbackFunc
	onFault  FaultHook

	mu         sync.Mutex
	state      State
	fault      *Fault
	retryCount int
}

type Option func(*Boundary)

// WithFallback overrides the default fallback payload.
func WithFallback(f FallbackFunc) Option {
	return func(b *Boundary) { b.fallback = f }
}

// WithFaultHook registers an observer for fault transitions.
func WithFaultHook(h FaultHook) Option {
	return func(b *Boundary) { b.onFault = h }
}

func New(scope string, opts ...Option) *Boundary {
	b := &Boundary{scope: scope}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *Boundary) Scope() string { return b.scope }

func (b *Boundary) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// RetryCount reports how many times this boundary has been retried. Purely
// diagnostic; it counts attempts, not successes.
func (b *Boundary) RetryCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.retryCount
}

// LastFault returns the captured fault while the boundary is Faulted.
func (b *Boundary) LastFault() (Fault, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.fault == nil {
		return Fault{}, false
	}
	return *b.fault, true
}

// Do runs work inside the boundary. A panic during work is recovered,
// recorded, and reported as an error; it never propagates to an enclosing
// boundary. While Faulted, Do refuses with ErrFaulted so the caller serves
// the fallback instead.
func (b *Boundary) Do(work func() error) (err error) {
	b.mu.Lock()
	if b.state == Faulted {
		b.mu.Unlock()
		return ErrFaulted
	}
	b.state = Healthy
	b.mu.Unlock()

	defer func() {
		if r := recover(); r != nil {
			err = b.trip(r, debug.Stack())
		}
	}()
	return work()
}

// Retry clears the fault and returns the boundary to Healthy, incrementing
// the diagnostic retry counter. This is the only transition out of Faulted.
// Retrying a healthy boundary is a no-op.
func (b *Boundary) Retry() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state != Faulted {
		return
	}
	b.retryCount++
	b.state = Healthy
	b.fault = nil
}

// Fallback renders the fault payload. The renderer itself is run under a
// recover so a broken custom fallback degrades to the default payload
// instead of escaping the boundary.
func (b *Boundary) Fallback() map[string]any {
	b.mu.Lock()
	var f Fault
	if b.fault != nil {
		f = *b.fault
	} else {
		f = Fault{Scope: b.scope, At: time.Now()}
	}
	custom := b.fallback
	b.mu.Unlock()

	if custom != nil {
		if payload := safeRender(custom, f); payload != nil {
			return payload
		}
	}
	return defaultFallback(f)
}

func (b *Boundary) trip(r any, stack []byte) error {
	cause, ok := r.(error)
	if !ok {
		cause = fmt.Errorf("%v", r)
	}

	b.mu.Lock()
	b.state = Faulted
	f := Fault{
		Scope:      b.scope,
		Err:        cause,
		Message:    cause.Error(),
		Stack:      string(stack),
		RetryCount: b.retryCount,
		At:         time.Now(),
	}
	b.fault = &f
	hook := b.onFault
	b.mu.Unlock()

	if hook != nil {
		safeNotify(hook, f)
	}
	return fmt.Errorf("%s boundary faulted: %w", b.scope, cause)
}

func defaultFallback(f Fault) map[string]any {
	return map[string]any{
		"scope":       f.Scope,
		"error":       f.Message,
		"retry_count": f.RetryCount,
		"retryable":   true,
	}
}

func safeRender(fn FallbackFunc, f Fault) (payload map[string]any) {
	defer func() { _ = recover() }()
	return fn(f)
}

func safeNotify(h FaultHook, f Fault) {
	defer func() { _ = recover() }()
	h(f)
}
