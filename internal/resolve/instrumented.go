package resolve

import (
	"context"
	"time"

	"github.com/sells-group/hubmatch/internal/geo"
)

// Outcomes reported to an Observer.
const (
	OutcomeResolved   = "resolved"
	OutcomeUnresolved = "unresolved"
	OutcomeFailed     = "failed"
)

// Observer receives one call per lookup.
type Observer interface {
	ObserveResolve(backend, outcome string, elapsed time.Duration)
}

// Instrumented reports every lookup of the wrapped resolver to an Observer.
type Instrumented struct {
	inner    Resolver
	backend  string
	observer Observer
	now      func() time.Time
}

// NewInstrumented labels inner's lookups with backend.
func NewInstrumented(inner Resolver, backend string, observer Observer) *Instrumented {
	return &Instrumented{inner: inner, backend: backend, observer: observer, now: time.Now}
}

// Resolve delegates and reports the outcome and latency.
func (i *Instrumented) Resolve(ctx context.Context, code string) (geo.Point, bool) {
	p, ok, err := i.Lookup(ctx, code)
	if err != nil {
		logFailure(ctx, code, err)
		return geo.Point{}, false
	}
	return p, ok
}

// Lookup delegates and reports the outcome and latency. Failures of a
// wrapped Source are passed through and counted as failed.
func (i *Instrumented) Lookup(ctx context.Context, code string) (geo.Point, bool, error) {
	start := i.now()
	p, ok, err := lookup(ctx, i.inner, code)

	outcome := OutcomeUnresolved
	switch {
	case err != nil:
		outcome = OutcomeFailed
	case ok:
		outcome = OutcomeResolved
	}
	i.observer.ObserveResolve(i.backend, outcome, i.now().Sub(start))
	return p, ok, err
}
