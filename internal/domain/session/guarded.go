package session

import (
	"context"
	"errors"

	"github.com/GriffinCanCode/webdesk/backend/internal/infrastructure/resilience"
)

// GuardedStore passes saves through a circuit breaker so a failing disk is
// not retried on every auto-save tick. Loads are not guarded.
type GuardedStore struct {
	Store
	breaker *resilience.Breaker
}

// NewGuardedStore wraps store with breaker
func NewGuardedStore(store Store, breaker *resilience.Breaker) *GuardedStore {
	return &GuardedStore{Store: store, breaker: breaker}
}

// Save writes prefs unless the breaker is open
func (g *GuardedStore) Save(ctx context.Context, prefs *Preferences) error {
	return g.breaker.Do(func() error {
		return g.Store.Save(ctx, prefs)
	})
}

// State reports the breaker state
func (g *GuardedStore) State() resilience.State {
	return g.breaker.State()
}

// IsCanceled reports errors caused by the caller rather than the store
func IsCanceled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
