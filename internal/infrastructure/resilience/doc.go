/*
Package resilience provides a circuit breaker.

Preference persistence runs behind one: when the backing store keeps
refusing writes, auto-save stops calling it and the in-memory positions stay
authoritative until a trial write gets through.

	breaker := resilience.New("preferences", resilience.Settings{
		MaxRequests: 1,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(c resilience.Counts) bool {
			return c.ConsecutiveFailures >= 3
		},
	})
	err := breaker.Do(func() error { return store.Save(ctx, prefs) })

While open, Do returns ErrCircuitOpen without calling fn. After Timeout one
half-open trial call is allowed; success closes the breaker, failure reopens it.
Counts reset every Interval while closed.
*/
package resilience
