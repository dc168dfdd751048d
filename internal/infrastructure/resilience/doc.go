// Package resilience provides the circuit breaker used by atlasctl to fail
// fast while the kernel server is down.
//
// A Breaker is closed while calls succeed. ReadyToTrip decides when a run
// of failures opens it; an open breaker rejects calls with ErrCircuitOpen
// until Timeout elapses, then lets MaxRequests probes through half-open.
// Enough probe successes close it again and any probe failure reopens it.
//
//	closed --trip--> open --timeout--> half-open --successes--> closed
//	                  ^                    |
//	                  +------failure-------+
//
// Every transition, and every Interval spent closed, starts a new
// generation with zeroed Counts. Outcomes reported for an older
// generation are discarded.
//
// IsSuccessful classifies errors that should not count against the
// target, such as 4xx responses:
//
//	breaker := resilience.New("atlas-server", resilience.Settings{
//		Timeout: 5 * time.Second,
//		IsSuccessful: func(err error) bool {
//			var se *StatusError
//			return errors.As(err, &se) && se.Code < 500
//		},
//	})
//	status, err := resilience.Execute(breaker, func() (*Status, error) {
//		return client.Status(ctx)
//	})
package resilience
