package breaker

import "fmt"

// CircuitOpenError is returned by Registry.Exec when the named breaker is
// open and rejecting calls outright.
type CircuitOpenError struct {
	Service  string
	LastErr  error
}

func (e *CircuitOpenError) Error() string {
	if e.LastErr != nil {
		return fmt.Sprintf("breaker: circuit open for %q (last error: %v)", e.Service, e.LastErr)
	}
	return fmt.Sprintf("breaker: circuit open for %q", e.Service)
}

func (e *CircuitOpenError) Unwrap() error { return e.LastErr }
