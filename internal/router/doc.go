// Package router selects the best domain for each input by scoring
// every enabled candidate through a routing strategy and taking the
// first maximum. Domains whose circuit breaker is open are skipped
// until a recorded success or an explicit reset closes the circuit.
//
// Routing is read-only. The router never records outcomes on its own;
// the processing engine calls RecordSuccess and RecordFailure after it
// knows how the processor actually fared.
package router
