// Package engine orchestrates the processing pipeline. An input flows
// through validation, routing, analysis, persistence, and synthesis;
// the engine owns the success and failure accounting that drives the
// router's circuit breakers and emits metrics events at each boundary.
package engine
