// Package core defines the data types that flow through the processing
// pipeline: inputs, per-request processing contexts, and responses, plus
// the builders that normalize raw payloads into them.
package core
