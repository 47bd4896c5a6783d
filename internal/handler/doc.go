// Package handler implements the HTTP surface of the processing
// pipeline: the process endpoints, memory search, and the stats,
// domains, and health read endpoints.
package handler
