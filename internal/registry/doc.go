// Package registry is the single source of truth for cognitive domain
// processors: which are registered, their versions, priorities,
// dependencies, enabled flags, and observed health. All operations are
// safe for concurrent use.
//
// Error conventions: expected absences (duplicate registration,
// unknown names on unregister/enable/disable) are reported as boolean
// results; caller-contract violations (unregistered dependencies,
// unregistering a domain others depend on, unknown event kinds) are
// errors; collaborator failures (health probes, event handlers) are
// logged and downgraded, never propagated.
package registry
