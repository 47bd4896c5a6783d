// Package healthcheck implements periodic health monitoring for
// registered domains. It drives the registry's probe cycle on an
// interval; the registry itself records results and announces
// transitions.
package healthcheck
