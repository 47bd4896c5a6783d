// Package strategy defines the routing strategy interface and the
// default scoring policy.
//
// The default strategy scores each candidate in [0, 1]:
//
//   - 0.5 base when the domain reports it can handle the input
//   - plus priority/10 * 0.3, capped at 0.3
//   - minus a health penalty: degraded 0.1, unhealthy 0.2, unknown 0.05
//
// A healthy, willing domain at priority 10 scores the practical
// maximum of 0.8. Capability gates selection: the router never routes
// to a domain that reported it cannot handle the input, however high
// its score.
package strategy
