// Package circuitbreaker keeps consecutive-failure counts per domain
// and excludes persistently failing domains from routing.
//
// A circuit is open once a domain accumulates threshold consecutive
// failures; a single recorded success closes it again. There is no
// half-open state and no timer-based recovery: failure accounting is
// the caller's responsibility and recovery is an explicit success or
// a manual reset.
//
// Usage:
//
//	tracker := circuitbreaker.NewTracker(5, logger)
//	if !tracker.Open("text_analysis") {
//	    // Route to the domain...
//	    if err != nil {
//	        tracker.RecordFailure("text_analysis")
//	    } else {
//	        tracker.RecordSuccess("text_analysis")
//	    }
//	}
package circuitbreaker
