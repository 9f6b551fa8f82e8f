// Package collector reconciles the partial query answers arriving from
// the replicas of a time-series store into one merged, timestamp-ordered
// result per requested key. Replica response handlers feed a shared
// Collector concurrently; per-key coverage, per-replica drop counts and
// the cross-replica mismatch table are only consistent as a whole, so
// all of it sits behind a single mutex that suspends just the calling
// goroutine while it waits. The collector has no deadline of its own:
// the caller decides when to stop waiting for slow replicas and
// finalizes with whatever has arrived.
package collector
