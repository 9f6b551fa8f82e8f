// Package stats surfaces the per-replica data-loss and cross-replica
// disagreement numbers observed while reconciling query results. The
// collector reports once per query at finalize time; implementations
// decide where the numbers go.
package stats
