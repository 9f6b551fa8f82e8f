// Package series defines the sample-level data model for the read path:
// timestamped samples, one replica's partial answer for a key, and the
// batch of answers a replica returns for a query. It also provides
// window clipping so merged results never carry samples outside the
// queried time range.
package series
