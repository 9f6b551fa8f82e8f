package collector

import "tsread/internal/series"

// noCopy makes `go vet` flag by-value copies of the structs embedding it.
type noCopy struct{}

func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}

// Result holds the merged answer for one query. Series appear in the
// same order the keys were queried; keys nothing reported on have empty
// series. A Result has exactly one owner: Finalize hands it over and the
// collector keeps no reference. Always pass it as *Result — duplicating
// a full result set is never intended, and vet flags the copy.
type Result struct {
	noCopy noCopy

	// Series holds one timestamp-ordered sample sequence per requested key.
	Series [][]series.Sample

	// AllComplete is true when every key was reported by every expected
	// replica.
	AllComplete bool

	// MemoryEstimate approximates in bytes how much memory the merged
	// samples consume, for comparing the relative expense of queries.
	MemoryEstimate int64
}

func newResult(keys int) *Result {
	return &Result{Series: make([][]series.Sample, keys)}
}
