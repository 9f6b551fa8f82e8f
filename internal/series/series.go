package series

import "sort"

// Sample is a single timestamped value from a replica.
type Sample struct {
	Timestamp int64
	Value     float64
}

// PartialSeries is one replica's answer for one key: the samples it
// returned plus how many samples the replica itself dropped (e.g. due
// to internal truncation), reported as a count rather than as missing
// data.
type PartialSeries struct {
	Samples []Sample
	Drops   int64
}

// ResponseBatch is one replica's answer to a query. Results are matched
// positionally against a key-index list supplied alongside the batch; a
// batch does not have to cover every requested key.
type ResponseBatch struct {
	Results []PartialSeries
}

// ClipSorted returns samples ordered by timestamp and clipped to the
// half-open window [begin, end). Replicas return time-ordered data, so
// the input is assumed sorted and only sorted (into a copy) if it is
// not. The returned slice may alias the input.
func ClipSorted(samples []Sample, begin, end int64) []Sample {
	less := func(i, j int) bool { return samples[i].Timestamp < samples[j].Timestamp }
	if !sort.SliceIsSorted(samples, less) {
		samples = append([]Sample(nil), samples...)
		sort.Slice(samples, less)
	}
	lo := sort.Search(len(samples), func(i int) bool { return samples[i].Timestamp >= begin })
	hi := sort.Search(len(samples), func(i int) bool { return samples[i].Timestamp >= end })
	return samples[lo:hi]
}
