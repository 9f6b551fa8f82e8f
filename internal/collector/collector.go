package collector

import (
	"fmt"
	"math/bits"
	"sync"

	"github.com/bits-and-blooms/bitset"
	"go.uber.org/zap"

	"tsread/internal/series"
	"tsread/internal/stats"
)

// MaxReplicas caps the expected replica count per collector. Mismatches
// are counted per implicated replica subset, so the table has
// 2^replicas entries; that is only affordable while replica counts stay
// small, and typical deployments run 2-3 copies of the data.
const MaxReplicas = 6

// sampleCost is the assumed per-sample memory footprint: an 8-byte
// timestamp plus an 8-byte value.
const sampleCost = 16

// keyState tracks which replicas have reported one requested key.
// reports counts distinct replicas, so duplicate reports from the same
// replica can never inflate completeness.
type keyState struct {
	reports      uint32
	receivedFrom *bitset.BitSet
}

// Collector merges partial answers for one query as they arrive from
// the replicas holding copies of the data. It is created once per
// query, fed by concurrent AddResults calls, and finalized exactly
// once; afterwards it ignores further input and cannot be reused.
type Collector struct {
	mu sync.Mutex

	beginTime        int64
	endTime          int64
	expectedReplicas int

	remainingKeys int // keys with no report from any replica yet
	keys          []keyState
	origins       [][]uint8 // per key, per merged sample: mask of replicas seen at that timestamp
	drops         []int64   // per replica: samples the replica itself dropped
	mismatches    []int64   // per implicated replica subset

	finalized bool
	rejected  int64
	result    *Result

	log      *zap.Logger
	recorder stats.Recorder
}

// Option configures a Collector.
type Option func(*Collector)

// WithLogger sets the logger used for rejected batches and the finalize
// summary. The default discards everything.
func WithLogger(log *zap.Logger) Option {
	return func(c *Collector) {
		if log != nil {
			c.log = log
		}
	}
}

// WithRecorder sets the sink that receives drop and mismatch statistics
// at finalize time. The default discards everything.
func WithRecorder(r stats.Recorder) Option {
	return func(c *Collector) {
		if r != nil {
			c.recorder = r
		}
	}
}

// New creates a collector for a query over keyCount keys answered by
// expectedReplicas replicas, with samples constrained to the half-open
// window [beginTime, endTime).
func New(keyCount, expectedReplicas int, beginTime, endTime int64, opts ...Option) (*Collector, error) {
	switch {
	case keyCount < 0:
		return nil, fmt.Errorf("key count %d is negative", keyCount)
	case expectedReplicas < 1:
		return nil, fmt.Errorf("expected replicas %d, need at least 1", expectedReplicas)
	case expectedReplicas > MaxReplicas:
		return nil, fmt.Errorf("expected replicas %d exceeds cap of %d", expectedReplicas, MaxReplicas)
	case beginTime > endTime:
		return nil, fmt.Errorf("query window [%d, %d) is inverted", beginTime, endTime)
	}

	c := &Collector{
		beginTime:        beginTime,
		endTime:          endTime,
		expectedReplicas: expectedReplicas,
		remainingKeys:    keyCount,
		keys:             make([]keyState, keyCount),
		origins:          make([][]uint8, keyCount),
		drops:            make([]int64, expectedReplicas),
		mismatches:       make([]int64, 1<<uint(expectedReplicas)),
		result:           newResult(keyCount),
		log:              zap.NewNop(),
		recorder:         stats.Nop{},
	}
	for i := range c.keys {
		c.keys[i].receivedFrom = bitset.New(uint(expectedReplicas))
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// AddResults merges one replica's batch into the accumulator. Each
// entry of batch.Results answers the requested key at the same position
// in keyIndices. It returns true on exactly the call that gives every
// requested key its first report — a complete single copy of the
// results, not full replication — and false on every other call,
// including all calls after finalization. Malformed batches (replica or
// key index out of range, more results than key indices) are rejected
// whole, before any state changes.
func (c *Collector) AddResults(batch series.ResponseBatch, keyIndices []int, replica int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.finalized {
		return false
	}
	if replica < 0 || replica >= c.expectedReplicas {
		c.rejected++
		c.log.Warn("rejecting batch from out-of-range replica",
			zap.Int("replica", replica),
			zap.Int("expected_replicas", c.expectedReplicas))
		return false
	}
	if len(batch.Results) > len(keyIndices) {
		c.rejected++
		c.log.Warn("rejecting batch with more results than key indices",
			zap.Int("replica", replica),
			zap.Int("results", len(batch.Results)),
			zap.Int("key_indices", len(keyIndices)))
		return false
	}
	for i := range batch.Results {
		if k := keyIndices[i]; k < 0 || k >= len(c.keys) {
			c.rejected++
			c.log.Warn("rejecting batch with out-of-range key index",
				zap.Int("replica", replica),
				zap.Int("key_index", k),
				zap.Int("keys", len(c.keys)))
			return false
		}
	}

	covered := c.remainingKeys > 0
	for i := range batch.Results {
		c.merge(keyIndices[i], replica, &batch.Results[i])
	}
	return covered && c.remainingKeys == 0
}

// merge folds one replica's answer for one key into the accumulator.
// Caller holds c.mu.
func (c *Collector) merge(key, replica int, partial *series.PartialSeries) {
	c.drops[replica] += partial.Drops

	ks := &c.keys[key]
	if !ks.receivedFrom.Test(uint(replica)) {
		ks.receivedFrom.Set(uint(replica))
		ks.reports++
		if ks.reports == 1 {
			c.remainingKeys--
		}
	}

	in := series.ClipSorted(partial.Samples, c.beginTime, c.endTime)
	if len(in) == 0 {
		return
	}

	old := c.result.Series[key]
	oldOrigin := c.origins[key]
	merged := make([]series.Sample, 0, len(old)+len(in))
	origin := make([]uint8, 0, len(old)+len(in))
	bit := uint8(1) << uint(replica)

	// Appends one incoming sample, deduplicating against the sample
	// already merged at the same timestamp. The first-seen value wins; a
	// differing value charges the mismatch counter for the replica
	// subset seen at that timestamp plus the current replica.
	appendIncoming := func(s series.Sample) {
		if n := len(merged); n > 0 && merged[n-1].Timestamp == s.Timestamp {
			if s.Value != merged[n-1].Value {
				c.mismatches[int(origin[n-1]|bit)]++
			}
			origin[n-1] |= bit
			return
		}
		merged = append(merged, s)
		origin = append(origin, bit)
	}

	i, j := 0, 0
	for i < len(old) || j < len(in) {
		if j == len(in) || (i < len(old) && old[i].Timestamp <= in[j].Timestamp) {
			merged = append(merged, old[i])
			origin = append(origin, oldOrigin[i])
			i++
		} else {
			appendIncoming(in[j])
			j++
		}
	}

	c.result.Series[key] = merged
	c.origins[key] = origin
}

// Finalize seals the collector and hands the merged result to the
// caller; the collector keeps no reference to it. AllComplete requires
// a report from every expected replica for every key. With validate
// set, an incomplete query fails with an *IncompleteError naming the
// under-reporting replicas (resolved through replicaNames) and their
// missing keys instead of returning a result. Drop and mismatch
// statistics are reported to the configured recorder either way. A
// second call returns ErrFinalized and changes nothing.
func (c *Collector) Finalize(validate bool, replicaNames []string) (*Result, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.finalized {
		return nil, ErrFinalized
	}
	c.finalized = true

	res := c.result
	c.result = nil
	c.origins = nil

	res.AllComplete = true
	var sampleCount int64
	var missing map[string][]int
	for k := range c.keys {
		sampleCount += int64(len(res.Series[k]))
		if int(c.keys[k].reports) == c.expectedReplicas {
			continue
		}
		res.AllComplete = false
		if !validate {
			continue
		}
		for r := 0; r < c.expectedReplicas; r++ {
			if !c.keys[k].receivedFrom.Test(uint(r)) {
				if missing == nil {
					missing = make(map[string][]int)
				}
				name := replicaName(replicaNames, r)
				missing[name] = append(missing[name], k)
			}
		}
	}
	res.MemoryEstimate = sampleCount * sampleCost

	var droppedTotal, mismatchTotal int64
	for r := 0; r < c.expectedReplicas; r++ {
		if c.drops[r] != 0 {
			c.recorder.RecordDrops(replicaName(replicaNames, r), c.drops[r])
			droppedTotal += c.drops[r]
		}
	}
	for mask, n := range c.mismatches {
		if n != 0 {
			c.recorder.RecordMismatches(maskNames(mask, replicaNames), n)
			mismatchTotal += n
		}
	}

	c.log.Debug("finalized query results",
		zap.Int("keys", len(c.keys)),
		zap.Int64("samples", sampleCount),
		zap.Bool("all_complete", res.AllComplete),
		zap.Int64("dropped_samples", droppedTotal),
		zap.Int64("value_mismatches", mismatchTotal),
		zap.Int64("rejected_batches", c.rejected))

	if missing != nil {
		return nil, &IncompleteError{MissingKeys: missing}
	}
	return res, nil
}

// MismatchCounts returns a copy of the mismatch table, indexed by the
// bit-mask of the replica subset implicated in each disagreement.
func (c *Collector) MismatchCounts() []int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]int64(nil), c.mismatches...)
}

func replicaName(names []string, r int) string {
	if r < len(names) {
		return names[r]
	}
	return fmt.Sprintf("replica-%d", r)
}

func maskNames(mask int, names []string) []string {
	out := make([]string, 0, bits.OnesCount(uint(mask)))
	for r := 0; mask != 0; r, mask = r+1, mask>>1 {
		if mask&1 != 0 {
			out = append(out, replicaName(names, r))
		}
	}
	return out
}
