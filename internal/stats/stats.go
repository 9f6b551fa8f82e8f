package stats

// Recorder receives reconciliation statistics for one finished query.
// Implementations must be safe for concurrent use.
type Recorder interface {
	// RecordDrops reports how many samples the named replica dropped
	// from its own answers during one query.
	RecordDrops(replica string, dropped int64)

	// RecordMismatches reports how many per-timestamp value
	// disagreements implicated exactly the given set of replicas.
	RecordMismatches(replicas []string, mismatches int64)
}

// Nop is a Recorder that discards everything.
type Nop struct{}

func (Nop) RecordDrops(string, int64)        {}
func (Nop) RecordMismatches([]string, int64) {}
