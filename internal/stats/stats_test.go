package stats

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestPrometheus_RecordDrops(t *testing.T) {
	reg := prometheus.NewRegistry()
	p := NewPrometheus(reg)

	p.RecordDrops("east", 3)
	p.RecordDrops("east", 2)
	p.RecordDrops("west", 1)

	assert.Equal(t, 5.0, testutil.ToFloat64(p.drops.WithLabelValues("east")))
	assert.Equal(t, 1.0, testutil.ToFloat64(p.drops.WithLabelValues("west")))
}

func TestPrometheus_RecordMismatches(t *testing.T) {
	reg := prometheus.NewRegistry()
	p := NewPrometheus(reg)

	// Label value is order-independent.
	p.RecordMismatches([]string{"west", "east"}, 2)
	p.RecordMismatches([]string{"east", "west"}, 1)

	assert.Equal(t, 3.0, testutil.ToFloat64(p.mismatches.WithLabelValues("east,west")))
}

func TestPrometheus_RegistersMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	p := NewPrometheus(reg)
	p.RecordDrops("east", 1)

	families, err := reg.Gather()
	assert.NoError(t, err)

	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "replica_dropped_samples_total")
}

func TestNop_DiscardsEverything(t *testing.T) {
	var r Recorder = Nop{}
	r.RecordDrops("east", 1)
	r.RecordMismatches([]string{"east", "west"}, 2)
}
