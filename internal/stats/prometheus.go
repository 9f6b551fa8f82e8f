package stats

import (
	"sort"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
)

// Prometheus is a Recorder backed by prometheus counters.
type Prometheus struct {
	drops      *prometheus.CounterVec
	mismatches *prometheus.CounterVec
}

// NewPrometheus creates a Prometheus recorder and registers its metrics
// with the given registerer.
func NewPrometheus(reg prometheus.Registerer) *Prometheus {
	p := &Prometheus{
		drops: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "replica_dropped_samples_total",
			Help: "Samples replicas reported dropping from their own query answers.",
		}, []string{"replica"}),
		mismatches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "replica_value_mismatches_total",
			Help: "Per-timestamp value disagreements, by the set of replicas involved.",
		}, []string{"replicas"}),
	}
	reg.MustRegister(p.drops, p.mismatches)
	return p
}

// RecordDrops implements Recorder.
func (p *Prometheus) RecordDrops(replica string, dropped int64) {
	p.drops.WithLabelValues(replica).Add(float64(dropped))
}

// RecordMismatches implements Recorder. The replica set becomes a
// single comma-joined label value, sorted so the same set always maps
// to the same label.
func (p *Prometheus) RecordMismatches(replicas []string, mismatches int64) {
	names := append([]string(nil), replicas...)
	sort.Strings(names)
	p.mismatches.WithLabelValues(strings.Join(names, ",")).Add(float64(mismatches))
}
