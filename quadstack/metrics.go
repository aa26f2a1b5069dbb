package quadstack

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/voxelsplace/quadstack/heightfield"
)

const (
	phaseLabel = "phase"
	kindLabel  = "kind"
)

var (
	buildPhaseLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name: "quadstack_build_phase_seconds",
		Help: "The time spent in each phase of a quadstack build.",
	}, []string{phaseLabel})

	nodeCount = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "quadstack_nodes",
		Help: "The number of nodes of built quadstacks.",
	}, []string{kindLabel})

	promotedEntries = promauto.NewCounter(prometheus.CounterOpts{
		Name: "quadstack_promoted_entries",
		Help: "The number of entries hoisted into a parent by promotion.",
	})

	sharedFields = promauto.NewCounter(prometheus.CounterOpts{
		Name: "quadstack_shared_fields",
		Help: "The number of fields replaced by a reference during rearrangement.",
	})

	blockBits = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "quadstack_block_bits",
		Help:    "The bit width of encoded height blocks.",
		Buckets: []float64{0, 1, 2, 4, 8, 12, 16, 24, 32},
	})

	compressedBytes = promauto.NewCounter(prometheus.CounterOpts{
		Name: "quadstack_compressed_bytes",
		Help: "The number of bytes produced by the height codec.",
	})
)

func instrumentPhase(phase string, start time.Time) {
	buildPhaseLatency.
		With(prometheus.Labels{phaseLabel: phase}).
		Observe(time.Since(start).Seconds())
}

func instrumentNodes(leaves, interiors int) {
	nodeCount.With(prometheus.Labels{kindLabel: "leaf"}).Add(float64(leaves))
	nodeCount.With(prometheus.Labels{kindLabel: "interior"}).Add(float64(interiors))
}

func instrumentPromotion(hoisted int) {
	promotedEntries.Add(float64(hoisted))
}

func instrumentSharedField() {
	sharedFields.Inc()
}

func instrumentCompression(c *heightfield.Compressor) {
	for _, h := range c.Blocks() {
		blockBits.Observe(float64(h.Bits))
	}
	compressedBytes.Add(float64(c.MemorySize()))
}
