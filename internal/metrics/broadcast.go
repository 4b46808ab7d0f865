// Package metrics provides Prometheus metrics for the broadcast pipeline.
package metrics

import (
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "restream"

// Toggle results recorded by RecordToggle.
const (
	ResultOK         = "ok"
	ResultBusy       = "busy"
	ResultFailed     = "failed"
	ResultRolledBack = "rolled_back"
)

var (
	audioLevel = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "audio_level",
		Help:      "Latest published linear audio level (0.0-1.0)",
	}, []string{"source", "channel"})

	branchEnabled = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "branch_enabled",
		Help:      "Whether a toggle-able branch is currently attached (1) or not (0)",
	}, []string{"branch"})

	publishing = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "publishing",
		Help:      "Whether the encode and publish branch is live",
	})

	togglesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "toggles_total",
		Help:      "Branch toggle attempts by result",
	}, []string{"branch", "result"})

	framesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "frames_total",
		Help:      "Preview frames delivered by the video sink",
	})

	pipelineErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "pipeline_errors_total",
		Help:      "Fatal errors reported by the media engine",
	})

	// Local copies for the status endpoint.
	frameCount atomic.Uint64
	errorCount atomic.Uint64
)

// Snapshot holds the counters the API reports without scraping Prometheus.
type Snapshot struct {
	Frames         uint64 `json:"frames" doc:"Preview frames delivered"`
	PipelineErrors uint64 `json:"pipeline_errors" doc:"Fatal engine errors"`
}

// SetAudioLevel records the latest stereo level of a source such as "output" or "mic".
func SetAudioLevel(source string, left, right float64) {
	audioLevel.WithLabelValues(source, "left").Set(left)
	audioLevel.WithLabelValues(source, "right").Set(right)
}

// SetBranchEnabled records whether a branch is attached.
func SetBranchEnabled(branch string, enabled bool) {
	branchEnabled.WithLabelValues(branch).Set(boolToFloat(enabled))
}

// SetPublishing records whether the publish branch is live.
func SetPublishing(live bool) {
	publishing.Set(boolToFloat(live))
}

// RecordToggle counts one toggle attempt.
func RecordToggle(branch, result string) {
	togglesTotal.WithLabelValues(branch, result).Inc()
}

// IncFrames counts one delivered preview frame.
func IncFrames() {
	framesTotal.Inc()
	frameCount.Add(1)
}

// IncPipelineErrors counts one fatal engine error.
func IncPipelineErrors() {
	pipelineErrorsTotal.Inc()
	errorCount.Add(1)
}

// GetSnapshot returns the current counter values.
func GetSnapshot() Snapshot {
	return Snapshot{
		Frames:         frameCount.Load(),
		PipelineErrors: errorCount.Load(),
	}
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
