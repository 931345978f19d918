package show

import "github.com/prometheus/client_golang/prometheus"

// Metrics
var (
	framesApplied = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "lightshow_frames_applied_total", Help: "Frames written to the output bank"},
	)
	tickOverruns = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "lightshow_tick_overruns_total", Help: "Ticks whose processing exceeded the frame interval"},
	)
	tickDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "lightshow_tick_duration_seconds",
			Help:    "Processing time of one frame tick, excluding the sleep",
			Buckets: []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1},
		},
	)
	sessionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "lightshow_sessions_total", Help: "Sessions by terminal outcome"},
		[]string{"outcome"},
	)
	queueDepth = prometheus.NewGauge(
		prometheus.GaugeOpts{Name: "lightshow_queue_depth", Help: "Sessions waiting behind the active one"},
	)
	playing = prometheus.NewGauge(
		prometheus.GaugeOpts{Name: "lightshow_playing", Help: "1 while a session is driving the lights"},
	)
)

func RegisterMetrics() {
	prometheus.MustRegister(framesApplied, tickOverruns, tickDuration, sessionsTotal, queueDepth, playing)
}
