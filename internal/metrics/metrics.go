package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	pagesScanned = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "stopover",
			Name:      "pages_scanned_total",
			Help:      "Pages scanned by result (matched, unmatched, skipped)",
		},
		[]string{"result"},
	)

	detected = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "stopover",
			Name:      "detected_total",
			Help:      "Stopover pages detected by code",
		},
		[]string{"code"},
	)

	unmapped = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "stopover",
			Name:      "unmapped_total",
			Help:      "Detected codes without configured recipients",
		},
		[]string{"code"},
	)

	messages = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "stopover",
			Name:      "messages_total",
			Help:      "Prepared messages by send result",
		},
		[]string{"result"},
	)

	analysisDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "stopover",
			Name:      "analysis_duration_seconds",
			Help:      "Duration of a document analysis (extraction and scan)",
			Buckets:   prometheus.DefBuckets,
		},
	)

	mappedCodes = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "stopover",
			Name:      "mapped_codes",
			Help:      "Stopover codes with at least one configured recipient entry",
		},
	)

	registerOnce sync.Once
)

// Init registers collectors on the default registry. Safe to call more
// than once.
func Init() {
	registerOnce.Do(func() {
		prometheus.MustRegister(pagesScanned, detected, unmapped, messages, analysisDuration, mappedCodes)
	})
}

// Handler returns the http.Handler for /metrics
func Handler() http.Handler { return promhttp.Handler() }

func ObservePages(matched, unmatched, skipped int) {
	pagesScanned.WithLabelValues("matched").Add(float64(matched))
	pagesScanned.WithLabelValues("unmatched").Add(float64(unmatched))
	pagesScanned.WithLabelValues("skipped").Add(float64(skipped))
}

func IncDetected(code string) { detected.WithLabelValues(code).Inc() }
func IncUnmapped(code string) { unmapped.WithLabelValues(code).Inc() }
func IncMessage(result string) { messages.WithLabelValues(result).Inc() }

func ObserveAnalysis(d time.Duration) { analysisDuration.Observe(d.Seconds()) }

func SetMappedCodes(n int) { mappedCodes.Set(float64(n)) }
