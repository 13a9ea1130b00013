// Package metrics records run outcomes in a Prometheus registry that can be
// dumped to a node-exporter textfile.
package metrics

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "meetings"

// Agenda link kinds used as the "kind" label.
const (
	KindHTML = "html"
	KindPDF  = "pdf"
)

// Recorder holds the scraper's metrics on its own registry.
type Recorder struct {
	registry *prometheus.Registry

	scraped          prometheus.Counter
	entriesFailed    prometheus.Counter
	groupingsFailed  prometheus.Counter
	agendaMissing    *prometheus.CounterVec
	lastRunSuccess   prometheus.Gauge
	lastRunTimestamp prometheus.Gauge
	lastRunDuration  prometheus.Gauge
}

// New creates a Recorder with all metrics registered.
func New() *Recorder {
	r := &Recorder{registry: prometheus.NewRegistry()}

	r.scraped = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "meetings_scraped_total",
		Help: "Meeting records extracted from the listing page",
	})
	r.entriesFailed = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "meeting_entries_failed_total",
		Help: "Meeting entries skipped because a required field was missing",
	})
	r.groupingsFailed = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "meeting_groupings_failed_total",
		Help: "Meeting type groupings skipped because their entries could not be listed",
	})
	r.agendaMissing = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "meeting_agenda_links_missing_total",
		Help: "Extracted meetings without an agenda link, by link kind",
	}, []string{"kind"})
	r.lastRunSuccess = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "last_run_success",
		Help:      "1 if the last run wrote meetings, 0 otherwise",
	})
	r.lastRunTimestamp = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "last_run_timestamp_seconds",
		Help:      "Unix timestamp of the last run",
	})
	r.lastRunDuration = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "last_run_duration_seconds",
		Help:      "Wall time of the last run",
	})

	r.registry.MustRegister(
		r.scraped, r.entriesFailed, r.groupingsFailed, r.agendaMissing,
		r.lastRunSuccess, r.lastRunTimestamp, r.lastRunDuration,
	)
	// Labelled series start at zero instead of appearing on first miss.
	r.agendaMissing.WithLabelValues(KindHTML)
	r.agendaMissing.WithLabelValues(KindPDF)
	return r
}

// Registry exposes the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry { return r.registry }

// Extraction adds the counts from one extraction pass.
func (r *Recorder) Extraction(scraped, entriesFailed, groupingsFailed, htmlMissing, pdfMissing int) {
	r.scraped.Add(float64(scraped))
	r.entriesFailed.Add(float64(entriesFailed))
	r.groupingsFailed.Add(float64(groupingsFailed))
	r.agendaMissing.WithLabelValues(KindHTML).Add(float64(htmlMissing))
	r.agendaMissing.WithLabelValues(KindPDF).Add(float64(pdfMissing))
}

// RunFinished records the outcome of a run that started at start.
func (r *Recorder) RunFinished(start time.Time, success bool) {
	end := time.Now()
	v := 0.0
	if success {
		v = 1
	}
	r.lastRunSuccess.Set(v)
	r.lastRunTimestamp.Set(float64(end.Unix()))
	r.lastRunDuration.Set(end.Sub(start).Seconds())
}

// WriteTextfile writes the registry in the text exposition format, replacing
// path atomically.
func (r *Recorder) WriteTextfile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create metrics directory: %w", err)
	}
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
