package report

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redactyl/baseliner/internal/audit"
)

// Metrics collects per-run scan figures for the node_exporter textfile
// collector. Each run gets a fresh registry.
type Metrics struct {
	reg *prometheus.Registry

	filesScanned prometheus.Counter
	filesCached  prometheus.Counter
	fileErrors   prometheus.Counter
	newRecords   prometheus.Counter
	records      *prometheus.GaugeVec
	duration     prometheus.Gauge
	lastRun      prometheus.Gauge
}

func NewMetrics() *Metrics {
	m := &Metrics{reg: prometheus.NewRegistry()}
	m.filesScanned = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "baseliner",
		Name:      "files_scanned_total",
		Help:      "Number of files read and run through the detectors.",
	})
	m.filesCached = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "baseliner",
		Name:      "files_cached_total",
		Help:      "Number of unchanged files whose previous records were reused.",
	})
	m.fileErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "baseliner",
		Name:      "file_errors_total",
		Help:      "Number of files that could not be scanned.",
	})
	m.newRecords = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "baseliner",
		Name:      "new_records_total",
		Help:      "Number of records not present in the previous baseline.",
	})
	m.records = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "baseliner",
		Name:      "baseline_records",
		Help:      "Records in the baseline, partitioned by detector type and classification.",
	}, []string{"type", "classification"})
	m.duration = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "baseliner",
		Name:      "scan_duration_seconds",
		Help:      "Wall time of the last scan in seconds.",
	})
	m.lastRun = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "baseliner",
		Name:      "last_run_timestamp_seconds",
		Help:      "Unix time the last scan finished.",
	})
	m.reg.MustRegister(m.filesScanned, m.filesCached, m.fileErrors, m.newRecords, m.records, m.duration, m.lastRun)
	return m
}

// ObserveScan records the figures of one finished scan.
func (m *Metrics) ObserveScan(filesScanned, cached, fileErrors, newRecords int, took time.Duration) {
	m.filesScanned.Add(float64(filesScanned))
	m.filesCached.Add(float64(cached))
	m.fileErrors.Add(float64(fileErrors))
	m.newRecords.Add(float64(newRecords))
	m.duration.Set(took.Seconds())
	m.lastRun.SetToCurrentTime()
}

// ObserveBaseline sets the record gauges from a baseline summary.
func (m *Metrics) ObserveBaseline(s audit.Summary) {
	m.records.Reset()
	for _, t := range s.Types() {
		c := s.ByType[t]
		m.records.WithLabelValues(t, "secret").Set(float64(c.Secret))
		m.records.WithLabelValues(t, "false_positive").Set(float64(c.FalsePositive))
		m.records.WithLabelValues(t, "unclassified").Set(float64(c.Unclassified))
	}
}

func (m *Metrics) Gatherer() prometheus.Gatherer { return m.reg }

// WriteTextfile atomically writes the metrics in text exposition format.
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.reg)
}
