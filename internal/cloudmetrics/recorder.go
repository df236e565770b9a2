package cloudmetrics

import (
	"strings"
	"sync"
)

// Recorder receives accounting events from the analysis pipeline. The
// package-level functions route through a swappable singleton so callers
// never hold a reference to the push machinery.
type Recorder interface {
	RecordAnalysisRun(state string)
	RecordReportStored()
	RecordCreditsConsumed(amount int64)
	SetDomainsTotal(count int64)
}

type recorder struct {
	metrics    *metrics
	instanceID string
}

type noopRecorder struct{}

func (noopRecorder) RecordAnalysisRun(string)    {}
func (noopRecorder) RecordReportStored()         {}
func (noopRecorder) RecordCreditsConsumed(int64) {}
func (noopRecorder) SetDomainsTotal(int64)       {}

var (
	activeRecorder Recorder = noopRecorder{}
	recorderMu     sync.RWMutex
)

func setRecorder(rec Recorder) {
	if rec == nil {
		return
	}
	recorderMu.Lock()
	activeRecorder = rec
	recorderMu.Unlock()
}

func RecordAnalysisRun(state string) {
	recorderMu.RLock()
	rec := activeRecorder
	recorderMu.RUnlock()
	rec.RecordAnalysisRun(state)
}

func RecordReportStored() {
	recorderMu.RLock()
	rec := activeRecorder
	recorderMu.RUnlock()
	rec.RecordReportStored()
}

func RecordCreditsConsumed(amount int64) {
	recorderMu.RLock()
	rec := activeRecorder
	recorderMu.RUnlock()
	rec.RecordCreditsConsumed(amount)
}

func SetDomainsTotal(count int64) {
	recorderMu.RLock()
	rec := activeRecorder
	recorderMu.RUnlock()
	rec.SetDomainsTotal(count)
}

func (r *recorder) RecordAnalysisRun(state string) {
	if r == nil || r.metrics == nil {
		return
	}
	r.metrics.analysisRuns.WithLabelValues(r.instance(), normalizeLabel(state)).Inc()
}

func (r *recorder) RecordReportStored() {
	if r == nil || r.metrics == nil {
		return
	}
	r.metrics.reportsStored.Inc()
}

func (r *recorder) RecordCreditsConsumed(amount int64) {
	if r == nil || r.metrics == nil || amount <= 0 {
		return
	}
	r.metrics.creditsConsumed.Add(float64(amount))
}

func (r *recorder) SetDomainsTotal(count int64) {
	if r == nil || r.metrics == nil {
		return
	}
	if count < 0 {
		count = 0
	}
	r.metrics.domainsTotal.Set(float64(count))
}

func (r *recorder) instance() string {
	if id := strings.TrimSpace(r.instanceID); id != "" {
		return id
	}
	return "unknown"
}

func normalizeLabel(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return "unknown"
	}
	return value
}
