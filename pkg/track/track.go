// Package track records which parts of a script are being exercised.
//
// Tasks report page-style identifiers ("randoms/ticket/") to a Tracker handed
// to them by the script, instead of reaching for a process-wide tracker.
package track

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/bft-labs/scriptd/pkg/log"
)

// Tracker receives page hits.
type Tracker interface {
	TrackPage(page, referrer string)
}

// Noop discards hits.
type Noop struct{}

// TrackPage does nothing.
func (Noop) TrackPage(page, referrer string) {}

// LogTracker writes each hit at debug level.
type LogTracker struct {
	logger log.Logger
}

// NewLogTracker creates a tracker logging through logger.
func NewLogTracker(logger log.Logger) *LogTracker {
	return &LogTracker{logger: log.OrNoop(logger)}
}

// TrackPage logs the hit.
func (t *LogTracker) TrackPage(page, referrer string) {
	t.logger.Debug("page tracked", log.String("page", page), log.String("referrer", referrer))
}

// PrometheusTracker counts hits per page.
type PrometheusTracker struct {
	pages *prometheus.CounterVec
}

// NewPrometheusTracker creates a tracker and registers its counter on reg.
func NewPrometheusTracker(reg prometheus.Registerer) (*PrometheusTracker, error) {
	pages := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "scriptd",
			Name:      "page_hits_total",
			Help:      "Number of tracked page hits reported by tasks.",
		},
		[]string{"page"},
	)
	if err := reg.Register(pages); err != nil {
		return nil, err
	}
	return &PrometheusTracker{pages: pages}, nil
}

// TrackPage increments the page counter.
func (t *PrometheusTracker) TrackPage(page, referrer string) {
	t.pages.WithLabelValues(page).Inc()
}

// Multi fans hits out to several trackers.
type Multi []Tracker

// TrackPage forwards to every tracker.
func (m Multi) TrackPage(page, referrer string) {
	for _, t := range m {
		if t != nil {
			t.TrackPage(page, referrer)
		}
	}
}
