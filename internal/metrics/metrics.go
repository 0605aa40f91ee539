package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	// Transitions counts successful lifecycle operations by kind.
	Transitions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "checkin",
		Name:      "transitions_total",
		Help:      "Lifecycle operations committed, by kind.",
	}, []string{"kind"})

	// Rejections counts lifecycle operations refused, by reason.
	Rejections = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "checkin",
		Name:      "rejections_total",
		Help:      "Operations rejected before or during write, by reason.",
	}, []string{"reason"})

	// FeesCollected counts fees taken at the check-in desk.
	FeesCollected = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "checkin",
		Name:      "fees_collected_total",
		Help:      "Fees collected at check-in.",
	})

	// ImportRows counts imported spreadsheet rows by result.
	ImportRows = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "checkin",
		Name:      "import_rows_total",
		Help:      "Roster import rows, by result.",
	}, []string{"result"})

	// PhotoUpload observes photo upload latency by outcome.
	PhotoUpload = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "checkin",
		Name:      "photo_upload_seconds",
		Help:      "Photo upload latency.",
		Buckets:   prometheus.ExponentialBuckets(0.1, 2, 8),
	}, []string{"outcome"})
)

func init() {
	prometheus.MustRegister(Transitions, Rejections, FeesCollected, ImportRows, PhotoUpload)
}
