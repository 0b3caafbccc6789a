package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	// EnqueueCounter tracks the number of visitors joining the queue.
	EnqueueCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "lounge_enqueue_total",
		Help: "Total number of visitors enqueued",
	})
	// PickupCounter tracks the number of successful pickups.
	PickupCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "lounge_pickup_total",
		Help: "Total number of visitors picked up",
	})
	// ExitCounter tracks the number of manual queue exits.
	ExitCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "lounge_exit_total",
		Help: "Total number of visitors exiting the queue",
	})
	// CompleteCounter tracks the number of completed examinations.
	CompleteCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "lounge_complete_total",
		Help: "Total number of completed examinations",
	})
	// LockFailureCounter tracks exhausted lock acquisitions.
	LockFailureCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "lounge_lock_failures_total",
		Help: "Total number of operations rejected because the ordering lock was unavailable",
	})
	// DroppedOutcomeCounter tracks outcomes a sink failed to deliver.
	DroppedOutcomeCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "lounge_dropped_outcomes_total",
		Help: "Total number of outcome notifications that could not be delivered",
	})
	// WaitingGauge reports the current waiting-list length.
	WaitingGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "lounge_waiting",
		Help: "Current number of waiting visitors",
	})
)

// NewRegistry creates a new Prometheus registry.
func NewRegistry() *prometheus.Registry {
	return prometheus.NewRegistry()
}

// RegisterCoreMetrics registers lounge core metrics on the provided registry.
func RegisterCoreMetrics(reg prometheus.Registerer) {
	reg.MustRegister(EnqueueCounter, PickupCounter, ExitCounter, CompleteCounter,
		LockFailureCounter, DroppedOutcomeCounter, WaitingGauge)
}
