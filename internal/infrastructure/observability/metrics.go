package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds all application metrics
type Metrics struct {
	// Payment lifecycle
	PaymentsInitiated  *prometheus.CounterVec
	PaymentTransitions *prometheus.CounterVec
	PaymentErrors      *prometheus.CounterVec

	// Gateway calls
	GatewayCalls        *prometheus.CounterVec
	GatewayCallDuration *prometheus.HistogramVec

	// Callback handling
	CallbacksReceived *prometheus.CounterVec
	InlineValidations *prometheus.CounterVec

	// Queue/worker
	JobsEnqueued             *prometheus.CounterVec
	JobsRetried              *prometheus.CounterVec
	JobsDeadLettered         *prometheus.CounterVec
	WorkerMessagesProcessed  *prometheus.CounterVec
	WorkerProcessingDuration *prometheus.HistogramVec

	// Enrollment
	EnrollmentsCreated   prometheus.Counter
	EnrollmentDuplicates prometheus.Counter

	// HTTP
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
}

// NewMetrics creates and registers all metrics against the given registry.
// If reg is nil, prometheus.DefaultRegisterer is used.
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := prometheus.WrapRegistererWith(nil, reg)

	m := &Metrics{
		PaymentsInitiated: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "payments_initiated_total",
				Help:      "Total number of payment initiations by result",
			},
			[]string{"result"},
		),
		PaymentTransitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "payment_transitions_total",
				Help:      "Total number of payment status transitions",
			},
			[]string{"to"},
		),
		PaymentErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "payment_errors_total",
				Help:      "Total number of payment pipeline errors",
			},
			[]string{"component", "error_type"},
		),
		GatewayCalls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "gateway_calls_total",
				Help:      "Total number of gateway calls by operation and result",
			},
			[]string{"operation", "result"},
		),
		GatewayCallDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "gateway_call_duration_seconds",
				Help:      "Gateway call duration in seconds",
				Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10},
			},
			[]string{"operation"},
		),
		CallbacksReceived: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "callbacks_received_total",
				Help:      "Total number of gateway callbacks by kind",
			},
			[]string{"kind"},
		),
		InlineValidations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "inline_validations_total",
				Help:      "Inline fast-path validation attempts by outcome",
			},
			[]string{"outcome"},
		),
		JobsEnqueued: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "jobs_enqueued_total",
				Help:      "Total number of jobs enqueued by queue",
			},
			[]string{"queue"},
		),
		JobsRetried: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "jobs_retried_total",
				Help:      "Total number of job retries by queue",
			},
			[]string{"queue"},
		),
		JobsDeadLettered: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "jobs_dead_lettered_total",
				Help:      "Total number of jobs moved to the dead-letter stream",
			},
			[]string{"queue"},
		),
		WorkerMessagesProcessed: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "worker_messages_processed_total",
				Help:      "Total number of worker messages processed",
			},
			[]string{"queue", "status"},
		),
		WorkerProcessingDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "worker_processing_duration_seconds",
				Help:      "Worker message processing duration in seconds",
				Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
			},
			[]string{"queue"},
		),
		EnrollmentsCreated: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "enrollments_created_total",
				Help:      "Total number of enrollments created",
			},
		),
		EnrollmentDuplicates: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "enrollment_duplicates_total",
				Help:      "Enrollment attempts resolved as benign duplicates",
			},
		),
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
	}

	factory.MustRegister(
		m.PaymentsInitiated,
		m.PaymentTransitions,
		m.PaymentErrors,
		m.GatewayCalls,
		m.GatewayCallDuration,
		m.CallbacksReceived,
		m.InlineValidations,
		m.JobsEnqueued,
		m.JobsRetried,
		m.JobsDeadLettered,
		m.WorkerMessagesProcessed,
		m.WorkerProcessingDuration,
		m.EnrollmentsCreated,
		m.EnrollmentDuplicates,
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
	)

	return m
}
