package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP request counter
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	// HTTP request duration histogram
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint", "status"},
	)

	// Active HTTP connections gauge
	HTTPActiveConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_active_connections",
			Help: "Number of active HTTP connections",
		},
	)

	// Front-desk business metrics
	RegistrationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "clinicdesk_registrations_total",
			Help: "Total number of patient registrations",
		},
		[]string{"result"}, // "success", "validation_failed", "error"
	)

	PrescriptionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "clinicdesk_prescriptions_total",
			Help: "Total number of prescription attachments",
		},
		[]string{"result"}, // "success", "conflict", "not_found", "validation_failed", "error"
	)

	BillsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "clinicdesk_bills_total",
			Help: "Total number of bill attachments",
		},
		[]string{"result"}, // "success", "conflict", "precondition_failed", "not_found", "validation_failed", "error"
	)

	BillAmountTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "clinicdesk_bill_amount_total",
			Help: "Sum of all billed amounts",
		},
	)

	VisitToken = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "clinicdesk_visit_token",
			Help: "Last issued visit token",
		},
	)
)

// RecordHTTPRequest records metrics for an HTTP request
func RecordHTTPRequest(method, endpoint string, statusCode int, duration time.Duration) {
	status := strconv.Itoa(statusCode)

	HTTPRequestsTotal.WithLabelValues(method, endpoint, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, endpoint, status).Observe(duration.Seconds())
}

// RecordRegistration records the outcome of a registration request
func RecordRegistration(result string) {
	RegistrationsTotal.WithLabelValues(result).Inc()
}

// RecordPrescription records the outcome of a prescription attachment
func RecordPrescription(result string) {
	PrescriptionsTotal.WithLabelValues(result).Inc()
}

// RecordBill records the outcome of a bill attachment
func RecordBill(result string, amount float64) {
	BillsTotal.WithLabelValues(result).Inc()
	if result == "success" {
		BillAmountTotal.Add(amount)
	}
}

// RecordVisitToken publishes the last issued token
func RecordVisitToken(token int64) {
	VisitToken.Set(float64(token))
}

// IncActiveConnections increments active connections
func IncActiveConnections() {
	HTTPActiveConnections.Inc()
}

// DecActiveConnections decrements active connections
func DecActiveConnections() {
	HTTPActiveConnections.Dec()
}
