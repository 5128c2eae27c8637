package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce        sync.Once
	httpRequestsTotal   *prometheus.CounterVec
	httpLatencySeconds  *prometheus.HistogramVec
	httpErrorsTotal     *prometheus.CounterVec
	gatePassesIssued    *prometheus.CounterVec
	gatePassScans       *prometheus.CounterVec
	otpRequestsTotal    *prometheus.CounterVec
	cronJobRunsTotal    *prometheus.CounterVec
	cronJobDuration     *prometheus.HistogramVec
	cronJobAffectedRows *prometheus.CounterVec
)

// RegisterMetrics initialises the Prometheus collectors used across the API.
func RegisterMetrics() {
	registerOnce.Do(func() {
		httpRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of API requests served.",
		}, []string{"method", "route", "status"})

		httpLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_latency_seconds",
			Help:    "Latency distribution for API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		httpErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_errors_total",
			Help: "Total number of error responses returned by the API.",
		}, []string{"method", "route", "status"})

		gatePassesIssued = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gate_passes_issued_total",
			Help: "Gate passes issued, by crossing action.",
		}, []string{"action"})

		gatePassScans = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gate_pass_scans_total",
			Help: "Gate pass scans, by outcome.",
		}, []string{"outcome"})

		otpRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "auth_otp_requests_total",
			Help: "Login code requests and verifications, by stage and outcome.",
		}, []string{"stage", "outcome"})

		cronJobRunsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cron_job_runs_total",
			Help: "Background job runs, by job and status.",
		}, []string{"job", "status"})

		cronJobDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "cron_job_duration_seconds",
			Help:    "Background job run duration.",
			Buckets: prometheus.DefBuckets,
		}, []string{"job"})

		cronJobAffectedRows = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cron_job_affected_rows_total",
			Help: "Rows changed by background jobs.",
		}, []string{"job"})

		prometheus.MustRegister(
			httpRequestsTotal,
			httpLatencySeconds,
			httpErrorsTotal,
			gatePassesIssued,
			gatePassScans,
			otpRequestsTotal,
			cronJobRunsTotal,
			cronJobDuration,
			cronJobAffectedRows,
		)
	})
}

// HTTPRequests exposes the counter for API requests.
func HTTPRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return httpRequestsTotal
}

// HTTPLatency exposes the latency histogram for API requests.
func HTTPLatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return httpLatencySeconds
}

// HTTPErrors exposes the counter for API error responses.
func HTTPErrors() *prometheus.CounterVec {
	RegisterMetrics()
	return httpErrorsTotal
}

// GatePassesIssued counts issued passes per action.
func GatePassesIssued() *prometheus.CounterVec {
	RegisterMetrics()
	return gatePassesIssued
}

// GatePassScans counts scans per outcome.
func GatePassScans() *prometheus.CounterVec {
	RegisterMetrics()
	return gatePassScans
}

// OTPRequests counts login code traffic.
func OTPRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return otpRequestsTotal
}

// CronJobRuns counts background job runs.
func CronJobRuns() *prometheus.CounterVec {
	RegisterMetrics()
	return cronJobRunsTotal
}

// CronJobDuration exposes the background job duration histogram.
func CronJobDuration() *prometheus.HistogramVec {
	RegisterMetrics()
	return cronJobDuration
}

// CronJobAffectedRows counts rows changed by background jobs.
func CronJobAffectedRows() *prometheus.CounterVec {
	RegisterMetrics()
	return cronJobAffectedRows
}
