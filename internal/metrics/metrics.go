// Package metrics exposes booking and request counters for Prometheus.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Booking outcomes.
const (
	OutcomeBooked         = "booked"
	OutcomeInvalid        = "invalid"
	OutcomeNotFound       = "not_found"
	OutcomeAlreadyBooked  = "already_booked"
	OutcomeSlotTaken      = "slot_taken"
	OutcomePartialFailure = "partial_failure"
	OutcomeError          = "error"
)

// Recorder is what the orchestrator and middleware report to.
type Recorder interface {
	RecordBooking(outcome string)
	RecordAvailability(availableSlots int, duration time.Duration)
	RecordUpstreamError(upstream string)
	RecordHTTPRequest(route, method string, status int, duration time.Duration)
}

type Collector struct {
	bookings        *prometheus.CounterVec
	availableSlots  prometheus.Gauge
	availabilityDur prometheus.Histogram
	upstreamErrors  *prometheus.CounterVec
	httpRequests    *prometheus.CounterVec
	httpDuration    *prometheus.HistogramVec
}

func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		bookings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "website_bookings_total",
			Help: "Booking attempts by outcome",
		}, []string{"outcome"}),
		availableSlots: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "website_available_slots",
			Help: "Available slots in the most recent availability response",
		}),
		availabilityDur: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "website_availability_duration_seconds",
			Help:    "Time to compute availability including upstream calls",
			Buckets: prometheus.DefBuckets,
		}),
		upstreamErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "website_upstream_errors_total",
			Help: "Failed calls to external services",
		}, []string{"upstream"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "website_http_requests_total",
			Help: "HTTP requests by route, method and status",
		}, []string{"route", "method", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "website_http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
	}

	reg.MustRegister(
		c.bookings,
		c.availableSlots,
		c.availabilityDur,
		c.upstreamErrors,
		c.httpRequests,
		c.httpDuration,
	)

	return c
}

func (c *Collector) RecordBooking(outcome string) {
	c.bookings.WithLabelValues(outcome).Inc()
}

func (c *Collector) RecordAvailability(availableSlots int, duration time.Duration) {
	c.availableSlots.Set(float64(availableSlots))
	c.availabilityDur.Observe(duration.Seconds())
}

func (c *Collector) RecordUpstreamError(upstream string) {
	c.upstreamErrors.WithLabelValues(upstream).Inc()
}

func (c *Collector) RecordHTTPRequest(route, method string, status int, duration time.Duration) {
	c.httpRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	c.httpDuration.WithLabelValues(route).Observe(duration.Seconds())
}

func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// Nop discards all measurements.
type Nop struct{}

func (Nop) RecordBooking(string)                                 {}
func (Nop) RecordAvailability(int, time.Duration)                {}
func (Nop) RecordUpstreamError(string)                           {}
func (Nop) RecordHTTPRequest(string, string, int, time.Duration) {}
