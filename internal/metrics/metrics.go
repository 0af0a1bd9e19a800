package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gotix_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"route", "code", "method"},
	)

	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gotix_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route"},
	)

	TicketsReserved = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gotix_tickets_reserved_total",
			Help: "Total reservations admitted",
		},
	)

	ReservationsDenied = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gotix_reservations_denied_total",
			Help: "Total reservations denied",
		},
		[]string{"reason"},
	)

	TicketsPaid = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gotix_tickets_paid_total",
			Help: "Total tickets paid",
		},
	)

	TicketsExpired = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gotix_tickets_expired_total",
			Help: "Total tickets expired, by expiration path",
		},
		[]string{"source"},
	)

	CapacityReleaseRetries = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gotix_capacity_release_retries_total",
			Help: "Total retries of the capacity release after an expired transition",
		},
	)
)
