package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	TasksSubmitted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "errandly_tasks_submitted_total",
		Help: "Tasks created in the unassigned state.",
	})

	ClaimResults = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "errandly_claim_attempts_total",
		Help: "Claim attempts by outcome.",
	}, []string{"outcome"}) // won | conflict | denied

	TasksCompleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "errandly_tasks_completed_total",
		Help: "Tasks transitioned to completed by their executor.",
	})

	TasksCanceled = promauto.NewCounter(prometheus.CounterOpts{
		Name: "errandly_tasks_canceled_total",
		Help: "Tasks canceled by their requester.",
	})

	TasksExpired = promauto.NewCounter(prometheus.CounterOpts{
		Name: "errandly_tasks_expired_total",
		Help: "Accepted tasks canceled by the expiration sweep.",
	})

	PaymentCaptures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "errandly_payment_captures_total",
		Help: "Payment capture attempts by result.",
	}, []string{"result"}) // success | failure

	MessagesPosted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "errandly_messages_posted_total",
		Help: "Messages appended to task threads by kind.",
	}, []string{"kind"}) // text | image

	SweepDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "errandly_sweep_duration_seconds",
		Help:    "Wall time of one expiration sweep pass.",
		Buckets: prometheus.DefBuckets,
	})
)
