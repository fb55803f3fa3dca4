package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	StatusUpdatesApplied = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "cardtrack",
		Name:      "status_updates_applied_total",
		Help:      "Total number of status events appended, labelled by status.",
	}, []string{"status"})

	StatusUpdatesRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "cardtrack",
		Name:      "status_updates_rejected_total",
		Help:      "Total number of rejected status updates, labelled by reason.",
	}, []string{"reason"})

	CardsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "cardtrack",
		Name:      "cards_created_total",
		Help:      "Total number of cards created.",
	})

	UpdatesPublished = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "cardtrack",
		Name:      "updates_published_total",
		Help:      "Total number of card updates pushed to subscribers.",
	})
)
