// Package metrics описывает Prometheus-метрики сервиса перевалов.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Исходы операций для метки outcome.
const (
	OutcomeOK          = "ok"
	OutcomeInvalid     = "invalid"
	OutcomeNotFound    = "not_found"
	OutcomeNotEditable = "not_editable"
	OutcomeError       = "error"
)

var (
	// operationsTotal количество операций над перевалами по исходу.
	operationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pereval_operations_total",
			Help: "Количество операций над перевалами",
		},
		[]string{"operation", "outcome"},
	)

	// HTTPRequestsTotal общее количество HTTP-запросов.
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pereval_http_requests_total",
			Help: "Общее количество HTTP-запросов к API перевалов",
		},
		[]string{"method", "path", "status"},
	)

	// HTTPRequestDuration длительность HTTP-запросов.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pereval_http_request_duration_seconds",
			Help:    "Длительность HTTP-запросов к API перевалов в секундах",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	eventsPublishedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pereval_events_published_total",
			Help: "Количество опубликованных событий о перевалах",
		},
		[]string{"type", "outcome"},
	)

	archivedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pereval_archived_snapshots_total",
			Help: "Количество снимков перевалов, выгруженных в архив",
		},
		[]string{"outcome"},
	)
)

// ObserveOperation учитывает завершённую операцию.
func ObserveOperation(operation, outcome string) {
	operationsTotal.WithLabelValues(operation, outcome).Inc()
}

func ObserveEventPublished(eventType, outcome string) {
	eventsPublishedTotal.WithLabelValues(eventType, outcome).Inc()
}

func ObserveArchived(outcome string) {
	archivedTotal.WithLabelValues(outcome).Inc()
}
