package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "fmcs_audit_history"

var (
	PagesBuilt = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pages_built_total",
			Help:      "Páginas de historial agrupado construidas (pipeline completo).",
		},
		[]string{"kind"},
	)

	PaginatorErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "paginator_errors_total",
			Help:      "Fallas page-fatal del paginator de parents distintos.",
		},
		[]string{"kind"},
	)

	HydrationFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "hydration_failures_total",
			Help:      "Fetches de historial por parent que fallaron (group-partial).",
		},
		[]string{"kind"},
	)

	StaleDrops = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stale_merges_dropped_total",
			Help:      "Respuestas de hidratación descartadas por generación superada.",
		},
	)

	ExportsBuilt = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "exports_built_total",
			Help:      "Exports construidos, por kind y scope.",
		},
		[]string{"kind", "scope"},
	)
)

// Handler expone el registry default de Prometheus.
func Handler() http.Handler {
	return promhttp.Handler()
}
