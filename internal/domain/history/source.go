package history

import "context"

// DefaultWindowSize es el tope de registros que se traen para derivar
// parents distintos cuando el backend no sabe agrupar server-side.
// Si los matches superan la ventana, total y contenido quedan incompletos;
// eso se señaliza con Page.WindowCapped en vez de esconderlo.
const DefaultWindowSize = 5000

// EventSource es el puerto record-level contra el backing store (API core
// de FMCS, lectura directa de tablas, o memoria para tests).
type EventSource interface {
	// FetchEvents trae una ventana acotada de registros que matchean la
	// query, ya ordenados según q.Sort/q.Ascending.
	FetchEvents(ctx context.Context, q Query, windowSize int) ([]EventRecord, error)

	// FetchHistory trae el historial completo y ordenado de un parent.
	FetchHistory(ctx context.Context, kind ParentKind, parentID string) ([]EventRecord, error)
}

// DistinctLister es la capability opcional de un source que sí sabe
// resolver parents distintos server-side (estrategia eager-grouped).
// El paginator la detecta por type assertion; no hay branch duro.
type DistinctLister interface {
	// DistinctParents devuelve la página de stubs y el total de parents
	// distintos que matchean la query.
	DistinctParents(ctx context.Context, q Query, offset, limit int) ([]ParentStub, int, error)
}
