package history

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// MergeOutcome comunica qué pasó con una respuesta de hidratación en el
// punto de merge: se aplicó, o llegó tarde (query/página ya superadas) y
// se descartó en silencio.
type MergeOutcome int

const (
	MergeApplied MergeOutcome = iota
	MergeStale
)

// HydrateResult es la respuesta de un fetch de historial para un parent.
type HydrateResult struct {
	ParentID string
	Events   []EventRecord
	Err      error
}

// ApplyFunc mergea un resultado en la colección de grupos. Tiene que ser
// safe para llamadas concurrentes y mergear por ParentID, nunca por índice.
type ApplyFunc func(HydrateResult) MergeOutcome

// Hydrator lanza un fetch de historial por parent, todos en vuelo a la vez
// (el working set por página es chico, acotado por pageSize). Cada
// respuesta se entrega a apply apenas llega, sin orden garantizado.
type Hydrator struct {
	source EventSource
}

func NewHydrator(source EventSource) *Hydrator {
	return &Hydrator{source: source}
}

// Hydrate bloquea hasta que todos los parents resolvieron. Un fetch fallido
// no corta a los demás: el error viaja en HydrateResult y el grupo queda
// Failed; por eso las goroutines siempre devuelven nil al errgroup.
func (h *Hydrator) Hydrate(ctx context.Context, kind ParentKind, stubs []ParentStub, apply ApplyFunc) {
	g, ctx := errgroup.WithContext(ctx)

	for _, stub := range stubs {
		stub := stub
		g.Go(func() error {
			events, err := h.source.FetchHistory(ctx, kind, stub.ParentID)
			apply(HydrateResult{
				ParentID: stub.ParentID,
				Events:   events,
				Err:      err,
			})
			return nil
		})
	}

	_ = g.Wait()
}
