package history

import (
	"context"
	"fmt"
	"sort"
)

// Paginator deriva la página de parents distintos a partir de un source
// record-level. Si el source implementa DistinctLister usa ese camino
// (agrupado server-side); si no, cae a la aproximación por ventana:
// trae hasta windowSize registros, deduplica por ParentID y pagina en
// memoria.
type Paginator struct {
	source     EventSource
	windowSize int
}

func NewPaginator(source EventSource, windowSize int) *Paginator {
	if windowSize <= 0 {
		windowSize = DefaultWindowSize
	}
	return &Paginator{source: source, windowSize: windowSize}
}

// Paginate devuelve los stubs de la página pedida, el total de parents
// distintos y si la ventana quedó capada (solo aplica al camino windowed).
// pageIndex es 1-based.
func (p *Paginator) Paginate(ctx context.Context, q Query, pageIndex, pageSize int) ([]ParentStub, int, bool, error) {
	if pageIndex < 1 {
		pageIndex = 1
	}
	if pageSize < 1 {
		pageSize = 10
	}

	if dl, ok := p.source.(DistinctLister); ok {
		offset := (pageIndex - 1) * pageSize
		stubs, total, err := dl.DistinctParents(ctx, q, offset, pageSize)
		if err != nil {
			return nil, 0, false, fmt.Errorf("paginate distinct: %w", err)
		}
		return stubs, total, false, nil
	}

	records, err := p.source.FetchEvents(ctx, q, p.windowSize)
	if err != nil {
		return nil, 0, false, fmt.Errorf("paginate window: %w", err)
	}
	capped := len(records) >= p.windowSize

	// Dedupe por ParentID preservando el orden de primera aparición.
	// Primera aparición gana el display code.
	seen := make(map[string]struct{}, len(records))
	distinct := make([]ParentStub, 0)
	for _, e := range records {
		if _, ok := seen[e.ParentID]; ok {
			continue
		}
		seen[e.ParentID] = struct{}{}
		distinct = append(distinct, ParentStub{
			ParentID:   e.ParentID,
			ParentCode: e.ParentCode,
			Linked:     e.Linked,
		})
	}

	// Sort parent-level solo cuando el campo de orden es del parent.
	// Para action_date el orden de la ventana ya manda.
	if q.Sort == SortParentCode {
		sort.SliceStable(distinct, func(i, j int) bool {
			if q.Ascending {
				return distinct[i].ParentCode < distinct[j].ParentCode
			}
			return distinct[i].ParentCode > distinct[j].ParentCode
		})
	}

	total := len(distinct)

	skip := (pageIndex - 1) * pageSize
	if skip > total {
		skip = total
	}
	end := skip + pageSize
	if end > total {
		end = total
	}

	return distinct[skip:end], total, capped, nil
}
