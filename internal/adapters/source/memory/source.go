package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/locthdzev/fmcs-fe-sub005/internal/domain/history"

	"github.com/google/uuid"
)

// Source es un EventSource en memoria para dev y tests. No implementa
// DistinctLister a propósito: ejercita el camino windowed del paginator.
type Source struct {
	mu     sync.RWMutex
	byKind map[history.ParentKind][]history.EventRecord
}

func NewSource() *Source {
	return &Source{
		byKind: make(map[history.ParentKind][]history.EventRecord),
	}
}

// Add registra un evento. Si viene sin ID se le asigna uno.
func (s *Source) Add(kind history.ParentKind, e history.EventRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	s.byKind[kind] = append(s.byKind[kind], e)
}

func (s *Source) FetchEvents(ctx context.Context, q history.Query, windowSize int) ([]history.EventRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if windowSize <= 0 {
		windowSize = history.DefaultWindowSize
	}

	out := make([]history.EventRecord, 0)
	for _, e := range s.byKind[q.Kind] {
		if q.Matches(e) {
			out = append(out, e)
		}
	}

	if q.Sort == history.SortParentCode {
		sortByCode(out, q.Ascending)
	} else {
		history.SortEvents(out, q.Ascending)
	}

	if len(out) > windowSize {
		out = out[:windowSize]
	}
	return out, nil
}

func (s *Source) FetchHistory(ctx context.Context, kind history.ParentKind, parentID string) ([]history.EventRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]history.EventRecord, 0)
	for _, e := range s.byKind[kind] {
		if e.ParentID == parentID {
			out = append(out, e)
		}
	}

	// Más reciente primero, como lo devuelve el core.
	history.SortEvents(out, false)
	return out, nil
}

func sortByCode(events []history.EventRecord, ascending bool) {
	sort.SliceStable(events, func(i, j int) bool {
		if ascending {
			return events[i].ParentCode < events[j].ParentCode
		}
		return events[i].ParentCode > events[j].ParentCode
	})
}
