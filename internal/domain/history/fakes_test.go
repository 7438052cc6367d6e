package history

import (
	"context"
	"errors"
	"sync"
	"time"
)

// -------------------------
// Fake source (in-memory) compartido por los tests del módulo
// -------------------------

var errFakeDown = errors.New("fake: backing store down")

type fakeSource struct {
	mu sync.Mutex

	records   []EventRecord            // ventana que sirve FetchEvents
	histories map[string][]EventRecord // historial completo por parent

	eventsErr   error
	failParents map[string]bool

	// blockParents: FetchHistory de esos parents espera el close del chan.
	blockParents map[string]chan struct{}
	// historyStarted avisa (con el parentID) que un FetchHistory arrancó.
	historyStarted chan string

	fetchEventsCalls  int
	fetchHistoryCalls int
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		histories:    map[string][]EventRecord{},
		failParents:  map[string]bool{},
		blockParents: map[string]chan struct{}{},
	}
}

func (f *fakeSource) FetchEvents(ctx context.Context, q Query, windowSize int) ([]EventRecord, error) {
	f.mu.Lock()
	f.fetchEventsCalls++
	records := f.records
	err := f.eventsErr
	f.mu.Unlock()

	if err != nil {
		return nil, err
	}

	out := make([]EventRecord, 0)
	for _, e := range records {
		if q.Matches(e) {
			out = append(out, e)
		}
	}
	SortEvents(out, q.Ascending)
	if len(out) > windowSize {
		out = out[:windowSize]
	}
	return out, nil
}

func (f *fakeSource) FetchHistory(ctx context.Context, kind ParentKind, parentID string) ([]EventRecord, error) {
	f.mu.Lock()
	f.fetchHistoryCalls++
	block := f.blockParents[parentID]
	started := f.historyStarted
	fail := f.failParents[parentID]
	events := f.histories[parentID]
	f.mu.Unlock()

	if started != nil {
		started <- parentID
	}
	if block != nil {
		<-block
	}
	if fail {
		return nil, errFakeDown
	}

	out := make([]EventRecord, len(events))
	copy(out, events)
	return out, nil
}

// addParent registra el historial de un parent y mete sus eventos en la
// ventana record-level, como haría el core.
func (f *fakeSource) addParent(stubCode string, events ...EventRecord) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, e := range events {
		e.ParentCode = stubCode
		f.records = append(f.records, e)
		f.histories[e.ParentID] = append(f.histories[e.ParentID], e)
	}
}

// distinctFake implementa además DistinctLister (camino eager-grouped).
type distinctFake struct {
	fakeSource

	stubs []ParentStub
	total int

	gotOffset int
	gotLimit  int
}

func (f *distinctFake) DistinctParents(ctx context.Context, q Query, offset, limit int) ([]ParentStub, int, error) {
	f.gotOffset = offset
	f.gotLimit = limit

	end := offset + limit
	if offset > len(f.stubs) {
		offset = len(f.stubs)
	}
	if end > len(f.stubs) {
		end = len(f.stubs)
	}
	return f.stubs[offset:end], f.total, nil
}

// -------------------------
// Helpers de construcción
// -------------------------

func at(hour, min int) time.Time {
	return time.Date(2026, 3, 10, hour, min, 0, 0, time.UTC)
}

func ev(id, parentID, code string, action Action, date time.Time) EventRecord {
	return EventRecord{
		ID:         id,
		ParentID:   parentID,
		ParentCode: code,
		Action:     action,
		ActionDate: date,
		PerformedBy: Performer{
			ID:    "u-1",
			Name:  "Dr. Lan",
			Email: "lan@fmcs.local",
		},
	}
}
