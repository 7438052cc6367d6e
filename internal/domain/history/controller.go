package history

import (
	"context"
	"sync"

	"github.com/locthdzev/fmcs-fe-sub005/internal/platform/logger"
	"github.com/locthdzev/fmcs-fe-sub005/internal/platform/metrics"
)

type State string

const (
	StateIdle       State = "idle"
	StatePaginating State = "paginating"
	StateHydrating  State = "hydrating"
	StateReady      State = "ready"
	StateFailed     State = "failed"
)

// Notifier recibe las fallas group-partial (un historial que no se pudo
// traer). No bloquea la página: los demás grupos siguen resolviendo.
type Notifier func(parentID string, err error)

// Controller es el dueño exclusivo de la Page. Secuencia el pipeline
// paginator → hydrator → reorder y lo re-corre completo en cada cambio de
// query o de página. Cada rebuild lleva un número de generación; cualquier
// respuesta que llegue con una generación vieja se descarta en el merge
// (superar, no encolar).
type Controller struct {
	paginator *Paginator
	hydrator  *Hydrator
	log       logger.Logger
	notify    Notifier

	mu        sync.Mutex
	gen       uint64
	state     State
	query     Query
	pageIndex int
	pageSize  int
	groups    []Group
	byID      map[string]int
	page      Page
	err       error
}

type ControllerOption func(*Controller)

func WithNotifier(n Notifier) ControllerOption {
	return func(c *Controller) { c.notify = n }
}

func WithWindowSize(n int) ControllerOption {
	return func(c *Controller) { c.paginator.windowSize = n }
}

func NewController(source EventSource, log logger.Logger, opts ...ControllerOption) *Controller {
	c := &Controller{
		paginator: NewPaginator(source, DefaultWindowSize),
		hydrator:  NewHydrator(source),
		log:       log,
		state:     StateIdle,
		pageIndex: 1,
		pageSize:  10,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetQuery cambia el descriptor canónico, vuelve a la página 1 y reconstruye.
// Si otra SetQuery/SetPage llega mientras esta corre, esta queda superada y
// retorna nil sin tocar el estado (staleness silencioso, por diseño).
func (c *Controller) SetQuery(ctx context.Context, q Query) error {
	c.mu.Lock()
	c.query = q
	c.pageIndex = 1
	c.mu.Unlock()
	return c.rebuild(ctx)
}

// SetPage navega a otra página (y/o cambia el page size) y reconstruye.
func (c *Controller) SetPage(ctx context.Context, pageIndex, pageSize int) error {
	c.mu.Lock()
	if pageIndex >= 1 {
		c.pageIndex = pageIndex
	}
	if pageSize >= 1 {
		c.pageSize = pageSize
	}
	c.mu.Unlock()
	return c.rebuild(ctx)
}

// Load fija query y posición en un solo rebuild (para usos request-scoped
// donde no hay una sesión viva que navegue de a un cambio por vez).
func (c *Controller) Load(ctx context.Context, q Query, pageIndex, pageSize int) error {
	c.mu.Lock()
	c.query = q
	if pageIndex >= 1 {
		c.pageIndex = pageIndex
	}
	if pageSize >= 1 {
		c.pageSize = pageSize
	}
	c.mu.Unlock()
	return c.rebuild(ctx)
}

// Snapshot devuelve una copia de la página publicada junto con el estado de
// la máquina. Los lectores nunca ven (ni escriben) la colección viva.
func (c *Controller) Snapshot() (Page, State, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	p := c.page
	p.Groups = make([]Group, len(c.groups))
	copy(p.Groups, c.groups)
	return p, c.state, c.err
}

func (c *Controller) CurrentQuery() Query {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.query
}

func (c *Controller) rebuild(ctx context.Context) error {
	c.mu.Lock()
	c.gen++
	gen := c.gen
	q := c.query
	pageIndex, pageSize := c.pageIndex, c.pageSize
	c.state = StatePaginating
	c.err = nil
	c.mu.Unlock()

	stubs, total, capped, err := c.paginator.Paginate(ctx, q, pageIndex, pageSize)

	c.mu.Lock()
	if gen != c.gen {
		c.mu.Unlock()
		return nil
	}
	if err != nil {
		// Page-fatal: no se muestra página parcial.
		c.state = StateFailed
		c.err = err
		c.groups = nil
		c.byID = nil
		c.page = Page{PageIndex: pageIndex, PageSize: pageSize}
		c.mu.Unlock()
		metrics.PaginatorErrors.WithLabelValues(string(q.Kind)).Inc()
		c.log.Error("paginate failed", map[string]any{"kind": q.Kind, "err": err.Error()})
		return err
	}

	groups := make([]Group, len(stubs))
	byID := make(map[string]int, len(stubs))
	for i, s := range stubs {
		groups[i] = Group{Stub: s, State: HydrationPending}
		byID[s.ParentID] = i
	}
	c.groups = groups
	c.byID = byID
	c.page = Page{
		PageIndex:            pageIndex,
		PageSize:             pageSize,
		TotalDistinctParents: total,
		WindowCapped:         capped,
	}
	c.state = StateHydrating
	c.mu.Unlock()

	c.hydrator.Hydrate(ctx, q.Kind, stubs, func(res HydrateResult) MergeOutcome {
		return c.applyHydration(gen, q, res)
	})

	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen {
		return nil
	}
	Reorder(c.groups, q.Ascending)
	c.page.Groups = c.groups
	c.state = StateReady
	metrics.PagesBuilt.WithLabelValues(string(q.Kind)).Inc()
	return nil
}

// applyHydration mergea una respuesta en la colección por ParentID.
// Las respuestas de una generación superada se descartan (MergeStale).
func (c *Controller) applyHydration(gen uint64, q Query, res HydrateResult) MergeOutcome {
	var failed error

	c.mu.Lock()
	if gen != c.gen {
		c.mu.Unlock()
		metrics.StaleDrops.Inc()
		return MergeStale
	}
	i, ok := c.byID[res.ParentID]
	if !ok {
		c.mu.Unlock()
		metrics.StaleDrops.Inc()
		return MergeStale
	}

	if res.Err != nil {
		c.groups[i].State = HydrationFailed
		c.groups[i].Events = []EventRecord{}
		failed = res.Err
	} else {
		events := make([]EventRecord, len(res.Events))
		copy(events, res.Events)
		SortEvents(events, q.Ascending)
		c.groups[i].Events = events
		c.groups[i].State = HydrationLoaded
	}
	c.mu.Unlock()

	if failed != nil {
		metrics.HydrationFailures.WithLabelValues(string(q.Kind)).Inc()
		c.log.Warn("group hydration failed", map[string]any{
			"kind":      q.Kind,
			"parent_id": res.ParentID,
			"err":       failed.Error(),
		})
		if c.notify != nil {
			c.notify(res.ParentID, failed)
		}
	}
	return MergeApplied
}
