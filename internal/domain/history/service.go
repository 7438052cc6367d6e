package history

import (
	"context"
	"io"

	"github.com/locthdzev/fmcs-fe-sub005/internal/platform/logger"
)

// Service es la fachada del módulo para los handlers: una página agrupada
// por request, y el export sobre la misma query.
type Service struct {
	source EventSource
	log    logger.Logger
	window int
	notify Notifier
}

func NewService(source EventSource, log logger.Logger, windowSize int) *Service {
	if windowSize <= 0 {
		windowSize = DefaultWindowSize
	}
	return &Service{source: source, log: log, window: windowSize}
}

// SetNotifier instala el hook para fallas group-partial (opcional).
func (s *Service) SetNotifier(n Notifier) {
	s.notify = n
}

// GetPage corre el pipeline completo para una query y posición dadas y
// devuelve el snapshot resultante.
func (s *Service) GetPage(ctx context.Context, q Query, pageIndex, pageSize int) (Page, error) {
	ctl := NewController(s.source, s.log, WithWindowSize(s.window), WithNotifier(s.notify))
	if err := ctl.Load(ctx, q, pageIndex, pageSize); err != nil {
		return Page{}, err
	}
	page, _, err := ctl.Snapshot()
	return page, err
}

// Export escribe el reporte en w. Para scope current_page primero valida el
// guard (sin I/O) y recién después hidrata la página que se va a reusar.
func (s *Service) Export(ctx context.Context, cfg ExportConfig, q Query, pageIndex, pageSize int, w io.Writer) (ExportResult, error) {
	exp := NewExporter(s.source, s.window)

	var current *Page
	if (cfg.Scope == "" || cfg.Scope == ScopeCurrentPage) && q.HasFilters() {
		page, err := s.GetPage(ctx, q, pageIndex, pageSize)
		if err != nil {
			return ExportResult{}, err
		}
		current = &page
	}

	return exp.Write(ctx, cfg, q, current, w)
}
