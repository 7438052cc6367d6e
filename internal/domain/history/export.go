package history

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/locthdzev/fmcs-fe-sub005/internal/platform/metrics"
)

type ExportScope string

const (
	// ScopeCurrentPage reusa los grupos ya hidratados de la página actual:
	// cero llamadas de red.
	ScopeCurrentPage ExportScope = "current_page"
	// ScopeAllMatching re-corre paginate+hydrate con página "sin límite"
	// (capada por la ventana) ignorando la posición actual de la UI.
	ScopeAllMatching ExportScope = "all_matching"
)

type ExportFormat string

const (
	FormatCSV  ExportFormat = "csv"
	FormatJSON ExportFormat = "json"
)

// ExportColumns son los flags de inclusión por columna.
type ExportColumns struct {
	ParentCode      bool
	LinkedCode      bool
	Action          bool
	ActionDate      bool
	Performer       bool
	PerformerEmail  bool
	StatusChange    bool
	ChangeDetails   bool
	RejectionReason bool
}

func DefaultColumns() ExportColumns {
	return ExportColumns{
		ParentCode:      true,
		LinkedCode:      true,
		Action:          true,
		ActionDate:      true,
		Performer:       true,
		PerformerEmail:  true,
		StatusChange:    true,
		ChangeDetails:   true,
		RejectionReason: true,
	}
}

func (c ExportColumns) any() bool {
	return c.ParentCode || c.LinkedCode || c.Action || c.ActionDate ||
		c.Performer || c.PerformerEmail || c.StatusChange ||
		c.ChangeDetails || c.RejectionReason
}

type ExportConfig struct {
	Scope   ExportScope
	Format  ExportFormat
	Columns ExportColumns
}

// ValidationError es un rechazo pre-I/O con mensaje accionable para la UI.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

func IsValidationError(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

// ExportResult describe el artefacto producido.
type ExportResult struct {
	Filename    string
	ContentType string

	// Truncated: el scope all_matching llenó la ventana de registros y el
	// export puede estar incompleto.
	Truncated bool
}

// Exporter arma el reporte tabular: una fila por EventRecord (no por grupo),
// con el parent code repetido por fila para que el flatten siga siendo
// analizable en una planilla. Nunca muta la Page viva: lee un snapshot o
// materializa un result set descartable propio.
type Exporter struct {
	paginator *Paginator
	hydrator  *Hydrator
	window    int
	now       func() time.Time
}

func NewExporter(source EventSource, windowSize int) *Exporter {
	if windowSize <= 0 {
		windowSize = DefaultWindowSize
	}
	return &Exporter{
		paginator: NewPaginator(source, windowSize),
		hydrator:  NewHydrator(source),
		window:    windowSize,
		now:       time.Now,
	}
}

// Write valida, materializa el scope y escribe el reporte en w.
// Guard: current_page sin ningún filtro activo se rechaza antes de cualquier
// I/O — esa combinación es indistinguible de "quise exportar todo y no lo
// dije".
func (e *Exporter) Write(ctx context.Context, cfg ExportConfig, q Query, current *Page, w io.Writer) (ExportResult, error) {
	if cfg.Scope == "" {
		cfg.Scope = ScopeCurrentPage
	}
	if cfg.Format == "" {
		cfg.Format = FormatCSV
	}
	if !cfg.Columns.any() {
		cfg.Columns = DefaultColumns()
	}

	if cfg.Scope == ScopeCurrentPage && !q.HasFilters() {
		return ExportResult{}, &ValidationError{
			Msg: "current-page export requires at least one active filter; switch the scope to all-matching to export everything",
		}
	}

	var (
		groups    []Group
		truncated bool
	)

	switch cfg.Scope {
	case ScopeCurrentPage:
		if current == nil {
			return ExportResult{}, &ValidationError{Msg: "no hydrated page available to export"}
		}
		groups = current.Groups
	case ScopeAllMatching:
		var err error
		groups, truncated, err = e.materializeAll(ctx, q)
		if err != nil {
			return ExportResult{}, fmt.Errorf("export materialize: %w", err)
		}
	default:
		return ExportResult{}, &ValidationError{Msg: fmt.Sprintf("unknown export scope %q", cfg.Scope)}
	}

	res := ExportResult{
		Filename: fmt.Sprintf("audit_history_%s_%s.%s",
			q.Kind, e.now().UTC().Format("20060102_150405"), cfg.Format),
		Truncated: truncated,
	}

	switch cfg.Format {
	case FormatJSON:
		res.ContentType = "application/json"
		if err := writeJSONRows(w, cfg.Columns, groups); err != nil {
			return ExportResult{}, err
		}
	default:
		res.ContentType = "text/csv"
		if err := writeCSVRows(w, cfg.Columns, groups); err != nil {
			return ExportResult{}, err
		}
	}

	metrics.ExportsBuilt.WithLabelValues(string(q.Kind), string(cfg.Scope)).Inc()
	return res, nil
}

// materializeAll re-corre el pipeline con pageSize = ventana completa.
// Grupos cuyo historial falla quedan sin filas; no cortan el export.
func (e *Exporter) materializeAll(ctx context.Context, q Query) ([]Group, bool, error) {
	stubs, _, capped, err := e.paginator.Paginate(ctx, q, 1, e.window)
	if err != nil {
		return nil, false, err
	}

	groups := make([]Group, len(stubs))
	byID := make(map[string]int, len(stubs))
	var mu sync.Mutex
	for i, s := range stubs {
		groups[i] = Group{Stub: s, State: HydrationPending}
		byID[s.ParentID] = i
	}

	e.hydrator.Hydrate(ctx, q.Kind, stubs, func(res HydrateResult) MergeOutcome {
		mu.Lock()
		defer mu.Unlock()
		i, ok := byID[res.ParentID]
		if !ok {
			return MergeStale
		}
		if res.Err != nil {
			groups[i].State = HydrationFailed
			groups[i].Events = []EventRecord{}
			return MergeApplied
		}
		events := make([]EventRecord, len(res.Events))
		copy(events, res.Events)
		SortEvents(events, q.Ascending)
		groups[i].Events = events
		groups[i].State = HydrationLoaded
		return MergeApplied
	})

	Reorder(groups, q.Ascending)
	return groups, capped, nil
}

func columnHeaders(c ExportColumns) []string {
	var h []string
	if c.ParentCode {
		h = append(h, "parent_code")
	}
	if c.LinkedCode {
		h = append(h, "linked_code")
	}
	if c.Action {
		h = append(h, "action")
	}
	if c.ActionDate {
		h = append(h, "action_date")
	}
	if c.Performer {
		h = append(h, "performed_by")
	}
	if c.PerformerEmail {
		h = append(h, "performer_email")
	}
	if c.StatusChange {
		h = append(h, "status_change")
	}
	if c.ChangeDetails {
		h = append(h, "change_details")
	}
	if c.RejectionReason {
		h = append(h, "rejection_reason")
	}
	return h
}

func rowValues(c ExportColumns, g Group, e EventRecord) []string {
	var row []string
	if c.ParentCode {
		row = append(row, g.Stub.ParentCode)
	}
	if c.LinkedCode {
		linked := ""
		if g.Stub.Linked != nil {
			linked = g.Stub.Linked.Code
		}
		row = append(row, linked)
	}
	if c.Action {
		row = append(row, string(e.Action))
	}
	if c.ActionDate {
		row = append(row, e.ActionDate.Format(time.RFC3339))
	}
	if c.Performer {
		row = append(row, e.PerformedBy.Name)
	}
	if c.PerformerEmail {
		row = append(row, e.PerformedBy.Email)
	}
	if c.StatusChange {
		row = append(row, statusChange(e))
	}
	if c.ChangeDetails {
		row = append(row, e.ChangeDetails)
	}
	if c.RejectionReason {
		row = append(row, e.RejectionReason)
	}
	return row
}

func statusChange(e EventRecord) string {
	if e.PreviousStatus == "" && e.NewStatus == "" {
		return ""
	}
	return fmt.Sprintf("%s -> %s", e.PreviousStatus, e.NewStatus)
}

func writeCSVRows(w io.Writer, cols ExportColumns, groups []Group) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write(columnHeaders(cols)); err != nil {
		return fmt.Errorf("export csv: write header: %w", err)
	}
	for _, g := range groups {
		for _, e := range g.Events {
			if err := cw.Write(rowValues(cols, g, e)); err != nil {
				return fmt.Errorf("export csv: write row: %w", err)
			}
		}
	}
	cw.Flush()
	return cw.Error()
}

func writeJSONRows(w io.Writer, cols ExportColumns, groups []Group) error {
	headers := columnHeaders(cols)
	rows := make([]map[string]string, 0)
	for _, g := range groups {
		for _, e := range g.Events {
			values := rowValues(cols, g, e)
			row := make(map[string]string, len(headers))
			for i, h := range headers {
				row[h] = values[i]
			}
			rows = append(rows, row)
		}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(rows); err != nil {
		return fmt.Errorf("export json: %w", err)
	}
	return nil
}
