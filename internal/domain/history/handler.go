package history

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service) {
	r.Route("/history/{kind}", func(hr chi.Router) {
		hr.Get("/", getHistoryPageHandler(svc))
		hr.Get("/export", exportHistoryHandler(svc))
	})
}

// eventResponse representa un evento de auditoría devuelto por la API.
type eventResponse struct {
	ID              string    `json:"id"`
	Action          Action    `json:"action" enums:"CREATED,UPDATED,APPROVED,CANCELLED,RESTORED,SOFT_DELETED,AUTO_COMPLETED"`
	ActionDate      time.Time `json:"action_date"`
	PerformedByID   string    `json:"performed_by_id"`
	PerformedBy     string    `json:"performed_by"`
	PerformerEmail  string    `json:"performer_email,omitempty"`
	PreviousStatus  Status    `json:"previous_status,omitempty"`
	NewStatus       Status    `json:"new_status,omitempty"`
	ChangeDetails   string    `json:"change_details,omitempty"`
	RejectionReason string    `json:"rejection_reason,omitempty"`
}

type linkedResponse struct {
	ID   string     `json:"id"`
	Code string     `json:"code"`
	Kind ParentKind `json:"kind"`
}

// groupResponse es un parent con su historial completo y el estado de
// hidratación de ese historial.
type groupResponse struct {
	ParentID   string          `json:"parent_id"`
	ParentCode string          `json:"parent_code"`
	Linked     *linkedResponse `json:"linked,omitempty"`
	State      HydrationState  `json:"hydration_state"`
	Events     []eventResponse `json:"events"`
}

type pageResponse struct {
	Groups               []groupResponse `json:"groups"`
	PageIndex            int             `json:"page_index"`
	PageSize             int             `json:"page_size"`
	TotalDistinctParents int             `json:"total_distinct_parents"`
	WindowCapped         bool            `json:"window_capped"`
	HydrationState       HydrationState  `json:"hydration_state"`
}

// getHistoryPageHandler godoc
// @Summary Historial agrupado por parent
// @Description Devuelve una página de grupos (un parent con su historial completo), ordenados por recencia del último evento de cada grupo. Filtros: acciones, performer, código, par de estados, rango de fechas.
// @Tags history
// @Produce json
// @Param kind path string true "Tipo de parent" Enums(health-check-result,treatment-plan)
// @Param page query int false "Página (1-based). Default 1"
// @Param page_size query int false "Grupos por página (1-100). Default 10"
// @Param actions query string false "Lista CSV de acciones (ej: APPROVED,CANCELLED)"
// @Param performer query string false "Substring de nombre/email de quien ejecutó"
// @Param code query string false "Substring del código del parent"
// @Param status_from query string false "Estado previo exacto"
// @Param status_to query string false "Estado nuevo exacto"
// @Param from query string false "ActionDate mínimo (RFC3339)"
// @Param to query string false "ActionDate máximo (RFC3339)"
// @Param sort query string false "Campo de orden" Enums(action_date,parent_code)
// @Param order query string false "asc o desc. Default desc"
// @Success 200 {object} pageResponse
// @Failure 400 {string} string "kind desconocido / filtros inválidos"
// @Failure 502 {string} string "backing store no disponible"
// @Router /history/{kind} [get]
func getHistoryPageHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q, err := queryFromRequest(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		pageIndex, pageSize := parsePaging(r)

		page, err := svc.GetPage(r.Context(), q, pageIndex, pageSize)
		if err != nil {
			http.Error(w, "backing store unavailable", http.StatusBadGateway)
			return
		}

		writeJSON(w, http.StatusOK, toPageResponse(page))
	}
}

// exportHistoryHandler godoc
// @Summary Exportar historial de auditoría
// @Description Exporta el historial como CSV o JSON, una fila por evento con el código del parent repetido. Scope current_page reusa la página hidratada; all_matching materializa todo lo que matchea la query. current_page sin ningún filtro activo se rechaza con 400.
// @Tags history
// @Produce text/csv
// @Param kind path string true "Tipo de parent" Enums(health-check-result,treatment-plan)
// @Param scope query string false "current_page o all_matching. Default current_page"
// @Param format query string false "csv o json. Default csv"
// @Param columns query string false "Lista CSV de columnas a incluir (default todas): parent_code,linked_code,action,action_date,performed_by,performer_email,status_change,change_details,rejection_reason"
// @Param page query int false "Página a exportar cuando scope=current_page"
// @Param page_size query int false "Tamaño de página cuando scope=current_page"
// @Success 200 {string} string "archivo adjunto"
// @Failure 400 {string} string "guard de scope / parámetros inválidos"
// @Failure 502 {string} string "backing store no disponible"
// @Router /history/{kind}/export [get]
func exportHistoryHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q, err := queryFromRequest(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		pageIndex, pageSize := parsePaging(r)
		cfg := parseExportConfig(r)

		// Buffer en memoria: el guard y los errores de upstream tienen que
		// poder responder un status limpio, no un attachment a medias.
		var buf strings.Builder
		res, err := svc.Export(r.Context(), cfg, q, pageIndex, pageSize, &buf)
		if err != nil {
			if IsValidationError(err) {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			http.Error(w, "backing store unavailable", http.StatusBadGateway)
			return
		}

		w.Header().Set("Content-Type", res.ContentType)
		w.Header().Set("Content-Disposition", `attachment; filename="`+res.Filename+`"`)
		if res.Truncated {
			w.Header().Set("X-Export-Truncated", "true")
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(buf.String()))
	}
}

func queryFromRequest(r *http.Request) (Query, error) {
	kind := chi.URLParam(r, "kind")
	if _, ok := ParseKind(kind); !ok {
		return Query{}, errors.New("unknown history kind")
	}

	raw := RawFilters{
		Kind:       kind,
		Performer:  r.URL.Query().Get("performer"),
		ParentCode: r.URL.Query().Get("code"),
		StatusFrom: r.URL.Query().Get("status_from"),
		StatusTo:   r.URL.Query().Get("status_to"),
		SortField:  r.URL.Query().Get("sort"),
		Order:      r.URL.Query().Get("order"),
	}

	if v := strings.TrimSpace(r.URL.Query().Get("actions")); v != "" {
		raw.Actions = strings.Split(v, ",")
	}

	if v := strings.TrimSpace(r.URL.Query().Get("from")); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return Query{}, errors.New("from must be RFC3339")
		}
		raw.From = &t
	}
	if v := strings.TrimSpace(r.URL.Query().Get("to")); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return Query{}, errors.New("to must be RFC3339")
		}
		raw.To = &t
	}

	return Normalize(raw), nil
}

func parsePaging(r *http.Request) (pageIndex, pageSize int) {
	pageIndex, pageSize = 1, 10
	if v := r.URL.Query().Get("page"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 1 {
			pageIndex = n
		}
	}
	if v := r.URL.Query().Get("page_size"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 1 && n <= 100 {
			pageSize = n
		}
	}
	return pageIndex, pageSize
}

func parseExportConfig(r *http.Request) ExportConfig {
	cfg := ExportConfig{
		Scope:   ExportScope(strings.TrimSpace(r.URL.Query().Get("scope"))),
		Format:  ExportFormat(strings.TrimSpace(r.URL.Query().Get("format"))),
		Columns: DefaultColumns(),
	}

	// columns=parent_code,action,... => solo esas quedan prendidas.
	if v := strings.TrimSpace(r.URL.Query().Get("columns")); v != "" {
		cols := ExportColumns{}
		for _, c := range strings.Split(v, ",") {
			switch strings.TrimSpace(c) {
			case "parent_code":
				cols.ParentCode = true
			case "linked_code":
				cols.LinkedCode = true
			case "action":
				cols.Action = true
			case "action_date":
				cols.ActionDate = true
			case "performed_by":
				cols.Performer = true
			case "performer_email":
				cols.PerformerEmail = true
			case "status_change":
				cols.StatusChange = true
			case "change_details":
				cols.ChangeDetails = true
			case "rejection_reason":
				cols.RejectionReason = true
			}
		}
		cfg.Columns = cols
	}

	return cfg
}

func toPageResponse(p Page) pageResponse {
	groups := make([]groupResponse, 0, len(p.Groups))
	for _, g := range p.Groups {
		events := make([]eventResponse, 0, len(g.Events))
		for _, e := range g.Events {
			events = append(events, eventResponse{
				ID:              e.ID,
				Action:          e.Action,
				ActionDate:      e.ActionDate,
				PerformedByID:   e.PerformedBy.ID,
				PerformedBy:     e.PerformedBy.Name,
				PerformerEmail:  e.PerformedBy.Email,
				PreviousStatus:  e.PreviousStatus,
				NewStatus:       e.NewStatus,
				ChangeDetails:   e.ChangeDetails,
				RejectionReason: e.RejectionReason,
			})
		}

		gr := groupResponse{
			ParentID:   g.Stub.ParentID,
			ParentCode: g.Stub.ParentCode,
			State:      g.State,
			Events:     events,
		}
		if g.Stub.Linked != nil {
			gr.Linked = &linkedResponse{
				ID:   g.Stub.Linked.ID,
				Code: g.Stub.Linked.Code,
				Kind: g.Stub.Linked.Kind,
			}
		}
		groups = append(groups, gr)
	}

	return pageResponse{
		Groups:               groups,
		PageIndex:            p.PageIndex,
		PageSize:             p.PageSize,
		TotalDistinctParents: p.TotalDistinctParents,
		WindowCapped:         p.WindowCapped,
		HydrationState:       p.HydrationState(),
	}
}

// writeJSON está duplicado a propósito en handlers de distintos módulos
// para no crear helpers compartidos antes de tiempo.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
