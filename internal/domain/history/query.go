package history

import (
	"strings"
	"time"
)

// RawFilters es el filtro tal como llega de la UI (todo opcional, sin
// normalizar). Normalize lo convierte al descriptor canónico Query.
type RawFilters struct {
	Kind       string
	Actions    []string
	Performer  string
	ParentCode string
	StatusFrom string
	StatusTo   string
	From       *time.Time
	To         *time.Time
	SortField  string
	Order      string // "asc" | "desc"
}

// Query es el descriptor canónico de filtro+orden que comparten el
// paginator, el hydrator y el export. Dos Query son iguales sii todos sus
// campos lo son; la igualdad se usa para detectar fetches obsoletos.
type Query struct {
	Kind       ParentKind
	Actions    []Action
	Performer  string
	ParentCode string
	StatusFrom Status
	StatusTo   Status
	From       *time.Time
	To         *time.Time
	Sort       SortField
	Ascending  bool
}

// Normalize nunca falla: campo no seteado = sin restricción, orden default
// action_date desc.
func Normalize(raw RawFilters) Query {
	q := Query{
		Performer:  strings.TrimSpace(raw.Performer),
		ParentCode: strings.TrimSpace(raw.ParentCode),
		StatusFrom: Status(strings.TrimSpace(raw.StatusFrom)),
		StatusTo:   Status(strings.TrimSpace(raw.StatusTo)),
		From:       raw.From,
		To:         raw.To,
	}

	if k, ok := ParseKind(strings.TrimSpace(raw.Kind)); ok {
		q.Kind = k
	} else {
		q.Kind = KindHealthCheckResult
	}

	for _, a := range raw.Actions {
		a = strings.TrimSpace(a)
		if a == "" {
			continue
		}
		q.Actions = append(q.Actions, Action(strings.ToUpper(a)))
	}

	switch SortField(strings.TrimSpace(raw.SortField)) {
	case SortParentCode:
		q.Sort = SortParentCode
	default:
		q.Sort = SortActionDate
	}

	q.Ascending = strings.EqualFold(strings.TrimSpace(raw.Order), "asc")

	return q
}

func (q Query) Equal(o Query) bool {
	if q.Kind != o.Kind ||
		q.Performer != o.Performer ||
		q.ParentCode != o.ParentCode ||
		q.StatusFrom != o.StatusFrom ||
		q.StatusTo != o.StatusTo ||
		q.Sort != o.Sort ||
		q.Ascending != o.Ascending {
		return false
	}
	if !timePtrEqual(q.From, o.From) || !timePtrEqual(q.To, o.To) {
		return false
	}
	if len(q.Actions) != len(o.Actions) {
		return false
	}
	for i := range q.Actions {
		if q.Actions[i] != o.Actions[i] {
			return false
		}
	}
	return true
}

// HasFilters reporta si hay al menos un filtro de campo activo.
// El orden (Sort/Ascending) y el Kind no cuentan: el guard de export los
// ignora porque no acotan el resultado.
func (q Query) HasFilters() bool {
	return len(q.Actions) > 0 ||
		q.Performer != "" ||
		q.ParentCode != "" ||
		q.StatusFrom != "" ||
		q.StatusTo != "" ||
		q.From != nil ||
		q.To != nil
}

// Matches evalúa los filtros de campo contra un registro. Lo usan los
// sources que filtran en memoria; los sources SQL filtran en la query.
func (q Query) Matches(e EventRecord) bool {
	if len(q.Actions) > 0 {
		found := false
		for _, a := range q.Actions {
			if e.Action == a {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if q.Performer != "" {
		hay := strings.ToLower(e.PerformedBy.Name + " " + e.PerformedBy.Email)
		if !strings.Contains(hay, strings.ToLower(q.Performer)) {
			return false
		}
	}
	if q.ParentCode != "" {
		if !strings.Contains(strings.ToLower(e.ParentCode), strings.ToLower(q.ParentCode)) {
			return false
		}
	}
	if q.StatusFrom != "" && e.PreviousStatus != q.StatusFrom {
		return false
	}
	if q.StatusTo != "" && e.NewStatus != q.StatusTo {
		return false
	}
	if q.From != nil && e.ActionDate.Before(*q.From) {
		return false
	}
	if q.To != nil && e.ActionDate.After(*q.To) {
		return false
	}
	return true
}

func timePtrEqual(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}
