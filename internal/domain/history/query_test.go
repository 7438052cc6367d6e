package history

import (
	"testing"
	"time"
)

func TestNormalizeDefaults(t *testing.T) {
	q := Normalize(RawFilters{})

	if q.Kind != KindHealthCheckResult {
		t.Fatalf("kind esperado %q, vino %q", KindHealthCheckResult, q.Kind)
	}
	if q.Sort != SortActionDate {
		t.Fatalf("sort esperado %q, vino %q", SortActionDate, q.Sort)
	}
	if q.Ascending {
		t.Fatalf("orden default tiene que ser desc")
	}
	if q.HasFilters() {
		t.Fatalf("query vacía no debería reportar filtros activos")
	}
}

func TestNormalizeUppercasesActions(t *testing.T) {
	q := Normalize(RawFilters{Actions: []string{" approved ", "created", ""}})

	if len(q.Actions) != 2 {
		t.Fatalf("acciones esperadas 2, vinieron %d", len(q.Actions))
	}
	if q.Actions[0] != ActionApproved || q.Actions[1] != ActionCreated {
		t.Fatalf("acciones mal normalizadas: %v", q.Actions)
	}
}

func TestHasFiltersIgnoresSortAndKind(t *testing.T) {
	q := Normalize(RawFilters{Kind: "treatment-plan", SortField: "parent_code", Order: "asc"})
	if q.HasFilters() {
		t.Fatalf("kind+sort no cuentan como filtro")
	}

	q.Performer = "lan"
	if !q.HasFilters() {
		t.Fatalf("performer sí cuenta como filtro")
	}
}

func TestQueryEqual(t *testing.T) {
	from := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	a := Normalize(RawFilters{Actions: []string{"APPROVED"}, From: &from})

	fromCopy := from
	b := Normalize(RawFilters{Actions: []string{"APPROVED"}, From: &fromCopy})
	if !a.Equal(b) {
		t.Fatalf("queries equivalentes tienen que ser iguales (From por valor)")
	}

	b.Actions = []Action{ActionCancelled}
	if a.Equal(b) {
		t.Fatalf("acciones distintas no pueden ser iguales")
	}

	c := a
	c.From = nil
	if a.Equal(c) {
		t.Fatalf("From nil vs seteado no pueden ser iguales")
	}
}

func TestMatchesFilters(t *testing.T) {
	e := ev("e1", "p1", "HC-001", ActionApproved, at(10, 0))
	e.PreviousStatus = "PENDING"
	e.NewStatus = "APPROVED"

	cases := []struct {
		name string
		q    Query
		want bool
	}{
		{"sin filtros", Query{}, true},
		{"accion match", Query{Actions: []Action{ActionApproved}}, true},
		{"accion no match", Query{Actions: []Action{ActionCancelled}}, false},
		{"performer por nombre, case-insensitive", Query{Performer: "dr. lan"}, true},
		{"performer por email", Query{Performer: "LAN@FMCS"}, true},
		{"performer no match", Query{Performer: "garcia"}, false},
		{"code substring", Query{ParentCode: "hc-0"}, true},
		{"code no match", Query{ParentCode: "TP-"}, false},
		{"status from", Query{StatusFrom: "PENDING"}, true},
		{"status to no match", Query{StatusTo: "CANCELLED"}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.q.Matches(e); got != tc.want {
				t.Fatalf("Matches = %v, esperado %v", got, tc.want)
			}
		})
	}
}

func TestMatchesDateRange(t *testing.T) {
	e := ev("e1", "p1", "HC-001", ActionCreated, at(10, 0))

	early := at(9, 0)
	late := at(11, 0)

	q := Query{From: &early, To: &late}
	if !q.Matches(e) {
		t.Fatalf("evento dentro del rango tiene que matchear")
	}

	q = Query{From: &late}
	if q.Matches(e) {
		t.Fatalf("evento anterior a From no puede matchear")
	}

	q = Query{To: &early}
	if q.Matches(e) {
		t.Fatalf("evento posterior a To no puede matchear")
	}
}
