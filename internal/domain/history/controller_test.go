package history

import (
	"context"
	"sync"
	"testing"

	"github.com/locthdzev/fmcs-fe-sub005/internal/platform/logger"
)

// Escenario completo: filtro por acción, página chica, un parent cuya última
// actividad es posterior a su evento filtrado. El slice de página se decide
// antes de hidratar; la recencia reordena después, sin traer parents de otra
// página.
func TestControllerEndToEnd(t *testing.T) {
	f := newFakeSource()
	f.addParent("HC-A",
		ev("a1", "pa", "HC-A", ActionCreated, at(8, 0)),
		ev("a2", "pa", "HC-A", ActionApproved, at(10, 0)),
	)
	f.addParent("HC-B",
		ev("b1", "pb", "HC-B", ActionApproved, at(9, 0)),
	)
	f.addParent("HC-C",
		ev("c1", "pc", "HC-C", ActionApproved, at(9, 30)),
		ev("c2", "pc", "HC-C", ActionUpdated, at(11, 0)),
	)

	ctl := NewController(f, logger.Nop())
	q := Normalize(RawFilters{Actions: []string{"APPROVED"}})

	if err := ctl.Load(context.Background(), q, 1, 2); err != nil {
		t.Fatalf("load falló: %v", err)
	}

	page, state, err := ctl.Snapshot()
	if err != nil {
		t.Fatalf("error inesperado: %v", err)
	}
	if state != StateReady {
		t.Fatalf("estado esperado ready, vino %s", state)
	}
	if page.TotalDistinctParents != 3 {
		t.Fatalf("total esperado 3, vino %d", page.TotalDistinctParents)
	}
	if len(page.Groups) != 2 {
		t.Fatalf("grupos esperados 2, vinieron %d", len(page.Groups))
	}

	// La página es [A, C] (por fecha del evento APPROVED); el update de C a
	// las 11:00 lo sube arriba de A en el reorder por recencia.
	if page.Groups[0].Stub.ParentCode != "HC-C" || page.Groups[1].Stub.ParentCode != "HC-A" {
		t.Fatalf("orden esperado [HC-C, HC-A], vino %v", orderOf(page.Groups))
	}
	if page.HydrationState() != HydrationLoaded {
		t.Fatalf("página completa tiene que reportar loaded")
	}

	// El historial hidratado es completo (incluye eventos fuera del filtro)
	// y viene ordenado desc para display.
	c := page.Groups[0]
	if len(c.Events) != 2 || c.Events[0].ID != "c2" {
		t.Fatalf("historial de HC-C esperado [c2, c1], vino %+v", c.Events)
	}

	// B quedó en la página 2: nunca se hidrató.
	if f.fetchHistoryCalls != 2 {
		t.Fatalf("hidrataciones esperadas 2 (solo la página), vinieron %d", f.fetchHistoryCalls)
	}
}

func TestControllerStates(t *testing.T) {
	f := newFakeSource()
	ctl := NewController(f, logger.Nop())

	if _, state, _ := ctl.Snapshot(); state != StateIdle {
		t.Fatalf("antes del primer load el estado es idle, vino %s", state)
	}

	if err := ctl.SetQuery(context.Background(), Query{Kind: KindHealthCheckResult}); err != nil {
		t.Fatalf("load vacío no puede fallar: %v", err)
	}
	page, state, _ := ctl.Snapshot()
	if state != StateReady {
		t.Fatalf("estado esperado ready, vino %s", state)
	}
	if len(page.Groups) != 0 || page.TotalDistinctParents != 0 {
		t.Fatalf("source vacío da página vacía, vino %+v", page)
	}
}

func TestControllerPageFatal(t *testing.T) {
	f := newFakeSource()
	f.eventsErr = errFakeDown
	ctl := NewController(f, logger.Nop())

	if err := ctl.SetQuery(context.Background(), Query{Kind: KindHealthCheckResult}); err == nil {
		t.Fatalf("falla del paginator tiene que propagar")
	}

	page, state, err := ctl.Snapshot()
	if state != StateFailed {
		t.Fatalf("estado esperado failed, vino %s", state)
	}
	if err == nil {
		t.Fatalf("el snapshot tiene que exponer el error page-fatal")
	}
	if len(page.Groups) != 0 {
		t.Fatalf("no se muestra página parcial en falla page-fatal")
	}
}

func TestControllerGroupPartialFailure(t *testing.T) {
	f := newFakeSource()
	seedThreeParents(f)
	f.failParents["pb"] = true

	var mu sync.Mutex
	var notified []string
	ctl := NewController(f, logger.Nop(), WithNotifier(func(parentID string, err error) {
		mu.Lock()
		defer mu.Unlock()
		notified = append(notified, parentID)
	}))

	if err := ctl.SetQuery(context.Background(), Query{Kind: KindHealthCheckResult}); err != nil {
		t.Fatalf("una falla group-partial no es page-fatal: %v", err)
	}

	page, state, _ := ctl.Snapshot()
	if state != StateReady {
		t.Fatalf("estado esperado ready, vino %s", state)
	}

	var failed, loaded int
	for _, g := range page.Groups {
		switch g.State {
		case HydrationFailed:
			failed++
			if g.Stub.ParentID != "pb" {
				t.Fatalf("el grupo fallido tiene que ser pb, vino %s", g.Stub.ParentID)
			}
			if len(g.Events) != 0 {
				t.Fatalf("grupo fallido no puede retener eventos")
			}
		case HydrationLoaded:
			loaded++
		}
	}
	if failed != 1 || loaded != 2 {
		t.Fatalf("esperado 1 fallido y 2 cargados, vino %d/%d", failed, loaded)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(notified) != 1 || notified[0] != "pb" {
		t.Fatalf("notificación esperada para pb, vino %v", notified)
	}
}

// Una query nueva supera a la anterior: las respuestas de hidratación de la
// generación vieja se descartan y el estado final refleja solo la última.
func TestControllerStaleGenerationDropped(t *testing.T) {
	f := newFakeSource()
	seedThreeParents(f)

	release := make(chan struct{})
	f.blockParents["pa"] = release
	f.historyStarted = make(chan string, 1)

	ctl := NewController(f, logger.Nop())

	q1 := Normalize(RawFilters{ParentCode: "HC-A"})
	q2 := Normalize(RawFilters{ParentCode: "HC-C"})

	done := make(chan error, 1)
	go func() {
		done <- ctl.SetQuery(context.Background(), q1)
	}()

	// Esperamos a que la hidratación de q1 esté en vuelo antes de pisarla.
	<-f.historyStarted

	if err := ctl.SetQuery(context.Background(), q2); err != nil {
		t.Fatalf("q2 falló: %v", err)
	}
	close(release)

	if err := <-done; err != nil {
		t.Fatalf("el rebuild superado retorna nil, vino %v", err)
	}

	page, state, _ := ctl.Snapshot()
	if state != StateReady {
		t.Fatalf("estado esperado ready, vino %s", state)
	}
	if len(page.Groups) != 1 || page.Groups[0].Stub.ParentCode != "HC-C" {
		t.Fatalf("la página publicada tiene que ser la de q2, vino %v", orderOf(page.Groups))
	}
	if !ctl.CurrentQuery().Equal(q2) {
		t.Fatalf("la query vigente tiene que ser q2")
	}
}

func TestSetPageNavigates(t *testing.T) {
	f := newFakeSource()
	seedThreeParents(f)
	ctl := NewController(f, logger.Nop())

	q := Query{Kind: KindHealthCheckResult}
	if err := ctl.Load(context.Background(), q, 1, 2); err != nil {
		t.Fatalf("load falló: %v", err)
	}
	if err := ctl.SetPage(context.Background(), 2, 2); err != nil {
		t.Fatalf("setpage falló: %v", err)
	}

	page, state, _ := ctl.Snapshot()
	if state != StateReady {
		t.Fatalf("estado esperado ready, vino %s", state)
	}
	if page.PageIndex != 2 || page.TotalDistinctParents != 3 {
		t.Fatalf("página 2 de 3 parents, vino index=%d total=%d",
			page.PageIndex, page.TotalDistinctParents)
	}
	if len(page.Groups) != 1 || page.Groups[0].Stub.ParentCode != "HC-B" {
		t.Fatalf("página 2 esperaba [HC-B], vino %v", orderOf(page.Groups))
	}

	// SetQuery vuelve a la página 1.
	if err := ctl.SetQuery(context.Background(), q); err != nil {
		t.Fatalf("setquery falló: %v", err)
	}
	page, _, _ = ctl.Snapshot()
	if page.PageIndex != 1 {
		t.Fatalf("cambio de query tiene que volver a la página 1, vino %d", page.PageIndex)
	}
}

func TestSnapshotIsACopy(t *testing.T) {
	f := newFakeSource()
	seedThreeParents(f)
	ctl := NewController(f, logger.Nop())

	if err := ctl.SetQuery(context.Background(), Query{Kind: KindHealthCheckResult}); err != nil {
		t.Fatalf("load falló: %v", err)
	}

	p1, _, _ := ctl.Snapshot()
	p1.Groups[0].Stub.ParentCode = "HACKED"

	p2, _, _ := ctl.Snapshot()
	if p2.Groups[0].Stub.ParentCode == "HACKED" {
		t.Fatalf("mutar el snapshot no puede tocar la colección viva")
	}
}
