package history

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestHydrateDeliversAllResults(t *testing.T) {
	f := newFakeSource()
	seedThreeParents(f)
	h := NewHydrator(f)

	stubs := []ParentStub{
		{ParentID: "pa", ParentCode: "HC-A"},
		{ParentID: "pb", ParentCode: "HC-B"},
		{ParentID: "pc", ParentCode: "HC-C"},
	}

	var mu sync.Mutex
	got := map[string]int{}
	h.Hydrate(context.Background(), KindHealthCheckResult, stubs, func(res HydrateResult) MergeOutcome {
		mu.Lock()
		defer mu.Unlock()
		if res.Err != nil {
			t.Errorf("hidratación de %s falló: %v", res.ParentID, res.Err)
		}
		got[res.ParentID] = len(res.Events)
		return MergeApplied
	})

	if len(got) != 3 {
		t.Fatalf("respuestas esperadas 3, vinieron %d", len(got))
	}
	if got["pa"] != 2 || got["pb"] != 2 || got["pc"] != 1 {
		t.Fatalf("conteo de eventos por parent incorrecto: %v", got)
	}
}

// El merge va por key: aunque las respuestas completen en orden invertido,
// cada una cae en su parent y ninguna pisa a otra.
func TestHydratePermutedCompletionOrder(t *testing.T) {
	f := newFakeSource()
	seedThreeParents(f)

	releaseA := make(chan struct{})
	releaseB := make(chan struct{})
	f.blockParents["pa"] = releaseA
	f.blockParents["pb"] = releaseB

	h := NewHydrator(f)
	stubs := []ParentStub{
		{ParentID: "pa", ParentCode: "HC-A"},
		{ParentID: "pb", ParentCode: "HC-B"},
		{ParentID: "pc", ParentCode: "HC-C"},
	}

	var mu sync.Mutex
	var arrival []string
	events := map[string][]EventRecord{}

	done := make(chan struct{})
	go func() {
		defer close(done)
		h.Hydrate(context.Background(), KindHealthCheckResult, stubs, func(res HydrateResult) MergeOutcome {
			mu.Lock()
			defer mu.Unlock()
			arrival = append(arrival, res.ParentID)
			events[res.ParentID] = res.Events
			return MergeApplied
		})
	}()

	// pc resuelve solo; pa y pb quedan bloqueados. Soltamos en orden inverso
	// al de los stubs.
	waitFor(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(arrival) == 1
	})
	close(releaseB)
	waitFor(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(arrival) == 2
	})
	close(releaseA)
	<-done

	if arrival[0] != "pc" || arrival[1] != "pb" || arrival[2] != "pa" {
		t.Fatalf("orden de llegada esperado pc,pb,pa, vino %v", arrival)
	}
	for id, evs := range events {
		for _, e := range evs {
			if e.ParentID != id {
				t.Fatalf("evento %s mergeado bajo parent %s", e.ParentID, id)
			}
		}
	}
}

// Un historial que falla no corta a los hermanos: el error viaja en el
// resultado y los demás parents igual resuelven.
func TestHydratePartialFailureIsolated(t *testing.T) {
	f := newFakeSource()
	seedThreeParents(f)
	f.failParents["pb"] = true

	h := NewHydrator(f)
	stubs := []ParentStub{
		{ParentID: "pa", ParentCode: "HC-A"},
		{ParentID: "pb", ParentCode: "HC-B"},
		{ParentID: "pc", ParentCode: "HC-C"},
	}

	var mu sync.Mutex
	errs := map[string]error{}
	h.Hydrate(context.Background(), KindHealthCheckResult, stubs, func(res HydrateResult) MergeOutcome {
		mu.Lock()
		defer mu.Unlock()
		errs[res.ParentID] = res.Err
		return MergeApplied
	})

	if len(errs) != 3 {
		t.Fatalf("los tres parents tienen que reportar, vinieron %d", len(errs))
	}
	if errs["pb"] == nil {
		t.Fatalf("pb tenía que fallar")
	}
	if errs["pa"] != nil || errs["pc"] != nil {
		t.Fatalf("la falla de pb no puede contagiar: pa=%v pc=%v", errs["pa"], errs["pc"])
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("timeout esperando condición")
}
