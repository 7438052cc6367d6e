package history

import (
	"testing"
)

func group(id, code string, events ...EventRecord) Group {
	state := HydrationLoaded
	if len(events) == 0 {
		state = HydrationPending
	}
	return Group{
		Stub:   ParentStub{ParentID: id, ParentCode: code},
		Events: events,
		State:  state,
	}
}

func orderOf(groups []Group) []string {
	out := make([]string, len(groups))
	for i, g := range groups {
		out[i] = g.Stub.ParentCode
	}
	return out
}

func TestReorderByRecencyDesc(t *testing.T) {
	groups := []Group{
		group("pa", "HC-A", ev("a1", "pa", "HC-A", ActionApproved, at(10, 0))),
		group("pb", "HC-B", ev("b1", "pb", "HC-B", ActionUpdated, at(9, 0))),
		group("pc", "HC-C",
			ev("c1", "pc", "HC-C", ActionCreated, at(8, 0)),
			ev("c2", "pc", "HC-C", ActionAutoCompleted, at(11, 0)),
		),
	}

	Reorder(groups, false)

	want := []string{"HC-C", "HC-A", "HC-B"}
	got := orderOf(groups)
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("orden desc esperado %v, vino %v", want, got)
		}
	}
}

func TestReorderEmptyGroupsSink(t *testing.T) {
	groups := []Group{
		group("pa", "HC-A"), // sin eventos (Pending)
		group("pb", "HC-B", ev("b1", "pb", "HC-B", ActionCreated, at(9, 0))),
	}

	Reorder(groups, false)
	if got := orderOf(groups); got[0] != "HC-B" || got[1] != "HC-A" {
		t.Fatalf("en desc el grupo vacío va al final, vino %v", got)
	}

	Reorder(groups, true)
	if got := orderOf(groups); got[0] != "HC-A" || got[1] != "HC-B" {
		t.Fatalf("en asc el grupo vacío va primero, vino %v", got)
	}
}

func TestReorderTieBreaksByParentCode(t *testing.T) {
	groups := []Group{
		group("pz", "HC-Z", ev("z1", "pz", "HC-Z", ActionCreated, at(10, 0))),
		group("pa", "HC-A", ev("a1", "pa", "HC-A", ActionCreated, at(10, 0))),
	}

	Reorder(groups, false)
	if got := orderOf(groups); got[0] != "HC-A" || got[1] != "HC-Z" {
		t.Fatalf("empate de timestamp resuelve por code asc, vino %v", got)
	}

	// Misma dirección de desempate también en asc.
	Reorder(groups, true)
	if got := orderOf(groups); got[0] != "HC-A" || got[1] != "HC-Z" {
		t.Fatalf("desempate por code es asc en ambas direcciones, vino %v", got)
	}
}

func TestSortEvents(t *testing.T) {
	events := []EventRecord{
		ev("e1", "p", "HC", ActionCreated, at(8, 0)),
		ev("e2", "p", "HC", ActionApproved, at(10, 0)),
		ev("e3", "p", "HC", ActionUpdated, at(9, 0)),
	}

	SortEvents(events, false)
	if events[0].ID != "e2" || events[2].ID != "e1" {
		t.Fatalf("desc esperado e2..e1, vino %s..%s", events[0].ID, events[2].ID)
	}

	SortEvents(events, true)
	if events[0].ID != "e1" || events[2].ID != "e2" {
		t.Fatalf("asc esperado e1..e2, vino %s..%s", events[0].ID, events[2].ID)
	}
}
