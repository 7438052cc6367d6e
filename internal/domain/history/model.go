package history

import "time"

// Performer es quien ejecutó la acción. Para acciones automáticas el core
// manda el sentinel "system" (sin email).
type Performer struct {
	ID    string
	Name  string
	Email string
}

var PerformerSystem = Performer{ID: "system", Name: "System"}

func (p Performer) IsSystem() bool {
	return p.ID == PerformerSystem.ID
}

// EventRecord es un hecho de auditoría inmutable sobre un parent.
// Este subsistema es read-only sobre ellos: nunca los crea ni los muta.
type EventRecord struct {
	ID         string
	ParentID   string
	ParentCode string

	Action     Action
	ActionDate time.Time

	PerformedBy Performer

	PreviousStatus Status
	NewStatus      Status

	ChangeDetails   string
	RejectionReason string

	// Linked: entidad secundaria vinculada (p.ej. el health-check result
	// dueño de un treatment plan). Opcional, solo para cross-navigation.
	Linked *LinkedParent
}

type LinkedParent struct {
	ID   string
	Code string
	Kind ParentKind
}

// ParentStub es la identidad de un parent antes de hidratar su historial.
type ParentStub struct {
	ParentID   string
	ParentCode string
	Linked     *LinkedParent
}

// Group es un parent más su historial hidratado.
// Su identidad es ParentID: siempre se busca y actualiza por key, nunca por
// posición, porque las respuestas de hidratación llegan en cualquier orden.
type Group struct {
	Stub   ParentStub
	Events []EventRecord
	State  HydrationState
}

// LatestEventTime devuelve el timestamp del evento más reciente del grupo.
// ok=false si el grupo no tiene eventos (Pending/Failed o historial vacío).
func (g Group) LatestEventTime() (time.Time, bool) {
	if len(g.Events) == 0 {
		return time.Time{}, false
	}
	latest := g.Events[0].ActionDate
	for _, e := range g.Events[1:] {
		if e.ActionDate.After(latest) {
			latest = e.ActionDate
		}
	}
	return latest, true
}

// Page es el snapshot que se publica a la capa de presentación.
// Se reconstruye completa en cada cambio de query o de página.
type Page struct {
	Groups               []Group
	PageIndex            int
	PageSize             int
	TotalDistinctParents int

	// WindowCapped indica que la ventana de registros se llenó: el total y
	// el contenido pueden estar incompletos (aproximación documentada).
	WindowCapped bool
}

// HydrationState derivado: Loaded recién cuando ningún grupo sigue Pending.
func (p Page) HydrationState() HydrationState {
	for _, g := range p.Groups {
		if g.State == HydrationPending {
			return HydrationPending
		}
	}
	return HydrationLoaded
}
