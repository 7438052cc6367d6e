package history

import "sort"

// Reorder ordena los grupos de una página por el timestamp de su evento más
// reciente (recency), desc o asc según ascending. Corre después de la
// hidratación a propósito: un parent cuya última actividad es más nueva
// sube aunque el orden inicial del paginator viniera de otro campo.
//
// Grupos sin eventos (Pending/Failed/historial vacío) cuentan como
// -infinito. Empate: ParentCode ascendente; empate total lo resuelve el
// sort estable preservando el orden del paginator.
func Reorder(groups []Group, ascending bool) {
	sort.SliceStable(groups, func(i, j int) bool {
		ti, oki := groups[i].LatestEventTime()
		tj, okj := groups[j].LatestEventTime()

		if oki != okj {
			// El grupo vacío es -inf: va primero en asc, último en desc.
			if ascending {
				return !oki
			}
			return oki
		}
		if oki && !ti.Equal(tj) {
			if ascending {
				return ti.Before(tj)
			}
			return ti.After(tj)
		}
		return groups[i].Stub.ParentCode < groups[j].Stub.ParentCode
	})
}

// SortEvents ordena los eventos de un grupo por ActionDate para display,
// con la misma dirección que los grupos.
func SortEvents(events []EventRecord, ascending bool) {
	sort.SliceStable(events, func(i, j int) bool {
		if ascending {
			return events[i].ActionDate.Before(events[j].ActionDate)
		}
		return events[i].ActionDate.After(events[j].ActionDate)
	})
}
