package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/locthdzev/fmcs-fe-sub005/internal/domain/history"
)

// Source lee las tablas de auditoría directo por SQL. A diferencia del
// cliente HTTP, acá el distinct de parents sí se resuelve server-side, así
// que implementa también history.DistinctLister (estrategia eager-grouped).
type Source struct {
	db *sql.DB
}

func NewSource(db *sql.DB) *Source {
	return &Source{db: db}
}

const eventColumns = `
	id, parent_id, parent_code,
	action, action_date,
	performer_id, performer_name, COALESCE(performer_email, ''),
	COALESCE(previous_status, ''), COALESCE(new_status, ''),
	COALESCE(change_details, ''), COALESCE(rejection_reason, ''),
	linked_id, linked_code, linked_kind
`

func (s *Source) FetchEvents(ctx context.Context, q history.Query, windowSize int) ([]history.EventRecord, error) {
	if windowSize <= 0 {
		windowSize = history.DefaultWindowSize
	}

	sb := strings.Builder{}
	sb.WriteString("SELECT " + eventColumns + " FROM audit_events WHERE kind = $1")
	args := []any{string(q.Kind)}
	argN := 2
	argN = appendFilters(&sb, &args, argN, q)

	if q.Sort == history.SortParentCode {
		if q.Ascending {
			sb.WriteString(" ORDER BY parent_code ASC, action_date DESC")
		} else {
			sb.WriteString(" ORDER BY parent_code DESC, action_date DESC")
		}
	} else {
		if q.Ascending {
			sb.WriteString(" ORDER BY action_date ASC")
		} else {
			sb.WriteString(" ORDER BY action_date DESC")
		}
	}

	sb.WriteString(fmt.Sprintf(" LIMIT $%d", argN))
	args = append(args, windowSize)

	rows, err := s.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanEvents(rows)
}

func (s *Source) FetchHistory(ctx context.Context, kind history.ParentKind, parentID string) ([]history.EventRecord, error) {
	parentID = strings.TrimSpace(parentID)
	if parentID == "" {
		return nil, ErrNotFound
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+eventColumns+`
		FROM audit_events
		WHERE kind = $1 AND parent_id = $2
		ORDER BY action_date DESC
	`, string(kind), parentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanEvents(rows)
}

// DistinctParents pagina parents distintos server-side: DISTINCT ON por
// parent, ordenado por la actividad más reciente de cada uno (o por código
// cuando el sort es parent-level), más el COUNT(DISTINCT) para el total.
func (s *Source) DistinctParents(ctx context.Context, q history.Query, offset, limit int) ([]history.ParentStub, int, error) {
	if limit <= 0 {
		limit = 10
	}
	if offset < 0 {
		offset = 0
	}

	where := strings.Builder{}
	where.WriteString(" WHERE kind = $1")
	args := []any{string(q.Kind)}
	argN := 2
	argN = appendFilters(&where, &args, argN, q)

	dir := "DESC"
	if q.Ascending {
		dir = "ASC"
	}
	outerOrder := "latest_date " + dir
	if q.Sort == history.SortParentCode {
		outerOrder = "parent_code " + dir
	}

	query := fmt.Sprintf(`
		SELECT parent_id, parent_code, linked_id, linked_code, linked_kind
		FROM (
			SELECT DISTINCT ON (parent_id)
				parent_id, parent_code, linked_id, linked_code, linked_kind,
				MAX(action_date) OVER (PARTITION BY parent_id) AS latest_date
			FROM audit_events
			%s
			ORDER BY parent_id, action_date DESC
		) t
		ORDER BY %s, parent_code ASC
		LIMIT $%d OFFSET $%d
	`, where.String(), outerOrder, argN, argN+1)

	pageArgs := append(append([]any{}, args...), limit, offset)

	rows, err := s.db.QueryContext(ctx, query, pageArgs...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	stubs := make([]history.ParentStub, 0, limit)
	for rows.Next() {
		var (
			stub                           history.ParentStub
			linkedID, linkedCode, linkedKd sql.NullString
		)
		if err := rows.Scan(&stub.ParentID, &stub.ParentCode, &linkedID, &linkedCode, &linkedKd); err != nil {
			return nil, 0, err
		}
		if linkedID.Valid && linkedID.String != "" {
			stub.Linked = &history.LinkedParent{
				ID:   linkedID.String,
				Code: linkedCode.String,
				Kind: history.ParentKind(linkedKd.String),
			}
		}
		stubs = append(stubs, stub)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	var total int
	countQuery := "SELECT COUNT(DISTINCT parent_id) FROM audit_events" + where.String()
	if err := s.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	return stubs, total, nil
}

// appendFilters agrega las condiciones de la query canónica y devuelve el
// siguiente índice de argumento posicional.
func appendFilters(sb *strings.Builder, args *[]any, argN int, q history.Query) int {
	if len(q.Actions) > 0 {
		placeholders := make([]string, 0, len(q.Actions))
		for _, a := range q.Actions {
			placeholders = append(placeholders, fmt.Sprintf("$%d", argN))
			*args = append(*args, string(a))
			argN++
		}
		sb.WriteString(" AND action IN (" + strings.Join(placeholders, ",") + ")")
	}
	if q.Performer != "" {
		sb.WriteString(fmt.Sprintf(" AND (performer_name ILIKE $%d OR performer_email ILIKE $%d)", argN, argN))
		*args = append(*args, "%"+q.Performer+"%")
		argN++
	}
	if q.ParentCode != "" {
		sb.WriteString(fmt.Sprintf(" AND parent_code ILIKE $%d", argN))
		*args = append(*args, "%"+q.ParentCode+"%")
		argN++
	}
	if q.StatusFrom != "" {
		sb.WriteString(fmt.Sprintf(" AND previous_status = $%d", argN))
		*args = append(*args, string(q.StatusFrom))
		argN++
	}
	if q.StatusTo != "" {
		sb.WriteString(fmt.Sprintf(" AND new_status = $%d", argN))
		*args = append(*args, string(q.StatusTo))
		argN++
	}
	if q.From != nil {
		sb.WriteString(fmt.Sprintf(" AND action_date >= $%d", argN))
		*args = append(*args, *q.From)
		argN++
	}
	if q.To != nil {
		sb.WriteString(fmt.Sprintf(" AND action_date <= $%d", argN))
		*args = append(*args, *q.To)
		argN++
	}
	return argN
}

func scanEvents(rows *sql.Rows) ([]history.EventRecord, error) {
	out := make([]history.EventRecord, 0)
	for rows.Next() {
		var (
			e                              history.EventRecord
			action, prevStatus, newStatus  string
			linkedID, linkedCode, linkedKd sql.NullString
		)
		if err := rows.Scan(
			&e.ID,
			&e.ParentID,
			&e.ParentCode,
			&action,
			&e.ActionDate,
			&e.PerformedBy.ID,
			&e.PerformedBy.Name,
			&e.PerformedBy.Email,
			&prevStatus,
			&newStatus,
			&e.ChangeDetails,
			&e.RejectionReason,
			&linkedID,
			&linkedCode,
			&linkedKd,
		); err != nil {
			return nil, err
		}

		e.Action = history.Action(action)
		e.PreviousStatus = history.Status(prevStatus)
		e.NewStatus = history.Status(newStatus)
		if e.PerformedBy.ID == "" {
			e.PerformedBy = history.PerformerSystem
		}
		if linkedID.Valid && linkedID.String != "" {
			e.Linked = &history.LinkedParent{
				ID:   linkedID.String,
				Code: linkedCode.String,
				Kind: history.ParentKind(linkedKd.String),
			}
		}

		out = append(out, e)
	}
	return out, rows.Err()
}
