package remote

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/locthdzev/fmcs-fe-sub005/internal/domain/history"
	"github.com/locthdzev/fmcs-fe-sub005/internal/platform/httpclient"

	"github.com/cenkalti/backoff/v4"
)

var (
	ErrNotConfigured = errors.New("fmcs api client not configured")
	ErrUpstream      = errors.New("fmcs api upstream error")
)

// Config del cliente contra el core de FMCS.
// BaseURL y APIKey normalmente vienen de env vars.
type Config struct {
	BaseURL string
	APIKey  string

	// Opcional: header donde va la API key. Default "X-Api-Key".
	APIKeyHeader string

	Timeout time.Duration

	// MaxRetries por request (solo errores de transporte y 5xx). Default 3.
	MaxRetries uint64
}

// Client implementa history.EventSource contra la API record-level del core.
// No implementa DistinctLister: el core no expone distinct de parents, por
// eso este source usa el camino windowed (estrategia lazy-per-parent).
type Client struct {
	http         *httpclient.Client
	apiKey       string
	apiKeyHeader string
	maxRetries   uint64
}

func New(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, ErrNotConfigured
	}

	hc, err := httpclient.NewWithBaseURL(cfg.BaseURL, cfg.Timeout)
	if err != nil {
		return nil, err
	}

	header := strings.TrimSpace(cfg.APIKeyHeader)
	if header == "" {
		header = "X-Api-Key"
	}
	retries := cfg.MaxRetries
	if retries == 0 {
		retries = 3
	}

	return &Client{
		http:         hc,
		apiKey:       strings.TrimSpace(cfg.APIKey),
		apiKeyHeader: header,
		maxRetries:   retries,
	}, nil
}

// eventPayload es el wire format del core para un registro de auditoría.
type eventPayload struct {
	ID         string `json:"id"`
	ParentID   string `json:"parentId"`
	ParentCode string `json:"parentCode"`
	Action     string `json:"action"`
	ActionDate string `json:"actionDate"` // RFC3339

	PerformedBy struct {
		ID    string `json:"id"`
		Name  string `json:"name"`
		Email string `json:"email"`
	} `json:"performedBy"`

	PreviousStatus  string `json:"previousStatus"`
	NewStatus       string `json:"newStatus"`
	ChangeDetails   string `json:"changeDetails"`
	RejectionReason string `json:"rejectionReason"`

	LinkedParent *struct {
		ID   string `json:"id"`
		Code string `json:"code"`
		Kind string `json:"kind"`
	} `json:"linkedParent"`
}

func (c *Client) FetchEvents(ctx context.Context, q history.Query, windowSize int) ([]history.EventRecord, error) {
	if windowSize <= 0 {
		windowSize = history.DefaultWindowSize
	}

	vals := queryValues(q)
	vals.Set("limit", strconv.Itoa(windowSize))

	path := fmt.Sprintf("/api/audit-events/%s?%s", q.Kind, vals.Encode())

	var payload []eventPayload
	if err := c.getJSON(ctx, path, &payload); err != nil {
		return nil, fmt.Errorf("%w: fetch events: %v", ErrUpstream, err)
	}
	return toRecords(payload)
}

func (c *Client) FetchHistory(ctx context.Context, kind history.ParentKind, parentID string) ([]history.EventRecord, error) {
	parentID = strings.TrimSpace(parentID)
	if parentID == "" {
		return nil, fmt.Errorf("%w: empty parent id", ErrUpstream)
	}

	path := fmt.Sprintf("/api/audit-events/%s/%s/history", kind, url.PathEscape(parentID))

	var payload []eventPayload
	if err := c.getJSON(ctx, path, &payload); err != nil {
		return nil, fmt.Errorf("%w: fetch history parent=%s: %v", ErrUpstream, parentID, err)
	}
	return toRecords(payload)
}

// getJSON hace el GET con retry exponencial. Los 4xx son permanentes
// (reintentar no los arregla); transporte y 5xx se reintentan hasta
// maxRetries respetando el contexto.
func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	headers := map[string]string{}
	if c.apiKey != "" {
		headers[c.apiKeyHeader] = c.apiKey
	}

	op := func() error {
		err := c.http.DoJSON(ctx, http.MethodGet, path, headers, nil, out)
		if err == nil {
			return nil
		}
		var httpErr *httpclient.HTTPError
		if errors.As(err, &httpErr) && httpErr.StatusCode < 500 {
			return backoff.Permanent(err)
		}
		return err
	}

	bo := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewExponentialBackOff(), c.maxRetries),
		ctx,
	)
	return backoff.Retry(op, bo)
}

func queryValues(q history.Query) url.Values {
	vals := url.Values{}
	if len(q.Actions) > 0 {
		parts := make([]string, 0, len(q.Actions))
		for _, a := range q.Actions {
			parts = append(parts, string(a))
		}
		vals.Set("actions", strings.Join(parts, ","))
	}
	if q.Performer != "" {
		vals.Set("performer", q.Performer)
	}
	if q.ParentCode != "" {
		vals.Set("code", q.ParentCode)
	}
	if q.StatusFrom != "" {
		vals.Set("statusFrom", string(q.StatusFrom))
	}
	if q.StatusTo != "" {
		vals.Set("statusTo", string(q.StatusTo))
	}
	if q.From != nil {
		vals.Set("from", q.From.UTC().Format(time.RFC3339))
	}
	if q.To != nil {
		vals.Set("to", q.To.UTC().Format(time.RFC3339))
	}
	vals.Set("sort", string(q.Sort))
	if q.Ascending {
		vals.Set("order", "asc")
	} else {
		vals.Set("order", "desc")
	}
	return vals
}

func toRecords(payload []eventPayload) ([]history.EventRecord, error) {
	out := make([]history.EventRecord, 0, len(payload))
	for _, p := range payload {
		t, err := time.Parse(time.RFC3339, p.ActionDate)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid actionDate %q", ErrUpstream, p.ActionDate)
		}

		e := history.EventRecord{
			ID:         p.ID,
			ParentID:   p.ParentID,
			ParentCode: p.ParentCode,
			Action:     history.Action(p.Action),
			ActionDate: t,
			PerformedBy: history.Performer{
				ID:    p.PerformedBy.ID,
				Name:  p.PerformedBy.Name,
				Email: p.PerformedBy.Email,
			},
			PreviousStatus:  history.Status(p.PreviousStatus),
			NewStatus:       history.Status(p.NewStatus),
			ChangeDetails:   p.ChangeDetails,
			RejectionReason: p.RejectionReason,
		}
		if e.PerformedBy.ID == "" {
			e.PerformedBy = history.PerformerSystem
		}
		if p.LinkedParent != nil {
			e.Linked = &history.LinkedParent{
				ID:   p.LinkedParent.ID,
				Code: p.LinkedParent.Code,
				Kind: history.ParentKind(p.LinkedParent.Kind),
			}
		}
		out = append(out, e)
	}
	return out, nil
}
