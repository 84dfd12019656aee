package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/claude/liftlog/internal/load"
	"github.com/claude/liftlog/internal/logbook"
	"github.com/claude/liftlog/internal/models"
	"github.com/claude/liftlog/internal/progress"
	"github.com/google/uuid"
)

// HTTPClient implements DataSource by calling the LiftLog REST API.
// Used for remote MCP mode where the binary runs locally (stdio) but
// data lives on the remote server (accessed over Tailscale).
type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
}

// Compile-time check: HTTPClient satisfies DataSource.
var _ DataSource = (*HTTPClient)(nil)

// NewHTTPClient creates an HTTPClient targeting the given base URL.
func NewHTTPClient(baseURL string) *HTTPClient {
	return &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *HTTPClient) do(ctx context.Context, method, path string, params url.Values, body io.Reader, out any) error {
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return fmt.Errorf("httpclient: create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("httpclient: %s: %w", path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("httpclient: read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("httpclient: %s returned %d: %s", path, resp.StatusCode, bytes.TrimSpace(raw))
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("httpclient: decode %s: %w", path, err)
	}
	return nil
}

func (c *HTTPClient) get(ctx context.Context, path string, params url.Values, out any) error {
	return c.do(ctx, http.MethodGet, path, params, nil, out)
}

func rangeParams(r progress.Range, exerciseID uuid.UUID) url.Values {
	v := url.Values{}
	if !r.Start.IsZero() {
		v.Set("start", r.Start.Format(time.RFC3339Nano))
	}
	if !r.End.IsZero() {
		v.Set("end", r.End.Format(time.RFC3339Nano))
	}
	if exerciseID != uuid.Nil {
		v.Set("exercise", exerciseID.String())
	}
	return v
}

func (c *HTTPClient) ListExercises(ctx context.Context) ([]models.ExerciseRow, error) {
	var rows []models.ExerciseRow
	err := c.get(ctx, "/api/v1/exercises", nil, &rows)
	return rows, err
}

func (c *HTTPClient) ListSessions(ctx context.Context, r progress.Range, exerciseID uuid.UUID) ([]models.SessionRow, error) {
	var rows []models.SessionRow
	err := c.get(ctx, "/api/v1/sessions", rangeParams(r, exerciseID), &rows)
	return rows, err
}

func (c *HTTPClient) Preview(ctx context.Context, form logbook.SessionForm) (load.SessionResult, error) {
	var res load.SessionResult
	body, err := json.Marshal(form)
	if err != nil {
		return res, fmt.Errorf("httpclient: encode preview: %w", err)
	}
	err = c.do(ctx, http.MethodPost, "/api/v1/preview", nil, bytes.NewReader(body), &res)
	return res, err
}

func (c *HTTPClient) Progress(ctx context.Context, r progress.Range, exerciseID uuid.UUID) ([]logbook.ExerciseProgress, error) {
	var result []logbook.ExerciseProgress
	err := c.get(ctx, "/api/v1/progress", rangeParams(r, exerciseID), &result)
	return result, err
}

func (c *HTTPClient) Top(ctx context.Context, q logbook.TopQuery) ([]progress.RankedSession, error) {
	params := url.Values{}
	params.Set("period", q.Period.String())
	if q.ExerciseID != uuid.Nil {
		params.Set("exercise", q.ExerciseID.String())
	}
	if q.Limit > 0 {
		params.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.RecordsOnly {
		params.Set("records", "true")
	}

	var ranked []progress.RankedSession
	err := c.get(ctx, "/api/v1/top", params, &ranked)
	return ranked, err
}

func (c *HTTPClient) Series(ctx context.Context, exerciseID uuid.UUID, period progress.Period, bucket progress.Bucket, maxPoints int) ([]progress.Point, error) {
	params := url.Values{}
	params.Set("period", period.String())
	params.Set("bucket", string(bucket))
	if exerciseID != uuid.Nil {
		params.Set("exercise", exerciseID.String())
	}
	if maxPoints > 0 {
		params.Set("points", strconv.Itoa(maxPoints))
	}

	var points []progress.Point
	err := c.get(ctx, "/api/v1/series", params, &points)
	return points, err
}

func (c *HTTPClient) Stats(ctx context.Context) (*logbook.Stats, error) {
	var stats logbook.Stats
	if err := c.get(ctx, "/api/v1/stats", nil, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

func (c *HTTPClient) ListPlans(ctx context.Context, day string) ([]models.PlanRow, error) {
	params := url.Values{}
	if day != "" {
		params.Set("day", day)
	}
	var plans []models.PlanRow
	err := c.get(ctx, "/api/v1/plans", params, &plans)
	return plans, err
}
