package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/MndV09/iot-carbot/internal/telemetry"
)

// ErrConflict is returned by CreateSequence when the backend rejects a
// duplicate sequence name. The backend reports this as a bare 500 (older
// revisions) or a 409.
var ErrConflict = errors.New("client: duplicate sequence name")

// HTTPClient makes REST calls to the carbot backend.
type HTTPClient struct {
	baseURL string
	client  *http.Client
}

// NewHTTPClient creates a client targeting the given base URL
// (e.g. "http://192.168.1.50:5500").
func NewHTTPClient(baseURL string) *HTTPClient {
	return &HTTPClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

// --- telemetry.Transport ---

// ReadLatest fetches the most recent event for the channel. Returns nil
// without error when the backend has no data yet. DemoRun has no history
// endpoint; it is push-only and reads come back empty.
func (c *HTTPClient) ReadLatest(ctx context.Context, ch telemetry.Channel, subjectID int) (*telemetry.EventRecord, error) {
	path, ok := lastPath(ch)
	if !ok {
		return nil, nil
	}
	var p *EventPayload
	if err := c.get(ctx, path+strconv.Itoa(subjectID), &p); err != nil {
		return nil, err
	}
	if p == nil {
		return nil, nil
	}
	return p.Record(ch), nil
}

// ReadRecent fetches up to limit recent events, newest first. The backend
// endpoint is fixed at ten rows; the result is truncated client-side.
func (c *HTTPClient) ReadRecent(ctx context.Context, ch telemetry.Channel, subjectID, limit int) ([]*telemetry.EventRecord, error) {
	path, ok := recentPath(ch)
	if !ok {
		return nil, nil
	}
	var rows []EventPayload
	if err := c.get(ctx, path+strconv.Itoa(subjectID), &rows); err != nil {
		return nil, err
	}
	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}
	out := make([]*telemetry.EventRecord, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].Record(ch))
	}
	return out, nil
}

func lastPath(ch telemetry.Channel) (string, bool) {
	switch ch {
	case telemetry.Movement:
		return "/api/movement/last/", true
	case telemetry.Obstacle:
		return "/api/obstacle/last/", true
	}
	return "", false
}

func recentPath(ch telemetry.Channel) (string, bool) {
	switch ch {
	case telemetry.Movement:
		return "/api/movement/last10/", true
	case telemetry.Obstacle:
		return "/api/obstacle/last10/", true
	}
	return "", false
}

// --- manual control ---

// AddMovement submits a manual movement command. The resulting event comes
// back over the push channel and flows through the normal sync path.
func (c *HTTPClient) AddMovement(ctx context.Context, req MovementRequest) (*EventPayload, error) {
	var out EventPayload
	if err := c.post(ctx, "/api/movement/add", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// AddObstacle registers an obstacle reading.
func (c *HTTPClient) AddObstacle(ctx context.Context, req ObstacleRequest) (*EventPayload, error) {
	var out EventPayload
	if err := c.post(ctx, "/api/obstacle/add", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// --- demo sequences ---

// CreateSequence stores a named step sequence. Duplicate names return
// ErrConflict.
func (c *HTTPClient) CreateSequence(ctx context.Context, name string, ownerDeviceID int, steps []SequenceStep) (*SequenceInfo, error) {
	stepsJSON, err := json.Marshal(steps)
	if err != nil {
		return nil, err
	}
	req := CreateSequenceRequest{
		Name:          name,
		OwnerDeviceID: ownerDeviceID,
		StepsJSON:     string(stepsJSON),
	}
	var out SequenceInfo
	if err := c.post(ctx, "/api/demo/create", req, &out); err != nil {
		var se *statusError
		if errors.As(err, &se) && (se.code == http.StatusConflict || se.code == http.StatusInternalServerError) {
			return nil, fmt.Errorf("%w: %s", ErrConflict, name)
		}
		return nil, err
	}
	return &out, nil
}

// RecentSequences fetches the twenty most recent stored sequences.
func (c *HTTPClient) RecentSequences(ctx context.Context) ([]SequenceInfo, error) {
	var out []SequenceInfo
	if err := c.get(ctx, "/api/demo/last20", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// RunSequence triggers execution of a stored sequence on a device.
func (c *HTTPClient) RunSequence(ctx context.Context, sequenceID, deviceID, startDelayMs int) (*RunSequenceResponse, error) {
	req := RunSequenceRequest{
		SequenceID:   sequenceID,
		DeviceID:     deviceID,
		StartDelayMs: startDelayMs,
	}
	var out RunSequenceResponse
	if err := c.post(ctx, "/api/demo/run", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// --- plumbing ---

// statusError preserves the HTTP status for error classification.
type statusError struct {
	method string
	path   string
	code   int
	body   string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("%s %s: %d %s", e.method, e.path, e.code, e.body)
}

func (c *HTTPClient) get(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	return c.do(req, path, out)
}

func (c *HTTPClient) post(ctx context.Context, path string, body, out interface{}) error {
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, path, out)
}

func (c *HTTPClient) do(req *http.Request, path string, out interface{}) error {
	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return &statusError{method: req.Method, path: path, code: resp.StatusCode, body: string(body)}
	}
	if out == nil {
		return nil
	}
	// Every endpoint wraps its result in {"data": ...}.
	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return err
	}
	if len(env.Data) == 0 || string(env.Data) == "null" {
		return nil
	}
	return json.Unmarshal(env.Data, out)
}
