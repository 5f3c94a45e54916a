// Package client provides the WebSocket and HTTP clients for the carbot
// backend. Types mirror the backend wire protocol without any shared
// package; the backend is Node-side and only the JSON shape is contractual.
package client

import (
	"encoding/json"
	"strconv"
	"time"

	"github.com/MndV09/iot-carbot/internal/telemetry"
)

// MessageType identifies the kind of WebSocket push message.
type MessageType string

const (
	MsgMovementNew MessageType = "movement:new"
	MsgObstacleNew MessageType = "obstacle:new"
	MsgDemoNew     MessageType = "demo:new"
	MsgDemoRun     MessageType = "demo:run"
	MsgServerInfo  MessageType = "server_info"
	MsgError       MessageType = "error"
)

// WSMessage is the envelope for all WebSocket push messages.
type WSMessage struct {
	Type    MessageType     `json:"type"`
	Seq     uint64          `json:"seq"`
	Payload json.RawMessage `json:"payload"`
}

// envelope is the REST response wrapper: every endpoint returns
// {"data": ...}.
type envelope struct {
	Data json.RawMessage `json:"data"`
}

// EventPayload is the wire shape of a movement or obstacle event. The
// backend emits the status code under several historical key names; see
// code() for the single place the resolution order lives.
type EventPayload struct {
	EventID       int      `json:"event_id,omitempty"`
	DeviceID      int      `json:"device_id"`
	StatusClave   *int     `json:"status_clave,omitempty"`
	MoveClave     *int     `json:"move_clave,omitempty"`
	ObstacleClave *int     `json:"obstacle_clave,omitempty"`
	ID            *int     `json:"id,omitempty"`
	EventAt       string   `json:"event_at,omitempty"`
	CreatedAt     string   `json:"created_at,omitempty"`
	DistanceCM    *float64 `json:"distance_cm,omitempty"`
	SequenceID    *int     `json:"sequence_id,omitempty"`
	Source        string   `json:"source,omitempty"`
}

// code resolves the event's status code. The backend has shipped the same
// value under status_clave, move_clave, obstacle_clave and plain id across
// revisions; the resolution order here is the only place that knowledge
// lives. Returns 0 when no key is present.
func (p *EventPayload) code() int {
	switch {
	case p.StatusClave != nil:
		return *p.StatusClave
	case p.MoveClave != nil:
		return *p.MoveClave
	case p.ObstacleClave != nil:
		return *p.ObstacleClave
	case p.ID != nil:
		return *p.ID
	}
	return 0
}

// eventTimeLayouts are the timestamp formats the backend has been observed
// to emit, tried in order.
var eventTimeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// timestamp resolves event_at, falling back to created_at. A zero time
// means the source supplied none and ordering falls back to arrival order.
func (p *EventPayload) timestamp() time.Time {
	for _, raw := range []string{p.EventAt, p.CreatedAt} {
		if raw == "" {
			continue
		}
		for _, layout := range eventTimeLayouts {
			if t, err := time.Parse(layout, raw); err == nil {
				return t
			}
		}
	}
	return time.Time{}
}

// Record converts the wire payload into a core EventRecord on the given
// channel. A server-assigned event id becomes the dedup identity; records
// without one have an identity derived by the session on arrival.
func (p *EventPayload) Record(ch telemetry.Channel) *telemetry.EventRecord {
	rec := &telemetry.EventRecord{
		Channel:    ch,
		SubjectID:  p.DeviceID,
		Code:       p.code(),
		OccurredAt: p.timestamp(),
		DistanceCM: p.DistanceCM,
	}
	if p.EventID != 0 {
		rec.Identity = "ev:" + strconv.Itoa(p.EventID)
	}
	if ch == telemetry.DemoRun && p.SequenceID != nil {
		rec.SubjectID = *p.SequenceID
	}
	return rec
}

// MovementRequest is the body of POST /api/movement/add.
type MovementRequest struct {
	DeviceID    int    `json:"device_id"`
	StatusClave int    `json:"status_clave"`
	Source      string `json:"source"`
	SequenceID  *int   `json:"sequence_id"`
}

// ObstacleRequest is the body of POST /api/obstacle/add.
type ObstacleRequest struct {
	DeviceID    int     `json:"device_id"`
	StatusClave int     `json:"status_clave"`
	DistanceCM  float64 `json:"distance_cm"`
	AutoReact   int     `json:"auto_react"`
	BackMs      int     `json:"back_ms"`
}

// SequenceStep is one step of a demo sequence on the wire.
type SequenceStep struct {
	StatusClave int `json:"status_clave"`
	DurationMs  int `json:"duration_ms"`
}

// CreateSequenceRequest is the body of POST /api/demo/create. Steps travel
// as a JSON string inside the JSON body; that is the backend's contract,
// kept as is.
type CreateSequenceRequest struct {
	Name          string `json:"name"`
	OwnerDeviceID int    `json:"owner_device_id"`
	StepsJSON     string `json:"steps_json"`
}

// SequenceInfo describes a stored demo sequence. The id arrives as
// sequence_id or plain id depending on backend revision.
type SequenceInfo struct {
	SequenceID *int   `json:"sequence_id,omitempty"`
	ID         *int   `json:"id,omitempty"`
	Name       string `json:"name"`
	StepsCount *int   `json:"steps_count,omitempty"`
}

// Ident returns the sequence id under either key name.
func (s *SequenceInfo) Ident() int {
	if s.SequenceID != nil {
		return *s.SequenceID
	}
	if s.ID != nil {
		return *s.ID
	}
	return 0
}

// RunSequenceRequest is the body of POST /api/demo/run.
type RunSequenceRequest struct {
	SequenceID   int `json:"sequence_id"`
	DeviceID     int `json:"device_id"`
	StartDelayMs int `json:"start_delay_ms"`
}

// RunSequenceResponse reports whether the backend accepted the run.
type RunSequenceResponse struct {
	Accepted bool `json:"accepted"`
}

// DemoRunPayload is the push payload of a demo:run progress event. Backend
// revisions disagree on where the executing step lives; CurrentMove
// resolves the observed variants in order.
type DemoRunPayload struct {
	EventPayload
	Steps       []EventPayload `json:"steps,omitempty"`
	CurrentStep *EventPayload  `json:"current_step,omitempty"`
}

// CurrentMove returns the payload describing the currently-executing step:
// the first steps entry, then current_step, then the payload itself.
func (p *DemoRunPayload) CurrentMove() *EventPayload {
	if len(p.Steps) > 0 {
		return &p.Steps[0]
	}
	if p.CurrentStep != nil {
		return p.CurrentStep
	}
	return &p.EventPayload
}
