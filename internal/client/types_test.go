package client

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/MndV09/iot-carbot/internal/telemetry"
)

func decodeEvent(t *testing.T, raw string) *EventPayload {
	t.Helper()
	var p EventPayload
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		t.Fatalf("unmarshal %s: %v", raw, err)
	}
	return &p
}

func TestCodeResolutionOrder(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want int
	}{
		{"status_clave wins", `{"status_clave": 3, "move_clave": 4, "id": 5}`, 3},
		{"move_clave fallback", `{"move_clave": 4, "id": 5}`, 4},
		{"obstacle_clave fallback", `{"obstacle_clave": 2, "id": 5}`, 2},
		{"id last resort", `{"id": 5}`, 5},
		{"nothing present", `{"device_id": 1}`, 0},
		{"explicit zero is still a value", `{"status_clave": 0, "id": 5}`, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := decodeEvent(t, tt.raw)
			if got := p.code(); got != tt.want {
				t.Errorf("code() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestTimestampResolution(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want time.Time
	}{
		{
			"event_at plain",
			`{"event_at": "2025-03-01T12:00:05"}`,
			time.Date(2025, 3, 1, 12, 0, 5, 0, time.UTC),
		},
		{
			"event_at with space",
			`{"event_at": "2025-03-01 12:00:05"}`,
			time.Date(2025, 3, 1, 12, 0, 5, 0, time.UTC),
		},
		{
			"created_at fallback",
			`{"created_at": "2025-03-01T12:00:05"}`,
			time.Date(2025, 3, 1, 12, 0, 5, 0, time.UTC),
		},
		{"absent means unknown", `{"device_id": 1}`, time.Time{}},
		{"garbage means unknown", `{"event_at": "yesterday"}`, time.Time{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := decodeEvent(t, tt.raw)
			if got := p.timestamp(); !got.Equal(tt.want) {
				t.Errorf("timestamp() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRecordCarriesServerIdentity(t *testing.T) {
	p := decodeEvent(t, `{"event_id": 42, "device_id": 1, "status_clave": 3, "event_at": "2025-03-01T12:00:05"}`)
	rec := p.Record(telemetry.Movement)

	if rec.Identity != "ev:42" {
		t.Errorf("Identity = %q, want ev:42", rec.Identity)
	}
	if rec.Code != 3 || rec.SubjectID != 1 {
		t.Errorf("rec = %+v", rec)
	}
}

func TestRecordWithoutServerIdLeavesIdentityEmpty(t *testing.T) {
	p := decodeEvent(t, `{"device_id": 1, "status_clave": 3}`)
	rec := p.Record(telemetry.Movement)
	// The session derives the identity on arrival.
	if rec.Identity != "" {
		t.Errorf("Identity = %q, want empty", rec.Identity)
	}
}

func TestRecordDistancePayloadIsOpaque(t *testing.T) {
	p := decodeEvent(t, `{"device_id": 1, "obstacle_clave": 2, "distance_cm": 23.5}`)
	rec := p.Record(telemetry.Obstacle)
	if rec.DistanceCM == nil || *rec.DistanceCM != 23.5 {
		t.Errorf("DistanceCM = %v, want 23.5", rec.DistanceCM)
	}
}

func TestDemoRunCurrentMoveResolution(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want int
	}{
		{"steps array first", `{"steps": [{"status_clave": 8}], "current_step": {"status_clave": 2}}`, 8},
		{"current_step next", `{"current_step": {"status_clave": 2}, "status_clave": 1}`, 2},
		{"payload itself last", `{"status_clave": 1}`, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var p DemoRunPayload
			if err := json.Unmarshal([]byte(tt.raw), &p); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if got := p.CurrentMove().code(); got != tt.want {
				t.Errorf("CurrentMove().code() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestSequenceInfoIdent(t *testing.T) {
	seqID, plainID := 9, 4
	tests := []struct {
		name string
		info SequenceInfo
		want int
	}{
		{"sequence_id wins", SequenceInfo{SequenceID: &seqID, ID: &plainID}, 9},
		{"id fallback", SequenceInfo{ID: &plainID}, 4},
		{"neither", SequenceInfo{}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.info.Ident(); got != tt.want {
				t.Errorf("Ident() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestWSMessageEnvelope(t *testing.T) {
	raw := `{"type": "movement:new", "seq": 12, "payload": {"status_clave": 1}}`
	var msg WSMessage
	if err := json.Unmarshal([]byte(raw), &msg); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if msg.Type != MsgMovementNew || msg.Seq != 12 {
		t.Errorf("msg = %+v", msg)
	}
	var p EventPayload
	if err := json.Unmarshal(msg.Payload, &p); err != nil {
		t.Fatalf("payload: %v", err)
	}
	if p.code() != 1 {
		t.Errorf("payload code = %d, want 1", p.code())
	}
}
