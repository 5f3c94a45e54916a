package client

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/MndV09/iot-carbot/internal/telemetry"
)

const (
	DefaultReconnectBaseDelay = 1 * time.Second
	DefaultReconnectMaxDelay  = 30 * time.Second

	writeTimeout = 10 * time.Second
	pongTimeout  = 60 * time.Second
	pingInterval = 30 * time.Second
)

// State describes the supervisor's connection lifecycle.
type State int

const (
	StateIdle State = iota
	StateConnecting
	StateConnected
	StateDisconnected
	StateReconnectScheduled
)

// String returns the state name used in logs and the status bar.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateDisconnected:
		return "disconnected"
	case StateReconnectScheduled:
		return "reconnect scheduled"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// LifecycleFunc observes supervisor state transitions. err is non-nil for
// transitions caused by a transport failure.
type LifecycleFunc func(state State, err error)

// Supervisor manages the push-channel lifecycle: connect, reconnect with
// capped-exponential backoff, and explicit shutdown. It retries
// indefinitely; a monitoring panel should keep trying for the page's
// lifetime. At most one live connection handle exists at any time:
// adopting a new connection tears down the previous one first, so
// listeners never accumulate across reconnects.
type Supervisor struct {
	url       string
	baseDelay time.Duration
	maxDelay  time.Duration

	mu         sync.Mutex
	writeMu    sync.Mutex // serialises all conn writes
	conn       *websocket.Conn
	state      State
	seq        uint64
	pingCancel context.CancelFunc

	obsMu     sync.Mutex
	observers map[uuid.UUID]LifecycleFunc
}

// NewSupervisor creates a supervisor for the given WebSocket URL.
// Non-positive delays fall back to the defaults.
func NewSupervisor(url string, baseDelay, maxDelay time.Duration) *Supervisor {
	if baseDelay <= 0 {
		baseDelay = DefaultReconnectBaseDelay
	}
	if maxDelay <= 0 {
		maxDelay = DefaultReconnectMaxDelay
	}
	return &Supervisor{
		url:       url,
		baseDelay: baseDelay,
		maxDelay:  maxDelay,
		state:     StateIdle,
		observers: make(map[uuid.UUID]LifecycleFunc),
	}
}

// State returns the current lifecycle state.
func (s *Supervisor) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Seq returns the last seen push sequence number.
func (s *Supervisor) Seq() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seq
}

// Subscribe registers a lifecycle observer and returns its handle.
func (s *Supervisor) Subscribe(fn LifecycleFunc) uuid.UUID {
	id := uuid.New()
	s.obsMu.Lock()
	s.observers[id] = fn
	s.obsMu.Unlock()
	return id
}

// Unsubscribe removes a previously registered observer.
func (s *Supervisor) Unsubscribe(id uuid.UUID) {
	s.obsMu.Lock()
	delete(s.observers, id)
	s.obsMu.Unlock()
}

func (s *Supervisor) notify(state State, err error) {
	s.obsMu.Lock()
	fns := make([]LifecycleFunc, 0, len(s.observers))
	for _, fn := range s.observers {
		fns = append(fns, fn)
	}
	s.obsMu.Unlock()
	for _, fn := range fns {
		fn(state, err)
	}
}

func (s *Supervisor) setState(state State) {
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
}

// --- Bubble Tea messages ---

// WSConnectedMsg is sent when the push channel connects.
type WSConnectedMsg struct{}

// WSDisconnectedMsg is sent when the connection drops.
type WSDisconnectedMsg struct{ Err error }

// WSEventMsg delivers one decoded push event.
type WSEventMsg struct {
	Channel telemetry.Channel
	Record  *telemetry.EventRecord
}

// WSDemoNewMsg is sent when a new demo sequence is stored server-side.
type WSDemoNewMsg struct{ Info SequenceInfo }

// WSServerInfoMsg carries the backend's hello payload.
type WSServerInfoMsg struct{ Raw json.RawMessage }

// WSErrorMsg wraps a server-side error message.
type WSErrorMsg struct{ Raw json.RawMessage }

// Listen returns a Bubble Tea command that connects and keeps retrying
// until the context is cancelled. It resolves with WSConnectedMsg once a
// connection is adopted.
func (s *Supervisor) Listen(ctx context.Context) tea.Cmd {
	return func() tea.Msg {
		delay := s.baseDelay
		for {
			select {
			case <-ctx.Done():
				s.setState(StateIdle)
				return nil
			default:
			}

			s.setState(StateConnecting)
			conn, _, err := websocket.DefaultDialer.DialContext(ctx, s.url, nil)
			if err != nil {
				log.Printf("ws dial %s: %v (retry in %v)", s.url, err, delay)
				s.setState(StateReconnectScheduled)
				s.notify(StateReconnectScheduled, err)
				timer := time.NewTimer(delay)
				select {
				case <-ctx.Done():
					timer.Stop()
					s.setState(StateIdle)
					return nil
				case <-timer.C:
				}
				delay = min(delay*2, s.maxDelay)
				continue
			}

			s.adopt(ctx, conn)
			s.notify(StateConnected, nil)
			return WSConnectedMsg{}
		}
	}
}

// adopt installs conn as the single live handle, tearing down any previous
// connection and its ping goroutine first.
func (s *Supervisor) adopt(ctx context.Context, conn *websocket.Conn) {
	s.mu.Lock()
	if s.conn != nil {
		s.conn.Close()
	}
	if s.pingCancel != nil {
		s.pingCancel()
	}
	pingCtx, pingCancel := context.WithCancel(ctx)
	s.conn = conn
	s.seq = 0
	s.pingCancel = pingCancel
	s.state = StateConnected
	s.mu.Unlock()

	go s.pingLoop(pingCtx, conn)
}

// ReadLoop returns a Bubble Tea command that reads push messages from the
// live connection. Start it after receiving WSConnectedMsg; it resolves
// with the next dispatchable message, or WSDisconnectedMsg on loss.
func (s *Supervisor) ReadLoop(ctx context.Context) tea.Cmd {
	return func() tea.Msg {
		s.mu.Lock()
		conn := s.conn
		s.mu.Unlock()
		if conn == nil {
			return WSDisconnectedMsg{Err: fmt.Errorf("no connection")}
		}

		conn.SetPongHandler(func(string) error {
			conn.SetReadDeadline(time.Now().Add(pongTimeout))
			return nil
		})
		conn.SetReadDeadline(time.Now().Add(pongTimeout))

		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				s.mu.Lock()
				current := s.conn == conn
				if current {
					s.conn = nil
					s.state = StateDisconnected
				}
				s.mu.Unlock()
				conn.Close()
				if !current {
					// A newer connection already replaced this one;
					// don't report its death as a live disconnect.
					return nil
				}
				s.notify(StateDisconnected, err)
				return WSDisconnectedMsg{Err: err}
			}

			var msg WSMessage
			if err := json.Unmarshal(data, &msg); err != nil {
				continue
			}

			s.mu.Lock()
			s.seq = msg.Seq
			s.mu.Unlock()

			if teaMsg := dispatch(msg); teaMsg != nil {
				return teaMsg
			}
		}
	}
}

// Shutdown closes the live connection, cancels the ping goroutine and
// returns the supervisor to Idle. Pending reconnect timers are owned by
// the Listen command's context and die with it.
func (s *Supervisor) Shutdown() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pingCancel != nil {
		s.pingCancel()
		s.pingCancel = nil
	}
	if s.conn != nil {
		s.conn.Close()
		s.conn = nil
	}
	s.state = StateIdle
}

// pingLoop sends periodic pings on the given connection. It exits when the
// context is cancelled or the connection is no longer the live handle.
func (s *Supervisor) pingLoop(ctx context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.mu.Lock()
			current := s.conn
			s.mu.Unlock()
			if current != conn {
				return
			}
			s.writeMu.Lock()
			conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			err := conn.WriteMessage(websocket.PingMessage, nil)
			s.writeMu.Unlock()
			if err != nil {
				return
			}
		}
	}
}

func dispatch(msg WSMessage) tea.Msg {
	switch msg.Type {
	case MsgMovementNew:
		var p EventPayload
		if json.Unmarshal(msg.Payload, &p) == nil {
			return WSEventMsg{Channel: telemetry.Movement, Record: p.Record(telemetry.Movement)}
		}
	case MsgObstacleNew:
		var p EventPayload
		if json.Unmarshal(msg.Payload, &p) == nil {
			return WSEventMsg{Channel: telemetry.Obstacle, Record: p.Record(telemetry.Obstacle)}
		}
	case MsgDemoRun:
		var p DemoRunPayload
		if json.Unmarshal(msg.Payload, &p) == nil {
			return WSEventMsg{Channel: telemetry.DemoRun, Record: p.CurrentMove().Record(telemetry.DemoRun)}
		}
	case MsgDemoNew:
		var info SequenceInfo
		if json.Unmarshal(msg.Payload, &info) == nil {
			return WSDemoNewMsg{Info: info}
		}
	case MsgServerInfo:
		return WSServerInfoMsg{Raw: msg.Payload}
	case MsgError:
		return WSErrorMsg{Raw: msg.Payload}
	}
	return nil
}
