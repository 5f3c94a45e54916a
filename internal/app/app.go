// Package app wires the connection supervisor, the sync session and the
// demo sequencer into the root Bubble Tea model.
package app

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/MndV09/iot-carbot/internal/catalog"
	"github.com/MndV09/iot-carbot/internal/client"
	"github.com/MndV09/iot-carbot/internal/config"
	"github.com/MndV09/iot-carbot/internal/demo"
	"github.com/MndV09/iot-carbot/internal/telemetry"
	"github.com/MndV09/iot-carbot/internal/theme"
	"github.com/MndV09/iot-carbot/internal/views/demoview"
	"github.com/MndV09/iot-carbot/internal/views/monitor"
	"github.com/MndV09/iot-carbot/internal/views/status"
)

// Panel identifies which main panel is active.
type Panel int

const (
	PanelMonitor Panel = iota
	PanelDemo
)

// Model is the root Bubble Tea model.
type Model struct {
	sup    *client.Supervisor
	http   *client.HTTPClient
	cfg    *config.Config
	ctx    context.Context
	cancel context.CancelFunc

	session   *telemetry.Session
	sequencer *demo.Sequencer

	keys   KeyMap
	width  int
	height int
	panel  Panel

	// Move selector for the manual control row.
	moveCursor int

	statusBar status.Model
	monitor   monitor.Model
	demoView  demoview.Model
}

// New creates the root model. The session tracks the configured device on
// all three channels; DemoRun has no snapshot source and fills from push
// events only.
func New(sup *client.Supervisor, httpClient *client.HTTPClient, cfg *config.Config) Model {
	ctx, cancel := context.WithCancel(context.Background())
	session := telemetry.Open(cfg.Server.DeviceID, cfg.Monitor.History,
		telemetry.Movement, telemetry.Obstacle, telemetry.DemoRun)
	return Model{
		sup:       sup,
		http:      httpClient,
		cfg:       cfg,
		ctx:       ctx,
		cancel:    cancel,
		session:   session,
		sequencer: demo.New(httpClient),
		keys:      DefaultKeyMap(),
		statusBar: status.New(cfg.Server.DeviceID),
		monitor:   monitor.New(session),
		demoView:  demoview.New(),
	}
}

// --- command result messages ---

type snapshotLoadedMsg struct{ err error }

type movementSentMsg struct {
	code int
	err  error
}

type obstacleSentMsg struct{ err error }

type sequencesMsg struct {
	list []client.SequenceInfo
	err  error
}

type demoCreatedMsg struct {
	info *client.SequenceInfo
	err  error
}

type demoRanMsg struct{ err error }

// Init starts the push channel, the one-time snapshot load and the first
// sequence list fetch.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.sup.Listen(m.ctx), m.loadSnapshot(), m.refreshSequences())
}

func (m Model) loadSnapshot() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(m.ctx, m.cfg.Monitor.SnapshotTimeout)
		defer cancel()
		return snapshotLoadedMsg{err: m.session.LoadSnapshot(ctx, m.http)}
	}
}

func (m Model) refreshSequences() tea.Cmd {
	return func() tea.Msg {
		list, err := m.sequencer.Refresh(m.ctx)
		return sequencesMsg{list: list, err: err}
	}
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.statusBar.Width = msg.Width
		m.monitor.Width = msg.Width
		m.demoView.Width = msg.Width
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case client.WSConnectedMsg:
		m.statusBar.State = client.StateConnected
		return m, m.sup.ReadLoop(m.ctx)

	case client.WSDisconnectedMsg:
		m.statusBar.State = client.StateDisconnected
		return m, m.sup.Listen(m.ctx)

	case client.WSEventMsg:
		m.session.ApplyPush(msg.Record)
		m.statusBar.Seq = m.sup.Seq()
		if msg.Channel == telemetry.DemoRun {
			m.demoView.CurrentAction = currentActionLabel(msg.Record)
		}
		return m, m.sup.ReadLoop(m.ctx)

	case client.WSDemoNewMsg:
		// A sequence was stored server-side; refresh the selector.
		return m, tea.Batch(m.refreshSequences(), m.sup.ReadLoop(m.ctx))

	case client.WSServerInfoMsg, client.WSErrorMsg:
		return m, m.sup.ReadLoop(m.ctx)

	case snapshotLoadedMsg:
		if msg.err != nil {
			m.statusBar.Notice = "initial data unavailable: " + msg.err.Error()
		}
		return m, nil

	case movementSentMsg:
		if msg.err != nil {
			m.statusBar.Notice = "movement failed: " + msg.err.Error()
		} else {
			m.statusBar.Notice = fmt.Sprintf("movement %d sent", msg.code)
		}
		return m, nil

	case obstacleSentMsg:
		if msg.err != nil {
			m.statusBar.Notice = "obstacle failed: " + msg.err.Error()
		} else {
			m.statusBar.Notice = "obstacle registered"
		}
		return m, nil

	case sequencesMsg:
		if msg.err != nil {
			m.statusBar.Notice = "sequence list unavailable: " + msg.err.Error()
			return m, nil
		}
		m.demoView.Sequences = msg.list
		if m.demoView.SeqCursor >= len(msg.list) {
			m.demoView.SeqCursor = 0
		}
		return m, nil

	case demoCreatedMsg:
		if msg.err != nil {
			m.statusBar.Notice = msg.err.Error()
			return m, nil
		}
		m.sequencer.Clear()
		m.demoView.Steps = nil
		m.statusBar.Notice = fmt.Sprintf("demo %q created", msg.info.Name)
		return m, m.refreshSequences()

	case demoRanMsg:
		if msg.err != nil {
			m.statusBar.Notice = msg.err.Error()
		} else {
			m.statusBar.Notice = "demo running"
		}
		return m, nil
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.session.Close()
		m.sup.Shutdown()
		m.cancel()
		return m, tea.Quit

	case key.Matches(msg, m.keys.Tab):
		if m.panel == PanelMonitor {
			m.panel = PanelDemo
		} else {
			m.panel = PanelMonitor
		}
		return m, nil

	case key.Matches(msg, m.keys.Left):
		m.moveCursorBy(-1)
		return m, nil

	case key.Matches(msg, m.keys.Right):
		m.moveCursorBy(1)
		return m, nil
	}

	if m.panel == PanelDemo {
		return m.handleDemoKey(msg)
	}
	return m.handleMonitorKey(msg)
}

func (m *Model) moveCursorBy(delta int) {
	n := len(catalog.Moves)
	m.moveCursor = (m.moveCursor + delta + n) % n
	m.demoView.MoveCursor = m.moveCursor
}

func (m Model) handleMonitorKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Enter):
		code := catalog.Moves[m.moveCursor].ID
		return m, m.sendMovement(code)

	case key.Matches(msg, m.keys.Obstacle):
		return m, m.sendRandomObstacle()
	}
	return m, nil
}

func (m Model) handleDemoKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Enter):
		code := catalog.Moves[m.moveCursor].ID
		if err := m.sequencer.AddStep(code, m.demoView.NextDuration); err != nil {
			m.statusBar.Notice = err.Error()
		} else {
			m.demoView.Steps = m.sequencer.Steps()
		}
		return m, nil

	case key.Matches(msg, m.keys.Longer):
		m.demoView.NextDuration += 100
		return m, nil

	case key.Matches(msg, m.keys.Shorter):
		if m.demoView.NextDuration > demo.MinStepDurationMs {
			m.demoView.NextDuration -= 100
		}
		return m, nil

	case key.Matches(msg, m.keys.Up):
		if m.demoView.StepCursor > 0 {
			m.demoView.StepCursor--
		}
		return m, nil

	case key.Matches(msg, m.keys.Down):
		if m.demoView.StepCursor < len(m.demoView.Steps)-1 {
			m.demoView.StepCursor++
		}
		return m, nil

	case key.Matches(msg, m.keys.Remove):
		m.sequencer.RemoveStep(m.demoView.StepCursor)
		m.demoView.Steps = m.sequencer.Steps()
		if m.demoView.StepCursor >= len(m.demoView.Steps) && m.demoView.StepCursor > 0 {
			m.demoView.StepCursor--
		}
		return m, nil

	case key.Matches(msg, m.keys.MoveUp):
		m.sequencer.ReorderStep(m.demoView.StepCursor, -1)
		m.demoView.Steps = m.sequencer.Steps()
		if m.demoView.StepCursor > 0 {
			m.demoView.StepCursor--
		}
		return m, nil

	case key.Matches(msg, m.keys.MoveDown):
		m.sequencer.ReorderStep(m.demoView.StepCursor, 1)
		m.demoView.Steps = m.sequencer.Steps()
		if m.demoView.StepCursor < len(m.demoView.Steps)-1 {
			m.demoView.StepCursor++
		}
		return m, nil

	case key.Matches(msg, m.keys.Example):
		m.sequencer.LoadExample()
		m.demoView.Steps = m.sequencer.Steps()
		return m, nil

	case key.Matches(msg, m.keys.Clear):
		m.sequencer.Clear()
		m.demoView.Steps = nil
		m.demoView.StepCursor = 0
		return m, nil

	case key.Matches(msg, m.keys.Create):
		return m, m.createDemo()

	case key.Matches(msg, m.keys.Refresh):
		return m, m.refreshSequences()

	case key.Matches(msg, m.keys.NextSeq):
		if n := len(m.demoView.Sequences); n > 0 {
			m.demoView.SeqCursor = (m.demoView.SeqCursor + 1) % n
		}
		return m, nil

	case key.Matches(msg, m.keys.PrevSeq):
		if n := len(m.demoView.Sequences); n > 0 {
			m.demoView.SeqCursor = (m.demoView.SeqCursor - 1 + n) % n
		}
		return m, nil

	case key.Matches(msg, m.keys.Run):
		return m, m.runDemo(m.demoView.SelectedSequence())
	}
	return m, nil
}

// --- transport commands ---

func (m Model) sendMovement(code int) tea.Cmd {
	return func() tea.Msg {
		_, err := m.http.AddMovement(m.ctx, client.MovementRequest{
			DeviceID:    m.cfg.Server.DeviceID,
			StatusClave: code,
			Source:      "manual",
		})
		return movementSentMsg{code: code, err: err}
	}
}

// sendRandomObstacle registers a synthetic obstacle reading, matching the
// test button on the control page: 10-50 cm, 500-1300 ms back-off.
func (m Model) sendRandomObstacle() tea.Cmd {
	return func() tea.Msg {
		entry := catalog.RandomObstacle()
		_, err := m.http.AddObstacle(m.ctx, client.ObstacleRequest{
			DeviceID:    m.cfg.Server.DeviceID,
			StatusClave: entry.ID,
			DistanceCM:  10 + rand.Float64()*40,
			AutoReact:   1,
			BackMs:      500 + rand.Intn(800),
		})
		return obstacleSentMsg{err: err}
	}
}

func (m Model) createDemo() tea.Cmd {
	return func() tea.Msg {
		info, err := m.sequencer.Create(m.ctx, "", m.cfg.Server.DeviceID)
		return demoCreatedMsg{info: info, err: err}
	}
}

func (m Model) runDemo(sequenceID int) tea.Cmd {
	return func() tea.Msg {
		return demoRanMsg{err: m.sequencer.Run(m.ctx, sequenceID, m.cfg.Server.DeviceID, 0)}
	}
}

// View renders the full panel.
func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "Initializing..."
	}

	var body string
	var help string
	if m.panel == PanelDemo {
		body = m.demoView.View()
		help = "  ←/→:move  +/-:duration  enter:add  x:remove  [/]:reorder  e:example  c:create  n/p:select  R:run  r:refresh  tab:monitor  q:quit"
	} else {
		body = lipgloss.JoinVertical(lipgloss.Left, m.monitor.View(), m.controlRow())
		help = "  ←/→:select move  enter:send  o:random obstacle  tab:demo  q:quit"
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		m.statusBar.View(),
		body,
		theme.StyleDimmed.Render(help),
	)
}

// controlRow renders the manual movement selector.
func (m Model) controlRow() string {
	entry := catalog.Moves[m.moveCursor]
	sel := theme.StyleSelected.Render(fmt.Sprintf("%d • %s", entry.ID, entry.Name))
	return theme.StylePanel.Render(theme.StyleHeader.Render("CONTROL") + "\nsend: " + sel)
}

// currentActionLabel names the step a demo:run event reports as executing.
func currentActionLabel(rec *telemetry.EventRecord) string {
	name := fmt.Sprintf("#%d", rec.Code)
	if label, ok := catalog.MoveLabel(rec.Code); ok {
		name = label
	}
	if rec.OccurredAt.IsZero() {
		return name
	}
	return fmt.Sprintf("%s (%s)", name, rec.OccurredAt.Format("15:04:05"))
}
