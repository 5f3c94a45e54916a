package app

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/MndV09/iot-carbot/internal/client"
	"github.com/MndV09/iot-carbot/internal/config"
	"github.com/MndV09/iot-carbot/internal/telemetry"
)

func newTestModel() Model {
	sup := client.NewSupervisor("ws://127.0.0.1:1/ws", time.Second, time.Second)
	return New(sup, client.NewHTTPClient("http://127.0.0.1:1"), config.Default())
}

func update(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, _ := m.Update(msg)
	model, ok := next.(Model)
	if !ok {
		t.Fatalf("Update returned %T", next)
	}
	return model
}

func TestConnectionStateReachesStatusBar(t *testing.T) {
	m := newTestModel()

	m = update(t, m, client.WSConnectedMsg{})
	if m.statusBar.State != client.StateConnected {
		t.Errorf("state = %v, want connected", m.statusBar.State)
	}

	m = update(t, m, client.WSDisconnectedMsg{})
	if m.statusBar.State != client.StateDisconnected {
		t.Errorf("state = %v, want disconnected", m.statusBar.State)
	}
}

func TestPushEventReachesSession(t *testing.T) {
	m := newTestModel()
	rec := &telemetry.EventRecord{
		Channel:    telemetry.Movement,
		SubjectID:  1,
		Code:       8,
		OccurredAt: time.Date(2025, 3, 1, 12, 0, 5, 0, time.UTC),
	}

	m = update(t, m, client.WSEventMsg{Channel: telemetry.Movement, Record: rec})

	got := m.session.Latest(telemetry.Movement)
	if got == nil || got.Code != 8 {
		t.Errorf("session latest = %+v, want code 8", got)
	}
	if len(m.session.Log(telemetry.Movement)) != 1 {
		t.Error("event missing from movement log")
	}
}

func TestDemoRunEventUpdatesCurrentAction(t *testing.T) {
	m := newTestModel()
	rec := &telemetry.EventRecord{Channel: telemetry.DemoRun, SubjectID: 1, Code: 1}

	m = update(t, m, client.WSEventMsg{Channel: telemetry.DemoRun, Record: rec})

	if !strings.Contains(m.demoView.CurrentAction, "Forward") {
		t.Errorf("CurrentAction = %q, want move label", m.demoView.CurrentAction)
	}
}

func TestTabTogglesPanel(t *testing.T) {
	m := newTestModel()
	if m.panel != PanelMonitor {
		t.Fatalf("initial panel = %v", m.panel)
	}
	m = update(t, m, tea.KeyMsg{Type: tea.KeyTab})
	if m.panel != PanelDemo {
		t.Errorf("panel = %v, want demo", m.panel)
	}
	m = update(t, m, tea.KeyMsg{Type: tea.KeyTab})
	if m.panel != PanelMonitor {
		t.Errorf("panel = %v, want monitor", m.panel)
	}
}

func TestDemoPanelAddsSteps(t *testing.T) {
	m := newTestModel()
	m = update(t, m, tea.KeyMsg{Type: tea.KeyTab}) // to demo panel
	m = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	if len(m.demoView.Steps) != 1 {
		t.Fatalf("steps = %d, want 1", len(m.demoView.Steps))
	}
	if m.demoView.Steps[0].StatusClave != 1 {
		t.Errorf("step code = %d, want first catalog move", m.demoView.Steps[0].StatusClave)
	}
	if m.demoView.Steps[0].DurationMs != 800 {
		t.Errorf("step duration = %d, want default 800", m.demoView.Steps[0].DurationMs)
	}
}

func TestSnapshotFailureShowsNotice(t *testing.T) {
	m := newTestModel()
	m = update(t, m, snapshotLoadedMsg{err: errTest})
	if !strings.Contains(m.statusBar.Notice, "initial data unavailable") {
		t.Errorf("Notice = %q", m.statusBar.Notice)
	}
}

var errTest = errType{}

type errType struct{}

func (errType) Error() string { return "boom" }

func TestViewRendersPanels(t *testing.T) {
	m := newTestModel()
	m = update(t, m, tea.WindowSizeMsg{Width: 100, Height: 40})

	out := m.View()
	if !strings.Contains(out, "LIVE") || !strings.Contains(out, "CONTROL") {
		t.Error("monitor view missing expected sections")
	}

	m = update(t, m, tea.KeyMsg{Type: tea.KeyTab})
	out = m.View()
	if !strings.Contains(out, "DEMO BUILDER") {
		t.Error("demo view missing builder section")
	}
}
