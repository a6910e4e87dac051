package ui

import (
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/muurk/luxws/internal/session"
	"github.com/muurk/luxws/internal/snapshot"
)

func numeric(v float64) *float64 { return &v }
func textual(s string) *string { return &s }

var testLeaves = []snapshot.Leaf{
	{ID: "flow", Category: "temperature", Name: "Vorlauf", Unit: "°C", Numeric: numeric(31.2)},
	{ID: "outdoor", Category: "temperature", Name: "Außentemperatur", Unit: "°C", Numeric: numeric(-2.5)},
	{ID: "operating_mode", Category: "operating_status", Name: "Betriebszustand", Unit: "mode", Textual: textual("Heizen")},
	{ID: "compressor_hours", Category: "operating_hours.compressor", Name: "Betriebstunden VD1", Unit: "h", Numeric: numeric(1234)},
}

func TestRenderLeafTable(t *testing.T) {
	out := RenderLeafTable(testLeaves, 0)

	for _, want := range []string{"Category", "Name", "Value", "ID", "Vorlauf", "31.2 °C", "-2.5 °C", "Heizen", "1234 h", "operating_hours.compressor"} {
		if !strings.Contains(out, want) {
			t.Errorf("table is missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "Heizen mode") {
		t.Error("encoding markers must not be shown as units")
	}
}

func TestResultRender(t *testing.T) {
	tests := []struct {
		name   string
		result *Result
		want   []string
	}{
		{
			name: "success keeps detail order",
			result: NewSuccessResult("2 controllers found",
				Detail{"First", "192.168.1.40:8214"},
				Detail{"Second", "192.168.1.41:8214"},
			),
			want: []string{"SUCCESS", "2 controllers found", "First:", "Second:"},
		},
		{
			name: "failure with tips",
			result: NewFailureResult("Discovery failed", errors.New("no multicast"), []string{
				"Check the firewall allows UDP 5353",
			}),
			want: []string{"FAILED", "Error: no multicast", "Troubleshooting:", "UDP 5353"},
		},
		{
			name:   "warning",
			result: NewWarningResult("No controllers found").AddDetail("Timeout", "5s"),
			want:   []string{"WARNING", "Timeout:", "5s"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := tt.result.SetWidth(100).String()
			for _, w := range tt.want {
				if !strings.Contains(out, w) {
					t.Errorf("render is missing %q:\n%s", w, out)
				}
			}
		})
	}

	out := NewSuccessResult("ordered", Detail{"Alpha", "1"}, Detail{"Beta", "2"}).SetWidth(80).Render()
	if strings.Index(out, "Alpha") > strings.Index(out, "Beta") {
		t.Error("details rendered out of order")
	}
}

type fakeSource struct {
	leaves  []snapshot.Leaf
	updated time.Time
	status  session.Status
}

func (f *fakeSource) Leaves() []snapshot.Leaf { return f.leaves }
func (f *fakeSource) LastUpdated() time.Time { return f.updated }
func (f *fakeSource) Status() session.Status { return f.status }

func newTestDashboard(src *fakeSource) Dashboard {
	d := NewDashboard("luxws", src, src)
	d.now = func() time.Time { return time.Date(2026, 10, 16, 8, 0, 30, 0, time.UTC) }
	return d
}

func update(t *testing.T, d Dashboard, msg tea.Msg) (Dashboard, tea.Cmd) {
	t.Helper()
	m, cmd := d.Update(msg)
	out, ok := m.(Dashboard)
	if !ok {
		t.Fatalf("Update returned %T", m)
	}
	return out, cmd
}

func TestDashboard_WaitingForData(t *testing.T) {
	src := &fakeSource{status: session.Status{State: session.StateOpen, URL: "ws://heatpump:8214"}}
	d, cmd := update(t, newTestDashboard(src), refreshMsg(time.Now()))

	if cmd == nil {
		t.Error("refresh should schedule the next tick")
	}
	view := d.View()
	if !strings.Contains(view, "Waiting for data from ws://heatpump:8214") {
		t.Errorf("view = %s", view)
	}
	if !strings.Contains(view, "OPEN") {
		t.Error("view should show the session state")
	}
}

func TestDashboard_ShowsLeavesAndFilters(t *testing.T) {
	src := &fakeSource{
		leaves:  testLeaves,
		updated: time.Date(2026, 10, 16, 8, 0, 0, 0, time.UTC),
		status:  session.Status{State: session.StateDataSelected},
	}
	d, _ := update(t, newTestDashboard(src), refreshMsg(time.Now()))

	if got := d.categories; len(got) != 4 || got[1] != "temperature" || got[3] != "operating_hours" {
		t.Fatalf("categories = %q", got)
	}
	if len(d.table.Rows()) != 4 {
		t.Errorf("rows = %d, want 4", len(d.table.Rows()))
	}
	if view := d.View(); !strings.Contains(view, "updated 30s ago") || !strings.Contains(view, "DATA_SELECTED") {
		t.Errorf("status line missing from view:\n%s", view)
	}

	d, _ = update(t, d, tea.KeyMsg{Type: tea.KeyTab})
	if d.categories[d.category] != "temperature" || len(d.table.Rows()) != 2 {
		t.Errorf("after tab: category %q with %d rows", d.categories[d.category], len(d.table.Rows()))
	}

	// The selected category survives a refresh.
	d, _ = update(t, d, refreshMsg(time.Now()))
	if d.categories[d.category] != "temperature" {
		t.Errorf("category after refresh = %q", d.categories[d.category])
	}

	d, _ = update(t, d, tea.KeyMsg{Type: tea.KeyShiftTab})
	d, _ = update(t, d, tea.KeyMsg{Type: tea.KeyShiftTab})
	if d.categories[d.category] != "operating_hours" {
		t.Errorf("shift+tab should wrap around, got %q", d.categories[d.category])
	}
}

func TestDashboard_ErrorStatus(t *testing.T) {
	src := &fakeSource{status: session.Status{State: session.StateError, Errors: 3, Cooldown: 42, LastError: "dial: refused"}}
	d, _ := update(t, newTestDashboard(src), refreshMsg(time.Now()))

	view := d.View()
	for _, want := range []string{"ERROR", "3 errors", "retry in 42 polls", "dial: refused"} {
		if !strings.Contains(view, want) {
			t.Errorf("view is missing %q", want)
		}
	}
}

func TestDashboard_Quit(t *testing.T) {
	d := newTestDashboard(&fakeSource{})
	_, cmd := update(t, d, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if cmd == nil {
		t.Fatal("q should return a command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q should quit")
	}
}

func TestDashboard_Resize(t *testing.T) {
	d := newTestDashboard(&fakeSource{})
	d, _ = update(t, d, tea.WindowSizeMsg{Width: 300, Height: 40})
	if d.width != MaxContentWidth {
		t.Errorf("width = %d, want clamped to %d", d.width, MaxContentWidth)
	}
	if d.help.Width != MaxContentWidth {
		t.Errorf("help width = %d", d.help.Width)
	}
}
