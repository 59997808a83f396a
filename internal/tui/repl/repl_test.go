package repl

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/msto63/mbasic/internal/frontend/service"
	"github.com/msto63/mbasic/internal/frontend/store"
	"github.com/msto63/mbasic/pkg/core/logging"
)

func newService(t *testing.T) *service.Service {
	t.Helper()
	cfg := service.DefaultConfig()
	cfg.Filename = "<stdin>"
	cfg.TestFile = filepath.Join(t.TempDir(), "test.txt")
	cfg.Logger = logging.Wrap(logging.NewLogger(logging.LoggerConfig{
		Format: "json",
		Output: &bytes.Buffer{},
	}), "frontend")
	svc, err := service.NewService(cfg)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { svc.Close() })
	return svc
}

type failingExecutor struct{}

func (failingExecutor) Execute(context.Context, store.Origin, string) (*service.Response, error) {
	return nil, errors.New("engine unavailable")
}

func TestEval(t *testing.T) {
	svc := newService(t)

	tests := []struct {
		name   string
		line   string
		ok     bool
		failed bool
		want   string
	}{
		{"list", "[1, 2]", true, false, "Result: [1, 2]\nTokens: 5"},
		{"grouped identifier", "(abc)", true, false, "Result: abc\nTokens: 3"},
		{"blank", "   ", false, false, ""},
		{"empty", "", false, false, ""},
		{"illegal character", "1 @", true, true, "Illegal Character: '@'\nFile <stdin>, line 1"},
		{"syntax error", "[1", true, true, "Invalid Syntax: Expected ',' or ']'\nFile <stdin>, line 1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, ok := Eval(context.Background(), svc, tt.line)
			if ok != tt.ok {
				t.Fatalf("ok = %v, want %v", ok, tt.ok)
			}
			if out.Failed != tt.failed {
				t.Errorf("Failed = %v, want %v", out.Failed, tt.failed)
			}
			if !strings.HasPrefix(out.Text, tt.want) {
				t.Errorf("Text = %q, want prefix %q", out.Text, tt.want)
			}
		})
	}
}

func TestEval_ExecutorError(t *testing.T) {
	out, ok := Eval(context.Background(), failingExecutor{}, "1")
	if !ok || !out.Failed || out.Text != "engine unavailable" {
		t.Errorf("got %+v, %v", out, ok)
	}
}

func TestRunPlain(t *testing.T) {
	svc := newService(t)
	in := strings.NewReader("[x]\n\n1 2\n")
	var out bytes.Buffer

	if err := RunPlain(context.Background(), svc, in, &out, ""); err != nil {
		t.Fatal(err)
	}

	got := out.String()
	if !strings.HasPrefix(got, "basic > Result: [x]\nTokens: 3\nbasic > basic > Invalid Syntax: Extra stuff after expression") {
		t.Errorf("unexpected transcript:\n%s", got)
	}
	if !strings.HasSuffix(got, "basic > \n") {
		t.Errorf("transcript should end with a final prompt and newline:\n%q", got)
	}
}

func TestRunPlain_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := RunPlain(ctx, failingExecutor{}, strings.NewReader("1\n"), &bytes.Buffer{}, "> ")
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

// typeLine sends line followed by enter and runs the resulting command
func typeLine(t *testing.T, m Model, line string) Model {
	t.Helper()
	if line != "" {
		next, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(line)})
		m = next.(Model)
	}
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = next.(Model)
	if cmd != nil {
		next, _ = m.Update(cmd())
		m = next.(Model)
	}
	return m
}

func TestModel_Evaluate(t *testing.T) {
	m := New(context.Background(), Config{Executor: newService(t)})
	next, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	m = next.(Model)

	m = typeLine(t, m, "[1, 2.5]")
	m = typeLine(t, m, "")
	m = typeLine(t, m, "$")

	entries := m.Entries()
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2 (blank lines are ignored)", len(entries))
	}
	if entries[0].Output.Text != "Result: [1, 2.5]\nTokens: 5" || entries[0].Output.Failed {
		t.Errorf("first entry = %+v", entries[0])
	}
	if !entries[1].Output.Failed {
		t.Errorf("second entry should fail: %+v", entries[1])
	}
	if m.Input() != "" {
		t.Errorf("input should be cleared, got %q", m.Input())
	}
	if !strings.HasPrefix(m.Transcript(), "basic > [1, 2.5]\nResult: [1, 2.5]\n") {
		t.Errorf("Transcript() = %q", m.Transcript())
	}
	if !strings.Contains(m.View(), "mBASIC") {
		t.Error("View() should render the title")
	}
}

func TestModel_History(t *testing.T) {
	m := New(context.Background(), Config{Executor: newService(t), Prompt: "> "})
	m = typeLine(t, m, "a")
	m = typeLine(t, m, "b")
	m = typeLine(t, m, "b")

	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("draft")})
	m = next.(Model)

	steps := []struct {
		key  tea.KeyType
		want string
	}{
		{tea.KeyUp, "b"},
		{tea.KeyUp, "a"},
		{tea.KeyUp, "a"},
		{tea.KeyDown, "b"},
		{tea.KeyDown, "draft"},
		{tea.KeyDown, "draft"},
	}
	for i, s := range steps {
		next, _ := m.Update(tea.KeyMsg{Type: s.key})
		m = next.(Model)
		if m.Input() != s.want {
			t.Errorf("step %d: input = %q, want %q", i, m.Input(), s.want)
		}
	}
}

func TestModel_ClearAndQuit(t *testing.T) {
	m := New(context.Background(), Config{Executor: newService(t)})
	m = typeLine(t, m, "1")

	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyCtrlL})
	m = next.(Model)
	if len(m.Entries()) != 0 {
		t.Error("ctrl+l should clear the transcript")
	}

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlD})
	m = next.(Model)
	if cmd == nil {
		t.Fatal("ctrl+d on an empty line should quit")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("expected tea.QuitMsg")
	}
	if m.View() != "" {
		t.Error("View() should be empty after quitting")
	}
}
