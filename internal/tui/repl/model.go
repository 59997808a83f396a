// ============================================================================
// mBASIC - Scripting Language Front-End
// ============================================================================
//
// Package:     repl
// Description: Bubble Tea model for the interactive REPL
// Author:      msto63
// Created:     2026-10-19
// License:     MIT
// ============================================================================

package repl

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
)

// Config holds REPL configuration
type Config struct {
	Prompt   string
	Executor Executor
}

// Entry is one evaluated input line with its outcome
type Entry struct {
	Input  string
	Output Output
}

// evalMsg carries the outcome of an evaluation back into Update
type evalMsg struct {
	entry Entry
}

// Model is the Bubble Tea model of the REPL
type Model struct {
	// State
	width    int
	height   int
	ready    bool
	busy     bool
	quitting bool

	// Components
	input    textinput.Model
	viewport viewport.Model

	entries []Entry

	// Input history
	inputHistory []string
	historyIndex int // -1 = new input
	currentInput string

	ctx    context.Context
	exec   Executor
	prompt string
}

// New creates a new REPL model
func New(ctx context.Context, cfg Config) Model {
	prompt := cfg.Prompt
	if prompt == "" {
		prompt = DefaultPrompt
	}

	ti := textinput.New()
	ti.Prompt = prompt
	ti.PromptStyle = PromptStyle
	ti.TextStyle = InputEchoStyle
	ti.CharLimit = maxLineLength
	ti.Focus()

	return Model{
		input:        ti,
		viewport:     viewport.New(80, 20),
		historyIndex: -1,
		ctx:          ctx,
		exec:         cfg.Executor,
		prompt:       prompt,
	}
}

// Init implements tea.Model
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update implements tea.Model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyPress(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		headerHeight := 2 // title + blank line
		footerHeight := 3 // input + help
		m.viewport.Width = msg.Width
		m.viewport.Height = max(msg.Height-headerHeight-footerHeight, 1)
		m.input.Width = max(msg.Width-len(m.prompt)-1, 10)
		m.ready = true
		m.updateViewportContent()
		return m, nil

	case evalMsg:
		m.busy = false
		m.entries = append(m.entries, msg.entry)
		m.updateViewportContent()
		m.viewport.GotoBottom()
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC, tea.KeyEsc:
		m.quitting = true
		return m, tea.Quit

	case tea.KeyCtrlD:
		if m.input.Value() == "" {
			m.quitting = true
			return m, tea.Quit
		}

	case tea.KeyCtrlL:
		m.entries = nil
		m.updateViewportContent()
		return m, nil

	case tea.KeyEnter:
		if m.busy {
			return m, nil
		}
		line := m.input.Value()
		m.input.Reset()
		m.historyIndex = -1
		m.currentInput = ""
		if strings.TrimSpace(line) == "" {
			return m, nil
		}
		if n := len(m.inputHistory); n == 0 || m.inputHistory[n-1] != line {
			m.inputHistory = append(m.inputHistory, line)
		}
		m.busy = true
		return m, m.evaluate(line)

	case tea.KeyUp:
		if len(m.inputHistory) == 0 {
			return m, nil
		}
		if m.historyIndex == -1 {
			m.currentInput = m.input.Value()
			m.historyIndex = len(m.inputHistory) - 1
		} else if m.historyIndex > 0 {
			m.historyIndex--
		}
		m.input.SetValue(m.inputHistory[m.historyIndex])
		m.input.CursorEnd()
		return m, nil

	case tea.KeyDown:
		if m.historyIndex == -1 {
			return m, nil
		}
		if m.historyIndex < len(m.inputHistory)-1 {
			m.historyIndex++
			m.input.SetValue(m.inputHistory[m.historyIndex])
		} else {
			m.historyIndex = -1
			m.input.SetValue(m.currentInput)
		}
		m.input.CursorEnd()
		return m, nil

	case tea.KeyPgUp, tea.KeyPgDown:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// evaluate runs line off the update loop
func (m Model) evaluate(line string) tea.Cmd {
	ctx, exec := m.ctx, m.exec
	return func() tea.Msg {
		out, _ := Eval(ctx, exec, line)
		return evalMsg{entry: Entry{Input: line, Output: out}}
	}
}

func (m *Model) updateViewportContent() {
	var b strings.Builder
	for i, e := range m.entries {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(PromptStyle.Render(m.prompt))
		b.WriteString(InputEchoStyle.Render(e.Input))
		b.WriteString("\n")
		if e.Output.Failed {
			b.WriteString(ErrorStyle.Render(e.Output.Text))
		} else {
			b.WriteString(ResultStyle.Render(e.Output.Text))
		}
		b.WriteString("\n")
	}
	m.viewport.SetContent(b.String())
}

// View implements tea.Model
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(TitleStyle.Render("mBASIC"))
	b.WriteString("\n\n")
	b.WriteString(m.viewport.View())
	b.WriteString("\n")
	b.WriteString(m.input.View())
	b.WriteString("\n")
	b.WriteString(HelpStyle.Render("enter run · ↑/↓ history · ctrl+l clear · ctrl+c quit"))
	return b.String()
}

// Entries returns the evaluated lines in order
func (m Model) Entries() []Entry {
	return m.entries
}

// Transcript renders the session as plain text, the way the line REPL
// prints it
func (m Model) Transcript() string {
	var b strings.Builder
	for _, e := range m.entries {
		b.WriteString(m.prompt)
		b.WriteString(e.Input)
		b.WriteString("\n")
		b.WriteString(e.Output.Text)
		b.WriteString("\n")
	}
	return b.String()
}

// Input returns the current content of the input line
func (m Model) Input() string {
	return m.input.Value()
}

// Run starts the interactive REPL and blocks until the user quits or ctx
// is done
func Run(ctx context.Context, cfg Config) error {
	p := tea.NewProgram(New(ctx, cfg), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}
