package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/wippyai/strand"
	"github.com/wippyai/strand/codec"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	valueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

// targets lists the encodings the viewer cycles through.
var targets = []codec.Encoding{
	codec.UTF8, codec.UTF16LE, codec.UTF16BE,
	codec.UTF32LE, codec.UTF32BE,
	codec.ASCII, codec.Latin1, codec.Bytes,
}

type inspectModel struct {
	input    textinput.Model
	source   *strand.String
	selected int
	err      error
	editing  bool
}

func newInspectModel(initial string) *inspectModel {
	ti := textinput.New()
	ti.Placeholder = "type text to inspect"
	ti.SetValue(initial)
	ti.Focus()
	return &inspectModel{
		input:   ti,
		editing: true,
	}
}

func runInteractive(initial string) error {
	p := tea.NewProgram(newInspectModel(initial))
	_, err := p.Run()
	return err
}

func (m *inspectModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m *inspectModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit

		case "enter":
			if m.editing {
				m.source = strand.FromGoString(m.input.Value())
				m.err = nil
				m.editing = false
				m.input.Blur()
			}
			return m, nil

		case "esc":
			if !m.editing {
				m.editing = true
				m.input.Focus()
				return m, textinput.Blink
			}
			return m, tea.Quit

		case "q":
			if !m.editing {
				return m, tea.Quit
			}

		case "left", "h":
			if !m.editing && m.selected > 0 {
				m.selected--
			}
			if !m.editing {
				return m, nil
			}

		case "right", "l":
			if !m.editing && m.selected < len(targets)-1 {
				m.selected++
			}
			if !m.editing {
				return m, nil
			}
		}
	}

	if m.editing {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *inspectModel) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("strand inspector"))
	b.WriteString("\n\n")
	b.WriteString(m.input.View())
	b.WriteString("\n\n")

	if m.editing {
		b.WriteString(helpStyle.Render("enter: inspect • ctrl+c: quit"))
		return b.String()
	}

	for i, enc := range targets {
		name := " " + enc.String() + " "
		if i == m.selected {
			b.WriteString(selectedStyle.Render(name))
		} else {
			b.WriteString(helpStyle.Render(name))
		}
	}
	b.WriteString("\n\n")

	b.WriteString(m.renderAttrs(targets[m.selected]))
	b.WriteString("\n")
	b.WriteString(helpStyle.Render("←/→: encoding • esc: edit text • q: quit"))
	return b.String()
}

func (m *inspectModel) renderAttrs(target codec.Encoding) string {
	out, err := m.source.Transcode(target, strand.Default)
	if err != nil {
		return errorStyle.Render("transcode: " + err.Error())
	}

	cr, err := out.CodeRange()
	if err != nil {
		return errorStyle.Render(err.Error())
	}
	cpLen, err := out.CodePointLength()
	if err != nil {
		return errorStyle.Render(err.Error())
	}
	raw, err := out.Bytes()
	if err != nil {
		return errorStyle.Render(err.Error())
	}

	rows := [][2]string{
		{"bytes", fmt.Sprintf("%d", out.ByteLength())},
		{"units", fmt.Sprintf("%d (stride %d)", out.Length(), out.Stride())},
		{"codepoints", fmt.Sprintf("%d", cpLen)},
		{"code range", cr.String()},
		{"replaced", fmt.Sprintf("%v", out.Replaced())},
		{"raw", hexPreview(raw)},
	}

	var b strings.Builder
	for _, row := range rows {
		b.WriteString(labelStyle.Render(fmt.Sprintf("%-12s", row[0])))
		b.WriteString(valueStyle.Render(row[1]))
		b.WriteString("\n")
	}
	return b.String()
}

func hexPreview(b []byte) string {
	const limit = 24
	if len(b) <= limit {
		return fmt.Sprintf("% x", b)
	}
	return fmt.Sprintf("% x … (%d bytes)", b[:limit], len(b))
}
