package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// selectorItem is one choice; value is returned on selection.
type selectorItem struct {
	name  string
	value string
}

// selectorModel picks one item. Typing narrows the list by name.
type selectorModel struct {
	title     string
	items     []selectorItem
	filter    string
	cursor    int
	selected  string
	cancelled bool
}

func newSelectorModel(title string, items []selectorItem) selectorModel {
	return selectorModel{title: title, items: items}
}

// visible returns the items matching the filter, case-insensitively.
func (m selectorModel) visible() []selectorItem {
	if m.filter == "" {
		return m.items
	}
	f := strings.ToLower(m.filter)
	var out []selectorItem
	for _, it := range m.items {
		if strings.Contains(strings.ToLower(it.name), f) {
			out = append(out, it)
		}
	}
	return out
}

func (m selectorModel) Init() tea.Cmd {
	return nil
}

func (m selectorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	items := m.visible()
	switch key.Type {
	case tea.KeyCtrlC, tea.KeyEsc:
		m.cancelled = true
		return m, tea.Quit
	case tea.KeyUp:
		if m.cursor > 0 {
			m.cursor--
		}
	case tea.KeyDown:
		if m.cursor < len(items)-1 {
			m.cursor++
		}
	case tea.KeyEnter:
		if m.cursor < len(items) {
			m.selected = items[m.cursor].value
			return m, tea.Quit
		}
	case tea.KeyBackspace:
		if n := len(m.filter); n > 0 {
			m.filter = m.filter[:n-1]
			m.cursor = 0
		}
	case tea.KeyRunes:
		m.filter += string(key.Runes)
		m.cursor = 0
	}
	return m, nil
}

func (m selectorModel) View() string {
	width := 80  // default width
	height := 24 // default height

	sidePadding := 2
	var b strings.Builder

	header := lipgloss.NewStyle().
		Bold(true).
		Foreground(primaryColor).
		Background(headerBgColor).
		Padding(0, 2).
		Render("☰ " + m.title)
	b.WriteString(header)
	b.WriteString("\n\n")

	if m.filter != "" {
		b.WriteString(dimStyle.Render("Filter: ") + m.filter)
		b.WriteString("\n")
	}

	items := m.visible()
	var content strings.Builder
	if len(items) == 0 {
		content.WriteString(dimStyle.Render("no match"))
	}
	for i, item := range items {
		cursor := "  "
		style := tableRowStyle
		if i == m.cursor {
			cursor = "▸ "
			style = tableSelectedRowStyle
		}
		content.WriteString(style.Render(cursor + item.name))
		if i < len(items)-1 {
			content.WriteString("\n")
		}
	}

	itemBox := lipgloss.NewStyle().
		Border(lipgloss.ThickBorder()).
		BorderForeground(borderColor).
		Padding(0, 1).
		Render(content.String())
	b.WriteString(itemBox)

	var view strings.Builder
	lines := strings.Split(b.String(), "\n")
	for _, line := range lines {
		view.WriteString(strings.Repeat(" ", sidePadding))
		view.WriteString(line)
		view.WriteString("\n")
	}
	for i := len(lines) + 1; i < height; i++ {
		view.WriteString("\n")
	}

	view.WriteString(RenderHelpBar("↑↓ move • type to filter • Enter select • Esc cancel", width))
	return view.String()
}

// RunSelector runs a selector TUI and returns the selected item's value.
func RunSelector(title string, items []selectorItem) (string, error) {
	p := tea.NewProgram(newSelectorModel(title, items))
	result, err := p.Run()
	if err != nil {
		return "", err
	}
	sm := result.(selectorModel)
	if sm.cancelled {
		return "", fmt.Errorf("cancelled")
	}
	return sm.selected, nil
}
