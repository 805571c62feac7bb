package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/dopejs/tmplvars/internal/catalog"
	"github.com/dopejs/tmplvars/internal/panel"
	"github.com/dopejs/tmplvars/internal/template"
)

// variablesModel renders one entity's variables and the trailing add row.
// It only reads: selecting a row emits selectVariableMsg or addVariableMsg.
type variablesModel struct {
	cat              catalog.Catalog
	entityInternalID string
	list             panel.List
	snapshot         *template.Template
	cursor           int
	status           string
	err              string
}

func newVariablesModel(cat catalog.Catalog, entityInternalID string) variablesModel {
	return variablesModel{cat: cat, entityInternalID: entityInternalID}
}

type listLoadedMsg struct {
	list     panel.List
	snapshot *template.Template
	err      error
}

func (m variablesModel) init() tea.Cmd {
	cat, entityID := m.cat, m.entityInternalID
	return func() tea.Msg {
		return loadList(cat, entityID)
	}
}

func loadList(cat catalog.Catalog, entityInternalID string) listLoadedMsg {
	snap, err := cat.Snapshot()
	if err != nil {
		return listLoadedMsg{err: err}
	}
	l, err := panel.BuildList(snap, entityInternalID)
	return listLoadedMsg{list: l, snapshot: snap, err: err}
}

func (m variablesModel) update(msg tea.Msg) (variablesModel, tea.Cmd) {
	switch msg := msg.(type) {
	case listLoadedMsg:
		if msg.err != nil {
			m.err = msg.err.Error()
			return m, nil
		}
		m.err = ""
		m.list = msg.list
		m.snapshot = msg.snapshot
		if m.cursor >= len(m.list.Items) {
			m.cursor = max(len(m.list.Items)-1, 0)
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m variablesModel) handleKey(msg tea.KeyMsg) (variablesModel, tea.Cmd) {
	switch msg.String() {
	case "q", "esc":
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.list.Items)-1 {
			m.cursor++
		}
	case "a":
		return m, func() tea.Msg { return addVariableMsg{} }
	case "r":
		m.status = ""
		return m, m.init()
	case "e", "enter":
		return m, m.activate()
	}
	return m, nil
}

// activate opens the row under the cursor.
func (m variablesModel) activate() tea.Cmd {
	if m.cursor >= len(m.list.Items) {
		return nil
	}
	item := m.list.Items[m.cursor]
	if item.Add {
		return func() tea.Msg { return addVariableMsg{} }
	}
	v := m.snapshot.VariablesByInternalID[item.InternalID]
	if v == nil {
		return nil
	}
	sel := selectVariableMsg{internalID: item.InternalID, variable: *v}
	return func() tea.Msg { return sel }
}

func entityTitle(e template.Entity) string {
	if e.Name != "" {
		return e.Name
	}
	return e.ID
}

func (m variablesModel) view(width, height int) string {
	sidePadding := 2
	var b strings.Builder

	b.WriteString(titleStyle.Render("  Entity Variables"))
	if m.list.EntityInternalID != "" {
		b.WriteString(dimStyle.Render("  " + entityTitle(m.list.Entity)))
	}
	b.WriteString("\n\n")

	if m.err != "" {
		b.WriteString(errorStyle.Render("  ✗ " + m.err))
		b.WriteString("\n")
	}

	for i, item := range m.list.Items {
		cursor := "  "
		style := tableRowStyle
		if i == m.cursor {
			cursor = "▸ "
			style = tableSelectedRowStyle
		}

		if item.Add {
			b.WriteString(style.Render(cursor + "Add Variable..."))
			b.WriteString("\n")
			continue
		}

		name := item.Name
		if name == "" {
			name = dimStyle.Render("(unnamed)")
		}
		line := fmt.Sprintf("%s%s %s  %s", cursor, item.Icon, style.Render(name), badgeDimStyle.Render(item.IDLabel))
		b.WriteString(line)
		if i == m.cursor {
			b.WriteString("  " + typeBadgeStyle(item.Type).Render(item.TooltipText))
		}
		b.WriteString("\n")
		if item.Description != "" {
			b.WriteString(dimStyle.Render("      " + item.Description))
			b.WriteString("\n")
		}
	}

	if len(m.list.Dangling) > 0 {
		b.WriteString("\n")
		b.WriteString(errorStyle.Render(fmt.Sprintf("  %d missing variable reference(s) skipped", len(m.list.Dangling))))
		b.WriteString("\n")
	}

	if m.status != "" {
		b.WriteString("\n")
		b.WriteString(successStyle.Render("  " + m.status))
	}

	// Build view with side padding
	mainContent := b.String()
	var view strings.Builder
	lines := strings.Split(mainContent, "\n")
	for _, line := range lines {
		view.WriteString(strings.Repeat(" ", sidePadding))
		view.WriteString(line)
		view.WriteString("\n")
	}

	// Fill remaining space to push help bar to bottom
	remainingLines := height - len(lines) - 1
	for i := 0; i < remainingLines; i++ {
		view.WriteString("\n")
	}

	view.WriteString(RenderHelpBar("↑↓ move • Enter edit • a add • r reload • q quit", width))
	return view.String()
}
