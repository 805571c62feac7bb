package tui

import (
	"fmt"
	"log/slog"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/dopejs/tmplvars/internal/catalog"
	"github.com/dopejs/tmplvars/internal/panel"
	"github.com/dopejs/tmplvars/internal/template"
)

type view int

const (
	viewVariables view = iota
	viewDialog
)

// model is the entity variables panel: the list, the edit session, and the
// single dialog the session may have open.
type model struct {
	currentView view
	cat         catalog.Catalog
	logger      *slog.Logger
	session     panel.Session
	variables   variablesModel
	dialog      dialogModel
	watch       *templateWatcher
	width       int
	height      int
}

func newModel(cat catalog.Catalog, entityInternalID string, logger *slog.Logger) model {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return model{
		currentView: viewVariables,
		cat:         cat,
		logger:      logger,
		session:     panel.NewSession(entityInternalID, cat),
		variables:   newVariablesModel(cat, entityInternalID),
	}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(m.variables.init(), m.watch.wait())
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
	case listLoadedMsg:
		if msg.err != nil {
			m.logger.Error("load variables", "entity", m.session.EntityInternalID(), "error", msg.err)
		} else if len(msg.list.Dangling) > 0 {
			m.logger.Warn("entity lists missing variables", "entity", m.session.EntityInternalID(), "ids", msg.list.Dangling)
		}
		var cmd tea.Cmd
		m.variables, cmd = m.variables.update(msg)
		return m, cmd
	case templateChangedMsg:
		m.logger.Debug("template changed on disk", "path", msg.path)
		return m, tea.Batch(m.variables.init(), m.watch.wait())
	}

	switch m.currentView {
	case viewVariables:
		return m.updateVariables(msg)
	case viewDialog:
		return m.updateDialog(msg)
	}
	return m, nil
}

func (m model) View() string {
	switch m.currentView {
	case viewVariables:
		return m.variables.view(m.width, m.height)
	case viewDialog:
		content := m.dialog.view(m.width, m.height)
		if m.width > 0 {
			return WrapWithLayout(content, m.width, m.height)
		}
		return content
	}
	return ""
}

func (m model) updateVariables(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case selectVariableMsg:
		if err := m.session.Select(msg.internalID, msg.variable); err != nil {
			m.logger.Warn("select variable", "variable", msg.internalID, "error", err)
			return m, nil
		}
		return m.openDialog()
	case addVariableMsg:
		if err := m.session.AddNew(); err != nil {
			m.logger.Warn("add variable", "error", err)
			return m, nil
		}
		return m.openDialog()
	}

	var cmd tea.Cmd
	m.variables, cmd = m.variables.update(msg)
	return m, cmd
}

func (m model) openDialog() (tea.Model, tea.Cmd) {
	ed, ok := m.session.State().(panel.Editing)
	if !ok {
		return m, nil
	}
	m.variables.status = ""
	m.dialog = newDialogModel(ed, m.variables.list.Current, entityTitle(m.variables.list.Entity))
	m.currentView = viewDialog
	return m, m.dialog.init()
}

func (m model) updateDialog(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case closeDialogMsg:
		m.session.Close()
		m.currentView = viewVariables
		return m, nil

	case upsertVariableMsg:
		ed, _ := m.session.State().(panel.Editing)
		id, err := m.session.Upsert(msg.variable)
		if err != nil {
			m.logger.Warn("upsert variable rejected", "id", msg.variable.ID, "error", err)
			m.dialog, _ = m.dialog.update(dialogErrorMsg{err: err})
			return m, nil
		}
		verb := "Updated"
		if ed.Creating() {
			verb = "Created"
		}
		m.logger.Info("variable saved", "entity", m.session.EntityInternalID(), "variable", id, "id", msg.variable.ID, "created", ed.Creating())
		return m.closeAfterMutation(fmt.Sprintf("%s %s", verb, msg.variable.ID))

	case deleteVariableMsg:
		ed, _ := m.session.State().(panel.Editing)
		if err := m.session.Delete(); err != nil {
			m.logger.Warn("delete variable failed", "error", err)
			m.dialog, _ = m.dialog.update(dialogErrorMsg{err: err})
			return m, nil
		}
		var label string
		if ed.Existing != nil {
			label = ed.Existing.Snapshot.ID
			m.logger.Info("variable deleted", "entity", m.session.EntityInternalID(), "variable", ed.Existing.InternalID)
		}
		return m.closeAfterMutation("Deleted " + label)
	}

	var cmd tea.Cmd
	m.dialog, cmd = m.dialog.update(msg)
	return m, cmd
}

// closeAfterMutation returns to the list and reloads it from the catalog.
func (m model) closeAfterMutation(status string) (tea.Model, tea.Cmd) {
	m.currentView = viewVariables
	m.variables.status = status
	return m, m.variables.init()
}

// Messages
type selectVariableMsg struct {
	internalID string
	variable   template.Variable
}
type addVariableMsg struct{}
type closeDialogMsg struct{}
type upsertVariableMsg struct {
	variable template.Variable
}
type deleteVariableMsg struct{}
type dialogErrorMsg struct {
	err error
}

// Run starts the entity variables panel.
func Run(cat catalog.Catalog, entityInternalID string, logger *slog.Logger) error {
	m := newModel(cat, entityInternalID, logger)
	if fs, ok := cat.(*catalog.FileStore); ok {
		w, err := newTemplateWatcher(fs.Path())
		if err != nil {
			m.logger.Warn("template watch disabled", "path", fs.Path(), "error", err)
		} else {
			defer w.Close()
			m.watch = w
		}
	}
	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err := p.Run()
	return err
}

// RunSelectEntity runs a selector TUI over the template's entities and returns
// the chosen entity's internal id.
func RunSelectEntity(t *template.Template) (string, error) {
	ids := t.OrderedEntityIDs()
	if len(ids) == 0 {
		return "", fmt.Errorf("no entities in template")
	}
	items := make([]selectorItem, len(ids))
	for i, id := range ids {
		e := t.EntitiesByInternalID[id]
		items[i] = selectorItem{
			name:  fmt.Sprintf("%s (%d variables)", entityTitle(*e), len(e.VariableInternalIDs)),
			value: id,
		}
	}
	return RunSelector("Select entity", items)
}
