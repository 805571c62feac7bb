package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dopejs/tmplvars/internal/catalog"
	"github.com/dopejs/tmplvars/internal/panel"
	"github.com/dopejs/tmplvars/internal/template"
)

type dialogField int

const (
	fieldType dialogField = iota
	fieldID
	fieldName
	fieldDescription
	fieldAddressOffset
	fieldHDPublicKeyPath
	fieldPrivatePath
	fieldPublicPath
	fieldCount
)

// dialogModel collects one variable. It never touches the catalog: confirming
// emits upsertVariableMsg or deleteVariableMsg, cancelling emits closeDialogMsg.
type dialogModel struct {
	inputs     [fieldCount]textinput.Model
	typeIndex  int
	focus      dialogField
	existing   *panel.Existing // nil = create
	current    []catalog.CurrentVariable
	entityName string
	err        string
	deleting   bool // confirm delete mode
}

func newDialogModel(ed panel.Editing, current []catalog.CurrentVariable, entityName string) dialogModel {
	var inputs [fieldCount]textinput.Model
	for i := range inputs {
		inputs[i] = textinput.New()
		inputs[i].CharLimit = 256
	}

	inputs[fieldID].Placeholder = "identifier (e.g. owner_key)"
	inputs[fieldID].Prompt = "  ID:                  "
	inputs[fieldName].Placeholder = "display name"
	inputs[fieldName].Prompt = "  Name:                "
	inputs[fieldDescription].Placeholder = "optional"
	inputs[fieldDescription].Prompt = "  Description:         "
	inputs[fieldDescription].CharLimit = 1024
	inputs[fieldAddressOffset].Placeholder = "0"
	inputs[fieldAddressOffset].Prompt = "  Address Offset:      "
	inputs[fieldHDPublicKeyPath].Placeholder = template.DefaultHDPublicKeyDerivationPath
	inputs[fieldHDPublicKeyPath].Prompt = "  HD Public Key Path:  "
	inputs[fieldPrivatePath].Placeholder = template.DefaultPrivateDerivationPath
	inputs[fieldPrivatePath].Prompt = "  Private Path:        "
	inputs[fieldPublicPath].Placeholder = template.DefaultPublicDerivationPath
	inputs[fieldPublicPath].Prompt = "  Public Path:         "

	m := dialogModel{
		inputs:     inputs,
		existing:   ed.Existing,
		current:    current,
		entityName: entityName,
	}

	if ed.Existing != nil {
		v := ed.Existing.Snapshot
		m.typeIndex = typeIndexOf(v.Type)
		m.inputs[fieldID].SetValue(v.ID)
		m.inputs[fieldName].SetValue(v.Name)
		m.inputs[fieldDescription].SetValue(v.Description)
		if v.Type == template.TypeHDKey {
			m.inputs[fieldAddressOffset].SetValue(strconv.Itoa(v.AddressOffset))
			m.inputs[fieldHDPublicKeyPath].SetValue(v.HDPublicKeyDerivationPath)
			m.inputs[fieldPrivatePath].SetValue(v.PrivateDerivationPath)
			m.inputs[fieldPublicPath].SetValue(v.PublicDerivationPath)
		}
		m.focus = fieldID
	} else {
		desc, _ := template.InitialDescription(m.varType())
		m.inputs[fieldDescription].SetValue(desc)
		m.focus = fieldType
	}

	m.focusField(m.focus)
	return m
}

func typeIndexOf(t template.VariableType) int {
	for i, vt := range template.VariableTypes {
		if vt == t {
			return i
		}
	}
	return 0
}

func (m dialogModel) varType() template.VariableType {
	return template.VariableTypes[m.typeIndex]
}

// visible reports whether f applies to the selected type.
func (m dialogModel) visible(f dialogField) bool {
	switch f {
	case fieldName:
		t := m.varType()
		return t != template.TypeCurrentBlockHeight && t != template.TypeCurrentBlockTime
	case fieldAddressOffset, fieldHDPublicKeyPath, fieldPrivatePath, fieldPublicPath:
		return m.varType() == template.TypeHDKey
	}
	return true
}

func (m *dialogModel) focusField(f dialogField) {
	for i := range m.inputs {
		m.inputs[i].Blur()
	}
	m.focus = f
	if f != fieldType {
		m.inputs[f].Focus()
	}
}

func (m *dialogModel) moveFocus(delta int) {
	f := m.focus
	for {
		f = (f + dialogField(delta) + fieldCount) % fieldCount
		if m.visible(f) {
			break
		}
	}
	m.focusField(f)
}

// lastField returns the last visible field; enter on it confirms.
func (m dialogModel) lastField() dialogField {
	for f := fieldCount - 1; f > fieldType; f-- {
		if m.visible(f) {
			return f
		}
	}
	return fieldType
}

func (m *dialogModel) cycleType(delta int) {
	// The variant of an existing variable is fixed; delete and recreate to change it.
	if m.existing != nil {
		return
	}
	n := len(template.VariableTypes)
	prevDesc, _ := template.InitialDescription(m.varType())
	m.typeIndex = (m.typeIndex + delta + n) % n
	if strings.TrimSpace(m.inputs[fieldDescription].Value()) == prevDesc {
		desc, _ := template.InitialDescription(m.varType())
		m.inputs[fieldDescription].SetValue(desc)
	}
}

func (m dialogModel) init() tea.Cmd {
	return textinput.Blink
}

func (m dialogModel) update(msg tea.Msg) (dialogModel, tea.Cmd) {
	switch msg := msg.(type) {
	case dialogErrorMsg:
		m.err = msg.err.Error()
		m.deleting = false
		return m, nil
	case tea.KeyMsg:
		if m.deleting {
			return m.handleDeleteConfirm(msg)
		}
		switch msg.String() {
		case "esc":
			return m, func() tea.Msg { return closeDialogMsg{} }
		case "tab", "down":
			m.moveFocus(1)
			return m, textinput.Blink
		case "shift+tab", "up":
			m.moveFocus(-1)
			return m, textinput.Blink
		case "left":
			if m.focus == fieldType {
				m.cycleType(-1)
				return m, nil
			}
		case "right", " ":
			if m.focus == fieldType {
				m.cycleType(1)
				return m, nil
			}
		case "ctrl+d":
			if m.existing != nil {
				m.deleting = true
				m.err = ""
			}
			return m, nil
		case "ctrl+s", "cmd+s", "enter":
			isSaveKey := msg.String() == "ctrl+s" || (isMac && msg.String() == "cmd+s")
			if m.focus == m.lastField() || isSaveKey {
				return m.confirm()
			}
			m.moveFocus(1)
			return m, textinput.Blink
		}
	}

	if m.focus == fieldType {
		return m, nil
	}
	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	return m, cmd
}

func (m dialogModel) handleDeleteConfirm(msg tea.KeyMsg) (dialogModel, tea.Cmd) {
	switch msg.String() {
	case "y", "Y":
		m.deleting = false
		return m, func() tea.Msg { return deleteVariableMsg{} }
	case "n", "N", "esc":
		m.deleting = false
	}
	return m, nil
}

// variable builds the record from the form.
func (m dialogModel) variable() (template.Variable, error) {
	v := template.Variable{
		Type:        m.varType(),
		ID:          strings.TrimSpace(m.inputs[fieldID].Value()),
		Description: strings.TrimSpace(m.inputs[fieldDescription].Value()),
	}
	if m.visible(fieldName) {
		v.Name = strings.TrimSpace(m.inputs[fieldName].Value())
	}
	if v.Type == template.TypeHDKey {
		if raw := strings.TrimSpace(m.inputs[fieldAddressOffset].Value()); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n < 0 {
				return v, fmt.Errorf("address offset must be a non-negative integer")
			}
			v.AddressOffset = n
		}
		v.HDPublicKeyDerivationPath = strings.TrimSpace(m.inputs[fieldHDPublicKeyPath].Value())
		v.PrivateDerivationPath = strings.TrimSpace(m.inputs[fieldPrivatePath].Value())
		v.PublicDerivationPath = strings.TrimSpace(m.inputs[fieldPublicPath].Value())
	}
	return v, nil
}

// validate checks the record against the identifiers already in use.
func (m dialogModel) validate(v template.Variable) error {
	if err := template.CheckIdentifier(v.ID); err != nil {
		return err
	}
	var self string
	if m.existing != nil {
		self = m.existing.InternalID
	}
	for _, cv := range m.current {
		if cv.InternalID != self && cv.Variable.ID == v.ID {
			return fmt.Errorf("%w: %q is used by %s", template.ErrDuplicateID, v.ID, describeCurrent(cv))
		}
	}
	return nil
}

func describeCurrent(cv catalog.CurrentVariable) string {
	if name := template.DisplayName(cv.Variable); name != "" {
		return name
	}
	return "another variable"
}

func (m dialogModel) confirm() (dialogModel, tea.Cmd) {
	v, err := m.variable()
	if err == nil {
		err = m.validate(v)
	}
	if err != nil {
		m.err = err.Error()
		return m, nil
	}
	m.err = ""
	return m, func() tea.Msg { return upsertVariableMsg{variable: v} }
}

func (m dialogModel) view(width, height int) string {
	var b strings.Builder

	title := "Add Variable"
	icon := "➕"
	if m.existing != nil {
		title = fmt.Sprintf("Edit Variable: %s", m.existing.Snapshot.ID)
		icon = "✏️"
	}
	if m.entityName != "" {
		title += " (" + m.entityName + ")"
	}
	header := lipgloss.NewStyle().
		Bold(true).
		Foreground(primaryColor).
		Background(headerBgColor).
		Padding(0, 2).
		Render(icon + " " + title)
	b.WriteString(header)
	b.WriteString("\n\n")

	var content strings.Builder
	content.WriteString(sectionTitleStyle.Render(" Variable Settings"))
	content.WriteString("\n\n")

	typeLine := fmt.Sprintf("  Type:                %s", m.varType())
	switch {
	case m.existing != nil:
		content.WriteString(dimStyle.Render(typeLine))
	case m.focus == fieldType:
		content.WriteString(selectedStyle.Render(fmt.Sprintf("  Type:              ◂ %s ▸", m.varType())))
	default:
		content.WriteString(typeLine)
	}
	content.WriteString("\n")

	for f := fieldID; f < fieldCount; f++ {
		if !m.visible(f) {
			continue
		}
		content.WriteString(m.inputs[f].View())
		content.WriteString("\n")
	}

	formBox := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(borderColor).
		Padding(0, 1).
		Render(content.String())
	b.WriteString(formBox)
	b.WriteString("\n\n")

	help := "  tab next • " + saveKeyHint() + " save • esc cancel"
	if m.existing != nil {
		help += " • ctrl+d delete"
	}
	if m.focus == fieldType && m.existing == nil {
		help = "  ←/→ change type • " + strings.TrimPrefix(help, "  ")
	}

	switch {
	case m.deleting:
		b.WriteString(errorStyle.Render(fmt.Sprintf("  Delete '%s'? (y/n)", m.existing.Snapshot.ID)))
	case m.err != "":
		b.WriteString(errorStyle.Render("✗ " + m.err))
		b.WriteString("\n")
		b.WriteString(helpStyle.Render(help))
	default:
		b.WriteString(helpStyle.Render(help))
	}

	return b.String()
}
