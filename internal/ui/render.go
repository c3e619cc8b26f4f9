package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/five82/bookclub/internal/entity"
	"github.com/five82/bookclub/internal/mason"
)

const (
	helpWidth  = 48
	labelWidth = 16
)

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	if m.showHelp {
		return m.renderHelp()
	}
	if m.showLog {
		return m.renderProblems()
	}

	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(m.renderTabs())
	b.WriteString("\n\n")
	b.WriteString(m.renderContent())
	b.WriteString("\n")
	b.WriteString(m.renderStatus())
	return b.String()
}

func (m Model) renderContent() string {
	switch m.mode {
	case ModeDetail:
		return m.renderDetail()
	case ModeForm:
		return m.renderForm()
	case ModeConfirmDelete:
		return m.renderConfirm()
	case ModeSetUser:
		return m.renderList() + "\n" + m.userInput.View()
	default:
		return m.renderList()
	}
}

func (m Model) renderHeader() string {
	styles := m.theme.Styles()

	user := m.currentUser()
	if user == "" {
		user = "anonymous"
	}
	base := ""
	if m.client != nil {
		base = m.client.Base()
	}

	parts := []string{
		styles.Brand.Render("bookclub"),
		styles.Address.Render(base),
		styles.Identity.Render("as " + user),
	}
	if m.snapshot.IsOffline() {
		parts = append(parts, styles.Offline.Render("offline"))
	}
	return styles.Bar.Width(m.width).Render(strings.Join(parts, "  "))
}

func (m Model) renderTabs() string {
	styles := m.theme.Styles()
	var tabs []string
	for i, s := range m.sections {
		label := s.Label()
		if m.loading[s.Relation()] {
			label += "…"
		}
		if i == m.active {
			tabs = append(tabs, styles.TabActive.Render(label))
			continue
		}
		tabs = append(tabs, styles.TabIdle.Render(label))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}

func (m Model) renderList() string {
	styles := m.theme.Styles()
	s := m.section()
	if s == nil {
		return styles.Empty.Render("The API offers no collections.")
	}
	rel := s.Relation()
	entries := m.snapshot.Entries[rel]
	if len(entries) == 0 {
		if !m.snapshot.HasLoaded(rel) {
			return styles.Empty.Render("Loading " + s.Label() + "…")
		}
		return styles.Empty.Render("No " + strings.ToLower(s.Label()) + " yet.")
	}

	var b strings.Builder
	for i, e := range entries {
		line := fmt.Sprintf("%-24s %s", e.Identity(), m.renderControls(e.Controls, mason.RelEdit, mason.RelDelete))
		if i == m.selected[rel] {
			b.WriteString(styles.RowSelected.Width(max(m.width, 1)).Render(line))
		} else {
			b.WriteString(styles.Row.Render(line))
		}
		b.WriteString("\n")
	}
	if add, ok := s.Add(); ok {
		b.WriteString("\n")
		b.WriteString(styles.ControlStyle(mason.RelAdd).Render(controlTitle(add, mason.RelAdd)))
	}
	return b.String()
}

func (m Model) renderDetail() string {
	styles := m.theme.Styles()
	s := m.section()
	if s == nil || m.detail.Payload == nil {
		return ""
	}

	var b strings.Builder
	b.WriteString(styles.Title.Render(m.detail.Identity()))
	b.WriteString("\n\n")
	for _, f := range s.Schema().Fields() {
		b.WriteString(styles.Label.Render(f.Label))
		b.WriteString(styles.Value.Render(f.Format(m.detail.Payload)))
		if mark := fieldMark(f); mark != "" {
			b.WriteString(" ")
			b.WriteString(styles.Locked.Render(mark))
		}
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(m.renderControls(m.detail.Controls, mason.RelSelf, mason.RelEdit, mason.RelDelete))
	return b.String()
}

func (m Model) renderForm() string {
	styles := m.theme.Styles()
	f := m.form
	if f == nil {
		return ""
	}

	var b strings.Builder
	b.WriteString(styles.Title.Render(f.title()))
	b.WriteString("\n")
	if f.message != "" {
		b.WriteString(styles.FormError.Render(f.message))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	for i, ff := range f.fields {
		label := styles.Label
		if i == f.focus {
			label = styles.LabelFocused
		}
		b.WriteString(label.Render(ff.field.Label))
		if ff.readOnly {
			b.WriteString(styles.Locked.Render(ff.input.Value() + " " + fieldMark(ff.field)))
		} else {
			b.WriteString(ff.input.View())
		}
		b.WriteString("\n")
	}
	if f.pending {
		b.WriteString("\n")
		b.WriteString(styles.Sending.Render("Sending…"))
	}
	return b.String()
}

func (m Model) renderConfirm() string {
	styles := m.theme.Styles()
	prompt := fmt.Sprintf("Delete %s? ", m.confirm.Identity())
	return styles.Confirm.Render(prompt) + styles.Address.Render("y / n")
}

func (m Model) renderStatus() string {
	styles := m.theme.Styles()
	if m.status == "" {
		return styles.Hints.Render("? help  u user  L problems  T theme  q quit")
	}
	if m.failed {
		return styles.StatusError.Render(m.status)
	}
	return styles.StatusOK.Render(m.status)
}

// renderControls renders a badge per offered relation, in the given order.
func (m Model) renderControls(controls mason.Controls, rels ...string) string {
	styles := m.theme.Styles()
	var badges []string
	for _, rel := range rels {
		c, ok := controls.Get(rel)
		if !ok {
			continue
		}
		badges = append(badges, styles.ControlStyle(rel).Render(controlTitle(c, rel)))
	}
	return strings.Join(badges, " ")
}

func controlTitle(c mason.Control, rel string) string {
	if title, ok := c.DisplayName(); ok {
		return title
	}
	return mason.RelationLabel(rel)
}

func fieldMark(f entity.Field) string {
	switch {
	case f.IsIdentity():
		return "(id)"
	case f.IsImmutable():
		return "(fixed)"
	}
	return ""
}

// helpContent lists every binding, grouped.
func (m Model) helpContent() string {
	styles := m.theme.Styles()

	var b strings.Builder
	b.WriteString(styles.Title.Render("Keyboard Shortcuts"))
	b.WriteString("\n")
	b.WriteString(styles.Rule.Render(strings.Repeat("─", 30)))
	b.WriteString("\n\n")

	groups := m.keys.helpGroups()
	for i, g := range groups {
		b.WriteString(styles.HelpGroup.Render(g.title))
		b.WriteString("\n")
		for _, binding := range g.bindings {
			h := binding.Help()
			b.WriteString(styles.HelpKey.Render(h.Key))
			b.WriteString(styles.Value.Render(h.Desc))
			b.WriteString("\n")
		}
		if i < len(groups)-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}

// renderHelp renders the scrollable help overlay.
func (m Model) renderHelp() string {
	return lipgloss.Place(
		m.width,
		m.height,
		lipgloss.Center,
		lipgloss.Center,
		m.theme.Styles().Modal.Render(m.help.View()),
	)
}

// renderProblems renders the warnings and errors from the log file.
func (m Model) renderProblems() string {
	styles := m.theme.Styles()
	title := styles.Title.Render("Problems") + "  " + styles.Locked.Render(m.logPath)

	return lipgloss.Place(
		m.width,
		m.height,
		lipgloss.Center,
		lipgloss.Center,
		styles.Problems.Render(title+"\n"+m.problems.View()),
	)
}
