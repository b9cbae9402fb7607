package browse

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/smileynet/contacts/internal/contact"
)

// helpBarHeight is the number of lines reserved for the help bar at the bottom.
const helpBarHeight = 1

// statusBarHeight is the number of lines reserved for the status line.
const statusBarHeight = 1

// borderChrome is the number of lines consumed by top + bottom borders.
const borderChrome = 2

// Model is the root Bubble Tea model for the contact browser.
type Model struct {
	ctx   context.Context
	store Store

	contacts   []contact.Contact
	cursor     int
	loading    bool
	busy       bool // A remove is in flight.
	confirming bool
	err        error
	status     string

	width   int
	height  int
	spinner spinner.Model
	help    help.Model
	keys    listKeys
	confirm confirmKeys
}

// NewModel creates a browser over store in the loading state.
func NewModel(ctx context.Context, store Store) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot

	return Model{
		ctx:     ctx,
		store:   store,
		loading: true,
		spinner: s,
		help:    help.New(),
		keys:    ListKeyMap(),
		confirm: ConfirmKeyMap(),
	}
}

// Init starts loading contacts and the spinner tick.
func (m Model) Init() tea.Cmd {
	return tea.Batch(loadContacts(m.ctx, m.store), m.spinner.Tick)
}

// Update handles incoming messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case ContactsLoadedMsg:
		return m.applyContacts(msg), nil

	case ContactRemovedMsg:
		return m.applyRemoved(msg)

	case spinner.TickMsg:
		if !m.loading && !m.busy {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

// applyContacts replaces the list, clearing the loading indicator and
// clamping the cursor so it stays near its previous position.
func (m Model) applyContacts(msg ContactsLoadedMsg) Model {
	m.loading = false
	if msg.Err != nil {
		m.err = msg.Err
		m.contacts = nil
		m.cursor = 0
		return m
	}
	m.err = nil
	m.contacts = append([]contact.Contact(nil), msg.Contacts...)
	m.cursor = min(m.cursor, max(len(m.contacts)-1, 0))
	return m
}

// applyRemoved records the remove outcome and reloads the list.
func (m Model) applyRemoved(msg ContactRemovedMsg) (tea.Model, tea.Cmd) {
	m.busy = false
	switch {
	case msg.Err != nil:
		m.err = msg.Err
		m.status = ""
		return m, nil
	case msg.Removed:
		m.status = fmt.Sprintf("Contact with id %s has been deleted.", msg.ID)
	default:
		m.status = fmt.Sprintf("Contact with id %s not exist!", msg.ID)
	}
	return m.reload()
}

func (m Model) reload() (tea.Model, tea.Cmd) {
	m.loading = true
	m.err = nil
	return m, tea.Batch(loadContacts(m.ctx, m.store), m.spinner.Tick)
}

// handleKey routes key presses to the confirmation or list handlers.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyCtrlC {
		return m, tea.Quit
	}

	if m.confirming {
		switch {
		case key.Matches(msg, m.confirm.Confirm):
			id := m.SelectedID()
			m.confirming = false
			m.busy = true
			return m, tea.Batch(removeContact(m.ctx, m.store, id), m.spinner.Tick)
		case key.Matches(msg, m.confirm.Cancel):
			m.confirming = false
		}
		return m, nil
	}

	if key.Matches(msg, m.keys.Quit) {
		return m, tea.Quit
	}
	if m.loading || m.busy {
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Up):
		if len(m.contacts) > 0 {
			m.cursor--
			if m.cursor < 0 {
				m.cursor = len(m.contacts) - 1
			}
		}
	case key.Matches(msg, m.keys.Down):
		if len(m.contacts) > 0 {
			m.cursor++
			if m.cursor >= len(m.contacts) {
				m.cursor = 0
			}
		}
	case key.Matches(msg, m.keys.Delete):
		if m.SelectedID() != "" {
			m.confirming = true
			m.status = ""
		}
	case key.Matches(msg, m.keys.Refresh):
		m.status = ""
		return m.reload()
	}
	return m, nil
}

// SelectedID returns the contact ID at the cursor, or "" if there is none.
func (m Model) SelectedID() string {
	c, ok := m.selected()
	if !ok {
		return ""
	}
	return c.ID
}

func (m Model) selected() (contact.Contact, bool) {
	if m.cursor < 0 || m.cursor >= len(m.contacts) {
		return contact.Contact{}, false
	}
	return m.contacts[m.cursor], true
}

// contentHeight returns the usable height for pane content,
// accounting for border chrome, the status line, and the help bar.
func (m Model) contentHeight() int {
	return max(m.height-borderChrome-statusBarHeight-helpBarHeight, 1)
}

// View renders the two-pane layout with status line and help bar.
func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "Initializing..."
	}

	leftWidth, rightWidth := PaneWidths(m.width)
	contentHeight := m.contentHeight()

	leftPane := FocusedBorder().
		Width(leftWidth - borderChrome).
		Height(contentHeight).
		Render(m.viewList())
	rightPane := UnfocusedBorder().
		Width(rightWidth - borderChrome).
		Height(contentHeight).
		Render(m.viewDetail())
	panes := lipgloss.JoinHorizontal(lipgloss.Top, leftPane, rightPane)

	var helpView string
	if m.confirming {
		helpView = m.help.View(m.confirm)
	} else {
		helpView = m.help.View(m.keys)
	}

	return lipgloss.JoinVertical(lipgloss.Left, panes, statusStyle.Render(m.status), helpView)
}

// viewList renders the contact names with the cursor marker.
func (m Model) viewList() string {
	switch {
	case m.loading:
		return m.spinner.View() + " Loading contacts..."
	case m.err != nil:
		return errorStyle.Render(fmt.Sprintf("Error: %v", m.err))
	case len(m.contacts) == 0:
		return warnStyle.Render("Empty contacts list.")
	}

	var b strings.Builder
	for i, c := range m.contacts {
		if i > 0 {
			b.WriteString("\n")
		}
		name := c.Name
		if name == "" {
			name = dimStyle.Render("(no name)")
		}
		if i == m.cursor {
			b.WriteString(selectedStyle.Render(CursorMarker + name))
		} else {
			b.WriteString("  " + name)
		}
	}
	return b.String()
}

// viewDetail renders the selected contact, or the delete confirmation.
func (m Model) viewDetail() string {
	c, ok := m.selected()
	if !ok || m.loading {
		return dimStyle.Render("No contact selected")
	}

	var b strings.Builder
	if m.confirming {
		fmt.Fprintf(&b, "Delete contact %s?\n\n", c.Name)
	}
	fmt.Fprintf(&b, "  id:    %s\n", c.ID)
	fmt.Fprintf(&b, "  name:  %s\n", c.Name)
	fmt.Fprintf(&b, "  email: %s\n", c.Email)
	fmt.Fprintf(&b, "  phone: %s", c.Phone)
	if m.confirming {
		b.WriteString("\n\n  [y/Enter] Delete   [n/Esc] Cancel")
	}
	return b.String()
}
