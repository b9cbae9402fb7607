// Package browse implements an interactive two-pane TUI for viewing and
// deleting contacts.
package browse

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/smileynet/contacts/internal/contact"
)

// Store is the subset of the contact store the browser needs.
type Store interface {
	List(ctx context.Context) ([]contact.Contact, error)
	Remove(ctx context.Context, id string) (bool, error)
}

// ContactsLoadedMsg carries the result of a Store.List call.
type ContactsLoadedMsg struct {
	Contacts []contact.Contact
	Err      error
}

// ContactRemovedMsg carries the result of a Store.Remove call.
type ContactRemovedMsg struct {
	ID      string
	Removed bool
	Err     error
}

// loadContacts returns a tea.Cmd that lists the store asynchronously.
func loadContacts(ctx context.Context, store Store) tea.Cmd {
	return func() tea.Msg {
		contacts, err := store.List(ctx)
		return ContactsLoadedMsg{Contacts: contacts, Err: err}
	}
}

// removeContact returns a tea.Cmd that removes id asynchronously.
func removeContact(ctx context.Context, store Store, id string) tea.Cmd {
	return func() tea.Msg {
		removed, err := store.Remove(ctx, id)
		return ContactRemovedMsg{ID: id, Removed: removed, Err: err}
	}
}
