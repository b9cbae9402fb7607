// Package render prints contact store results to a terminal, styled when
// the output is a TTY and as plain text otherwise.
package render

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"

	"github.com/smileynet/contacts/internal/contact"
)

// Messages shared by every printer.
const (
	msgListHeader = "List of contacts:"
	msgEmpty      = "Empty contacts list."
	msgAdded      = "Contact has been added."
)

func msgContactHeader(id string) string { return fmt.Sprintf("Contact by id %s:", id) }
func msgRemoved(id string) string       { return fmt.Sprintf("Contact with id %s has been deleted.", id) }
func msgNotFound(id string) string      { return fmt.Sprintf("Contact with id %s not exist!", id) }

func msgInit(path string, created bool) string {
	if created {
		return fmt.Sprintf("Created empty contact file %s.", path)
	}
	return fmt.Sprintf("Contact file %s already exists.", path)
}

// Printer renders store outcomes.
type Printer interface {
	List(contacts []contact.Contact)
	Contact(c contact.Contact)
	Added(c contact.Contact)
	Removed(id string)
	NotFound(id string)
	Initialized(path string, created bool)
	Error(err error)
}

// Verify at compile time that both printers implement Printer.
var (
	_ Printer = (*PlainPrinter)(nil)
	_ Printer = (*StyledPrinter)(nil)
)

// Options configures printer creation.
type Options struct {
	Writer     io.Writer // Output destination (default: os.Stdout).
	ErrWriter  io.Writer // Failure destination (default: os.Stderr).
	ForcePlain bool      // Force plain text even if TTY.
	ShowIDs    bool      // Add an id column to list output.
}

// NewPrinter returns a styled printer when Writer is a TTY, or a plain
// printer otherwise. ForcePlain overrides TTY detection.
func NewPrinter(opts Options) Printer {
	if opts.Writer == nil {
		opts.Writer = os.Stdout
	}
	if opts.ErrWriter == nil {
		opts.ErrWriter = os.Stderr
	}

	if opts.ForcePlain || !IsTTY(opts.Writer) {
		return &PlainPrinter{w: opts.Writer, errW: opts.ErrWriter, showIDs: opts.ShowIDs}
	}
	return NewStyledPrinter(opts)
}

// IsTTY reports whether w is connected to a terminal.
func IsTTY(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// describe returns a failure message that names the failure kind.
func describe(err error) string {
	switch {
	case errors.Is(err, contact.ErrRead):
		return fmt.Sprintf("read error: %v", err)
	case errors.Is(err, contact.ErrWrite):
		return fmt.Sprintf("write error: %v", err)
	default:
		return fmt.Sprintf("error: %v", err)
	}
}

// fields returns the labelled values shown for a single contact.
func fields(c contact.Contact) [][2]string {
	return [][2]string{
		{"id", c.ID},
		{"name", c.Name},
		{"email", c.Email},
		{"phone", c.Phone},
	}
}

// columns returns the list headers and one row per contact.
func columns(contacts []contact.Contact, showIDs bool) ([]string, [][]string) {
	headers := []string{"NAME", "EMAIL", "PHONE"}
	if showIDs {
		headers = append([]string{"ID"}, headers...)
	}
	rows := make([][]string, 0, len(contacts))
	for _, c := range contacts {
		row := []string{c.Name, c.Email, c.Phone}
		if showIDs {
			row = append([]string{c.ID}, row...)
		}
		rows = append(rows, row)
	}
	return headers, rows
}
