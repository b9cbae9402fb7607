package render

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/smileynet/contacts/internal/contact"
)

// cellSafe flattens characters that would split a tab-aligned row.
var cellSafe = strings.NewReplacer("\t", " ", "\r\n", " ", "\n", " ", "\r", " ")

// PlainPrinter renders results as unstyled, tab-aligned text.
type PlainPrinter struct {
	w       io.Writer
	errW    io.Writer
	showIDs bool
}

// List prints the contacts as a table, or the empty notice.
func (p *PlainPrinter) List(contacts []contact.Contact) {
	if len(contacts) == 0 {
		_, _ = fmt.Fprintln(p.w, msgEmpty)
		return
	}

	_, _ = fmt.Fprintln(p.w, msgListHeader)
	headers, rows := columns(contacts, p.showIDs)
	tw := tabwriter.NewWriter(p.w, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, strings.Join(headers, "\t"))
	for _, row := range rows {
		cells := make([]string, len(row))
		for i, cell := range row {
			cells[i] = cellSafe.Replace(cell)
		}
		_, _ = fmt.Fprintln(tw, strings.Join(cells, "\t"))
	}
	_ = tw.Flush()
}

// Contact prints one contact's fields.
func (p *PlainPrinter) Contact(c contact.Contact) {
	_, _ = fmt.Fprintln(p.w, msgContactHeader(c.ID))
	p.fields(c)
}

// Added prints the created contact.
func (p *PlainPrinter) Added(c contact.Contact) {
	_, _ = fmt.Fprintln(p.w, msgAdded)
	p.fields(c)
}

func (p *PlainPrinter) fields(c contact.Contact) {
	for _, f := range fields(c) {
		_, _ = fmt.Fprintf(p.w, "  %-6s %s\n", f[0]+":", cellSafe.Replace(f[1]))
	}
}

// Removed prints the deletion confirmation.
func (p *PlainPrinter) Removed(id string) {
	_, _ = fmt.Fprintln(p.w, msgRemoved(id))
}

// NotFound prints the missing-id notice.
func (p *PlainPrinter) NotFound(id string) {
	_, _ = fmt.Fprintln(p.w, msgNotFound(id))
}

// Initialized reports whether the backing file was created.
func (p *PlainPrinter) Initialized(path string, created bool) {
	_, _ = fmt.Fprintln(p.w, msgInit(path, created))
}

// Error prints a failure message naming its kind.
func (p *PlainPrinter) Error(err error) {
	_, _ = fmt.Fprintln(p.errW, describe(err))
}
