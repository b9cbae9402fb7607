package render

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/smileynet/contacts/internal/contact"
)

var (
	colorGreen  = lipgloss.AdaptiveColor{Light: "2", Dark: "10"}
	colorRed    = lipgloss.AdaptiveColor{Light: "1", Dark: "9"}
	colorYellow = lipgloss.AdaptiveColor{Light: "3", Dark: "11"}
	colorBlue   = lipgloss.AdaptiveColor{Light: "4", Dark: "12"}
	colorDim    = lipgloss.AdaptiveColor{Light: "240", Dark: "245"}
)

// StyledPrinter renders results with colors and bordered tables.
type StyledPrinter struct {
	w       io.Writer
	errW    io.Writer
	showIDs bool

	header   lipgloss.Style
	success  lipgloss.Style
	warning  lipgloss.Style
	failure  lipgloss.Style
	colHead  lipgloss.Style
	cell     lipgloss.Style
	border   lipgloss.Style
	errStyle lipgloss.Style
}

// NewStyledPrinter builds a StyledPrinter whose color profile is detected
// from opts.Writer.
func NewStyledPrinter(opts Options) *StyledPrinter {
	re := lipgloss.NewRenderer(opts.Writer)
	errRe := lipgloss.NewRenderer(opts.ErrWriter)
	return &StyledPrinter{
		w:        opts.Writer,
		errW:     opts.ErrWriter,
		showIDs:  opts.ShowIDs,
		header:   re.NewStyle().Bold(true).Foreground(colorGreen),
		success:  re.NewStyle().Bold(true).Foreground(colorGreen),
		warning:  re.NewStyle().Foreground(colorYellow),
		failure:  re.NewStyle().Foreground(colorRed),
		colHead:  re.NewStyle().Bold(true).Foreground(colorBlue).Padding(0, 1),
		cell:     re.NewStyle().Padding(0, 1),
		border:   re.NewStyle().Foreground(colorDim),
		errStyle: errRe.NewStyle().Foreground(colorRed),
	}
}

// table returns a rounded-border table with the printer's styles.
func (p *StyledPrinter) table(headers []string, rows [][]string) *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(p.border).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return p.colHead
			}
			return p.cell
		}).
		Headers(headers...).
		Rows(rows...)
}

// List prints the contacts as a table, or the empty notice.
func (p *StyledPrinter) List(contacts []contact.Contact) {
	if len(contacts) == 0 {
		_, _ = fmt.Fprintln(p.w, p.warning.Render(msgEmpty))
		return
	}

	_, _ = fmt.Fprintln(p.w, p.header.Render(msgListHeader))
	headers, rows := columns(contacts, p.showIDs)
	_, _ = fmt.Fprintln(p.w, p.table(headers, rows).Render())
}

// Contact prints one contact's fields.
func (p *StyledPrinter) Contact(c contact.Contact) {
	_, _ = fmt.Fprintln(p.w, p.header.Render(msgContactHeader(c.ID)))
	p.fields(c)
}

// Added prints the created contact.
func (p *StyledPrinter) Added(c contact.Contact) {
	_, _ = fmt.Fprintln(p.w, p.success.Render(msgAdded))
	p.fields(c)
}

func (p *StyledPrinter) fields(c contact.Contact) {
	var rows [][]string
	for _, f := range fields(c) {
		rows = append(rows, []string{f[0], f[1]})
	}
	_, _ = fmt.Fprintln(p.w, p.table([]string{"FIELD", "VALUE"}, rows).Render())
}

// Removed prints the deletion confirmation.
func (p *StyledPrinter) Removed(id string) {
	_, _ = fmt.Fprintln(p.w, p.success.Render(msgRemoved(id)))
}

// NotFound prints the missing-id notice.
func (p *StyledPrinter) NotFound(id string) {
	_, _ = fmt.Fprintln(p.w, p.failure.Render(msgNotFound(id)))
}

// Initialized reports whether the backing file was created.
func (p *StyledPrinter) Initialized(path string, created bool) {
	style := p.success
	if !created {
		style = p.warning
	}
	_, _ = fmt.Fprintln(p.w, style.Render(msgInit(path, created)))
}

// Error prints a failure message naming its kind.
func (p *StyledPrinter) Error(err error) {
	_, _ = fmt.Fprintln(p.errW, p.errStyle.Render(describe(err)))
}
