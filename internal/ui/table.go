package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/truncate"
)

// DefaultCellWidth is the widest a cell may be unless its column sets
// another limit.
const DefaultCellWidth = 50

const cellEllipsis = "..."

const columnGap = 2

var cellReplacer = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ", "\t", " ")

// Table lays out rows in aligned columns. Cells may contain ANSI styling.
type Table struct {
	headers []string
	rows    [][]string
	limits  map[int]int
}

// NewTable returns a table with the given column headers.
func NewTable(headers ...string) *Table {
	return &Table{headers: headers, limits: map[int]int{}}
}

// Limit caps the width of a column. Longer cells end in an ellipsis.
func (t *Table) Limit(column, width int) *Table {
	t.limits[column] = width
	return t
}

// AddRow appends a row.
func (t *Table) AddRow(cells ...string) {
	t.rows = append(t.rows, cells)
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return len(t.rows)
}

// String renders the header and every row, one per line.
func (t *Table) String() string {
	rows := make([][]string, 0, len(t.rows))
	for _, row := range t.rows {
		cells := make([]string, len(row))
		for i, cell := range row {
			cells[i] = TruncateCell(cell, t.limit(i))
		}
		rows = append(rows, cells)
	}

	headers := make([]string, len(t.headers))
	widths := make([]int, len(t.headers))
	for i, header := range t.headers {
		headers[i] = flattenCell(header)
		widths[i] = lipgloss.Width(headers[i])
	}
	for _, row := range rows {
		for i, cell := range row {
			if i < len(widths) {
				widths[i] = max(widths[i], lipgloss.Width(cell))
			}
		}
	}

	if ansiEnabled() {
		for i, header := range headers {
			headers[i] = headerStyle.Render(header)
		}
	}

	var b strings.Builder
	writeRow := func(cells []string) {
		for i, cell := range cells {
			b.WriteString(cell)
			if i == len(cells)-1 {
				break
			}
			pad := columnGap
			if i < len(widths) {
				pad += widths[i] - lipgloss.Width(cell)
			}
			b.WriteString(strings.Repeat(" ", pad))
		}
		b.WriteByte('\n')
	}
	writeRow(headers)
	for _, row := range rows {
		writeRow(row)
	}
	return b.String()
}

func (t *Table) limit(column int) int {
	if width, ok := t.limits[column]; ok {
		return width
	}
	return DefaultCellWidth
}

// TruncateCell puts value on one line and shortens it to width visible
// columns, ignoring ANSI styling.
func TruncateCell(value string, width int) string {
	value = flattenCell(value)
	if width <= 0 || lipgloss.Width(value) <= width {
		return value
	}
	if width <= len(cellEllipsis) {
		return cellEllipsis[:width]
	}
	return truncate.StringWithTail(value, uint(width), cellEllipsis)
}

func flattenCell(value string) string {
	return cellReplacer.Replace(value)
}
