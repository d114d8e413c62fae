package cli

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// ansiPattern matches SGR escape sequences, which take no columns on screen.
var ansiPattern = regexp.MustCompile(`\x1b\[[0-9;]*m`)

// Table represents a simple table formatter with dynamic column widths.
// Cells may contain ANSI colour codes; widths are measured on visible text.
type Table struct {
	headers    []string
	rows       [][]string
	padding    int
	alignRight map[int]bool
}

// NewTable creates a new table with the given headers.
func NewTable(headers []string) *Table {
	return &Table{
		headers:    headers,
		rows:       make([][]string, 0),
		padding:    2, // 2 spaces between columns
		alignRight: make(map[int]bool),
	}
}

// SetAlignRight right-aligns a column, for numbers.
func (t *Table) SetAlignRight(colIndex int) {
	t.alignRight[colIndex] = true
}

// AddRow adds a row to the table, padding or truncating it to the header count.
func (t *Table) AddRow(row []string) {
	newRow := make([]string, len(t.headers))
	copy(newRow, row)
	t.rows = append(t.rows, newRow)
}

// Len returns the number of data rows.
func (t *Table) Len() int {
	return len(t.rows)
}

// Render formats and returns the table as a string.
func (t *Table) Render() string {
	if len(t.headers) == 0 {
		return ""
	}

	colWidths := make([]int, len(t.headers))
	for i, h := range t.headers {
		colWidths[i] = visibleWidth(h)
	}
	for _, row := range t.rows {
		for i, cell := range row {
			colWidths[i] = max(colWidths[i], visibleWidth(cell))
		}
	}

	var result strings.Builder
	gap := strings.Repeat(" ", t.padding)

	writeLine := func(cells []string) {
		parts := make([]string, len(cells))
		for i, cell := range cells {
			parts[i] = t.pad(i, cell, colWidths[i])
		}
		// Trailing padding on the last column is noise.
		result.WriteString(strings.TrimRight(strings.Join(parts, gap), " "))
		result.WriteString("\n")
	}

	writeLine(t.headers)

	sepParts := make([]string, len(t.headers))
	for i, w := range colWidths {
		sepParts[i] = strings.Repeat("-", w)
	}
	writeLine(sepParts)

	for _, row := range t.rows {
		writeLine(row)
	}

	return result.String()
}

func (t *Table) pad(col int, s string, width int) string {
	if t.alignRight[col] {
		return padLeft(s, width)
	}
	return padRight(s, width)
}

// visibleWidth returns the number of runes in s, ignoring ANSI escapes.
func visibleWidth(s string) int {
	return utf8.RuneCountInString(ansiPattern.ReplaceAllString(s, ""))
}

// padRight pads a string with spaces on the right to reach the desired width.
// If the string is already at least width columns wide, it is returned unchanged.
func padRight(s string, width int) string {
	if n := visibleWidth(s); n < width {
		return s + strings.Repeat(" ", width-n)
	}
	return s
}

// padLeft pads a string with spaces on the left to reach the desired width.
func padLeft(s string, width int) string {
	if n := visibleWidth(s); n < width {
		return strings.Repeat(" ", width-n) + s
	}
	return s
}
