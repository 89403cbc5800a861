package sheet

import "strings"

// Header is a tab's first row with every cell trimmed.
type Header []string

func NewHeader(row []string) Header {
	h := make(Header, len(row))
	for i, c := range row {
		h[i] = strings.TrimSpace(c)
	}
	return h
}

// Index returns the position of the column named exactly name, or -1.
func (h Header) Index(name string) int {
	for i, c := range h {
		if c == name {
			return i
		}
	}
	return -1
}

// IndexFold is Index with a case-insensitive comparison.
func (h Header) IndexFold(name string) int {
	for i, c := range h {
		if strings.EqualFold(c, name) {
			return i
		}
	}
	return -1
}

// Value returns the trimmed cell at idx, or "" when idx is -1 or past the
// end of the row. The Sheets API drops trailing empty cells, so short rows
// are normal.
func Value(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// Present reports whether row has a cell at idx at all.
func Present(row []string, idx int) bool {
	return idx >= 0 && idx < len(row)
}
