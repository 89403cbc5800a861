package sheet

import (
	"fmt"
	"strconv"
	"strings"
)

// ColumnLetter converts a zero-based column index to its A1 letters
// (0 → "A", 25 → "Z", 26 → "AA").
func ColumnLetter(idx int) string {
	if idx < 0 {
		return ""
	}
	var b []byte
	for n := idx + 1; n > 0; n = (n - 1) / 26 {
		b = append([]byte{byte('A' + (n-1)%26)}, b...)
	}
	return string(b)
}

// ColumnIndex is the inverse of ColumnLetter. It returns -1 for anything that
// is not a run of letters.
func ColumnIndex(letters string) int {
	if letters == "" {
		return -1
	}
	n := 0
	for _, c := range strings.ToUpper(letters) {
		if c < 'A' || c > 'Z' {
			return -1
		}
		n = n*26 + int(c-'A'+1)
	}
	return n - 1
}

// Cell returns the A1 reference of a single cell. col is zero-based, row is
// the one-based sheet row.
func Cell(tab string, col, row int) string {
	return fmt.Sprintf("%s!%s%d", tab, ColumnLetter(col), row)
}

// Range is a parsed A1 range. Columns are zero-based, rows one-based; an
// EndRow of 0 means the range is open towards the bottom of the sheet.
type Range struct {
	Tab      string
	StartCol int
	StartRow int
	EndCol   int
	EndRow   int
}

// ParseRange parses the A1 forms used by this module: "TAB!A:Z",
// "TAB!A1:Z1", "TAB!A2:F", "TAB!B5".
func ParseRange(a1 string) (Range, error) {
	tab, ref, ok := strings.Cut(a1, "!")
	if !ok || tab == "" || ref == "" {
		return Range{}, fmt.Errorf("invalid range %q", a1)
	}
	start, end, isSpan := strings.Cut(ref, ":")
	r := Range{Tab: tab}

	var err error
	r.StartCol, r.StartRow, err = parseRef(start)
	if err != nil {
		return Range{}, fmt.Errorf("invalid range %q: %w", a1, err)
	}
	if r.StartRow == 0 {
		r.StartRow = 1
	}
	if !isSpan {
		r.EndCol, r.EndRow = r.StartCol, r.StartRow
		return r, nil
	}
	r.EndCol, r.EndRow, err = parseRef(end)
	if err != nil {
		return Range{}, fmt.Errorf("invalid range %q: %w", a1, err)
	}
	if r.EndCol < r.StartCol || (r.EndRow != 0 && r.EndRow < r.StartRow) {
		return Range{}, fmt.Errorf("invalid range %q: end before start", a1)
	}
	return r, nil
}

func parseRef(ref string) (col, row int, err error) {
	i := 0
	for i < len(ref) && ((ref[i] >= 'A' && ref[i] <= 'Z') || (ref[i] >= 'a' && ref[i] <= 'z')) {
		i++
	}
	col = ColumnIndex(ref[:i])
	if col < 0 {
		return 0, 0, fmt.Errorf("missing column in %q", ref)
	}
	if i == len(ref) {
		return col, 0, nil
	}
	row, err = strconv.Atoi(ref[i:])
	if err != nil || row < 1 {
		return 0, 0, fmt.Errorf("bad row in %q", ref)
	}
	return col, row, nil
}

func (r Range) String() string {
	start := ColumnLetter(r.StartCol) + strconv.Itoa(r.StartRow)
	end := ColumnLetter(r.EndCol)
	if r.EndRow != 0 {
		end += strconv.Itoa(r.EndRow)
	}
	if r.StartCol == r.EndCol && r.StartRow == r.EndRow {
		return r.Tab + "!" + start
	}
	return r.Tab + "!" + start + ":" + end
}
