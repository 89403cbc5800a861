// Package sheettest provides an in-memory spreadsheet for tests.
package sheettest

import (
	"context"
	"fmt"
	"sync"

	"github.com/vbonduro/parrotops/internal/sheet"
)

// Call records one operation issued against a Memory spreadsheet.
type Call struct {
	Op    string
	Range string
}

// Memory is a sheet.Spreadsheet backed by in-process grids. It mimics the
// parts of the Sheets API the stores rely on: trailing empty cells and rows
// are dropped from reads, and appends land after the last non-empty row.
type Memory struct {
	mu    sync.Mutex
	tabs  map[string][][]string
	calls []Call
	fail  map[string]error
}

func NewMemory() *Memory {
	return &Memory{tabs: make(map[string][][]string), fail: make(map[string]error)}
}

// SetTab replaces a tab's contents.
func (m *Memory) SetTab(tab string, rows [][]string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := make([][]string, len(rows))
	for i, r := range rows {
		cp[i] = append([]string(nil), r...)
	}
	m.tabs[tab] = cp
}

// Tab returns a copy of a tab with trailing empty cells and rows trimmed.
func (m *Memory) Tab(tab string) [][]string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return trimRows(m.tabs[tab])
}

// FailOn makes every subsequent call of op return err.
func (m *Memory) FailOn(op string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fail[op] = err
}

func (m *Memory) Calls() []Call {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Call(nil), m.calls...)
}

// Writes returns the calls that modify data.
func (m *Memory) Writes() []Call {
	var out []Call
	for _, c := range m.Calls() {
		if c.Op != "get" {
			out = append(out, c)
		}
	}
	return out
}

func (m *Memory) record(op, rng string) error {
	m.calls = append(m.calls, Call{Op: op, Range: rng})
	return m.fail[op]
}

func (m *Memory) Get(_ context.Context, rng string) ([][]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("get", rng); err != nil {
		return nil, err
	}
	r, err := sheet.ParseRange(rng)
	if err != nil {
		return nil, err
	}
	grid := m.tabs[r.Tab]
	var out [][]string
	for row := r.StartRow; row <= len(grid) && (r.EndRow == 0 || row <= r.EndRow); row++ {
		src := grid[row-1]
		var cells []string
		for col := r.StartCol; col <= r.EndCol && col < len(src); col++ {
			cells = append(cells, src[col])
		}
		out = append(out, cells)
	}
	return trimRows(out), nil
}

func (m *Memory) Update(_ context.Context, rng string, values [][]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("update", rng); err != nil {
		return err
	}
	return m.write(rng, values)
}

func (m *Memory) BatchUpdate(_ context.Context, data []sheet.ValueRange) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("batch_update", fmt.Sprintf("%d ranges", len(data))); err != nil {
		return err
	}
	for _, d := range data {
		if err := m.write(d.Range, d.Values); err != nil {
			return err
		}
	}
	return nil
}

func (m *Memory) Append(_ context.Context, rng string, values [][]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("append", rng); err != nil {
		return err
	}
	r, err := sheet.ParseRange(rng)
	if err != nil {
		return err
	}
	next := len(trimRows(m.tabs[r.Tab])) + 1
	target := sheet.Range{Tab: r.Tab, StartCol: r.StartCol, StartRow: next, EndCol: r.StartCol, EndRow: next}
	return m.write(target.String(), values)
}

func (m *Memory) Clear(_ context.Context, rng string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("clear", rng); err != nil {
		return err
	}
	r, err := sheet.ParseRange(rng)
	if err != nil {
		return err
	}
	grid := m.tabs[r.Tab]
	for row := r.StartRow; row <= len(grid) && (r.EndRow == 0 || row <= r.EndRow); row++ {
		for col := r.StartCol; col <= r.EndCol && col < len(grid[row-1]); col++ {
			grid[row-1][col] = ""
		}
	}
	return nil
}

// write must be called with mu held.
func (m *Memory) write(rng string, values [][]string) error {
	r, err := sheet.ParseRange(rng)
	if err != nil {
		return err
	}
	grid := m.tabs[r.Tab]
	for i, vals := range values {
		row := r.StartRow + i
		for len(grid) < row {
			grid = append(grid, nil)
		}
		for j, v := range vals {
			col := r.StartCol + j
			for len(grid[row-1]) <= col {
				grid[row-1] = append(grid[row-1], "")
			}
			grid[row-1][col] = v
		}
	}
	m.tabs[r.Tab] = grid
	return nil
}

func trimRows(rows [][]string) [][]string {
	out := make([][]string, 0, len(rows))
	for _, r := range rows {
		end := len(r)
		for end > 0 && r[end-1] == "" {
			end--
		}
		out = append(out, append([]string(nil), r[:end]...))
	}
	end := len(out)
	for end > 0 && len(out[end-1]) == 0 {
		end--
	}
	return out[:end]
}

// Opener returns the same Memory for every token.
type Opener struct {
	Sheet  *Memory
	Tokens []string
	mu     sync.Mutex
}

func (o *Opener) Open(_ context.Context, accessToken string) (sheet.Spreadsheet, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.Tokens = append(o.Tokens, accessToken)
	return o.Sheet, nil
}

// Opened reports how many times Open was called.
func (o *Opener) Opened() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.Tokens)
}
