package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/vbonduro/parrotops/internal/domain"
	"github.com/vbonduro/parrotops/internal/sheet"
)

const (
	lotsRange       = sheet.TabLots + "!A:Z"
	lotsHeaderRange = sheet.TabLots + "!A1:Z1"
)

type LotStore struct {
	sheet sheet.Spreadsheet
}

func NewLotStore(ss sheet.Spreadsheet) *LotStore {
	return &LotStore{sheet: ss}
}

type lotColumns struct {
	id, bin, title, status, buyer, folderURL int
}

func lotColumnsOf(h sheet.Header) lotColumns {
	return lotColumns{
		id:        h.Index("LotID"),
		bin:       h.Index("BinID"),
		title:     h.Index("Title"),
		status:    h.Index("Status"),
		buyer:     h.Index("Buyer"),
		folderURL: h.Index("FolderURL"),
	}
}

func (c lotColumns) project(row []string) *domain.Lot {
	lotID := sheet.Value(row, c.id)
	if lotID == "" {
		return nil
	}
	return &domain.Lot{
		LotID:     lotID,
		BinID:     sheet.Value(row, c.bin),
		Title:     sheet.Value(row, c.title),
		Status:    sheet.Value(row, c.status),
		Buyer:     sheet.Value(row, c.buyer),
		FolderURL: sheet.Value(row, c.folderURL),
	}
}

// All returns every lot row with a lot id, assigned to a bin or not.
func (s *LotStore) All(ctx context.Context) ([]*domain.Lot, error) {
	values, err := s.sheet.Get(ctx, lotsRange)
	if err != nil {
		return nil, fmt.Errorf("failed to list lots: %w", err)
	}
	if len(values) < 2 {
		return []*domain.Lot{}, nil
	}

	cols := lotColumnsOf(sheet.NewHeader(values[0]))
	lots := make([]*domain.Lot, 0, len(values)-1)
	for _, row := range values[1:] {
		if lot := cols.project(row); lot != nil {
			lots = append(lots, lot)
		}
	}
	return lots, nil
}

// List returns the lots that sit in a bin. An empty binID returns every
// assigned lot; unassigned lots are never included.
func (s *LotStore) List(ctx context.Context, binID string) ([]*domain.Lot, error) {
	all, err := s.All(ctx)
	if err != nil {
		return nil, err
	}
	lots := make([]*domain.Lot, 0, len(all))
	for _, lot := range all {
		if lot.BinID == "" {
			continue
		}
		if binID != "" && lot.BinID != binID {
			continue
		}
		lots = append(lots, lot)
	}
	return lots, nil
}

// GetByID returns the first lot with the given id, or nil.
func (s *LotStore) GetByID(ctx context.Context, lotID string) (*domain.Lot, error) {
	all, err := s.All(ctx)
	if err != nil {
		return nil, err
	}
	for _, lot := range all {
		if lot.LotID == lotID {
			return lot, nil
		}
	}
	return nil, nil
}

func (s *LotStore) Search(ctx context.Context, query string) ([]*domain.Lot, error) {
	// Case-insensitive substring match on id, title and buyer.
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return []*domain.Lot{}, nil
	}
	all, err := s.All(ctx)
	if err != nil {
		return nil, err
	}
	lots := make([]*domain.Lot, 0)
	for _, lot := range all {
		if strings.Contains(strings.ToLower(lot.LotID), q) ||
			strings.Contains(strings.ToLower(lot.Title), q) ||
			strings.Contains(strings.ToLower(lot.Buyer), q) {
			lots = append(lots, lot)
		}
	}
	return lots, nil
}

// Create appends a row for lot below the last used row. Columns are matched
// case-insensitively and only the ones present in the header are filled.
// Existing lot ids are not checked.
func (s *LotStore) Create(ctx context.Context, lot *domain.Lot) error {
	headerRows, err := s.sheet.Get(ctx, lotsHeaderRange)
	if err != nil {
		return fmt.Errorf("failed to read lots header: %w", err)
	}
	var h sheet.Header
	if len(headerRows) > 0 {
		h = sheet.NewHeader(headerRows[0])
	}

	iLot, iBin := h.IndexFold("LotID"), h.IndexFold("BinID")
	iTitle, iStatus, iBuyer := h.IndexFold("Title"), h.IndexFold("Status"), h.IndexFold("Buyer")
	iFolder := h.IndexFold("FolderURL")
	if iLot < 0 || iBin < 0 {
		return fmt.Errorf("lots tab needs LotID and BinID: %w", ErrMissingColumn)
	}

	existing, err := s.sheet.Get(ctx, lotsRange)
	if err != nil {
		return fmt.Errorf("failed to read lots: %w", err)
	}
	next := len(existing) + 1

	row := make([]string, max(iLot, iBin, iTitle, iStatus, iBuyer, iFolder)+1)
	row[iLot] = lot.LotID
	row[iBin] = lot.BinID
	setIf(row, iTitle, lot.Title)
	setIf(row, iStatus, lot.Status)
	setIf(row, iBuyer, lot.Buyer)
	setIf(row, iFolder, lot.FolderURL)

	if err := s.sheet.Append(ctx, fmt.Sprintf("%s!A%d", sheet.TabLots, next), [][]string{row}); err != nil {
		return fmt.Errorf("failed to create lot: %w", err)
	}
	return nil
}

func setIf(row []string, idx int, v string) {
	if idx >= 0 && v != "" {
		row[idx] = v
	}
}

// Move overwrites the bin cell of the first row whose lot id matches.
func (s *LotStore) Move(ctx context.Context, lotID, targetBinID string) error {
	values, err := s.sheet.Get(ctx, lotsRange)
	if err != nil {
		return fmt.Errorf("failed to read lots: %w", err)
	}
	if len(values) < 2 {
		return fmt.Errorf("lots tab is empty: %w", ErrNoRows)
	}

	h := sheet.NewHeader(values[0])
	iLot, iBin := h.Index("LotID"), h.Index("BinID")
	if iLot < 0 || iBin < 0 {
		return fmt.Errorf("lots tab needs LotID and BinID: %w", ErrMissingColumn)
	}

	for i, row := range values[1:] {
		if sheet.Value(row, iLot) != lotID {
			continue
		}
		cell := sheet.Cell(sheet.TabLots, iBin, i+2)
		if err := s.sheet.Update(ctx, cell, [][]string{{targetBinID}}); err != nil {
			return fmt.Errorf("failed to move lot: %w", err)
		}
		return nil
	}
	return fmt.Errorf("lot %s: %w", lotID, ErrNotFound)
}

// ClearBin blanks the bin cell of every lot in binID with a single batched
// write and returns how many rows were cleared.
func (s *LotStore) ClearBin(ctx context.Context, binID string) (int, error) {
	values, err := s.sheet.Get(ctx, lotsRange)
	if err != nil {
		return 0, fmt.Errorf("failed to read lots: %w", err)
	}
	if len(values) < 2 {
		return 0, nil
	}

	h := sheet.NewHeader(values[0])
	iLot, iBin := h.Index("LotID"), h.Index("BinID")
	if iLot < 0 || iBin < 0 {
		return 0, fmt.Errorf("lots tab needs LotID and BinID: %w", ErrMissingColumn)
	}

	var updates []sheet.ValueRange
	for i, row := range values[1:] {
		if sheet.Value(row, iBin) == binID {
			updates = append(updates, sheet.ValueRange{
				Range:  sheet.Cell(sheet.TabLots, iBin, i+2),
				Values: [][]string{{""}},
			})
		}
	}
	if len(updates) == 0 {
		return 0, nil
	}
	if err := s.sheet.BatchUpdate(ctx, updates); err != nil {
		return 0, fmt.Errorf("failed to clear bin: %w", err)
	}
	return len(updates), nil
}
