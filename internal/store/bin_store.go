package store

import (
	"context"
	"fmt"

	"github.com/vbonduro/parrotops/internal/domain"
	"github.com/vbonduro/parrotops/internal/sheet"
)

const binsRange = sheet.TabBins + "!A:Z"

type BinStore struct {
	sheet sheet.Spreadsheet
}

func NewBinStore(ss sheet.Spreadsheet) *BinStore {
	return &BinStore{sheet: ss}
}

type binColumns struct {
	id, zone, status, position, size int
}

func binColumnsOf(h sheet.Header) binColumns {
	return binColumns{
		id:       h.Index("BinID"),
		zone:     h.Index("Zone"),
		status:   h.Index("Status"),
		position: h.Index("Position"),
		size:     h.Index("Size"),
	}
}

// List returns every bin row that has both a bin id and a zone, in sheet
// order.
func (s *BinStore) List(ctx context.Context) ([]*domain.Bin, error) {
	values, err := s.sheet.Get(ctx, binsRange)
	if err != nil {
		return nil, fmt.Errorf("failed to list bins: %w", err)
	}
	if len(values) < 2 {
		return []*domain.Bin{}, nil
	}

	cols := binColumnsOf(sheet.NewHeader(values[0]))
	bins := make([]*domain.Bin, 0, len(values)-1)
	for _, row := range values[1:] {
		if bin := cols.project(row); bin != nil {
			bins = append(bins, bin)
		}
	}
	return bins, nil
}

// GetByID returns the first bin with the given id, or nil when none matches.
func (s *BinStore) GetByID(ctx context.Context, binID string) (*domain.Bin, error) {
	bins, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	for _, b := range bins {
		if b.BinID == binID {
			return b, nil
		}
	}
	return nil, nil
}

// SetStatus overwrites the status cell of the first row whose bin id matches.
// It reports false without writing when the tab, the columns or the row are
// missing.
func (s *BinStore) SetStatus(ctx context.Context, binID string, status domain.BinStatus) (bool, error) {
	values, err := s.sheet.Get(ctx, binsRange)
	if err != nil {
		return false, fmt.Errorf("failed to read bins: %w", err)
	}
	if len(values) < 2 {
		return false, nil
	}

	h := sheet.NewHeader(values[0])
	iBin, iStatus := h.Index("BinID"), h.Index("Status")
	if iBin < 0 || iStatus < 0 {
		return false, nil
	}

	for i, row := range values[1:] {
		if sheet.Value(row, iBin) != binID {
			continue
		}
		cell := sheet.Cell(sheet.TabBins, iStatus, i+2)
		if err := s.sheet.Update(ctx, cell, [][]string{{string(status)}}); err != nil {
			return false, fmt.Errorf("failed to set bin status: %w", err)
		}
		return true, nil
	}
	return false, nil
}

func (c binColumns) project(row []string) *domain.Bin {
	binID := sheet.Value(row, c.id)
	zone := sheet.Value(row, c.zone)
	if binID == "" || zone == "" {
		return nil
	}
	return &domain.Bin{
		BinID:    binID,
		Zone:     zone,
		Status:   domain.BinStatus(sheet.Value(row, c.status)),
		Position: sheet.Value(row, c.position),
		Size:     sheet.Value(row, c.size),
	}
}
