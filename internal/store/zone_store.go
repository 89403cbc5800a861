package store

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/vbonduro/parrotops/internal/domain"
	"github.com/vbonduro/parrotops/internal/sheet"
)

const (
	zonesRange       = sheet.TabZoneLayout + "!A:F"
	zonesHeaderRange = sheet.TabZoneLayout + "!A1:F1"
	zonesDataRange   = sheet.TabZoneLayout + "!A2:F"
)

// ZoneHeader is the header written on every layout save.
var ZoneHeader = []string{"ZoneID", "X", "Y", "Width", "Height", "Active"}

// Fallbacks for zone cells that are missing or not numeric.
const (
	DefaultZoneX = 0
	DefaultZoneY = 0
	DefaultZoneW = 10
	DefaultZoneH = 10
)

type ZoneStore struct {
	sheet sheet.Spreadsheet
}

func NewZoneStore(ss sheet.Spreadsheet) *ZoneStore {
	return &ZoneStore{sheet: ss}
}

// ListActive returns the zones not marked inactive. Coordinates are returned
// as stored; only unparsable cells fall back to defaults.
func (s *ZoneStore) ListActive(ctx context.Context) ([]domain.Zone, error) {
	values, err := s.sheet.Get(ctx, zonesRange)
	if err != nil {
		return nil, fmt.Errorf("failed to read zone layout: %w", err)
	}
	zones := make([]domain.Zone, 0)
	if len(values) < 2 {
		return zones, nil
	}

	h := sheet.NewHeader(values[0])
	iZone, iX, iY := h.Index("ZoneID"), h.Index("X"), h.Index("Y")
	iW, iH, iActive := h.Index("Width"), h.Index("Height"), h.Index("Active")

	for _, row := range values[1:] {
		zoneID := sheet.Value(row, iZone)
		if zoneID == "" {
			continue
		}
		if !activeCell(row, iActive) {
			continue
		}
		zones = append(zones, domain.Zone{
			ZoneID: zoneID,
			X:      ParseFeet(row, iX, DefaultZoneX),
			Y:      ParseFeet(row, iY, DefaultZoneY),
			W:      ParseFeet(row, iW, DefaultZoneW),
			H:      ParseFeet(row, iH, DefaultZoneH),
			Active: true,
		})
	}
	return zones, nil
}

// ReplaceAll rewrites the header, clears every data row and writes zones in
// their place. Zones absent from the slice are gone afterwards.
func (s *ZoneStore) ReplaceAll(ctx context.Context, zones []domain.Zone) error {
	if err := s.sheet.Update(ctx, zonesHeaderRange, [][]string{ZoneHeader}); err != nil {
		return fmt.Errorf("failed to write zone header: %w", err)
	}
	if err := s.sheet.Clear(ctx, zonesDataRange); err != nil {
		return fmt.Errorf("failed to clear zone layout: %w", err)
	}
	if len(zones) == 0 {
		return nil
	}

	rows := make([][]string, 0, len(zones))
	for _, z := range zones {
		rows = append(rows, []string{
			z.ZoneID,
			FormatFeet(z.X),
			FormatFeet(z.Y),
			FormatFeet(z.W),
			FormatFeet(z.H),
			formatActive(z.Active),
		})
	}
	rng := fmt.Sprintf("%s!A2:F%d", sheet.TabZoneLayout, len(rows)+1)
	if err := s.sheet.Update(ctx, rng, rows); err != nil {
		return fmt.Errorf("failed to write zone layout: %w", err)
	}
	return nil
}

// ParseFeet reads a numeric cell, returning fallback when the cell is
// absent, blank or not a finite number.
func ParseFeet(row []string, idx int, fallback float64) float64 {
	v := sheet.Value(row, idx)
	if v == "" {
		return fallback
	}
	n, err := strconv.ParseFloat(v, 64)
	if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
		return fallback
	}
	return n
}

func FormatFeet(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// activeCell treats everything except a literal FALSE as active, including
// a missing column or cell.
func activeCell(row []string, idx int) bool {
	if !sheet.Present(row, idx) {
		return true
	}
	return strings.ToUpper(sheet.Value(row, idx)) != "FALSE"
}

func formatActive(active bool) string {
	if active {
		return "TRUE"
	}
	return "FALSE"
}
