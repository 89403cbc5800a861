// Package editor is the warehouse map editor: a working copy of the zone
// layout plus the bin and lot panels, driven against the JSON API.
//
// An Editor is not safe for concurrent use.
package editor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/vbonduro/parrotops/internal/api"
	"github.com/vbonduro/parrotops/internal/domain"
	"golang.org/x/sync/errgroup"
)

var (
	ErrNotLoaded     = errors.New("layout not loaded")
	ErrNotEditing    = errors.New("edit mode is off")
	ErrUnknownZone   = errors.New("unknown zone")
	ErrUnknownBin    = errors.New("unknown bin")
	ErrNoBinSelected = errors.New("no bin selected")
	ErrInvalidZoneID = errors.New("invalid zone id")
)

// API is the part of client.Client the editor drives.
type API interface {
	ZoneLayout(ctx context.Context) (*domain.ZoneLayout, error)
	Bins(ctx context.Context) ([]*domain.Bin, error)
	Lots(ctx context.Context, binID string) ([]*domain.Lot, error)
	SaveZoneLayout(ctx context.Context, zones []domain.Zone) (int, error)
	CreateLot(ctx context.Context, req api.CreateLotRequest) error
	MoveLot(ctx context.Context, lotID, targetBinID string) error
	CleanBin(ctx context.Context, binID string, setEmpty bool) (int, error)
}

type Mode int

const (
	Viewing Mode = iota
	Editing
)

func (m Mode) String() string {
	if m == Editing {
		return "editing"
	}
	return "viewing"
}

type SelectionKind int

const (
	SelectedNone SelectionKind = iota
	SelectedZone
	SelectedBin
)

// Selection is at most one zone or one bin.
type Selection struct {
	Kind SelectionKind
	ID   string
}

type Editor struct {
	api    API
	canvas Canvas
	logger *slog.Logger

	loaded    bool
	mode      Mode
	selection Selection
	warehouse domain.Warehouse
	zones     []domain.Zone
	bins      []domain.Bin
	binLots   []domain.Lot
}

type Option func(*Editor)

func WithCanvas(c Canvas) Option {
	return func(e *Editor) { e.canvas = c }
}

func WithLogger(l *slog.Logger) Option {
	return func(e *Editor) { e.logger = l }
}

func New(a API, opts ...Option) *Editor {
	e := &Editor{
		api:       a,
		canvas:    DefaultCanvas,
		logger:    slog.Default(),
		warehouse: domain.DefaultWarehouse,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Load fetches the layout and the bins together and resets the working
// copy. On error the previous state is kept.
func (e *Editor) Load(ctx context.Context) error {
	var (
		layout *domain.ZoneLayout
		bins   []*domain.Bin
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		layout, err = e.api.ZoneLayout(gctx)
		if err != nil {
			return fmt.Errorf("failed to load zone layout: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		bins, err = e.api.Bins(gctx)
		if err != nil {
			return fmt.Errorf("failed to load bins: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return err
	}

	e.warehouse = layout.Warehouse
	if e.warehouse.W <= 0 || e.warehouse.H <= 0 {
		e.warehouse = domain.DefaultWarehouse
	}
	e.zones = slices.Clone(layout.Zones)
	e.bins = derefAll(bins)
	e.loaded = true

	switch e.selection.Kind {
	case SelectedZone:
		if e.zoneIndex(e.selection.ID) < 0 {
			e.ClearSelection()
		}
	case SelectedBin:
		if e.binIndex(e.selection.ID) < 0 {
			e.ClearSelection()
		}
	}
	e.logger.Debug("map loaded", "zones", len(e.zones), "bins", len(e.bins))
	return nil
}

func (e *Editor) Mode() Mode { return e.mode }

func (e *Editor) Selection() Selection { return e.selection }

func (e *Editor) Warehouse() domain.Warehouse { return e.warehouse }

// Zones returns a copy of the working layout.
func (e *Editor) Zones() []domain.Zone { return slices.Clone(e.zones) }

func (e *Editor) Bins() []domain.Bin { return slices.Clone(e.bins) }

// BinLots returns the lots of the selected bin as last fetched.
func (e *Editor) BinLots() []domain.Lot { return slices.Clone(e.binLots) }

func (e *Editor) SelectedZone() (domain.Zone, bool) {
	if e.selection.Kind != SelectedZone {
		return domain.Zone{}, false
	}
	i := e.zoneIndex(e.selection.ID)
	if i < 0 {
		return domain.Zone{}, false
	}
	return e.zones[i], true
}

func (e *Editor) SelectedBin() (domain.Bin, bool) {
	if e.selection.Kind != SelectedBin {
		return domain.Bin{}, false
	}
	i := e.binIndex(e.selection.ID)
	if i < 0 {
		return domain.Bin{}, false
	}
	return e.bins[i], true
}

// ToggleEdit flips between viewing and editing and returns the new mode.
func (e *Editor) ToggleEdit() Mode {
	if e.mode == Editing {
		e.mode = Viewing
	} else {
		e.mode = Editing
	}
	return e.mode
}

func (e *Editor) SelectZone(zoneID string) error {
	if e.zoneIndex(zoneID) < 0 {
		return fmt.Errorf("%w: %s", ErrUnknownZone, zoneID)
	}
	e.selection = Selection{Kind: SelectedZone, ID: zoneID}
	e.binLots = nil
	return nil
}

// SelectBin selects the bin and fetches its lots. The bin stays selected
// when the fetch fails.
func (e *Editor) SelectBin(ctx context.Context, binID string) error {
	if e.binIndex(binID) < 0 {
		return fmt.Errorf("%w: %s", ErrUnknownBin, binID)
	}
	e.selection = Selection{Kind: SelectedBin, ID: binID}
	e.binLots = nil
	return e.refreshLots(ctx)
}

func (e *Editor) ClearSelection() {
	e.selection = Selection{}
	e.binLots = nil
}

// DragZone moves a zone to where its top-left corner was dropped on the
// canvas, snapped to whole feet.
func (e *Editor) DragZone(zoneID string, pxX, pxY float64) (domain.Zone, error) {
	i, err := e.editableZone(zoneID)
	if err != nil {
		return domain.Zone{}, err
	}
	e.zones[i].X, e.zones[i].Y = e.canvas.snapPosition(e.warehouse, pxX, pxY)
	return e.zones[i], nil
}

// ResizeZone applies a transform of the zone's rectangle, given its
// unscaled pixel size and the scale factors.
func (e *Editor) ResizeZone(zoneID string, widthPx, heightPx, scaleX, scaleY float64) (domain.Zone, error) {
	i, err := e.editableZone(zoneID)
	if err != nil {
		return domain.Zone{}, err
	}
	e.zones[i].W, e.zones[i].H = e.canvas.snapSize(e.warehouse, widthPx, heightPx, scaleX, scaleY)
	return e.zones[i], nil
}

// MoveZone places a zone at a position given in feet.
func (e *Editor) MoveZone(zoneID string, xFt, yFt float64) (domain.Zone, error) {
	r := e.canvas.ZoneRect(domain.Zone{X: xFt, Y: yFt})
	return e.DragZone(zoneID, r.X, r.Y)
}

// SetZoneSize sets a zone's size in feet.
func (e *Editor) SetZoneSize(zoneID string, wFt, hFt float64) (domain.Zone, error) {
	r := e.canvas.ZoneRect(domain.Zone{W: wFt, H: hFt})
	return e.ResizeZone(zoneID, r.W, r.H, 1, 1)
}

// AddZone appends a 10x10 ft zone at the origin named NEW_ZONE_n with the
// first free n, selects it and turns edit mode on.
func (e *Editor) AddZone() (domain.Zone, error) {
	if !e.loaded {
		return domain.Zone{}, ErrNotLoaded
	}
	id := ""
	for n := 1; ; n++ {
		id = fmt.Sprintf("NEW_ZONE_%d", n)
		if e.zoneIndex(id) < 0 {
			break
		}
	}
	z := domain.Zone{ZoneID: id, X: 0, Y: 0, W: 10, H: 10, Active: true}
	e.zones = append(e.zones, z)
	e.selection = Selection{Kind: SelectedZone, ID: id}
	e.binLots = nil
	e.mode = Editing
	return z, nil
}

// RenameZone changes a zone's id in the working copy. The new id must be
// non-empty and unused. A selection of the zone follows the rename.
func (e *Editor) RenameZone(oldID, newID string) (domain.Zone, error) {
	i, err := e.editableZone(oldID)
	if err != nil {
		return domain.Zone{}, err
	}
	newID = strings.TrimSpace(newID)
	if newID == "" {
		return domain.Zone{}, fmt.Errorf("%w: empty", ErrInvalidZoneID)
	}
	if newID == oldID {
		return e.zones[i], nil
	}
	if e.zoneIndex(newID) >= 0 {
		return domain.Zone{}, fmt.Errorf("%w: %s already exists", ErrInvalidZoneID, newID)
	}
	e.zones[i].ZoneID = newID
	if e.selection.Kind == SelectedZone && e.selection.ID == oldID {
		e.selection.ID = newID
	}
	return e.zones[i], nil
}

// DeactivateZone marks a zone inactive in the working copy and clears the
// selection. The next Save writes it with Active FALSE.
func (e *Editor) DeactivateZone(zoneID string) (domain.Zone, error) {
	i, err := e.editableZone(zoneID)
	if err != nil {
		return domain.Zone{}, err
	}
	e.zones[i].Active = false
	e.ClearSelection()
	return e.zones[i], nil
}

// ReplaceZones swaps the whole working copy, clamping each zone to the
// warehouse. Zones without an id are dropped.
func (e *Editor) ReplaceZones(zones []domain.Zone) error {
	if !e.loaded {
		return ErrNotLoaded
	}
	if e.mode != Editing {
		return ErrNotEditing
	}
	out := make([]domain.Zone, 0, len(zones))
	for _, z := range zones {
		z.ZoneID = strings.TrimSpace(z.ZoneID)
		if z.ZoneID == "" {
			continue
		}
		out = append(out, e.warehouse.Clamp(z))
	}
	e.zones = out
	if e.selection.Kind == SelectedZone && e.zoneIndex(e.selection.ID) < 0 {
		e.ClearSelection()
	}
	return nil
}

// Save posts the whole working copy, then reloads from the server.
func (e *Editor) Save(ctx context.Context) (int, error) {
	if !e.loaded {
		return 0, ErrNotLoaded
	}
	if e.mode != Editing {
		return 0, ErrNotEditing
	}
	n, err := e.api.SaveZoneLayout(ctx, e.zones)
	if err != nil {
		return 0, fmt.Errorf("failed to save layout: %w", err)
	}
	e.logger.Info("layout saved", "zones", n)
	if err := e.Load(ctx); err != nil {
		return n, err
	}
	return n, nil
}

// CreateLot adds a lot to the selected bin and refetches its lots.
func (e *Editor) CreateLot(ctx context.Context, lot domain.Lot) error {
	binID, err := e.selectedBinID()
	if err != nil {
		return err
	}
	err = e.api.CreateLot(ctx, api.CreateLotRequest{
		BinID:     api.Text(binID),
		LotID:     api.Text(lot.LotID),
		Title:     api.Text(lot.Title),
		Status:    api.Text(lot.Status),
		Buyer:     api.Text(lot.Buyer),
		FolderURL: api.Text(lot.FolderURL),
	})
	if err != nil {
		return fmt.Errorf("failed to create lot: %w", err)
	}
	return e.refreshLots(ctx)
}

// MoveLot moves a lot to another bin and refetches the selected bin's lots
// and the bins.
func (e *Editor) MoveLot(ctx context.Context, lotID, targetBinID string) error {
	if _, err := e.selectedBinID(); err != nil {
		return err
	}
	if err := e.api.MoveLot(ctx, lotID, targetBinID); err != nil {
		return fmt.Errorf("failed to move lot: %w", err)
	}
	return e.refreshLotsAndBins(ctx)
}

// CleanBin unassigns every lot in the selected bin.
func (e *Editor) CleanBin(ctx context.Context, setEmpty bool) (int, error) {
	binID, err := e.selectedBinID()
	if err != nil {
		return 0, err
	}
	n, err := e.api.CleanBin(ctx, binID, setEmpty)
	if err != nil {
		return 0, fmt.Errorf("failed to clean bin: %w", err)
	}
	return n, e.refreshLotsAndBins(ctx)
}

// BinTiles lays out the bins of a zone as a grid of small tiles inside the
// zone's rectangle. Bins that do not fit are not drawn.
func (e *Editor) BinTiles(zoneID string) ([]Tile, error) {
	i := e.zoneIndex(zoneID)
	if i < 0 {
		return nil, fmt.Errorf("%w: %s", ErrUnknownZone, zoneID)
	}
	r := e.canvas.ZoneRect(e.zones[i])
	cols, rows := tileGrid(r)
	capacity := cols * rows

	tiles := make([]Tile, 0)
	for _, b := range e.bins {
		if b.Zone != zoneID {
			continue
		}
		if len(tiles) == capacity {
			break
		}
		n := len(tiles)
		tiles = append(tiles, Tile{
			BinID: b.BinID,
			Rect: Rect{
				X: r.X + tilePadX + float64(n%cols)*(tileSize+tileGap),
				Y: r.Y + tilePadTop + float64(n/cols)*(tileSize+tileGap),
				W: tileSize,
				H: tileSize,
			},
			Color:    b.Status.Color(),
			Selected: e.selection.Kind == SelectedBin && e.selection.ID == b.BinID,
		})
	}
	return tiles, nil
}

func (e *Editor) editableZone(zoneID string) (int, error) {
	if e.mode != Editing {
		return -1, ErrNotEditing
	}
	i := e.zoneIndex(zoneID)
	if i < 0 {
		return -1, fmt.Errorf("%w: %s", ErrUnknownZone, zoneID)
	}
	return i, nil
}

func (e *Editor) selectedBinID() (string, error) {
	if e.selection.Kind != SelectedBin {
		return "", ErrNoBinSelected
	}
	return e.selection.ID, nil
}

func (e *Editor) refreshLots(ctx context.Context) error {
	lots, err := e.api.Lots(ctx, e.selection.ID)
	if err != nil {
		return fmt.Errorf("failed to load lots: %w", err)
	}
	e.binLots = derefAll(lots)
	return nil
}

func (e *Editor) refreshLotsAndBins(ctx context.Context) error {
	if err := e.refreshLots(ctx); err != nil {
		return err
	}
	bins, err := e.api.Bins(ctx)
	if err != nil {
		return fmt.Errorf("failed to load bins: %w", err)
	}
	e.bins = derefAll(bins)
	return nil
}

func (e *Editor) zoneIndex(id string) int {
	return slices.IndexFunc(e.zones, func(z domain.Zone) bool { return z.ZoneID == id })
}

func (e *Editor) binIndex(id string) int {
	return slices.IndexFunc(e.bins, func(b domain.Bin) bool { return b.BinID == id })
}

func derefAll[T any](in []*T) []T {
	out := make([]T, 0, len(in))
	for _, v := range in {
		if v != nil {
			out = append(out, *v)
		}
	}
	return out
}
