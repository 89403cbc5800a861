package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/vbonduro/parrotops/internal/auth"
	"github.com/vbonduro/parrotops/internal/domain"
	"github.com/vbonduro/parrotops/internal/sheet"
	"github.com/vbonduro/parrotops/internal/store"
)

// Journal actions.
const (
	ActionLotCreate = "lot.create"
	ActionLotMove   = "lot.move"
	ActionBinClean  = "bin.clean"
	ActionZonesSave = "zone_layout.save"
)

// binRepository is the subset of store.BinStore that WarehouseService requires.
type binRepository interface {
	List(ctx context.Context) ([]*domain.Bin, error)
	GetByID(ctx context.Context, binID string) (*domain.Bin, error)
	SetStatus(ctx context.Context, binID string, status domain.BinStatus) (bool, error)
}

// lotRepository is the subset of store.LotStore that WarehouseService requires.
type lotRepository interface {
	List(ctx context.Context, binID string) ([]*domain.Lot, error)
	GetByID(ctx context.Context, lotID string) (*domain.Lot, error)
	Search(ctx context.Context, query string) ([]*domain.Lot, error)
	Create(ctx context.Context, lot *domain.Lot) error
	Move(ctx context.Context, lotID, targetBinID string) error
	ClearBin(ctx context.Context, binID string) (int, error)
}

// zoneRepository is the subset of store.ZoneStore that WarehouseService requires.
type zoneRepository interface {
	ListActive(ctx context.Context) ([]domain.Zone, error)
	ReplaceAll(ctx context.Context, zones []domain.Zone) error
}

// journalRepository is the subset of store.JournalStore that WarehouseService requires.
type journalRepository interface {
	Create(ctx context.Context, action, subject, detail, actor string) (*domain.JournalEntry, error)
	ListRecent(ctx context.Context, limit int) ([]*domain.JournalEntry, error)
	ListBySubject(ctx context.Context, subject string, limit int) ([]*domain.JournalEntry, error)
}

// JournalFailureRecorder is notified when a journal entry is lost.
type JournalFailureRecorder interface {
	JournalWriteFailed()
}

type repositories struct {
	bins  binRepository
	lots  lotRepository
	zones zoneRepository
	actor string
}

type WarehouseService struct {
	opener    sheet.Opener
	journal   journalRepository
	failures  JournalFailureRecorder
	warehouse domain.Warehouse
	locks     *tabLocks
	logger    *slog.Logger
}

// NewWarehouseService wires the service. journal may be nil, in which case
// mutations are not recorded and ListJournal returns nothing.
func NewWarehouseService(opener sheet.Opener, journal journalRepository, logger *slog.Logger) *WarehouseService {
	return &WarehouseService{
		opener:    opener,
		journal:   journal,
		warehouse: domain.DefaultWarehouse,
		locks:     newTabLocks(),
		logger:    logger,
	}
}

func (s *WarehouseService) SetJournalFailureRecorder(r JournalFailureRecorder) {
	s.failures = r
}

// open authorises the spreadsheet with the token of the session in ctx.
func (s *WarehouseService) open(ctx context.Context) (*repositories, error) {
	sess, ok := auth.FromContext(ctx)
	if !ok || sess.AccessToken == "" {
		return nil, ErrUnauthorized
	}
	ss, err := s.opener.Open(ctx, sess.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("failed to open spreadsheet: %w", err)
	}
	return &repositories{
		bins:  store.NewBinStore(ss),
		lots:  store.NewLotStore(ss),
		zones: store.NewZoneStore(ss),
		actor: sess.Email,
	}, nil
}

func (s *WarehouseService) ListBins(ctx context.Context) ([]*domain.Bin, error) {
	repos, err := s.open(ctx)
	if err != nil {
		return nil, err
	}
	bins, err := repos.bins.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list bins: %w", err)
	}
	for _, b := range bins {
		if b.Status != "" && !b.Status.Known() {
			s.logger.Warn("unknown bin status", "bin_id", b.BinID, "status", b.Status)
		}
	}
	return bins, nil
}

// GetBin returns the bin and the lots stored in it.
func (s *WarehouseService) GetBin(ctx context.Context, binID string) (*domain.Bin, []*domain.Lot, error) {
	binID = strings.TrimSpace(binID)
	if binID == "" {
		return nil, nil, invalid("binId is required")
	}
	repos, err := s.open(ctx)
	if err != nil {
		return nil, nil, err
	}
	bin, err := repos.bins.GetByID(ctx, binID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get bin: %w", err)
	}
	if bin == nil {
		return nil, nil, notFound("Bin not found")
	}
	lots, err := repos.lots.List(ctx, binID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list lots: %w", err)
	}
	return bin, lots, nil
}

// ListLots returns assigned lots, narrowed to one bin when binID is set.
func (s *WarehouseService) ListLots(ctx context.Context, binID string) ([]*domain.Lot, error) {
	repos, err := s.open(ctx)
	if err != nil {
		return nil, err
	}
	lots, err := repos.lots.List(ctx, strings.TrimSpace(binID))
	if err != nil {
		return nil, fmt.Errorf("failed to list lots: %w", err)
	}
	return lots, nil
}

func (s *WarehouseService) GetLot(ctx context.Context, lotID string) (*domain.Lot, error) {
	lotID = strings.TrimSpace(lotID)
	if lotID == "" {
		return nil, invalid("lotId is required")
	}
	repos, err := s.open(ctx)
	if err != nil {
		return nil, err
	}
	lot, err := repos.lots.GetByID(ctx, lotID)
	if err != nil {
		return nil, fmt.Errorf("failed to get lot: %w", err)
	}
	if lot == nil {
		return nil, notFound("Lot not found")
	}
	return lot, nil
}

func (s *WarehouseService) FindLots(ctx context.Context, query string) ([]*domain.Lot, error) {
	repos, err := s.open(ctx)
	if err != nil {
		return nil, err
	}
	lots, err := repos.lots.Search(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to search lots: %w", err)
	}
	return lots, nil
}

// CreateLot appends a lot row. Ids are not checked for uniqueness.
func (s *WarehouseService) CreateLot(ctx context.Context, lot domain.Lot) (*domain.Lot, error) {
	lot.LotID = strings.TrimSpace(lot.LotID)
	lot.BinID = strings.TrimSpace(lot.BinID)
	if lot.LotID == "" || lot.BinID == "" {
		return nil, invalid("binId and lotId are required")
	}
	repos, err := s.open(ctx)
	if err != nil {
		return nil, err
	}

	unlock := s.locks.lock(sheet.TabLots)
	defer unlock()

	if err := repos.lots.Create(ctx, &lot); err != nil {
		if errors.Is(err, store.ErrMissingColumn) {
			return nil, invalid("Missing LotID or BinID column")
		}
		return nil, fmt.Errorf("failed to create lot: %w", err)
	}
	s.logger.Info("lot created", "lot_id", lot.LotID, "bin_id", lot.BinID)
	s.record(ctx, ActionLotCreate, lot.LotID, "bin="+lot.BinID, repos.actor)
	return &lot, nil
}

func (s *WarehouseService) MoveLot(ctx context.Context, lotID, targetBinID string) error {
	lotID = strings.TrimSpace(lotID)
	targetBinID = strings.TrimSpace(targetBinID)
	if lotID == "" || targetBinID == "" {
		return invalid("lotId and targetBinId are required")
	}
	repos, err := s.open(ctx)
	if err != nil {
		return err
	}

	unlock := s.locks.lock(sheet.TabLots)
	defer unlock()

	if err := repos.lots.Move(ctx, lotID, targetBinID); err != nil {
		switch {
		case errors.Is(err, store.ErrNoRows):
			return notFound("No lots found")
		case errors.Is(err, store.ErrNotFound):
			return notFound("Lot not found")
		case errors.Is(err, store.ErrMissingColumn):
			return invalid("Missing LotID or BinID column")
		}
		return fmt.Errorf("failed to move lot: %w", err)
	}
	s.logger.Info("lot moved", "lot_id", lotID, "target_bin_id", targetBinID)
	s.record(ctx, ActionLotMove, lotID, "to="+targetBinID, repos.actor)
	return nil
}

// CleanResult reports what CleanBin changed.
type CleanResult struct {
	Cleaned  int
	SetEmpty bool
	// BinUpdated is false when setEmpty was requested but the bin row or
	// its Status column does not exist.
	BinUpdated bool
}

// CleanBin unassigns every lot in the bin and, when setEmpty is true,
// marks the bin EMPTY. The two writes are not atomic.
func (s *WarehouseService) CleanBin(ctx context.Context, binID string, setEmpty bool) (*CleanResult, error) {
	binID = strings.TrimSpace(binID)
	if binID == "" {
		return nil, invalid("binId is required")
	}
	repos, err := s.open(ctx)
	if err != nil {
		return nil, err
	}

	unlock := s.locks.lock(sheet.TabLots, sheet.TabBins)
	defer unlock()

	cleaned, err := repos.lots.ClearBin(ctx, binID)
	if err != nil {
		if errors.Is(err, store.ErrMissingColumn) {
			return nil, invalid("Missing LotID or BinID column")
		}
		return nil, fmt.Errorf("failed to clear lots: %w", err)
	}

	res := &CleanResult{Cleaned: cleaned, SetEmpty: setEmpty}
	if setEmpty {
		res.BinUpdated, err = repos.bins.SetStatus(ctx, binID, domain.StatusEmpty)
		if err != nil {
			return nil, fmt.Errorf("failed to set bin status: %w", err)
		}
		if !res.BinUpdated {
			s.logger.Warn("bin not marked empty", "bin_id", binID)
		}
	}

	s.logger.Info("bin cleaned", "bin_id", binID, "cleaned", cleaned, "set_empty", setEmpty)
	s.record(ctx, ActionBinClean, binID, fmt.Sprintf("cleaned=%d set_empty=%t", cleaned, setEmpty), repos.actor)
	return res, nil
}

// GetZoneLayout returns the active zones on the warehouse floor.
func (s *WarehouseService) GetZoneLayout(ctx context.Context) (*domain.ZoneLayout, error) {
	repos, err := s.open(ctx)
	if err != nil {
		return nil, err
	}
	zones, err := repos.zones.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list zones: %w", err)
	}
	return &domain.ZoneLayout{Warehouse: s.warehouse, Zones: zones}, nil
}

// ZoneInput is one zone as submitted by a client. Nil coordinates were
// absent or not numbers; a nil Active means active.
type ZoneInput struct {
	ZoneID     string
	X, Y, W, H *float64
	Active     *bool
}

// SaveZoneLayout replaces the whole ZONE_LAYOUT table with zones and
// returns the number of rows written.
func (s *WarehouseService) SaveZoneLayout(ctx context.Context, in []ZoneInput) (int, error) {
	zones := s.sanitizeZones(in)
	repos, err := s.open(ctx)
	if err != nil {
		return 0, err
	}

	unlock := s.locks.lock(sheet.TabZoneLayout)
	defer unlock()

	if err := repos.zones.ReplaceAll(ctx, zones); err != nil {
		return 0, fmt.Errorf("failed to save zone layout: %w", err)
	}
	s.logger.Info("zone layout saved", "zones", len(zones), "submitted", len(in))
	s.record(ctx, ActionZonesSave, sheet.TabZoneLayout, fmt.Sprintf("count=%d", len(zones)), repos.actor)
	return len(zones), nil
}

func (s *WarehouseService) sanitizeZones(in []ZoneInput) []domain.Zone {
	zones := make([]domain.Zone, 0, len(in))
	for _, z := range in {
		id := strings.TrimSpace(z.ZoneID)
		if id == "" {
			continue
		}
		zones = append(zones, s.warehouse.Clamp(domain.Zone{
			ZoneID: id,
			X:      orDefault(z.X, store.DefaultZoneX),
			Y:      orDefault(z.Y, store.DefaultZoneY),
			W:      orDefault(z.W, store.DefaultZoneW),
			H:      orDefault(z.H, store.DefaultZoneH),
			Active: z.Active == nil || *z.Active,
		}))
	}
	return zones
}

func orDefault(v *float64, fallback float64) float64 {
	if v == nil {
		return fallback
	}
	return *v
}

// ListJournal returns the newest journal entries first, only those about
// subject when it is set.
func (s *WarehouseService) ListJournal(ctx context.Context, subject string, limit int) ([]*domain.JournalEntry, error) {
	if s.journal == nil {
		return []*domain.JournalEntry{}, nil
	}
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	var (
		entries []*domain.JournalEntry
		err     error
	)
	if subject = strings.TrimSpace(subject); subject != "" {
		entries, err = s.journal.ListBySubject(ctx, subject, limit)
	} else {
		entries, err = s.journal.ListRecent(ctx, limit)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list journal: %w", err)
	}
	return entries, nil
}

// record journals a mutation that already reached the spreadsheet, so it
// outlives cancellation of the request.
func (s *WarehouseService) record(ctx context.Context, action, subject, detail, actor string) {
	if s.journal == nil {
		return
	}
	if _, err := s.journal.Create(context.WithoutCancel(ctx), action, subject, detail, actor); err != nil {
		s.logger.Error("failed to record journal entry", "action", action, "subject", subject, "error", err)
		if s.failures != nil {
			s.failures.JournalWriteFailed()
		}
	}
}
