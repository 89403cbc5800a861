package domain

import (
	"strings"
	"time"
)

type Bin struct {
	BinID    string    `json:"binId"`
	Zone     string    `json:"zone"`
	Status   BinStatus `json:"status"`
	Position string    `json:"position"`
	Size     string    `json:"size"`
}

// Lot is a batch of inventory. BinID is the only record of which bin holds it;
// an empty BinID means the lot is unassigned.
type Lot struct {
	LotID     string `json:"lotId"`
	BinID     string `json:"binId"`
	Title     string `json:"title"`
	Status    string `json:"status"`
	Buyer     string `json:"buyer"`
	FolderURL string `json:"folderUrl"`
}

// Zone is a rectangle on the warehouse floor, in feet.
type Zone struct {
	ZoneID string  `json:"zoneId"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	W      float64 `json:"w"`
	H      float64 `json:"h"`
	Active bool    `json:"active"`
}

type Warehouse struct {
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// DefaultWarehouse is the fixed floor plan every zone is clamped into.
var DefaultWarehouse = Warehouse{W: 75, H: 50}

type ZoneLayout struct {
	Warehouse Warehouse `json:"warehouse"`
	Zones     []Zone    `json:"zones"`
}

// Clamp returns z with its rectangle forced inside the warehouse. Sizes are
// never smaller than one foot.
func (w Warehouse) Clamp(z Zone) Zone {
	z.X = clamp(z.X, 0, w.W)
	z.Y = clamp(z.Y, 0, w.H)
	z.W = clamp(z.W, 1, w.W)
	z.H = clamp(z.H, 1, w.H)
	return z
}

func clamp(n, lo, hi float64) float64 {
	if n < lo {
		return lo
	}
	if n > hi {
		return hi
	}
	return n
}

type BinStatus string

const (
	StatusEmpty            BinStatus = "EMPTY"
	StatusPhotoProcess     BinStatus = "PHOTO_PROCESS"
	StatusReadyForAnalysis BinStatus = "READY_FOR_ANALYSIS"
	StatusReadyForFlex     BinStatus = "READY_FOR_FLEX"
	StatusDone             BinStatus = "DONE"
	StatusBroken           BinStatus = "BROKEN"
)

var statusColors = map[BinStatus]string{
	StatusEmpty:            "rgba(203,213,225,0.95)",
	StatusPhotoProcess:     "rgba(14,165,233,0.95)",
	StatusReadyForAnalysis: "rgba(245,158,11,0.95)",
	StatusReadyForFlex:     "rgba(168,85,247,0.95)",
	StatusDone:             "rgba(100,116,139,0.95)",
	StatusBroken:           "rgba(185,28,28,0.95)",
}

// Color returns the map tile color for a status. Matching is
// case-insensitive and unknown statuses share the EMPTY color.
func (s BinStatus) Color() string {
	if c, ok := statusColors[BinStatus(strings.ToUpper(string(s)))]; ok {
		return c
	}
	return statusColors[StatusEmpty]
}

// Known reports whether s is one of the statuses the dashboard recognises.
func (s BinStatus) Known() bool {
	_, ok := statusColors[BinStatus(strings.ToUpper(string(s)))]
	return ok
}

// JournalEntry records one mutation applied to the spreadsheet.
type JournalEntry struct {
	ID        int64     `json:"id"`
	Action    string    `json:"action"`
	Subject   string    `json:"subject"`
	Detail    string    `json:"detail"`
	Actor     string    `json:"actor"`
	CreatedAt time.Time `json:"createdAt"`
}
