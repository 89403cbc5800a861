package editor

import (
	"math"

	"github.com/vbonduro/parrotops/internal/domain"
)

// Canvas maps warehouse feet onto screen pixels.
type Canvas struct {
	PxPerFt float64
	Pad     float64
}

var DefaultCanvas = Canvas{PxPerFt: 20, Pad: 24}

// Rect is an axis-aligned box in canvas pixels.
type Rect struct {
	X, Y, W, H float64
}

func (c Canvas) ZoneRect(z domain.Zone) Rect {
	return Rect{
		X: c.Pad + z.X*c.PxPerFt,
		Y: c.Pad + z.Y*c.PxPerFt,
		W: z.W * c.PxPerFt,
		H: z.H * c.PxPerFt,
	}
}

// snapPosition converts a dragged zone's top-left pixel position to whole
// feet inside the warehouse.
func (c Canvas) snapPosition(w domain.Warehouse, pxX, pxY float64) (x, y float64) {
	x = clamp(roundHalfUp((pxX-c.Pad)/c.PxPerFt), 0, w.W)
	y = clamp(roundHalfUp((pxY-c.Pad)/c.PxPerFt), 0, w.H)
	return x, y
}

// snapSize converts a transformed zone's scaled pixel size to whole feet,
// at least one foot and at most the warehouse size.
func (c Canvas) snapSize(w domain.Warehouse, widthPx, heightPx, scaleX, scaleY float64) (width, height float64) {
	width = clamp(math.Max(1, roundHalfUp(widthPx*scaleX/c.PxPerFt)), 1, w.W)
	height = clamp(math.Max(1, roundHalfUp(heightPx*scaleY/c.PxPerFt)), 1, w.H)
	return width, height
}

// Bin tile grid inside a zone, in pixels.
const (
	tileSize    = 10
	tileGap     = 4
	tilePadX    = 10
	tilePadTop  = 28
	tilePadBase = 10
)

// Tile is one bin drawn inside its zone.
type Tile struct {
	BinID    string
	Rect     Rect
	Color    string
	Selected bool
}

// tileGrid lays out up to cols*rows tiles for a zone drawn at r.
func tileGrid(r Rect) (cols, rows int) {
	innerW := math.Max(0, r.W-tilePadX*2)
	innerH := math.Max(0, r.H-tilePadTop-tilePadBase)
	cols = max(1, int(math.Floor((innerW+tileGap)/(tileSize+tileGap))))
	rows = max(1, int(math.Floor((innerH+tileGap)/(tileSize+tileGap))))
	return cols, rows
}

func roundHalfUp(v float64) float64 {
	return math.Floor(v + 0.5)
}

func clamp(n, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, n))
}
