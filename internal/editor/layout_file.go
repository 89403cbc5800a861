package editor

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/vbonduro/parrotops/internal/domain"
	"gopkg.in/yaml.v3"
)

type layoutFile struct {
	Warehouse warehouseFile `yaml:"warehouse" json:"warehouse"`
	Zones     []zoneFile    `yaml:"zones" json:"zones"`
}

type warehouseFile struct {
	W float64 `yaml:"w" json:"w"`
	H float64 `yaml:"h" json:"h"`
}

type zoneFile struct {
	ID     string  `yaml:"id" json:"id"`
	X      float64 `yaml:"x" json:"x"`
	Y      float64 `yaml:"y" json:"y"`
	W      float64 `yaml:"w" json:"w"`
	H      float64 `yaml:"h" json:"h"`
	Active *bool   `yaml:"active,omitempty" json:"active,omitempty"`
}

// WriteLayout encodes a layout as "yaml" or "json".
func WriteLayout(w io.Writer, layout domain.ZoneLayout, format string) error {
	f := layoutFile{
		Warehouse: warehouseFile{W: layout.Warehouse.W, H: layout.Warehouse.H},
		Zones:     make([]zoneFile, 0, len(layout.Zones)),
	}
	for _, z := range layout.Zones {
		zf := zoneFile{ID: z.ZoneID, X: z.X, Y: z.Y, W: z.W, H: z.H}
		if !z.Active {
			inactive := false
			zf.Active = &inactive
		}
		f.Zones = append(f.Zones, zf)
	}

	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(f)
	case "yaml", "":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(f); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown layout format %q", format)
	}
}

// ReadLayout decodes a layout file. JSON input is accepted as YAML. Zones
// default to active and a missing warehouse to the standard floor.
func ReadLayout(r io.Reader) (domain.ZoneLayout, error) {
	var f layoutFile
	if err := yaml.NewDecoder(r).Decode(&f); err != nil {
		return domain.ZoneLayout{}, fmt.Errorf("failed to parse layout: %w", err)
	}

	layout := domain.ZoneLayout{
		Warehouse: domain.Warehouse{W: f.Warehouse.W, H: f.Warehouse.H},
		Zones:     make([]domain.Zone, 0, len(f.Zones)),
	}
	if layout.Warehouse.W <= 0 || layout.Warehouse.H <= 0 {
		layout.Warehouse = domain.DefaultWarehouse
	}
	for _, z := range f.Zones {
		layout.Zones = append(layout.Zones, domain.Zone{
			ZoneID: z.ID,
			X:      z.X,
			Y:      z.Y,
			W:      z.W,
			H:      z.H,
			Active: z.Active == nil || *z.Active,
		})
	}
	return layout, nil
}
