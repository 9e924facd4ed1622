// Package settings loads and saves per-plan tuning values from a
// jamb.toml file at the plan root. Missing files yield the defaults,
// so a fresh plan works without any configuration.
package settings

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/veikko/jamb/pkg/adjacent"
	"github.com/veikko/jamb/pkg/dimension"
)

// FileName is the settings file looked up at the plan root.
const FileName = "jamb.toml"

// Settings holds everything tunable about a plan.
type Settings struct {
	// Units controls display formatting only; stored lengths are
	// always in feet.
	Units string `toml:"units"` // "ft" or "mm"

	Geometry  GeometrySettings  `toml:"geometry"`
	Dimension DimensionSettings `toml:"dimension"`
}

// GeometrySettings tunes the adjacent wall scan. The defaults were
// tuned empirically for plans measured in feet.
type GeometrySettings struct {
	EdgeTolerance    float64 `toml:"edge_tolerance"`
	PerpendicularMax float64 `toml:"perpendicular_max"`
	SearchDistance   float64 `toml:"search_distance"`
	FrontClearance   float64 `toml:"front_clearance"`
}

// DimensionSettings tunes dimension line placement.
type DimensionSettings struct {
	Offset     float64 `toml:"offset"`
	HalfLength float64 `toml:"half_length"`
}

// Default returns the stock settings.
func Default() Settings {
	g := adjacent.DefaultParams()
	d := dimension.DefaultParams()
	return Settings{
		Units: "ft",
		Geometry: GeometrySettings{
			EdgeTolerance:    g.EdgeTolerance,
			PerpendicularMax: g.PerpendicularMax,
			SearchDistance:   g.SearchDistance,
			FrontClearance:   g.FrontClearance,
		},
		Dimension: DimensionSettings{
			Offset:     d.Offset,
			HalfLength: d.HalfLength,
		},
	}
}

// Load reads the settings file under planPath. A missing file is not
// an error; the defaults apply. Values absent from the file keep their
// defaults too.
func Load(planPath string) (Settings, error) {
	s := Default()

	path := filepath.Join(planPath, FileName)
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return s, fmt.Errorf("failed to read settings: %w", err)
	}

	if err := toml.Unmarshal(data, &s); err != nil {
		return Default(), fmt.Errorf("invalid settings file %s: %w", path, err)
	}
	if err := s.validate(); err != nil {
		return Default(), err
	}
	return s, nil
}

// Save writes the settings file under planPath.
func Save(planPath string, s Settings) error {
	if err := s.validate(); err != nil {
		return err
	}

	f, err := os.Create(filepath.Join(planPath, FileName))
	if err != nil {
		return fmt.Errorf("failed to create settings file: %w", err)
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(s); err != nil {
		return fmt.Errorf("failed to encode settings: %w", err)
	}
	return nil
}

func (s Settings) validate() error {
	if s.Units != "ft" && s.Units != "mm" {
		return fmt.Errorf("unknown units %q (want ft or mm)", s.Units)
	}
	if s.Geometry.PerpendicularMax < 0 || s.Geometry.PerpendicularMax >= 1 {
		return fmt.Errorf("perpendicular_max must be in [0, 1)")
	}
	if s.Geometry.SearchDistance <= 0 {
		return fmt.Errorf("search_distance must be positive")
	}
	if s.Dimension.HalfLength <= 0 {
		return fmt.Errorf("half_length must be positive")
	}
	return nil
}

// AdjacentParams converts the settings to finder parameters.
func (s Settings) AdjacentParams() adjacent.Params {
	return adjacent.Params{
		EdgeTolerance:    s.Geometry.EdgeTolerance,
		PerpendicularMax: s.Geometry.PerpendicularMax,
		SearchDistance:   s.Geometry.SearchDistance,
		FrontClearance:   s.Geometry.FrontClearance,
	}
}

// DimensionParams converts the settings to placement parameters.
func (s Settings) DimensionParams() dimension.Params {
	return dimension.Params{
		Offset:     s.Dimension.Offset,
		HalfLength: s.Dimension.HalfLength,
	}
}

const millimetersPerFoot = 304.8

// FormatLength renders a stored length (feet) in the display units.
func (s Settings) FormatLength(feet float64) string {
	if s.Units == "mm" {
		return fmt.Sprintf("%.0f mm", feet*millimetersPerFoot)
	}
	return fmt.Sprintf("%.2f ft", feet)
}
