// Package masterdata holds the externally loaded reference tables the
// estimation core calculates against: truck bed dimensions, material
// densities, fill-parameter ranges, calculation constants, capacity bands
// and grade buckets. Tables are versioned configuration, not code; the
// calculator and selector are testable against synthetic tables.
package masterdata

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
)

// TruckSpec describes one truck capacity class. Dimensions in meters,
// capacity in tonnes.
type TruckSpec struct {
	BedLength   float64 `json:"bedLength"`
	BedWidth    float64 `json:"bedWidth"`
	BedHeight   float64 `json:"bedHeight"` // tailgate (後板) height above bed floor
	MaxCapacity float64 `json:"maxCapacity"`
}

// ParamRange is a named valid range with a default used when a sample
// omits the field entirely.
type ParamRange struct {
	Min     float64 `json:"min"`
	Max     float64 `json:"max"`
	Default float64 `json:"default"`
}

// Clamp forces v into [Min, Max].
func (r ParamRange) Clamp(v float64) float64 {
	if v < r.Min {
		return r.Min
	}
	if v > r.Max {
		return r.Max
	}
	return v
}

// CalcConstants are the pinned constants of the volume/tonnage model.
// They live in master data so golden regression tests can name them.
type CalcConstants struct {
	// PlateHeightM is the real height of a Japanese large-vehicle license
	// plate, the fallback scale reference when the tailgate is not usable.
	PlateHeightM float64 `json:"plateHeightM"`
	// BottomFootprint is the baseline fraction of bed width occupied at the
	// bed floor; effective width is the mean of this and the observed
	// top-surface fillRatioW (trapezoidal cross-section).
	BottomFootprint float64 `json:"bottomFootprint"`
	// ReferenceVolumeM3 and CompressionSlope drive the packing-compression
	// correction: density is nudged by slope × (rawVolume−ref)/ref.
	ReferenceVolumeM3 float64 `json:"referenceVolumeM3"`
	CompressionSlope  float64 `json:"compressionSlope"`
	// CompressionMin/Max bound the corrected packing density.
	CompressionMin float64 `json:"compressionMin"`
	CompressionMax float64 `json:"compressionMax"`
	// HeightClampFactor bounds a calibrated cargo height to
	// factor × bedHeight, guarding against a misdetected cargo peak.
	HeightClampFactor float64 `json:"heightClampFactor"`
}

// CapacityBand maps a declared maximum capacity onto a capacity class by
// simple range membership: min ≤ capacity < max.
type CapacityBand struct {
	Name string  `json:"name"`
	Min  float64 `json:"min"`
	Max  float64 `json:"max"` // 0 means unbounded above
}

// Contains reports whether capacity falls inside the band.
func (b CapacityBand) Contains(capacity float64) bool {
	if capacity < b.Min {
		return false
	}
	return b.Max == 0 || capacity < b.Max
}

// GradeBucket is one named load-ratio bucket [Min, Max); the last bucket of
// a table has Max 0, meaning unbounded above.
type GradeBucket struct {
	Name string  `json:"name"`
	Min  float64 `json:"min"`
	Max  float64 `json:"max"`
}

// Contains reports whether ratio falls inside [Min, Max).
func (b GradeBucket) Contains(ratio float64) bool {
	if ratio < b.Min {
		return false
	}
	return b.Max == 0 || ratio < b.Max
}

// MaterialTable maps material names to densities (t/m³). DefaultDensity,
// when positive, is the explicit named fallback for unknown materials; zero
// means unknown materials are an error.
type MaterialTable struct {
	Densities      map[string]float64 `json:"densities"`
	DefaultDensity float64            `json:"defaultDensity"`
}

// Tables is the full master-data set consumed by the estimation core.
type Tables struct {
	Version       string                `json:"version"`
	TruckSpecs    map[string]TruckSpec  `json:"truckSpecs"`
	Materials     MaterialTable         `json:"materials"`
	ParamRanges   map[string]ParamRange `json:"paramRanges"`
	Calc          CalcConstants         `json:"calc"`
	CapacityBands []CapacityBand        `json:"capacityBands"`
	GradeBuckets  []GradeBucket         `json:"gradeBuckets"`
}

// Fill-parameter range names.
const (
	RangeFillRatioL     = "fillRatioL"
	RangeFillRatioW     = "fillRatioW"
	RangeTaperRatio     = "taperRatio"
	RangePackingDensity = "packingDensity"
)

// Load reads tables from a JSON file and validates them.
func Load(path string) (*Tables, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("masterdata: read %s: %w", path, err)
	}
	var t Tables
	if err := json.Unmarshal(b, &t); err != nil {
		return nil, fmt.Errorf("masterdata: parse %s: %w", path, err)
	}
	if err := t.Validate(); err != nil {
		return nil, fmt.Errorf("masterdata: %s: %w", path, err)
	}
	return &t, nil
}

// Validate checks structural invariants of the tables.
func (t *Tables) Validate() error {
	if len(t.TruckSpecs) == 0 {
		return fmt.Errorf("no truck specs")
	}
	for class, s := range t.TruckSpecs {
		if s.BedLength <= 0 || s.BedWidth <= 0 || s.BedHeight <= 0 {
			return fmt.Errorf("truck class %q: non-positive bed dimension", class)
		}
		if s.MaxCapacity <= 0 {
			return fmt.Errorf("truck class %q: non-positive max capacity", class)
		}
	}
	if len(t.Materials.Densities) == 0 {
		return fmt.Errorf("no material densities")
	}
	for name, d := range t.Materials.Densities {
		if d <= 0 {
			return fmt.Errorf("material %q: non-positive density", name)
		}
	}
	for _, name := range []string{RangeFillRatioL, RangeFillRatioW, RangeTaperRatio, RangePackingDensity} {
		r, ok := t.ParamRanges[name]
		if !ok {
			return fmt.Errorf("missing param range %q", name)
		}
		if r.Min > r.Max {
			return fmt.Errorf("param range %q: min > max", name)
		}
		if r.Default < r.Min || r.Default > r.Max {
			return fmt.Errorf("param range %q: default outside range", name)
		}
	}
	if t.Calc.HeightClampFactor <= 0 {
		return fmt.Errorf("calc: heightClampFactor must be positive")
	}
	if t.Calc.ReferenceVolumeM3 <= 0 {
		return fmt.Errorf("calc: referenceVolumeM3 must be positive")
	}
	if len(t.GradeBuckets) == 0 {
		return fmt.Errorf("no grade buckets")
	}
	prev := 0.0
	for i, b := range t.GradeBuckets {
		if b.Min != prev {
			return fmt.Errorf("grade bucket %q: min %.3f, want contiguous %.3f", b.Name, b.Min, prev)
		}
		last := i == len(t.GradeBuckets)-1
		if last {
			if b.Max != 0 {
				return fmt.Errorf("grade bucket %q: last bucket must be unbounded", b.Name)
			}
		} else {
			if b.Max <= b.Min {
				return fmt.Errorf("grade bucket %q: empty range", b.Name)
			}
			prev = b.Max
		}
	}
	if len(t.CapacityBands) == 0 {
		return fmt.Errorf("no capacity bands")
	}
	return nil
}

// Truck looks up a capacity class.
func (t *Tables) Truck(class string) (TruckSpec, bool) {
	s, ok := t.TruckSpecs[class]
	return s, ok
}

// TruckClasses lists the registered capacity classes in sorted order.
func (t *Tables) TruckClasses() []string {
	out := make([]string, 0, len(t.TruckSpecs))
	for class := range t.TruckSpecs {
		out = append(out, class)
	}
	sort.Strings(out)
	return out
}

// MaterialNames lists the registered materials in sorted order.
func (t *Tables) MaterialNames() []string {
	out := make([]string, 0, len(t.Materials.Densities))
	for name := range t.Materials.Densities {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Density resolves a material to its density. When the name is unknown and
// the table declares a default density, the default is returned with
// usedDefault=true; with no declared default ok=false.
func (t *Tables) Density(material string) (density float64, usedDefault, ok bool) {
	if d, found := t.Materials.Densities[material]; found {
		return d, false, true
	}
	if t.Materials.DefaultDensity > 0 {
		return t.Materials.DefaultDensity, true, true
	}
	return 0, false, false
}

// CapacityClass maps a declared maximum capacity to the first matching
// band; ok=false when it falls outside every band.
func (t *Tables) CapacityClass(capacity float64) (string, bool) {
	for _, b := range t.CapacityBands {
		if b.Contains(capacity) {
			return b.Name, true
		}
	}
	return "", false
}

// Grade maps a load ratio to the first bucket containing it.
func (t *Tables) Grade(ratio float64) (string, bool) {
	for _, b := range t.GradeBuckets {
		if b.Contains(ratio) {
			return b.Name, true
		}
	}
	return "", false
}
