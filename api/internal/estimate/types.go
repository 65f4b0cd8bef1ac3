// Package estimate is the measurement core: it calibrates normalized image
// coordinates to metric lengths, combines independent noisy model samples
// into robust point estimates, and applies the volume/tonnage model on top
// of them. No pixel analysis happens here, only calibration, statistics
// and the physical calculation over claims an external vision model has
// already extracted.
package estimate

import "time"

// ScaleMethod names the reference feature a calibration used.
type ScaleMethod string

const (
	// ScaleTailgate: the tailgate panel height; preferred because it
	// directly brackets the measured cargo height.
	ScaleTailgate ScaleMethod = "tailgate"
	// ScalePlate: the license plate height; fallback reference.
	ScalePlate ScaleMethod = "plate"
	// ScaleNone: terminal failure state for a sample.
	ScaleNone ScaleMethod = "none"
)

// CalibrationResult is one calibrated geometry sample.
type CalibrationResult struct {
	Method ScaleMethod `json:"scaleMethod"`
	// MetersPerUnit converts a normalized image-height fraction to meters.
	MetersPerUnit float64 `json:"metersPerNormalizedUnit"`
	// CargoHeightM is the cargo peak height above the bed floor, clamped
	// to a plausible range.
	CargoHeightM float64 `json:"cargoHeightMeters"`
}

// FillParams are the ensemble-aggregated shape/packing parameters.
type FillParams struct {
	FillRatioL     float64 `json:"fillRatioL"`
	FillRatioW     float64 `json:"fillRatioW"`
	TaperRatio     float64 `json:"taperRatio"`
	PackingDensity float64 `json:"packingDensity"`
	Reasoning      string  `json:"reasoning"`
}

// CalculationResult is fully derived: recomputing from the same inputs
// always yields the same outputs.
type CalculationResult struct {
	VolumeM3                float64 `json:"estimatedVolumeM3"`
	Tonnage                 float64 `json:"estimatedTonnage"`
	EffectivePackingDensity float64 `json:"effectivePackingDensity"`
	DensityUsed             float64 `json:"densityUsed"`
	// DensityDefaulted marks that the material was unknown and the table's
	// named default density was substituted.
	DensityDefaulted bool `json:"densityDefaulted,omitempty"`
}

// EstimationRecord is one complete end-to-end result. Records are created
// once per pipeline invocation and never mutated; merging produces a new
// record.
type EstimationRecord struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"createdAt"`

	CargoDetected bool    `json:"cargoDetected"`
	VehicleType   string  `json:"vehicleType"`
	TruckClass    string  `json:"truckClass"`
	Material      string  `json:"material"`
	PlateRegion   string  `json:"plateRegion"`
	PlateNumber   string  `json:"plateNumber"`
	MaxCapacityT  float64 `json:"maxCapacityT"`

	CargoHeightM float64           `json:"cargoHeightM"`
	ScaleMethods []ScaleMethod     `json:"scaleMethods,omitempty"` // per successful geometry sample
	Fill         FillParams        `json:"fill"`
	Calc         CalculationResult `json:"calc"`

	Confidence  float64 `json:"confidence"`
	Reasoning   string  `json:"reasoning"`
	SampleCount int     `json:"sampleCount"`
}

// LabeledRecord is a historical record with a recorded ground-truth weight.
type LabeledRecord struct {
	Record        EstimationRecord `json:"record"`
	ActualWeightT float64          `json:"actualWeightT"`
	MaxCapacityT  float64          `json:"maxCapacityT"`
}

// GradedExemplar is a labeled record bucketed by load ratio, served as
// few-shot reference context for the next inference call.
type GradedExemplar struct {
	LabeledRecord
	LoadRatio float64 `json:"loadRatio"`
	GradeName string  `json:"gradeName"`
}
