package estimate

import (
	"fmt"
	"math"

	"github.com/YuujiKamura/TonSuuChecker-sub001/api/internal/masterdata"
)

// Calculate maps a calibrated cargo height plus fill parameters to volume
// and tonnage using the master-data tables. Pure function: identical inputs
// against identical tables always yield bit-identical outputs.
//
// Model: the mound is a tapered solid on a trapezoidal cross-section.
// fillRatioL×taperRatio shortens the length over which full height is
// sustained; effective width is the mean of the bottom-footprint baseline
// and the observed top-surface fillRatioW. Packing density is then nudged
// by a volume-dependent compression correction: larger loads compact more
// under their own weight than small ones.
func Calculate(heightM float64, fill FillParams, material, truckClass string, tbl *masterdata.Tables) (CalculationResult, error) {
	truck, ok := tbl.Truck(truckClass)
	if !ok {
		return CalculationResult{}, fmt.Errorf("%w: truck class %q", ErrUnknownReferenceKey, truckClass)
	}
	density, usedDefault, ok := tbl.Density(material)
	if !ok {
		return CalculationResult{}, fmt.Errorf("%w: material %q", ErrUnknownReferenceKey, material)
	}

	effLength := fill.FillRatioL * fill.TaperRatio
	effWidth := (tbl.Calc.BottomFootprint + fill.FillRatioW) / 2

	volume := truck.BedLength * truck.BedWidth * heightM * effLength * effWidth

	// Compression correction, bounded so a pathological volume cannot push
	// the density outside physical range.
	deviation := (volume - tbl.Calc.ReferenceVolumeM3) / tbl.Calc.ReferenceVolumeM3
	packing := fill.PackingDensity * (1 + tbl.Calc.CompressionSlope*deviation)
	if packing < tbl.Calc.CompressionMin {
		packing = tbl.Calc.CompressionMin
	}
	if packing > tbl.Calc.CompressionMax {
		packing = tbl.Calc.CompressionMax
	}

	tonnage := volume * density * packing

	return CalculationResult{
		VolumeM3:                round(volume, 4),
		Tonnage:                 round(tonnage, 2),
		EffectivePackingDensity: round(packing, 3),
		DensityUsed:             density,
		DensityDefaulted:        usedDefault,
	}, nil
}

// round to n decimal places, for stable downstream comparison and display.
func round(v float64, n int) float64 {
	p := math.Pow10(n)
	return math.Round(v*p) / p
}
