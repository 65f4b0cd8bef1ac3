package estimate

import (
	"errors"
	"math"
	"time"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/stat"
)

// MergeResults combines several complete estimation records, produced by
// independent full pipeline runs, into one representative record. Numeric
// estimates are averaged; categorical fields take the mode; every remaining
// field (rationale, confidence, material breakdown) comes from the single
// input closest to the average tonnage, keeping the emitted rationale
// grounded in one real sample rather than a synthetic blend.
//
// Ties are resolved deterministically by input order: the first value to
// reach the maximum count wins the mode, the earliest record wins an exact
// distance tie.
func MergeResults(records []EstimationRecord) (EstimationRecord, error) {
	if len(records) == 0 {
		return EstimationRecord{}, errors.New("merge: no records")
	}

	var detected []EstimationRecord
	for _, r := range records {
		if r.CargoDetected {
			detected = append(detected, r)
		}
	}
	// Nothing to merge when every run agrees there is no cargo.
	if len(detected) == 0 {
		return records[0], nil
	}

	tonnages := make([]float64, len(detected))
	volumes := make([]float64, len(detected))
	tapers := make([]float64, len(detected))
	packings := make([]float64, len(detected))
	for i, r := range detected {
		tonnages[i] = r.Calc.Tonnage
		volumes[i] = r.Calc.VolumeM3
		tapers[i] = r.Fill.TaperRatio
		packings[i] = r.Calc.EffectivePackingDensity
	}
	avgTonnage := stat.Mean(tonnages, nil)

	rep := detected[0]
	bestDist := math.Abs(rep.Calc.Tonnage - avgTonnage)
	for _, r := range detected[1:] {
		if d := math.Abs(r.Calc.Tonnage - avgTonnage); d < bestDist {
			rep, bestDist = r, d
		}
	}

	merged := rep
	merged.ID = uuid.NewString()
	merged.CreatedAt = time.Now().UTC()
	merged.Calc.Tonnage = round(avgTonnage, 2)
	merged.Calc.VolumeM3 = round(stat.Mean(volumes, nil), 4)
	merged.Calc.EffectivePackingDensity = round(stat.Mean(packings, nil), 3)
	merged.Fill.TaperRatio = round(stat.Mean(tapers, nil), 3)
	merged.VehicleType = modeString(detected, func(r EstimationRecord) string { return r.VehicleType })
	merged.PlateRegion = modeString(detected, func(r EstimationRecord) string { return r.PlateRegion })
	merged.PlateNumber = modeString(detected, func(r EstimationRecord) string { return r.PlateNumber })
	merged.MaxCapacityT = modeFloat(detected, func(r EstimationRecord) float64 { return r.MaxCapacityT })
	// Ensemble count of a merged record counts input records, not
	// sub-samples.
	merged.SampleCount = len(records)
	return merged, nil
}

// modeString returns the most frequent non-empty value; the first value to
// reach the maximum count wins ties.
func modeString(records []EstimationRecord, pick func(EstimationRecord) string) string {
	counts := make(map[string]int)
	best, bestCount := "", 0
	for _, r := range records {
		v := pick(r)
		if v == "" {
			continue
		}
		counts[v]++
		if counts[v] > bestCount {
			best, bestCount = v, counts[v]
		}
	}
	return best
}

func modeFloat(records []EstimationRecord, pick func(EstimationRecord) float64) float64 {
	counts := make(map[float64]int)
	best, bestCount := 0.0, 0
	for _, r := range records {
		v := pick(r)
		if v == 0 {
			continue
		}
		counts[v]++
		if counts[v] > bestCount {
			best, bestCount = v, counts[v]
		}
	}
	return best
}
