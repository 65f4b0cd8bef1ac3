package telegram

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/YuujiKamura/TonSuuChecker-sub001/api/internal/estimate"
)

func TestFormatRecord(t *testing.T) {
	rec := &estimate.EstimationRecord{
		CargoDetected: true,
		VehicleType:   "dump-truck",
		TruckClass:    "4t",
		Material:      "As殻",
		PlateRegion:   "品川",
		PlateNumber:   "12-34",
		MaxCapacityT:  4.0,
		CargoHeightM:  0.4,
		ScaleMethods:  []estimate.ScaleMethod{estimate.ScaleTailgate, estimate.ScalePlate},
		Calc: estimate.CalculationResult{
			VolumeM3:    1.524,
			Tonnage:     2.77,
			DensityUsed: 2.5,
		},
		Confidence:  0.85,
		SampleCount: 3,
	}

	out := FormatRecord(rec)
	assert.Contains(t, out, "4t")
	assert.Contains(t, out, "As殻")
	assert.Contains(t, out, "2.77 t")
	assert.Contains(t, out, "品川 12-34")
	assert.Contains(t, out, "後板基準×1, ナンバー基準×1")
	assert.Contains(t, out, "85%")
}

func TestFormatRecordNoCargo(t *testing.T) {
	rec := &estimate.EstimationRecord{Reasoning: "empty bed"}
	out := FormatRecord(rec)
	assert.Contains(t, out, "見つかりません")
	assert.Contains(t, out, "empty bed")
	assert.NotContains(t, out, "トン数")
}

func TestFormatRecordDefaultedDensity(t *testing.T) {
	rec := &estimate.EstimationRecord{
		CargoDetected: true,
		Material:      "瓦礫",
		Calc:          estimate.CalculationResult{DensityUsed: 1.8, DensityDefaulted: true},
	}
	assert.Contains(t, FormatRecord(rec), "既定密度を使用")
}

func TestProgressText(t *testing.T) {
	u := estimate.ProgressUpdate{Phase: estimate.PhaseGeometry, Run: 2, Total: 3, Detail: "tailgate"}
	out := progressText(u, 3)
	assert.Contains(t, out, "スケール計測")
	assert.Contains(t, out, "(2/3)")
	assert.Contains(t, out, "[3回投票]")
	assert.Contains(t, out, "tailgate")
}
