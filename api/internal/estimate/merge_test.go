package estimate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func detectedRecord(id string, tonnage float64) EstimationRecord {
	return EstimationRecord{
		ID:            id,
		CreatedAt:     time.Date(2025, 8, 1, 12, 0, 0, 0, time.UTC),
		CargoDetected: true,
		VehicleType:   "dump-truck",
		TruckClass:    "4t",
		Material:      "As殻",
		MaxCapacityT:  4.0,
		Fill:          FillParams{TaperRatio: 0.85, Reasoning: "rationale-" + id},
		Calc:          CalculationResult{Tonnage: tonnage, VolumeM3: tonnage / 2, EffectivePackingDensity: 0.7},
		Confidence:    0.8,
		Reasoning:     "rationale-" + id,
		SampleCount:   3,
	}
}

func TestMergeAllUndetectedReturnsFirstUnchanged(t *testing.T) {
	first := EstimationRecord{ID: "a", Reasoning: "no cargo"}
	second := EstimationRecord{ID: "b"}

	got, err := MergeResults([]EstimationRecord{first, second})
	require.NoError(t, err)
	assert.Equal(t, first, got)
}

func TestMergeAveragesAndPicksClosestRationale(t *testing.T) {
	a := detectedRecord("a", 3.0)
	b := detectedRecord("b", 5.0)

	got, err := MergeResults([]EstimationRecord{a, b})
	require.NoError(t, err)

	assert.Equal(t, 4.0, got.Calc.Tonnage)
	assert.Equal(t, 2.0, got.Calc.VolumeM3)
	// Exact distance tie: the earliest input supplies the rationale.
	assert.Equal(t, "rationale-a", got.Reasoning)
	assert.Equal(t, 2, got.SampleCount)
	assert.NotEqual(t, a.ID, got.ID)
}

func TestMergeClosestWins(t *testing.T) {
	records := []EstimationRecord{
		detectedRecord("a", 2.0),
		detectedRecord("b", 4.1),
		detectedRecord("c", 6.0),
	}
	// Average 4.033…; record b is closest.
	got, err := MergeResults(records)
	require.NoError(t, err)
	assert.Equal(t, "rationale-b", got.Reasoning)
	assert.Equal(t, 4.03, got.Calc.Tonnage)
}

func TestMergeCategoricalMode(t *testing.T) {
	a := detectedRecord("a", 3.0)
	a.PlateNumber = "12-34"
	a.VehicleType = "dump-truck"
	b := detectedRecord("b", 3.2)
	b.PlateNumber = "12-34"
	b.VehicleType = "flatbed"
	c := detectedRecord("c", 3.4)
	c.PlateNumber = "99-99"
	c.VehicleType = "dump-truck"
	c.MaxCapacityT = 10.0

	got, err := MergeResults([]EstimationRecord{a, b, c})
	require.NoError(t, err)

	assert.Equal(t, "12-34", got.PlateNumber)
	assert.Equal(t, "dump-truck", got.VehicleType)
	assert.Equal(t, 4.0, got.MaxCapacityT) // 4.0 appears twice, 10.0 once
}

func TestMergeSkipsUndetectedRuns(t *testing.T) {
	a := detectedRecord("a", 3.0)
	blank := EstimationRecord{ID: "blank"}

	got, err := MergeResults([]EstimationRecord{blank, a})
	require.NoError(t, err)
	assert.True(t, got.CargoDetected)
	assert.Equal(t, 3.0, got.Calc.Tonnage)
	assert.Equal(t, 2, got.SampleCount)
}

func TestMergeEmptyInput(t *testing.T) {
	_, err := MergeResults(nil)
	assert.Error(t, err)
}

func TestMergeModeTieFirstEncounteredWins(t *testing.T) {
	a := detectedRecord("a", 3.0)
	a.PlateRegion = "品川"
	b := detectedRecord("b", 3.0)
	b.PlateRegion = "横浜"

	got, err := MergeResults([]EstimationRecord{a, b})
	require.NoError(t, err)
	assert.Equal(t, "品川", got.PlateRegion)
}
