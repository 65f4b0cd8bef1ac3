package estimate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuujiKamura/TonSuuChecker-sub001/api/internal/masterdata"
	"github.com/YuujiKamura/TonSuuChecker-sub001/api/internal/vision"
)

func f(v float64) *float64 { return &v }

func calcConstants() masterdata.CalcConstants {
	return masterdata.Default().Calc
}

func TestCalibrateTailgate(t *testing.T) {
	frame := vision.GeometryResponse{
		TailgateTopY:    f(0.5),
		TailgateBottomY: f(0.7),
		CargoTopY:       f(0.45),
	}
	got, err := Calibrate(frame, 0.32, calcConstants())
	require.NoError(t, err)

	assert.Equal(t, ScaleTailgate, got.Method)
	assert.InDelta(t, 1.6, got.MetersPerUnit, 1e-9) // 0.32m over 0.2 normalized
	assert.InDelta(t, 0.4, got.CargoHeightM, 1e-9)  // (0.7-0.45)*1.6
}

func TestCalibrateTailgatePreferredOverPlate(t *testing.T) {
	frame := vision.GeometryResponse{
		PlateBox:        []float64{0.4, 0.75, 0.6, 0.85},
		TailgateTopY:    f(0.5),
		TailgateBottomY: f(0.7),
		CargoTopY:       f(0.45),
	}
	got, err := Calibrate(frame, 0.32, calcConstants())
	require.NoError(t, err)
	assert.Equal(t, ScaleTailgate, got.Method)
}

func TestCalibratePlateFallback(t *testing.T) {
	frame := vision.GeometryResponse{
		PlateBox:  []float64{0.4, 0.6, 0.6, 0.7}, // 0.1 normalized = 0.165m
		CargoTopY: f(0.35),
	}
	got, err := Calibrate(frame, 0.32, calcConstants())
	require.NoError(t, err)

	assert.Equal(t, ScalePlate, got.Method)
	assert.InDelta(t, 1.65, got.MetersPerUnit, 1e-9)
	assert.InDelta(t, 0.4125, got.CargoHeightM, 1e-9) // (0.6-0.35)*1.65
}

func TestCalibrateHeightClamp(t *testing.T) {
	// Cargo peak misdetected near the top of the frame: raw height would be
	// (0.7-0.05)*1.6 = 1.04m, clamped to 2.5×0.32 = 0.8m.
	frame := vision.GeometryResponse{
		TailgateTopY:    f(0.5),
		TailgateBottomY: f(0.7),
		CargoTopY:       f(0.05),
	}
	got, err := Calibrate(frame, 0.32, calcConstants())
	require.NoError(t, err)
	assert.InDelta(t, 0.8, got.CargoHeightM, 1e-9)

	// Cargo peak below the bed floor clamps to zero, not negative.
	frame.CargoTopY = f(0.9)
	got, err = Calibrate(frame, 0.32, calcConstants())
	require.NoError(t, err)
	assert.Zero(t, got.CargoHeightM)
}

func TestCalibrateFailures(t *testing.T) {
	tests := []struct {
		name    string
		frame   vision.GeometryResponse
		wantErr error
	}{
		{
			"no reference at all",
			vision.GeometryResponse{CargoTopY: f(0.4)},
			ErrCalibration,
		},
		{
			"tailgate inverted without plate",
			vision.GeometryResponse{TailgateTopY: f(0.7), TailgateBottomY: f(0.5), CargoTopY: f(0.4)},
			ErrValidation,
		},
		{
			"coordinate outside unit range",
			vision.GeometryResponse{TailgateTopY: f(0.5), TailgateBottomY: f(1.7), CargoTopY: f(0.4)},
			ErrValidation,
		},
		{
			"cargo peak missing",
			vision.GeometryResponse{TailgateTopY: f(0.5), TailgateBottomY: f(0.7)},
			ErrValidation,
		},
		{
			"degenerate plate box",
			vision.GeometryResponse{PlateBox: []float64{0.4, 0.6, 0.6, 0.6}, CargoTopY: f(0.4)},
			ErrCalibration,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Calibrate(tt.frame, 0.32, calcConstants())
			require.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, ScaleNone, got.Method)
		})
	}
}

func TestCalibrateInvertedTailgateFallsBackToPlate(t *testing.T) {
	frame := vision.GeometryResponse{
		PlateBox:        []float64{0.4, 0.6, 0.6, 0.7},
		TailgateTopY:    f(0.7),
		TailgateBottomY: f(0.5), // inconsistent; plate still usable
		CargoTopY:       f(0.35),
	}
	got, err := Calibrate(frame, 0.32, calcConstants())
	require.NoError(t, err)
	assert.Equal(t, ScalePlate, got.Method)
}
