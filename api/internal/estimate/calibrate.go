package estimate

import (
	"fmt"

	"github.com/YuujiKamura/TonSuuChecker-sub001/api/internal/masterdata"
	"github.com/YuujiKamura/TonSuuChecker-sub001/api/internal/vision"
)

// Calibrate converts one raw geometry sample into a metric cargo height.
//
// Reference priority: the tailgate panel (its normalized height corresponds
// to the known bed height) over the license plate (known real height). The
// tailgate wins when both are present because it directly brackets the
// measured cargo span. With neither usable the sample is terminal:
// Method=none plus a classified error; the caller decides whether to skip
// the sample or fail the batch.
func Calibrate(frame vision.GeometryResponse, bedHeightM float64, calc masterdata.CalcConstants) (CalibrationResult, error) {
	none := CalibrationResult{Method: ScaleNone}

	if bedHeightM <= 0 {
		return none, fmt.Errorf("%w: bed height %.3f", ErrValidation, bedHeightM)
	}
	for _, v := range []*float64{frame.TailgateTopY, frame.TailgateBottomY, frame.CargoTopY} {
		if v != nil && (*v < 0 || *v > 1) {
			return none, fmt.Errorf("%w: normalized Y %.3f outside [0,1]", ErrValidation, *v)
		}
	}

	var (
		method     ScaleMethod
		metersPer  float64
		bedFloorY  float64
		haveTG     = frame.TailgateTopY != nil && frame.TailgateBottomY != nil
		plateBoxOK = plateBoxUsable(frame.PlateBox)
	)
	switch {
	case haveTG && *frame.TailgateTopY < *frame.TailgateBottomY:
		method = ScaleTailgate
		metersPer = bedHeightM / (*frame.TailgateBottomY - *frame.TailgateTopY)
		bedFloorY = *frame.TailgateBottomY
	case plateBoxOK:
		method = ScalePlate
		metersPer = calc.PlateHeightM / (frame.PlateBox[3] - frame.PlateBox[1])
		// The plate hangs just below the bed floor; its top edge is the
		// best available floor reference once the tailgate is unusable.
		bedFloorY = frame.PlateBox[1]
	case haveTG:
		// Tailgate detected but inconsistent, and no plate to fall back on.
		return none, fmt.Errorf("%w: tailgate top %.3f >= bottom %.3f", ErrValidation, *frame.TailgateTopY, *frame.TailgateBottomY)
	default:
		return none, fmt.Errorf("%w: neither tailgate nor plate detected", ErrCalibration)
	}

	if frame.CargoTopY == nil {
		return none, fmt.Errorf("%w: cargo peak missing", ErrValidation)
	}

	// Up is smaller Y in image coordinates.
	height := (bedFloorY - *frame.CargoTopY) * metersPer

	// Guard against a misdetected cargo peak producing an absurd height.
	maxHeight := calc.HeightClampFactor * bedHeightM
	if height < 0 {
		height = 0
	}
	if height > maxHeight {
		height = maxHeight
	}

	return CalibrationResult{
		Method:        method,
		MetersPerUnit: metersPer,
		CargoHeightM:  height,
	}, nil
}

func plateBoxUsable(box []float64) bool {
	if len(box) != 4 {
		return false
	}
	for _, v := range box {
		if v < 0 || v > 1 {
			return false
		}
	}
	return box[3] > box[1] && box[2] > box[0]
}
