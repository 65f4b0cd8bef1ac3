package estimate

import (
	"context"
	"fmt"
	"log"
	"sort"

	"github.com/YuujiKamura/TonSuuChecker-sub001/api/internal/vision"
)

// geometrySummary is the aggregated outcome of the geometry phase.
type geometrySummary struct {
	HeightM float64
	Samples []float64
	Methods []ScaleMethod
}

// runGeometry executes the geometry sub-pipeline n times, strictly
// sequentially (the upstream service rate-limits; never fan out). A failed sample (transport error, parse failure, calibration
// failure) is logged and skipped; only exhaustion of every sample is fatal.
// Cancellation is checked at the top of each iteration; an iteration already
// in flight completes.
func (p *Pipeline) runGeometry(ctx context.Context, imageB64, mime string, n int, bedHeightM float64) (geometrySummary, error) {
	var out geometrySummary
	for i := 1; i <= n; i++ {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		p.Progress.emit(ProgressUpdate{Phase: PhaseGeometry, Detail: "detecting geometry", Run: i, Total: n})

		frame, err := p.Engine.DetectGeometry(ctx, vision.GeometryRequest{ImageB64: imageB64, MIME: mime})
		if err != nil {
			log.Printf("estimate: geometry run %d/%d: %v", i, n, err)
			p.Progress.emit(ProgressUpdate{Phase: PhaseGeometry, Detail: fmt.Sprintf("run failed: %v", err), Run: i, Total: n})
			continue
		}
		cal, err := Calibrate(frame, bedHeightM, p.Tables.Calc)
		if err != nil {
			log.Printf("estimate: geometry run %d/%d: frame %+v: %v", i, n, frame, err)
			p.Progress.emit(ProgressUpdate{Phase: PhaseGeometry, Detail: fmt.Sprintf("run failed: %v", err), Run: i, Total: n})
			continue
		}

		out.Samples = append(out.Samples, cal.CargoHeightM)
		out.Methods = append(out.Methods, cal.Method)
		h := cal.CargoHeightM
		p.Progress.emit(ProgressUpdate{
			Phase: PhaseGeometry, Detail: fmt.Sprintf("height %.3fm via %s", h, cal.Method),
			Run: i, Total: n, Snapshot: Snapshot{CargoHeightM: &h},
		})
	}
	if len(out.Samples) == 0 {
		return out, fmt.Errorf("geometry: %w", ErrPhaseExhausted)
	}

	out.HeightM = medianPick(out.Samples)
	h := out.HeightM
	p.Progress.emit(ProgressUpdate{
		Phase: PhaseGeometry, Detail: fmt.Sprintf("median of %d samples: %.3fm", len(out.Samples), h),
		Snapshot: Snapshot{CargoHeightM: &h},
	})
	return out, nil
}

// medianPick returns the element at index floor(n/2) of the ascending-sorted
// samples. For even n this is the upper-middle element, not the interpolated
// average, kept for output parity with the original pipeline.
func medianPick(samples []float64) float64 {
	s := append([]float64(nil), samples...)
	sort.Float64s(s)
	return s[len(s)/2]
}
