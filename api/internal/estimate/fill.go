package estimate

import (
	"context"
	"fmt"
	"log"

	"gonum.org/v1/gonum/stat"

	"github.com/YuujiKamura/TonSuuChecker-sub001/api/internal/masterdata"
	"github.com/YuujiKamura/TonSuuChecker-sub001/api/internal/vision"
)

// runFill executes the fill sub-pipeline n times with the same
// run-and-collect structure as the geometry phase. Aggregation is the
// arithmetic mean per parameter, clamped AFTER averaging into the named
// range from master data. The most recent reasoning string among
// successful runs is kept as representative free text.
func (p *Pipeline) runFill(ctx context.Context, imageB64, mime, material, exemplars string, n int) (FillParams, int, error) {
	var samples []vision.FillResponse
	for i := 1; i <= n; i++ {
		if err := ctx.Err(); err != nil {
			return FillParams{}, 0, err
		}
		p.Progress.emit(ProgressUpdate{Phase: PhaseFill, Detail: "estimating fill", Run: i, Total: n})

		resp, err := p.Engine.EstimateFill(ctx, vision.FillRequest{
			ImageB64: imageB64, MIME: mime, Material: material, Exemplars: exemplars,
		})
		if err != nil {
			log.Printf("estimate: fill run %d/%d: %v", i, n, err)
			p.Progress.emit(ProgressUpdate{Phase: PhaseFill, Detail: fmt.Sprintf("run failed: %v", err), Run: i, Total: n})
			continue
		}
		samples = append(samples, resp)
		p.Progress.emit(ProgressUpdate{
			Phase: PhaseFill,
			Detail: fmt.Sprintf("L=%.2f W=%.2f taper=%.2f packing=%.2f",
				resp.FillRatioL, resp.FillRatioW, resp.TaperRatio, resp.PackingDensity),
			Run: i, Total: n,
		})
	}
	if len(samples) == 0 {
		return FillParams{}, 0, fmt.Errorf("fill: %w", ErrPhaseExhausted)
	}

	fill := aggregateFill(samples, p.Tables.ParamRanges)
	p.Progress.emit(ProgressUpdate{
		Phase: PhaseFill, Detail: fmt.Sprintf("averaged %d samples", len(samples)),
		Snapshot: Snapshot{Fill: &fill},
	})
	return fill, len(samples), nil
}

func aggregateFill(samples []vision.FillResponse, ranges map[string]masterdata.ParamRange) FillParams {
	avg := func(name string, pick func(vision.FillResponse) float64) float64 {
		r := ranges[name]
		vals := make([]float64, len(samples))
		for i, s := range samples {
			v := pick(s)
			if v == 0 {
				// Field absent from the response; fall back to the range
				// default rather than dragging the mean to zero.
				v = r.Default
			}
			vals[i] = v
		}
		return r.Clamp(stat.Mean(vals, nil))
	}

	return FillParams{
		FillRatioL:     round(avg(masterdata.RangeFillRatioL, func(s vision.FillResponse) float64 { return s.FillRatioL }), 3),
		FillRatioW:     round(avg(masterdata.RangeFillRatioW, func(s vision.FillResponse) float64 { return s.FillRatioW }), 3),
		TaperRatio:     round(avg(masterdata.RangeTaperRatio, func(s vision.FillResponse) float64 { return s.TaperRatio }), 3),
		PackingDensity: round(avg(masterdata.RangePackingDensity, func(s vision.FillResponse) float64 { return s.PackingDensity }), 3),
		Reasoning:      samples[len(samples)-1].Reasoning,
	}
}
