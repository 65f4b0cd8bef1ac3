package estimate

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/YuujiKamura/TonSuuChecker-sub001/api/internal/masterdata"
	"github.com/YuujiKamura/TonSuuChecker-sub001/api/internal/vision"
)

// DefaultEnsemble is the per-phase sample count when none is requested.
const DefaultEnsemble = 3

// Pipeline runs the full estimation flow against one vision engine and one
// master-data table set. All model calls within a run happen sequentially,
// one in flight at a time.
type Pipeline struct {
	Engine   vision.Engine
	Tables   *masterdata.Tables
	Progress ProgressFunc
}

// Options tune one pipeline invocation. Zero values mean "let the
// classification call decide" (TruckClass, Material) or "use the default"
// (Ensemble).
type Options struct {
	TruckClass string
	Material   string
	Ensemble   int
	// Exemplars are graded historical records for few-shot context.
	Exemplars []GradedExemplar
}

// Run executes one end-to-end estimation: classify → geometry ensemble →
// fill ensemble → calculate. The returned record is complete and immutable.
func (p *Pipeline) Run(ctx context.Context, imageB64, mime string, opts Options) (*EstimationRecord, error) {
	n := opts.Ensemble
	if n <= 0 {
		n = DefaultEnsemble
	}
	exemplars := FormatExemplars(opts.Exemplars)

	cls, err := p.classify(ctx, imageB64, mime, exemplars, n)
	if err != nil {
		return nil, err
	}

	rec := &EstimationRecord{
		ID:            uuid.NewString(),
		CreatedAt:     time.Now().UTC(),
		CargoDetected: cls.CargoDetected,
		VehicleType:   cls.VehicleType,
		TruckClass:    cls.TruckClass,
		Material:      cls.Material,
		PlateRegion:   cls.PlateRegion,
		PlateNumber:   cls.PlateNumber,
		MaxCapacityT:  cls.MaxCapacityT,
		Confidence:    cls.Confidence,
		SampleCount:   n,
	}
	// Caller-provided master keys win over the model's guess.
	if opts.TruckClass != "" {
		rec.TruckClass = opts.TruckClass
	}
	if opts.Material != "" {
		rec.Material = opts.Material
	}

	if !rec.CargoDetected {
		p.Progress.emit(ProgressUpdate{Phase: PhaseDone, Detail: "no cargo detected"})
		rec.Reasoning = "no cargo detected on the truck bed"
		return rec, nil
	}

	truck, ok := p.Tables.Truck(rec.TruckClass)
	if !ok {
		return nil, fmt.Errorf("%w: truck class %q", ErrUnknownReferenceKey, rec.TruckClass)
	}
	if rec.MaxCapacityT == 0 {
		rec.MaxCapacityT = truck.MaxCapacity
	}

	geo, err := p.runGeometry(ctx, imageB64, mime, n, truck.BedHeight)
	if err != nil {
		return nil, err
	}
	rec.CargoHeightM = round(geo.HeightM, 3)
	rec.ScaleMethods = geo.Methods

	fill, fillSamples, err := p.runFill(ctx, imageB64, mime, rec.Material, exemplars, n)
	if err != nil {
		return nil, err
	}
	rec.Fill = fill
	rec.Reasoning = fill.Reasoning
	if fillSamples < n || len(geo.Samples) < n {
		// Partial ensembles lower trust in the result.
		rec.Confidence = round(rec.Confidence*float64(len(geo.Samples)+fillSamples)/float64(2*n), 3)
	}

	p.Progress.emit(ProgressUpdate{Phase: PhaseCalculate, Detail: "calculating volume and tonnage"})
	calc, err := Calculate(rec.CargoHeightM, rec.Fill, rec.Material, rec.TruckClass, p.Tables)
	if err != nil {
		return nil, err
	}
	rec.Calc = calc

	p.Progress.emit(ProgressUpdate{
		Phase:  PhaseDone,
		Detail: fmt.Sprintf("%.2ft / %.3fm3", calc.Tonnage, calc.VolumeM3),
		Snapshot: Snapshot{
			CargoHeightM: &rec.CargoHeightM,
			Fill:         &rec.Fill,
			Calc:         &rec.Calc,
		},
	})
	return rec, nil
}

// RunVoted performs `runs` independent full estimations and merges them
// into one representative record. Failed runs are logged and skipped; all
// runs failing is a phase exhaustion.
func (p *Pipeline) RunVoted(ctx context.Context, imageB64, mime string, runs int, opts Options) (*EstimationRecord, error) {
	if runs <= 0 {
		runs = 1
	}
	var records []EstimationRecord
	for i := 1; i <= runs; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		p.Progress.emit(ProgressUpdate{Phase: PhaseMerge, Detail: "full estimation run", Run: i, Total: runs})
		rec, err := p.Run(ctx, imageB64, mime, opts)
		if err != nil {
			log.Printf("estimate: voted run %d/%d: %v", i, runs, err)
			continue
		}
		records = append(records, *rec)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("voting: %w", ErrPhaseExhausted)
	}
	if len(records) == 1 {
		return &records[0], nil
	}
	merged, err := MergeResults(records)
	if err != nil {
		return nil, err
	}
	p.Progress.emit(ProgressUpdate{
		Phase:  PhaseMerge,
		Detail: fmt.Sprintf("merged %d runs: %.2ft", len(records), merged.Calc.Tonnage),
		Snapshot: Snapshot{
			CargoHeightM: &merged.CargoHeightM,
			Fill:         &merged.Fill,
			Calc:         &merged.Calc,
		},
	})
	return &merged, nil
}

// classify runs the classification call with up to n attempts; the first
// success wins. Treated as a one-sample phase: exhaustion is fatal.
func (p *Pipeline) classify(ctx context.Context, imageB64, mime, exemplars string, n int) (vision.ClassifyResponse, error) {
	var lastErr error
	for i := 1; i <= n; i++ {
		if err := ctx.Err(); err != nil {
			return vision.ClassifyResponse{}, err
		}
		p.Progress.emit(ProgressUpdate{Phase: PhaseClassify, Detail: "classifying vehicle", Run: i, Total: n})
		cls, err := p.Engine.ClassifyVehicle(ctx, vision.ClassifyRequest{
			ImageB64: imageB64, MIME: mime, Exemplars: exemplars,
		})
		if err != nil {
			log.Printf("estimate: classify attempt %d/%d: %v", i, n, err)
			lastErr = err
			continue
		}
		p.Progress.emit(ProgressUpdate{Phase: PhaseClassify, Detail: cls.VehicleType + " " + cls.TruckClass, Run: i, Total: n})
		return cls, nil
	}
	return vision.ClassifyResponse{}, fmt.Errorf("classify: %w (last: %v)", ErrPhaseExhausted, lastErr)
}
