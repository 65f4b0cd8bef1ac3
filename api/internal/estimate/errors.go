package estimate

import (
	"errors"

	"github.com/YuujiKamura/TonSuuChecker-sub001/api/internal/jsonx"
)

// Error taxonomy of the estimation core. Per-sample failures (calibration,
// validation, parse) are caught and logged by the ensemble runners and never
// escape a phase; only phase exhaustion and master-data lookup failures
// propagate to the caller.
var (
	// ErrCalibration: a geometry sample carries no usable scale reference.
	ErrCalibration = errors.New("no usable scale reference")
	// ErrValidation: a reference feature is present but geometrically
	// inconsistent (e.g. tailgate top at or below bottom).
	ErrValidation = errors.New("geometry sample inconsistent")
	// ErrParse: the model response held no recoverable JSON object.
	// Engines surface this via jsonx; re-exported so callers can match on
	// one taxonomy.
	ErrParse = jsonx.ErrNoObject
	// ErrPhaseExhausted: every sample in a phase failed. Fatal for the run.
	ErrPhaseExhausted = errors.New("all samples in phase failed")
	// ErrUnknownReferenceKey: vehicle class or material absent from master
	// data with no declared default. Fatal: there is no physically
	// meaningful fallback.
	ErrUnknownReferenceKey = errors.New("unknown master data key")
)
