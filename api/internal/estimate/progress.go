package estimate

// Phase names of a pipeline run, in execution order.
const (
	PhaseClassify  = "classify"
	PhaseGeometry  = "geometry"
	PhaseFill      = "fill"
	PhaseCalculate = "calculate"
	PhaseMerge     = "merge"
	PhaseDone      = "done"
)

// Snapshot carries the parameters known so far; later fields are nil until
// their phase has completed.
type Snapshot struct {
	CargoHeightM *float64           `json:"cargoHeightM,omitempty"`
	Fill         *FillParams        `json:"fill,omitempty"`
	Calc         *CalculationResult `json:"calc,omitempty"`
}

// ProgressUpdate is emitted at each meaningful state transition: per run
// start, per run completion/error, per aggregation step, and final done.
type ProgressUpdate struct {
	Phase  string `json:"phase"`
	Detail string `json:"detail"`
	// Run/Total index the current ensemble sample within the phase;
	// zero Total means the update is not sample-scoped.
	Run      int      `json:"run"`
	Total    int      `json:"total"`
	Snapshot Snapshot `json:"snapshot"`
}

// ProgressFunc receives live progress so a caller can render it without the
// core depending on any presentation concern. May be nil.
type ProgressFunc func(ProgressUpdate)

func (f ProgressFunc) emit(u ProgressUpdate) {
	if f != nil {
		f(u)
	}
}
