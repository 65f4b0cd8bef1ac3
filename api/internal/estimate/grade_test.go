package estimate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuujiKamura/TonSuuChecker-sub001/api/internal/masterdata"
)

func gradeTables() *masterdata.Tables {
	tbl := masterdata.Default()
	tbl.GradeBuckets = []masterdata.GradeBucket{
		{Name: "A", Min: 0, Max: 0.5},
		{Name: "B", Min: 0.5, Max: 0},
	}
	return tbl
}

func labeledAt(ts int64, actual, capacity float64) LabeledRecord {
	return LabeledRecord{
		Record: EstimationRecord{
			CreatedAt:  time.Unix(ts, 0).UTC(),
			TruckClass: "4t",
			Material:   "土砂",
		},
		ActualWeightT: actual,
		MaxCapacityT:  capacity,
	}
}

func TestSelectExemplarsMostRecentPerGrade(t *testing.T) {
	// Grades [A, A, B] at timestamps [10, 20, 15]: one exemplar per
	// non-empty grade, the most recent within each.
	labeled := []LabeledRecord{
		labeledAt(10, 1.0, 4.0), // ratio 0.25 → A
		labeledAt(20, 1.2, 4.0), // ratio 0.30 → A, newer
		labeledAt(15, 3.0, 4.0), // ratio 0.75 → B
	}

	got := SelectExemplars(labeled, "medium", gradeTables())
	require.Len(t, got, 2)

	assert.Equal(t, "A", got[0].GradeName)
	assert.Equal(t, time.Unix(20, 0).UTC(), got[0].Record.CreatedAt)
	assert.InDelta(t, 0.30, got[0].LoadRatio, 1e-9)

	assert.Equal(t, "B", got[1].GradeName)
	assert.Equal(t, time.Unix(15, 0).UTC(), got[1].Record.CreatedAt)
}

func TestSelectExemplarsFiltersCapacityClass(t *testing.T) {
	labeled := []LabeledRecord{
		labeledAt(10, 1.0, 4.0),  // medium band
		labeledAt(20, 5.0, 10.0), // heavy band, excluded for "medium"
		labeledAt(30, 2.0, -1),   // invalid capacity, excluded
	}

	got := SelectExemplars(labeled, "medium", gradeTables())
	require.Len(t, got, 1)
	assert.Equal(t, time.Unix(10, 0).UTC(), got[0].Record.CreatedAt)
}

func TestSelectExemplarsEmptyGradeOmitted(t *testing.T) {
	labeled := []LabeledRecord{labeledAt(10, 3.9, 4.0)} // ratio ~0.98 → B only
	got := SelectExemplars(labeled, "medium", gradeTables())
	require.Len(t, got, 1)
	assert.Equal(t, "B", got[0].GradeName)
}

func TestSelectExemplarsBucketOrder(t *testing.T) {
	labeled := []LabeledRecord{
		labeledAt(10, 3.0, 4.0), // B
		labeledAt(20, 1.0, 4.0), // A
	}
	got := SelectExemplars(labeled, "medium", gradeTables())
	require.Len(t, got, 2)
	assert.Equal(t, "A", got[0].GradeName)
	assert.Equal(t, "B", got[1].GradeName)
}

func TestFormatExemplars(t *testing.T) {
	assert.Empty(t, FormatExemplars(nil))

	ex := GradedExemplar{
		LabeledRecord: LabeledRecord{
			Record: EstimationRecord{
				TruckClass:   "4t",
				Material:     "As殻",
				CargoHeightM: 0.4,
				Fill:         FillParams{FillRatioL: 0.8, FillRatioW: 0.9, PackingDensity: 0.7},
			},
			ActualWeightT: 3.2,
			MaxCapacityT:  4.0,
		},
		LoadRatio: 0.8,
		GradeName: "well-loaded",
	}
	out := FormatExemplars([]GradedExemplar{ex})
	assert.Contains(t, out, "well-loaded")
	assert.Contains(t, out, "3.20t")
	assert.Contains(t, out, "As殻")
}
