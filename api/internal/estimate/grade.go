package estimate

import (
	"fmt"
	"strings"

	"github.com/YuujiKamura/TonSuuChecker-sub001/api/internal/masterdata"
)

// SelectExemplars picks at most one ground-truth exemplar per grade bucket
// for the given capacity class, in bucket order. Only records whose declared
// maximum capacity falls inside the same capacity band are considered;
// within each grade the most recently created record wins. The result is a
// small, ratio-stratified reference set rather than an arbitrarily large or
// redundant one.
func SelectExemplars(labeled []LabeledRecord, capacityClass string, tbl *masterdata.Tables) []GradedExemplar {
	byGrade := make(map[string]GradedExemplar)
	for _, lr := range labeled {
		if lr.MaxCapacityT <= 0 {
			continue
		}
		band, ok := tbl.CapacityClass(lr.MaxCapacityT)
		if !ok || band != capacityClass {
			continue
		}
		ratio := lr.ActualWeightT / lr.MaxCapacityT
		grade, ok := tbl.Grade(ratio)
		if !ok {
			continue
		}
		ex := GradedExemplar{LabeledRecord: lr, LoadRatio: ratio, GradeName: grade}
		if cur, exists := byGrade[grade]; !exists || ex.Record.CreatedAt.After(cur.Record.CreatedAt) {
			byGrade[grade] = ex
		}
	}

	var out []GradedExemplar
	for _, b := range tbl.GradeBuckets {
		if ex, ok := byGrade[b.Name]; ok {
			out = append(out, ex)
		}
	}
	return out
}

// FormatExemplars renders graded exemplars as a compact text block for
// few-shot prompt context. Empty input yields an empty string.
func FormatExemplars(exemplars []GradedExemplar) string {
	if len(exemplars) == 0 {
		return ""
	}
	var b strings.Builder
	for _, ex := range exemplars {
		fmt.Fprintf(&b, "- %s load (%s, %s): actual %.2ft of %.1ft capacity (ratio %.2f), height %.2fm, fillL %.2f, fillW %.2f, packing %.2f\n",
			ex.GradeName, ex.Record.TruckClass, ex.Record.Material,
			ex.ActualWeightT, ex.MaxCapacityT, ex.LoadRatio,
			ex.Record.CargoHeightM, ex.Record.Fill.FillRatioL, ex.Record.Fill.FillRatioW, ex.Record.Fill.PackingDensity)
	}
	return strings.TrimRight(b.String(), "\n")
}
