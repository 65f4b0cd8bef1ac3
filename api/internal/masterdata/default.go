package masterdata

// Default returns the built-in table set, used when no external file is
// configured. Truck dimensions and material densities follow the field
// measurements the project was calibrated against; treat external files as
// the source of truth in production.
func Default() *Tables {
	return &Tables{
		Version: "builtin-2025-08",
		TruckSpecs: map[string]TruckSpec{
			"2t":  {BedLength: 3.05, BedWidth: 1.60, BedHeight: 0.32, MaxCapacity: 2.0},
			"4t":  {BedLength: 3.40, BedWidth: 2.06, BedHeight: 0.32, MaxCapacity: 4.0},
			"10t": {BedLength: 5.10, BedWidth: 2.20, BedHeight: 0.50, MaxCapacity: 10.0},
		},
		Materials: MaterialTable{
			Densities: map[string]float64{
				"土砂":     1.8,
				"As殻":    2.5,
				"Co殻":    2.5,
				"開粒度As殻": 2.35,
			},
			DefaultDensity: 1.8,
		},
		ParamRanges: map[string]ParamRange{
			RangeFillRatioL:     {Min: 0.0, Max: 1.0, Default: 0.7},
			RangeFillRatioW:     {Min: 0.0, Max: 1.0, Default: 0.8},
			RangeTaperRatio:     {Min: 0.5, Max: 1.0, Default: 0.85},
			RangePackingDensity: {Min: 0.5, Max: 0.9, Default: 0.7},
		},
		Calc: CalcConstants{
			PlateHeightM:      0.165,
			BottomFootprint:   0.9,
			ReferenceVolumeM3: 4.0,
			CompressionSlope:  0.05,
			CompressionMin:    0.4,
			CompressionMax:    0.95,
			HeightClampFactor: 2.5,
		},
		CapacityBands: []CapacityBand{
			{Name: "light", Min: 0, Max: 3},
			{Name: "medium", Min: 3, Max: 8},
			{Name: "heavy", Min: 8, Max: 15},
			{Name: "extra-heavy", Min: 15, Max: 0},
		},
		GradeBuckets: []GradeBucket{
			{Name: "under-loaded", Min: 0, Max: 0.5},
			{Name: "light-loaded", Min: 0.5, Max: 0.8},
			{Name: "well-loaded", Min: 0.8, Max: 1.0},
			{Name: "over-loaded", Min: 1.0, Max: 0},
		},
	}
}
