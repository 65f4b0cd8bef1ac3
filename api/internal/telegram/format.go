package telegram

import (
	"fmt"
	"strings"

	"github.com/YuujiKamura/TonSuuChecker-sub001/api/internal/estimate"
)

// FormatRecord renders one estimation record as a chat message.
func FormatRecord(rec *estimate.EstimationRecord) string {
	if !rec.CargoDetected {
		msg := "📋 荷台に積載物が見つかりませんでした。"
		if rec.Reasoning != "" {
			msg += "\n" + rec.Reasoning
		}
		return msg
	}

	var b strings.Builder
	fmt.Fprintf(&b, "📋 推定結果\n")
	fmt.Fprintf(&b, "車両: %s (%s)\n", orDash(rec.VehicleType), orDash(rec.TruckClass))
	if rec.PlateRegion != "" || rec.PlateNumber != "" {
		fmt.Fprintf(&b, "ナンバー: %s %s\n", rec.PlateRegion, rec.PlateNumber)
	}
	material := orDash(rec.Material)
	if rec.Calc.DensityDefaulted {
		material += " (既定密度を使用)"
	}
	fmt.Fprintf(&b, "材料: %s (%.2f t/m³)\n", material, rec.Calc.DensityUsed)
	fmt.Fprintf(&b, "積載高さ: %.2fm (%s)\n", rec.CargoHeightM, scaleLabel(rec.ScaleMethods))
	fmt.Fprintf(&b, "体積: %.3f m³\n", rec.Calc.VolumeM3)
	fmt.Fprintf(&b, "トン数: %.2f t", rec.Calc.Tonnage)
	if rec.MaxCapacityT > 0 {
		fmt.Fprintf(&b, " / 最大 %.1f t (%.0f%%)", rec.MaxCapacityT, 100*rec.Calc.Tonnage/rec.MaxCapacityT)
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, "信頼度: %.0f%%", 100*rec.Confidence)
	if rec.SampleCount > 1 {
		fmt.Fprintf(&b, " (%dサンプル)", rec.SampleCount)
	}
	if rec.Reasoning != "" {
		b.WriteString("\n\n" + rec.Reasoning)
	}
	b.WriteString("\n\n実測値があれば /actual で記録できます")
	return b.String()
}

func scaleLabel(methods []estimate.ScaleMethod) string {
	tailgate, plate := 0, 0
	for _, m := range methods {
		switch m {
		case estimate.ScaleTailgate:
			tailgate++
		case estimate.ScalePlate:
			plate++
		}
	}
	switch {
	case tailgate > 0 && plate > 0:
		return fmt.Sprintf("後板基準×%d, ナンバー基準×%d", tailgate, plate)
	case tailgate > 0:
		return "後板基準"
	case plate > 0:
		return "ナンバー基準"
	default:
		return "基準なし"
	}
}

func orDash(s string) string {
	if s == "" {
		return "不明"
	}
	return s
}
