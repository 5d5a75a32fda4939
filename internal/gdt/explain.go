package gdt

import (
	"strings"
)

// characteristicSummary：各特征的通俗语义，一句话说明控制了什么
var characteristicSummary = map[Characteristic]string{
	Straightness:     "Controls how straight a line element or axis is, without datums.",
	Flatness:         "Controls the flatness of a surface, without datums.",
	Circularity:      "Controls the roundness of each circular cross-section, without datums.",
	Cylindricity:     "Controls the combined roundness and straightness of a cylindrical surface, without datums.",
	ProfileLine:      "Controls the 2D profile of a line element relative to basic dimensions and optional datums.",
	ProfileSurface:   "Controls the 3D profile of a surface relative to basic dimensions and optional datums.",
	Angularity:       "Controls orientation at a specified basic angle to the referenced datums.",
	Perpendicularity: "Controls the 90-degree orientation relative to the referenced datums.",
	Parallelism:      "Controls orientation parallel to the referenced datums.",
	Position:         "Controls the location of the feature relative to the referenced datums.",
	Concentricity:    "Legacy control of median points about a datum axis; typically replaced with position.",
	Symmetry:         "Legacy control of median points about a datum plane; typically replaced with position or profile.",
	CircularRunout:   "Controls composite form and location of each circular element over one revolution about the datum axis.",
	TotalRunout:      "Controls composite runout over the full surface relative to the datum axis.",
}

// Explain：把已校验的框投影为一段说明文字
// 背景：来自符号语义的确定性拼装，无状态可缓存；展示层与报表共用，避免各自措辞
func Explain(f *FeatureControlFrame) string {
	if f == nil {
		return ""
	}
	parts := []string{characteristicSummary[f.Characteristic]}
	parts = append(parts, "Tolerance: "+f.Tolerance.String()+".")
	if f.Zone == ZoneCylindrical {
		parts = append(parts, "The tolerance zone is diametral (⌀).")
	}
	switch f.Material {
	case MMC:
		parts = append(parts, "Applies at Maximum Material Condition: bonus tolerance accrues as actual size departs from MMC.")
	case LMC:
		parts = append(parts, "Applies at Least Material Condition: bonus tolerance accrues as actual size departs from LMC.")
	default:
		parts = append(parts, "Applies Regardless of Feature Size: no bonus tolerance.")
	}
	if len(f.Datums) > 0 {
		parts = append(parts, "Datum precedence: "+strings.Join(f.DatumLabels(), " | ")+".")
	}
	if f.Characteristic == Symmetry || f.Characteristic == Concentricity {
		parts = append(parts, "Note: ASME Y14.5-2018 discourages this control in favor of position/profile due to inspection difficulty.")
	}
	return strings.Join(parts, " ")
}
