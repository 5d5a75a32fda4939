package gdt

import (
	"strings"
)

// 文档注释：特征控制框文本渲染与简写解析
// 背景：渲染是校验字段的纯投影，作为唯一的符号格式来源供展示/导出层调用；
// 简写语法无损，Render 后 ParseShorthand 再 Build 得到语义等价的框
// 约束：RFS 与平面公差带为默认值，不渲染字形；因此缺省即语义，往返不丢信息

// characteristicGlyph：特征 → Unicode 字形
var characteristicGlyph = map[Characteristic]string{
	Straightness:     "⏤",
	Flatness:         "⏥",
	Circularity:      "○",
	Cylindricity:     "⌭",
	ProfileLine:      "⌒",
	ProfileSurface:   "⌓",
	Angularity:       "∠",
	Perpendicularity: "⟂",
	Parallelism:      "∥",
	Position:         "⌖",
	Concentricity:    "◎",
	Symmetry:         "⌯",
	CircularRunout:   "↗",
	TotalRunout:      "⌰",
}

// glyphCharacteristic：反查表，init 时由正表生成，保证两表恒一致
var glyphCharacteristic = map[string]Characteristic{}

func init() {
	for c, g := range characteristicGlyph {
		glyphCharacteristic[g] = c
	}
}

const (
	glyphDiameter = "⌀"
	glyphMMC      = "Ⓜ"
	glyphLMC      = "Ⓛ"
	glyphRFS      = "Ⓢ"
)

// materialGlyph：修饰符字形；RFS 为缺省不渲染
func materialGlyph(m MaterialCondition) string {
	switch m {
	case MMC:
		return glyphMMC
	case LMC:
		return glyphLMC
	}
	return ""
}

// Glyph：特征对应的 Unicode 字形（符号目录与导出层共用）
func Glyph(c Characteristic) string { return characteristicGlyph[c] }

// Render：渲染为 "⌖ ⌀0.1 Ⓜ | A | BⓂ | C" 形式的简写
func Render(f *FeatureControlFrame) string {
	if f == nil {
		return ""
	}
	var b strings.Builder
	b.WriteString(characteristicGlyph[f.Characteristic])
	b.WriteString(" ")
	if f.Zone == ZoneCylindrical {
		b.WriteString(glyphDiameter)
	}
	b.WriteString(f.Tolerance.String())
	if g := materialGlyph(f.Material); g != "" {
		b.WriteString(" ")
		b.WriteString(g)
	}
	for _, d := range f.Datums {
		b.WriteString(" | ")
		b.WriteString(d.Label)
		if g := materialGlyph(d.Material); g != "" {
			b.WriteString(g)
		}
	}
	return b.String()
}

// ParseShorthand：解析 Render 的输出为原始输入（随后仍需 Build 完整校验）
// 约束：只接受本包渲染的语法；无法识别时返回 false，不猜测近似含义
func ParseShorthand(s string) (RawFrame, bool) {
	var raw RawFrame
	blocks := strings.Split(strings.TrimSpace(s), " | ")
	if len(blocks) == 0 || blocks[0] == "" {
		return raw, false
	}
	head := strings.Fields(blocks[0])
	if len(head) < 2 || len(head) > 3 {
		return raw, false
	}
	ch, ok := glyphCharacteristic[head[0]]
	if !ok {
		return raw, false
	}
	raw.Characteristic = string(ch)
	tol := head[1]
	if strings.HasPrefix(tol, glyphDiameter) {
		raw.Cylindrical = true
		tol = strings.TrimPrefix(tol, glyphDiameter)
	}
	raw.Tolerance = tol
	if len(head) == 3 {
		switch head[2] {
		case glyphMMC:
			raw.Material = string(MMC)
		case glyphLMC:
			raw.Material = string(LMC)
		case glyphRFS:
			raw.Material = string(RFS)
		default:
			return raw, false
		}
	}
	for _, blk := range blocks[1:] {
		blk = strings.TrimSpace(blk)
		d := RawDatum{}
		switch {
		case strings.HasSuffix(blk, glyphMMC):
			d.Material = string(MMC)
			blk = strings.TrimSuffix(blk, glyphMMC)
		case strings.HasSuffix(blk, glyphLMC):
			d.Material = string(LMC)
			blk = strings.TrimSuffix(blk, glyphLMC)
		case strings.HasSuffix(blk, glyphRFS):
			d.Material = string(RFS)
			blk = strings.TrimSuffix(blk, glyphRFS)
		}
		if blk == "" {
			return raw, false
		}
		d.Label = blk
		raw.Datums = append(raw.Datums, d)
	}
	return raw, true
}
