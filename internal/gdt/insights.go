package gdt

import (
	"fmt"
	"sort"
	"strings"
)

// 文档注释：规则洞察引擎
// 背景：对一张图纸（或单要素）的全部特征控制框做专家式检查，标记过时符号与
// 不一致标注；规则目录为独立纯函数列表，逐条对整个集合求值，互不短路
// 约束：引擎无 I/O、无状态、从不报错；空集或畸形集合只产出空结果

// Severity：发现项级别；目录内只有提示与告警，不存在阻断级
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
)

// Finding：单条发现项
type Finding struct {
	Severity       Severity `json:"severity"`
	Code           string   `json:"code"`
	Message        string   `json:"message"`
	RequirementIDs []int64  `json:"requirement_ids"`
}

// 发现项错误码：对外稳定标识
const (
	CodeDeprecatedSymmetryConcentricity = "deprecated_symmetry_concentricity"
	CodeDatumPrecedenceConflict         = "datum_precedence_conflict"
	CodeMissingMMCOnSizeFeature         = "missing_mmc_on_size_feature"
	CodeDuplicateRequirement            = "duplicate_requirement"
	CodeOverconstrainedDatumFrame       = "overconstrained_datum_frame"
)

// RequirementFrame：引擎输入的一条需求（已校验的框 + 声明上下文）
// 约束：Feature 为空表示未关联具体要素，跨框的同要素规则会跳过它
type RequirementFrame struct {
	ID            int64
	Feature       string
	FeatureOfSize bool
	Frame         *FeatureControlFrame
}

// rule：规则签名，一个集合进、零到多条发现项出
type rule func(set []RequirementFrame) []Finding

// ruleCatalog：固定目录；新增规则即追加函数，顺序不影响最终输出
var ruleCatalog = []rule{
	ruleDeprecatedSymmetryConcentricity,
	ruleDatumPrecedenceConflict,
	ruleMissingMMCOnSizeFeature,
	ruleDuplicateRequirement,
	ruleOverconstrainedDatumFrame,
}

// Evaluate：对集合跑完整目录并排序输出
// 排序：告警先于提示，同级按需求声明顺序（首个关联 ID 在输入中的下标）
func Evaluate(set []RequirementFrame) []Finding {
	var out []Finding
	for _, r := range ruleCatalog {
		out = append(out, r(set)...)
	}
	pos := make(map[int64]int, len(set))
	for i, rf := range set {
		pos[rf.ID] = i
	}
	declOrder := func(f Finding) int {
		if len(f.RequirementIDs) == 0 {
			return len(set)
		}
		if p, ok := pos[f.RequirementIDs[0]]; ok {
			return p
		}
		return len(set)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Severity != out[j].Severity {
			return out[i].Severity == SeverityWarning
		}
		return declOrder(out[i]) < declOrder(out[j])
	})
	return out
}

// ruleDeprecatedSymmetryConcentricity：对称度/同轴度已被 2018 版标准弃用
// 建议换位置度加相应基准结构（两符号不支持尺寸修饰且检测困难）
func ruleDeprecatedSymmetryConcentricity(set []RequirementFrame) []Finding {
	var out []Finding
	for _, rf := range set {
		if rf.Frame == nil {
			continue
		}
		c := rf.Frame.Characteristic
		if c != Symmetry && c != Concentricity {
			continue
		}
		out = append(out, Finding{
			Severity:       SeverityWarning,
			Code:           CodeDeprecatedSymmetryConcentricity,
			Message:        fmt.Sprintf("%s is deprecated; replace with position and an appropriate datum structure", c),
			RequirementIDs: []int64{rf.ID},
		})
	}
	return out
}

// ruleDatumPrecedenceConflict：同一要素上两个框引用同一组基准字母但顺序不同
// 顺序即优先级，重排会改变含义，多半不是有意为之
func ruleDatumPrecedenceConflict(set []RequirementFrame) []Finding {
	var out []Finding
	for i := 0; i < len(set); i++ {
		for j := i + 1; j < len(set); j++ {
			a, b := set[i], set[j]
			if a.Frame == nil || b.Frame == nil || a.Feature == "" || a.Feature != b.Feature {
				continue
			}
			la, lb := a.Frame.DatumLabels(), b.Frame.DatumLabels()
			if len(la) < 2 || len(la) != len(lb) {
				continue
			}
			if sameOrder(la, lb) || !sameSet(la, lb) {
				continue
			}
			out = append(out, Finding{
				Severity: SeverityWarning,
				Code:     CodeDatumPrecedenceConflict,
				Message: fmt.Sprintf("feature %q references datums %s and %s in different precedence order",
					a.Feature, strings.Join(la, "|"), strings.Join(lb, "|")),
				RequirementIDs: []int64{a.ID, b.ID},
			})
		}
	}
	return out
}

// ruleMissingMMCOnSizeFeature：尺寸要素上的位置度仍用 RFS，奖励公差机会被放弃
// 仅为提示级：RFS 可能正是功能要求，不视为错误
func ruleMissingMMCOnSizeFeature(set []RequirementFrame) []Finding {
	var out []Finding
	for _, rf := range set {
		if rf.Frame == nil || !rf.FeatureOfSize {
			continue
		}
		if rf.Frame.Characteristic != Position || rf.Frame.Material != RFS {
			continue
		}
		out = append(out, Finding{
			Severity:       SeverityInfo,
			Code:           CodeMissingMMCOnSizeFeature,
			Message:        "position on a feature of size at RFS: consider MMC to earn bonus tolerance",
			RequirementIDs: []int64{rf.ID},
		})
	}
	return out
}

// ruleDuplicateRequirement：同一要素上语义完全相同的两个框（冗余标注）
func ruleDuplicateRequirement(set []RequirementFrame) []Finding {
	var out []Finding
	for i := 0; i < len(set); i++ {
		for j := i + 1; j < len(set); j++ {
			a, b := set[i], set[j]
			if a.Frame == nil || b.Frame == nil || a.Feature == "" || a.Feature != b.Feature {
				continue
			}
			if !a.Frame.Equal(b.Frame) {
				continue
			}
			out = append(out, Finding{
				Severity:       SeverityWarning,
				Code:           CodeDuplicateRequirement,
				Message:        fmt.Sprintf("feature %q carries the same callout twice", a.Feature),
				RequirementIDs: []int64{a.ID, b.ID},
			})
		}
	}
	return out
}

// ruleOverconstrainedDatumFrame：基准过约束
// 两种形态：单框引用超过三级基准；同一要素被两套互不相交的基准框同时定位/定向
// 而未声明相互关系（同一轴线受两个独立坐标系约束）
func ruleOverconstrainedDatumFrame(set []RequirementFrame) []Finding {
	var out []Finding
	for _, rf := range set {
		if rf.Frame == nil || len(rf.Frame.Datums) <= maxDatumReferences {
			continue
		}
		out = append(out, Finding{
			Severity:       SeverityWarning,
			Code:           CodeOverconstrainedDatumFrame,
			Message:        fmt.Sprintf("frame references %d datums; at most %d are meaningful", len(rf.Frame.Datums), maxDatumReferences),
			RequirementIDs: []int64{rf.ID},
		})
	}
	for i := 0; i < len(set); i++ {
		for j := i + 1; j < len(set); j++ {
			a, b := set[i], set[j]
			if a.Frame == nil || b.Frame == nil || a.Feature == "" || a.Feature != b.Feature {
				continue
			}
			if !locatesOrOrients(a.Frame) || !locatesOrOrients(b.Frame) {
				continue
			}
			la, lb := a.Frame.DatumLabels(), b.Frame.DatumLabels()
			if len(la) == 0 || len(lb) == 0 || intersects(la, lb) {
				continue
			}
			out = append(out, Finding{
				Severity: SeverityWarning,
				Code:     CodeOverconstrainedDatumFrame,
				Message: fmt.Sprintf("feature %q is constrained by two unrelated datum frames (%s vs %s)",
					a.Feature, strings.Join(la, "|"), strings.Join(lb, "|")),
				RequirementIDs: []int64{a.ID, b.ID},
			})
		}
	}
	return out
}

func locatesOrOrients(f *FeatureControlFrame) bool {
	cl, ok := f.Characteristic.Class()
	return ok && (cl == ClassLocation || cl == ClassOrientation)
}

func sameOrder(a, b []string) bool {
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func sameSet(a, b []string) bool {
	m := map[string]bool{}
	for _, s := range a {
		m[s] = true
	}
	for _, s := range b {
		if !m[s] {
			return false
		}
	}
	return true
}

func intersects(a, b []string) bool {
	m := map[string]bool{}
	for _, s := range a {
		m[s] = true
	}
	for _, s := range b {
		if m[s] {
			return true
		}
	}
	return false
}
