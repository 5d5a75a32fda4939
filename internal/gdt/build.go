package gdt

import (
	"fmt"
	"strings"
)

// 校验错误码：对外稳定标识，前端按 field+code 定位表单问题
const (
	CodeInvalidTolerance       = "invalid_tolerance"
	CodeUnknownCharacteristic  = "unknown_characteristic"
	CodeIncompatibleModifier   = "incompatible_modifier"
	CodeIncompatibleZoneShape  = "incompatible_zone_shape"
	CodeMissingDatumReference  = "missing_datum_reference"
	CodeDuplicateDatum         = "duplicate_datum"
	CodeInvalidDatumLabel      = "invalid_datum_label"
	CodeTooManyDatumReferences = "too_many_datum_references"
)

// FieldError：单字段校验错误
type FieldError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ValidationErrors：一次构建收集到的全部字段错误
// 背景：不在首错中断，调用方一次拿到所有问题统一展示
type ValidationErrors []FieldError

func (v ValidationErrors) Error() string {
	parts := make([]string, 0, len(v))
	for _, e := range v {
		parts = append(parts, e.Field+": "+e.Code)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Has：是否存在指定错误码（测试与上层分支用）
func (v ValidationErrors) Has(code string) bool {
	for _, e := range v {
		if e.Code == code {
			return true
		}
	}
	return false
}

// RawDatum：未校验的基准输入
type RawDatum struct {
	Label    string `json:"label"`
	Material string `json:"material"`
}

// RawFrame：未校验的特征控制框输入（表单/JSON 直接映射）
// 约束：Material 为空按 RFS；Cylindrical 为真表示 ⌀ 柱面公差带
type RawFrame struct {
	Characteristic string     `json:"characteristic"`
	Tolerance      string     `json:"tolerance"`
	Cylindrical    bool       `json:"cylindrical"`
	Material       string     `json:"material"`
	Datums         []RawDatum `json:"datums"`
}

// maxDatumReferences：基准框最多三级（第一/第二/第三基准）
const maxDatumReferences = 3

// parseMaterial：解析修饰符文本；空值回退 RFS，非法返回 false
func parseMaterial(s string) (MaterialCondition, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "", "RFS":
		return RFS, true
	case "MMC":
		return MMC, true
	case "LMC":
		return LMC, true
	}
	return "", false
}

// validDatumLabel：基准字母为一到两位大写字母；排除易混淆的 I/O/Q
func validDatumLabel(s string) bool {
	if len(s) < 1 || len(s) > 2 {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c < 'A' || c > 'Z' || c == 'I' || c == 'O' || c == 'Q' {
			return false
		}
	}
	return true
}

// Build：把原始输入构建为不可变的特征控制框
// 背景：五步校验全部执行并汇总错误（公差→特征→修饰符兼容→公差带兼容→基准规则）；
// 任一失败只返回错误列表，绝不返回半成品对象
func Build(raw RawFrame) (*FeatureControlFrame, ValidationErrors) {
	var errs ValidationErrors

	tol, err := ParseDec4(raw.Tolerance)
	if err != nil || tol <= 0 {
		errs = append(errs, FieldError{
			Field:   "tolerance",
			Code:    CodeInvalidTolerance,
			Message: "tolerance must be a positive decimal with at most 4 decimal places",
		})
	}

	ch := Characteristic(strings.ToLower(strings.TrimSpace(raw.Characteristic)))
	class, known := ch.Class()
	if !known {
		errs = append(errs, FieldError{
			Field:   "characteristic",
			Code:    CodeUnknownCharacteristic,
			Message: fmt.Sprintf("unknown characteristic %q", raw.Characteristic),
		})
	}

	mat, matOK := parseMaterial(raw.Material)
	if !matOK {
		errs = append(errs, FieldError{
			Field:   "material",
			Code:    CodeIncompatibleModifier,
			Message: fmt.Sprintf("unknown material condition %q", raw.Material),
		})
	} else if known && mat != RFS && !sizeModifierAllowed[ch] {
		errs = append(errs, FieldError{
			Field:   "material",
			Code:    CodeIncompatibleModifier,
			Message: fmt.Sprintf("%s is not allowed on %s", mat, ch),
		})
	}

	zone := ZoneTotalWide
	if raw.Cylindrical {
		zone = ZoneCylindrical
		if known && !cylindricalZoneAllowed[ch] {
			errs = append(errs, FieldError{
				Field:   "zone",
				Code:    CodeIncompatibleZoneShape,
				Message: fmt.Sprintf("cylindrical zone is not allowed on %s", ch),
			})
		}
	}

	// 基准规则：数量上限、标签语法、框内查重、按分类的最少数量
	if len(raw.Datums) > maxDatumReferences {
		errs = append(errs, FieldError{
			Field:   "datums",
			Code:    CodeTooManyDatumReferences,
			Message: fmt.Sprintf("at most %d datum references are allowed", maxDatumReferences),
		})
	}
	seen := map[string]bool{}
	datums := make([]DatumReference, 0, len(raw.Datums))
	for i, rd := range raw.Datums {
		label := strings.ToUpper(strings.TrimSpace(rd.Label))
		if !validDatumLabel(label) {
			errs = append(errs, FieldError{
				Field:   fmt.Sprintf("datums[%d]", i),
				Code:    CodeInvalidDatumLabel,
				Message: fmt.Sprintf("datum label %q must be 1-2 uppercase letters (I, O, Q excluded)", rd.Label),
			})
			continue
		}
		if seen[label] {
			errs = append(errs, FieldError{
				Field:   fmt.Sprintf("datums[%d]", i),
				Code:    CodeDuplicateDatum,
				Message: fmt.Sprintf("datum %s referenced more than once", label),
			})
			continue
		}
		seen[label] = true
		dm, ok := parseMaterial(rd.Material)
		if !ok {
			errs = append(errs, FieldError{
				Field:   fmt.Sprintf("datums[%d]", i),
				Code:    CodeIncompatibleModifier,
				Message: fmt.Sprintf("unknown datum material condition %q", rd.Material),
			})
			continue
		}
		datums = append(datums, DatumReference{Label: label, Material: dm})
	}
	if known && len(raw.Datums) == 0 {
		switch class {
		case ClassOrientation, ClassLocation, ClassRunout:
			errs = append(errs, FieldError{
				Field:   "datums",
				Code:    CodeMissingDatumReference,
				Message: fmt.Sprintf("%s requires at least one datum reference", ch),
			})
		}
	}

	if len(errs) > 0 {
		return nil, errs
	}
	return &FeatureControlFrame{
		Characteristic: ch,
		Tolerance:      tol,
		Zone:           zone,
		Material:       mat,
		Datums:         datums,
	}, nil
}
