package gdt

import (
	"testing"
)

func findByCode(fs []Finding, code string) []Finding {
	var out []Finding
	for _, f := range fs {
		if f.Code == code {
			out = append(out, f)
		}
	}
	return out
}

func TestEvaluateEmptySet(t *testing.T) {
	if got := Evaluate(nil); len(got) != 0 {
		t.Fatalf("expected no findings, got %v", got)
	}
	if got := Evaluate([]RequirementFrame{}); len(got) != 0 {
		t.Fatalf("expected no findings, got %v", got)
	}
}

// 集合中一条对称度必须恰好产出一条弃用告警并引用该需求 ID
func TestEvaluateDeprecatedSymmetry(t *testing.T) {
	set := []RequirementFrame{
		{ID: 7, Feature: "slot", Frame: mustBuild(t, RawFrame{Characteristic: "symmetry", Tolerance: "0.3",
			Datums: []RawDatum{{Label: "A"}}})},
		{ID: 8, Feature: "face", Frame: mustBuild(t, RawFrame{Characteristic: "flatness", Tolerance: "0.05"})},
	}
	got := findByCode(Evaluate(set), CodeDeprecatedSymmetryConcentricity)
	if len(got) != 1 {
		t.Fatalf("expected exactly one deprecation finding, got %v", got)
	}
	if got[0].Severity != SeverityWarning {
		t.Errorf("expected warning, got %s", got[0].Severity)
	}
	if len(got[0].RequirementIDs) != 1 || got[0].RequirementIDs[0] != 7 {
		t.Errorf("expected related id [7], got %v", got[0].RequirementIDs)
	}
}

func TestEvaluateDatumPrecedenceConflict(t *testing.T) {
	set := []RequirementFrame{
		{ID: 1, Feature: "hole1", Frame: mustBuild(t, RawFrame{Characteristic: "position", Tolerance: "0.1",
			Datums: []RawDatum{{Label: "A"}, {Label: "B"}, {Label: "C"}}})},
		{ID: 2, Feature: "hole1", Frame: mustBuild(t, RawFrame{Characteristic: "perpendicularity", Tolerance: "0.2",
			Datums: []RawDatum{{Label: "B"}, {Label: "A"}, {Label: "C"}}})},
		// 不同要素上的同字母异序不应触发
		{ID: 3, Feature: "hole2", Frame: mustBuild(t, RawFrame{Characteristic: "position", Tolerance: "0.1",
			Datums: []RawDatum{{Label: "C"}, {Label: "B"}, {Label: "A"}}})},
	}
	got := findByCode(Evaluate(set), CodeDatumPrecedenceConflict)
	if len(got) != 1 {
		t.Fatalf("expected one precedence conflict, got %v", got)
	}
	if got[0].RequirementIDs[0] != 1 || got[0].RequirementIDs[1] != 2 {
		t.Errorf("expected ids [1 2], got %v", got[0].RequirementIDs)
	}
}

func TestEvaluateMissingMMCOnSizeFeature(t *testing.T) {
	set := []RequirementFrame{
		{ID: 1, Feature: "hole1", FeatureOfSize: true,
			Frame: mustBuild(t, RawFrame{Characteristic: "position", Tolerance: "0.1",
				Datums: []RawDatum{{Label: "A"}}})},
		{ID: 2, Feature: "hole2", FeatureOfSize: true,
			Frame: mustBuild(t, RawFrame{Characteristic: "position", Tolerance: "0.1", Material: "MMC",
				Datums: []RawDatum{{Label: "A"}}})},
		{ID: 3, Feature: "edge", FeatureOfSize: false,
			Frame: mustBuild(t, RawFrame{Characteristic: "position", Tolerance: "0.1",
				Datums: []RawDatum{{Label: "A"}}})},
	}
	got := findByCode(Evaluate(set), CodeMissingMMCOnSizeFeature)
	if len(got) != 1 {
		t.Fatalf("expected one advisory, got %v", got)
	}
	if got[0].Severity != SeverityInfo {
		t.Errorf("expected info severity, got %s", got[0].Severity)
	}
	if got[0].RequirementIDs[0] != 1 {
		t.Errorf("expected id 1, got %v", got[0].RequirementIDs)
	}
}

func TestEvaluateDuplicateRequirement(t *testing.T) {
	raw := RawFrame{Characteristic: "position", Tolerance: "0.1", Cylindrical: true, Material: "MMC",
		Datums: []RawDatum{{Label: "A"}, {Label: "B"}}}
	other := RawFrame{Characteristic: "position", Tolerance: "0.2", Cylindrical: true, Material: "MMC",
		Datums: []RawDatum{{Label: "A"}, {Label: "B"}}}
	set := []RequirementFrame{
		{ID: 1, Feature: "hole1", Frame: mustBuild(t, raw)},
		{ID: 2, Feature: "hole1", Frame: mustBuild(t, raw)},
		{ID: 3, Feature: "hole1", Frame: mustBuild(t, other)}, // 公差不同，不算重复
	}
	got := findByCode(Evaluate(set), CodeDuplicateRequirement)
	if len(got) != 1 {
		t.Fatalf("expected one duplicate finding, got %v", got)
	}
	if got[0].RequirementIDs[0] != 1 || got[0].RequirementIDs[1] != 2 {
		t.Errorf("expected ids [1 2], got %v", got[0].RequirementIDs)
	}
}

func TestEvaluateOverconstrainedDatumFrame(t *testing.T) {
	// 同一要素被两套互不相交的基准框定位
	set := []RequirementFrame{
		{ID: 1, Feature: "boss", Frame: mustBuild(t, RawFrame{Characteristic: "position", Tolerance: "0.1",
			Datums: []RawDatum{{Label: "A"}, {Label: "B"}}})},
		{ID: 2, Feature: "boss", Frame: mustBuild(t, RawFrame{Characteristic: "perpendicularity", Tolerance: "0.2",
			Datums: []RawDatum{{Label: "D"}, {Label: "E"}}})},
	}
	got := findByCode(Evaluate(set), CodeOverconstrainedDatumFrame)
	if len(got) != 1 {
		t.Fatalf("expected one overconstraint finding, got %v", got)
	}

	// 超过三级基准的框（绕过 Build 直接构造原始集合）
	over := &FeatureControlFrame{
		Characteristic: Position, Tolerance: 1000, Zone: ZoneTotalWide, Material: RFS,
		Datums: []DatumReference{
			{Label: "A", Material: RFS}, {Label: "B", Material: RFS},
			{Label: "C", Material: RFS}, {Label: "D", Material: RFS},
		},
	}
	got = findByCode(Evaluate([]RequirementFrame{{ID: 9, Feature: "x", Frame: over}}), CodeOverconstrainedDatumFrame)
	if len(got) != 1 {
		t.Fatalf("expected one overconstraint finding for >3 datums, got %v", got)
	}
}

// 输出顺序：告警在前提示在后，同级按声明顺序
func TestEvaluateOrdering(t *testing.T) {
	set := []RequirementFrame{
		{ID: 1, Feature: "hole1", FeatureOfSize: true,
			Frame: mustBuild(t, RawFrame{Characteristic: "position", Tolerance: "0.1",
				Datums: []RawDatum{{Label: "A"}}})},
		{ID: 2, Feature: "slot", Frame: mustBuild(t, RawFrame{Characteristic: "symmetry", Tolerance: "0.3",
			Datums: []RawDatum{{Label: "A"}}})},
		{ID: 3, Feature: "bore", Frame: mustBuild(t, RawFrame{Characteristic: "concentricity", Tolerance: "0.2",
			Datums: []RawDatum{{Label: "A"}}})},
	}
	got := Evaluate(set)
	if len(got) != 3 {
		t.Fatalf("expected 3 findings, got %v", got)
	}
	if got[0].Code != CodeDeprecatedSymmetryConcentricity || got[0].RequirementIDs[0] != 2 {
		t.Errorf("expected first finding to be the id-2 warning, got %+v", got[0])
	}
	if got[1].RequirementIDs[0] != 3 {
		t.Errorf("expected second finding to be the id-3 warning, got %+v", got[1])
	}
	if got[2].Severity != SeverityInfo {
		t.Errorf("expected the advisory last, got %+v", got[2])
	}
}

// 引擎从不报错：畸形集合（nil 框、空要素名）只会被跳过
func TestEvaluateDegenerateSet(t *testing.T) {
	set := []RequirementFrame{
		{ID: 1},
		{ID: 2, Feature: "hole1"},
	}
	if got := Evaluate(set); len(got) != 0 {
		t.Fatalf("expected no findings, got %v", got)
	}
}
