package gdt

import (
	"testing"
)

func mustBuild(t *testing.T, raw RawFrame) *FeatureControlFrame {
	t.Helper()
	f, errs := Build(raw)
	if errs != nil {
		t.Fatalf("Build(%+v) failed: %v", raw, errs)
	}
	return f
}

func TestRender(t *testing.T) {
	tests := []struct {
		name string
		raw  RawFrame
		want string
	}{
		{
			name: "position MMC with three datums",
			raw: RawFrame{Characteristic: "position", Tolerance: "0.1", Cylindrical: true, Material: "MMC",
				Datums: []RawDatum{{Label: "A"}, {Label: "B"}, {Label: "C"}}},
			want: "⌖ ⌀0.1 Ⓜ | A | B | C",
		},
		{
			name: "flatness plain",
			raw:  RawFrame{Characteristic: "flatness", Tolerance: "0.05"},
			want: "⏥ 0.05",
		},
		{
			name: "perpendicularity with datum modifier",
			raw: RawFrame{Characteristic: "perpendicularity", Tolerance: "0.2", Material: "LMC",
				Datums: []RawDatum{{Label: "A", Material: "MMC"}}},
			want: "⟂ 0.2 Ⓛ | AⓂ",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := mustBuild(t, tc.raw)
			if got := Render(f); got != tc.want {
				t.Errorf("Render() = %q, want %q", got, tc.want)
			}
		})
	}
}

// 往返性质：Render 输出再经 ParseShorthand+Build，语义字段必须与原框完全一致
func TestRenderRoundTrip(t *testing.T) {
	frames := []RawFrame{
		{Characteristic: "position", Tolerance: "0.1", Cylindrical: true, Material: "MMC",
			Datums: []RawDatum{{Label: "A"}, {Label: "B"}, {Label: "C"}}},
		{Characteristic: "position", Tolerance: "0.25", Material: "LMC",
			Datums: []RawDatum{{Label: "A", Material: "LMC"}, {Label: "BD"}}},
		{Characteristic: "flatness", Tolerance: "0.05"},
		{Characteristic: "profile_surface", Tolerance: "1.5",
			Datums: []RawDatum{{Label: "A"}}},
		{Characteristic: "total_runout", Tolerance: "0.02",
			Datums: []RawDatum{{Label: "D"}}},
		{Characteristic: "symmetry", Tolerance: "0.3",
			Datums: []RawDatum{{Label: "A"}}},
	}
	for _, raw := range frames {
		orig := mustBuild(t, raw)
		text := Render(orig)
		parsed, ok := ParseShorthand(text)
		if !ok {
			t.Errorf("ParseShorthand(%q) failed", text)
			continue
		}
		again := mustBuild(t, parsed)
		if !orig.Equal(again) {
			t.Errorf("round trip of %q: got %+v, want %+v", text, again, orig)
		}
	}
}

func TestParseShorthandRejectsGarbage(t *testing.T) {
	for _, s := range []string{"", "hello", "⌖", "⌖ 0.1 X", "⌖ 0.1 Ⓜ | "} {
		if _, ok := ParseShorthand(s); ok {
			t.Errorf("ParseShorthand(%q): expected failure", s)
		}
	}
}
