package gdt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func positionMMC(t *testing.T, tol string) *FeatureControlFrame {
	t.Helper()
	return mustBuild(t, RawFrame{Characteristic: "position", Tolerance: tol, Cylindrical: true,
		Material: "MMC", Datums: []RawDatum{{Label: "A"}, {Label: "B"}, {Label: "C"}}})
}

// 孔 ⌀10，极限 [9.9, 10.0]，位置度 0.1 Ⓜ，实测 9.95 → 奖励 0.05，总许用 0.15，虚拟状态 9.8
func TestComputeBonusHoleAtMMC(t *testing.T) {
	f := positionMMC(t, "0.1")
	actual := D4(9, 9500)
	res, err := ComputeBonus(f, FeatureSize{
		Type:    FeatureInternal,
		Nominal: D4(10, 0),
		Actual:  &actual,
		Limits:  &SizeLimits{Low: D4(9, 9000), High: D4(10, 0)},
	}, CalcOptions{})
	require.NoError(t, err)
	assert.Equal(t, D4(0, 500), res.Bonus)
	assert.Equal(t, D4(0, 1500), res.TotalAllowable)
	assert.Equal(t, D4(9, 8000), res.VirtualCondition)
	assert.False(t, res.AtBasicSizeOnly)
}

// 轴类 MMC 控制上限：⌀10 轴，极限 [9.9, 10.0]，实测 9.95 → 奖励同样 0.05，虚拟状态 10.1
func TestComputeBonusShaftAtMMC(t *testing.T) {
	f := positionMMC(t, "0.1")
	actual := D4(9, 9500)
	res, err := ComputeBonus(f, FeatureSize{
		Type:    FeatureExternal,
		Nominal: D4(10, 0),
		Actual:  &actual,
		Limits:  &SizeLimits{Low: D4(9, 9000), High: D4(10, 0)},
	}, CalcOptions{})
	require.NoError(t, err)
	assert.Equal(t, D4(0, 500), res.Bonus)
	assert.Equal(t, D4(10, 1000), res.VirtualCondition)
}

// RFS 性质：无论尺寸输入如何，奖励恒为 0 且直接短路（缺类型/缺极限也不报错）
func TestComputeBonusRFSAlwaysZero(t *testing.T) {
	f := mustBuild(t, RawFrame{Characteristic: "position", Tolerance: "0.1",
		Datums: []RawDatum{{Label: "A"}}})
	sizes := []FeatureSize{
		{},
		{Type: FeatureInternal, Nominal: D4(10, 0)},
		{Type: FeatureExternal, Nominal: D4(5, 0), Limits: &SizeLimits{Low: D4(4, 9000), High: D4(5, 1000)}},
	}
	for _, fs := range sizes {
		res, err := ComputeBonus(f, fs, CalcOptions{})
		require.NoError(t, err)
		assert.Equal(t, Dec4(0), res.Bonus)
		assert.Equal(t, f.Tolerance, res.TotalAllowable)
	}
}

func TestComputeBonusLMCHole(t *testing.T) {
	f := mustBuild(t, RawFrame{Characteristic: "position", Tolerance: "0.1", Cylindrical: true,
		Material: "LMC", Datums: []RawDatum{{Label: "A"}}})
	// 孔 LMC 控制上限；实测压在下限 → 奖励到顶 = 尺寸公差带宽度
	actual := D4(9, 9000)
	res, err := ComputeBonus(f, FeatureSize{
		Type:   FeatureInternal,
		Actual: &actual,
		Limits: &SizeLimits{Low: D4(9, 9000), High: D4(10, 0)},
	}, CalcOptions{})
	require.NoError(t, err)
	assert.Equal(t, D4(0, 1000), res.Bonus)
	assert.Equal(t, D4(0, 2000), res.TotalAllowable)
	// LMC 虚拟状态向放松方向：10.0 + 0.1
	assert.Equal(t, D4(10, 1000), res.VirtualCondition)
}

func TestComputeBonusAtBasicSizeOnly(t *testing.T) {
	f := positionMMC(t, "0.1")
	res, err := ComputeBonus(f, FeatureSize{
		Type:   FeatureInternal,
		Limits: &SizeLimits{Low: D4(9, 9000), High: D4(10, 0)},
	}, CalcOptions{})
	require.NoError(t, err)
	assert.True(t, res.AtBasicSizeOnly)
	assert.Equal(t, Dec4(0), res.Bonus)
	assert.Equal(t, f.Tolerance, res.TotalAllowable)
	assert.Equal(t, D4(9, 8000), res.VirtualCondition)
}

func TestComputeBonusErrors(t *testing.T) {
	f := positionMMC(t, "0.1")
	actual := D4(10, 500)

	tests := []struct {
		name string
		fs   FeatureSize
		opt  CalcOptions
		code string
	}{
		{
			name: "missing feature type",
			fs:   FeatureSize{Limits: &SizeLimits{Low: D4(9, 9000), High: D4(10, 0)}},
			code: CodeMissingFeatureType,
		},
		{
			name: "missing limits without default spread",
			fs:   FeatureSize{Type: FeatureInternal, Nominal: D4(10, 0)},
			code: CodeMissingSizeLimits,
		},
		{
			name: "inverted limits",
			fs:   FeatureSize{Type: FeatureInternal, Limits: &SizeLimits{Low: D4(10, 0), High: D4(9, 9000)}},
			code: CodeInvalidSizeLimits,
		},
		{
			name: "actual outside limits",
			fs: FeatureSize{Type: FeatureInternal, Actual: &actual,
				Limits: &SizeLimits{Low: D4(9, 9000), High: D4(10, 0)}},
			code: CodeOutOfSizeLimits,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ComputeBonus(f, tc.fs, tc.opt)
			require.Error(t, err)
			var ce *CalcError
			require.ErrorAs(t, err, &ce)
			assert.Equal(t, tc.code, ce.Code)
		})
	}
}

// 极限缺省时按 nominal ± 配置缺省带宽推导
func TestComputeBonusDefaultSpread(t *testing.T) {
	f := positionMMC(t, "0.1")
	actual := D4(10, 0)
	res, err := ComputeBonus(f, FeatureSize{
		Type:    FeatureInternal,
		Nominal: D4(10, 0),
		Actual:  &actual,
	}, CalcOptions{DefaultSpread: D4(0, 500)})
	require.NoError(t, err)
	// 推导极限 [9.95, 10.05]，MMC 取 9.95，奖励 = 0.05
	assert.Equal(t, D4(0, 500), res.Bonus)
}
