package gdt

// 文档注释：材料状态奖励公差计算
// 背景：MMC/LMC 下实测尺寸偏离控制界限即产生奖励公差；孔类与轴类的界限含义相反，
// 因此要素类型（internal/external）是必填输入而非推断，避免方向悄然取反
// 约束：仅对符号声明与声明尺寸推理，不校验实物测量链路

// FeatureType：要素类型；internal 为孔类（包容空间），external 为轴类（被包容实体）
type FeatureType string

const (
	FeatureInternal FeatureType = "internal"
	FeatureExternal FeatureType = "external"
)

// SizeLimits：尺寸上下极限
type SizeLimits struct {
	Low  Dec4
	High Dec4
}

// FeatureSize：计算输入（核心不持久化）
// 约束：Limits 缺省时由 nominal ± CalcOptions.DefaultSpread 推导；两者皆缺则报错
type FeatureSize struct {
	Type    FeatureType
	Nominal Dec4
	Actual  *Dec4
	Limits  *SizeLimits
}

// CalcOptions：计算配置；DefaultSpread<=0 表示必须显式给出极限
type CalcOptions struct {
	DefaultSpread Dec4
}

// 计算错误码：对外稳定标识
const (
	CodeMissingFeatureType = "missing_feature_type"
	CodeMissingSizeLimits  = "missing_size_limits"
	CodeInvalidSizeLimits  = "invalid_size_limits"
	CodeOutOfSizeLimits    = "out_of_size_limits"
)

// CalcError：计算失败的结构化错误（可恢复，上层直接转为用户提示）
type CalcError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *CalcError) Error() string { return e.Code + ": " + e.Message }

// BonusResult：一次计算的完整输出
type BonusResult struct {
	Tolerance        Dec4 `json:"tolerance"`
	Bonus            Dec4 `json:"bonus"`
	TotalAllowable   Dec4 `json:"total_allowable"`
	VirtualCondition Dec4 `json:"virtual_condition"`
	AtBasicSizeOnly  bool `json:"at_basic_size_only"`
}

// governingLimit：按要素类型与修饰符确定控制界限
// 孔类 MMC 取下限（孔最小时材料最多），轴类 MMC 取上限；LMC 与之相反
func governingLimit(t FeatureType, m MaterialCondition, lim SizeLimits) Dec4 {
	if (t == FeatureInternal) == (m == MMC) {
		return lim.Low
	}
	return lim.High
}

// ComputeBonus：计算奖励公差、总许用公差与虚拟状态
// 背景：RFS 按定义奖励恒为 0，直接短路返回；实测缺省时只回报声明公差并置
// AtBasicSizeOnly；实测超出尺寸极限报 out_of_size_limits（超差要素无奖励可言）
func ComputeBonus(f *FeatureControlFrame, fs FeatureSize, opt CalcOptions) (*BonusResult, error) {
	if f.Material == RFS {
		return &BonusResult{
			Tolerance:       f.Tolerance,
			Bonus:           0,
			TotalAllowable:  f.Tolerance,
			AtBasicSizeOnly: fs.Actual == nil,
		}, nil
	}

	if fs.Type != FeatureInternal && fs.Type != FeatureExternal {
		return nil, &CalcError{Code: CodeMissingFeatureType,
			Message: "feature type (internal/external) is required for MMC/LMC"}
	}
	var lim SizeLimits
	switch {
	case fs.Limits != nil:
		lim = *fs.Limits
	case opt.DefaultSpread > 0:
		lim = SizeLimits{Low: fs.Nominal - opt.DefaultSpread, High: fs.Nominal + opt.DefaultSpread}
	default:
		return nil, &CalcError{Code: CodeMissingSizeLimits,
			Message: "size limits are required (no default spread configured)"}
	}
	if lim.Low > lim.High {
		return nil, &CalcError{Code: CodeInvalidSizeLimits,
			Message: "lower size limit exceeds upper size limit"}
	}

	governing := governingLimit(fs.Type, f.Material, lim)
	// 虚拟状态：MMC 向收紧方向叠加声明公差，LMC 向放松方向；
	// 两种情况合并后方向只取决于控制界限是上限还是下限
	vc := governing + f.Tolerance
	if governing == lim.Low {
		vc = governing - f.Tolerance
	}

	if fs.Actual == nil {
		return &BonusResult{
			Tolerance:        f.Tolerance,
			Bonus:            0,
			TotalAllowable:   f.Tolerance,
			VirtualCondition: vc,
			AtBasicSizeOnly:  true,
		}, nil
	}
	actual := *fs.Actual
	if actual < lim.Low || actual > lim.High {
		return nil, &CalcError{Code: CodeOutOfSizeLimits,
			Message: "actual size " + actual.String() + " is outside [" + lim.Low.String() + ", " + lim.High.String() + "]"}
	}

	// 奖励 = 实测偏离控制界限的量，封顶为尺寸公差带宽度；到顶不是错误而是最大合法奖励
	bonus := (actual - governing).Abs()
	if spread := lim.High - lim.Low; bonus > spread {
		bonus = spread
	}
	return &BonusResult{
		Tolerance:        f.Tolerance,
		Bonus:            bonus,
		TotalAllowable:   f.Tolerance + bonus,
		VirtualCondition: vc,
		AtBasicSizeOnly:  false,
	}, nil
}
