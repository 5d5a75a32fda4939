// 包 gdt：GD&T 语义核心（特征控制框模型、校验、奖励公差、规则洞察、文本渲染）
// 背景：纯内存计算，无 I/O 与共享状态；上层 HTTP/存储仅做编排，域逻辑全部集中在此
// 约束：所有公开操作只返回结果或结构化错误，不允许 panic 影响外层请求
package gdt

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Characteristic：十四种几何特征符号的稳定键名（与存储层 symbol 字段一致）
type Characteristic string

const (
	Straightness     Characteristic = "straightness"
	Flatness         Characteristic = "flatness"
	Circularity      Characteristic = "circularity"
	Cylindricity     Characteristic = "cylindricity"
	ProfileLine      Characteristic = "profile_line"
	ProfileSurface   Characteristic = "profile_surface"
	Angularity       Characteristic = "angularity"
	Perpendicularity Characteristic = "perpendicularity"
	Parallelism      Characteristic = "parallelism"
	Position         Characteristic = "position"
	Concentricity    Characteristic = "concentricity"
	Symmetry         Characteristic = "symmetry"
	CircularRunout   Characteristic = "circular_runout"
	TotalRunout      Characteristic = "total_runout"
)

// CharClass：特征分类，决定基准数量规则与修饰符兼容性
type CharClass int

const (
	ClassForm CharClass = iota
	ClassProfile
	ClassOrientation
	ClassLocation
	ClassRunout
)

// characteristicClass：特征 → 分类的固定表
// 背景：以声明式查表取代按特征派生类型，便于穷举测试
var characteristicClass = map[Characteristic]CharClass{
	Straightness:     ClassForm,
	Flatness:         ClassForm,
	Circularity:      ClassForm,
	Cylindricity:     ClassForm,
	ProfileLine:      ClassProfile,
	ProfileSurface:   ClassProfile,
	Angularity:       ClassOrientation,
	Perpendicularity: ClassOrientation,
	Parallelism:      ClassOrientation,
	Position:         ClassLocation,
	Concentricity:    ClassLocation,
	Symmetry:         ClassLocation,
	CircularRunout:   ClassRunout,
	TotalRunout:      ClassRunout,
}

// Class：返回特征分类；未知特征返回 ClassForm 与 false
func (c Characteristic) Class() (CharClass, bool) {
	cl, ok := characteristicClass[c]
	return cl, ok
}

// Known：特征键是否为十四种符号之一
func (c Characteristic) Known() bool {
	_, ok := characteristicClass[c]
	return ok
}

// ZoneShape：公差带形态；默认 total_wide（平面/全宽带），cylindrical 仅限位置族
type ZoneShape string

const (
	ZoneTotalWide   ZoneShape = "total_wide"
	ZoneCylindrical ZoneShape = "cylindrical"
)

// MaterialCondition：材料状态修饰符；默认 RFS
type MaterialCondition string

const (
	RFS MaterialCondition = "RFS"
	MMC MaterialCondition = "MMC"
	LMC MaterialCondition = "LMC"
)

// cylindricalZoneAllowed：特征 × 柱面公差带兼容表
// 约束：仅位置与同轴类特征允许 ⌀ 柱面带；其余特征为平面带
var cylindricalZoneAllowed = map[Characteristic]bool{
	Position:      true,
	Concentricity: true,
}

// sizeModifierAllowed：特征 × MMC/LMC 兼容表
// 背景：MMC/LMC 仅对控制尺寸要素的特征有意义；形状类特征（直线度/平面度/圆度/圆柱度）
// 与跳动、对称/同轴一律非法，按 ASME Y14.5 只在 RFS 下检验
var sizeModifierAllowed = map[Characteristic]bool{
	Position:         true,
	ProfileLine:      true,
	ProfileSurface:   true,
	Angularity:       true,
	Perpendicularity: true,
	Parallelism:      true,
}

// SizeModifierAllowed：查询特征是否允许 MMC/LMC（供规则引擎与上层共用同一张表）
func SizeModifierAllowed(c Characteristic) bool { return sizeModifierAllowed[c] }

// DatumReference：单条基准引用；顺序即优先级（第一/第二/第三基准），语义敏感不得重排
type DatumReference struct {
	Label    string
	Material MaterialCondition
}

// FeatureControlFrame：校验通过后的特征控制框，构建后不可变
// 约束：只能经 Build/ParseShorthand 获得；任何编辑都要重新走完整校验
type FeatureControlFrame struct {
	Characteristic Characteristic
	Tolerance      Dec4
	Zone           ZoneShape
	Material       MaterialCondition
	Datums         []DatumReference
}

// Equal：语义字段逐项比较（往返解析与查重规则共用）
func (f *FeatureControlFrame) Equal(o *FeatureControlFrame) bool {
	if f == nil || o == nil {
		return f == o
	}
	if f.Characteristic != o.Characteristic || f.Tolerance != o.Tolerance ||
		f.Zone != o.Zone || f.Material != o.Material || len(f.Datums) != len(o.Datums) {
		return false
	}
	for i := range f.Datums {
		if f.Datums[i] != o.Datums[i] {
			return false
		}
	}
	return true
}

// DatumLabels：按优先级顺序返回基准字母
func (f *FeatureControlFrame) DatumLabels() []string {
	out := make([]string, 0, len(f.Datums))
	for _, d := range f.Datums {
		out = append(out, d.Label)
	}
	return out
}

// Dec4：定点小数（万分之一），对应原始字段的 NUMERIC(10,4)
// 背景：奖励公差在边界条件上需要精确比较，浮点累计误差会误判超差/封顶
type Dec4 int64

const dec4Scale = 10000

// D4：从整数部分与万分位组装 Dec4（测试与种子数据用）
func D4(units int64, tenThousandths int64) Dec4 {
	return Dec4(units*dec4Scale + tenThousandths)
}

var errBadDecimal = errors.New("bad decimal")

// ParseDec4：解析十进制文本为 Dec4
// 约束：最多四位小数，多余位拒绝而非截断；空串与非法字符返回错误
func ParseDec4(s string) (Dec4, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, errBadDecimal
	}
	neg := false
	switch s[0] {
	case '+':
		s = s[1:]
	case '-':
		neg = true
		s = s[1:]
	}
	intPart := s
	fracPart := ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		intPart, fracPart = s[:i], s[i+1:]
	}
	if intPart == "" && fracPart == "" {
		return 0, errBadDecimal
	}
	if len(fracPart) > 4 {
		return 0, errBadDecimal
	}
	var v int64
	for _, ch := range []byte(intPart) {
		if ch < '0' || ch > '9' {
			return 0, errBadDecimal
		}
		v = v*10 + int64(ch-'0')
		if v > (1<<62)/dec4Scale {
			return 0, errBadDecimal
		}
	}
	v *= dec4Scale
	mul := int64(1000)
	for _, ch := range []byte(fracPart) {
		if ch < '0' || ch > '9' {
			return 0, errBadDecimal
		}
		v += int64(ch-'0') * mul
		mul /= 10
	}
	if neg {
		v = -v
	}
	return Dec4(v), nil
}

// String：渲染为最短十进制文本（去掉尾零，至少保留一位小数为整数时省略小数点）
func (d Dec4) String() string {
	v := int64(d)
	sign := ""
	if v < 0 {
		sign = "-"
		v = -v
	}
	units := v / dec4Scale
	frac := v % dec4Scale
	if frac == 0 {
		return fmt.Sprintf("%s%d", sign, units)
	}
	s := fmt.Sprintf("%04d", frac)
	s = strings.TrimRight(s, "0")
	return fmt.Sprintf("%s%d.%s", sign, units, s)
}

// Float64：仅用于展示层换算，核心比较一律走整数
func (d Dec4) Float64() float64 { return float64(d) / dec4Scale }

// Abs：绝对值
func (d Dec4) Abs() Dec4 {
	if d < 0 {
		return -d
	}
	return d
}

// MarshalJSON：对外一律以十进制字符串呈现，不泄露定点内部表示
func (d Dec4) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// UnmarshalJSON：接受字符串或裸数字两种写法
func (d *Dec4) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	v, err := ParseDec4(s)
	if err != nil {
		return err
	}
	*d = v
	return nil
}
