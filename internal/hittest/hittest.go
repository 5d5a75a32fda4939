// 包 hittest：标注区域命中判定
// 背景：把图纸页面上的一次点击解析为其所代表的需求；输入为只读区域快照，
// 本包不持有任何跨调用状态，可被多处请求并发调用
// 约束：坐标为页面归一化 [0,1] 空间；自相交多边形不做校验，结果尽力而为
// （文档化的限制，不做静默修正），但任何输入都不会导致崩溃
package hittest

import "sort"

// Kind：区域形态
type Kind string

const (
	KindBox     Kind = "box"
	KindPolygon Kind = "polygon"
)

// Point：归一化页面坐标
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Box：矩形区域，(X,Y) 为左上角
type Box struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// Region：一条标注区域（由外层创建，作为快照传入）
// 约束：Page 为 1 起始页码；ZOrder 默认即插入顺序，越大越晚加入
type Region struct {
	ID            int64
	Page          int
	Kind          Kind
	Box           Box
	Polygon       []Point
	RequirementID int64
	ZOrder        int
}

// Match：一次命中
type Match struct {
	RegionID      int64 `json:"region_id"`
	RequirementID int64 `json:"requirement_id"`
	ZOrder        int   `json:"z_order"`
}

// Result：命中结果；Primary 为空表示点击落在空白处（正常状态而非错误）
type Result struct {
	Primary *Match  `json:"primary"`
	Matches []Match `json:"matches"`
}

// Resolve：解析一次点击
// 算法：过滤页码 → 矩形做含边界的包含判定，多边形做 Even-Odd 射线判定 →
// 命中集按 ZOrder 降序（最晚添加者优先），同序按 RegionID 降序，保证确定性
func Resolve(page int, pt Point, regions []Region) Result {
	var matches []Match
	for _, rg := range regions {
		if rg.Page != page {
			continue
		}
		if !contains(rg, pt) {
			continue
		}
		matches = append(matches, Match{RegionID: rg.ID, RequirementID: rg.RequirementID, ZOrder: rg.ZOrder})
	}
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].ZOrder != matches[j].ZOrder {
			return matches[i].ZOrder > matches[j].ZOrder
		}
		return matches[i].RegionID > matches[j].RegionID
	})
	res := Result{Matches: matches}
	if len(matches) > 0 {
		res.Primary = &matches[0]
	}
	return res
}

// contains：单区域包含判定
func contains(rg Region, pt Point) bool {
	switch rg.Kind {
	case KindBox:
		b := rg.Box
		return pt.X >= b.X && pt.X <= b.X+b.W && pt.Y >= b.Y && pt.Y <= b.Y+b.H
	case KindPolygon:
		return pointInRing(pt, rg.Polygon)
	}
	return false
}

// pointInRing：射线法判定点是否在环内
// 约束：顶点少于三个视为退化区域直接未命中；边界临界值受数值误差影响，
// 分母加极小量避免水平边除零
func pointInRing(pt Point, ring []Point) bool {
	n := len(ring)
	if n < 3 {
		return false
	}
	inside := false
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		xi, yi := ring[i].X, ring[i].Y
		xj, yj := ring[j].X, ring[j].Y
		intersect := ((yi > pt.Y) != (yj > pt.Y)) && (pt.X < (xj-xi)*(pt.Y-yi)/(yj-yi+1e-12)+xi)
		if intersect {
			inside = !inside
		}
	}
	return inside
}

// Nearest：点击落空时返回同页最近区域（锚点距离），供界面做“是否想点这里”提示
// 锚点：矩形取中心，多边形取顶点质心；页面内无区域返回 nil
func Nearest(page int, pt Point, regions []Region) *Match {
	best := -1
	bestDist := 0.0
	for i, rg := range regions {
		if rg.Page != page {
			continue
		}
		a, ok := anchor(rg)
		if !ok {
			continue
		}
		dx, dy := a.X-pt.X, a.Y-pt.Y
		d := dx*dx + dy*dy
		if best < 0 || d < bestDist {
			best, bestDist = i, d
		}
	}
	if best < 0 {
		return nil
	}
	rg := regions[best]
	return &Match{RegionID: rg.ID, RequirementID: rg.RequirementID, ZOrder: rg.ZOrder}
}

func anchor(rg Region) (Point, bool) {
	switch rg.Kind {
	case KindBox:
		return Point{X: rg.Box.X + rg.Box.W/2, Y: rg.Box.Y + rg.Box.H/2}, true
	case KindPolygon:
		if len(rg.Polygon) == 0 {
			return Point{}, false
		}
		var sx, sy float64
		for _, p := range rg.Polygon {
			sx += p.X
			sy += p.Y
		}
		n := float64(len(rg.Polygon))
		return Point{X: sx / n, Y: sy / n}, true
	}
	return Point{}, false
}
