package hittest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func box(id, req int64, x, y, w, h float64, z int) Region {
	return Region{ID: id, Page: 1, Kind: KindBox, Box: Box{X: x, Y: y, W: w, H: h}, RequirementID: req, ZOrder: z}
}

func poly(id, req int64, z int, pts ...Point) Region {
	return Region{ID: id, Page: 1, Kind: KindPolygon, Polygon: pts, RequirementID: req, ZOrder: z}
}

func TestResolveBoxInclusiveBounds(t *testing.T) {
	regions := []Region{box(1, 10, 100, 100, 50, 40, 0)}

	for _, p := range []Point{{100, 100}, {150, 140}, {125, 120}} {
		res := Resolve(1, p, regions)
		require.NotNil(t, res.Primary, "point %v should hit", p)
		assert.Equal(t, int64(1), res.Primary.RegionID)
		assert.Equal(t, int64(10), res.Primary.RequirementID)
	}
	for _, p := range []Point{{99.9, 120}, {150.1, 120}, {125, 99.9}, {125, 140.1}} {
		res := Resolve(1, p, regions)
		assert.Nil(t, res.Primary, "point %v should miss", p)
		assert.Empty(t, res.Matches)
	}
}

// 点在多边形内且在所有矩形外：命中该多边形所属需求
func TestResolvePolygonOnly(t *testing.T) {
	regions := []Region{
		box(1, 10, 0, 0, 50, 50, 0),
		poly(2, 20, 0, Point{100, 100}, Point{200, 100}, Point{200, 200}, Point{100, 200}),
	}
	res := Resolve(1, Point{150, 150}, regions)
	require.NotNil(t, res.Primary)
	assert.Equal(t, int64(2), res.Primary.RegionID)
	assert.Equal(t, int64(20), res.Primary.RequirementID)
	assert.Len(t, res.Matches, 1)
}

// 凹多边形：射线法必须正确处理凹口外的点
func TestResolveConcavePolygon(t *testing.T) {
	// 一个 C 形
	c := poly(1, 10, 0,
		Point{0, 0}, Point{100, 0}, Point{100, 20},
		Point{20, 20}, Point{20, 80}, Point{100, 80},
		Point{100, 100}, Point{0, 100})
	regions := []Region{c}

	res := Resolve(1, Point{10, 50}, regions)
	require.NotNil(t, res.Primary, "inside the spine")

	res = Resolve(1, Point{60, 50}, regions)
	assert.Nil(t, res.Primary, "inside the notch is outside the region")
}

// 重叠区域：zOrder 高者为主命中，两者都进 Matches
func TestResolveOverlapZOrder(t *testing.T) {
	regions := []Region{
		box(1, 10, 0, 0, 100, 100, 1),
		box(2, 20, 50, 50, 100, 100, 2),
	}
	res := Resolve(1, Point{75, 75}, regions)
	require.NotNil(t, res.Primary)
	assert.Equal(t, int64(2), res.Primary.RegionID)
	require.Len(t, res.Matches, 2)
	assert.Equal(t, int64(2), res.Matches[0].RegionID)
	assert.Equal(t, int64(1), res.Matches[1].RegionID)
}

// 矩形与多边形覆盖同一点：zOrder 高者为主命中，相同时 RegionID 大者胜出
func TestResolveOverlapBoxAndPolygon(t *testing.T) {
	tri := []Point{{40, 40}, {120, 40}, {80, 120}}

	regions := []Region{
		box(1, 10, 0, 0, 100, 100, 1),
		poly(2, 20, 3, tri...),
	}
	res := Resolve(1, Point{75, 75}, regions)
	require.NotNil(t, res.Primary)
	assert.Equal(t, int64(2), res.Primary.RegionID)
	require.Len(t, res.Matches, 2)
	assert.Equal(t, int64(2), res.Matches[0].RegionID)
	assert.Equal(t, int64(1), res.Matches[1].RegionID)

	regions = []Region{
		box(3, 10, 0, 0, 100, 100, 5),
		poly(8, 20, 5, tri...),
	}
	res = Resolve(1, Point{75, 75}, regions)
	require.NotNil(t, res.Primary)
	assert.Equal(t, int64(8), res.Primary.RegionID, "equal z falls back to higher region id")
	assert.Len(t, res.Matches, 2)
}

// 同 zOrder 并列：RegionID 大者（后创建）为主命中
func TestResolveTieBreakByRegionID(t *testing.T) {
	regions := []Region{
		box(1, 10, 0, 0, 100, 100, 5),
		box(7, 70, 0, 0, 100, 100, 5),
	}
	res := Resolve(1, Point{50, 50}, regions)
	require.NotNil(t, res.Primary)
	assert.Equal(t, int64(7), res.Primary.RegionID)
}

func TestResolvePageFilter(t *testing.T) {
	r := box(1, 10, 0, 0, 100, 100, 0)
	r.Page = 2
	res := Resolve(1, Point{50, 50}, []Region{r})
	assert.Nil(t, res.Primary)
	assert.Empty(t, res.Matches)

	res = Resolve(2, Point{50, 50}, []Region{r})
	require.NotNil(t, res.Primary)
}

func TestResolveMiss(t *testing.T) {
	regions := []Region{
		box(1, 10, 0, 0, 10, 10, 0),
		poly(2, 20, 0, Point{50, 50}, Point{60, 50}, Point{60, 60}),
	}
	res := Resolve(1, Point{500, 500}, regions)
	assert.Nil(t, res.Primary)
	assert.Empty(t, res.Matches)
}

// 畸形多边形（少于三点、重合点）不会命中也不会崩
func TestResolveDegeneratePolygon(t *testing.T) {
	regions := []Region{
		poly(1, 10, 0),
		poly(2, 20, 0, Point{5, 5}),
		poly(3, 30, 0, Point{5, 5}, Point{9, 9}),
		poly(4, 40, 0, Point{5, 5}, Point{5, 5}, Point{5, 5}),
	}
	res := Resolve(1, Point{5, 5}, regions)
	assert.Nil(t, res.Primary)
	assert.Empty(t, res.Matches)
}

func TestNearest(t *testing.T) {
	regions := []Region{
		box(1, 10, 0, 0, 10, 10, 0),                                 // 锚点 (5,5)
		box(2, 20, 100, 100, 10, 10, 0),                             // 锚点 (105,105)
		poly(3, 30, 0, Point{40, 40}, Point{60, 40}, Point{50, 60}), // 质心 (50, 46.67)
	}
	m := Nearest(1, Point{52, 48}, regions)
	require.NotNil(t, m)
	assert.Equal(t, int64(3), m.RegionID)

	m = Nearest(1, Point{0, 0}, regions)
	require.NotNil(t, m)
	assert.Equal(t, int64(1), m.RegionID)

	assert.Nil(t, Nearest(3, Point{0, 0}, regions), "no regions on page 3")
	assert.Nil(t, Nearest(1, Point{0, 0}, nil))
}
