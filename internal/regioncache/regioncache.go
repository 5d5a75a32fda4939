// 包 regioncache：图纸标注区域的内存快照缓存
package regioncache

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"

	"gdt-helper/internal/hittest"
	"gdt-helper/internal/logger"
	"gdt-helper/internal/store"
)

// Cache：按图纸 ID 缓存命中测试所需的区域快照
// 背景：通过 atomic.Value 提供无锁读与整体换入，保障高并发点选场景下读路径不阻塞；
// 写路径（标注增删后）按图纸粒度重建并换入新快照。
// 约束：快照内容为只读；调用方不得修改返回的切片。
type Cache struct {
	st *store.Store
	v  atomic.Value // map[int64][]hittest.Region
	mu sync.Mutex   // 序列化重建，避免并发换入互相覆盖
}

func New(st *store.Store) *Cache {
	c := &Cache{st: st}
	c.v.Store(map[int64][]hittest.Region{})
	return c
}

// Regions：读路径，返回图纸的区域快照；未加载时回源数据库并换入
func (c *Cache) Regions(ctx context.Context, drawingID int64) ([]hittest.Region, error) {
	m := c.v.Load().(map[int64][]hittest.Region)
	if rs, ok := m[drawingID]; ok {
		return rs, nil
	}
	return c.Reload(ctx, drawingID)
}

// Reload：从数据库重建某图纸的快照并整体换入
// WARNING: 畸形 points 文本会被解析为空多边形而非报错，命中测试层自行容错
func (c *Cache) Reload(ctx context.Context, drawingID int64) ([]hittest.Region, error) {
	anns, err := c.st.ListAnnotations(ctx, drawingID)
	if err != nil {
		return nil, err
	}
	rs := make([]hittest.Region, 0, len(anns))
	for _, a := range anns {
		r := hittest.Region{
			ID:            a.ID,
			Page:          a.Page,
			Kind:          hittest.Kind(a.Kind),
			RequirementID: a.RequirementID,
			ZOrder:        a.ZOrder,
		}
		switch r.Kind {
		case hittest.KindBox:
			r.Box = hittest.Box{X: a.X, Y: a.Y, W: a.W, H: a.H}
		case hittest.KindPolygon:
			_ = json.Unmarshal([]byte(a.Points), &r.Polygon)
		default:
			continue
		}
		rs = append(rs, r)
	}

	c.mu.Lock()
	old := c.v.Load().(map[int64][]hittest.Region)
	next := make(map[int64][]hittest.Region, len(old)+1)
	for k, v := range old {
		next[k] = v
	}
	next[drawingID] = rs
	c.v.Store(next)
	c.mu.Unlock()
	logger.L().Debug("regioncache_reload", "drawing_id", drawingID, "regions", len(rs))
	return rs, nil
}

// Invalidate：丢弃某图纸的快照，下次读取时回源重建
func (c *Cache) Invalidate(drawingID int64) {
	c.mu.Lock()
	old := c.v.Load().(map[int64][]hittest.Region)
	if _, ok := old[drawingID]; ok {
		next := make(map[int64][]hittest.Region, len(old))
		for k, v := range old {
			if k != drawingID {
				next[k] = v
			}
		}
		c.v.Store(next)
	}
	c.mu.Unlock()
}
