package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"gdt-helper/internal/hittest"
	"gdt-helper/internal/metrics"
	"gdt-helper/internal/regioncache"
	"gdt-helper/internal/store"
)

func handleAnnotationList(st *store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		drawingID, err := strconv.ParseInt(r.URL.Query().Get("drawing_id"), 10, 64)
		if err != nil || drawingID <= 0 {
			writeError(w, http.StatusBadRequest, "drawing_id is required")
			return
		}
		as, err := st.ListAnnotations(r.Context(), drawingID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "list failed")
			return
		}
		out := make([]annotationResult, 0, len(as))
		for i := range as {
			out = append(out, toAnnotationResult(&as[i]))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func handleAnnotationCreate(st *store.Store, regions *regioncache.Cache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in annotationPayload
		if !readJSON(w, r, &in) {
			return
		}
		if in.DrawingID <= 0 || in.RequirementID <= 0 {
			writeError(w, http.StatusBadRequest, "drawing_id and requirement_id are required")
			return
		}
		kind := hittest.Kind(in.Kind)
		if kind != hittest.KindBox && kind != hittest.KindPolygon {
			writeError(w, http.StatusBadRequest, "kind must be box or polygon")
			return
		}
		if in.Page <= 0 {
			in.Page = 1
		}
		a := store.Annotation{
			DrawingID:     in.DrawingID,
			RequirementID: in.RequirementID,
			Page:          in.Page,
			Kind:          in.Kind,
			X:             in.X, Y: in.Y, W: in.W, H: in.H,
			ZOrder: in.ZOrder,
		}
		if kind == hittest.KindPolygon {
			// 顶点必须是合法 JSON 数组；少于三点入库但命中层按未命中处理
			var pts []hittest.Point
			if err := json.Unmarshal(in.Points, &pts); err != nil {
				writeError(w, http.StatusBadRequest, "points must be an array of {x,y}")
				return
			}
			b, _ := json.Marshal(pts)
			a.Points = string(b)
		}
		if err := st.CreateAnnotation(r.Context(), &a); err != nil {
			writeError(w, http.StatusInternalServerError, "create failed")
			return
		}
		regions.Invalidate(a.DrawingID)
		writeJSON(w, http.StatusCreated, toAnnotationResult(&a))
	}
}

func handleAnnotationDelete(st *store.Store, regions *regioncache.Cache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r, "id")
		if !ok {
			return
		}
		// 先查 drawing_id 以便精确失效快照
		cur, err := st.GetAnnotation(r.Context(), id)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "get failed")
			return
		}
		if cur == nil {
			writeError(w, http.StatusNotFound, "annotation not found")
			return
		}
		if _, err := st.DeleteAnnotation(r.Context(), id); err != nil {
			writeError(w, http.StatusInternalServerError, "delete failed")
			return
		}
		regions.Invalidate(cur.DrawingID)
		w.WriteHeader(http.StatusNoContent)
	}
}

// handleAnnotationHit：把一次页面点击解析为需求
// 查询参数：drawing_id、page（1 起始，缺省 1）、x、y（归一化坐标）、nearest=true 时
// 未命中会回退到最近区域提示
func handleAnnotationHit(regions *regioncache.Cache) http.HandlerFunc {
	type hitResult struct {
		Primary *hittest.Match  `json:"primary"`
		Matches []hittest.Match `json:"matches"`
		Nearest *hittest.Match  `json:"nearest,omitempty"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		drawingID, err := strconv.ParseInt(q.Get("drawing_id"), 10, 64)
		if err != nil || drawingID <= 0 {
			writeError(w, http.StatusBadRequest, "drawing_id is required")
			return
		}
		page := 1
		if s := q.Get("page"); s != "" {
			if n, err := strconv.Atoi(s); err == nil && n > 0 {
				page = n
			}
		}
		x, errX := strconv.ParseFloat(q.Get("x"), 64)
		y, errY := strconv.ParseFloat(q.Get("y"), 64)
		if errX != nil || errY != nil {
			writeError(w, http.StatusBadRequest, "x and y are required")
			return
		}
		rs, err := regions.Regions(r.Context(), drawingID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "region snapshot unavailable")
			return
		}
		res := hittest.Resolve(page, hittest.Point{X: x, Y: y}, rs)
		metrics.HitTestsTotal.Inc()
		out := hitResult{Primary: res.Primary, Matches: res.Matches}
		if out.Matches == nil {
			out.Matches = []hittest.Match{}
		}
		if res.Primary == nil {
			metrics.HitEmptyTotal.Inc()
			if q.Get("nearest") == "true" {
				out.Nearest = hittest.Nearest(page, hittest.Point{X: x, Y: y}, rs)
			}
		}
		writeJSON(w, http.StatusOK, out)
	}
}
