// 包 api：集中注册 HTTP API 路由以解耦主入口，便于后续扩展与替换
package api

import (
	"net/http"
	"os"
	"strconv"
	"time"

	"gdt-helper/internal/gdt"
	"gdt-helper/internal/gdt/knowledge"
	"gdt-helper/internal/middleware"
	"gdt-helper/internal/regioncache"
	"gdt-helper/internal/store"
	"gdt-helper/pkg/adminguard"

	"github.com/redis/go-redis/v9"
)

// envInt：读取整型环境变量，非法或缺省时回退默认值
func envInt(name string, def int) int {
	if s := os.Getenv(name); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}
	return def
}

// 构建并返回 API 路由：独立 ServeMux 便于在主入口挂载到 /api 前缀
// 破坏性路由（删除项目/图纸/标注）由 adminguard 包裹
func BuildRoutes(st *store.Store, rc *redis.Client, regions *regioncache.Cache, guard *adminguard.Guard) *http.ServeMux {
	uploadDir := os.Getenv("UPLOAD_DIR")
	if uploadDir == "" {
		uploadDir = "data/uploads"
	}
	maxUpload := int64(envInt("MAX_UPLOAD_MB", 25)) * 1024 * 1024
	uploadBucket := middleware.NewMinuteBucket(envInt("UPLOAD_RATE_LIMIT_PER_MIN", 10))
	insightsTTL := time.Duration(envInt("INSIGHTS_CACHE_TTL_SECONDS", 300)) * time.Second
	var defaultSpread gdt.Dec4
	if s := os.Getenv("DEFAULT_SIZE_SPREAD"); s != "" {
		if v, err := gdt.ParseDec4(s); err == nil && v > 0 {
			defaultSpread = v
		}
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /projects", handleProjectList(st))
	mux.HandleFunc("POST /projects", handleProjectCreate(st))
	mux.HandleFunc("GET /projects/{id}", handleProjectGet(st))
	mux.HandleFunc("PUT /projects/{id}", handleProjectUpdate(st))
	mux.Handle("DELETE /projects/{id}", guard.Wrap(handleProjectDelete(st)))

	mux.HandleFunc("GET /projects/{id}/drawings", handleDrawingList(st))
	mux.HandleFunc("POST /projects/{id}/drawings", handleDrawingUpload(st, uploadDir, maxUpload, uploadBucket))
	mux.Handle("DELETE /drawings/{id}", guard.Wrap(handleDrawingDelete(st, uploadDir)))
	mux.HandleFunc("GET /uploads/{file}", handleUploadServe(uploadDir))

	mux.HandleFunc("GET /projects/{id}/requirements", handleRequirementList(st))
	mux.HandleFunc("POST /projects/{id}/requirements", handleRequirementCreate(st, rc))
	mux.HandleFunc("GET /requirements/{id}", handleRequirementGet(st))
	mux.HandleFunc("PATCH /requirements/{id}", handleRequirementUpdate(st, rc))
	mux.Handle("DELETE /requirements/{id}", guard.Wrap(handleRequirementDelete(st, rc)))
	mux.HandleFunc("GET /requirements/{id}/explain", handleRequirementExplain(st))
	mux.HandleFunc("POST /requirements/{id}/bonus", handleBonus(st, defaultSpread))

	mux.HandleFunc("POST /fcf/preview", handleFCFPreview())
	mux.HandleFunc("GET /projects/{id}/insights", handleInsights(st, rc, insightsTTL))

	mux.HandleFunc("GET /annotations", handleAnnotationList(st))
	mux.HandleFunc("POST /annotations", handleAnnotationCreate(st, regions))
	mux.Handle("DELETE /annotations/{id}", guard.Wrap(handleAnnotationDelete(st, regions)))
	mux.HandleFunc("GET /annotations/hit", handleAnnotationHit(regions))

	mux.HandleFunc("GET /search", handleSearch(st))
	mux.HandleFunc("GET /export/csv", handleExportCSV(st))
	mux.HandleFunc("GET /symbols", handleSymbols())
	mux.HandleFunc("GET /stats", handleStats(st))

	return mux
}

func handleSearch(st *store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		var projectID int64
		if s := q.Get("project_id"); s != "" {
			if n, err := strconv.ParseInt(s, 10, 64); err == nil && n > 0 {
				projectID = n
			}
		}
		rows, err := st.SearchRequirements(r.Context(), q.Get("q"), q.Get("symbol"), projectID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "search failed")
			return
		}
		out := make([]requirementResult, 0, len(rows))
		for i := range rows {
			out = append(out, toRequirementResult(&rows[i]))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// handleSymbols：返回内嵌符号知识目录；目录在编译期打包，加载一次后复用
func handleSymbols() http.HandlerFunc {
	cat, err := knowledge.Load()
	return func(w http.ResponseWriter, r *http.Request) {
		if err != nil {
			writeError(w, http.StatusInternalServerError, "symbol catalog unavailable")
			return
		}
		writeJSON(w, http.StatusOK, cat)
	}
}

func handleStats(st *store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		t, _ := st.GetTotals(r.Context())
		writeJSON(w, http.StatusOK, map[string]any{"total": t.Total, "today": t.Today})
	}
}
