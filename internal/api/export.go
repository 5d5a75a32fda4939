package api

import (
	"encoding/csv"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"gdt-helper/internal/metrics"
	"gdt-helper/internal/store"
)

// handleExportCSV：导出项目需求清单
// 列：需求 ID、要素、符号、速记文本、尺寸三列、标注页码（分号分隔的 1 基页码）、备注
// 约束：流式写出，不在内存拼整表；语料无表格库，encoding/csv 即为此处的标准做法
func handleExportCSV(st *store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		projectID, err := strconv.ParseInt(r.URL.Query().Get("project"), 10, 64)
		if err != nil || projectID <= 0 {
			writeError(w, http.StatusBadRequest, "project is required")
			return
		}
		ctx := r.Context()
		p, err := st.GetProject(ctx, projectID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "get failed")
			return
		}
		if p == nil {
			writeError(w, http.StatusNotFound, "project not found")
			return
		}
		rows, err := st.ListRequirements(ctx, projectID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "list failed")
			return
		}

		w.Header().Set("content-type", "text/csv; charset=utf-8")
		w.Header().Set("content-disposition", fmt.Sprintf("attachment; filename=%q", fmt.Sprintf("project-%d-requirements.csv", projectID)))
		cw := csv.NewWriter(w)
		_ = cw.Write([]string{"id", "feature", "characteristic", "fcf", "nominal_size", "size_low", "size_high", "pages", "notes"})
		for i := range rows {
			row := &rows[i]
			pages, _ := st.AnnotationPages(ctx, row.ID)
			ps := make([]string, 0, len(pages))
			for _, pg := range pages {
				ps = append(ps, strconv.Itoa(pg))
			}
			deref := func(s *string) string {
				if s == nil {
					return ""
				}
				return *s
			}
			_ = cw.Write([]string{
				strconv.FormatInt(row.ID, 10),
				row.Feature,
				row.Characteristic,
				row.FCFText,
				deref(row.NominalSize),
				deref(row.SizeLow),
				deref(row.SizeHigh),
				strings.Join(ps, ";"),
				row.Notes,
			})
		}
		cw.Flush()
		metrics.ExportsTotal.Inc()
	}
}
