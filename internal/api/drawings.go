package api

import (
	"bytes"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"gdt-helper/internal/logger"
	"gdt-helper/internal/metrics"
	"gdt-helper/internal/middleware"
	"gdt-helper/internal/store"

	"github.com/google/uuid"
)

func handleDrawingList(st *store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r, "id")
		if !ok {
			return
		}
		ds, err := st.ListDrawings(r.Context(), id)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "list failed")
			return
		}
		out := make([]drawingResult, 0, len(ds))
		for i := range ds {
			out = append(out, toDrawingResult(&ds[i]))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// countPDFPages：对 PDF 字节做轻量页数扫描
// 背景：语料内没有 PDF 解析库可依赖，页数仅用于界面分页提示；统计
// "/Type /Page" 对象（排除 /Pages 树节点），失败时回退为 1，尽力而为
func countPDFPages(b []byte) int {
	n := 0
	for _, pat := range [][]byte{[]byte("/Type /Page"), []byte("/Type/Page")} {
		off := 0
		for {
			i := bytes.Index(b[off:], pat)
			if i < 0 {
				break
			}
			j := off + i + len(pat)
			// 排除 "/Type /Pages"
			if j >= len(b) || b[j] != 's' {
				n++
			}
			off = j
		}
	}
	if n == 0 {
		return 1
	}
	return n
}

// handleDrawingUpload：接收 PDF 上传并落盘
// 约束：仅接受 .pdf 扩展名且文件头为 %PDF；大小上限与每分钟次数由环境变量控制；
// 存储名为 uuid 前缀，避免原名冲突与路径注入
func handleDrawingUpload(st *store.Store, uploadDir string, maxBytes int64, bucket *middleware.MinuteBucket) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		projectID, ok := pathID(w, r, "id")
		if !ok {
			return
		}
		if !bucket.Allow() {
			metrics.UploadRejectsTotal.WithLabelValues("rate_limited").Inc()
			writeError(w, http.StatusTooManyRequests, "upload rate limit exceeded")
			return
		}
		p, err := st.GetProject(r.Context(), projectID)
		if err != nil || p == nil {
			writeError(w, http.StatusNotFound, "project not found")
			return
		}
		r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
		if err := r.ParseMultipartForm(maxBytes); err != nil {
			metrics.UploadRejectsTotal.WithLabelValues("too_large").Inc()
			writeError(w, http.StatusRequestEntityTooLarge, "file too large")
			return
		}
		file, hdr, err := r.FormFile("file")
		if err != nil {
			metrics.UploadRejectsTotal.WithLabelValues("no_file").Inc()
			writeError(w, http.StatusBadRequest, "file field is required")
			return
		}
		defer file.Close()
		if !strings.EqualFold(filepath.Ext(hdr.Filename), ".pdf") {
			metrics.UploadRejectsTotal.WithLabelValues("bad_extension").Inc()
			writeError(w, http.StatusBadRequest, "only .pdf files are accepted")
			return
		}
		data, err := io.ReadAll(file)
		if err != nil {
			metrics.UploadRejectsTotal.WithLabelValues("read_error").Inc()
			writeError(w, http.StatusBadRequest, "read failed")
			return
		}
		if !bytes.HasPrefix(data, []byte("%PDF")) {
			metrics.UploadRejectsTotal.WithLabelValues("bad_magic").Inc()
			writeError(w, http.StatusBadRequest, "file is not a PDF")
			return
		}

		name := uuid.NewString() + ".pdf"
		if err := os.MkdirAll(uploadDir, 0o755); err != nil {
			writeError(w, http.StatusInternalServerError, "storage unavailable")
			return
		}
		if err := os.WriteFile(filepath.Join(uploadDir, name), data, 0o644); err != nil {
			writeError(w, http.StatusInternalServerError, "write failed")
			return
		}
		d := store.Drawing{
			ProjectID:    projectID,
			Title:        r.FormValue("title"),
			FileName:     name,
			OriginalName: filepath.Base(hdr.Filename),
			Pages:        countPDFPages(data),
			SizeBytes:    int64(len(data)),
		}
		if d.Title == "" {
			d.Title = strings.TrimSuffix(d.OriginalName, filepath.Ext(d.OriginalName))
		}
		if err := st.CreateDrawing(r.Context(), &d); err != nil {
			writeError(w, http.StatusInternalServerError, "create failed")
			return
		}
		metrics.UploadsTotal.Inc()
		logger.L().Info("drawing_upload_ok", "id", d.ID, "project_id", projectID, "pages", d.Pages, "bytes", d.SizeBytes)
		writeJSON(w, http.StatusCreated, toDrawingResult(&d))
	}
}

func handleDrawingDelete(st *store.Store, uploadDir string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r, "id")
		if !ok {
			return
		}
		d, err := st.GetDrawing(r.Context(), id)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "get failed")
			return
		}
		if d == nil {
			writeError(w, http.StatusNotFound, "drawing not found")
			return
		}
		if _, err := st.DeleteDrawing(r.Context(), id); err != nil {
			writeError(w, http.StatusInternalServerError, "delete failed")
			return
		}
		// 落盘文件尽力清理，失败只记日志不阻断
		if err := os.Remove(filepath.Join(uploadDir, d.FileName)); err != nil {
			logger.L().Debug("drawing_file_remove_error", "file", d.FileName, "err", err)
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// handleUploadServe：按存储名回放上传文件；存储名为 uuid 生成，直接做基名白名单
func handleUploadServe(uploadDir string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := filepath.Base(r.PathValue("file"))
		if name == "" || name == "." || strings.Contains(name, "..") {
			writeError(w, http.StatusBadRequest, "invalid file name")
			return
		}
		w.Header().Set("content-type", "application/pdf")
		http.ServeFile(w, r, filepath.Join(uploadDir, name))
	}
}
