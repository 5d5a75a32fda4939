package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"gdt-helper/internal/gdt"
	"gdt-helper/internal/store"
)

// 文档注释：对外序列化模型
// 背景：统一对外 JSON 结构，仅包含必要字段，避免泄露内部差异；便于缓存与前端一致化处理。
// 约束：字段稳定；新增字段需评估兼容性与前端依赖。

type projectPayload struct {
	Title    string `json:"title"`
	Customer string `json:"customer"`
	Notes    string `json:"notes"`
	Units    string `json:"units"`
}

type projectResult struct {
	ID       int64  `json:"id"`
	Title    string `json:"title"`
	Customer string `json:"customer"`
	Notes    string `json:"notes"`
	Units    string `json:"units"`
}

func toProjectResult(p *store.Project) projectResult {
	return projectResult{ID: p.ID, Title: p.Title, Customer: p.Customer, Notes: p.Notes, Units: p.Units}
}

type drawingResult struct {
	ID           int64  `json:"id"`
	ProjectID    int64  `json:"project_id"`
	Title        string `json:"title"`
	FileName     string `json:"file_name"`
	OriginalName string `json:"original_name"`
	Pages        int    `json:"pages"`
	SizeBytes    int64  `json:"size_bytes"`
}

func toDrawingResult(d *store.Drawing) drawingResult {
	return drawingResult{ID: d.ID, ProjectID: d.ProjectID, Title: d.Title, FileName: d.FileName,
		OriginalName: d.OriginalName, Pages: d.Pages, SizeBytes: d.SizeBytes}
}

// requirementPayload：需求创建/更新输入；Frame 直接映射核心的原始框输入
type requirementPayload struct {
	DrawingID     *int64       `json:"drawing_id"`
	Feature       string       `json:"feature"`
	FeatureOfSize bool         `json:"feature_of_size"`
	FeatureType   string       `json:"feature_type"`
	Frame         gdt.RawFrame `json:"frame"`
	NominalSize   string       `json:"nominal_size"`
	SizeLow       string       `json:"size_low"`
	SizeHigh      string       `json:"size_high"`
	Notes         string       `json:"notes"`
}

type requirementResult struct {
	ID            int64        `json:"id"`
	ProjectID     int64        `json:"project_id"`
	DrawingID     *int64       `json:"drawing_id,omitempty"`
	Feature       string       `json:"feature"`
	FeatureOfSize bool         `json:"feature_of_size"`
	FeatureType   string       `json:"feature_type,omitempty"`
	Frame         gdt.RawFrame `json:"frame"`
	FCFText       string       `json:"fcf_text"`
	NominalSize   string       `json:"nominal_size,omitempty"`
	SizeLow       string       `json:"size_low,omitempty"`
	SizeHigh      string       `json:"size_high,omitempty"`
	Notes         string       `json:"notes,omitempty"`
}

func toRequirementResult(r *store.Requirement) requirementResult {
	out := requirementResult{
		ID: r.ID, ProjectID: r.ProjectID, DrawingID: r.DrawingID,
		Feature: r.Feature, FeatureOfSize: r.FeatureOfSize, FeatureType: r.FeatureType,
		FCFText: r.FCFText, Notes: r.Notes,
	}
	// 速记文本是框语义的权威存储，读出时解析回结构化形式
	if raw, ok := gdt.ParseShorthand(r.FCFText); ok {
		out.Frame = raw
	}
	if r.NominalSize != nil {
		out.NominalSize = *r.NominalSize
	}
	if r.SizeLow != nil {
		out.SizeLow = *r.SizeLow
	}
	if r.SizeHigh != nil {
		out.SizeHigh = *r.SizeHigh
	}
	return out
}

type annotationPayload struct {
	DrawingID     int64           `json:"drawing_id"`
	RequirementID int64           `json:"requirement_id"`
	Page          int             `json:"page"`
	Kind          string          `json:"kind"`
	X             float64         `json:"x"`
	Y             float64         `json:"y"`
	W             float64         `json:"w"`
	H             float64         `json:"h"`
	Points        json.RawMessage `json:"points"`
	ZOrder        int             `json:"z_order"`
}

type annotationResult struct {
	ID            int64           `json:"id"`
	DrawingID     int64           `json:"drawing_id"`
	RequirementID int64           `json:"requirement_id"`
	Page          int             `json:"page"`
	Kind          string          `json:"kind"`
	X             float64         `json:"x"`
	Y             float64         `json:"y"`
	W             float64         `json:"w"`
	H             float64         `json:"h"`
	Points        json.RawMessage `json:"points"`
	ZOrder        int             `json:"z_order"`
}

func toAnnotationResult(a *store.Annotation) annotationResult {
	pts := a.Points
	if pts == "" {
		pts = "[]"
	}
	return annotationResult{ID: a.ID, DrawingID: a.DrawingID, RequirementID: a.RequirementID,
		Page: a.Page, Kind: a.Kind, X: a.X, Y: a.Y, W: a.W, H: a.H,
		Points: json.RawMessage(pts), ZOrder: a.ZOrder}
}

// errorBody：统一错误返回；fields 仅在字段级校验失败时出现
type errorBody struct {
	Error  string           `json:"error"`
	Fields []gdt.FieldError `json:"fields,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("content-type", "application/json; charset=utf-8")
	w.Header().Set("cache-control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorBody{Error: msg})
}

func writeFieldErrors(w http.ResponseWriter, errs gdt.ValidationErrors) {
	writeJSON(w, http.StatusUnprocessableEntity, errorBody{Error: "validation_failed", Fields: errs})
}

// readJSON：解码请求体；失败时直接写 400 并返回 false
func readJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return false
	}
	return true
}

// 解析访问者标识：优先常见反向代理头；用于统计访客计数，不参与业务判定
func getVisitor(r *http.Request) string {
	h := r.Header
	if x := h.Get("x-forwarded-for"); x != "" {
		return strings.TrimSpace(strings.Split(x, ",")[0])
	}
	if x := h.Get("x-real-ip"); x != "" {
		return x
	}
	return r.RemoteAddr
}
