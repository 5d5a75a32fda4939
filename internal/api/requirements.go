package api

import (
	"errors"
	"net/http"

	"gdt-helper/internal/gdt"
	"gdt-helper/internal/metrics"
	"gdt-helper/internal/store"

	"github.com/redis/go-redis/v9"
)

// 请求层字段错误码，与框构建错误码分开
const (
	codeInvalidFeatureType = "invalid_feature_type"
	codeInvalidDecimal     = "invalid_decimal"
)

// buildFromPayload：把需求输入转为持久化行；框构建失败返回字段错误
func buildFromPayload(projectID int64, in *requirementPayload) (*store.Requirement, gdt.ValidationErrors) {
	metrics.BuildsTotal.Inc()
	frame, errs := gdt.Build(in.Frame)
	if in.FeatureType != "" && in.FeatureType != string(gdt.FeatureInternal) && in.FeatureType != string(gdt.FeatureExternal) {
		errs = append(errs, gdt.FieldError{Field: "feature_type", Code: codeInvalidFeatureType,
			Message: "feature_type must be internal or external"})
	}
	// 尺寸三列为可选，但给了就必须可解析
	sizes := map[string]string{"nominal_size": in.NominalSize, "size_low": in.SizeLow, "size_high": in.SizeHigh}
	for field, v := range sizes {
		if v == "" {
			continue
		}
		if _, err := gdt.ParseDec4(v); err != nil {
			errs = append(errs, gdt.FieldError{Field: field, Code: codeInvalidDecimal,
				Message: "must be a decimal with at most 4 decimal places"})
		}
	}
	if len(errs) > 0 {
		for _, e := range errs {
			metrics.BuildRejectsTotal.WithLabelValues(e.Code).Inc()
		}
		return nil, errs
	}
	r := store.Requirement{
		ProjectID:      projectID,
		DrawingID:      in.DrawingID,
		Feature:        in.Feature,
		FeatureOfSize:  in.FeatureOfSize,
		FeatureType:    in.FeatureType,
		Characteristic: string(frame.Characteristic),
		FCFText:        gdt.Render(frame),
		Notes:          in.Notes,
	}
	if in.NominalSize != "" {
		r.NominalSize = &in.NominalSize
	}
	if in.SizeLow != "" {
		r.SizeLow = &in.SizeLow
	}
	if in.SizeHigh != "" {
		r.SizeHigh = &in.SizeHigh
	}
	return &r, nil
}

func handleRequirementList(st *store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		projectID, ok := pathID(w, r, "id")
		if !ok {
			return
		}
		rs, err := st.ListRequirements(r.Context(), projectID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "list failed")
			return
		}
		out := make([]requirementResult, 0, len(rs))
		for i := range rs {
			out = append(out, toRequirementResult(&rs[i]))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func handleRequirementCreate(st *store.Store, rc *redis.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		projectID, ok := pathID(w, r, "id")
		if !ok {
			return
		}
		p, err := st.GetProject(r.Context(), projectID)
		if err != nil || p == nil {
			writeError(w, http.StatusNotFound, "project not found")
			return
		}
		var in requirementPayload
		if !readJSON(w, r, &in) {
			return
		}
		if in.Feature == "" {
			writeError(w, http.StatusBadRequest, "feature is required")
			return
		}
		row, errs := buildFromPayload(projectID, &in)
		if errs != nil {
			writeFieldErrors(w, errs)
			return
		}
		if err := st.CreateRequirement(r.Context(), row); err != nil {
			writeError(w, http.StatusInternalServerError, "create failed")
			return
		}
		invalidateInsights(r.Context(), rc, projectID)
		_ = st.IncrStats(r.Context(), getVisitor(r))
		writeJSON(w, http.StatusCreated, toRequirementResult(row))
	}
}

func handleRequirementGet(st *store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r, "id")
		if !ok {
			return
		}
		row, err := st.GetRequirement(r.Context(), id)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "get failed")
			return
		}
		if row == nil {
			writeError(w, http.StatusNotFound, "requirement not found")
			return
		}
		writeJSON(w, http.StatusOK, toRequirementResult(row))
	}
}

// mergeRequirementPayload：PATCH 语义，缺省字段沿用库中当前行
// NOTE: feature_of_size 是布尔，缺省与显式 false 无法区分，按请求值覆盖
func mergeRequirementPayload(in *requirementPayload, cur *store.Requirement) {
	if in.Feature == "" {
		in.Feature = cur.Feature
	}
	if in.FeatureType == "" {
		in.FeatureType = cur.FeatureType
	}
	if in.DrawingID == nil {
		in.DrawingID = cur.DrawingID
	}
	if in.Frame.Characteristic == "" && in.Frame.Tolerance == "" {
		if raw, ok := gdt.ParseShorthand(cur.FCFText); ok {
			in.Frame = raw
		}
	}
	if in.NominalSize == "" && cur.NominalSize != nil {
		in.NominalSize = *cur.NominalSize
	}
	if in.SizeLow == "" && cur.SizeLow != nil {
		in.SizeLow = *cur.SizeLow
	}
	if in.SizeHigh == "" && cur.SizeHigh != nil {
		in.SizeHigh = *cur.SizeHigh
	}
	if in.Notes == "" {
		in.Notes = cur.Notes
	}
}

func handleRequirementUpdate(st *store.Store, rc *redis.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r, "id")
		if !ok {
			return
		}
		cur, err := st.GetRequirement(r.Context(), id)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "get failed")
			return
		}
		if cur == nil {
			writeError(w, http.StatusNotFound, "requirement not found")
			return
		}
		var in requirementPayload
		if !readJSON(w, r, &in) {
			return
		}
		mergeRequirementPayload(&in, cur)
		row, errs := buildFromPayload(cur.ProjectID, &in)
		if errs != nil {
			writeFieldErrors(w, errs)
			return
		}
		row.ID = cur.ID
		if _, err := st.UpdateRequirement(r.Context(), row); err != nil {
			writeError(w, http.StatusInternalServerError, "update failed")
			return
		}
		invalidateInsights(r.Context(), rc, cur.ProjectID)
		writeJSON(w, http.StatusOK, toRequirementResult(row))
	}
}

func handleRequirementDelete(st *store.Store, rc *redis.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r, "id")
		if !ok {
			return
		}
		cur, err := st.GetRequirement(r.Context(), id)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "get failed")
			return
		}
		if cur == nil {
			writeError(w, http.StatusNotFound, "requirement not found")
			return
		}
		if _, err := st.DeleteRequirement(r.Context(), id); err != nil {
			writeError(w, http.StatusInternalServerError, "delete failed")
			return
		}
		invalidateInsights(r.Context(), rc, cur.ProjectID)
		w.WriteHeader(http.StatusNoContent)
	}
}

// handleFCFPreview：构建加渲染但不落库，供编辑器即时反馈
func handleFCFPreview() http.HandlerFunc {
	type previewResult struct {
		FCFText string       `json:"fcf_text"`
		Frame   gdt.RawFrame `json:"frame"`
		Explain string       `json:"explain"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		var in gdt.RawFrame
		if !readJSON(w, r, &in) {
			return
		}
		metrics.BuildsTotal.Inc()
		frame, errs := gdt.Build(in)
		if errs != nil {
			for _, e := range errs {
				metrics.BuildRejectsTotal.WithLabelValues(e.Code).Inc()
			}
			writeFieldErrors(w, errs)
			return
		}
		text := gdt.Render(frame)
		raw, _ := gdt.ParseShorthand(text)
		writeJSON(w, http.StatusOK, previewResult{FCFText: text, Frame: raw, Explain: gdt.Explain(frame)})
	}
}

func handleRequirementExplain(st *store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r, "id")
		if !ok {
			return
		}
		row, err := st.GetRequirement(r.Context(), id)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "get failed")
			return
		}
		if row == nil {
			writeError(w, http.StatusNotFound, "requirement not found")
			return
		}
		frame, perr := frameFromRow(row)
		if perr != nil {
			writeError(w, http.StatusInternalServerError, "stored frame is unreadable")
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"explain": gdt.Explain(frame)})
	}
}

// frameFromRow：从权威速记文本恢复框结构
func frameFromRow(row *store.Requirement) (*gdt.FeatureControlFrame, error) {
	raw, ok := gdt.ParseShorthand(row.FCFText)
	if !ok {
		return nil, errors.New("unparsable fcf text")
	}
	frame, errs := gdt.Build(raw)
	if errs != nil {
		return nil, errs
	}
	return frame, nil
}

// handleBonus：对某条需求计算奖励公差
// 输入可覆写实测尺寸与极限；缺省时使用需求行上存的声明尺寸
func handleBonus(st *store.Store, defaultSpread gdt.Dec4) http.HandlerFunc {
	type bonusPayload struct {
		Actual      string `json:"actual_size"`
		FeatureType string `json:"feature_type"`
		SizeLow     string `json:"size_low"`
		SizeHigh    string `json:"size_high"`
		NominalSize string `json:"nominal_size"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r, "id")
		if !ok {
			return
		}
		row, err := st.GetRequirement(r.Context(), id)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "get failed")
			return
		}
		if row == nil {
			writeError(w, http.StatusNotFound, "requirement not found")
			return
		}
		frame, perr := frameFromRow(row)
		if perr != nil {
			writeError(w, http.StatusInternalServerError, "stored frame is unreadable")
			return
		}

		var in bonusPayload
		if !readJSON(w, r, &in) {
			return
		}
		fs := gdt.FeatureSize{Type: gdt.FeatureType(row.FeatureType)}
		if in.FeatureType != "" {
			fs.Type = gdt.FeatureType(in.FeatureType)
		}
		pick := func(override string, stored *string) (gdt.Dec4, bool, bool) {
			s := override
			if s == "" && stored != nil {
				s = *stored
			}
			if s == "" {
				return 0, false, true
			}
			v, err := gdt.ParseDec4(s)
			return v, true, err == nil
		}
		nominal, _, okN := pick(in.NominalSize, row.NominalSize)
		low, haveLow, okL := pick(in.SizeLow, row.SizeLow)
		high, haveHigh, okH := pick(in.SizeHigh, row.SizeHigh)
		if !okN || !okL || !okH {
			writeError(w, http.StatusBadRequest, "sizes must be decimals with at most 4 decimal places")
			return
		}
		fs.Nominal = nominal
		if haveLow && haveHigh {
			fs.Limits = &gdt.SizeLimits{Low: low, High: high}
		}
		if in.Actual != "" {
			v, err := gdt.ParseDec4(in.Actual)
			if err != nil {
				writeError(w, http.StatusBadRequest, "actual_size must be a decimal with at most 4 decimal places")
				return
			}
			fs.Actual = &v
		}

		res, err := gdt.ComputeBonus(frame, fs, gdt.CalcOptions{DefaultSpread: defaultSpread})
		if err != nil {
			var ce *gdt.CalcError
			if errors.As(err, &ce) {
				writeJSON(w, http.StatusUnprocessableEntity, ce)
				return
			}
			writeError(w, http.StatusInternalServerError, "calculation failed")
			return
		}
		metrics.BonusCalcsTotal.Inc()
		_ = st.IncrStats(r.Context(), getVisitor(r))
		writeJSON(w, http.StatusOK, res)
	}
}
