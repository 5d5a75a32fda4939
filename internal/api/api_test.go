package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"gdt-helper/internal/gdt"
	"gdt-helper/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFCFPreview(t *testing.T) {
	h := handleFCFPreview()

	body := `{"characteristic":"position","tolerance":"0.1","cylindrical":true,"material":"MMC",
        "datums":[{"label":"A"},{"label":"B"},{"label":"C"}]}`
	req := httptest.NewRequest(http.MethodPost, "/fcf/preview", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	var out struct {
		FCFText string `json:"fcf_text"`
		Explain string `json:"explain"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, "⌖ ⌀0.1 Ⓜ | A | B | C", out.FCFText)
	assert.NotEmpty(t, out.Explain)
}

func TestFCFPreviewCollectsFieldErrors(t *testing.T) {
	h := handleFCFPreview()

	// 公差非法 + 圆度带基准修饰符 + 基准重复，三类错误应一次性返回
	body := `{"characteristic":"circularity","tolerance":"-1","material":"MMC",
        "datums":[{"label":"A"},{"label":"A"}]}`
	req := httptest.NewRequest(http.MethodPost, "/fcf/preview", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h(rec, req)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	var out struct {
		Error  string `json:"error"`
		Fields []struct {
			Field string `json:"field"`
			Code  string `json:"code"`
		} `json:"fields"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, "validation_failed", out.Error)
	codes := map[string]bool{}
	for _, f := range out.Fields {
		codes[f.Code] = true
	}
	assert.True(t, codes["invalid_tolerance"])
	assert.True(t, codes["incompatible_modifier"])
	assert.True(t, codes["duplicate_datum"])
}

// 请求层字段（尺寸、特征类型）用自己的错误码，不复用框构建码
func TestBuildFromPayloadFieldCodes(t *testing.T) {
	in := &requirementPayload{
		Feature:     "hole",
		FeatureType: "hollow",
		NominalSize: "ten",
		SizeLow:     "9.99999", // 超过四位小数
		Frame:       gdt.RawFrame{Characteristic: "flatness", Tolerance: "0.05"},
	}
	row, errs := buildFromPayload(1, in)
	require.Nil(t, row)
	byField := map[string]string{}
	for _, e := range errs {
		byField[e.Field] = e.Code
	}
	assert.Equal(t, "invalid_feature_type", byField["feature_type"])
	assert.Equal(t, "invalid_decimal", byField["nominal_size"])
	assert.Equal(t, "invalid_decimal", byField["size_low"])

	in.FeatureType = "internal"
	in.NominalSize = "10"
	in.SizeLow = "9.9"
	row, errs = buildFromPayload(1, in)
	require.Empty(t, errs)
	require.NotNil(t, row)
	assert.Equal(t, "⏥ 0.05", row.FCFText)
}

// 局部更新：空字段沿用当前行，部分请求体不得丢尺寸或改框
func TestMergeRequirementPayload(t *testing.T) {
	low, high := "9.9", "10.0"
	cur := &store.Requirement{
		ID: 3, ProjectID: 1, Feature: "hole", FeatureType: "internal",
		Characteristic: "position", FCFText: "⌖ ⌀0.1 Ⓜ | A | B",
		SizeLow: &low, SizeHigh: &high, Notes: "datum B is the slot",
	}

	in := requirementPayload{Notes: "re-checked"}
	mergeRequirementPayload(&in, cur)
	assert.Equal(t, "hole", in.Feature)
	assert.Equal(t, "internal", in.FeatureType)
	assert.Equal(t, "9.9", in.SizeLow)
	assert.Equal(t, "10.0", in.SizeHigh)
	assert.Equal(t, "re-checked", in.Notes, "explicit fields stay as sent")
	require.Equal(t, "position", in.Frame.Characteristic)
	assert.Equal(t, "0.1", in.Frame.Tolerance)
	assert.True(t, in.Frame.Cylindrical)

	// 合并后的载荷必须能原样重建，不能因缺字段落进校验错误
	row, errs := buildFromPayload(cur.ProjectID, &in)
	require.Empty(t, errs)
	assert.Equal(t, "⌖ ⌀0.1 Ⓜ | A | B", row.FCFText)

	in = requirementPayload{Frame: gdt.RawFrame{Characteristic: "flatness", Tolerance: "0.05"}}
	mergeRequirementPayload(&in, cur)
	assert.Equal(t, gdt.RawFrame{Characteristic: "flatness", Tolerance: "0.05"}, in.Frame,
		"a sent frame replaces the stored one wholesale")
}

func TestFCFPreviewRejectsBadJSON(t *testing.T) {
	h := handleFCFPreview()
	req := httptest.NewRequest(http.MethodPost, "/fcf/preview", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	h(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSymbolsCatalog(t *testing.T) {
	h := handleSymbols()
	req := httptest.NewRequest(http.MethodGet, "/symbols", nil)
	rec := httptest.NewRecorder()
	h(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	var out struct {
		Symbols []struct {
			Key      string `json:"key"`
			Name     string `json:"name"`
			Category string `json:"category"`
		} `json:"symbols"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Len(t, out.Symbols, 14)
}

func TestCountPDFPages(t *testing.T) {
	doc := bytes.Join([][]byte{
		[]byte("%PDF-1.4"),
		[]byte("1 0 obj << /Type /Pages /Count 3 >>"),
		[]byte("2 0 obj << /Type /Page /Parent 1 0 R >>"),
		[]byte("3 0 obj << /Type /Page /Parent 1 0 R >>"),
		[]byte("4 0 obj << /Type/Page /Parent 1 0 R >>"),
	}, []byte("\n"))
	assert.Equal(t, 3, countPDFPages(doc))

	// 扫不出页对象时回退 1
	assert.Equal(t, 1, countPDFPages([]byte("%PDF-1.4\nnothing here")))
}
