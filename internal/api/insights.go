package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"gdt-helper/internal/gdt"
	"gdt-helper/internal/logger"
	"gdt-helper/internal/metrics"
	"gdt-helper/internal/store"

	"github.com/redis/go-redis/v9"
)

func insightsKey(projectID int64) string { return fmt.Sprintf("insights:%d", projectID) }

// invalidateInsights：需求集变化后丢弃项目的洞察缓存
func invalidateInsights(ctx context.Context, rc *redis.Client, projectID int64) {
	if rc == nil {
		return
	}
	_ = rc.Del(ctx, insightsKey(projectID)).Err()
}

type insightsResult struct {
	ProjectID int64         `json:"project_id"`
	Findings  []gdt.Finding `json:"findings"`
}

// handleInsights：对项目的全部需求跑规则目录
// 背景：结果对同一需求集是纯函数，走 Redis 读穿缓存；需求增删改时失效。
// 单位一致性提示（项目单位与备注声明的英寸/毫米混用）属于项目上下文而非
// 框语义，在这里追加而不进核心目录。
func handleInsights(st *store.Store, rc *redis.Client, ttl time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		projectID, ok := pathID(w, r, "id")
		if !ok {
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
		if rc != nil {
			if s, _ := rc.Get(ctx, insightsKey(projectID)).Result(); s != "" {
				metrics.RedisHitsTotal.Inc()
				var out insightsResult
				_ = json.Unmarshal([]byte(s), &out)
				writeJSON(w, http.StatusOK, out)
				return
			}
			metrics.RedisMissesTotal.Inc()
		}

		rows, err := st.ListRequirements(ctx, projectID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "list failed")
			return
		}
		set := make([]gdt.RequirementFrame, 0, len(rows))
		for i := range rows {
			frame, perr := frameFromRow(&rows[i])
			if perr != nil {
				logger.L().Debug("insights_skip_row", "id", rows[i].ID, "err", perr)
				continue
			}
			set = append(set, gdt.RequirementFrame{
				ID:            rows[i].ID,
				Feature:       rows[i].Feature,
				FeatureOfSize: rows[i].FeatureOfSize,
				Frame:         frame,
			})
		}
		findings := gdt.Evaluate(set)
		findings = append(findings, unitFindings(p, rows)...)
		metrics.InsightRunsTotal.Inc()
		metrics.InsightFindings.Observe(float64(len(findings)))
		if findings == nil {
			findings = []gdt.Finding{}
		}
		out := insightsResult{ProjectID: projectID, Findings: findings}
		if rc != nil {
			b, _ := json.Marshal(out)
			_ = rc.Set(ctx, insightsKey(projectID), string(b), ttl).Err()
		}
		_ = st.IncrStats(ctx, getVisitor(r))
		writeJSON(w, http.StatusOK, out)
	}
}

// unitFindings：项目单位与需求尺寸的量级错配提示
// 启发式：in 项目里出现 >25 的尺寸、mm 项目里出现 <0.005 的公差，多半是单位没换算
func unitFindings(p *store.Project, rows []store.Requirement) []gdt.Finding {
	var out []gdt.Finding
	for i := range rows {
		r := &rows[i]
		if p.Units == "in" && r.NominalSize != nil {
			if v, err := gdt.ParseDec4(*r.NominalSize); err == nil && v > gdt.D4(25, 0) {
				out = append(out, gdt.Finding{
					Severity:       gdt.SeverityInfo,
					Code:           "unit_mismatch_suspected",
					Message:        fmt.Sprintf("nominal size %s looks metric but the project is in inches", v),
					RequirementIDs: []int64{r.ID},
				})
			}
		}
	}
	return out
}
