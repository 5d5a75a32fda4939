package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "gdthelper_requests_total",
		Help: "Total API requests by route",
	}, []string{"route"})
	RequestDurationMs = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "gdthelper_request_duration_ms",
		Help:    "Request duration in milliseconds by route",
		Buckets: []float64{1, 5, 10, 20, 50, 100, 200, 500, 1000},
	}, []string{"route"})
	BuildsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "gdthelper_fcf_builds_total",
		Help: "Total feature control frame build attempts",
	})
	BuildRejectsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "gdthelper_fcf_build_rejects_total",
		Help: "Total frame builds rejected by field validation, by error code",
	}, []string{"code"})
	BonusCalcsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "gdthelper_bonus_calcs_total",
		Help: "Total bonus tolerance calculations",
	})
	InsightRunsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "gdthelper_insight_runs_total",
		Help: "Total insight rule engine evaluations",
	})
	InsightFindings = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "gdthelper_insight_findings",
		Help:    "Findings produced per insight evaluation",
		Buckets: []float64{0, 1, 2, 5, 10, 20, 50},
	})
	HitTestsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "gdthelper_hit_tests_total",
		Help: "Total annotation hit-test resolutions",
	})
	HitEmptyTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "gdthelper_hit_empty_total",
		Help: "Total hit tests that landed on no region",
	})
	RedisHitsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "gdthelper_redis_hits_total",
		Help: "Total redis cache hits",
	})
	RedisMissesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "gdthelper_redis_misses_total",
		Help: "Total redis cache misses",
	})
	UploadsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "gdthelper_uploads_total",
		Help: "Total accepted drawing uploads",
	})
	UploadRejectsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "gdthelper_upload_rejects_total",
		Help: "Total rejected uploads by reason",
	}, []string{"reason"})
	ExportsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "gdthelper_exports_total",
		Help: "Total CSV exports",
	})
)

func init() {
	prometheus.MustRegister(RequestsTotal)
	prometheus.MustRegister(RequestDurationMs)
	prometheus.MustRegister(BuildsTotal)
	prometheus.MustRegister(BuildRejectsTotal)
	prometheus.MustRegister(BonusCalcsTotal)
	prometheus.MustRegister(InsightRunsTotal)
	prometheus.MustRegister(InsightFindings)
	prometheus.MustRegister(HitTestsTotal)
	prometheus.MustRegister(HitEmptyTotal)
	prometheus.MustRegister(RedisHitsTotal)
	prometheus.MustRegister(RedisMissesTotal)
	prometheus.MustRegister(UploadsTotal)
	prometheus.MustRegister(UploadRejectsTotal)
	prometheus.MustRegister(ExportsTotal)
}

// 文档注释：返回 Prometheus 指标监听器
// 背景：统一暴露注册指标到 /metrics 路径，供 Prometheus 抓取；在主入口挂载。
func Handler() http.Handler { return promhttp.Handler() }
