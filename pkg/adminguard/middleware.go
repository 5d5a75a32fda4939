package adminguard

import (
	"crypto/subtle"
	"log/slog"
	"net"
	"net/http"
	"os"
	"strings"
)

// 文档注释：管理操作守卫（令牌 + 可选 IP 白名单）
// 背景：删除项目/图纸等破坏性路由仅对持有管理令牌的调用方开放；其余请求统一返回 403。
// 约束：
// 1) 不依赖项目内部代码，提供独立包以便在其他项目直接复用；
// 2) 令牌比较使用常数时间，避免时间侧信道；
// 3) 真实来源 IP 以 RemoteAddr 为准；如需识别上游真实 IP，请通过 ADMIN_REAL_IP_HEADER 指定。
type Guard struct {
	l            *slog.Logger
	token        string
	allowIPs     map[string]struct{}
	realIPHeader string
}

// NewFromEnv：按环境变量构建守卫
// 环境变量：
// ADMIN_TOKEN=...                         管理令牌；为空时所有受保护路由一律拒绝
// ADMIN_ALLOW_IPS=1.2.3.4,5.6.7.8         免令牌放行的单 IP 列表（逗号分隔）
// ADMIN_ALLOW_LOCAL=true                  允许 127.0.0.1/::1（本地开发）
// ADMIN_REAL_IP_HEADER=X-Forwarded-For    指定上游真实 IP 头（首个有效 IP 生效）
func NewFromEnv(l *slog.Logger) *Guard {
	g := &Guard{
		l:            l,
		token:        os.Getenv("ADMIN_TOKEN"),
		allowIPs:     map[string]struct{}{},
		realIPHeader: strings.TrimSpace(os.Getenv("ADMIN_REAL_IP_HEADER")),
	}
	if s := os.Getenv("ADMIN_ALLOW_IPS"); s != "" {
		for _, p := range strings.Split(s, ",") {
			p = strings.TrimSpace(p)
			if ip := net.ParseIP(p); ip != nil {
				g.allowIPs[ip.String()] = struct{}{}
			}
		}
	}
	if os.Getenv("ADMIN_ALLOW_LOCAL") == "true" {
		g.allowIPs["127.0.0.1"] = struct{}{}
		g.allowIPs["::1"] = struct{}{}
	}
	return g
}

// Wrap：生成 http.Handler 中间件，仅包裹需要管理权限的路由
func (g *Guard) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if g.permit(r) {
			next.ServeHTTP(w, r)
			return
		}
		if ip := g.extractIP(r); ip != nil {
			g.l.Debug("admin_guard_block", "ip", ip.String(), "path", r.URL.Path)
		} else {
			g.l.Debug("admin_guard_block", "reason", "no_ip", "path", r.URL.Path)
		}
		w.WriteHeader(http.StatusForbidden)
	})
}

// permit：令牌匹配或来源 IP 在白名单内
func (g *Guard) permit(r *http.Request) bool {
	if t := r.Header.Get("x-admin-token"); t != "" && g.token != "" {
		if subtle.ConstantTimeCompare([]byte(t), []byte(g.token)) == 1 {
			return true
		}
	}
	if ip := g.extractIP(r); ip != nil {
		if _, ok := g.allowIPs[ip.String()]; ok {
			return true
		}
	}
	return false
}

// extractIP：解析请求来源 IP；优先指定头的首个有效 IP
func (g *Guard) extractIP(r *http.Request) net.IP {
	if g.realIPHeader != "" {
		raw := r.Header.Get(g.realIPHeader)
		if raw != "" {
			parts := strings.Split(raw, ",")
			first := strings.TrimSpace(parts[0])
			if ip := net.ParseIP(first); ip != nil {
				return ip
			}
		}
	}
	host := r.RemoteAddr
	// RemoteAddr 可能包含端口
	if strings.Contains(host, ":") {
		if h, _, err := net.SplitHostPort(host); err == nil {
			host = h
		}
	}
	return net.ParseIP(host)
}
