// File: internal/pkg/metrics/middleware.go
package metrics

import (
	"net/http"
	"time"

	"monstro-self/internal/pkg/ctxkey"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// pathLimitTracker 全局路由标签基数控制
// 超出上限的路由统一归并到 "other"，防止标签爆炸拖垮 Prometheus
var pathLimitTracker = NewPathLimitTracker(200)

// Middleware Echo 中间件 - 记录 HTTP 请求指标
// 使用路由模板（如 /api/v1/battles/:battleId）而非具体路径作为 route 标签；
// 健康检查端点不记录，避免指标噪音
func Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if IsHealthCheckEndpoint(c.Request().URL.Path) {
				return next(c)
			}

			// 将 HTTP 方法存储到 context（错误指标按方法分组）
			ctx := ctxkey.WithValue(c.Request().Context(), ctxkey.HTTPMethod, c.Request().Method)
			c.SetRequest(c.Request().WithContext(ctx))

			// 路由此时已匹配完成，c.Path() 即模板
			route := pathLimitTracker.TrackPath(NormalizeRoute(c.Path()))
			c.Response().Header().Set("X-Route-Pattern", c.Path())

			service := GetServiceName()
			DefaultHTTPMetrics.IncInProgress(service)
			defer DefaultHTTPMetrics.DecInProgress(service)

			start := time.Now()
			err := next(c)

			status := c.Response().Status
			if err != nil {
				if httpErr, ok := err.(*echo.HTTPError); ok {
					status = httpErr.Code
				}
			}
			DefaultHTTPMetrics.RecordRequest(service, route, c.Request().Method, status, time.Since(start))

			return err
		}
	}
}

// Handler 返回 Prometheus metrics HTTP 处理器
// 用于暴露 /metrics 端点
func Handler() http.Handler {
	return promhttp.Handler()
}

// EchoHandler Echo 框架的 Prometheus metrics 处理器
func EchoHandler() echo.HandlerFunc {
	h := promhttp.Handler()
	return func(c echo.Context) error {
		h.ServeHTTP(c.Response().Writer, c.Request())
		return nil
	}
}
