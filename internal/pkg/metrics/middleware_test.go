// File: internal/pkg/metrics/middleware_test.go
package metrics

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func withServiceName(t *testing.T, name string) {
	original := GetServiceName()
	SetServiceName(name)
	t.Cleanup(func() {
		SetServiceName(original)
	})
}

// withTestMetrics 用独立注册表替换全局 HTTP 指标，避免测试间串扰
func withTestMetrics(t *testing.T) (*HTTPMetrics, *prometheus.Registry) {
	t.Helper()
	reg := prometheus.NewRegistry()
	m := NewHTTPMetricsWithRegistry("test", reg)

	original := DefaultHTTPMetrics
	DefaultHTTPMetrics = m
	t.Cleanup(func() { DefaultHTTPMetrics = original })
	return m, reg
}

// withTestTracker 临时替换全局路由基数追踪器
func withTestTracker(t *testing.T, maxPaths int) *PathLimitTracker {
	t.Helper()
	tracker := NewPathLimitTracker(maxPaths)

	original := pathLimitTracker
	pathLimitTracker = tracker
	t.Cleanup(func() { pathLimitTracker = original })
	return tracker
}

func newInstrumentedEcho(t *testing.T) *echo.Echo {
	t.Helper()
	e := echo.New()
	e.Use(Middleware())
	return e
}

func doRequest(e *echo.Echo, method, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

// TestMiddlewareUsesRouteTemplate route 标签用路由模板而非具体路径
func TestMiddlewareUsesRouteTemplate(t *testing.T) {
	withServiceName(t, "battle")
	metrics, reg := withTestMetrics(t)
	withTestTracker(t, 50)

	e := newInstrumentedEcho(t)
	e.POST("/api/v1/battles/challenge", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})
	e.GET("/api/v1/battles/:battleId", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	rec := doRequest(e, http.MethodGet, "/api/v1/battles/3f2e8a10-0000-0000-0000-000000000001")
	assert.Equal(t, "/api/v1/battles/:battleId", rec.Header().Get("X-Route-Pattern"))

	count := testutil.ToFloat64(metrics.RequestsTotal.WithLabelValues(
		"battle", "/api/v1/battles/:battleId", http.MethodGet, "200"))
	assert.Equal(t, float64(1), count)

	doRequest(e, http.MethodPost, "/api/v1/battles/challenge")
	count = testutil.ToFloat64(metrics.RequestsTotal.WithLabelValues(
		"battle", "/api/v1/battles/challenge", http.MethodPost, "200"))
	assert.Equal(t, float64(1), count)

	// histogram 系列同步产出（_count/_sum/_bucket）
	histCount, err := testutil.GatherAndCount(reg, "test_http_request_duration_seconds")
	assert.NoError(t, err)
	assert.Greater(t, histCount, 0)
}

// TestMiddlewareSkipsHealthEndpoints 健康检查端点不进指标
func TestMiddlewareSkipsHealthEndpoints(t *testing.T) {
	withServiceName(t, "battle")
	_, reg := withTestMetrics(t)
	withTestTracker(t, 50)

	e := newInstrumentedEcho(t)
	for _, path := range []string{"/metrics", "/health", "/healthz", "/readyz", "/livez"} {
		e.GET(path, func(c echo.Context) error {
			return c.String(http.StatusOK, "ok")
		})
	}

	for _, path := range []string{"/metrics", "/health", "/healthz", "/readyz", "/livez"} {
		rec := doRequest(e, http.MethodGet, path)
		assert.Equal(t, http.StatusOK, rec.Code)
	}

	count, err := testutil.GatherAndCount(reg, "test_http_requests_total")
	assert.NoError(t, err)
	assert.Equal(t, 0, count)
}

// TestMiddlewareRecordsStatusCodes 状态码按标签分别计数，echo 错误也记录
func TestMiddlewareRecordsStatusCodes(t *testing.T) {
	withServiceName(t, "battle")
	metrics, _ := withTestMetrics(t)
	withTestTracker(t, 50)

	e := newInstrumentedEcho(t)
	e.GET("/api/v1/battles/:battleId", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})
	e.POST("/api/v1/battles/challenge", func(c echo.Context) error {
		return echo.NewHTTPError(http.StatusBadRequest, "bad request")
	})

	rec := doRequest(e, http.MethodGet, "/api/v1/battles/b-1")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(e, http.MethodPost, "/api/v1/battles/challenge")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	for _, tc := range []struct {
		route  string
		method string
		status int
	}{
		{"/api/v1/battles/:battleId", http.MethodGet, http.StatusOK},
		{"/api/v1/battles/challenge", http.MethodPost, http.StatusBadRequest},
	} {
		count := testutil.ToFloat64(metrics.RequestsTotal.WithLabelValues(
			"battle", tc.route, tc.method, strconv.Itoa(tc.status)))
		assert.Equal(t, float64(1), count, "route %s 应按状态码 %d 计一次", tc.route, tc.status)
	}
}

// TestMiddlewareInProgressReturnsToZero 请求结束后进行中计数归零
func TestMiddlewareInProgressReturnsToZero(t *testing.T) {
	withServiceName(t, "battle")
	metrics, _ := withTestMetrics(t)
	withTestTracker(t, 50)

	e := newInstrumentedEcho(t)
	e.GET("/api/v1/battles/:battleId", func(c echo.Context) error {
		inFlight := testutil.ToFloat64(metrics.RequestsInProgress.WithLabelValues("battle"))
		assert.Equal(t, float64(1), inFlight)
		return c.String(http.StatusOK, "ok")
	})

	doRequest(e, http.MethodGet, "/api/v1/battles/b-1")

	inFlight := testutil.ToFloat64(metrics.RequestsInProgress.WithLabelValues("battle"))
	assert.Equal(t, float64(0), inFlight)
}

// TestMiddlewareCapsRouteCardinality 超出上限的路由归并为 other
func TestMiddlewareCapsRouteCardinality(t *testing.T) {
	withServiceName(t, "battle")
	metrics, _ := withTestMetrics(t)
	tracker := withTestTracker(t, 3)

	e := newInstrumentedEcho(t)
	for i := 0; i < 5; i++ {
		path := fmt.Sprintf("/api/v1/extra%d", i)
		e.GET(path, func(c echo.Context) error {
			return c.String(http.StatusOK, "ok")
		})
	}

	for i := 0; i < 5; i++ {
		doRequest(e, http.MethodGet, fmt.Sprintf("/api/v1/extra%d", i))
	}

	assert.Equal(t, 3, tracker.GetTrackedCount())
	assert.NotEmpty(t, tracker.LogWarning())

	// 溢出的两条都落在 other 标签上
	overflow := testutil.ToFloat64(metrics.RequestsTotal.WithLabelValues(
		"battle", "other", http.MethodGet, "200"))
	assert.Equal(t, float64(2), overflow)
}

func TestPathLimitTrackerConcurrentAccess(t *testing.T) {
	tracker := NewPathLimitTracker(10)
	var wg sync.WaitGroup

	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				tracker.TrackPath(fmt.Sprintf("/api/%d/%d", id, j))
			}
		}(i)
	}

	wg.Wait()
	assert.LessOrEqual(t, tracker.GetTrackedCount(), 10)
}
