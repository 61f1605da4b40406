// File: internal/pkg/response/writer.go
package response

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"monstro-self/internal/pkg/ctxkey"
	"monstro-self/internal/pkg/log"
	"monstro-self/internal/pkg/metrics"
	"monstro-self/internal/pkg/xerrors"
)

// Writer 统一的响应写入接口，handler 只负责组装数据
type Writer interface {
	WriteSuccess(ctx context.Context, w http.ResponseWriter, data any) error
	WriteError(ctx context.Context, w http.ResponseWriter, err error) error
	WriteJSON(ctx context.Context, w http.ResponseWriter, data any, statusCode int) error
}

type responseWriter struct {
	service string
	logger  log.Logger
}

// NewWriter 创建响应写入器
func NewWriter(service string) Writer {
	return &responseWriter{
		service: service,
		logger:  log.GetLogger().With("component", "response_writer"),
	}
}

// WriteSuccess 写入标准成功响应
func (h *responseWriter) WriteSuccess(ctx context.Context, w http.ResponseWriter, data any) error {
	resp := &ResponseResult[any]{
		Code:      xerrors.CodeSuccess.ToInt(),
		Message:   xerrors.CodeSuccess.Message(),
		Timestamp: time.Now().Unix(),
		TraceId:   ctxkey.GetString(ctx, ctxkey.TraceID),
	}
	if data != nil {
		resp.Data = &data
	}

	metrics.DefaultErrorMetrics.RecordHTTPResponse(
		http.StatusOK,
		ctxkey.GetString(ctx, ctxkey.HTTPMethod),
		h.service,
	)

	return h.write(ctx, w, http.StatusOK, resp)
}

// WriteError 写入错误响应，自动映射 HTTP 状态码并记录指标
func (h *responseWriter) WriteError(ctx context.Context, w http.ResponseWriter, err error) error {
	appErr, ok := xerrors.AsAppError(err)
	if !ok {
		appErr = xerrors.NewWithError(xerrors.CodeInternalError, "未预期的错误", err)
	}

	statusCode := xerrors.GetHTTPStatus(appErr.Code)
	method := ctxkey.GetString(ctx, ctxkey.HTTPMethod)

	metrics.DefaultErrorMetrics.RecordError(appErr, statusCode, method, h.service, 0)
	log.LogAppError(ctx, "request failed", appErr)

	resp := &ResponseResult[any]{
		Code:      appErr.Code.ToInt(),
		Message:   appErr.Message,
		Timestamp: time.Now().Unix(),
		TraceId:   ctxkey.GetString(ctx, ctxkey.TraceID),
	}
	// 5xx 不向客户端泄露内部错误细节
	if statusCode < http.StatusInternalServerError && appErr.Err != nil {
		resp.Error = appErr.Err.Error()
	}

	return h.write(ctx, w, statusCode, resp)
}

// WriteJSON 直接写入 JSON（跳过标准包装）
func (h *responseWriter) WriteJSON(ctx context.Context, w http.ResponseWriter, data any, statusCode int) error {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.ErrorContext(ctx, "write json response failed", log.Any("error", err))
		return err
	}
	return nil
}

func (h *responseWriter) write(ctx context.Context, w http.ResponseWriter, statusCode int, resp *ResponseResult[any]) error {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		// header 已写入，只能记录
		h.logger.ErrorContext(ctx, "write response failed", log.Any("error", err))
		return err
	}
	return nil
}
