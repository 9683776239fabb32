// internal/pkg/httpx/response.go
package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"sportshub/internal/pkg/apperr"
	"sportshub/internal/pkg/logger"
)

// Envelope 是所有接口统一的响应结构。
type Envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
	Error   any    `json:"error,omitempty"`
}

// ErrorBody 是失败响应中的 error 字段
type ErrorBody struct {
	Kind   apperr.Kind `json:"kind"`
	Detail string      `json:"detail,omitempty"`
}

// Extract 从请求头中恢复上游的追踪上下文。
func Extract(r *http.Request) context.Context {
	return otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))
}

func OK(w http.ResponseWriter, message string, data any) {
	write(w, http.StatusOK, Envelope{Success: true, Message: message, Data: data})
}

func Created(w http.ResponseWriter, message string, data any) {
	write(w, http.StatusCreated, Envelope{Success: true, Message: message, Data: data})
}

func NoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// Fail 把错误序列化为统一结构，状态码取自错误分类。
// 只有 5xx 会以 error 级别记录。
func Fail(ctx context.Context, w http.ResponseWriter, err error) {
	code := apperr.StatusCode(err)
	kind := apperr.KindOf(err)

	msg := err.Error()
	var ae *apperr.Error
	if errors.As(err, &ae) {
		msg = ae.Message
	}

	if code >= http.StatusInternalServerError {
		logger.Ctx(ctx).Error().Err(err).Int("status", code).Msg("request failed")
		msg = "internal server error"
	} else {
		logger.Ctx(ctx).Info().Str("kind", string(kind)).Int("status", code).Msg(msg)
	}

	write(w, code, Envelope{
		Success: false,
		Message: msg,
		Error:   ErrorBody{Kind: kind, Detail: detail(err, code)},
	})
}

func detail(err error, code int) string {
	if code >= http.StatusInternalServerError {
		return ""
	}
	return err.Error()
}

// DecodeJSON 解析请求体，解析失败返回 Validation 错误。
func DecodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return apperr.Validation("request body is required")
		}
		return apperr.Wrap(apperr.KindValidation, "invalid request body", err)
	}
	return nil
}

func write(w http.ResponseWriter, code int, body Envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(body)
}

// DecodeOptionalJSON 与 DecodeJSON 相同，但允许请求体为空
func DecodeOptionalJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return apperr.Wrap(apperr.KindValidation, "invalid request body", err)
	}
	return nil
}
