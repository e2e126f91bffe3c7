package translation

import (
	"errors"
	"fmt"
)

// 预定义错误
var (
	// ErrInvalidRequest 请求缺少 texts 数组或 target
	ErrInvalidRequest = errors.New("texts(array)/target required")

	// ErrFeatureDisabled 翻译功能被管理员关闭
	ErrFeatureDisabled = errors.New("translation disabled")

	// ErrUpstreamFailure 上游翻译服务失败（整个批次作废）
	ErrUpstreamFailure = errors.New("translate failed")

	// ErrMalformedResponse 网关返回的响应结构不合法
	ErrMalformedResponse = errors.New("malformed translate response")

	// ErrTimeout 超时错误
	ErrTimeout = errors.New("translation timeout")
)

// 错误代码常量
const (
	ErrCodeValidation = "VALIDATION_ERROR"
	ErrCodeDisabled   = "DISABLED_ERROR"
	ErrCodeUpstream   = "UPSTREAM_ERROR"
	ErrCodeTimeout    = "TIMEOUT_ERROR"
	ErrCodeResponse   = "RESPONSE_ERROR"
	ErrCodeNetwork    = "NETWORK_ERROR"
	ErrCodeUnknown    = "UNKNOWN_ERROR"
)

// TranslationError 翻译错误
type TranslationError struct {
	Code    string // 错误代码
	Message string // 错误消息
	Cause   error  // 原因
}

// Error 实现error接口
func (e *TranslationError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap 返回原因错误
func (e *TranslationError) Unwrap() error {
	return e.Cause
}

// NewTranslationError 创建翻译错误
func NewTranslationError(code, message string, cause error) *TranslationError {
	return &TranslationError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// ErrorCode 返回错误对应的错误代码
func ErrorCode(err error) string {
	var te *TranslationError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &te):
		return te.Code
	case errors.Is(err, ErrInvalidRequest):
		return ErrCodeValidation
	case errors.Is(err, ErrFeatureDisabled):
		return ErrCodeDisabled
	case errors.Is(err, ErrTimeout):
		return ErrCodeTimeout
	case errors.Is(err, ErrUpstreamFailure):
		return ErrCodeUpstream
	case errors.Is(err, ErrMalformedResponse):
		return ErrCodeResponse
	}
	return ErrCodeUnknown
}
