package providers

import (
	"context"
	"net/http"
	"net/url"
	"time"
)

// BaseConfig 基础配置
type BaseConfig struct {
	// API配置
	APIKey      string `json:"api_key,omitempty"`
	APIEndpoint string `json:"api_endpoint,omitempty"`

	// 超时和重试
	Timeout    time.Duration `json:"timeout"`
	MaxRetries int           `json:"max_retries"`
	RetryDelay time.Duration `json:"retry_delay"`

	// 代理设置
	ProxyURL string `json:"proxy_url,omitempty"`

	// 自定义头部
	Headers map[string]string `json:"headers,omitempty"`
}

// DefaultConfig 返回默认配置
func DefaultConfig() BaseConfig {
	return BaseConfig{
		Timeout:    30 * time.Second,
		MaxRetries: 0, // 网关层不做自动重试
		RetryDelay: time.Second,
		Headers:    make(map[string]string),
	}
}

// HTTPClient 根据配置创建HTTP客户端
func (c BaseConfig) HTTPClient() *http.Client {
	client := &http.Client{Timeout: c.Timeout}
	if c.ProxyURL != "" {
		if proxy, err := url.Parse(c.ProxyURL); err == nil {
			client.Transport = &http.Transport{Proxy: http.ProxyURL(proxy)}
		}
	}
	return client
}

// BatchProvider 批量翻译提供商接口
//
// 返回的译文必须与 Contents 一一对应、顺序一致。
type BatchProvider interface {
	// TranslateBatch 执行批量翻译
	TranslateBatch(ctx context.Context, req *ProviderRequest) (*ProviderResponse, error)

	// GetName 获取提供商名称
	GetName() string
}

// Provider 提供商接口（扩展 BatchProvider）
type Provider interface {
	BatchProvider

	// GetCapabilities 获取提供商能力
	GetCapabilities() Capabilities

	// HealthCheck 健康检查
	HealthCheck(ctx context.Context) error
}

// Capabilities 提供商能力
type Capabilities struct {
	// 单次批量请求的最大条目数，0 表示不限制
	MaxBatchSize int `json:"max_batch_size"`

	// 最大文本长度
	MaxTextLength int `json:"max_text_length"`

	// 是否支持 HTML
	SupportsHTML bool `json:"supports_html"`

	// 是否需要API密钥
	RequiresAPIKey bool `json:"requires_api_key"`
}

// Error 提供商错误
type Error struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"status_code,omitempty"`
}

func (e *Error) Error() string {
	return e.Message
}

// IsRetryable 判断错误是否可重试
func (e *Error) IsRetryable() bool {
	switch e.Code {
	case "rate_limit", "timeout", "server_error":
		return true
	default:
		return false
	}
}

// NewError 创建提供商错误
func NewError(code, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
	}
}

// NewHTTPError 根据HTTP状态码创建提供商错误
func NewHTTPError(statusCode int, message string) *Error {
	code := "client_error"
	switch {
	case statusCode == http.StatusTooManyRequests:
		code = "rate_limit"
	case statusCode >= 500:
		code = "server_error"
	case statusCode == http.StatusUnauthorized || statusCode == http.StatusForbidden:
		code = "auth_error"
	}
	return &Error{Code: code, Message: message, StatusCode: statusCode}
}

// ProviderRequest 提供商批量请求
type ProviderRequest struct {
	Contents       []string `json:"contents"`
	SourceLanguage string   `json:"source_language,omitempty"`
	TargetLanguage string   `json:"target_language"`
	MimeType       string   `json:"mime_type"`
}

// IsHTML 判断请求内容是否为 HTML
func (r *ProviderRequest) IsHTML() bool {
	return r.MimeType == "text/html"
}

// ProviderResponse 提供商批量响应
type ProviderResponse struct {
	Translations []string `json:"translations"`
	// DetectedSourceLanguages 上游检测到的源语言（可能为空）
	DetectedSourceLanguages []string `json:"detected_source_languages,omitempty"`
}
