package translation

import (
	"strings"
	"time"
)

// DefaultMimeType 未指定 MIME 类型时使用的默认值
const DefaultMimeType = "text/plain"

// BatchRequest 批量翻译请求（POST /api/translate 的请求体）
type BatchRequest struct {
	// Texts 要翻译的文本列表，顺序即结果顺序
	Texts []string `json:"texts"`

	// Target 目标语言代码（必填）
	Target string `json:"target"`

	// Source 源语言代码（可选，为空时由上游自动检测）
	Source string `json:"source,omitempty"`

	// MimeType 文本类型（可选，默认 text/plain）
	MimeType string `json:"mimeType,omitempty"`
}

// EffectiveMimeType 返回请求的 MIME 类型，未设置时返回默认值
func (r *BatchRequest) EffectiveMimeType() string {
	if m := strings.TrimSpace(r.MimeType); m != "" {
		return m
	}
	return DefaultMimeType
}

// BatchResponse 批量翻译响应
type BatchResponse struct {
	// Results 与 Texts 一一对应的翻译结果；空字符串表示该位置没有译文
	Results []string `json:"results"`
}

// ErrorResponse 错误响应体
type ErrorResponse struct {
	Error string `json:"error"`
}

// BatchMetrics 单次批量请求的指标
type BatchMetrics struct {
	ID              string        `json:"id"`
	StartTime       time.Time     `json:"start_time"`
	Duration        time.Duration `json:"duration"`
	SourceLanguage  string        `json:"source_language"`
	TargetLanguage  string        `json:"target_language"`
	MimeType        string        `json:"mime_type"`
	TextCount       int           `json:"text_count"`
	CacheHits       int           `json:"cache_hits"`
	CacheMisses     int           `json:"cache_misses"`
	UpstreamCalls   int           `json:"upstream_calls"`
	UpstreamStrings int           `json:"upstream_strings"`
	Success         bool          `json:"success"`
	ErrorType       string        `json:"error_type,omitempty"`
}
