package stats

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"time"

	internalstats "github.com/nerdneilsfield/kiosk-translate/internal/stats"
	"github.com/nerdneilsfield/kiosk-translate/pkg/providers"
)

// Recorder 上游调用记录器，由 internal/stats.Database 实现
type Recorder interface {
	RecordUpstreamCall(call internalstats.UpstreamCall)
}

// Counters 内存中的上游调用计数
type Counters struct {
	Calls    int64 `json:"calls"`
	Strings  int64 `json:"strings"`
	Failures int64 `json:"failures"`
}

// StatisticsMiddleware 统计中间件
type StatisticsMiddleware struct {
	next     providers.Provider
	recorder Recorder

	calls    atomic.Int64
	strings  atomic.Int64
	failures atomic.Int64
}

var _ providers.Provider = (*StatisticsMiddleware)(nil)

// NewStatisticsMiddleware 创建统计中间件，recorder 可为 nil
func NewStatisticsMiddleware(next providers.Provider, recorder Recorder) *StatisticsMiddleware {
	return &StatisticsMiddleware{
		next:     next,
		recorder: recorder,
	}
}

// TranslateBatch 带统计的批量翻译
func (sm *StatisticsMiddleware) TranslateBatch(ctx context.Context, req *providers.ProviderRequest) (*providers.ProviderResponse, error) {
	startTime := time.Now()

	resp, err := sm.next.TranslateBatch(ctx, req)

	latency := time.Since(startTime)
	sm.calls.Add(1)
	sm.strings.Add(int64(len(req.Contents)))

	call := internalstats.UpstreamCall{
		Provider:       sm.next.GetName(),
		SourceLanguage: req.SourceLanguage,
		TargetLanguage: req.TargetLanguage,
		Strings:        len(req.Contents),
		Latency:        latency,
	}
	if err != nil {
		sm.failures.Add(1)
		call.ErrorType = classifyError(err)
	}
	if sm.recorder != nil {
		sm.recorder.RecordUpstreamCall(call)
	}

	return resp, err
}

// Counters 返回当前计数快照
func (sm *StatisticsMiddleware) Counters() Counters {
	return Counters{
		Calls:    sm.calls.Load(),
		Strings:  sm.strings.Load(),
		Failures: sm.failures.Load(),
	}
}

// classifyError 分类错误类型
func classifyError(err error) string {
	var perr *providers.Error
	if errors.As(err, &perr) {
		return perr.Code
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "context_canceled"
	}

	errStr := strings.ToLower(err.Error())
	switch {
	case strings.Contains(errStr, "timeout"):
		return "timeout"
	case strings.Contains(errStr, "rate limit") || strings.Contains(errStr, "rate_limit"):
		return "rate_limit"
	case strings.Contains(errStr, "connection") || strings.Contains(errStr, "network"):
		return "network_error"
	default:
		return "unknown_error"
	}
}

// GetName 获取被包装的提供商名称
func (sm *StatisticsMiddleware) GetName() string {
	return sm.next.GetName()
}

// GetCapabilities 获取被包装的提供商能力
func (sm *StatisticsMiddleware) GetCapabilities() providers.Capabilities {
	return sm.next.GetCapabilities()
}

// HealthCheck 健康检查
func (sm *StatisticsMiddleware) HealthCheck(ctx context.Context) error {
	return sm.next.HealthCheck(ctx)
}
