package stats

import (
	"time"

	"github.com/nerdneilsfield/kiosk-translate/pkg/translation"
)

// StatisticsDB 统计数据库结构
type StatisticsDB struct {
	Version     string    `json:"version"`
	CreatedAt   time.Time `json:"created_at"`
	LastUpdated time.Time `json:"last_updated"`

	// 总体统计
	TotalBatches  int64         `json:"total_batches"`
	TotalTexts    int64         `json:"total_texts"`
	TotalErrors   int64         `json:"total_errors"`
	TotalDuration time.Duration `json:"total_duration"`

	// 缓存统计
	CacheStats CacheStatistics `json:"cache_stats"`

	// 语言对统计，键为 "源-目标"，源为空时记为 auto
	LanguagePairs map[string]*LanguagePairStats `json:"language_pairs"`

	// 上游提供商统计
	Providers map[string]*ProviderStats `json:"providers"`

	// 最近的批量请求记录（最新的在前）
	RecentBatches []*translation.BatchMetrics `json:"recent_batches"`

	// 性能统计
	PerformanceStats PerformanceStatistics `json:"performance_stats"`
}

// CacheStatistics 缓存统计信息
type CacheStatistics struct {
	CacheHits    int64   `json:"cache_hits"`
	CacheMisses  int64   `json:"cache_misses"`
	CacheHitRate float64 `json:"cache_hit_rate"`
}

// LanguagePairStats 语言对统计
type LanguagePairStats struct {
	SourceLanguage  string        `json:"source_language"`
	TargetLanguage  string        `json:"target_language"`
	BatchCount      int64         `json:"batch_count"`
	TextCount       int64         `json:"text_count"`
	CacheHits       int64         `json:"cache_hits"`
	UpstreamStrings int64         `json:"upstream_strings"`
	ErrorCount      int64         `json:"error_count"`
	AverageDuration time.Duration `json:"average_duration"`
	LastUsed        time.Time     `json:"last_used"`
}

// ProviderStats 上游提供商调用统计
type ProviderStats struct {
	ProviderName   string           `json:"provider_name"`
	TotalCalls     int64            `json:"total_calls"`
	FailedCalls    int64            `json:"failed_calls"`
	TotalStrings   int64            `json:"total_strings"`
	TotalLatency   time.Duration    `json:"total_latency"`
	AverageLatency time.Duration    `json:"average_latency"`
	MaxLatency     time.Duration    `json:"max_latency"`
	ErrorTypes     map[string]int64 `json:"error_types"`
	LastCall       time.Time        `json:"last_call"`
}

// PerformanceStatistics 性能统计
type PerformanceStatistics struct {
	FastestBatch    time.Duration `json:"fastest_batch"`
	SlowestBatch    time.Duration `json:"slowest_batch"`
	AverageDuration time.Duration `json:"average_duration"`
}

// UpstreamCall 单次上游调用结果
type UpstreamCall struct {
	Provider       string
	SourceLanguage string
	TargetLanguage string
	Strings        int
	Latency        time.Duration
	ErrorType      string // 为空表示成功
}
