// Package gateway 实现批量翻译网关：按 FIFO 缓存去重，只把未命中的文本转发给上游提供商。
package gateway

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/nerdneilsfield/kiosk-translate/pkg/providers"
	"github.com/nerdneilsfield/kiosk-translate/pkg/translation"
	"go.uber.org/zap"
)

// Store 缓存持久化存储
type Store interface {
	Save(ctx context.Context, entries []translation.CacheEntry) error
	Delete(ctx context.Context, keys []translation.CacheKey) error
}

// Recorder 批量请求统计记录器
type Recorder interface {
	RecordBatch(m *translation.BatchMetrics) error
}

// Options 网关选项
type Options struct {
	CacheCapacity   int           // FIFO 缓存容量
	MaxBatchSize    int           // 单次上游调用的最大条目数
	UpstreamTimeout time.Duration // 单次上游调用超时
	Enabled         bool          // 管理开关
	MaxBodyBytes    int64         // HTTP 请求体上限
	Store           Store         // 可选的持久化存储
	Recorder        Recorder      // 可选的统计记录器
}

// DefaultOptions 返回默认选项
func DefaultOptions() Options {
	return Options{
		CacheCapacity:   translation.DefaultCacheCapacity,
		MaxBatchSize:    128,
		UpstreamTimeout: 15 * time.Second,
		Enabled:         true,
		MaxBodyBytes:    1 << 20,
	}
}

// Counters 网关运行计数
type Counters struct {
	Batches          int64 `json:"batches"`
	UpstreamCalls    int64 `json:"upstream_calls"`
	UpstreamStrings  int64 `json:"upstream_strings"`
	UpstreamFailures int64 `json:"upstream_failures"`
}

// Service 批量翻译网关
type Service struct {
	provider providers.BatchProvider
	cache    *translation.FIFOCache
	opts     Options
	logger   *zap.Logger

	enabled          atomic.Bool
	batches          atomic.Int64
	upstreamCalls    atomic.Int64
	upstreamStrings  atomic.Int64
	upstreamFailures atomic.Int64
}

// New 创建网关
func New(provider providers.BatchProvider, opts Options, logger *zap.Logger) *Service {
	def := DefaultOptions()
	if opts.CacheCapacity <= 0 {
		opts.CacheCapacity = def.CacheCapacity
	}
	if opts.MaxBatchSize <= 0 {
		opts.MaxBatchSize = def.MaxBatchSize
	}
	if opts.UpstreamTimeout <= 0 {
		opts.UpstreamTimeout = def.UpstreamTimeout
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = def.MaxBodyBytes
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Service{
		provider: provider,
		cache:    translation.NewFIFOCache(opts.CacheCapacity),
		opts:     opts,
		logger:   logger,
	}
	s.enabled.Store(opts.Enabled)
	return s
}

// SetEnabled 打开或关闭翻译功能
func (s *Service) SetEnabled(enabled bool) {
	s.enabled.Store(enabled)
	s.logger.Info("translation feature toggled", zap.Bool("enabled", enabled))
}

// Enabled 翻译功能是否开启
func (s *Service) Enabled() bool {
	return s.enabled.Load()
}

// Cache 返回网关的共享缓存
func (s *Service) Cache() *translation.FIFOCache {
	return s.cache
}

// Counters 返回运行计数快照
func (s *Service) Counters() Counters {
	return Counters{
		Batches:          s.batches.Load(),
		UpstreamCalls:    s.upstreamCalls.Load(),
		UpstreamStrings:  s.upstreamStrings.Load(),
		UpstreamFailures: s.upstreamFailures.Load(),
	}
}

// Warm 用持久化的条目预热缓存（按给定顺序插入，不回写存储）
func (s *Service) Warm(entries []translation.CacheEntry) {
	for _, e := range entries {
		s.cache.Put(e.Key, e.Value)
	}
	s.logger.Info("translation cache warmed",
		zap.Int("entries", len(entries)),
		zap.Int("size", s.cache.Len()))
}

// pending 未命中缓存的输入
type pending struct {
	pos int
	key translation.CacheKey
}

// Translate 执行批量翻译
//
// 返回的 Results 与 req.Texts 等长、顺序一致。上游任一分块失败时整个批次失败，不写入缓存。
func (s *Service) Translate(ctx context.Context, req *translation.BatchRequest) (*translation.BatchResponse, error) {
	if err := validate(req); err != nil {
		return nil, err
	}
	if !s.Enabled() {
		return nil, translation.ErrFeatureDisabled
	}

	metrics := &translation.BatchMetrics{
		StartTime:      time.Now(),
		SourceLanguage: strings.TrimSpace(req.Source),
		TargetLanguage: strings.TrimSpace(req.Target),
		MimeType:       req.EffectiveMimeType(),
		TextCount:      len(req.Texts),
	}
	s.batches.Add(1)

	resp, err := s.translate(ctx, req, metrics)

	metrics.Duration = time.Since(metrics.StartTime)
	metrics.Success = err == nil
	metrics.ErrorType = translation.ErrorCode(err)
	s.record(metrics)

	if err != nil {
		s.logger.Warn("batch translation failed",
			zap.String("target", metrics.TargetLanguage),
			zap.Int("texts", metrics.TextCount),
			zap.Int("misses", metrics.CacheMisses),
			zap.Error(err))
		return nil, err
	}

	s.logger.Debug("batch translated",
		zap.String("target", metrics.TargetLanguage),
		zap.Int("texts", metrics.TextCount),
		zap.Int("hits", metrics.CacheHits),
		zap.Int("misses", metrics.CacheMisses),
		zap.Int("upstream_calls", metrics.UpstreamCalls),
		zap.Duration("duration", metrics.Duration))
	return resp, nil
}

func validate(req *translation.BatchRequest) error {
	if req == nil || len(req.Texts) == 0 || strings.TrimSpace(req.Target) == "" {
		return translation.ErrInvalidRequest
	}
	return nil
}

func (s *Service) translate(ctx context.Context, req *translation.BatchRequest, metrics *translation.BatchMetrics) (*translation.BatchResponse, error) {
	results := make([]string, len(req.Texts))
	var misses []pending

	for i, text := range req.Texts {
		trimmed := strings.TrimSpace(text)
		if trimmed == "" {
			continue
		}
		key := translation.NewCacheKey(metrics.TargetLanguage, metrics.SourceLanguage, metrics.MimeType, trimmed)
		if value, ok := s.cache.Get(key); ok {
			results[i] = value
			metrics.CacheHits++
			continue
		}
		misses = append(misses, pending{pos: i, key: key})
	}
	metrics.CacheMisses = len(misses)

	if len(misses) == 0 {
		return &translation.BatchResponse{Results: results}, nil
	}

	translated := make([]string, 0, len(misses))
	batchSize := s.batchSize()
	for start := 0; start < len(misses); start += batchSize {
		end := start + batchSize
		if end > len(misses) {
			end = len(misses)
		}

		contents := make([]string, 0, end-start)
		for _, m := range misses[start:end] {
			contents = append(contents, m.key.Text)
		}

		out, err := s.callUpstream(ctx, &providers.ProviderRequest{
			Contents:       contents,
			SourceLanguage: metrics.SourceLanguage,
			TargetLanguage: metrics.TargetLanguage,
			MimeType:       metrics.MimeType,
		})
		metrics.UpstreamCalls++
		metrics.UpstreamStrings += len(contents)
		if err != nil {
			return nil, err
		}
		translated = append(translated, out...)
	}

	// 所有分块成功后才写入结果和缓存
	entries := make([]translation.CacheEntry, 0, len(misses))
	var evicted []translation.CacheKey
	for i, m := range misses {
		results[m.pos] = translated[i]
		// 空译文不缓存，下次请求重新调用上游
		if translated[i] == "" {
			continue
		}
		evicted = append(evicted, s.cache.Put(m.key, translated[i])...)
		entries = append(entries, translation.CacheEntry{Key: m.key, Value: translated[i]})
	}
	s.persist(ctx, entries, evicted)

	return &translation.BatchResponse{Results: results}, nil
}

// batchSize 单次上游调用的条目数，取配置值和提供商上限的较小者
func (s *Service) batchSize() int {
	size := s.opts.MaxBatchSize
	if p, ok := s.provider.(providers.Provider); ok {
		if max := p.GetCapabilities().MaxBatchSize; max > 0 && max < size {
			size = max
		}
	}
	return size
}

// callUpstream 调用上游并校验结果数量
func (s *Service) callUpstream(ctx context.Context, req *providers.ProviderRequest) ([]string, error) {
	callCtx, cancel := context.WithTimeout(ctx, s.opts.UpstreamTimeout)
	defer cancel()

	s.upstreamCalls.Add(1)
	s.upstreamStrings.Add(int64(len(req.Contents)))

	resp, err := s.provider.TranslateBatch(callCtx, req)
	if err == nil && callCtx.Err() != nil {
		err = callCtx.Err()
	}
	if err != nil {
		s.upstreamFailures.Add(1)
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: %w after %s", translation.ErrUpstreamFailure, translation.ErrTimeout, s.opts.UpstreamTimeout)
		}
		return nil, fmt.Errorf("%w: %s: %w", translation.ErrUpstreamFailure, s.provider.GetName(), err)
	}
	if resp == nil || len(resp.Translations) != len(req.Contents) {
		s.upstreamFailures.Add(1)
		got := 0
		if resp != nil {
			got = len(resp.Translations)
		}
		return nil, fmt.Errorf("%w: %s returned %d translations for %d texts",
			translation.ErrUpstreamFailure, s.provider.GetName(), got, len(req.Contents))
	}
	return resp.Translations, nil
}

// persist 回写持久化存储，失败只记录日志
func (s *Service) persist(ctx context.Context, entries []translation.CacheEntry, evicted []translation.CacheKey) {
	if s.opts.Store == nil {
		return
	}
	ctx = context.WithoutCancel(ctx)

	// 同一批次内先被淘汰又重新写入的key仍在缓存中，不能删除
	stale := evicted[:0]
	for _, k := range evicted {
		if !s.cache.Contains(k) {
			stale = append(stale, k)
		}
	}
	evicted = stale

	if len(entries) > 0 {
		if err := s.opts.Store.Save(ctx, entries); err != nil {
			s.logger.Warn("failed to persist cache entries", zap.Int("entries", len(entries)), zap.Error(err))
		}
	}
	if len(evicted) > 0 {
		if err := s.opts.Store.Delete(ctx, evicted); err != nil {
			s.logger.Warn("failed to delete evicted cache entries", zap.Int("keys", len(evicted)), zap.Error(err))
		}
	}
}

// record 记录批量统计，失败只记录日志
func (s *Service) record(metrics *translation.BatchMetrics) {
	if s.opts.Recorder == nil {
		return
	}
	if err := s.opts.Recorder.RecordBatch(metrics); err != nil {
		s.logger.Warn("failed to record batch statistics", zap.Error(err))
	}
}
