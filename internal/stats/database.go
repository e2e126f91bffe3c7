package stats

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nerdneilsfield/kiosk-translate/pkg/translation"
	"go.uber.org/zap"
)

const (
	StatsDBVersion   = "2.0.0"
	MaxRecentRecords = 100
)

// Database 统计数据库
type Database struct {
	filePath string
	data     *StatisticsDB
	mutex    sync.RWMutex
	logger   *zap.Logger
}

// NewDatabase 创建统计数据库
func NewDatabase(filePath string, logger *zap.Logger) (*Database, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	db := &Database{
		filePath: filePath,
		logger:   logger,
	}

	// 确保目录存在
	dir := filepath.Dir(filePath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create stats directory: %w", err)
	}

	// 加载或创建数据
	if err := db.load(); err != nil {
		return nil, fmt.Errorf("failed to load stats database: %w", err)
	}

	return db, nil
}

func newStatisticsDB() *StatisticsDB {
	now := time.Now()
	return &StatisticsDB{
		Version:       StatsDBVersion,
		CreatedAt:     now,
		LastUpdated:   now,
		LanguagePairs: make(map[string]*LanguagePairStats),
		Providers:     make(map[string]*ProviderStats),
		RecentBatches: make([]*translation.BatchMetrics, 0),
	}
}

// load 加载统计数据
func (db *Database) load() error {
	db.mutex.Lock()
	defer db.mutex.Unlock()

	data, err := os.ReadFile(db.filePath)
	if os.IsNotExist(err) {
		db.data = newStatisticsDB()
		return db.saveUnsafe()
	}
	if err != nil {
		return fmt.Errorf("failed to read stats file: %w", err)
	}

	var statsDB StatisticsDB
	if err := json.Unmarshal(data, &statsDB); err != nil {
		return fmt.Errorf("failed to parse stats file: %w", err)
	}

	// 初始化可能为 nil 的字段
	if statsDB.LanguagePairs == nil {
		statsDB.LanguagePairs = make(map[string]*LanguagePairStats)
	}
	if statsDB.Providers == nil {
		statsDB.Providers = make(map[string]*ProviderStats)
	}
	if statsDB.RecentBatches == nil {
		statsDB.RecentBatches = make([]*translation.BatchMetrics, 0)
	}

	db.data = &statsDB
	db.logger.Info("loaded statistics database",
		zap.String("version", statsDB.Version),
		zap.Time("created_at", statsDB.CreatedAt),
		zap.Int64("total_batches", statsDB.TotalBatches))

	return nil
}

// Path 返回数据库文件路径
func (db *Database) Path() string {
	return db.filePath
}

// Save 保存统计数据
func (db *Database) Save() error {
	db.mutex.Lock()
	defer db.mutex.Unlock()
	return db.saveUnsafe()
}

// saveUnsafe 不安全的保存（需要已持有锁）
func (db *Database) saveUnsafe() error {
	db.data.LastUpdated = time.Now()

	data, err := json.MarshalIndent(db.data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal stats data: %w", err)
	}

	// 原子写入
	tempFile := db.filePath + ".tmp"
	if err := os.WriteFile(tempFile, data, 0o644); err != nil {
		return fmt.Errorf("failed to write temp stats file: %w", err)
	}

	if err := os.Rename(tempFile, db.filePath); err != nil {
		return fmt.Errorf("failed to rename stats file: %w", err)
	}

	return nil
}

// pairKey 语言对键
func pairKey(source, target string) string {
	if source == "" {
		source = "auto"
	}
	return source + "-" + target
}

// RecordBatch 记录一次批量请求并落盘
//
// ID 为空时分配新的 UUID；StartTime 为空时使用当前时间。
func (db *Database) RecordBatch(m *translation.BatchMetrics) error {
	if m == nil {
		return nil
	}
	record := *m
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if record.StartTime.IsZero() {
		record.StartTime = time.Now()
	}

	db.mutex.Lock()
	defer db.mutex.Unlock()

	// 更新总体统计
	db.data.TotalBatches++
	db.data.TotalTexts += int64(record.TextCount)
	db.data.TotalDuration += record.Duration
	if !record.Success {
		db.data.TotalErrors++
	}

	// 缓存统计
	cache := &db.data.CacheStats
	cache.CacheHits += int64(record.CacheHits)
	cache.CacheMisses += int64(record.CacheMisses)
	if total := cache.CacheHits + cache.CacheMisses; total > 0 {
		cache.CacheHitRate = float64(cache.CacheHits) / float64(total)
	}

	// 更新语言对统计
	key := pairKey(record.SourceLanguage, record.TargetLanguage)
	pair, exists := db.data.LanguagePairs[key]
	if !exists {
		pair = &LanguagePairStats{
			SourceLanguage: record.SourceLanguage,
			TargetLanguage: record.TargetLanguage,
		}
		db.data.LanguagePairs[key] = pair
	}
	pair.BatchCount++
	pair.TextCount += int64(record.TextCount)
	pair.CacheHits += int64(record.CacheHits)
	pair.UpstreamStrings += int64(record.UpstreamStrings)
	pair.LastUsed = record.StartTime
	if !record.Success {
		pair.ErrorCount++
	}
	totalDuration := time.Duration(int64(pair.AverageDuration) * (pair.BatchCount - 1))
	pair.AverageDuration = (totalDuration + record.Duration) / time.Duration(pair.BatchCount)

	// 性能统计
	perf := &db.data.PerformanceStats
	if perf.FastestBatch == 0 || record.Duration < perf.FastestBatch {
		perf.FastestBatch = record.Duration
	}
	if record.Duration > perf.SlowestBatch {
		perf.SlowestBatch = record.Duration
	}
	perf.AverageDuration = db.data.TotalDuration / time.Duration(db.data.TotalBatches)

	// 添加到最近记录，最新的在前
	db.data.RecentBatches = append([]*translation.BatchMetrics{&record}, db.data.RecentBatches...)
	if len(db.data.RecentBatches) > MaxRecentRecords {
		db.data.RecentBatches = db.data.RecentBatches[:MaxRecentRecords]
	}

	return db.saveUnsafe()
}

// RecordUpstreamCall 记录一次上游调用（只更新内存，随下一次 RecordBatch 或 Save 落盘）
func (db *Database) RecordUpstreamCall(call UpstreamCall) {
	db.mutex.Lock()
	defer db.mutex.Unlock()

	ps, exists := db.data.Providers[call.Provider]
	if !exists {
		ps = &ProviderStats{
			ProviderName: call.Provider,
			ErrorTypes:   make(map[string]int64),
		}
		db.data.Providers[call.Provider] = ps
	}
	if ps.ErrorTypes == nil {
		ps.ErrorTypes = make(map[string]int64)
	}

	ps.TotalCalls++
	ps.TotalStrings += int64(call.Strings)
	ps.TotalLatency += call.Latency
	ps.AverageLatency = ps.TotalLatency / time.Duration(ps.TotalCalls)
	if call.Latency > ps.MaxLatency {
		ps.MaxLatency = call.Latency
	}
	ps.LastCall = time.Now()
	if call.ErrorType != "" {
		ps.FailedCalls++
		ps.ErrorTypes[call.ErrorType]++
	}
}

// GetStats 获取统计数据（只读副本）
func (db *Database) GetStats() *StatisticsDB {
	db.mutex.RLock()
	defer db.mutex.RUnlock()

	// 创建深拷贝
	data, err := json.Marshal(db.data)
	if err != nil {
		db.logger.Warn("failed to copy statistics", zap.Error(err))
		return newStatisticsDB()
	}
	var copied StatisticsDB
	if err := json.Unmarshal(data, &copied); err != nil {
		db.logger.Warn("failed to copy statistics", zap.Error(err))
		return newStatisticsDB()
	}
	return &copied
}

// GetRecentBatches 获取最近的批量记录（最新的在前），limit <= 0 表示全部
func (db *Database) GetRecentBatches(limit int) []*translation.BatchMetrics {
	db.mutex.RLock()
	defer db.mutex.RUnlock()

	if limit <= 0 || limit > len(db.data.RecentBatches) {
		limit = len(db.data.RecentBatches)
	}
	out := make([]*translation.BatchMetrics, limit)
	for i := 0; i < limit; i++ {
		record := *db.data.RecentBatches[i]
		out[i] = &record
	}
	return out
}

// Reset 清空统计数据并落盘
func (db *Database) Reset() error {
	db.mutex.Lock()
	defer db.mutex.Unlock()

	db.data = newStatisticsDB()
	return db.saveUnsafe()
}
