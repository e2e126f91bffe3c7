package stats

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// Visualizer 统计数据可视化器
type Visualizer struct {
	db  *Database
	out io.Writer
}

// NewVisualizer 创建可视化器
func NewVisualizer(db *Database, out io.Writer) *Visualizer {
	return &Visualizer{db: db, out: out}
}

// ShowOverview 显示总览
func (v *Visualizer) ShowOverview() {
	stats := v.db.GetStats()

	v.printTitle(color.New(color.FgCyan, color.Bold), "Translation Gateway Statistics")

	v.printSection("Overall", [][]string{
		{"Total Batches", formatNumber(stats.TotalBatches)},
		{"Total Texts", formatNumber(stats.TotalTexts)},
		{"Failed Batches", formatNumber(stats.TotalErrors)},
		{"Total Duration", formatDuration(stats.TotalDuration)},
		{"Database Created", formatTime(stats.CreatedAt)},
		{"Last Updated", formatTime(stats.LastUpdated)},
	})

	v.printSection("Cache", [][]string{
		{"Hits", formatNumber(stats.CacheStats.CacheHits)},
		{"Misses", formatNumber(stats.CacheStats.CacheMisses)},
		{"Hit Rate", fmt.Sprintf("%.1f%%", stats.CacheStats.CacheHitRate*100)},
	})

	v.printSection("Performance", [][]string{
		{"Average Batch", formatDuration(stats.PerformanceStats.AverageDuration)},
		{"Fastest Batch", formatDuration(stats.PerformanceStats.FastestBatch)},
		{"Slowest Batch", formatDuration(stats.PerformanceStats.SlowestBatch)},
	})
}

// ShowLanguagePairs 显示语言对统计
func (v *Visualizer) ShowLanguagePairs() {
	stats := v.db.GetStats()

	v.printTitle(color.New(color.FgMagenta, color.Bold), "Language Pairs")

	if len(stats.LanguagePairs) == 0 {
		fmt.Fprintln(v.out, "No language pair data available.")
		return
	}

	// 按批次数量排序
	pairs := make([]*LanguagePairStats, 0, len(stats.LanguagePairs))
	for _, pair := range stats.LanguagePairs {
		pairs = append(pairs, pair)
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].BatchCount != pairs[j].BatchCount {
			return pairs[i].BatchCount > pairs[j].BatchCount
		}
		return pairKey(pairs[i].SourceLanguage, pairs[i].TargetLanguage) < pairKey(pairs[j].SourceLanguage, pairs[j].TargetLanguage)
	})

	tw := v.newTable()
	tw.AppendHeader(table.Row{"Pair", "Batches", "Texts", "Cache Hits", "Upstream", "Errors", "Avg Duration", "Last Used"})
	for _, pair := range pairs {
		source := pair.SourceLanguage
		if source == "" {
			source = "auto"
		}
		tw.AppendRow(table.Row{
			source + " → " + pair.TargetLanguage,
			formatNumber(pair.BatchCount),
			formatNumber(pair.TextCount),
			formatNumber(pair.CacheHits),
			formatNumber(pair.UpstreamStrings),
			formatNumber(pair.ErrorCount),
			formatDuration(pair.AverageDuration),
			formatTime(pair.LastUsed),
		})
	}
	tw.Render()
}

// ShowProviders 显示上游提供商统计
func (v *Visualizer) ShowProviders() {
	stats := v.db.GetStats()

	v.printTitle(color.New(color.FgGreen, color.Bold), "Upstream Providers")

	if len(stats.Providers) == 0 {
		fmt.Fprintln(v.out, "No upstream calls recorded.")
		return
	}

	names := make([]string, 0, len(stats.Providers))
	for name := range stats.Providers {
		names = append(names, name)
	}
	sort.Strings(names)

	tw := v.newTable()
	tw.AppendHeader(table.Row{"Provider", "Calls", "Failed", "Strings", "Avg Latency", "Max Latency", "Errors"})
	for _, name := range names {
		ps := stats.Providers[name]
		tw.AppendRow(table.Row{
			name,
			formatNumber(ps.TotalCalls),
			formatNumber(ps.FailedCalls),
			formatNumber(ps.TotalStrings),
			formatDuration(ps.AverageLatency),
			formatDuration(ps.MaxLatency),
			formatErrorTypes(ps.ErrorTypes),
		})
	}
	tw.Render()
}

// ShowRecentBatches 显示最近的批量请求
func (v *Visualizer) ShowRecentBatches(limit int) {
	records := v.db.GetRecentBatches(limit)

	v.printTitle(color.New(color.FgBlue, color.Bold), fmt.Sprintf("Recent Batches (Last %d)", len(records)))

	if len(records) == 0 {
		fmt.Fprintln(v.out, "No recent batches found.")
		return
	}

	tw := v.newTable()
	tw.AppendHeader(table.Row{"Time", "ID", "Target", "Texts", "Hits", "Misses", "Duration", "Status"})
	for _, record := range records {
		status := text.FgGreen.Sprint("ok")
		if !record.Success {
			status = text.FgRed.Sprint(record.ErrorType)
		}
		id := record.ID
		if len(id) > 8 {
			id = id[:8]
		}
		tw.AppendRow(table.Row{
			formatTime(record.StartTime),
			id,
			record.TargetLanguage,
			record.TextCount,
			record.CacheHits,
			record.CacheMisses,
			formatDuration(record.Duration),
			status,
		})
	}
	tw.Render()
}

// printTitle 打印标题
func (v *Visualizer) printTitle(c *color.Color, title string) {
	fmt.Fprintln(v.out)
	c.Fprintln(v.out, title)
	c.Fprintln(v.out, strings.Repeat("=", 50))
}

// printSection 打印一个统计部分
func (v *Visualizer) printSection(title string, data [][]string) {
	sectionColor := color.New(color.FgYellow, color.Bold)
	sectionColor.Fprintln(v.out, title)

	tw := v.newTable()
	for _, row := range data {
		tw.AppendRow(table.Row{row[0], row[1]})
	}
	tw.Render()
}

// newTable 创建输出到 v.out 的表格
func (v *Visualizer) newTable() table.Writer {
	tw := table.NewWriter()
	tw.SetOutputMirror(v.out)
	tw.SetStyle(table.StyleLight)
	return tw
}

// 辅助函数

// formatErrorTypes 格式化错误类型计数
func formatErrorTypes(types map[string]int64) string {
	if len(types) == 0 {
		return "-"
	}
	keys := make([]string, 0, len(types))
	for k := range types {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%d", k, types[k]))
	}
	return strings.Join(parts, " ")
}

// formatNumber 格式化数字（添加千位分隔符）
func formatNumber(n int64) string {
	str := strconv.FormatInt(n, 10)
	if len(str) <= 3 {
		return str
	}

	var result strings.Builder
	for i, char := range str {
		if i > 0 && (len(str)-i)%3 == 0 {
			result.WriteString(",")
		}
		result.WriteRune(char)
	}
	return result.String()
}

// formatDuration 格式化持续时间
func formatDuration(d time.Duration) string {
	if d == 0 {
		return "0s"
	}

	if d < time.Second {
		return fmt.Sprintf("%.0fms", float64(d.Nanoseconds())/1e6)
	}

	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}

	return fmt.Sprintf("%.1fm", d.Minutes())
}

// formatTime 格式化时间
func formatTime(t time.Time) string {
	if t.IsZero() {
		return "N/A"
	}
	return t.Local().Format("2006-01-02 15:04:05")
}
