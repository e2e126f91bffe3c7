package cli

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/nerdneilsfield/kiosk-translate/internal/stats"
	"github.com/spf13/cobra"
)

type statsOptions struct {
	file      string
	recent    int
	languages bool
	providers bool
	export    string
	reset     bool
	yes       bool
}

func newStatsCommand(root *rootOptions) *cobra.Command {
	opts := &statsOptions{}

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "查看翻译网关的统计数据",
		Long: `显示网关记录的批量请求统计：总览、缓存命中率、语言对、上游提供商和最近的请求。

示例：
  # 总览和最近 10 次请求
  kiosk stats

  # 只看语言对
  kiosk stats --languages

  # 导出为 JSON
  kiosk stats --export stats.json

  # 清空统计
  kiosk stats --reset --yes`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := root.load()
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			path := opts.file
			if path == "" {
				path = cfg.Translation.StatsFile
			}
			if path == "" {
				path = defaultStatsPath()
			}

			db, err := stats.NewDatabase(path, log.Named("stats"))
			if err != nil {
				return fmt.Errorf("failed to initialize statistics database: %w", err)
			}

			out := cmd.OutOrStdout()

			if opts.reset {
				if !opts.yes && !confirm(cmd, "Reset all statistics? This cannot be undone. (y/N): ") {
					fmt.Fprintln(out, "Statistics reset cancelled.")
					return nil
				}
				if err := db.Reset(); err != nil {
					return err
				}
				color.New(color.FgGreen).Fprintln(out, "Statistics reset.")
				return nil
			}

			if opts.export != "" {
				data, err := json.MarshalIndent(db.GetStats(), "", "  ")
				if err != nil {
					return fmt.Errorf("failed to marshal statistics: %w", err)
				}
				if err := os.WriteFile(opts.export, data, 0o644); err != nil {
					return fmt.Errorf("failed to write export file: %w", err)
				}
				fmt.Fprintf(out, "Statistics exported to %s\n", opts.export)
				return nil
			}

			v := stats.NewVisualizer(db, out)
			switch {
			case opts.languages:
				v.ShowLanguagePairs()
			case opts.providers:
				v.ShowProviders()
			default:
				v.ShowOverview()
				v.ShowRecentBatches(opts.recent)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&opts.file, "file", "f", "", "统计文件路径，覆盖 translation.stats_file")
	cmd.Flags().IntVar(&opts.recent, "recent", 10, "显示最近的请求数")
	cmd.Flags().BoolVar(&opts.languages, "languages", false, "只显示语言对统计")
	cmd.Flags().BoolVar(&opts.providers, "providers", false, "只显示上游提供商统计")
	cmd.Flags().StringVar(&opts.export, "export", "", "导出为 JSON 文件")
	cmd.Flags().BoolVar(&opts.reset, "reset", false, "清空统计数据")
	cmd.Flags().BoolVarP(&opts.yes, "yes", "y", false, "跳过确认")

	return cmd
}

// confirm 从命令输入读取一行确认
func confirm(cmd *cobra.Command, prompt string) bool {
	fmt.Fprint(cmd.OutOrStdout(), prompt)
	line, _ := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	}
	return false
}
