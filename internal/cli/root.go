package cli

import (
	"fmt"

	"github.com/nerdneilsfield/kiosk-translate/internal/config"
	"github.com/nerdneilsfield/kiosk-translate/internal/logger"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// rootOptions 所有子命令共用的标志
type rootOptions struct {
	configFile string
	debug      bool
	logLevel   string
}

// load 加载配置并创建日志记录器，命令行标志覆盖配置文件
func (o *rootOptions) load() (*config.Config, *zap.Logger, error) {
	cfg, err := config.LoadConfig(o.configFile)
	if err != nil {
		return nil, nil, err
	}
	if o.debug {
		cfg.Debug = true
	}
	if o.logLevel != "" {
		cfg.LogLevel = o.logLevel
	}

	log, err := logger.New(cfg.Debug, cfg.LogLevel)
	if err != nil {
		return nil, nil, err
	}
	return cfg, log, nil
}

// NewRootCommand 创建根命令
func NewRootCommand(version, commit, buildDate string) *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:   "kiosk",
		Short: "Kiosk page translation gateway and scanner",
		Long: `kiosk 为自助终端页面提供整页翻译：

  serve      启动批量翻译网关（POST /api/translate），带 FIFO 缓存
  page       扫描 HTML 页面，翻译可见文本和属性后输出改写的页面
  stats      查看网关的统计数据
  providers  列出支持的上游翻译提供商

配置文件默认为 ~/.kiosk.yaml 或 ./.kiosk.yaml，环境变量前缀为 KIOSK_。`,
		Version:       fmt.Sprintf("%s (commit %s, built %s)", version, commit, buildDate),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVarP(&opts.configFile, "config", "c", "", "配置文件路径")
	rootCmd.PersistentFlags().BoolVarP(&opts.debug, "debug", "d", false, "启用调试日志")
	rootCmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "日志级别 (debug, info, warn, error)")

	rootCmd.AddCommand(
		newServeCommand(opts),
		newPageCommand(opts),
		newStatsCommand(opts),
		newProvidersCommand(opts),
	)

	return rootCmd
}
