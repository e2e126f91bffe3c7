package cli

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nerdneilsfield/kiosk-translate/internal/config"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// shutdownTimeout 优雅关闭的最长等待时间
const shutdownTimeout = 10 * time.Second

func newServeCommand(root *rootOptions) *cobra.Command {
	var (
		addr     string
		provider string
		disabled bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "启动批量翻译网关",
		Long: `启动 HTTP 网关：

  POST /api/translate        {"texts":[...],"target":"zh"} -> {"results":[...]}
  GET  /api/translate/stats  缓存与上游统计
  GET  /healthz              健康检查

收到 SIGINT/SIGTERM 后停止接收新请求，等待进行中的请求完成再退出。`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := root.load()
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			if addr != "" {
				cfg.Server.Addr = addr
			}
			if provider != "" {
				if !config.IsKnownProvider(provider) {
					return fmt.Errorf("unknown provider %q", provider)
				}
				cfg.Translation.Provider = provider
			}
			if disabled {
				cfg.Translation.Enabled = false
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			ln, err := net.Listen("tcp", cfg.Server.Addr)
			if err != nil {
				return fmt.Errorf("failed to listen on %s: %w", cfg.Server.Addr, err)
			}
			return serve(ctx, ln, cfg, log)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "监听地址，覆盖 server.addr")
	cmd.Flags().StringVarP(&provider, "provider", "p", "", "上游提供商，覆盖 translation.provider")
	cmd.Flags().BoolVar(&disabled, "disabled", false, "以关闭翻译的状态启动（接口返回 503）")

	return cmd
}

// serve 在 ln 上运行网关直到 ctx 结束
func serve(ctx context.Context, ln net.Listener, cfg *config.Config, log *zap.Logger) error {
	rt, err := newRuntime(ctx, cfg, log)
	if err != nil {
		_ = ln.Close()
		return err
	}
	defer func() {
		if err := rt.Close(); err != nil {
			log.Warn("failed to close runtime", zap.Error(err))
		}
	}()

	srv := &http.Server{
		Handler:      rt.service.Handler(rt.statsSource()),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		ErrorLog:     zap.NewStdLog(log.Named("http")),
	}

	serveErr := make(chan error, 1)
	log.Info("gateway listening", zap.String("addr", ln.Addr().String()))
	go func() {
		serveErr <- srv.Serve(ln)
	}()

	select {
	case <-ctx.Done():
		log.Info("shutting down gateway")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		return nil
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve http: %w", err)
	}
}
