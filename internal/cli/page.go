package cli

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/nerdneilsfield/kiosk-translate/pkg/pagescan"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type pageOptions struct {
	target     string
	gatewayURL string
	source     string
	mimeType   string
	base       string
	hidden     []string
}

func newPageCommand(root *rootOptions) *cobra.Command {
	opts := &pageOptions{}

	cmd := &cobra.Command{
		Use:   "page <input.html> [output.html]",
		Short: "翻译一个 HTML 页面",
		Long: `扫描页面中可见的文本和 placeholder/title/aria-label/alt 属性，
去重后一次发送给网关，再把译文写回页面。script/style/code/pre/noscript、
data-i18n-ignore 和 .no-translate 区域保持不变。

未指定 --gateway 时使用进程内网关（按配置创建上游提供商）。
未指定输出文件时写到标准输出。目标语言等于页面原始语言时输出原文。`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := root.load()
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			var client pagescan.BatchTranslator
			if opts.gatewayURL != "" {
				client = pagescan.NewClient(opts.gatewayURL, &http.Client{Timeout: cfg.Translation.UpstreamTimeout + cfg.Server.WriteTimeout})
			} else {
				rt, err := newRuntime(ctx, cfg, log)
				if err != nil {
					return err
				}
				defer func() {
					if err := rt.Close(); err != nil {
						log.Warn("failed to close runtime", zap.Error(err))
					}
				}()
				client = rt.service
			}

			base := opts.base
			if base == "" {
				base = cfg.Translation.BaseLanguage
			}

			in, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read input: %w", err)
			}

			sessionOpts := []pagescan.Option{
				pagescan.WithBaseLanguage(base),
				pagescan.WithSource(opts.source),
				pagescan.WithMimeType(opts.mimeType),
				pagescan.WithLogger(log.Named("pagescan")),
			}
			if len(opts.hidden) > 0 {
				sessionOpts = append(sessionOpts, pagescan.WithHiddenClasses(opts.hidden...))
			}
			session, err := pagescan.NewSessionFromReader(bytes.NewReader(in), client, sessionOpts...)
			if err != nil {
				return err
			}

			if err := session.Translate(ctx, opts.target); err != nil {
				return fmt.Errorf("failed to translate %s: %w", args[0], err)
			}

			var buf bytes.Buffer
			if err := session.Render(&buf); err != nil {
				return fmt.Errorf("failed to render page: %w", err)
			}

			snap := session.Snapshot()
			log.Info("page translated",
				zap.String("input", args[0]),
				zap.String("target", opts.target),
				zap.Int("texts", len(snap.Texts)),
				zap.Int("attrs", len(snap.Attrs)))

			if len(args) == 2 {
				if err := os.WriteFile(args[1], buf.Bytes(), 0o644); err != nil {
					return fmt.Errorf("failed to write output: %w", err)
				}
				return nil
			}
			_, err = io.Copy(cmd.OutOrStdout(), &buf)
			return err
		},
	}

	cmd.Flags().StringVarP(&opts.target, "target", "t", "", "目标语言（必填）")
	cmd.Flags().StringVarP(&opts.gatewayURL, "gateway", "g", "", "网关地址，例如 http://127.0.0.1:3000")
	cmd.Flags().StringVarP(&opts.source, "source", "s", "", "源语言，留空由上游检测")
	cmd.Flags().StringVar(&opts.mimeType, "mime", "", "文本 MIME 类型，默认 text/plain")
	cmd.Flags().StringVar(&opts.base, "base", "", "页面原始语言，覆盖 translation.base_language")
	cmd.Flags().StringSliceVar(&opts.hidden, "hidden-class", nil, "视为隐藏的类名，默认 hidden")
	_ = cmd.MarkFlagRequired("target")

	return cmd
}
