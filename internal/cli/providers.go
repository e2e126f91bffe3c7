package cli

import (
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/nerdneilsfield/kiosk-translate/internal/config"
	"github.com/nerdneilsfield/kiosk-translate/pkg/providers/factory"
	"github.com/spf13/cobra"
)

func newProvidersCommand(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "providers",
		Short: "列出支持的上游翻译提供商",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := root.load()
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			f := factory.New(factory.Options{Timeout: cfg.Translation.UpstreamTimeout})

			tw := table.NewWriter()
			tw.SetOutputMirror(cmd.OutOrStdout())
			tw.SetStyle(table.StyleLight)
			tw.AppendHeader(table.Row{"Provider", "Active", "Max Batch", "HTML", "API Key"})
			for _, name := range config.ProviderNames {
				p, err := f.CreateProvider(name, cfg.Providers[name])
				if err != nil {
					return err
				}
				caps := p.GetCapabilities()

				active := ""
				if name == cfg.Translation.Provider {
					active = text.FgGreen.Sprint("*")
				}
				maxBatch := "unlimited"
				if caps.MaxBatchSize > 0 {
					maxBatch = strconv.Itoa(caps.MaxBatchSize)
				}
				apiKey := "-"
				if caps.RequiresAPIKey {
					apiKey = "missing"
					if cfg.Providers[name].APIKey != "" {
						apiKey = "set"
					}
				}
				tw.AppendRow(table.Row{name, active, maxBatch, yesNo(caps.SupportsHTML), apiKey})
			}
			tw.Render()
			return nil
		},
	}
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
