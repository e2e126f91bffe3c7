package main

import (
	"context"
	"os"

	"github.com/nerdneilsfield/kiosk-translate/internal/cli"
	"github.com/nerdneilsfield/kiosk-translate/internal/logger"
	"go.uber.org/zap"
)

// Version information
var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

func main() {
	log := logger.NewLogger(false)
	defer func() {
		_ = log.Sync()
	}()

	rootCmd := cli.NewRootCommand(Version, Commit, BuildDate)

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		log.Error("command failed", zap.Error(err))
		os.Exit(1)
	}
}
