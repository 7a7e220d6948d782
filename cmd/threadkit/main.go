package main

import (
	"context"

	"github.com/joho/godotenv"

	"threadkit/internal/app"
	"threadkit/pkg/config"
	"threadkit/pkg/logger"
	"threadkit/pkg/shutdown"
)

// build metadata - set via ldflags during build/release
var (
	version   = "dev"
	commit    = "none"
	buildDate = "unknown"
)

func main() {
	_ = godotenv.Load(".env")

	flags := config.ParseConfigFlags()

	fileCfg, fileExists, err := config.ParseConfigFile(flags)
	if err != nil {
		logger.Init("", "")
		shutdown.Abort("failed to parse config file", err, "", 0)
	}
	envCfg, envUsed := config.ParseConfigEnvs()

	eff, err := config.LoadEffectiveConfig(flags, fileCfg, fileExists, envCfg, envUsed)
	if err != nil {
		logger.Init("", "")
		shutdown.Abort("failed to resolve config", err, "", 0)
	}

	logger.Init(eff.Config.Logging.Level, eff.Config.Logging.Format)
	logger.Info("starting", "version", version, "config_source", eff.Source)

	a, err := app.New(eff, version, commit, buildDate)
	if err != nil {
		shutdown.Abort("startup failed", err, eff.DBPath, 0)
	}

	ctx, cancel := shutdown.SetupSignalHandler(context.Background())
	defer cancel()

	if err := a.Run(ctx); err != nil {
		shutdown.Abort("server failed", err, eff.DBPath, 0)
	}
	logger.Info("shutdown_complete")
}
