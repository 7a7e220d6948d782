package app

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"threadkit/pkg/chat"
	"threadkit/pkg/config"
	"threadkit/pkg/logger"
	"threadkit/pkg/runtime"
	"threadkit/pkg/store"
	"threadkit/pkg/validation"

	"github.com/dustin/go-humanize"
)

// App encapsulates the server components and lifecycle.
type App struct {
	eff       config.EffectiveConfigResult
	version   string
	commit    string
	buildDate string

	orch *chat.Orchestrator
	srv  *http.Server
}

// New initializes resources that do not require a running context (DB,
// validation rules, the reasoning runtime). It does not start the HTTP
// server; call Run to start it and block until shutdown.
func New(eff config.EffectiveConfigResult, version, commit, buildDate string) (*App, error) {
	if err := validateConfig(eff); err != nil {
		return nil, err
	}

	initValidation(eff)

	if err := store.Open(eff.DBPath); err != nil {
		return nil, fmt.Errorf("failed to open pebble at %s: %w", eff.DBPath, err)
	}
	logger.Info("store_opened", "path", eff.DBPath, "disk_usage", humanize.Bytes(store.DiskUsage()))

	a := &App{eff: eff, version: version, commit: commit, buildDate: buildDate}
	a.orch = chat.New(buildRuntime(eff.Config))
	return a, nil
}

// Run starts the HTTP server and blocks until ctx is canceled or a fatal
// server error occurs.
func (a *App) Run(ctx context.Context) error {
	a.printBanner()

	errCh := a.startHTTP(ctx)

	select {
	case <-ctx.Done():
		a.shutdownHTTP()
		if err := store.Close(); err != nil {
			logger.Error("store_close_failed", "error", err)
		}
		return nil
	case err := <-errCh:
		return err
	}
}

// buildRuntime selects the reasoning runtime from config. An unset or
// unknown provider falls back to the deterministic scripted runtime so the
// server stays usable without credentials.
func buildRuntime(cfg *config.Config) runtime.Runtime {
	tasks := runtime.StoreTasks{}
	provider := strings.ToLower(strings.TrimSpace(cfg.Agent.Provider))
	switch provider {
	case "openai":
		model := cfg.Agent.Model
		if model == "" {
			model = "gpt-4.1-mini"
		}
		if strings.TrimSpace(cfg.Agent.APIKey) == "" {
			logger.Warn("agent_api_key_missing", "provider", provider, "msg", "falling back to scripted runtime")
			return runtime.NewScripted(tasks)
		}
		logger.Info("agent_runtime_selected", "provider", provider, "model", model)
		return runtime.NewOpenAI(cfg.Agent.APIKey, cfg.Agent.BaseURL, model, tasks)
	case "", "scripted":
		logger.Info("agent_runtime_selected", "provider", "scripted")
		return runtime.NewScripted(tasks)
	default:
		logger.Warn("agent_provider_unknown", "provider", provider, "msg", "falling back to scripted runtime")
		return runtime.NewScripted(tasks)
	}
}

// initValidation builds validation rules from config and sets them globally.
func initValidation(eff config.EffectiveConfigResult) {
	vr := validation.Rules{MaxLen: map[string]int{}, Enums: map[string][]string{}}
	vr.Required = append(vr.Required, eff.Config.Validation.Required...)
	for _, ml := range eff.Config.Validation.MaxLen {
		vr.MaxLen[ml.Path] = ml.Max
	}
	for _, e := range eff.Config.Validation.Enums {
		vr.Enums[e.Path] = append([]string{}, e.Values...)
	}
	validation.SetRules(vr)
}
