package app

import (
	"fmt"
	"os"
	"strings"

	"threadkit/pkg/config"
)

// validateConfig performs quick, fail-fast validation of the effective
// configuration before starting long-running services. Keep checks light
// and focused so callers can surface user-friendly errors.
func validateConfig(eff config.EffectiveConfigResult) error {
	if p := eff.DBPath; p == "" {
		return fmt.Errorf("database path is empty: set --db flag, THREADKIT_DB_PATH env, or server.db_path in config")
	}

	cert := eff.Config.Server.TLS.CertFile
	key := eff.Config.Server.TLS.KeyFile
	if (cert != "" && key == "") || (cert == "" && key != "") {
		return fmt.Errorf("incomplete TLS configuration: both server.tls.cert_file and server.tls.key_file must be set")
	}
	if cert != "" {
		if _, err := os.Stat(cert); err != nil {
			return fmt.Errorf("tls cert file not accessible: %w", err)
		}
		if _, err := os.Stat(key); err != nil {
			return fmt.Errorf("tls key file not accessible: %w", err)
		}
	}

	if p := strings.ToLower(strings.TrimSpace(eff.Config.Agent.Provider)); p != "" {
		switch p {
		case "openai", "scripted":
		default:
			return fmt.Errorf("unknown agent provider %q: expected openai or scripted", p)
		}
	}

	if d := eff.Config.Pagination.DefaultLimit; d < 0 {
		return fmt.Errorf("pagination.default_limit must not be negative")
	}
	if m := eff.Config.Pagination.MaxLimit; m < 0 {
		return fmt.Errorf("pagination.max_limit must not be negative")
	}

	return nil
}
