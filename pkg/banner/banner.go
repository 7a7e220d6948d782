package banner

import (
	"fmt"

	"threadkit/pkg/config"
)

const banner = `
████████╗██╗  ██╗██████╗ ███████╗ █████╗ ██████╗ ██╗  ██╗██╗████████╗
╚══██╔══╝██║  ██║██╔══██╗██╔════╝██╔══██╗██╔══██╗██║ ██╔╝██║╚══██╔══╝
   ██║   ███████║██████╔╝█████╗  ███████║██║  ██║█████╔╝ ██║   ██║
   ██║   ██╔══██║██╔══██╗██╔══╝  ██╔══██║██║  ██║██╔═██╗ ██║   ██║
   ██║   ██║  ██║██║  ██║███████╗██║  ██║██████╔╝██║  ██╗██║   ██║
   ╚═╝   ╚═╝  ╚═╝╚═╝  ╚═╝╚══════╝╚═╝  ╚═╝╚═════╝ ╚═╝  ╚═╝╚═╝   ╚═╝
`

// PrintWithEff prints the startup banner using the effective config.
func PrintWithEff(eff config.EffectiveConfigResult, version string) {
	addr := eff.Addr
	if addr == "" && eff.Config != nil {
		addr = eff.Config.Addr()
	}
	dbPath := eff.DBPath
	if dbPath == "" && eff.Config != nil {
		dbPath = eff.Config.Server.DBPath
	}
	src := eff.Source
	if src == "" {
		src = "flags"
	}

	fmt.Print(banner)
	fmt.Println("== Config =====================================================")
	fmt.Printf("Listen:   %s\n", addr)
	fmt.Printf("DB Path:  %s\n", dbPath)
	if version != "" {
		fmt.Printf("Version:  %s\n", version)
	}
	fmt.Printf("Config:   %s\n", src)

	provider := "scripted"
	if eff.Config != nil && eff.Config.Agent.Provider != "" {
		provider = eff.Config.Agent.Provider
	}
	fmt.Printf("Agent:    %s", provider)
	if eff.Config != nil && eff.Config.Agent.Model != "" {
		fmt.Printf(" (%s)", eff.Config.Agent.Model)
	}
	fmt.Println()

	if eff.Config != nil && eff.Config.Server.TLS.CertFile != "" && eff.Config.Server.TLS.KeyFile != "" {
		fmt.Println("TLS:      configured")
	} else {
		fmt.Println("TLS:      unconfigured")
	}

	fmt.Println("\n== Endpoints ==================================================")
	fmt.Println("POST   /v1/threads/{id}/turns    - Run a user turn (NDJSON events)")
	fmt.Println("POST   /v1/threads/{id}/actions  - Run a widget action (NDJSON events)")
	fmt.Println("GET    /v1/threads               - List threads (cursor pagination)")
	fmt.Println("GET    /v1/threads/{id}/items    - List thread items (cursor pagination)")
	fmt.Println("GET    /v1/tasks                 - List tasks")
	fmt.Println("GET    /healthz /readyz /metrics /docs/")

	fmt.Println("\n== Examples ===================================================")
	fmt.Printf("curl -X POST 'http://localhost%s/v1/threads/t1/turns' -d '{\"text\":\"add buy milk\"}'\n", addr)
	fmt.Printf("curl 'http://localhost%s/v1/threads/t1/items?limit=10'\n", addr)

	fmt.Println("\n== Logs =======================================================")
}
