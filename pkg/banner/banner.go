package banner

import (
	"fmt"

	"hoaportal/pkg/config"
)

const banner = `
██╗  ██╗ ██████╗  █████╗ ██████╗  ██████╗ ██████╗ ████████╗ █████╗ ██╗
██║  ██║██╔═══██╗██╔══██╗██╔══██╗██╔═══██╗██╔══██╗╚══██╔══╝██╔══██╗██║
███████║██║   ██║███████║██████╔╝██║   ██║██████╔╝   ██║   ███████║██║
██╔══██║██║   ██║██╔══██║██╔═══╝ ██║   ██║██╔══██╗   ██║   ██╔══██║██║
██║  ██║╚██████╔╝██║  ██║██║     ╚██████╔╝██║  ██║   ██║   ██║  ██║███████╗
╚═╝  ╚═╝ ╚═════╝ ╚═╝  ╚═╝╚═╝      ╚═════╝ ╚═╝  ╚═╝   ╚═╝   ╚═╝  ╚═╝╚══════╝
`

// Print writes the startup banner with the effective runtime settings
// and a short production checklist.
func Print(cfg *config.Config, source, version string) {
	fmt.Print(banner)
	fmt.Println("== Config =====================================================")
	fmt.Printf("Listen:   %s\n", cfg.Addr())
	fmt.Printf("DB Path:  %s\n", cfg.Storage.DBPath)
	if version != "" {
		fmt.Printf("Version:  %s\n", version)
	}
	if source != "" {
		fmt.Printf("Config:   %s\n", source)
	}
	fmt.Printf("Sessions: access=%s refresh=%s\n", cfg.AccessTTL(), cfg.RefreshWindow())

	fmt.Println("\n== Examples ===================================================")
	fmt.Println("curl -X POST 'http://<host>:<port>/v1/login' -d '{\"email\":\"...\",\"password\":\"...\"}'")
	fmt.Println("curl -H 'Authorization: Bearer <token>' 'http://<host>:<port>/v1/accounts/me/ledger'")

	fmt.Println("\n== Production? ================================================")
	if cfg.Server.TLS.CertFile != "" && cfg.Server.TLS.KeyFile != "" {
		fmt.Println("- TLS: configured")
	} else {
		fmt.Println("- TLS: unconfigured")
	}
	if cfg.Storage.DBPath != "" {
		fmt.Printf("- DB Path: %s\n", cfg.Storage.DBPath)
	} else {
		fmt.Println("- DB Path: not set (use --db or HOAPORTAL_DB_PATH)")
	}
	if len(cfg.Security.CORS.AllowedOrigins) > 0 {
		fmt.Printf("- CORS origins: %d configured\n", len(cfg.Security.CORS.AllowedOrigins))
	} else {
		fmt.Println("- CORS origins: none (browser clients will be refused)")
	}
	if cfg.Retention.Enabled {
		fmt.Printf("- Session retention: enabled (cron=%s)\n", cfg.Retention.Cron)
	} else {
		fmt.Println("- Session retention: disabled")
	}

	fmt.Println("\n== Logs: ======================================================")
}
