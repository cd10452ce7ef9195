package main

import (
	"context"
	"net"
	"strconv"
	"strings"

	"hoaportal/internal/app"
	"hoaportal/pkg/config"
	"hoaportal/pkg/logger"
	"hoaportal/pkg/shutdown"
)

// build metadata - set via ldflags during build/release
var (
	version   = "dev"
	commit    = "none"
	buildDate = "unknown"
)

func main() {
	addrVal, dbVal, cfgVal, setFlags := config.ParseCommandFlags()
	cfgPath := config.ResolveConfigPath(cfgVal, setFlags["config"])

	cfg, envUsed, err := config.LoadEffective(cfgPath)
	if err != nil {
		shutdown.Abort("config load failed", err, "", 0)
	}

	// explicit flags win over env and config file
	if setFlags["addr"] {
		applyAddrFlag(cfg, addrVal)
	}
	if setFlags["db"] || cfg.Storage.DBPath == "" {
		cfg.Storage.DBPath = dbVal
	}

	logger.Init(cfg.Logging.Level)

	var srcs []string
	if len(setFlags) > 0 {
		srcs = append(srcs, "flags")
	}
	if envUsed {
		srcs = append(srcs, "env")
	}
	if _, err := config.Load(cfgPath); err == nil {
		srcs = append(srcs, "config")
	}

	a, err := app.New(cfg, strings.Join(srcs, ", "), version, commit, buildDate)
	if err != nil {
		shutdown.Abort("startup failed", err, cfg.Storage.DBPath, 0)
	}
	defer a.Close()

	ctx, cancel := shutdown.SetupSignalHandler(context.Background())
	defer cancel()

	if err := a.Run(ctx); err != nil {
		shutdown.Abort("server failed", err, cfg.Storage.DBPath, 0)
	}
	logger.Info("server_stopped")
}

// applyAddrFlag splits a host:port flag value onto the config.
func applyAddrFlag(cfg *config.Config, addr string) {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		cfg.Server.Address = addr
		return
	}
	cfg.Server.Address = host
	if p, err := strconv.Atoi(port); err == nil {
		cfg.Server.Port = p
	}
}
