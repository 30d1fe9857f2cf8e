package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/lanternhq/lantern/internal/buildinfo"
	"github.com/lanternhq/lantern/pkg/config"
	"github.com/lanternhq/lantern/pkg/server"
	"github.com/lanternhq/lantern/pkg/server/sources"
	"github.com/lanternhq/lantern/pkg/service"
)

// configPathFromArgs resolves the --config flag anywhere in args so
// subcommands and the run path read the same file.
func configPathFromArgs(args []string) string {
	for i, a := range args {
		if a == "--config" && i+1 < len(args) {
			return args[i+1]
		}
	}
	return "lantern.yaml"
}

func main() {
	configPath := configPathFromArgs(os.Args[1:])

	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "version":
			fmt.Printf("lanternd %s (%s) built %s\n", buildinfo.Version, buildinfo.Commit, buildinfo.Date)
			return
		case "install":
			// Only bake an explicit config path into the unit; the
			// default is resolved at service start.
			installPath := ""
			if configPath != "lantern.yaml" {
				installPath = configPath
			}
			if err := service.Install(installPath); err != nil {
				fmt.Fprintln(os.Stderr, "install failed:", err)
				os.Exit(1)
			}
			fmt.Println("lanternd installed and started as a systemd user service")
			return
		case "uninstall":
			if err := service.Uninstall(); err != nil {
				fmt.Fprintln(os.Stderr, "uninstall failed:", err)
				os.Exit(1)
			}
			fmt.Println("lanternd service removed")
			return
		case "status":
			listen := config.DefaultListen
			if cfg, err := config.Load(configPath); err == nil {
				listen = cfg.Listen
			}
			fmt.Println(service.Status(listen))
			return
		}
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("shutting down")
		cancel()
	}()

	cfg, err := config.Load(configPath)
	if err != nil {
		logger.Error("config load failed", "path", configPath, "err", err)
		os.Exit(1)
	}
	for _, e := range config.Validate(cfg) {
		logger.Warn("config validation", "err", e)
	}

	srv := server.New(cfg.Listen, cfg.Token, logger)

	for _, s := range cfg.Serve {
		switch s.Kind {
		case "file":
			srv.AddSource(sources.NewFile(s.ID, s.Name, s.Path, logger), s.Default)
		case "journal":
			if state, err := sources.UnitState(ctx, s.Unit); err != nil {
				logger.Warn("unit lookup failed", "unit", s.Unit, "err", err)
			} else if state != "active" {
				logger.Warn("unit is not active", "unit", s.Unit, "state", state)
			}
			srv.AddSource(sources.NewJournal(s.ID, s.Name, s.Unit, logger), s.Default)
		default:
			logger.Warn("skipping source with unknown kind", "id", s.ID, "kind", s.Kind)
		}
	}

	if len(srv.Sources()) == 0 {
		logger.Error("no serve sources configured", "path", configPath)
		os.Exit(1)
	}

	logger.Info("starting lanternd", "version", buildinfo.Version, "listen", cfg.Listen, "sources", len(srv.Sources()))
	if err := srv.Run(ctx); err != nil {
		logger.Error("server error", "err", err)
		os.Exit(1)
	}
}
