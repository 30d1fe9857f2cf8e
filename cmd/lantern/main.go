package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/lanternhq/lantern/internal/buildinfo"
	"github.com/lanternhq/lantern/pkg/config"
	"github.com/lanternhq/lantern/pkg/core"
	"github.com/lanternhq/lantern/pkg/stream"
	tuimodel "github.com/lanternhq/lantern/pkg/tui/model"
)

var (
	configPath string
	serverFlag string
	tokenFlag  string
	sourceFlag string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "lantern",
	Short: "Terminal viewer for streaming logs",
	Long:  "Lantern connects to a log gateway over WebSocket and shows a live, auto-following window of the most recent lines.",
	RunE:  runTUI,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to lantern.yaml")
	rootCmd.PersistentFlags().StringVar(&serverFlag, "server", "", "gateway base address (overrides config)")
	rootCmd.PersistentFlags().StringVar(&tokenFlag, "token", "", "bearer token (overrides config)")
	rootCmd.Flags().StringVar(&sourceFlag, "source", "", "source to connect to first")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(sourcesCmd)
}

// loadConfig reads the config file (explicit path, else ./lantern.yaml,
// else defaults) and applies flag overrides.
func loadConfig() (*config.Config, error) {
	path := configPath
	if path == "" {
		path = "lantern.yaml"
	}

	cfg, err := config.Load(path)
	if err != nil {
		if configPath != "" || !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
		cfg = config.Default()
	}

	if serverFlag != "" {
		cfg.Server = serverFlag
	}
	if tokenFlag != "" {
		cfg.Token = tokenFlag
	}
	return cfg, nil
}

// --- Root: TUI ---

func runTUI(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	maxDelay := time.Duration(cfg.MaxDelayMs) * time.Millisecond
	if cfg.MaxDelayMs < 0 {
		maxDelay = 0
	}
	manager := stream.New(stream.Options{
		BaseURL:     cfg.Server,
		Tokens:      core.StaticToken(cfg.Token),
		Interval:    time.Duration(cfg.IntervalMs) * time.Millisecond,
		Capacity:    cfg.Capacity,
		Window:      time.Duration(cfg.DebounceMs) * time.Millisecond,
		MaxDelay:    maxDelay,
		RetryBudget: cfg.RetryAttempts,
		RetryDelay:  time.Duration(cfg.RetryDelayMs) * time.Millisecond,
	}, nil)

	srcs := cfg.Sources
	if sourceFlag != "" {
		// Put the requested source first so it connects immediately.
		reordered := []core.Source{}
		rest := []core.Source{}
		for _, s := range srcs {
			if s.ID == sourceFlag {
				reordered = append(reordered, s)
			} else {
				rest = append(rest, s)
			}
		}
		if len(reordered) == 0 {
			reordered = append(reordered, core.Source{ID: sourceFlag, Name: sourceFlag})
		}
		srcs = append(reordered, rest...)
	}

	app := tuimodel.New(manager, srcs, cfg.FollowThreshold)
	p := tea.NewProgram(app, tea.WithAltScreen())
	_, err = p.Run()
	return err
}

// --- Version ---

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(_ *cobra.Command, _ []string) {
		fmt.Printf("lantern %s (%s) built %s\n", buildinfo.Version, buildinfo.Commit, buildinfo.Date)
	},
}

// --- Sources ---

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "List the sources the gateway serves",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		endpoint, err := sourcesURL(cfg.Server, cfg.Token)
		if err != nil {
			return err
		}

		resp, err := http.Get(endpoint)
		if err != nil {
			return fmt.Errorf("query gateway: %w", err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("gateway returned %s", resp.Status)
		}

		var srcs []core.Source
		if err := json.NewDecoder(resp.Body).Decode(&srcs); err != nil {
			return fmt.Errorf("decode sources: %w", err)
		}

		if len(srcs) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "no sources")
			return nil
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%-20s %s\n", "ID", "NAME")
		for _, s := range srcs {
			fmt.Fprintf(cmd.OutOrStdout(), "%-20s %s\n", s.ID, s.Name)
		}
		return nil
	},
}

// sourcesURL maps the (possibly ws/wss) base address to the HTTP
// sources endpoint.
func sourcesURL(base, token string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("parse base address %q: %w", base, err)
	}
	switch u.Scheme {
	case "ws":
		u.Scheme = "http"
	case "wss":
		u.Scheme = "https"
	case "http", "https":
	default:
		return "", fmt.Errorf("unsupported scheme %q in base address %q", u.Scheme, base)
	}
	u.Path = "/api/sources"
	q := url.Values{}
	q.Set("token", token)
	u.RawQuery = q.Encode()
	return u.String(), nil
}
