// cmd/leadminer/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/leadscape/leadminer/internal/config"
	"github.com/leadscape/leadminer/internal/dashboard"
	"github.com/leadscape/leadminer/internal/filter"
	"github.com/leadscape/leadminer/internal/miner"
	"github.com/leadscape/leadminer/internal/monitoring"
	"github.com/leadscape/leadminer/internal/page"
	"github.com/leadscape/leadminer/internal/store"
	"github.com/leadscape/leadminer/internal/utils"
	"github.com/leadscape/leadminer/pkg/types"
)

// Version information (set by build flags)
var (
	version   = "dev"
	buildTime = "unknown"
	gitCommit = "unknown"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "run":
		flags := flag.NewFlagSet("run", flag.ExitOnError)
		configFile := flags.String("config", "", "path to the run configuration YAML")
		target := flags.Int("target", 0, "override the qualified-lead target")
		maxScrolls := flags.Int("max-scrolls", 0, "override the scroll budget")
		flags.Parse(os.Args[2:])
		if *configFile == "" {
			fmt.Fprintln(os.Stderr, "Usage: leadminer run -config <config.yaml> [-target N] [-max-scrolls N]")
			os.Exit(1)
		}
		if err := runMiner(*configFile, *target, *maxScrolls); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "validate":
		flags := flag.NewFlagSet("validate", flag.ExitOnError)
		configFile := flags.String("config", "", "path to the run configuration YAML")
		flags.Parse(os.Args[2:])
		if *configFile == "" {
			fmt.Fprintln(os.Stderr, "Usage: leadminer validate -config <config.yaml>")
			os.Exit(1)
		}
		if _, err := config.LoadFromFile(*configFile); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Configuration file '%s' is valid\n", *configFile)
	case "version":
		fmt.Printf("leadminer %s (built %s, commit %s)\n", version, buildTime, gitCommit)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`leadminer - audience-filtered lead mining engine

Usage:
  leadminer run -config <config.yaml> [-target N] [-max-scrolls N]
  leadminer validate -config <config.yaml>
  leadminer version`)
}

func runMiner(configFile string, target, maxScrolls int) error {
	cfg, err := config.LoadFromFile(configFile)
	if err != nil {
		return err
	}
	if target > 0 {
		cfg.Mining.TargetCount = target
	}
	if maxScrolls > 0 {
		cfg.Mining.MaxScrolls = maxScrolls
	}

	logger := utils.NewLoggerWithLevel(utils.ParseLevel(cfg.LogLevel)).WithField("component", "leadminer")

	selectors, err := cfg.SelectorSet()
	if err != nil {
		return err
	}

	adapter, err := page.NewBrowserAdapter(cfg.Browser, selectors, logger.WithField("component", "browser"))
	if err != nil {
		return fmt.Errorf("failed to start browser: %w", err)
	}
	defer adapter.Close()

	ctx := context.Background()
	if cfg.URL != "" {
		if err := adapter.Navigate(ctx, cfg.URL); err != nil {
			return err
		}
		root, err := adapter.LocateScrollRoot(ctx)
		if err != nil {
			return err
		}
		logger.Infof("scroll root: %s", root)
	}

	audience, dashClient, err := resolveAudience(ctx, cfg, logger)
	if err != nil {
		return err
	}

	var snapshots miner.SnapshotStore
	if cfg.SnapshotPath != "" {
		sqliteStore, err := store.NewSQLiteSnapshotStore(cfg.SnapshotPath)
		if err != nil {
			return err
		}
		defer sqliteStore.Close()
		snapshots = sqliteStore
	}

	metrics := monitoring.NewMetrics()
	controller, err := miner.NewController(&cfg.Mining, adapter, miner.Options{
		SessionID: cfg.SessionID,
		Platform:  cfg.Platform,
		Audience:  audience,
		Store:     snapshots,
		Metrics:   metrics,
		Logger:    logger.WithField("component", "miner"),
		OnProgress: func(p types.Progress) {
			logger.Debugf("%s (%.0f%%)", p.Message, p.Percent)
		},
	})
	if err != nil {
		return err
	}
	if err := controller.Preflight(ctx); err != nil {
		return err
	}

	if cfg.Monitoring.Enabled {
		server := monitoring.NewServer(cfg.Monitoring.Address, metrics, nil, logger)
		go func() {
			if err := server.Start(); err != nil {
				logger.Errorf("%v", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			server.Shutdown(shutdownCtx)
		}()
	}

	// SIGINT/SIGTERM request a graceful stop; the loop observes the flag
	// at the next boundary.
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(signals)
	go func() {
		<-signals
		logger.Info("stop requested, finishing current iteration")
		controller.Stop()
	}()

	summary := controller.Run(ctx)
	if summary.Err != nil {
		return summary.Err
	}
	logger.Infof("run finished: %s, %d leads in %s",
		summary.Reason, summary.Qualified, summary.Duration().Round(time.Second))

	return deliver(ctx, cfg, dashClient, summary, logger)
}

// resolveAudience returns the effective audience filter, fetching it from
// the dashboard when configured by reference.
func resolveAudience(ctx context.Context, cfg *config.Config, logger utils.Logger) (*filter.Spec, *dashboard.Client, error) {
	var client *dashboard.Client
	if cfg.Dashboard != nil {
		var err error
		client, err = dashboard.NewClient(*cfg.Dashboard, logger.WithField("component", "dashboard"))
		if err != nil {
			return nil, nil, err
		}
	}

	if cfg.AudienceID == "" {
		return cfg.Audience, client, nil
	}
	spec, err := client.FetchAudience(ctx, cfg.AudienceID)
	if err != nil {
		return nil, nil, err
	}
	logger.Infof("audience %q loaded (%d rules)", spec.ID, len(spec.Rules))
	return spec, client, nil
}

// deliver exports the mined leads to the configured sinks and, when a
// dashboard is configured, imports them there as well.
func deliver(ctx context.Context, cfg *config.Config, client *dashboard.Client, summary types.RunSummary, logger utils.Logger) error {
	sinks, err := cfg.Sinks()
	if err != nil {
		return err
	}
	if len(sinks) > 0 {
		manager := store.NewManager(sinks, logger.WithField("component", "export"))
		defer manager.Close()
		if err := manager.Export(ctx, summary.Leads); err != nil {
			return err
		}
	}

	if client != nil && len(summary.Leads) > 0 {
		if _, err := client.ImportLeads(ctx, cfg.SessionID, summary.Leads); err != nil {
			return err
		}
	}
	return nil
}
