// Package main is the wlcanary entry point. It wires the rig controller,
// the pat mailbox gateway, the health tracker, and the status server,
// then runs probe passes until shutdown.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/winlink-canary/wlc/internal/canary"
	"github.com/winlink-canary/wlc/internal/config"
	"github.com/winlink-canary/wlc/internal/health"
	"github.com/winlink-canary/wlc/internal/logging"
	"github.com/winlink-canary/wlc/internal/mailbox"
	"github.com/winlink-canary/wlc/internal/rig"
	"github.com/winlink-canary/wlc/internal/status"
)

const version = "1.0.0"

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "wlcanary.json", "path to the configuration file")
	listNodes := flag.Bool("list", false, "print the configured nodes and exit")
	passCount := flag.Int("count", 0, "number of probe passes to run before exiting (0 = run forever)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		return 1
	}

	// Positional arguments restrict the pass to the named nodes.
	if names := flag.Args(); len(names) > 0 {
		if err := filterNodes(cfg, names); err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
			return 1
		}
	}

	if *listNodes {
		for _, n := range cfg.Nodes {
			fmt.Printf("%-20s %8.3f MHz  channel %-3d  via %s\n", n.Name, n.FrequencyMHz, n.Channel, n.Peer)
		}
		return 0
	}

	log := logging.NewDefault(cfg.LogLevel)
	log.Info().Str("version", version).Int("nodes", len(cfg.Nodes)).Msg("starting wlcanary")

	// A rig that cannot be reached at startup means every probe would come
	// back RigError, so fail loudly instead.
	transport, err := rig.Open(cfg.RigPort, cfg.RigPortSpeed, cfg.RigTimeout)
	if err != nil {
		log.Error().Err(err).Str("port", cfg.RigPort).Msg("cannot open rig control port")
		return 1
	}
	controller := rig.NewController(transport, cfg.RigTimeout, log)
	defer func() {
		if err := controller.Close(); err != nil {
			log.Warn().Err(err).Msg("rig port close failed")
		}
	}()

	gateway := mailbox.NewPatGateway(cfg.PatBinPath, cfg.MailboxBasePath, log)
	tracker := health.NewTracker(cfg.HealthWindowSize, cfg.UnhealthyThreshold, cfg.Nodes)

	registry := prometheus.NewRegistry()
	metrics := canary.NewMetrics(registry)

	runner := canary.NewRunner(cfg, controller, gateway, tracker, log)
	runner.SetMetrics(metrics)
	runner.SetMaxPasses(*passCount)

	journal, err := canary.OpenJournal(cfg.JournalDir)
	if err != nil {
		log.Warn().Err(err).Str("dir", cfg.JournalDir).Msg("probe journal unavailable, continuing without")
	} else {
		runner.SetJournal(journal)
		defer journal.Close()
	}

	statusServer := status.NewServer(cfg, tracker, registry, log)
	go func() {
		if err := statusServer.Start(); err != nil {
			log.Error().Err(err).Msg("status server stopped unexpectedly")
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := runner.Run(ctx); err != nil {
		log.Error().Err(err).Msg("canary runner failed")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := statusServer.Stop(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("status server shutdown failed")
	}

	log.Info().Msg("shutdown complete")
	return 0
}

// filterNodes keeps only the named nodes, preserving configuration order.
func filterNodes(cfg *config.Config, names []string) error {
	wanted := make(map[string]bool, len(names))
	for _, name := range names {
		wanted[name] = true
	}

	var kept []config.Node
	for _, n := range cfg.Nodes {
		if wanted[n.Name] {
			kept = append(kept, n)
			delete(wanted, n.Name)
		}
	}
	if len(wanted) > 0 {
		for name := range wanted {
			return fmt.Errorf("unknown node %q (use -list to see configured nodes)", name)
		}
	}

	cfg.Nodes = kept
	return nil
}
