package main

import (
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"

	"github.com/brojonat/amendfinder/service/config"
	"github.com/brojonat/amendfinder/service/metrics"
	natspkg "github.com/brojonat/amendfinder/service/nats"
	"github.com/brojonat/amendfinder/service/rippled"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/urfave/cli/v2"
)

var (
	// Version information (set via ldflags during build)
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// exitBoundsExceeded is the exit status when a search runs off both ends of
// the available ledger history without a match.
const exitBoundsExceeded = 2

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "amendfinder",
		Usage: "Find the ledger holding an amendment's EnableAmendment transaction",
		Description: `A command-line tool for locating amendment status changes on the XRP Ledger.

EnableAmendment pseudo-transactions only appear in flag ledgers (index % 256 == 1).
Given an approximate ledger index, amendfinder snaps to the flag ledger at or below it
and probes outward in both directions through a rippled JSON-RPC endpoint.`,
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		Commands: []*cli.Command{
			searchCommand(),
			ledgerCommand(),
			alignCommand(),
		},
		// Global flags available to all commands. When set they take
		// precedence over the config file and environment variables.
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to a YAML config file",
				EnvVars: []string{"AMENDFINDER_CONFIG"},
			},
			&cli.StringFlag{
				Name:  "host",
				Usage: "rippled host (default s2.ripple.com, env RIPPLED_HOST)",
			},
			&cli.IntFlag{
				Name:  "port",
				Usage: "rippled JSON-RPC port (default 51234, env RIPPLED_PORT)",
			},
			&cli.StringFlag{
				Name:  "scheme",
				Usage: "http or https (default http, env RIPPLED_SCHEME)",
			},
			&cli.DurationFlag{
				Name:  "timeout",
				Usage: "Per-request timeout, 0 for none (default 30s, env RPC_TIMEOUT)",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "debug, info, warn or error (default info, env LOG_LEVEL)",
			},
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "Enable debug logging (same as --log-level debug)",
			},
			&cli.StringFlag{
				Name:  "nats-url",
				Usage: "Publish search results to this NATS server (env NATS_URL)",
			},
			&cli.StringFlag{
				Name:  "metrics-file",
				Usage: "Write Prometheus metrics to this file on exit (env METRICS_FILE)",
			},
			&cli.BoolFlag{
				Name:    "json",
				Aliases: []string{"j"},
				Usage:   "Output in JSON format",
			},
		},
	}
}

// deps bundles the dependencies shared by all commands.
type deps struct {
	cfg      *config.Config
	logger   *slog.Logger
	registry *prometheus.Registry
	metrics  *metrics.Metrics
	client   *rippled.Client
}

// newDeps loads configuration, applies global flags and wires the rippled client.
func newDeps(c *cli.Context) (*deps, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, err
	}

	applyFlags(c, cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := setupLogger(cfg.LogLevel, c.App.ErrWriter)

	registry := prometheus.NewRegistry()
	m := metrics.NewMetrics(registry)

	rpc := rippled.NewRPCClient(cfg.Endpoint(), cfg.RPCTimeout)
	client := rippled.NewClient(rpc, cfg.Address(), m, logger)

	logger.Debug("initialized rippled client",
		"endpoint", cfg.Endpoint(),
		"timeout", cfg.RPCTimeout,
	)

	return &deps{
		cfg:      cfg,
		logger:   logger,
		registry: registry,
		metrics:  m,
		client:   client,
	}, nil
}

// close flushes metrics to the configured textfile, if any.
func (d *deps) close() {
	if d.cfg.MetricsFile == "" {
		return
	}
	if err := prometheus.WriteToTextfile(d.cfg.MetricsFile, d.registry); err != nil {
		d.logger.Warn("failed to write metrics file", "path", d.cfg.MetricsFile, "error", err)
	}
}

// newPublisher connects to NATS. Replaced in tests.
var newPublisher = func(url string, m *metrics.Metrics, logger *slog.Logger) (natspkg.Publisher, error) {
	p, err := natspkg.NewPublisher(url, m, logger)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func applyFlags(c *cli.Context, cfg *config.Config) {
	if c.IsSet("host") {
		cfg.RippledHost = c.String("host")
	}
	if c.IsSet("port") {
		cfg.RippledPort = c.Int("port")
	}
	if c.IsSet("scheme") {
		cfg.RippledScheme = c.String("scheme")
	}
	if c.IsSet("timeout") {
		cfg.RPCTimeout = c.Duration("timeout")
	}
	if c.IsSet("log-level") {
		cfg.LogLevel = c.String("log-level")
	}
	if c.Bool("verbose") {
		cfg.LogLevel = "debug"
	}
	if c.IsSet("nats-url") {
		cfg.NATSURL = c.String("nats-url")
	}
	if c.IsSet("metrics-file") {
		cfg.MetricsFile = c.String("metrics-file")
	}
}

// setupLogger creates a structured logger with the given log level.
func setupLogger(levelStr string, w io.Writer) *slog.Logger {
	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	if w == nil {
		w = os.Stderr
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	return slog.New(slog.NewJSONHandler(w, opts))
}
