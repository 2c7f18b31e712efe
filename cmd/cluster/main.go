// Command docktail-cluster runs the cluster service: the agent pool, the
// cross-agent query layer, and the subscription layer built on top of it.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"docktail/internal/cluster/pool"
	"docktail/internal/cluster/query"
	"docktail/internal/config"
	"docktail/internal/metrics"
	"docktail/pkg/logging"

	"github.com/spf13/cobra"
)

// Exit codes for the cluster CLI.
const (
	// ExitCodeSuccess indicates successful execution.
	ExitCodeSuccess = 0
	// ExitCodeError indicates a general error (bad flags, config load failure).
	ExitCodeError = 1
)

var version = "dev"

var (
	configPath    string
	logLevel      string
	metricsAddr   string
	healthCheckMS int
)

// rootCmd is the entry point when docktail-cluster is invoked without
// subcommands: it starts the agent pool's health checker and serves the
// query/subscription layers until signaled to stop.
var rootCmd = &cobra.Command{
	Use:   "docktail-cluster",
	Short: "Run the docktail cluster service",
	Long: `docktail-cluster maintains the fleet-wide agent pool, answers
cross-agent inventory and swarm queries, and relays log, stat, and
orchestration-event subscriptions across every registered agent.`,
	SilenceUsage: true,
	RunE:         runCluster,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config directory (default $HOME/.config/docktail)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level: debug, info, warn, error")
	rootCmd.Flags().StringVar(&metricsAddr, "metrics-addr", ":9091", "address to serve Prometheus metrics on")
	rootCmd.Flags().IntVar(&healthCheckMS, "health-check-interval-ms", 5000, "agent pool health check interval in milliseconds")
	rootCmd.AddCommand(newVersionCmd())
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the cluster service version",
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Printf("docktail-cluster version %s\n", rootCmd.Version)
		},
	}
}

func parseLogLevel(s string) logging.LogLevel {
	switch s {
	case "debug":
		return logging.LevelDebug
	case "warn":
		return logging.LevelWarn
	case "error":
		return logging.LevelError
	default:
		return logging.LevelInfo
	}
}

func runCluster(cmd *cobra.Command, args []string) error {
	logging.InitForCLI(parseLogLevel(logLevel), cmd.OutOrStdout())

	dir := configPath
	if dir == "" {
		dir = config.GetDefaultConfigPathOrPanic()
	}
	cfg, err := config.LoadConfig(dir)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	p := pool.New()
	go p.RunHealthChecker(ctx, time.Duration(healthCheckMS)*time.Millisecond)
	go logPoolHealth(ctx, p, time.Duration(healthCheckMS)*time.Millisecond)

	// Held for a future northbound handler: every Layer method takes a
	// caller-supplied agentID (and usually a serviceID/nodeID/namespace too),
	// so there's nothing to self-check until the RPC transport that carries
	// those per-request parameters is wired (out of scope for now, see
	// DESIGN.md). The subscription layer (internal/cluster/subscribe) is
	// built the same way, directly against the pool, when a request arrives.
	queryLayer := query.New(p, cfg.Observer)
	logging.Info(Subsystem, "query layer ready for %T", queryLayer)

	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	server := &http.Server{Addr: metricsAddr, Handler: mux}
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Error(Subsystem, err, "metrics server stopped")
		}
	}()

	logging.Info(Subsystem, "docktail-cluster ready, serving metrics on %s", metricsAddr)
	<-ctx.Done()
	logging.Info(Subsystem, "shutting down")
	return server.Close()
}

// logPoolHealth periodically logs the pool's health tally so the fleet's
// reachable/unreachable agent counts show up in this process's own logs;
// RunHealthChecker exports no /metrics gauge for them.
func logPoolHealth(ctx context.Context, p *pool.Pool, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			counts := p.CountByHealth()
			logging.Info(Subsystem, "agent pool health: healthy=%d degraded=%d unhealthy=%d unknown=%d",
				counts[pool.HealthHealthy], counts[pool.HealthDegraded], counts[pool.HealthUnhealthy], counts[pool.HealthUnknown])
		}
	}
}

// Subsystem tags every log line this binary emits directly.
const Subsystem = "ClusterService"

func main() {
	rootCmd.Version = version
	rootCmd.SetVersionTemplate(`{{printf "docktail-cluster version %s\n" .Version}}`)
	if err := rootCmd.Execute(); err != nil {
		os.Exit(ExitCodeError)
	}
}
