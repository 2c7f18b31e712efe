// Command docktail-agent wraps one host's container engine and serves its
// inventory, log pipeline, orchestration observer, and compose deployer to
// the cluster service.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"docktail/internal/config"
	"docktail/internal/engine/dockerengine"
	"docktail/internal/metrics"
	"docktail/internal/swarm/compose"
	"docktail/internal/swarm/observer"
	"docktail/pkg/logging"

	"github.com/spf13/cobra"
)

// Exit codes for the agent CLI.
const (
	// ExitCodeSuccess indicates successful execution.
	ExitCodeSuccess = 0
	// ExitCodeError indicates a general error (bad flags, engine unreachable).
	ExitCodeError = 1
)

var version = "dev"

var (
	configPath  string
	logLevel    string
	metricsAddr string
)

// rootCmd is the entry point when docktail-agent is invoked without
// subcommands: it bootstraps the engine adapter and blocks serving the
// capability set until signaled to stop.
var rootCmd = &cobra.Command{
	Use:   "docktail-agent",
	Short: "Run the per-host docktail agent",
	Long: `docktail-agent adapts one host's container engine into the log
pipeline, orchestration observer, and compose deployer that the cluster
service subscribes to.`,
	SilenceUsage: true,
	RunE:         runAgent,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config directory (default $HOME/.config/docktail)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level: debug, info, warn, error")
	rootCmd.Flags().StringVar(&metricsAddr, "metrics-addr", ":9090", "address to serve Prometheus metrics on")
	rootCmd.AddCommand(newVersionCmd())
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the agent version",
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Printf("docktail-agent version %s\n", rootCmd.Version)
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

func runAgent(cmd *cobra.Command, args []string) error {
	logging.InitForCLI(parseLogLevel(logLevel), cmd.OutOrStdout())

	dir := configPath
	if dir == "" {
		dir = config.GetDefaultConfigPathOrPanic()
	}
	cfg, err := config.LoadConfig(dir)
	if err != nil {
		return err
	}

	eng, err := dockerengine.New()
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// The compose deployer is held for a future northbound handler: Deploy
	// needs a stack name and compose YAML supplied per-request, and no
	// request reaches this process until the RPC transport that carries
	// them is wired (out of scope for now, see DESIGN.md). The orchestration
	// observer has no such per-request dependency, so it's put to real use
	// immediately: watching and logging this host's swarm node events for
	// as long as the agent runs.
	deployer := compose.New(eng)
	logging.Info(Subsystem, "compose deployer ready for %T", deployer)

	obs := observer.New(eng, cfg.Observer)
	watchNodeEvents(ctx, obs)

	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	server := &http.Server{Addr: metricsAddr, Handler: mux}
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Error(Subsystem, err, "metrics server stopped")
		}
	}()

	logging.Info(Subsystem, "docktail-agent ready, serving metrics on %s", metricsAddr)
	<-ctx.Done()
	logging.Info(Subsystem, "shutting down")
	return server.Close()
}

// watchNodeEvents starts the orchestration observer's node event stream and
// logs every transition it detects until ctx is cancelled. A ListNodes
// failure here (non-swarm engine, unreachable daemon) is logged and
// swallowed rather than failing agent startup, since node events are best
// effort on hosts that aren't swarm managers.
func watchNodeEvents(ctx context.Context, obs *observer.Observer) {
	events, err := obs.NodeEventStream(ctx, "")
	if err != nil {
		logging.Warn(Subsystem, "node event stream unavailable: %v", err)
		return
	}
	go func() {
		for ev := range events {
			logging.Info(Subsystem, "node %s: %s (%s -> %s)", ev.NodeID, ev.EventType, ev.PreviousValue, ev.CurrentValue)
		}
	}()
}

// Subsystem tags every log line this binary emits directly.
const Subsystem = "Agent"

func main() {
	rootCmd.Version = version
	rootCmd.SetVersionTemplate(`{{printf "docktail-agent version %s\n" .Version}}`)
	if err := rootCmd.Execute(); err != nil {
		os.Exit(ExitCodeError)
	}
}
