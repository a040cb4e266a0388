package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/hardenctl/hardenctl/internal/observability"
	"github.com/hardenctl/hardenctl/internal/observability/logging"
	otelobs "github.com/hardenctl/hardenctl/internal/observability/otel"
	"github.com/hardenctl/hardenctl/internal/observability/receipt"
	"github.com/hardenctl/hardenctl/internal/version"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "hardenctl",
	Short: "Declarative policy applier for hardening baselines",
	Long: `hardenctl applies declarative hardening catalogs to named policy
containers and reports exactly what was applied, skipped, and rejected.`,
	Version:           version.BuildVersion(),
	PersistentPreRunE: setupRun,
	PersistentPostRun: teardownRun,
}

var (
	logFormat string
	logLevel  string
	logOutput string

	otelEnabled     bool
	otelEndpoint    string
	otelProtocol    string
	otelInsecure    bool
	otelSampleRatio float64

	receiptPath string
	receiptMode string
)

// teardown state for the current invocation
var (
	activeLogger  logging.Logger
	activeOtel    *otelobs.Handle
	activeReceipt receipt.Writer
)

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&logFormat, "log-format", "off", "Structured log format: jsonl or off")
	pf.StringVar(&logLevel, "log-level", "info", "Minimum log level: debug, info, warn, error")
	pf.StringVar(&logOutput, "log-output", "stderr", "Log destination: stderr or a file path")

	pf.BoolVar(&otelEnabled, "otel", false, "Enable OpenTelemetry tracing")
	pf.StringVar(&otelEndpoint, "otel-endpoint", "", "OTLP endpoint (defaults to OTEL_EXPORTER_OTLP_ENDPOINT)")
	pf.StringVar(&otelProtocol, "otel-protocol", otelobs.ProtocolHTTP, "OTLP protocol: otlphttp or otlpgrpc")
	pf.BoolVar(&otelInsecure, "otel-insecure", false, "Allow insecure OTLP connections")
	pf.Float64Var(&otelSampleRatio, "otel-sample-ratio", 1.0, "Trace sampling ratio (0..1)")

	pf.StringVar(&receiptPath, "receipt", "", "Write an evidence receipt to this path")
	pf.StringVar(&receiptMode, "receipt-mode", string(receipt.ModeOverwrite), "Receipt write mode: overwrite or append")

	rootCmd.AddCommand(GetApplyCmd())
	rootCmd.AddCommand(GetCatalogCmd())
	rootCmd.AddCommand(GetDiffCmd())
}

// setupRun wires op-id, logger, tracing, and the receipt writer into
// the command context before any subcommand runs.
func setupRun(cmd *cobra.Command, args []string) error {
	ctx := observability.WithOpID(cmd.Context())

	log, err := logging.NewLogger(logging.Config{
		Format: logFormat,
		Level:  logLevel,
		Output: logOutput,
	})
	if err != nil {
		return fmt.Errorf("failed to configure logging: %w", err)
	}
	activeLogger = log
	ctx = logging.WithLogger(ctx, log)

	if otelEnabled {
		cfg := otelobs.DefaultConfig()
		cfg.Enabled = true
		cfg.Endpoint = otelEndpoint
		cfg.Protocol = otelProtocol
		cfg.Insecure = otelInsecure
		cfg.SampleRatio = otelSampleRatio

		h, err := otelobs.Init(ctx, cfg)
		if err != nil {
			return fmt.Errorf("failed to initialize tracing: %w", err)
		}
		activeOtel = h
		ctx = otelobs.WithHandle(ctx, h)
	}

	if receiptPath != "" {
		w, err := receipt.NewWriter(receiptPath, receiptMode)
		if err != nil {
			return fmt.Errorf("failed to open receipt writer: %w", err)
		}
		activeReceipt = w
		ctx = receipt.WithWriter(ctx, w)
	}

	cmd.SetContext(ctx)
	return nil
}

// teardownRun flushes telemetry and closes writers.
func teardownRun(cmd *cobra.Command, args []string) {
	if activeOtel != nil {
		_ = activeOtel.Shutdown(context.Background())
		activeOtel = nil
	}
	if activeReceipt != nil {
		_ = activeReceipt.Close()
		activeReceipt = nil
	}
	if activeLogger != nil {
		_ = activeLogger.Close()
		activeLogger = nil
	}
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
