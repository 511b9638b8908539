package commands

import (
	"context"
	"log/slog"
	"os"

	"github.com/Sumatoshi-tech/archgate/internal/observability"
	"github.com/Sumatoshi-tech/archgate/pkg/version"
)

// initObservability builds the telemetry providers for one command
// invocation. Exporters stay off unless the standard OTEL_EXPORTER_* variables
// are set, so plain CLI runs only pay for stderr logging.
func initObservability(ctx context.Context, mode observability.AppMode, debug, quiet, logJSON bool) (*observability.Providers, error) {
	cfg := observability.DefaultConfig()
	cfg.ServiceVersion = version.Version
	cfg.Mode = mode
	cfg.LogJSON = logJSON
	cfg.OTLPEndpoint = os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")
	cfg.OTLPHeaders = observability.ParseOTLPHeaders(os.Getenv("OTEL_EXPORTER_OTLP_HEADERS"))
	cfg.OTLPInsecure = os.Getenv("OTEL_EXPORTER_OTLP_INSECURE") == "true"

	if quiet {
		cfg.LogLevel = slog.LevelWarn
	}

	if debug {
		cfg.LogLevel = slog.LevelDebug
		cfg.DebugTrace = true
	}

	return observability.Init(ctx, cfg)
}

// shutdownProviders flushes exporters at command exit, complaining but not
// failing when the flush itself breaks.
func shutdownProviders(providers *observability.Providers) {
	err := providers.Shutdown(context.Background())
	if err != nil {
		providers.Logger.Warn("observability shutdown failed", "error", err)
	}
}
