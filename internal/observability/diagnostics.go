package observability

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

const readHeaderTimeout = 5 * time.Second

// DiagnosticsServer serves /healthz, /readyz, and a Prometheus /metrics scrape
// for the long-running modes. The CLI never starts one.
type DiagnosticsServer struct {
	srv      *http.Server
	listener net.Listener
	provider *sdkmetric.MeterProvider
	sched    *SchedulerMetrics
}

// NewDiagnosticsServer binds addr and starts serving in the background. Pass
// addr with port zero to let the kernel pick one; Addr reports the result.
func NewDiagnosticsServer(ctx context.Context, addr string, logger *slog.Logger, checks ...ReadyCheck) (*DiagnosticsServer, error) {
	scrape, provider, err := PrometheusHandler()
	if err != nil {
		return nil, err
	}

	sched, err := NewSchedulerMetrics(provider.Meter("archgate.runtime"))
	if err != nil {
		shutdownProvider(ctx, provider, logger)

		return nil, err
	}

	mux := http.NewServeMux()
	mux.Handle("/healthz", HealthHandler())
	mux.Handle("/readyz", ReadyHandler(checks...))
	mux.Handle("/metrics", scrape)

	var lc net.ListenConfig

	listener, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		shutdownProvider(ctx, provider, logger)

		return nil, err
	}

	srv := &http.Server{
		Handler:           HTTPMiddleware(otel.Tracer("archgate.diagnostics"), mux),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		if serveErr := srv.Serve(listener); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			logger.Error("diagnostics server stopped", "error", serveErr)
		}
	}()

	return &DiagnosticsServer{
		srv:      srv,
		listener: listener,
		provider: provider,
		sched:    sched,
	}, nil
}

// Addr reports the bound address, including any kernel-assigned port.
func (d *DiagnosticsServer) Addr() string {
	return d.listener.Addr().String()
}

// Close stops the server and the scrape meter provider.
func (d *DiagnosticsServer) Close(ctx context.Context) error {
	return errors.Join(d.srv.Shutdown(ctx), d.provider.Shutdown(ctx))
}

func shutdownProvider(ctx context.Context, provider *sdkmetric.MeterProvider, logger *slog.Logger) {
	if err := provider.Shutdown(ctx); err != nil {
		logger.Warn("meter provider shutdown failed", "error", err)
	}
}
