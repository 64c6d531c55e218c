package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/roach88/asyncpool/internal/bootstrap"
	"github.com/roach88/asyncpool/internal/metrics"
)

// ServeResult describes a started server.
type ServeResult struct {
	PeerID  string   `json:"peer_id"`
	Addrs   []string `json:"addrs"`
	Entries int      `json:"entries"`
	Metrics string   `json:"metrics,omitempty"`
}

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the pool to bootstrapping peers",
		Long: `Open the pool and serve it over libp2p on bootstrap.listen until
interrupted. Peers dial one of the printed addresses with the bootstrap
command. When metrics.listen is set, Prometheus metrics are exposed on
/metrics.

Examples:
  asyncpool serve --config node.yaml`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, rootOpts, cmd)
		},
	}
}

func runServe(ctx context.Context, opts *RootOptions, cmd *cobra.Command) error {
	if err := opts.setup(cmd); err != nil {
		return fail(opts.newFormatter(cmd), "setup failed", err)
	}
	f := opts.newFormatter(cmd)
	log := opts.logger

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	p, st, err := opts.openPool(false, m)
	if err != nil {
		return fail(f, "open failed", err)
	}
	defer st.Close()

	if _, err := p.Verify(ctx); err != nil {
		return fail(f, "refusing to serve", err)
	}
	n, err := p.Len(ctx)
	if err != nil {
		return fail(f, "count failed", err)
	}
	m.SetPoolSize(n)

	h, err := bootstrap.NewHost(opts.cfg.Bootstrap.Listen)
	if err != nil {
		f.Error(ErrCodeBootstrap, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to start host", err)
	}
	defer h.Close()

	srv := bootstrap.NewServer(p,
		bootstrap.WithLogger(log),
		bootstrap.WithMetrics(m),
		bootstrap.WithMaxFrameSize(opts.cfg.Bootstrap.MaxFrameSize),
	)
	srv.Register(ctx, h)

	addrs, err := bootstrap.HostAddrs(h)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to list addresses", err)
	}

	var httpSrv *http.Server
	if listen := opts.cfg.Metrics.Listen; listen != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
		httpSrv = &http.Server{Addr: listen, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("metrics server failed", zap.Error(err))
			}
		}()
	}

	res := ServeResult{PeerID: h.ID().String(), Addrs: addrs, Entries: n, Metrics: opts.cfg.Metrics.Listen}
	if err := f.Success(res, "serving %d entries as %s on %v", n, res.PeerID, addrs); err != nil {
		return err
	}
	log.Info("bootstrap server ready", zap.Strings("addrs", addrs))

	<-ctx.Done()
	log.Info("shutting down")
	if httpSrv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		httpSrv.Shutdown(shutdownCtx)
	}
	return nil
}
