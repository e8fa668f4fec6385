package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/tkingovr/filtertools/internal/admin"
	"github.com/tkingovr/filtertools/internal/audit"
	"github.com/tkingovr/filtertools/internal/pipeline"
	httpproxy "github.com/tkingovr/filtertools/internal/proxy/http"
)

var (
	serveTarget string
	serveListen string
	serveAdmin  string
	noAdmin     bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the filtering reverse proxy and the admin API",
	Long: `Start an HTTP reverse proxy that runs every request through the
configured pipeline before forwarding it to the target, together with the
admin API (metrics, audit log, pipeline, dry-run check).`,
	Example: `  filtertools serve -c pipeline.yaml --target http://localhost:4000 --listen :3000
  FILTERTOOLS_TARGET=http://backend:8080 filtertools serve -c pipeline.yaml`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveTarget, "target", "", "target URL (overrides settings.target)")
	serveCmd.Flags().StringVar(&serveListen, "listen", "", "proxy listen address (overrides settings.listen)")
	serveCmd.Flags().StringVar(&serveAdmin, "admin", "", "admin listen address (overrides settings.admin_addr)")
	serveCmd.Flags().BoolVar(&noAdmin, "no-admin", false, "do not start the admin API")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if serveTarget != "" {
		cfg.Target = serveTarget
	}
	if serveListen != "" {
		cfg.Listen = serveListen
	}
	if serveAdmin != "" {
		cfg.AdminAddr = serveAdmin
	}
	if cfg.Target == "" {
		return fmt.Errorf("a target is required: use --target, settings.target or FILTERTOOLS_TARGET")
	}

	auditStore, err := audit.NewJSONLStore(cfg.LogDir)
	if err != nil {
		return fmt.Errorf("creating audit store: %w", err)
	}
	defer auditStore.Close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	reg.MustRegister(collectors.NewGoCollector())
	metrics, err := pipeline.NewMetrics(reg)
	if err != nil {
		return fmt.Errorf("registering metrics: %w", err)
	}

	p, err := pipeline.New(cfg.File.Filters,
		pipeline.WithLogger(logger),
		pipeline.WithAuditStore(auditStore),
		pipeline.WithMetrics(metrics),
	)
	if err != nil {
		return fmt.Errorf("building pipeline: %w", err)
	}
	defer p.Close()

	proxy, err := httpproxy.NewProxy(cfg.Target, p.Filter(), logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	servers := []func(context.Context) error{
		func(ctx context.Context) error {
			return proxy.ListenAndServe(ctx, cfg.Listen, cfg.ShutdownTimeout)
		},
	}
	if !noAdmin {
		srv := admin.NewServer(cfg.AdminAddr, auditStore, p, cfg, reg, logger)
		servers = append(servers, srv.ListenAndServe)
	}

	err = serveAll(ctx, servers...)
	logger.Info("stopped")
	return err
}

// serveAll runs servers until ctx is done or one of them fails, which
// stops the others. It returns the first error.
func serveAll(ctx context.Context, servers ...func(context.Context) error) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, serve := range servers {
		g.Go(func() error { return serve(ctx) })
	}
	return g.Wait()
}
