// Command rdap-gateway runs the RDAP reverse-proxy / routing gateway: it
// periodically scrapes IANA's bootstrap documents into an in-memory
// resource store, and serves RDAP queries against it over HTTP.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rdapgw/gateway/internal/config"
	"github.com/rdapgw/gateway/internal/directory"
	"github.com/rdapgw/gateway/internal/gatewayhttp"
	"github.com/rdapgw/gateway/internal/scheduler"
	"github.com/rdapgw/gateway/internal/scraper"
	"github.com/rdapgw/gateway/internal/store"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	// Environment variables supply the flag defaults; flags set on the
	// command line override them.
	cfg, envErr := config.FromEnv()
	if envErr != nil {
		cfg = config.Default()
	}
	var versionsCSV, staticAuthoritiesRaw string

	cmd := &cobra.Command{
		Use:   "rdap-gateway",
		Short: "RDAP reverse-proxy / routing gateway",
		RunE: func(cmd *cobra.Command, args []string) error {
			if envErr != nil {
				return envErr
			}
			if cmd.Flags().Changed("bootstrap-supported-versions") {
				cfg.SupportedVersions = map[string]bool{}
				for _, v := range strings.Split(versionsCSV, ",") {
					if v = strings.TrimSpace(v); v != "" {
						cfg.SupportedVersions[v] = true
					}
				}
			}
			if staticAuthoritiesRaw != "" {
				statics, err := config.ParseStaticAuthorities(staticAuthoritiesRaw)
				if err != nil {
					return fmt.Errorf("--static-authorities: %w", err)
				}
				cfg.StaticAuthorities = statics
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			return run(cfg)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&cfg.BootstrapBaseURI, "bootstrap-base-uri", cfg.BootstrapBaseURI, "base URI of the IANA bootstrap files")
	flags.DurationVar(&cfg.BootstrapInterval, "bootstrap-interval", cfg.BootstrapInterval, "refresh interval")
	flags.DurationVar(&cfg.BootstrapRequestTimeout, "bootstrap-request-timeout", cfg.BootstrapRequestTimeout, "per-request timeout")
	flags.StringVar(&versionsCSV, "bootstrap-supported-versions", config.DefaultSupportedVersions, "comma-separated list of accepted bootstrap document versions")
	flags.DurationVar(&cfg.BootstrapRateLimit, "bootstrap-rate-limit", cfg.BootstrapRateLimit, "minimum interval between bootstrap requests, 0 disables limiting")
	flags.IntVar(&cfg.BootstrapBurstSize, "bootstrap-burst-size", cfg.BootstrapBurstSize, "burst allowance for the bootstrap rate limiter")
	flags.StringVar(&staticAuthoritiesRaw, "static-authorities", "", `operator-configured authorities, e.g. "VRSN=https://rdap.verisign.com/rdap/;ARIN=https://rdap.arin.net/registry/"`)
	flags.StringVar(&cfg.ListenAddr, "listen-addr", cfg.ListenAddr, "HTTP listen address")

	return cmd
}

func run(cfg config.Config) error {
	log, err := zap.NewProduction()
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	defer log.Sync() //nolint:errcheck

	resourceStore := store.New(log)
	dir := directory.New(resourceStore)

	if len(cfg.StaticAuthorities) > 0 {
		statics := make([]store.StaticAuthority, len(cfg.StaticAuthorities))
		for i, sa := range cfg.StaticAuthorities {
			statics[i] = store.StaticAuthority{Name: sa.Name, Servers: sa.Servers}
		}
		if err := resourceStore.SetStaticAuthorities(statics); err != nil {
			return fmt.Errorf("static authorities: %w", err)
		}
	}

	scr := scraper.New(scraper.Config{
		BaseURI:           cfg.BootstrapBaseURI,
		RequestTimeout:    cfg.BootstrapRequestTimeout,
		SupportedVersions: cfg.SupportedVersions,
		RateLimit:         cfg.BootstrapRateLimit,
		BurstSize:         cfg.BootstrapBurstSize,
	}, resourceStore, log)

	sched := scheduler.New(scr, cfg.BootstrapInterval, log)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	go sched.Run(ctx)

	handler := gatewayhttp.New(dir, sched, log)
	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           handler.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Info("rdap-gateway: listening", zap.String("addr", cfg.ListenAddr))
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}
