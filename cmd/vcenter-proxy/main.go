package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/vsphere-tools/vsphere-client-cache/pkg/callcache"
	"github.com/vsphere-tools/vsphere-client-cache/pkg/config"
	"github.com/vsphere-tools/vsphere-client-cache/pkg/logging"
	"github.com/vsphere-tools/vsphere-client-cache/pkg/metrics"
	"github.com/vsphere-tools/vsphere-client-cache/pkg/vsphere"
)

func main() {
	if err := newCommand().Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newCommand() *cli.Command {
	return &cli.Command{
		Name:  "vcenter-proxy",
		Usage: "caching read proxy and cache admin surface for a vCenter server",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Value:   "info",
				Usage:   "log level (debug, info, warn, error)",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
			&cli.BoolFlag{
				Name:    "pretty",
				Usage:   "human-readable log output",
				Sources: cli.EnvVars("LOG_PRETTY"),
			},
		},
		Action: run,
	}
}

func run(ctx context.Context, cmd *cli.Command) error {
	logger := logging.Setup(logging.Config{
		Level:  logging.LogLevel(cmd.String("log-level")),
		Pretty: cmd.Bool("pretty"),
		Output: os.Stderr,
	})

	settings, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}
	if settings.URL == "" {
		return fmt.Errorf("VSPHERE_URL is required")
	}

	clientCfg := vsphere.DefaultConfig(settings.URL, settings.Username, settings.Password)
	clientCfg.Insecure = settings.Insecure
	clientCfg.CacheEnabled = settings.CacheEnable
	clientCfg.CacheTTL = settings.TTL()

	client, err := vsphere.New(ctx, clientCfg)
	if err != nil {
		return fmt.Errorf("connect to vcenter: %w", err)
	}
	defer func() {
		_ = client.Logout(context.Background())
	}()

	addr := ":" + settings.Port
	logger.Info().
		Str("addr", addr).
		Bool("cache_enabled", settings.CacheEnable).
		Dur("cache_ttl", settings.TTL()).
		Msg("Starting vCenter proxy")

	server := &http.Server{
		Addr:              addr,
		Handler:           newMux(client, client.Cache()),
		ReadHeaderTimeout: 10 * time.Second,
	}
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}

// vmLookup is the part of the vSphere client the proxy reads through.
type vmLookup interface {
	VMInfo(ctx context.Context, nameOrID string) (*vsphere.VMInfo, error)
}

func newMux(lookup vmLookup, cache *callcache.Cache) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", healthHandler)
	mux.Handle("GET /metrics", metrics.Handler())
	mux.HandleFunc("GET /vsphere/vm/{name}", vmHandler(lookup))
	mux.HandleFunc("POST /cache/invalidate", invalidateHandler(cache))
	return mux
}

func healthHandler(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, "OK")
}

func vmHandler(lookup vmLookup) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := r.PathValue("name")

		ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
		defer cancel()

		info, err := lookup.VMInfo(ctx, name)
		if err != nil {
			if vsphere.IsNotFound(err) {
				http.Error(w, fmt.Sprintf("no such vm: %s", name), http.StatusNotFound)
				return
			}
			http.Error(w, fmt.Sprintf("vm lookup failed: %v", err), http.StatusBadGateway)
			return
		}

		writeJSON(w, http.StatusOK, info)
	}
}

// invalidateHandler is the operator-facing clear-cache remediation step; it
// drops every memoized entry regardless of operation.
func invalidateHandler(cache *callcache.Cache) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		cleared := cache.InvalidateAll()
		writeJSON(w, http.StatusOK, map[string]any{"cleared": cleared})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warn().Err(err).Msg("Failed to write response")
	}
}
