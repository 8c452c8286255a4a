package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"ac_simulator/internal/api"
	"ac_simulator/internal/metrics"
	"ac_simulator/internal/mqtt"
	"ac_simulator/internal/simulator"
	"ac_simulator/internal/store"
	"ac_simulator/internal/ws"
)

const shutdownTimeout = 5 * time.Second

var serveBindings = map[string]string{
	"server.addr":         "addr",
	"server.frontend_dir": "frontend-dir",
	"server.metrics_path": "metrics-path",
	"mqtt.broker":         "mqtt-broker",
	"mqtt.topic":          "mqtt-topic",
}

func newServeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the simulator over WebSocket and HTTP",
		Long: `serve exposes interactive sessions on /ws, JSON, CSV and SVG endpoints under
/api/, Prometheus metrics, and optionally a frontend build. When an MQTT broker
is configured every report is also published to <topic>/state.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.load(cmd, serveBindings); err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, a)
		},
	}

	fs := cmd.Flags()
	fs.String("addr", "", "listen address (config server.addr)")
	fs.String("frontend-dir", "", "directory containing a frontend build (config server.frontend_dir)")
	fs.String("metrics-path", "", "Prometheus metrics path (config server.metrics_path)")
	fs.String("mqtt-broker", "", "MQTT broker URL, e.g. tcp://localhost:1883 (config mqtt.broker)")
	fs.String("mqtt-topic", "", "MQTT base topic (config mqtt.topic)")
	return cmd
}

func serve(ctx context.Context, a *app) error {
	srv, cleanup, err := newServer(a)
	if err != nil {
		return err
	}
	defer cleanup()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.logger.Infof("Starting server on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		a.logger.Info("Shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// newServer wires the engine to its callbacks and mounts every endpoint.
// The returned cleanup disconnects from MQTT.
func newServer(a *app) (*http.Server, func(), error) {
	cfg := a.cfg

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	recorder, err := metrics.New(reg)
	if err != nil {
		return nil, nil, fmt.Errorf("registering metrics: %w", err)
	}

	reports := store.New()
	hub := ws.NewHub(a.logger)
	if err := metrics.RegisterClientGauge(reg, hub.ClientCount); err != nil {
		return nil, nil, fmt.Errorf("registering metrics: %w", err)
	}

	callbacks := simulator.Callbacks{reports, recorder, ws.NewBridge(hub, a.logger)}
	cleanup := func() {}
	if cfg.MQTT.Broker != "" {
		client, err := mqtt.Connect(cfg.MQTT, a.logger)
		if err != nil {
			return nil, nil, err
		}
		callbacks = append(callbacks, mqtt.NewPublisher(client, cfg.MQTT.Topic, a.logger))
		cleanup = func() { client.Disconnect(250) }
	}
	engine := simulator.New(callbacks)
	defaults := defaultRequest(cfg.Simulation)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, "ok")
	})
	mux.Handle("/ws", ws.NewHandler(hub, engine, ws.HandlerOptions{
		Defaults:   defaults,
		Reports:    reports,
		RunsPerSec: cfg.Server.RunsPerSec,
		Burst:      cfg.Server.RunBurst,
		Logger:     a.logger,
	}))
	mux.Handle(cfg.Server.MetricsPath, promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	apiMux := http.NewServeMux()
	api.NewHandlers(engine, reports, api.Options{
		Defaults:   defaults,
		RunsPerSec: cfg.Server.RunsPerSec,
		Burst:      cfg.Server.RunBurst,
		Logger:     a.logger,
	}).Register(apiMux)
	mux.Handle("/api/", api.Middleware(a.logger, apiMux))

	// Serve frontend static files
	if dir := cfg.Server.FrontendDir; dir != "" {
		if _, err := os.Stat(dir); err == nil {
			a.logger.Infof("Serving frontend from %s", dir)
			mux.Handle("/", http.FileServer(http.Dir(dir)))
		} else {
			a.logger.Warnf("Frontend directory %s not available: %v", dir, err)
		}
	}

	return &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}, cleanup, nil
}
