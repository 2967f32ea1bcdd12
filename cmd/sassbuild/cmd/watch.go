package cmd

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/bianoble/sassbuild/internal/cache"
	"github.com/bianoble/sassbuild/internal/livereload"
	"github.com/bianoble/sassbuild/internal/metrics"
	"github.com/bianoble/sassbuild/internal/watch"
	"github.com/bianoble/sassbuild/pkg/sassbuild"
)

var (
	watchPoll     bool
	watchInterval time.Duration
	watchHTTP     string
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Rebuild whenever a source changes",
	Long: `Runs a full build, then rebuilds whenever a file under the input directory
changes. Writes to the output directories never trigger a rebuild.

Use --poll on filesystems without change notifications. With --http, browsers
can connect to /livereload for refresh events and Prometheus can scrape
/metrics.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		reg := prometheus.NewRegistry()
		rec := metrics.NewPrometheusRecorder(reg)

		var hosts []any
		var hub *livereload.Hub
		if watchHTTP != "" {
			hub = livereload.NewHub(slog.Default())
			defer hub.Close()
			hosts = append(hosts, hub)
		}

		client, err := newClient(rec, hosts...)
		if err != nil {
			return err
		}
		defer client.Close()

		cfg := client.Config()
		fp, err := cache.New(cache.DefaultSize)
		if err != nil {
			return err
		}
		changes := watch.NewChanges(cfg.InputRoot(), []string{cfg.OutputRoot(), cfg.SourceMapRoot()}, fp)

		rebuild := func(ctx context.Context) {
			outcome, err := client.Build(ctx, sassbuild.BuildOptions{Hosts: []any{changes}})
			if err != nil {
				errorf("%v", err)
			}
			if outcome != nil {
				info("%s %s", time.Now().Format("15:04:05"), summary(outcome))
			}
		}

		rebuild(ctx)
		changes.Seed()
		changes.Drain()

		if hub != nil {
			srv := newWatchServer(watchHTTP, hub, reg)
			go func() {
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errorf("http server: %v", err)
				}
			}()
			defer func() {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				_ = srv.Shutdown(shutdownCtx)
			}()
			info("Serving livereload and metrics on %s", watchHTTP)
		}

		if watchPoll {
			p, err := watch.NewPoller(changes, watchInterval, slog.Default())
			if err != nil {
				return err
			}
			return p.Run(ctx, rebuild)
		}

		w, err := watch.New(changes, slog.Default())
		if err != nil {
			return err
		}
		defer w.Close()
		return w.Run(ctx, rebuild)
	},
}

func newWatchServer(addr string, hub *livereload.Hub, reg *prometheus.Registry) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/livereload", hub)
	mux.Handle("/metrics", metrics.HTTPHandler(reg))
	return &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
}

func init() {
	watchCmd.Flags().BoolVar(&watchPoll, "poll", false, "detect changes by periodic scanning instead of file notifications")
	watchCmd.Flags().DurationVar(&watchInterval, "interval", watch.DefaultPollInterval, "scan interval with --poll")
	watchCmd.Flags().StringVar(&watchHTTP, "http", "", "address to serve /livereload and /metrics on, e.g. :35729")
	rootCmd.AddCommand(watchCmd)
}
