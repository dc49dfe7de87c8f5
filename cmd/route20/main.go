// Command route20 runs a DECnet Phase IV routing node.
package main

import (
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/rjarratt/Route20-sub001/config"
	"github.com/rjarratt/Route20-sub001/logging"
	"github.com/rjarratt/Route20-sub001/metrics"
	"github.com/rjarratt/Route20-sub001/router"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func main() {
	root := &cobra.Command{
		Use:   "route20 [config-path]",
		Short: "DECnet Phase IV routing node",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "route20.yaml"
			if len(args) == 1 {
				path = args[0]
			}
			return run(path)
		},
	}

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "route20:", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	logs, err := logging.New(cfg.Logging)
	if err != nil {
		return fmt.Errorf("building loggers: %w", err)
	}

	r, err := router.New(cfg, logs, func(payload []byte) {
		logs.For(logging.Forward).Info("delivered", zap.Int("bytes", len(payload)))
	})
	if err != nil {
		return fmt.Errorf("building router: %w", err)
	}

	watcher, err := config.NewWatcher(configPath, logs.For(logging.Config), func(c *config.Config) {
		_ = logs.ApplyLevels(c.Logging)
	})
	if err != nil {
		return fmt.Errorf("starting config watcher: %w", err)
	}
	watcherStop := make(chan struct{})
	go watcher.Run(watcherStop)

	if cfg.MetricsAddr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", metrics.Handler())
			_ = http.ListenAndServe(cfg.MetricsAddr, mux)
		}()
	}

	if err := r.Open(); err != nil {
		close(watcherStop)
		return fmt.Errorf("opening circuits: %w", err)
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sig
		r.Stop()
	}()

	r.Run()
	close(watcherStop)
	return nil
}
