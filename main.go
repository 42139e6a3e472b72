package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/danielgtaylor/huma/v2/humacli"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/smazurov/videohubd/cmd"
	"github.com/smazurov/videohubd/internal/api"
	"github.com/smazurov/videohubd/internal/config"
	"github.com/smazurov/videohubd/internal/events"
	"github.com/smazurov/videohubd/internal/gateway"
	"github.com/smazurov/videohubd/internal/logging"
	"github.com/smazurov/videohubd/internal/router"
	"github.com/smazurov/videohubd/internal/systemd"
	"github.com/smazurov/videohubd/internal/version"
	"github.com/smazurov/videohubd/internal/videohub"
)

// Options for the CLI - flat structure with toml mapping.
type Options struct {
	Config string `help:"Path to configuration file" short:"c" default:"config.toml"`

	// Videohub protocol settings
	Listen       string `help:"Videohub protocol listen address" short:"l" default:"127.0.0.1:9990" toml:"gateway.listen" env:"GATEWAY_LISTEN"`
	Outputs      int    `help:"Number of router outputs" short:"n" default:"8" toml:"gateway.outputs" env:"GATEWAY_OUTPUTS"`
	OutputPrefix string `help:"Output label prefix" default:"Output" toml:"gateway.output_prefix" env:"GATEWAY_OUTPUT_PREFIX"`
	ModelName    string `help:"Model name reported to controllers" default:"Blackmagic Smart Videohub" toml:"device.model_name" env:"DEVICE_MODEL_NAME"`
	FriendlyName string `help:"Friendly name reported to controllers" default:"" toml:"device.friendly_name" env:"DEVICE_FRIENDLY_NAME"`

	// Discovery settings
	DiscoveryMode      string `help:"Source discovery (static, relay)" default:"static" toml:"discovery.mode" env:"DISCOVERY_MODE"`
	DiscoveryTimeoutMs int    `help:"How long discovery waits for sources in milliseconds" default:"5000" toml:"discovery.timeout_ms" env:"DISCOVERY_TIMEOUT_MS"`
	SourcesFile        string `help:"Static sources file, watched for label changes" default:"sources.toml" toml:"discovery.sources_file" env:"DISCOVERY_SOURCES_FILE"`
	RelayAddr          string `help:"RTSP relay listen address" default:":8554" toml:"relay.addr" env:"RELAY_ADDR"`

	// HTTP API settings
	APIAddr string `help:"HTTP API listen address, empty disables" default:":8090" toml:"api.addr" env:"API_ADDR"`

	// Logging settings
	LoggingLevel     string `help:"Global logging level (debug, info, warn, error)" default:"info" toml:"logging.level" env:"LOGGING_LEVEL"`
	LoggingFormat    string `help:"Logging format (text, json)" default:"text" toml:"logging.format" env:"LOGGING_FORMAT"`
	LoggingGateway   string `help:"Gateway logging level" default:"info" toml:"logging.gateway" env:"LOGGING_GATEWAY"`
	LoggingRouter    string `help:"Route backend logging level" default:"info" toml:"logging.router" env:"LOGGING_ROUTER"`
	LoggingStreaming string `help:"RTSP relay logging level" default:"info" toml:"logging.streaming" env:"LOGGING_STREAMING"`
	LoggingAPI       string `help:"API logging level" default:"info" toml:"logging.api" env:"LOGGING_API"`
}

// daemon owns everything started in OnStart so OnStop can tear it down,
// including while startup is still waiting on discovery.
type daemon struct {
	opts     *Options
	logger   logging.Logger
	notifier *systemd.Notifier

	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.Mutex
	backend  *cmd.Backend
	registry *gateway.Registry
	gateway  *gateway.Server
	watcher  *config.Watcher[[]router.Source]
	api      *api.Server
}

func newDaemon(opts *Options) *daemon {
	ctx, cancel := context.WithCancel(context.Background())
	return &daemon{
		opts:     opts,
		logger:   logging.GetLogger("main"),
		notifier: systemd.NewNotifier(logging.GetLogger("main")),
		ctx:      ctx,
		cancel:   cancel,
	}
}

func (d *daemon) start() error {
	backend, err := cmd.OpenBackend(cmd.BackendOptions{
		Mode:        d.opts.DiscoveryMode,
		SourcesFile: d.opts.SourcesFile,
		RelayAddr:   d.opts.RelayAddr,
	})
	if err != nil {
		return err
	}
	d.mu.Lock()
	d.backend = backend
	d.mu.Unlock()

	eventBus := events.New()
	timeout := time.Duration(d.opts.DiscoveryTimeoutMs) * time.Millisecond
	d.logger.Info("Discovering sources", "mode", backend.Mode, "timeout", timeout)
	d.notifier.Status("discovering sources")

	registry, err := gateway.Setup(d.ctx, gateway.SetupOptions{
		Discoverer:       backend.Discoverer,
		Factory:          backend.Factory,
		DiscoveryTimeout: timeout,
		NumOutputs:       d.opts.Outputs,
		OutputPrefix:     d.opts.OutputPrefix,
		Device: videohub.DeviceInfo{
			ModelName:    d.opts.ModelName,
			FriendlyName: d.opts.FriendlyName,
		},
		EventBus: eventBus,
		Logger:   logging.GetLogger("gateway"),
	})
	if err != nil {
		return err
	}
	d.mu.Lock()
	d.registry = registry
	d.mu.Unlock()

	srv := gateway.NewServer(registry, logging.GetLogger("gateway"))
	if err := srv.Start(d.opts.Listen); err != nil {
		return err
	}
	d.mu.Lock()
	d.gateway = srv
	d.mu.Unlock()

	if backend.Mode == cmd.ModeStatic {
		d.watchSources(registry)
	}

	snap := registry.Snapshot()
	d.notifier.Ready(fmt.Sprintf("routing %d inputs to %d outputs on %s", len(snap.Inputs), len(snap.Outputs), srv.Addr()))
	go d.notifier.Watchdog(d.ctx)

	if d.opts.APIAddr == "" {
		d.logger.Info("HTTP API disabled")
		return nil
	}

	apiServer := api.NewServer(&api.Options{
		Router:            registry,
		Hub:               backend.Hub,
		EventBus:          eventBus,
		PrometheusHandler: promhttp.Handler(),
	})
	d.mu.Lock()
	d.api = apiServer
	d.mu.Unlock()

	if err := apiServer.Start(d.opts.APIAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// watchSources pushes label edits in the sources file to controllers. Source
// order and count are fixed at startup, so only labels are applied.
func (d *daemon) watchSources(registry *gateway.Registry) {
	w := config.NewWatcher(d.opts.SourcesFile, router.LoadSourcesFile, logging.GetLogger("config"))
	w.OnReload(func(sources []router.Source) {
		if n := registry.SyncInputLabels(sources); n > 0 {
			d.logger.Info("Input labels updated from sources file", "changed", n)
		}
	})
	if err := w.Start(); err != nil {
		d.logger.Warn("Failed to watch sources file, label reload disabled", "path", d.opts.SourcesFile, "error", err)
		return
	}
	d.mu.Lock()
	d.watcher = w
	d.mu.Unlock()
}

func (d *daemon) stop() {
	d.notifier.Stopping()
	d.cancel()

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.api != nil {
		if err := d.api.Stop(); err != nil {
			d.logger.Error("Error stopping HTTP API", "error", err)
		}
	}
	if d.watcher != nil {
		_ = d.watcher.Stop()
	}
	if d.gateway != nil {
		if err := d.gateway.Stop(); err != nil {
			d.logger.Error("Error stopping Videohub listener", "error", err)
		}
	}
	// actuators are released before the relay they drive
	if d.registry != nil {
		if err := d.registry.Close(); err != nil {
			d.logger.Warn("Error releasing output routes", "error", err)
		}
	}
	if d.backend != nil {
		if err := d.backend.Close(); err != nil {
			d.logger.Error("Error stopping route backend", "error", err)
		}
	}
}

func main() {
	var cli humacli.CLI
	cli = humacli.New(func(hooks humacli.Hooks, opts *Options) {
		if loadErr := config.LoadConfig(opts, cli.Root()); loadErr != nil {
			logging.GetLogger("main").Warn("Failed to load config", "error", loadErr)
		}

		logging.Initialize(logging.Config{
			Level:  opts.LoggingLevel,
			Format: opts.LoggingFormat,
			Modules: map[string]string{
				"gateway":   opts.LoggingGateway,
				"router":    opts.LoggingRouter,
				"streaming": opts.LoggingStreaming,
				"api":       opts.LoggingAPI,
			},
		})

		d := newDaemon(opts)

		hooks.OnStart(func() {
			if err := d.start(); err != nil {
				if d.ctx.Err() != nil {
					return
				}
				d.logger.Error("Gateway failed", "error", err)
				d.stop()
				os.Exit(1)
			}
			// start returns once the API is stopped; without the API keep
			// serving until a signal arrives
			<-d.ctx.Done()
		})

		hooks.OnStop(func() {
			d.logger.Info("Shutting down")
			d.stop()
		})
	})

	cli.Root().Use = "videohubd"
	cli.Root().Version = version.String()
	cli.Root().Short = "Blackmagic Videohub protocol gateway for networked video sources"

	cli.Root().AddCommand(cmd.CreateSourcesCmd())
	cli.Root().AddCommand(cmd.CreateStatusCmd())

	cli.Run()
}
