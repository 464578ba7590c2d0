package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/llehouerou/spotbridge/internal/config"
	"github.com/llehouerou/spotbridge/internal/credentials"
	"github.com/llehouerou/spotbridge/internal/engine"
	"github.com/llehouerou/spotbridge/internal/engine/sim"
	"github.com/llehouerou/spotbridge/internal/lifecycle"
	"github.com/llehouerou/spotbridge/internal/metrics"
	"github.com/llehouerou/spotbridge/internal/mpris"
	"github.com/llehouerou/spotbridge/internal/notify"
	"github.com/llehouerou/spotbridge/internal/state"
)

const shutdownTimeout = 5 * time.Second

type appOptions struct {
	// events writes every player event to this writer as JSON lines.
	events        io.Writer
	trackDuration time.Duration
	// lyrics replaces the lyrics served by the simulated engine.
	lyrics []engine.LyricsLine
}

// app owns everything one command needs around the coordinator.
type app struct {
	coord *lifecycle.Coordinator
	hub   *notify.Hub
	state *state.Manager

	mpris     *mpris.Adapter
	metricSrv *http.Server
}

func newApp(opts appOptions) (*app, error) {
	st, err := state.Open("")
	if err != nil {
		return nil, fmt.Errorf("open state: %w", err)
	}
	a := &app{state: st, hub: notify.NewHub(0)}

	store, err := credentialStore(cfg, st)
	if err != nil {
		st.Close()
		return nil, err
	}

	sinks := notify.Fanout{a.hub}
	if opts.events != nil {
		sinks = append(sinks, notify.NewJSONLines(opts.events, true))
	}
	if cfg.Notify.Desktop {
		if n, err := notify.New(); err != nil {
			logger.Warn("desktop notifications unavailable", "err", err)
		} else {
			sinks = append(sinks, notify.NewDesktopSink(n, cfg.Notify.Timeout))
		}
	}
	var tracker *mpris.Tracker
	if cfg.MPRIS.Enabled {
		tracker = mpris.NewTracker()
		sinks = append(sinks, tracker)
	}

	coordOpts := []lifecycle.Option{
		lifecycle.WithLogger(logger),
		lifecycle.WithPreferences(st),
		lifecycle.WithCache(cfg.EngineCache()),
		lifecycle.WithPublishTimeout(cfg.Notify.PublishTimeout),
	}
	if cfg.HasMetrics() {
		m := metrics.New()
		coordOpts = append(coordOpts, lifecycle.WithMetrics(m))
		a.metricSrv = serveMetrics(cfg.Metrics.Addr, m)
	}

	var simOpts []sim.Option
	if opts.trackDuration > 0 {
		simOpts = append(simOpts, sim.WithTrackDuration(opts.trackDuration))
	}
	if len(opts.lyrics) > 0 {
		simOpts = append(simOpts, sim.WithLyrics(opts.lyrics))
	}
	a.coord = lifecycle.New(sim.New(simOpts...), store, sinks, coordOpts...)

	if tracker != nil {
		ad, err := mpris.New(a.coord, tracker, logger.With("component", "mpris"))
		if err != nil {
			logger.Warn("mpris unavailable", "err", err)
		} else {
			a.mpris = ad
		}
	}
	return a, nil
}

func credentialStore(cfg *config.Config, st *state.Manager) (credentials.Store, error) {
	switch cfg.Credentials.Backend {
	case config.BackendFile:
		return credentials.NewFileStore(cfg.Credentials.Dir), nil
	case config.BackendSQLite:
		return st.Credentials(), nil
	case config.BackendMemory:
		return credentials.NewMemoryStore(), nil
	}
	return nil, fmt.Errorf("unknown credentials backend %q", cfg.Credentials.Backend)
}

func serveMetrics(addr string, m *metrics.Metrics) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Warn("metrics server stopped", "addr", addr, "err", err)
		}
	}()
	logger.Info("serving metrics", "addr", addr)
	return srv
}

// close shuts everything down within shutdownTimeout.
func (a *app) close() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	var errs []error
	if err := a.coord.Shutdown(ctx); err != nil {
		errs = append(errs, err)
	}
	if a.mpris != nil {
		if err := a.mpris.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close mpris: %w", err))
		}
	}
	if a.metricSrv != nil {
		if err := a.metricSrv.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("stop metrics: %w", err))
		}
	}
	a.hub.Close()
	if err := a.state.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close state: %w", err))
	}
	return errors.Join(errs...)
}
