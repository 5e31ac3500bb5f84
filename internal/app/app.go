// Package app assembles the scheduling core into a runnable host daemon:
// config, logging, kernel, timer pool, event loop, cron producers, history
// store, and the rate-paced drive loop.
package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"golang.org/x/time/rate"

	"coresched/internal/config"
	"coresched/internal/history"
	"coresched/pkg/eventloop"
	"coresched/pkg/kernel"
	logx "coresched/pkg/logx"
	"coresched/pkg/timer"
)

// Event is what flows through the host's event loop. Producers fill Source
// with who pushed it; Name is the configured payload.
type Event struct {
	Source string
	Name   string
	At     time.Time
}

type App struct {
	cfgMgr *config.Manager
	logSvc *logx.Service
	log    logx.Logger

	kern *kernel.Kernel
	pool *timer.Pool
	loop *eventloop.Loop[Event]

	cron    *cron.Cron
	limiter *rate.Limiter
	store   history.Store

	// static timers by name, so reloads can report on them
	timers map[string]*timer.Timer

	// history snapshots are written off the drive goroutine
	flushCh chan history.Entry

	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.Mutex
	started bool
}

// New loads the config at path and assembles the host. Nothing runs until
// Start.
func New(path string) (*App, error) {
	mgr := config.NewManager(path)
	cfg, err := mgr.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logSvc, log := logx.New(logx.Config{
		Level:   cfg.Logging.Level,
		Console: cfg.Logging.Console,
		File: logx.FileConfig{
			Enabled: cfg.Logging.File.Enabled,
			Path:    cfg.Logging.File.Path,
		},
	})
	mgr.SetLogger(log.With(logx.String("comp", "config")))
	mgr.SetValidator(func(ctx context.Context, c *config.Config) error {
		_ = ctx
		return c.Validate()
	})

	a := &App{
		cfgMgr:  mgr,
		logSvc:  logSvc,
		log:     log,
		timers:  map[string]*timer.Timer{},
		flushCh: make(chan history.Entry, 16),
	}
	if err := a.build(cfg); err != nil {
		logSvc.Close()
		return nil, err
	}
	return a, nil
}

// Logger exposes the root logger for the main package.
func (a *App) Logger() logx.Logger { return a.log }

// Start launches the drive loop, cron producers, config watcher, and the
// history writer. It returns once everything is running.
func (a *App) Start(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.started {
		return nil
	}

	runCtx, cancel := context.WithCancel(ctx)
	a.cancel = cancel

	if a.cron != nil {
		a.cron.Start()
	}

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		a.driveLoop(runCtx)
	}()

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		a.historyWriter(runCtx)
	}()

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		if err := a.cfgMgr.Watch(runCtx); err != nil {
			a.log.Warn("config watch stopped", logx.Err(err))
		}
	}()

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		a.reloadLoop(runCtx)
	}()

	notifyReady(a.log)

	cfg := a.cfgMgr.Get()
	a.log.Info("host started",
		logx.Int("kernel_capacity", a.kern.Capacity()),
		logx.Int("timer_capacity", a.pool.Capacity()),
		logx.Int("drive_rate", cfg.Drive.RatePerSec),
		logx.Int("producers", len(cfg.Producers)),
	)
	a.started = true
	return nil
}

// Stop shuts everything down, waiting for in-flight goroutines up to ctx's
// deadline.
func (a *App) Stop(ctx context.Context) error {
	a.mu.Lock()
	cancel := a.cancel
	a.cancel = nil
	started := a.started
	a.started = false
	a.mu.Unlock()
	if !started {
		return nil
	}

	notifyStopping(a.log)

	if a.cron != nil {
		select {
		case <-a.cron.Stop().Done():
		case <-ctx.Done():
			// best-effort
		}
	}
	if cancel != nil {
		cancel()
	}

	done := make(chan struct{})
	go func() {
		a.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
	}

	if a.store != nil {
		_ = a.store.Close()
	}
	a.log.Info("host stopped")
	return a.logSvc.Close()
}

// reloadLoop applies hot-reloadable config sections and flags the rest.
func (a *App) reloadLoop(ctx context.Context) {
	sub := a.cfgMgr.Subscribe(1)
	defer a.cfgMgr.Unsubscribe(sub)

	prev := a.cfgMgr.Get()
	for {
		select {
		case <-ctx.Done():
			return
		case cfg, ok := <-sub:
			if !ok || cfg == nil {
				return
			}
			changed, attrs := config.SummarizeChange(prev, cfg)
			if len(changed) == 0 {
				continue
			}
			a.log.Info("config reloaded", append(attrs, logx.Any("sections", changed))...)

			for _, section := range changed {
				switch section {
				case "logging":
					a.logSvc.Apply(logx.Config{
						Level:   cfg.Logging.Level,
						Console: cfg.Logging.Console,
						File: logx.FileConfig{
							Enabled: cfg.Logging.File.Enabled,
							Path:    cfg.Logging.File.Path,
						},
					})
				case "drive":
					a.limiter.SetLimit(rate.Limit(cfg.Drive.RatePerSec))
				case "kernel":
					// burst is the one kernel knob adjustable at runtime
					a.loop.SetMaxEventsPerCall(cfg.Kernel.MaxEventsPerCall)
				}
			}
			if config.NeedsRestart(changed) {
				a.log.Warn("config sections need a restart to apply", logx.Any("sections", changed))
			}
			prev = cfg
		}
	}
}
