package app

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"golang.org/x/time/rate"

	"coresched/internal/config"
	"coresched/internal/history"
	"coresched/pkg/clock"
	"coresched/pkg/eventloop"
	"coresched/pkg/kernel"
	logx "coresched/pkg/logx"
	"coresched/pkg/timer"
)

// build wires the core objects from a validated config. Capacities are
// fixed here; reloads cannot change them.
func (a *App) build(cfg *config.Config) error {
	clk := clock.WallClock{}

	a.pool = timer.NewPool(cfg.Timers.Capacity, clk,
		timer.WithLogger(a.log.With(logx.String("comp", "timers"))))

	a.kern = kernel.New(kernel.Config{
		MaxTasks:      cfg.Kernel.MaxTasks,
		MaxEventLoops: cfg.Kernel.MaxEventLoops,
		Timers:        a.pool,
		Log:           a.log.With(logx.String("comp", "kernel")),
	})

	a.loop = eventloop.New[Event](a.kern, cfg.Kernel.QueueSize,
		eventloop.WithMaxEventsPerCall(cfg.Kernel.MaxEventsPerCall),
		eventloop.WithBurst(cfg.Kernel.MaxEventsPerCall))
	evLog := a.log.With(logx.String("comp", "events"))
	a.loop.SetHandler(func(e Event) {
		evLog.Debug("event dispatched",
			logx.String("source", e.Source),
			logx.String("name", e.Name),
			logx.Duration("queued", time.Since(e.At)),
		)
	})

	a.limiter = rate.NewLimiter(rate.Limit(cfg.Drive.RatePerSec), 1)

	if err := a.buildTimers(cfg); err != nil {
		return err
	}
	if err := a.buildProducers(cfg); err != nil {
		return err
	}
	return a.buildHistory(cfg)
}

// buildTimers arms the statically configured timers.
func (a *App) buildTimers(cfg *config.Config) error {
	for _, def := range cfg.Timers.Defs {
		def := def
		interval, err := config.ParseDurationField("timers.defs.interval", def.Interval)
		if err != nil {
			return err
		}
		name := def.Event
		if name == "" {
			name = def.Name
		}
		push := func() {
			a.loop.PushOver(Event{Source: "timer:" + def.Name, Name: name, At: time.Now()})
		}

		if def.SingleShot {
			if !a.pool.SingleShot(interval, push) {
				return fmt.Errorf("timer %q: pool full", def.Name)
			}
			continue
		}
		tm := a.pool.Register(interval, push)
		if !tm.Valid() {
			return fmt.Errorf("timer %q: pool full", def.Name)
		}
		tm.Start()
		a.timers[def.Name] = tm
	}
	return nil
}

// buildProducers schedules the cron-triggered event pushers. They run on
// cron's goroutine and enter the loop only through PushOver, which is the
// producer-safe surface.
func (a *App) buildProducers(cfg *config.Config) error {
	if len(cfg.Producers) == 0 {
		return nil
	}
	// SecondOptional allows both 5-field and 6-field (with seconds) cron specs.
	parser := cron.NewParser(cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	c := cron.New(cron.WithParser(parser))

	prodLog := a.log.With(logx.String("comp", "producers"))
	for _, p := range cfg.Producers {
		p := p
		name := p.Event
		if name == "" {
			name = p.Name
		}
		_, err := c.AddFunc(p.Spec, func() {
			a.loop.PushOver(Event{Source: "cron:" + p.Name, Name: name, At: time.Now()})
			prodLog.Trace("event produced", logx.String("producer", p.Name))
		})
		if err != nil {
			return fmt.Errorf("producer %q: %w", p.Name, err)
		}
	}
	a.cron = c
	return nil
}

// buildHistory opens the store and arms the periodic flush timer inside
// the pool, so snapshots ride the same drive loop as everything else.
func (a *App) buildHistory(cfg *config.Config) error {
	histLog := a.log.With(logx.String("comp", "history"))
	st, err := history.Open(history.Config{
		Driver:      cfg.History.Driver,
		Path:        cfg.History.Path,
		BusyTimeout: mustDuration(cfg.History.BusyTimeout),
	}, histLog)
	if err != nil {
		return fmt.Errorf("open history: %w", err)
	}
	a.store = st
	if st == nil {
		return nil
	}

	// Surface where the counters left off last run.
	if last, ok, err := st.Latest(context.Background()); err != nil {
		histLog.Warn("previous snapshot unavailable", logx.Err(err))
	} else if ok {
		histLog.Info("resuming run statistics",
			logx.Time("last_at", last.At),
			logx.Uint64("slices_run", last.SlicesRun),
			logx.Uint64("timers_fired", last.TimersFired),
			logx.Uint64("events_dispatched", last.EventsDispatched),
		)
	}

	flushEvery := mustDuration(cfg.History.FlushEvery)
	tm := a.pool.Register(flushEvery, a.enqueueSnapshot)
	if !tm.Valid() {
		return fmt.Errorf("history flush timer: pool full")
	}
	tm.Start()
	a.timers["history-flush"] = tm
	return nil
}

// mustDuration re-parses a duration string that Validate already accepted.
func mustDuration(raw string) time.Duration {
	d, err := config.ParseDurationField("", raw)
	if err != nil {
		return 0
	}
	return d
}
