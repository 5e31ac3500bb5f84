package app

import (
	"context"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"

	"coresched/internal/history"
	logx "coresched/pkg/logx"
)

// driveLoop is the host's "super loop": one rate-limited Drive pass at a
// time, on a single goroutine, exactly as an embedded main would spin.
func (a *App) driveLoop(ctx context.Context) {
	cfg := a.cfgMgr.Get()
	if cfg.Drive.Watchdog {
		a.armWatchdog()
	}

	for {
		if err := a.limiter.Wait(ctx); err != nil {
			return
		}
		a.kern.Drive()
	}
}

// armWatchdog registers a pool timer that pings systemd at half the
// configured WatchdogSec. Skipped silently when not running under a
// systemd watchdog.
func (a *App) armWatchdog() {
	interval, err := daemon.SdWatchdogEnabled(false)
	if err != nil || interval == 0 {
		a.log.Debug("systemd watchdog not enabled", logx.Err(err))
		return
	}
	tm := a.pool.Register(interval/2, func() {
		_, _ = daemon.SdNotify(false, daemon.SdNotifyWatchdog)
	})
	if !tm.Valid() {
		a.log.Warn("watchdog timer: pool full")
		return
	}
	tm.Start()
	a.timers["watchdog"] = tm
	a.log.Info("systemd watchdog armed", logx.Duration("interval", interval/2))
}

// enqueueSnapshot runs on the drive goroutine (timer callback); the actual
// write happens on the history writer goroutine so Drive never blocks on
// I/O.
func (a *App) enqueueSnapshot() {
	ks := a.kern.Snapshot()
	ps := a.pool.Snapshot()
	ls := a.loop.Stats()
	e := history.Entry{
		At:               time.Now(),
		TasksRegistered:  ks.Registered,
		TimersRegistered: ps.Registered,
		SlicesRun:        ks.SlicesRun,
		TimersFired:      ps.Fired,
		EventsDispatched: ls.Dispatched,
		EventsDiscarded:  ls.Discarded,
		RegisterFailures: ks.RegisterFailures + ps.RegisterFailures,
	}
	select {
	case a.flushCh <- e:
	default:
		// writer is behind; drop this snapshot rather than stall the loop
	}
}

func (a *App) historyWriter(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case e := <-a.flushCh:
			if a.store == nil {
				continue
			}
			wctx, cancel := context.WithTimeout(ctx, 5*time.Second)
			err := a.store.Append(wctx, e)
			cancel()
			if err != nil {
				a.log.Warn("history append failed", logx.Err(err))
			}
		}
	}
}

func notifyReady(log logx.Logger) {
	if sent, err := daemon.SdNotify(false, daemon.SdNotifyReady); err != nil {
		log.Debug("sd_notify ready failed", logx.Err(err))
	} else if sent {
		log.Debug("sd_notify ready sent")
	}
}

func notifyStopping(log logx.Logger) {
	_, _ = daemon.SdNotify(false, daemon.SdNotifyStopping)
}
