package main

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ssgreg/repeat"

	"github.com/lisuify/lisuify/internal/lib/misc"
	"github.com/lisuify/lisuify/internal/lib/sui"
)

// delay after the expected epoch change before cranking, so the node has moved to the new epoch
const epochChangeSlack = 30 * time.Second

// Daemon cranks the stake pool: once per epoch it runs the epoch update then stakes the reserve.
type Daemon struct {
	logger    *slog.Logger
	app       *LisuifyApp
	interval  time.Duration
	allAtOnce bool
	validator string

	// embed mutex for locking state for members below the mutex
	sync.RWMutex
	journal *CrankJournal
}

func newDaemon(app *LisuifyApp, interval time.Duration, allAtOnce bool, validator string) (*Daemon, error) {
	journal, err := LoadCrankJournal(app.ids.PoolID)
	if err != nil {
		return nil, fmt.Errorf("failed to load crank journal: %w", err)
	}
	return &Daemon{
		logger:    app.logger,
		app:       app,
		interval:  interval,
		allAtOnce: allAtOnce,
		validator: validator,
		journal:   journal,
	}, nil
}

func (d *Daemon) start(ctx context.Context, wg *sync.WaitGroup) {
	d.logger.Info("Starting lisuify daemon", "pool", d.app.ids.PoolID, "env", d.app.env)

	wg.Add(1)
	go func() {
		defer wg.Done()
		d.EpochCranker(ctx)
	}()
}

func (d *Daemon) Journal() CrankJournal {
	d.RLock()
	defer d.RUnlock()
	return *d.journal
}

// EpochCranker cranks at start, then again shortly after each epoch change (checking at least
// every interval).
func (d *Daemon) EpochCranker(ctx context.Context) {
	defer d.logger.Info("Exiting EpochCranker")
	d.logger.Info("Starting EpochCranker")

	for {
		wait := d.interval
		systemState, err := d.crank(ctx)
		if err != nil {
			misc.Errorf(d.logger, "crank failed, error:%v", err)
		} else {
			toNext := durationToNextEpoch(time.Now(),
				time.UnixMilli(int64(systemState.EpochStartTimestampMs)),
				time.Duration(systemState.EpochDurationMs)*time.Millisecond) + epochChangeSlack
			if toNext < wait {
				wait = toNext
			}
			misc.Debugf(d.logger, "next check in %v", wait)
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(wait):
		}
	}
}

// crank runs the epoch update (when the pool is behind) and then stakes the reserve.  The pool is
// reloaded for each step.
func (d *Daemon) crank(ctx context.Context) (*sui.SystemStateSummary, error) {
	systemState, err := d.fetchSystemState(ctx)
	if err != nil {
		return nil, err
	}
	epoch := uint64(systemState.Epoch)

	pool, err := d.app.loadPool(ctx)
	if err != nil {
		return systemState, err
	}
	if pool.NeedsUpdate(epoch) {
		if err := updatePool(ctx, d.app, pool, epoch, d.allAtOnce); err != nil {
			return systemState, fmt.Errorf("epoch %d update: %w", epoch, err)
		}
		d.record(func(j *CrankJournal) { j.LastUpdateEpoch = epoch })
		// the update can fail part way, or not be submitted at all for dry runs
		if pool, err = d.app.loadPool(ctx); err != nil {
			return systemState, err
		}
		if pool.NeedsUpdate(epoch) {
			misc.Infof(d.logger, "stake pool still behind epoch %d, skipping reserve staking", epoch)
			return systemState, nil
		}
	}
	if d.Journal().LastStakeEpoch >= epoch {
		return systemState, nil
	}
	if err := stakeReserve(ctx, d.app, pool, d.validator); err != nil {
		return systemState, fmt.Errorf("epoch %d stake reserve: %w", epoch, err)
	}
	d.record(func(j *CrankJournal) { j.LastStakeEpoch = epoch })
	return systemState, nil
}

func (d *Daemon) record(update func(j *CrankJournal)) {
	d.Lock()
	defer d.Unlock()
	update(d.journal)
	d.journal.LastCrank = time.Now().UTC()
	if err := SaveCrankJournal(d.journal); err != nil {
		misc.Warnf(d.logger, "unable to save crank journal, error:%v", err)
	}
}

func (d *Daemon) fetchSystemState(ctx context.Context) (*sui.SystemStateSummary, error) {
	var (
		systemState *sui.SystemStateSummary
		err         error
	)
	err = repeat.Repeat(
		repeat.Fn(func() error {
			systemState, err = d.app.client.LatestSystemState(ctx)
			if err != nil {
				return repeat.HintTemporary(err)
			}
			return nil
		}),
		repeat.StopOnSuccess(),
		repeat.LimitMaxTries(10),
		repeat.FnOnError(func(err error) error {
			misc.Warnf(d.logger, "retrying fetch of sui system state, error:%v", err)
			return err
		}),
		repeat.WithDelay(
			repeat.SetContext(ctx),
			repeat.SetContextHintStop(),
			(&repeat.FullJitterBackoffBuilder{
				BaseDelay: 5 * time.Second,
				MaxDelay:  10 * time.Second,
			}).Set(),
		),
	)
	return systemState, err
}

// durationToNextEpoch returns how long from now until the start of the next epoch, given the
// start time and length of the current one.
func durationToNextEpoch(now time.Time, epochStart time.Time, epochDuration time.Duration) time.Duration {
	if epochDuration <= 0 {
		return 0
	}
	if now.Before(epochStart) {
		return epochStart.Sub(now)
	}
	elapsed := now.Sub(epochStart) % epochDuration
	return epochDuration - elapsed
}
