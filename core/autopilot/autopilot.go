// Package autopilot runs the tracker on a cron schedule, so the
// character keeps generating behavior records without anyone issuing a
// track command. Each tick seeds the run from the journal: today's
// committed behaviors become the history, and the last lookup becomes
// the starting memory.
package autopilot

import (
	"context"
	"time"

	"github.com/mudler/xlog"
	"github.com/robfig/cron/v3"

	"github.com/yanami/soulmaker/core/journal"
	"github.com/yanami/soulmaker/core/tracker"
)

type Autopilot struct {
	tracker       *tracker.Tracker
	journal       *journal.JSONStore
	maxIterations int
	runTimeout    time.Duration

	cron    *cron.Cron
	entryID cron.EntryID
}

func New(t *tracker.Tracker, j *journal.JSONStore, maxIterations int, runTimeout time.Duration) *Autopilot {
	if maxIterations < 1 {
		maxIterations = 5
	}
	if runTimeout <= 0 {
		runTimeout = 5 * time.Minute
	}
	return &Autopilot{
		tracker:       t,
		journal:       j,
		maxIterations: maxIterations,
		runTimeout:    runTimeout,
	}
}

// Start schedules ticks with the given cron expression.
func (a *Autopilot) Start(expression string) error {
	a.cron = cron.New()
	entryID, err := a.cron.AddFunc(expression, a.tick)
	if err != nil {
		return err
	}
	a.entryID = entryID
	a.cron.Start()
	xlog.Info("Autopilot started", "cron", expression)
	return nil
}

// Stop waits for an in-flight tick to finish.
func (a *Autopilot) Stop() {
	if a.cron == nil {
		return
	}
	ctx := a.cron.Stop()
	<-ctx.Done()
	xlog.Info("Autopilot stopped")
}

func (a *Autopilot) tick() {
	now := time.Now()
	state := &tracker.BehaviorState{
		CurrentTime: now.Format("2006-01-02 15:04"),
		History:     a.journal.TodayHistory(now.Format("2006-01-02")),
		Memory:      a.journal.LastMemory(),
	}

	ctx, cancel := context.WithTimeout(context.Background(), a.runTimeout)
	defer cancel()

	record, err := a.tracker.Run(ctx, state, a.maxIterations)
	if err != nil {
		steps := 0
		if record != nil {
			steps = len(record.Steps)
		}
		xlog.Error("Autopilot run failed", "error", err, "completed_steps", steps)
		return
	}

	xlog.Info("Autopilot run finished", "id", record.ID, "steps", len(record.Steps))
}
