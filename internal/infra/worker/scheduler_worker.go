package worker

import (
	"context"
	"errors"
	"log"
	"time"

	"calldrip/internal/usecase"
)

// SchedulerWorker is the periodic trigger for the batch orchestrator. The
// orchestrator's own single-flight guard handles overlapping ticks; this
// worker just fires on the interval and reports.
type SchedulerWorker struct {
	orchestrator *usecase.BatchOrchestrator
	tickInterval time.Duration
}

func NewSchedulerWorker(orchestrator *usecase.BatchOrchestrator, interval time.Duration) *SchedulerWorker {
	return &SchedulerWorker{
		orchestrator: orchestrator,
		tickInterval: interval,
	}
}

func (w *SchedulerWorker) Start(ctx context.Context) {
	log.Printf("🕒 Scheduler started (every %s)", w.tickInterval)

	ticker := time.NewTicker(w.tickInterval)
	defer ticker.Stop()

	w.runOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			log.Println("⚠️ Scheduler stopped")
			return
		case <-ticker.C:
			w.runOnce(ctx)
		}
	}
}

func (w *SchedulerWorker) runOnce(ctx context.Context) {
	log.Println("[SCHEDULER] starting batch run")
	stats, err := w.orchestrator.Run(ctx)
	if errors.Is(err, usecase.ErrRunInProgress) {
		return
	}
	if err != nil {
		log.Printf("❌ [SCHEDULER] batch run failed: %v", err)
		return
	}
	log.Printf("[SCHEDULER] batch run done: users=%d jobs=%d", stats.ProcessedUsers, stats.QueuedJobs)
}
