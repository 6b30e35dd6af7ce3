package usecase

import (
	"context"
	"log"
	"sync/atomic"
	"time"

	"calldrip/internal/entity"
	"calldrip/internal/infra/http/middleware"
	"calldrip/internal/infra/queue"
)

// BatchStats summarizes one scheduling run.
type BatchStats struct {
	ProcessedUsers int
	QueuedJobs     int
	SkippedUsers   int
}

// BatchOrchestrator drives one scheduling run: page of eligible users, then
// score → distribute → dispatch per user. Runs are single-flight: the
// periodic trigger may fire while a run is still executing, and starting a
// second run would double-schedule prospects against quotas the outcome
// processor has not yet decremented.
type BatchOrchestrator struct {
	Users       UserRepositoryInterface
	Filter      *EligibilityFilter
	Prioritizer *Prioritizer
	Distributor *Distributor
	Producer    CallProducerInterface

	BatchSize   int
	RunDeadline time.Duration

	running atomic.Bool
	clock   func() time.Time
}

func NewBatchOrchestrator(
	users UserRepositoryInterface,
	filter *EligibilityFilter,
	prioritizer *Prioritizer,
	distributor *Distributor,
	producer CallProducerInterface,
	batchSize int,
	runDeadline time.Duration,
) *BatchOrchestrator {
	return &BatchOrchestrator{
		Users:       users,
		Filter:      filter,
		Prioritizer: prioritizer,
		Distributor: distributor,
		Producer:    producer,
		BatchSize:   batchSize,
		RunDeadline: runDeadline,
		clock:       time.Now,
	}
}

// Run executes one batch. A run already in flight makes this a counted no-op
// returning ErrRunInProgress.
func (o *BatchOrchestrator) Run(ctx context.Context) (BatchStats, error) {
	var stats BatchStats

	if !o.running.CompareAndSwap(false, true) {
		log.Printf("⚠️ [BATCH] run already in progress, skipping trigger")
		middleware.RecordBatchRun("skipped")
		return stats, ErrRunInProgress
	}
	defer o.running.Store(false)

	if o.RunDeadline > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.RunDeadline)
		defer cancel()
	}

	users, err := o.Users.FindSchedulable(ctx, o.BatchSize)
	if err != nil {
		log.Printf("❌ [BATCH] loading schedulable users failed: %v", err)
		middleware.RecordBatchRun("error")
		return stats, err
	}

	for _, user := range users {
		if ctx.Err() != nil {
			log.Printf("⚠️ [BATCH] run deadline hit, %d users left unprocessed", len(users)-stats.ProcessedUsers-stats.SkippedUsers)
			break
		}
		o.processUser(ctx, user, &stats)
	}

	log.Printf("✅ [BATCH] completed: users=%d skipped=%d jobs=%d", stats.ProcessedUsers, stats.SkippedUsers, stats.QueuedJobs)
	middleware.RecordBatchRun("ok")
	return stats, nil
}

// processUser never returns an error: one user's failure must not block the
// rest of the page.
func (o *BatchOrchestrator) processUser(ctx context.Context, user *entity.User, stats *BatchStats) {
	callsLeft, ok, reason := o.Filter.Check(user)
	if !ok {
		log.Printf("[BATCH] skipping user %s: %s", user.ID, reason)
		stats.SkippedUsers++
		return
	}

	prospects := o.Prioritizer.Prioritize(ctx, user.ID, callsLeft)
	if len(prospects) == 0 {
		log.Printf("[BATCH] skipping user %s: no eligible prospects", user.ID)
		stats.SkippedUsers++
		return
	}

	calls := o.Distributor.Distribute(user, prospects)
	for _, call := range calls {
		job := queue.CallJob{
			UserID:        user.ID,
			ProspectID:    call.Prospect.ID,
			Script:        call.Script,
			AgentSettings: call.AgentSettings,
			ScheduledTime: call.Time,
			Variables:     call.Variables,
		}

		delay := call.Time.Sub(o.clock())
		if delay < 0 {
			delay = 0
		}

		if err := o.Producer.PublishCall(ctx, job, delay); err != nil {
			// Logged and skipped: sibling jobs and the run keep going.
			log.Printf("❌ [BATCH] queueing call failed: user=%s prospect=%s: %v", user.ID, call.Prospect.ID, err)
			middleware.RecordDispatchFailure()
			continue
		}

		stats.QueuedJobs++
		middleware.RecordCallScheduled()
		log.Printf("[BATCH] scheduled call: user=%s prospect=%s at=%s", user.ID, call.Prospect.ID, call.Time.Format(time.RFC3339))
	}

	// The rotation touch happens regardless of individual job outcomes so the
	// next run's ordering always advances past this user.
	if err := o.Users.TouchProcessedAt(ctx, user.ID); err != nil {
		log.Printf("⚠️ [BATCH] rotation touch failed for user %s: %v", user.ID, err)
	}
	stats.ProcessedUsers++
}
