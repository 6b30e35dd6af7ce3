package usecase

import (
	"context"
	"log"
	"sort"
	"time"

	"calldrip/internal/entity"
)

const (
	rescheduledScore = 100.0
	starvationDays   = 30
	starvationBoost  = 10.0
	neverContacted   = 30 * 24 * time.Hour // scoring baseline for fresh prospects
)

// Prioritizer ranks a user's call candidates by urgency. A prospect due for a
// confirmed callback always outranks everything else.
type Prioritizer struct {
	Prospects ProspectRepositoryInterface
	Retry     RetryPolicy
	clock     func() time.Time
}

func NewPrioritizer(prospects ProspectRepositoryInterface) *Prioritizer {
	return &Prioritizer{
		Prospects: prospects,
		Retry:     RetryPolicy{Attempts: 3, Delay: time.Second},
		clock:     time.Now,
	}
}

// Prioritize loads up to batchSize candidates and returns them ranked. The
// candidate query is retried; if every attempt fails the user is degraded to
// an empty list so one flaky query never aborts the batch run.
func (p *Prioritizer) Prioritize(ctx context.Context, userID string, batchSize int) []*entity.Prospect {
	now := p.clock()

	var prospects []*entity.Prospect
	err := p.Retry.Do(ctx, "prospect candidates", func(ctx context.Context) error {
		var err error
		prospects, err = p.Prospects.FindCallCandidates(ctx, userID, now, batchSize)
		return err
	})
	if err != nil {
		log.Printf("❌ [PRIORITIZER] all retries failed for user %s: %v", userID, err)
		return []*entity.Prospect{}
	}

	// Stable sort: ties keep the oldest-updated-first order from the query.
	sort.SliceStable(prospects, func(i, j int) bool {
		return priorityScore(prospects[i], now) > priorityScore(prospects[j], now)
	})

	if len(prospects) > batchSize {
		prospects = prospects[:batchSize]
	}
	return prospects
}

func priorityScore(p *entity.Prospect, now time.Time) float64 {
	if p.Status == entity.ProspectRescheduled {
		return rescheduledScore
	}

	lastContacted := now.Add(-neverContacted)
	if p.LastContacted != nil {
		lastContacted = *p.LastContacted
	}
	daysSinceLast := float64(int(now.Sub(lastContacted).Hours() / 24))

	score := daysSinceLast*0.5 + float64(p.RescheduledCount)*2
	if daysSinceLast > starvationDays {
		score += starvationBoost
	}
	return score
}
