package usecase

import (
	"time"

	"calldrip/internal/entity"
)

// EligibilityFilter decides whether a scheduling run may place calls for a
// user at all. Every rejection here is expected steady-state, never an error.
type EligibilityFilter struct {
	HardCap int
	clock   func() time.Time
}

func NewEligibilityFilter(hardCap int) *EligibilityFilter {
	return &EligibilityFilter{HardCap: hardCap, clock: time.Now}
}

// Check returns the user's remaining call budget for this run and whether the
// user is eligible. The reason is only for log lines.
func (f *EligibilityFilter) Check(u *entity.User) (callsLeft int, ok bool, reason string) {
	if !u.HasCompleteSettings() {
		return 0, false, "missing settings"
	}
	if u.Subscription == nil {
		return 0, false, "missing subscription"
	}

	adv := u.Setting.Advanced
	loc, err := time.LoadLocation(adv.Timezone)
	if err != nil {
		// Invalid timezone falls back to UTC rather than failing the run.
		loc = time.UTC
	}

	now := f.clock().In(loc)
	start, okStart := windowBound(now, adv.CallWindowStart, loc)
	end, okEnd := windowBound(now, adv.CallWindowEnd, loc)
	if !okStart || !okEnd || !start.Before(end) {
		return 0, false, "invalid calling window"
	}
	if now.Before(start) || !now.Before(end) {
		return 0, false, "outside calling window"
	}

	callsLeft = u.Subscription.Plan.PerDay - u.Subscription.DailyUsed
	if callsLeft > f.HardCap {
		callsLeft = f.HardCap
	}
	if callsLeft <= 0 || u.Subscription.MinutesLeft <= 0 {
		return 0, false, "no calls or minutes left"
	}

	return callsLeft, true, ""
}

// windowBound resolves an "HH:MM" bound onto today's date in the user's zone.
func windowBound(now time.Time, hhmm string, loc *time.Location) (time.Time, bool) {
	t, err := time.Parse("15:04", hhmm)
	if err != nil {
		return time.Time{}, false
	}
	return time.Date(now.Year(), now.Month(), now.Day(), t.Hour(), t.Minute(), 0, 0, loc), true
}
