package usecase

import (
	"log"
	"time"

	"calldrip/internal/entity"
)

const (
	// DispatchWindow is the span the run's calls are spread across.
	DispatchWindow = 30 * time.Minute

	defaultInitialScript  = "Hello, this is a test call."
	defaultFollowUpScript = "Hi, calling back as requested."
)

// ScheduledCall pairs one ranked prospect with its concrete dispatch time,
// script and agent settings.
type ScheduledCall struct {
	Prospect      *entity.Prospect
	Script        string
	AgentSettings entity.AgentSetting
	Time          time.Time
	Variables     map[string]string
}

// Distributor turns a ranked prospect list into evenly spaced dispatch
// requests inside the window starting now.
type Distributor struct {
	Window time.Duration
	clock  func() time.Time
}

func NewDistributor() *Distributor {
	return &Distributor{Window: DispatchWindow, clock: time.Now}
}

func (d *Distributor) Distribute(user *entity.User, prospects []*entity.Prospect) []ScheduledCall {
	if len(prospects) == 0 {
		return nil
	}

	now := d.clock()
	interval := d.Window / time.Duration(len(prospects))
	calls := make([]ScheduledCall, 0, len(prospects))

	for i, prospect := range prospects {
		slot := now.Add(time.Duration(i) * interval)
		scheduled := slot

		if prospect.Status == entity.ProspectRescheduled {
			// A confirmed callback time wins over the batch slot, even when it
			// is already in the past: that forces immediate dispatch.
			if prospect.RescheduledFor != nil && !prospect.RescheduledFor.IsZero() {
				scheduled = *prospect.RescheduledFor
			} else {
				log.Printf("⚠️ [DISTRIBUTOR] prospect %s rescheduled without a valid time, using batch slot", prospect.ID)
			}
		}

		calls = append(calls, ScheduledCall{
			Prospect:      prospect,
			Script:        scriptFor(user.Setting.Script, prospect),
			AgentSettings: agentSettingsFor(user.Setting.Agent, prospect),
			Time:          scheduled,
			Variables:     map[string]string{"prospectName": prospect.Name},
		})
	}

	return calls
}

func scriptFor(s *entity.ScriptSetting, p *entity.Prospect) string {
	if p.RescheduledCount > 0 {
		if s.FollowUp != "" {
			return s.FollowUp
		}
		return defaultFollowUpScript
	}
	if s.Initial != "" {
		return s.Initial
	}
	return defaultInitialScript
}

func agentSettingsFor(a *entity.AgentSetting, p *entity.Prospect) entity.AgentSetting {
	out := entity.AgentSetting{
		Language:     a.Language,
		Voice:        a.Voice,
		FirstMessage: a.FirstMessage,
	}
	if out.Language == "" {
		out.Language = "en"
	}
	if out.Voice == "" {
		out.Voice = "female"
	}
	if out.FirstMessage == "" {
		out.FirstMessage = "Hi " + p.Name
	}
	return out
}
