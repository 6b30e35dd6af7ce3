package usecase

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"calldrip/internal/entity"
)

func testUserWithScripts(initial, followUp string) *entity.User {
	return &entity.User{
		ID:   "user-1",
		Name: "Alice",
		Setting: entity.Setting{
			Script: &entity.ScriptSetting{Initial: initial, FollowUp: followUp},
			Agent:  &entity.AgentSetting{Language: "en", Voice: "female", FirstMessage: "Hello there"},
		},
	}
}

func testDistributor(now time.Time) *Distributor {
	d := NewDistributor()
	d.clock = func() time.Time { return now }
	return d
}

func TestDistributeEvenSpacing(t *testing.T) {
	now := time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC)
	d := testDistributor(now)

	prospects := []*entity.Prospect{
		{ID: "a", Name: "A", Status: entity.ProspectInitial},
		{ID: "b", Name: "B", Status: entity.ProspectInitial},
		{ID: "c", Name: "C", Status: entity.ProspectInitial},
	}

	calls := d.Distribute(testUserWithScripts("hi", ""), prospects)

	assert.Len(t, calls, 3)
	interval := DispatchWindow / 3
	for i, call := range calls {
		assert.Equal(t, now.Add(time.Duration(i)*interval), call.Time)
	}
	assert.True(t, calls[0].Time.Before(calls[1].Time))
	assert.True(t, calls[1].Time.Before(calls[2].Time))
}

func TestDistributeSingleProspectGoesNow(t *testing.T) {
	now := time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC)
	d := testDistributor(now)

	calls := d.Distribute(testUserWithScripts("hi", ""), []*entity.Prospect{
		{ID: "a", Name: "A", Status: entity.ProspectInitial},
	})

	assert.Len(t, calls, 1)
	assert.Equal(t, now, calls[0].Time)
}

func TestDistributeRescheduledTimeWinsEvenInThePast(t *testing.T) {
	now := time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC)
	d := testDistributor(now)

	past := now.Add(-15 * time.Minute)
	calls := d.Distribute(testUserWithScripts("hi", "wb"), []*entity.Prospect{
		{ID: "a", Name: "A", Status: entity.ProspectRescheduled, RescheduledFor: &past, RescheduledCount: 1},
	})

	assert.Equal(t, past, calls[0].Time, "past callback time forces immediate dispatch")
}

func TestDistributeRescheduledWithoutTimeUsesBatchSlot(t *testing.T) {
	now := time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC)
	d := testDistributor(now)

	calls := d.Distribute(testUserWithScripts("hi", "wb"), []*entity.Prospect{
		{ID: "a", Name: "A", Status: entity.ProspectRescheduled, RescheduledCount: 1},
	})

	assert.Equal(t, now, calls[0].Time)
}

func TestDistributeScriptSelection(t *testing.T) {
	now := time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC)
	d := testDistributor(now)
	user := testUserWithScripts("initial pitch", "welcome back")

	calls := d.Distribute(user, []*entity.Prospect{
		{ID: "fresh", Name: "F", Status: entity.ProspectInitial},
		{ID: "repeat", Name: "R", Status: entity.ProspectNotResponded, RescheduledCount: 2},
	})

	assert.Equal(t, "initial pitch", calls[0].Script)
	assert.Equal(t, "welcome back", calls[1].Script)
}

func TestDistributeScriptDefaults(t *testing.T) {
	now := time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC)
	d := testDistributor(now)
	user := testUserWithScripts("", "")

	calls := d.Distribute(user, []*entity.Prospect{
		{ID: "fresh", Name: "F", Status: entity.ProspectInitial},
		{ID: "repeat", Name: "R", Status: entity.ProspectFailed, RescheduledCount: 1},
	})

	assert.Equal(t, defaultInitialScript, calls[0].Script)
	assert.Equal(t, defaultFollowUpScript, calls[1].Script)
}

func TestDistributeAgentDefaultsAndVariables(t *testing.T) {
	now := time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC)
	d := testDistributor(now)

	user := testUserWithScripts("hi", "")
	user.Setting.Agent = &entity.AgentSetting{}

	calls := d.Distribute(user, []*entity.Prospect{
		{ID: "a", Name: "Bob", Status: entity.ProspectInitial},
	})

	assert.Equal(t, "en", calls[0].AgentSettings.Language)
	assert.Equal(t, "female", calls[0].AgentSettings.Voice)
	assert.Equal(t, "Hi Bob", calls[0].AgentSettings.FirstMessage)
	assert.Equal(t, "Bob", calls[0].Variables["prospectName"])
}

func TestDistributeEmptyList(t *testing.T) {
	d := testDistributor(time.Now())
	assert.Nil(t, d.Distribute(testUserWithScripts("hi", ""), nil))
}
