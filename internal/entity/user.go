package entity

import (
	"time"
)

// AdvancedSetting holds the user-local calling window.
// Window bounds are "HH:MM" wall-clock times in the user's timezone.
type AdvancedSetting struct {
	Timezone        string `json:"timezone"`
	CallWindowStart string `json:"call_window_start"`
	CallWindowEnd   string `json:"call_window_end"`
}

type ScriptSetting struct {
	Initial  string `json:"initial"`
	FollowUp string `json:"follow_up"`
}

type AgentSetting struct {
	Language     string `json:"language"`
	Voice        string `json:"voice"`
	FirstMessage string `json:"first_message"`
}

type Setting struct {
	Advanced *AdvancedSetting `json:"advanced"`
	Script   *ScriptSetting   `json:"script"`
	Agent    *AgentSetting    `json:"agent"`
}

type User struct {
	ID      string  `json:"id"`
	Name    string  `json:"name"`
	Email   string  `json:"email"`
	Setting Setting `json:"setting"`

	Subscription *Subscription `json:"subscription"`

	// ProcessedAt drives the fairness rotation: the scheduler always picks the
	// longest-unprocessed users first and touches this after handling them.
	ProcessedAt time.Time `json:"processed_at"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// HasCompleteSettings reports whether the user carries everything a call needs:
// window bounds, script templates and agent settings.
func (u *User) HasCompleteSettings() bool {
	return u.Setting.Advanced != nil && u.Setting.Script != nil && u.Setting.Agent != nil
}
