package entity

import (
	"time"

	"github.com/google/uuid"
)

type ConversationStatus string

const (
	ConversationInProgress ConversationStatus = "INPROGRESS"
	ConversationCompleted  ConversationStatus = "COMPLETED" // terminal
)

type CallResult string

const (
	ResultNotResponded CallResult = "NOTRESPONDED"
	ResultPassed       CallResult = "PASSED"
	ResultRescheduled  CallResult = "RESCHEDULED"
	ResultFailed       CallResult = "FAILED"
)

// Conversation is one call attempt. The executor worker creates it INPROGRESS;
// only the outcome processor moves it to COMPLETED.
type Conversation struct {
	ID         string             `json:"id"`
	ProspectID string             `json:"prospect_id"`
	UserID     string             `json:"user_id"`
	CallID     string             `json:"call_id"` // provider-side identifier
	Status     ConversationStatus `json:"status"`
	Result     CallResult         `json:"result"`

	CallStartAt *time.Time `json:"call_start_at"`
	CallEndAt   *time.Time `json:"call_end_at"`
	Duration    int        `json:"duration"` // seconds
	Transcript  string     `json:"transcript"`
	Notes       string     `json:"notes"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func NewConversation(prospectID, userID string) *Conversation {
	return &Conversation{
		ID:         uuid.New().String(),
		ProspectID: prospectID,
		UserID:     userID,
		Status:     ConversationInProgress,
		Result:     ResultNotResponded,
		CreatedAt:  time.Now(),
		UpdatedAt:  time.Now(),
	}
}
