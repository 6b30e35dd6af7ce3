package entity

import (
	"time"

	"github.com/google/uuid"
)

type ProspectStatus string

const (
	ProspectInitial       ProspectStatus = "INITIAL"
	ProspectNotResponded  ProspectStatus = "NOTRESPONDED"
	ProspectRescheduled   ProspectStatus = "RESCHEDULED"
	ProspectFailed        ProspectStatus = "FAILED"
	ProspectBooked        ProspectStatus = "BOOKED"
	ProspectNotInterested ProspectStatus = "NOTINTERESTED"
)

// Prospect is a contact called on behalf of a user. Status is write-owned by
// the outcome processor; the scheduler only reads it.
type Prospect struct {
	ID     string         `json:"id"`
	UserID string         `json:"user_id"`
	Name   string         `json:"name"`
	Phone  string         `json:"phone"`
	Status ProspectStatus `json:"status"`

	LastContacted    *time.Time `json:"last_contacted"`
	RescheduledFor   *time.Time `json:"rescheduled_for"`
	RescheduledCount int        `json:"rescheduled_count"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func NewProspect(userID, name, phone string) *Prospect {
	return &Prospect{
		ID:        uuid.New().String(),
		UserID:    userID,
		Name:      name,
		Phone:     phone,
		Status:    ProspectInitial,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
}
