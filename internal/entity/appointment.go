package entity

import (
	"time"

	"github.com/google/uuid"
)

// Appointment is created only when a completed call ends with APPOINTMENT_SET.
type Appointment struct {
	ID            string    `json:"id"`
	ProspectID    string    `json:"prospect_id"`
	ScheduledFor  time.Time `json:"scheduled_for"`
	InterestLevel string    `json:"interest_level"` // LOW, MEDIUM, HIGH
	Notes         string    `json:"notes"`
	CreatedAt     time.Time `json:"created_at"`
}

func NewAppointment(prospectID string, scheduledFor time.Time, notes string) *Appointment {
	if notes == "" {
		notes = "Appointment set from call"
	}
	return &Appointment{
		ID:            uuid.New().String(),
		ProspectID:    prospectID,
		ScheduledFor:  scheduledFor,
		InterestLevel: "MEDIUM",
		Notes:         notes,
		CreatedAt:     time.Now(),
	}
}
