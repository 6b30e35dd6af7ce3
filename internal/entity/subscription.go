package entity

import (
	"time"

	"github.com/google/uuid"
)

const SubscriptionActive = "ACTIVE"

type Plan struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	PerDay int    `json:"per_day"` // daily call ceiling
}

type Subscription struct {
	ID     string `json:"id"`
	UserID string `json:"user_id"`
	Status string `json:"status"` // ACTIVE, PAUSED, CANCELLED

	// MinutesLeft is the remaining talk-time budget. Only the outcome processor
	// decrements it; it may go negative when a call runs past the estimate.
	MinutesLeft  int       `json:"minutes_left"`
	DailyUsed    int       `json:"daily_used"`
	LastUsedDate time.Time `json:"last_used_date"`

	Plan Plan `json:"plan"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func NewSubscription(userID string, plan Plan, minutes int) *Subscription {
	return &Subscription{
		ID:          uuid.New().String(),
		UserID:      userID,
		Status:      SubscriptionActive,
		MinutesLeft: minutes,
		Plan:        plan,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}
}
