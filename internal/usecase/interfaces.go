package usecase

import (
	"context"
	"time"

	"calldrip/internal/entity"
	"calldrip/internal/infra/queue"
)

type UserRepositoryInterface interface {
	// FindSchedulable returns up to limit users with an ACTIVE subscription,
	// oldest-processed-first, with settings and plan loaded.
	FindSchedulable(ctx context.Context, limit int) ([]*entity.User, error)

	// TouchProcessedAt advances the fairness rotation for one user.
	TouchProcessedAt(ctx context.Context, userID string) error
}

type ProspectRepositoryInterface interface {
	// FindCallCandidates returns up to limit prospects due for a call:
	// INITIAL/NOTRESPONDED/FAILED not contacted in 24h, or RESCHEDULED due
	// within 30 minutes. Ordered oldest-updated-first.
	FindCallCandidates(ctx context.Context, userID string, now time.Time, limit int) ([]*entity.Prospect, error)
}

type CallProducerInterface interface {
	PublishCall(ctx context.Context, job queue.CallJob, delay time.Duration) error
}

// CompletedOutcome is every mutation a call.completed event commits as one
// transaction: conversation close, prospect transition, usage accounting and
// the optional appointment.
type CompletedOutcome struct {
	ConversationID string
	ProspectID     string
	UserID         string

	EndAt      time.Time
	Duration   int
	Transcript string
	Notes      string
	Result     entity.CallResult

	ProspectStatus entity.ProspectStatus
	LastContacted  time.Time
	RescheduledFor *time.Time // set only for CALLBACK_REQUESTED with a valid time

	MinutesUsed int
	UsedDate    time.Time

	Appointment *entity.Appointment
}

// FailedOutcome closes a conversation after a call.failed event.
type FailedOutcome struct {
	ConversationID string
	ProspectID     string
	EndAt          time.Time
	Notes          string
}

type OutcomeStoreInterface interface {
	// FindConversation loads a conversation and its owning prospect.
	// Returns ErrConversationNotFound when either is missing.
	FindConversation(ctx context.Context, conversationID string) (*entity.Conversation, *entity.Prospect, error)

	// MarkStarted sets callStartAt and moves the conversation INPROGRESS.
	// Returns ErrAlreadyCompleted on a terminal conversation.
	MarkStarted(ctx context.Context, conversationID string, at time.Time) error

	// ApplyCompleted commits the whole outcome atomically, holding a row lock
	// on the conversation. Returns ErrAlreadyCompleted on a terminal
	// conversation so duplicates never double-apply.
	ApplyCompleted(ctx context.Context, out CompletedOutcome) error

	// ApplyFailed commits the failure transition atomically under the same
	// row lock and terminal guard.
	ApplyFailed(ctx context.Context, out FailedOutcome) error

	// FindUserContact returns the owning user's name and email for
	// notifications.
	FindUserContact(ctx context.Context, userID string) (name, email string, err error)
}

// DedupStoreInterface is the fast-path duplicate filter for webhook events.
// It is best effort: a miss is always backstopped by the terminal guard in
// the outcome store.
type DedupStoreInterface interface {
	Seen(ctx context.Context, conversationID, eventType string) bool
	Mark(ctx context.Context, conversationID, eventType string)
}

type AppointmentNotifierInterface interface {
	SendAppointmentBooked(to, userName, prospectName string, scheduledFor time.Time) error
}
