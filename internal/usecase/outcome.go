package usecase

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"calldrip/internal/entity"
	"calldrip/internal/infra/http/middleware"
)

// EventType is the closed set of call lifecycle events the provider delivers.
type EventType string

const (
	EventCallStarted   EventType = "call.started"
	EventCallConnected EventType = "call.connected"
	EventCallCompleted EventType = "call.completed"
	EventCallFailed    EventType = "call.failed"
)

// OutcomeType classifies how a completed call ended.
type OutcomeType string

const (
	OutcomeAppointmentSet    OutcomeType = "APPOINTMENT_SET"
	OutcomeCallbackRequested OutcomeType = "CALLBACK_REQUESTED"
	OutcomeNotInterested     OutcomeType = "NOT_INTERESTED"
	OutcomeFailed            OutcomeType = "FAILED"
	OutcomeNoResponse        OutcomeType = "NO_RESPONSE"
)

type CallOutcome struct {
	Type            string `json:"type"`
	AppointmentTime string `json:"appointmentTime,omitempty"`
	CallbackTime    string `json:"callbackTime,omitempty"`
	Notes           string `json:"notes,omitempty"`
}

// CallEvent is the webhook payload, already boundary-validated for the two
// required fields (conversationId, eventType).
type CallEvent struct {
	ConversationID string       `json:"-"`
	EventType      string       `json:"eventType"`
	CallID         string       `json:"callId"`
	Timestamp      string       `json:"timestamp"`
	Duration       int          `json:"duration,omitempty"` // seconds
	Transcript     string       `json:"transcript,omitempty"`
	Outcome        *CallOutcome `json:"outcome,omitempty"`
	FailureReason  string       `json:"failureReason,omitempty"`
}

// resultByOutcome and prospectStatusByOutcome give unrecognized outcome types
// the documented NOTRESPONDED fallback instead of an error.
var resultByOutcome = map[OutcomeType]entity.CallResult{
	OutcomeAppointmentSet:    entity.ResultPassed,
	OutcomeCallbackRequested: entity.ResultRescheduled,
	OutcomeNotInterested:     entity.ResultFailed,
	OutcomeFailed:            entity.ResultFailed,
	OutcomeNoResponse:        entity.ResultNotResponded,
}

var prospectStatusByOutcome = map[OutcomeType]entity.ProspectStatus{
	OutcomeAppointmentSet:    entity.ProspectBooked,
	OutcomeCallbackRequested: entity.ProspectRescheduled,
	OutcomeNotInterested:     entity.ProspectNotInterested,
	OutcomeFailed:            entity.ProspectFailed,
	OutcomeNoResponse:        entity.ProspectNotResponded,
}

// OutcomeProcessor is the state machine that reconciles call results into
// account state. It is the only writer of prospect status and subscription
// usage. Per-conversation serialization comes from the store's row lock;
// duplicate delivery is absorbed by the dedup fast path plus the store's
// terminal-state guard.
type OutcomeProcessor struct {
	Store    OutcomeStoreInterface
	Dedup    DedupStoreInterface          // optional
	Notifier AppointmentNotifierInterface // optional
	clock    func() time.Time
}

func NewOutcomeProcessor(store OutcomeStoreInterface, dedup DedupStoreInterface, notifier AppointmentNotifierInterface) *OutcomeProcessor {
	return &OutcomeProcessor{
		Store:    store,
		Dedup:    dedup,
		Notifier: notifier,
		clock:    time.Now,
	}
}

// Process applies one event. Missing records, incomplete payloads, duplicates
// and unknown event types are warnings, not errors; only a failed commit
// propagates up.
func (p *OutcomeProcessor) Process(ctx context.Context, ev CallEvent) error {
	if p.Dedup != nil && p.Dedup.Seen(ctx, ev.ConversationID, ev.EventType) {
		log.Printf("⚠️ [OUTCOME] duplicate %s for conversation %s, ignoring", ev.EventType, ev.ConversationID)
		return nil
	}

	conversation, prospect, err := p.Store.FindConversation(ctx, ev.ConversationID)
	if errors.Is(err, ErrConversationNotFound) {
		log.Printf("⚠️ [OUTCOME] conversation or prospect not found: %s", ev.ConversationID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("load conversation %s: %w", ev.ConversationID, err)
	}

	eventTime := p.eventTime(ev.Timestamp)

	switch EventType(ev.EventType) {
	case EventCallStarted:
		err = p.applyStarted(ctx, ev, eventTime)
	case EventCallConnected:
		log.Printf("[OUTCOME] call connected: conversation=%s", ev.ConversationID)
	case EventCallCompleted:
		err = p.applyCompleted(ctx, ev, conversation, prospect, eventTime)
	case EventCallFailed:
		err = p.applyFailed(ctx, ev, prospect, eventTime)
	default:
		log.Printf("⚠️ [OUTCOME] unknown event type %q for conversation %s", ev.EventType, ev.ConversationID)
		return nil
	}

	if errors.Is(err, ErrAlreadyCompleted) {
		log.Printf("⚠️ [OUTCOME] conversation %s already completed, %s ignored", ev.ConversationID, ev.EventType)
		return nil
	}
	if errors.Is(err, errEventDropped) {
		// Dropped events are not marked processed: a complete redelivery,
		// should one ever arrive, must still be applicable.
		return nil
	}
	if err != nil {
		return err
	}

	middleware.RecordOutcome(ev.EventType)
	if p.Dedup != nil {
		p.Dedup.Mark(ctx, ev.ConversationID, ev.EventType)
	}
	return nil
}

func (p *OutcomeProcessor) applyStarted(ctx context.Context, ev CallEvent, eventTime time.Time) error {
	if err := p.Store.MarkStarted(ctx, ev.ConversationID, eventTime); err != nil {
		return err
	}
	log.Printf("[OUTCOME] call started: conversation=%s", ev.ConversationID)
	return nil
}

// errEventDropped marks an event discarded before any mutation.
var errEventDropped = errors.New("event dropped")

func (p *OutcomeProcessor) applyCompleted(ctx context.Context, ev CallEvent, conversation *entity.Conversation, prospect *entity.Prospect, eventTime time.Time) error {
	if ev.Duration <= 0 || ev.Transcript == "" || ev.Outcome == nil {
		log.Printf("⚠️ [OUTCOME] incomplete call.completed for conversation %s, dropping", ev.ConversationID)
		return errEventDropped
	}

	outcomeType := OutcomeType(ev.Outcome.Type)
	result, known := resultByOutcome[outcomeType]
	if !known {
		result = entity.ResultNotResponded
	}
	prospectStatus, known := prospectStatusByOutcome[outcomeType]
	if !known {
		prospectStatus = entity.ProspectNotResponded
	}

	notes := ev.Outcome.Notes
	if notes == "" {
		notes = "Call completed"
	}

	out := CompletedOutcome{
		ConversationID: ev.ConversationID,
		ProspectID:     prospect.ID,
		UserID:         conversation.UserID,
		EndAt:          eventTime,
		Duration:       ev.Duration,
		Transcript:     ev.Transcript,
		Notes:          notes,
		Result:         result,
		ProspectStatus: prospectStatus,
		LastContacted:  eventTime,
		MinutesUsed:    (ev.Duration + 59) / 60,
		UsedDate:       startOfDay(eventTime),
	}

	if outcomeType == OutcomeCallbackRequested && ev.Outcome.CallbackTime != "" {
		if callback, err := time.Parse(time.RFC3339, ev.Outcome.CallbackTime); err == nil {
			out.RescheduledFor = &callback
		}
	}

	if outcomeType == OutcomeAppointmentSet && ev.Outcome.AppointmentTime != "" {
		if when, err := time.Parse(time.RFC3339, ev.Outcome.AppointmentTime); err == nil {
			out.Appointment = entity.NewAppointment(prospect.ID, when, ev.Outcome.Notes)
		}
	}

	if err := p.Store.ApplyCompleted(ctx, out); err != nil {
		return err
	}

	middleware.RecordCallOutcome(ev.Outcome.Type)
	log.Printf("✅ [OUTCOME] call completed: conversation=%s outcome=%s minutes=%d", ev.ConversationID, ev.Outcome.Type, out.MinutesUsed)

	if out.Appointment != nil {
		p.notifyAppointment(ctx, conversation, prospect, out.Appointment)
	}
	return nil
}

func (p *OutcomeProcessor) applyFailed(ctx context.Context, ev CallEvent, prospect *entity.Prospect, eventTime time.Time) error {
	reason := ev.FailureReason
	if reason == "" {
		reason = "Unknown reason"
	}

	err := p.Store.ApplyFailed(ctx, FailedOutcome{
		ConversationID: ev.ConversationID,
		ProspectID:     prospect.ID,
		EndAt:          eventTime,
		Notes:          "Failed: " + reason,
	})
	if err != nil {
		return err
	}

	log.Printf("[OUTCOME] call failed: conversation=%s reason=%s", ev.ConversationID, reason)
	return nil
}

// notifyAppointment runs after the commit; a send failure is logged only and
// never unwinds the transaction.
func (p *OutcomeProcessor) notifyAppointment(ctx context.Context, conversation *entity.Conversation, prospect *entity.Prospect, appt *entity.Appointment) {
	if p.Notifier == nil {
		return
	}
	name, email, err := p.Store.FindUserContact(ctx, conversation.UserID)
	if err != nil || email == "" {
		log.Printf("⚠️ [OUTCOME] no contact for user %s, skipping appointment notification: %v", conversation.UserID, err)
		return
	}
	if err := p.Notifier.SendAppointmentBooked(email, name, prospect.Name, appt.ScheduledFor); err != nil {
		log.Printf("⚠️ [OUTCOME] appointment notification failed for conversation %s: %v", conversation.ID, err)
	}
}

func (p *OutcomeProcessor) eventTime(timestamp string) time.Time {
	if t, err := time.Parse(time.RFC3339, timestamp); err == nil {
		return t
	}
	return p.clock()
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
