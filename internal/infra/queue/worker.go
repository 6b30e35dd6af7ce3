package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strconv"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"calldrip/internal/entity"
)

// CallRequest is what the worker hands the calling provider.
type CallRequest struct {
	Phone        string
	Script       string
	Variables    map[string]string
	CallbackURL  string
	Voice        string
	Language     string
	FirstMessage string
}

// CallInitiator is the outbound calling provider. It returns the provider's
// call identifier; failures come back as plain errors.
type CallInitiator interface {
	InitiateCall(ctx context.Context, req CallRequest) (string, error)
}

// WorkerStore is the slice of the database the executor needs.
type WorkerStore interface {
	FindProspect(ctx context.Context, id string) (*entity.Prospect, error)
	FindUser(ctx context.Context, id string) (*entity.User, error)
	CreateConversation(ctx context.Context, c *entity.Conversation) error
	SetConversationCallID(ctx context.Context, conversationID, callID string) error
}

// Worker consumes call jobs, opens a conversation record and hands the call
// to the provider. Transient failures go through the retry queue with
// exponential backoff; permanent ones go straight to the DLQ.
type Worker struct {
	Channel     *amqp.Channel
	Caller      CallInitiator
	Store       WorkerStore
	ServiceURL  string
	Concurrency int
}

func NewWorker(ch *amqp.Channel, caller CallInitiator, store WorkerStore, serviceURL string) *Worker {
	return &Worker{
		Channel:     ch,
		Caller:      caller,
		Store:       store,
		ServiceURL:  serviceURL,
		Concurrency: 5,
	}
}

// permanent marks errors that no retry will fix (missing records, bad data).
type permanent struct{ err error }

func (p permanent) Error() string { return p.err.Error() }
func (p permanent) Unwrap() error { return p.err }

func (w *Worker) Start(ctx context.Context, queueName string) error {
	msgs, err := w.Channel.Consume(queueName, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("register consumer: %w", err)
	}

	sem := make(chan struct{}, w.Concurrency)
	log.Printf("📞 [WORKER] consuming '%s' (concurrency %d)", queueName, w.Concurrency)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-msgs:
			if !ok {
				return errors.New("delivery channel closed")
			}
			sem <- struct{}{}
			go func(d amqp.Delivery) {
				defer func() { <-sem }()
				w.handle(ctx, d)
			}(d)
		}
	}
}

func (w *Worker) handle(ctx context.Context, d amqp.Delivery) {
	var job CallJob
	if err := json.Unmarshal(d.Body, &job); err != nil {
		log.Printf("❌ [WORKER] malformed job, dead-lettering: %v", err)
		d.Nack(false, false)
		return
	}

	if err := w.processJob(ctx, job); err != nil {
		attempts := deliveryAttempts(d)
		var perm permanent
		if errors.As(err, &perm) || attempts+1 >= MaxAttempts {
			log.Printf("❌ [WORKER] job for prospect %s exhausted (attempt %d): %v", job.ProspectID, attempts+1, err)
			d.Nack(false, false) // work queue DLX routes to the DLQ
			return
		}

		backoff := int64(BackoffBaseMs) << attempts
		log.Printf("⚠️ [WORKER] job for prospect %s failed (attempt %d), retrying in %dms: %v",
			job.ProspectID, attempts+1, backoff, err)
		if err := w.requeue(ctx, d.Body, attempts+1, backoff); err != nil {
			log.Printf("❌ [WORKER] requeue failed: %v", err)
			d.Nack(false, false)
			return
		}
		d.Ack(false)
		return
	}

	d.Ack(false)
}

func (w *Worker) processJob(ctx context.Context, job CallJob) error {
	prospect, err := w.Store.FindProspect(ctx, job.ProspectID)
	if err != nil {
		return fmt.Errorf("load prospect: %w", err)
	}
	user, err := w.Store.FindUser(ctx, job.UserID)
	if err != nil {
		return fmt.Errorf("load user: %w", err)
	}
	if prospect == nil || user == nil {
		return permanent{fmt.Errorf("missing data: prospect=%v user=%v", prospect != nil, user != nil)}
	}
	if prospect.Phone == "" {
		return permanent{errors.New("prospect phone number missing")}
	}
	if user.Subscription == nil || user.Subscription.MinutesLeft <= 0 {
		return permanent{errors.New("no minutes left in subscription")}
	}

	conv := entity.NewConversation(prospect.ID, user.ID)
	now := time.Now()
	conv.CallStartAt = &now
	conv.Notes = "Call initiated"
	if err := w.Store.CreateConversation(ctx, conv); err != nil {
		return fmt.Errorf("create conversation: %w", err)
	}

	callbackURL := fmt.Sprintf("%s/webhooks/outcome?conversationId=%s", w.ServiceURL, conv.ID)
	callID, err := w.Caller.InitiateCall(ctx, CallRequest{
		Phone:        prospect.Phone,
		Script:       job.Script,
		Variables:    job.Variables,
		CallbackURL:  callbackURL,
		Voice:        job.AgentSettings.Voice,
		Language:     job.AgentSettings.Language,
		FirstMessage: job.AgentSettings.FirstMessage,
	})
	if err != nil {
		return fmt.Errorf("initiate call: %w", err)
	}

	if err := w.Store.SetConversationCallID(ctx, conv.ID, callID); err != nil {
		// The call is already in flight; losing the provider id is logged,
		// not retried, or we would place a second call.
		log.Printf("⚠️ [WORKER] conversation %s: failed to record call id %s: %v", conv.ID, callID, err)
	}

	log.Printf("✅ [WORKER] call placed: conversation=%s call=%s prospect=%s", conv.ID, callID, prospect.ID)
	return nil
}

func (w *Worker) requeue(ctx context.Context, body []byte, attempts int, backoffMs int64) error {
	return w.Channel.PublishWithContext(ctx, "", RetryQueue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		Body:         body,
		DeliveryMode: amqp.Persistent,
		Expiration:   strconv.FormatInt(backoffMs, 10),
		Headers:      amqp.Table{"x-attempts": int32(attempts)},
	})
}

func deliveryAttempts(d amqp.Delivery) int {
	if d.Headers == nil {
		return 0
	}
	switch v := d.Headers["x-attempts"].(type) {
	case int32:
		return int(v)
	case int64:
		return int(v)
	case int:
		return v
	default:
		return 0
	}
}
