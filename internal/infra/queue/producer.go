package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"calldrip/internal/entity"
)

// CallJob is the dispatcher's output and the executor worker's input. It is
// queue-resident only, never persisted.
type CallJob struct {
	UserID        string              `json:"user_id"`
	ProspectID    string              `json:"prospect_id"`
	Script        string              `json:"script"`
	AgentSettings entity.AgentSetting `json:"agent_settings"`
	ScheduledTime time.Time           `json:"scheduled_time"`
	Variables     map[string]string   `json:"variables"`
}

type RabbitMQProducer struct {
	Conn *amqp.Connection
	Ch   *amqp.Channel
}

func NewProducer(conn *amqp.Connection, ch *amqp.Channel) *RabbitMQProducer {
	return &RabbitMQProducer{
		Conn: conn,
		Ch:   ch,
	}
}

// PublishCall submits one call job. A positive delay parks the message in the
// wait queue with a per-message TTL; expiry dead-letters it into the work
// queue at the scheduled time. Zero delay goes straight to the work exchange.
func (p *RabbitMQProducer) PublishCall(ctx context.Context, job CallJob, delay time.Duration) error {
	body, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal call job: %w", err)
	}

	msg := amqp.Publishing{
		ContentType:  "application/json",
		Body:         body,
		DeliveryMode: amqp.Persistent,
		Headers:      amqp.Table{"x-attempts": int32(0)},
	}

	if delay > 0 {
		msg.Expiration = strconv.FormatInt(delay.Milliseconds(), 10)
		err = p.Ch.PublishWithContext(ctx, "", WaitQueueName, false, false, msg)
	} else {
		err = p.Ch.PublishWithContext(ctx, ExchangeName, RoutingKey, false, false, msg)
	}

	if err != nil {
		return fmt.Errorf("publish call job: %w", err)
	}
	return nil
}
