package queue

import (
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	ExchangeName = "ex.calls"
	RetryExName  = "ex.calls.retry"
	DLXName      = "ex.calls.dlx"

	QueueName     = "q.calls"
	WaitQueueName = "q.calls.wait"  // delayed dispatch: per-message TTL, dead-letters into q.calls
	RetryQueue    = "q.calls.retry" // failed attempts wait out their backoff here
	DLQName       = "q.calls.dlq"

	RoutingKey = "k.call"

	// Queue-enforced retry contract for call jobs.
	MaxAttempts   = 3
	BackoffBaseMs = 60000
)

type RabbitMQ struct {
	Conn *amqp.Connection
	Ch   *amqp.Channel
}

func NewRabbitMQ(user, pass, host, port string) (*RabbitMQ, error) {
	dsn := fmt.Sprintf("amqp://%s:%s@%s:%s/", user, pass, host, port)

	conn, err := amqp.Dial(dsn)
	if err != nil {
		return nil, fmt.Errorf("rabbitmq connect failed: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("rabbitmq channel failed: %w", err)
	}

	if err := setupTopology(ch); err != nil {
		return nil, err
	}

	return &RabbitMQ{Conn: conn, Ch: ch}, nil
}

// setupTopology declares the four-queue layout:
//
//	q.calls.wait  --TTL expired-->  q.calls  --Nack-->  q.calls.dlq
//	q.calls.retry --TTL expired-->  q.calls
//
// Scheduled jobs sit in the wait queue until their delay elapses. Failed
// attempts sit in the retry queue for an exponential backoff, then re-enter
// the work queue; attempt exhaustion dead-letters into the DLQ.
func setupTopology(ch *amqp.Channel) error {
	err := ch.ExchangeDeclare(DLXName, "direct", true, false, false, false, nil)
	if err != nil {
		return err
	}

	if _, err = ch.QueueDeclare(DLQName, true, false, false, false, nil); err != nil {
		return err
	}

	if err = ch.QueueBind(DLQName, RoutingKey, DLXName, false, nil); err != nil {
		return err
	}

	err = ch.ExchangeDeclare(ExchangeName, "direct", true, false, false, false, nil)
	if err != nil {
		return err
	}

	workArgs := amqp.Table{
		"x-dead-letter-exchange":    DLXName,
		"x-dead-letter-routing-key": RoutingKey,
	}
	if _, err = ch.QueueDeclare(QueueName, true, false, false, false, workArgs); err != nil {
		return err
	}

	if err = ch.QueueBind(QueueName, RoutingKey, ExchangeName, false, nil); err != nil {
		return err
	}

	// Wait and retry queues both drain back into the work exchange.
	backArgs := amqp.Table{
		"x-dead-letter-exchange":    ExchangeName,
		"x-dead-letter-routing-key": RoutingKey,
	}
	if _, err = ch.QueueDeclare(WaitQueueName, true, false, false, false, backArgs); err != nil {
		return err
	}

	if _, err = ch.QueueDeclare(RetryQueue, true, false, false, false, backArgs); err != nil {
		return err
	}

	return nil
}
