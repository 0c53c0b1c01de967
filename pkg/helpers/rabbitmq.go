package helpers

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

// amqpQueue is a connection plus channel bound to one durable queue.
type amqpQueue struct {
	conn  *amqp.Connection
	ch    *amqp.Channel
	Queue string
}

func dialQueue(url, queue string) (*amqpQueue, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	q := &amqpQueue{conn: conn, ch: ch, Queue: queue}
	// durable, not auto-deleted, not exclusive
	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		q.Close()
		return nil, err
	}
	return q, nil
}

func (q *amqpQueue) Close() {
	if q == nil {
		return
	}
	if q.ch != nil {
		_ = q.ch.Close()
	}
	if q.conn != nil {
		_ = q.conn.Close()
	}
}

// RabbitPublisher sends persistent JSON messages to one queue through the
// default exchange. Safe for concurrent use.
type RabbitPublisher struct {
	*amqpQueue
	mu sync.Mutex
}

func NewRabbitPublisher(url, queue string) (*RabbitPublisher, error) {
	q, err := dialQueue(url, queue)
	if err != nil {
		return nil, err
	}
	return &RabbitPublisher{amqpQueue: q}, nil
}

func (p *RabbitPublisher) Close() {
	if p == nil {
		return
	}
	p.amqpQueue.Close()
}

func (p *RabbitPublisher) PublishJSON(ctx context.Context, body any) error {
	if p == nil || p.amqpQueue == nil {
		return errors.New("rabbitmq publisher not connected")
	}
	b, err := json.Marshal(body)
	if err != nil {
		return err
	}
	msg := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    uuid.NewString(),
		Timestamp:    time.Now().UTC(),
		Body:         b,
	}
	// amqp channels are not safe for concurrent publishing
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.ch.PublishWithContext(ctx, "", p.Queue, false, false, msg)
}

// RabbitConsumer reads one durable queue with manual acknowledgements.
type RabbitConsumer struct {
	*amqpQueue
}

// NewRabbitConsumer dials url, declares queue and limits unacknowledged
// deliveries to prefetch.
func NewRabbitConsumer(url, queue string, prefetch int) (*RabbitConsumer, error) {
	q, err := dialQueue(url, queue)
	if err != nil {
		return nil, err
	}
	if err := q.ch.Qos(prefetch, 0, false); err != nil {
		q.Close()
		return nil, err
	}
	return &RabbitConsumer{amqpQueue: q}, nil
}

func (c *RabbitConsumer) Deliveries() (<-chan amqp.Delivery, error) {
	return c.ch.Consume(c.Queue, "", false, false, false, false, nil)
}

func (c *RabbitConsumer) Close() {
	if c == nil {
		return
	}
	c.amqpQueue.Close()
}
