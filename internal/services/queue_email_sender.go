package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// QueueEmailSender hands messages to a durable RabbitMQ queue instead of
// talking SMTP inside the request. cmd/mailer drains the queue.
type QueueEmailSender struct {
	URL   string
	Queue string
}

func NewQueueEmailSender(url, queue string) *QueueEmailSender {
	return &QueueEmailSender{URL: url, Queue: queue}
}

func (q *QueueEmailSender) Send(ctx context.Context, msg Message) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal mail message: %w", err)
	}

	conn, err := amqp.Dial(q.URL)
	if err != nil {
		return fmt.Errorf("rabbitmq dial: %w", err)
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("rabbitmq channel: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if _, err := declareMailQueue(ch, q.Queue); err != nil {
		return err
	}

	return ch.PublishWithContext(ctx,
		"",      // default exchange
		q.Queue, // routing key = queue name
		false,   // mandatory
		false,   // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now().UTC(),
			Body:         body,
		},
	)
}

func declareMailQueue(ch *amqp.Channel, name string) (amqp.Queue, error) {
	queue, err := ch.QueueDeclare(name, true, false, false, false, nil)
	if err != nil {
		return queue, fmt.Errorf("rabbitmq queue declare %s: %w", name, err)
	}
	return queue, nil
}

// errMalformedMessage marks deliveries that can never succeed.
var errMalformedMessage = errors.New("malformed mail message")

// requeueOnFailure reports whether a failed delivery goes back on the queue.
// Send failures get one more attempt; malformed messages are dropped.
func requeueOnFailure(err error, redelivered bool) bool {
	return !redelivered && !errors.Is(err, errMalformedMessage)
}

// MailConsumer delivers queued messages through an EmailSender.
type MailConsumer struct {
	URL    string
	Queue  string
	Sender EmailSender
}

// Run consumes until ctx is cancelled, reconnecting with exponential backoff
// when the broker goes away.
func (c *MailConsumer) Run(ctx context.Context) error {
	backoff := time.Second
	for {
		conn, err := amqp.Dial(c.URL)
		if err != nil {
			log.Printf("mail-consumer: dial failed: %v; retrying in %s", err, backoff)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		err = c.consume(ctx, conn)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		log.Printf("mail-consumer: consume loop ended: %v; reconnecting", err)
	}
}

func (c *MailConsumer) consume(ctx context.Context, conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(10, 0, false); err != nil {
		log.Printf("mail-consumer: set QoS failed: %v", err)
	}
	if _, err := declareMailQueue(ch, c.Queue); err != nil {
		return err
	}

	deliveries, err := ch.Consume(c.Queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-deliveries:
			if !ok {
				return errors.New("delivery channel closed")
			}
			if err := c.deliver(ctx, d.Body); err != nil {
				requeue := requeueOnFailure(err, d.Redelivered)
				if requeue {
					log.Printf("mail-consumer: delivery failed, requeueing: %v", err)
				} else {
					log.Printf("mail-consumer: dropping message: %v", err)
				}
				_ = d.Nack(false, requeue)
				continue
			}
			_ = d.Ack(false)
		}
	}
}

func (c *MailConsumer) deliver(ctx context.Context, body []byte) error {
	var msg Message
	if err := json.Unmarshal(body, &msg); err != nil {
		return fmt.Errorf("%w: %v", errMalformedMessage, err)
	}
	if msg.To == "" {
		return fmt.Errorf("%w: no recipient", errMalformedMessage)
	}
	return c.Sender.Send(ctx, msg)
}
