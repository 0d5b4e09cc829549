package queue

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/iliyamo/contacts-api/internal/mailer"
	"github.com/iliyamo/contacts-api/internal/utils"
)

// Sender is the part of the mailer the consumer needs.
type Sender interface {
	SendConfirmation(to, username, baseURL, token string) error
}

// EmailConsumer drains the email.confirm queue and sends a confirmation
// mail for every event. It runs a reconnect loop with capped backoff and
// keeps the server alive through broker outages.
type EmailConsumer struct {
	secret string
	mail   Sender
}

// NewEmailConsumer builds a consumer that signs confirmation tokens with
// secret and delivers through mail.
func NewEmailConsumer(secret string, mail Sender) *EmailConsumer {
	return &EmailConsumer{secret: secret, mail: mail}
}

// Start connects to RabbitMQ, declares the durable email.confirm queue and
// consumes it forever. Intended to run on its own goroutine.
func (c *EmailConsumer) Start() {
	backoff := time.Second
	for {
		conn, err := amqp.Dial(brokerURL())
		if err != nil {
			log.Printf("email-consumer: failed to dial broker: %v; retrying in %s", err, backoff)
			time.Sleep(backoff)
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second // reset after successful connect

		if err := c.consumeLoop(conn); err != nil {
			log.Printf("email-consumer: consume loop ended: %v; reconnecting", err)
			time.Sleep(2 * time.Second)
		}
	}
}

func (c *EmailConsumer) consumeLoop(conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(10, 0, false); err != nil {
		log.Printf("email-consumer: set QoS failed: %v", err)
	}

	if _, err := ch.QueueDeclare(emailQueueName, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}

	msgs, err := ch.Consume(emailQueueName, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for d := range msgs {
		if err := c.handleMessage(d.Body); err != nil {
			log.Printf("email-consumer: handle message failed: %v", err)
			_ = d.Nack(false, false) // reject, do not requeue to avoid tight loops
			continue
		}
		_ = d.Ack(false)
	}
	return errors.New("deliveries channel closed")
}

func (c *EmailConsumer) handleMessage(body []byte) error {
	var ev UserRegisteredEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	token, err := utils.NewEmailToken(c.secret, ev.Email)
	if err != nil {
		return fmt.Errorf("sign email token: %w", err)
	}
	if err := c.mail.SendConfirmation(ev.Email, ev.Username, ev.BaseURL, token.Value); err != nil {
		return fmt.Errorf("send mail to %s: %w", ev.Email, err)
	}
	return nil
}

var _ Sender = (*mailer.Mailer)(nil)
