package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/streadway/amqp"

	"github.com/XavierBriggs/Nike/pkg/models"
)

// publisher is the subset of *amqp.Channel used to publish
type publisher interface {
	Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// AMQPNotifier publishes notifications to a topic exchange with routing key bonus.<rule>
type AMQPNotifier struct {
	conn     *amqp.Connection
	channel  publisher
	exchange string
	now      func() time.Time
}

// DialAMQP connects to the broker and declares the durable topic exchange
func DialAMQP(url, exchange string) (*AMQPNotifier, error) {
	conn, err := amqp.DialConfig(url, amqp.Config{
		Heartbeat: 60 * time.Second,
		Locale:    "en_US",
	})
	if err != nil {
		return nil, fmt.Errorf("connect to AMQP: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("create channel: %w", err)
	}

	if err := channel.ExchangeDeclare(
		exchange,
		amqp.ExchangeTopic,
		true,  // durable
		false, // auto-deleted
		false, // internal
		false, // no-wait
		nil,
	); err != nil {
		conn.Close()
		return nil, fmt.Errorf("declare exchange %s: %w", exchange, err)
	}

	n := newAMQPNotifier(channel, exchange)
	n.conn = conn
	return n, nil
}

func newAMQPNotifier(channel publisher, exchange string) *AMQPNotifier {
	return &AMQPNotifier{
		channel:  channel,
		exchange: exchange,
		now:      time.Now,
	}
}

// NotifyBonus publishes one persistent JSON message.
// The channel API has no context; ctx is only checked before publishing.
func (n *AMQPNotifier) NotifyBonus(ctx context.Context, matchID string, award models.PlayerBonus) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	now := n.now()
	notification := newNotification(matchID, award, now)
	body, err := json.Marshal(notification)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}

	err = n.channel.Publish(n.exchange, "bonus."+award.Bonus.Rule, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    notification.MessageID,
		Timestamp:    now.UTC(),
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("publish to %s: %w", n.exchange, err)
	}

	return nil
}

// Close closes the broker connection
func (n *AMQPNotifier) Close() error {
	if n.conn == nil {
		return nil
	}
	return n.conn.Close()
}
