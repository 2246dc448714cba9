// Package events forwards panel events to other processes through a RabbitMQ
// fanout exchange.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"mealdesk/internal/panel"
)

// ErrNack is returned when the broker refuses a message
var ErrNack = errors.New("publish NACK from broker")

// confirmBuffer keeps late confirmations from stalling the connection reader.
const confirmBuffer = 64

type publishChannel interface {
	GetNextPublishSeqNo() uint64
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// Publisher implements panel.Notifier over a confirm-mode channel. Publishes
// are serialised so each one waits for its own confirmation.
type Publisher struct {
	conn     *amqp.Connection
	ch       publishChannel
	acks     <-chan amqp.Confirmation
	exchange string
	timeout  time.Duration
	mu       sync.Mutex
}

// Dial connects, declares the durable fanout exchange and enables publisher confirms.
func Dial(url, exchange string, timeout time.Duration) (*Publisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial amqp: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if err := ch.ExchangeDeclare(exchange, amqp.ExchangeFanout, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("declare exchange %s: %w", exchange, err)
	}
	if err := ch.Confirm(false); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("enable confirms: %w", err)
	}
	acks := ch.NotifyPublish(make(chan amqp.Confirmation, confirmBuffer))

	p := newPublisher(ch, acks, exchange, timeout)
	p.conn = conn
	return p, nil
}

func newPublisher(ch publishChannel, acks <-chan amqp.Confirmation, exchange string, timeout time.Duration) *Publisher {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Publisher{ch: ch, acks: acks, exchange: exchange, timeout: timeout}
}

// Notify publishes ev as a persistent JSON message and waits for the ack
func (p *Publisher) Notify(ctx context.Context, ev panel.Event) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	tag := p.ch.GetNextPublishSeqNo()
	err = p.ch.PublishWithContext(ctx, p.exchange, ev.Entity+"."+string(ev.Kind), false, false, amqp.Publishing{
		DeliveryMode: amqp.Persistent,
		ContentType:  "application/json",
		Timestamp:    ev.At,
		Type:         string(ev.Kind),
		Headers:      amqp.Table{"entity": ev.Entity},
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("publish %s %s: %w", ev.Kind, ev.Entity, err)
	}

	return p.waitConfirm(ctx, tag)
}

// waitConfirm reads confirmations until the one for tag arrives. Confirmations
// for earlier tags belong to publishes that already gave up waiting.
func (p *Publisher) waitConfirm(ctx context.Context, tag uint64) error {
	for {
		select {
		case conf, ok := <-p.acks:
			if !ok {
				return errors.New("confirm channel closed")
			}
			if conf.DeliveryTag < tag {
				continue
			}
			if !conf.Ack {
				return ErrNack
			}
			return nil
		case <-ctx.Done():
			return fmt.Errorf("wait for confirm %d: %w", tag, ctx.Err())
		}
	}
}

// Close closes the channel and the connection
func (p *Publisher) Close() error {
	err := p.ch.Close()
	if p.conn != nil {
		err = errors.Join(err, p.conn.Close())
	}
	return err
}

// Fanout delivers each event to every notifier in order
type Fanout []panel.Notifier

// Notify calls every notifier and joins their errors
func (f Fanout) Notify(ctx context.Context, ev panel.Event) error {
	var errs []error
	for _, n := range f {
		if err := n.Notify(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
