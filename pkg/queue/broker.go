// Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
// See LICENSE for license information.

// Package queue wraps the message broker behind the small surface the
// dispatcher and workers need: durable per-analyzer queues, persistent
// publishes carrying reply routing, and a prefetch-1 consumer.
package queue

import (
	"context"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/socsys/fidentikit/pkg/config"
	"github.com/socsys/fidentikit/pkg/errors"
	"github.com/socsys/fidentikit/pkg/logger/log"
)

// Broker is a connection to the message broker. Safe for use from one
// goroutine per channel; the dispatcher keeps one Broker per process.
type Broker struct {
	cfg  config.BrokerConfig
	mu   sync.Mutex
	conn *amqp.Connection
	ch   *amqp.Channel
}

// Connect dials the broker with bounded exponential retry.
func Connect(cfg config.BrokerConfig) (*Broker, error) {
	b := &Broker{cfg: cfg}
	if err := b.dial(); err != nil {
		return nil, err
	}
	return b, nil
}

func (b *Broker) dial() error {
	policy := backoff.WithMaxRetries(
		backoff.NewExponentialBackOff(
			backoff.WithInitialInterval(b.cfg.GetConnectDelay()),
			backoff.WithMaxInterval(time.Minute),
		),
		uint64(b.cfg.GetConnectAttempts()),
	)
	var conn *amqp.Connection
	err := backoff.Retry(func() error {
		var err error
		// Heartbeat is disabled in favor of TCP keepalive: long-running
		// task consumption must not be interrupted by missed heartbeats.
		conn, err = amqp.DialConfig(b.cfg.URL, amqp.Config{Heartbeat: 0})
		if err != nil {
			log.Warnf("broker dial failed, retrying: %v", err)
		}
		return err
	}, policy)
	if err != nil {
		return errors.NewError().WithCode(errors.CodeBrokerError).
			WithMessage("failed to connect to broker").WithError(err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return errors.NewError().WithCode(errors.CodeBrokerError).
			WithMessage("failed to open broker channel").WithError(err)
	}
	b.mu.Lock()
	b.conn, b.ch = conn, ch
	b.mu.Unlock()
	return nil
}

// QueueName resolves the queue for an analyzer, honoring the configured
// prefix.
func (b *Broker) QueueName(analyzer string) string {
	if b.cfg.QueuePrefix == "" {
		return analyzer
	}
	return b.cfg.QueuePrefix + analyzer
}

// DeclareQueue ensures a durable queue for the analyzer exists.
func (b *Broker) DeclareQueue(analyzer string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, err := b.ch.QueueDeclare(b.QueueName(analyzer), true, false, false, false, nil)
	if err != nil {
		return errors.NewError().WithCode(errors.CodeBrokerError).
			WithMessagef("failed to declare queue %s", analyzer).WithError(err)
	}
	return nil
}

// Publish sends one persistent task message to the analyzer queue with
// reply routing. Retries with exponential backoff up to the configured
// attempt budget; the last failure is surfaced to the caller.
func (b *Broker) Publish(ctx context.Context, analyzer string, body []byte, replyTo, correlationID string) error {
	msg := amqp.Publishing{
		ContentType:   "application/json",
		DeliveryMode:  amqp.Persistent,
		ReplyTo:       replyTo,
		CorrelationId: correlationID,
		Timestamp:     time.Now().UTC(),
		Body:          body,
	}
	policy := backoff.WithContext(backoff.WithMaxRetries(
		backoff.NewExponentialBackOff(), uint64(b.cfg.GetPublishAttempts())), ctx)
	err := backoff.Retry(func() error {
		b.mu.Lock()
		ch := b.ch
		b.mu.Unlock()
		err := ch.PublishWithContext(ctx, "", b.QueueName(analyzer), false, false, msg)
		if err != nil {
			log.Warnf("publish to %s failed, retrying: %v", analyzer, err)
			if reconnectErr := b.reconnect(); reconnectErr != nil {
				return reconnectErr
			}
		}
		return err
	}, policy)
	if err != nil {
		return errors.NewError().WithCode(errors.CodeBrokerError).
			WithMessagef("failed to publish task %s to %s", correlationID, analyzer).
			WithError(err)
	}
	return nil
}

func (b *Broker) reconnect() error {
	b.mu.Lock()
	conn := b.conn
	b.mu.Unlock()
	if conn != nil && !conn.IsClosed() {
		return nil
	}
	log.Warn("broker connection lost, reconnecting")
	return b.dial()
}

// Delivery is one consumed task message.
type Delivery struct {
	Body          []byte
	ReplyTo       string
	CorrelationID string
	ack           func() error
}

// Ack acknowledges the delivery; the broker redelivers unacked messages.
func (d *Delivery) Ack() error { return d.ack() }

// Consume opens a prefetch-1 consumer on the analyzer queue. The returned
// channel closes when the underlying connection drops; callers are
// expected to reconnect and call Consume again.
func (b *Broker) Consume(ctx context.Context, analyzer string) (<-chan Delivery, error) {
	if err := b.reconnect(); err != nil {
		return nil, err
	}
	if err := b.DeclareQueue(analyzer); err != nil {
		return nil, err
	}
	b.mu.Lock()
	ch := b.ch
	b.mu.Unlock()
	// One in-flight task per worker process.
	if err := ch.Qos(1, 0, false); err != nil {
		return nil, errors.NewError().WithCode(errors.CodeBrokerError).
			WithMessage("failed to set prefetch").WithError(err)
	}
	deliveries, err := ch.ConsumeWithContext(ctx, b.QueueName(analyzer), "", false, false, false, false, nil)
	if err != nil {
		return nil, errors.NewError().WithCode(errors.CodeBrokerError).
			WithMessagef("failed to consume from %s", analyzer).WithError(err)
	}
	out := make(chan Delivery)
	go func() {
		defer close(out)
		for d := range deliveries {
			d := d
			out <- Delivery{
				Body:          d.Body,
				ReplyTo:       d.ReplyTo,
				CorrelationID: d.CorrelationId,
				ack:           func() error { return d.Ack(false) },
			}
		}
	}()
	return out, nil
}

// Close shuts the channel and connection down.
func (b *Broker) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.ch != nil {
		_ = b.ch.Close()
	}
	if b.conn != nil {
		return b.conn.Close()
	}
	return nil
}
