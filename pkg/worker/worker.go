// Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
// See LICENSE for license information.

// Package worker consumes analysis tasks from the broker, runs each one
// in an isolated child process and PUTs the finished result back to the
// dispatcher reply endpoint.
package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/socsys/fidentikit/pkg/config"
	"github.com/socsys/fidentikit/pkg/logger/log"
	"github.com/socsys/fidentikit/pkg/metrics"
	"github.com/socsys/fidentikit/pkg/model"
	"github.com/socsys/fidentikit/pkg/queue"
)

// Worker is one single-task-at-a-time consumer bound to an analyzer
// queue.
type Worker struct {
	cfg      *config.Config
	analyzer string
	broker   *queue.Broker
	replier  *Replier
}

// New connects to the broker and prepares a worker for the analyzer
// queue.
func New(cfg *config.Config, analyzer string) (*Worker, error) {
	broker, err := queue.Connect(cfg.Broker)
	if err != nil {
		return nil, err
	}
	return &Worker{
		cfg:      cfg,
		analyzer: analyzer,
		broker:   broker,
		replier:  NewReplier(cfg.Worker, cfg.Dispatcher),
	}, nil
}

// Run consumes until the context is cancelled. The delivery channel
// closes when the broker connection drops; Run then re-opens the
// consumer, which dials again with the configured retry budget.
func (w *Worker) Run(ctx context.Context) error {
	defer w.broker.Close()
	for {
		deliveries, err := w.broker.Consume(ctx, w.analyzer)
		if err != nil {
			return err
		}
		log.Infof("worker consuming %s", w.analyzer)
		for delivery := range deliveries {
			w.handle(ctx, delivery)
			if ctx.Err() != nil {
				return ctx.Err()
			}
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		log.Warn("delivery channel closed, reopening consumer")
	}
}

// handle runs one delivery end to end. The message is acked once the
// reply is delivered or the retry budget is exhausted; an unparsable
// body is acked immediately so it cannot poison the queue.
func (w *Worker) handle(ctx context.Context, delivery queue.Delivery) {
	start := time.Now()
	var task model.Task
	if err := json.Unmarshal(delivery.Body, &task); err != nil {
		log.Warnf("discarding unparsable task %s: %v", delivery.CorrelationID, err)
		metrics.TasksConsumed.WithLabelValues(w.analyzer, "unparsable").Inc()
		w.ack(delivery)
		return
	}
	task.TaskConfig.Transition(model.TaskStateRequestReceived, time.Now())
	log.Infof("task %s received for %s", task.TaskConfig.TaskID, task.Domain)

	task.Result = RunTaskInChild(ctx, &task, w.cfg.Worker.GetTaskTimeout())
	task.TaskConfig.Transition(model.TaskStateResponseSent, time.Now())

	outcome := "ok"
	if task.Result.Exception != "" {
		outcome = "exception"
	}
	if err := w.replier.Send(ctx, delivery.ReplyTo, &task); err != nil {
		// The reply budget is exhausted; dropping the message is the
		// lesser evil, a redelivery would repeat hours of work for the
		// same dead endpoint.
		log.Warnf("giving up on reply for task %s: %v", task.TaskConfig.TaskID, err)
		outcome = "reply_failed"
	}
	w.ack(delivery)
	metrics.TasksConsumed.WithLabelValues(w.analyzer, outcome).Inc()
	metrics.TaskDuration.WithLabelValues(w.analyzer).Observe(time.Since(start).Seconds())
	log.Infof("task %s done in %s (%s)", task.TaskConfig.TaskID, time.Since(start).Round(time.Second), outcome)
}

func (w *Worker) ack(delivery queue.Delivery) {
	if err := delivery.Ack(); err != nil {
		log.Warnf("ack failed: %v", err)
	}
}
