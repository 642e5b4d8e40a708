// Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
// See LICENSE for license information.

package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/go-resty/resty/v2"

	"github.com/socsys/fidentikit/pkg/config"
	"github.com/socsys/fidentikit/pkg/errors"
	"github.com/socsys/fidentikit/pkg/logger/log"
	"github.com/socsys/fidentikit/pkg/model"
)

// Replier PUTs finished tasks to the dispatcher reply endpoint with
// capped exponential retry.
type Replier struct {
	cfg    config.WorkerConfig
	client *resty.Client
}

// NewReplier builds a reply client with the dispatcher credentials.
func NewReplier(cfg config.WorkerConfig, dispatcher config.DispatcherConfig) *Replier {
	client := resty.New().SetTimeout(2 * time.Minute)
	if dispatcher.ReplyUser != "" {
		client.SetBasicAuth(dispatcher.ReplyUser, dispatcher.ReplyPassword)
	}
	return &Replier{cfg: cfg, client: client}
}

// Send delivers the task document to the reply endpoint. Retries until
// the attempt budget runs out; a 2xx status counts as delivered.
func (r *Replier) Send(ctx context.Context, replyTo string, task *model.Task) error {
	if replyTo == "" {
		return errors.NewError().WithCode(errors.CodeBrokerError).
			WithMessagef("task %s has no reply address", task.TaskConfig.TaskID)
	}
	policy := backoff.WithContext(backoff.WithMaxRetries(
		backoff.NewExponentialBackOff(
			backoff.WithInitialInterval(r.cfg.GetReplyInitialDelay()),
			backoff.WithMaxInterval(r.cfg.GetReplyMaxDelay()),
		),
		uint64(r.cfg.GetReplyAttempts()),
	), ctx)
	err := backoff.Retry(func() error {
		resp, err := r.client.R().SetContext(ctx).
			SetHeader("Content-Type", "application/json").
			SetBody(task).
			Put(replyTo)
		if err != nil {
			log.Warnf("reply to %s failed, retrying: %v", replyTo, err)
			return err
		}
		if resp.IsError() {
			err := fmt.Errorf("reply endpoint returned %d", resp.StatusCode())
			log.Warnf("reply to %s rejected, retrying: %v", replyTo, err)
			return err
		}
		return nil
	}, policy)
	if err != nil {
		return errors.NewError().WithCode(errors.CodeBrokerError).
			WithMessagef("failed to deliver reply for task %s", task.TaskConfig.TaskID).
			WithError(err)
	}
	return nil
}
