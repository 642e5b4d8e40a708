// Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
// See LICENSE for license information.

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	TasksPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fidentikit_tasks_published_total",
		Help: "Tasks published to the broker, by analyzer and scan type.",
	}, []string{"analyzer", "scan_type"})

	RepliesReceived = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fidentikit_replies_received_total",
		Help: "Task replies received by the dispatcher, by analyzer.",
	}, []string{"analyzer"})

	OffloadedBytes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fidentikit_offloaded_bytes_total",
		Help: "Artifact bytes offloaded to the blob store, by bucket.",
	}, []string{"bucket"})

	TasksConsumed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fidentikit_tasks_consumed_total",
		Help: "Tasks consumed by workers, by analyzer and outcome.",
	}, []string{"analyzer", "outcome"})

	TaskDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "fidentikit_task_duration_seconds",
		Help:    "Wall time per task, by analyzer.",
		Buckets: prometheus.ExponentialBuckets(1, 2, 14),
	}, []string{"analyzer"})

	StageDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "fidentikit_stage_duration_seconds",
		Help:    "Wall time per pipeline stage.",
		Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
	}, []string{"stage"})
)
