// Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
// See LICENSE for license information.

package model

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/socsys/fidentikit/pkg/config"
)

// TaskState is the task lifecycle:
// REQUEST_SENT -> REQUEST_RECEIVED -> RESPONSE_SENT -> RESPONSE_RECEIVED.
type TaskState string

const (
	TaskStateRequestSent      TaskState = "REQUEST_SENT"
	TaskStateRequestReceived  TaskState = "REQUEST_RECEIVED"
	TaskStateResponseSent     TaskState = "RESPONSE_SENT"
	TaskStateResponseReceived TaskState = "RESPONSE_RECEIVED"
)

// Analyzer names double as queue names and collection names.
const (
	AnalyzerLandscape        = "landscape_analysis"
	AnalyzerPasskey          = "passkey_analysis"
	AnalyzerLoginTrace       = "login_trace_analysis"
	AnalyzerWildcardReceiver = "wildcard_receiver_analysis"
)

// KnownAnalyzers lists every queue the dispatcher can publish to.
var KnownAnalyzers = []string{
	AnalyzerLandscape, AnalyzerPasskey, AnalyzerLoginTrace, AnalyzerWildcardReceiver,
}

// TaskConfig carries the task identity, lifecycle state and the four
// monotone timestamps. Tasks are never mutated after RESPONSE_RECEIVED
// except for deletion or duplicate pruning.
type TaskConfig struct {
	TaskID                        string     `json:"task_id" bson:"task_id"`
	TaskState                     TaskState  `json:"task_state" bson:"task_state"`
	TaskTimestampRequestSent      *time.Time `json:"task_timestamp_request_sent,omitempty" bson:"task_timestamp_request_sent,omitempty"`
	TaskTimestampRequestReceived  *time.Time `json:"task_timestamp_request_received,omitempty" bson:"task_timestamp_request_received,omitempty"`
	TaskTimestampResponseSent     *time.Time `json:"task_timestamp_response_sent,omitempty" bson:"task_timestamp_response_sent,omitempty"`
	TaskTimestampResponseReceived *time.Time `json:"task_timestamp_response_received,omitempty" bson:"task_timestamp_response_received,omitempty"`
}

// Task is the wire body of a queued task request and, with the result
// attached, the document persisted by the dispatcher. The analyzer config
// and result ride under dynamic keys (`<analyzer>_config`,
// `<analyzer>_result`), so Task implements its own JSON codec.
type Task struct {
	Analyzer   string
	TaskConfig TaskConfig
	ScanConfig ScanConfig
	Domain     string
	Analysis   *config.AnalysisConfig
	Result     *TaskResult
	// ListRank is attached by the dispatcher on reply when the scan has a
	// list_id.
	ListRank *int
}

const (
	configKeySuffix = "_config"
	resultKeySuffix = "_result"
)

func (t Task) analyzerOrDefault() string {
	if t.Analyzer == "" {
		return AnalyzerLandscape
	}
	return t.Analyzer
}

// MarshalJSON emits the task envelope with the analyzer-keyed config and
// result blocks.
func (t Task) MarshalJSON() ([]byte, error) {
	doc := map[string]interface{}{
		"task_config": t.TaskConfig,
		"scan_config": t.ScanConfig,
		"domain":      t.Domain,
	}
	name := t.analyzerOrDefault()
	if t.Analysis != nil {
		doc[name+configKeySuffix] = t.Analysis
	}
	if t.Result != nil {
		doc[name+resultKeySuffix] = t.Result
	}
	if t.ListRank != nil {
		doc["list_rank"] = *t.ListRank
	}
	return json.Marshal(doc)
}

// UnmarshalJSON decodes the envelope, discovering the analyzer name from
// the dynamic config/result key.
func (t *Task) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if v, ok := raw["task_config"]; ok {
		if err := json.Unmarshal(v, &t.TaskConfig); err != nil {
			return fmt.Errorf("task_config: %w", err)
		}
	}
	if v, ok := raw["scan_config"]; ok {
		if err := json.Unmarshal(v, &t.ScanConfig); err != nil {
			return fmt.Errorf("scan_config: %w", err)
		}
	}
	if v, ok := raw["domain"]; ok {
		if err := json.Unmarshal(v, &t.Domain); err != nil {
			return fmt.Errorf("domain: %w", err)
		}
	}
	if v, ok := raw["list_rank"]; ok {
		var rank int
		if err := json.Unmarshal(v, &rank); err == nil {
			t.ListRank = &rank
		}
	}
	for key, v := range raw {
		switch {
		case key == "task_config" || key == "scan_config":
			continue
		case strings.HasSuffix(key, configKeySuffix):
			t.Analyzer = strings.TrimSuffix(key, configKeySuffix)
			t.Analysis = &config.AnalysisConfig{}
			if err := json.Unmarshal(v, t.Analysis); err != nil {
				return fmt.Errorf("%s: %w", key, err)
			}
		case strings.HasSuffix(key, resultKeySuffix):
			t.Analyzer = strings.TrimSuffix(key, resultKeySuffix)
			t.Result = &TaskResult{}
			if err := json.Unmarshal(v, t.Result); err != nil {
				return fmt.Errorf("%s: %w", key, err)
			}
		}
	}
	return nil
}

// Transition advances the task state and stamps the matching timestamp.
func (tc *TaskConfig) Transition(state TaskState, at time.Time) {
	tc.TaskState = state
	ts := at.UTC()
	switch state {
	case TaskStateRequestSent:
		tc.TaskTimestampRequestSent = &ts
	case TaskStateRequestReceived:
		tc.TaskTimestampRequestReceived = &ts
	case TaskStateResponseSent:
		tc.TaskTimestampResponseSent = &ts
	case TaskStateResponseReceived:
		tc.TaskTimestampResponseReceived = &ts
	}
}
