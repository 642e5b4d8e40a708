// Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
// See LICENSE for license information.

package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/socsys/fidentikit/pkg/config"
)

func TestTaskEnvelopeUsesAnalyzerKeyedBlocks(t *testing.T) {
	task := Task{
		Analyzer: AnalyzerPasskey,
		Domain:   "example.com",
		Analysis: config.DefaultAnalysisConfig(),
		Result:   &TaskResult{Resolved: Resolved{Reachable: true, URL: "https://example.com/"}},
	}
	task.TaskConfig.TaskID = "t-1"

	data, err := json.Marshal(task)
	require.NoError(t, err)

	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Contains(t, raw, "passkey_analysis_config")
	assert.Contains(t, raw, "passkey_analysis_result")
	assert.NotContains(t, raw, "landscape_analysis_result")
}

func TestTaskEnvelopeRoundTrip(t *testing.T) {
	rank := 7
	task := Task{
		Analyzer:   AnalyzerLandscape,
		Domain:     "example.com",
		ScanConfig: ScanConfig{ScanID: "s-1", ScanType: ScanTypeSingle, Domain: "example.com"},
		Analysis:   config.DefaultAnalysisConfig(),
		Result: &TaskResult{
			Resolved: Resolved{Reachable: true, Domain: "example.com", URL: "https://example.com/"},
			LoginPageCandidates: []LoginPageCandidate{
				{LoginPageCandidate: "https://example.com/login", Strategy: "HOMEPAGE"},
			},
		},
		ListRank: &rank,
	}
	task.TaskConfig.TaskID = "t-1"
	task.TaskConfig.Transition(TaskStateRequestSent, time.Now())

	data, err := json.Marshal(task)
	require.NoError(t, err)

	var decoded Task
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, AnalyzerLandscape, decoded.Analyzer)
	assert.Equal(t, "example.com", decoded.Domain)
	assert.Equal(t, "s-1", decoded.ScanConfig.ScanID)
	assert.Equal(t, "t-1", decoded.TaskConfig.TaskID)
	require.NotNil(t, decoded.Result)
	assert.True(t, decoded.Result.Resolved.Reachable)
	require.Len(t, decoded.Result.LoginPageCandidates, 1)
	require.NotNil(t, decoded.ListRank)
	assert.Equal(t, 7, *decoded.ListRank)
	require.NotNil(t, decoded.Analysis)
}

func TestUnmarshalDiscoversAnalyzerFromResultKey(t *testing.T) {
	body := `{
		"task_config": {"task_id": "t-2", "task_state": "RESPONSE_SENT"},
		"domain": "example.org",
		"login_trace_analysis_result": {"resolved": {"reachable": false}}
	}`
	var task Task
	require.NoError(t, json.Unmarshal([]byte(body), &task))
	assert.Equal(t, AnalyzerLoginTrace, task.Analyzer)
	require.NotNil(t, task.Result)
	assert.False(t, task.Result.Resolved.Reachable)
	assert.Nil(t, task.Analysis)
}

func TestTransitionStampsMatchingTimestamp(t *testing.T) {
	var tc TaskConfig
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	tc.Transition(TaskStateRequestSent, now)
	require.NotNil(t, tc.TaskTimestampRequestSent)
	assert.Equal(t, TaskStateRequestSent, tc.TaskState)

	tc.Transition(TaskStateRequestReceived, now.Add(time.Minute))
	tc.Transition(TaskStateResponseSent, now.Add(2*time.Minute))
	tc.Transition(TaskStateResponseReceived, now.Add(3*time.Minute))
	assert.Equal(t, TaskStateResponseReceived, tc.TaskState)
	assert.True(t, tc.TaskTimestampResponseReceived.After(*tc.TaskTimestampRequestSent))
}

func TestBlobReferenceDetection(t *testing.T) {
	ref := NewBlobReference("idp-screenshot", "example.com/a.png", "png")
	assert.True(t, IsBlobReference(ref))
	assert.False(t, IsBlobReference("iVBOR..."))
	assert.False(t, IsBlobReference(map[string]interface{}{"type": "other"}))
}

func TestCandidateURLs(t *testing.T) {
	r := TaskResult{LoginPageCandidates: []LoginPageCandidate{
		{LoginPageCandidate: "https://a.example/"},
		{LoginPageCandidate: "https://b.example/login"},
	}}
	urls := r.CandidateURLs()
	assert.True(t, urls["https://a.example/"])
	assert.True(t, urls["https://b.example/login"])
	assert.False(t, urls["https://c.example/"])
}
