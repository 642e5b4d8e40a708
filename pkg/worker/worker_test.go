// Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
// See LICENSE for license information.

package worker

import (
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/socsys/fidentikit/pkg/config"
	"github.com/socsys/fidentikit/pkg/model"
)

func fastReplier(dispatcher config.DispatcherConfig) *Replier {
	return NewReplier(config.WorkerConfig{
		ReplyAttempts:     3,
		ReplyInitialDelay: 10 * time.Millisecond,
		ReplyMaxDelay:     20 * time.Millisecond,
	}, dispatcher)
}

func sampleTask() *model.Task {
	task := &model.Task{
		Analyzer: model.AnalyzerLandscape,
		Domain:   "example.com",
		Result:   &model.TaskResult{},
	}
	task.TaskConfig.TaskID = "11111111-2222-3333-4444-555555555555"
	return task
}

func TestReplierSendsTaskDocument(t *testing.T) {
	var gotUser, gotPassword, gotMethod string
	var gotBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUser, gotPassword, _ = r.BasicAuth()
		gotMethod = r.Method
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	replier := fastReplier(config.DispatcherConfig{ReplyUser: "dispatcher", ReplyPassword: "secret"})
	err := replier.Send(t.Context(), srv.URL, sampleTask())
	require.NoError(t, err)
	assert.Equal(t, http.MethodPut, gotMethod)
	assert.Equal(t, "dispatcher", gotUser)
	assert.Equal(t, "secret", gotPassword)
	assert.Contains(t, string(gotBody), "landscape_analysis_result")
	assert.Contains(t, string(gotBody), "example.com")
}

func TestReplierRetriesUntilAccepted(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	err := fastReplier(config.DispatcherConfig{}).Send(t.Context(), srv.URL, sampleTask())
	require.NoError(t, err)
	assert.Equal(t, int32(3), calls.Load())
}

func TestReplierGivesUpAfterBudget(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	err := fastReplier(config.DispatcherConfig{}).Send(t.Context(), srv.URL, sampleTask())
	require.Error(t, err)
	// initial attempt plus the configured retries
	assert.Equal(t, int32(4), calls.Load())
}

func TestReplierRejectsMissingReplyAddress(t *testing.T) {
	err := fastReplier(config.DispatcherConfig{}).Send(t.Context(), "", sampleTask())
	assert.Error(t, err)
}

func TestTimeoutResult(t *testing.T) {
	assert.Equal(t, "Process timeout", timeoutResult().Exception)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate("abcdef", 3))
	assert.Equal(t, "abc", truncate("abc", 10))
}
