// Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
// See LICENSE for license information.

package worker

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"os/exec"
	"time"

	"github.com/socsys/fidentikit/pkg/analyzer"
	"github.com/socsys/fidentikit/pkg/logger/log"
	"github.com/socsys/fidentikit/pkg/model"
)

// ChildCommand is the hidden subcommand the worker re-execs itself
// with to run one task in a disposable process.
const ChildCommand = "run-task"

// timeoutResult is attached when the child exceeds its wall-time cap.
func timeoutResult() *model.TaskResult {
	return &model.TaskResult{Exception: "Process timeout"}
}

// RunTaskInChild executes one task in a child process under a hard
// wall-time cap. A browser crash or hang takes the child down, never
// the consumer. The child gets the task document on stdin and writes
// the result document to stdout.
func RunTaskInChild(ctx context.Context, task *model.Task, timeout time.Duration) *model.TaskResult {
	binary, err := os.Executable()
	if err != nil {
		return &model.TaskResult{Exception: err.Error()}
	}
	payload, err := json.Marshal(task)
	if err != nil {
		return &model.TaskResult{Exception: err.Error()}
	}
	childCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	cmd := exec.CommandContext(childCtx, binary, ChildCommand)
	cmd.Stdin = bytes.NewReader(payload)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err = cmd.Run()
	if childCtx.Err() == context.DeadlineExceeded {
		log.Warnf("task %s exceeded the wall-time cap, child killed", task.TaskConfig.TaskID)
		return timeoutResult()
	}
	if err != nil {
		log.Warnf("task child failed: %v (stderr: %s)", err, truncate(stderr.String(), 2048))
		return &model.TaskResult{Exception: err.Error()}
	}
	var result model.TaskResult
	if err := json.Unmarshal(stdout.Bytes(), &result); err != nil {
		return &model.TaskResult{Exception: "child produced unreadable output: " + err.Error()}
	}
	return &result
}

// ChildMain is the body of the hidden subcommand: decode the task from
// stdin, run the pipeline, emit the result on stdout. Log output goes
// to stderr so stdout stays a clean JSON document.
func ChildMain(ctx context.Context) error {
	var task model.Task
	if err := json.NewDecoder(os.Stdin).Decode(&task); err != nil {
		return err
	}
	orchestrator := analyzer.New(task.Analyzer, task.Analysis)
	result := orchestrator.Run(ctx, task.Domain)
	return json.NewEncoder(os.Stdout).Encode(result)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
