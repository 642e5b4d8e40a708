// Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
// See LICENSE for license information.

package logger

import (
	"github.com/socsys/fidentikit/pkg/logger/conf"
)

// Fields is a set of structured key/value pairs attached to a log entry.
type Fields map[string]interface{}

// Logger is the logging interface used across the project. Implementations
// wrap a concrete backend (logrus today) behind a stable surface.
type Logger interface {
	Log(level conf.Level, v ...interface{})
	Logf(level conf.Level, format string, v ...interface{})
	WithFields(fields Fields) Logger
	SetLevel(level conf.Level)
	GetLevel() conf.Level
}
