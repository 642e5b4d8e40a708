// Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
// See LICENSE for license information.

package conf

import "strings"

type Level string

const (
	TraceLevel Level = "trace"
	DebugLevel Level = "debug"
	InfoLevel  Level = "info"
	WarnLevel  Level = "warn"
	ErrorLevel Level = "error"
	FatalLevel Level = "fatal"
)

// ParseLevel maps a string to a Level, defaulting to info.
func ParseLevel(s string) Level {
	switch Level(strings.ToLower(strings.TrimSpace(s))) {
	case TraceLevel, DebugLevel, InfoLevel, WarnLevel, ErrorLevel, FatalLevel:
		return Level(strings.ToLower(strings.TrimSpace(s)))
	default:
		return InfoLevel
	}
}

// LogConfig configures a logger instance. Core selects the backend
// implementation; logrus is the only one wired today.
type LogConfig struct {
	Core          string    `yaml:"core" json:"core"`
	Level         Level     `yaml:"level" json:"level"`
	Format        Formatter `yaml:"format" json:"format"`
	ReportCaller  bool      `yaml:"report_caller" json:"report_caller"`
	DisableColors bool      `yaml:"disable_colors" json:"disable_colors"`
}

// DefaultConfig returns the configuration used when none is supplied.
func DefaultConfig() *LogConfig {
	return &LogConfig{
		Level:  InfoLevel,
		Format: ConsoleFormater,
	}
}
