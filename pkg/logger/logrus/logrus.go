// Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
// See LICENSE for license information.

package logrus

import (
	"os"

	"github.com/sirupsen/logrus"

	"github.com/socsys/fidentikit/pkg/logger"
	"github.com/socsys/fidentikit/pkg/logger/conf"
)

// LogrusWrapper adapts a logrus.Logger to the project Logger interface.
type LogrusWrapper struct {
	entry *logrus.Entry
}

// NewLogrusWrapper builds a logger from the supplied configuration.
func NewLogrusWrapper(cfg *conf.LogConfig) (logger.Logger, error) {
	if cfg == nil {
		cfg = conf.DefaultConfig()
	}
	l := logrus.New()
	l.SetOutput(os.Stdout)
	l.SetReportCaller(cfg.ReportCaller)
	switch cfg.Format {
	case conf.JSONFormater:
		l.SetFormatter(&logrus.JSONFormatter{})
	default:
		l.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
			DisableColors: cfg.DisableColors,
		})
	}
	l.SetLevel(toLogrusLevel(cfg.Level))
	return &LogrusWrapper{entry: logrus.NewEntry(l)}, nil
}

func toLogrusLevel(level conf.Level) logrus.Level {
	switch level {
	case conf.TraceLevel:
		return logrus.TraceLevel
	case conf.DebugLevel:
		return logrus.DebugLevel
	case conf.WarnLevel:
		return logrus.WarnLevel
	case conf.ErrorLevel:
		return logrus.ErrorLevel
	case conf.FatalLevel:
		return logrus.FatalLevel
	default:
		return logrus.InfoLevel
	}
}

func fromLogrusLevel(level logrus.Level) conf.Level {
	switch level {
	case logrus.TraceLevel:
		return conf.TraceLevel
	case logrus.DebugLevel:
		return conf.DebugLevel
	case logrus.WarnLevel:
		return conf.WarnLevel
	case logrus.ErrorLevel:
		return conf.ErrorLevel
	case logrus.FatalLevel:
		return conf.FatalLevel
	default:
		return conf.InfoLevel
	}
}

func (w *LogrusWrapper) Log(level conf.Level, v ...interface{}) {
	w.entry.Log(toLogrusLevel(level), v...)
}

func (w *LogrusWrapper) Logf(level conf.Level, format string, v ...interface{}) {
	w.entry.Logf(toLogrusLevel(level), format, v...)
}

func (w *LogrusWrapper) WithFields(fields logger.Fields) logger.Logger {
	return &LogrusWrapper{entry: w.entry.WithFields(logrus.Fields(fields))}
}

func (w *LogrusWrapper) SetLevel(level conf.Level) {
	w.entry.Logger.SetLevel(toLogrusLevel(level))
}

func (w *LogrusWrapper) GetLevel() conf.Level {
	return fromLogrusLevel(w.entry.Logger.GetLevel())
}
