// Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
// See LICENSE for license information.

package main

import (
	"context"
	"encoding/json"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/socsys/fidentikit/pkg/analyzer"
	"github.com/socsys/fidentikit/pkg/config"
	"github.com/socsys/fidentikit/pkg/idp"
	"github.com/socsys/fidentikit/pkg/logger/conf"
	"github.com/socsys/fidentikit/pkg/logger/log"
	"github.com/socsys/fidentikit/pkg/model"
	"github.com/socsys/fidentikit/pkg/worker"
)

var (
	flagConfig   string
	flagLogLevel string
	flagDomain   string
	flagOut      string
	flagAnalyzer string
)

func main() {
	root := &cobra.Command{
		Use:           "fidentikit-worker",
		Short:         "Authentication landscape analysis worker",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&flagConfig, "config", "", "path to the config file (default $CONFIG_PATH or config.yaml)")
	root.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "log level (trace, debug, info, warn, error)")

	serve := &cobra.Command{
		Use:   "serve",
		Short: "Consume tasks from the analyzer queue",
		RunE:  runServe,
	}
	serve.Flags().StringVar(&flagAnalyzer, "analyzer", "", "analyzer queue to consume (default from config)")
	root.AddCommand(serve)

	for _, name := range []struct{ use, analyzer string }{
		{"landscape", model.AnalyzerLandscape},
		{"passkey", model.AnalyzerPasskey},
		{"login-trace", model.AnalyzerLoginTrace},
		{"wildcard-receiver", model.AnalyzerWildcardReceiver},
	} {
		analyzerName := name.analyzer
		oneShot := &cobra.Command{
			Use:   name.use,
			Short: "Analyze one domain with the " + analyzerName + " pipeline",
			RunE: func(cmd *cobra.Command, args []string) error {
				return runOneShot(cmd.Context(), analyzerName)
			},
		}
		oneShot.Flags().StringVar(&flagDomain, "domain", "", "domain to analyze")
		oneShot.Flags().StringVar(&flagOut, "out", "", "directory for the result document (default stdout)")
		_ = oneShot.MarkFlagRequired("domain")
		root.AddCommand(oneShot)
	}

	runTask := &cobra.Command{
		Use:    worker.ChildCommand,
		Hidden: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return worker.ChildMain(cmd.Context())
		},
	}
	root.AddCommand(runTask)

	ctx, cancel := signalContext()
	defer cancel()
	if err := root.ExecuteContext(ctx); err != nil {
		log.Errorf("%v", err)
		os.Exit(1)
	}
}

func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		sigs := make(chan os.Signal, 1)
		signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
		<-sigs
		cancel()
	}()
	return ctx, cancel
}

func loadConfig() (*config.Config, error) {
	var cfg *config.Config
	var err error
	if flagConfig != "" {
		cfg, err = config.LoadConfigFile(flagConfig)
	} else {
		cfg, err = config.GetConfig()
	}
	if err != nil {
		return nil, err
	}
	level := cfg.LogLevel
	if flagLogLevel != "" {
		level = flagLogLevel
	}
	if level != "" {
		log.SetLevel(conf.ParseLevel(level))
	}
	return cfg, nil
}

// loadRuleset swaps the provider ruleset in at boot and on every SIGHUP.
func loadRuleset(cfg *config.Config) {
	path := ""
	if cfg.Analysis != nil {
		path = cfg.Analysis.Idp.RulesetPath
	}
	if path == "" {
		log.Warn("no identity provider ruleset path configured")
		return
	}
	if err := idp.ReloadGlobalRuleset(path); err != nil {
		log.Warnf("failed to load identity provider ruleset: %v", err)
		return
	}
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	go func() {
		for range hup {
			if err := idp.ReloadGlobalRuleset(path); err != nil {
				log.Warnf("ruleset reload failed, keeping the previous one: %v", err)
			} else {
				log.Info("identity provider ruleset reloaded")
			}
		}
	}()
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := cfg.Validate(true, false); err != nil {
		return err
	}
	analyzerName := flagAnalyzer
	if analyzerName == "" {
		analyzerName = cfg.Worker.Analyzer
	}
	if analyzerName == "" {
		analyzerName = model.AnalyzerLandscape
	}
	loadRuleset(cfg)
	w, err := worker.New(cfg, analyzerName)
	if err != nil {
		return err
	}
	err = w.Run(cmd.Context())
	if err == context.Canceled {
		return nil
	}
	return err
}

// runOneShot runs the pipeline locally. Per-stage failures land inside
// the result document; only configuration problems exit non-zero.
func runOneShot(ctx context.Context, analyzerName string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	loadRuleset(cfg)
	orchestrator := analyzer.New(analyzerName, cfg.Analysis)
	result := orchestrator.Run(ctx, flagDomain)

	task := model.Task{
		Analyzer: analyzerName,
		Domain:   flagDomain,
		Analysis: cfg.Analysis,
		Result:   result,
	}
	data, err := json.MarshalIndent(task, "", "  ")
	if err != nil {
		return err
	}
	if flagOut == "" {
		_, err = os.Stdout.Write(append(data, '\n'))
		return err
	}
	if err := os.MkdirAll(flagOut, 0o755); err != nil {
		return err
	}
	outPath := filepath.Join(flagOut, flagDomain+"_"+analyzerName+".json")
	if err := os.WriteFile(outPath, data, 0o644); err != nil {
		return err
	}
	log.Infof("result written to %s", outPath)
	return nil
}
