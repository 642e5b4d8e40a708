// Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
// See LICENSE for license information.

package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v2"

	"github.com/socsys/fidentikit/pkg/errors"
)

// Config is the root service configuration, loaded from the YAML file named
// by CONFIG_PATH (default config.yaml).
type Config struct {
	HttpPort        int                   `json:"httpPort" yaml:"httpPort"`
	LogLevel        string                `json:"logLevel" yaml:"logLevel"`
	Broker          BrokerConfig          `json:"broker" yaml:"broker"`
	DocumentStore   DocumentStoreConfig   `json:"document_store" yaml:"document_store"`
	RelationalStore RelationalStoreConfig `json:"relational_store" yaml:"relational_store"`
	BlobStore       BlobStoreConfig       `json:"blob_store" yaml:"blob_store"`
	Dispatcher      DispatcherConfig      `json:"dispatcher" yaml:"dispatcher"`
	Worker          WorkerConfig          `json:"worker" yaml:"worker"`
	Analysis        *AnalysisConfig       `json:"analysis" yaml:"analysis"`
}

type BrokerConfig struct {
	URL               string        `json:"url" yaml:"url"`
	QueuePrefix       string        `json:"queue_prefix" yaml:"queue_prefix"`
	ConnectAttempts   int           `json:"connect_attempts" yaml:"connect_attempts"`
	ConnectDelay      time.Duration `json:"connect_delay" yaml:"connect_delay"`
	PublishAttempts   int           `json:"publish_attempts" yaml:"publish_attempts"`
	SocketTimeout     time.Duration `json:"socket_timeout" yaml:"socket_timeout"`
}

func (c BrokerConfig) GetConnectAttempts() int {
	if c.ConnectAttempts <= 0 {
		return 10
	}
	return c.ConnectAttempts
}

func (c BrokerConfig) GetConnectDelay() time.Duration {
	if c.ConnectDelay <= 0 {
		return 5 * time.Second
	}
	return c.ConnectDelay
}

func (c BrokerConfig) GetPublishAttempts() int {
	if c.PublishAttempts <= 0 {
		return 5
	}
	return c.PublishAttempts
}

type DocumentStoreConfig struct {
	URI      string `json:"uri" yaml:"uri"`
	Database string `json:"database" yaml:"database"`
}

func (c DocumentStoreConfig) GetDatabase() string {
	if c.Database == "" {
		return "fidentikit"
	}
	return c.Database
}

type RelationalStoreConfig struct {
	DSN string `json:"dsn" yaml:"dsn"`
}

type BlobStoreConfig struct {
	Endpoint  string `json:"endpoint" yaml:"endpoint"`
	AccessKey string `json:"access_key" yaml:"access_key"`
	SecretKey string `json:"secret_key" yaml:"secret_key"`
	Secure    bool   `json:"secure" yaml:"secure"`
}

type DispatcherConfig struct {
	ReplyURL      string `json:"reply_url" yaml:"reply_url"`
	ReplyUser     string `json:"reply_user" yaml:"reply_user"`
	ReplyPassword string `json:"reply_password" yaml:"reply_password"`
	PageSize      int    `json:"page_size" yaml:"page_size"`
	// StuckTaskCron schedules the sweep that rescans tasks stuck in a
	// non-terminal state past the wall-time budget.
	StuckTaskCron string `json:"stuck_task_cron" yaml:"stuck_task_cron"`
}

func (c DispatcherConfig) GetPageSize() int {
	if c.PageSize <= 0 {
		return 50
	}
	return c.PageSize
}

func (c DispatcherConfig) GetStuckTaskCron() string {
	if c.StuckTaskCron == "" {
		return "@every 30m"
	}
	return c.StuckTaskCron
}

type WorkerConfig struct {
	Analyzer          string        `json:"analyzer" yaml:"analyzer"`
	TaskTimeout       time.Duration `json:"task_timeout" yaml:"task_timeout"`
	ReplyAttempts     int           `json:"reply_attempts" yaml:"reply_attempts"`
	ReplyInitialDelay time.Duration `json:"reply_initial_delay" yaml:"reply_initial_delay"`
	ReplyMaxDelay     time.Duration `json:"reply_max_delay" yaml:"reply_max_delay"`
}

func (c WorkerConfig) GetTaskTimeout() time.Duration {
	if c.TaskTimeout <= 0 {
		return 3 * time.Hour
	}
	return c.TaskTimeout
}

func (c WorkerConfig) GetReplyAttempts() int {
	if c.ReplyAttempts <= 0 {
		return 8
	}
	return c.ReplyAttempts
}

func (c WorkerConfig) GetReplyInitialDelay() time.Duration {
	if c.ReplyInitialDelay <= 0 {
		return 2 * time.Second
	}
	return c.ReplyInitialDelay
}

func (c WorkerConfig) GetReplyMaxDelay() time.Duration {
	if c.ReplyMaxDelay <= 0 {
		return 2 * time.Minute
	}
	return c.ReplyMaxDelay
}

var config *Config

// LoadConfig reads and caches the root configuration.
func LoadConfig() (*Config, error) {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.yaml"
	}
	return LoadConfigFile(configPath)
}

// LoadConfigFile reads the configuration from an explicit path.
func LoadConfigFile(path string) (*Config, error) {
	configFile, err := os.Open(path)
	if err != nil {
		return nil, errors.NewError().
			WithCode(errors.CodeInitializeError).
			WithMessage("failed to open config file").
			WithError(err)
	}
	defer configFile.Close()
	decoder := yaml.NewDecoder(configFile)
	err = decoder.Decode(&config)
	if err != nil {
		return nil, errors.NewError().
			WithCode(errors.CodeInitializeError).
			WithMessage("failed to parse config file").
			WithError(err)
	}
	if config.Analysis == nil {
		config.Analysis = DefaultAnalysisConfig()
	}
	return config, nil
}

// GetConfig returns the cached configuration, loading it on first use.
func GetConfig() (*Config, error) {
	if config != nil {
		return config, nil
	}
	return LoadConfig()
}

// Validate checks the parts of the configuration a service cannot run
// without.
func (c *Config) Validate(needBroker, needStores bool) error {
	if needBroker && c.Broker.URL == "" {
		return errors.NewError().WithCode(errors.CodeLackOfConfig).
			WithMessage("broker.url is required")
	}
	if needStores {
		if c.DocumentStore.URI == "" {
			return errors.NewError().WithCode(errors.CodeLackOfConfig).
				WithMessage("document_store.uri is required")
		}
		if c.BlobStore.Endpoint == "" {
			return errors.NewError().WithCode(errors.CodeLackOfConfig).
				WithMessage("blob_store.endpoint is required")
		}
	}
	return nil
}

func (c *Config) GetHttpAddr() string {
	port := c.HttpPort
	if port == 0 {
		port = 8050
	}
	return fmt.Sprintf(":%d", port)
}
