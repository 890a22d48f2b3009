package cfg

import (
	"flag"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/rs/zerolog/log"
)

// LoggingConfiguration controls logging behavior
type LoggingConfiguration struct {
	Verbose bool   `toml:"verbose"`
	Format  string `toml:"format"` // "console" or "json"
}

// PrometheusConfiguration for metrics
type PrometheusConfiguration struct {
	Enabled bool   `toml:"enabled"`
	Address string `toml:"address"`
	Port    int    `toml:"port"`
}

// NatsConfiguration controls the change-event feed and command intake
type NatsConfiguration struct {
	URL            string `toml:"url"`
	ChangeSubject  string `toml:"change_subject"`
	CommandSubject string `toml:"command_subject"`
	QueueGroup     string `toml:"queue_group"`
	TimeoutMS      int    `toml:"timeout_ms"`
}

// LegacyDBConfiguration for the legacy SQLite transaction store
type LegacyDBConfiguration struct {
	Path          string `toml:"path"`
	BusyTimeoutMS int    `toml:"busy_timeout_ms"`
}

// RetryConfiguration controls the persistence pipeline retry policy.
// Unset or negative values clamp to zero (no retry).
type RetryConfiguration struct {
	Count   int `toml:"count"`
	DelayMS int `toml:"delay_ms"`
}

// TransactionConfiguration controls envelope composition
type TransactionConfiguration struct {
	Source string `toml:"source"` // Source column value stamped on every envelope
}

// PublisherConfiguration describes one downstream publishing target
type PublisherConfiguration struct {
	Name          string   `toml:"name"`
	Type          string   `toml:"type"` // "nats", "listener", "kafka", "legacydb"
	Enabled       bool     `toml:"enabled"`
	NatsURL       string   `toml:"nats_url"`
	Subject       string   `toml:"subject"`
	SubjectPrefix string   `toml:"subject_prefix"`
	Brokers       []string `toml:"brokers"`
	Topic         string   `toml:"topic"`
	NodePatterns  []string `toml:"node_patterns"` // glob patterns; empty matches every node
}

// Configuration is the main configuration structure
type Configuration struct {
	Nats        NatsConfiguration        `toml:"nats"`
	LegacyDB    LegacyDBConfiguration    `toml:"legacy_db"`
	Retry       RetryConfiguration       `toml:"retry"`
	Transaction TransactionConfiguration `toml:"transaction"`
	Publishers  []PublisherConfiguration `toml:"publishers"`
	Logging     LoggingConfiguration     `toml:"logging"`
	Prometheus  PrometheusConfiguration  `toml:"prometheus"`
}

// Command line flags
var (
	ConfigPathFlag = flag.String("config", "config.toml", "Path to configuration file")
	NatsURLFlag    = flag.String("nats-url", "", "NATS server URL (overrides config)")
	DBPathFlag     = flag.String("db-path", "", "Legacy database path (overrides config)")
)

// Default configuration
var Config = &Configuration{
	Nats: NatsConfiguration{
		URL:            "nats://127.0.0.1:4222",
		ChangeSubject:  "xs.transactions.changes",
		CommandSubject: "xs.transactions.commands",
		QueueGroup:     "ally-xs-transactions",
		TimeoutMS:      5000,
	},
	LegacyDB: LegacyDBConfiguration{
		Path:          "./ally-data/xspoc.db",
		BusyTimeoutMS: 5000,
	},
	Retry: RetryConfiguration{
		Count:   0,
		DelayMS: 1000,
	},
	Transaction: TransactionConfiguration{
		Source: "ally-xs",
	},
	Publishers: []PublisherConfiguration{},
	Logging: LoggingConfiguration{
		Verbose: false,
		Format:  "console",
	},
	Prometheus: PrometheusConfiguration{
		Enabled: true,
		Address: "0.0.0.0",
		Port:    9090,
	},
}

// Load loads configuration from file and applies CLI overrides
func Load(configPath string) error {
	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			log.Info().Str("path", configPath).Msg("Loading configuration")
			if _, err := toml.DecodeFile(configPath, Config); err != nil {
				return fmt.Errorf("failed to decode config: %w", err)
			}
		} else {
			log.Warn().Str("path", configPath).Msg("Config file not found, using defaults")
		}
	}

	if *NatsURLFlag != "" {
		Config.Nats.URL = *NatsURLFlag
	}
	if *DBPathFlag != "" {
		Config.LegacyDB.Path = *DBPathFlag
	}

	return nil
}

// Validate checks the configuration for fields the service cannot run
// without. Retry values are intentionally not rejected here; negatives
// clamp to zero downstream.
func Validate() error {
	if Config.Nats.URL == "" {
		return fmt.Errorf("nats url is required")
	}
	if Config.Nats.ChangeSubject == "" {
		return fmt.Errorf("nats change subject is required")
	}
	if Config.LegacyDB.Path == "" {
		return fmt.Errorf("legacy database path is required")
	}
	if Config.Transaction.Source == "" {
		return fmt.Errorf("transaction source is required")
	}
	if Config.Prometheus.Enabled {
		if Config.Prometheus.Port <= 0 || Config.Prometheus.Port > 65535 {
			return fmt.Errorf("invalid prometheus port: %d", Config.Prometheus.Port)
		}
	}

	names := make(map[string]struct{}, len(Config.Publishers))
	for _, pub := range Config.Publishers {
		if pub.Name == "" {
			return fmt.Errorf("publisher name is required")
		}
		if _, dup := names[pub.Name]; dup {
			return fmt.Errorf("duplicate publisher name: %s", pub.Name)
		}
		names[pub.Name] = struct{}{}
		if pub.Type == "" {
			return fmt.Errorf("publisher %s: type is required", pub.Name)
		}
	}

	return nil
}
