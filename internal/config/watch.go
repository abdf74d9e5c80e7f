package config

import (
	"fmt"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// WatchConfig holds configuration for the watch command.
type WatchConfig struct {
	Chain        ChainConfig
	Filter       FilterConfig
	Interval     time.Duration
	SeenSize     int
	StatePath    string
	Workers      int
	Out          string
	PGDSN        string
	EnsureSchema bool
	KafkaBrokers string
	KafkaTopic   string
	WSAddr       string
	MetricsAddr  string
	LogLevel     string
}

// LoadWatch merges .env, config file, environment variables, and flags into WatchConfig.
func LoadWatch(cfgFile string, flags *pflag.FlagSet) (WatchConfig, error) {
	v, err := load(cfgFile, flags, func(v *viper.Viper) {
		setChainDefaults(v)
		setFilterDefaults(v)
		v.SetDefault("interval", 2*time.Second)
		v.SetDefault("seen-size", 65536)
		v.SetDefault("ensure-schema", true)
		v.SetDefault("kafka-topic", "pending-extrinsics")
	})
	if err != nil {
		return WatchConfig{}, err
	}

	filter, err := filterConfig(v)
	if err != nil {
		return WatchConfig{}, err
	}
	cfg := WatchConfig{
		Chain:        chainConfig(v),
		Filter:       filter,
		Interval:     v.GetDuration("interval"),
		SeenSize:     v.GetInt("seen-size"),
		StatePath:    v.GetString("state"),
		Workers:      v.GetInt("workers"),
		Out:          v.GetString("out"),
		PGDSN:        v.GetString("pg-dsn"),
		EnsureSchema: v.GetBool("ensure-schema"),
		KafkaBrokers: v.GetString("kafka-brokers"),
		KafkaTopic:   v.GetString("kafka-topic"),
		WSAddr:       v.GetString("ws-addr"),
		MetricsAddr:  v.GetString("metrics-addr"),
		LogLevel:     v.GetString("log-level"),
	}
	if cfg.Interval <= 0 {
		return WatchConfig{}, fmt.Errorf("interval must be greater than zero")
	}
	return cfg, nil
}
