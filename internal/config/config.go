package config

import (
	"errors"
	"fmt"
	"io/fs"
	"math"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix namespaces environment overrides, e.g. PENDING_RPC.
const EnvPrefix = "PENDING"

// DefaultCallFunctions is the allow-list used when none is configured.
var DefaultCallFunctions = []string{"add_stake", "add_stake_limit"}

// ChainConfig selects and tunes the node connection.
type ChainConfig struct {
	Network      string
	RPCURL       string
	Strict       bool
	MaxRetries   int
	RetryBackoff time.Duration
}

// FilterConfig holds the raw filter criteria.
type FilterConfig struct {
	NetUID        uint16
	CallFunctions []string
}

// FetchConfig holds configuration for a one-shot retrieval.
type FetchConfig struct {
	Chain    ChainConfig
	Filter   FilterConfig
	Out      string
	Workers  int
	LogLevel string
}

// LoadFetch merges .env, config file, environment variables, and flags into FetchConfig.
func LoadFetch(cfgFile string, flags *pflag.FlagSet) (FetchConfig, error) {
	v, err := load(cfgFile, flags, func(v *viper.Viper) {
		setChainDefaults(v)
		setFilterDefaults(v)
		v.SetDefault("out", "-")
	})
	if err != nil {
		return FetchConfig{}, err
	}

	filter, err := filterConfig(v)
	if err != nil {
		return FetchConfig{}, err
	}
	return FetchConfig{
		Chain:    chainConfig(v),
		Filter:   filter,
		Out:      v.GetString("out"),
		Workers:  v.GetInt("workers"),
		LogLevel: v.GetString("log-level"),
	}, nil
}

func load(cfgFile string, flags *pflag.FlagSet, defaults func(*viper.Viper)) (*viper.Viper, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("workers", 0)
	v.SetDefault("log-level", "info")
	defaults(v)

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return nil, fmt.Errorf("bind flags: %w", err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}
	return v, nil
}

func setChainDefaults(v *viper.Viper) {
	v.SetDefault("network", "finney")
	v.SetDefault("strict", true)
	v.SetDefault("max-retries", 5)
	v.SetDefault("retry-backoff", 500*time.Millisecond)
}

func setFilterDefaults(v *viper.Viper) {
	v.SetDefault("netuid", 0)
	v.SetDefault("call-functions", strings.Join(DefaultCallFunctions, ","))
}

func chainConfig(v *viper.Viper) ChainConfig {
	return ChainConfig{
		Network:      v.GetString("network"),
		RPCURL:       v.GetString("rpc"),
		Strict:       v.GetBool("strict"),
		MaxRetries:   v.GetInt("max-retries"),
		RetryBackoff: v.GetDuration("retry-backoff"),
	}
}

func filterConfig(v *viper.Viper) (FilterConfig, error) {
	netuid := v.GetInt64("netuid")
	if netuid < 0 || netuid > math.MaxUint16 {
		return FilterConfig{}, fmt.Errorf("netuid %d out of range", netuid)
	}
	return FilterConfig{
		NetUID:        uint16(netuid),
		CallFunctions: getStringSlice(v, "call-functions"),
	}, nil
}

func getStringSlice(v *viper.Viper, key string) []string {
	if !v.IsSet(key) {
		return nil
	}

	val := v.Get(key)
	switch typed := val.(type) {
	case []string:
		return splitAndClean(strings.Join(typed, ","))
	case string:
		return splitAndClean(typed)
	case []interface{}:
		items := make([]string, 0, len(typed))
		for _, item := range typed {
			items = append(items, fmt.Sprintf("%v", item))
		}
		return cleanStrings(items)
	default:
		return nil
	}
}

func splitAndClean(input string) []string {
	if input == "" {
		return nil
	}
	parts := strings.Split(input, ",")
	return cleanStrings(parts)
}

func cleanStrings(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		out = append(out, item)
	}
	return out
}
