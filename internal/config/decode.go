package config

import (
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// DecodeConfig holds configuration for the offline decode command.
type DecodeConfig struct {
	Metadata string
	In       string
	Out      string
	Errors   string
	Filter   FilterConfig
	Strict   bool
	Workers  int
	LogLevel string
}

// LoadDecode merges .env, config file, environment variables, and flags into DecodeConfig.
func LoadDecode(cfgFile string, flags *pflag.FlagSet) (DecodeConfig, error) {
	v, err := load(cfgFile, flags, func(v *viper.Viper) {
		setFilterDefaults(v)
		v.SetDefault("strict", true)
		v.SetDefault("out", "./data/decoded.jsonl")
		v.SetDefault("errors", "./data/decode_errors.jsonl")
	})
	if err != nil {
		return DecodeConfig{}, err
	}

	filter, err := filterConfig(v)
	if err != nil {
		return DecodeConfig{}, err
	}
	return DecodeConfig{
		Metadata: v.GetString("metadata"),
		In:       v.GetString("in"),
		Out:      v.GetString("out"),
		Errors:   v.GetString("errors"),
		Filter:   filter,
		Strict:   v.GetBool("strict"),
		Workers:  v.GetInt("workers"),
		LogLevel: v.GetString("log-level"),
	}, nil
}
