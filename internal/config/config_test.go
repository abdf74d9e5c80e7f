package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"
)

func fetchFlags() *pflag.FlagSet {
	fs := pflag.NewFlagSet("fetch", pflag.ContinueOnError)
	fs.String("rpc", "", "")
	fs.String("network", "finney", "")
	fs.Int("netuid", 0, "")
	fs.StringSlice("call-functions", nil, "")
	fs.Bool("strict", true, "")
	fs.String("out", "-", "")
	return fs
}

func TestLoadFetchDefaults(t *testing.T) {
	cfg, err := LoadFetch("", fetchFlags())
	require.NoError(t, err)
	require.Equal(t, "finney", cfg.Chain.Network)
	require.True(t, cfg.Chain.Strict)
	require.Equal(t, 5, cfg.Chain.MaxRetries)
	require.Equal(t, 500*time.Millisecond, cfg.Chain.RetryBackoff)
	require.Equal(t, uint16(0), cfg.Filter.NetUID)
	require.Equal(t, DefaultCallFunctions, cfg.Filter.CallFunctions)
	require.Equal(t, "-", cfg.Out)
	require.Equal(t, "info", cfg.LogLevel)
}

func TestLoadFetchFlagsAndEnv(t *testing.T) {
	t.Setenv("PENDING_RPC", "ws://env-node:9944")
	t.Setenv("PENDING_MAX_RETRIES", "2")

	fs := fetchFlags()
	require.NoError(t, fs.Parse([]string{"--netuid", "8", "--call-functions", "add_stake, remove_stake,", "--strict=false"}))

	cfg, err := LoadFetch("", fs)
	require.NoError(t, err)
	require.Equal(t, "ws://env-node:9944", cfg.Chain.RPCURL)
	require.Equal(t, 2, cfg.Chain.MaxRetries)
	require.False(t, cfg.Chain.Strict)
	require.Equal(t, uint16(8), cfg.Filter.NetUID)
	require.Equal(t, []string{"add_stake", "remove_stake"}, cfg.Filter.CallFunctions)
}

func TestLoadFetchRejectsNetuidOutOfRange(t *testing.T) {
	fs := fetchFlags()
	require.NoError(t, fs.Parse([]string{"--netuid", "70000"}))
	_, err := LoadFetch("", fs)
	require.Error(t, err)
}

func TestLoadWatchConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pending.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
network: local
interval: 500ms
call-functions:
  - set_weights
  - commit_bits
kafka-brokers: localhost:9092
pg-dsn: postgres://localhost/pending
`), 0o644))

	cfg, err := LoadWatch(path, nil)
	require.NoError(t, err)
	require.Equal(t, "local", cfg.Chain.Network)
	require.Equal(t, 500*time.Millisecond, cfg.Interval)
	require.Equal(t, []string{"set_weights", "commit_bits"}, cfg.Filter.CallFunctions)
	require.Equal(t, "localhost:9092", cfg.KafkaBrokers)
	require.Equal(t, "pending-extrinsics", cfg.KafkaTopic)
	require.Equal(t, "postgres://localhost/pending", cfg.PGDSN)
	require.Equal(t, 65536, cfg.SeenSize)
	require.True(t, cfg.EnsureSchema)
}

func TestLoadWatchRejectsZeroInterval(t *testing.T) {
	t.Setenv("PENDING_INTERVAL", "0s")
	_, err := LoadWatch("", nil)
	require.Error(t, err)
}

func TestLoadDecodeDefaults(t *testing.T) {
	t.Setenv("PENDING_METADATA", "./meta.hex")
	cfg, err := LoadDecode("", nil)
	require.NoError(t, err)
	require.Equal(t, "./meta.hex", cfg.Metadata)
	require.Equal(t, "./data/decoded.jsonl", cfg.Out)
	require.Equal(t, "./data/decode_errors.jsonl", cfg.Errors)
	require.True(t, cfg.Strict)
}

func TestLoadMissingConfigFile(t *testing.T) {
	_, err := LoadDecode(filepath.Join(t.TempDir(), "missing.yaml"), nil)
	require.Error(t, err)
}
