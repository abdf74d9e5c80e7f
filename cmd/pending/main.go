package main

import (
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	root := &cobra.Command{
		Use:          "pending",
		Short:        "Decode and filter pending extrinsics of a Substrate node",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")

	fetchCmd := &cobra.Command{
		Use:   "fetch",
		Short: "Retrieve matching pending extrinsics once",
		RunE:  runFetch,
	}
	addChainFlags(fetchCmd)
	addFilterFlags(fetchCmd)
	fetchCmd.Flags().String("out", "-", "output JSONL path, - for stdout")
	fetchCmd.Flags().Int("workers", 0, "concurrent decoders, 0 means GOMAXPROCS")
	fetchCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")
	root.AddCommand(fetchCmd)

	watchCmd := &cobra.Command{
		Use:   "watch",
		Short: "Poll the pending pool and publish new matches",
		RunE:  runWatch,
	}
	addChainFlags(watchCmd)
	addFilterFlags(watchCmd)
	watchCmd.Flags().Duration("interval", 2*time.Second, "poll interval")
	watchCmd.Flags().Int("seen-size", 65536, "extrinsic hashes remembered for dedup")
	watchCmd.Flags().String("state", "", "checkpoint file keeping the dedup state across restarts")
	watchCmd.Flags().Int("workers", 0, "concurrent decoders, 0 means GOMAXPROCS")
	watchCmd.Flags().String("out", "", "append matches to this JSONL path, - for stdout")
	watchCmd.Flags().String("pg-dsn", "", "Postgres DSN")
	watchCmd.Flags().Bool("ensure-schema", true, "create the pending_extrinsics table if missing")
	watchCmd.Flags().String("kafka-brokers", "", "Kafka bootstrap servers")
	watchCmd.Flags().String("kafka-topic", "pending-extrinsics", "Kafka topic")
	watchCmd.Flags().String("ws-addr", "", "WebSocket broadcast listen address, e.g. :8090")
	watchCmd.Flags().String("metrics-addr", "", "Prometheus metrics listen address, e.g. :9100")
	watchCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")
	root.AddCommand(watchCmd)

	decodeCmd := &cobra.Command{
		Use:   "decode",
		Short: "Decode hex extrinsics offline against a saved metadata blob",
		RunE:  runDecode,
	}
	decodeCmd.Flags().String("metadata", "", "file holding hex or binary state_getMetadata output")
	decodeCmd.Flags().String("in", "", "input file with one hex extrinsic per line")
	decodeCmd.Flags().String("out", "./data/decoded.jsonl", "output decoded extrinsics JSONL")
	decodeCmd.Flags().String("errors", "./data/decode_errors.jsonl", "decode errors JSONL")
	decodeCmd.Flags().Bool("strict", true, "reject trailing bytes")
	decodeCmd.Flags().Int("workers", 0, "concurrent decoders, 0 means GOMAXPROCS")
	addFilterFlags(decodeCmd)
	decodeCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")
	root.AddCommand(decodeCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func addChainFlags(cmd *cobra.Command) {
	cmd.Flags().String("rpc", "", "node RPC URL (ws or http), overrides --network")
	cmd.Flags().String("network", "finney", "named network (finney, test, archive, local)")
	cmd.Flags().Bool("strict", true, "reject trailing bytes after an extrinsic")
	cmd.Flags().Int("max-retries", 5, "maximum retry attempts per RPC call")
	cmd.Flags().Duration("retry-backoff", 500*time.Millisecond, "initial retry backoff")
}

func addFilterFlags(cmd *cobra.Command) {
	cmd.Flags().Int("netuid", 0, "subnet to keep, 0 means all subnets")
	cmd.Flags().StringSlice("call-functions", []string{"add_stake", "add_stake_limit"}, "call functions to keep (comma-separated)")
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}
