package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"pendingScope/internal/chain"
	"pendingScope/internal/config"
	"pendingScope/internal/extrinsic"
	"pendingScope/internal/model"
	"pendingScope/internal/pending"
	"pendingScope/internal/storage"
)

func runFetch(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadFetch(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	criteria, err := model.NewFilterCriteria(cfg.Filter.NetUID, cfg.Filter.CallFunctions)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, err := connect(ctx, cfg.Chain, logger)
	if err != nil {
		return err
	}
	defer client.Close()

	out, err := storage.NewJSONLWriter(cfg.Out, false)
	if err != nil {
		return err
	}
	defer out.Close()

	pipeline := pending.NewPipeline(pending.Config{Workers: cfg.Workers}, logger)
	matches, err := pipeline.Retrieve(ctx, client, criteria, extrinsic.ModeFor(client.StrictDecode()))
	if err != nil {
		return err
	}

	observedAt := time.Now()
	for _, ext := range matches {
		rec := model.NewPendingRecord(client.ChainName(), client.SpecVersion(), ext, observedAt)
		if err := out.Write(rec); err != nil {
			return err
		}
	}

	logger.Info("found pending extrinsics",
		zap.Int("count", len(matches)),
		zap.Uint16("netuid", criteria.SubnetID),
		zap.Strings("call_functions", criteria.Functions()),
	)
	return nil
}

func connect(ctx context.Context, cfg config.ChainConfig, logger *zap.Logger) (*chain.Client, error) {
	url, err := chain.ResolveEndpoint(cfg.Network, cfg.RPCURL)
	if err != nil {
		return nil, err
	}

	logger.Info("connecting", zap.String("network", cfg.Network), zap.String("rpc", url))
	client, err := chain.NewClient(ctx, chain.Config{
		URL:          url,
		StrictDecode: cfg.Strict,
		MaxRetries:   cfg.MaxRetries,
		RetryBackoff: cfg.RetryBackoff,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("connect rpc: %w", err)
	}
	return client, nil
}
