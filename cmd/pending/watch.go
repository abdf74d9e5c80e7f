package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"pendingScope/internal/config"
	"pendingScope/internal/model"
	"pendingScope/internal/pending"
	"pendingScope/internal/storage"
	"pendingScope/internal/storage/kafka"
	"pendingScope/internal/storage/postgres"
	"pendingScope/internal/stream"
	"pendingScope/internal/telemetry"
)

func runWatch(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadWatch(cfgFile, cmd.Flags())
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

	g, gctx := errgroup.WithContext(ctx)

	if cfg.MetricsAddr != "" {
		tel, err := telemetry.Setup(true)
		if err != nil {
			return err
		}
		g.Go(func() error { return tel.Serve(gctx, cfg.MetricsAddr, logger) })
	}

	sink, hub, err := openSinks(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := sink.Close(); err != nil {
			logger.Warn("close sinks", zap.Error(err))
		}
	}()
	if hub != nil {
		logger.Info("websocket server start", zap.String("addr", cfg.WSAddr))
		g.Go(func() error { return hub.Serve(gctx, cfg.WSAddr) })
	}

	client, err := connect(ctx, cfg.Chain, logger)
	if err != nil {
		return err
	}
	defer client.Close()

	pipeline := pending.NewPipeline(pending.Config{Workers: cfg.Workers}, logger)
	watcher, err := pending.NewWatcher(pending.WatchConfig{
		Interval:   cfg.Interval,
		Criteria:   criteria,
		SeenSize:   cfg.SeenSize,
		Checkpoint: pending.NewCheckpointStore(cfg.StatePath),
	}, pipeline, client, sink, logger)
	if err != nil {
		return err
	}

	logger.Info("watch start",
		zap.String("chain", client.ChainName()),
		zap.Uint32("spec_version", client.SpecVersion()),
		zap.Duration("interval", cfg.Interval),
		zap.Uint16("netuid", criteria.SubnetID),
		zap.Strings("call_functions", criteria.Functions()),
		zap.Int("sinks", sink.Len()),
	)

	g.Go(func() error { return watcher.Run(gctx) })

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	logger.Info("watch stopped")
	return nil
}

// openSinks builds the fanout of every configured output. The hub is returned
// separately so its listener can be started by the caller.
func openSinks(ctx context.Context, cfg config.WatchConfig, logger *zap.Logger) (*storage.Fanout, *stream.Hub, error) {
	var sinks []storage.Sink
	closeAll := func() {
		_ = storage.NewFanout(sinks...).Close()
	}

	if cfg.Out != "" {
		jsonl, err := storage.NewJSONLSink(cfg.Out)
		if err != nil {
			return nil, nil, err
		}
		sinks = append(sinks, jsonl)
	}

	if cfg.PGDSN != "" {
		store, err := postgres.NewStore(ctx, cfg.PGDSN)
		if err != nil {
			closeAll()
			return nil, nil, fmt.Errorf("connect postgres: %w", err)
		}
		sinks = append(sinks, store)
		if cfg.EnsureSchema {
			if err := store.EnsureSchema(ctx); err != nil {
				closeAll()
				return nil, nil, fmt.Errorf("ensure schema: %w", err)
			}
		}
	}

	if cfg.KafkaBrokers != "" {
		producer, err := kafka.NewSink(cfg.KafkaBrokers, cfg.KafkaTopic, logger)
		if err != nil {
			closeAll()
			return nil, nil, fmt.Errorf("create kafka producer: %w", err)
		}
		sinks = append(sinks, producer)
	}

	var hub *stream.Hub
	if cfg.WSAddr != "" {
		hub = stream.NewHub(logger)
		sinks = append(sinks, hub)
	}

	// Without any configured output, matches go to stdout.
	if len(sinks) == 0 {
		stdout, err := storage.NewJSONLSink(storage.StdoutPath)
		if err != nil {
			return nil, nil, err
		}
		sinks = append(sinks, stdout)
	}

	return storage.NewFanout(sinks...), hub, nil
}
