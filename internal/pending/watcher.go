package pending

import (
	"context"
	"errors"
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"

	"pendingScope/internal/extrinsic"
	"pendingScope/internal/model"
	"pendingScope/internal/storage"
)

const defaultSeenSize = 65536

// RuntimeClient is a ChainClient that can follow runtime upgrades.
type RuntimeClient interface {
	ChainClient
	SyncRuntime(ctx context.Context) (bool, error)
	SpecVersion() uint32
	ChainName() string
}

// WatchConfig holds settings for the polling loop.
type WatchConfig struct {
	Interval time.Duration
	Criteria model.FilterCriteria
	// SeenSize bounds the number of extrinsic hashes remembered for dedup.
	SeenSize int
	// Checkpoint, when set, carries the seen-set across restarts.
	Checkpoint *CheckpointStore
}

// Watcher polls the pending pool and forwards newly seen matches to a sink.
type Watcher struct {
	cfg      WatchConfig
	pipeline *Pipeline
	client   RuntimeClient
	sink     storage.Sink
	logger   *zap.Logger
	seen     *lru.Cache[string, struct{}]
	now      func() time.Time
}

// NewWatcher builds a Watcher with its dependencies.
func NewWatcher(cfg WatchConfig, pipeline *Pipeline, client RuntimeClient, sink storage.Sink, logger *zap.Logger) (*Watcher, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if pipeline == nil {
		pipeline = NewPipeline(Config{}, logger)
	}
	if cfg.SeenSize <= 0 {
		cfg.SeenSize = defaultSeenSize
	}
	seen, err := lru.New[string, struct{}](cfg.SeenSize)
	if err != nil {
		return nil, fmt.Errorf("create seen cache: %w", err)
	}
	return &Watcher{
		cfg:      cfg,
		pipeline: pipeline,
		client:   client,
		sink:     sink,
		logger:   logger,
		seen:     seen,
		now:      time.Now,
	}, nil
}

// SinkError reports a batch the sink refused. Its hashes stay unseen so the
// next tick delivers them again.
type SinkError struct {
	Err error
}

func (e *SinkError) Error() string {
	return fmt.Sprintf("store pending extrinsics: %v", e.Err)
}

func (e *SinkError) Unwrap() error {
	return e.Err
}

// Run polls until ctx is cancelled. Connection and sink failures are logged
// and the next tick retries; any other failure stops the loop.
func (w *Watcher) Run(ctx context.Context) error {
	if w.client == nil {
		return fmt.Errorf("chain client is nil")
	}
	if w.sink == nil {
		return fmt.Errorf("sink is nil")
	}
	if w.cfg.Interval <= 0 {
		return fmt.Errorf("interval must be greater than zero")
	}
	if err := w.cfg.Criteria.Validate(); err != nil {
		return err
	}
	if err := w.restore(); err != nil {
		return err
	}
	defer w.checkpoint()

	ticker := time.NewTicker(w.cfg.Interval)
	defer ticker.Stop()

	for {
		if _, err := w.Tick(ctx); err != nil {
			var (
				connErr *ConnectionError
				sinkErr *SinkError
			)
			switch {
			case errors.As(err, &connErr):
				w.logger.Warn("pending pool unavailable", zap.Error(err))
			case errors.As(err, &sinkErr):
				w.logger.Warn("sink unavailable, retrying next tick", zap.Error(err))
			default:
				return err
			}
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// Tick performs one poll and returns how many new matches were stored.
func (w *Watcher) Tick(ctx context.Context) (int, error) {
	upgraded, err := w.client.SyncRuntime(ctx)
	if err != nil {
		return 0, &ConnectionError{Err: fmt.Errorf("sync runtime: %w", err)}
	}
	specVersion := w.client.SpecVersion()
	if upgraded {
		w.logger.Info("runtime metadata refreshed", zap.Uint32("spec_version", specVersion))
	}

	mode := extrinsic.ModeFor(w.client.StrictDecode())
	matched, err := w.pipeline.Retrieve(ctx, w.client, w.cfg.Criteria, mode)
	if err != nil {
		return 0, err
	}

	observedAt := w.now()
	chainName := w.client.ChainName()
	records := make([]model.PendingRecord, 0, len(matched))
	for _, ext := range matched {
		if w.isDuplicate(ext.Hash) {
			continue
		}
		records = append(records, model.NewPendingRecord(chainName, specVersion, ext, observedAt))
	}
	if len(records) == 0 {
		return 0, nil
	}

	if err := w.sink.PutPending(ctx, records); err != nil {
		for _, rec := range records {
			w.seen.Remove(rec.Extrinsic.Hash)
		}
		return 0, &SinkError{Err: err}
	}

	w.logger.Info("new pending extrinsics",
		zap.Int("matched", len(matched)),
		zap.Int("new", len(records)),
		zap.Uint32("spec_version", specVersion),
	)
	w.checkpoint()
	return len(records), nil
}

// restore seeds the seen-set from the checkpoint. State saved for another
// chain is ignored.
func (w *Watcher) restore() error {
	cp, ok, err := w.cfg.Checkpoint.Load()
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}
	if cp.Chain != "" && cp.Chain != w.client.ChainName() {
		w.logger.Warn("ignoring checkpoint of another chain", zap.String("checkpoint_chain", cp.Chain))
		return nil
	}
	for _, hash := range cp.Seen {
		w.seen.Add(hash, struct{}{})
	}
	w.logger.Info("checkpoint restored", zap.Int("seen", len(cp.Seen)), zap.Uint32("spec_version", cp.SpecVersion))
	return nil
}

// checkpoint saves the seen-set, oldest first. Failures are logged only.
func (w *Watcher) checkpoint() {
	if w.cfg.Checkpoint == nil {
		return
	}
	err := w.cfg.Checkpoint.Save(Checkpoint{
		Chain:       w.client.ChainName(),
		SpecVersion: w.client.SpecVersion(),
		Seen:        w.seen.Keys(),
	})
	if err != nil {
		w.logger.Warn("save checkpoint", zap.Error(err))
	}
}

func (w *Watcher) isDuplicate(hash string) bool {
	found, _ := w.seen.ContainsOrAdd(hash, struct{}{})
	return found
}
