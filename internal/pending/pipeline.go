// Package pending retrieves the node's transaction pool, decodes every entry
// against the current runtime metadata and keeps the calls a caller asked for.
package pending

import (
	"context"
	"errors"
	"fmt"
	"runtime"

	"github.com/armon/go-metrics"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"pendingScope/internal/extrinsic"
	"pendingScope/internal/metadata"
	"pendingScope/internal/model"
	"pendingScope/internal/scale"
)

// ChainClient is the node connection the pipeline reads from.
type ChainClient interface {
	PendingExtrinsics(ctx context.Context) ([][]byte, error)
	Metadata() *metadata.Metadata
	StrictDecode() bool
}

// ConnectionError reports that the pending pool could not be fetched.
type ConnectionError struct {
	Err error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("fetch pending extrinsics: %v", e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// Config holds pipeline settings.
type Config struct {
	// Workers bounds concurrent decodes. Zero means GOMAXPROCS.
	Workers int
}

// Pipeline decodes and filters pending extrinsics.
type Pipeline struct {
	cfg    Config
	logger *zap.Logger
	decode func(*metadata.Metadata, []byte, extrinsic.Mode) (*model.DecodedExtrinsic, error)
}

// Batch is the outcome of decoding one pool snapshot. Entries keep pool order.
type Batch struct {
	Decoded  []model.DecodedExtrinsic
	Failures []model.DecodeFailure
}

func NewPipeline(cfg Config, logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.GOMAXPROCS(0)
	}
	return &Pipeline{cfg: cfg, logger: logger, decode: extrinsic.Decode}
}

// Retrieve fetches the pending pool once and returns the decoded extrinsics
// matching criteria, in pool order. Entries that fail to decode are dropped.
// A fetch failure is returned as *ConnectionError.
func (p *Pipeline) Retrieve(ctx context.Context, client ChainClient, criteria model.FilterCriteria, mode extrinsic.Mode) ([]model.DecodedExtrinsic, error) {
	if client == nil {
		return nil, fmt.Errorf("chain client is nil")
	}
	if err := criteria.Validate(); err != nil {
		return nil, err
	}

	raw, err := client.PendingExtrinsics(ctx)
	if err != nil {
		return nil, &ConnectionError{Err: err}
	}
	metrics.IncrCounter([]string{"pending", "fetched"}, float32(len(raw)))

	batch, err := p.DecodeBatch(ctx, client.Metadata(), raw, mode)
	if err != nil {
		return nil, err
	}

	matched := Filter(batch.Decoded, criteria)
	metrics.IncrCounter([]string{"pending", "matched"}, float32(len(matched)))
	p.logger.Debug("pending pool filtered",
		zap.Int("fetched", len(raw)),
		zap.Int("decoded", len(batch.Decoded)),
		zap.Int("failed", len(batch.Failures)),
		zap.Int("matched", len(matched)),
	)
	return matched, nil
}

// DecodeBatch decodes raw entries on a bounded worker pool. A failing or
// panicking entry becomes a DecodeFailure and never affects its neighbours.
func (p *Pipeline) DecodeBatch(ctx context.Context, md *metadata.Metadata, raw [][]byte, mode extrinsic.Mode) (Batch, error) {
	type result struct {
		ext     *model.DecodedExtrinsic
		failure *model.DecodeFailure
	}
	results := make([]result, len(raw))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.cfg.Workers)
	for i := range raw {
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			ext, failure := p.decodeOne(md, i, raw[i], mode)
			results[i] = result{ext: ext, failure: failure}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Batch{}, err
	}

	var batch Batch
	for _, r := range results {
		switch {
		case r.ext != nil:
			batch.Decoded = append(batch.Decoded, *r.ext)
		case r.failure != nil:
			batch.Failures = append(batch.Failures, *r.failure)
		}
	}
	metrics.IncrCounter([]string{"pending", "decoded"}, float32(len(batch.Decoded)))
	metrics.IncrCounter([]string{"pending", "decode_failed"}, float32(len(batch.Failures)))
	return batch, nil
}

func (p *Pipeline) decodeOne(md *metadata.Metadata, index int, raw []byte, mode extrinsic.Mode) (ext *model.DecodedExtrinsic, failure *model.DecodeFailure) {
	defer func() {
		if r := recover(); r != nil {
			ext = nil
			failure = newFailure(index, raw, "panic", fmt.Errorf("decoder panic: %v", r))
			p.logger.Debug("decode panicked", zap.Int("index", index), zap.Any("panic", r))
		}
	}()

	decoded, err := p.decode(md, raw, mode)
	if err != nil {
		kind := "unknown"
		var de *scale.DecodeError
		if errors.As(err, &de) {
			kind = de.Kind.String()
		}
		p.logger.Debug("skip undecodable extrinsic", zap.Int("index", index), zap.String("kind", kind), zap.Error(err))
		return nil, newFailure(index, raw, kind, err)
	}
	return decoded, nil
}

func newFailure(index int, raw []byte, kind string, err error) *model.DecodeFailure {
	return &model.DecodeFailure{
		Index:  index,
		Hash:   extrinsic.Hash(raw),
		Length: len(raw),
		Kind:   kind,
		Raw:    hexutil.Encode(raw),
		Error:  err.Error(),
	}
}
