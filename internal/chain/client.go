package chain

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/sethvargo/go-retry"
	"go.uber.org/zap"

	"pendingScope/internal/metadata"
)

// Networks maps well-known network names to node endpoints.
var Networks = map[string]string{
	"finney":  "wss://entrypoint-finney.opentensor.ai:443",
	"test":    "wss://test.finney.opentensor.ai:443",
	"archive": "wss://archive.chain.opentensor.ai:443",
	"local":   "ws://127.0.0.1:9944",
}

// ResolveEndpoint returns rpcURL when set, otherwise the endpoint of network.
func ResolveEndpoint(network, rpcURL string) (string, error) {
	if rpcURL != "" {
		return rpcURL, nil
	}
	if network == "" {
		return "", fmt.Errorf("rpc url or network is required")
	}
	url, ok := Networks[strings.ToLower(network)]
	if !ok {
		return "", fmt.Errorf("unknown network %q", network)
	}
	return url, nil
}

// RuntimeVersion is the subset of state_getRuntimeVersion the client tracks.
type RuntimeVersion struct {
	SpecName           string `json:"specName"`
	SpecVersion        uint32 `json:"specVersion"`
	TransactionVersion uint32 `json:"transactionVersion"`
}

// Config holds connection settings.
type Config struct {
	URL          string
	StrictDecode bool
	MaxRetries   int
	RetryBackoff time.Duration
}

type caller interface {
	CallContext(ctx context.Context, result interface{}, method string, args ...interface{}) error
	Close()
}

// Client talks JSON-RPC to a Substrate node and keeps the runtime metadata
// current.
type Client struct {
	rpc    caller
	cfg    Config
	logger *zap.Logger

	mu        sync.RWMutex
	md        *metadata.Metadata
	runtime   RuntimeVersion
	chainName string
}

// NewClient dials the node and loads chain name, runtime version and metadata.
func NewClient(ctx context.Context, cfg Config, logger *zap.Logger) (*Client, error) {
	rpcClient, err := rpc.DialContext(ctx, cfg.URL)
	if err != nil {
		return nil, err
	}
	c := newClient(rpcClient, cfg, logger)
	if err := c.Init(ctx); err != nil {
		rpcClient.Close()
		return nil, err
	}
	return c, nil
}

func newClient(rpcClient caller, cfg Config, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.RetryBackoff <= 0 {
		cfg.RetryBackoff = 100 * time.Millisecond
	}
	return &Client{rpc: rpcClient, cfg: cfg, logger: logger}
}

// Close closes the underlying RPC client.
func (c *Client) Close() {
	if c.rpc != nil {
		c.rpc.Close()
	}
}

// Init loads the chain name and the current metadata.
func (c *Client) Init(ctx context.Context) error {
	var name string
	if err := c.call(ctx, &name, "system_chain"); err != nil {
		return fmt.Errorf("system_chain: %w", err)
	}
	c.mu.Lock()
	c.chainName = name
	c.mu.Unlock()
	return c.RefreshMetadata(ctx)
}

// PendingExtrinsics returns the raw, length-prefixed entries of the transaction pool.
func (c *Client) PendingExtrinsics(ctx context.Context) ([][]byte, error) {
	var result []hexutil.Bytes
	if err := c.call(ctx, &result, "author_pendingExtrinsics"); err != nil {
		return nil, fmt.Errorf("author_pendingExtrinsics: %w", err)
	}
	out := make([][]byte, len(result))
	for i, b := range result {
		out[i] = b
	}
	return out, nil
}

// RuntimeVersion queries the node's current runtime version.
func (c *Client) RuntimeVersion(ctx context.Context) (RuntimeVersion, error) {
	var rv RuntimeVersion
	if err := c.call(ctx, &rv, "state_getRuntimeVersion"); err != nil {
		return RuntimeVersion{}, fmt.Errorf("state_getRuntimeVersion: %w", err)
	}
	return rv, nil
}

// FetchMetadata returns the raw metadata blob.
func (c *Client) FetchMetadata(ctx context.Context) ([]byte, error) {
	var raw hexutil.Bytes
	if err := c.call(ctx, &raw, "state_getMetadata"); err != nil {
		return nil, fmt.Errorf("state_getMetadata: %w", err)
	}
	return raw, nil
}

// RefreshMetadata re-fetches runtime version and metadata unconditionally.
func (c *Client) RefreshMetadata(ctx context.Context) error {
	rv, err := c.RuntimeVersion(ctx)
	if err != nil {
		return err
	}
	return c.loadMetadata(ctx, rv)
}

// SyncRuntime refreshes metadata only when the runtime spec version changed.
// It reports whether a refresh happened.
func (c *Client) SyncRuntime(ctx context.Context) (bool, error) {
	rv, err := c.RuntimeVersion(ctx)
	if err != nil {
		return false, err
	}
	c.mu.RLock()
	current := c.runtime.SpecVersion
	loaded := c.md != nil
	c.mu.RUnlock()
	if loaded && rv.SpecVersion == current {
		return false, nil
	}
	if err := c.loadMetadata(ctx, rv); err != nil {
		return false, err
	}
	return true, nil
}

func (c *Client) loadMetadata(ctx context.Context, rv RuntimeVersion) error {
	raw, err := c.FetchMetadata(ctx)
	if err != nil {
		return err
	}
	md, err := metadata.Parse(raw)
	if err != nil {
		return fmt.Errorf("parse metadata: %w", err)
	}

	c.mu.Lock()
	c.md = md
	c.runtime = rv
	c.mu.Unlock()

	c.logger.Info("runtime metadata loaded",
		zap.String("spec_name", rv.SpecName),
		zap.Uint32("spec_version", rv.SpecVersion),
		zap.Uint8("metadata_version", md.Version()),
		zap.Int("pallets", len(md.Pallets())),
	)
	return nil
}

// Metadata returns the metadata of the current runtime, or nil before Init.
func (c *Client) Metadata() *metadata.Metadata {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.md
}

// StrictDecode reports whether callers should decode in strict mode.
func (c *Client) StrictDecode() bool {
	return c.cfg.StrictDecode
}

// SpecVersion returns the runtime spec version the metadata belongs to.
func (c *Client) SpecVersion() uint32 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.runtime.SpecVersion
}

// ChainName returns the system_chain name.
func (c *Client) ChainName() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.chainName
}

// call retries transport failures with exponential backoff. Errors returned
// by the node itself are final.
func (c *Client) call(ctx context.Context, result interface{}, method string, args ...interface{}) error {
	backoff := retry.WithMaxRetries(uint64(c.cfg.MaxRetries), retry.NewExponential(c.cfg.RetryBackoff))
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		err := c.rpc.CallContext(ctx, result, method, args...)
		if err == nil {
			return nil
		}
		var rpcErr rpc.Error
		if errors.As(err, &rpcErr) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		c.logger.Warn("rpc call failed", zap.String("method", method), zap.Error(err))
		return retry.RetryableError(err)
	})
}
