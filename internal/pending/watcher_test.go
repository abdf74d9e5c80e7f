package pending

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"pendingScope/internal/metadata/metadatatest"
	"pendingScope/internal/model"
	"pendingScope/internal/storage"
)

type fakeRuntimeClient struct {
	fakeClient
	spec     uint32
	syncErr  error
	upgrades int
}

func (f *fakeRuntimeClient) SyncRuntime(context.Context) (bool, error) {
	if f.syncErr != nil {
		return false, f.syncErr
	}
	if f.upgrades > 0 {
		f.upgrades--
		f.spec++
		return true, nil
	}
	return false, nil
}

func (f *fakeRuntimeClient) SpecVersion() uint32 { return f.spec }
func (f *fakeRuntimeClient) ChainName() string   { return "Bittensor" }

func newRuntimeClient(raw ...[]byte) *fakeRuntimeClient {
	c := &fakeRuntimeClient{spec: 200}
	c.raw = raw
	c.md = metadatatest.Subtensor()
	return c
}

func TestWatcherTickDeduplicates(t *testing.T) {
	client := newRuntimeClient(stakeA, stakeB)
	client.upgrades = 1
	sink := &storage.Memory{}

	w, err := NewWatcher(WatchConfig{Interval: time.Second, Criteria: criteria(t, 0, "add_stake")}, nil, client, sink, nil)
	require.NoError(t, err)

	n, err := w.Tick(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, n)

	client.raw = [][]byte{stakeB, limitC, unstake}
	n, err = w.Tick(context.Background())
	require.NoError(t, err)
	require.Equal(t, 0, n)

	records := sink.Records()
	require.Len(t, records, 2)
	require.Equal(t, uint32(201), records[0].SpecVersion)
	require.Equal(t, "Bittensor", records[0].Chain)
	require.NotNil(t, records[1].NetUID)
	require.Equal(t, uint16(8), *records[1].NetUID)

	hotkeyArg, ok := records[0].Extrinsic.Call.Arg("hotkey")
	require.True(t, ok)
	addr, ok := model.AccountAddress(hotkeyArg.Value)
	require.True(t, ok)
	require.Equal(t, metadatatest.AliceAddress, addr)
}

func TestWatcherRetriesAfterSinkFailure(t *testing.T) {
	client := newRuntimeClient(stakeB)
	sink := &storage.Memory{Err: errors.New("disk full")}

	w, err := NewWatcher(WatchConfig{Interval: time.Second, Criteria: criteria(t, 8, "add_stake")}, nil, client, sink, nil)
	require.NoError(t, err)

	_, err = w.Tick(context.Background())
	require.Error(t, err)

	sink.Err = nil
	n, err := w.Tick(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, n)
}

type flakySink struct {
	storage.Memory
	failures int
}

func (f *flakySink) PutPending(ctx context.Context, records []model.PendingRecord) error {
	if f.failures > 0 {
		f.failures--
		return errors.New("broker down")
	}
	return f.Memory.PutPending(ctx, records)
}

func TestWatcherRunRedeliversAfterSinkFailure(t *testing.T) {
	client := newRuntimeClient(stakeB)
	sink := &flakySink{failures: 2}

	w, err := NewWatcher(WatchConfig{Interval: 5 * time.Millisecond, Criteria: criteria(t, 8, "add_stake")}, nil, client, sink, nil)
	require.NoError(t, err)

	_, err = w.Tick(context.Background())
	var sinkErr *SinkError
	require.ErrorAs(t, err, &sinkErr)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	require.ErrorIs(t, w.Run(ctx), context.DeadlineExceeded)

	records := sink.Records()
	require.Len(t, records, 1)
	require.Equal(t, uint16(8), *records[0].NetUID)
}

func TestWatcherSyncFailureIsConnectionError(t *testing.T) {
	client := newRuntimeClient(stakeB)
	client.syncErr = errors.New("socket closed")

	w, err := NewWatcher(WatchConfig{Interval: time.Second, Criteria: criteria(t, 8, "add_stake")}, nil, client, &storage.Memory{}, nil)
	require.NoError(t, err)

	_, err = w.Tick(context.Background())
	var connErr *ConnectionError
	require.ErrorAs(t, err, &connErr)
}

func TestWatcherRunSurvivesConnectionErrors(t *testing.T) {
	client := newRuntimeClient(stakeB)
	client.err = errors.New("connection refused")

	w, err := NewWatcher(WatchConfig{Interval: 5 * time.Millisecond, Criteria: criteria(t, 8, "add_stake")}, nil, client, &storage.Memory{}, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	err = w.Run(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.Greater(t, client.calls, 1)
}

func TestWatcherRunValidates(t *testing.T) {
	client := newRuntimeClient()
	ctx := context.Background()

	w, err := NewWatcher(WatchConfig{Criteria: criteria(t, 0, "add_stake")}, nil, client, &storage.Memory{}, nil)
	require.NoError(t, err)
	require.Error(t, w.Run(ctx))

	w, err = NewWatcher(WatchConfig{Interval: time.Second}, nil, client, &storage.Memory{}, nil)
	require.NoError(t, err)
	require.ErrorIs(t, w.Run(ctx), model.ErrInvalidCriteria)

	w, err = NewWatcher(WatchConfig{Interval: time.Second, Criteria: criteria(t, 0, "add_stake")}, nil, client, nil, nil)
	require.NoError(t, err)
	require.Error(t, w.Run(ctx))
}

func TestWatcherCheckpointSurvivesRestart(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "watch.json")
	store := NewCheckpointStore(path)
	c := criteria(t, 0, "add_stake")

	client := newRuntimeClient(stakeA, stakeB)
	sink := &storage.Memory{}
	w, err := NewWatcher(WatchConfig{Interval: time.Second, Criteria: c, Checkpoint: store}, nil, client, sink, nil)
	require.NoError(t, err)
	n, err := w.Tick(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, n)

	cp, ok, err := store.Load()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "Bittensor", cp.Chain)
	require.Len(t, cp.Seen, 2)

	restarted, err := NewWatcher(WatchConfig{Interval: time.Second, Criteria: c, Checkpoint: store}, nil, client, sink, nil)
	require.NoError(t, err)
	require.NoError(t, restarted.restore())
	n, err = restarted.Tick(context.Background())
	require.NoError(t, err)
	require.Equal(t, 0, n)
	require.Len(t, sink.Records(), 2)
}

func TestCheckpointStoreDisabled(t *testing.T) {
	store := NewCheckpointStore("")
	require.NoError(t, store.Save(Checkpoint{Seen: []string{"0x01"}}))
	_, ok, err := store.Load()
	require.NoError(t, err)
	require.False(t, ok)
}
