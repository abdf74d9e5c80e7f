package pending

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"pendingScope/internal/extrinsic"
	"pendingScope/internal/metadata"
	"pendingScope/internal/metadata/metadatatest"
	"pendingScope/internal/model"
)

type fakeClient struct {
	raw    [][]byte
	err    error
	md     *metadata.Metadata
	strict bool
	calls  int
}

func (f *fakeClient) PendingExtrinsics(context.Context) ([][]byte, error) {
	f.calls++
	return f.raw, f.err
}

func (f *fakeClient) Metadata() *metadata.Metadata { return f.md }
func (f *fakeClient) StrictDecode() bool           { return f.strict }

var (
	hotkey  = metadatatest.Alice
	stakeA  = metadatatest.Unsigned(metadatatest.AddStakeCall(hotkey, 3, 100))
	stakeB  = metadatatest.Unsigned(metadatatest.AddStakeCall(hotkey, 8, 200))
	limitC  = metadatatest.Unsigned(metadatatest.AddStakeLimitCall(hotkey, 8, 300, 1, false))
	unstake = metadatatest.Unsigned(metadatatest.RemoveStakeCall(hotkey, 8, 50))
	weights = metadatatest.Unsigned(metadatatest.SetWeightsCall(8, []uint16{1}, []uint16{1}, 0))
	regNet  = metadatatest.Unsigned(metadatatest.RegisterNetworkCall(hotkey))
)

func criteria(t *testing.T, netuid uint16, functions ...string) model.FilterCriteria {
	t.Helper()
	c, err := model.NewFilterCriteria(netuid, functions)
	require.NoError(t, err)
	return c
}

func amounts(t *testing.T, exts []model.DecodedExtrinsic, arg string) []uint64 {
	t.Helper()
	out := make([]uint64, 0, len(exts))
	for _, ext := range exts {
		a, ok := ext.Call.Arg(arg)
		require.True(t, ok)
		v, ok := model.AsUint64(a.Value)
		require.True(t, ok)
		out = append(out, v)
	}
	return out
}

func TestRetrieveWildcardSubnet(t *testing.T) {
	client := &fakeClient{raw: [][]byte{stakeA, stakeB}, md: metadatatest.Subtensor()}
	p := NewPipeline(Config{Workers: 2}, nil)

	got, err := p.Retrieve(context.Background(), client, criteria(t, 0, "add_stake"), extrinsic.Strict)
	require.NoError(t, err)
	require.Equal(t, []uint64{100, 200}, amounts(t, got, "amount_staked"))
	require.Equal(t, 1, client.calls)
}

func TestRetrieveSpecificSubnet(t *testing.T) {
	client := &fakeClient{raw: [][]byte{stakeA, stakeB}, md: metadatatest.Subtensor()}
	p := NewPipeline(Config{}, nil)

	got, err := p.Retrieve(context.Background(), client, criteria(t, 8, "add_stake"), extrinsic.Strict)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, []uint64{200}, amounts(t, got, "amount_staked"))
}

func TestRetrieveDropsMalformedEntry(t *testing.T) {
	truncated := stakeB[:len(stakeB)-3]
	client := &fakeClient{raw: [][]byte{truncated, stakeB}, md: metadatatest.Subtensor()}
	p := NewPipeline(Config{}, nil)

	for _, netuid := range []uint16{8, 0} {
		got, err := p.Retrieve(context.Background(), client, criteria(t, netuid, "add_stake"), extrinsic.Strict)
		require.NoError(t, err)
		require.Len(t, got, 1, "netuid %d", netuid)
		require.Equal(t, []uint64{200}, amounts(t, got, "amount_staked"))
	}
}

func TestRetrieveMatchesFunctionNameExactly(t *testing.T) {
	client := &fakeClient{raw: [][]byte{limitC}, md: metadatatest.Subtensor()}
	p := NewPipeline(Config{}, nil)

	got, err := p.Retrieve(context.Background(), client, criteria(t, 8, "add_stake"), extrinsic.Strict)
	require.NoError(t, err)
	require.Empty(t, got)

	got, err = p.Retrieve(context.Background(), client, criteria(t, 8, "add_stake_limit"), extrinsic.Strict)
	require.NoError(t, err)
	require.Len(t, got, 1)
}

func TestRetrievePreservesPoolOrder(t *testing.T) {
	a := metadatatest.Unsigned(metadatatest.AddStakeCall(hotkey, 8, 1))
	b := metadatatest.Unsigned(metadatatest.AddStakeCall(hotkey, 9, 2))
	c := metadatatest.Unsigned(metadatatest.AddStakeCall(hotkey, 8, 3))

	var raw [][]byte
	for i := 0; i < 20; i++ {
		raw = append(raw, a, b, c)
	}
	client := &fakeClient{raw: raw, md: metadatatest.Subtensor()}
	p := NewPipeline(Config{Workers: 8}, nil)

	got, err := p.Retrieve(context.Background(), client, criteria(t, 8, "add_stake"), extrinsic.Strict)
	require.NoError(t, err)
	want := make([]uint64, 0, 40)
	for i := 0; i < 20; i++ {
		want = append(want, 1, 3)
	}
	require.Equal(t, want, amounts(t, got, "amount_staked"))
}

func TestRetrieveNetuidVariants(t *testing.T) {
	client := &fakeClient{raw: [][]byte{unstake, weights, regNet}, md: metadatatest.Subtensor()}
	p := NewPipeline(Config{}, nil)

	got, err := p.Retrieve(context.Background(), client,
		criteria(t, 8, "remove_stake", "set_weights", "register_network"), extrinsic.Strict)
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, "remove_stake", got[0].Call.Function)
	require.Equal(t, "set_weights", got[1].Call.Function)

	got, err = p.Retrieve(context.Background(), client, criteria(t, 0, "register_network"), extrinsic.Strict)
	require.NoError(t, err)
	require.Len(t, got, 1)
}

func TestRetrieveConnectionError(t *testing.T) {
	cause := errors.New("dial tcp: connection refused")
	client := &fakeClient{err: cause, md: metadatatest.Subtensor()}
	p := NewPipeline(Config{}, nil)

	_, err := p.Retrieve(context.Background(), client, criteria(t, 0, "add_stake"), extrinsic.Strict)
	var connErr *ConnectionError
	require.ErrorAs(t, err, &connErr)
	require.ErrorIs(t, err, cause)
}

func TestRetrieveRejectsEmptyCriteria(t *testing.T) {
	client := &fakeClient{raw: [][]byte{stakeA}, md: metadatatest.Subtensor()}
	p := NewPipeline(Config{}, nil)

	_, err := p.Retrieve(context.Background(), client, model.FilterCriteria{}, extrinsic.Strict)
	require.ErrorIs(t, err, model.ErrInvalidCriteria)
	require.Equal(t, 0, client.calls)
}

func TestRetrieveWithoutMetadataDropsEverything(t *testing.T) {
	client := &fakeClient{raw: [][]byte{stakeA}}
	p := NewPipeline(Config{}, nil)

	got, err := p.Retrieve(context.Background(), client, criteria(t, 0, "add_stake"), extrinsic.Strict)
	require.NoError(t, err)
	require.Empty(t, got)
}

func TestRetrieveModeControlsTrailingBytes(t *testing.T) {
	padded := append(append([]byte{}, stakeB...), 0x00)
	client := &fakeClient{raw: [][]byte{padded}, md: metadatatest.Subtensor()}
	p := NewPipeline(Config{}, nil)
	c := criteria(t, 8, "add_stake")

	got, err := p.Retrieve(context.Background(), client, c, extrinsic.Strict)
	require.NoError(t, err)
	require.Empty(t, got)

	got, err = p.Retrieve(context.Background(), client, c, extrinsic.Lenient)
	require.NoError(t, err)
	require.Len(t, got, 1)
}

func TestDecodeBatchIsolatesPanics(t *testing.T) {
	p := NewPipeline(Config{Workers: 4}, nil)
	p.decode = func(md *metadata.Metadata, raw []byte, mode extrinsic.Mode) (*model.DecodedExtrinsic, error) {
		if len(raw) > 0 && raw[0] == 0xff {
			panic("boom")
		}
		return extrinsic.Decode(md, raw, mode)
	}

	batch, err := p.DecodeBatch(context.Background(), metadatatest.Subtensor(), [][]byte{stakeA, {0xff}, stakeB}, extrinsic.Strict)
	require.NoError(t, err)
	require.Len(t, batch.Decoded, 2)
	require.Len(t, batch.Failures, 1)
	require.Equal(t, 1, batch.Failures[0].Index)
	require.Equal(t, "panic", batch.Failures[0].Kind)
	require.Equal(t, "0xff", batch.Failures[0].Raw)
}

func TestDecodeBatchReportsFailureKind(t *testing.T) {
	p := NewPipeline(Config{}, nil)
	batch, err := p.DecodeBatch(context.Background(), metadatatest.Subtensor(),
		[][]byte{metadatatest.Unsigned([]byte{99, 0})}, extrinsic.Strict)
	require.NoError(t, err)
	require.Empty(t, batch.Decoded)
	require.Len(t, batch.Failures, 1)
	require.Equal(t, "unknown_type", batch.Failures[0].Kind)
}

func TestDecodeBatchHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p := NewPipeline(Config{Workers: 1}, nil)

	_, err := p.DecodeBatch(ctx, metadatatest.Subtensor(), [][]byte{stakeA, stakeB}, extrinsic.Strict)
	require.ErrorIs(t, err, context.Canceled)
}
