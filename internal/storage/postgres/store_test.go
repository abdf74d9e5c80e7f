package postgres

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"pendingScope/internal/model"
)

func TestPendingArgs(t *testing.T) {
	ext := model.DecodedExtrinsic{
		Hash: "0xabc",
		Call: model.DecodedCall{
			Module:   "SubtensorModule",
			Function: "add_stake",
			Arguments: []model.CallArgument{
				{Name: "netuid", Type: "NetUid", Value: model.Composite{{Value: model.NewUint(16, 8)}}},
			},
		},
	}
	observed := time.Date(2024, 3, 2, 1, 0, 0, 500, time.UTC)
	rec := model.NewPendingRecord("Bittensor", 219, ext, observed)

	args, err := pendingArgs(rec)
	require.NoError(t, err)
	require.Len(t, args, 9)
	require.Equal(t, "Bittensor", args[0])
	require.Equal(t, "0xabc", args[1])
	require.Equal(t, int64(219), args[2])
	require.Equal(t, "add_stake", args[4])

	netuid, ok := args[5].(*int32)
	require.True(t, ok)
	require.Equal(t, int32(8), *netuid)
	require.Nil(t, args[6].(*string))

	var payload map[string]interface{}
	require.NoError(t, json.Unmarshal(args[7].([]byte), &payload))
	require.Equal(t, "0xabc", payload["extrinsic_hash"])
	require.True(t, observed.Equal(args[8].(time.Time)))
}

func TestPendingArgsRejectsBadTimestamp(t *testing.T) {
	_, err := pendingArgs(model.PendingRecord{ObservedAt: "yesterday"})
	require.Error(t, err)
}

func TestNewStoreRequiresDSN(t *testing.T) {
	_, err := NewStore(context.Background(), "")
	require.Error(t, err)
}
