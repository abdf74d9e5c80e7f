package pending

import (
	"testing"

	"github.com/stretchr/testify/require"

	"pendingScope/internal/model"
)

func call(function string, netuid model.Value) model.DecodedExtrinsic {
	c := model.DecodedCall{Module: "SubtensorModule", Function: function}
	if netuid != nil {
		c.Arguments = append(c.Arguments, model.CallArgument{Name: "netuid", Value: netuid})
	}
	return model.DecodedExtrinsic{Call: c}
}

func TestFilterIsIdempotent(t *testing.T) {
	input := []model.DecodedExtrinsic{
		call("add_stake", model.Composite{{Value: model.NewUint(16, 8)}}),
		call("add_stake", model.NewUint(16, 3)),
		call("remove_stake", model.NewUint(16, 8)),
		call("add_stake_limit", model.NewUint(16, 8)),
		call("register_network", nil),
		call("add_stake", model.Str("8")),
	}

	for _, c := range []model.FilterCriteria{
		{SubnetID: 8, CallFunctions: map[string]struct{}{"add_stake": {}}},
		{SubnetID: 0, CallFunctions: map[string]struct{}{"add_stake": {}, "register_network": {}}},
		{SubnetID: 3, CallFunctions: map[string]struct{}{"add_stake": {}, "remove_stake": {}}},
	} {
		once := Filter(input, c)
		require.Equal(t, once, Filter(once, c))
	}
}

func TestMatch(t *testing.T) {
	c := model.FilterCriteria{SubnetID: 8, CallFunctions: map[string]struct{}{"add_stake": {}}}

	require.True(t, Match(call("add_stake", model.Composite{{Value: model.NewUint(16, 8)}}).Call, c))
	require.False(t, Match(call("add_stake", model.NewUint(16, 9)).Call, c))
	require.False(t, Match(call("add_stake", nil).Call, c))
	require.False(t, Match(call("add_stake", model.Str("8")).Call, c))
	require.False(t, Match(call("add_stake_limit", model.NewUint(16, 8)).Call, c))

	c.SubnetID = 0
	require.True(t, Match(call("add_stake", nil).Call, c))
}

func TestFilterEmptyInput(t *testing.T) {
	c := model.FilterCriteria{CallFunctions: map[string]struct{}{"add_stake": {}}}
	require.Empty(t, Filter(nil, c))
}
