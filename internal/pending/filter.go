package pending

import "pendingScope/internal/model"

// Filter keeps the extrinsics whose call matches criteria, preserving order.
// It is idempotent: Filter(Filter(x, c), c) equals Filter(x, c).
func Filter(decoded []model.DecodedExtrinsic, criteria model.FilterCriteria) []model.DecodedExtrinsic {
	out := make([]model.DecodedExtrinsic, 0, len(decoded))
	for _, ext := range decoded {
		if Match(ext.Call, criteria) {
			out = append(out, ext)
		}
	}
	return out
}

// Match reports whether call is in the allow-list and, unless the subnet is
// the wildcard, carries a netuid argument equal to it. Calls without a netuid
// never match a specific subnet.
func Match(call model.DecodedCall, criteria model.FilterCriteria) bool {
	if !criteria.AllowsFunction(call.Function) {
		return false
	}
	if criteria.AnySubnet() {
		return true
	}
	netuid, ok := call.NetUID()
	return ok && netuid == criteria.SubnetID
}
