package telemetry

import (
	"io"
	"net/http/httptest"
	"testing"

	"github.com/armon/go-metrics"
	"github.com/stretchr/testify/require"
)

func TestSetupRecordsCounters(t *testing.T) {
	tel, err := Setup(false)
	require.NoError(t, err)

	metrics.IncrCounter([]string{"pending", "fetched"}, 3)
	metrics.IncrCounter([]string{"pending", "fetched"}, 2)
	require.Equal(t, float64(5), tel.Counter("pending.fetched"))
	require.Equal(t, float64(0), tel.Counter("pending.matched"))

	srv := httptest.NewServer(tel.Handler())
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Contains(t, string(body), "pendingscope_pending_fetched")
}
