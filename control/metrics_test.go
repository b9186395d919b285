package control

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/momentics/hcibuf/api"
	"github.com/momentics/hcibuf/pool"
)

func busyPool(t *testing.T) *pool.Pool {
	t.Helper()
	p := pool.New()
	require.NoError(t, p.Initialize(1, 2))

	_, err := p.Acquire(api.ClassInboundData, 0)
	require.NoError(t, err)
	_, err = p.Acquire(api.ClassInboundData, 0)
	require.ErrorIs(t, err, api.ErrAllocationExhausted)

	b, err := p.Acquire(api.ClassCommand, 0)
	require.NoError(t, err)
	require.NoError(t, p.Release(b))
	return p
}

func TestPoolCollector(t *testing.T) {
	c := NewPoolCollector(busyPool(t))

	assert.Equal(t, 15, testutil.CollectAndCount(c))

	expected := `
# HELP hcibuf_pool_acquire_total Total number of successful buffer acquisitions
# TYPE hcibuf_pool_acquire_total counter
hcibuf_pool_acquire_total 2
# HELP hcibuf_pool_exhausted_total Acquisitions that found the free-list empty
# TYPE hcibuf_pool_exhausted_total counter
hcibuf_pool_exhausted_total{list="acl_in"} 1
hcibuf_pool_exhausted_total{list="acl_out"} 0
hcibuf_pool_exhausted_total{list="control"} 0
`
	require.NoError(t, testutil.CollectAndCompare(c, strings.NewReader(expected),
		"hcibuf_pool_acquire_total", "hcibuf_pool_exhausted_total"))

	buffers := `
# HELP hcibuf_pool_buffers Buffers per free-list by state (provisioned, free, in_use)
# TYPE hcibuf_pool_buffers gauge
hcibuf_pool_buffers{list="acl_in",state="free"} 0
hcibuf_pool_buffers{list="acl_in",state="in_use"} 1
hcibuf_pool_buffers{list="acl_in",state="provisioned"} 1
hcibuf_pool_buffers{list="acl_out",state="free"} 2
hcibuf_pool_buffers{list="acl_out",state="in_use"} 0
hcibuf_pool_buffers{list="acl_out",state="provisioned"} 2
hcibuf_pool_buffers{list="control",state="free"} 17
hcibuf_pool_buffers{list="control",state="in_use"} 0
hcibuf_pool_buffers{list="control",state="provisioned"} 17
`
	require.NoError(t, testutil.CollectAndCompare(c, strings.NewReader(buffers), "hcibuf_pool_buffers"))
}

func TestMetricsHandler(t *testing.T) {
	reg, err := NewRegistry(busyPool(t))
	require.NoError(t, err)

	srv := httptest.NewServer(MetricsHandler(reg))
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `hcibuf_pool_release_total 1`)
	assert.Contains(t, string(body), `hcibuf_pool_acquire_timeouts_total 0`)
	assert.Contains(t, string(body), "go_goroutines")
}
