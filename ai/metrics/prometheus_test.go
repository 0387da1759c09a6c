package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scrape(t *testing.T, e *PrometheusExporter) string {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/metrics", http.NoBody)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	return string(body)
}

func TestPrometheusExporter_Record(t *testing.T) {
	e := NewPrometheusExporter(DefaultConfig())

	e.RecordDecision("switch", "PRIMARY_FAMILY", "keyword", false)
	e.RecordDecision("sub_router", "GENERAL", "fallback", true)
	e.RecordDecision("sub_router", "GENERAL", "fallback", true)
	e.RecordQuery("general", "COMPLETED", 120*time.Millisecond)
	e.ObserveInvocation("web_search", "", 80*time.Millisecond)
	e.ObserveInvocation("web_search", "TIMEOUT", time.Second)
	e.RecordCacheHit("switch")
	e.RecordCacheMiss("sub_router")
	e.SetActiveSessions(3)

	text := scrape(t, e)
	for _, want := range []string{
		`playground_router_decisions_total{decided_by="switch",method="keyword",target="PRIMARY_FAMILY"} 1`,
		`playground_router_fallback_decisions_total{decided_by="sub_router"} 2`,
		`playground_orchestrator_queries_total{capability="general",state="COMPLETED"} 1`,
		`playground_capability_invocations_total{capability="web_search",outcome="ok"} 1`,
		`playground_capability_invocations_total{capability="web_search",outcome="TIMEOUT"} 1`,
		`playground_router_cache_hits_total{cache_type="switch"} 1`,
		`playground_router_cache_misses_total{cache_type="sub_router"} 1`,
		`playground_orchestrator_active_sessions 3`,
	} {
		assert.True(t, strings.Contains(text, want), "missing %q", want)
	}
	assert.False(t, strings.Contains(text, `fallback_decisions_total{decided_by="switch"}`))
}

func TestPrometheusExporter_Handler(t *testing.T) {
	e := NewPrometheusExporter(DefaultConfig())
	e.RecordDecision("switch", "OFFLINE_PROVIDER", "explicit", false)
	e.ObserveInvocation("offline", "CONNECTION_REFUSED", 10*time.Millisecond)

	text := scrape(t, e)
	for _, want := range []string{
		`playground_router_decisions_total{decided_by="switch",method="explicit",target="OFFLINE_PROVIDER"} 1`,
		`playground_capability_invocations_total{capability="offline",outcome="CONNECTION_REFUSED"} 1`,
		"playground_capability_latency_seconds_bucket",
	} {
		assert.True(t, strings.Contains(text, want), "missing %q", want)
	}
}

func TestPrometheusExporter_RuntimeCollectors(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RuntimeCollectors = true
	e := NewPrometheusExporter(cfg)

	families, err := e.GetRegistry().Gather()
	require.NoError(t, err)
	found := false
	for _, mf := range families {
		if strings.HasPrefix(mf.GetName(), "go_") {
			found = true
			break
		}
	}
	assert.True(t, found)
}
