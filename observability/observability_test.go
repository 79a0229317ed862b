package observability

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func TestConsoleMetricsExporter(t *testing.T) {
	buf := &bytes.Buffer{}
	e, err := NewConsoleMetricsExporter(WithExporterWriter(buf), WithExporterInterval(time.Hour, time.Second))
	require.NoError(t, err)
	require.Empty(t, e.Addr())

	counter, err := otel.Meter("xtree/test").Int64Counter("xtree.test.console")
	require.NoError(t, err)
	counter.Add(context.Background(), 3)

	// The last collection is flushed on shutdown.
	require.NoError(t, e.Shutdown(context.Background()))
	require.Contains(t, buf.String(), "xtree.test.console")
}

func TestPrometheusMetricsExporter(t *testing.T) {
	e, err := NewPrometheusMetricsExporter(WithExporterAddr("127.0.0.1:0"))
	require.NoError(t, err)
	defer func() {
		require.NoError(t, e.Shutdown(context.Background()))
	}()
	require.NotEmpty(t, e.Addr())

	counter, err := otel.Meter("xtree/test").Int64Counter("xtree.test.scraped")
	require.NoError(t, err)
	counter.Add(context.Background(), 1)

	resp, err := http.Get("http://" + e.Addr() + "/metrics")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Contains(t, string(body), "xtree_test_scraped")
}

func TestPrometheusMetricsExporter_AddrInUse(t *testing.T) {
	e, err := NewPrometheusMetricsExporter(WithExporterAddr("127.0.0.1:0"))
	require.NoError(t, err)
	defer func() { _ = e.Shutdown(context.Background()) }()

	_, err = NewPrometheusMetricsExporter(WithExporterAddr(e.Addr()))
	require.Error(t, err)
}

func TestInitAppStats(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	otel.SetMeterProvider(mp)
	defer func() { _ = mp.Shutdown(context.Background()) }()

	InitAppStats(context.Background(), "test")
	// Registered once only.
	InitAppStats(context.Background(), "again")

	rm := metricdata.ResourceMetrics{}
	require.NoError(t, reader.Collect(context.Background(), &rm))
	names := map[string]struct{}{}
	scopes := map[string]struct{}{}
	for _, sm := range rm.ScopeMetrics {
		scopes[sm.Scope.Name] = struct{}{}
		for _, m := range sm.Metrics {
			names[m.Name] = struct{}{}
		}
	}
	require.Contains(t, scopes, "xtree/app/test")
	require.NotContains(t, scopes, "xtree/app/again")
	for _, name := range []string{"app.core.goroutines", "app.core.processes", "app.process.memory.rss"} {
		require.Contains(t, names, name)
	}
}

func TestAppMeterName(t *testing.T) {
	require.Equal(t, "xtree/app/default", appMeterName("  "))
	require.Equal(t, "xtree/app/cli", appMeterName("cli"))
}
