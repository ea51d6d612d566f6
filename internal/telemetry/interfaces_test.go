package telemetry

import (
	"bytes"
	"context"
	"log"
	"testing"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"surfacefx/logging"
)

func TestWrapLogger(t *testing.T) {
	t.Run("nil logger", func(t *testing.T) {
		logger := WrapLogger(nil)
		logger.Printf("ignored %d", 42)
	})

	t.Run("forwards to logger", func(t *testing.T) {
		var buf bytes.Buffer
		base := log.New(&buf, "", 0)
		logger := WrapLogger(base)
		logger.Printf("hello %s", "world")
		if got := buf.String(); got != "hello world\n" {
			t.Fatalf("unexpected log output: %q", got)
		}
	})
}

func TestWrapMetrics(t *testing.T) {
	metrics := logging.Metrics{}
	adapter := WrapMetrics(&metrics)

	adapter.Add("test_counter", 2)
	adapter.Store("test_counter", 5)
	adapter.Add("test_counter", 3)

	snapshot := metrics.Snapshot()
	if got := snapshot["test_counter"]; got != 8 {
		t.Fatalf("unexpected metric value: %d", got)
	}

	// Ensure nil metrics do not panic.
	var nilAdapter Metrics = WrapMetrics(nil)
	nilAdapter.Add("ignored", 1)
	nilAdapter.Store("ignored", 1)
}

func TestTee(t *testing.T) {
	var a, b logging.Metrics
	m := Tee(WrapMetrics(&a), nil, WrapMetrics(&b))
	m.Add("impacts", 2)
	m.Store("channels", 3)
	for _, snap := range []map[string]uint64{a.Snapshot(), b.Snapshot()} {
		if snap["impacts"] != 2 || snap["channels"] != 3 {
			t.Fatalf("unexpected snapshot %v", snap)
		}
	}
	Nop().Add("x", 1)
}

func TestOTelMetrics(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer provider.Shutdown(context.Background())

	m := NewOTelMetrics(provider.Meter("surfacefx-test"), "surfacefx", nil)
	m.Add("surfaces_impacts_total", 2)
	m.Add("surfaces_impacts_total", 1)
	m.Store("surfaces_active_channels", 4)

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Collect: %v", err)
	}
	values := make(map[string]int64)
	for _, scope := range rm.ScopeMetrics {
		for _, rec := range scope.Metrics {
			switch data := rec.Data.(type) {
			case metricdata.Sum[int64]:
				values[rec.Name] = data.DataPoints[0].Value
			case metricdata.Gauge[int64]:
				values[rec.Name] = data.DataPoints[0].Value
			}
		}
	}
	if values["surfacefx.surfaces.impacts.total"] != 3 {
		t.Fatalf("unexpected counter values %v", values)
	}
	if values["surfacefx.surfaces.active.channels"] != 4 {
		t.Fatalf("unexpected gauge values %v", values)
	}

	var nilMetrics *OTelMetrics
	nilMetrics.Add("x", 1)
}
