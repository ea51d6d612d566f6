package telemetry

import (
	"context"
	"strings"
	"sync"

	"go.opentelemetry.io/otel/metric"
)

// OTelMetrics records Metrics calls as OpenTelemetry instruments: Add feeds
// an Int64Counter and Store an Int64Gauge, both created on first use and
// named with the given prefix.
type OTelMetrics struct {
	meter  metric.Meter
	prefix string
	errs   Logger

	mu       sync.Mutex
	counters map[string]metric.Int64Counter
	gauges   map[string]metric.Int64Gauge
}

// NewOTelMetrics wraps meter. Instrument creation failures are reported to
// logger, which may be nil.
func NewOTelMetrics(meter metric.Meter, prefix string, logger Logger) *OTelMetrics {
	return &OTelMetrics{
		meter:    meter,
		prefix:   strings.TrimSuffix(prefix, "."),
		errs:     logger,
		counters: make(map[string]metric.Int64Counter),
		gauges:   make(map[string]metric.Int64Gauge),
	}
}

func (o *OTelMetrics) name(key string) string {
	key = strings.ReplaceAll(key, "_", ".")
	if o.prefix == "" {
		return key
	}
	return o.prefix + "." + key
}

// Add implements Metrics.
func (o *OTelMetrics) Add(key string, delta uint64) {
	if o == nil || o.meter == nil {
		return
	}
	o.mu.Lock()
	counter, ok := o.counters[key]
	if !ok {
		var err error
		counter, err = o.meter.Int64Counter(o.name(key))
		if err != nil {
			o.mu.Unlock()
			o.report("counter", key, err)
			return
		}
		o.counters[key] = counter
	}
	o.mu.Unlock()
	counter.Add(context.Background(), int64(delta))
}

// Store implements Metrics.
func (o *OTelMetrics) Store(key string, value uint64) {
	if o == nil || o.meter == nil {
		return
	}
	o.mu.Lock()
	gauge, ok := o.gauges[key]
	if !ok {
		var err error
		gauge, err = o.meter.Int64Gauge(o.name(key))
		if err != nil {
			o.mu.Unlock()
			o.report("gauge", key, err)
			return
		}
		o.gauges[key] = gauge
	}
	o.mu.Unlock()
	gauge.Record(context.Background(), int64(value))
}

func (o *OTelMetrics) report(kind, key string, err error) {
	if o.errs == nil {
		return
	}
	o.errs.Printf("telemetry: failed creating %s %s: %v", kind, key, err)
}
