package logging

import (
	"context"
	"log"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"
)

const (
	metricEventsTotal  = "logging_events_total"
	metricDroppedTotal = "logging_dropped_total"
	metricSinkFailures = "logging_sink_failures_total"
	metricSinkSkipped  = "logging_sink_skipped_total"

	maxBackoffShift = 6
)

type Clock interface {
	Now() time.Time
}

type ClockFunc func() time.Time

func (f ClockFunc) Now() time.Time {
	return f()
}

type Sink interface {
	Write(Event) error
	Close(context.Context) error
}

type NamedSink struct {
	Name string
	Sink Sink
}

// Router stamps published events and hands a private copy to every sink's
// worker queue. Publish never blocks: a full queue drops the event for that
// sink and counts it.
//
// A sink whose Write fails is suspended with exponential backoff measured on
// the router clock. Events reaching it while suspended are skipped, so a
// failing sink never holds up Close.
type Router struct {
	clock    Clock
	floor    Severity
	fields   map[string]any
	metrics  *Metrics
	warn     *log.Logger
	dropWarn rate.Sometimes

	mu      sync.RWMutex
	closed  bool
	workers []*sinkWorker
	wg      sync.WaitGroup

	events  atomic.Uint64
	dropped atomic.Uint64
}

type RouterStats struct {
	EventsTotal  uint64
	DroppedTotal uint64
	Sinks        []SinkStats
}

// SinkStats counts what happened to the events routed to one sink.
type SinkStats struct {
	Name     string
	Written  uint64
	Failures uint64
	Skipped  uint64
}

// NewRouter starts one worker per sink. metrics may be nil.
func NewRouter(clock Clock, cfg Config, namedSinks []NamedSink, metrics *Metrics) (*Router, error) {
	if clock == nil {
		clock = ClockFunc(time.Now)
	}
	queueSize := cfg.BufferSize
	if queueSize <= 0 {
		queueSize = 512
	}
	interval := cfg.DropWarnInterval
	if interval <= 0 {
		interval = 5 * time.Second
	}
	retry := cfg.SinkRetry
	if retry <= 0 {
		retry = 500 * time.Millisecond
	}

	r := &Router{
		clock:    clock,
		floor:    cfg.MinimumSeverity,
		fields:   cfg.CloneFields(),
		metrics:  metrics,
		warn:     log.New(os.Stderr, "[logging] ", log.LstdFlags),
		dropWarn: rate.Sometimes{Interval: interval},
	}
	for _, named := range namedSinks {
		if named.Sink == nil {
			continue
		}
		w := &sinkWorker{
			name:  named.Name,
			sink:  named.Sink,
			queue: make(chan Event, queueSize),
			retry: retry,
		}
		r.workers = append(r.workers, w)
		r.wg.Add(1)
		go func() {
			defer r.wg.Done()
			w.run(r)
		}()
	}
	return r, nil
}

// Publish filters and stamps event, then queues it on every sink. Events
// without a type are ignored, as is everything published after Close.
func (r *Router) Publish(_ context.Context, event Event) {
	if event.Type == "" || event.Severity < r.floor {
		return
	}
	if event.Time.IsZero() {
		event.Time = r.clock.Now()
	}
	event = withFields(event, r.fields)

	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		return
	}
	r.events.Add(1)
	r.metrics.TelemetryAdd(metricEventsTotal, 1)
	for _, w := range r.workers {
		select {
		case w.queue <- cloneEvent(event):
		default:
			r.drop(w.name, event)
		}
	}
}

func (r *Router) drop(sink string, event Event) {
	r.dropped.Add(1)
	r.metrics.TelemetryAdd(metricDroppedTotal, 1)
	r.dropWarn.Do(func() {
		r.warn.Printf("sink %s backlog full, dropping event type=%s tick=%d", sink, event.Type, event.Tick)
	})
}

// Close stops accepting events, lets every worker drain its queue and then
// closes the sinks, returning the first close error. A second Close waits for
// ctx.
func (r *Router) Close(ctx context.Context) error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		<-ctx.Done()
		return ctx.Err()
	}
	r.closed = true
	for _, w := range r.workers {
		close(w.queue)
	}
	r.mu.Unlock()

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}

	var firstErr error
	for _, w := range r.workers {
		if err := w.sink.Close(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (r *Router) Stats() RouterStats {
	stats := RouterStats{
		EventsTotal:  r.events.Load(),
		DroppedTotal: r.dropped.Load(),
		Sinks:        make([]SinkStats, 0, len(r.workers)),
	}
	for _, w := range r.workers {
		stats.Sinks = append(stats.Sinks, SinkStats{
			Name:     w.name,
			Written:  w.written.Load(),
			Failures: w.failures.Load(),
			Skipped:  w.skipped.Load(),
		})
	}
	return stats
}

func (r *Router) Sink(name string) Sink {
	for _, w := range r.workers {
		if w.name == name {
			return w.sink
		}
	}
	return nil
}

type sinkWorker struct {
	name  string
	sink  Sink
	queue chan Event
	retry time.Duration

	// Owned by the worker goroutine.
	streak   int
	resumeAt time.Time

	written  atomic.Uint64
	failures atomic.Uint64
	skipped  atomic.Uint64
}

func (w *sinkWorker) run(r *Router) {
	for event := range w.queue {
		now := r.clock.Now()
		if now.Before(w.resumeAt) {
			w.skipped.Add(1)
			r.metrics.TelemetryAdd(metricSinkSkipped, 1)
			continue
		}
		if err := w.sink.Write(event); err != nil {
			w.suspend(r, now, err)
			continue
		}
		w.streak = 0
		w.written.Add(1)
	}
}

func (w *sinkWorker) suspend(r *Router, now time.Time, err error) {
	delay := w.retry << min(w.streak, maxBackoffShift)
	w.streak++
	w.resumeAt = now.Add(delay)
	w.failures.Add(1)
	r.metrics.TelemetryAdd(metricSinkFailures, 1)
	r.warn.Printf("sink %s failed: %v (suspended for %s)", w.name, err, delay)
}
