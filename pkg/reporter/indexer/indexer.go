// SPDX-FileCopyrightText: 2024 SAP SE or an SAP affiliate company and Gardener contributors
//
// SPDX-License-Identifier: Apache-2.0

// Package indexer buffers document lines and flushes them as bulk requests.
//
// A batch is emitted as soon as the configured number of actions is buffered
// or when the flush interval elapsed since the oldest buffered line arrived.
// No batch is emitted before the cluster is ready.
package indexer

import (
	"context"
	"sync"
	"time"

	"github.com/go-logr/logr"
	"golang.org/x/sync/semaphore"
	"k8s.io/utils/clock"

	"github.com/gardener/elasticsearch-reporter/pkg/apis/config"
	"github.com/gardener/elasticsearch-reporter/pkg/reporter/metrics"
	"github.com/gardener/elasticsearch-reporter/pkg/reporter/submitter"
	"github.com/gardener/elasticsearch-reporter/pkg/util"
	"github.com/gardener/elasticsearch-reporter/pkg/util/elasticsearch/bulk"
)

// Options configure the flush behavior of an indexer.
type Options struct {
	// MaxActions is the number of lines that immediately triggers a flush.
	MaxActions int
	// FlushInterval is the maximum time a line waits in the buffer.
	FlushInterval time.Duration
	// ConcurrentRequests is the maximum number of bulk requests in flight.
	// Values below 1 are treated as 1.
	ConcurrentRequests int
	// MaxBufferedActions caps the buffer. Lines that exceed the cap are dropped.
	// 0 means unbounded.
	MaxBufferedActions int

	Clock   clock.Clock
	Metrics *metrics.Metrics
}

// OptionsFromConfig returns the indexer options of the bulk configuration.
func OptionsFromConfig(cfg config.Bulk) Options {
	return Options{
		MaxActions:         cfg.Actions,
		FlushInterval:      time.Duration(cfg.FlushInterval) * time.Second,
		ConcurrentRequests: cfg.ConcurrentRequests,
		MaxBufferedActions: cfg.MaxBufferedActions,
	}
}

func (o *Options) complete() {
	if o.MaxActions <= 0 {
		o.MaxActions = config.DefaultBulkActions
	}
	if o.FlushInterval <= 0 {
		o.FlushInterval = time.Duration(config.DefaultFlushInterval) * time.Second
	}
	if o.ConcurrentRequests < 1 {
		o.ConcurrentRequests = 1
	}
	if o.MaxBufferedActions < 0 {
		o.MaxBufferedActions = 0
	}
	if o.Clock == nil {
		o.Clock = clock.RealClock{}
	}
	if o.Metrics == nil {
		o.Metrics = metrics.New()
	}
}

type entry struct {
	line    bulk.DocumentLine
	arrived time.Time
}

// Indexer collects document lines and submits them in batches.
type Indexer struct {
	log       logr.Logger
	submitter submitter.Submitter
	opts      Options
	ready     <-chan struct{}

	mut     sync.Mutex
	buffer  []entry
	started bool
	stopped bool

	notify chan struct{}
	done   chan struct{}

	cancelLoop context.CancelFunc

	// submitCtx is the context of all bulk requests.
	// It is only canceled if a graceful stop times out.
	submitCtx         context.Context
	cancelSubmissions context.CancelFunc

	sem      *semaphore.Weighted
	inFlight util.AdvancedWaitGroup
}

// New creates a new indexer.
// No batch is submitted before the ready channel is closed.
func New(log logr.Logger, s submitter.Submitter, ready <-chan struct{}, opts Options) *Indexer {
	opts.complete()
	submitCtx, cancel := context.WithCancel(context.Background())
	return &Indexer{
		log:               log,
		submitter:         s,
		opts:              opts,
		ready:             ready,
		notify:            make(chan struct{}, 1),
		done:              make(chan struct{}),
		submitCtx:         submitCtx,
		cancelSubmissions: cancel,
		sem:               semaphore.NewWeighted(int64(opts.ConcurrentRequests)),
	}
}

// Index adds a line to the buffer. It never blocks on the network.
// Lines are dropped if the indexer is stopped or the buffer is full.
func (i *Indexer) Index(line bulk.DocumentLine) {
	if len(line) == 0 {
		return
	}
	i.mut.Lock()
	if i.stopped {
		i.mut.Unlock()
		i.log.V(5).Info("indexer is stopped, dropping line")
		i.opts.Metrics.Dropped(metrics.DropReasonStopped, 1)
		return
	}
	if i.opts.MaxBufferedActions != 0 && len(i.buffer) >= i.opts.MaxBufferedActions {
		i.mut.Unlock()
		i.log.V(3).Info("buffer is full, dropping line", "max", i.opts.MaxBufferedActions)
		i.opts.Metrics.Dropped(metrics.DropReasonBufferFull, 1)
		return
	}
	i.buffer = append(i.buffer, entry{line: line, arrived: i.opts.Clock.Now()})
	n := len(i.buffer)
	i.mut.Unlock()

	i.opts.Metrics.LinesIndexed.Inc()
	i.opts.Metrics.BufferedLines.Set(float64(n))

	// the loop only has to wake up for a new window or a full batch
	if n == 1 || n >= i.opts.MaxActions {
		select {
		case i.notify <- struct{}{}:
		default:
		}
	}
}

// Buffered returns the number of lines waiting for a flush.
func (i *Indexer) Buffered() int {
	i.mut.Lock()
	defer i.mut.Unlock()
	return len(i.buffer)
}

// InFlight returns the number of running bulk requests.
func (i *Indexer) InFlight() int {
	return i.inFlight.Count()
}

// Start starts the flush loop in the background.
// The loop runs until the context is canceled or Stop is called.
func (i *Indexer) Start(ctx context.Context) {
	i.mut.Lock()
	defer i.mut.Unlock()
	if i.started || i.stopped {
		return
	}
	i.started = true
	loopCtx, cancel := context.WithCancel(ctx)
	i.cancelLoop = cancel
	go i.run(loopCtx)
}

func (i *Indexer) run(ctx context.Context) {
	defer close(i.done)

	select {
	case <-i.ready:
		i.log.V(3).Info("cluster is ready, start flushing")
	case <-ctx.Done():
		return
	}

	var (
		timer    clock.Timer
		timerC   <-chan time.Time
		deadline time.Time
	)
	stopTimer := func() {
		if timer != nil {
			timer.Stop()
		}
		timer, timerC, deadline = nil, nil, time.Time{}
	}
	defer stopTimer()

	for {
		now := i.opts.Clock.Now()
		batches, next := i.take(now, false)
		for _, batch := range batches {
			i.dispatch(i.submitCtx, batch)
		}

		switch {
		case next.IsZero():
			stopTimer()
		case !next.Equal(deadline):
			// a new timer is created for every window so that a fired
			// but unconsumed timer never blocks the clock.
			stopTimer()
			timer = i.opts.Clock.NewTimer(next.Sub(now))
			timerC = timer.C()
			deadline = next
		}

		select {
		case <-i.notify:
		case <-timerC:
			timer, timerC, deadline = nil, nil, time.Time{}
		case <-ctx.Done():
			return
		}
	}
}

// take removes all batches that are due from the buffer.
// Full batches are always due, the remaining lines are due if the oldest line
// waited for the flush interval or if all is set.
// The deadline of the remaining lines is returned and is zero if the buffer is empty.
func (i *Indexer) take(now time.Time, all bool) ([]bulk.Batch, time.Time) {
	i.mut.Lock()
	defer func() {
		i.opts.Metrics.BufferedLines.Set(float64(len(i.buffer)))
		i.mut.Unlock()
	}()

	var batches []bulk.Batch
	for len(i.buffer) >= i.opts.MaxActions {
		batches = append(batches, newBatch(i.buffer[:i.opts.MaxActions]))
		i.buffer = i.buffer[i.opts.MaxActions:]
	}
	if len(i.buffer) == 0 {
		i.buffer = nil
		return batches, time.Time{}
	}

	expires := i.buffer[0].arrived.Add(i.opts.FlushInterval)
	if all || !now.Before(expires) {
		batches = append(batches, newBatch(i.buffer))
		i.buffer = nil
		return batches, time.Time{}
	}
	return batches, expires
}

func newBatch(entries []entry) bulk.Batch {
	batch := make(bulk.Batch, len(entries))
	for j, e := range entries {
		batch[j] = e.line
	}
	return batch
}

// dispatch submits the batch as soon as a request slot is free.
// Waiting for a slot blocks the caller, so batches start in the order they were dispatched.
func (i *Indexer) dispatch(ctx context.Context, batch bulk.Batch) {
	if len(batch) == 0 {
		return
	}
	if err := i.sem.Acquire(ctx, 1); err != nil {
		i.log.Error(err, "unable to submit batch", "documents", len(batch))
		i.opts.Metrics.Dropped(metrics.DropReasonCanceled, len(batch))
		return
	}
	i.inFlight.Add(1)
	i.opts.Metrics.InFlightRequests.Inc()
	go func() {
		defer i.inFlight.Done()
		defer i.sem.Release(1)
		defer i.opts.Metrics.InFlightRequests.Dec()
		res := i.submitter.Submit(i.submitCtx, batch)
		i.opts.Metrics.Observe(res)
	}()
}

// Stop stops accepting new lines, flushes the buffer and waits for all
// bulk requests until the context is done.
// Running requests are canceled if the context is done before they complete.
func (i *Indexer) Stop(ctx context.Context) error {
	i.mut.Lock()
	if i.stopped {
		i.mut.Unlock()
		return nil
	}
	i.stopped = true
	started := i.started
	i.mut.Unlock()

	if started {
		i.cancelLoop()
		select {
		case <-i.done:
		case <-ctx.Done():
			i.cancelSubmissions()
			<-i.done
		}
	}

	select {
	case <-i.ready:
		batches, _ := i.take(i.opts.Clock.Now(), true)
		for _, batch := range batches {
			i.dispatch(ctx, batch)
		}
	default:
		if dropped, _ := i.take(i.opts.Clock.Now(), true); len(dropped) != 0 {
			lines := 0
			for _, batch := range dropped {
				lines += len(batch)
			}
			i.log.Info("cluster never became ready, dropping buffered lines", "lines", lines)
			i.opts.Metrics.Dropped(metrics.DropReasonNotReady, lines)
		}
	}

	if err := i.inFlight.WaitWithContext(ctx); err != nil {
		i.cancelSubmissions()
		i.log.Error(err, "bulk requests did not complete in time", "inflight", i.inFlight.Count())
		return err
	}
	i.cancelSubmissions()
	i.log.V(3).Info("indexer stopped")
	return nil
}
