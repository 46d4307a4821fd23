// SPDX-FileCopyrightText: 2024 SAP SE or an SAP affiliate company and Gardener contributors
//
// SPDX-License-Identifier: Apache-2.0

package util

import (
	"context"
	"sync"
)

// AdvancedWaitGroup is a wait group whose wait can be bounded by a context.
type AdvancedWaitGroup struct {
	noCopy

	mut   sync.Mutex
	count int
	done  chan struct{}
}

func (wg *AdvancedWaitGroup) Add(delta int) {
	wg.mut.Lock()
	defer wg.mut.Unlock()
	wg.count = wg.count + delta
	if wg.count < 0 {
		wg.count = 0
	}
	if wg.count == 0 && wg.done != nil {
		close(wg.done)
		wg.done = nil
	}
}

func (wg *AdvancedWaitGroup) Done() {
	wg.Add(-1)
}

// Count returns the current value of the counter.
func (wg *AdvancedWaitGroup) Count() int {
	wg.mut.Lock()
	defer wg.mut.Unlock()
	return wg.count
}

func (wg *AdvancedWaitGroup) Wait() {
	_ = wg.WaitWithContext(context.Background())
}

// WaitWithContext blocks until the counter is zero or the context is done.
// The context error is returned if the counter did not reach zero in time.
func (wg *AdvancedWaitGroup) WaitWithContext(ctx context.Context) error {
	wg.mut.Lock()
	if wg.count == 0 {
		wg.mut.Unlock()
		return nil
	}
	if wg.done == nil {
		wg.done = make(chan struct{})
	}
	done := wg.done
	wg.mut.Unlock()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

type noCopy struct{}

func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}
