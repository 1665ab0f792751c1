// Copyright 2026 The Jenkdo Authors
// SPDX-License-Identifier: Apache-2.0

package clock

import (
	"sort"
	"sync"
	"time"
)

// Fake returns a FakeClock frozen at initial. Time moves only when
// Advance is called (directly or through AutoAdvance).
//
// FakeClock is safe for concurrent use.
func Fake(initial time.Time) *FakeClock {
	clock := &FakeClock{current: initial}
	clock.changed = sync.NewCond(&clock.mu)
	return clock
}

// FakeClock is a deterministic Clock for tests.
type FakeClock struct {
	mu      sync.Mutex
	current time.Time
	waiters []*fakeWaiter
	changed *sync.Cond

	// autoStopped is set by the stop function returned from
	// AutoAdvance.
	autoStopped bool
}

type fakeWaiter struct {
	deadline time.Time
	channel  chan time.Time
}

// Now returns the current fake time.
func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// After registers a waiter that fires when the clock reaches now+d.
// Non-positive durations fire immediately and register nothing.
func (c *FakeClock) After(d time.Duration) <-chan time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	channel := make(chan time.Time, 1)
	if d <= 0 {
		channel <- c.current
		return channel
	}
	c.waiters = append(c.waiters, &fakeWaiter{
		deadline: c.current.Add(d),
		channel:  channel,
	})
	c.changed.Broadcast()
	return channel
}

// Advance moves the clock forward by d and fires every waiter whose
// deadline is at or before the new time, in deadline order.
func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.current = c.current.Add(d)
	target := c.current

	var due, remaining []*fakeWaiter
	for _, waiter := range c.waiters {
		if waiter.deadline.After(target) {
			remaining = append(remaining, waiter)
		} else {
			due = append(due, waiter)
		}
	}
	c.waiters = remaining
	c.changed.Broadcast()
	c.mu.Unlock()

	sort.Slice(due, func(i, j int) bool {
		return due[i].deadline.Before(due[j].deadline)
	})
	for _, waiter := range due {
		waiter.channel <- target
	}
}

// WaitForTimers blocks until at least n waiters are pending.
func (c *FakeClock) WaitForTimers(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for len(c.waiters) < n {
		c.changed.Wait()
	}
}

// PendingCount returns the number of waiters that have not fired.
func (c *FakeClock) PendingCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.waiters)
}

// AutoAdvance starts a goroutine that advances the clock to the
// earliest pending deadline whenever a waiter is registered. It models
// a process that spends no wall time outside its sleeps. The returned
// function stops the goroutine and is safe to call more than once.
func (c *FakeClock) AutoAdvance() (stop func()) {
	c.mu.Lock()
	c.autoStopped = false
	c.mu.Unlock()

	go func() {
		for {
			c.mu.Lock()
			for len(c.waiters) == 0 && !c.autoStopped {
				c.changed.Wait()
			}
			if c.autoStopped {
				c.mu.Unlock()
				return
			}
			earliest := c.waiters[0].deadline
			for _, waiter := range c.waiters[1:] {
				if waiter.deadline.Before(earliest) {
					earliest = waiter.deadline
				}
			}
			step := earliest.Sub(c.current)
			c.mu.Unlock()

			c.Advance(step)
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			c.autoStopped = true
			c.changed.Broadcast()
			c.mu.Unlock()
		})
	}
}
