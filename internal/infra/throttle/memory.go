// Package throttle spaces calls to hosted providers. Memory keeps its state
// in the process and starts fresh on restart; Redis shares it between
// instances.
package throttle

import (
	"context"
	"sync"
	"time"
)

// Memory is an in-process minimum interval throttle.
type Memory struct {
	mu       sync.Mutex
	interval time.Duration
	next     time.Time
	now      func() time.Time
}

func NewMemory(interval time.Duration) *Memory {
	return &Memory{interval: interval, now: time.Now}
}

// Wait blocks until the interval since the previous call has passed, then
// reserves the slot.
func (m *Memory) Wait(ctx context.Context) error {
	for {
		m.mu.Lock()
		now := m.now()
		if !now.Before(m.next) {
			m.next = now.Add(m.interval)
			m.mu.Unlock()
			return nil
		}
		wait := m.next.Sub(now)
		m.mu.Unlock()

		if err := sleep(ctx, wait); err != nil {
			return err
		}
	}
}

// Done restarts the interval from the end of the call.
func (m *Memory) Done(context.Context) {
	m.mu.Lock()
	m.next = m.now().Add(m.interval)
	m.mu.Unlock()
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
