package vcedit

import (
	"sort"
	"sync"
	"testing"
	"time"

	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// manualClock runs deferred tasks only when the test advances it.
type manualClock struct {
	mu    sync.Mutex
	now   time.Duration
	tasks []*manualTask
}

type manualTask struct {
	at      time.Duration
	f       func()
	stopped bool
	fired   bool
}

func (t *manualTask) Stop() bool {
	if t.stopped || t.fired {
		return false
	}
	t.stopped = true
	return true
}

func (c *manualClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &manualTask{at: c.now + d, f: f}
	c.tasks = append(c.tasks, t)
	return t
}

// Advance moves time forward and runs every live task that became due.
func (c *manualClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now += d
	var due []*manualTask
	for _, t := range c.tasks {
		if !t.stopped && !t.fired && t.at <= c.now {
			t.fired = true
			due = append(due, t)
		}
	}
	c.mu.Unlock()

	sort.SliceStable(due, func(i, j int) bool { return due[i].at < due[j].at })
	for _, t := range due {
		t.f()
	}
}

// last returns the most recently scheduled task.
func (c *manualClock) last() *manualTask {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.tasks) == 0 {
		return nil
	}
	return c.tasks[len(c.tasks)-1]
}

func openSession(t *testing.T, content string, opts ...Option) (*Session, *manualClock) {
	t.Helper()
	clk := &manualClock{}
	s := NewSession(append([]Option{WithClock(clk)}, opts...)...)
	if err := s.Open("test.html", content); err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	return s, clk
}

func mustExport(t *testing.T, s *Session) string {
	t.Helper()
	out, err := s.Export()
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	return out
}
