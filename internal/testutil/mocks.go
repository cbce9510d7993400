package testutil

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/mindfultube/mindfultube/internal/core"
)

// ErrInjected is returned by FailingKV
var ErrInjected = errors.New("injected failure")

// FailingKV is an in-memory store whose writes can be made to fail.
type FailingKV struct {
	mu         sync.Mutex
	data       map[string][]byte
	FailPut    bool
	FailGet    bool
	PutCalls   int
	LastPutKey string
}

// NewFailingKV creates an empty FailingKV with failures disabled.
func NewFailingKV() *FailingKV {
	return &FailingKV{data: make(map[string][]byte)}
}

func (f *FailingKV) Get(ctx context.Context, key string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.FailGet {
		return nil, ErrInjected
	}
	v, ok := f.data[key]
	if !ok {
		return nil, core.ErrRecordNotFound
	}
	return append([]byte(nil), v...), nil
}

func (f *FailingKV) Put(ctx context.Context, key string, value []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.PutCalls++
	f.LastPutKey = key
	if f.FailPut {
		return ErrInjected
	}
	f.data[key] = append([]byte(nil), value...)
	return nil
}

func (f *FailingKV) Delete(ctx context.Context, keys ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, k := range keys {
		delete(f.data, k)
	}
	return nil
}

func (f *FailingKV) Keys(ctx context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	keys := make([]string, 0, len(f.data))
	for k := range f.data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

// Clock is a manually advanced time source.
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

// NewClock returns a clock frozen at t.
func NewClock(t time.Time) *Clock {
	return &Clock{now: t}
}

// Now returns the current fake time.
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d.
func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// Set moves the clock to t.
func (c *Clock) Set(t time.Time) {
	c.mu.Lock()
	c.now = t
	c.mu.Unlock()
}
