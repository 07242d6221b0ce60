// Package lotlock serializes work on a single auction lot inside one process.
package lotlock

import (
	"fmt"
	"sync"
)

// Key identifies a lot.
type Key struct {
	AuctionID int64
	ItemID    int64
}

func (k Key) String() string {
	return fmt.Sprintf("%d:%d", k.AuctionID, k.ItemID)
}

type entry struct {
	mu   sync.Mutex
	refs int
}

// Pool hands out one mutex per key. Entries are dropped once no goroutine
// holds or waits for them, so the pool does not grow with every lot ever seen.
type Pool struct {
	mu      sync.Mutex
	entries map[Key]*entry
}

func NewPool() *Pool {
	return &Pool{entries: make(map[Key]*entry)}
}

// Lock blocks until the lot is free and returns the matching unlock func.
func (p *Pool) Lock(k Key) (unlock func()) {
	p.mu.Lock()
	e, ok := p.entries[k]
	if !ok {
		e = &entry{}
		p.entries[k] = e
	}
	e.refs++
	p.mu.Unlock()

	e.mu.Lock()

	var once sync.Once
	return func() {
		once.Do(func() {
			e.mu.Unlock()

			p.mu.Lock()
			e.refs--
			if e.refs == 0 {
				delete(p.entries, k)
			}
			p.mu.Unlock()
		})
	}
}

// Len returns the number of lots currently locked or awaited.
func (p *Pool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.entries)
}
