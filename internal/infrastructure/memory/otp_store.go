// Package memory holds single-process stand-ins for the Redis backed stores.
package memory

import (
	"context"
	"crypto/subtle"
	"encoding/binary"
	"errors"
	"math"
	"sync"
	"time"

	"auction-marketplace/internal/clock"

	"github.com/coocood/freecache"
)

const minCacheSize = 512 * 1024

// OTPStore keeps codes in a freecache segment. Each value carries its own
// deadline so expiry follows the injected clock; freecache's own TTL only
// reclaims the memory.
type OTPStore struct {
	// mu makes the read-modify-write paths (Take, Incr) atomic.
	mu    sync.Mutex
	cache *freecache.Cache
	clock clock.Clock
}

func NewOTPStore(size int, clk clock.Clock) *OTPStore {
	if size < minCacheSize {
		size = minCacheSize
	}
	return &OTPStore{cache: freecache.NewCache(size), clock: clk}
}

func (s *OTPStore) Put(_ context.Context, key, code string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.set(key, s.clock.Now().Add(ttl), []byte(code))
}

func (s *OTPStore) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	payload, _, ok, err := s.get(key)
	if err != nil || !ok {
		return "", false, err
	}
	return string(payload), true, nil
}

func (s *OTPStore) Take(_ context.Context, key, code string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	payload, _, ok, err := s.get(key)
	if err != nil || !ok {
		return false, err
	}
	if subtle.ConstantTimeCompare(payload, []byte(code)) != 1 {
		return false, nil
	}
	s.cache.Del([]byte(key))
	return true, nil
}

func (s *OTPStore) Incr(_ context.Context, key string, ttl time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	payload, deadline, ok, err := s.get(key)
	if err != nil {
		return 0, err
	}

	var n int64
	if ok && len(payload) == 8 {
		n = int64(binary.BigEndian.Uint64(payload))
	} else {
		deadline = s.clock.Now().Add(ttl)
	}
	n++

	counter := make([]byte, 8)
	binary.BigEndian.PutUint64(counter, uint64(n))
	if err := s.set(key, deadline, counter); err != nil {
		return 0, err
	}
	return n, nil
}

func (s *OTPStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache.Del([]byte(key))
	return nil
}

func (s *OTPStore) set(key string, deadline time.Time, payload []byte) error {
	value := make([]byte, 8+len(payload))
	binary.BigEndian.PutUint64(value, uint64(deadline.UnixNano()))
	copy(value[8:], payload)
	return s.cache.Set([]byte(key), value, expireSeconds(deadline.Sub(s.clock.Now())))
}

// get returns the payload and deadline of a live entry, dropping it once expired.
func (s *OTPStore) get(key string) ([]byte, time.Time, bool, error) {
	value, err := s.cache.Get([]byte(key))
	if errors.Is(err, freecache.ErrNotFound) {
		return nil, time.Time{}, false, nil
	}
	if err != nil {
		return nil, time.Time{}, false, err
	}
	if len(value) < 8 {
		s.cache.Del([]byte(key))
		return nil, time.Time{}, false, nil
	}

	deadline := time.Unix(0, int64(binary.BigEndian.Uint64(value[:8]))).UTC()
	if !s.clock.Now().Before(deadline) {
		s.cache.Del([]byte(key))
		return nil, time.Time{}, false, nil
	}
	return value[8:], deadline, true, nil
}

func expireSeconds(ttl time.Duration) int {
	secs := int(math.Ceil(ttl.Seconds()))
	if secs < 1 {
		return 1
	}
	return secs
}
