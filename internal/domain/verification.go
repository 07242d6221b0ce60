package domain

import (
	"context"
	"time"
)

// OTPStore is a keyed store whose entries expire after their TTL.
type OTPStore interface {
	Put(ctx context.Context, key, code string, ttl time.Duration) error
	Get(ctx context.Context, key string) (code string, ok bool, err error)
	// Take removes the entry and reports true only when it held code. A
	// code can be taken at most once, however many callers race for it.
	Take(ctx context.Context, key, code string) (bool, error)
	// Incr bumps a counter under key and returns the new value. The TTL is
	// set when the counter is created and is not extended afterwards.
	Incr(ctx context.Context, key string, ttl time.Duration) (int64, error)
	Delete(ctx context.Context, key string) error
}

type OTPSender interface {
	SendOTP(ctx context.Context, mobileNumber, code string) error
}
