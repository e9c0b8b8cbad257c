package storage

import "context"

// Collection keys.
const (
	KeyTransactions = "transactions"
	KeyGoals        = "goals"
	KeyActivity     = "activity"
)

// Store persists named collections as opaque JSON documents. Get reports
// found=false for a key that was never written.
type Store interface {
	Get(ctx context.Context, key string) (doc []byte, found bool, err error)
	Put(ctx context.Context, key string, doc []byte) error
	Ping(ctx context.Context) error
	Close() error
}
