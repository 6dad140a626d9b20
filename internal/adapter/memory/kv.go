package memory

import (
	"context"

	"github.com/thaijunny/fashion-be/internal/usecase"
)

// KV implements the idempotency store and the order status cache without
// expiry. Locks are held until Unlock.
type KV struct{ s *Store }

func (s *Store) KV() *KV { return &KV{s} }

func (k *KV) TryLock(_ context.Context, scope, key string) (bool, error) {
	k.s.mu.Lock()
	defer k.s.mu.Unlock()
	id := scope + ":" + key
	if _, held := k.s.locks[id]; held {
		return false, nil
	}
	k.s.locks[id] = struct{}{}
	return true, nil
}

func (k *KV) Unlock(_ context.Context, scope, key string) error {
	k.s.mu.Lock()
	defer k.s.mu.Unlock()
	delete(k.s.locks, scope+":"+key)
	return nil
}

func (k *KV) Remember(_ context.Context, scope, key, value string) error {
	k.s.mu.Lock()
	defer k.s.mu.Unlock()
	k.s.recalls[scope+":"+key] = value
	return nil
}

func (k *KV) Recall(_ context.Context, scope, key string) (string, bool, error) {
	k.s.mu.Lock()
	defer k.s.mu.Unlock()
	v, ok := k.s.recalls[scope+":"+key]
	return v, ok, nil
}

func (k *KV) SetStatus(_ context.Context, orderID, status string) error {
	k.s.mu.Lock()
	defer k.s.mu.Unlock()
	k.s.statuses[orderID] = status
	return nil
}

func (k *KV) GetStatus(_ context.Context, orderID string) (string, bool, error) {
	k.s.mu.Lock()
	defer k.s.mu.Unlock()
	v, ok := k.s.statuses[orderID]
	return v, ok, nil
}

var (
	_ usecase.IdempotencyStore = (*KV)(nil)
	_ usecase.OrderCache       = (*KV)(nil)
)
