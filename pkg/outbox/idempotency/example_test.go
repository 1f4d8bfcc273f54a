package idempotency

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type memoryStore struct {
	seen map[string]bool
}

func (s *memoryStore) Get(context.Context, string) (string, error) {
	return "", nil
}

func (s *memoryStore) SetNX(_ context.Context, key string, _ any, _ time.Duration) (bool, error) {
	if s.seen == nil {
		s.seen = map[string]bool{}
	}
	if s.seen[key] {
		return false, nil
	}
	s.seen[key] = true
	return true, nil
}

func (s *memoryStore) Del(_ context.Context, keys ...string) error {
	for _, key := range keys {
		delete(s.seen, key)
	}
	return nil
}

func (s *memoryStore) IdempotencyKey(scope, id string) string {
	return "affil:idempotency:" + scope + ":" + id
}

// ExampleManager_CheckAndMarkProcessed shows how the order consumer
// guards against Pub/Sub redelivery of the same event.
func ExampleManager_CheckAndMarkProcessed() {
	ctx := context.Background()
	manager, _ := NewManager(&memoryStore{}, 7*24*time.Hour)
	eventID := uuid.MustParse("f47ac10b-58cc-4372-a567-0e02b2c3d479")

	handle := func() string {
		duplicate, _ := manager.CheckAndMarkProcessed(ctx, "orders-consumer", eventID)
		if duplicate {
			return "duplicate delivery, ack without reprocessing"
		}
		return "recording earning"
	}

	fmt.Println(handle())
	fmt.Println(handle())
	// Output:
	// recording earning
	// duplicate delivery, ack without reprocessing
}
