package connection

import (
	"context"
	"encoding/json"
	"sync"
)

// Subscription delivers the raw result of each notification. Notifications
// is closed after Unsubscribe or when the underlying connection is lost.
type Subscription struct {
	ID            string
	Notifications <-chan json.RawMessage

	once        sync.Once
	unsubscribe func(ctx context.Context) error
}

func NewSubscription(id string, notifications <-chan json.RawMessage, unsubscribe func(ctx context.Context) error) *Subscription {
	return &Subscription{ID: id, Notifications: notifications, unsubscribe: unsubscribe}
}

// Unsubscribe stops the subscription. Only the first call has an effect.
func (s *Subscription) Unsubscribe(ctx context.Context) error {
	var err error
	s.once.Do(func() {
		if s.unsubscribe != nil {
			err = s.unsubscribe(ctx)
		}
	})
	return err
}
