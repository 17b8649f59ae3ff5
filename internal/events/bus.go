package events

import (
	"sync"

	"papertrade/internal/types"
)

const subscriberBuffer = 64

type Event struct {
	Type      types.EventType `json:"type"`
	AccountID string          `json:"account_id"`
	Data      any             `json:"data"`
}

// Bus fans events out to subscribers. Slow subscribers miss events rather
// than block publishers.
type Bus struct {
	mu   sync.RWMutex
	subs map[chan Event]string
}

func NewBus() *Bus {
	return &Bus{subs: make(map[chan Event]string)}
}

// Subscribe registers a channel receiving events for accountID, or for every
// account when accountID is empty.
func (b *Bus) Subscribe(accountID string) chan Event {
	ch := make(chan Event, subscriberBuffer)
	b.mu.Lock()
	b.subs[ch] = accountID
	b.mu.Unlock()
	return ch
}

func (b *Bus) Unsubscribe(ch chan Event) {
	b.mu.Lock()
	if _, ok := b.subs[ch]; ok {
		delete(b.subs, ch)
		close(ch)
	}
	b.mu.Unlock()
}

func (b *Bus) Publish(evt Event) {
	b.mu.RLock()
	for ch, accountID := range b.subs {
		if accountID != "" && accountID != evt.AccountID {
			continue
		}
		select {
		case ch <- evt:
		default:
		}
	}
	b.mu.RUnlock()
}

func (b *Bus) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}
