package stream

import (
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// PriceUpdate is the fan-out payload pushed to every connected subscriber
// after a successful price commit.
type PriceUpdate struct {
	OpportunityID uint64          `json:"opportunity_id"`
	Price         decimal.Decimal `json:"price"`
	Previous      decimal.Decimal `json:"previous"`
	Source        string          `json:"source"`
	BatchID       string          `json:"batch_id,omitempty"`
	At            time.Time       `json:"at"`
}

const subscriberBuffer = 32

// Hub fans price updates out to websocket subscribers. Publish never blocks:
// a subscriber whose buffer is full misses the update and catches up from the
// snapshot history instead.
type Hub struct {
	Logger *zap.Logger

	mu     sync.Mutex
	nextID uint64
	subs   map[uint64]chan PriceUpdate
}

func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		Logger: logger,
		subs:   make(map[uint64]chan PriceUpdate),
	}
}

// Subscribe registers a new subscriber and returns its channel together with
// an unsubscribe func. The channel is closed on unsubscribe.
func (h *Hub) Subscribe() (<-chan PriceUpdate, func()) {
	if h == nil {
		ch := make(chan PriceUpdate)
		close(ch)
		return ch, func() {}
	}
	ch := make(chan PriceUpdate, subscriberBuffer)
	h.mu.Lock()
	h.nextID++
	id := h.nextID
	h.subs[id] = ch
	h.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, id)
			h.mu.Unlock()
			close(ch)
		})
	}
	return ch, cancel
}

// Publish delivers the update to every subscriber that can accept it without
// blocking.
func (h *Hub) Publish(update PriceUpdate) {
	if h == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, ch := range h.subs {
		select {
		case ch <- update:
		default:
			if h.Logger != nil {
				h.Logger.Debug("price stream subscriber lagging, update dropped",
					zap.Uint64("subscriber", id),
					zap.Uint64("opportunity_id", update.OpportunityID),
				)
			}
		}
	}
}

// SubscriberCount reports the current number of attached subscribers.
func (h *Hub) SubscriberCount() int {
	if h == nil {
		return 0
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}
