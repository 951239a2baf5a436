package realtime

import (
	"log"
	"sync"
	"time"
)

// Tables whose rows produce change events. Subscribers key their debounce
// and suppression logic off these names.
const (
	TableClasses  = "classes"
	TableAccesses = "class_accesses"
	TableRequests = "join_requests"
)

// Event kinds
const (
	KindInsert = "insert"
	KindUpdate = "update"
	KindDelete = "delete"
)

// ChangeEvent is an untyped "something changed" notification for one row of a
// watched table. Only the identifiers are trustworthy; consumers must re-read
// the table rather than interpret the event as a diff. Delivery is
// at-least-once and unordered.
type ChangeEvent struct {
	AlbumID   uint   `json:"album_id"`
	Table     string `json:"table"`
	Kind      string `json:"kind"`
	RowID     string `json:"row_id,omitempty"`
	Timestamp int64  `json:"timestamp"`
}

// Subscriber receives the change events of a single album topic. Events are
// dropped rather than queued when the subscriber lags; a dropped event is
// harmless because any later event triggers the same full reconciliation.
type Subscriber struct {
	albumID uint
	ch      chan ChangeEvent
}

// Events returns the subscriber's receive channel. It is closed on Unsubscribe.
func (s *Subscriber) Events() <-chan ChangeEvent {
	return s.ch
}

// Hub is a per-album pubsub for row change events
type Hub struct {
	subscribers map[uint]map[*Subscriber]bool
	register    chan *Subscriber
	unregister  chan *Subscriber
	publish     chan ChangeEvent
	mu          sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{
		subscribers: make(map[uint]map[*Subscriber]bool),
		register:    make(chan *Subscriber),
		unregister:  make(chan *Subscriber),
		publish:     make(chan ChangeEvent, 256),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case sub := <-h.register:
			h.mu.Lock()
			if h.subscribers[sub.albumID] == nil {
				h.subscribers[sub.albumID] = make(map[*Subscriber]bool)
			}
			h.subscribers[sub.albumID][sub] = true
			h.mu.Unlock()
		case sub := <-h.unregister:
			h.mu.Lock()
			if subs, ok := h.subscribers[sub.albumID]; ok {
				if _, ok := subs[sub]; ok {
					delete(subs, sub)
					close(sub.ch)
					if len(subs) == 0 {
						delete(h.subscribers, sub.albumID)
					}
				}
			}
			h.mu.Unlock()
		case event := <-h.publish:
			h.mu.RLock()
			for sub := range h.subscribers[event.AlbumID] {
				select {
				case sub.ch <- event:
				default:
					// slow subscriber; drop, the next event re-triggers the same fetch
				}
			}
			h.mu.RUnlock()
		}
	}
}

// Subscribe registers a new subscriber for the album's topic.
func (h *Hub) Subscribe(albumID uint) *Subscriber {
	sub := &Subscriber{albumID: albumID, ch: make(chan ChangeEvent, 64)}
	h.register <- sub
	return sub
}

// Unsubscribe removes the subscriber and closes its event channel.
func (h *Hub) Unsubscribe(sub *Subscriber) {
	h.unregister <- sub
}

// Publish enqueues a change event for fanout to the album's subscribers.
func (h *Hub) Publish(albumID uint, table, kind, rowID string) {
	event := ChangeEvent{
		AlbumID:   albumID,
		Table:     table,
		Kind:      kind,
		RowID:     rowID,
		Timestamp: time.Now().Unix(),
	}
	select {
	case h.publish <- event:
	default:
		log.Printf("realtime: dropping event, publish channel full")
	}
}
