package chat

import "sync"

// topicPrefix names discussion topics by convention: discussion.<subjectID>.
const topicPrefix = "discussion."

// Topic returns the hub topic for a subject's discussion.
func Topic(subjectID string) string {
	return topicPrefix + subjectID
}

// subscriptionBuffer bounds a subscriber's inbox. Publish never blocks on a
// slow consumer: messages beyond the buffer are dropped for that subscriber
// (the view re-fetches on open, so a drop is not a data loss).
const subscriptionBuffer = 32

type (
	// Hub is an in-process, per-topic publish/subscribe channel. One hub is
	// shared by the whole server; one subscription is held per open
	// discussion feed. Subscribing the same topic twice duplicates delivery;
	// pairing Subscribe/Cancel is the caller's job.
	Hub struct {
		mu   sync.RWMutex
		subs map[string]map[*Subscription]struct{}
	}

	// Subscription is a disposable handle on a topic. Receive from C; call
	// Cancel (idempotent) to release it, which closes C.
	Subscription struct {
		C chan Message

		hub   *Hub
		topic string
		once  sync.Once
	}
)

func NewHub() *Hub {
	return &Hub{subs: make(map[string]map[*Subscription]struct{})}
}

func (h *Hub) Subscribe(topic string) *Subscription {
	sub := &Subscription{
		C:     make(chan Message, subscriptionBuffer),
		hub:   h,
		topic: topic,
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.subs[topic] == nil {
		h.subs[topic] = make(map[*Subscription]struct{})
	}
	h.subs[topic][sub] = struct{}{}
	return sub
}

// Publish delivers msg to every current subscriber of topic. Delivery is
// best-effort and in arrival order; consumers re-sort by timestamp if strict
// order matters.
func (h *Hub) Publish(topic string, msg Message) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for sub := range h.subs[topic] {
		select {
		case sub.C <- msg:
		default: // slow subscriber; drop
		}
	}
}

func (s *Subscription) Cancel() {
	s.once.Do(func() {
		s.hub.mu.Lock()
		defer s.hub.mu.Unlock()
		delete(s.hub.subs[s.topic], s)
		if len(s.hub.subs[s.topic]) == 0 {
			delete(s.hub.subs, s.topic)
		}
		close(s.C)
	})
}

func (s *Subscription) Topic() string {
	return s.topic
}
