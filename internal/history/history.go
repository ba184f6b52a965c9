// Package history implements the bounded message ring described in
// spec.md §4.7: FIFO eviction once a size cap is exceeded, strictly
// increasing ids, and text/topic search over retained messages.
package history

import (
	"fmt"
	"strings"
	"sync"

	"github.com/opsnest/adminshell/internal/clock"
	"github.com/opsnest/adminshell/internal/filter"
	"github.com/opsnest/adminshell/internal/model"
)

// MessageHistory is a ring of (id, Message) owned by one shell session.
// Every method takes the internal mutex, so concurrent calls from several
// goroutines are safe.
type MessageHistory struct {
	mu           sync.Mutex
	maxMessages  int
	nextID       uint64
	byID         map[uint64]model.Message
	order        []uint64
	topicMatcher filter.TopicMatcher
	clk          clock.Clock
}

// New builds a MessageHistory capped at maxMessages entries, timestamping
// with the real wall clock. A non-positive cap is treated as 1 so the ring
// always evicts down to at least the newest message.
func New(maxMessages int) *MessageHistory {
	return NewWithClock(maxMessages, clock.New())
}

// NewWithClock is New with an injectable clock, so Add's fallback
// timestamping can be driven by a clock.Mock in tests.
func NewWithClock(maxMessages int, c clock.Clock) *MessageHistory {
	if maxMessages <= 0 {
		maxMessages = 1
	}
	return &MessageHistory{
		maxMessages:  maxMessages,
		byID:         make(map[uint64]model.Message),
		topicMatcher: filter.ExactTopicMatcher{},
		clk:          c,
	}
}

// SetTopicMatcher injects a pattern-aware matcher for GetByTopic, e.g.
// filter.MQTTWildcardTopicMatcher.
func (h *MessageHistory) SetTopicMatcher(m filter.TopicMatcher) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.topicMatcher = m
}

// Add assigns the next id, inserts the message, and evicts the oldest
// entries while the ring exceeds its cap. The returned id is never
// reused after eviction; Clear resets the counter, so ids start again
// at 1 after a Clear. A message arriving with a zero
// Timestamp (the transport didn't set one) is stamped with the history's
// clock instead of being retained as the zero time.
func (h *MessageHistory) Add(m model.Message) uint64 {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.nextID++
	id := h.nextID
	m.ID = id
	if m.Timestamp.IsZero() {
		m.Timestamp = h.clk.Now()
	}
	h.byID[id] = m
	h.order = append(h.order, id)

	for len(h.order) > h.maxMessages {
		evict := h.order[0]
		h.order = h.order[1:]
		delete(h.byID, evict)
	}
	return id
}

// Get returns the message with the given id, if still retained.
func (h *MessageHistory) Get(id uint64) (model.Message, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	m, ok := h.byID[id]
	return m, ok
}

// GetLatest returns the most recently added message, if any.
func (h *MessageHistory) GetLatest() (model.Message, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.order) == 0 {
		return model.Message{}, false
	}
	return h.byID[h.order[len(h.order)-1]], true
}

// GetLatestID returns the id most recently handed out, or 0 if nothing
// has been added yet (note: this id may since have been evicted).
func (h *MessageHistory) GetLatestID() uint64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.nextID
}

// GetLast returns up to n of the newest retained messages, newest-first.
func (h *MessageHistory) GetLast(n int) []model.Message {
	h.mu.Lock()
	defer h.mu.Unlock()
	if n <= 0 || len(h.order) == 0 {
		return nil
	}
	if n > len(h.order) {
		n = len(h.order)
	}
	out := make([]model.Message, n)
	for i := 0; i < n; i++ {
		out[i] = h.byID[h.order[len(h.order)-1-i]]
	}
	return out
}

// Count reports how many messages the ring currently retains.
func (h *MessageHistory) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.order)
}

// Search performs a case-insensitive substring match over the
// stringified payload and the message's source/topic field, returning
// up to limit results newest-first. limit<=0 means unbounded.
func (h *MessageHistory) Search(text string, limit int) []model.Message {
	h.mu.Lock()
	defer h.mu.Unlock()

	needle := strings.ToLower(text)
	var out []model.Message
	for i := len(h.order) - 1; i >= 0; i-- {
		m := h.byID[h.order[i]]
		haystack := strings.ToLower(m.Source + " " + fmt.Sprintf("%v", m.Payload))
		if strings.Contains(haystack, needle) {
			out = append(out, m)
			if limit > 0 && len(out) >= limit {
				break
			}
		}
	}
	return out
}

// GetByTopic returns every retained message whose source satisfies the
// configured topic matcher against pattern, newest-first.
func (h *MessageHistory) GetByTopic(pattern string) []model.Message {
	h.mu.Lock()
	defer h.mu.Unlock()

	var out []model.Message
	for i := len(h.order) - 1; i >= 0; i-- {
		m := h.byID[h.order[i]]
		if h.topicMatcher.Match(pattern, m.Source) {
			out = append(out, m)
		}
	}
	return out
}

// Export returns retained messages in wire map form, oldest-first, for
// serialization. limit>0 keeps only the newest limit entries; limit<=0
// means unbounded.
func (h *MessageHistory) Export(limit int) []map[string]any {
	h.mu.Lock()
	defer h.mu.Unlock()

	ids := h.order
	if limit > 0 && limit < len(ids) {
		ids = ids[len(ids)-limit:]
	}
	out := make([]map[string]any, len(ids))
	for i, id := range ids {
		out[i] = h.byID[id].ToMap()
	}
	return out
}

// Clear empties the ring and resets the id counter to 0, matching
// spec.md §4.7.
func (h *MessageHistory) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.byID = make(map[uint64]model.Message)
	h.order = nil
	h.nextID = 0
}
