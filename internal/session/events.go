package session

import "sync"

// Event is one stage-lifecycle notification pushed to watchers.
type Event struct {
	RunID   string `json:"run_id,omitempty"`
	Stage   string `json:"stage,omitempty"`
	Type    string `json:"type"`
	Message string `json:"message,omitempty"`
}

// Event types.
const (
	EventStarted   = "started"
	EventCompleted = "completed"
	EventFailed    = "failed"
	EventCancelled = "cancelled"
	EventRefining  = "refining"
	EventReverted  = "reverted"
	EventExported  = "exported"
)

// hub fans events out to subscribers. Slow subscribers drop events
// rather than stalling the pipeline.
type hub struct {
	mu   sync.Mutex
	subs map[chan Event]struct{}
}

func newHub() *hub {
	return &hub{subs: map[chan Event]struct{}{}}
}

func (h *hub) subscribe() (chan Event, func()) {
	ch := make(chan Event, 32)
	h.mu.Lock()
	h.subs[ch] = struct{}{}
	h.mu.Unlock()
	return ch, func() {
		h.mu.Lock()
		delete(h.subs, ch)
		h.mu.Unlock()
		close(ch)
	}
}

func (h *hub) emit(ev Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}
