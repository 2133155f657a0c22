package observability

import "sync"

type Trace struct {
	ID         string `json:"id"`
	Method     string `json:"method"`
	Path       string `json:"path"`
	Status     int    `json:"status"`
	DurationMs int64  `json:"duration_ms"`
	Timestamp  int64  `json:"timestamp"`
	ClientIP   string `json:"client_ip,omitempty"`
}

// Store keeps the most recent traces in a fixed-size ring.
type Store struct {
	mu     sync.Mutex
	ring   []Trace
	next   int
	filled bool
}

func NewStore(limit int) *Store {
	if limit <= 0 {
		limit = 1000
	}
	return &Store{ring: make([]Trace, limit)}
}

func (s *Store) Add(trace Trace) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ring[s.next] = trace
	s.next++
	if s.next == len(s.ring) {
		s.next = 0
		s.filled = true
	}
}

// List returns traces oldest first.
func (s *Store) List() []Trace {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.filled {
		out := make([]Trace, s.next)
		copy(out, s.ring[:s.next])
		return out
	}
	out := make([]Trace, 0, len(s.ring))
	out = append(out, s.ring[s.next:]...)
	out = append(out, s.ring[:s.next]...)
	return out
}

func (s *Store) Limit() int {
	return len(s.ring)
}
