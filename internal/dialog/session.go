package dialog

import (
	"context"
	"sync"
)

// flow is one running workflow. Each implementation keeps its own small
// state enumeration.
type flow interface {
	// name identifies the workflow in logs.
	name() string
	// state names the current state in logs.
	state() string
	// step advances the workflow by one event. done ends the session.
	step(t *turn) (replies []Reply, done bool)
	// cancelText is the notice shown when the session is cancelled.
	cancelText(e *Engine) string
}

// subCanceler is implemented by flows whose nested sub-flow has its own
// "cancel" that returns to a parent menu instead of ending the session.
type subCanceler interface {
	cancelSubFlow(t *turn) (Reply, bool)
}

// turn carries one event through the engine.
type turn struct {
	ctx    context.Context
	e      *Engine
	chatID string
	ev     Event
}

// slot holds the session of one conversation. Its mutex serialises events of
// that conversation.
type slot struct {
	mu   sync.Mutex
	flow flow
}

// sessions is keyed only by conversation id.
type sessions struct {
	mu    sync.Mutex
	slots map[string]*slot
}

func newSessions() *sessions {
	return &sessions{slots: make(map[string]*slot)}
}

// lock returns the locked slot of chatID. Slots are never removed, so two
// goroutines can never hold different slots for one conversation.
func (s *sessions) lock(chatID string) *slot {
	s.mu.Lock()
	sl, ok := s.slots[chatID]
	if !ok {
		sl = &slot{}
		s.slots[chatID] = sl
	}
	s.mu.Unlock()
	sl.mu.Lock()
	return sl
}

// active counts conversations with a workflow in progress. It skips slots
// that are busy rather than waiting on them.
func (s *sessions) active() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, sl := range s.slots {
		if !sl.mu.TryLock() {
			n++
			continue
		}
		if sl.flow != nil {
			n++
		}
		sl.mu.Unlock()
	}
	return n
}
