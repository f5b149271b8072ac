package sessions

import (
	"sync"
	"time"

	"github.com/adyen/checkout-sessions-go/internal/sessions/eventbus"
)

// SessionStore holds the current session model. The interactor is its only writer;
// readers may observe it concurrently, and every token change is published on the bus
// under Topic(id, KindToken) with the new SessionModel as payload.
type SessionStore struct {
	writeMu        sync.Mutex // orders updates together with their notifications
	mu             sync.RWMutex
	session        SessionModel
	bus            *eventbus.EventBus
	publishTimeout time.Duration
}

func newSessionStore(session SessionModel, bus *eventbus.EventBus, publishTimeout time.Duration) *SessionStore {
	return &SessionStore{session: session, bus: bus, publishTimeout: publishTimeout}
}

// Session returns the current session model.
func (s *SessionStore) Session() SessionModel {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session
}

// UpdateSessionData replaces the token and notifies observers. Setting the current
// token again changes nothing and notifies no one. It reports whether the token changed.
func (s *SessionStore) UpdateSessionData(sessionData string) bool {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.Lock()
	if s.session.SessionData == sessionData {
		s.mu.Unlock()
		return false
	}
	s.session.SessionData = sessionData
	updated := s.session
	s.mu.Unlock()

	if s.bus != nil {
		s.bus.Publish(Topic(updated.ID, KindToken), updated, s.publishTimeout)
	}
	return true
}

// Subscribe returns a channel of SessionModel events, one per token change after the
// call. Use Session for the current value.
func (s *SessionStore) Subscribe(bufferSize int) (<-chan eventbus.Event, func()) {
	return s.bus.Subscribe(Topic(s.Session().ID, KindToken), bufferSize)
}
