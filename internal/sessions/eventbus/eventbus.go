// Package eventbus provides the in-memory publish/subscribe bus over which a session
// interactor broadcasts token rotations and call results to its observers.
// Topics are dot-separated; subscribers may use "*" to match a single segment.
package eventbus

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// Event is a single published value.
type Event struct {
	Topic string // topic the event was published on
	Data  any    // event payload
}

type subscriber struct {
	id      string
	pattern string
	ch      chan Event
	ctx     context.Context
	cancel  context.CancelFunc

	mu     sync.Mutex
	closed bool
}

func (s *subscriber) timedSend(event Event, timeout time.Duration) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return false
	}

	if timeout <= 0 {
		select {
		case s.ch <- event:
			return true
		default:
			return false
		}
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case s.ch <- event:
		return true
	case <-timer.C:
		return false
	}
}

func (s *subscriber) close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.closed {
		s.closed = true
		s.cancel()
		close(s.ch)
	}
}

// EventBus routes published events to subscribers whose pattern matches the topic.
type EventBus struct {
	sync.RWMutex
	subscribers map[string]map[string]*subscriber // pattern -> subscriberID -> subscriber
	counter     uint64
}

// New creates a new EventBus instance.
func New() *EventBus {
	return &EventBus{
		subscribers: make(map[string]map[string]*subscriber),
	}
}

// Subscribe registers interest in pattern and returns the delivery channel together
// with the function that unsubscribes and closes it.
func (bus *EventBus) Subscribe(pattern string, bufferSize int) (<-chan Event, func()) {
	id := fmt.Sprintf("sub-%d", atomic.AddUint64(&bus.counter, 1))

	ctx, cancel := context.WithCancel(context.Background())
	sub := &subscriber{
		id:      id,
		pattern: pattern,
		ch:      make(chan Event, bufferSize),
		ctx:     ctx,
		cancel:  cancel,
	}

	bus.Lock()
	if _, ok := bus.subscribers[pattern]; !ok {
		bus.subscribers[pattern] = make(map[string]*subscriber)
	}
	bus.subscribers[pattern][id] = sub
	bus.Unlock()

	unsubscribe := func() {
		bus.Lock()
		defer bus.Unlock()

		if subMap, ok := bus.subscribers[pattern]; ok {
			if s, ok := subMap[id]; ok {
				s.close()
				delete(subMap, id)
				if len(subMap) == 0 {
					delete(bus.subscribers, pattern)
				}
			}
		}
	}

	return sub.ch, unsubscribe
}

// Publish delivers an event to every matching subscriber and returns how many received it.
// A subscriber whose buffer stays full for longer than timeout misses the event.
func (bus *EventBus) Publish(topic string, data any, timeout time.Duration) int {
	event := Event{Topic: topic, Data: data}
	delivered := 0

	bus.RLock()
	defer bus.RUnlock()

	for pattern, subMap := range bus.subscribers {
		if !matchTopic(pattern, topic) {
			continue
		}
		for _, sub := range subMap {
			select {
			case <-sub.ctx.Done():
				continue
			default:
			}
			if sub.timedSend(event, timeout) {
				delivered++
			}
		}
	}
	return delivered
}

// CloseAllForPattern closes every subscriber whose pattern matches the given topic pattern.
func (bus *EventBus) CloseAllForPattern(pattern string) {
	bus.Lock()
	defer bus.Unlock()

	for p, subMap := range bus.subscribers {
		if p == pattern || matchTopic(pattern, p) {
			for _, sub := range subMap {
				sub.close()
			}
			delete(bus.subscribers, p)
		}
	}
}

// Shutdown closes all subscribers and clears the bus.
func (bus *EventBus) Shutdown() {
	bus.Lock()
	defer bus.Unlock()

	for _, subs := range bus.subscribers {
		for _, sub := range subs {
			sub.close()
		}
	}
	bus.subscribers = make(map[string]map[string]*subscriber)
}

// SubscriberCount returns the number of live subscribers.
func (bus *EventBus) SubscriberCount() int {
	bus.RLock()
	defer bus.RUnlock()

	n := 0
	for _, subMap := range bus.subscribers {
		n += len(subMap)
	}
	return n
}

// matchTopic reports whether topic matches pattern. "*" alone matches everything;
// otherwise both must have the same number of segments and "*" matches one segment.
func matchTopic(pattern, topic string) bool {
	if pattern == "" || topic == "" {
		return false
	}
	if pattern == "*" || pattern == topic {
		return true
	}
	patternParts := strings.Split(pattern, ".")
	topicParts := strings.Split(topic, ".")

	if len(patternParts) != len(topicParts) {
		return false
	}

	for i := range patternParts {
		if patternParts[i] == "*" {
			continue
		}
		if patternParts[i] != topicParts[i] {
			return false
		}
	}
	return true
}
