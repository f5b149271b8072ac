package sessions

import "sync/atomic"

// takeoverLatch records that the merchant took over the flow. It only ever moves
// from unset to set.
type takeoverLatch struct {
	set atomic.Bool
}

func newTakeoverLatch(initial bool) *takeoverLatch {
	l := &takeoverLatch{}
	l.set.Store(initial)
	return l
}

func (l *takeoverLatch) isSet() bool {
	return l.set.Load()
}

// trip sets the latch. It reports false if the latch was already set.
func (l *takeoverLatch) trip() bool {
	return l.set.CompareAndSwap(false, true)
}
