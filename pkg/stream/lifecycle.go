package stream

import "sync"

// WriterState is the lifecycle state of a connection writer.
type WriterState string

const (
	StateOpen     WriterState = "open"
	StateDraining WriterState = "draining"
	StateClosed   WriterState = "closed"
)

type lifecycleEvent string

const (
	eventStop    lifecycleEvent = "stop"    // write failure, idle timeout, client close or shutdown
	eventDrained lifecycleEvent = "drained" // in-flight write finished and transport released
)

// writerTransitions is the complete transition table: [from][event] -> to.
var writerTransitions = map[WriterState]map[lifecycleEvent]WriterState{
	StateOpen:     {eventStop: StateDraining},
	StateDraining: {eventDrained: StateClosed},
}

// lifecycle is a minimal thread-safe state machine over writerTransitions.
type lifecycle struct {
	mu      sync.RWMutex
	current WriterState
}

func newLifecycle() *lifecycle {
	return &lifecycle{current: StateOpen}
}

func (l *lifecycle) Current() WriterState {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.current
}

func (l *lifecycle) fire(ev lifecycleEvent) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	to, ok := writerTransitions[l.current][ev]
	if !ok {
		return &ErrInvalidTransition{From: l.current, Event: string(ev)}
	}
	l.current = to
	return nil
}
