package sandbox

import "github.com/milk9111/keeperai/computer"

// EventQueue is a FIFO of game events addressed to one player.
type EventQueue struct {
	items []computer.GameEvent
}

// Push adds an event.
func (q *EventQueue) Push(evt computer.GameEvent) {
	if q == nil {
		return
	}
	q.items = append(q.items, evt)
}

// Drain returns all events and clears the queue.
func (q *EventQueue) Drain() []computer.GameEvent {
	if q == nil || len(q.items) == 0 {
		return nil
	}
	out := q.items
	q.items = nil
	return out
}

// DropBefore discards events raised before turn.
func (q *EventQueue) DropBefore(turn computer.Turn) int {
	if q == nil {
		return 0
	}
	kept := q.items[:0]
	for _, ev := range q.items {
		if ev.Turn >= turn {
			kept = append(kept, ev)
		}
	}
	dropped := len(q.items) - len(kept)
	clear(q.items[len(kept):])
	q.items = kept
	return dropped
}

// Len reports the number of queued events.
func (q *EventQueue) Len() int {
	if q == nil {
		return 0
	}
	return len(q.items)
}
