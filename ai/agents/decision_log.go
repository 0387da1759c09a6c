package agent

import (
	"sync"
	"time"

	"github.com/czapol/multi-agent-playground/ai/routing"
)

// DecisionLog is the time-ordered record of routing decisions for one session.
// It implements routing.Recorder.
type DecisionLog struct {
	mu      sync.RWMutex
	entries []routing.Decision
	last    time.Time
}

func NewDecisionLog() *DecisionLog {
	return &DecisionLog{}
}

// Record appends d with the next sequence number. A timestamp earlier than
// the previous entry's is raised to it so the log stays ordered.
func (l *DecisionLog) Record(d routing.Decision) routing.Decision {
	l.mu.Lock()
	defer l.mu.Unlock()

	d.Seq = len(l.entries) + 1
	if d.Timestamp.Before(l.last) {
		d.Timestamp = l.last
	}
	l.last = d.Timestamp
	l.entries = append(l.entries, d)
	return d
}

// Entries returns a copy of every decision in order.
func (l *DecisionLog) Entries() []routing.Decision {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]routing.Decision, len(l.entries))
	copy(out, l.entries)
	return out
}

// Since returns decisions with Seq greater than seq.
func (l *DecisionLog) Since(seq int) []routing.Decision {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if seq < 0 {
		seq = 0
	}
	if seq >= len(l.entries) {
		return nil
	}
	out := make([]routing.Decision, len(l.entries)-seq)
	copy(out, l.entries[seq:])
	return out
}

func (l *DecisionLog) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}

// CountBy returns how many entries were produced by the given router.
func (l *DecisionLog) CountBy(by routing.DecidedBy) int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	n := 0
	for _, d := range l.entries {
		if d.DecidedBy == by {
			n++
		}
	}
	return n
}
