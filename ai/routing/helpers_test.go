package routing

import (
	"fmt"
	"sync"
	"time"
)

// fakeView is a fixed ContextView.
type fakeView struct {
	turns int
	last  Capability
}

func (v fakeView) TurnCount() int { return v.turns }

func (v fakeView) LastCapability() (Capability, bool) {
	return v.last, v.last != ""
}

// memRecorder collects recorded decisions and assigns sequence numbers.
type memRecorder struct {
	mu        sync.Mutex
	decisions []Decision
}

func (r *memRecorder) Record(d Decision) Decision {
	r.mu.Lock()
	defer r.mu.Unlock()
	d.Seq = len(r.decisions) + 1
	r.decisions = append(r.decisions, d)
	return d
}

func testConfig() Config {
	cfg := DefaultConfig()
	n := 0
	cfg.NewID = func() string {
		n++
		return fmt.Sprintf("d-%d", n)
	}
	cfg.Now = func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }
	return cfg
}

func query(text string) Query {
	return Query{Text: text, ArrivedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
}
