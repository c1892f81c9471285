// The crash package is used by the memory collaborator to fail
// allocations on demand, so that callers' rollback paths can be
// exercised.
package crash

import (
	"fmt"
	"math/rand"
	"sync"

	db "cfsos/debug"
)

const (
	VM_KALLOC  Tselector = "VM_KALLOC"
	VM_UVMCOPY Tselector = "VM_UVMCOPY"
)

type Tevent struct {
	Label string `json:"label"`

	// probability of raising the event on a call
	Prob float64 `json:"prob"`

	// number of calls to let through before raising events
	Start int64 `json:"start"`

	// number of times to raise the event (<= 0 is unlimited)
	N int `json:"n"`
}

type EventOpt func(*Tevent)

func WithStart(n int64) EventOpt {
	return func(e *Tevent) { e.Start = n }
}

func WithN(n int) EventOpt {
	return func(e *Tevent) { e.N = n }
}

func NewEvent(l Tselector, p float64, opts ...EventOpt) Tevent {
	e := Tevent{Label: string(l), Prob: p}
	for _, opt := range opts {
		opt(&e)
	}
	return e
}

func (e *Tevent) String() string {
	return fmt.Sprintf("{l %v p %v s %v n %v}", e.Label, e.Prob, e.Start, e.N)
}

type tstate struct {
	ncall  int64
	nraise int
}

var (
	mu     sync.Mutex
	labels = NewEvents()
	states = make(map[Tselector]*tstate)
)

// SetEvents replaces the active events and resets their counters.
func SetEvents(evs *Events) {
	mu.Lock()
	defer mu.Unlock()
	labels = evs
	states = make(map[Tselector]*tstate)
	db.DPrintf(db.CRASH, "Events %v", labels)
}

func SetEventsString(s string) error {
	evs, err := ParseEvents(s)
	if err != nil {
		return err
	}
	SetEvents(evs)
	return nil
}

func ClearEvents() {
	SetEvents(NewEvents())
}

// Fail reports whether the event for label fires on this call.
func Fail(label Tselector) bool {
	mu.Lock()
	defer mu.Unlock()

	e, ok := labels.Lookup(label)
	if !ok {
		return false
	}
	st, ok := states[label]
	if !ok {
		st = &tstate{}
		states[label] = st
	}
	st.ncall += 1
	if st.ncall <= e.Start {
		return false
	}
	if e.N > 0 && st.nraise >= e.N {
		return false
	}
	if rand.Float64() < e.Prob {
		st.nraise += 1
		db.DPrintf(db.CRASH, "Raise event %v ncall %d nraise %d", label, st.ncall, st.nraise)
		return true
	}
	return false
}
