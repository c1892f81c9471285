package crash

import (
	"encoding/json"
)

type Tselector string

// Events holds the armed events, one per label.
type Events struct {
	Evs map[Tselector]Tevent `json:"evs"`
}

func NewEvents(es ...Tevent) *Events {
	evs := &Events{Evs: make(map[Tselector]Tevent, len(es))}
	for _, e := range es {
		evs.Insert(e)
	}
	return evs
}

// ParseEvents decodes the form produced by Marshal. The empty string
// is no events.
func ParseEvents(s string) (*Events, error) {
	evs := NewEvents()
	if s == "" {
		return evs, nil
	}
	if err := json.Unmarshal([]byte(s), evs); err != nil {
		return nil, err
	}
	return evs, nil
}

func (evs *Events) Marshal() (string, error) {
	b, err := json.Marshal(evs)
	return string(b), err
}

func (evs *Events) Insert(e Tevent) {
	evs.Evs[Tselector(e.Label)] = e
}

func (evs *Events) Lookup(l Tselector) (Tevent, bool) {
	e, ok := evs.Evs[l]
	return e, ok
}
