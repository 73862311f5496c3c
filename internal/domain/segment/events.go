package segment

// Phase names one of the six swing events.
type Phase string

const (
	PhaseLoadStart   Phase = "load_start"
	PhaseStridePlant Phase = "stride_plant"
	PhaseLaunch      Phase = "launch"
	PhaseContact     Phase = "contact"
	PhaseExtension   Phase = "extension"
	PhaseFinish      Phase = "finish"
)

// Phases lists the events in swing order.
func Phases() []Phase {
	return []Phase{PhaseLoadStart, PhaseStridePlant, PhaseLaunch, PhaseContact, PhaseExtension, PhaseFinish}
}

// Events holds the detected frame index of each swing event. Absent events are nil.
type Events struct {
	LoadStart   *int `json:"load_start,omitempty"`
	StridePlant *int `json:"stride_plant,omitempty"`
	Launch      *int `json:"launch,omitempty"`
	Contact     *int `json:"contact,omitempty"`
	Extension   *int `json:"extension,omitempty"`
	Finish      *int `json:"finish,omitempty"`
}

// Get returns the index for phase p when it was detected.
func (e Events) Get(p Phase) (int, bool) {
	if ptr := e.field(p); ptr != nil && *ptr != nil {
		return **ptr, true
	}
	return 0, false
}

// with returns a copy of e with phase p set to idx.
func (e Events) with(p Phase, idx int) Events {
	v := idx
	if ptr := e.field(p); ptr != nil {
		*ptr = &v
	}
	return e
}

func (e *Events) field(p Phase) **int {
	switch p {
	case PhaseLoadStart:
		return &e.LoadStart
	case PhaseStridePlant:
		return &e.StridePlant
	case PhaseLaunch:
		return &e.Launch
	case PhaseContact:
		return &e.Contact
	case PhaseExtension:
		return &e.Extension
	case PhaseFinish:
		return &e.Finish
	}
	return nil
}

// Detected returns the phases that were found, in swing order.
func (e Events) Detected() []Phase {
	var out []Phase
	for _, p := range Phases() {
		if _, ok := e.Get(p); ok {
			out = append(out, p)
		}
	}
	return out
}

// Empty reports whether no event was detected.
func (e Events) Empty() bool {
	return len(e.Detected()) == 0
}
