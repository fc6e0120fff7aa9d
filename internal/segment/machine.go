package segment

// State is the segmenter's current phase.
type State int

const (
	Idle State = iota
	Descending
	Ascending
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Descending:
		return "descending"
	case Ascending:
		return "ascending"
	default:
		return "unknown"
	}
}

// Span is an index range closed by the machine.
type Span struct {
	Type       Type
	Start, End int
}

// Machine is the segmenter state between two samples. It is a value type;
// Step returns the next state instead of mutating the receiver.
type Machine struct {
	State      State
	Start      int     // index where the open segment began
	StartEle   float64 // elevation at Start
	ExtremeEle float64 // running minimum (descending) or maximum (ascending)
	ExtremeIdx int
}

// NewMachine returns an idle machine anchored at index 0.
func NewMachine(firstEle float64) Machine {
	return Machine{
		State:      Idle,
		StartEle:   firstEle,
		ExtremeEle: firstEle,
	}
}

// Step feeds the sample at index i with elevation ele. When the sample
// rebounds more than Threshold from the running extreme, the open segment is
// closed at the extreme and returned with closed == true.
func (m Machine) Step(ele float64, i int) (next Machine, span Span, closed bool) {
	next = m

	switch m.State {
	case Idle:
		switch {
		case ele < m.StartEle-Threshold:
			next.State = Descending
			next.ExtremeEle, next.ExtremeIdx = ele, i
		case ele > m.StartEle+Threshold:
			next.State = Ascending
			next.ExtremeEle, next.ExtremeIdx = ele, i
		}

	case Descending:
		if ele < next.ExtremeEle {
			next.ExtremeEle, next.ExtremeIdx = ele, i
		}
		if ele > next.ExtremeEle+Threshold {
			span = Span{Type: Descent, Start: m.Start, End: next.ExtremeIdx}
			next = next.turn(Ascending, ele, i)
			closed = true
		}

	case Ascending:
		if ele > next.ExtremeEle {
			next.ExtremeEle, next.ExtremeIdx = ele, i
		}
		if ele < next.ExtremeEle-Threshold {
			span = Span{Type: Ascent, Start: m.Start, End: next.ExtremeIdx}
			next = next.turn(Descending, ele, i)
			closed = true
		}
	}

	return next, span, closed
}

// turn starts the opposite segment at the extreme that closed the previous one.
func (m Machine) turn(state State, ele float64, i int) Machine {
	return Machine{
		State:      state,
		Start:      m.ExtremeIdx,
		StartEle:   m.ExtremeEle,
		ExtremeEle: ele,
		ExtremeIdx: i,
	}
}

// Close ends the open segment at lastIdx. It reports false when the machine
// is idle or the open segment already ends at the last sample.
func (m Machine) Close(lastIdx int) (Span, bool) {
	if m.State == Idle || m.Start >= lastIdx {
		return Span{}, false
	}

	t := Descent
	if m.State == Ascending {
		t = Ascent
	}
	return Span{Type: t, Start: m.Start, End: lastIdx}, true
}
