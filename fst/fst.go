// Package fst implements the mutable vector WFST that the graph
// builders target. Weights are in the tropical semiring: Zero is +Inf,
// One is 0, Plus is min and Times is +. States are integer ids into
// parallel per-state slices; the Fst itself is the arena.
package fst

import (
	"math"
	"sort"
)

// Label is an input or output arc label. Label 0 is always epsilon.
type Label int32

const (
	Epsilon Label = 0
	NoLabel Label = -1
)

// StateId identifies a state of an Fst.
type StateId int32

const NoState StateId = -1

// Weight is a tropical weight (a cost; -ln of a probability).
type Weight float64

// Zero is the tropical zero (an impossible path; never final).
func Zero() Weight { return Weight(math.Inf(1)) }

// One is the tropical one (a free transition).
func One() Weight { return 0 }

func (w Weight) IsZero() bool { return math.IsInf(float64(w), 1) }

// Plus is the tropical sum: min.
func Plus(a, b Weight) Weight {
	if a < b {
		return a
	}
	return b
}

// Times is the tropical product: +.
func Times(a, b Weight) Weight { return a + b }

// Arc is a weighted transition.
type Arc struct {
	ILabel    Label
	OLabel    Label
	Weight    Weight
	NextState StateId
}

// Fst is a mutable WFST over the tropical semiring. The zero value is
// not usable; construct with New().
type Fst struct {
	start StateId
	arcs  [][]Arc
	final []Weight
}

func New() *Fst {
	return &Fst{start: NoState}
}

// AddState allocates a new state and returns its id. Ids are assigned
// in allocation order starting from 0.
func (f *Fst) AddState() StateId {
	s := StateId(len(f.arcs))
	f.arcs = append(f.arcs, nil)
	f.final = append(f.final, Zero())
	return s
}

func (f *Fst) NumStates() int { return len(f.arcs) }

// SetStart marks s as the start state. Calling it again overrides the
// previous call; only the last call takes effect.
func (f *Fst) SetStart(s StateId) { f.start = s }

func (f *Fst) Start() StateId { return f.start }

// SetFinal marks s final with weight w. Zero() makes s non-final.
func (f *Fst) SetFinal(s StateId, w Weight) { f.final[s] = w }

// Final returns the final weight of s; Zero() when s is not final.
func (f *Fst) Final(s StateId) Weight { return f.final[s] }

func (f *Fst) AddArc(s StateId, a Arc) {
	f.arcs[s] = append(f.arcs[s], a)
}

func (f *Fst) NumArcs(s StateId) int { return len(f.arcs[s]) }

// Arcs returns the live arc slice of s. Mutating elements mutates the
// Fst; appending must go through AddArc.
func (f *Fst) Arcs(s StateId) []Arc { return f.arcs[s] }

// SortOrder selects the arc-sort key.
type SortOrder int

const (
	ByILabel SortOrder = iota
	ByOLabel
)

// ArcSort stably sorts the arcs of every state by the given label.
// Required before label-lookup by binary search and before composition.
func (f *Fst) ArcSort(o SortOrder) {
	for _, arcs := range f.arcs {
		a := arcs
		switch o {
		case ByILabel:
			sort.SliceStable(a, func(i, j int) bool { return a[i].ILabel < a[j].ILabel })
		case ByOLabel:
			sort.SliceStable(a, func(i, j int) bool { return a[i].OLabel < a[j].OLabel })
		}
	}
}

// FindArc binary-searches the arcs of s for the first arc with input
// label x. The arcs of s must be sorted ByILabel.
func (f *Fst) FindArc(s StateId, x Label) (Arc, bool) {
	arcs := f.arcs[s]
	i := sort.Search(len(arcs), func(i int) bool { return arcs[i].ILabel >= x })
	if i < len(arcs) && arcs[i].ILabel == x {
		return arcs[i], true
	}
	return Arc{}, false
}
