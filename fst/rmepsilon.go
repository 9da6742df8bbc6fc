package fst

// Epsilon removal and connection.

import "sort"

// RmEpsilon removes all eps:eps arcs. Each state receives, for every
// state in its epsilon closure, copies of that state's non-epsilon
// arcs with the closure distance Times-ed in, and its finality
// Plus-merged the same way. The result is then Connect()-ed, so states
// left with no path from start to a final state disappear.
func (f *Fst) RmEpsilon() {
	orig := f.arcs
	newArcs := make([][]Arc, len(orig))
	newFinal := make([]Weight, len(orig))
	for i := range orig {
		s := StateId(i)
		closure := f.epsClosure(s, orig)
		members := make([]StateId, 0, len(closure))
		for q := range closure {
			members = append(members, q)
		}
		sort.Slice(members, func(i, j int) bool { return members[i] < members[j] })
		final := Zero()
		var arcs []Arc
		for _, q := range members {
			d := closure[q]
			for _, a := range orig[q] {
				if a.ILabel == Epsilon && a.OLabel == Epsilon {
					continue
				}
				arcs = append(arcs, Arc{a.ILabel, a.OLabel, Times(d, a.Weight), a.NextState})
			}
			final = Plus(final, Times(d, f.final[q]))
		}
		newArcs[i] = arcs
		newFinal[i] = final
	}
	f.arcs, f.final = newArcs, newFinal
	f.Connect()
}

// epsClosure returns the tropical shortest eps:eps distance from s to
// every state reachable through eps:eps arcs, including s at One.
func (f *Fst) epsClosure(s StateId, arcs [][]Arc) map[StateId]Weight {
	dist := map[StateId]Weight{s: One()}
	queue := []StateId{s}
	for len(queue) > 0 {
		p := queue[len(queue)-1]
		queue = queue[:len(queue)-1]
		for _, a := range arcs[p] {
			if a.ILabel != Epsilon || a.OLabel != Epsilon {
				continue
			}
			nd := Times(dist[p], a.Weight)
			if d, ok := dist[a.NextState]; !ok || nd < d {
				dist[a.NextState] = nd
				queue = append(queue, a.NextState)
			}
		}
	}
	return dist
}

// Connect removes every state that is not both accessible from the
// start state and coaccessible to a final state, renumbering the
// survivors densely in their original allocation order.
func (f *Fst) Connect() {
	n := len(f.arcs)
	if f.start == NoState {
		f.arcs, f.final = nil, nil
		return
	}
	acc := make([]bool, n)
	stack := []StateId{f.start}
	acc[f.start] = true
	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, a := range f.arcs[p] {
			if !acc[a.NextState] {
				acc[a.NextState] = true
				stack = append(stack, a.NextState)
			}
		}
	}
	// Reverse reachability from final states.
	rev := make([][]StateId, n)
	for i, arcs := range f.arcs {
		for _, a := range arcs {
			rev[a.NextState] = append(rev[a.NextState], StateId(i))
		}
	}
	coacc := make([]bool, n)
	for i := range f.final {
		if !f.final[i].IsZero() {
			coacc[i] = true
			stack = append(stack, StateId(i))
		}
	}
	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, q := range rev[p] {
			if !coacc[q] {
				coacc[q] = true
				stack = append(stack, q)
			}
		}
	}
	remap := make([]StateId, n)
	next := StateId(0)
	for i := 0; i < n; i++ {
		if acc[i] && coacc[i] {
			remap[i] = next
			next++
		} else {
			remap[i] = NoState
		}
	}
	if remap[f.start] == NoState {
		f.arcs, f.final = nil, nil
		f.start = NoState
		return
	}
	arcs := make([][]Arc, next)
	final := make([]Weight, next)
	for i := 0; i < n; i++ {
		if remap[i] == NoState {
			continue
		}
		var kept []Arc
		for _, a := range f.arcs[i] {
			if remap[a.NextState] == NoState {
				continue
			}
			a.NextState = remap[a.NextState]
			kept = append(kept, a)
		}
		arcs[remap[i]] = kept
		final[remap[i]] = f.final[i]
	}
	f.arcs, f.final = arcs, final
	f.start = remap[f.start]
}
