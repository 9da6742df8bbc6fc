package graph

// Scoring a word sequence against a compiled grammar transducer.

import (
	"github.com/ishine/athena-decoder/fst"
)

// Score walks G over a sentence (without <s> or </s>) and returns the
// tropical path weight including finality. At each state the word's
// lexical arc is taken when present; otherwise the #0 back-off arc is
// charged and the word retried from the shorter history. A word with
// no path, or absent from the word table, scores Zero. G must be
// arc-sorted by input label, as Finish leaves it.
func Score(g *fst.Fst, words *Table, sent []string) fst.Weight {
	hashId := words.IdOf(DisambigSym)
	p := g.Start()
	if p == fst.NoState {
		return fst.Zero()
	}
	total := fst.One()
	for _, word := range sent {
		id := words.IdOf(word)
		if id == fst.NoLabel {
			return fst.Zero()
		}
		for {
			if a, ok := g.FindArc(p, id); ok {
				total = fst.Times(total, a.Weight)
				p = a.NextState
				break
			}
			a, ok := g.FindArc(p, hashId)
			if !ok {
				return fst.Zero()
			}
			total = fst.Times(total, a.Weight)
			p = a.NextState
		}
	}
	for {
		if f := g.Final(p); !f.IsZero() {
			return fst.Times(total, f)
		}
		a, ok := g.FindArc(p, hashId)
		if !ok {
			return fst.Zero()
		}
		total = fst.Times(total, a.Weight)
		p = a.NextState
	}
}
