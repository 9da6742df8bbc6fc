package graph

// Back-off trigram grammar construction.

import (
	"fmt"
	"io"

	"github.com/golang/glog"
	"github.com/ishine/athena-decoder/fst"
	"github.com/kho/easy"
	"github.com/kho/stream"
)

// startKey is the map key of the empty-history back-off state.
const startKey = "<start>"

type bigram struct {
	hist, word string
}

// GrammarBuilder turns ARPA n-gram entries into the grammar transducer
// G. State 0 is the empty-history back-off sink; state 1 is the
// sentence-start state. Both are passed to SetStart during
// construction, so the last call wins and state 1 is the start.
//
// A builder instance is single-use and not safe for concurrent reuse.
type GrammarBuilder struct {
	words *Table
	g     *fst.Fst
	uni   map[string]fst.StateId
	bi    map[bigram]fst.StateId

	epsId, hashId fst.Label
}

// NewGrammarBuilder constructs a builder over the given word table.
// The table must contain <eps>, #0, <s> and </s>.
func NewGrammarBuilder(words *Table) (*GrammarBuilder, error) {
	for _, s := range []string{EpsilonSym, DisambigSym, BOS, EOS} {
		if !words.Contains(s) {
			return nil, &UnknownSymbolError{s, "words"}
		}
	}
	if words.IdOf(EpsilonSym) != fst.Epsilon {
		return nil, fmt.Errorf("words table: %s must have id 0, got %d", EpsilonSym, words.IdOf(EpsilonSym))
	}
	b := &GrammarBuilder{
		words:  words,
		g:      fst.New(),
		uni:    map[string]fst.StateId{},
		bi:     map[bigram]fst.StateId{},
		epsId:  words.IdOf(EpsilonSym),
		hashId: words.IdOf(DisambigSym),
	}
	empty := b.g.AddState()
	b.g.SetStart(empty)
	b.uni[startKey] = empty
	start := b.g.AddState()
	b.g.SetStart(start)
	b.uni[BOS] = start
	return b, nil
}

// unigram processes an order-1 entry: logp word [backoff].
func (b *GrammarBuilder) unigram(fields []string) error {
	var prob, word, boff string
	switch len(fields) {
	case 3:
		prob, word, boff = fields[0], fields[1], fields[2]
	case 2:
		prob, word, boff = fields[0], fields[1], "0.0"
	default:
		return fmt.Errorf("expect 2 or 3 fields for a 1-gram, got %d", len(fields))
	}
	if !b.words.Contains(word) {
		glog.Infof("[%s %s] skipped: out of vocabulary", prob, word)
		return nil
	}
	w, err := convertWeight(prob)
	if err != nil {
		return err
	}
	bow, err := convertWeight(boff)
	if err != nil {
		return err
	}
	switch word {
	case EOS:
		b.g.SetFinal(b.uni[startKey], w)
	case BOS:
		// Back-off from the sentence-start state to the empty history.
		b.g.AddArc(b.uni[BOS], fst.Arc{ILabel: b.hashId, OLabel: b.epsId, Weight: bow, NextState: b.uni[startKey]})
	default:
		des, ok := b.uni[word]
		if !ok {
			des = b.g.AddState()
			b.uni[word] = des
		}
		id := b.words.IdOf(word)
		b.g.AddArc(b.uni[startKey], fst.Arc{ILabel: id, OLabel: id, Weight: w, NextState: des})
		b.g.AddArc(des, fst.Arc{ILabel: b.hashId, OLabel: b.epsId, Weight: bow, NextState: b.uni[startKey]})
	}
	return nil
}

// bigram processes an order-2 entry: logp hist word [backoff].
func (b *GrammarBuilder) bigram(fields []string) error {
	var prob, hist, word, boff string
	switch len(fields) {
	case 4:
		prob, hist, word, boff = fields[0], fields[1], fields[2], fields[3]
	case 3:
		prob, hist, word, boff = fields[0], fields[1], fields[2], "0.0"
	default:
		return fmt.Errorf("expect 3 or 4 fields for a 2-gram, got %d", len(fields))
	}
	if !b.words.Contains(hist) || !b.words.Contains(word) {
		glog.Infof("[%s %s %s] skipped: out of vocabulary", prob, hist, word)
		return nil
	}
	w, err := convertWeight(prob)
	if err != nil {
		return err
	}
	bow, err := convertWeight(boff)
	if err != nil {
		return err
	}
	src, ok := b.uni[hist]
	if !ok {
		glog.Infof("[%s %s %s] skipped: no parent (n-1)-gram exists", prob, hist, word)
		return nil
	}
	if word == EOS {
		b.g.SetFinal(src, w)
		return nil
	}
	des := b.bigramState(hist, word, bow)
	id := b.words.IdOf(word)
	b.g.AddArc(src, fst.Arc{ILabel: id, OLabel: id, Weight: w, NextState: des})
	return nil
}

// trigram processes an order-3 entry: logp hist1 hist2 word. Trigrams
// terminate the model, so no back-off weight is recorded.
func (b *GrammarBuilder) trigram(fields []string) error {
	if len(fields) != 4 {
		return fmt.Errorf("expect 4 fields for a 3-gram, got %d", len(fields))
	}
	prob, hist1, hist2, word := fields[0], fields[1], fields[2], fields[3]
	if !b.words.Contains(hist1) || !b.words.Contains(hist2) || !b.words.Contains(word) {
		glog.Infof("[%s %s %s %s] skipped: out of vocabulary", prob, hist1, hist2, word)
		return nil
	}
	w, err := convertWeight(prob)
	if err != nil {
		return err
	}
	src, ok := b.bi[bigram{hist1, hist2}]
	if !ok {
		glog.Infof("[%s %s %s %s] skipped: no parent (n-1)-gram exists", prob, hist1, hist2, word)
		return nil
	}
	if word == EOS {
		b.g.SetFinal(src, w)
		return nil
	}
	des := b.bigramState(hist2, word, 0)
	id := b.words.IdOf(word)
	b.g.AddArc(src, fst.Arc{ILabel: id, OLabel: id, Weight: w, NextState: des})
	return nil
}

// bigramState returns the state of history (hist, word), allocating it
// if absent. A freshly allocated state immediately receives its
// back-off arc: to the unigram state of word when that exists, else to
// the empty-history state.
func (b *GrammarBuilder) bigramState(hist, word string, bow fst.Weight) fst.StateId {
	key := bigram{hist, word}
	if des, ok := b.bi[key]; ok {
		return des
	}
	des := b.g.AddState()
	b.bi[key] = des
	boffState, ok := b.uni[word]
	if !ok {
		boffState = b.uni[startKey]
	}
	b.g.AddArc(des, fst.Arc{ILabel: b.hashId, OLabel: b.epsId, Weight: bow, NextState: boffState})
	return des
}

// removeRedundantStates rewrites the #0 input label to <eps> on every
// state whose out-going arcs are exactly one back-off arc and whose
// final weight is Zero, then removes epsilons. Each such state is left
// with copies of its back-off target's arcs and finality; the state
// itself is not removed while a word arc still leads into it.
func (b *GrammarBuilder) removeRedundantStates() {
	for s := 0; s < b.g.NumStates(); s++ {
		p := fst.StateId(s)
		if b.g.NumArcs(p) != 1 || !b.g.Final(p).IsZero() {
			continue
		}
		arcs := b.g.Arcs(p)
		if arcs[0].ILabel == b.hashId {
			arcs[0].ILabel = b.epsId
		}
	}
	b.g.RmEpsilon()
}

// Finish compacts redundant back-off states and returns G arc-sorted
// by input label, ready for composition on the left with L.
func (b *GrammarBuilder) Finish() *fst.Fst {
	b.removeRedundantStates()
	b.g.ArcSort(fst.ByILabel)
	return b.g
}

// FromARPA builds the grammar transducer from ARPA text.
func FromARPA(in io.Reader, words *Table) (*fst.Fst, error) {
	b, err := NewGrammarBuilder(words)
	if err != nil {
		return nil, err
	}
	if err := stream.Run(stream.EnumRead(in, scanLine), &arpaScan{g: b}); err != nil {
		return nil, err
	}
	return b.Finish(), nil
}

// BuildGrammar builds the grammar transducer from an ARPA file.
func BuildGrammar(arpaFile string, words *Table) (*fst.Fst, error) {
	in, err := easy.Open(arpaFile)
	if err != nil {
		return nil, err
	}
	defer in.Close()
	return FromARPA(in, words)
}
