package graph

import (
	"math"
	"strings"
	"testing"

	"github.com/ishine/athena-decoder/fst"
)

// readyGrammar feeds n-gram field lines straight into the builder,
// leaving it un-finished so the raw topology can be inspected.
func readyGrammar(t *testing.T, words *Table, uni, bi, tri []string) *GrammarBuilder {
	t.Helper()
	b, err := NewGrammarBuilder(words)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, line := range uni {
		if err := b.unigram(strings.Fields(line)); err != nil {
			t.Fatalf("unigram %q: unexpected error: %v", line, err)
		}
	}
	for _, line := range bi {
		if err := b.bigram(strings.Fields(line)); err != nil {
			t.Fatalf("bigram %q: unexpected error: %v", line, err)
		}
	}
	for _, line := range tri {
		if err := b.trigram(strings.Fields(line)); err != nil {
			t.Fatalf("trigram %q: unexpected error: %v", line, err)
		}
	}
	return b
}

func TestGrammarBuilderRequiresSymbols(t *testing.T) {
	for _, missing := range []string{EpsilonSym, DisambigSym, BOS, EOS} {
		tab := NewTable()
		for _, s := range []string{EpsilonSym, "a", DisambigSym, BOS, EOS} {
			if s != missing {
				tab.Add(s)
			}
		}
		if _, err := NewGrammarBuilder(tab); err == nil {
			t.Errorf("missing %q: expected error", missing)
		}
	}
	// <eps> present but not at id 0.
	tab := NewTable()
	for _, s := range []string{"a", EpsilonSym, DisambigSym, BOS, EOS} {
		tab.Add(s)
	}
	if _, err := NewGrammarBuilder(tab); err == nil {
		t.Error("misplaced <eps>: expected error")
	}
}

func TestGrammarStartStates(t *testing.T) {
	// Both the empty-history state and the <s> state are passed to
	// SetStart; the <s> state (id 1) wins.
	b := readyGrammar(t, testWords("a"), []string{"-2 <s> -0.5", "-1 </s>", "-1 a"}, nil, nil)
	if b.g.Start() != 1 {
		t.Errorf("expected start state 1; got %d", b.g.Start())
	}
	if b.uni[startKey] != 0 || b.uni[BOS] != 1 {
		t.Errorf("expected <start> at 0 and <s> at 1; got %d, %d", b.uni[startKey], b.uni[BOS])
	}
	// The <s> unigram adds the back-off arc into the empty history.
	arcs := b.g.Arcs(1)
	if len(arcs) != 1 {
		t.Fatalf("expected one arc out of the start state; got %v", arcs)
	}
	want := fst.Arc{ILabel: b.hashId, OLabel: b.epsId, Weight: fst.Weight(math.Ln10 * 0.5), NextState: 0}
	if diff := math.Abs(float64(arcs[0].Weight - want.Weight)); arcs[0].ILabel != want.ILabel ||
		arcs[0].OLabel != want.OLabel || arcs[0].NextState != want.NextState || diff >= 1e-9 {
		t.Errorf("expected back-off arc %+v; got %+v", want, arcs[0])
	}
}

// Every word closing a retained unigram owns exactly one state,
// reachable from the empty-history state by a w:w arc, with exactly
// one outgoing back-off arc.
func TestGrammarUnigramStates(t *testing.T) {
	words := testWords("a", "b")
	b := readyGrammar(t, words,
		[]string{"-2 <s> -0.5", "-1 </s>", "-1 a -0.25", "-1.5 b"}, nil, nil)
	for _, w := range []string{"a", "b"} {
		q, ok := b.uni[w]
		if !ok {
			t.Fatalf("no state for unigram %q", w)
		}
		id := words.IdOf(w)
		var incoming int
		for _, a := range b.g.Arcs(b.uni[startKey]) {
			if a.ILabel == id {
				incoming++
				if a.OLabel != id || a.NextState != q {
					t.Errorf("unigram arc for %q mangled: %+v", w, a)
				}
			}
		}
		if incoming != 1 {
			t.Errorf("expected one %s:%s arc from the empty history; got %d", w, w, incoming)
		}
		arcs := b.g.Arcs(q)
		if len(arcs) != 1 || arcs[0].ILabel != b.hashId || arcs[0].NextState != b.uni[startKey] {
			t.Errorf("state of %q: expected a single back-off arc; got %v", w, arcs)
		}
	}
	if w := b.g.Final(b.uni[startKey]); math.Abs(float64(w)-math.Ln10) >= 1e-9 {
		t.Errorf("expected </s> to set the empty-history final weight to ln10; got %g", w)
	}
}

func TestGrammarBigramTrigram(t *testing.T) {
	words := testWords("a", "b")
	b := readyGrammar(t, words,
		[]string{"-2 <s> -0.5", "-1 </s>", "-1 a -0.25", "-1.5 b -0.1"},
		[]string{"-0.3 a b -0.05", "-0.7 a </s>"},
		[]string{"-0.5 a b </s>", "-0.9 a b a"})
	qab, ok := b.bi[bigram{"a", "b"}]
	if !ok {
		t.Fatal("no state for bigram (a, b)")
	}
	// Its back-off arc goes to the unigram state of b.
	arcs := b.g.Arcs(qab)
	if arcs[0].ILabel != b.hashId || arcs[0].NextState != b.uni["b"] {
		t.Errorf("bigram back-off arc mangled: %+v", arcs[0])
	}
	// "a </s>" sets finality on the unigram state of a.
	if w := b.g.Final(b.uni["a"]); math.Abs(float64(w)-math.Ln10*0.7) >= 1e-9 {
		t.Errorf("expected final ln10*0.7 on state of a; got %g", w)
	}
	// "a b </s>" sets finality on the bigram state, not on b's.
	if w := b.g.Final(qab); math.Abs(float64(w)-math.Ln10*0.5) >= 1e-9 {
		t.Errorf("expected final ln10*0.5 on the (a,b) state; got %g", w)
	}
	if !b.g.Final(b.uni["b"]).IsZero() {
		t.Error("the unigram state of b must stay non-final")
	}
	// The trigram "a b a" extends (a,b) to (b,a).
	qba, ok := b.bi[bigram{"b", "a"}]
	if !ok {
		t.Fatal("no state for bigram (b, a)")
	}
	var found bool
	for _, a := range b.g.Arcs(qab) {
		if a.ILabel == words.IdOf("a") && a.NextState == qba {
			found = true
			if diff := math.Abs(float64(a.Weight) - math.Ln10*0.9); diff >= 1e-9 {
				t.Errorf("trigram arc weight: expected ln10*0.9; got %g", a.Weight)
			}
		}
	}
	if !found {
		t.Error("missing trigram arc (a,b) -a:a-> (b,a)")
	}
}

// OOV n-grams are dropped without creating states.
func TestGrammarDropsOOV(t *testing.T) {
	words := testWords("FOO")
	b := readyGrammar(t, words,
		[]string{"-1 FOO", "-1 BAR"},
		[]string{"-0.5 FOO BAR"},
		nil)
	if _, ok := b.uni["BAR"]; ok {
		t.Error("expected no state for the OOV unigram")
	}
	if len(b.bi) != 0 {
		t.Errorf("expected no bigram states; got %v", b.bi)
	}
}

// N-grams whose (n-1)-gram parent never showed up are dropped.
func TestGrammarDropsMissingParent(t *testing.T) {
	words := testWords("a", "b", "c")
	b := readyGrammar(t, words,
		[]string{"-1 a"},
		[]string{"-0.5 b a", "-0.4 a b"},
		[]string{"-0.3 b a c", "-0.2 a b c"})
	if _, ok := b.bi[bigram{"b", "a"}]; ok {
		t.Error("bigram with unseen history must be dropped")
	}
	if _, ok := b.bi[bigram{"a", "b"}]; !ok {
		t.Fatal("bigram with seen history must be kept")
	}
	if _, ok := b.bi[bigram{"a", "c"}]; ok {
		t.Error("trigram with unseen bigram history must be dropped")
	}
	if _, ok := b.bi[bigram{"b", "c"}]; !ok {
		t.Error("trigram with seen bigram history must be kept")
	}
}

// Before compaction every state except the empty history reaches
// the empty history through back-off arcs alone.
func TestGrammarBackOffConnected(t *testing.T) {
	words := testWords("a", "b", "c")
	b := readyGrammar(t, words,
		[]string{"-2 <s> -0.5", "-1 </s>", "-1 a -0.2", "-1 b -0.2", "-1 c"},
		[]string{"-0.5 a b -0.1", "-0.4 b c", "-0.6 <s> a"},
		[]string{"-0.3 a b c"})
	uf := newUnionFind(b.g.NumStates())
	for s := 0; s < b.g.NumStates(); s++ {
		for _, a := range b.g.Arcs(fst.StateId(s)) {
			if a.ILabel == b.hashId {
				uf.Union(int(a.NextState), s)
			}
		}
	}
	empty := int(b.uni[startKey])
	for s := 0; s < b.g.NumStates(); s++ {
		if uf.Find(s) != uf.Find(empty) {
			t.Errorf("state %d does not back off into the empty history", s)
		}
	}
}

type unionFind []int

func newUnionFind(n int) unionFind {
	uf := make(unionFind, n)
	for i := range uf {
		uf[i] = i
	}
	return uf
}

func (uf unionFind) Union(a, b int) int {
	ra, rb := uf.Find(a), uf.Find(b)
	uf[rb] = ra
	return ra
}

func (uf unionFind) Find(a int) int {
	r := uf[a]
	for r != uf[r] {
		r = uf[r]
	}
	for uf[a] != r {
		uf[a], a = r, uf[a]
	}
	return r
}
