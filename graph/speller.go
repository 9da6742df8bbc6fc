package graph

// Speller (lexicon) construction. A speller maps each word to its
// character (or phone) spelling; the builder augments spellings with
// disambiguation symbols until the set is duplicate-free and
// prefix-free, then emits the lexicon transducer L with optional
// inter-word silence.

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/ishine/athena-decoder/fst"
)

// Silence modeling defaults: <space> suits character-based spellers;
// phone-based lexicons use SIL.
const (
	DefaultSilProb   = 0.5
	DefaultSilSymbol = "<space>"
)

type spellerEntry struct {
	word  string
	chars []string
}

// SpellerBuilder builds the lexicon transducer and both symbol tables
// from a speller file. A builder instance is single-use and not safe
// for concurrent reuse.
type SpellerBuilder struct {
	entries     []spellerEntry
	words       *Table
	chars       *Table
	maxDisambig int
}

func NewSpellerBuilder() *SpellerBuilder {
	return &SpellerBuilder{}
}

// ReadSpeller reads "word char1 char2 ..." lines. An entry may have an
// empty character list; it is handled by the empty-spelling disambig
// rule during augmentation.
func (b *SpellerBuilder) ReadSpeller(r io.Reader) error {
	in := bufio.NewScanner(r)
	for in.Scan() {
		fields := strings.Fields(in.Text())
		if len(fields) == 0 {
			continue
		}
		b.entries = append(b.entries, spellerEntry{fields[0], fields[1:]})
	}
	return in.Err()
}

func disambig(k int) string { return "#" + strconv.Itoa(k) }

// addDisambig appends disambiguation symbols to spellings where
// needed: duplicated spellings, spellings that are a proper prefix of
// another, and empty spellings. The result is duplicate-free and
// prefix-free, the precondition for determinizing L. Each empty
// spelling takes a globally fresh index, reserved so no other spelling
// reuses it; all other needing spellings take the smallest unreserved
// index from 1 up not yet used for that spelling (#0 is never assigned).
func (b *SpellerBuilder) addDisambig() {
	count := map[string]int{}
	prefixes := map[string]bool{}
	for _, e := range b.entries {
		count[strings.Join(e.chars, " ")]++
		for i := len(e.chars) - 1; i > 0; i-- {
			prefixes[strings.Join(e.chars[:i], " ")] = true
		}
	}
	next := map[string]int{}
	reserved := map[int]bool{}
	b.maxDisambig = 0
	for i := range b.entries {
		e := &b.entries[i]
		if len(e.chars) == 0 {
			b.maxDisambig++
			reserved[b.maxDisambig] = true
			e.chars = []string{disambig(b.maxDisambig)}
			continue
		}
		key := strings.Join(e.chars, " ")
		if count[key] == 1 && !prefixes[key] {
			continue
		}
		n := next[key] + 1
		for reserved[n] {
			n++
		}
		next[key] = n
		if n > b.maxDisambig {
			b.maxDisambig = n
		}
		e.chars = append(e.chars, disambig(n))
	}
}

// createWordsTable lays out the word table: <eps> at 0, the lexicon
// words sorted lexicographically, then #0, <s>, </s>.
func (b *SpellerBuilder) createWordsTable() {
	seen := map[string]bool{}
	var list []string
	for _, e := range b.entries {
		if !seen[e.word] {
			seen[e.word] = true
			list = append(list, e.word)
		}
	}
	sort.Strings(list)
	t := NewTable()
	t.Add(EpsilonSym)
	for _, w := range list {
		t.Add(w)
	}
	t.Add(DisambigSym)
	t.Add(BOS)
	t.Add(EOS)
	b.words = t
}

// createDisambigChars lays out the character table: <eps> at 0, the
// user characters in file order deduplicated by first occurrence, then
// the contiguous disambig block #0..#D. The block covers every index
// the augmentation assigned plus one more, reserved as the silence
// disambig.
func (b *SpellerBuilder) createDisambigChars(r io.Reader) error {
	t := NewTable()
	t.Add(EpsilonSym)
	in := bufio.NewScanner(r)
	for in.Scan() {
		fields := strings.Fields(in.Text())
		if len(fields) == 0 {
			continue
		}
		t.Add(fields[0])
	}
	if err := in.Err(); err != nil {
		return err
	}
	b.maxDisambig++ // the silence disambig
	for d := 0; d <= b.maxDisambig; d++ {
		t.Add(disambig(d))
	}
	b.chars = t
	return nil
}

// makeSpellerFst emits L. Topology: a start state choosing between
// optional leading silence and the word loop; a central loop state
// (final, weight 0) where every word path begins and ends; a sil state
// entered after a word when silence follows; a disambig state that
// consumes the silence disambig before rejoining the loop. Each word
// path carries the word output label on its first arc and epsilons
// after; the last character splits into a no-silence arc back to loop
// and a silence arc to sil.
func (b *SpellerBuilder) makeSpellerFst(silProb float64, silSymbol string) (*fst.Fst, error) {
	if silProb <= 0 || silProb >= 1 {
		return nil, fmt.Errorf("silence probability %g outside (0, 1)", silProb)
	}
	silId := b.chars.IdOf(silSymbol)
	if silId == fst.NoLabel {
		return nil, &UnknownSymbolError{silSymbol, "characters"}
	}
	silCost := fst.Weight(-math.Log(silProb))
	noSilCost := fst.Weight(-math.Log(1 - silProb))
	silDisambigId := b.chars.IdOf(disambig(b.maxDisambig))

	l := fst.New()
	start := l.AddState()
	loop := l.AddState()
	sil := l.AddState()
	dis := l.AddState()
	l.SetStart(start)
	l.AddArc(start, fst.Arc{ILabel: fst.Epsilon, OLabel: fst.Epsilon, Weight: noSilCost, NextState: loop})
	l.AddArc(start, fst.Arc{ILabel: silId, OLabel: fst.Epsilon, Weight: silCost, NextState: dis})
	l.AddArc(sil, fst.Arc{ILabel: silId, OLabel: fst.Epsilon, Weight: 0, NextState: dis})
	l.AddArc(dis, fst.Arc{ILabel: silDisambigId, OLabel: fst.Epsilon, Weight: 0, NextState: loop})

	for _, e := range b.entries {
		wordId := b.words.IdOf(e.word)
		ids := make([]fst.Label, len(e.chars))
		for i, c := range e.chars {
			if ids[i] = b.chars.IdOf(c); ids[i] == fst.NoLabel {
				return nil, &UnknownSymbolError{c, "characters"}
			}
		}
		if len(ids) == 1 {
			// Single-symbol spelling: the terminating arc pair is also the
			// first arc, so it carries the word label.
			l.AddArc(loop, fst.Arc{ILabel: ids[0], OLabel: wordId, Weight: noSilCost, NextState: loop})
			l.AddArc(loop, fst.Arc{ILabel: ids[0], OLabel: wordId, Weight: silCost, NextState: sil})
			continue
		}
		src := loop
		for pos := 0; pos < len(ids)-1; pos++ {
			out := fst.Epsilon
			if pos == 0 {
				out = wordId
			}
			des := l.AddState()
			l.AddArc(src, fst.Arc{ILabel: ids[pos], OLabel: out, Weight: 0, NextState: des})
			src = des
		}
		last := ids[len(ids)-1]
		l.AddArc(src, fst.Arc{ILabel: last, OLabel: fst.Epsilon, Weight: noSilCost, NextState: loop})
		l.AddArc(src, fst.Arc{ILabel: last, OLabel: fst.Epsilon, Weight: silCost, NextState: sil})
	}
	l.SetFinal(loop, 0)
	l.AddArc(loop, fst.Arc{ILabel: b.chars.IdOf(DisambigSym), OLabel: b.words.IdOf(DisambigSym), Weight: 0, NextState: loop})
	l.ArcSort(fst.ByOLabel)
	return l, nil
}

// Build runs the whole speller pipeline over the given speller and
// characters input and returns L arc-sorted by output label. The word
// and character tables and the disambig ids are available on the
// builder afterwards.
func (b *SpellerBuilder) Build(speller, chars io.Reader, silProb float64, silSymbol string) (*fst.Fst, error) {
	if err := b.ReadSpeller(speller); err != nil {
		return nil, err
	}
	b.addDisambig()
	b.createWordsTable()
	if err := b.createDisambigChars(chars); err != nil {
		return nil, err
	}
	return b.makeSpellerFst(silProb, silSymbol)
}

// Words returns the word table built from the speller.
func (b *SpellerBuilder) Words() *Table { return b.words }

// Chars returns the disambig-augmented character table.
func (b *SpellerBuilder) Chars() *Table { return b.chars }

// DisambigIds returns the character-table ids of #0..#D, #D being the
// silence disambig. Downstream determinization needs the list.
func (b *SpellerBuilder) DisambigIds() []fst.Label {
	ids := make([]fst.Label, 0, b.maxDisambig+1)
	for d := 0; d <= b.maxDisambig; d++ {
		ids = append(ids, b.chars.IdOf(disambig(d)))
	}
	return ids
}

// UnkIds returns the word-table ids of <unk> and <UNK> when the
// lexicon defines them.
func (b *SpellerBuilder) UnkIds() []fst.Label {
	var ids []fst.Label
	for _, s := range []string{"<unk>", "<UNK>"} {
		if id := b.words.IdOf(s); id != fst.NoLabel {
			ids = append(ids, id)
		}
	}
	return ids
}
