package graph

// Orchestration: build both transducers and write all decoding-graph
// artifacts. Composing L with G is left to the downstream decoder.

import (
	"os"

	"github.com/golang/glog"
	"github.com/ishine/athena-decoder/fst"
	"github.com/kho/easy"
)

// Default artifact names.
const (
	DefaultWordsFile = "words.txt"
	DefaultCharsFile = "characters_disambig.txt"
)

// BuildLexicon builds the lexicon transducer from a speller file and a
// characters file. It returns L (arc-sorted by output label), the word
// table, the disambig-augmented character table and the disambig ids.
func BuildLexicon(spellerFile, charsFile string, silProb float64, silSymbol string) (*fst.Fst, *Table, *Table, []fst.Label, error) {
	speller, err := easy.Open(spellerFile)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	defer speller.Close()
	chars, err := easy.Open(charsFile)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	defer chars.Close()
	b := NewSpellerBuilder()
	l, err := b.Build(speller, chars, silProb, silSymbol)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	return l, b.Words(), b.Chars(), b.DisambigIds(), nil
}

// Graph bundles the artifacts of a full decoding-graph build.
type Graph struct {
	L, G        *fst.Fst
	Words       *Table
	Chars       *Table
	DisambigIds []fst.Label
}

// MakeGraph builds the lexicon transducer from the speller and the
// grammar transducer from the ARPA model, sharing the word table the
// speller produced.
func MakeGraph(spellerFile, charsFile, arpaFile string, silProb float64, silSymbol string) (*Graph, error) {
	l, words, chars, disambig, err := BuildLexicon(spellerFile, charsFile, silProb, silSymbol)
	if err != nil {
		return nil, err
	}
	g, err := BuildGrammar(arpaFile, words)
	if err != nil {
		return nil, err
	}
	glog.Infof("L: %d states; G: %d states", l.NumStates(), g.NumStates())
	return &Graph{L: l, G: g, Words: words, Chars: chars, DisambigIds: disambig}, nil
}

// WriteFiles writes both symbol tables and both transducers.
func (gr *Graph) WriteFiles(wordsFile, charsFile, lexiconFst, grammarFst string) error {
	if err := writeTable(gr.Words, wordsFile); err != nil {
		return err
	}
	if err := writeTable(gr.Chars, charsFile); err != nil {
		return err
	}
	if err := writeFst(gr.L, lexiconFst); err != nil {
		return err
	}
	return writeFst(gr.G, grammarFst)
}

func writeTable(t *Table, path string) error {
	w, err := os.Create(path)
	if err != nil {
		return err
	}
	defer w.Close()
	return t.Write(w)
}

func writeFst(f *fst.Fst, path string) error {
	w, err := os.Create(path)
	if err != nil {
		return err
	}
	defer w.Close()
	return f.Write(w)
}

// ReadFst loads a transducer written by WriteFiles or fst.Write.
func ReadFst(path string) (*fst.Fst, error) {
	in, err := easy.Open(path)
	if err != nil {
		return nil, err
	}
	defer in.Close()
	return fst.Read(in)
}
