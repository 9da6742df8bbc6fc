// Package graph compiles speech-recognition resources into WFSTs: a
// speller lexicon into the lexicon transducer L and an ARPA back-off
// n-gram model (up to trigram) into the grammar transducer G.
package graph

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/ishine/athena-decoder/fst"
	"github.com/kho/easy"
)

// Reserved symbols. <eps> always sits at id 0.
const (
	EpsilonSym  = "<eps>"
	DisambigSym = "#0"
	BOS         = "<s>"
	EOS         = "</s>"
)

// Table is the mapping between symbols and label ids. Ids are assigned
// consecutively from 0 in insertion order. A table is frozen by
// convention once FST emission starts.
type Table struct {
	id2str []string
	str2id map[string]fst.Label
}

func NewTable() *Table {
	return &Table{str2id: map[string]fst.Label{}}
}

// Add looks up s, inserting it with the next free id when absent, and
// returns its id.
func (t *Table) Add(s string) fst.Label {
	if i, ok := t.str2id[s]; ok {
		return i
	}
	i := fst.Label(len(t.id2str))
	t.id2str = append(t.id2str, s)
	t.str2id[s] = i
	return i
}

// IdOf returns the id of s, or fst.NoLabel when s is not in the table.
func (t *Table) IdOf(s string) fst.Label {
	if i, ok := t.str2id[s]; ok {
		return i
	}
	return fst.NoLabel
}

func (t *Table) Contains(s string) bool {
	_, ok := t.str2id[s]
	return ok
}

// StringOf looks up the symbol of the given id. Only safe for ids
// returned from Add or IdOf.
func (t *Table) StringOf(i fst.Label) string { return t.id2str[i] }

func (t *Table) Len() int { return len(t.id2str) }

// Write writes the table as "symbol id" lines in id order.
func (t *Table) Write(w io.Writer) error {
	for i, s := range t.id2str {
		if _, err := fmt.Fprintf(w, "%s %d\n", s, i); err != nil {
			return err
		}
	}
	return nil
}

// ReadTable reads a "symbol id" file. Ids must form a dense 0..n-1
// range but may appear in any order.
func ReadTable(r io.Reader) (*Table, error) {
	syms := map[int]string{}
	max := -1
	in := bufio.NewScanner(r)
	line := 0
	for in.Scan() {
		line++
		fields := strings.Fields(in.Text())
		if len(fields) == 0 {
			continue
		}
		if len(fields) != 2 {
			return nil, &FormatError{line, in.Text(), "expect \"symbol id\""}
		}
		id, err := strconv.Atoi(fields[1])
		if err != nil || id < 0 {
			return nil, &FormatError{line, in.Text(), "bad id"}
		}
		if _, ok := syms[id]; ok {
			return nil, &FormatError{line, in.Text(), "duplicate id"}
		}
		syms[id] = fields[0]
		if id > max {
			max = id
		}
	}
	if err := in.Err(); err != nil {
		return nil, err
	}
	t := NewTable()
	for i := 0; i <= max; i++ {
		s, ok := syms[i]
		if !ok {
			return nil, fmt.Errorf("symbol table has no id %d (ids must be dense)", i)
		}
		t.Add(s)
	}
	return t, nil
}

func ReadTableFile(path string) (*Table, error) {
	in, err := easy.Open(path)
	if err != nil {
		return nil, err
	}
	defer in.Close()
	return ReadTable(in)
}
