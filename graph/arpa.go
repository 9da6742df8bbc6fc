package graph

// ARPA file scanning in the iteratee style.

import (
	"bytes"
	"strconv"

	"github.com/golang/glog"
	"github.com/kho/stream"
)

const maxOrder = 3

// arpaScan is the top-level iteratee for scanning an ARPA file. Blank
// lines, comments and the \data\ / ngram / \end\ furniture are
// ignored; a \N-grams: header sets the current order; anything else is
// an n-gram entry dispatched to the grammar builder per order.
type arpaScan struct {
	g     *GrammarBuilder
	order int
	line  int
}

func (it *arpaScan) Final() error { return nil }

func (it *arpaScan) Next(line []byte) (stream.Iteratee, bool, error) {
	it.line++
	if err := it.dispatch(line); err != nil {
		return nil, false, err
	}
	return it, true, nil
}

func (it *arpaScan) dispatch(line []byte) error {
	switch {
	case len(line) == 0:
		return nil
	case line[0] == '#':
		return nil
	case bytes.HasPrefix(line, []byte(`\data`)):
		return nil
	case bytes.HasPrefix(line, []byte("ngram ")):
		return nil
	case bytes.HasPrefix(line, []byte(`\end`)):
		return nil
	case line[0] == '\\' && bytes.HasSuffix(line, []byte("-grams:")):
		n, err := strconv.Atoi(string(line[1 : len(line)-len("-grams:")]))
		if err != nil || n <= 0 {
			return &FormatError{it.line, string(line), `bad section header, expect \N-grams:`}
		}
		if n > maxOrder {
			return &UnsupportedOrderError{it.line, n}
		}
		it.order = n
		glog.Infof("reading %d-grams", n)
		return nil
	}
	if it.order == 0 {
		return &FormatError{it.line, string(line), `n-gram entry before any \N-grams: header`}
	}
	var err error
	fields := splitFields(line)
	switch it.order {
	case 1:
		err = it.g.unigram(fields)
	case 2:
		err = it.g.bigram(fields)
	case 3:
		err = it.g.trigram(fields)
	}
	if err != nil {
		return &FormatError{it.line, string(line), err.Error()}
	}
	return nil
}

// Low-level lexer code.

func isSpace(b byte) bool {
	switch b {
	case '\t', '\v', '\f', '\r', ' ':
		return true
	default:
		return false
	}
}

// scanLine is a bufio.SplitFunc yielding one line per physical line,
// trimmed of surrounding space. Empty lines are yielded too, so the
// token count is the file line number.
func scanLine(data []byte, atEOF bool) (int, []byte, error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	i := bytes.IndexByte(data, '\n')
	if i < 0 {
		if !atEOF {
			return 0, nil, nil
		}
		return len(data), trimSpace(data), nil
	}
	return i + 1, trimSpace(data[:i]), nil
}

func trimSpace(data []byte) []byte {
	l, r := 0, len(data)
	for l < r && isSpace(data[l]) {
		l++
	}
	for r > l && isSpace(data[r-1]) {
		r--
	}
	return data[l:r]
}

// tokenSplit cuts the first whitespace-separated token off a line that
// has no leading space, returning the token and the rest.
func tokenSplit(line []byte) (string, []byte) {
	r := -1
	for i, b := range line {
		if isSpace(b) {
			r = i
			break
		}
	}
	if r < 0 {
		r = len(line)
	}
	token := string(line[:r])
	for i, b := range line[r:] {
		if !isSpace(b) {
			return token, line[r+i:]
		}
	}
	return token, nil
}

func splitFields(line []byte) []string {
	var fields []string
	for x, xs := tokenSplit(line); x != ""; x, xs = tokenSplit(xs) {
		fields = append(fields, x)
	}
	return fields
}
