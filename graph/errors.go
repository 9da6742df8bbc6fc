package graph

import "fmt"

// FormatError reports a malformed input line. Fatal: the build aborts
// with the offending line number and raw text.
type FormatError struct {
	Line   int
	Text   string
	Reason string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("line %d: %s: %q", e.Line, e.Reason, e.Text)
}

// UnknownSymbolError reports a required symbol missing from a table.
type UnknownSymbolError struct {
	Symbol string
	Table  string
}

func (e *UnknownSymbolError) Error() string {
	return fmt.Sprintf("symbol %q not in %s table", e.Symbol, e.Table)
}

// UnsupportedOrderError reports an n-gram section of order > 3.
type UnsupportedOrderError struct {
	Line  int
	Order int
}

func (e *UnsupportedOrderError) Error() string {
	return fmt.Sprintf("line %d: unsupported n-gram order %d (at most trigrams)", e.Line, e.Order)
}
