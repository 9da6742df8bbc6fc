// speller2fst compiles a speller lexicon into the lexicon transducer
// L, written in binary form to stdout, and writes the word and
// disambig character tables.
package main

import (
	"flag"
	"os"

	"github.com/golang/glog"
	"github.com/ishine/athena-decoder/graph"
	"github.com/kho/easy"
)

func main() {
	wordsOut := flag.String("words_out", graph.DefaultWordsFile, "output words table")
	charsOut := flag.String("chars_out", graph.DefaultCharsFile, "output disambig characters table")
	silProb := flag.Float64("sil_prob", graph.DefaultSilProb, "inter-word silence probability")
	silSymbol := flag.String("sil_symbol", graph.DefaultSilSymbol, "silence symbol (SIL for phone-based lexicons)")
	var args struct {
		Speller string `name:"speller" usage:"speller file (word char1 char2 ...)"`
		Chars   string `name:"chars" usage:"characters file"`
	}
	easy.ParseFlagsAndArgs(&args)

	l, words, chars, disambig, err := graph.BuildLexicon(args.Speller, args.Chars, *silProb, *silSymbol)
	if err != nil {
		glog.Fatal(err)
	}
	glog.Infof("L: %d states; disambig ids: %v", l.NumStates(), disambig)

	writeTable := func(t *graph.Table, path string) {
		w := easy.MustCreate(path)
		defer w.Close()
		if err := t.Write(w); err != nil {
			glog.Fatal(err)
		}
	}
	writeTable(words, *wordsOut)
	writeTable(chars, *charsOut)
	if err := l.Write(os.Stdout); err != nil {
		glog.Fatal(err)
	}
}
