// mkgraph builds all decoding-graph artifacts in one run: the lexicon
// transducer L, the grammar transducer G, words.txt and
// characters_disambig.txt. Inputs come from flags or from a TOML
// recipe file; flags override the recipe.
package main

import (
	"flag"

	"github.com/BurntSushi/toml"
	"github.com/golang/glog"
	"github.com/ishine/athena-decoder/graph"
	"github.com/kho/easy"
)

type recipe struct {
	Speller    string `toml:"speller"`
	Characters string `toml:"characters"`
	Arpa       string `toml:"arpa"`
	WordsOut   string `toml:"words_out"`
	CharsOut   string `toml:"characters_out"`
	LexiconOut string `toml:"lexicon_out"`
	GrammarOut string `toml:"grammar_out"`
	Silence    struct {
		Probability float64 `toml:"probability"`
		Symbol      string  `toml:"symbol"`
	} `toml:"silence"`
}

func main() {
	config := flag.String("config", "", "TOML recipe file")
	speller := flag.String("speller", "", "speller file (word char1 char2 ...)")
	chars := flag.String("chars", "", "characters file")
	arpa := flag.String("arpa", "", "ARPA language model file")
	wordsOut := flag.String("words_out", graph.DefaultWordsFile, "output words table")
	charsOut := flag.String("chars_out", graph.DefaultCharsFile, "output disambig characters table")
	lexiconOut := flag.String("lexicon_out", "L.fst", "output lexicon FST")
	grammarOut := flag.String("grammar_out", "G.fst", "output grammar FST")
	silProb := flag.Float64("sil_prob", graph.DefaultSilProb, "inter-word silence probability")
	silSymbol := flag.String("sil_symbol", graph.DefaultSilSymbol, "silence symbol (SIL for phone-based lexicons)")
	easy.ParseFlagsAndArgs(nil)

	r := recipe{
		WordsOut:   *wordsOut,
		CharsOut:   *charsOut,
		LexiconOut: *lexiconOut,
		GrammarOut: *grammarOut,
	}
	r.Silence.Probability = *silProb
	r.Silence.Symbol = *silSymbol
	if *config != "" {
		if _, err := toml.DecodeFile(*config, &r); err != nil {
			glog.Fatal("error in recipe: ", err)
		}
		overrides := map[string]func(){
			"words_out":   func() { r.WordsOut = *wordsOut },
			"chars_out":   func() { r.CharsOut = *charsOut },
			"lexicon_out": func() { r.LexiconOut = *lexiconOut },
			"grammar_out": func() { r.GrammarOut = *grammarOut },
			"sil_prob":    func() { r.Silence.Probability = *silProb },
			"sil_symbol":  func() { r.Silence.Symbol = *silSymbol },
		}
		flag.Visit(func(f *flag.Flag) {
			if set, ok := overrides[f.Name]; ok {
				set()
			}
		})
	}
	if *speller != "" {
		r.Speller = *speller
	}
	if *chars != "" {
		r.Characters = *chars
	}
	if *arpa != "" {
		r.Arpa = *arpa
	}
	if r.Speller == "" || r.Characters == "" || r.Arpa == "" {
		glog.Exit("need -speller, -chars and -arpa (or a -config recipe naming them)")
	}

	var (
		g   *graph.Graph
		err error
	)
	elapsed := easy.Timed(func() {
		g, err = graph.MakeGraph(r.Speller, r.Characters, r.Arpa, r.Silence.Probability, r.Silence.Symbol)
	})
	if err != nil {
		glog.Fatal(err)
	}
	glog.Info("building graph took ", elapsed)
	if err := g.WriteFiles(r.WordsOut, r.CharsOut, r.LexiconOut, r.GrammarOut); err != nil {
		glog.Fatal(err)
	}
}
