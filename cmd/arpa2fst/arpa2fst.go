// arpa2fst compiles an ARPA language model read from stdin into the
// grammar transducer G, written in binary form to stdout.
package main

import (
	"os"

	"github.com/golang/glog"
	"github.com/ishine/athena-decoder/graph"
	"github.com/kho/easy"
)

func main() {
	var args struct {
		Words string `name:"words" usage:"words table file (word id per line)"`
	}
	easy.ParseFlagsAndArgs(&args)

	words, err := graph.ReadTableFile(args.Words)
	if err != nil {
		glog.Fatal(err)
	}
	g, err := graph.FromARPA(os.Stdin, words)
	if err != nil {
		glog.Fatal(err)
	}
	if err := g.Write(os.Stdout); err != nil {
		glog.Fatal(err)
	}
}
