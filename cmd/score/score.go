// score reads whitespace-split sentences from stdin and prints the
// tropical path weight of each through a compiled grammar transducer.
package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/golang/glog"
	"github.com/ishine/athena-decoder/graph"
	"github.com/kho/easy"
)

func main() {
	var args struct {
		Grammar string `name:"grammar" usage:"grammar FST file"`
		Words   string `name:"words" usage:"words table file"`
	}
	easy.ParseFlagsAndArgs(&args)

	g, err := graph.ReadFst(args.Grammar)
	if err != nil {
		glog.Fatal("error in loading grammar: ", err)
	}
	words, err := graph.ReadTableFile(args.Words)
	if err != nil {
		glog.Fatal(err)
	}

	in := bufio.NewScanner(os.Stdin)
	for in.Scan() {
		sent := strings.Fields(in.Text())
		w := graph.Score(g, words, sent)
		fmt.Printf("%g\t%s\n", w, in.Text())
	}
	if err := in.Err(); err != nil {
		glog.Fatal(err)
	}
}
