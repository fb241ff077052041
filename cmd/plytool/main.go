// Command plytool inspects, converts and generates binary PLY point clouds.
//
//	plytool inspect [-workers n] file.ply...
//	plytool rewrite in.ply out.ply
//	plytool plan -points n [-tile n] [-density pct]
//	plytool gen -n count [-shape cube|sphere] [-seed s] out.ply
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/golang/glog"
)

type command struct {
	name  string
	usage string
	run   func(args []string) error
}

var commands = []command{
	{name: "inspect", usage: "inspect [-workers n] file.ply...", run: runInspect},
	{name: "rewrite", usage: "rewrite in.ply out.ply", run: runRewrite},
	{name: "plan", usage: "plan -points n [-tile n] [-density pct]", run: runPlan},
	{name: "gen", usage: "gen -n count [-shape cube|sphere] [-seed s] out.ply", run: runGen},
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: plytool <command> [flags]")
	for _, c := range commands {
		fmt.Fprintf(os.Stderr, "  plytool %s\n", c.usage)
	}
}

func main() {
	flag.Usage = usage
	flag.Parse()
	defer glog.Flush()

	if flag.NArg() < 1 {
		usage()
		os.Exit(2)
	}
	name, args := flag.Arg(0), flag.Args()[1:]
	for _, c := range commands {
		if c.name != name {
			continue
		}
		if err := c.run(args); err != nil {
			glog.Errorf("%s: %v", name, err)
			fmt.Fprintf(os.Stderr, "plytool %s: %v\n", name, err)
			glog.Flush()
			os.Exit(1)
		}
		return
	}
	fmt.Fprintf(os.Stderr, "plytool: unknown command %q\n", name)
	usage()
	os.Exit(2)
}
