// Command qfind is the thin CLI wrapper over the indexing and query
// engine (§6): it builds an in-memory index of the current working
// directory, then answers the given pattern against it, printing one
// absolute path per match. Exactly one pattern is accepted per run.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/qfind/qfind/internal/config"
	"github.com/qfind/qfind/internal/engine"
	"github.com/qfind/qfind/internal/walker"
)

var usageMessage = `usage: qfind [-d DBPATH] [-i] [-r] [-u] [-h] [-v] [-path-filter REGEXP] [-stats] [-list] PATTERN

qfind searches the names of every file reachable from the current
working directory for PATTERN, printing one matching absolute path per
line, or the line "No matching files found." if nothing matched.
Exactly one PATTERN is accepted; more than one is a usage error.

The -i flag makes the search case-insensitive. The -r flag treats
PATTERN as a regular expression instead of a literal substring. The -u
flag is accepted for compatibility; every invocation already rebuilds
its index from scratch, since qfind keeps no state between runs.

-d DBPATH is accepted and reserved for a future on-disk index format;
it has no effect in this version.
`

func usage() {
	fmt.Fprint(os.Stderr, usageMessage)
	os.Exit(2)
}

var (
	dFlag          = flag.String("d", "", "reserved: path to a persisted index (unused)")
	iFlag          = flag.Bool("i", false, "case-insensitive search")
	rFlag          = flag.Bool("r", false, "treat PATTERN as a regular expression")
	uFlag          = flag.Bool("u", false, "rebuild index (accepted for compatibility; always true)")
	verboseFlag    = flag.Bool("v", false, "print extra information")
	pathFilterFlag = flag.String("path-filter", "", "restrict matches to paths also matching this regexp")
	statsFlag      = flag.Bool("stats", false, "print index statistics and exit")
	listFlag       = flag.Bool("list", false, "list indexed roots and exit")
	maxResultsFlag = flag.Int("max-results", 0, "cap the number of results (0 = engine default)")
)

func main() {
	flag.Usage = usage
	flag.Parse()
	args := flag.Args()

	if !*statsFlag && !*listFlag && len(args) != 1 {
		usage()
	}

	logger := log.New(os.Stderr, "qfind: ", 0)

	cwd, err := os.Getwd()
	if err != nil {
		logger.Println(err)
		os.Exit(1)
	}

	cfg := config.Default()
	ix, err := engine.New(cfg)
	if err != nil {
		logger.Println(err)
		os.Exit(1)
	}
	ix.Verbose = *verboseFlag
	ix.Log = logger

	w, err := walker.New()
	if err != nil {
		logger.Println(err)
		os.Exit(1)
	}

	n, err := ix.Build(cwd, w.Walk)
	if err != nil {
		logger.Println(err)
		os.Exit(1)
	}
	if *verboseFlag {
		logger.Printf("indexed %d files under %s", n, cwd)
	}

	if *listFlag {
		for _, r := range ix.Roots() {
			fmt.Println(r)
		}
		return
	}

	if *statsFlag {
		printStats(ix)
		return
	}

	q := engine.QueryCtx{
		Query:         args[0],
		CaseSensitive: !*iFlag,
		RegexEnabled:  *rFlag,
		Uid:           uint32(os.Getuid()),
		Gid:           uint32(os.Getgid()),
		MaxResults:    *maxResultsFlag,
		PathFilter:    *pathFilterFlag,
	}

	ids, err := ix.Search(q)
	if err != nil {
		logger.Println(err)
		os.Exit(1)
	}

	paths := ix.ResolvePaths(ids)
	if len(paths) == 0 {
		fmt.Println("No matching files found.")
		return
	}
	for _, p := range paths {
		fmt.Println(p)
	}
}

func printStats(ix *engine.Index) {
	stats := ix.Stats()
	fmt.Printf("files: %d\n", stats.NumFiles)
	fmt.Printf("trigrams: %d\n", stats.NumTrigrams)
	fmt.Printf("compressed blob bytes: %d\n", stats.BlobBytes)
}
