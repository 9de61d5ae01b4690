package main

import (
	"context"
	"flag"
	"fmt"
	golog "log"
	"os"
	"os/signal"
	"runtime"
	"time"

	"github.com/omniscale/osmfeatures"
	"github.com/omniscale/osmfeatures/cache/query"
	"github.com/omniscale/osmfeatures/config"
	"github.com/omniscale/osmfeatures/import_"
	"github.com/omniscale/osmfeatures/logging"
	"github.com/omniscale/osmfeatures/stats"
)

var log = logging.NewLogger("")

func PrintCmds() {
	fmt.Fprintf(os.Stderr, "Usage: %s COMMAND [args]\n\n", os.Args[0])
	fmt.Fprintln(os.Stderr, "Available commands:")
	fmt.Fprintln(os.Stderr, "\tread")
	fmt.Fprintln(os.Stderr, "\twrite")
	fmt.Fprintln(os.Stderr, "\trun")
	fmt.Fprintln(os.Stderr, "\tquery-cache")
	fmt.Fprintln(os.Stderr, "\tversion")
}

func Main(usage func()) {
	golog.SetFlags(golog.LstdFlags | golog.Lshortfile)
	if os.Getenv("GOMAXPROCS") == "" {
		runtime.GOMAXPROCS(runtime.NumCPU())
	}

	if len(os.Args) <= 1 {
		usage()
		logging.Shutdown()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "read", "write", "run":
		opts, err := config.Parse(os.Args[1], os.Args[2:])
		if err == flag.ErrHelp {
			logging.Shutdown()
			os.Exit(2)
		}
		if err != nil {
			log.Fatal(err)
		}
		if opts.Httpprofile != "" {
			stats.StartHttpPProf(opts.Httpprofile)
		}
		if dir := os.Getenv("IMPOSM_FEATURES_MEMPROFILE"); dir != "" {
			go stats.MemProfiler(dir, 10*time.Second)
		}

		ctx, cancel := context.WithCancel(context.Background())
		interrupt := make(chan os.Signal, 1)
		signal.Notify(interrupt, os.Interrupt)
		go func() {
			<-interrupt
			log.Warn("interrupted, stopping")
			cancel()
		}()

		if err := import_.Import(ctx, opts); err != nil {
			log.Fatal(err)
		}
		cancel()
	case "query-cache":
		err := query.Query(os.Args[2:], os.Stdout)
		if err == flag.ErrHelp {
			logging.Shutdown()
			os.Exit(2)
		}
		if err != nil {
			log.Fatal(err)
		}
	case "version":
		fmt.Println(osmfeatures.Version)
		os.Exit(0)
	default:
		usage()
		log.Fatalf("invalid command: '%s'", os.Args[1])
	}
	logging.Shutdown()
	os.Exit(0)
}

func main() {
	Main(PrintCmds)
}
