package main

// © 2025 slabcache authors. MIT License.

import (
	"flag"
	"fmt"
	"os"
	"time"
)

type options struct {
	target  string
	json    bool
	watch   bool
	interval time.Duration

	heapProfile      string
	goroutineProfile string

	version bool
}

func parseFlags() *options {
	opts := &options{}

	fs := flag.NewFlagSet("slabcache-inspect", flag.ExitOnError)
	fs.StringVar(&opts.target, "target", "http://127.0.0.1:6060", "base URL of the process exposing /debug/slabcache/snapshot")
	fs.BoolVar(&opts.json, "json", false, "print the raw snapshot as JSON instead of the pretty table")
	fs.BoolVar(&opts.watch, "watch", false, "poll the target repeatedly at -interval")
	fs.DurationVar(&opts.interval, "interval", 2*time.Second, "polling interval for -watch")
	fs.StringVar(&opts.heapProfile, "heap-profile", "", "download /debug/pprof/heap to this path and exit")
	fs.StringVar(&opts.goroutineProfile, "goroutine-profile", "", "download /debug/pprof/goroutine to this path and exit")
	fs.BoolVar(&opts.version, "version", false, "print the inspector's version and exit")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "slabcache-inspect: inspect a running slabcache process\n\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(os.Args[1:]); err != nil {
		os.Exit(2)
	}
	return opts
}
