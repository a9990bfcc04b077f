package main

// dataset_gen.go is a tiny helper utility to generate deterministic
// alloc/free interleavings for standalone stress-testing of slabcache
// (outside `go test`). It emits newline-separated operations —
// "alloc <id>" or "free <id>" — which a replay harness can feed straight
// into Cache.Alloc/Cache.Free calls in the same order to reproduce a
// specific allocation pattern.
//
// Every generated id is allocated exactly once and freed at most once, in
// an order controlled by -dist: "uniform" frees a uniformly random live
// object before the next alloc; "zipf" skews toward freeing whichever
// live object was allocated longest ago (the "hot", frequently-cycled end
// of the working set), exercising magazine reuse much harder than a
// uniform free order does.
//
// Usage:
//   go run ./tools/dataset_gen -n 1000000 -dist=zipf -seed=42 -out ops.txt
//
// Flags:
//   -n        number of alloc operations to generate (default 1e6)
//   -dist     free-order distribution: "uniform" or "zipf" (default uniform)
//   -zipfs    Zipf s parameter (>1)  (default 1.2)
//   -zipfv    Zipf v parameter (>=1) (default 1.0)
//   -freeprob probability a live object is freed before the next alloc (default 0.5)
//   -seed     RNG seed (default current time)
//   -out      output file (default stdout)
//
// The program is embarrassingly simple but placed under version control so
// any contributor can regenerate the exact interleaving used in a
// performance regression hunt.
//
// © 2025 slabcache authors. MIT License.

import (
	"bufio"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"time"
)

func main() {
	var (
		n        = flag.Int("n", 1_000_000, "number of alloc operations to generate")
		dist     = flag.String("dist", "uniform", "free-order distribution: uniform or zipf")
		zipfS    = flag.Float64("zipfs", 1.2, "zipf s parameter (>1)")
		zipfV    = flag.Float64("zipfv", 1.0, "zipf v parameter (>=1)")
		freeProb = flag.Float64("freeprob", 0.5, "probability a live object is freed before the next alloc")
		seedVal  = flag.Int64("seed", time.Now().UnixNano(), "PRNG seed")
		outPath  = flag.String("out", "", "output file (default stdout)")
	)
	flag.Parse()

	if *freeProb < 0 || *freeProb > 1 {
		fmt.Fprintln(os.Stderr, "freeprob must be within [0,1]")
		os.Exit(1)
	}

	rnd := rand.New(rand.NewSource(*seedVal))

	var pickLiveIndex func(liveCount int) int
	switch *dist {
	case "uniform":
		pickLiveIndex = func(liveCount int) int {
			return rnd.Intn(liveCount)
		}
	case "zipf":
		if *zipfS <= 1.0 || *zipfV < 1 {
			fmt.Fprintln(os.Stderr, "zipfs must be >1 and zipfv >=1")
			os.Exit(1)
		}
		pickLiveIndex = func(liveCount int) int {
			z := rand.NewZipf(rnd, *zipfS, *zipfV, uint64(liveCount-1))
			return int(z.Uint64())
		}
	default:
		fmt.Fprintln(os.Stderr, "unknown dist:", *dist)
		os.Exit(1)
	}

	var out *os.File
	var err error
	if *outPath == "" {
		out = os.Stdout
	} else {
		out, err = os.Create(*outPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, "cannot create file:", err)
			os.Exit(1)
		}
		defer out.Close()
	}

	w := bufio.NewWriterSize(out, 1<<20)
	defer w.Flush()

	var live []uint64
	var nextID uint64
	for i := 0; i < *n; i++ {
		if len(live) > 0 && rnd.Float64() < *freeProb {
			idx := pickLiveIndex(len(live))
			id := live[idx]
			live[idx] = live[len(live)-1]
			live = live[:len(live)-1]
			fmt.Fprintf(w, "free %d\n", id)
		}

		id := nextID
		nextID++
		live = append(live, id)
		fmt.Fprintf(w, "alloc %d\n", id)
	}

	for _, id := range live {
		fmt.Fprintf(w, "free %d\n", id)
	}
}
