package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"

	"github.com/CAIDA/corsavro-ft2ascii/load"
)

func main() {
	intervals := flag.Int("intervals", 10, "number of intervals to generate")
	flows := flag.Int("flows", 1000, "flows per interval")
	start := flag.Uint64("start", 1500000000, "time of the first interval (unix seconds)")
	step := flag.Uint64("step", 60, "seconds between intervals")
	seed := flag.Int64("seed", 1, "random seed")
	output := flag.String("output", "", "directory for the generated container (default: temp dir)")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cfg := load.Config{
		Intervals:        *intervals,
		FlowsPerInterval: *flows,
		Start:            *start,
		Step:             *step,
		Seed:             *seed,
		OutputDir:        *output,
	}
	res, err := load.RunSyntheticConversion(ctx, cfg)
	if err != nil {
		log.Fatalf("synthetic conversion failed: %v", err)
	}

	fmt.Printf("Container: %s\n", res.Path)
	fmt.Printf("Generated %d records in %s\n", res.Written, res.Generate)
	fmt.Printf("Converted in %s (%.0f records/sec)\n", res.Conversion, float64(res.Stats.Records)/res.Conversion.Seconds())
	fmt.Printf("\n%s\n", res.Stats)
}
