package load

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/CAIDA/corsavro-ft2ascii/internal/ascii"
	"github.com/CAIDA/corsavro-ft2ascii/internal/avroreader"
	"github.com/CAIDA/corsavro-ft2ascii/internal/converter"
	"github.com/CAIDA/corsavro-ft2ascii/internal/flowtuple"

	"github.com/linkedin/goavro/v2"
)

// darknet is 44.0.0.0/8, the UCSD telescope prefix.
const darknet = 44 << 24

// Config controls the shape of a synthetic flowtuple stream.
type Config struct {
	Intervals        int
	FlowsPerInterval int
	// Start is the time of the first interval, in unix seconds.
	Start uint64
	// Step is the gap between interval times.
	Step uint64
	// Seed makes the generated flows reproducible.
	Seed int64
	// OutputDir receives the generated container. Defaults to a temp dir.
	OutputDir string
}

// Result reports one synthetic conversion run.
type Result struct {
	Path       string
	Written    uint64
	Stats      *converter.Stats
	Generate   time.Duration
	Conversion time.Duration
}

func (c *Config) applyDefaults() {
	if c.Intervals <= 0 {
		c.Intervals = 10
	}
	if c.FlowsPerInterval <= 0 {
		c.FlowsPerInterval = 1000
	}
	if c.Start == 0 {
		c.Start = 1500000000
	}
	if c.Step == 0 {
		c.Step = 60
	}
}

// WriteSynthetic writes a snappy-compressed flowtuple container to w and
// returns the number of records written. Records are grouped by interval in
// increasing time order.
func WriteSynthetic(ctx context.Context, w io.Writer, cfg Config) (uint64, error) {
	cfg.applyDefaults()

	ocf, err := goavro.NewOCFWriter(goavro.OCFConfig{
		W:               w,
		Schema:          flowtuple.Schema,
		CompressionName: goavro.CompressionSnappyLabel,
	})
	if err != nil {
		return 0, fmt.Errorf("failed to create container writer: %w", err)
	}

	rng := rand.New(rand.NewSource(cfg.Seed))
	var written uint64
	batch := make([]interface{}, cfg.FlowsPerInterval)
	for i := 0; i < cfg.Intervals; i++ {
		if err := ctx.Err(); err != nil {
			return written, err
		}
		ts := int64(cfg.Start + uint64(i)*cfg.Step)
		for j := range batch {
			batch[j] = randomFlow(rng, ts)
		}
		if err := ocf.Append(batch); err != nil {
			return written, fmt.Errorf("failed to append interval %d: %w", i, err)
		}
		written += uint64(len(batch))
	}
	return written, nil
}

func randomFlow(rng *rand.Rand, ts int64) map[string]interface{} {
	protocol := int32(6)
	flags := int32(0x02)
	switch n := rng.Intn(10); {
	case n == 0:
		protocol, flags = 1, 0
	case n < 3:
		protocol, flags = 17, 0
	}
	return map[string]interface{}{
		"time":          ts,
		"src_ip":        int64(rng.Uint32()),
		"dst_ip":        int64(darknet | rng.Intn(1<<24)),
		"src_port":      int32(rng.Intn(1 << 16)),
		"dst_port":      int32(rng.Intn(1 << 16)),
		"protocol":      protocol,
		"ttl":           int32(32 + rng.Intn(224)),
		"tcp_flags":     flags,
		"ip_len":        int32(40 + rng.Intn(1460)),
		"tcp_synlen":    int32(0),
		"tcp_synwinlen": int32(0),
		"packet_cnt":    int64(1 + rng.Intn(20)),
		"is_spoofed":    int32(rng.Intn(2)),
		"is_masscan":    int32(0),
	}
}

// RunSyntheticConversion generates a container on disk, then converts it
// with output discarded, timing both phases.
func RunSyntheticConversion(ctx context.Context, cfg Config) (*Result, error) {
	cfg.applyDefaults()

	dir := cfg.OutputDir
	if dir == "" {
		tmp, err := os.MkdirTemp("", "ft2ascii-load-")
		if err != nil {
			return nil, err
		}
		dir = tmp
	} else if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	res := &Result{Path: filepath.Join(dir, fmt.Sprintf("synthetic-%d.avro", cfg.Start))}
	f, err := os.Create(res.Path)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	res.Written, err = WriteSynthetic(ctx, f, cfg)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return res, err
	}
	res.Generate = time.Since(start)

	r, err := avroreader.Open(res.Path)
	if err != nil {
		return res, err
	}
	defer r.Close()

	start = time.Now()
	formatter := ascii.NewFormatter(io.Discard, io.Discard)
	res.Stats, err = converter.New(r, formatter).Run()
	res.Conversion = time.Since(start)
	return res, err
}
