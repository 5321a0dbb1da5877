// Package converter drives records from a reader through the interval
// formatter.
package converter

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/CAIDA/corsavro-ft2ascii/internal/ascii"
	"github.com/CAIDA/corsavro-ft2ascii/internal/flowtuple"

	"github.com/google/gopacket/layers"
)

// Source yields records in file order and io.EOF when exhausted.
type Source interface {
	Next() (map[string]interface{}, error)
}

// Stats summarises one conversion run.
type Stats struct {
	Records        uint64
	Skipped        uint64
	Intervals      uint64
	OutOfOrder     uint64
	ProtocolCounts map[string]uint64
}

func (s Stats) String() string {
	names := make([]string, 0, len(s.ProtocolCounts))
	for name := range s.ProtocolCounts {
		names = append(names, name)
	}
	sort.Strings(names)
	protos := make([]string, 0, len(names))
	for _, name := range names {
		protos = append(protos, fmt.Sprintf("%s=%d", name, s.ProtocolCounts[name]))
	}

	return fmt.Sprintf("Total Records: %d\nSkipped (no time): %d\nCompleted Intervals: %d\nOut Of Order: %d\nProtocol Distribution: [%s]",
		s.Records, s.Skipped, s.Intervals, s.OutOfOrder, strings.Join(protos, " "))
}

// Converter runs a single pass over a Source.
type Converter struct {
	src       Source
	formatter *ascii.Formatter
}

// New creates a Converter feeding src into f.
func New(src Source, f *ascii.Formatter) *Converter {
	return &Converter{src: src, formatter: f}
}

// Run processes records until the source is exhausted or fails. It never
// closes the formatter, so the last interval stays open. The returned stats
// are valid even when err is not nil.
func (c *Converter) Run() (*Stats, error) {
	stats := &Stats{ProtocolCounts: make(map[string]uint64)}
	defer c.collect(stats)

	for {
		rec, err := c.src.Next()
		if err == io.EOF {
			return stats, nil
		}
		if err != nil {
			return stats, fmt.Errorf("error reading record %d: %w", stats.Records, err)
		}
		stats.Records++

		if err := c.formatter.ProcessRecord(rec); err != nil {
			return stats, fmt.Errorf("error processing record %d: %w", stats.Records-1, err)
		}
		if !flowtuple.HasTime(rec) {
			continue
		}
		if proto, ok := flowtuple.Protocol(rec); ok {
			stats.ProtocolCounts[layers.IPProtocol(proto).String()]++
		}
	}
}

func (c *Converter) collect(stats *Stats) {
	stats.Skipped = c.formatter.Skipped()
	stats.Intervals = c.formatter.Intervals()
	stats.OutOfOrder = c.formatter.OutOfOrder()
}
