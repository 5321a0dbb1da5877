// Package ascii writes flowtuple records in the interval-oriented text layout
// produced by the corsaro2 cors2ascii tool.
//
// Records are grouped into intervals by their time field. Every completed
// interval is emitted as a block of three category sections; since flowtuple
// records carry no category, the backscatter and icmpreq sections are always
// empty and every flow is listed under "other". A block can only be written
// once the next interval begins, because the section header carries the flow
// count, so the last interval of a stream is left open unless Close is
// called.
package ascii

import (
	"fmt"
	"io"

	"github.com/CAIDA/corsavro-ft2ascii/internal/flowtuple"
)

const (
	sectionBackscatter = "flowtuple_backscatter"
	sectionICMPReq     = "flowtuple_icmpreq"
	sectionOther       = "flowtuple_other"
)

// Formatter holds the state of the interval currently being accumulated.
// It is not safe for concurrent use.
type Formatter struct {
	out      io.Writer
	progress io.Writer

	lastTime      int64
	intervalCount uint64
	flowCount     uint64
	flows         []string

	completed  uint64
	skipped    uint64
	outOfOrder uint64
	closed     bool
}

// NewFormatter returns a Formatter writing blocks to out and one
// "completed <n> intervals" line per block to progress.
func NewFormatter(out, progress io.Writer) *Formatter {
	return &Formatter{
		out:      out,
		progress: progress,
		flows:    make([]string, 0),
	}
}

// ProcessRecord adds one record to the open interval, first closing it if the
// record starts a later one. Records without a time field are ignored.
//
// Interval boundaries are driven by time alone: a record that starts a new
// interval closes the previous one and opens its own before the remaining
// fields are decoded, so a malformed record still leaves the boundary
// markers in the output and only the record itself is missing.
func (f *Formatter) ProcessRecord(rec flowtuple.Record) error {
	if !flowtuple.HasTime(rec) {
		f.skipped++
		return nil
	}

	ts, err := flowtuple.Time(rec)
	if err != nil {
		return fmt.Errorf("failed to decode flowtuple: %w", err)
	}

	if ts > f.lastTime {
		if f.lastTime != 0 {
			if err := f.flush(); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintf(f.out, "# CORSARO_INTERVAL_START %d %d\n", f.intervalCount, ts); err != nil {
			return fmt.Errorf("failed to write interval start: %w", err)
		}
		f.intervalCount++
		f.lastTime = ts
		f.flowCount = 0
		f.flows = f.flows[:0]
	} else if ts < f.lastTime {
		f.outOfOrder++
	}

	ft, err := flowtuple.FromRecord(rec)
	if err != nil {
		return fmt.Errorf("failed to decode flowtuple: %w", err)
	}
	f.flows = append(f.flows, ft.Line())
	f.flowCount++
	return nil
}

// Close writes the block for the interval that is still open. cors2ascii
// never did this, so callers wanting byte-identical output must not call it.
// Repeated calls are no-ops.
func (f *Formatter) Close() error {
	if f.closed || f.lastTime == 0 {
		return nil
	}
	f.closed = true
	return f.flush()
}

// Intervals returns the number of intervals written out so far.
func (f *Formatter) Intervals() uint64 {
	return f.completed
}

// Skipped returns the number of records ignored for lacking a time field.
func (f *Formatter) Skipped() uint64 {
	return f.skipped
}

// OutOfOrder returns the number of records whose time went backwards. They
// are kept in the open interval.
func (f *Formatter) OutOfOrder() uint64 {
	return f.outOfOrder
}

func (f *Formatter) flush() error {
	if err := f.writeSection(sectionBackscatter, 0, nil); err != nil {
		return err
	}
	if err := f.writeSection(sectionICMPReq, 0, nil); err != nil {
		return err
	}
	if err := f.writeSection(sectionOther, f.flowCount, f.flows); err != nil {
		return err
	}

	// intervalCount counts opened intervals, so the open one is intervalCount-1.
	if _, err := fmt.Fprintf(f.out, "# CORSARO_INTERVAL_END %d %d\n", f.intervalCount-1, f.lastTime); err != nil {
		return fmt.Errorf("failed to write interval end: %w", err)
	}

	f.completed++
	if _, err := fmt.Fprintf(f.progress, "completed %d intervals\n", f.intervalCount); err != nil {
		return fmt.Errorf("failed to write progress: %w", err)
	}
	return nil
}

func (f *Formatter) writeSection(name string, count uint64, lines []string) error {
	if _, err := fmt.Fprintf(f.out, "START %s %d\n", name, count); err != nil {
		return fmt.Errorf("failed to write %s header: %w", name, err)
	}
	for _, line := range lines {
		if _, err := io.WriteString(f.out, line+"\n"); err != nil {
			return fmt.Errorf("failed to write %s flow: %w", name, err)
		}
	}
	if _, err := fmt.Fprintf(f.out, "END %s\n", name); err != nil {
		return fmt.Errorf("failed to write %s trailer: %w", name, err)
	}
	return nil
}
