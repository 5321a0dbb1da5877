// Package avrotest builds flowtuple Avro containers for tests.
package avrotest

import (
	"os"
	"testing"

	"github.com/CAIDA/corsavro-ft2ascii/internal/flowtuple"

	"github.com/linkedin/goavro/v2"
)

// Schema mirrors the record layout written by the corsaro3 flowtuple plugin.
const Schema = flowtuple.Schema

// NullableTimeSchema is Schema with time declared as ["null", "long"], used
// to produce records that lack a time value.
const NullableTimeSchema = `{
  "type": "record",
  "namespace": "org.caida.corsaro",
  "name": "flowtuple",
  "fields": [
    {"name": "time", "type": ["null", "long"]},
    {"name": "src_ip", "type": "long"},
    {"name": "dst_ip", "type": "long"},
    {"name": "src_port", "type": "int"},
    {"name": "dst_port", "type": "int"},
    {"name": "protocol", "type": "int"},
    {"name": "ttl", "type": "int"},
    {"name": "tcp_flags", "type": "int"},
    {"name": "ip_len", "type": "int"},
    {"name": "packet_cnt", "type": "long"}
  ]
}`

// Flow returns a native record for Schema.
func Flow(ts, srcIP, dstIP int64, srcPort, dstPort int32) map[string]interface{} {
	return map[string]interface{}{
		"time":          ts,
		"src_ip":        srcIP,
		"dst_ip":        dstIP,
		"src_port":      srcPort,
		"dst_port":      dstPort,
		"protocol":      int32(6),
		"ttl":           int32(47),
		"tcp_flags":     int32(0x02),
		"ip_len":        int32(40),
		"tcp_synlen":    int32(20),
		"tcp_synwinlen": int32(1024),
		"packet_cnt":    int64(1),
		"is_spoofed":    int32(0),
		"is_masscan":    int32(0),
	}
}

// NullableFlow returns a native record for NullableTimeSchema. A nil ts
// writes a null time.
func NullableFlow(ts *int64, srcIP, dstIP int64, srcPort, dstPort int32) map[string]interface{} {
	rec := Flow(0, srcIP, dstIP, srcPort, dstPort)
	delete(rec, "tcp_synlen")
	delete(rec, "tcp_synwinlen")
	delete(rec, "is_spoofed")
	delete(rec, "is_masscan")
	if ts == nil {
		rec["time"] = nil
	} else {
		rec["time"] = goavro.Union("long", *ts)
	}
	return rec
}

// WriteContainer writes records to path as a snappy-compressed container.
func WriteContainer(tb testing.TB, path, schema string, records []map[string]interface{}) {
	tb.Helper()

	f, err := os.Create(path)
	if err != nil {
		tb.Fatalf("failed to create %s: %v", path, err)
	}
	defer f.Close()

	w, err := goavro.NewOCFWriter(goavro.OCFConfig{
		W:               f,
		Schema:          schema,
		CompressionName: goavro.CompressionSnappyLabel,
	})
	if err != nil {
		tb.Fatalf("failed to create OCF writer: %v", err)
	}

	datums := make([]interface{}, len(records))
	for i, rec := range records {
		datums[i] = rec
	}
	if err := w.Append(datums); err != nil {
		tb.Fatalf("failed to append records: %v", err)
	}
}
