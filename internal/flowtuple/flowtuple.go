// Package flowtuple decodes corsaro3 flowtuple records into a typed form and
// renders them in the legacy cors2ascii line layout.
package flowtuple

import (
	"errors"
	"fmt"
	"math"
	"net/netip"
)

// Field names of the corsaro3 flowtuple Avro schema.
const (
	FieldTime      = "time"
	FieldSrcIP     = "src_ip"
	FieldDstIP     = "dst_ip"
	FieldSrcPort   = "src_port"
	FieldDstPort   = "dst_port"
	FieldProtocol  = "protocol"
	FieldTTL       = "ttl"
	FieldTCPFlags  = "tcp_flags"
	FieldIPLen     = "ip_len"
	FieldPacketCnt = "packet_cnt"
)

// Schema is the Avro schema of the records written by the corsaro3 flowtuple
// plugin. Fields without a Field constant are decoded but not rendered.
const Schema = `{
  "type": "record",
  "namespace": "org.caida.corsaro",
  "name": "flowtuple",
  "fields": [
    {"name": "time", "type": "long"},
    {"name": "src_ip", "type": "long"},
    {"name": "dst_ip", "type": "long"},
    {"name": "src_port", "type": "int"},
    {"name": "dst_port", "type": "int"},
    {"name": "protocol", "type": "int"},
    {"name": "ttl", "type": "int"},
    {"name": "tcp_flags", "type": "int"},
    {"name": "ip_len", "type": "int"},
    {"name": "tcp_synlen", "type": "int"},
    {"name": "tcp_synwinlen", "type": "int"},
    {"name": "packet_cnt", "type": "long"},
    {"name": "is_spoofed", "type": "int"},
    {"name": "is_masscan", "type": "int"}
  ]
}`

var (
	// ErrMissingField is returned when a required field is absent or null.
	ErrMissingField = errors.New("missing field")
	// ErrFieldType is returned when a field holds a value of an unusable type.
	ErrFieldType = errors.New("unexpected field type")
	// ErrFieldRange is returned when a value cannot be represented at all,
	// such as a negative address.
	ErrFieldRange = errors.New("field value out of range")
)

// Record is a decoded flow record as handed over by the Avro reader.
type Record = map[string]interface{}

// FlowTuple is one summarised flow. Numeric fields are held as read, without
// narrowing to their wire widths, so out-of-width values render verbatim.
type FlowTuple struct {
	Time      int64
	SrcIP     netip.Addr
	DstIP     netip.Addr
	SrcPort   int64
	DstPort   int64
	Protocol  int64
	TTL       int64
	TCPFlags  int64
	IPLen     int64
	PacketCnt int64
}

// HasTime reports whether rec carries a usable time value.
func HasTime(rec Record) bool {
	_, ok := lookup(rec, FieldTime)
	return ok
}

// Time returns the time field of rec.
func Time(rec Record) (int64, error) {
	return intField(rec, FieldTime)
}

// FromRecord decodes rec. It reports ErrMissingField for any absent field,
// including time; callers that tolerate records without time should check
// HasTime first.
func FromRecord(rec Record) (FlowTuple, error) {
	var (
		ft  FlowTuple
		err error
	)

	if ft.Time, err = Time(rec); err != nil {
		return ft, err
	}
	if ft.SrcIP, err = addrField(rec, FieldSrcIP); err != nil {
		return ft, err
	}
	if ft.DstIP, err = addrField(rec, FieldDstIP); err != nil {
		return ft, err
	}

	fields := []struct {
		name string
		dst  *int64
	}{
		{FieldSrcPort, &ft.SrcPort},
		{FieldDstPort, &ft.DstPort},
		{FieldProtocol, &ft.Protocol},
		{FieldTTL, &ft.TTL},
		{FieldTCPFlags, &ft.TCPFlags},
		{FieldIPLen, &ft.IPLen},
		{FieldPacketCnt, &ft.PacketCnt},
	}
	for _, f := range fields {
		if *f.dst, err = intField(rec, f.name); err != nil {
			return ft, err
		}
	}
	return ft, nil
}

// Line renders the flow as
//
//	src|dst|sport|dport|proto|ttl|0xff|ip_len,packet_cnt
func (ft FlowTuple) Line() string {
	return fmt.Sprintf("%s|%s|%d|%d|%d|%d|0x%02x|%d,%d",
		ft.SrcIP, ft.DstIP,
		ft.SrcPort, ft.DstPort,
		ft.Protocol, ft.TTL,
		ft.TCPFlags, ft.IPLen,
		ft.PacketCnt)
}

// lookup fetches a field, unwrapping goavro union values ({"long": 5}).
// A missing field and a null value are both reported as absent.
func lookup(rec Record, name string) (interface{}, bool) {
	v, ok := rec[name]
	if !ok {
		return nil, false
	}
	if union, isUnion := v.(map[string]interface{}); isUnion && len(union) == 1 {
		for _, inner := range union {
			v = inner
		}
	}
	return v, v != nil
}

func intField(rec Record, name string) (int64, error) {
	raw, ok := lookup(rec, name)
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrMissingField, name)
	}
	v, err := toInt(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", name, err)
	}
	return v, nil
}

func addrField(rec Record, name string) (netip.Addr, error) {
	raw, ok := lookup(rec, name)
	if !ok {
		return netip.Addr{}, fmt.Errorf("%w: %s", ErrMissingField, name)
	}
	addr, err := ParseAddr(raw)
	if err != nil {
		return netip.Addr{}, fmt.Errorf("%s: %w", name, err)
	}
	return addr, nil
}

func toInt(raw interface{}) (int64, error) {
	switch v := raw.(type) {
	case int:
		return int64(v), nil
	case int8:
		return int64(v), nil
	case int16:
		return int64(v), nil
	case int32:
		return int64(v), nil
	case int64:
		return v, nil
	case uint:
		return unsigned(uint64(v))
	case uint8:
		return int64(v), nil
	case uint16:
		return int64(v), nil
	case uint32:
		return int64(v), nil
	case uint64:
		return unsigned(v)
	default:
		return 0, fmt.Errorf("%w: %T", ErrFieldType, raw)
	}
}

// unsigned rejects values no Avro long can carry.
func unsigned(v uint64) (int64, error) {
	if v > math.MaxInt64 {
		return 0, fmt.Errorf("%w: %d overflows a long", ErrFieldRange, v)
	}
	return int64(v), nil
}

// Protocol reads only the protocol number of rec. It reports false when the
// field is absent or is not an IP protocol number.
func Protocol(rec Record) (uint8, bool) {
	v, err := intField(rec, FieldProtocol)
	if err != nil || v < 0 || v > math.MaxUint8 {
		return 0, false
	}
	return uint8(v), true
}
