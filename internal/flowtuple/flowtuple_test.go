package flowtuple

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRecord() Record {
	return Record{
		"time":       int64(1500000000),
		"src_ip":     int64(0xC0A80101), // 192.168.1.1
		"dst_ip":     int64(0x2C000001), // 44.0.0.1
		"src_port":   int32(12345),
		"dst_port":   int32(80),
		"protocol":   int32(6),
		"ttl":        int32(64),
		"tcp_flags":  int32(2),
		"ip_len":     int32(40),
		"packet_cnt": int64(3),
	}
}

func TestFromRecord(t *testing.T) {
	ft, err := FromRecord(sampleRecord())
	require.NoError(t, err)

	assert.Equal(t, int64(1500000000), ft.Time)
	assert.Equal(t, "192.168.1.1", ft.SrcIP.String())
	assert.Equal(t, "44.0.0.1", ft.DstIP.String())
	assert.Equal(t, int64(12345), ft.SrcPort)
	assert.Equal(t, int64(80), ft.DstPort)
	assert.Equal(t, int64(6), ft.Protocol)
	assert.Equal(t, int64(64), ft.TTL)
	assert.Equal(t, int64(2), ft.TCPFlags)
	assert.Equal(t, int64(40), ft.IPLen)
	assert.Equal(t, int64(3), ft.PacketCnt)
	assert.Equal(t, "192.168.1.1|44.0.0.1|12345|80|6|64|0x02|40,3", ft.Line())
}

func TestFromRecordUnwrapsUnions(t *testing.T) {
	rec := sampleRecord()
	rec["ttl"] = map[string]interface{}{"int": int32(128)}
	rec["packet_cnt"] = map[string]interface{}{"long": int64(9)}

	ft, err := FromRecord(rec)
	require.NoError(t, err)
	assert.Equal(t, int64(128), ft.TTL)
	assert.Equal(t, int64(9), ft.PacketCnt)
}

func TestFromRecordErrors(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(Record)
		wantErr error
		msg     string
	}{
		{"missing time", func(r Record) { delete(r, "time") }, ErrMissingField, "time"},
		{"null time", func(r Record) { r["time"] = nil }, ErrMissingField, "time"},
		{"null union", func(r Record) { r["ip_len"] = map[string]interface{}{"null": nil} }, ErrMissingField, "ip_len"},
		{"missing dst_port", func(r Record) { delete(r, "dst_port") }, ErrMissingField, "dst_port"},
		{"string port", func(r Record) { r["src_port"] = "80" }, ErrFieldType, "src_port"},
		{"float time", func(r Record) { r["time"] = 1.5 }, ErrFieldType, "time"},
		{"unsigned overflow", func(r Record) { r["packet_cnt"] = uint64(1) << 63 }, ErrFieldRange, "packet_cnt"},
		{"negative address", func(r Record) { r["src_ip"] = int64(-5) }, ErrFieldRange, "src_ip"},
		{"short address bytes", func(r Record) { r["dst_ip"] = []byte{1, 2, 3} }, ErrFieldRange, "dst_ip"},
		{"non-address text", func(r Record) { r["dst_ip"] = "abcd" }, ErrFieldType, "dst_ip"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := sampleRecord()
			tt.mutate(rec)
			_, err := FromRecord(rec)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Contains(t, err.Error(), tt.msg)
		})
	}
}

func TestTime(t *testing.T) {
	ts, err := Time(Record{"time": map[string]interface{}{"long": int64(42)}})
	require.NoError(t, err)
	assert.Equal(t, int64(42), ts)

	_, err = Time(Record{"time": "soon"})
	assert.ErrorIs(t, err, ErrFieldType)
}

func TestHasTime(t *testing.T) {
	assert.True(t, HasTime(sampleRecord()))
	assert.True(t, HasTime(Record{"time": int64(0)}))
	assert.False(t, HasTime(Record{"src_ip": int64(1)}))
	assert.False(t, HasTime(Record{"time": nil}))
	assert.False(t, HasTime(Record{"time": map[string]interface{}{"null": nil}}))
}

func TestFromRecordKeepsOutOfWidthValues(t *testing.T) {
	rec := sampleRecord()
	rec["src_port"] = int32(70000)
	rec["dst_port"] = int32(-1)
	rec["protocol"] = int32(300)
	rec["ttl"] = int32(1000)
	rec["tcp_flags"] = int32(256)
	rec["ip_len"] = int64(1) << 33
	rec["packet_cnt"] = int64(-7)

	ft, err := FromRecord(rec)
	require.NoError(t, err)
	assert.Equal(t, "192.168.1.1|44.0.0.1|70000|-1|300|1000|0x100|8589934592,-7", ft.Line())
}

func TestLineTCPFlagsAlwaysTwoHexDigits(t *testing.T) {
	tests := []struct {
		flags int32
		want  string
	}{
		{0, "|0x00|"},
		{1, "|0x01|"},
		{0x12, "|0x12|"},
		{0xab, "|0xab|"},
		{255, "|0xff|"},
	}
	for _, tt := range tests {
		rec := sampleRecord()
		rec["tcp_flags"] = tt.flags
		ft, err := FromRecord(rec)
		require.NoError(t, err)
		assert.Contains(t, ft.Line(), tt.want)
	}
}

func TestParseAddr(t *testing.T) {
	v6 := []byte{0x20, 0x01, 0x0d, 0xb8, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 1}

	tests := []struct {
		name   string
		raw    interface{}
		want   string
		isIPv4 bool
	}{
		{"zero", int64(0), "0.0.0.0", true},
		{"int64 v4", int64(0x01020304), "1.2.3.4", true},
		{"max v4", uint64(0xffffffff), "255.255.255.255", true},
		{"int32 v4", int32(0x7f000001), "127.0.0.1", true},
		{"above 32 bits", uint64(1) << 32, "::1:0:0", false},
		{"bytes v4", []byte{10, 0, 0, 1}, "10.0.0.1", true},
		{"bytes v6", v6, "2001:db8::1", false},
		{"text v4", "1.2.3.4", "1.2.3.4", true},
		{"text v6", "2001:db8::1", "2001:db8::1", false},
		{"uint64 above int64", uint64(1) << 63, "::8000:0:0:0", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			addr, err := ParseAddr(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.want, addr.String())
			assert.Equal(t, tt.isIPv4, addr.Is4())
			assert.Equal(t, !tt.isIPv4, addr.Is6())
		})
	}
}

func TestParseAddrRejectsBadInput(t *testing.T) {
	_, err := ParseAddr(3.14)
	assert.ErrorIs(t, err, ErrFieldType)

	_, err = ParseAddr(make([]byte, 8))
	assert.ErrorIs(t, err, ErrFieldRange)

	_, err = ParseAddr("abcd")
	assert.ErrorIs(t, err, ErrFieldType)

	_, err = ParseAddr(string([]byte{10, 0, 0, 1}))
	assert.ErrorIs(t, err, ErrFieldType)
}

func TestParseAddrIPv4MappedInteger(t *testing.T) {
	addr, err := ParseAddr(int64(0xffff01020304))
	require.NoError(t, err)
	assert.True(t, addr.Is4In6())
	assert.Equal(t, "::ffff:1.2.3.4", addr.String())
}

func TestProtocol(t *testing.T) {
	p, ok := Protocol(sampleRecord())
	assert.True(t, ok)
	assert.Equal(t, uint8(6), p)

	_, ok = Protocol(Record{"protocol": int32(300)})
	assert.False(t, ok)
	_, ok = Protocol(Record{"protocol": int32(-1)})
	assert.False(t, ok)
	_, ok = Protocol(Record{})
	assert.False(t, ok)
}
