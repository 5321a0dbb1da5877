package flowtuple

import (
	"encoding/binary"
	"fmt"
	"net/netip"
)

const (
	ipv4ByteSize = 4
	ipv6ByteSize = 16
)

// ParseAddr resolves an address field into a 4-byte or 16-byte netip.Addr.
//
// Integers below 2^32 are IPv4; larger integers are IPv6 with the value in
// the low-order bytes. Byte slices are taken by their length and strings
// must hold a textual address.
func ParseAddr(raw interface{}) (netip.Addr, error) {
	switch v := raw.(type) {
	case []byte:
		return addrFromBytes(v)
	case string:
		addr, err := netip.ParseAddr(v)
		if err != nil {
			return netip.Addr{}, fmt.Errorf("%w: %v", ErrFieldType, err)
		}
		return addr, nil
	case uint64:
		return addrFromUint(v), nil
	default:
		n, err := toInt(raw)
		if err != nil {
			return netip.Addr{}, err
		}
		if n < 0 {
			return netip.Addr{}, fmt.Errorf("%w: negative address %d", ErrFieldRange, n)
		}
		return addrFromUint(uint64(n)), nil
	}
}

func addrFromUint(n uint64) netip.Addr {
	if n <= 0xffffffff {
		var b [ipv4ByteSize]byte
		binary.BigEndian.PutUint32(b[:], uint32(n))
		return netip.AddrFrom4(b)
	}
	var b [ipv6ByteSize]byte
	binary.BigEndian.PutUint64(b[8:], n)
	return netip.AddrFrom16(b)
}

func addrFromBytes(b []byte) (netip.Addr, error) {
	switch len(b) {
	case ipv4ByteSize:
		return netip.AddrFrom4([ipv4ByteSize]byte(b)), nil
	case ipv6ByteSize:
		return netip.AddrFrom16([ipv6ByteSize]byte(b)), nil
	default:
		return netip.Addr{}, fmt.Errorf("%w: address of %d bytes", ErrFieldRange, len(b))
	}
}
