// Package cidr implements IPv4 address-space arithmetic used to carve a VPC
// block into subnet blocks.
package cidr

import (
	"encoding/binary"
	"fmt"
	"net/netip"
	"strings"

	"go4.org/netipx"
)

// Block is an IPv4 network address plus prefix length. The address is always
// the network address for the prefix.
type Block struct {
	prefix netip.Prefix
}

// Parse parses an IPv4 CIDR string. Host bits must be zero.
func Parse(s string) (Block, error) {
	p, err := netip.ParsePrefix(strings.TrimSpace(s))
	if err != nil {
		return Block{}, &InvalidInputError{Input: s, Reason: "invalid CIDR block notation"}
	}
	if !p.Addr().Is4() {
		return Block{}, &InvalidInputError{Input: s, Reason: "only IPv4 blocks are supported"}
	}
	if p != p.Masked() {
		return Block{}, &InvalidInputError{Input: s, Reason: fmt.Sprintf("host bits are set, it should be %s", p.Masked())}
	}
	return Block{prefix: p}, nil
}

// MustParse is like Parse but panics on error. Intended for constants and tests.
func MustParse(s string) Block {
	b, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return b
}

// ParseAll parses every string and returns all parse errors combined.
func ParseAll(values []string) ([]Block, error) {
	blocks := make([]Block, 0, len(values))
	var errs []error
	for _, v := range values {
		b, err := Parse(v)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		blocks = append(blocks, b)
	}
	return blocks, combine(errs)
}

func fromUint32(addr uint32, bits int) Block {
	var a [4]byte
	binary.BigEndian.PutUint32(a[:], addr)
	return Block{prefix: netip.PrefixFrom(netip.AddrFrom4(a), bits).Masked()}
}

// Prefix returns the underlying netip.Prefix.
func (b Block) Prefix() netip.Prefix { return b.prefix }

// Bits returns the prefix length.
func (b Block) Bits() int { return b.prefix.Bits() }

// IsZero reports whether b is the zero Block.
func (b Block) IsZero() bool { return !b.prefix.IsValid() }

// First returns the network address as an integer, or 0 for the zero Block.
func (b Block) First() uint32 {
	if b.IsZero() {
		return 0
	}
	a := b.prefix.Addr().As4()
	return binary.BigEndian.Uint32(a[:])
}

// Last returns the broadcast address as an integer, or 0 for the zero Block.
func (b Block) Last() uint32 {
	if b.IsZero() {
		return 0
	}
	return b.First() | uint32(b.Size()-1)
}

// Size returns the number of addresses in the block; the zero Block has none.
func (b Block) Size() uint64 {
	if b.IsZero() {
		return 0
	}
	return uint64(1) << (32 - b.Bits())
}

// Network returns the network address.
func (b Block) Network() netip.Addr { return b.prefix.Addr() }

// Broadcast returns the last address in the block.
func (b Block) Broadcast() netip.Addr { return netipx.PrefixLastIP(b.prefix) }

func (b Block) String() string {
	if b.IsZero() {
		return ""
	}
	return b.prefix.String()
}

func (b Block) MarshalText() ([]byte, error) {
	return []byte(b.String()), nil
}

func (b *Block) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*b = parsed
	return nil
}

// Overlaps reports whether the address ranges of a and b intersect. The zero
// Block overlaps nothing.
func Overlaps(a, b Block) bool {
	if a.IsZero() || b.IsZero() {
		return false
	}
	return a.First() <= b.Last() && b.First() <= a.Last()
}

// Contains reports whether child lies entirely within parent. The zero Block
// neither contains nor is contained in anything.
func Contains(parent, child Block) bool {
	if parent.IsZero() || child.IsZero() {
		return false
	}
	return child.First() >= parent.First() && child.Last() <= parent.Last()
}

var rfc1918 = []Block{
	MustParse("10.0.0.0/8"),
	MustParse("172.16.0.0/12"),
	MustParse("192.168.0.0/16"),
}

// IsRFC1918 reports whether b falls inside one of the private address ranges.
func IsRFC1918(b Block) bool {
	for _, r := range rfc1918 {
		if Contains(r, b) {
			return true
		}
	}
	return false
}
