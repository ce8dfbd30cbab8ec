// Package history reconstructs the per-facet recording history streamed by a
// TimeFlip tracker in response to the history command. The device answers with
// a sequence of 21-byte packets read off the command result characteristic;
// the stream is terminated by an all-zero packet.
package history

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/srg/timeflip/timeflip/profile"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

const (
	// PacketLen is the size of every history packet.
	PacketLen = profile.CommandResultLen

	// RecordsPerPacket is the number of 3-byte records packed into a packet.
	RecordsPerPacket = 7

	recordLen = 3

	// MaxSeconds is the largest duration a record can carry: 24 bits minus
	// the 6 facet bits in the third byte.
	MaxSeconds = 1<<18 - 1
)

// ErrBadPacketLength is returned when a pushed packet is not exactly 21 bytes.
var ErrBadPacketLength = errors.New("history packet must be 21 bytes")

// Entry is one recording: which facet was up and for how long.
type Entry struct {
	Facet   uint8
	Seconds uint32
}

// ByFacet groups durations per facet, preserving both the order facets were
// first seen in and the arrival order of durations within a facet.
type ByFacet = orderedmap.OrderedMap[uint8, []uint32]

// DecodeRecord unpacks a 3-byte record. The top 6 bits of the third byte are
// the facet id; the remaining 18 bits, little-endian, are the duration in
// seconds. The 2 low bits of the third byte stay part of the duration as-is.
func DecodeRecord(rec []byte) Entry {
	return Entry{
		Facet:   rec[2] >> 2,
		Seconds: uint32(rec[0]) | uint32(rec[1])<<8 | uint32(rec[2]&0x03)<<16,
	}
}

// EncodeRecord packs an entry back into the 3-byte wire layout. Seconds above
// MaxSeconds and facets above 63 are truncated to their field widths.
func EncodeRecord(e Entry) [recordLen]byte {
	return [recordLen]byte{
		byte(e.Seconds),
		byte(e.Seconds >> 8),
		e.Facet<<2 | byte(e.Seconds>>16)&0x03,
	}
}

// Decoder accumulates history packets until the all-zero end-of-stream
// sentinel arrives. It is stateful and not safe for concurrent use.
//
// Every packet is decoded into 7 records unconditionally, even though the
// first 2 bytes of each packet double as a running entry counter. The excess
// records produced by that overlap are padding; Entries trims the accumulated
// list to the counter value carried by the last real packet. This mirrors the
// device wire format exactly and must not be "fixed".
type Decoder struct {
	entries []Entry
	count   int
	done    bool
}

// NewDecoder returns a decoder ready to consume the first packet.
func NewDecoder() *Decoder {
	return &Decoder{}
}

// Push consumes one packet. It reports true once the sentinel packet was seen;
// further pushes are ignored. A packet of the wrong length fails with
// ErrBadPacketLength.
func (d *Decoder) Push(pkt []byte) (bool, error) {
	if d.done {
		return true, nil
	}
	if len(pkt) != PacketLen {
		return false, fmt.Errorf("%w, got %d", ErrBadPacketLength, len(pkt))
	}
	if isSentinel(pkt) {
		d.done = true
		return true, nil
	}

	// The counter is cumulative; only the value from the last real packet
	// matters. It is not guaranteed to arrive in the first packet.
	d.count = int(binary.LittleEndian.Uint16(pkt[:2]))

	for i := 0; i < RecordsPerPacket; i++ {
		d.entries = append(d.entries, DecodeRecord(pkt[i*recordLen:(i+1)*recordLen]))
	}
	return false, nil
}

// Done reports whether the sentinel packet was consumed.
func (d *Decoder) Done() bool {
	return d.done
}

// Entries returns the decoded entries trimmed to the authoritative count from
// the last real packet, in arrival order.
func (d *Decoder) Entries() []Entry {
	n := d.count
	if n > len(d.entries) {
		n = len(d.entries)
	}
	out := make([]Entry, n)
	copy(out, d.entries[:n])
	return out
}

// Group builds the per-facet view of the trimmed entries.
func (d *Decoder) Group() *ByFacet {
	return Group(d.Entries())
}

// Group arranges entries by facet, keeping per-facet arrival order.
func Group(entries []Entry) *ByFacet {
	grouped := orderedmap.New[uint8, []uint32]()
	for _, e := range entries {
		durations, _ := grouped.Get(e.Facet)
		grouped.Set(e.Facet, append(durations, e.Seconds))
	}
	return grouped
}

func isSentinel(pkt []byte) bool {
	for _, b := range pkt {
		if b != 0 {
			return false
		}
	}
	return true
}
