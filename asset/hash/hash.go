// Package hash implements the engine's 128-bit content hash: a stable
// digest used to key every blob in the content-addressed store. It uses
// BLAKE3 truncated to 128 bits for real collision resistance, while
// keeping the 128-bit width and 32-lowercase-hex canonical form a
// placeholder double-hash scheme would also need.
package hash

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"

	"lukechampine.com/blake3"
)

// Size is the content hash width in bytes (128 bits).
const Size = 16

// ContentHash is a 128-bit value, stored as two uint64 halves so equality
// and ordering are plain integer comparisons.
type ContentHash struct {
	Hi uint64
	Lo uint64
}

// Sentinel is the distinguished all-ones hash used by the archive format
// to mark its embedded path manifest entry; never returned by FromBytes
// for any real input.
var Sentinel = ContentHash{Hi: ^uint64(0), Lo: ^uint64(0)}

// Zero is the hash of an empty byte slice: a distinguished, non-null
// value, not the zero ContentHash{}.
var Zero ContentHash

func init() {
	Zero = FromBytes(nil)
}

// FromBytes computes the stable content hash of data.
func FromBytes(data []byte) ContentHash {
	sum := blake3.Sum256(data)
	return ContentHash{
		Hi: binary.LittleEndian.Uint64(sum[0:8]),
		Lo: binary.LittleEndian.Uint64(sum[8:16]),
	}
}

// String renders the hash as 32 lowercase hex characters.
func (h ContentHash) String() string {
	var buf [16]byte
	binary.LittleEndian.PutUint64(buf[0:8], h.Hi)
	binary.LittleEndian.PutUint64(buf[8:16], h.Lo)
	return hex.EncodeToString(buf[:])
}

// Bytes returns the hash's 16-byte little-endian encoding.
func (h ContentHash) Bytes() [16]byte {
	var buf [16]byte
	binary.LittleEndian.PutUint64(buf[0:8], h.Hi)
	binary.LittleEndian.PutUint64(buf[8:16], h.Lo)
	return buf
}

// FromHexString parses a 32-character lowercase hex string produced by
// String.
func FromHexString(s string) (ContentHash, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return ContentHash{}, err
	}
	return FromByteSlice(b)
}

// FromByteSlice decodes a 16-byte little-endian encoding produced by
// Bytes.
func FromByteSlice(b []byte) (ContentHash, error) {
	if len(b) != Size {
		return ContentHash{}, errInvalidLength(len(b))
	}
	return ContentHash{
		Hi: binary.LittleEndian.Uint64(b[0:8]),
		Lo: binary.LittleEndian.Uint64(b[8:16]),
	}, nil
}

type errInvalidLength int

func (e errInvalidLength) Error() string {
	return fmt.Sprintf("hash: expected %d bytes, got %d", Size, int(e))
}

// Less provides a total order over ContentHash values, used to sort the
// archive's asset ToC ascending by hash.
func (h ContentHash) Less(other ContentHash) bool {
	if h.Hi != other.Hi {
		return h.Hi < other.Hi
	}
	return h.Lo < other.Lo
}

// IsZero reports whether h is the zero-value ContentHash (distinct from
// the hash of empty input, Zero).
func (h ContentHash) IsZero() bool { return h.Hi == 0 && h.Lo == 0 }
