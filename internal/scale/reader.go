package scale

import (
	"encoding/binary"
	"unicode/utf8"

	"github.com/holiman/uint256"
)

// Reader consumes a SCALE encoded buffer left to right.
type Reader struct {
	buf []byte
	pos int
}

func NewReader(buf []byte) *Reader {
	return &Reader{buf: buf}
}

// Offset returns the number of bytes consumed so far.
func (r *Reader) Offset() int {
	return r.pos
}

// Remaining returns the number of unread bytes.
func (r *Reader) Remaining() int {
	return len(r.buf) - r.pos
}

// Consumed returns the bytes read between start and the current position.
func (r *Reader) Consumed(start int) []byte {
	out := make([]byte, r.pos-start)
	copy(out, r.buf[start:r.pos])
	return out
}

// ReadN returns a copy of the next n bytes.
func (r *Reader) ReadN(n int) ([]byte, error) {
	if n < 0 {
		return nil, newError(KindMalformedLength, r.pos, "negative length %d", n)
	}
	if n > r.Remaining() {
		return nil, newError(KindBufferUnderrun, r.pos, "need %d bytes, have %d", n, r.Remaining())
	}
	out := make([]byte, n)
	copy(out, r.buf[r.pos:r.pos+n])
	r.pos += n
	return out, nil
}

func (r *Reader) ReadU8() (uint8, error) {
	if r.Remaining() < 1 {
		return 0, newError(KindBufferUnderrun, r.pos, "need 1 byte, have 0")
	}
	b := r.buf[r.pos]
	r.pos++
	return b, nil
}

func (r *Reader) ReadU16() (uint16, error) {
	b, err := r.ReadN(2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

func (r *Reader) ReadU32() (uint32, error) {
	b, err := r.ReadN(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

func (r *Reader) ReadU64() (uint64, error) {
	b, err := r.ReadN(8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

// ReadUint reads a little-endian unsigned integer of the given byte width (at most 32).
func (r *Reader) ReadUint(width int) (*uint256.Int, error) {
	if width <= 0 || width > 32 {
		return nil, newError(KindInvalidValue, r.pos, "unsupported integer width %d", width)
	}
	b, err := r.ReadN(width)
	if err != nil {
		return nil, err
	}
	return fromLittleEndian(b), nil
}

// ReadBool reads a single byte that must be 0 or 1.
func (r *Reader) ReadBool() (bool, error) {
	start := r.pos
	b, err := r.ReadU8()
	if err != nil {
		return false, err
	}
	switch b {
	case 0:
		return false, nil
	case 1:
		return true, nil
	default:
		return false, newError(KindInvalidValue, start, "invalid bool byte 0x%02x", b)
	}
}

// ReadOption reads an Option tag and reports whether a value follows.
func (r *Reader) ReadOption() (bool, error) {
	start := r.pos
	b, err := r.ReadU8()
	if err != nil {
		return false, err
	}
	switch b {
	case 0:
		return false, nil
	case 1:
		return true, nil
	default:
		return false, newError(KindInvalidValue, start, "invalid option tag 0x%02x", b)
	}
}

// ReadCompact reads a compact encoded unsigned integer.
func (r *Reader) ReadCompact() (*uint256.Int, error) {
	start := r.pos
	b0, err := r.ReadU8()
	if err != nil {
		return nil, err
	}

	switch b0 & 0x03 {
	case 0x00:
		return uint256.NewInt(uint64(b0 >> 2)), nil
	case 0x01:
		b1, err := r.ReadU8()
		if err != nil {
			return nil, err
		}
		v := (uint64(b0) | uint64(b1)<<8) >> 2
		return uint256.NewInt(v), nil
	case 0x02:
		rest, err := r.ReadN(3)
		if err != nil {
			return nil, err
		}
		v := (uint64(b0) | uint64(rest[0])<<8 | uint64(rest[1])<<16 | uint64(rest[2])<<24) >> 2
		return uint256.NewInt(v), nil
	default:
		n := int(b0>>2) + 4
		if n > 32 {
			return nil, newError(KindMalformedLength, start, "compact integer of %d bytes exceeds 256 bits", n)
		}
		b, err := r.ReadN(n)
		if err != nil {
			return nil, err
		}
		return fromLittleEndian(b), nil
	}
}

// ReadCompactUint64 reads a compact integer that must fit in 64 bits.
func (r *Reader) ReadCompactUint64() (uint64, error) {
	start := r.pos
	v, err := r.ReadCompact()
	if err != nil {
		return 0, err
	}
	if !v.IsUint64() {
		return 0, newError(KindMalformedLength, start, "compact value %s overflows uint64", v.ToBig().String())
	}
	return v.Uint64(), nil
}

// ReadCount reads a compact length prefix without checking it against the remaining buffer.
func (r *Reader) ReadCount() (int, error) {
	start := r.pos
	v, err := r.ReadCompactUint64()
	if err != nil {
		return 0, err
	}
	if v > uint64(len(r.buf)) {
		return 0, newError(KindMalformedLength, start, "length %d exceeds buffer size %d", v, len(r.buf))
	}
	return int(v), nil
}

// ReadLength reads a compact length prefix for n items of at least one byte each.
func (r *Reader) ReadLength() (int, error) {
	start := r.pos
	n, err := r.ReadCount()
	if err != nil {
		return 0, err
	}
	if n > r.Remaining() {
		return 0, newError(KindMalformedLength, start, "length %d exceeds remaining %d", n, r.Remaining())
	}
	return n, nil
}

// ReadBytes reads a length-prefixed byte string.
func (r *Reader) ReadBytes() ([]byte, error) {
	n, err := r.ReadLength()
	if err != nil {
		return nil, err
	}
	return r.ReadN(n)
}

// ReadString reads a length-prefixed UTF-8 string.
func (r *Reader) ReadString() (string, error) {
	start := r.pos
	b, err := r.ReadBytes()
	if err != nil {
		return "", err
	}
	if !utf8.Valid(b) {
		return "", newError(KindInvalidValue, start, "invalid utf-8 string")
	}
	return string(b), nil
}

// ReadStrings reads a Vec<String>.
func (r *Reader) ReadStrings() ([]string, error) {
	n, err := r.ReadLength()
	if err != nil || n == 0 {
		return nil, err
	}
	out := make([]string, 0, n)
	for i := 0; i < n; i++ {
		s, err := r.ReadString()
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

// ReadOptionString reads an Option<String>.
func (r *Reader) ReadOptionString() (string, bool, error) {
	ok, err := r.ReadOption()
	if err != nil || !ok {
		return "", false, err
	}
	s, err := r.ReadString()
	if err != nil {
		return "", false, err
	}
	return s, true, nil
}

func fromLittleEndian(b []byte) *uint256.Int {
	be := make([]byte, len(b))
	for i := range b {
		be[len(b)-1-i] = b[i]
	}
	return new(uint256.Int).SetBytes(be)
}
