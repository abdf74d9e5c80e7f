package scale

import (
	"encoding/binary"
	"fmt"

	"github.com/holiman/uint256"
)

// Writer builds a SCALE encoded buffer.
type Writer struct {
	buf []byte
}

func NewWriter() *Writer {
	return &Writer{}
}

// Bytes returns the encoded buffer.
func (w *Writer) Bytes() []byte {
	return w.buf
}

// Len returns the number of bytes written.
func (w *Writer) Len() int {
	return len(w.buf)
}

func (w *Writer) PutRaw(b []byte) {
	w.buf = append(w.buf, b...)
}

func (w *Writer) PutU8(v uint8) {
	w.buf = append(w.buf, v)
}

func (w *Writer) PutU16(v uint16) {
	w.buf = binary.LittleEndian.AppendUint16(w.buf, v)
}

func (w *Writer) PutU32(v uint32) {
	w.buf = binary.LittleEndian.AppendUint32(w.buf, v)
}

func (w *Writer) PutU64(v uint64) {
	w.buf = binary.LittleEndian.AppendUint64(w.buf, v)
}

// PutUint writes v as a little-endian integer of the given byte width.
func (w *Writer) PutUint(width int, v *uint256.Int) error {
	if width <= 0 || width > 32 {
		return fmt.Errorf("unsupported integer width %d", width)
	}
	if v == nil {
		v = new(uint256.Int)
	}
	if v.BitLen() > width*8 {
		return fmt.Errorf("value %s overflows %d bytes", v.ToBig().String(), width)
	}
	w.buf = append(w.buf, toLittleEndian(v, width)...)
	return nil
}

func (w *Writer) PutBool(v bool) {
	if v {
		w.buf = append(w.buf, 1)
		return
	}
	w.buf = append(w.buf, 0)
}

// PutOption writes an Option tag.
func (w *Writer) PutOption(present bool) {
	w.PutBool(present)
}

// PutCompact writes v using the compact integer encoding.
func (w *Writer) PutCompact(v *uint256.Int) {
	if v == nil {
		v = new(uint256.Int)
	}
	if v.IsUint64() {
		u := v.Uint64()
		switch {
		case u < 1<<6:
			w.buf = append(w.buf, byte(u<<2))
			return
		case u < 1<<14:
			w.buf = binary.LittleEndian.AppendUint16(w.buf, uint16(u<<2)|0x01)
			return
		case u < 1<<30:
			w.buf = binary.LittleEndian.AppendUint32(w.buf, uint32(u<<2)|0x02)
			return
		}
	}

	n := (v.BitLen() + 7) / 8
	if n < 4 {
		n = 4
	}
	w.buf = append(w.buf, byte((n-4)<<2)|0x03)
	w.buf = append(w.buf, toLittleEndian(v, n)...)
}

func (w *Writer) PutCompactUint64(v uint64) {
	w.PutCompact(uint256.NewInt(v))
}

// PutBytes writes a length-prefixed byte string.
func (w *Writer) PutBytes(b []byte) {
	w.PutCompactUint64(uint64(len(b)))
	w.buf = append(w.buf, b...)
}

func (w *Writer) PutString(s string) {
	w.PutBytes([]byte(s))
}

func (w *Writer) PutStrings(items []string) {
	w.PutCompactUint64(uint64(len(items)))
	for _, item := range items {
		w.PutString(item)
	}
}

func (w *Writer) PutOptionString(s string, present bool) {
	w.PutOption(present)
	if present {
		w.PutString(s)
	}
}

func toLittleEndian(v *uint256.Int, width int) []byte {
	be := v.Bytes()
	out := make([]byte, width)
	for i := 0; i < len(be) && i < width; i++ {
		out[i] = be[len(be)-1-i]
	}
	return out
}
