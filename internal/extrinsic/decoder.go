// Package extrinsic decodes and encodes version 4 extrinsics against runtime metadata.
package extrinsic

import (
	"errors"
	"math/big"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"golang.org/x/crypto/blake2b"

	"pendingScope/internal/metadata"
	"pendingScope/internal/model"
	"pendingScope/internal/scale"
)

const (
	// SupportedVersion is the only extrinsic format version understood.
	SupportedVersion = 4

	signedBit   = 0x80
	versionMask = 0x7f

	maxValueDepth = 64
)

// Decode decodes one length-prefixed extrinsic as returned by author_pendingExtrinsics.
// Every failure is a *scale.DecodeError whose Offset is relative to raw.
func Decode(md *metadata.Metadata, raw []byte, mode Mode) (*model.DecodedExtrinsic, error) {
	if md == nil {
		return nil, scale.Errorf(scale.KindUnknownType, 0, "no metadata loaded")
	}

	outer := scale.NewReader(raw)
	length, err := outer.ReadLength()
	if err != nil {
		return nil, err
	}
	base := outer.Offset()
	end := base + length
	if mode == Strict && end < len(raw) {
		return nil, scale.Errorf(scale.KindTrailingBytes, end, "%d bytes after extrinsic", len(raw)-end)
	}

	d := &decoder{md: md, r: scale.NewReader(raw[base:end]), base: base}
	ext, err := d.extrinsic()
	if err != nil {
		return nil, d.locate(err)
	}
	if mode == Strict && d.r.Remaining() > 0 {
		return nil, scale.Errorf(scale.KindTrailingBytes, base+d.r.Offset(), "%d unread bytes inside extrinsic", d.r.Remaining())
	}

	ext.Hash = Hash(raw[:end])
	ext.Length = end
	return ext, nil
}

// Hash returns the 0x-prefixed blake2b-256 digest of an encoded extrinsic.
func Hash(raw []byte) string {
	sum := blake2b.Sum256(raw)
	return hexutil.Encode(sum[:])
}

// DecodeCall decodes a bare call (pallet index, call index, arguments).
func DecodeCall(md *metadata.Metadata, raw []byte, mode Mode) (model.DecodedCall, error) {
	if md == nil {
		return model.DecodedCall{}, scale.Errorf(scale.KindUnknownType, 0, "no metadata loaded")
	}
	d := &decoder{md: md, r: scale.NewReader(raw)}
	call, err := d.call()
	if err != nil {
		return model.DecodedCall{}, d.locate(err)
	}
	if mode == Strict && d.r.Remaining() > 0 {
		return model.DecodedCall{}, scale.Errorf(scale.KindTrailingBytes, d.r.Offset(), "%d unread bytes after call", d.r.Remaining())
	}
	return call, nil
}

// DecodeValue decodes a single value of registry type id.
func DecodeValue(md *metadata.Metadata, id uint32, raw []byte) (model.Value, int, error) {
	if md == nil {
		return nil, 0, scale.Errorf(scale.KindUnknownType, 0, "no metadata loaded")
	}
	d := &decoder{md: md, r: scale.NewReader(raw)}
	v, err := d.value(id, 0)
	if err != nil {
		return nil, 0, d.locate(err)
	}
	return v, d.r.Offset(), nil
}

type decoder struct {
	md   *metadata.Metadata
	r    *scale.Reader
	base int
}

// locate shifts error offsets from the body reader to the outer input. Errors
// raised by registry lookups carry no position and take the current one.
func (d *decoder) locate(err error) error {
	var de *scale.DecodeError
	if !errors.As(err, &de) {
		return err
	}
	out := *de
	if out.Kind == scale.KindUnknownType && out.Offset == 0 {
		out.Offset = d.r.Offset()
	}
	out.Offset += d.base
	return &out
}

func (d *decoder) extrinsic() (*model.DecodedExtrinsic, error) {
	start := d.r.Offset()
	head, err := d.r.ReadU8()
	if err != nil {
		return nil, err
	}
	version := head & versionMask
	if version != SupportedVersion {
		return nil, scale.Errorf(scale.KindInvalidValue, start, "unsupported extrinsic version %d", version)
	}
	ext := &model.DecodedExtrinsic{Version: version, Signed: head&signedBit != 0}

	if ext.Signed {
		info := d.md.Extrinsic()
		if ext.Address, err = d.value(info.AddressType, 0); err != nil {
			return nil, err
		}
		if ext.Signature, err = d.value(info.SignatureType, 0); err != nil {
			return nil, err
		}
		for _, se := range info.SignedExtensions {
			v, err := d.value(se.Type, 0)
			if err != nil {
				return nil, err
			}
			ext.Extensions = append(ext.Extensions, model.CallArgument{
				Name:  se.Identifier,
				Type:  d.md.TypeName(se.Type),
				Value: v,
			})
		}
	}

	call, err := d.call()
	if err != nil {
		return nil, err
	}
	ext.Call = call
	return ext, nil
}

func (d *decoder) call() (model.DecodedCall, error) {
	start := d.r.Offset()
	palletIndex, err := d.r.ReadU8()
	if err != nil {
		return model.DecodedCall{}, err
	}
	pallet, ok := d.md.PalletByIndex(palletIndex)
	if !ok || !pallet.HasCalls {
		return model.DecodedCall{}, scale.Errorf(scale.KindUnknownType, start, "no pallet with calls at index %d", palletIndex)
	}
	callType, err := d.md.Type(pallet.CallType)
	if err != nil {
		return model.DecodedCall{}, err
	}

	fnStart := d.r.Offset()
	fnIndex, err := d.r.ReadU8()
	if err != nil {
		return model.DecodedCall{}, err
	}
	variant, ok := callType.VariantByIndex(fnIndex)
	if !ok {
		return model.DecodedCall{}, scale.Errorf(scale.KindUnknownType, fnStart, "pallet %s has no call at index %d", pallet.Name, fnIndex)
	}

	call := model.DecodedCall{
		Module:        pallet.Name,
		ModuleIndex:   palletIndex,
		Function:      variant.Name,
		FunctionIndex: fnIndex,
		Arguments:     make([]model.CallArgument, 0, len(variant.Fields)),
	}
	for _, f := range variant.Fields {
		v, err := d.value(f.Type, 0)
		if err != nil {
			return model.DecodedCall{}, err
		}
		call.Arguments = append(call.Arguments, model.CallArgument{
			Name:  f.Name,
			Type:  argTypeName(d.md, f),
			Value: v,
		})
	}
	return call, nil
}

func (d *decoder) value(id uint32, depth int) (model.Value, error) {
	if depth > maxValueDepth {
		return nil, scale.Errorf(scale.KindInvalidValue, d.r.Offset(), "type nesting deeper than %d", maxValueDepth)
	}
	t, err := d.md.Type(id)
	if err != nil {
		return nil, err
	}

	switch t.Kind {
	case metadata.DefPrimitive:
		return d.primitive(t.Primitive)
	case metadata.DefCompact:
		return d.compact(t.Elem, depth+1)
	case metadata.DefComposite:
		if t.IsAccountID() {
			return d.accountID()
		}
		fields, err := d.fields(t.Fields, depth)
		if err != nil {
			return nil, err
		}
		return model.Composite(fields), nil
	case metadata.DefVariant:
		start := d.r.Offset()
		idx, err := d.r.ReadU8()
		if err != nil {
			return nil, err
		}
		v, ok := t.VariantByIndex(idx)
		if !ok {
			return nil, scale.Errorf(scale.KindInvalidValue, start, "%s has no variant %d", d.md.TypeName(id), idx)
		}
		fields, err := d.fields(v.Fields, depth)
		if err != nil {
			return nil, err
		}
		return model.Variant{Name: v.Name, Index: v.Index, Fields: fields}, nil
	case metadata.DefSequence:
		if d.isByte(t.Elem) {
			b, err := d.r.ReadBytes()
			if err != nil {
				return nil, err
			}
			return model.Bytes(b), nil
		}
		var n int
		if d.zeroSized(t.Elem, 0) {
			n, err = d.r.ReadCount()
		} else {
			n, err = d.r.ReadLength()
		}
		if err != nil {
			return nil, err
		}
		return d.repeat(t.Elem, n, depth)
	case metadata.DefArray:
		if d.isByte(t.Elem) {
			b, err := d.r.ReadN(int(t.Len))
			if err != nil {
				return nil, err
			}
			return model.Bytes(b), nil
		}
		if !d.zeroSized(t.Elem, 0) && int(t.Len) > d.r.Remaining() {
			return nil, scale.Errorf(scale.KindBufferUnderrun, d.r.Offset(), "array of %d items exceeds remaining %d bytes", t.Len, d.r.Remaining())
		}
		return d.repeat(t.Elem, int(t.Len), depth)
	case metadata.DefTuple:
		var out model.Sequence
		for _, elem := range t.Tuple {
			v, err := d.value(elem, depth+1)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
		return out, nil
	case metadata.DefBitSequence:
		return d.bitSequence(id, t)
	default:
		return nil, scale.Errorf(scale.KindUnknownType, d.r.Offset(), "type %d has unknown kind %d", id, t.Kind)
	}
}

func (d *decoder) fields(defs []metadata.Field, depth int) ([]model.Field, error) {
	if len(defs) == 0 {
		return nil, nil
	}
	out := make([]model.Field, 0, len(defs))
	for _, f := range defs {
		v, err := d.value(f.Type, depth+1)
		if err != nil {
			return nil, err
		}
		out = append(out, model.Field{Name: f.Name, Value: v})
	}
	return out, nil
}

func (d *decoder) repeat(elem uint32, n, depth int) (model.Value, error) {
	out := make(model.Sequence, 0, n)
	for i := 0; i < n; i++ {
		v, err := d.value(elem, depth+1)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func (d *decoder) primitive(p metadata.Primitive) (model.Value, error) {
	start := d.r.Offset()
	switch {
	case p == metadata.PrimBool:
		b, err := d.r.ReadBool()
		if err != nil {
			return nil, err
		}
		return model.Bool(b), nil
	case p == metadata.PrimChar:
		c, err := d.r.ReadU32()
		if err != nil {
			return nil, err
		}
		if !utf8.ValidRune(rune(c)) {
			return nil, scale.Errorf(scale.KindInvalidValue, start, "invalid char 0x%x", c)
		}
		return model.Char(rune(c)), nil
	case p == metadata.PrimStr:
		s, err := d.r.ReadString()
		if err != nil {
			return nil, err
		}
		return model.Str(s), nil
	case p.Signed():
		b, err := d.r.ReadN(p.Width())
		if err != nil {
			return nil, err
		}
		return model.Int{Bits: uint16(p.Width() * 8), V: signedFromLE(b)}, nil
	case p.Width() > 0:
		v, err := d.r.ReadUint(p.Width())
		if err != nil {
			return nil, err
		}
		return model.Uint{Bits: uint16(p.Width() * 8), V: *v}, nil
	default:
		return nil, scale.Errorf(scale.KindUnknownType, start, "unknown primitive %d", p)
	}
}

// compact decodes Compact<T> where T is an unsigned primitive or a chain of
// single-field wrappers around one, as with Compact<NetUid>.
func (d *decoder) compact(elem uint32, depth int) (model.Value, error) {
	if depth > maxValueDepth {
		return nil, scale.Errorf(scale.KindInvalidValue, d.r.Offset(), "type nesting deeper than %d", maxValueDepth)
	}
	t, err := d.md.Type(elem)
	if err != nil {
		return nil, err
	}
	switch {
	case t.Kind == metadata.DefPrimitive && t.Primitive.Width() > 0 && !t.Primitive.Signed():
		start := d.r.Offset()
		v, err := d.r.ReadCompact()
		if err != nil {
			return nil, err
		}
		bits := t.Primitive.Width() * 8
		if v.BitLen() > bits {
			return nil, scale.Errorf(scale.KindInvalidValue, start, "compact value overflows %s", t.Primitive)
		}
		return model.Uint{Bits: uint16(bits), Compact: true, V: *v}, nil
	case t.Kind == metadata.DefComposite && len(t.Fields) == 1:
		inner, err := d.compact(t.Fields[0].Type, depth+1)
		if err != nil {
			return nil, err
		}
		return model.Composite{{Name: t.Fields[0].Name, Value: inner}}, nil
	case t.Kind == metadata.DefTuple && len(t.Tuple) == 0:
		start := d.r.Offset()
		v, err := d.r.ReadCompact()
		if err != nil {
			return nil, err
		}
		if !v.IsZero() {
			return nil, scale.Errorf(scale.KindInvalidValue, start, "compact unit must be zero")
		}
		return model.Sequence(nil), nil
	default:
		return nil, scale.Errorf(scale.KindInvalidValue, d.r.Offset(), "compact over %s is not supported", d.md.TypeName(elem))
	}
}

func (d *decoder) accountID() (model.Value, error) {
	b, err := d.r.ReadN(32)
	if err != nil {
		return nil, err
	}
	var id model.AccountID
	copy(id.Raw[:], b)
	id.Address = d.md.FormatAccount(b)
	return id, nil
}

// bitSequence keeps the raw encoding, length prefix included.
func (d *decoder) bitSequence(id uint32, t *metadata.Type) (model.Value, error) {
	start := d.r.Offset()
	store, err := d.md.Type(t.BitStore)
	if err != nil {
		return nil, err
	}
	width := store.Primitive.Width()
	if store.Kind != metadata.DefPrimitive || store.Primitive.Signed() || width == 0 || width > 8 {
		return nil, scale.Errorf(scale.KindInvalidValue, start, "unsupported bit store %s", d.md.TypeName(t.BitStore))
	}
	countAt := d.r.Offset()
	bits, err := d.r.ReadCompactUint64()
	if err != nil {
		return nil, err
	}
	storeBits := uint64(width) * 8
	words := bits/storeBits + boolToUint64(bits%storeBits != 0)
	if words > uint64(d.r.Remaining()/width) {
		return nil, scale.Errorf(scale.KindMalformedLength, countAt, "bit sequence of %d bits exceeds remaining %d bytes", bits, d.r.Remaining())
	}
	if _, err := d.r.ReadN(int(words) * width); err != nil {
		return nil, err
	}
	return model.Opaque{TypeName: d.md.TypeName(id), Raw: d.r.Consumed(start)}, nil
}

func boolToUint64(b bool) uint64 {
	if b {
		return 1
	}
	return 0
}

func (d *decoder) isByte(id uint32) bool {
	t, err := d.md.Type(id)
	return err == nil && t.Kind == metadata.DefPrimitive && t.Primitive == metadata.PrimU8
}

// zeroSized reports whether values of type id encode to no bytes at all.
func (d *decoder) zeroSized(id uint32, depth int) bool {
	if depth > maxValueDepth {
		return false
	}
	t, err := d.md.Type(id)
	if err != nil {
		return false
	}
	switch t.Kind {
	case metadata.DefComposite:
		for _, f := range t.Fields {
			if !d.zeroSized(f.Type, depth+1) {
				return false
			}
		}
		return true
	case metadata.DefTuple:
		for _, elem := range t.Tuple {
			if !d.zeroSized(elem, depth+1) {
				return false
			}
		}
		return true
	case metadata.DefArray:
		return t.Len == 0 || d.zeroSized(t.Elem, depth+1)
	default:
		return false
	}
}

func signedFromLE(b []byte) *big.Int {
	be := make([]byte, len(b))
	for i := range b {
		be[len(b)-1-i] = b[i]
	}
	v := new(big.Int).SetBytes(be)
	if len(b) > 0 && b[len(b)-1]&0x80 != 0 {
		v.Sub(v, new(big.Int).Lsh(big.NewInt(1), uint(len(b)*8)))
	}
	return v
}

var configPrefix = regexp.MustCompile(`<T as [A-Za-z0-9_:]+>::`)

// argTypeName prefers the declared source type name over the registry rendering.
func argTypeName(md *metadata.Metadata, f metadata.Field) string {
	if f.TypeName == "" {
		return md.TypeName(f.Type)
	}
	name := configPrefix.ReplaceAllString(f.TypeName, "")
	return strings.ReplaceAll(name, "T::", "")
}
