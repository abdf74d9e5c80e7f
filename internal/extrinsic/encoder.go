package extrinsic

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/holiman/uint256"

	"pendingScope/internal/metadata"
	"pendingScope/internal/model"
	"pendingScope/internal/scale"
)

// ErrValueMismatch is returned when a value cannot be encoded as the requested type.
var ErrValueMismatch = errors.New("value does not match type")

// Encode produces the length-prefixed encoding of ext. Decoding the result
// yields ext again.
func Encode(md *metadata.Metadata, ext *model.DecodedExtrinsic) ([]byte, error) {
	if md == nil || ext == nil {
		return nil, errors.New("encode extrinsic: nil metadata or extrinsic")
	}
	e := &encoder{md: md, w: scale.NewWriter()}

	version := ext.Version
	if version == 0 {
		version = SupportedVersion
	}
	head := version & versionMask
	if ext.Signed {
		head |= signedBit
	}
	e.w.PutU8(head)

	if ext.Signed {
		info := md.Extrinsic()
		if err := e.value(info.AddressType, ext.Address, 0); err != nil {
			return nil, fmt.Errorf("encode address: %w", err)
		}
		if err := e.value(info.SignatureType, ext.Signature, 0); err != nil {
			return nil, fmt.Errorf("encode signature: %w", err)
		}
		for _, se := range info.SignedExtensions {
			v, ok := ext.Extension(se.Identifier)
			if !ok {
				return nil, fmt.Errorf("encode extension %s: %w: missing", se.Identifier, ErrValueMismatch)
			}
			if err := e.value(se.Type, v, 0); err != nil {
				return nil, fmt.Errorf("encode extension %s: %w", se.Identifier, err)
			}
		}
	}
	if err := e.call(ext.Call); err != nil {
		return nil, err
	}

	out := scale.NewWriter()
	out.PutBytes(e.w.Bytes())
	return out.Bytes(), nil
}

// EncodeCall encodes a call without the extrinsic envelope.
func EncodeCall(md *metadata.Metadata, call model.DecodedCall) ([]byte, error) {
	if md == nil {
		return nil, errors.New("encode call: nil metadata")
	}
	e := &encoder{md: md, w: scale.NewWriter()}
	if err := e.call(call); err != nil {
		return nil, err
	}
	return e.w.Bytes(), nil
}

// EncodeValue encodes v as registry type id.
func EncodeValue(md *metadata.Metadata, id uint32, v model.Value) ([]byte, error) {
	if md == nil {
		return nil, errors.New("encode value: nil metadata")
	}
	e := &encoder{md: md, w: scale.NewWriter()}
	if err := e.value(id, v, 0); err != nil {
		return nil, err
	}
	return e.w.Bytes(), nil
}

type encoder struct {
	md *metadata.Metadata
	w  *scale.Writer
}

func (e *encoder) call(call model.DecodedCall) error {
	pallet, ok := e.md.PalletByName(call.Module)
	if !ok || !pallet.HasCalls {
		return fmt.Errorf("encode call: unknown pallet %q", call.Module)
	}
	callType, err := e.md.Type(pallet.CallType)
	if err != nil {
		return err
	}
	variant, ok := callType.VariantByName(call.Function)
	if !ok {
		return fmt.Errorf("encode call: pallet %s has no call %q", call.Module, call.Function)
	}
	if len(call.Arguments) != len(variant.Fields) {
		return fmt.Errorf("encode call %s.%s: %w: %d arguments, want %d",
			call.Module, call.Function, ErrValueMismatch, len(call.Arguments), len(variant.Fields))
	}

	e.w.PutU8(pallet.Index)
	e.w.PutU8(variant.Index)
	for i, f := range variant.Fields {
		arg := call.Arguments[i]
		if arg.Name != f.Name {
			return fmt.Errorf("encode call %s.%s: %w: argument %d is %q, want %q",
				call.Module, call.Function, ErrValueMismatch, i, arg.Name, f.Name)
		}
		if err := e.value(f.Type, arg.Value, 0); err != nil {
			return fmt.Errorf("encode argument %s: %w", f.Name, err)
		}
	}
	return nil
}

func (e *encoder) value(id uint32, v model.Value, depth int) error {
	if depth > maxValueDepth {
		return fmt.Errorf("type nesting deeper than %d", maxValueDepth)
	}
	t, err := e.md.Type(id)
	if err != nil {
		return err
	}
	mismatch := func() error {
		return fmt.Errorf("%w: %s cannot hold %T", ErrValueMismatch, e.md.TypeName(id), v)
	}

	switch t.Kind {
	case metadata.DefPrimitive:
		return e.primitive(t.Primitive, v, mismatch)
	case metadata.DefCompact:
		return e.compact(t.Elem, v, depth+1)
	case metadata.DefComposite:
		if t.IsAccountID() {
			acc, ok := v.(model.AccountID)
			if !ok {
				return mismatch()
			}
			e.w.PutRaw(acc.Raw[:])
			return nil
		}
		c, ok := v.(model.Composite)
		if !ok && !(v == nil && len(t.Fields) == 0) {
			return mismatch()
		}
		return e.fields(t.Fields, c, depth)
	case metadata.DefVariant:
		vv, ok := v.(model.Variant)
		if !ok {
			return mismatch()
		}
		def, ok := t.VariantByName(vv.Name)
		if !ok {
			return fmt.Errorf("%w: %s has no variant %q", ErrValueMismatch, e.md.TypeName(id), vv.Name)
		}
		e.w.PutU8(def.Index)
		return e.fields(def.Fields, vv.Fields, depth)
	case metadata.DefSequence:
		if b, ok := v.(model.Bytes); ok && e.isByte(t.Elem) {
			e.w.PutBytes(b)
			return nil
		}
		seq, ok := v.(model.Sequence)
		if !ok {
			return mismatch()
		}
		e.w.PutCompactUint64(uint64(len(seq)))
		return e.items(t.Elem, seq, depth)
	case metadata.DefArray:
		if b, ok := v.(model.Bytes); ok && e.isByte(t.Elem) {
			if len(b) != int(t.Len) {
				return fmt.Errorf("%w: %d bytes for %s", ErrValueMismatch, len(b), e.md.TypeName(id))
			}
			e.w.PutRaw(b)
			return nil
		}
		seq, ok := v.(model.Sequence)
		if !ok || len(seq) != int(t.Len) {
			return mismatch()
		}
		return e.items(t.Elem, seq, depth)
	case metadata.DefTuple:
		seq, _ := v.(model.Sequence)
		if len(seq) != len(t.Tuple) || (v != nil && v.Kind() != model.KindSequence) {
			return mismatch()
		}
		for i, elem := range t.Tuple {
			if err := e.value(elem, seq[i], depth+1); err != nil {
				return err
			}
		}
		return nil
	case metadata.DefBitSequence:
		o, ok := v.(model.Opaque)
		if !ok {
			return mismatch()
		}
		e.w.PutRaw(o.Raw)
		return nil
	default:
		return fmt.Errorf("type %d has unknown kind %d", id, t.Kind)
	}
}

func (e *encoder) fields(defs []metadata.Field, values []model.Field, depth int) error {
	if len(defs) != len(values) {
		return fmt.Errorf("%w: %d fields, want %d", ErrValueMismatch, len(values), len(defs))
	}
	for i, f := range defs {
		if err := e.value(f.Type, values[i].Value, depth+1); err != nil {
			return err
		}
	}
	return nil
}

func (e *encoder) items(elem uint32, seq model.Sequence, depth int) error {
	for _, item := range seq {
		if err := e.value(elem, item, depth+1); err != nil {
			return err
		}
	}
	return nil
}

func (e *encoder) primitive(p metadata.Primitive, v model.Value, mismatch func() error) error {
	switch {
	case p == metadata.PrimBool:
		b, ok := v.(model.Bool)
		if !ok {
			return mismatch()
		}
		e.w.PutBool(bool(b))
	case p == metadata.PrimChar:
		c, ok := v.(model.Char)
		if !ok {
			return mismatch()
		}
		e.w.PutU32(uint32(c))
	case p == metadata.PrimStr:
		s, ok := v.(model.Str)
		if !ok {
			return mismatch()
		}
		e.w.PutString(string(s))
	case p.Signed():
		i, ok := v.(model.Int)
		if !ok {
			return mismatch()
		}
		b, err := signedToLE(i.V, p.Width())
		if err != nil {
			return err
		}
		e.w.PutRaw(b)
	case p.Width() > 0:
		u, ok := v.(model.Uint)
		if !ok {
			return mismatch()
		}
		return e.w.PutUint(p.Width(), &u.V)
	default:
		return mismatch()
	}
	return nil
}

func (e *encoder) compact(elem uint32, v model.Value, depth int) error {
	if depth > maxValueDepth {
		return fmt.Errorf("type nesting deeper than %d", maxValueDepth)
	}
	t, err := e.md.Type(elem)
	if err != nil {
		return err
	}
	switch {
	case t.Kind == metadata.DefPrimitive && t.Primitive.Width() > 0 && !t.Primitive.Signed():
		u, ok := v.(model.Uint)
		if !ok {
			return fmt.Errorf("%w: compact %s cannot hold %T", ErrValueMismatch, t.Primitive, v)
		}
		if u.V.BitLen() > t.Primitive.Width()*8 {
			return fmt.Errorf("%w: %s overflows %s", ErrValueMismatch, u.String(), t.Primitive)
		}
		e.w.PutCompact(&u.V)
		return nil
	case t.Kind == metadata.DefComposite && len(t.Fields) == 1:
		c, ok := v.(model.Composite)
		if !ok || len(c) != 1 {
			return fmt.Errorf("%w: compact %s cannot hold %T", ErrValueMismatch, e.md.TypeName(elem), v)
		}
		return e.compact(t.Fields[0].Type, c[0].Value, depth+1)
	case t.Kind == metadata.DefTuple && len(t.Tuple) == 0:
		e.w.PutCompact(new(uint256.Int))
		return nil
	default:
		return fmt.Errorf("compact over %s is not supported", e.md.TypeName(elem))
	}
}

func (e *encoder) isByte(id uint32) bool {
	t, err := e.md.Type(id)
	return err == nil && t.Kind == metadata.DefPrimitive && t.Primitive == metadata.PrimU8
}

func signedToLE(v *big.Int, width int) ([]byte, error) {
	if v == nil {
		v = new(big.Int)
	}
	bits := uint(width * 8)
	limit := new(big.Int).Lsh(big.NewInt(1), bits-1)
	if v.Cmp(limit) >= 0 || v.Cmp(new(big.Int).Neg(limit)) < 0 {
		return nil, fmt.Errorf("%w: %s overflows i%d", ErrValueMismatch, v.String(), bits)
	}
	u := new(big.Int).Set(v)
	if u.Sign() < 0 {
		u.Add(u, new(big.Int).Lsh(big.NewInt(1), bits))
	}
	be := u.FillBytes(make([]byte, width))
	out := make([]byte, width)
	for i := range be {
		out[width-1-i] = be[i]
	}
	return out, nil
}
