package metadata

import (
	"errors"
	"fmt"

	"pendingScope/internal/scale"
	"pendingScope/internal/ss58"
)

// Magic is the "meta" prefix of RuntimeMetadataPrefixed, little-endian.
const Magic uint32 = 0x6174656d

var ErrUnsupportedVersion = errors.New("unsupported metadata version")

// Parse decodes a prefixed runtime metadata blob as returned by state_getMetadata.
// Versions 14 and 15 are supported; anything after the extrinsic section is ignored.
func Parse(raw []byte) (*Metadata, error) {
	r := scale.NewReader(raw)

	magic, err := r.ReadU32()
	if err != nil {
		return nil, fmt.Errorf("read magic: %w", err)
	}
	if magic != Magic {
		return nil, fmt.Errorf("bad metadata magic 0x%08x", magic)
	}

	version, err := r.ReadU8()
	if err != nil {
		return nil, fmt.Errorf("read version: %w", err)
	}
	if version != 14 && version != 15 {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, version)
	}

	types, err := parseRegistry(r)
	if err != nil {
		return nil, fmt.Errorf("parse types: %w", err)
	}

	pallets, prefix, err := parsePallets(r, version, types)
	if err != nil {
		return nil, fmt.Errorf("parse pallets: %w", err)
	}

	var extrinsic ExtrinsicInfo
	if version == 14 {
		extrinsic, err = parseExtrinsicV14(r, types)
	} else {
		extrinsic, err = parseExtrinsicV15(r)
	}
	if err != nil {
		return nil, fmt.Errorf("parse extrinsic: %w", err)
	}

	return New(version, types, pallets, extrinsic, prefix)
}

func parseRegistry(r *scale.Reader) ([]Type, error) {
	n, err := r.ReadLength()
	if err != nil {
		return nil, err
	}
	types := make([]Type, 0, n)
	for i := 0; i < n; i++ {
		id, err := readCompactU32(r)
		if err != nil {
			return nil, err
		}
		t, err := parseType(r)
		if err != nil {
			return nil, fmt.Errorf("type %d: %w", id, err)
		}
		t.ID = id
		types = append(types, t)
	}
	return types, nil
}

func parseType(r *scale.Reader) (Type, error) {
	var t Type

	path, err := r.ReadStrings()
	if err != nil {
		return t, err
	}
	t.Path = path

	nParams, err := r.ReadLength()
	if err != nil {
		return t, err
	}
	for i := 0; i < nParams; i++ {
		name, err := r.ReadString()
		if err != nil {
			return t, err
		}
		param := TypeParam{Name: name}
		present, err := r.ReadOption()
		if err != nil {
			return t, err
		}
		if present {
			if param.Type, err = readCompactU32(r); err != nil {
				return t, err
			}
			param.HasType = true
		}
		t.Params = append(t.Params, param)
	}

	if err := parseTypeDef(r, &t); err != nil {
		return t, err
	}

	if _, err := r.ReadStrings(); err != nil {
		return t, fmt.Errorf("docs: %w", err)
	}
	return t, nil
}

func parseTypeDef(r *scale.Reader, t *Type) error {
	start := r.Offset()
	tag, err := r.ReadU8()
	if err != nil {
		return err
	}
	t.Kind = TypeDefKind(tag)

	switch t.Kind {
	case DefComposite:
		t.Fields, err = parseFields(r)
		return err
	case DefVariant:
		n, err := r.ReadLength()
		if err != nil {
			return err
		}
		t.Variants = make([]Variant, 0, n)
		for i := 0; i < n; i++ {
			var v Variant
			if v.Name, err = r.ReadString(); err != nil {
				return err
			}
			if v.Fields, err = parseFields(r); err != nil {
				return err
			}
			if v.Index, err = r.ReadU8(); err != nil {
				return err
			}
			if _, err = r.ReadStrings(); err != nil {
				return err
			}
			t.Variants = append(t.Variants, v)
		}
		return nil
	case DefSequence, DefCompact:
		t.Elem, err = readCompactU32(r)
		return err
	case DefArray:
		if t.Len, err = r.ReadU32(); err != nil {
			return err
		}
		t.Elem, err = readCompactU32(r)
		return err
	case DefTuple:
		n, err := r.ReadLength()
		if err != nil || n == 0 {
			return err
		}
		t.Tuple = make([]uint32, 0, n)
		for i := 0; i < n; i++ {
			id, err := readCompactU32(r)
			if err != nil {
				return err
			}
			t.Tuple = append(t.Tuple, id)
		}
		return nil
	case DefPrimitive:
		p, err := r.ReadU8()
		if err != nil {
			return err
		}
		if p > uint8(PrimI256) {
			return scale.Errorf(scale.KindInvalidValue, r.Offset()-1, "unknown primitive %d", p)
		}
		t.Primitive = Primitive(p)
		return nil
	case DefBitSequence:
		if t.BitStore, err = readCompactU32(r); err != nil {
			return err
		}
		t.BitOrder, err = readCompactU32(r)
		return err
	default:
		return scale.Errorf(scale.KindInvalidValue, start, "unknown type definition tag %d", tag)
	}
}

func parseFields(r *scale.Reader) ([]Field, error) {
	n, err := r.ReadLength()
	if err != nil || n == 0 {
		return nil, err
	}
	fields := make([]Field, 0, n)
	for i := 0; i < n; i++ {
		var f Field
		if f.Name, _, err = r.ReadOptionString(); err != nil {
			return nil, err
		}
		if f.Type, err = readCompactU32(r); err != nil {
			return nil, err
		}
		if f.TypeName, _, err = r.ReadOptionString(); err != nil {
			return nil, err
		}
		if _, err = r.ReadStrings(); err != nil {
			return nil, err
		}
		fields = append(fields, f)
	}
	return fields, nil
}

func parsePallets(r *scale.Reader, version uint8, types []Type) ([]Pallet, uint16, error) {
	n, err := r.ReadLength()
	if err != nil {
		return nil, 0, err
	}

	prefix := ss58.DefaultPrefix
	pallets := make([]Pallet, 0, n)
	for i := 0; i < n; i++ {
		var p Pallet
		if p.Name, err = r.ReadString(); err != nil {
			return nil, 0, err
		}
		if err := skipStorage(r); err != nil {
			return nil, 0, fmt.Errorf("%s storage: %w", p.Name, err)
		}

		present, err := r.ReadOption()
		if err != nil {
			return nil, 0, err
		}
		if present {
			if p.CallType, err = readCompactU32(r); err != nil {
				return nil, 0, err
			}
			p.HasCalls = true
		}

		if err := skipOptionalType(r); err != nil {
			return nil, 0, fmt.Errorf("%s event: %w", p.Name, err)
		}

		constants, err := parseConstants(r)
		if err != nil {
			return nil, 0, fmt.Errorf("%s constants: %w", p.Name, err)
		}
		if p.Name == "System" {
			if value, ok := constants["SS58Prefix"]; ok {
				if v, ok := decodePrefix(value, types); ok {
					prefix = v
				}
			}
		}

		if err := skipOptionalType(r); err != nil {
			return nil, 0, fmt.Errorf("%s error: %w", p.Name, err)
		}
		if p.Index, err = r.ReadU8(); err != nil {
			return nil, 0, err
		}
		if version >= 15 {
			if _, err := r.ReadStrings(); err != nil {
				return nil, 0, fmt.Errorf("%s docs: %w", p.Name, err)
			}
		}
		pallets = append(pallets, p)
	}
	return pallets, prefix, nil
}

type constantValue struct {
	typeID uint32
	value  []byte
}

func parseConstants(r *scale.Reader) (map[string]constantValue, error) {
	n, err := r.ReadLength()
	if err != nil {
		return nil, err
	}
	out := make(map[string]constantValue, n)
	for i := 0; i < n; i++ {
		name, err := r.ReadString()
		if err != nil {
			return nil, err
		}
		id, err := readCompactU32(r)
		if err != nil {
			return nil, err
		}
		value, err := r.ReadBytes()
		if err != nil {
			return nil, err
		}
		if _, err := r.ReadStrings(); err != nil {
			return nil, err
		}
		out[name] = constantValue{typeID: id, value: value}
	}
	return out, nil
}

// decodePrefix reads SS58Prefix, which is u16 on current runtimes and u8 on old ones.
func decodePrefix(c constantValue, types []Type) (uint16, bool) {
	width := len(c.value)
	for _, t := range types {
		if t.ID == c.typeID && t.Kind == DefPrimitive {
			width = t.Primitive.Width()
			break
		}
	}
	r := scale.NewReader(c.value)
	switch width {
	case 1:
		v, err := r.ReadU8()
		return uint16(v), err == nil
	case 2:
		v, err := r.ReadU16()
		return v, err == nil
	default:
		return 0, false
	}
}

func skipStorage(r *scale.Reader) error {
	present, err := r.ReadOption()
	if err != nil || !present {
		return err
	}
	if _, err := r.ReadString(); err != nil {
		return err
	}
	n, err := r.ReadLength()
	if err != nil {
		return err
	}
	for i := 0; i < n; i++ {
		if _, err := r.ReadString(); err != nil {
			return err
		}
		if _, err := r.ReadU8(); err != nil {
			return err
		}
		start := r.Offset()
		kind, err := r.ReadU8()
		if err != nil {
			return err
		}
		switch kind {
		case 0:
			if _, err := readCompactU32(r); err != nil {
				return err
			}
		case 1:
			if _, err := r.ReadBytes(); err != nil {
				return err
			}
			if _, err := readCompactU32(r); err != nil {
				return err
			}
			if _, err := readCompactU32(r); err != nil {
				return err
			}
		default:
			return scale.Errorf(scale.KindInvalidValue, start, "unknown storage entry type %d", kind)
		}
		if _, err := r.ReadBytes(); err != nil {
			return err
		}
		if _, err := r.ReadStrings(); err != nil {
			return err
		}
	}
	return nil
}

func skipOptionalType(r *scale.Reader) error {
	present, err := r.ReadOption()
	if err != nil || !present {
		return err
	}
	_, err = readCompactU32(r)
	return err
}

func parseSignedExtensions(r *scale.Reader) ([]SignedExtension, error) {
	n, err := r.ReadLength()
	if err != nil {
		return nil, err
	}
	out := make([]SignedExtension, 0, n)
	for i := 0; i < n; i++ {
		var ext SignedExtension
		if ext.Identifier, err = r.ReadString(); err != nil {
			return nil, err
		}
		if ext.Type, err = readCompactU32(r); err != nil {
			return nil, err
		}
		if ext.AdditionalSigned, err = readCompactU32(r); err != nil {
			return nil, err
		}
		out = append(out, ext)
	}
	return out, nil
}

func parseExtrinsicV14(r *scale.Reader, types []Type) (ExtrinsicInfo, error) {
	var info ExtrinsicInfo
	var err error
	if info.Type, err = readCompactU32(r); err != nil {
		return info, err
	}
	if info.Version, err = r.ReadU8(); err != nil {
		return info, err
	}
	if info.SignedExtensions, err = parseSignedExtensions(r); err != nil {
		return info, err
	}

	var envelope *Type
	for i := range types {
		if types[i].ID == info.Type {
			envelope = &types[i]
			break
		}
	}
	if envelope == nil {
		return info, &scale.DecodeError{Kind: scale.KindUnknownType, Detail: fmt.Sprintf("extrinsic type %d not in registry", info.Type)}
	}

	found := 0
	for _, p := range envelope.Params {
		if !p.HasType {
			continue
		}
		switch p.Name {
		case "Address":
			info.AddressType = p.Type
			found++
		case "Call":
			info.CallType = p.Type
			found++
		case "Signature":
			info.SignatureType = p.Type
			found++
		case "Extra":
			info.ExtraType = p.Type
			found++
		}
	}
	if found != 4 {
		return info, fmt.Errorf("extrinsic type %d is missing generic parameters", info.Type)
	}
	return info, nil
}

func parseExtrinsicV15(r *scale.Reader) (ExtrinsicInfo, error) {
	var info ExtrinsicInfo
	var err error
	if info.Version, err = r.ReadU8(); err != nil {
		return info, err
	}
	if info.AddressType, err = readCompactU32(r); err != nil {
		return info, err
	}
	if info.CallType, err = readCompactU32(r); err != nil {
		return info, err
	}
	if info.SignatureType, err = readCompactU32(r); err != nil {
		return info, err
	}
	if info.ExtraType, err = readCompactU32(r); err != nil {
		return info, err
	}
	if info.SignedExtensions, err = parseSignedExtensions(r); err != nil {
		return info, err
	}
	return info, nil
}

func readCompactU32(r *scale.Reader) (uint32, error) {
	start := r.Offset()
	v, err := r.ReadCompactUint64()
	if err != nil {
		return 0, err
	}
	if v > 0xffffffff {
		return 0, scale.Errorf(scale.KindInvalidValue, start, "type id %d overflows u32", v)
	}
	return uint32(v), nil
}
