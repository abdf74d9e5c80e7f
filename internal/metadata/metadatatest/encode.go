package metadatatest

import (
	"pendingScope/internal/metadata"
	"pendingScope/internal/scale"
)

// Encode serializes md as prefixed runtime metadata of the given version (14 or 15).
// Storage, events and errors are written as absent; System gets an SS58Prefix constant.
func Encode(md *metadata.Metadata, version uint8) []byte {
	w := scale.NewWriter()
	w.PutU32(metadata.Magic)
	w.PutU8(version)

	types := md.Types()
	w.PutCompactUint64(uint64(len(types)))
	for _, t := range types {
		w.PutCompactUint64(uint64(t.ID))
		encodeType(w, t)
	}

	u16Type, hasU16 := findPrimitive(types, metadata.PrimU16)

	pallets := md.Pallets()
	w.PutCompactUint64(uint64(len(pallets)))
	for _, p := range pallets {
		w.PutString(p.Name)
		w.PutOption(false) // storage
		w.PutOption(p.HasCalls)
		if p.HasCalls {
			w.PutCompactUint64(uint64(p.CallType))
		}
		w.PutOption(false) // event

		if p.Name == "System" && hasU16 {
			w.PutCompactUint64(1)
			w.PutString("SS58Prefix")
			w.PutCompactUint64(uint64(u16Type))
			value := scale.NewWriter()
			value.PutU16(md.SS58Prefix())
			w.PutBytes(value.Bytes())
			w.PutStrings([]string{"The designated SS58 prefix of this chain."})
		} else {
			w.PutCompactUint64(0)
		}

		w.PutOption(false) // error
		w.PutU8(p.Index)
		if version >= 15 {
			w.PutStrings(nil)
		}
	}

	ext := md.Extrinsic()
	if version >= 15 {
		w.PutU8(ext.Version)
		w.PutCompactUint64(uint64(ext.AddressType))
		w.PutCompactUint64(uint64(ext.CallType))
		w.PutCompactUint64(uint64(ext.SignatureType))
		w.PutCompactUint64(uint64(ext.ExtraType))
	} else {
		w.PutCompactUint64(uint64(ext.Type))
		w.PutU8(ext.Version)
	}
	w.PutCompactUint64(uint64(len(ext.SignedExtensions)))
	for _, se := range ext.SignedExtensions {
		w.PutString(se.Identifier)
		w.PutCompactUint64(uint64(se.Type))
		w.PutCompactUint64(uint64(se.AdditionalSigned))
	}

	// runtime type id
	w.PutCompactUint64(0)
	return w.Bytes()
}

func findPrimitive(types []metadata.Type, p metadata.Primitive) (uint32, bool) {
	for _, t := range types {
		if t.Kind == metadata.DefPrimitive && t.Primitive == p {
			return t.ID, true
		}
	}
	return 0, false
}

func encodeType(w *scale.Writer, t metadata.Type) {
	w.PutStrings(t.Path)
	w.PutCompactUint64(uint64(len(t.Params)))
	for _, p := range t.Params {
		w.PutString(p.Name)
		w.PutOption(p.HasType)
		if p.HasType {
			w.PutCompactUint64(uint64(p.Type))
		}
	}

	w.PutU8(uint8(t.Kind))
	switch t.Kind {
	case metadata.DefComposite:
		encodeFields(w, t.Fields)
	case metadata.DefVariant:
		w.PutCompactUint64(uint64(len(t.Variants)))
		for _, v := range t.Variants {
			w.PutString(v.Name)
			encodeFields(w, v.Fields)
			w.PutU8(v.Index)
			w.PutStrings(nil)
		}
	case metadata.DefSequence, metadata.DefCompact:
		w.PutCompactUint64(uint64(t.Elem))
	case metadata.DefArray:
		w.PutU32(t.Len)
		w.PutCompactUint64(uint64(t.Elem))
	case metadata.DefTuple:
		w.PutCompactUint64(uint64(len(t.Tuple)))
		for _, id := range t.Tuple {
			w.PutCompactUint64(uint64(id))
		}
	case metadata.DefPrimitive:
		w.PutU8(uint8(t.Primitive))
	case metadata.DefBitSequence:
		w.PutCompactUint64(uint64(t.BitStore))
		w.PutCompactUint64(uint64(t.BitOrder))
	}

	w.PutStrings(nil) // docs
}

func encodeFields(w *scale.Writer, fields []metadata.Field) {
	w.PutCompactUint64(uint64(len(fields)))
	for _, f := range fields {
		w.PutOptionString(f.Name, f.Name != "")
		w.PutCompactUint64(uint64(f.Type))
		w.PutOptionString(f.TypeName, f.TypeName != "")
		w.PutStrings(nil)
	}
}
