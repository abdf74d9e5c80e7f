package metadata

// TypeDefKind identifies the shape of a registry type.
type TypeDefKind uint8

// Order matches the on-chain TypeDef enum discriminants.
const (
	DefComposite TypeDefKind = iota
	DefVariant
	DefSequence
	DefArray
	DefTuple
	DefPrimitive
	DefCompact
	DefBitSequence
)

func (k TypeDefKind) String() string {
	switch k {
	case DefComposite:
		return "composite"
	case DefVariant:
		return "variant"
	case DefSequence:
		return "sequence"
	case DefArray:
		return "array"
	case DefTuple:
		return "tuple"
	case DefPrimitive:
		return "primitive"
	case DefCompact:
		return "compact"
	case DefBitSequence:
		return "bit_sequence"
	default:
		return "unknown"
	}
}

// Primitive is a scale-info primitive type.
type Primitive uint8

const (
	PrimBool Primitive = iota
	PrimChar
	PrimStr
	PrimU8
	PrimU16
	PrimU32
	PrimU64
	PrimU128
	PrimU256
	PrimI8
	PrimI16
	PrimI32
	PrimI64
	PrimI128
	PrimI256
)

var primitiveNames = [...]string{
	PrimBool: "bool",
	PrimChar: "char",
	PrimStr:  "str",
	PrimU8:   "u8",
	PrimU16:  "u16",
	PrimU32:  "u32",
	PrimU64:  "u64",
	PrimU128: "u128",
	PrimU256: "u256",
	PrimI8:   "i8",
	PrimI16:  "i16",
	PrimI32:  "i32",
	PrimI64:  "i64",
	PrimI128: "i128",
	PrimI256: "i256",
}

func (p Primitive) String() string {
	if int(p) < len(primitiveNames) {
		return primitiveNames[p]
	}
	return "unknown"
}

// Width returns the encoded byte width of fixed-size integer primitives, or 0.
func (p Primitive) Width() int {
	switch p {
	case PrimU8, PrimI8:
		return 1
	case PrimU16, PrimI16:
		return 2
	case PrimU32, PrimI32:
		return 4
	case PrimU64, PrimI64:
		return 8
	case PrimU128, PrimI128:
		return 16
	case PrimU256, PrimI256:
		return 32
	default:
		return 0
	}
}

// Signed reports whether p is a signed integer.
func (p Primitive) Signed() bool {
	return p >= PrimI8 && p <= PrimI256
}

// Field is a composite field or variant field.
type Field struct {
	Name     string
	Type     uint32
	TypeName string
}

// Variant is one arm of an enum type.
type Variant struct {
	Name   string
	Index  uint8
	Fields []Field
}

// TypeParam is a generic parameter recorded on a type.
type TypeParam struct {
	Name    string
	Type    uint32
	HasType bool
}

// Type is a single entry of the portable type registry.
type Type struct {
	ID     uint32
	Path   []string
	Params []TypeParam
	Kind   TypeDefKind

	Fields    []Field   // composite
	Variants  []Variant // variant
	Elem      uint32    // sequence, array, compact
	Len       uint32    // array
	Tuple     []uint32  // tuple
	Primitive Primitive // primitive
	BitStore  uint32    // bit sequence
	BitOrder  uint32    // bit sequence
}

// Name returns the last path segment, or "" for anonymous types.
func (t *Type) Name() string {
	if len(t.Path) == 0 {
		return ""
	}
	return t.Path[len(t.Path)-1]
}

// VariantByIndex returns the variant with the given discriminant.
func (t *Type) VariantByIndex(index uint8) (*Variant, bool) {
	for i := range t.Variants {
		if t.Variants[i].Index == index {
			return &t.Variants[i], true
		}
	}
	return nil, false
}

// VariantByName returns the variant with the given name.
func (t *Type) VariantByName(name string) (*Variant, bool) {
	for i := range t.Variants {
		if t.Variants[i].Name == name {
			return &t.Variants[i], true
		}
	}
	return nil, false
}

// IsAccountID reports whether t is a 32 byte account identifier.
func (t *Type) IsAccountID() bool {
	return t.Kind == DefComposite && t.Name() == "AccountId32" && len(t.Fields) == 1
}

// Pallet describes a runtime module that may expose calls.
type Pallet struct {
	Name     string
	Index    uint8
	CallType uint32
	HasCalls bool
}

// SignedExtension is one entry of the transaction extension pipeline.
type SignedExtension struct {
	Identifier       string
	Type             uint32
	AdditionalSigned uint32
}

// ExtrinsicInfo describes the extrinsic envelope.
type ExtrinsicInfo struct {
	Version          uint8
	Type             uint32
	AddressType      uint32
	CallType         uint32
	SignatureType    uint32
	ExtraType        uint32
	SignedExtensions []SignedExtension
}
