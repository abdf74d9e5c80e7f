package model

import (
	"bytes"
	"encoding/json"
	"math/big"
	"strconv"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/holiman/uint256"
)

// ValueKind tags the variants of Value.
type ValueKind uint8

const (
	KindUint ValueKind = iota + 1
	KindInt
	KindBool
	KindChar
	KindStr
	KindBytes
	KindAccountID
	KindSequence
	KindComposite
	KindVariant
	KindOpaque
)

// Value is a decoded SCALE value. The set of implementations is closed.
type Value interface {
	Kind() ValueKind
	isValue()
}

// Uint is an unsigned integer of 8 to 256 bits, optionally compact encoded.
type Uint struct {
	Bits    uint16
	Compact bool
	V       uint256.Int
}

// NewUint builds a Uint of the given width.
func NewUint(bits uint16, v uint64) Uint {
	u := Uint{Bits: bits}
	u.V.SetUint64(v)
	return u
}

// Uint64 returns the value when it fits in 64 bits.
func (u Uint) Uint64() (uint64, bool) {
	if !u.V.IsUint64() {
		return 0, false
	}
	return u.V.Uint64(), true
}

func (u Uint) String() string {
	return u.V.ToBig().String()
}

func (u Uint) MarshalJSON() ([]byte, error) {
	if u.Bits > 0 && u.Bits <= 32 {
		return []byte(u.String()), nil
	}
	return json.Marshal(u.String())
}

// Int is a signed integer of 8 to 256 bits.
type Int struct {
	Bits uint16
	V    *big.Int
}

func (i Int) String() string {
	if i.V == nil {
		return "0"
	}
	return i.V.String()
}

func (i Int) MarshalJSON() ([]byte, error) {
	if i.Bits <= 32 {
		return []byte(i.String()), nil
	}
	return json.Marshal(i.String())
}

type Bool bool

type Char rune

func (c Char) MarshalJSON() ([]byte, error) {
	return json.Marshal(string(rune(c)))
}

type Str string

// Bytes holds Vec<u8> and [u8; N] values.
type Bytes []byte

func (b Bytes) MarshalJSON() ([]byte, error) {
	return json.Marshal(hexutil.Encode(b))
}

// AccountID is a 32 byte account identifier with its SS58 rendering.
type AccountID struct {
	Raw     [32]byte
	Address string
}

func (a AccountID) MarshalJSON() ([]byte, error) {
	if a.Address == "" {
		return json.Marshal(hexutil.Encode(a.Raw[:]))
	}
	return json.Marshal(a.Address)
}

// Sequence holds vectors, arrays and tuples.
type Sequence []Value

func (s Sequence) MarshalJSON() ([]byte, error) {
	if s == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]Value(s))
}

// Field is a named or positional member of a Composite or Variant.
type Field struct {
	Name  string
	Value Value
}

// Composite is a struct or tuple struct.
type Composite []Field

func (c Composite) MarshalJSON() ([]byte, error) {
	return marshalFields(c)
}

// Variant is one arm of an enum with its payload.
type Variant struct {
	Name   string
	Index  uint8
	Fields []Field
}

func (v Variant) MarshalJSON() ([]byte, error) {
	if len(v.Fields) == 0 {
		return json.Marshal(v.Name)
	}
	payload, err := marshalFields(v.Fields)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	buf.WriteByte('{')
	key, _ := json.Marshal(v.Name)
	buf.Write(key)
	buf.WriteByte(':')
	buf.Write(payload)
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Opaque carries the raw encoding of a type the decoder does not model.
type Opaque struct {
	TypeName string
	Raw      []byte
}

func (o Opaque) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type string `json:"type"`
		Raw  string `json:"raw"`
	}{Type: o.TypeName, Raw: hexutil.Encode(o.Raw)})
}

func (Uint) Kind() ValueKind      { return KindUint }
func (Int) Kind() ValueKind       { return KindInt }
func (Bool) Kind() ValueKind      { return KindBool }
func (Char) Kind() ValueKind      { return KindChar }
func (Str) Kind() ValueKind       { return KindStr }
func (Bytes) Kind() ValueKind     { return KindBytes }
func (AccountID) Kind() ValueKind { return KindAccountID }
func (Sequence) Kind() ValueKind  { return KindSequence }
func (Composite) Kind() ValueKind { return KindComposite }
func (Variant) Kind() ValueKind   { return KindVariant }
func (Opaque) Kind() ValueKind    { return KindOpaque }

func (Uint) isValue()      {}
func (Int) isValue()       {}
func (Bool) isValue()      {}
func (Char) isValue()      {}
func (Str) isValue()       {}
func (Bytes) isValue()     {}
func (AccountID) isValue() {}
func (Sequence) isValue()  {}
func (Composite) isValue() {}
func (Variant) isValue()   {}
func (Opaque) isValue()    {}

// Unwrap strips single-field composites such as NetUid(u16).
func Unwrap(v Value) Value {
	for {
		c, ok := v.(Composite)
		if !ok || len(c) != 1 {
			return v
		}
		v = c[0].Value
	}
}

// AsUint64 returns v as an unsigned integer when it is one, looking through newtypes.
func AsUint64(v Value) (uint64, bool) {
	u, ok := Unwrap(v).(Uint)
	if !ok {
		return 0, false
	}
	return u.Uint64()
}

// AccountAddress returns the SS58 address held by v, looking through
// newtypes and MultiAddress::Id.
func AccountAddress(v Value) (string, bool) {
	switch typed := Unwrap(v).(type) {
	case AccountID:
		return typed.Address, typed.Address != ""
	case Variant:
		if typed.Name == "Id" && len(typed.Fields) == 1 {
			return AccountAddress(typed.Fields[0].Value)
		}
	}
	return "", false
}

// marshalFields renders named fields as an ordered object, positional fields as
// an array, and a single positional field as its inner value.
func marshalFields(fields []Field) ([]byte, error) {
	if len(fields) == 0 {
		return []byte("{}"), nil
	}
	named := fields[0].Name != ""
	if !named {
		if len(fields) == 1 {
			return json.Marshal(fields[0].Value)
		}
		values := make([]Value, 0, len(fields))
		for _, f := range fields {
			values = append(values, f.Value)
		}
		return json.Marshal(values)
	}

	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range fields {
		if i > 0 {
			buf.WriteByte(',')
		}
		name := f.Name
		if name == "" {
			name = strconv.Itoa(i)
		}
		key, err := json.Marshal(name)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		val, err := json.Marshal(f.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
