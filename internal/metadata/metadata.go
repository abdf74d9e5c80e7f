// Package metadata holds the runtime type registry a node publishes through state_getMetadata.
package metadata

import (
	"fmt"
	"sort"
	"strings"

	"pendingScope/internal/scale"
	"pendingScope/internal/ss58"
)

// Metadata is an immutable, parsed runtime metadata document.
type Metadata struct {
	version    uint8
	types      map[uint32]*Type
	pallets    []Pallet
	byIndex    map[uint8]int
	extrinsic  ExtrinsicInfo
	ss58Prefix uint16
}

// New assembles Metadata from already decoded parts. It validates that every
// pallet call type and the extrinsic call type exist in the registry.
func New(version uint8, types []Type, pallets []Pallet, extrinsic ExtrinsicInfo, ss58Prefix uint16) (*Metadata, error) {
	md := &Metadata{
		version:    version,
		types:      make(map[uint32]*Type, len(types)),
		pallets:    make([]Pallet, len(pallets)),
		byIndex:    make(map[uint8]int, len(pallets)),
		extrinsic:  extrinsic,
		ss58Prefix: ss58Prefix,
	}

	for i := range types {
		t := types[i]
		if _, ok := md.types[t.ID]; ok {
			return nil, fmt.Errorf("duplicate type id %d", t.ID)
		}
		md.types[t.ID] = &t
	}

	copy(md.pallets, pallets)
	for i, p := range md.pallets {
		if _, ok := md.byIndex[p.Index]; ok {
			return nil, fmt.Errorf("duplicate pallet index %d", p.Index)
		}
		md.byIndex[p.Index] = i
		if !p.HasCalls {
			continue
		}
		t, ok := md.types[p.CallType]
		if !ok {
			return nil, fmt.Errorf("pallet %s: call type %d not in registry", p.Name, p.CallType)
		}
		if t.Kind != DefVariant {
			return nil, fmt.Errorf("pallet %s: call type %d is %s, want variant", p.Name, p.CallType, t.Kind)
		}
	}

	if _, ok := md.types[extrinsic.CallType]; !ok {
		return nil, fmt.Errorf("extrinsic call type %d not in registry", extrinsic.CallType)
	}

	return md, nil
}

// Version returns the metadata format version (14 or 15).
func (m *Metadata) Version() uint8 {
	return m.version
}

// SS58Prefix returns the address prefix advertised by the System pallet.
func (m *Metadata) SS58Prefix() uint16 {
	return m.ss58Prefix
}

// Extrinsic returns the extrinsic envelope description.
func (m *Metadata) Extrinsic() ExtrinsicInfo {
	return m.extrinsic
}

// Pallets returns the pallets in declaration order.
func (m *Metadata) Pallets() []Pallet {
	out := make([]Pallet, len(m.pallets))
	copy(out, m.pallets)
	return out
}

// Types returns every registry entry ordered by id.
func (m *Metadata) Types() []Type {
	out := make([]Type, 0, len(m.types))
	for _, t := range m.types {
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Type resolves a registry id.
func (m *Metadata) Type(id uint32) (*Type, error) {
	t, ok := m.types[id]
	if !ok {
		return nil, &scale.DecodeError{Kind: scale.KindUnknownType, Detail: fmt.Sprintf("type id %d not in registry", id)}
	}
	return t, nil
}

// PalletByIndex resolves a pallet by its call index byte.
func (m *Metadata) PalletByIndex(index uint8) (*Pallet, bool) {
	i, ok := m.byIndex[index]
	if !ok {
		return nil, false
	}
	return &m.pallets[i], true
}

// PalletByName resolves a pallet by name.
func (m *Metadata) PalletByName(name string) (*Pallet, bool) {
	for i := range m.pallets {
		if m.pallets[i].Name == name {
			return &m.pallets[i], true
		}
	}
	return nil, false
}

// CallFunctions lists the call names of a pallet in variant order.
func (m *Metadata) CallFunctions(pallet string) []string {
	p, ok := m.PalletByName(pallet)
	if !ok || !p.HasCalls {
		return nil
	}
	t := m.types[p.CallType]
	names := make([]string, 0, len(t.Variants))
	for _, v := range t.Variants {
		names = append(names, v.Name)
	}
	return names
}

// FormatAccount renders a 32 byte account id with the chain prefix.
func (m *Metadata) FormatAccount(raw []byte) string {
	addr, err := ss58.Encode(raw, m.ss58Prefix)
	if err != nil {
		return ""
	}
	return addr
}

const maxTypeNameDepth = 8

// TypeName renders a human readable name for a registry type.
func (m *Metadata) TypeName(id uint32) string {
	return m.typeName(id, 0)
}

func (m *Metadata) typeName(id uint32, depth int) string {
	t, ok := m.types[id]
	if !ok {
		return fmt.Sprintf("Unknown<%d>", id)
	}
	if depth > maxTypeNameDepth {
		if name := t.Name(); name != "" {
			return name
		}
		return "..."
	}

	switch t.Kind {
	case DefPrimitive:
		return t.Primitive.String()
	case DefSequence:
		return "Vec<" + m.typeName(t.Elem, depth+1) + ">"
	case DefArray:
		return fmt.Sprintf("[%s; %d]", m.typeName(t.Elem, depth+1), t.Len)
	case DefCompact:
		return "Compact<" + m.typeName(t.Elem, depth+1) + ">"
	case DefBitSequence:
		return "BitVec"
	case DefTuple:
		parts := make([]string, 0, len(t.Tuple))
		for _, elem := range t.Tuple {
			parts = append(parts, m.typeName(elem, depth+1))
		}
		return "(" + strings.Join(parts, ", ") + ")"
	}

	name := t.Name()
	if name == "" {
		name = t.Kind.String()
	}
	params := make([]string, 0, len(t.Params))
	for _, p := range t.Params {
		if p.HasType {
			params = append(params, m.typeName(p.Type, depth+1))
		}
	}
	if len(params) == 0 {
		return name
	}
	return name + "<" + strings.Join(params, ", ") + ">"
}
