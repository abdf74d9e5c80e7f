package model

// CallArgument is one named, typed argument of a decoded call.
type CallArgument struct {
	Name  string `json:"name"`
	Type  string `json:"type"`
	Value Value  `json:"value"`
}

// DecodedCall is the call carried by an extrinsic.
type DecodedCall struct {
	Module        string         `json:"call_module"`
	ModuleIndex   uint8          `json:"call_module_index"`
	Function      string         `json:"call_function"`
	FunctionIndex uint8          `json:"call_function_index"`
	Arguments     []CallArgument `json:"call_args"`
}

// Arg returns the first argument with the given name. Absence is reported
// through the bool, never by a zero Value.
func (c DecodedCall) Arg(name string) (CallArgument, bool) {
	for _, arg := range c.Arguments {
		if arg.Name == name {
			return arg, true
		}
	}
	return CallArgument{}, false
}

// DecodedExtrinsic is a pending extrinsic decoded against runtime metadata.
type DecodedExtrinsic struct {
	Hash       string         `json:"extrinsic_hash"`
	Length     int            `json:"extrinsic_length"`
	Version    uint8          `json:"version"`
	Signed     bool           `json:"signed"`
	Address    Value          `json:"address,omitempty"`
	Signature  Value          `json:"signature,omitempty"`
	Extensions []CallArgument `json:"extensions,omitempty"`
	Call       DecodedCall    `json:"call"`
}

// Signer returns the SS58 address of the sender for signed extrinsics.
func (e DecodedExtrinsic) Signer() string {
	if !e.Signed || e.Address == nil {
		return ""
	}
	addr, _ := AccountAddress(e.Address)
	return addr
}

// Extension returns the payload of a signed extension by identifier.
func (e DecodedExtrinsic) Extension(identifier string) (Value, bool) {
	for _, ext := range e.Extensions {
		if ext.Name == identifier {
			return ext.Value, true
		}
	}
	return nil, false
}

// NetUID returns the subnet the call targets, looking through newtypes such as NetUid(u16).
func (c DecodedCall) NetUID() (uint16, bool) {
	arg, ok := c.Arg("netuid")
	if !ok {
		return 0, false
	}
	n, ok := AsUint64(arg.Value)
	if !ok || n > 0xffff {
		return 0, false
	}
	return uint16(n), true
}
