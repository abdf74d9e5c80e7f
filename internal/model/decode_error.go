package model

// DecodeFailure records a pending pool entry that could not be decoded.
type DecodeFailure struct {
	Index  int    `json:"index"`
	Hash   string `json:"extrinsic_hash,omitempty"`
	Length int    `json:"length"`
	Kind   string `json:"kind"`
	Raw    string `json:"raw,omitempty"`
	Error  string `json:"error"`
}
