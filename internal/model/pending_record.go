package model

import "time"

// PendingRecord is a matched pending extrinsic as handed to sinks.
type PendingRecord struct {
	Chain       string           `json:"chain"`
	SpecVersion uint32           `json:"spec_version"`
	NetUID      *uint16          `json:"netuid,omitempty"`
	Signer      string           `json:"signer,omitempty"`
	ObservedAt  string           `json:"observed_at"`
	Extrinsic   DecodedExtrinsic `json:"extrinsic"`
}

// NewPendingRecord stamps ext with the chain context it was observed in.
func NewPendingRecord(chain string, specVersion uint32, ext DecodedExtrinsic, observedAt time.Time) PendingRecord {
	rec := PendingRecord{
		Chain:       chain,
		SpecVersion: specVersion,
		Signer:      ext.Signer(),
		ObservedAt:  observedAt.UTC().Format(time.RFC3339Nano),
		Extrinsic:   ext,
	}
	if n, ok := ext.Call.NetUID(); ok {
		rec.NetUID = &n
	}
	return rec
}
