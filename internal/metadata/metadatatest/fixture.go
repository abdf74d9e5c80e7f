// Package metadatatest provides a small Subtensor-shaped runtime registry for tests.
package metadatatest

import (
	"fmt"

	"pendingScope/internal/metadata"
	"pendingScope/internal/ss58"
)

// Registry ids used by the fixture.
const (
	TypeU8 uint32 = iota
	TypeU16
	TypeU32
	TypeU64
	TypeU128
	TypeBool
	TypeBytes32
	TypeAccountID
	TypeBytes
	TypeCompactU128
	TypeNetUID
	TypeUnit
	TypeMultiAddress
	TypeBytes64
	TypeMultiSignature
	TypeBytes65
	TypeEra
	TypeCompactU32
	TypeCheckNonce
	TypeCheckMortality
	TypeChargePayment
	TypeCheckSpecVersion
	TypeExtra
	TypeSystemCall
	TypeBalancesCall
	TypeSubtensorCall
	TypeVecU16
	TypeRuntimeCall
	TypeUncheckedExtrinsic
	TypeBitVec
	TypeStr
)

// Pallet indices used by the fixture.
const (
	PalletSystem    uint8 = 0
	PalletBalances  uint8 = 5
	PalletSubtensor uint8 = 7
	PalletAura      uint8 = 3
)

func prim(id uint32, p metadata.Primitive) metadata.Type {
	return metadata.Type{ID: id, Kind: metadata.DefPrimitive, Primitive: p}
}

func field(name string, id uint32, typeName string) metadata.Field {
	return metadata.Field{Name: name, Type: id, TypeName: typeName}
}

// Types returns the fixture registry entries.
func Types() []metadata.Type {
	eraVariants := []metadata.Variant{{Name: "Immortal", Index: 0}}
	for i := 1; i <= 255; i++ {
		eraVariants = append(eraVariants, metadata.Variant{
			Name:   fmt.Sprintf("Mortal%d", i),
			Index:  uint8(i),
			Fields: []metadata.Field{field("", TypeU8, "")},
		})
	}

	return []metadata.Type{
		prim(TypeU8, metadata.PrimU8),
		prim(TypeU16, metadata.PrimU16),
		prim(TypeU32, metadata.PrimU32),
		prim(TypeU64, metadata.PrimU64),
		prim(TypeU128, metadata.PrimU128),
		prim(TypeBool, metadata.PrimBool),
		{ID: TypeBytes32, Kind: metadata.DefArray, Len: 32, Elem: TypeU8},
		{
			ID:     TypeAccountID,
			Path:   []string{"sp_core", "crypto", "AccountId32"},
			Kind:   metadata.DefComposite,
			Fields: []metadata.Field{field("", TypeBytes32, "[u8; 32]")},
		},
		{ID: TypeBytes, Kind: metadata.DefSequence, Elem: TypeU8},
		{ID: TypeCompactU128, Kind: metadata.DefCompact, Elem: TypeU128},
		{
			ID:     TypeNetUID,
			Path:   []string{"subtensor_runtime_common", "NetUid"},
			Kind:   metadata.DefComposite,
			Fields: []metadata.Field{field("", TypeU16, "u16")},
		},
		{ID: TypeUnit, Kind: metadata.DefTuple},
		{
			ID:   TypeMultiAddress,
			Path: []string{"sp_runtime", "multiaddress", "MultiAddress"},
			Params: []metadata.TypeParam{
				{Name: "AccountId", Type: TypeAccountID, HasType: true},
				{Name: "AccountIndex", Type: TypeUnit, HasType: true},
			},
			Kind: metadata.DefVariant,
			Variants: []metadata.Variant{
				{Name: "Id", Index: 0, Fields: []metadata.Field{field("", TypeAccountID, "AccountId")}},
				{Name: "Raw", Index: 2, Fields: []metadata.Field{field("", TypeBytes, "Vec<u8>")}},
				{Name: "Address32", Index: 3, Fields: []metadata.Field{field("", TypeBytes32, "[u8; 32]")}},
			},
		},
		{ID: TypeBytes64, Kind: metadata.DefArray, Len: 64, Elem: TypeU8},
		{
			ID:   TypeMultiSignature,
			Path: []string{"sp_runtime", "MultiSignature"},
			Kind: metadata.DefVariant,
			Variants: []metadata.Variant{
				{Name: "Ed25519", Index: 0, Fields: []metadata.Field{field("", TypeBytes64, "ed25519::Signature")}},
				{Name: "Sr25519", Index: 1, Fields: []metadata.Field{field("", TypeBytes64, "sr25519::Signature")}},
				{Name: "Ecdsa", Index: 2, Fields: []metadata.Field{field("", TypeBytes65, "ecdsa::Signature")}},
			},
		},
		{ID: TypeBytes65, Kind: metadata.DefArray, Len: 65, Elem: TypeU8},
		{
			ID:       TypeEra,
			Path:     []string{"sp_runtime", "generic", "era", "Era"},
			Kind:     metadata.DefVariant,
			Variants: eraVariants,
		},
		{ID: TypeCompactU32, Kind: metadata.DefCompact, Elem: TypeU32},
		{
			ID:     TypeCheckNonce,
			Path:   []string{"frame_system", "extensions", "check_nonce", "CheckNonce"},
			Kind:   metadata.DefComposite,
			Fields: []metadata.Field{field("", TypeCompactU32, "T::Nonce")},
		},
		{
			ID:     TypeCheckMortality,
			Path:   []string{"frame_system", "extensions", "check_mortality", "CheckMortality"},
			Kind:   metadata.DefComposite,
			Fields: []metadata.Field{field("", TypeEra, "Era")},
		},
		{
			ID:     TypeChargePayment,
			Path:   []string{"pallet_transaction_payment", "ChargeTransactionPayment"},
			Kind:   metadata.DefComposite,
			Fields: []metadata.Field{field("", TypeCompactU128, "BalanceOf<T>")},
		},
		{
			ID:   TypeCheckSpecVersion,
			Path: []string{"frame_system", "extensions", "check_spec_version", "CheckSpecVersion"},
			Kind: metadata.DefComposite,
		},
		{
			ID:    TypeExtra,
			Kind:  metadata.DefTuple,
			Tuple: []uint32{TypeCheckSpecVersion, TypeCheckMortality, TypeCheckNonce, TypeChargePayment},
		},
		{
			ID:   TypeSystemCall,
			Path: []string{"frame_system", "pallet", "Call"},
			Kind: metadata.DefVariant,
			Variants: []metadata.Variant{
				{Name: "remark", Index: 0, Fields: []metadata.Field{field("remark", TypeBytes, "Vec<u8>")}},
				{Name: "remark_with_event", Index: 7, Fields: []metadata.Field{field("remark", TypeStr, "String")}},
			},
		},
		{
			ID:   TypeBalancesCall,
			Path: []string{"pallet_balances", "pallet", "Call"},
			Kind: metadata.DefVariant,
			Variants: []metadata.Variant{
				{Name: "transfer_keep_alive", Index: 3, Fields: []metadata.Field{
					field("dest", TypeMultiAddress, "AccountIdLookupOf<T>"),
					field("value", TypeCompactU128, "T::Balance"),
				}},
			},
		},
		{
			ID:   TypeSubtensorCall,
			Path: []string{"pallet_subtensor", "pallet", "Call"},
			Kind: metadata.DefVariant,
			Variants: []metadata.Variant{
				{Name: "set_weights", Index: 0, Fields: []metadata.Field{
					field("netuid", TypeNetUID, "NetUid"),
					field("dests", TypeVecU16, "Vec<u16>"),
					field("weights", TypeVecU16, "Vec<u16>"),
					field("version_key", TypeU64, "u64"),
				}},
				{Name: "add_stake", Index: 2, Fields: []metadata.Field{
					field("hotkey", TypeAccountID, "T::AccountId"),
					field("netuid", TypeNetUID, "NetUid"),
					field("amount_staked", TypeU64, "u64"),
				}},
				{Name: "remove_stake", Index: 3, Fields: []metadata.Field{
					field("hotkey", TypeAccountID, "T::AccountId"),
					field("netuid", TypeU16, "u16"),
					field("amount_unstaked", TypeU64, "u64"),
				}},
				{Name: "commit_bits", Index: 40, Fields: []metadata.Field{
					field("netuid", TypeNetUID, "NetUid"),
					field("bits", TypeBitVec, "BitVec<u8, Lsb0>"),
				}},
				{Name: "register_network", Index: 59, Fields: []metadata.Field{
					field("hotkey", TypeAccountID, "T::AccountId"),
				}},
				{Name: "add_stake_limit", Index: 88, Fields: []metadata.Field{
					field("hotkey", TypeAccountID, "T::AccountId"),
					field("netuid", TypeNetUID, "NetUid"),
					field("amount_staked", TypeU64, "u64"),
					field("limit_price", TypeU64, "u64"),
					field("allow_partial", TypeBool, "bool"),
				}},
			},
		},
		{ID: TypeVecU16, Kind: metadata.DefSequence, Elem: TypeU16},
		{
			ID:   TypeRuntimeCall,
			Path: []string{"node_subtensor_runtime", "RuntimeCall"},
			Kind: metadata.DefVariant,
			Variants: []metadata.Variant{
				{Name: "System", Index: PalletSystem, Fields: []metadata.Field{field("", TypeSystemCall, "self::sp_api_hidden_includes_construct_runtime::hidden_include::dispatch::CallableCallFor<System, Runtime>")}},
				{Name: "Balances", Index: PalletBalances, Fields: []metadata.Field{field("", TypeBalancesCall, "")}},
				{Name: "SubtensorModule", Index: PalletSubtensor, Fields: []metadata.Field{field("", TypeSubtensorCall, "")}},
			},
		},
		{
			ID:   TypeUncheckedExtrinsic,
			Path: []string{"sp_runtime", "generic", "unchecked_extrinsic", "UncheckedExtrinsic"},
			Params: []metadata.TypeParam{
				{Name: "Address", Type: TypeMultiAddress, HasType: true},
				{Name: "Call", Type: TypeRuntimeCall, HasType: true},
				{Name: "Signature", Type: TypeMultiSignature, HasType: true},
				{Name: "Extra", Type: TypeExtra, HasType: true},
			},
			Kind:   metadata.DefComposite,
			Fields: []metadata.Field{field("", TypeBytes, "")},
		},
		{ID: TypeBitVec, Kind: metadata.DefBitSequence, BitStore: TypeU8, BitOrder: TypeUnit},
		prim(TypeStr, metadata.PrimStr),
	}
}

// Pallets returns the fixture pallets.
func Pallets() []metadata.Pallet {
	return []metadata.Pallet{
		{Name: "System", Index: PalletSystem, CallType: TypeSystemCall, HasCalls: true},
		{Name: "Aura", Index: PalletAura},
		{Name: "Balances", Index: PalletBalances, CallType: TypeBalancesCall, HasCalls: true},
		{Name: "SubtensorModule", Index: PalletSubtensor, CallType: TypeSubtensorCall, HasCalls: true},
	}
}

// Extrinsic returns the fixture extrinsic envelope.
func Extrinsic() metadata.ExtrinsicInfo {
	return metadata.ExtrinsicInfo{
		Version:       4,
		Type:          TypeUncheckedExtrinsic,
		AddressType:   TypeMultiAddress,
		CallType:      TypeRuntimeCall,
		SignatureType: TypeMultiSignature,
		ExtraType:     TypeExtra,
		SignedExtensions: []metadata.SignedExtension{
			{Identifier: "CheckSpecVersion", Type: TypeCheckSpecVersion, AdditionalSigned: TypeU32},
			{Identifier: "CheckMortality", Type: TypeCheckMortality, AdditionalSigned: TypeBytes32},
			{Identifier: "CheckNonce", Type: TypeCheckNonce, AdditionalSigned: TypeUnit},
			{Identifier: "ChargeTransactionPayment", Type: TypeChargePayment, AdditionalSigned: TypeUnit},
		},
	}
}

// Subtensor builds the fixture metadata. It panics on an invalid fixture.
func Subtensor() *metadata.Metadata {
	md, err := metadata.New(14, Types(), Pallets(), Extrinsic(), ss58.DefaultPrefix)
	if err != nil {
		panic(err)
	}
	return md
}
