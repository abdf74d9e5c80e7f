package metadatatest

import (
	"encoding/binary"

	"pendingScope/internal/scale"
)

// Alice is the well-known development account public key.
var Alice = [32]byte{
	0xd4, 0x35, 0x93, 0xc7, 0x15, 0xfd, 0xd3, 0x1c, 0x61, 0x14, 0x1a, 0xbd, 0x04, 0xa9, 0x9f, 0xd6,
	0x82, 0x2c, 0x85, 0x58, 0x85, 0x4c, 0xcd, 0xe3, 0x9a, 0x56, 0x84, 0xe7, 0xa5, 0x6d, 0xa2, 0x7d,
}

// AliceAddress is Alice under the generic substrate prefix.
const AliceAddress = "5GrwvaEF5zXb26Fz9rcQpDWS57CtERHpNehXCPcNoHGKutQY"

// Unsigned wraps a call into a length-prefixed unsigned v4 extrinsic.
func Unsigned(call []byte) []byte {
	body := append([]byte{0x04}, call...)
	w := scale.NewWriter()
	w.PutBytes(body)
	return w.Bytes()
}

// Signed wraps a call into a length-prefixed signed v4 extrinsic with an
// Sr25519 signature, an immortal era, the given nonce and tip.
func Signed(signer [32]byte, nonce uint32, tip uint64, call []byte) []byte {
	body := scale.NewWriter()
	body.PutU8(0x84)
	body.PutU8(0x00) // MultiAddress::Id
	body.PutRaw(signer[:])
	body.PutU8(0x01) // MultiSignature::Sr25519
	sig := make([]byte, 64)
	for i := range sig {
		sig[i] = byte(i)
	}
	body.PutRaw(sig)
	body.PutU8(0x00) // Era::Immortal
	body.PutCompactUint64(uint64(nonce))
	body.PutCompactUint64(tip)
	body.PutRaw(call)

	w := scale.NewWriter()
	w.PutBytes(body.Bytes())
	return w.Bytes()
}

// AddStakeCall encodes SubtensorModule.add_stake.
func AddStakeCall(hotkey [32]byte, netuid uint16, amount uint64) []byte {
	out := []byte{PalletSubtensor, 2}
	out = append(out, hotkey[:]...)
	out = binary.LittleEndian.AppendUint16(out, netuid)
	return binary.LittleEndian.AppendUint64(out, amount)
}

// RemoveStakeCall encodes SubtensorModule.remove_stake, whose netuid is a bare u16.
func RemoveStakeCall(hotkey [32]byte, netuid uint16, amount uint64) []byte {
	out := []byte{PalletSubtensor, 3}
	out = append(out, hotkey[:]...)
	out = binary.LittleEndian.AppendUint16(out, netuid)
	return binary.LittleEndian.AppendUint64(out, amount)
}

// AddStakeLimitCall encodes SubtensorModule.add_stake_limit.
func AddStakeLimitCall(hotkey [32]byte, netuid uint16, amount, limitPrice uint64, allowPartial bool) []byte {
	out := AddStakeCall(hotkey, netuid, amount)
	out[1] = 88
	out = binary.LittleEndian.AppendUint64(out, limitPrice)
	if allowPartial {
		return append(out, 1)
	}
	return append(out, 0)
}

// SetWeightsCall encodes SubtensorModule.set_weights.
func SetWeightsCall(netuid uint16, dests, weights []uint16, versionKey uint64) []byte {
	w := scale.NewWriter()
	w.PutU8(PalletSubtensor)
	w.PutU8(0)
	w.PutU16(netuid)
	w.PutCompactUint64(uint64(len(dests)))
	for _, d := range dests {
		w.PutU16(d)
	}
	w.PutCompactUint64(uint64(len(weights)))
	for _, v := range weights {
		w.PutU16(v)
	}
	w.PutU64(versionKey)
	return w.Bytes()
}

// RegisterNetworkCall encodes SubtensorModule.register_network, which has no netuid.
func RegisterNetworkCall(hotkey [32]byte) []byte {
	return append([]byte{PalletSubtensor, 59}, hotkey[:]...)
}

// CommitBitsCall encodes SubtensorModule.commit_bits with a Lsb0 u8 bit vector.
func CommitBitsCall(netuid uint16, bits int, store []byte) []byte {
	w := scale.NewWriter()
	w.PutU8(PalletSubtensor)
	w.PutU8(40)
	w.PutU16(netuid)
	w.PutCompactUint64(uint64(bits))
	w.PutRaw(store)
	return w.Bytes()
}

// TransferKeepAliveCall encodes Balances.transfer_keep_alive to MultiAddress::Id.
func TransferKeepAliveCall(dest [32]byte, value uint64) []byte {
	w := scale.NewWriter()
	w.PutU8(PalletBalances)
	w.PutU8(3)
	w.PutU8(0x00)
	w.PutRaw(dest[:])
	w.PutCompactUint64(value)
	return w.Bytes()
}

// RemarkCall encodes System.remark.
func RemarkCall(remark []byte) []byte {
	w := scale.NewWriter()
	w.PutU8(PalletSystem)
	w.PutU8(0)
	w.PutBytes(remark)
	return w.Bytes()
}
