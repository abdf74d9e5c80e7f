// Package ss58 renders and parses Substrate SS58 account addresses.
package ss58

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/mr-tron/base58"
	"golang.org/x/crypto/blake2b"
)

// DefaultPrefix is the generic Substrate network prefix, also used by Bittensor.
const DefaultPrefix uint16 = 42

var checksumPreimage = []byte("SS58PRE")

var (
	ErrInvalidPrefix   = errors.New("invalid ss58 prefix")
	ErrInvalidChecksum = errors.New("invalid ss58 checksum")
	ErrInvalidLength   = errors.New("invalid ss58 payload length")
)

// Encode renders a 32 or 33 byte public key as an SS58 address.
func Encode(pubKey []byte, prefix uint16) (string, error) {
	if len(pubKey) != 32 && len(pubKey) != 33 {
		return "", ErrInvalidLength
	}
	ident, err := encodePrefix(prefix)
	if err != nil {
		return "", err
	}

	payload := make([]byte, 0, len(ident)+len(pubKey)+2)
	payload = append(payload, ident...)
	payload = append(payload, pubKey...)
	sum := checksum(payload)
	payload = append(payload, sum[:2]...)

	return base58.Encode(payload), nil
}

// Decode parses an SS58 address into its public key and network prefix.
func Decode(address string) ([]byte, uint16, error) {
	data, err := base58.Decode(address)
	if err != nil {
		return nil, 0, fmt.Errorf("decode base58: %w", err)
	}
	if len(data) < 3 {
		return nil, 0, ErrInvalidLength
	}

	var prefix uint16
	var identLen int
	switch {
	case data[0] < 64:
		prefix = uint16(data[0])
		identLen = 1
	case data[0] < 128:
		lower := (data[0] << 2) | (data[1] >> 6)
		upper := data[1] & 0x3f
		prefix = uint16(lower) | uint16(upper)<<8
		identLen = 2
	default:
		return nil, 0, ErrInvalidPrefix
	}

	keyLen := len(data) - identLen - 2
	if keyLen != 32 && keyLen != 33 {
		return nil, 0, ErrInvalidLength
	}

	body := data[:identLen+keyLen]
	sum := checksum(body)
	if !bytes.Equal(sum[:2], data[identLen+keyLen:]) {
		return nil, 0, ErrInvalidChecksum
	}

	key := make([]byte, keyLen)
	copy(key, data[identLen:identLen+keyLen])
	return key, prefix, nil
}

func encodePrefix(prefix uint16) ([]byte, error) {
	switch {
	case prefix < 64:
		return []byte{byte(prefix)}, nil
	case prefix < 16384:
		first := byte((prefix&0x00fc)>>2) | 0x40
		second := byte(prefix>>8) | byte((prefix&0x03)<<6)
		return []byte{first, second}, nil
	default:
		return nil, ErrInvalidPrefix
	}
}

func checksum(payload []byte) [64]byte {
	data := make([]byte, 0, len(checksumPreimage)+len(payload))
	data = append(data, checksumPreimage...)
	data = append(data, payload...)
	return blake2b.Sum512(data)
}
