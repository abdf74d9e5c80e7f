package ss58

import (
	"encoding/hex"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

const alicePubKey = "d43593c715fdd31c61141abd04a99fd6822c8558854ccde39a5684e7a56da27d"

func TestEncodeKnownAddresses(t *testing.T) {
	key, err := hex.DecodeString(alicePubKey)
	require.NoError(t, err)

	addr, err := Encode(key, DefaultPrefix)
	require.NoError(t, err)
	require.Equal(t, "5GrwvaEF5zXb26Fz9rcQpDWS57CtERHpNehXCPcNoHGKutQY", addr)

	addr, err = Encode(key, 0)
	require.NoError(t, err)
	require.Equal(t, "15oF4uVJwmo4TdGW7VfQxNLavjCXviqxT9S1MgbjMNHr6Sp5", addr)
}

func TestDecodeRoundTrip(t *testing.T) {
	key, err := hex.DecodeString(alicePubKey)
	require.NoError(t, err)

	for _, prefix := range []uint16{0, 2, 42, 63, 64, 255, 1284, 16383} {
		addr, err := Encode(key, prefix)
		require.NoError(t, err)

		gotKey, gotPrefix, err := Decode(addr)
		require.NoError(t, err, "prefix %d", prefix)
		require.Equal(t, key, gotKey)
		require.Equal(t, prefix, gotPrefix)
	}
}

func TestDecodeBadChecksum(t *testing.T) {
	_, _, err := Decode("5GrwvaEF5zXb26Fz9rcQpDWS57CtERHpNehXCPcNoHGKutQZ")
	require.True(t, errors.Is(err, ErrInvalidChecksum))
}

func TestEncodeRejects(t *testing.T) {
	_, err := Encode(make([]byte, 20), DefaultPrefix)
	require.ErrorIs(t, err, ErrInvalidLength)

	_, err = Encode(make([]byte, 32), 16384)
	require.ErrorIs(t, err, ErrInvalidPrefix)
}
