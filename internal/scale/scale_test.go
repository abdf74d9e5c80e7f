package scale

import (
	"errors"
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"
)

func TestCompactKnownEncodings(t *testing.T) {
	cases := []struct {
		value   uint64
		encoded []byte
	}{
		{0, []byte{0x00}},
		{1, []byte{0x04}},
		{42, []byte{0xa8}},
		{63, []byte{0xfc}},
		{64, []byte{0x01, 0x01}},
		{69, []byte{0x15, 0x01}},
		{16383, []byte{0xfd, 0xff}},
		{16384, []byte{0x02, 0x00, 0x01, 0x00}},
		{1073741823, []byte{0xfe, 0xff, 0xff, 0xff}},
		{1073741824, []byte{0x03, 0x00, 0x00, 0x00, 0x40}},
		{1<<64 - 1, []byte{0x13, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff}},
	}

	for _, tc := range cases {
		w := NewWriter()
		w.PutCompactUint64(tc.value)
		require.Equal(t, tc.encoded, w.Bytes(), "encode %d", tc.value)

		r := NewReader(tc.encoded)
		got, err := r.ReadCompactUint64()
		require.NoError(t, err)
		require.Equal(t, tc.value, got)
		require.Zero(t, r.Remaining())
	}
}

func TestCompactU128(t *testing.T) {
	v := new(uint256.Int).Lsh(uint256.NewInt(1), 100)
	w := NewWriter()
	w.PutCompact(v)

	got, err := NewReader(w.Bytes()).ReadCompact()
	require.NoError(t, err)
	require.True(t, v.Eq(got))
}

func TestReadUnderrun(t *testing.T) {
	r := NewReader([]byte{0x01})
	_, err := r.ReadU32()
	require.True(t, errors.Is(err, ErrBufferUnderrun))

	var decodeErr *DecodeError
	require.True(t, errors.As(err, &decodeErr))
	require.Equal(t, 0, decodeErr.Offset)
}

func TestReadLengthExceedsBuffer(t *testing.T) {
	// length prefix 10 followed by two bytes
	r := NewReader([]byte{0x28, 0xaa, 0xbb})
	_, err := r.ReadBytes()
	require.True(t, errors.Is(err, ErrMalformedLength))
	require.False(t, errors.Is(err, ErrBufferUnderrun))
}

func TestReadBoolInvalid(t *testing.T) {
	_, err := NewReader([]byte{0x02}).ReadBool()
	require.True(t, errors.Is(err, ErrInvalidValue))
}

func TestStringRoundTrip(t *testing.T) {
	w := NewWriter()
	w.PutStrings([]string{"SubtensorModule", "add_stake"})
	w.PutOptionString("T::AccountId", true)
	w.PutOptionString("", false)

	r := NewReader(w.Bytes())
	items, err := r.ReadStrings()
	require.NoError(t, err)
	require.Equal(t, []string{"SubtensorModule", "add_stake"}, items)

	s, ok, err := r.ReadOptionString()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "T::AccountId", s)

	_, ok, err = r.ReadOptionString()
	require.NoError(t, err)
	require.False(t, ok)
	require.Zero(t, r.Remaining())
}

func TestPutUintOverflow(t *testing.T) {
	w := NewWriter()
	require.Error(t, w.PutUint(2, uint256.NewInt(70000)))
	require.NoError(t, w.PutUint(2, uint256.NewInt(8)))
	require.Equal(t, []byte{0x08, 0x00}, w.Bytes())
}
