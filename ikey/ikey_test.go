package ikey

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCompareOrdersUserKeyBeforeSuffix(t *testing.T) {
	a := Encode([]byte("a"), 1, TypeValue)
	ab := Encode([]byte("ab"), 2, TypeValue)

	require.Less(t, Compare(a, ab), 0)
	require.Greater(t, Compare(ab, a), 0)
}

func TestCompareOrdersUserKeyBeforeSuffixRegardlessOfSequence(t *testing.T) {
	// "a" with a much larger sequence still sorts before "ab": the
	// user-key portion is compared first, not the raw encoded bytes.
	a := Encode([]byte("a"), MaxSequence, TypeValue)
	ab := Encode([]byte("ab"), 1, TypeValue)

	require.Less(t, Compare(a, ab), 0)
}

func TestCompareOrdersSameUserKeyBySequenceDescending(t *testing.T) {
	newer := Encode([]byte("a"), 2, TypeValue)
	older := Encode([]byte("a"), 1, TypeValue)

	require.Less(t, Compare(newer, older), 0)
	require.Greater(t, Compare(older, newer), 0)
}

func TestCompareSameUserKeySameSequenceOrdersByType(t *testing.T) {
	deletion := Encode([]byte("a"), 1, TypeDeletion)
	value := Encode([]byte("a"), 1, TypeValue)

	require.Less(t, Compare(deletion, value), 0)
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	k := Encode([]byte("hello"), 42, TypeValue)
	userKey, seq, vt, st := Decode(k)
	require.Nil(t, st)
	require.Equal(t, []byte("hello"), userKey)
	require.EqualValues(t, 42, seq)
	require.Equal(t, TypeValue, vt)
}

func TestSeekKeySortsBeforeAnyRealVersionOfSameUserKey(t *testing.T) {
	seek := SeekKey([]byte("a"))
	v1 := Encode([]byte("a"), 1, TypeValue)
	v2 := Encode([]byte("a"), 1000, TypeValue)

	require.Less(t, Compare(seek, v1), 0)
	require.Less(t, Compare(seek, v2), 0)
}
