// Package ikey implements the internal-key codec: the (user_key, sequence,
// type) triple encoded as the user key followed by a fixed 9-byte suffix.
// Encoded keys are ordered with Compare, which yields user_key ascending,
// then sequence descending, then type ascending; plain byte-wise
// comparison of the encoded form does not give that order when one user
// key is a byte-prefix of another.
package ikey

import (
	"bytes"
	"encoding/binary"

	"github.com/ChinmayNoob/lsm-go/status"
)

// ValueType distinguishes a live value from a deletion tombstone.
type ValueType uint8

const (
	TypeDeletion ValueType = 0
	TypeValue    ValueType = 1
)

// suffixLen is the width, in bytes, of the fixed (sequence, type) suffix
// appended to every encoded internal key: 8 bytes of bit-complemented
// sequence plus 1 type byte. The suffix carries no length prefix, so
// plain bytes.Compare of two encoded keys is only correct when their user
// keys happen to be the same length — a shorter user key that is a
// prefix of a longer one (e.g. "a" vs "ab") sorts on the wrong side of
// its suffix bytes otherwise. Every comparison of encoded keys must
// therefore go through Compare, which splits off and compares the
// user-key portion first, the same way LevelDB's InternalKeyComparator
// does (see DESIGN.md).
const suffixLen = 9

// MaxSequence is the largest representable sequence number.
const MaxSequence uint64 = 1<<64 - 1

// Key is an encoded internal key: raw bytes in the wire order described
// above. Two Keys must be ordered with Compare, not bytes.Compare — see
// suffixLen.
type Key []byte

// Compare orders two encoded internal keys by user key ascending, then by
// sequence descending, then by type ascending — splitting off the
// user-key portion before comparing, rather than comparing the raw
// encoded bytes, so that one user key being a byte-prefix of another
// does not perturb the order (the bare suffix bytes of the shorter key's
// encoding can otherwise sort above or below the longer key's user-key
// continuation bytes). Keys shorter than suffixLen compare by raw bytes,
// which only arises for corrupt input.
func Compare(a, b Key) int {
	if len(a) < suffixLen || len(b) < suffixLen {
		return bytes.Compare(a, b)
	}
	ua, ub := UserKey(a), UserKey(b)
	if c := bytes.Compare(ua, ub); c != 0 {
		return c
	}
	return bytes.Compare(a[len(a)-suffixLen:], b[len(b)-suffixLen:])
}

// Encode produces the internal-key encoding of (userKey, seq, vt).
func Encode(userKey []byte, seq uint64, vt ValueType) Key {
	buf := make([]byte, len(userKey)+suffixLen)
	n := copy(buf, userKey)
	binary.BigEndian.PutUint64(buf[n:], ^seq)
	buf[n+8] = byte(vt)
	return buf
}

// Decode splits an encoded internal key back into its three fields.
func Decode(k Key) (userKey []byte, seq uint64, vt ValueType, st *status.Status) {
	if len(k) < suffixLen {
		return nil, 0, 0, status.Corruptionf("internal key too short: %d bytes", len(k))
	}
	n := len(k) - suffixLen
	userKey = k[:n]
	seq = ^binary.BigEndian.Uint64(k[n : n+8])
	vt = ValueType(k[n+8])
	return userKey, seq, vt, nil
}

// UserKey extracts the user-key portion without fully decoding the suffix.
func UserKey(k Key) []byte {
	if len(k) < suffixLen {
		return nil
	}
	return k[:len(k)-suffixLen]
}

// IsDeletion reports whether the encoded key carries a deletion tombstone.
func IsDeletion(k Key) bool {
	if len(k) < suffixLen {
		return false
	}
	return ValueType(k[len(k)-1]) == TypeDeletion
}

// SeekKey builds the internal key used to seek to the first (freshest)
// version of userKey: the smallest possible encoded form sharing that
// user key, i.e. sequence = MaxSequence so the complemented suffix sorts
// before any real sequence for the same user key.
func SeekKey(userKey []byte) Key {
	return Encode(userKey, MaxSequence, TypeValue)
}
