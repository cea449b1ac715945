package hashing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestCommitmentDigest_S4(t *testing.T) {
	var pk, nonce [32]byte
	for i := range pk {
		pk[i] = 0xAA
	}
	for i := range nonce {
		nonce[i] = 0xBB
	}

	got := CommitmentDigest(pk[:], nonce[:])
	want := HConcat(pk[:], nonce[:])
	require.Equal(t, want, got)

	var otherNonce [32]byte
	for i := range otherNonce {
		otherNonce[i] = 0xCC
	}
	require.NotEqual(t, got, CommitmentDigest(pk[:], otherNonce[:]))
}

func TestSeatDigest_Deterministic(t *testing.T) {
	seed := H([]byte("S"))
	a := SeatDigest([]byte("A"), seed)
	b := SeatDigest([]byte("A"), seed)
	require.Equal(t, a, b)
	require.NotEqual(t, a, SeatDigest([]byte("B"), seed))
}

func TestMeetsDifficulty(t *testing.T) {
	var d Digest // all zero
	require.True(t, MeetsDifficulty(d, 0))
	require.True(t, MeetsDifficulty(d, 64))

	d[0] = 0x0f // one leading hex zero, then non-zero nibble
	require.True(t, MeetsDifficulty(d, 1))
	require.False(t, MeetsDifficulty(d, 2))

	d[0] = 0xf0
	require.False(t, MeetsDifficulty(d, 1))
}

func TestCanonicalHeader_Deterministic(t *testing.T) {
	ts := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	a := BlockHeaderDigest(1, Zero, Zero, ts, 7, 2)
	b := BlockHeaderDigest(1, Zero, Zero, ts, 7, 2)
	require.Equal(t, a, b)

	c := BlockHeaderDigest(2, Zero, Zero, ts, 7, 2)
	require.NotEqual(t, a, c)
}

func TestDigestRoundTrip(t *testing.T) {
	d := H([]byte("hello"))
	b := d.Bytes()
	got, ok := FromBytes(b)
	require.True(t, ok)
	require.Equal(t, d, got)

	_, ok = FromBytes([]byte("short"))
	require.False(t, ok)
}

func TestManifestChecksumDistinctFromDomainHash(t *testing.T) {
	payload := []byte("checkpoint-manifest-v1")
	domain := H(payload)
	manifest := ManifestChecksum(payload)
	require.NotEqual(t, domain[:], manifest[:])
}
