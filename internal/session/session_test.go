package session

import (
	"crypto/sha256"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewContextIsZero(t *testing.T) {
	ctx := New()
	assert.True(t, ctx.IsZero())
}

func TestRecordFailureForcesErrorOnlyPastThreshold(t *testing.T) {
	ctx := New()
	for i := 0; i < MaxUploadFailures; i++ {
		require.False(t, ctx.RecordFailure(), "failure %d should not yet force ERROR", i+1)
	}
	assert.True(t, ctx.RecordFailure(), "the failure beyond MaxUploadFailures must force ERROR")
	assert.Equal(t, uint8(MaxUploadFailures+1), ctx.UploadFailureCount)
}

func TestClearPreservesMainConnAndStatusButResetsWorkingSet(t *testing.T) {
	conn, err := net.ListenUDP("udp", &net.UDPAddr{})
	require.NoError(t, err)
	defer conn.Close()

	ctx := New()
	ctx.MainConn = conn
	ctx.Authenticated = true
	ctx.UploadFailureCount = 2
	ctx.LUR = LurRecord{LoadPartNumber: "EMB-SW-007-137-045"}
	ctx.Keys.Loaded = true
	ctx.Status.Update("TEARDOWN", true, 2, "run")

	ctx.Clear()

	assert.Same(t, conn, ctx.MainConn)
	assert.True(t, ctx.IsZero())
	assert.Equal(t, "TEARDOWN", ctx.Status.Snapshot().State, "Status survives Clear — it is read by statusapi across sessions")
}

func TestAuthKeysZero(t *testing.T) {
	var keys AuthKeys
	keys.LocalKey[0] = 0xAB
	keys.PeerExpectedKey[0] = 0xCD
	keys.Loaded = true

	keys.Zero()

	assert.Equal(t, [KeySize]byte{}, keys.LocalKey)
	assert.Equal(t, [KeySize]byte{}, keys.PeerExpectedKey)
	assert.False(t, keys.Loaded)
}

func TestStatusSnapshotReflectsSettersIndependentlyOfUpdate(t *testing.T) {
	var s Status
	s.Update("UPLOAD_PREP", false, 0, "enter")
	s.SetLastPartNumber("EMB-SW-007-137-045")
	s.SetLastDigestHex("deadbeef")

	snap := s.Snapshot()
	assert.Equal(t, "UPLOAD_PREP", snap.State)
	assert.Equal(t, "EMB-SW-007-137-045", snap.LastPartNumber)
	assert.Equal(t, "deadbeef", snap.LastDigestHex)
}

func TestResetHashDiscardsPriorAccumulatorState(t *testing.T) {
	ctx := New()
	ctx.ResetHash()
	ctx.Digest.Write([]byte("partial firmware block"))

	ctx.ResetHash()

	emptySHA256 := sha256.Sum256(nil)
	var got [sha256.Size]byte
	copy(got[:], ctx.Digest.Sum(nil))
	assert.Equal(t, emptySHA256, got, "ResetHash must discard state from a prior aborted transfer")
}
