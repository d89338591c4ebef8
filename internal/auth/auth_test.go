package auth

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"arincloader/internal/session"
	"arincloader/internal/tftpwire"
)

func loopbackPair(t *testing.T) (*net.UDPConn, *net.UDPConn) {
	t.Helper()
	a, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	require.NoError(t, err)
	t.Cleanup(func() { a.Close() })

	b, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	require.NoError(t, err)
	t.Cleanup(func() { b.Close() })

	return a, b
}

func testKeys() *session.AuthKeys {
	keys := &session.AuthKeys{Loaded: true}
	copy(keys.LocalKey[:], "BC_SECRET_KEY_32_BYTES_EXACTLY!!")
	copy(keys.PeerExpectedKey[:], "GSE_SECRET_KEY_32_BYTES_EXACTLY!")
	return keys
}

func TestHandshakeSucceeds(t *testing.T) {
	target, loader := loopbackPair(t)
	keys := testKeys()

	result := make(chan struct {
		outcome Outcome
		err     error
	}, 1)
	go func() {
		outcome, err := Handshake(target, loader.LocalAddr().(*net.UDPAddr), keys, time.Second)
		result <- struct {
			outcome Outcome
			err     error
		}{outcome, err}
	}()

	_, err := loader.WriteToUDP(tftpwire.MarshalDATA(5, keys.PeerExpectedKey[:]), target.LocalAddr().(*net.UDPAddr))
	require.NoError(t, err)

	buf := make([]byte, 64)
	n, addr, err := loader.ReadFromUDP(buf) // ACK(5)
	require.NoError(t, err)
	f, err := tftpwire.Unmarshal(buf[:n])
	require.NoError(t, err)
	require.Equal(t, tftpwire.OpACK, f.Opcode)
	require.EqualValues(t, 5, f.Block)

	n, _, err = loader.ReadFromUDP(buf) // DATA(1, localKey)
	require.NoError(t, err)
	f, err = tftpwire.Unmarshal(buf[:n])
	require.NoError(t, err)
	require.Equal(t, tftpwire.OpDATA, f.Opcode)
	require.EqualValues(t, 1, f.Block)
	require.Equal(t, keys.LocalKey[:], f.Data)

	_, err = loader.WriteToUDP(tftpwire.MarshalACK(1), addr)
	require.NoError(t, err)

	got := <-result
	require.NoError(t, got.err)
	assert.Equal(t, Authenticated, got.outcome)
}

func TestHandshakeFailsOnKeyMismatch(t *testing.T) {
	target, loader := loopbackPair(t)
	keys := testKeys()

	result := make(chan struct {
		outcome Outcome
		err     error
	}, 1)
	go func() {
		outcome, err := Handshake(target, loader.LocalAddr().(*net.UDPAddr), keys, time.Second)
		result <- struct {
			outcome Outcome
			err     error
		}{outcome, err}
	}()

	wrongKey := make([]byte, session.KeySize)
	_, err := loader.WriteToUDP(tftpwire.MarshalDATA(1, wrongKey), target.LocalAddr().(*net.UDPAddr))
	require.NoError(t, err)

	got := <-result
	require.Error(t, got.err)
	assert.Equal(t, KeyMismatch, got.outcome)
}

func TestHandshakeTimesOutWhenNoPacketArrives(t *testing.T) {
	target, _ := loopbackPair(t)
	keys := testKeys()

	outcome, err := Handshake(target, &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 1}, keys, 50*time.Millisecond)
	require.Error(t, err)
	assert.Equal(t, Timeout, outcome)
}

func TestHandshakeRejectsUnloadedKeys(t *testing.T) {
	target, _ := loopbackPair(t)
	_, err := Handshake(target, target.LocalAddr().(*net.UDPAddr), &session.AuthKeys{}, time.Second)
	require.Error(t, err)
}
