package fsm

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"arincloader/internal/arinc"
	"arincloader/internal/keystore"
	"arincloader/internal/session"
	"arincloader/internal/tftpwire"
)

func newLoaderSocket(t *testing.T) *net.UDPConn {
	t.Helper()
	conn, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestMaintWaitHandlerAuthenticatesThenServesLUI(t *testing.T) {
	m := newTestMachine(t)
	m.current = MaintWait

	var localKey, peerKey [session.KeySize]byte
	copy(localKey[:], "target-local-key-0123456789ABCD!")
	copy(peerKey[:], "loader-peer-key-0123456789ABCDE!")
	require.NoError(t, keystore.WriteStaticKeys(m.KeyFiles, localKey, peerKey))

	mainAddr := m.Engine.Conn.LocalAddr().(*net.UDPAddr)
	loader := newLoaderSocket(t)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- m.Loop(ctx) }()

	buf := make([]byte, 600)

	_, err := loader.WriteToUDP(tftpwire.MarshalDATA(7, peerKey[:]), mainAddr)
	require.NoError(t, err)

	n, _, err := loader.ReadFromUDP(buf)
	require.NoError(t, err)
	f, err := tftpwire.Unmarshal(buf[:n])
	require.NoError(t, err)
	require.Equal(t, tftpwire.OpACK, f.Opcode)
	require.EqualValues(t, 7, f.Block)

	n, fromAddr, err := loader.ReadFromUDP(buf)
	require.NoError(t, err)
	f, err = tftpwire.Unmarshal(buf[:n])
	require.NoError(t, err)
	require.Equal(t, tftpwire.OpDATA, f.Opcode)
	require.Equal(t, localKey[:], f.Data)

	_, err = loader.WriteToUDP(tftpwire.MarshalACK(1), fromAddr)
	require.NoError(t, err)

	_, err = loader.WriteToUDP(tftpwire.MarshalRRQ("GSE_IMAGE.LUI"), mainAddr)
	require.NoError(t, err)

	n, fromAddr, err = loader.ReadFromUDP(buf)
	require.NoError(t, err)
	f, err = tftpwire.Unmarshal(buf[:n])
	require.NoError(t, err)
	require.Equal(t, tftpwire.OpDATA, f.Opcode)
	require.EqualValues(t, 1, f.Block)
	require.Len(t, f.Data, arinc.LUISize)

	_, err = loader.WriteToUDP(tftpwire.MarshalACK(1), fromAddr)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return m.Current() == UploadPrep
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	<-done

	require.True(t, m.Ctx.Authenticated)
}
