package server

import (
	"context"
	"net"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/hexdb-io/hexdb/auth"
	"github.com/hexdb-io/hexdb/config"
	"github.com/hexdb-io/hexdb/crypto/codec"
)

func startTestServer(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	loginsPath := filepath.Join(dir, "logins.json")
	require.NoError(t, auth.AppendUser(loginsPath, "alice", "hunter22", "admin"))

	cfg := &config.Config{
		Server: config.ServerConfig{
			ListenAddr:       "127.0.0.1:0",
			MaxRequestBytes:  8192,
			MaxResponseBytes: 4096,
			SessionTTL:       60 * time.Second,
			SweepInterval:    500 * time.Millisecond,
		},
		Storage: config.StorageConfig{RootDir: dir},
		Auth:    config.AuthConfig{LoginsPath: loginsPath},
	}

	srv, err := New(cfg)
	require.NoError(t, err)

	ln, err := net.Listen("tcp", cfg.Server.ListenAddr)
	require.NoError(t, err)
	srv.listener = ln

	_, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	go func() {
		g := srv.acceptLoop(ln)
		_ = g
	}()
	t.Cleanup(func() { ln.Close() })

	return ln.Addr().String()
}

func sendRaw(t *testing.T, addr, plain string) string {
	t.Helper()
	conn, err := net.Dial("tcp", addr)
	require.NoError(t, err)
	defer conn.Close()

	_, err = conn.Write([]byte(codec.EncodePlainHex(plain)))
	require.NoError(t, err)

	buf := make([]byte, 8192)
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	n, err := conn.Read(buf)
	require.NoError(t, err)

	decoded, err := codec.DecodePlainHex(string(buf[:n]))
	require.NoError(t, err)
	return decoded
}

func TestServerRegisterRoundTrip(t *testing.T) {
	addr := startTestServer(t)

	resp := sendRaw(t, addr, "register;login|x=x|alice 1-1 password|x=x|hunter22")
	require.True(t, strings.HasPrefix(resp, "OK;"), "got %q", resp)
}

func TestServerIncorrectRequestIsReported(t *testing.T) {
	addr := startTestServer(t)

	resp := sendRaw(t, addr, "garbage-with-no-semicolon")
	require.Equal(t, "Err;IncorrectRequest", resp)
}
