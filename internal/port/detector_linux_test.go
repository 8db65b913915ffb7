//go:build linux

package port

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseHexAddr(t *testing.T) {
	tests := []struct {
		input    string
		wantAddr string
		wantPort int
		wantErr  bool
	}{
		// /proc/net/tcp stores IPv4 addresses in little-endian
		{"0100007F:0BB8", "127.0.0.1", 3000, false},
		{"00000000:1F90", "0.0.0.0", 8080, false},
		{"0100007F:0050", "127.0.0.1", 80, false},
		{"0100007F:2649", "127.0.0.1", 9801, false},
		{"00000000000000000000000000000000:2649", "::", 9801, false},

		{"noport", "", 0, true},
		{"0100007F:ZZZZ", "", 0, true},
		{"ZZZZZZZZ:0050", "", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			addr, port, err := parseHexAddr(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantAddr, addr)
			assert.Equal(t, tt.wantPort, port)
		})
	}
}

func TestParseProcNet(t *testing.T) {
	content := `  sl  local_address rem_address   st tx_queue rx_queue tr tm->when retrnsmt   uid  timeout inode
   0: 0100007F:2649 00000000:0000 0A 00000000:00000000 00:00000000 00000000  1000        0 4242 1 0000000000000000 100 0 0 10 0
   1: 00000000:1F90 00000000:0000 0A 00000000:00000000 00:00000000 00000000  1000        0 4343 1 0000000000000000 100 0 0 10 0
   2: 0100007F:8124 0100007F:2649 01 00000000:00000000 00:00000000 00000000  1000        0 4444 1 0000000000000000 100 0 0 10 0
garbage line that is too short
`
	path := filepath.Join(t.TempDir(), "tcp")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	entries, err := parseProcNet(path)
	require.NoError(t, err)
	require.Len(t, entries, 3)

	assert.Equal(t, "127.0.0.1", entries[0].localAddr)
	assert.Equal(t, 9801, entries[0].localPort)
	assert.Equal(t, tcpListenState, entries[0].state)
	assert.Equal(t, uint64(4242), entries[0].inode)

	assert.Equal(t, "0.0.0.0", entries[1].localAddr)
	assert.Equal(t, 8080, entries[1].localPort)

	// Established connection is parsed but not in LISTEN state
	assert.NotEqual(t, tcpListenState, entries[2].state)
}

func TestParseProcNetMissingFile(t *testing.T) {
	_, err := parseProcNet(filepath.Join(t.TempDir(), "does-not-exist"))
	require.Error(t, err)
}
