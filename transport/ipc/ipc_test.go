package ipc

import (
	"errors"
	"net/url"
	"testing"

	"github.com/opd-ai/streamcore/aio"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPathFromURL(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"ipc:///tmp/app.sock", "/tmp/app.sock"},
		{"ipc://relative.sock", "relative.sock"},
		{"unix:///var/run/x", "/var/run/x"},
		{"abstract://name", "name"},
		{"ipc:opaque", "opaque"},
	}
	for _, tt := range tests {
		u, err := url.Parse(tt.url)
		require.NoError(t, err)
		got, err := PathFromURL(u)
		require.NoError(t, err, tt.url)
		assert.Equal(t, tt.want, got, tt.url)
	}

	for _, bad := range []string{"ipc://", "ipc:///x?y=1", "ipc:///x#f"} {
		u, err := url.Parse(bad)
		require.NoError(t, err)
		_, err = PathFromURL(u)
		assert.True(t, errors.Is(err, aio.ErrAddrInvalid), bad)
	}
}
