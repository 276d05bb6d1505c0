//go:build unix

package streamcore

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSecurityDescriptorUnsupported(t *testing.T) {
	for _, uri := range []string{"tcp://127.0.0.1:0", "ipc:///tmp/streamcore-sd.sock", "ws://127.0.0.1:0/"} {
		l, err := NewListener(uri)
		require.NoError(t, err, uri)
		err = SetSecurityDescriptor(l, "D:P(A;;GA;;;WD)")
		assert.True(t, errors.Is(err, ErrNotSupported), uri)
		Free(l)
	}
}
