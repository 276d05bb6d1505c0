package metrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDialAndAcceptCounters(t *testing.T) {
	okBefore := testutil.ToFloat64(dialsTotal.WithLabelValues("test+dial", "ok"))
	errBefore := testutil.ToFloat64(dialsTotal.WithLabelValues("test+dial", "error"))

	DialDone("test+dial", nil)
	DialDone("test+dial", errors.New("refused"))
	DialDone("test+dial", nil)

	assert.Equal(t, okBefore+2, testutil.ToFloat64(dialsTotal.WithLabelValues("test+dial", "ok")))
	assert.Equal(t, errBefore+1, testutil.ToFloat64(dialsTotal.WithLabelValues("test+dial", "error")))

	before := testutil.ToFloat64(acceptsTotal.WithLabelValues("test+accept", "ok"))
	AcceptDone("test+accept", nil)
	assert.Equal(t, before+1, testutil.ToFloat64(acceptsTotal.WithLabelValues("test+accept", "ok")))
}

func TestByteCountersIgnoreEmptyTransfers(t *testing.T) {
	before := testutil.ToFloat64(bytesSent.WithLabelValues("test+bytes"))
	Sent("test+bytes", 0)
	Sent("test+bytes", 10)
	assert.Equal(t, before+10, testutil.ToFloat64(bytesSent.WithLabelValues("test+bytes")))

	before = testutil.ToFloat64(bytesReceived.WithLabelValues("test+bytes"))
	Received("test+bytes", 4)
	assert.Equal(t, before+4, testutil.ToFloat64(bytesReceived.WithLabelValues("test+bytes")))
}

func TestOpenStreamsGauge(t *testing.T) {
	before := testutil.ToFloat64(openStreams.WithLabelValues("test+gauge"))
	StreamOpened("test+gauge")
	StreamOpened("test+gauge")
	StreamFreed("test+gauge")
	assert.Equal(t, before+1, testutil.ToFloat64(openStreams.WithLabelValues("test+gauge")))
}

func TestRegisterIsIdempotent(t *testing.T) {
	reg := prometheus.NewRegistry()
	require.NoError(t, Register(reg))
	require.NoError(t, Register(reg))
}
