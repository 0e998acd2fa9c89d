package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCaptureWriterWithinLimit(t *testing.T) {
	cw := &captureWriter{ResponseWriter: httptest.NewRecorder(), status: http.StatusOK, limit: 8}

	_, err := cw.Write([]byte("12345678")) // exactly fills the limit
	require.NoError(t, err)

	assert.False(t, cw.overflow)
	assert.Equal(t, "12345678", cw.buf.String())
}

func TestCaptureWriterOverflowAfterExactFill(t *testing.T) {
	cw := &captureWriter{ResponseWriter: httptest.NewRecorder(), status: http.StatusOK, limit: 8}

	_, err := cw.Write([]byte("12345678"))
	require.NoError(t, err)
	_, err = cw.Write([]byte("9")) // one byte past the limit
	require.NoError(t, err)

	// The capture is marked overflowed so it is never cached; a partial
	// buffer must not be mistaken for the full body.
	assert.True(t, cw.overflow)
}

func TestCaptureWriterOverflowMidWrite(t *testing.T) {
	cw := &captureWriter{ResponseWriter: httptest.NewRecorder(), status: http.StatusOK, limit: 4}

	_, err := cw.Write([]byte("123456"))
	require.NoError(t, err)

	assert.True(t, cw.overflow)
}

func TestCaptureWriterUnlimited(t *testing.T) {
	cw := &captureWriter{ResponseWriter: httptest.NewRecorder(), status: http.StatusOK, limit: 0}

	_, err := cw.Write([]byte("anything goes"))
	require.NoError(t, err)

	assert.False(t, cw.overflow)
	assert.Equal(t, "anything goes", cw.buf.String())
}

func TestPayloadEncodeDecode(t *testing.T) {
	hdr := http.Header{"Content-Type": []string{"application/json"}}
	body := []byte(`{"status":"success"}`)

	raw, err := encodePayload(http.StatusOK, hdr, body)
	require.NoError(t, err)

	status, gotHdr, gotBody, ok := decodePayload(raw)
	require.True(t, ok)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "application/json", gotHdr.Get("Content-Type"))
	assert.Equal(t, body, gotBody)

	_, _, _, ok = decodePayload(raw[:5]) // shorter than the fixed header
	assert.False(t, ok)
}
