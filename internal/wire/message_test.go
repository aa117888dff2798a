package wire

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeMessageVersionByte(t *testing.T) {
	for _, msgType := range []uint8{MsgCommand, MsgQuit, MsgOutput, MsgStatus, MsgError, MsgVersion} {
		out := EncodeMessage(msgType, nil)
		assert.Equal(t, uint8(2), out[0], "msgType %d should carry version 2", msgType)
	}

	out := EncodeMessage(MsgNoop, nil)
	assert.Equal(t, uint8(3), out[0], "NOOP should carry version 3")
}

func TestEncodeDecodeMessageRoundTrip(t *testing.T) {
	body := []byte("payload bytes")
	encoded := EncodeMessage(MsgCommand, body)

	m, err := DecodeMessage(encoded)
	require.NoError(t, err)
	assert.Equal(t, uint8(2), m.Version)
	assert.Equal(t, MsgCommand, m.Type)
	assert.Equal(t, body, m.Body)
}

func TestDecodeMessageTooShort(t *testing.T) {
	_, err := DecodeMessage([]byte{2})
	require.Error(t, err)
	var protoErr *ProtocolError
	assert.ErrorAs(t, err, &protoErr)
}

func TestDecodeMessageRejectsOldVersion(t *testing.T) {
	_, err := DecodeMessage([]byte{1, MsgCommand})
	require.Error(t, err)
}

func TestDecodeMessageAcceptsVersion3(t *testing.T) {
	m, err := DecodeMessage([]byte{3, MsgNoop})
	require.NoError(t, err)
	assert.Equal(t, uint8(3), m.Version)
}

func TestDecodeOutputRoundTrip(t *testing.T) {
	body := []byte{StreamStdout, 0, 0, 0, 5, 'h', 'e', 'l', 'l', 'o'}
	out, err := DecodeOutput(body)
	require.NoError(t, err)
	assert.Equal(t, uint8(StreamStdout), out.Stream)
	assert.Equal(t, []byte("hello"), out.Chunk)
}

func TestDecodeOutputZeroLengthChunkIsDelivered(t *testing.T) {
	body := []byte{StreamStderr, 0, 0, 0, 0}
	out, err := DecodeOutput(body)
	require.NoError(t, err)
	assert.Equal(t, uint8(StreamStderr), out.Stream)
	assert.NotNil(t, out.Chunk)
	assert.Len(t, out.Chunk, 0)
}

func TestDecodeOutputLengthMismatch(t *testing.T) {
	body := []byte{StreamStdout, 0, 0, 0, 10, 'h', 'i'}
	_, err := DecodeOutput(body)
	require.Error(t, err)
}

func TestDecodeOutputTooShort(t *testing.T) {
	_, err := DecodeOutput([]byte{StreamStdout, 0, 0})
	require.Error(t, err)
}

func TestDecodeStatus(t *testing.T) {
	status, err := DecodeStatus([]byte{42})
	require.NoError(t, err)
	assert.Equal(t, uint8(42), status)

	_, err = DecodeStatus([]byte{1, 2})
	assert.Error(t, err)

	_, err = DecodeStatus(nil)
	assert.Error(t, err)
}

func TestDecodeErrorRoundTrip(t *testing.T) {
	body := []byte{0, 0, 0, 7, 0, 0, 0, 11, 'n', 'o', ' ', 's', 'u', 'c', 'h', ' ', 'c', 'm', 'd'}
	remoteErr, err := DecodeError(body)
	require.NoError(t, err)
	assert.Equal(t, uint32(7), remoteErr.Code)
	assert.Equal(t, []byte("no such cmd"), remoteErr.Message)
}

func TestDecodeErrorLengthMismatch(t *testing.T) {
	body := []byte{0, 0, 0, 1, 0, 0, 0, 99, 'x'}
	_, err := DecodeError(body)
	assert.Error(t, err)
}

func TestDecodeErrorTooShort(t *testing.T) {
	_, err := DecodeError([]byte{0, 0, 0, 1})
	assert.Error(t, err)
}
