package segment

import (
	"encoding/binary"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommandSingleSegment(t *testing.T) {
	bodies, err := Command([]string{"status"}, true)
	require.NoError(t, err)
	require.Len(t, bodies, 1)

	body := bodies[0]
	assert.Equal(t, byte(1), body[0], "keepalive flag")
	assert.Equal(t, byte(Single), body[1])
	argc := binary.BigEndian.Uint32(body[2:6])
	assert.Equal(t, uint32(1), argc)

	arglen := binary.BigEndian.Uint32(body[6:10])
	assert.Equal(t, uint32(len("status")), arglen)
	assert.Equal(t, "status", string(body[10:10+arglen]))
}

func TestCommandNoKeepalive(t *testing.T) {
	bodies, err := Command([]string{"status"}, false)
	require.NoError(t, err)
	assert.Equal(t, byte(0), bodies[0][0])
}

func TestCommandRejectsEmptyArgs(t *testing.T) {
	_, err := Command(nil, true)
	assert.Error(t, err)
}

func TestCommandSplitsOversizedArguments(t *testing.T) {
	big := strings.Repeat("x", MessageSizeLimit)
	bodies, err := Command([]string{"cmd", big, "trailer"}, true)
	require.NoError(t, err)
	require.Greater(t, len(bodies), 1)

	assert.Equal(t, byte(First), bodies[0][1])
	for _, middle := range bodies[1 : len(bodies)-1] {
		assert.Equal(t, byte(Middle), middle[1])
	}
	assert.Equal(t, byte(Last), bodies[len(bodies)-1][1])

	argc := binary.BigEndian.Uint32(bodies[0][2:6])
	assert.Equal(t, uint32(3), argc)

	for _, body := range bodies[1:] {
		require.GreaterOrEqual(t, len(body), 2)
	}
}

func TestCommandSingleOversizedArgumentProducesTwoSegments(t *testing.T) {
	big := strings.Repeat("z", 70000)
	bodies, err := Command([]string{big}, true)
	require.NoError(t, err)
	require.Len(t, bodies, 2)

	assert.Equal(t, byte(First), bodies[0][1])
	argc := binary.BigEndian.Uint32(bodies[0][2:6])
	assert.Equal(t, uint32(1), argc)

	assert.Equal(t, byte(Last), bodies[1][1])
}

func TestCommandArgcOnlyOnFirstSegment(t *testing.T) {
	big := strings.Repeat("y", MessageSizeLimit+1)
	bodies, err := Command([]string{big}, true)
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(bodies), 2)

	require.GreaterOrEqual(t, len(bodies[0]), 6)
	argc := binary.BigEndian.Uint32(bodies[0][2:6])
	assert.Equal(t, uint32(1), argc)

	for _, body := range bodies[1:] {
		require.GreaterOrEqual(t, len(body), 2)
	}
	assert.Equal(t, byte(Last), bodies[len(bodies)-1][1])
}
