package proto

import (
	"testing"

	"github.com/fxamacker/cbor/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestRoundTrip(t *testing.T) {
	frame, err := EncodeRequest(7, MethodSpawnPTY, SpawnPTYParams{Rows: 24, Cols: 80, Attach: true})
	require.NoError(t, err)

	msg, n, err := DecodeFrame(frame)
	require.NoError(t, err)
	assert.Equal(t, len(frame), n)
	require.NotNil(t, msg.Request)
	assert.Equal(t, uint32(7), msg.Request.ID)
	assert.Equal(t, MethodSpawnPTY, msg.Request.Method)

	var params SpawnPTYParams
	require.NoError(t, cbor.Unmarshal(msg.Request.Params, &params))
	assert.Equal(t, 24, params.Rows)
	assert.Equal(t, 80, params.Cols)
	assert.True(t, params.Attach)
}

func TestResponseRoundTripSuccess(t *testing.T) {
	frame, err := EncodeResponse(3, nil, SpawnPTYResult{PTYID: 1})
	require.NoError(t, err)

	msg, _, err := DecodeFrame(frame)
	require.NoError(t, err)
	require.NotNil(t, msg.Response)
	assert.Nil(t, msg.Response.Err)

	var result SpawnPTYResult
	require.NoError(t, cbor.Unmarshal(msg.Response.Result, &result))
	assert.Equal(t, 1, result.PTYID)
}

func TestResponseRoundTripError(t *testing.T) {
	frame, err := EncodeResponse(3, NewError(ErrKindUnknownPTY, "no such pty"), nil)
	require.NoError(t, err)

	msg, _, err := DecodeFrame(frame)
	require.NoError(t, err)
	require.NotNil(t, msg.Response.Err)
	assert.Equal(t, ErrKindUnknownPTY, msg.Response.Err.Kind)
}

func TestNotificationRoundTrip(t *testing.T) {
	frame, err := EncodeNotification(MethodPTYExited, PTYExitedParams{PTYID: 2, Status: 1})
	require.NoError(t, err)

	msg, _, err := DecodeFrame(frame)
	require.NoError(t, err)
	require.NotNil(t, msg.Notification)
	assert.Equal(t, MethodPTYExited, msg.Notification.Method)
}

// TestIncompleteFrameNeverCorrupts feeds the decoder every possible prefix
// of a valid frame and asserts each yields ErrIncomplete without consuming
// any bytes, then verifies that appending the rest still decodes correctly.
func TestIncompleteFrameNeverCorrupts(t *testing.T) {
	frame, err := EncodeRequest(1, MethodAttachPTY, AttachPTYParams{PTYID: 5})
	require.NoError(t, err)

	for i := 0; i < len(frame); i++ {
		msg, n, err := DecodeFrame(frame[:i])
		assert.Nil(t, msg)
		assert.Equal(t, 0, n)
		assert.ErrorIs(t, err, ErrIncomplete)
	}

	msg, n, err := DecodeFrame(frame)
	require.NoError(t, err)
	assert.Equal(t, len(frame), n)
	require.NotNil(t, msg.Request)
}

// TestConcatenatedFramesChunkSplits verifies the "framing round-trip"
// invariant from spec §8: concatenating several messages and feeding the
// decoder arbitrary chunk splits reconstructs the original sequence.
func TestConcatenatedFramesChunkSplits(t *testing.T) {
	var all []byte
	var want []string
	for i := 0; i < 5; i++ {
		f, err := EncodeNotification(MethodPTYExited, PTYExitedParams{PTYID: i, Status: 0})
		require.NoError(t, err)
		all = append(all, f...)
		want = append(want, MethodPTYExited)
	}

	// Try a few arbitrary split points by decoding incrementally from a
	// growing buffer fed a handful of bytes at a time.
	var got []string
	var buf []byte
	const chunk = 3
	for off := 0; off < len(all); off += chunk {
		end := off + chunk
		if end > len(all) {
			end = len(all)
		}
		buf = append(buf, all[off:end]...)
		for {
			msg, n, err := DecodeFrame(buf)
			if err == ErrIncomplete {
				break
			}
			require.NoError(t, err)
			got = append(got, msg.Notification.Method)
			buf = buf[n:]
		}
	}
	assert.Empty(t, buf, "no bytes should remain once every chunk is fed")
	assert.Equal(t, want, got)
}
