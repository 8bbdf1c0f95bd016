package main

import (
	"testing"

	"github.com/micro-editor/tcell/v2"
	"github.com/stretchr/testify/assert"
)

func TestDecodeKeyPlainRune(t *testing.T) {
	ev := tcell.NewEventKey(tcell.KeyRune, 'a', tcell.ModNone)
	k := decodeKey(ev)
	assert.Equal(t, "a", k.Key)
	assert.False(t, k.Ctrl)
}

func TestDecodeKeyCtrlCombo(t *testing.T) {
	ev := tcell.NewEventKey(tcell.KeyRune, 'd', tcell.ModCtrl)
	k := decodeKey(ev)
	assert.Equal(t, "ctrl+d", k.Key)
	assert.True(t, k.Ctrl)
}

func TestDecodeKeyNamedKey(t *testing.T) {
	ev := tcell.NewEventKey(tcell.KeyEnter, 0, tcell.ModNone)
	k := decodeKey(ev)
	assert.Equal(t, "Enter", k.Key)
}

func TestDecodeMouseDownThenMove(t *testing.T) {
	down := tcell.NewEventMouse(2, 1, tcell.Button1, tcell.ModNone)
	raw := decodeMouse(down, tcell.ButtonNone)
	assert.Equal(t, "down", raw.EventType)
	assert.Equal(t, 1, raw.Button)
	assert.Equal(t, float64(2*cellPxW), raw.PixelX)

	move := tcell.NewEventMouse(3, 1, tcell.Button1, tcell.ModNone)
	raw = decodeMouse(move, tcell.Button1)
	assert.Equal(t, "move", raw.EventType)

	up := tcell.NewEventMouse(3, 1, tcell.ButtonNone, tcell.ModNone)
	raw = decodeMouse(up, tcell.Button1)
	assert.Equal(t, "up", raw.EventType)
}
