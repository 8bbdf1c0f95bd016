package rpcclient

import (
	"context"
	"fmt"

	"github.com/fxamacker/cbor/v2"

	"github.com/rockorager/prise/internal/proto"
)

func decodeResult(raw cbor.RawMessage, out any) error {
	if err := cbor.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("rpcclient: decode result: %w", err)
	}
	return nil
}

// SpawnPTY sends spawn_pty and returns the new PTY's ID.
func (c *Client) SpawnPTY(ctx context.Context, rows, cols int, cwd string, attach bool) (int, error) {
	var result proto.SpawnPTYResult
	err := c.Call(ctx, proto.MethodSpawnPTY, proto.SpawnPTYParams{Rows: rows, Cols: cols, CWD: cwd, Attach: attach}, &result)
	return result.PTYID, err
}

// AttachPTY sends attach_pty.
func (c *Client) AttachPTY(ctx context.Context, ptyID int) error {
	return c.Call(ctx, proto.MethodAttachPTY, proto.AttachPTYParams{PTYID: ptyID}, nil)
}

// DetachPTYs sends detach_ptys.
func (c *Client) DetachPTYs(ctx context.Context, ptyIDs []int) error {
	return c.Call(ctx, proto.MethodDetachPTYs, proto.DetachPTYsParams{PTYIDs: ptyIDs}, nil)
}

// ResizePTY sends resize_pty.
func (c *Client) ResizePTY(ctx context.Context, ptyID, rows, cols int) error {
	return c.Call(ctx, proto.MethodResizePTY, proto.ResizePTYParams{PTYID: ptyID, Rows: rows, Cols: cols}, nil)
}

// ClosePTY sends close_pty.
func (c *Client) ClosePTY(ctx context.Context, ptyID int) error {
	return c.Call(ctx, proto.MethodClosePTY, proto.ClosePTYParams{PTYID: ptyID}, nil)
}

// KeyInput sends key_input.
func (c *Client) KeyInput(ctx context.Context, ptyID int, key proto.KeyDescriptor) error {
	return c.Call(ctx, proto.MethodKeyInput, proto.KeyInputParams{PTYID: ptyID, Key: key}, nil)
}

// MouseInput sends mouse_input.
func (c *Client) MouseInput(ctx context.Context, ptyID int, mouse proto.MouseDescriptor) error {
	return c.Call(ctx, proto.MethodMouseInput, proto.MouseInputParams{PTYID: ptyID, Mouse: mouse}, nil)
}

// Paste sends paste.
func (c *Client) Paste(ctx context.Context, ptyID int, data []byte) error {
	return c.Call(ctx, proto.MethodPaste, proto.PasteParams{PTYID: ptyID, Bytes: data}, nil)
}
