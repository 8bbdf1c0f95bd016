package input

import (
	"context"

	"github.com/rockorager/prise/internal/proto"
	"github.com/rockorager/prise/internal/uihost"
)

// HandleKey implements §4.7's keyboard path: the event always reaches the
// UI's update(event) first (so UI-accelerator keys can trigger Effects
// side calls and redraw the tree), and is additionally forwarded to the
// focused PTY as key_input unless the script declared it reserved via
// ReservedKeys (see uihost.Host.ReservedKeys's doc comment for why that
// table, rather than anything update()'s return value carries, is the
// accelerator/pass-through signal).
func (r *Router) HandleKey(ctx context.Context, ev uihost.KeyEvent) error {
	tree, err := r.host.Update(uihost.Event{Kind: uihost.EventKey, Key: &ev})
	if err != nil {
		return err
	}
	if tree != nil {
		r.tree = tree
		r.apply.Apply(tree)
	}
	r.refreshReserved()

	if r.reserved[ev.Key] {
		return nil
	}
	if r.focusedPTY == 0 {
		return nil
	}
	desc := proto.KeyDescriptor{
		Key: ev.Key, Code: ev.Code,
		Shift: ev.Shift, Ctrl: ev.Ctrl, Alt: ev.Alt, Meta: ev.Meta,
	}
	return r.client.KeyInput(ctx, r.focusedPTY, desc)
}
