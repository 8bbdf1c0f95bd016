package input

import "github.com/rockorager/prise/internal/uihost"

// HandleTick delivers a timer-fired or general tick event to the UI's
// update(event), applying whatever tree it returns. Wired as the
// ClientEffects.OnTimeout callback so a script's SetTimeout eventually
// reaches update() as an EventTick (§9's Effects.SetTimeout doc comment).
func (r *Router) HandleTick(timerID int) error {
	tree, err := r.host.Update(uihost.Event{Kind: uihost.EventTick, TimerID: timerID})
	if err != nil {
		return err
	}
	if tree != nil {
		r.tree = tree
		r.apply.Apply(tree)
	}
	return nil
}
