package dialog

import (
	"github.com/rahul/agendabot/internal/agenda"
	"github.com/rahul/agendabot/internal/render"
)

// deleteFlow asks for confirmation before removing one item.
type deleteFlow struct {
	item agenda.Item
}

func startDelete(t *turn, id string) (flow, []Reply) {
	e := t.e
	it, ok, err := e.store.Get(t.ctx, id)
	if err != nil {
		return nil, e.storeFailed(t, "delete", "get", err)
	}
	if !ok {
		return nil, []Reply{textReply(e.msg.T("item.gone", e.format.Escape(id)))}
	}
	f := &deleteFlow{item: it}
	return f, []Reply{f.confirm(e, e.msg.T("delete.confirm", e.format.Item(it)))}
}

func (f *deleteFlow) confirm(e *Engine, text string) Reply {
	return Reply{
		Text: text,
		Buttons: render.Keyboard{render.Row(
			render.Button{Label: e.msg.T("delete.yes_button"), Token: tokenConfirmYes},
			render.Button{Label: e.msg.T("delete.no_button"), Token: tokenConfirmNo},
		)},
	}
}

func (f *deleteFlow) name() string  { return "delete" }
func (f *deleteFlow) state() string { return "confirm" }

func (f *deleteFlow) cancelText(e *Engine) string { return e.msg.T("delete.cancelled") }

func (f *deleteFlow) step(t *turn) ([]Reply, bool) {
	e := t.e
	if t.ev.Kind == KindSelect {
		switch t.ev.Value {
		case tokenConfirmNo:
			return []Reply{textReply(e.msg.T("delete.cancelled"))}, true
		case tokenConfirmYes:
			id := e.format.Escape(f.item.ID)
			ok, err := e.store.Delete(t.ctx, f.item.ID)
			if err != nil {
				return e.storeFailed(t, f.name(), "delete", err), true
			}
			if !ok {
				return []Reply{textReply(e.msg.T("delete.failed", id))}, true
			}
			e.logger.LogCommit(t.chatID, f.name(), "delete", f.item.ID)
			e.mirrorRemove(t, f.item)
			return []Reply{textReply(e.msg.T("delete.done", id))}, true
		}
	}
	return []Reply{f.confirm(e, e.msg.T("common.invalid_choice")+"\n\n"+e.msg.T("delete.confirm", e.format.Item(f.item)))}, false
}
