package dialog

import (
	"strings"

	"github.com/rahul/agendabot/internal/agenda"
	"github.com/rahul/agendabot/internal/render"
)

type editState int

const (
	editAwaitID editState = iota
	editMenu
	editField
)

// editFlow revises a snapshot of one item in any order, any number of
// times, and writes it back only on Done.
type editFlow struct {
	st editState
	d  draft
	in fieldInput
}

// startEditCommand handles "/edit" and "/edit <id>".
func startEditCommand(t *turn) (flow, []Reply) {
	f := &editFlow{st: editAwaitID}
	if id := strings.TrimSpace(t.ev.Args); id != "" {
		replies, done := f.lookup(t, id)
		if done {
			return nil, replies
		}
		return f, replies
	}
	return f, []Reply{{Text: t.e.msg.T("edit.id_prompt"), Buttons: render.Keyboard{t.e.cancelRow()}}}
}

// startEditByToken handles the Edit button of a listed item. The id cannot
// be retyped, so a missing item ends the workflow.
func startEditByToken(t *turn, id string) (flow, []Reply) {
	e := t.e
	it, ok, err := e.store.Get(t.ctx, id)
	if err != nil {
		return nil, e.storeFailed(t, "edit", "get", err)
	}
	if !ok {
		return nil, []Reply{textReply(e.msg.T("item.gone", e.format.Escape(id)))}
	}
	f := &editFlow{st: editMenu, d: draftOf(it, e.loc)}
	return f, []Reply{f.menu(e, e.msg.T("edit.menu", e.format.Item(it)))}
}

func (f *editFlow) name() string { return "edit" }

func (f *editFlow) state() string {
	switch f.st {
	case editAwaitID:
		return "await_id"
	case editMenu:
		return "menu"
	}
	return f.in.String()
}

func (f *editFlow) cancelText(e *Engine) string { return e.msg.T("edit.cancelled") }

func (f *editFlow) lookup(t *turn, id string) ([]Reply, bool) {
	e := t.e
	id = strings.TrimSpace(id)
	it, ok, err := e.store.Get(t.ctx, id)
	if err != nil {
		return e.storeFailed(t, f.name(), "get", err), true
	}
	if !ok {
		return []Reply{{Text: e.msg.T("edit.not_found", e.format.Escape(id)), Buttons: render.Keyboard{e.cancelRow()}}}, false
	}
	f.st = editMenu
	f.d = draftOf(it, e.loc)
	return []Reply{f.menu(e, e.msg.T("edit.menu", e.format.Item(it)))}, false
}

// menu renders text with the field selector keyboard.
func (f *editFlow) menu(e *Engine, text string) Reply {
	var kb render.Keyboard
	var row []render.Button
	for _, fld := range agenda.EditableFields() {
		row = append(row, render.Button{
			Label: e.msg.T("field." + fld.Token() + ".button"),
			Token: editFieldPrefix + fld.Token(),
		})
		if len(row) == 2 {
			kb = append(kb, row)
			row = nil
		}
	}
	if len(row) > 0 {
		kb = append(kb, row)
	}
	kb = append(kb, render.Row(
		render.Button{Label: e.msg.T("edit.done_button"), Token: tokenEditDone},
		render.Button{Label: e.msg.T("edit.cancel_button"), Token: tokenCancelEdit},
	))
	return Reply{Text: text, Buttons: kb}
}

func (f *editFlow) step(t *turn) ([]Reply, bool) {
	e := t.e
	ev := t.ev

	switch f.st {
	case editAwaitID:
		if ev.Kind != KindText {
			return []Reply{{Text: e.msg.T("edit.id_prompt"), Buttons: render.Keyboard{e.cancelRow()}}}, false
		}
		return f.lookup(t, ev.Value)

	case editMenu:
		if ev.Kind == KindSelect && ev.Value == tokenEditDone {
			return f.commit(t), true
		}
		if ev.Kind == KindSelect && strings.HasPrefix(ev.Value, editFieldPrefix) {
			if fld, ok := agenda.FieldFromToken(strings.TrimPrefix(ev.Value, editFieldPrefix)); ok {
				f.st = editField
				f.in = beginField(fld)
				return []Reply{e.fieldPrompt(f.in)}, false
			}
		}
		return []Reply{f.menu(e, e.msg.T("common.invalid_choice")+"\n\n"+e.msg.T("edit.menu_again"))}, false
	}

	reply, shown, ok := e.feedField(t, &f.in, &f.d)
	if !ok {
		return []Reply{reply}, false
	}
	if f.in.field.Temporal() {
		f.d.compose(e.loc)
	}
	f.st = editMenu
	text := e.msg.T("edit.updated", e.fieldLabel(f.in.field), e.format.Escape(shown)) +
		"\n\n" + e.msg.T("edit.menu_again")
	return []Reply{f.menu(e, text)}, false
}

// cancelSubFlow backs out of a field sub-flow to the menu, keeping the draft.
func (f *editFlow) cancelSubFlow(t *turn) (Reply, bool) {
	if f.st != editField {
		return Reply{}, false
	}
	e := t.e
	f.st = editMenu
	text := e.msg.T("edit.field_cancelled", e.fieldLabel(f.in.field)) + "\n\n" + e.msg.T("edit.menu_again")
	return f.menu(e, text), true
}

func (f *editFlow) commit(t *turn) []Reply {
	e := t.e
	if f.d.item.ID == "" {
		return e.sessionBroken(t, f.name(), "commit without target id")
	}
	e.externalID(&f.d.item)

	ok, err := e.store.UpdateItem(t.ctx, f.d.item)
	if err != nil {
		return e.storeFailed(t, f.name(), "update", err)
	}
	if !ok {
		return []Reply{textReply(e.msg.T("edit.save_failed", e.format.Escape(f.d.item.ID)))}
	}
	e.logger.LogCommit(t.chatID, f.name(), "update", f.d.item.ID)
	e.mirrorUpsert(t, f.d.item)

	return []Reply{textReply(e.msg.T("edit.saved", e.format.Item(f.d.item)))}
}
