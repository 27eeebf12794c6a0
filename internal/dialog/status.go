package dialog

import (
	"strings"

	"github.com/rahul/agendabot/internal/agenda"
	"github.com/rahul/agendabot/internal/render"
)

type statusState int

const (
	statusAwaitID statusState = iota
	statusChoose
)

// statusFlow changes only the status of one item.
type statusFlow struct {
	st statusState
	d  draft
	in fieldInput
}

func startStatus(t *turn) (flow, []Reply) {
	f := &statusFlow{st: statusAwaitID}
	if id := strings.TrimSpace(t.ev.Args); id != "" {
		replies, done := f.lookup(t, id)
		if done {
			return nil, replies
		}
		return f, replies
	}
	return f, []Reply{{Text: t.e.msg.T("status.id_prompt"), Buttons: render.Keyboard{t.e.cancelRow()}}}
}

func (f *statusFlow) name() string { return "status" }

func (f *statusFlow) state() string {
	if f.st == statusChoose {
		return "choose_status"
	}
	return "await_id"
}

func (f *statusFlow) cancelText(e *Engine) string { return e.msg.T("common.cancelled") }

func (f *statusFlow) lookup(t *turn, id string) ([]Reply, bool) {
	e := t.e
	id = strings.TrimSpace(id)
	it, ok, err := e.store.Get(t.ctx, id)
	if err != nil {
		return e.storeFailed(t, f.name(), "get", err), true
	}
	if !ok {
		return []Reply{{Text: e.msg.T("status.not_found", e.format.Escape(id)), Buttons: render.Keyboard{e.cancelRow()}}}, false
	}
	f.st = statusChoose
	f.d = draftOf(it, e.loc)
	f.in = beginField(agenda.FieldStatus)
	return []Reply{f.prompt(e, "")}, false
}

func (f *statusFlow) prompt(e *Engine, notice string) Reply {
	r := e.fieldPrompt(f.in)
	r.Text = e.msg.T("status.current", e.format.Escape(f.d.item.Description), f.d.item.Status)
	if notice != "" {
		r.Text = notice + "\n\n" + r.Text
	}
	return r
}

func (f *statusFlow) step(t *turn) ([]Reply, bool) {
	e := t.e
	if f.st == statusAwaitID {
		if t.ev.Kind != KindText {
			return []Reply{{Text: e.msg.T("status.id_prompt"), Buttons: render.Keyboard{e.cancelRow()}}}, false
		}
		return f.lookup(t, t.ev.Value)
	}

	if _, _, ok := e.feedField(t, &f.in, &f.d); !ok {
		return []Reply{f.prompt(e, e.msg.T("common.invalid_choice"))}, false
	}

	ok, err := e.store.UpdateField(t.ctx, f.d.item.ID, agenda.StatusUpdate(f.d.item.Status))
	if err != nil {
		return e.storeFailed(t, f.name(), "update_field", err), true
	}
	if !ok {
		return []Reply{textReply(e.msg.T("status.failed"))}, true
	}
	e.logger.LogCommit(t.chatID, f.name(), "status", f.d.item.ID)
	e.mirrorUpsert(t, f.d.item)
	return []Reply{textReply(e.msg.T("status.done", e.format.Escape(f.d.item.ID), f.d.item.Status))}, true
}
