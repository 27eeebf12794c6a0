package dialog

import (
	"github.com/rahul/agendabot/internal/agenda"
	"github.com/rahul/agendabot/internal/render"
)

type viewState int

const (
	viewChoose viewState = iota
	viewCustomDate
)

func (s viewState) String() string {
	if s == viewCustomDate {
		return "custom_date"
	}
	return "choose_range"
}

// viewFlow lists the items of a date range and ends. The Edit and Delete
// buttons it attaches start new workflows.
type viewFlow struct {
	st viewState
}

func startView(t *turn) (flow, []Reply) {
	return &viewFlow{st: viewChoose}, []Reply{viewMenu(t.e, "")}
}

func viewMenu(e *Engine, notice string) Reply {
	text := e.msg.T("view.prompt")
	if notice != "" {
		text = notice + "\n\n" + text
	}
	return Reply{
		Text: text,
		Buttons: render.Keyboard{
			render.Row(
				render.Button{Label: e.msg.T("view.today_button"), Token: tokenViewToday},
				render.Button{Label: e.msg.T("view.tomorrow_button"), Token: tokenViewTomorrow},
			),
			render.Row(render.Button{Label: e.msg.T("view.week_button"), Token: tokenViewWeek}),
			render.Row(render.Button{Label: e.msg.T("view.custom_button"), Token: tokenViewCustom}),
			e.cancelRow(),
		},
	}
}

func (f *viewFlow) name() string  { return "view" }
func (f *viewFlow) state() string { return f.st.String() }

func (f *viewFlow) cancelText(e *Engine) string { return e.msg.T("common.cancelled") }

func (f *viewFlow) step(t *turn) ([]Reply, bool) {
	e := t.e
	today := e.today()

	switch f.st {
	case viewChoose:
		if t.ev.Kind != KindSelect {
			return []Reply{viewMenu(e, e.msg.T("common.invalid_choice"))}, false
		}
		switch t.ev.Value {
		case tokenViewToday:
			return f.show(t, today, today), true
		case tokenViewTomorrow:
			return f.show(t, today.AddDays(1), today.AddDays(1)), true
		case tokenViewWeek:
			return f.show(t, today, today.AddDays(viewWeekDays)), true
		case tokenViewCustom:
			f.st = viewCustomDate
			return []Reply{{Text: e.msg.T("view.custom_prompt"), Buttons: render.Keyboard{e.cancelRow()}}}, false
		}
		return []Reply{viewMenu(e, e.msg.T("common.invalid_choice"))}, false

	default:
		if t.ev.Kind != KindText {
			return []Reply{{Text: e.msg.T("view.custom_prompt"), Buttons: render.Keyboard{e.cancelRow()}}}, false
		}
		day, ok := e.dates.Parse(t.ctx, t.ev.Value, today)
		if !ok {
			return []Reply{{Text: e.msg.T("field.tanggal.invalid"), Buttons: render.Keyboard{e.cancelRow()}}}, false
		}
		return f.show(t, day, day), true
	}
}

func (f *viewFlow) show(t *turn, start, end agenda.Date) []Reply {
	e := t.e
	items, err := e.store.Range(t.ctx, start, end)
	if err != nil {
		return e.storeFailed(t, f.name(), "range", err)
	}
	if len(items) == 0 {
		return []Reply{textReply(e.msg.T("view.empty"))}
	}
	return []Reply{e.itemList(e.format.RangeHeader(start, end), items)}
}
