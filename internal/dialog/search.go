package dialog

import (
	"strings"

	"github.com/rahul/agendabot/internal/render"
)

// searchFlow asks for a keyword and lists the matches like the view does.
type searchFlow struct{}

func startSearch(t *turn) (flow, []Reply) {
	f := &searchFlow{}
	if q := strings.TrimSpace(t.ev.Args); q != "" {
		return nil, f.run(t, q)
	}
	return f, []Reply{f.prompt(t.e, "search.prompt")}
}

func (f *searchFlow) prompt(e *Engine, key string) Reply {
	return Reply{Text: e.msg.T(key), Buttons: render.Keyboard{e.cancelRow()}}
}

func (f *searchFlow) name() string  { return "search" }
func (f *searchFlow) state() string { return "await_query" }

func (f *searchFlow) cancelText(e *Engine) string { return e.msg.T("common.cancelled") }

func (f *searchFlow) step(t *turn) ([]Reply, bool) {
	if t.ev.Kind != KindText {
		return []Reply{f.prompt(t.e, "search.prompt")}, false
	}
	q := strings.TrimSpace(t.ev.Value)
	if q == "" {
		return []Reply{f.prompt(t.e, "search.empty_query")}, false
	}
	return f.run(t, q), true
}

func (f *searchFlow) run(t *turn, q string) []Reply {
	e := t.e
	items, err := e.store.Search(t.ctx, q)
	if err != nil {
		return e.storeFailed(t, f.name(), "search", err)
	}
	if len(items) == 0 {
		return []Reply{textReply(e.msg.T("search.none", e.format.Escape(q)))}
	}
	return []Reply{e.itemList(e.msg.T("search.header", e.format.Escape(q)), items)}
}
