package dialog

import "github.com/rahul/agendabot/internal/agenda"

type createState int

const (
	createCategory createState = iota
	createDate
	createHour
	createPriority
	createDescription
)

var createFields = [...]agenda.Field{
	createCategory:    agenda.FieldCategory,
	createDate:        agenda.FieldDate,
	createHour:        agenda.FieldHour,
	createPriority:    agenda.FieldPriority,
	createDescription: agenda.FieldDescription,
}

// createFlow collects one new item field by field and commits it after the
// description.
type createFlow struct {
	st createState
	in fieldInput
	d  draft
}

func startCreate(t *turn) (flow, []Reply) {
	f := &createFlow{st: createCategory, in: beginField(createFields[createCategory])}
	return f, []Reply{t.e.fieldPrompt(f.in)}
}

func (f *createFlow) name() string  { return "create" }
func (f *createFlow) state() string { return f.in.String() }

func (f *createFlow) cancelText(e *Engine) string { return e.msg.T("common.cancelled") }

func (f *createFlow) step(t *turn) ([]Reply, bool) {
	e := t.e
	reply, shown, ok := e.feedField(t, &f.in, &f.d)
	if !ok {
		return []Reply{reply}, false
	}
	if f.st == createDescription {
		return f.commit(t), true
	}

	done := f.in.field
	f.st++
	f.in = beginField(createFields[f.st])

	next := e.fieldPrompt(f.in)
	if f.st == createDescription {
		next.Text = e.msg.T("create.description_prompt")
	}
	next.Text = e.msg.T("common.field_set", e.fieldLabel(done), e.format.Escape(shown)) + "\n\n" + next.Text
	return []Reply{next}, false
}

func (f *createFlow) commit(t *turn) []Reply {
	e := t.e
	it := agenda.New(
		e.now().In(e.loc),
		agenda.Combine(f.d.date, f.d.hour, e.loc),
		f.d.item.Category,
		f.d.item.Priority,
		f.d.item.Description,
	)
	e.externalID(&it)

	if _, err := e.store.Put(t.ctx, it); err != nil {
		return e.storeFailed(t, f.name(), "put", err)
	}
	e.logger.LogCommit(t.chatID, f.name(), "create", it.ID)
	e.mirrorUpsert(t, it)

	return []Reply{textReply(e.msg.T("create.saved", e.format.Item(it)))}
}
