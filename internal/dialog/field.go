package dialog

import (
	"strings"
	"time"

	"github.com/rahul/agendabot/internal/agenda"
	"github.com/rahul/agendabot/internal/parse"
	"github.com/rahul/agendabot/internal/render"
)

// draft is the item being assembled (create) or revised (edit). Date and
// hour are kept apart so either half can change without touching the other.
type draft struct {
	item agenda.Item
	date agenda.Date
	hour agenda.TimeOfDay
}

func draftOf(it agenda.Item, loc *time.Location) draft {
	at := it.OccursAt.In(loc)
	return draft{item: it, date: agenda.DateOf(at), hour: agenda.ClockOf(at)}
}

// compose writes the date and hour halves back into the item.
func (d *draft) compose(loc *time.Location) {
	d.item.OccursAt = agenda.Combine(d.date, d.hour, loc)
}

type fieldPhase int

const (
	phaseChoose fieldPhase = iota // preset buttons shown
	phaseCustom                   // waiting for free text
)

// fieldInput is the position inside the shared per-field sub-flow.
type fieldInput struct {
	field agenda.Field
	phase fieldPhase
}

func (in fieldInput) String() string {
	if in.phase == phaseCustom {
		return "custom_" + in.field.Token()
	}
	return "choose_" + in.field.Token()
}

// fieldSpec parametrises the sub-flow for one field: the preset buttons, the
// free-text switch, and the projections of a selection or a text into the
// draft. A projection returns the value to echo back and whether it was
// accepted.
type fieldSpec struct {
	options func(e *Engine) []render.Button
	perRow  int
	custom  string
	token   func(t *turn, d *draft, tok string) (string, bool)
	text    func(t *turn, d *draft, s string) (string, bool)
}

func catalogButtons(c agenda.Catalog) func(*Engine) []render.Button {
	return func(*Engine) []render.Button {
		out := make([]render.Button, len(c.Options))
		for i, o := range c.Options {
			out[i] = render.Button{Label: o.Label, Token: o.Token}
		}
		return out
	}
}

func specFor(f agenda.Field) fieldSpec {
	switch f {
	case agenda.FieldCategory:
		return fieldSpec{
			options: catalogButtons(agenda.Categories),
			perRow:  2,
			custom:  agenda.Categories.CustomToken(),
			token: func(_ *turn, d *draft, tok string) (string, bool) {
				if _, ok := agenda.Categories.Lookup(tok); !ok {
					return "", false
				}
				v, _ := agenda.Categories.Value(tok)
				d.item.Category = agenda.Capitalize(v)
				return d.item.Category, true
			},
			text: func(_ *turn, d *draft, s string) (string, bool) {
				s = strings.TrimSpace(s)
				if s == "" {
					return "", false
				}
				d.item.Category = s
				return s, true
			},
		}
	case agenda.FieldDate:
		return fieldSpec{
			options: func(e *Engine) []render.Button {
				return []render.Button{
					{Label: e.msg.T("date.today_button"), Token: tokenDateToday},
					{Label: e.msg.T("date.tomorrow_button"), Token: tokenDateTomorrow},
				}
			},
			perRow: 2,
			custom: tokenDateCustom,
			token: func(t *turn, d *draft, tok string) (string, bool) {
				switch tok {
				case tokenDateToday:
					d.date = t.e.today()
				case tokenDateTomorrow:
					d.date = t.e.today().AddDays(1)
				default:
					return "", false
				}
				return t.e.format.Date(d.date), true
			},
			text: func(t *turn, d *draft, s string) (string, bool) {
				day, ok := t.e.dates.Parse(t.ctx, s, t.e.today())
				if !ok {
					return "", false
				}
				d.date = day
				return t.e.format.Date(day), true
			},
		}
	case agenda.FieldHour:
		return fieldSpec{
			options: catalogButtons(agenda.Hours),
			perRow:  3,
			custom:  agenda.Hours.CustomToken(),
			token: func(_ *turn, d *draft, tok string) (string, bool) {
				v, ok := agenda.Hours.Value(tok)
				if !ok {
					return "", false
				}
				tm, ok := parse.ParseTime(v)
				if !ok {
					return "", false
				}
				d.hour = tm
				return tm.String(), true
			},
			text: func(_ *turn, d *draft, s string) (string, bool) {
				tm, ok := parse.ParseTime(s)
				if !ok {
					return "", false
				}
				d.hour = tm
				return tm.String(), true
			},
		}
	case agenda.FieldPriority:
		return fieldSpec{
			options: catalogButtons(agenda.Priorities),
			perRow:  1,
			token: func(_ *turn, d *draft, tok string) (string, bool) {
				if _, ok := agenda.Priorities.Lookup(tok); !ok {
					return "", false
				}
				v, _ := agenda.Priorities.Value(tok)
				d.item.Priority = agenda.Capitalize(v)
				return d.item.Priority, true
			},
		}
	case agenda.FieldDescription:
		return fieldSpec{
			text: func(_ *turn, d *draft, s string) (string, bool) {
				clean := parse.CleanDescription(s)
				if clean == "" {
					return "", false
				}
				d.item.Description = clean
				return clean, true
			},
		}
	case agenda.FieldTag:
		return fieldSpec{
			text: func(_ *turn, d *draft, s string) (string, bool) {
				d.item.Tag = agenda.NormalizeTag(s)
				return d.item.Tag, true
			},
		}
	case agenda.FieldStatus:
		return fieldSpec{
			options: catalogButtons(agenda.Statuses),
			perRow:  1,
			token: func(_ *turn, d *draft, tok string) (string, bool) {
				v, ok := agenda.Statuses.Value(tok)
				if !ok {
					return "", false
				}
				st, ok := agenda.ParseStatus(v)
				if !ok {
					return "", false
				}
				d.item.Status = st
				return string(st), true
			},
		}
	}
	return fieldSpec{}
}

// beginField positions a sub-flow at its first state. Text-only fields start
// directly in the free-text phase.
func beginField(f agenda.Field) fieldInput {
	if specFor(f).options == nil {
		return fieldInput{field: f, phase: phaseCustom}
	}
	return fieldInput{field: f, phase: phaseChoose}
}

func (e *Engine) fieldLabel(f agenda.Field) string {
	return e.msg.T("field." + f.Token() + ".label")
}

// fieldPrompt renders the prompt of the current sub-flow state.
func (e *Engine) fieldPrompt(in fieldInput) Reply {
	spec := specFor(in.field)
	key := "field." + in.field.Token()

	if in.phase == phaseCustom {
		text := e.msg.T(key + ".custom")
		if spec.options == nil {
			text = e.msg.T(key + ".prompt")
		}
		return Reply{Text: text, Buttons: render.Keyboard{e.cancelRow()}}
	}

	var kb render.Keyboard
	opts := spec.options(e)
	per := spec.perRow
	if per <= 0 {
		per = 1
	}
	for i := 0; i < len(opts); i += per {
		end := i + per
		if end > len(opts) {
			end = len(opts)
		}
		kb = append(kb, opts[i:end])
	}
	if spec.custom != "" {
		kb = append(kb, render.Row(render.Button{Label: e.msg.T("common.custom_button"), Token: spec.custom}))
	}
	kb = append(kb, e.cancelRow())
	return Reply{Text: e.msg.T(key + ".prompt"), Buttons: kb}
}

// reprompt prefixes notice to the prompt of the current state.
func (e *Engine) reprompt(in fieldInput, notice string) Reply {
	r := e.fieldPrompt(in)
	r.Text = notice + "\n\n" + r.Text
	return r
}

// feedField advances the sub-flow by the turn's event. When ok is true the
// value has been written into d and shown is its display form; otherwise
// reply must be sent and the sub-flow stays where in points.
func (e *Engine) feedField(t *turn, in *fieldInput, d *draft) (reply Reply, shown string, ok bool) {
	spec := specFor(in.field)
	ev := t.ev

	switch in.phase {
	case phaseChoose:
		if ev.Kind != KindSelect {
			return e.reprompt(*in, e.msg.T("common.invalid_choice")), "", false
		}
		if spec.custom != "" && ev.Value == spec.custom {
			in.phase = phaseCustom
			return e.fieldPrompt(*in), "", false
		}
		if v, accepted := spec.token(t, d, ev.Value); accepted {
			return Reply{}, v, true
		}
		return e.reprompt(*in, e.msg.T("common.invalid_choice")), "", false

	default:
		if ev.Kind != KindText {
			return e.reprompt(*in, e.msg.T("common.invalid_choice")), "", false
		}
		if v, accepted := spec.text(t, d, ev.Value); accepted {
			return Reply{}, v, true
		}
		r := e.fieldPrompt(*in)
		r.Text = e.msg.T("field." + in.field.Token() + ".invalid")
		return r, "", false
	}
}
