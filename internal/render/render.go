// Package render turns agenda items into the HTML-subset text blocks and
// button rows the chat transports display.
package render

import (
	"fmt"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"

	"github.com/rahul/agendabot/internal/agenda"
	"github.com/rahul/agendabot/internal/i18n"
)

// Divider separates item blocks in a list.
const Divider = "---"

const (
	labelLimit = 20
	labelKeep  = 17
)

// Button is one selectable option. Token is returned to the engine as a
// Select event when the user picks it.
type Button struct {
	Label string
	Token string
}

// Keyboard is a grid of buttons, one slice per row.
type Keyboard [][]Button

// Row builds a single-row keyboard fragment.
func Row(buttons ...Button) []Button { return buttons }

// Formatter renders items relative to "today" in a fixed time zone.
type Formatter struct {
	loc    *time.Location
	msg    *i18n.Catalog
	now    func() time.Time
	policy *bluemonday.Policy
}

// NewFormatter returns a Formatter. now defaults to time.Now.
func NewFormatter(loc *time.Location, msg *i18n.Catalog, now func() time.Time) *Formatter {
	if now == nil {
		now = time.Now
	}
	if loc == nil {
		loc = time.Local
	}
	return &Formatter{loc: loc, msg: msg, now: now, policy: bluemonday.StrictPolicy()}
}

// Today is the current date in the formatter's zone.
func (f *Formatter) Today() agenda.Date {
	return agenda.Today(f.now(), f.loc)
}

// DayDistance is the signed number of calendar days from today to the item.
func (f *Formatter) DayDistance(it agenda.Item) int {
	return agenda.DateOf(it.OccursAt.In(f.loc)).DaysSince(f.Today())
}

// Distance renders a day distance as "Today", "Tomorrow", "In N days" or
// "N days ago".
func (f *Formatter) Distance(days int) string {
	switch {
	case days == 0:
		return f.msg.T("distance.today")
	case days == 1:
		return f.msg.T("distance.tomorrow")
	case days > 1:
		return f.msg.T("distance.future", days)
	case days == -1:
		return f.msg.T("distance.past_one", 1)
	default:
		return f.msg.T("distance.past", -days)
	}
}

func (f *Formatter) Weekday(d agenda.Date) string {
	return f.msg.T("weekday." + strings.ToLower(d.Weekday().String()))
}

// Date renders d as "18 Jul 2025" with a localized month.
func (f *Formatter) Date(d agenda.Date) string {
	return fmt.Sprintf("%02d %s %d", d.Day, f.msg.T("month."+strings.ToLower(d.Month.String())), d.Year)
}

// Escape makes user-supplied text safe to embed in an HTML reply.
func (f *Formatter) Escape(s string) string {
	return f.policy.Sanitize(s)
}

// Item renders one item block, newline terminated.
func (f *Formatter) Item(it agenda.Item) string {
	at := it.OccursAt.In(f.loc)
	d := agenda.DateOf(at)

	lines := []string{
		f.msg.T("item.day", f.Weekday(d), f.Distance(f.DayDistance(it))),
		f.msg.T("item.time", f.Date(d), agenda.ClockOf(at)),
		f.msg.T("item.description", f.Escape(it.Description)),
		f.msg.T("item.meta", f.Escape(it.Category), f.Escape(it.Priority)),
	}
	if it.Tag != "" && it.Tag != agenda.TagNone {
		lines = append(lines, f.msg.T("item.tag", f.Escape(it.Tag)))
	}
	if it.Note != "" {
		lines = append(lines, f.msg.T("item.note", f.Escape(it.Note)))
	}
	lines = append(lines,
		f.msg.T("item.id", f.Escape(it.ID)),
		f.msg.T("item.status", it.Status),
	)
	return strings.Join(lines, "\n") + "\n"
}

// List renders a header followed by every item block, each closed by the
// divider.
func (f *Formatter) List(header string, items []agenda.Item) string {
	var b strings.Builder
	b.WriteString(header)
	b.WriteString("\n\n")
	for _, it := range items {
		b.WriteString(f.Item(it))
		b.WriteString(Divider)
		b.WriteString("\n\n")
	}
	return b.String()
}

// RangeHeader renders the view header for [start, end].
func (f *Formatter) RangeHeader(start, end agenda.Date) string {
	if start == end {
		return f.msg.T("view.header_day", f.Date(start))
	}
	return f.msg.T("view.header_range", f.Date(start), f.Date(end))
}

// Actions returns one row per item carrying its Edit and Delete tokens.
func (f *Formatter) Actions(items []agenda.Item) Keyboard {
	kb := make(Keyboard, 0, len(items))
	for _, it := range items {
		short := ShortLabel(it.Description)
		kb = append(kb, Row(
			Button{Label: f.msg.T("item.edit_button", short), Token: EditToken(it.ID)},
			Button{Label: f.msg.T("item.delete_button", short), Token: DeleteToken(it.ID)},
		))
	}
	return kb
}

// ShortLabel bounds a button label: text longer than 20 characters is cut
// to 17 plus "...".
func ShortLabel(s string) string {
	r := []rune(s)
	if len(r) <= labelLimit {
		return s
	}
	return string(r[:labelKeep]) + "..."
}

const (
	EditPrefix   = "edit_id:"
	DeletePrefix = "hapus_id:"
)

func EditToken(id string) string   { return EditPrefix + id }
func DeleteToken(id string) string { return DeletePrefix + id }
