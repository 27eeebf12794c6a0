// Package dialog implements the guided multi-turn workflows of the agenda
// bot: create, view, edit, delete, status change and search. Transports feed
// events in through Engine.Dispatch and deliver the returned replies.
package dialog

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/rahul/agendabot/internal/agenda"
	"github.com/rahul/agendabot/internal/i18n"
	"github.com/rahul/agendabot/internal/observability"
	"github.com/rahul/agendabot/internal/parse"
	"github.com/rahul/agendabot/internal/render"
	"github.com/rahul/agendabot/internal/store"
)

// Mirror receives committed items for an external calendar. Failures never
// affect the workflow.
type Mirror interface {
	// EventID is the external identifier the mirror assigns to an item id.
	EventID(itemID string) string
	Upsert(ctx context.Context, it agenda.Item) error
	Remove(ctx context.Context, it agenda.Item) error
}

// Options configures an Engine.
type Options struct {
	Store    store.Store
	Messages *i18n.Catalog
	Location *time.Location
	// Dates resolves free-text dates. Defaults to the rule parser alone.
	Dates *parse.DateParser
	// Now defaults to time.Now.
	Now    func() time.Time
	Mirror Mirror
	Logger *observability.Logger
}

// Engine routes events to per-conversation workflow sessions.
type Engine struct {
	store    store.Store
	msg      *i18n.Catalog
	loc      *time.Location
	dates    *parse.DateParser
	now      func() time.Time
	mirror   Mirror
	logger   *observability.Logger
	format   *render.Formatter
	commands *Registry
	sessions *sessions
}

func NewEngine(opts Options) (*Engine, error) {
	if opts.Store == nil {
		return nil, errors.New("dialog: store is required")
	}
	if opts.Messages == nil {
		opts.Messages = i18n.MustLoad(i18n.DefaultLocale)
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Dates == nil {
		opts.Dates = parse.NewDateParser(nil)
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Engine{
		store:    opts.Store,
		msg:      opts.Messages,
		loc:      opts.Location,
		dates:    opts.Dates,
		now:      opts.Now,
		mirror:   opts.Mirror,
		logger:   opts.Logger,
		format:   render.NewFormatter(opts.Location, opts.Messages, opts.Now),
		commands: defaultRegistry(),
		sessions: newSessions(),
	}, nil
}

// Commands lists the chat commands with localized descriptions.
func (e *Engine) Commands() []CommandInfo {
	var out []CommandInfo
	for _, c := range e.commands.List() {
		out = append(out, CommandInfo{Name: c.Name, Description: e.msg.T(c.DescriptionKey)})
	}
	return out
}

// ActiveSessions counts conversations with a workflow in progress.
func (e *Engine) ActiveSessions() int {
	return e.sessions.active()
}

// Dispatch feeds one event of chatID to the engine and returns the replies
// to deliver. Events of one conversation are processed strictly in order;
// different conversations proceed independently.
func (e *Engine) Dispatch(ctx context.Context, chatID string, ev Event) []Reply {
	replies := func() []Reply {
		sl := e.sessions.lock(chatID)
		defer sl.mu.Unlock()
		return e.route(sl, &turn{ctx: ctx, e: e, chatID: chatID, ev: ev})
	}()
	observability.SetActiveSessions(e.sessions.active())
	return replies
}

func (e *Engine) route(sl *slot, t *turn) []Reply {
	ev := t.ev

	// Normalise the cancel spellings first so cancel always wins.
	switch {
	case ev.Kind == KindCommand:
		if c, ok := e.commands.Get(ev.Value); ok && c.cancel {
			ev = Cancel()
		}
	case ev.Kind == KindSelect && ev.Value == tokenCancelEdit:
		ev = Cancel()
	case ev.Kind == KindSelect && ev.Value == tokenCancel:
		if sc, ok := sl.flow.(subCanceler); ok {
			if r, handled := sc.cancelSubFlow(t); handled {
				return []Reply{r}
			}
		}
		ev = Cancel()
	}
	t.ev = ev

	switch ev.Kind {
	case KindCancel:
		if sl.flow == nil {
			return []Reply{textReply(e.msg.T("common.cancelled"))}
		}
		e.logger.LogCancel(t.chatID, sl.flow.name(), sl.flow.state())
		text := sl.flow.cancelText(e)
		sl.flow = nil
		return []Reply{textReply(text)}

	case KindCommand:
		c, ok := e.commands.Get(ev.Value)
		if !ok {
			return []Reply{e.helpReply("")}
		}
		f, replies := c.start(t)
		if c.keep {
			return replies
		}
		if sl.flow != nil {
			log.Printf("[dialog] %s: %s replaces %s session", t.chatID, c.Name, sl.flow.name())
		}
		sl.flow = f
		if f != nil {
			e.logger.LogWorkflowStart(t.chatID, f.name())
		}
		return replies

	case KindSelect:
		if start := actionStarter(ev.Value); start != nil {
			f, replies := start(t)
			sl.flow = f
			if f != nil {
				e.logger.LogWorkflowStart(t.chatID, f.name())
			}
			return replies
		}
	}

	if sl.flow == nil {
		return []Reply{textReply(e.msg.T("common.no_session"))}
	}

	name, from := sl.flow.name(), sl.flow.state()
	replies, done := sl.flow.step(t)
	if done {
		e.logger.LogTransition(t.chatID, name, from, "end")
		sl.flow = nil
	} else if to := sl.flow.state(); to != from {
		e.logger.LogTransition(t.chatID, name, from, to)
	}
	return replies
}

// actionStarter maps item action tokens onto workflow entry points.
func actionStarter(token string) starter {
	switch {
	case strings.HasPrefix(token, render.EditPrefix):
		id := strings.TrimPrefix(token, render.EditPrefix)
		return func(t *turn) (flow, []Reply) { return startEditByToken(t, id) }
	case strings.HasPrefix(token, render.DeletePrefix):
		id := strings.TrimPrefix(token, render.DeletePrefix)
		return func(t *turn) (flow, []Reply) { return startDelete(t, id) }
	}
	return nil
}

func (e *Engine) today() agenda.Date {
	return agenda.Today(e.now(), e.loc)
}

// storeFailed logs a persistence failure and returns the notice that ends
// the session.
func (e *Engine) storeFailed(t *turn, workflow, op string, err error) []Reply {
	log.Printf("[dialog] %s: %s %s failed: %v", t.chatID, workflow, op, err)
	e.logger.LogStoreError(t.chatID, workflow, op, err)
	return []Reply{textReply(e.msg.T("common.store_error"))}
}

// sessionBroken handles an inconsistent draft: notify and end.
func (e *Engine) sessionBroken(t *turn, workflow, why string) []Reply {
	log.Printf("[dialog] %s: %s session inconsistent: %s", t.chatID, workflow, why)
	return []Reply{textReply(e.msg.T("common.session_error"))}
}

func (e *Engine) mirrorUpsert(t *turn, it agenda.Item) {
	if e.mirror == nil {
		return
	}
	if err := e.mirror.Upsert(t.ctx, it); err != nil {
		log.Printf("[sync] upsert %s: %v", it.ID, err)
		e.logger.LogSync("upsert", 1, err)
	}
}

func (e *Engine) mirrorRemove(t *turn, it agenda.Item) {
	if e.mirror == nil {
		return
	}
	if err := e.mirror.Remove(t.ctx, it); err != nil {
		log.Printf("[sync] remove %s: %v", it.ID, err)
		e.logger.LogSync("remove", 1, err)
	}
}

// externalID fills the mirror's event id before the item is persisted.
func (e *Engine) externalID(it *agenda.Item) {
	if e.mirror != nil && it.ExternalEventID == "" {
		it.ExternalEventID = e.mirror.EventID(it.ID)
	}
}

func (e *Engine) helpReply(prefix string) Reply {
	var b strings.Builder
	if prefix != "" {
		b.WriteString(prefix)
		b.WriteString("\n\n")
	}
	b.WriteString(e.msg.T("help.header"))
	for _, c := range e.Commands() {
		b.WriteString("\n/")
		b.WriteString(c.Name)
		b.WriteString(" - ")
		b.WriteString(c.Description)
	}
	return textReply(b.String())
}

func startHelp(t *turn) (flow, []Reply) {
	return nil, []Reply{t.e.helpReply("")}
}

func startGreeting(t *turn) (flow, []Reply) {
	return nil, []Reply{t.e.helpReply(t.e.msg.T("start.greeting"))}
}

// cancelRow is the trailing keyboard row every prompt carries.
func (e *Engine) cancelRow() []render.Button {
	return render.Row(render.Button{Label: e.msg.T("common.cancel_button"), Token: tokenCancel})
}

// itemList renders a result list with its per-item action rows.
func (e *Engine) itemList(header string, items []agenda.Item) Reply {
	return Reply{Text: e.format.List(header, items), Buttons: e.format.Actions(items)}
}
