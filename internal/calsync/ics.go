// Package calsync mirrors agenda items into an iCalendar feed file that any
// calendar client can subscribe to.
package calsync

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	ical "github.com/arran4/golang-ical"

	"github.com/rahul/agendabot/internal/agenda"
)

// DefaultDuration is the length given to events; agenda items only have a
// start time.
const DefaultDuration = time.Hour

const productID = "-//agendabot//agenda feed//ID"

// ICSMirror keeps one VEVENT per agenda item and rewrites the feed file on
// every change.
type ICSMirror struct {
	mu     sync.Mutex
	path   string
	domain string
	now    func() time.Time
	events map[string]*ical.VEvent
}

// NewICSMirror opens the feed at path, keeping the events already in it.
func NewICSMirror(path, domain string) (*ICSMirror, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("ics feed path is empty")
	}
	if domain == "" {
		domain = "agendabot.local"
	}
	m := &ICSMirror{
		path:   path,
		domain: domain,
		now:    time.Now,
		events: make(map[string]*ical.VEvent),
	}

	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return m, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open ics feed: %w", err)
	}
	defer f.Close()

	cal, err := ical.ParseCalendar(f)
	if err != nil {
		return nil, fmt.Errorf("parse ics feed: %w", err)
	}
	for _, ve := range cal.Events() {
		uid := ve.GetProperty(ical.ComponentPropertyUniqueId)
		if uid == nil || uid.Value == "" {
			continue
		}
		m.events[uid.Value] = ve
	}
	return m, nil
}

// EventID is the VEVENT UID used for an item.
func (m *ICSMirror) EventID(itemID string) string {
	return itemID + "@" + m.domain
}

// Upsert adds or replaces the event of it.
func (m *ICSMirror) Upsert(_ context.Context, it agenda.Item) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	ev := m.event(it)
	m.events[m.uid(it)] = ev
	return m.flush()
}

// Remove drops the event of it. Removing an unknown event is not an error.
func (m *ICSMirror) Remove(_ context.Context, it agenda.Item) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	uid := m.uid(it)
	if _, ok := m.events[uid]; !ok {
		return nil
	}
	delete(m.events, uid)
	return m.flush()
}

// Replace rebuilds the whole feed from items.
func (m *ICSMirror) Replace(_ context.Context, items []agenda.Item) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = make(map[string]*ical.VEvent, len(items))
	for _, it := range items {
		m.events[m.uid(it)] = m.event(it)
	}
	return m.flush()
}

// Len reports how many events the feed holds.
func (m *ICSMirror) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.events)
}

func (m *ICSMirror) uid(it agenda.Item) string {
	if it.ExternalEventID != "" {
		return it.ExternalEventID
	}
	return m.EventID(it.ID)
}

func (m *ICSMirror) event(it agenda.Item) *ical.VEvent {
	ev := ical.NewEvent(m.uid(it))
	ev.SetDtStampTime(m.now().UTC())
	if !it.CreatedAt.IsZero() {
		ev.SetCreatedTime(it.CreatedAt.UTC())
	}
	ev.SetStartAt(it.OccursAt.UTC())
	ev.SetEndAt(it.OccursAt.Add(DefaultDuration).UTC())
	ev.SetSummary(it.Description)
	ev.SetDescription(fmt.Sprintf("%s | %s | %s", it.Category, it.Priority, it.Status))
	ev.SetProperty(ical.ComponentPropertyCategories, it.Category)
	ev.SetProperty(ical.ComponentPropertyStatus, eventStatus(it.Status))
	return ev
}

// eventStatus maps an agenda status onto the VEVENT STATUS values.
func eventStatus(s agenda.Status) string {
	switch s {
	case agenda.StatusDone:
		return "CONFIRMED"
	case agenda.StatusMissed:
		return "CANCELLED"
	}
	return "TENTATIVE"
}

func (m *ICSMirror) flush() error {
	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(productID)

	uids := make([]string, 0, len(m.events))
	for uid := range m.events {
		uids = append(uids, uid)
	}
	sort.Strings(uids)
	for _, uid := range uids {
		cal.AddVEvent(m.events[uid])
	}

	if err := os.MkdirAll(filepath.Dir(m.path), 0o755); err != nil {
		return fmt.Errorf("create feed directory: %w", err)
	}
	tmp := m.path + ".tmp"
	if err := os.WriteFile(tmp, []byte(cal.Serialize()), 0o644); err != nil {
		return fmt.Errorf("write ics feed: %w", err)
	}
	if err := os.Rename(tmp, m.path); err != nil {
		return fmt.Errorf("replace ics feed: %w", err)
	}
	return nil
}
