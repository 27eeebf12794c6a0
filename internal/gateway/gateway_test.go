package gateway

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/bwmarrin/discordgo"

	"github.com/rahul/agendabot/internal/dialog"
	"github.com/rahul/agendabot/internal/render"
)

func TestSplitMessage(t *testing.T) {
	if got := splitMessage("pendek", 10); len(got) != 1 || got[0] != "pendek" {
		t.Fatalf("short text split: %q", got)
	}

	blocks := []string{strings.Repeat("a", 30), render.Divider, strings.Repeat("b", 30), render.Divider, strings.Repeat("c", 30)}
	text := strings.Join(blocks, "\n")
	chunks := splitMessage(text, 40)
	if len(chunks) < 3 {
		t.Fatalf("expected at least 3 chunks, got %d: %q", len(chunks), chunks)
	}
	for _, c := range chunks {
		if utf8.RuneCountInString(c) > 40 {
			t.Errorf("chunk over limit: %q", c)
		}
	}
	if strings.ReplaceAll(strings.Join(chunks, ""), "\n", "") != strings.ReplaceAll(text, "\n", "") {
		t.Errorf("content lost in split: %q", chunks)
	}

	long := strings.Repeat("é", 25)
	for _, c := range splitMessage(long, 10) {
		if utf8.RuneCountInString(c) > 10 {
			t.Errorf("hard split over limit: %q", c)
		}
	}
}

func TestInlineKeyboard(t *testing.T) {
	kb := render.Keyboard{
		render.Row(render.Button{Label: "Kuliah", Token: "k:Kuliah"}, render.Button{Label: "Kerja", Token: "k:Kerja"}),
		nil,
		render.Row(render.Button{Label: "Batal", Token: "cancel"}),
	}
	markup := inlineKeyboard(kb)
	if len(markup.InlineKeyboard) != 2 {
		t.Fatalf("rows = %d, want 2", len(markup.InlineKeyboard))
	}
	b := markup.InlineKeyboard[0][1]
	if b.Text != "Kerja" || b.CallbackData == nil || *b.CallbackData != "k:Kerja" {
		t.Errorf("unexpected button: %+v", b)
	}
}

func TestComponentGroups(t *testing.T) {
	var wide []render.Button
	for i := 0; i < 7; i++ {
		wide = append(wide, render.Button{Label: "x", Token: "t"})
	}
	kb := render.Keyboard{wide}
	for i := 0; i < 5; i++ {
		kb = append(kb, render.Row(render.Button{Label: strings.Repeat("L", 100), Token: "edit_id:1"}))
	}

	groups := componentGroups(kb)
	if len(groups) != 2 {
		t.Fatalf("groups = %d, want 2", len(groups))
	}
	if len(groups[0]) != 5 || len(groups[1]) != 2 {
		t.Errorf("rows per group = %d,%d", len(groups[0]), len(groups[1]))
	}
	first := groups[0][0].(discordgo.ActionsRow)
	if len(first.Components) != 5 {
		t.Errorf("first row has %d buttons", len(first.Components))
	}
	long := groups[0][2].(discordgo.ActionsRow).Components[0].(discordgo.Button)
	if utf8.RuneCountInString(long.Label) != discordLabel {
		t.Errorf("label not truncated: %d runes", utf8.RuneCountInString(long.Label))
	}
}

func TestHTMLToMarkdown(t *testing.T) {
	got := htmlToMarkdown("<b>Rapat</b> &lt;tim&gt; <code>abc</code> &amp; co")
	want := "**Rapat** <tim> `abc` & co"
	if got != want {
		t.Errorf("htmlToMarkdown = %q, want %q", got, want)
	}
}

func TestConversationKey(t *testing.T) {
	if got := conversationKey("c1", "", "u1"); got != "c1" {
		t.Errorf("dm key = %q", got)
	}
	if got := conversationKey("c1", "g1", "u1"); got != "c1:u1" {
		t.Errorf("guild key = %q", got)
	}
}

func TestLanesKeepOrderPerKey(t *testing.T) {
	l := newLanes()
	var (
		mu  sync.Mutex
		got = map[string][]int{}
	)
	for i := 0; i < 50; i++ {
		for _, k := range []string{"a", "b"} {
			i, k := i, k
			l.run(k, func() {
				mu.Lock()
				got[k] = append(got[k], i)
				mu.Unlock()
			})
		}
	}
	l.close()
	for _, k := range []string{"a", "b"} {
		if len(got[k]) != 50 {
			t.Fatalf("lane %s ran %d jobs", k, len(got[k]))
		}
		for i, v := range got[k] {
			if v != i {
				t.Fatalf("lane %s out of order at %d: %v", k, i, got[k])
			}
		}
	}
}

func TestLanesRetireIdleAndRejectAfterClose(t *testing.T) {
	l := newLanes()
	done := make(chan struct{})
	for i := 0; i < 20; i++ {
		key := string(rune('a' + i))
		l.run(key, func() {})
	}
	l.run("last", func() { close(done) })
	<-done

	deadline := time.Now().Add(2 * time.Second)
	for l.active() != 0 {
		if time.Now().After(deadline) {
			t.Fatalf("%d lanes still alive after their work finished", l.active())
		}
		time.Sleep(time.Millisecond)
	}

	l.close()
	ran := false
	if l.run("late", func() { ran = true }) {
		t.Error("run accepted work after close")
	}
	if ran {
		t.Error("work ran after close")
	}
}

func TestLanesCloseRacesWithRun(t *testing.T) {
	l := newLanes()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				l.run("chat", func() {})
			}
		}()
	}
	l.close()
	wg.Wait()
}

type echoEngine struct{}

func (echoEngine) Dispatch(_ context.Context, chatID string, ev dialog.Event) []dialog.Reply {
	return []dialog.Reply{{Text: chatID + ":" + ev.Value}}
}

func (echoEngine) Commands() []dialog.CommandInfo {
	return []dialog.CommandInfo{{Name: "catat", Description: "Catat agenda"}}
}

func TestEngineSatisfiesDispatcher(t *testing.T) {
	var d Dispatcher = echoEngine{}
	if r := d.Dispatch(context.Background(), "1", dialog.Text("hai")); r[0].Text != "1:hai" {
		t.Errorf("unexpected reply %q", r[0].Text)
	}
	var _ Dispatcher = (*dialog.Engine)(nil)
}
