// Package gateway connects chat platforms to the dialog engine.
package gateway

import (
	"context"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/rahul/agendabot/internal/dialog"
)

// Messenger defines the interface for communication gateways (Telegram, Discord, etc.)
type Messenger interface {
	Name() string
	// Start runs the receive loop until ctx is done or the connection fails.
	Start(ctx context.Context) error
	// Send delivers one engine reply to a conversation.
	Send(chatID string, r dialog.Reply) error
	// Stop gracefully shuts down the gateway
	Stop() error
}

// Dispatcher is the part of the engine a gateway needs.
type Dispatcher interface {
	Dispatch(ctx context.Context, chatID string, ev dialog.Event) []dialog.Reply
	Commands() []dialog.CommandInfo
}

// lanes runs the work of one conversation in arrival order on its own
// goroutine, so a slow store call in one chat never holds up another. A
// lane's goroutine exits as soon as its queue is empty.
type lanes struct {
	mu     sync.Mutex
	queues map[string][]func()
	closed bool
	wg     sync.WaitGroup
}

func newLanes() *lanes {
	return &lanes{queues: make(map[string][]func())}
}

// run queues fn behind the earlier work of key. It reports false once the
// lanes are closed.
func (l *lanes) run(key string, fn func()) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return false
	}
	q, busy := l.queues[key]
	l.queues[key] = append(q, fn)
	if !busy {
		l.wg.Add(1)
		go l.drain(key)
	}
	return true
}

func (l *lanes) drain(key string) {
	defer l.wg.Done()
	for {
		l.mu.Lock()
		q := l.queues[key]
		if len(q) == 0 {
			delete(l.queues, key)
			l.mu.Unlock()
			return
		}
		fn := q[0]
		l.queues[key] = q[1:]
		l.mu.Unlock()
		fn()
	}
}

// active counts conversations with queued or running work.
func (l *lanes) active() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.queues)
}

// close stops accepting work and waits for queued work to finish.
func (l *lanes) close() {
	l.mu.Lock()
	l.closed = true
	l.mu.Unlock()
	l.wg.Wait()
}

// splitMessage cuts text into chunks of at most limit runes, breaking on
// line boundaries where it can.
func splitMessage(text string, limit int) []string {
	if utf8.RuneCountInString(text) <= limit {
		return []string{text}
	}
	var (
		chunks []string
		cur    strings.Builder
		n      int
	)
	flush := func() {
		if cur.Len() > 0 {
			chunks = append(chunks, strings.TrimRight(cur.String(), "\n"))
			cur.Reset()
			n = 0
		}
	}
	for _, line := range strings.SplitAfter(text, "\n") {
		ln := utf8.RuneCountInString(line)
		if n+ln > limit {
			flush()
		}
		for ln > limit {
			r := []rune(line)
			chunks = append(chunks, string(r[:limit]))
			line = string(r[limit:])
			ln -= limit
		}
		cur.WriteString(line)
		n += ln
	}
	flush()
	return chunks
}
