package dialog

import (
	"strings"

	"github.com/rahul/agendabot/internal/render"
)

// Kind classifies an incoming event.
type Kind int

const (
	KindCommand Kind = iota + 1
	KindSelect
	KindText
	KindCancel
)

func (k Kind) String() string {
	switch k {
	case KindCommand:
		return "command"
	case KindSelect:
		return "select"
	case KindText:
		return "text"
	case KindCancel:
		return "cancel"
	}
	return "unknown"
}

// Event is one user action in a conversation.
type Event struct {
	Kind Kind
	// Value is the command name, the selected token or the free text.
	Value string
	// Args is the remainder of a command line ("/edit abc" -> "abc").
	Args string
}

func Command(name, args string) Event {
	return Event{Kind: KindCommand, Value: strings.ToLower(name), Args: strings.TrimSpace(args)}
}

func Select(token string) Event { return Event{Kind: KindSelect, Value: token} }

func Text(s string) Event { return Event{Kind: KindText, Value: s} }

func Cancel() Event { return Event{Kind: KindCancel} }

// ParseInput turns a typed chat line into a Command or Text event.
// "/catat@agenda_bot besok" becomes Command("catat", "besok").
func ParseInput(line string) Event {
	trimmed := strings.TrimSpace(line)
	if !strings.HasPrefix(trimmed, "/") || len(trimmed) == 1 {
		return Text(line)
	}
	head, args, _ := strings.Cut(trimmed[1:], " ")
	if at := strings.IndexByte(head, '@'); at >= 0 {
		head = head[:at]
	}
	return Command(head, args)
}

// Reply is one message the transport should deliver to the conversation.
// Text uses the HTML subset <b>, <code>.
type Reply struct {
	Text    string
	Buttons render.Keyboard
}

func textReply(s string) Reply { return Reply{Text: s} }
