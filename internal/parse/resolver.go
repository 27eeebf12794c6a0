package parse

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/tmc/langchaingo/llms"

	"github.com/rahul/agendabot/internal/agenda"
)

// Resolver is a last-resort date interpreter consulted when the rule based
// parser finds nothing.
type Resolver interface {
	ResolveDate(ctx context.Context, text string, today agenda.Date) (agenda.Date, bool, error)
}

// DateParser runs ParseDate and then, optionally, a Resolver.
type DateParser struct {
	Fallback Resolver
}

func NewDateParser(fallback Resolver) *DateParser {
	return &DateParser{Fallback: fallback}
}

// Parse never fails loudly: resolver errors are logged and reported as
// "nothing found".
func (p *DateParser) Parse(ctx context.Context, text string, today agenda.Date) (agenda.Date, bool) {
	if d, ok := ParseDate(text, today); ok {
		return d, true
	}
	if p == nil || p.Fallback == nil {
		return agenda.Date{}, false
	}
	d, ok, err := p.Fallback.ResolveDate(ctx, text, today)
	if err != nil {
		log.Printf("[parse] date resolver failed for %q: %v", text, err)
		return agenda.Date{}, false
	}
	return d, ok
}

const resolvePrompt = `Today is %s (%s). A user of an Indonesian agenda assistant typed the text below to name a date.
Answer with the date in YYYY-MM-DD format only. If the text names an ambiguous date, pick the nearest one in the future.
If the text does not name a date, answer NONE.

Text: %s`

// LLMResolver asks a language model to interpret the date expression.
type LLMResolver struct {
	Model llms.Model
}

func NewLLMResolver(model llms.Model) *LLMResolver {
	return &LLMResolver{Model: model}
}

func (r *LLMResolver) ResolveDate(ctx context.Context, text string, today agenda.Date) (agenda.Date, bool, error) {
	prompt := fmt.Sprintf(resolvePrompt, today, today.Weekday(), strings.TrimSpace(text))
	out, err := llms.GenerateFromSinglePrompt(ctx, r.Model, prompt, llms.WithTemperature(0))
	if err != nil {
		return agenda.Date{}, false, fmt.Errorf("generate: %w", err)
	}
	out = strings.TrimSpace(out)
	if out == "" || strings.EqualFold(out, "NONE") {
		return agenda.Date{}, false, nil
	}
	if m := isoDate.FindStringSubmatch(out); m != nil {
		if d, ok := makeDate(atoi(m[1]), atoi(m[2]), atoi(m[3])); ok {
			return d, true, nil
		}
	}
	return agenda.Date{}, false, fmt.Errorf("unexpected model answer %q", out)
}
