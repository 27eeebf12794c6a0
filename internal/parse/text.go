// Package parse turns free text into typed agenda values.
package parse

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/rahul/agendabot/internal/agenda"
)

var (
	strictClock = regexp.MustCompile(`^([01]?\d|2[0-3]):([0-5]\d)$`)
	// A bare or "jam"/"pukul"-prefixed hour standing on its own, so the
	// minutes of a malformed "25:00" are not picked up as an hour.
	bareHour = regexp.MustCompile(`(?:^|\s)(?:(?:jam|pukul)\s*)?(\d{1,2})(?:$|\s)`)

	markerToken  = regexp.MustCompile(`[#@!][\p{L}\p{N}_]+`)
	hourMention  = regexp.MustCompile(`(?i)(jam|pukul)\s*\d{1,2}(?::\d{2})?`)
	runsOfSpaces = regexp.MustCompile(`\s+`)
)

// ParseTime accepts "HH:MM" or an hour token such as "9", "jam 9" or
// "pukul 14". Hours outside 0-23 are rejected.
func ParseTime(text string) (agenda.TimeOfDay, bool) {
	text = strings.ToLower(strings.TrimSpace(text))
	if m := strictClock.FindStringSubmatch(text); m != nil {
		h, _ := strconv.Atoi(m[1])
		min, _ := strconv.Atoi(m[2])
		return agenda.TimeOfDay{Hour: h, Minute: min}, true
	}
	if m := bareHour.FindStringSubmatch(text); m != nil {
		h, _ := strconv.Atoi(m[1])
		if h >= 0 && h <= 23 {
			return agenda.TimeOfDay{Hour: h}, true
		}
	}
	return agenda.TimeOfDay{}, false
}

// CleanDescription strips #tags, @mentions, !bangs, hour mentions and every
// standalone one or two digit number, then collapses whitespace.
//
// Quantities the user meant to keep ("beli 2 tiket") are lost as well; stored
// descriptions depend on this exact behaviour.
func CleanDescription(text string) string {
	text = markerToken.ReplaceAllString(text, "")
	text = hourMention.ReplaceAllString(text, "")
	text = dropShortNumbers(text)
	return strings.TrimSpace(runsOfSpaces.ReplaceAllString(text, " "))
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsNumber(r)
}

// dropShortNumbers removes every word of one or two digits. Word boundaries
// are Unicode-aware, so "kafé12" is one word and stays.
func dropShortNumbers(text string) string {
	var b strings.Builder
	runes := []rune(text)
	for i := 0; i < len(runes); {
		if !isWordRune(runes[i]) {
			b.WriteRune(runes[i])
			i++
			continue
		}
		j := i
		digits := true
		for j < len(runes) && isWordRune(runes[j]) {
			digits = digits && unicode.IsDigit(runes[j])
			j++
		}
		if !digits || j-i > 2 {
			b.WriteString(string(runes[i:j]))
		}
		i = j
	}
	return b.String()
}
