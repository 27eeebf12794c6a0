package parse

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"

	"github.com/rahul/agendabot/internal/agenda"
)

var months = map[string]time.Month{
	"januari": time.January, "january": time.January, "jan": time.January,
	"februari": time.February, "february": time.February, "feb": time.February,
	"maret": time.March, "march": time.March, "mar": time.March,
	"april": time.April, "apr": time.April,
	"mei": time.May, "may": time.May,
	"juni": time.June, "june": time.June, "jun": time.June,
	"juli": time.July, "july": time.July, "jul": time.July,
	"agustus": time.August, "august": time.August, "agu": time.August, "agt": time.August, "aug": time.August,
	"september": time.September, "sept": time.September, "sep": time.September,
	"oktober": time.October, "october": time.October, "okt": time.October, "oct": time.October,
	"november": time.November, "nov": time.November, "nop": time.November,
	"desember": time.December, "december": time.December, "des": time.December, "dec": time.December,
}

var weekdays = map[string]time.Weekday{
	"minggu": time.Sunday, "ahad": time.Sunday, "sunday": time.Sunday,
	"senin": time.Monday, "monday": time.Monday,
	"selasa": time.Tuesday, "tuesday": time.Tuesday,
	"rabu": time.Wednesday, "wednesday": time.Wednesday,
	"kamis": time.Thursday, "thursday": time.Thursday,
	"jumat": time.Friday, "jum'at": time.Friday, "friday": time.Friday,
	"sabtu": time.Saturday, "saturday": time.Saturday,
}

var (
	isoDate      = regexp.MustCompile(`\b(\d{4})-(\d{1,2})-(\d{1,2})\b`)
	numericDate  = regexp.MustCompile(`\b(\d{1,2})[-/.](\d{1,2})(?:[-/.](\d{4}|\d{2}))?\b`)
	dayMonth     = regexp.MustCompile(`\b(\d{1,2})\s+([a-z]+)\.?(?:\s+(\d{4}))?\b`)
	monthDay     = regexp.MustCompile(`\b([a-z]+)\.?\s+(\d{1,2})(?:,?\s+(\d{4}))?\b`)
	daysAhead    = regexp.MustCompile(`\b(?:dalam\s+(\d+)\s+hari|(\d+)\s+hari\s+lagi|in\s+(\d+)\s+days?)\b`)
	daysBehind   = regexp.MustCompile(`\b(?:(\d+)\s+hari\s+(?:yang\s+)?lalu|(\d+)\s+days?\s+ago)\b`)
	weeksAhead   = regexp.MustCompile(`\b(?:dalam\s+(\d+)\s+minggu|(\d+)\s+minggu\s+lagi|in\s+(\d+)\s+weeks?)\b`)
	nextWeek     = regexp.MustCompile(`\b(?:minggu\s+depan|next\s+week)\b`)
	wordsPattern = regexp.MustCompile(`[a-z']+`)
	bareNumber   = regexp.MustCompile(`^\d+$`)
)

// ParseDate finds a date expression in Indonesian or English text. When the
// expression leaves the year or week open it resolves to the nearest future
// occurrence relative to today.
func ParseDate(text string, today agenda.Date) (agenda.Date, bool) {
	s := strings.ToLower(strings.TrimSpace(text))
	if s == "" {
		return agenda.Date{}, false
	}

	if m := isoDate.FindStringSubmatch(s); m != nil {
		if d, ok := makeDate(atoi(m[1]), atoi(m[2]), atoi(m[3])); ok {
			return d, true
		}
	}
	if m := numericDate.FindStringSubmatch(s); m != nil {
		day, month := atoi(m[1]), atoi(m[2])
		if m[3] != "" {
			year := atoi(m[3])
			if len(m[3]) == 2 {
				year += 2000
			}
			if d, ok := makeDate(year, month, day); ok {
				return d, true
			}
		} else if d, ok := nearestFuture(today, time.Month(month), day); ok {
			return d, true
		}
	}
	for _, m := range dayMonth.FindAllStringSubmatch(s, -1) {
		if d, ok := namedMonth(today, m[2], m[1], m[3]); ok {
			return d, true
		}
	}
	for _, m := range monthDay.FindAllStringSubmatch(s, -1) {
		if d, ok := namedMonth(today, m[1], m[2], m[3]); ok {
			return d, true
		}
	}

	if m := daysAhead.FindStringSubmatch(s); m != nil {
		return today.AddDays(firstNumber(m[1:])), true
	}
	if m := daysBehind.FindStringSubmatch(s); m != nil {
		return today.AddDays(-firstNumber(m[1:])), true
	}
	if m := weeksAhead.FindStringSubmatch(s); m != nil {
		return today.AddDays(7 * firstNumber(m[1:])), true
	}
	if nextWeek.MatchString(s) {
		return today.AddDays(7), true
	}

	words := wordsPattern.FindAllString(s, -1)
	for i, w := range words {
		switch w {
		case "lusa":
			return today.AddDays(2), true
		case "besok", "tomorrow":
			return today.AddDays(1), true
		case "kemarin", "yesterday":
			return today.AddDays(-1), true
		case "today", "sekarang", "now":
			return today, true
		case "hari":
			if i+1 < len(words) && words[i+1] == "ini" {
				return today, true
			}
		}
	}
	for _, w := range words {
		if wd, ok := weekdays[w]; ok {
			delta := (int(wd) - int(today.Weekday()) + 7) % 7
			if delta == 0 {
				delta = 7
			}
			return today.AddDays(delta), true
		}
	}

	raw := strings.TrimSpace(text)
	if bareNumber.MatchString(raw) && len(raw) != 8 {
		// dateparse reads "1234" as a year; only yyyymmdd is a date.
		return agenda.Date{}, false
	}
	if t, err := dateparse.ParseIn(raw, time.UTC); err == nil {
		return agenda.DateOf(t), true
	}
	return agenda.Date{}, false
}

func namedMonth(today agenda.Date, word, day, year string) (agenda.Date, bool) {
	month, ok := months[word]
	if !ok {
		return agenda.Date{}, false
	}
	if year != "" {
		return makeDate(atoi(year), int(month), atoi(day))
	}
	return nearestFuture(today, month, atoi(day))
}

func nearestFuture(today agenda.Date, month time.Month, day int) (agenda.Date, bool) {
	d, ok := makeDate(today.Year, int(month), day)
	if !ok {
		// 29 February: look for the next leap year.
		for y := today.Year + 1; y <= today.Year+8; y++ {
			if d, ok = makeDate(y, int(month), day); ok {
				return d, true
			}
		}
		return agenda.Date{}, false
	}
	if d.Before(today) {
		return makeDate(today.Year+1, int(month), day)
	}
	return d, true
}

func makeDate(year, month, day int) (agenda.Date, bool) {
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return agenda.Date{}, false
	}
	d := agenda.DateOf(time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC))
	if d.Day != day || int(d.Month) != month {
		return agenda.Date{}, false
	}
	return d, true
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}

func firstNumber(groups []string) int {
	for _, g := range groups {
		if g != "" {
			return atoi(g)
		}
	}
	return 0
}
