package store

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/araddon/dateparse"

	"github.com/rahul/agendabot/internal/agenda"
)

// ImportResult summarises a legacy CSV import.
type ImportResult struct {
	Imported int
	Skipped  int
}

var legacyLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// ImportCSV loads the old agenda.csv export (headers Timestamp, Tanggal,
// Kategori, Prioritas, Deskripsi, Tag, EventID, Status, Keterangan,
// GoogleEventID) into st. It refuses to run against a non-empty store.
// Rows whose Tanggal cannot be parsed are skipped.
func ImportCSV(ctx context.Context, st Store, r io.Reader, now time.Time, loc *time.Location) (ImportResult, error) {
	var res ImportResult

	n, err := st.Count(ctx)
	if err != nil {
		return res, err
	}
	if n > 0 {
		return res, ErrNotEmpty
	}

	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return res, nil
		}
		return res, fmt.Errorf("read csv header: %w", err)
	}
	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.TrimSpace(strings.TrimPrefix(h, "\uFEFF"))] = i
	}
	for _, required := range []string{"Tanggal", "Kategori", "Prioritas", "Deskripsi"} {
		if _, ok := cols[required]; !ok {
			return res, fmt.Errorf("csv is missing column %q", required)
		}
	}

	get := func(rec []string, name string) string {
		i, ok := cols[name]
		if !ok || i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}

	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return res, fmt.Errorf("read csv row %d: %w", res.Imported+res.Skipped+2, err)
		}

		at, ok := parseLegacyTime(get(rec, "Tanggal"), loc)
		if !ok {
			res.Skipped++
			continue
		}
		it := agenda.New(now, at, get(rec, "Kategori"), get(rec, "Prioritas"), get(rec, "Deskripsi"))
		if id := get(rec, "EventID"); id != "" {
			it.ID = id
		}
		if created, ok := parseLegacyTime(get(rec, "Timestamp"), loc); ok {
			it.CreatedAt = created
		}
		it.Tag = agenda.NormalizeTag(get(rec, "Tag"))
		if s, ok := agenda.ParseStatus(get(rec, "Status")); ok {
			it.Status = s
		}
		it.Note = get(rec, "Keterangan")
		it.ExternalEventID = get(rec, "GoogleEventID")

		if _, err := st.Put(ctx, it); err != nil {
			return res, err
		}
		res.Imported++
	}
	return res, nil
}

func parseLegacyTime(s string, loc *time.Location) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range legacyLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t.In(loc), true
		}
	}
	t, err := dateparse.ParseIn(s, loc)
	if err != nil {
		return time.Time{}, false
	}
	return t.In(loc), true
}
