package dialog

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/rahul/agendabot/internal/agenda"
)

func TestCreateRoundTrip(t *testing.T) {
	h := newHarness(t)

	r := h.send(Command("catat", ""))
	if !hasToken(r, "k:kerja") || !hasToken(r, "k:custom") || !hasToken(r, tokenCancel) {
		t.Fatalf("category keyboard = %+v", r.Buttons)
	}
	r = h.send(Select("k:kerja"))
	if !hasToken(r, tokenDateToday) {
		t.Fatalf("date keyboard = %+v", r.Buttons)
	}
	r = h.send(Select(tokenDateToday))
	if !hasToken(r, "j:08:00") {
		t.Fatalf("hour keyboard = %+v", r.Buttons)
	}
	r = h.send(Select("j:08:00"))
	if !hasToken(r, "p:tinggi") {
		t.Fatalf("priority keyboard = %+v", r.Buttons)
	}
	r = h.send(Select("p:tinggi"))
	contains(t, r, h.msg.T("create.description_prompt"))
	r = h.send(Text("Rapat tim"))
	contains(t, r, "berhasil dicatat")
	contains(t, r, "Hari Ini")
	h.idle()

	items, _ := h.mem.Search(context.Background(), "Rapat tim")
	if len(items) != 1 {
		t.Fatalf("stored %d items", len(items))
	}
	got, ok := h.get(items[0].ID)
	if !ok {
		t.Fatal("item not retrievable by id")
	}
	if got.Category != "Kerja" || got.Priority != "Tinggi" || got.Description != "Rapat tim" {
		t.Errorf("item = %+v", got)
	}
	if got.Status != agenda.StatusPending || got.Tag != agenda.TagNone {
		t.Errorf("defaults = %q / %q", got.Status, got.Tag)
	}
	if got.Note != "" || got.ExternalEventID != "" {
		t.Errorf("optional fields set: %+v", got)
	}
	if !got.OccursAt.Equal(at(18, 8)) {
		t.Errorf("OccursAt = %v", got.OccursAt)
	}
	if !got.CreatedAt.Equal(fixedNow()) {
		t.Errorf("CreatedAt = %v", got.CreatedAt)
	}
	if !strings.Contains(r.Text, got.ID) {
		t.Errorf("confirmation lacks id: %q", r.Text)
	}
}

func TestCreateCustomInputs(t *testing.T) {
	h := newHarness(t)
	h.send(Command("catat", ""))

	r := h.send(Select("k:custom"))
	contains(t, r, h.msg.T("field.kategori.custom"))
	h.send(Text("  Organisasi  "))

	h.send(Select(tokenDateCustom))
	r = h.send(Text("kapan-kapan"))
	contains(t, r, h.msg.T("field.tanggal.invalid"))
	h.send(Text("20 Juli 2025"))

	h.send(Select("j:custom"))
	r = h.send(Text("25:00"))
	contains(t, r, h.msg.T("field.jam.invalid"))
	h.send(Text("jam 9"))

	h.send(Select("p:rendah"))
	h.send(Text("Rapat #org @ketua jam 10 ruang B"))

	items, _ := h.mem.Range(context.Background(), agenda.Date{Year: 2025, Month: time.July, Day: 20}, agenda.Date{Year: 2025, Month: time.July, Day: 20})
	if len(items) != 1 {
		t.Fatalf("items on 20 July = %d", len(items))
	}
	it := items[0]
	if it.Category != "Organisasi" || it.Priority != "Rendah" {
		t.Errorf("category/priority = %q/%q", it.Category, it.Priority)
	}
	if it.Description != "Rapat ruang B" {
		t.Errorf("Description = %q", it.Description)
	}
	if !it.OccursAt.Equal(time.Date(2025, time.July, 20, 9, 0, 0, 0, wib)) {
		t.Errorf("OccursAt = %v", it.OccursAt)
	}
}

func TestCreateInvalidInputKeepsState(t *testing.T) {
	h := newHarness(t)
	h.send(Command("catat", ""))
	h.send(Select("k:kerja"))

	r := h.send(Select("t:kemarin"))
	contains(t, r, h.msg.T("common.invalid_choice"))
	if !hasToken(r, tokenDateToday) {
		t.Fatal("date keyboard not re-shown")
	}
	r = h.send(Text("besok"))
	contains(t, r, h.msg.T("common.invalid_choice"))

	h.send(Select(tokenDateTomorrow))
	r = h.send(Select("j:99"))
	contains(t, r, h.msg.T("common.invalid_choice"))
	h.send(Select("j:13:00"))
	r = h.send(Select("p:darurat"))
	contains(t, r, h.msg.T("common.invalid_choice"))
	h.send(Select("p:sedang"))
	h.send(Text("Presentasi"))

	items, _ := h.mem.Search(context.Background(), "presentasi")
	if len(items) != 1 {
		t.Fatalf("items = %d", len(items))
	}
	// category chosen before the errors survived
	if items[0].Category != "Kerja" || !items[0].OccursAt.Equal(at(19, 13)) {
		t.Errorf("item = %+v", items[0])
	}
}

func TestCreateEmptyDescriptionReprompts(t *testing.T) {
	h := newHarness(t)
	for _, ev := range []Event{Command("catat", ""), Select("k:kerja"), Select(tokenDateToday), Select("j:08:00"), Select("p:tinggi")} {
		h.send(ev)
	}
	r := h.send(Text("12 #tugas"))
	contains(t, r, h.msg.T("field.deskripsi.invalid"))
	if h.count() != 0 {
		t.Fatal("empty description was committed")
	}
	h.send(Text("Tugas besar"))
	if h.count() != 1 {
		t.Fatal("valid description not committed")
	}
}

func TestCancelFromEveryCreateState(t *testing.T) {
	path := []Event{
		Command("catat", ""),
		Select("k:custom"),
		Text("Organisasi"),
		Select(tokenDateCustom),
		Text("besok"),
		Select("j:custom"),
		Text("14:30"),
		Select("p:tinggi"),
	}
	cancels := map[string]Event{
		"event":   Cancel(),
		"command": Command("batal", ""),
		"button":  Select(tokenCancel),
	}
	for name, cancel := range cancels {
		for n := 1; n <= len(path); n++ {
			h := newHarness(t)
			for _, ev := range path[:n] {
				h.send(ev)
			}
			r := h.send(cancel)
			if r.Text != h.msg.T("common.cancelled") {
				t.Fatalf("%s after %d steps: reply %q", name, n, r.Text)
			}
			h.idle()
			if h.count() != 0 {
				t.Fatalf("%s after %d steps persisted an item", name, n)
			}
		}
	}
}

func TestCancelMidWorkflowLeavesStoreUntouched(t *testing.T) {
	cases := []struct {
		name string
		path []Event
		want string
	}{
		{"edit custom hour after hour change", []Event{
			Select("edit_id:a"), Select("edit_field:jam"), Select("j:10:00"),
			Select("edit_field:jam"), Select("j:custom"),
		}, "edit.cancelled"},
		{"edit menu after category change", []Event{
			Select("edit_id:a"), Select("edit_field:kategori"), Select("k:personal"),
		}, "edit.cancelled"},
		{"edit custom date", []Event{
			Select("edit_id:a"), Select("edit_field:deskripsi"), Text("Rapat divisi"),
			Select("edit_field:tanggal"), Select(tokenDateCustom),
		}, "edit.cancelled"},
		{"edit awaiting id", []Event{Command("edit", "")}, "edit.cancelled"},
		{"view menu", []Event{Command("lihat", "")}, "common.cancelled"},
		{"view custom date", []Event{Command("lihat", ""), Select(tokenViewCustom)}, "common.cancelled"},
		{"status awaiting id", []Event{Command("status", "")}, "common.cancelled"},
		{"status choose", []Event{Command("status", ""), Text("a")}, "common.cancelled"},
		{"search query", []Event{Command("cari", "")}, "common.cancelled"},
		{"delete confirm", []Event{Select("hapus_id:a")}, "delete.cancelled"},
	}
	cancels := map[string]Event{
		"event":   Cancel(),
		"command": Command("batal", ""),
	}
	for _, tc := range cases {
		for how, cancel := range cancels {
			h := newHarness(t)
			before := h.seed(sample("a", 18, 8, "Rapat tim"))
			for _, ev := range tc.path {
				h.send(ev)
			}
			r := h.send(cancel)
			if r.Text != h.msg.T(tc.want) {
				t.Fatalf("%s (%s): reply %q", tc.name, how, r.Text)
			}
			h.idle()

			after, ok := h.get("a")
			if !ok || h.count() != 1 {
				t.Fatalf("%s (%s): item gone", tc.name, how)
			}
			if !after.OccursAt.Equal(before.OccursAt) || after.Category != before.Category ||
				after.Description != before.Description || after.Status != before.Status ||
				after.Priority != before.Priority || after.Tag != before.Tag {
				t.Errorf("%s (%s): item changed\nbefore %+v\nafter  %+v", tc.name, how, before, after)
			}
		}
	}
}

func TestView(t *testing.T) {
	h := newHarness(t)
	h.seed(sample("today-late", 18, 19, "Belajar"))
	h.seed(sample("today-early", 18, 8, "Rapat tim"))
	h.seed(sample("tomorrow", 19, 10, "Kuis"))
	h.seed(sample("week-edge", 25, 10, "Seminar"))
	h.seed(sample("too-far", 26, 10, "Liburan"))
	h.seed(sample("past", 17, 10, "Kemarin"))

	h.send(Command("lihat", ""))
	r := h.send(Select(tokenViewToday))
	if strings.Index(r.Text, "Rapat tim") > strings.Index(r.Text, "Belajar") {
		t.Errorf("items not ordered by time:\n%s", r.Text)
	}
	if strings.Contains(r.Text, "Kuis") {
		t.Errorf("tomorrow leaked into today")
	}
	if len(r.Buttons) != 2 || !hasToken(r, "edit_id:today-early") || !hasToken(r, "hapus_id:today-late") {
		t.Errorf("action buttons = %+v", r.Buttons)
	}
	h.idle()

	h.send(Command("lihat", ""))
	r = h.send(Select(tokenViewTomorrow))
	contains(t, r, "Kuis")
	contains(t, r, "Besok")

	h.send(Command("lihat", ""))
	r = h.send(Select(tokenViewWeek))
	for _, want := range []string{"Rapat tim", "Kuis", "Seminar"} {
		contains(t, r, want)
	}
	if strings.Contains(r.Text, "Liburan") || strings.Contains(r.Text, "Kemarin") {
		t.Errorf("range leaked:\n%s", r.Text)
	}

	h.send(Command("lihat", ""))
	h.send(Select(tokenViewCustom))
	r = h.send(Text("bukan tanggal"))
	contains(t, r, h.msg.T("field.tanggal.invalid"))
	r = h.send(Text("17-07-2025"))
	contains(t, r, "1 hari yang lalu")
	h.idle()

	h.send(Command("lihat", ""))
	h.send(Select(tokenViewCustom))
	r = h.send(Text("1 Agustus 2025"))
	if r.Text != h.msg.T("view.empty") {
		t.Errorf("empty view = %q", r.Text)
	}
	h.idle()
}

func TestEditIdempotent(t *testing.T) {
	h := newHarness(t)
	orig := h.seed(sample("a", 18, 8, "Rapat tim"))

	r := h.send(Select("edit_id:a"))
	contains(t, r, "Rapat tim")
	for _, f := range agenda.EditableFields() {
		if !hasToken(r, "edit_field:"+f.Token()) {
			t.Errorf("menu lacks %s", f.Token())
		}
	}
	if !hasToken(r, tokenEditDone) || !hasToken(r, tokenCancelEdit) {
		t.Fatal("menu lacks done/cancel")
	}

	h.send(Select("edit_field:kategori"))
	r = h.send(Select("k:kerja"))
	contains(t, r, h.msg.T("edit.menu_again"))
	h.send(Select("edit_field:tanggal"))
	h.send(Select(tokenDateToday))
	h.send(Select("edit_field:jam"))
	h.send(Select("j:08:00"))
	h.send(Select("edit_field:status"))
	h.send(Select("status:Belum"))
	r = h.send(Select(tokenEditDone))
	contains(t, r, "berhasil diperbarui")
	h.idle()

	got, _ := h.get("a")
	if !got.OccursAt.Equal(orig.OccursAt) || got.Category != orig.Category || got.Priority != orig.Priority ||
		got.Description != orig.Description || got.Tag != orig.Tag || got.Status != orig.Status ||
		got.Note != orig.Note || got.ExternalEventID != orig.ExternalEventID || !got.CreatedAt.Equal(orig.CreatedAt) {
		t.Errorf("idempotent edit changed the item:\n got %+v\nwant %+v", got, orig)
	}
}

func TestEditComposesDateAndHour(t *testing.T) {
	h := newHarness(t)
	h.seed(sample("a", 18, 8, "Rapat tim"))

	h.send(Select("edit_id:a"))
	h.send(Select("edit_field:jam"))
	h.send(Select("j:custom"))
	h.send(Text("15:45"))
	h.send(Select("edit_field:tanggal"))
	h.send(Select(tokenDateCustom))
	h.send(Text("22 Juli"))
	h.send(Select("edit_field:jam"))
	h.send(Select("j:19:00"))
	h.send(Select(tokenEditDone))

	got, _ := h.get("a")
	if want := time.Date(2025, time.July, 22, 19, 0, 0, 0, wib); !got.OccursAt.Equal(want) {
		t.Errorf("OccursAt = %v, want %v", got.OccursAt, want)
	}
}

func TestEditLoopNothingPersistedBeforeDone(t *testing.T) {
	h := newHarness(t)
	h.seed(sample("a", 18, 8, "Rapat tim"))

	h.send(Select("edit_id:a"))
	h.send(Select("edit_field:deskripsi"))
	h.send(Text("Rapat divisi"))
	h.send(Select("edit_field:tag"))
	h.send(Text("kantor"))
	h.send(Select("edit_field:prioritas"))
	h.send(Select("p:rendah"))

	if got, _ := h.get("a"); got.Description != "Rapat tim" {
		t.Fatalf("draft leaked into store before Done: %+v", got)
	}
	for i, n := range h.calls[1:] {
		if n != 0 {
			t.Fatalf("edit step %d hit the store", i+1)
		}
	}

	r := h.send(Select(tokenCancelEdit))
	if r.Text != h.msg.T("edit.cancelled") {
		t.Errorf("cancel reply = %q", r.Text)
	}
	h.idle()
	if got, _ := h.get("a"); got.Description != "Rapat tim" || got.Tag != agenda.TagNone || got.Priority != "Tinggi" {
		t.Errorf("cancelled edit persisted: %+v", got)
	}
}

func TestEditCommitsEveryRevisedField(t *testing.T) {
	h := newHarness(t)
	h.seed(sample("a", 18, 8, "Rapat tim"))

	h.send(Command("edit", "a"))
	h.send(Select("edit_field:deskripsi"))
	h.send(Text("Rapat divisi 3"))
	h.send(Select("edit_field:tag"))
	h.send(Text("kantor"))
	h.send(Select("edit_field:tag"))
	h.send(Text("Tidak Ada"))
	h.send(Select("edit_field:status"))
	h.send(Select("status:Terlewat"))
	h.send(Select(tokenEditDone))

	got, _ := h.get("a")
	if got.Description != "Rapat divisi" || got.Tag != agenda.TagNone || got.Status != agenda.StatusMissed {
		t.Errorf("item = %+v", got)
	}
}

func TestEditSubFlowCancelReturnsToMenu(t *testing.T) {
	h := newHarness(t)
	h.seed(sample("a", 18, 8, "Rapat tim"))

	h.send(Select("edit_id:a"))
	h.send(Select("edit_field:kategori"))
	h.send(Select("k:custom"))
	r := h.send(Select(tokenCancel))
	contains(t, r, h.msg.T("edit.field_cancelled", h.msg.T("field.kategori.label")))
	if !hasToken(r, tokenEditDone) {
		t.Fatal("menu not re-shown")
	}
	// a second cancel from the menu ends the session
	r = h.send(Select(tokenCancel))
	if r.Text != h.msg.T("edit.cancelled") {
		t.Errorf("menu cancel = %q", r.Text)
	}
	h.idle()
}

func TestEditTypedIDReprompts(t *testing.T) {
	h := newHarness(t)
	h.seed(sample("a", 18, 8, "Rapat tim"))

	r := h.send(Command("edit", ""))
	contains(t, r, "Event ID")
	r = h.send(Text("nope"))
	contains(t, r, h.msg.T("edit.not_found", "nope"))
	r = h.send(Text(" a "))
	if !hasToken(r, "edit_field:kategori") {
		t.Fatalf("menu not shown after valid id: %+v", r)
	}
	r = h.send(Text("ubah"))
	contains(t, r, h.msg.T("common.invalid_choice"))
}

func TestEditByMissingTokenEnds(t *testing.T) {
	h := newHarness(t)
	r := h.send(Select("edit_id:ghost"))
	contains(t, r, h.msg.T("item.gone", "ghost"))
	h.idle()
}

func TestEditDoneAfterConcurrentDelete(t *testing.T) {
	h := newHarness(t)
	h.seed(sample("a", 18, 8, "Rapat tim"))
	h.send(Select("edit_id:a"))
	if _, err := h.mem.Delete(context.Background(), "a"); err != nil {
		t.Fatal(err)
	}
	r := h.send(Select(tokenEditDone))
	contains(t, r, h.msg.T("edit.save_failed", "a"))
	h.idle()
	if h.count() != 0 {
		t.Error("Done re-inserted a deleted item")
	}
}

func TestDelete(t *testing.T) {
	h := newHarness(t)
	h.seed(sample("a", 18, 8, "Rapat tim"))

	r := h.send(Select("hapus_id:ghost"))
	contains(t, r, h.msg.T("item.gone", "ghost"))
	h.idle()

	r = h.send(Select("hapus_id:a"))
	contains(t, r, "Rapat tim")
	if !hasToken(r, tokenConfirmYes) || !hasToken(r, tokenConfirmNo) {
		t.Fatalf("confirm keyboard = %+v", r.Buttons)
	}
	r = h.send(Select(tokenConfirmNo))
	if r.Text != h.msg.T("delete.cancelled") {
		t.Errorf("no = %q", r.Text)
	}
	if _, ok := h.get("a"); !ok {
		t.Fatal("declined delete removed the item")
	}

	h.send(Select("hapus_id:a"))
	r = h.send(Text("ya"))
	contains(t, r, h.msg.T("common.invalid_choice"))
	r = h.send(Select(tokenConfirmYes))
	contains(t, r, h.msg.T("delete.done", "a"))
	if _, ok := h.get("a"); ok {
		t.Fatal("item still present after delete")
	}
	h.idle()
}

func TestDeleteOfVanishedItemIsSoftFailure(t *testing.T) {
	h := newHarness(t)
	h.seed(sample("a", 18, 8, "Rapat tim"))
	h.send(Select("hapus_id:a"))
	_, _ = h.mem.Delete(context.Background(), "a")
	r := h.send(Select(tokenConfirmYes))
	contains(t, r, h.msg.T("delete.failed", "a"))
	h.idle()
}

func TestStatusChange(t *testing.T) {
	h := newHarness(t)
	h.seed(sample("a", 18, 8, "Rapat tim"))

	h.send(Command("status", ""))
	r := h.send(Text("ghost"))
	contains(t, r, h.msg.T("status.not_found", "ghost"))
	r = h.send(Text("a"))
	contains(t, r, "Belum")
	if !hasToken(r, "status:Selesai") {
		t.Fatalf("status keyboard = %+v", r.Buttons)
	}
	r = h.send(Select("status:Entah"))
	contains(t, r, h.msg.T("common.invalid_choice"))
	r = h.send(Select("status:Selesai"))
	contains(t, r, h.msg.T("status.done", "a", "Selesai"))
	h.idle()

	got, _ := h.get("a")
	if got.Status != agenda.StatusDone || got.Description != "Rapat tim" {
		t.Errorf("item = %+v", got)
	}
}

func TestStatusWithArgument(t *testing.T) {
	h := newHarness(t)
	h.seed(sample("a", 18, 8, "Rapat tim"))
	r := h.send(Command("status", "a"))
	if !hasToken(r, "status:Terlewat") {
		t.Fatalf("status keyboard = %+v", r.Buttons)
	}
	h.send(Select("status:Terlewat"))
	if got, _ := h.get("a"); got.Status != agenda.StatusMissed {
		t.Errorf("Status = %q", got.Status)
	}
}

func TestSearch(t *testing.T) {
	h := newHarness(t)
	h.seed(sample("a", 18, 8, "Rapat tim"))
	b := sample("b", 20, 8, "Belanja")
	b.Category = "Personal"
	h.seed(b)

	h.send(Command("cari", ""))
	r := h.send(Text("   "))
	contains(t, r, h.msg.T("search.empty_query"))
	r = h.send(Text("RAPAT"))
	contains(t, r, "Rapat tim")
	if strings.Contains(r.Text, "Belanja") || !hasToken(r, "edit_id:a") || !hasToken(r, "hapus_id:a") {
		t.Errorf("search result = %+v", r)
	}
	h.idle()

	r = h.send(Command("cari", "personal"))
	contains(t, r, "Belanja")
	h.idle()

	r = h.send(Command("cari", "zzz"))
	if r.Text != h.msg.T("search.none", "zzz") {
		t.Errorf("no match = %q", r.Text)
	}
}
