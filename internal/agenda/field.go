package agenda

import "time"

// Field enumerates the attributes a user can revise in an edit session.
type Field int

const (
	FieldCategory Field = iota + 1
	FieldDate
	FieldHour
	FieldPriority
	FieldDescription
	FieldTag
	FieldStatus
)

type fieldInfo struct {
	token  string
	column string
}

var fields = map[Field]fieldInfo{
	FieldCategory:    {token: "kategori", column: "category"},
	FieldDate:        {token: "tanggal", column: "occurs_at"},
	FieldHour:        {token: "jam", column: "occurs_at"},
	FieldPriority:    {token: "prioritas", column: "priority"},
	FieldDescription: {token: "deskripsi", column: "description"},
	FieldTag:         {token: "tag", column: "tag"},
	FieldStatus:      {token: "status", column: "status"},
}

// EditableFields lists the fields in menu order.
func EditableFields() []Field {
	return []Field{FieldCategory, FieldDate, FieldHour, FieldPriority, FieldDescription, FieldTag, FieldStatus}
}

// FieldFromToken resolves a menu token such as "jam".
func FieldFromToken(token string) (Field, bool) {
	for f, info := range fields {
		if info.token == token {
			return f, true
		}
	}
	return 0, false
}

// Token is the short machine token used in edit-menu selections.
func (f Field) Token() string { return fields[f].token }

// Column is the storage column that holds the field.
func (f Field) Column() string { return fields[f].column }

func (f Field) Valid() bool {
	_, ok := fields[f]
	return ok
}

func (f Field) String() string { return f.Token() }

// Temporal reports whether the field is stored in occurs_at.
func (f Field) Temporal() bool { return f == FieldDate || f == FieldHour }

// FieldUpdate is a single-field change. It can only be built from a Field,
// so the set of writable columns is closed.
type FieldUpdate struct {
	field Field
	text  string
	at    time.Time
}

// Snapshot captures the current value of f in it as an update.
func (f Field) Snapshot(it Item) FieldUpdate {
	u := FieldUpdate{field: f}
	switch f {
	case FieldCategory:
		u.text = it.Category
	case FieldDate, FieldHour:
		u.at = it.OccursAt
	case FieldPriority:
		u.text = it.Priority
	case FieldDescription:
		u.text = it.Description
	case FieldTag:
		u.text = it.Tag
	case FieldStatus:
		u.text = string(it.Status)
	}
	return u
}

// StatusUpdate builds the single-field update that sets s.
func StatusUpdate(s Status) FieldUpdate {
	return FieldUpdate{field: FieldStatus, text: string(s)}
}

func (u FieldUpdate) Field() Field    { return u.field }
func (u FieldUpdate) Text() string    { return u.text }
func (u FieldUpdate) Time() time.Time { return u.at }

// Apply writes the update into it.
func (u FieldUpdate) Apply(it *Item) {
	switch u.field {
	case FieldCategory:
		it.Category = u.text
	case FieldDate, FieldHour:
		it.OccursAt = u.at
	case FieldPriority:
		it.Priority = u.text
	case FieldDescription:
		it.Description = u.text
	case FieldTag:
		it.Tag = u.text
	case FieldStatus:
		it.Status = Status(u.text)
	}
}
