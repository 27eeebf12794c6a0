package agenda

import "strings"

// Option is one preset choice paired with its machine token.
type Option struct {
	Label string
	Token string
}

// Catalog is a closed list of preset options sharing a token prefix.
type Catalog struct {
	Prefix  string
	Options []Option
	// Custom is true when the catalog also offers free-text entry.
	Custom bool
}

var (
	Categories = Catalog{
		Prefix: "k",
		Options: []Option{
			{Label: "Kuliah", Token: "k:kuliah"},
			{Label: "Kerja", Token: "k:kerja"},
			{Label: "Personal", Token: "k:personal"},
			{Label: "Project", Token: "k:project"},
		},
		Custom: true,
	}

	Priorities = Catalog{
		Prefix: "p",
		Options: []Option{
			{Label: "Rendah", Token: "p:rendah"},
			{Label: "Sedang", Token: "p:sedang"},
			{Label: "Tinggi", Token: "p:tinggi"},
		},
	}

	Hours = Catalog{
		Prefix: "j",
		Options: []Option{
			{Label: "08:00", Token: "j:08:00"},
			{Label: "10:00", Token: "j:10:00"},
			{Label: "13:00", Token: "j:13:00"},
			{Label: "15:00", Token: "j:15:00"},
			{Label: "19:00", Token: "j:19:00"},
			{Label: "21:00", Token: "j:21:00"},
		},
		Custom: true,
	}

	Statuses = Catalog{
		Prefix: "status",
		Options: []Option{
			{Label: string(StatusPending), Token: "status:" + string(StatusPending)},
			{Label: string(StatusDone), Token: "status:" + string(StatusDone)},
			{Label: string(StatusMissed), Token: "status:" + string(StatusMissed)},
		},
	}
)

// CustomToken is the token that switches to free-text entry, or "" when
// the catalog is closed.
func (c Catalog) CustomToken() string {
	if !c.Custom {
		return ""
	}
	return c.Prefix + ":custom"
}

// Owns reports whether token carries this catalog's prefix.
func (c Catalog) Owns(token string) bool {
	return strings.HasPrefix(token, c.Prefix+":")
}

// Value strips the catalog prefix from token ("p:tinggi" -> "tinggi").
func (c Catalog) Value(token string) (string, bool) {
	if !c.Owns(token) {
		return "", false
	}
	return strings.TrimPrefix(token, c.Prefix+":"), true
}

// Lookup finds the preset option carrying token.
func (c Catalog) Lookup(token string) (Option, bool) {
	for _, o := range c.Options {
		if o.Token == token {
			return o, true
		}
	}
	return Option{}, false
}

// ParseStatus resolves a status label case-insensitively.
func ParseStatus(s string) (Status, bool) {
	for _, st := range []Status{StatusPending, StatusDone, StatusMissed} {
		if strings.EqualFold(string(st), strings.TrimSpace(s)) {
			return st, true
		}
	}
	return "", false
}
