package dialog

import "sort"

// starter opens a workflow. A nil flow means the workflow already ended.
type starter func(t *turn) (flow, []Reply)

// CommandSpec describes a chat command.
type CommandSpec struct {
	Name string
	// DescriptionKey is the i18n key of the one-line help text.
	DescriptionKey string
	// Order positions the command in help and in the transport's menu.
	Order int

	start starter
	// keep leaves the current session untouched (help, start).
	keep bool
	// cancel marks the cancel command.
	cancel bool
}

// Registry manages the set of available commands.
type Registry struct {
	Commands map[string]CommandSpec
}

func NewRegistry() *Registry {
	return &Registry{Commands: make(map[string]CommandSpec)}
}

func (r *Registry) Register(c CommandSpec) {
	r.Commands[c.Name] = c
}

func (r *Registry) Get(name string) (CommandSpec, bool) {
	c, ok := r.Commands[name]
	return c, ok
}

// List returns the commands in menu order.
func (r *Registry) List() []CommandSpec {
	out := make([]CommandSpec, 0, len(r.Commands))
	for _, c := range r.Commands {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Order == out[j].Order {
			return out[i].Name < out[j].Name
		}
		return out[i].Order < out[j].Order
	})
	return out
}

func defaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(CommandSpec{Name: "catat", DescriptionKey: "command.catat", Order: 1, start: startCreate})
	r.Register(CommandSpec{Name: "lihat", DescriptionKey: "command.lihat", Order: 2, start: startView})
	r.Register(CommandSpec{Name: "edit", DescriptionKey: "command.edit", Order: 3, start: startEditCommand})
	r.Register(CommandSpec{Name: "cari", DescriptionKey: "command.cari", Order: 4, start: startSearch})
	r.Register(CommandSpec{Name: "status", DescriptionKey: "command.status", Order: 5, start: startStatus})
	r.Register(CommandSpec{Name: "batal", DescriptionKey: "command.batal", Order: 6, cancel: true})
	r.Register(CommandSpec{Name: "start", DescriptionKey: "command.start", Order: 7, start: startGreeting, keep: true})
	r.Register(CommandSpec{Name: "help", DescriptionKey: "command.help", Order: 8, start: startHelp, keep: true})
	return r
}

// CommandInfo is a localized command entry for transports.
type CommandInfo struct {
	Name        string
	Description string
}
