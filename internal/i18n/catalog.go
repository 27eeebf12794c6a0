// Package i18n loads the reply texts of the bot from embedded YAML files.
package i18n

import (
	"embed"
	"fmt"
	"path"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed locales/*.yaml
var localeFS embed.FS

// DefaultLocale is used when the configuration does not name one.
const DefaultLocale = "id"

// Catalog maps dotted message keys ("edit.menu") to format strings.
type Catalog struct {
	locale   string
	messages map[string]string
}

// Locales lists the embedded locale names.
func Locales() []string {
	entries, err := localeFS.ReadDir("locales")
	if err != nil {
		return nil
	}
	var out []string
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".yaml") {
			out = append(out, strings.TrimSuffix(e.Name(), ".yaml"))
		}
	}
	sort.Strings(out)
	return out
}

// Load reads one embedded locale. An empty name selects DefaultLocale.
func Load(locale string) (*Catalog, error) {
	locale = strings.ToLower(strings.TrimSpace(locale))
	if locale == "" {
		locale = DefaultLocale
	}
	data, err := localeFS.ReadFile(path.Join("locales", locale+".yaml"))
	if err != nil {
		return nil, fmt.Errorf("unknown locale %q", locale)
	}
	var tree map[string]any
	if err := yaml.Unmarshal(data, &tree); err != nil {
		return nil, fmt.Errorf("parse locale %s: %w", locale, err)
	}
	c := &Catalog{locale: locale, messages: make(map[string]string)}
	flatten("", tree, c.messages)
	return c, nil
}

// MustLoad is Load for locales known to be embedded.
func MustLoad(locale string) *Catalog {
	c, err := Load(locale)
	if err != nil {
		panic(err)
	}
	return c
}

func (c *Catalog) Locale() string { return c.locale }

// T formats the message for key. Missing keys render as the key itself so a
// gap in a locale file is visible rather than silent.
func (c *Catalog) T(key string, args ...any) string {
	msg, ok := c.messages[key]
	if !ok {
		return key
	}
	if len(args) == 0 {
		return msg
	}
	return fmt.Sprintf(msg, args...)
}

// Has reports whether key is defined.
func (c *Catalog) Has(key string) bool {
	_, ok := c.messages[key]
	return ok
}

// Keys returns every defined key, sorted.
func (c *Catalog) Keys() []string {
	keys := make([]string, 0, len(c.messages))
	for k := range c.messages {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func flatten(prefix string, node any, out map[string]string) {
	join := func(k string) string {
		if prefix == "" {
			return k
		}
		return prefix + "." + k
	}
	switch v := node.(type) {
	case map[string]any:
		for k, child := range v {
			flatten(join(k), child, out)
		}
	case map[any]any:
		for k, child := range v {
			flatten(join(fmt.Sprint(k)), child, out)
		}
	case nil:
		out[prefix] = ""
	default:
		out[prefix] = fmt.Sprint(v)
	}
}
