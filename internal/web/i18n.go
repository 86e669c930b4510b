package web

import (
	"embed"
	"encoding/json"
	"fmt"
	"path"
	"sort"
	"strings"

	"golang.org/x/text/language"
)

//go:embed locales/*.json
var localeFS embed.FS

// DefaultLang is used when neither the cookie nor Accept-Language selects a supported locale.
const DefaultLang = "en"

// Locale is a selectable interface language.
type Locale struct {
	Code string
	Name string
}

// Catalog holds the translated strings of every supported locale.
type Catalog struct {
	messages map[string]map[string]string
	locales  []Locale
	tags     []language.Tag
	matcher  language.Matcher
}

// LoadCatalog reads the embedded locale files. Each file is a flat key → string map
// named after its BCP 47 code and must carry a "locale.name" entry.
func LoadCatalog() (*Catalog, error) {
	entries, err := localeFS.ReadDir("locales")
	if err != nil {
		return nil, fmt.Errorf("web.LoadCatalog: %w", err)
	}

	c := &Catalog{messages: make(map[string]map[string]string)}
	for _, entry := range entries {
		raw, err := localeFS.ReadFile(path.Join("locales", entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("web.LoadCatalog read %s: %w", entry.Name(), err)
		}
		var msgs map[string]string
		if err := json.Unmarshal(raw, &msgs); err != nil {
			return nil, fmt.Errorf("web.LoadCatalog parse %s: %w", entry.Name(), err)
		}
		code := strings.TrimSuffix(entry.Name(), ".json")
		c.messages[code] = msgs
		c.locales = append(c.locales, Locale{Code: code, Name: msgs["locale.name"]})
	}
	if _, ok := c.messages[DefaultLang]; !ok {
		return nil, fmt.Errorf("web.LoadCatalog: missing %s locale", DefaultLang)
	}

	// The default goes first so that the matcher falls back to it.
	sort.Slice(c.locales, func(i, j int) bool {
		if c.locales[i].Code == DefaultLang || c.locales[j].Code == DefaultLang {
			return c.locales[i].Code == DefaultLang
		}
		return c.locales[i].Code < c.locales[j].Code
	})
	for _, l := range c.locales {
		c.tags = append(c.tags, language.Make(l.Code))
	}
	c.matcher = language.NewMatcher(c.tags)
	return c, nil
}

// Locales lists the supported locales, default first.
func (c *Catalog) Locales() []Locale {
	out := make([]Locale, len(c.locales))
	copy(out, c.locales)
	return out
}

// Has reports whether code is a supported locale.
func (c *Catalog) Has(code string) bool {
	_, ok := c.messages[code]
	return ok
}

// Match picks the locale for a request: a supported preference cookie wins,
// then the best Accept-Language match, then DefaultLang.
func (c *Catalog) Match(cookie, acceptLanguage string) string {
	if c.Has(cookie) {
		return cookie
	}
	prefs, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(prefs) == 0 {
		return DefaultLang
	}
	_, idx, conf := c.matcher.Match(prefs...)
	if conf == language.No {
		return DefaultLang
	}
	return c.locales[idx].Code
}

// T translates key into lang, falling back to the default locale and then to
// the key itself. Extra args are applied with fmt.Sprintf.
func (c *Catalog) T(lang, key string, args ...any) string {
	msg, ok := c.messages[lang][key]
	if !ok {
		msg, ok = c.messages[DefaultLang][key]
	}
	if !ok {
		msg = key
	}
	if len(args) > 0 {
		return fmt.Sprintf(msg, args...)
	}
	return msg
}
