// Package i18n renders user-facing messages from embedded YAML catalogs.
// Domain packages classify; this package turns a key into text for the
// language the client asked for.
package i18n

import (
	"embed"
	"fmt"
	"strconv"
	"strings"

	"profile_portal_backend/platform/phone"

	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

//go:embed locales/*.yaml
var localeFS embed.FS

var (
	// Default is used when Accept-Language matches nothing supported.
	Default = language.MustParse("zh-TW")

	supported = []language.Tag{Default, language.English}
)

// Catalog holds flattened messages per language ("phone.EMPTY" -> text).
type Catalog struct {
	messages map[language.Tag]map[string]string
	matcher  language.Matcher
}

// Load parses the embedded catalogs.
func Load() (*Catalog, error) {
	c := &Catalog{
		messages: make(map[language.Tag]map[string]string, len(supported)),
		matcher:  language.NewMatcher(supported),
	}
	for _, tag := range supported {
		data, err := localeFS.ReadFile("locales/" + tag.String() + ".yaml")
		if err != nil {
			return nil, fmt.Errorf("read catalog %s: %w", tag, err)
		}
		var tree map[string]any
		if err := yaml.Unmarshal(data, &tree); err != nil {
			return nil, fmt.Errorf("parse catalog %s: %w", tag, err)
		}
		flat := make(map[string]string)
		flatten("", tree, flat)
		c.messages[tag] = flat
	}
	return c, nil
}

// MustLoad is Load for program start-up.
func MustLoad() *Catalog {
	c, err := Load()
	if err != nil {
		panic("failed to load message catalogs: " + err.Error())
	}
	return c
}

// Match picks the supported language for an Accept-Language header value.
func (c *Catalog) Match(acceptLanguage string) language.Tag {
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return Default
	}
	_, idx, conf := c.matcher.Match(tags...)
	if conf == language.No {
		return Default
	}
	return supported[idx]
}

// T returns the message for key, substituting {name} placeholders from args.
// Missing keys fall back to the default language, then to the key itself.
func (c *Catalog) T(lang language.Tag, key string, args map[string]string) string {
	msg, ok := c.messages[lang][key]
	if !ok {
		msg, ok = c.messages[Default][key]
	}
	if !ok {
		return key
	}
	for name, value := range args {
		msg = strings.ReplaceAll(msg, "{"+name+"}", value)
	}
	return msg
}

// Phone renders the message for a failed phone validation.
func (c *Catalog) Phone(lang language.Tag, res phone.Result) string {
	if res.OK() {
		return ""
	}
	return c.T(lang, "phone."+res.Kind.String(), map[string]string{
		"length": strconv.Itoa(res.Actual),
	})
}

func flatten(prefix string, node map[string]any, out map[string]string) {
	for k, v := range node {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		switch typed := v.(type) {
		case map[string]any:
			flatten(key, typed, out)
		case string:
			out[key] = typed
		default:
			out[key] = fmt.Sprint(typed)
		}
	}
}
