// Package i18n translates chat replies. Message keys are the English
// format strings; English needs no catalog entries.
package i18n

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var supported = []language.Tag{language.English, language.Ukrainian}

func init() {
	for key, msg := range ukrainian {
		if err := message.SetString(language.Ukrainian, key, msg); err != nil {
			panic(fmt.Sprintf("i18n: register %q: %v", key, err))
		}
	}
}

// Localizer formats reply strings for one locale.
type Localizer struct {
	tag     language.Tag
	printer *message.Printer
}

// New returns a Localizer for locale, falling back to English for anything
// not in the supported set.
func New(locale string) *Localizer {
	tag := match(locale)
	return &Localizer{tag: tag, printer: message.NewPrinter(tag)}
}

func match(locale string) language.Tag {
	parsed, err := language.Parse(strings.TrimSpace(locale))
	if err != nil {
		return language.English
	}
	base, _ := parsed.Base()
	for _, tag := range supported {
		if b, _ := tag.Base(); b == base {
			return tag
		}
	}
	return language.English
}

func (l *Localizer) Locale() string {
	if l == nil {
		return language.English.String()
	}
	return l.tag.String()
}

// T formats key with args. Pass numbers pre-formatted as strings: the
// printer applies locale digit grouping to numeric verbs.
func (l *Localizer) T(key string, args ...any) string {
	if l == nil {
		return fmt.Sprintf(key, args...)
	}
	return l.printer.Sprintf(key, args...)
}
