// Package i18n renders the UI copy of the event browser from embedded
// message files.
package i18n

import (
	"embed"

	"github.com/nicksnyder/go-i18n/v2/i18n"
	"github.com/pelletier/go-toml/v2"
	"golang.org/x/text/language"

	appLog "notify/internal/log"
)

//go:embed active.*.toml
var localeFS embed.FS

// Translator is a thin wrapper around go-i18n's Bundle/Localizer.
type Translator struct {
	bundle          *i18n.Bundle
	defaultLanguage language.Tag
	matcher         language.Matcher
}

// NewTranslator builds a Translator with defaultLocale (e.g. "en") as the
// fallback language.
func NewTranslator(defaultLocale string) *Translator {
	tag, err := language.Parse(defaultLocale)
	if err != nil {
		tag = language.English
	}
	bundle := i18n.NewBundle(tag)
	bundle.RegisterUnmarshalFunc("toml", toml.Unmarshal)

	for _, file := range []string{"active.en.toml", "active.fr.toml"} {
		if _, err := bundle.LoadMessageFileFS(localeFS, file); err != nil {
			appLog.Error("i18n: failed to load message file", err, "file", file)
		}
	}

	// The default goes first so that unmatched requests fall back to it.
	supported := []language.Tag{tag}
	for _, lt := range bundle.LanguageTags() {
		if lt != tag {
			supported = append(supported, lt)
		}
	}

	return &Translator{
		bundle:          bundle,
		defaultLanguage: tag,
		matcher:         language.NewMatcher(supported),
	}
}

// Match picks the best supported locale for an Accept-Language header value
// and returns its base tag (e.g. "fr").
func (t *Translator) Match(acceptLanguage string) string {
	if acceptLanguage == "" {
		return t.DefaultLocale()
	}
	tag, _ := language.MatchStrings(t.matcher, acceptLanguage)
	base, _ := tag.Base()
	return base.String()
}

// DefaultLocale returns the fallback locale.
func (t *Translator) DefaultLocale() string {
	return t.defaultLanguage.String()
}

// T renders the message identified by key for the given locale, which may
// be a single tag or an Accept-Language header value. Missing keys fall
// back to the default locale, then to the key itself.
func (t *Translator) T(locale, key string, data map[string]any) string {
	if key == "" {
		return ""
	}

	languages := []string{}
	if locale != "" {
		languages = append(languages, locale)
	}
	languages = append(languages, t.defaultLanguage.String())

	localizer := i18n.NewLocalizer(t.bundle, languages...)
	msg, err := localizer.Localize(&i18n.LocalizeConfig{
		MessageID:    key,
		TemplateData: data,
	})
	if err != nil {
		appLog.Debug("i18n: localize failed", "key", key, "locales", languages, "err", err)
		return key
	}
	return msg
}

// For binds a locale, for use as a template function.
func (t *Translator) For(locale string) func(key string, kv ...any) string {
	return func(key string, kv ...any) string {
		var data map[string]any
		if len(kv) > 0 {
			data = make(map[string]any, len(kv)/2)
			for i := 0; i+1 < len(kv); i += 2 {
				if k, ok := kv[i].(string); ok {
					data[k] = kv[i+1]
				}
			}
		}
		return t.T(locale, key, data)
	}
}
