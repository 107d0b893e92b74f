// Package i18n resolves request locales and translates UI strings and validation errors.
package i18n

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/locales"
	"github.com/go-playground/locales/en"
	"github.com/go-playground/locales/ru"
	"github.com/go-playground/locales/zh"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
	ru_translations "github.com/go-playground/validator/v10/translations/ru"
	zh_translations "github.com/go-playground/validator/v10/translations/zh"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Message keys.
const (
	KeyFollow   = "common.follow"
	KeyUnfollow = "common.unfollow"
)

// DefaultLocale is served when nothing in the request matches.
const DefaultLocale = "en"

type bundle struct {
	tag      language.Tag
	locale   locales.Translator
	messages map[string]string
	register func(*validator.Validate, ut.Translator) error
}

var bundles = []bundle{
	{
		tag:    language.English,
		locale: en.New(),
		messages: map[string]string{
			KeyFollow:   "Follow",
			KeyUnfollow: "Unfollow",
		},
		register: en_translations.RegisterDefaultTranslations,
	},
	{
		tag:    language.Russian,
		locale: ru.New(),
		messages: map[string]string{
			KeyFollow:   "Подписаться",
			KeyUnfollow: "Отписаться",
		},
		register: ru_translations.RegisterDefaultTranslations,
	},
	{
		tag:    language.Chinese,
		locale: zh.New(),
		messages: map[string]string{
			KeyFollow:   "关注",
			KeyUnfollow: "取消关注",
		},
		register: zh_translations.RegisterDefaultTranslations,
	},
}

// Translator holds one universal-translator per supported locale.
type Translator struct {
	uni     *ut.UniversalTranslator
	matcher language.Matcher
	tags    []language.Tag
	names   []string
}

// New loads every bundle. When v is non-nil it also registers the validator messages
// on v and makes v report json field names, so errors name fields as clients send them.
func New(v *validator.Validate) (*Translator, error) {
	if v != nil {
		v.RegisterTagNameFunc(jsonFieldName)
	}
	fallback := bundles[0].locale
	supported := make([]locales.Translator, 0, len(bundles))
	for _, b := range bundles {
		supported = append(supported, b.locale)
	}
	tr := &Translator{uni: ut.New(fallback, supported...)}

	for _, b := range bundles {
		name := b.locale.Locale()
		t, ok := tr.uni.GetTranslator(name)
		if !ok {
			return nil, fmt.Errorf("translator for %s not registered", name)
		}
		for key, text := range b.messages {
			if err := t.Add(key, text, false); err != nil {
				return nil, fmt.Errorf("add %s/%s: %w", name, key, err)
			}
		}
		if v != nil {
			if err := b.register(v, t); err != nil {
				return nil, fmt.Errorf("register validator translations for %s: %w", name, err)
			}
		}
		tr.tags = append(tr.tags, b.tag)
		tr.names = append(tr.names, name)
	}
	tr.matcher = language.NewMatcher(tr.tags)
	return tr, nil
}

// Locales lists the supported locale names, default first.
func (t *Translator) Locales() []string {
	out := make([]string, len(t.names))
	copy(out, t.names)
	return out
}

// Match picks the best supported locale. An explicit locale wins over the
// Accept-Language header; both may be empty.
func (t *Translator) Match(explicit, acceptLanguage string) string {
	var prefs []language.Tag
	if explicit != "" {
		if tag, err := language.Parse(explicit); err == nil {
			prefs = append(prefs, tag)
		}
	}
	if acceptLanguage != "" {
		if tags, _, err := language.ParseAcceptLanguage(acceptLanguage); err == nil {
			prefs = append(prefs, tags...)
		}
	}
	if len(prefs) == 0 {
		return DefaultLocale
	}
	_, idx, conf := t.matcher.Match(prefs...)
	if conf == language.No {
		return DefaultLocale
	}
	return t.names[idx]
}

// T translates key for locale. Unknown locales use the default; unknown keys return the key.
func (t *Translator) T(locale, key string) string {
	tr := t.translator(locale)
	s, err := tr.T(key)
	if err != nil {
		return key
	}
	return s
}

// Upper translates key and upper-cases it with the locale's casing rules.
func (t *Translator) Upper(locale, key string) string {
	return cases.Upper(t.tag(locale)).String(t.T(locale, key))
}

// FollowLabel is the label for a follow control in the given state.
func (t *Translator) FollowLabel(locale string, following bool) string {
	if following {
		return t.Upper(locale, KeyUnfollow)
	}
	return t.Upper(locale, KeyFollow)
}

// TranslateValidation renders validator errors keyed by lower-cased field name.
// It returns nil when err is not a validation error.
func (t *Translator) TranslateValidation(locale string, err error) map[string]string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}
	tr := t.translator(locale)
	out := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		out[strings.ToLower(fe.Field())] = fe.Translate(tr)
	}
	return out
}

func jsonFieldName(f reflect.StructField) string {
	name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
	if name == "-" {
		return ""
	}
	return name
}

func (t *Translator) translator(locale string) ut.Translator {
	tr, _ := t.uni.GetTranslator(locale)
	return tr
}

func (t *Translator) tag(locale string) language.Tag {
	for i, n := range t.names {
		if n == locale {
			return t.tags[i]
		}
	}
	return language.English
}
