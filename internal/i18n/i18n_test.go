package i18n

import (
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTranslator(t *testing.T) (*Translator, *validator.Validate) {
	t.Helper()
	v := validator.New()
	tr, err := New(v)
	require.NoError(t, err)
	return tr, v
}

func TestFollowLabel(t *testing.T) {
	tr, _ := newTranslator(t)
	cases := []struct {
		locale    string
		following bool
		want      string
	}{
		{"en", false, "FOLLOW"},
		{"en", true, "UNFOLLOW"},
		{"ru", false, "ПОДПИСАТЬСЯ"},
		{"ru", true, "ОТПИСАТЬСЯ"},
		{"zh", false, "关注"},
		{"zh", true, "取消关注"},
		{"xx", true, "UNFOLLOW"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, tr.FollowLabel(tc.locale, tc.following), "%s/%v", tc.locale, tc.following)
	}
}

func TestT_UnknownKeyReturnsKey(t *testing.T) {
	tr, _ := newTranslator(t)
	assert.Equal(t, "common.missing", tr.T("en", "common.missing"))
	assert.Equal(t, "Follow", tr.T("en", KeyFollow))
}

func TestMatch(t *testing.T) {
	tr, _ := newTranslator(t)
	cases := []struct {
		name     string
		explicit string
		header   string
		want     string
	}{
		{"nothing", "", "", "en"},
		{"explicit wins", "ru", "zh-CN,zh;q=0.9", "ru"},
		{"header", "", "ru-RU,ru;q=0.9,en;q=0.8", "ru"},
		{"chinese region", "", "zh-CN", "zh"},
		{"unsupported", "", "fr-FR", "en"},
		{"garbage explicit falls to header", "!!", "zh", "zh"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tr.Match(tc.explicit, tc.header))
		})
	}
	assert.Equal(t, []string{"en", "ru", "zh"}, tr.Locales())
}

func TestTranslateValidation(t *testing.T) {
	tr, v := newTranslator(t)
	type input struct {
		Title string `validate:"required"`
	}
	err := v.Struct(input{})
	require.Error(t, err)

	msgs := tr.TranslateValidation("en", err)
	require.Contains(t, msgs, "title")
	assert.Contains(t, msgs["title"], "required")

	assert.Nil(t, tr.TranslateValidation("en", assert.AnError))
}

func TestTranslateValidation_JSONNamesAndLocale(t *testing.T) {
	tr, v := newTranslator(t)
	type input struct {
		Headline string `json:"title" validate:"required"`
		Body     string `json:"excerpt,omitempty" validate:"max=3"`
	}
	err := v.Struct(input{Body: "too long"})
	require.Error(t, err)

	msgs := tr.TranslateValidation("ru", err)
	assert.Equal(t, "title обязательное поле", msgs["title"])
	assert.Contains(t, msgs, "excerpt")

	msgs = tr.TranslateValidation("en", err)
	assert.Equal(t, "title is a required field", msgs["title"])
}
