package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/maxviazov/author-feed-service/internal/i18n"
)

const localeKey = "locale"

// LocaleMatcher picks a supported locale from an explicit choice and Accept-Language.
type LocaleMatcher interface {
	Match(explicit, acceptLanguage string) string
}

// Locale resolves the request locale from ?locale= or Accept-Language and echoes it
// in Content-Language.
func Locale(m LocaleMatcher) gin.HandlerFunc {
	return func(c *gin.Context) {
		loc := m.Match(c.Query("locale"), c.GetHeader("Accept-Language"))
		c.Set(localeKey, loc)
		c.Header("Content-Language", loc)
		c.Next()
	}
}

// LocaleFrom returns the resolved locale, defaulting to i18n.DefaultLocale.
func LocaleFrom(c *gin.Context) string {
	if loc := c.GetString(localeKey); loc != "" {
		return loc
	}
	return i18n.DefaultLocale
}
