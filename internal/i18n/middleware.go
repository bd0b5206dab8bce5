package i18n

import (
	"github.com/gin-gonic/gin"
	"github.com/nicksnyder/go-i18n/v2/i18n"
)

const (
	// LocalizerKey is the gin.Context key holding the request Localizer.
	LocalizerKey = "localizer"
	// LangKey is the gin.Context key holding the resolved language.
	LangKey = "lang"
)

// Middleware resolves the request language from Accept-Language and stores a
// Localizer in the context.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		acceptLang := c.GetHeader("Accept-Language")
		c.Set(LocalizerKey, GetLocalizer(acceptLang))
		c.Set(LangKey, normalizeLanguageCode(acceptLang))
		c.Next()
	}
}

// GetLocalizerFromContext returns the request Localizer, or the en-US
// default when the middleware did not run.
func GetLocalizerFromContext(c *gin.Context) *i18n.Localizer {
	if localizer, exists := c.Get(LocalizerKey); exists {
		if l, ok := localizer.(*i18n.Localizer); ok {
			return l
		}
	}
	return GetLocalizer("en-US")
}

// Message translates a message for the current request.
func Message(c *gin.Context, msgID string, templateData ...map[string]any) string {
	return T(GetLocalizerFromContext(c), msgID, templateData...)
}
