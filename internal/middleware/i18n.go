// internal/middleware/i18n.go
package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tubetrade/dealdesk/internal/utils"
)

// resolveLanguage maps an Accept-Language value such as
// "zh-TW,zh;q=0.9,en;q=0.8" to a supported catalogue name.
func resolveLanguage(header string) string {
	for _, part := range strings.Split(header, ",") {
		tag := strings.TrimSpace(strings.Split(part, ";")[0])
		switch strings.ToLower(tag) {
		case "zh-tw", "zh-hant", "zh_tw", "zh-hk", "zh":
			return "zh_TW"
		case "en", "en-us", "en-gb":
			return "en"
		}
	}
	return "en"
}

func I18nMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(utils.ContextKeyLang, resolveLanguage(c.GetHeader("Accept-Language")))
		c.Next()
	}
}
