// internal/utils/context.go
package utils

import (
	"github.com/gin-gonic/gin"

	"github.com/tubetrade/dealdesk/internal/models"
)

const (
	ContextKeyCaller = "caller"
	ContextKeyLang   = "lang"
)

func GetLangFromContext(c *gin.Context) string {
	if lang, exists := c.Get(ContextKeyLang); exists {
		if langStr, ok := lang.(string); ok {
			return langStr
		}
	}
	return "en"
}

func SetCaller(c *gin.Context, caller *models.Caller) {
	c.Set(ContextKeyCaller, caller)
}

// GetCallerFromContext returns the identity set by the auth middleware.
func GetCallerFromContext(c *gin.Context) (*models.Caller, bool) {
	if v, exists := c.Get(ContextKeyCaller); exists {
		if caller, ok := v.(*models.Caller); ok && caller != nil {
			return caller, true
		}
	}
	return nil, false
}
