// internal/handlers/errors.go
package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/tubetrade/dealdesk/internal/i18n"
	"github.com/tubetrade/dealdesk/internal/models"
	"github.com/tubetrade/dealdesk/internal/services"
	"github.com/tubetrade/dealdesk/internal/utils"
)

var kindStatus = map[services.ErrorKind]int{
	services.KindValidation:      http.StatusBadRequest,
	services.KindUnauthenticated: http.StatusUnauthorized,
	services.KindForbidden:       http.StatusForbidden,
	services.KindNotFound:        http.StatusNotFound,
	services.KindConflict:        http.StatusConflict,
}

// respondError writes err using the status for its kind. Unknown errors are
// logged and reported as 500; their text is hidden in release mode.
func respondError(c *gin.Context, err error) {
	var se *services.ServiceError
	if errors.As(err, &se) {
		status, ok := kindStatus[se.Kind]
		if !ok {
			status = http.StatusInternalServerError
		}
		var details interface{}
		if se.Field != "" {
			details = gin.H{"field": se.Field}
		}
		utils.ErrorResponse(c, status, se.Code, se.Message, details)
		return
	}

	logrus.WithError(err).WithFields(logrus.Fields{
		"method":     c.Request.Method,
		"path":       c.Request.URL.Path,
		"request_id": c.GetString("request_id"),
	}).Error("Request failed")

	message := err.Error()
	if gin.Mode() == gin.ReleaseMode {
		message = i18n.T(utils.GetLangFromContext(c), i18n.KeyErrorInternal)
	}
	utils.InternalErrorResponse(c, message)
}

// bindJSON decodes the request body. A malformed body is reported as 400.
func bindJSON(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		lang := utils.GetLangFromContext(c)
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return false
	}
	return true
}

// uintParam reads a positive numeric path parameter.
func uintParam(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		lang := utils.GetLangFromContext(c)
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, name), nil)
		return 0, false
	}
	return uint(id), true
}

func callerOrAbort(c *gin.Context) (*models.Caller, bool) {
	caller, ok := utils.GetCallerFromContext(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return nil, false
	}
	return caller, true
}
