// internal/handlers/auth.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/tubetrade/dealdesk/internal/i18n"
	"github.com/tubetrade/dealdesk/internal/services"
	"github.com/tubetrade/dealdesk/internal/utils"
)

type AuthHandler struct {
	authService *services.AuthService
}

func NewAuthHandler(authService *services.AuthService) *AuthHandler {
	return &AuthHandler{
		authService: authService,
	}
}

func authBody(message string, resp *services.AuthResponse) gin.H {
	return gin.H{
		"message":    message,
		"user":       resp.User,
		"role":       resp.Role,
		"token":      resp.AccessToken,
		"token_type": resp.TokenType,
		"expires_in": resp.ExpiresIn,
	}
}

// POST /api/auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	var req services.RegisterRequest
	if !bindJSON(c, &req) {
		return
	}

	authResponse, err := h.authService.Register(&req)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.CreatedResponse(c, authBody(i18n.T(lang, i18n.KeyAuthRegisterSuccess), authResponse))
}

// POST /api/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	var req services.LoginRequest
	if !bindJSON(c, &req) {
		return
	}

	authResponse, err := h.authService.Login(&req)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, authBody(i18n.T(lang, i18n.KeyAuthLoginSuccess), authResponse))
}

// GET /api/auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	caller, ok := callerOrAbort(c)
	if !ok {
		return
	}

	user, err := h.authService.Me(caller)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"user": user,
		"role": caller.Role,
	})
}
