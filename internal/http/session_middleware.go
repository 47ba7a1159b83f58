package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"blum/internal/service"
)

const sessionControllerKey = "wizard_session"

// SessionAuthMiddleware valida el token de sesión y carga el controller.
func SessionAuthMiddleware(tokens *service.SessionTokenService, registry *service.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		if tokens == nil || registry == nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "sessions not configured"})
			c.Abort()
			return
		}

		header := strings.TrimSpace(c.GetHeader("Authorization"))
		if header == "" || !strings.HasPrefix(strings.ToLower(header), "bearer ") {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
			c.Abort()
			return
		}

		token := strings.TrimSpace(header[len("Bearer "):])
		sessionID, err := tokens.Parse(token)
		if err != nil {
			msg := "invalid token"
			if errors.Is(err, service.ErrSessionTokenExpired) {
				msg = "token expired"
			}
			c.JSON(http.StatusUnauthorized, gin.H{"error": msg})
			c.Abort()
			return
		}

		ctrl, err := registry.Get(c.Request.Context(), sessionID)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
			c.Abort()
			return
		}

		c.Set(sessionControllerKey, ctrl)
		c.Next()
	}
}

// GetSessionController obtiene el controller cargado por el middleware.
func GetSessionController(c *gin.Context) (*service.Controller, bool) {
	val, ok := c.Get(sessionControllerKey)
	if !ok {
		return nil, false
	}
	ctrl, ok := val.(*service.Controller)
	return ctrl, ok
}
