package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"blum/internal/service"
)

// ProtocolHandler expone el catálogo y el resolver sin sesión.
type ProtocolHandler struct {
	logger *zap.Logger
}

func NewProtocolHandler(logger *zap.Logger) *ProtocolHandler {
	return &ProtocolHandler{logger: logger}
}

// ListProtocols maneja GET /protocols.
func (h *ProtocolHandler) ListProtocols(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"protocols": service.Catalog()})
}

// Resolve maneja POST /protocols/resolve. Nunca responde con error: un
// payload ilegible devuelve el protocolo por defecto.
func (h *ProtocolHandler) Resolve(c *gin.Context) {
	raw, err := c.GetRawData()
	if err != nil {
		h.logger.Warn("resolve body not readable", zap.Error(err))
	}
	sel := service.ResolveJSON(raw)
	if sel.Fallback {
		h.logger.Info("resolver fell back to default protocol")
	}
	c.JSON(http.StatusOK, gin.H{"selection": sel})
}
