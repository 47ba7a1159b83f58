package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"blum/internal/service"
)

// NewRouter configura el router de Gin con middlewares y rutas base.
func NewRouter(
	logger *zap.Logger,
	questionnaireH *QuestionnaireHandler,
	protocolH *ProtocolHandler,
	tokens *service.SessionTokenService,
	registry *service.Registry,
	metricsHandler http.Handler,
) *gin.Engine {
	r := gin.New()

	// Middlewares basicos: logging, recovery y JSON content-type.
	r.Use(zapLoggerMiddleware(logger), gin.Recovery(), jsonContentTypeMiddleware())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if metricsHandler != nil {
		r.GET("/metrics", gin.WrapH(metricsHandler))
	}

	protocols := r.Group("/protocols")
	protocols.GET("", protocolH.ListProtocols)
	protocols.POST("/resolve", protocolH.Resolve)

	q := r.Group("/questionnaire")
	q.POST("/sessions", questionnaireH.CreateSession)

	session := q.Group("/session", SessionAuthMiddleware(tokens, registry))
	session.GET("", questionnaireH.GetSession)
	session.DELETE("", questionnaireH.DeleteSession)
	session.POST("/advance", questionnaireH.Advance)
	session.POST("/retreat", questionnaireH.Retreat)
	session.POST("/save", questionnaireH.Save)
	session.GET("/result", questionnaireH.Result)
	session.GET("/report.pdf", questionnaireH.ReportPDF)
	session.POST("/report/email", questionnaireH.EmailReport)

	return r
}

// zapLoggerMiddleware crea un middleware simple de logging con zap.
func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		latency := time.Since(start)
		logger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", latency),
			zap.String("client_ip", c.ClientIP()),
		)
	}
}

// jsonContentTypeMiddleware fuerza Content-Type: application/json en responses.
// Los handlers que devuelven otro formato lo reemplazan explícitamente.
func jsonContentTypeMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Content-Type", "application/json")
		c.Next()
	}
}
