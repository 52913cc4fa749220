package httpapi

import (
	"github.com/gin-gonic/gin"
	"github.com/suPer8Hu/mockai/internal/common"
	"github.com/suPer8Hu/mockai/internal/config"
	"github.com/suPer8Hu/mockai/internal/httpapi/handlers"
	"github.com/suPer8Hu/mockai/internal/httpapi/middleware"
)

func NewRouter(h *handlers.Handler, cfg config.Config) *gin.Engine {
	r := gin.New()
	// unknown methods fall through to the 404 envelope like unknown paths
	r.HandleMethodNotAllowed = false
	r.Use(middleware.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.AccessLog())
	r.Use(middleware.CORS())
	r.Use(middleware.Preflight())

	r.NoRoute(func(c *gin.Context) {
		common.Fail(c, common.NotFoundError(c.Request.URL.Path))
	})

	r.SetHTMLTemplate(handlers.StatusTemplate())
	r.GET("/", h.Status)
	r.GET("/favicon.ico", h.Favicon)

	v1 := r.Group("/v1")
	v1.Use(middleware.APIKeyAuth(cfg.APIKey, cfg.JWTSecret))
	if cfg.RateLimitRPM > 0 {
		v1.Use(middleware.RateLimit(cfg.RateLimitRPM))
	}
	v1.GET("/models", h.ListModels)
	v1.POST("/chat/completions", h.ChatCompletions)
	v1.GET("/session", h.GetSession)
	return r
}
