package middleware

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/UsmanFarooq46/e-commerce-backend/internal/infra/config"
)

// CORS builds the cross-origin policy. An empty or "*" origin list allows every origin.
func CORS(cfg config.CORSSettings) gin.HandlerFunc {
	maxAge := cfg.MaxAge
	if maxAge <= 0 {
		maxAge = 12 * time.Hour
	}

	corsCfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", TokenHeader, "X-Request-ID", "X-Trace-ID"},
		ExposeHeaders: []string{TokenHeader, "X-Request-ID", "X-Trace-ID", "Retry-After"},
		MaxAge:        maxAge,
	}

	origins := make([]string, 0, len(cfg.AllowedOrigins))
	allowAll := len(cfg.AllowedOrigins) == 0
	for _, origin := range cfg.AllowedOrigins {
		if origin == "*" {
			allowAll = true
			break
		}
		if origin != "" {
			origins = append(origins, origin)
		}
	}

	if allowAll || len(origins) == 0 {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = origins
		corsCfg.AllowCredentials = true
	}

	return cors.New(corsCfg)
}
