// Package admin serves the operational HTTP sidecar: a health probe
// that pings the document store and the Prometheus metrics endpoint.
// The chat data plane itself is raw TCP and never touches HTTP.
package admin

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/guildd/guildd/internal/docstore"
	"github.com/guildd/guildd/internal/logger"
)

const healthTimeout = 5 * time.Second

// NewRouter builds the admin router.
func NewRouter(log *logger.Logger, store docstore.Store, reg *prometheus.Registry) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/healthz", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
		defer cancel()

		if err := store.Ping(ctx); err != nil {
			log.LogError(ctx, err, "health check failed")
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	return router
}
