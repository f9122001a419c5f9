package http

import (
	stdhttp "net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/wiremeet/internal/config"
	"github.com/vovakirdan/wiremeet/internal/core"
	"github.com/vovakirdan/wiremeet/internal/metrics"
)

// NewServer builds the HTTP server: health, metrics, room inspection and the
// signaling socket.
func NewServer(hub *core.Hub, identities IdentityResolver, m *metrics.Metrics, cfg *config.Config, logger *zerolog.Logger) *stdhttp.Server {
	return &stdhttp.Server{
		Addr:              cfg.Addr,
		Handler:           NewRouter(hub, identities, m, cfg, logger),
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
}

// NewRouter builds the handler tree wrapped in CORS. The socket is mounted on
// the plain mux since gin's writer refuses to hijack after a 101.
func NewRouter(hub *core.Hub, identities IdentityResolver, m *metrics.Metrics, cfg *config.Config, logger *zerolog.Logger) stdhttp.Handler {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Recovery(), LoggerMiddleware(logger))

	router.GET("/health", healthHandler)
	router.GET("/metrics", gin.WrapH(m.Handler()))

	rooms := NewRoomHandlers(hub, logger)
	api := router.Group("/api")
	api.GET("/rooms/:code", rooms.GetRoom)

	mux := stdhttp.NewServeMux()
	mux.Handle("/ws", NewWSHandler(hub, identities, m, cfg, logger))
	mux.Handle("/", router)

	return CORSMiddleware(cfg.AllowedOrigins).Handler(mux)
}

func healthHandler(c *gin.Context) {
	c.String(stdhttp.StatusOK, "ok")
}
