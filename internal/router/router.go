package router

import (
	"embed"
	"io/fs"
	"net/http"
	"strings"

	"chat-relay/internal/handler"
	"chat-relay/internal/i18n"
	"chat-relay/internal/middleware"
	"chat-relay/internal/relay"
	"chat-relay/internal/types"

	"github.com/gin-contrib/gzip"
	"github.com/gin-contrib/static"
	"github.com/gin-gonic/gin"
)

type embedFileSystem struct {
	http.FileSystem
}

func (e embedFileSystem) Exists(prefix string, path string) bool {
	_, err := e.Open(path)
	return err == nil
}

func EmbedFolder(fsEmbed embed.FS, targetPath string) static.ServeFileSystem {
	efs, err := fs.Sub(fsEmbed, targetPath)
	if err != nil {
		panic(err)
	}
	return embedFileSystem{
		FileSystem: http.FS(efs),
	}
}

func NewRouter(
	serverHandler *handler.Server,
	relayHandler *relay.Handler,
	configManager types.ConfigManager,
	buildFS embed.FS,
	indexPage []byte,
) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// Register global middleware
	router.Use(middleware.Recovery())
	router.Use(middleware.ErrorHandler())
	router.Use(middleware.Logger(configManager.GetLogConfig()))
	router.Use(middleware.CORS(configManager.GetCORSConfig()))
	router.Use(middleware.RateLimiter(configManager.GetPerformanceConfig()))
	router.Use(middleware.SecurityHeaders())

	registerSystemRoutes(router, serverHandler)
	registerAPIRoutes(router, serverHandler, relayHandler)
	registerFrontendRoutes(router, buildFS, indexPage)

	return router
}

// registerSystemRoutes registers system-level routes
func registerSystemRoutes(router *gin.Engine, serverHandler *handler.Server) {
	router.GET("/health", serverHandler.Health)
}

// registerAPIRoutes registers API routes
func registerAPIRoutes(router *gin.Engine, serverHandler *handler.Server, relayHandler *relay.Handler) {
	api := router.Group("/api")
	api.Use(i18n.Middleware())

	// The streaming endpoint stays outside the gzip wrapper: compressing an
	// SSE response would buffer it and break incremental delivery.
	api.GET("/chat/stream", relayHandler.HandleChatStream)

	jsonAPI := api.Group("")
	jsonAPI.Use(gzip.Gzip(gzip.DefaultCompression))
	{
		jsonAPI.GET("/stats", serverHandler.Stats)
		jsonAPI.GET("/version", serverHandler.Version)
	}
}

// registerFrontendRoutes serves the embedded demo chat page.
func registerFrontendRoutes(router *gin.Engine, buildFS embed.FS, indexPage []byte) {
	router.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, gin.H{"error": "Method not allowed"})
	})

	router.Use(static.Serve("/", EmbedFolder(buildFS, "web")))
	router.NoRoute(func(c *gin.Context) {
		if strings.HasPrefix(c.Request.RequestURI, "/api") {
			c.JSON(http.StatusNotFound, gin.H{"error": "Not Found"})
			return
		}
		// HTML pages are not cached to ensure updates take effect immediately
		c.Header("Cache-Control", "no-cache, no-store, must-revalidate")
		c.Header("Pragma", "no-cache")
		c.Header("Expires", "0")
		c.Data(http.StatusOK, "text/html; charset=utf-8", indexPage)
	})
}
