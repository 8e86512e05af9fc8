package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"moviecatalog/internal/auth"
	"moviecatalog/internal/catalog"
	"moviecatalog/internal/feed"
	"moviecatalog/internal/movies"
	"moviecatalog/internal/reviews"
	"moviecatalog/internal/web"
)

// Deps is everything the HTTP surface needs. Hub may be nil, in which case
// /ws and /api/feed/recent are not mounted. Publisher, when set, receives
// events instead of Hub.
type Deps struct {
	Store     *catalog.Store
	Gate      *auth.Gate
	Hub       *feed.Hub
	Publisher feed.Publisher
}

func NewRouter(d Deps) *gin.Engine {
	router := gin.New()
	router.Use(withCorrelationID(), withLogging(), withRecovery())
	_ = router.SetTrustedProxies([]string{"127.0.0.1"})
	router.SetHTMLTemplate(web.Templates())

	var pub feed.Publisher = feed.NopPublisher{}
	if d.Hub != nil {
		pub = d.Hub
		router.GET("/ws", feed.WSHandler(d.Hub))
		router.GET("/api/feed/recent", func(c *gin.Context) {
			items := d.Hub.Recent()
			c.JSON(http.StatusOK, gin.H{"total": len(items), "items": items})
		})
	}
	if d.Publisher != nil {
		pub = d.Publisher
	}
	requireAdmin := auth.RequireAdmin(d.Gate)

	router.GET("/health", func(c *gin.Context) {
		body := gin.H{"status": "ok", "movies": d.Store.Len()}
		if d.Hub != nil {
			stats := d.Hub.Stats()
			body["tcp_clients"] = stats.TCPClients
			body["ws_clients"] = stats.WSClients
		}
		c.JSON(http.StatusOK, body)
	})

	// JSON API
	api := router.Group("/api")
	movieHandler := movies.NewHandler(d.Store, pub)
	reviewHandler := reviews.NewHandler(d.Store, pub)
	movieHandler.RegisterRoutes(api)
	reviewHandler.RegisterPublicRoutes(api)

	apiAdmin := api.Group("", requireAdmin)
	movieHandler.RegisterProtectedRoutes(apiAdmin)
	reviewHandler.RegisterProtectedRoutes(apiAdmin)

	// HTML site
	site := web.NewHandler(d.Store, pub)
	site.RegisterPublicRoutes(&router.RouterGroup)
	site.RegisterProtectedRoutes(router.Group("", requireAdmin))

	return router
}
