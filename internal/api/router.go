package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/hashmind/hashmind/internal/cache"
	"github.com/hashmind/hashmind/internal/db"
	"github.com/hashmind/hashmind/internal/query"
	"github.com/hashmind/hashmind/pkg/logging"
)

// Router sets up API routes
type Router struct {
	handler *JSONRPCHandler
	db      *db.DB
	cache   *cache.Cache
	logger  *zap.Logger
}

// NewRouter creates a new API router
func NewRouter(database *db.DB, redisCache *cache.Cache) *Router {
	router := &Router{
		handler: NewJSONRPCHandler(),
		db:      database,
		cache:   redisCache,
		logger:  logging.WithComponent("api-router"),
	}

	router.registerMethods()

	return router
}

// SetupRoutes sets up all API routes
func (r *Router) SetupRoutes(engine *gin.Engine) {
	engine.GET("/health", r.healthHandler)
	engine.GET("/.well-known/healthcheck.json", r.healthHandler)

	// JSON-RPC endpoint
	engine.POST("/", r.handler.Handle)
}

// registerMethods registers all API methods
func (r *Router) registerMethods() {
	repo := db.NewRepository(r.db.DB)

	feed := NewFeedAPI(query.NewEngine(r.db))
	r.handler.RegisterMethod("feed.get_filtered_posts", feed.GetFilteredPosts)

	hashtags := NewHashtagAPI(repo, r.cache)
	r.handler.RegisterMethod("hashtag.index_post", hashtags.IndexPost)
	r.handler.RegisterMethod("hashtag.get_post_hashtags", hashtags.GetPostHashtags)
	r.handler.RegisterMethod("hashtag.get_trending_tags", hashtags.GetTrendingTags)
}

// healthHandler handles health check requests
func (r *Router) healthHandler(c *gin.Context) {
	if err := r.db.Health(c.Request.Context()); err != nil {
		r.logger.Error("Health check failed", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":  "FAIL",
			"service": "hashmind-api",
			"error":   err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":  "OK",
		"service": "hashmind-api",
	})
}
