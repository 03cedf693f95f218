package api

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/hashmind/hashmind/internal/cache"
	"github.com/hashmind/hashmind/internal/db"
	"github.com/hashmind/hashmind/internal/hashtag"
	"github.com/hashmind/hashmind/pkg/logging"
)

const (
	trendingCacheKey = "hashmind:trending_tags"
	trendingCacheTTL = 60 * time.Second
	maxTrendingLimit = 100
)

// HashtagAPI serves the hashtag write surface (live indexing of new posts)
// and hashtag lookups.
type HashtagAPI struct {
	posts    *db.PostRepository
	hashtags *db.HashtagRepository
	cache    *cache.Cache
	logger   *zap.Logger
}

// NewHashtagAPI creates a new hashtag API
func NewHashtagAPI(repo *db.Repository, redisCache *cache.Cache) *HashtagAPI {
	return &HashtagAPI{
		posts:    db.NewPostRepository(repo),
		hashtags: db.NewHashtagRepository(repo),
		cache:    redisCache,
		logger:   logging.WithComponent("hashtag-api"),
	}
}

type postIDParams struct {
	PostID int64 `json:"post_id"`
}

// IndexPost handles hashtag.index_post. The post-creation subsystem calls it
// after a post is durably created, before the post is considered visible to
// hashtag filters.
func (h *HashtagAPI) IndexPost(ctx *gin.Context, params json.RawMessage) (interface{}, error) {
	var p postIDParams
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, NewError(-32602, fmt.Sprintf("invalid parameters: %v", err))
	}
	if p.PostID <= 0 {
		return nil, NewError(-32602, "post_id is required")
	}

	rctx := ctx.Request.Context()
	post, err := h.posts.GetByID(rctx, p.PostID)
	if err != nil {
		return nil, err
	}
	if post == nil {
		return nil, NewError(-32004, fmt.Sprintf("post %d not found", p.PostID))
	}

	tags := hashtag.Extract(post.Content)
	var created int64
	if len(tags) > 0 {
		created, err = h.hashtags.StoreHashtags(rctx, post.ID, tags)
		if err != nil {
			return nil, err
		}
	}

	h.logger.Debug("Indexed post",
		zap.Int64("post_id", post.ID),
		zap.Strings("tags", tags),
		zap.Int64("created", created))

	return gin.H{
		"post_id":              post.ID,
		"hashtags":             tags,
		"associations_created": created,
	}, nil
}

// GetPostHashtags handles hashtag.get_post_hashtags
func (h *HashtagAPI) GetPostHashtags(ctx *gin.Context, params json.RawMessage) (interface{}, error) {
	var p postIDParams
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, NewError(-32602, fmt.Sprintf("invalid parameters: %v", err))
	}
	if p.PostID <= 0 {
		return nil, NewError(-32602, "post_id is required")
	}

	tags, err := h.hashtags.PostTags(ctx.Request.Context(), p.PostID)
	if err != nil {
		return nil, err
	}
	return gin.H{"post_id": p.PostID, "hashtags": tags}, nil
}

type trendingParams struct {
	Limit int `json:"limit"`
}

// GetTrendingTags handles hashtag.get_trending_tags. Responses are cached in
// Redis for a short window when the cache is enabled.
func (h *HashtagAPI) GetTrendingTags(ctx *gin.Context, params json.RawMessage) (interface{}, error) {
	var p trendingParams
	if len(params) > 0 {
		if err := json.Unmarshal(params, &p); err != nil {
			return nil, NewError(-32602, fmt.Sprintf("invalid parameters: %v", err))
		}
	}
	limit := p.Limit
	if limit <= 0 || limit > maxTrendingLimit {
		limit = maxTrendingLimit
	}

	rctx := ctx.Request.Context()

	var cached []db.TagCount
	if err := h.cache.GetJSON(rctx, trendingCacheKey, &cached); err == nil && len(cached) >= limit {
		return gin.H{"tags": cached[:limit]}, nil
	}

	counts, err := h.hashtags.TrendingTags(rctx, maxTrendingLimit)
	if err != nil {
		return nil, err
	}

	if err := h.cache.SetJSON(rctx, trendingCacheKey, counts, trendingCacheTTL); err != nil && err != cache.ErrCacheDisabled {
		h.logger.Warn("Failed to cache trending tags", zap.Error(err))
	}

	if len(counts) > limit {
		counts = counts[:limit]
	}
	return gin.H{"tags": counts}, nil
}
