package api

import (
	"encoding/json"
	"fmt"

	"github.com/gin-gonic/gin"

	"github.com/hashmind/hashmind/internal/query"
)

// FeedAPI serves the filtered-feed query surface consumed by the
// feed-rendering layer.
type FeedAPI struct {
	engine *query.Engine
}

// NewFeedAPI creates a new feed API
func NewFeedAPI(engine *query.Engine) *FeedAPI {
	return &FeedAPI{engine: engine}
}

// filteredPostsParams is the wire form of a filter specification. The caller
// constructs it fresh per query; selection persistence belongs to the UI.
type filteredPostsParams struct {
	Tags        []string `json:"tags"`
	FriendsOnly bool     `json:"friends_only"`
	ObserverID  int64    `json:"observer_id"`
	Sort        string   `json:"sort"`
	Limit       int      `json:"limit"`
}

// GetFilteredPosts handles feed.get_filtered_posts
func (f *FeedAPI) GetFilteredPosts(ctx *gin.Context, params json.RawMessage) (interface{}, error) {
	var p filteredPostsParams
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, NewError(-32602, fmt.Sprintf("invalid parameters: %v", err))
	}

	sort, err := query.ParseSortOrder(p.Sort)
	if err != nil {
		return nil, NewError(-32602, err.Error())
	}

	posts, err := f.engine.Query(ctx.Request.Context(), query.Spec{
		Tags:        p.Tags,
		FriendsOnly: p.FriendsOnly,
		ObserverID:  p.ObserverID,
		Sort:        sort,
		Limit:       p.Limit,
	})
	if err != nil {
		return nil, err
	}

	return gin.H{"posts": posts}, nil
}
