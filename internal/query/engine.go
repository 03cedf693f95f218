// Package query builds and executes the hashtag-filtered read path over
// top-level posts.
package query

import (
	"context"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/hashmind/hashmind/internal/db"
	"github.com/hashmind/hashmind/internal/models"
	"github.com/hashmind/hashmind/pkg/logging"
)

// controversyExpr ranks by (up+down)^(min/max): both vote directions large
// with a near-zero net score ranks highest. One-sided posts score zero so a
// pile of upvotes alone is never controversial.
const controversyExpr = "(CASE WHEN LEAST(posts.upvotes, posts.downvotes) = 0 THEN 0 " +
	"ELSE POWER(posts.upvotes + posts.downvotes, " +
	"LEAST(posts.upvotes, posts.downvotes)::float / GREATEST(posts.upvotes, posts.downvotes)) END)"

// ControversyScore is the in-process mirror of controversyExpr, used to pin
// the ranking down in tests.
func ControversyScore(upvotes, downvotes int64) float64 {
	lo, hi := upvotes, downvotes
	if lo > hi {
		lo, hi = hi, lo
	}
	if lo == 0 {
		return 0
	}
	return math.Pow(float64(upvotes+downvotes), float64(lo)/float64(hi))
}

// orderClause returns the SQL ordering for a sort. Every variant ends in id
// descending so a fixed filter over unchanged data always returns an
// identical ordering.
func orderClause(sort SortOrder) string {
	switch sort {
	case SortPopular:
		return "(posts.upvotes - posts.downvotes) DESC, posts.created_at DESC, posts.id DESC"
	case SortControversial:
		return controversyExpr + " DESC, posts.created_at DESC, posts.id DESC"
	default:
		return "posts.created_at DESC, posts.id DESC"
	}
}

// PostView is a post record denormalized with its hashtag names for display.
type PostView struct {
	ID         int64     `json:"id"`
	AuthorID   int64     `json:"author_id"`
	Content    string    `json:"content"`
	Upvotes    int64     `json:"upvotes"`
	Downvotes  int64     `json:"downvotes"`
	ReplyCount int64     `json:"reply_count"`
	CreatedAt  time.Time `json:"created_at"`
	Hashtags   []string  `json:"hashtags"`
}

// Engine executes filter queries. It is stateless between invocations and
// issues a single read query per call plus one tag-denormalization query.
type Engine struct {
	db       *gorm.DB
	hashtags *db.HashtagRepository
	logger   *zap.Logger
}

// NewEngine creates a new filter query engine
func NewEngine(database *db.DB) *Engine {
	return &Engine{
		db:       database.DB,
		hashtags: db.NewHashtagRepository(db.NewRepository(database.DB)),
		logger:   logging.WithComponent("query-engine"),
	}
}

// Query returns at most spec.Limit top-level posts matching every enabled
// filter category, ordered by the requested sort. Results depend only on
// stored state and the spec, never on when posts were created relative to
// when a filter was toggled. A hashtag set with no matching rows yields an
// empty result, not an error.
func (e *Engine) Query(ctx context.Context, spec Spec) ([]PostView, error) {
	requestedTags := len(spec.Tags)
	spec, err := spec.normalized()
	if err != nil {
		return nil, err
	}

	// A requested tag set whose every element normalizes to nothing can
	// match no rows. Dropping the predicate instead would flip a restriction
	// into no restriction at all.
	if requestedTags > 0 && len(spec.Tags) == 0 {
		return []PostView{}, nil
	}

	q := e.db.WithContext(ctx).
		Model(&models.Post{}).
		Where("posts.parent_id IS NULL")

	// Hashtag OR-set: a post matches when it carries any selected tag.
	if len(spec.Tags) > 0 {
		tagged := e.db.Model(&models.PostHashtag{}).
			Select("post_hashtags.post_id").
			Joins("INNER JOIN hashtags ON hashtags.id = post_hashtags.hashtag_id").
			Where("hashtags.name IN ?", spec.Tags)
		q = q.Where("posts.id IN (?)", tagged)
	}

	// Friend scope ANDs with the hashtag predicate.
	if spec.FriendsOnly {
		friends := e.db.Model(&models.Follow{}).
			Select("followee_id").
			Where("follower_id = ?", spec.ObserverID)
		q = q.Where("posts.author_id IN (?)", friends)
	}

	var posts []models.Post
	if err := q.Order(orderClause(spec.Sort)).Limit(spec.Limit).Find(&posts).Error; err != nil {
		return nil, fmt.Errorf("filter query failed: %w", err)
	}

	views, err := e.denormalize(ctx, posts)
	if err != nil {
		return nil, err
	}

	e.logger.Debug("Filter query executed",
		zap.Strings("tags", spec.Tags),
		zap.Bool("friends_only", spec.FriendsOnly),
		zap.String("sort", string(spec.Sort)),
		zap.Int("results", len(views)))

	return views, nil
}

// denormalize attaches hashtag names to each post in one batched query.
func (e *Engine) denormalize(ctx context.Context, posts []models.Post) ([]PostView, error) {
	ids := make([]int64, len(posts))
	for i := range posts {
		ids[i] = posts[i].ID
	}

	tags, err := e.hashtags.TagsForPosts(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load hashtags for results: %w", err)
	}

	views := make([]PostView, len(posts))
	for i := range posts {
		p := &posts[i]
		views[i] = PostView{
			ID:         p.ID,
			AuthorID:   p.AuthorID,
			Content:    p.Content,
			Upvotes:    p.Upvotes,
			Downvotes:  p.Downvotes,
			ReplyCount: p.ReplyCount,
			CreatedAt:  p.CreatedAt,
			Hashtags:   tags[p.ID],
		}
	}
	return views, nil
}
