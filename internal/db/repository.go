package db

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/hashmind/hashmind/internal/hashtag"
	"github.com/hashmind/hashmind/internal/models"
)

// Repository provides database access methods
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new repository
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// PostRepository provides post-related database operations. Posts are owned
// by the post-CRUD subsystem; everything here is read-only.
type PostRepository struct {
	*Repository
}

// NewPostRepository creates a new post repository
func NewPostRepository(repo *Repository) *PostRepository {
	return &PostRepository{Repository: repo}
}

// GetByID retrieves a post by ID
func (r *PostRepository) GetByID(ctx context.Context, id int64) (*models.Post, error) {
	var post models.Post
	if err := r.db.WithContext(ctx).First(&post, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &post, nil
}

// ScanBatches streams all posts in primary-key order, invoking fn once per
// batch. The full table is never materialized in memory.
func (r *PostRepository) ScanBatches(ctx context.Context, batchSize int, fn func(posts []models.Post) error) error {
	var posts []models.Post
	result := r.db.WithContext(ctx).FindInBatches(&posts, batchSize, func(tx *gorm.DB, batch int) error {
		return fn(posts)
	})
	return result.Error
}

// HashtagRepository owns the hashtags and post_hashtags tables.
type HashtagRepository struct {
	*Repository
}

// NewHashtagRepository creates a new hashtag repository
func NewHashtagRepository(repo *Repository) *HashtagRepository {
	return &HashtagRepository{Repository: repo}
}

// StoreHashtags associates the given tags with a post, creating hashtag rows
// lazily. The call is idempotent: associations already present are left
// untouched and not counted. All tags for one post commit in a single
// transaction. Returns the number of newly created associations, so a pure
// re-run reports zero.
func (r *HashtagRepository) StoreHashtags(ctx context.Context, postID int64, tags []string) (int64, error) {
	var created int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, tag := range tags {
			ht, err := getOrCreateHashtag(tx, tag)
			if err != nil {
				return fmt.Errorf("failed to resolve hashtag %q: %w", tag, err)
			}

			// Conflict-tolerant insert: the loser of a concurrent race for
			// the same (post, hashtag) pair observes RowsAffected == 0, not
			// an error.
			res := tx.Clauses(clause.OnConflict{DoNothing: true}).
				Create(&models.PostHashtag{PostID: postID, HashtagID: ht.ID})
			if res.Error != nil {
				return fmt.Errorf("failed to store association (post %d, hashtag %q): %w", postID, tag, res.Error)
			}
			created += res.RowsAffected
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return created, nil
}

// getOrCreateHashtag resolves a hashtag row by normalized name, creating it
// on first encounter. Create and lookup are collapsed into one
// conflict-tolerant insert so concurrent callers cannot produce duplicate
// names.
func getOrCreateHashtag(tx *gorm.DB, tag string) (*models.Hashtag, error) {
	name := hashtag.Normalize(tag)
	if name == "" {
		return nil, fmt.Errorf("empty hashtag name")
	}

	ht := models.Hashtag{Name: name}
	res := tx.Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "name"}}, DoNothing: true}).
		Create(&ht)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected > 0 && ht.ID != 0 {
		return &ht, nil
	}

	// Row already existed, fetch it
	var existing models.Hashtag
	if err := tx.Where("name = ?", name).First(&existing).Error; err != nil {
		return nil, err
	}
	return &existing, nil
}

// GetByName retrieves a hashtag by name (case-insensitive via normalization)
func (r *HashtagRepository) GetByName(ctx context.Context, name string) (*models.Hashtag, error) {
	var ht models.Hashtag
	if err := r.db.WithContext(ctx).Where("name = ?", hashtag.Normalize(name)).First(&ht).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &ht, nil
}

// PostTags returns the hashtag names associated with a post, sorted by name.
func (r *HashtagRepository) PostTags(ctx context.Context, postID int64) ([]string, error) {
	var names []string
	err := r.db.WithContext(ctx).
		Model(&models.PostHashtag{}).
		Joins("INNER JOIN hashtags ON hashtags.id = post_hashtags.hashtag_id").
		Where("post_hashtags.post_id = ?", postID).
		Order("hashtags.name ASC").
		Pluck("hashtags.name", &names).Error
	if err != nil {
		return nil, err
	}
	return names, nil
}

// TagsForPosts returns the hashtag names for a set of posts in one query,
// keyed by post id. Used to denormalize query results for display.
func (r *HashtagRepository) TagsForPosts(ctx context.Context, postIDs []int64) (map[int64][]string, error) {
	if len(postIDs) == 0 {
		return map[int64][]string{}, nil
	}

	var rows []struct {
		PostID int64  `gorm:"column:post_id"`
		Name   string `gorm:"column:name"`
	}
	err := r.db.WithContext(ctx).
		Model(&models.PostHashtag{}).
		Select("post_hashtags.post_id, hashtags.name").
		Joins("INNER JOIN hashtags ON hashtags.id = post_hashtags.hashtag_id").
		Where("post_hashtags.post_id IN ?", postIDs).
		Order("post_hashtags.post_id ASC, hashtags.name ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	tags := make(map[int64][]string, len(postIDs))
	for _, row := range rows {
		tags[row.PostID] = append(tags[row.PostID], row.Name)
	}
	return tags, nil
}

// CountExistingAssociations reports how many of the given tags are already
// associated with the post. Read-only; used by dry-run backfills to split
// would-be created from would-be skipped.
func (r *HashtagRepository) CountExistingAssociations(ctx context.Context, postID int64, tags []string) (int64, error) {
	if len(tags) == 0 {
		return 0, nil
	}

	names := make([]string, 0, len(tags))
	for _, tag := range tags {
		names = append(names, hashtag.Normalize(tag))
	}

	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.PostHashtag{}).
		Joins("INNER JOIN hashtags ON hashtags.id = post_hashtags.hashtag_id").
		Where("post_hashtags.post_id = ? AND hashtags.name IN ?", postID, names).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}

// TagCount pairs a hashtag name with its top-level post count.
type TagCount struct {
	Name      string `gorm:"column:name" json:"name"`
	PostCount int64  `gorm:"column:post_count" json:"post_count"`
}

// TrendingTags returns hashtags ranked by the number of top-level posts
// carrying them. Ties are broken by name for stable ordering.
func (r *HashtagRepository) TrendingTags(ctx context.Context, limit int) ([]TagCount, error) {
	var counts []TagCount
	err := r.db.WithContext(ctx).
		Model(&models.PostHashtag{}).
		Select("hashtags.name AS name, COUNT(post_hashtags.post_id) AS post_count").
		Joins("INNER JOIN hashtags ON hashtags.id = post_hashtags.hashtag_id").
		Joins("INNER JOIN posts ON posts.id = post_hashtags.post_id").
		Where("posts.parent_id IS NULL").
		Group("hashtags.name").
		Order("post_count DESC, name ASC").
		Limit(limit).
		Scan(&counts).Error
	if err != nil {
		return nil, err
	}
	return counts, nil
}
