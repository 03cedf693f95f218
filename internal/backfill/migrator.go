// Package backfill sweeps historical posts and populates hashtag
// associations for content that predates the hashtag schema. Runs are
// idempotent and safe to repeat or resume after interruption.
package backfill

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/hashmind/hashmind/internal/hashtag"
	"github.com/hashmind/hashmind/internal/models"
	"github.com/hashmind/hashmind/internal/schema"
	"github.com/hashmind/hashmind/pkg/config"
	"github.com/hashmind/hashmind/pkg/logging"
)

// PostSource streams posts in bounded batches.
type PostSource interface {
	ScanBatches(ctx context.Context, batchSize int, fn func(posts []models.Post) error) error
}

// TagStore persists post-hashtag associations.
type TagStore interface {
	StoreHashtags(ctx context.Context, postID int64, tags []string) (int64, error)
	CountExistingAssociations(ctx context.Context, postID int64, tags []string) (int64, error)
}

// SchemaValidator checks the structural precondition before any data moves.
type SchemaValidator interface {
	Validate(ctx context.Context) ([]schema.Missing, error)
}

// SchemaMismatchError is returned when required tables or columns are
// absent. It is a fatal precondition, not a retryable failure: the operator
// must initialize the schema before running the backfill.
type SchemaMismatchError struct {
	Missing []schema.Missing
}

func (e *SchemaMismatchError) Error() string {
	return fmt.Sprintf("schema mismatch, missing: %s", schema.FormatMissing(e.Missing))
}

// Migrator performs the backfill sweep.
type Migrator struct {
	guard         SchemaValidator
	posts         PostSource
	store         TagStore
	batchSize     int
	progressEvery int
	logger        *zap.Logger
}

// Defaults applied when a caller hands in an unvalidated config.
const (
	defaultBatchSize     = 500
	defaultProgressEvery = 100
)

// NewMigrator creates a new backfill migrator
func NewMigrator(guard SchemaValidator, posts PostSource, store TagStore, cfg *config.BackfillConfig) *Migrator {
	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	progressEvery := cfg.ProgressEvery
	if progressEvery <= 0 {
		progressEvery = defaultProgressEvery
	}
	return &Migrator{
		guard:         guard,
		posts:         posts,
		store:         store,
		batchSize:     batchSize,
		progressEvery: progressEvery,
		logger:        logging.WithComponent("backfill"),
	}
}

// Run sweeps every post once, extracting hashtags and storing associations.
// A per-post failure is recorded in the report and the sweep continues; a
// single bad post never aborts the batch. With dryRun set, nothing is
// written and the report tallies what a real run would do.
func (m *Migrator) Run(ctx context.Context, dryRun bool) (*Report, error) {
	missing, err := m.guard.Validate(ctx)
	if err != nil {
		return nil, fmt.Errorf("schema validation failed: %w", err)
	}
	if len(missing) > 0 {
		return nil, &SchemaMismatchError{Missing: missing}
	}

	report := &Report{DryRun: dryRun}
	m.logger.Info("Starting hashtag backfill", zap.Bool("dry_run", dryRun))

	err = m.posts.ScanBatches(ctx, m.batchSize, func(posts []models.Post) error {
		for i := range posts {
			m.processPost(ctx, &posts[i], dryRun, report)
			if report.PostsScanned%int64(m.progressEvery) == 0 {
				m.logger.Info("Backfill progress",
					zap.Int64("posts_scanned", report.PostsScanned),
					zap.Int64("associations_created", report.AssociationsCreated),
					zap.Int64("associations_skipped", report.AssociationsSkipped),
					zap.Int("failures", len(report.Failures)))
			}
		}
		return nil
	})
	if err != nil {
		// Scan-level failure (storage unreachable), not a per-post one
		return report, fmt.Errorf("post scan failed: %w", err)
	}

	m.logger.Info("Backfill complete",
		zap.Int64("posts_scanned", report.PostsScanned),
		zap.Int64("posts_with_hashtags", report.PostsWithHashtags),
		zap.Int64("associations_created", report.AssociationsCreated),
		zap.Int64("associations_skipped", report.AssociationsSkipped),
		zap.Int("failures", len(report.Failures)))

	return report, nil
}

func (m *Migrator) processPost(ctx context.Context, post *models.Post, dryRun bool, report *Report) {
	report.PostsScanned++

	tags := hashtag.Extract(post.Content)
	if len(tags) == 0 {
		report.PostsWithoutHashtags++
		return
	}

	if dryRun {
		existing, err := m.store.CountExistingAssociations(ctx, post.ID, tags)
		if err != nil {
			m.recordFailure(report, post.ID, err)
			return
		}
		report.PostsWithHashtags++
		report.AssociationsSkipped += existing
		report.AssociationsCreated += int64(len(tags)) - existing
		return
	}

	created, err := m.store.StoreHashtags(ctx, post.ID, tags)
	if err != nil {
		m.recordFailure(report, post.ID, err)
		return
	}
	report.PostsWithHashtags++
	report.AssociationsCreated += created
	report.AssociationsSkipped += int64(len(tags)) - created
}

func (m *Migrator) recordFailure(report *Report, postID int64, err error) {
	report.Failures = append(report.Failures, PostFailure{PostID: postID, Reason: err.Error()})
	m.logger.Warn("Post failed during backfill, continuing",
		zap.Int64("post_id", postID),
		zap.Error(err))
}
