package backfill

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/hashmind/hashmind/internal/models"
	"github.com/hashmind/hashmind/internal/schema"
	"github.com/hashmind/hashmind/pkg/config"
)

type fakeGuard struct {
	missing []schema.Missing
	err     error
}

func (g *fakeGuard) Validate(ctx context.Context) ([]schema.Missing, error) {
	return g.missing, g.err
}

type fakeSource struct {
	posts []models.Post
}

func (s *fakeSource) ScanBatches(ctx context.Context, batchSize int, fn func(posts []models.Post) error) error {
	for start := 0; start < len(s.posts); start += batchSize {
		end := start + batchSize
		if end > len(s.posts) {
			end = len(s.posts)
		}
		if err := fn(s.posts[start:end]); err != nil {
			return err
		}
	}
	return nil
}

type pair struct {
	postID int64
	tag    string
}

type fakeStore struct {
	associations map[pair]bool
	failPosts    map[int64]error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		associations: make(map[pair]bool),
		failPosts:    make(map[int64]error),
	}
}

func (s *fakeStore) StoreHashtags(ctx context.Context, postID int64, tags []string) (int64, error) {
	if err := s.failPosts[postID]; err != nil {
		return 0, err
	}
	var created int64
	for _, tag := range tags {
		p := pair{postID, tag}
		if !s.associations[p] {
			s.associations[p] = true
			created++
		}
	}
	return created, nil
}

func (s *fakeStore) CountExistingAssociations(ctx context.Context, postID int64, tags []string) (int64, error) {
	if err := s.failPosts[postID]; err != nil {
		return 0, err
	}
	var existing int64
	for _, tag := range tags {
		if s.associations[pair{postID, tag}] {
			existing++
		}
	}
	return existing, nil
}

func testConfig() *config.BackfillConfig {
	return &config.BackfillConfig{BatchSize: 3, ProgressEvery: 100}
}

func makePosts(contents ...string) []models.Post {
	posts := make([]models.Post, len(contents))
	for i, c := range contents {
		posts[i] = models.Post{ID: int64(i + 1), Content: c, CreatedAt: time.Now()}
	}
	return posts
}

func TestRunPopulatesAssociations(t *testing.T) {
	posts := makePosts(
		"hello #kiro world",
		"all about #go and #Rust",
		"no tags here",
		"#go again",
	)
	store := newFakeStore()
	m := NewMigrator(&fakeGuard{}, &fakeSource{posts: posts}, store, testConfig())

	report, err := m.Run(context.Background(), false)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if report.PostsScanned != 4 {
		t.Errorf("PostsScanned = %d, want 4", report.PostsScanned)
	}
	if report.PostsWithHashtags != 3 {
		t.Errorf("PostsWithHashtags = %d, want 3", report.PostsWithHashtags)
	}
	if report.PostsWithoutHashtags != 1 {
		t.Errorf("PostsWithoutHashtags = %d, want 1", report.PostsWithoutHashtags)
	}
	if report.AssociationsCreated != 4 {
		t.Errorf("AssociationsCreated = %d, want 4", report.AssociationsCreated)
	}
	if report.AssociationsSkipped != 0 {
		t.Errorf("AssociationsSkipped = %d, want 0", report.AssociationsSkipped)
	}
	if !report.Consistent() {
		t.Error("report totals are inconsistent")
	}

	for _, want := range []pair{{1, "kiro"}, {2, "go"}, {2, "rust"}, {4, "go"}} {
		if !store.associations[want] {
			t.Errorf("missing association %+v", want)
		}
	}
}

func TestRunIsIdempotent(t *testing.T) {
	posts := makePosts("#a #b", "#b #c")
	store := newFakeStore()
	m := NewMigrator(&fakeGuard{}, &fakeSource{posts: posts}, store, testConfig())

	first, err := m.Run(context.Background(), false)
	if err != nil {
		t.Fatalf("first run failed: %v", err)
	}
	if first.AssociationsCreated != 4 {
		t.Fatalf("first run created = %d, want 4", first.AssociationsCreated)
	}

	second, err := m.Run(context.Background(), false)
	if err != nil {
		t.Fatalf("second run failed: %v", err)
	}
	if second.AssociationsCreated != 0 {
		t.Errorf("second run created = %d, want 0", second.AssociationsCreated)
	}
	if second.AssociationsSkipped != first.AssociationsCreated {
		t.Errorf("second run skipped = %d, want %d", second.AssociationsSkipped, first.AssociationsCreated)
	}
	if !second.Consistent() {
		t.Error("second report totals are inconsistent")
	}
}

func TestDryRunWritesNothing(t *testing.T) {
	posts := makePosts("#x #y", "#y")
	store := newFakeStore()
	store.associations[pair{2, "y"}] = true

	m := NewMigrator(&fakeGuard{}, &fakeSource{posts: posts}, store, testConfig())
	report, err := m.Run(context.Background(), true)
	if err != nil {
		t.Fatalf("dry run failed: %v", err)
	}

	if !report.DryRun {
		t.Error("report should be marked dry-run")
	}
	if report.AssociationsCreated != 2 {
		t.Errorf("would-create = %d, want 2", report.AssociationsCreated)
	}
	if report.AssociationsSkipped != 1 {
		t.Errorf("would-skip = %d, want 1", report.AssociationsSkipped)
	}
	if len(store.associations) != 1 {
		t.Errorf("dry run mutated the store: %d associations", len(store.associations))
	}
}

func TestRunAbortsOnSchemaMismatch(t *testing.T) {
	guard := &fakeGuard{missing: []schema.Missing{{Table: "post_hashtags"}}}
	store := newFakeStore()
	m := NewMigrator(guard, &fakeSource{posts: makePosts("#a")}, store, testConfig())

	_, err := m.Run(context.Background(), false)
	if err == nil {
		t.Fatal("expected schema mismatch error")
	}

	var mismatch *SchemaMismatchError
	if !errors.As(err, &mismatch) {
		t.Fatalf("expected *SchemaMismatchError, got %T: %v", err, err)
	}
	if len(store.associations) != 0 {
		t.Error("no data changes allowed on schema mismatch")
	}
}

func TestRunContinuesPastFailedPost(t *testing.T) {
	posts := makePosts("#a", "#b", "#c")
	store := newFakeStore()
	store.failPosts[2] = fmt.Errorf("constraint violated")

	m := NewMigrator(&fakeGuard{}, &fakeSource{posts: posts}, store, testConfig())
	report, err := m.Run(context.Background(), false)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if len(report.Failures) != 1 {
		t.Fatalf("failures = %d, want 1", len(report.Failures))
	}
	if report.Failures[0].PostID != 2 {
		t.Errorf("failed post = %d, want 2", report.Failures[0].PostID)
	}
	if report.AssociationsCreated != 2 {
		t.Errorf("created = %d, want 2 (posts 1 and 3)", report.AssociationsCreated)
	}
	if !store.associations[pair{3, "c"}] {
		t.Error("post after the failed one was not processed")
	}
	if !report.Consistent() {
		t.Error("report totals are inconsistent")
	}
}

func TestNewMigratorDefaultsZeroConfig(t *testing.T) {
	// A zero-valued config must not leave the migrator dividing by zero on
	// its progress cadence.
	posts := makePosts("#a", "#b")
	m := NewMigrator(&fakeGuard{}, &fakeSource{posts: posts}, newFakeStore(), &config.BackfillConfig{})

	report, err := m.Run(context.Background(), false)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if report.PostsScanned != 2 {
		t.Errorf("PostsScanned = %d, want 2", report.PostsScanned)
	}
}

func TestRunEmptyDatabase(t *testing.T) {
	m := NewMigrator(&fakeGuard{}, &fakeSource{}, newFakeStore(), testConfig())
	report, err := m.Run(context.Background(), false)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if report.PostsScanned != 0 || report.AssociationsCreated != 0 || len(report.Failures) != 0 {
		t.Errorf("expected all-zero report, got %s", report.Summary())
	}
}

func TestReportSummary(t *testing.T) {
	report := &Report{
		PostsScanned:        10,
		PostsWithHashtags:   6,
		AssociationsCreated: 9,
	}
	got := report.Summary()
	want := "backfill run: scanned=10 with_hashtags=6 without_hashtags=0 created=9 skipped=0 failures=0"
	if got != want {
		t.Errorf("Summary() = %q, want %q", got, want)
	}
}
