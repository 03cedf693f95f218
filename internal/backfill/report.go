package backfill

import "fmt"

// PostFailure records a single post that could not be processed.
type PostFailure struct {
	PostID int64  `json:"post_id"`
	Reason string `json:"reason"`
}

// Report aggregates the outcome of one backfill run. It is the single source
// of truth an operator inspects to confirm completeness; per-post failures
// never vanish silently. The report is returned to the caller and not
// persisted.
type Report struct {
	DryRun               bool          `json:"dry_run"`
	PostsScanned         int64         `json:"posts_scanned"`
	PostsWithHashtags    int64         `json:"posts_with_hashtags"`
	PostsWithoutHashtags int64         `json:"posts_without_hashtags"`
	AssociationsCreated  int64         `json:"associations_created"`
	AssociationsSkipped  int64         `json:"associations_skipped"`
	Failures             []PostFailure `json:"failures,omitempty"`
}

// Consistent reports whether the tallies add up: every scanned post lands in
// exactly one of the with/without/failed buckets.
func (r *Report) Consistent() bool {
	return r.PostsScanned == r.PostsWithHashtags+r.PostsWithoutHashtags+int64(len(r.Failures))
}

// Summary renders a one-line operator summary.
func (r *Report) Summary() string {
	mode := "run"
	if r.DryRun {
		mode = "dry-run"
	}
	return fmt.Sprintf(
		"backfill %s: scanned=%d with_hashtags=%d without_hashtags=%d created=%d skipped=%d failures=%d",
		mode, r.PostsScanned, r.PostsWithHashtags, r.PostsWithoutHashtags,
		r.AssociationsCreated, r.AssociationsSkipped, len(r.Failures))
}
