// Package schema owns structural validation and bootstrapping of the
// hashtag tables. Every other component assumes the schema exists; this is
// the single place that checks instead of assuming.
package schema

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/hashmind/hashmind/internal/models"
	"github.com/hashmind/hashmind/pkg/logging"
)

// Missing identifies a required schema element that is absent. Column is
// empty when an entire table is missing.
type Missing struct {
	Table  string
	Column string
}

func (m Missing) String() string {
	if m.Column == "" {
		return fmt.Sprintf("table %s", m.Table)
	}
	return fmt.Sprintf("column %s.%s", m.Table, m.Column)
}

// FormatMissing renders a missing-element list for diagnostics.
func FormatMissing(missing []Missing) string {
	parts := make([]string, len(missing))
	for i, m := range missing {
		parts[i] = m.String()
	}
	return strings.Join(parts, ", ")
}

// requiredColumns lists, per model, the columns whose presence is a hard
// precondition for the write and query paths.
var requiredColumns = map[string]struct {
	model   interface{}
	columns []string
}{
	"hashtags":              {&models.Hashtag{}, []string{"id", "name"}},
	"post_hashtags":         {&models.PostHashtag{}, []string{"post_id", "hashtag_id"}},
	"user_hashtag_follows":  {&models.UserHashtagFollow{}, nil},
	"user_hashtag_activity": {&models.UserHashtagActivity{}, nil},
}

// Guard validates and bootstraps the hashtag schema.
type Guard struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewGuard creates a new schema guard
func NewGuard(db *gorm.DB) *Guard {
	return &Guard{
		db:     db,
		logger: logging.WithComponent("schema-guard"),
	}
}

// Validate inspects the database catalog and returns every required table or
// column that is absent. An empty result means the schema is usable.
func (g *Guard) Validate(ctx context.Context) ([]Missing, error) {
	migrator := g.db.WithContext(ctx).Migrator()

	var missing []Missing
	for table, req := range requiredColumns {
		if !migrator.HasTable(req.model) {
			missing = append(missing, Missing{Table: table})
			continue
		}
		for _, col := range req.columns {
			if !migrator.HasColumn(req.model, col) {
				missing = append(missing, Missing{Table: table, Column: col})
			}
		}
	}

	if len(missing) > 0 {
		g.logger.Warn("Schema validation found missing elements",
			zap.String("missing", FormatMissing(missing)))
	}
	return missing, nil
}

// EnsureInitialized applies the full hashtag schema. Applying it to an
// already-correct schema is a no-op. Must run at process startup before any
// other component of this service is used.
func (g *Guard) EnsureInitialized(ctx context.Context) error {
	err := g.db.WithContext(ctx).AutoMigrate(
		&models.Hashtag{},
		&models.PostHashtag{},
		&models.UserHashtagFollow{},
		&models.UserHashtagActivity{},
	)
	if err != nil {
		return fmt.Errorf("failed to initialize hashtag schema: %w", err)
	}

	g.logger.Info("Hashtag schema initialized")
	return nil
}
