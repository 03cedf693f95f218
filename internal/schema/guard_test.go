package schema

import (
	"testing"
)

func TestMissingString(t *testing.T) {
	tests := []struct {
		name     string
		missing  Missing
		expected string
	}{
		{"table only", Missing{Table: "hashtags"}, "table hashtags"},
		{"table and column", Missing{Table: "post_hashtags", Column: "post_id"}, "column post_hashtags.post_id"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.missing.String(); got != tt.expected {
				t.Errorf("String() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestFormatMissing(t *testing.T) {
	missing := []Missing{
		{Table: "hashtags"},
		{Table: "post_hashtags", Column: "hashtag_id"},
	}
	expected := "table hashtags, column post_hashtags.hashtag_id"
	if got := FormatMissing(missing); got != expected {
		t.Errorf("FormatMissing() = %q, want %q", got, expected)
	}

	if got := FormatMissing(nil); got != "" {
		t.Errorf("FormatMissing(nil) = %q, want empty", got)
	}
}

func TestRequiredColumnsCoverSchemaSurface(t *testing.T) {
	for _, table := range []string{"hashtags", "post_hashtags", "user_hashtag_follows", "user_hashtag_activity"} {
		if _, ok := requiredColumns[table]; !ok {
			t.Errorf("required schema surface missing table %s", table)
		}
	}

	assoc := requiredColumns["post_hashtags"]
	want := map[string]bool{"post_id": false, "hashtag_id": false}
	for _, col := range assoc.columns {
		if _, ok := want[col]; ok {
			want[col] = true
		}
	}
	for col, found := range want {
		if !found {
			t.Errorf("post_hashtags must require column %s", col)
		}
	}
}
