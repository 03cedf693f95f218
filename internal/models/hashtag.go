package models

import (
	"time"
)

// Hashtag represents a distinct normalized hashtag. Names are stored
// lowercased so uniqueness is case-insensitive at the storage boundary.
type Hashtag struct {
	ID        int64     `gorm:"primaryKey;autoIncrement;column:id"`
	Name      string    `gorm:"type:varchar(64);not null;uniqueIndex:idx_hashtags_name;column:name"`
	CreatedAt time.Time `gorm:"not null;autoCreateTime;column:created_at"`
}

// TableName specifies the table name for Hashtag
func (Hashtag) TableName() string {
	return "hashtags"
}

// PostHashtag represents a post-to-hashtag association. The composite
// primary key is the uniqueness constraint that makes the upsert idempotent.
type PostHashtag struct {
	PostID    int64 `gorm:"primaryKey;column:post_id"`
	HashtagID int64 `gorm:"primaryKey;column:hashtag_id"`

	// Relationships
	Post    *Post    `gorm:"foreignKey:PostID;references:ID"`
	Hashtag *Hashtag `gorm:"foreignKey:HashtagID;references:ID"`
}

// TableName specifies the table name for PostHashtag
func (PostHashtag) TableName() string {
	return "post_hashtags"
}

// UserHashtagFollow represents a user following a hashtag. Written by the
// follow subsystem; this service only validates the table's presence.
type UserHashtagFollow struct {
	UserID    int64     `gorm:"primaryKey;column:user_id"`
	HashtagID int64     `gorm:"primaryKey;column:hashtag_id"`
	CreatedAt time.Time `gorm:"not null;autoCreateTime;column:created_at"`
}

// TableName specifies the table name for UserHashtagFollow
func (UserHashtagFollow) TableName() string {
	return "user_hashtag_follows"
}

// UserHashtagActivity represents per-user hashtag engagement counters.
// Written by the recommendation subsystem; presence-validated here.
type UserHashtagActivity struct {
	UserID     int64     `gorm:"primaryKey;column:user_id"`
	HashtagID  int64     `gorm:"primaryKey;column:hashtag_id"`
	ViewCount  int64     `gorm:"not null;default:0;column:view_count"`
	LastViewed time.Time `gorm:"column:last_viewed"`
}

// TableName specifies the table name for UserHashtagActivity
func (UserHashtagActivity) TableName() string {
	return "user_hashtag_activity"
}
