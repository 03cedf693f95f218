package models

import (
	"time"
)

// Follow represents a follow relationship between accounts. The table is
// owned by the relationship subsystem; the query engine reads it to resolve
// friend-scope filters.
type Follow struct {
	FollowerID int64     `gorm:"primaryKey;column:follower_id"`
	FolloweeID int64     `gorm:"primaryKey;column:followee_id"`
	CreatedAt  time.Time `gorm:"not null;column:created_at"`
}

// TableName specifies the table name for Follow
func (Follow) TableName() string {
	return "follows"
}
