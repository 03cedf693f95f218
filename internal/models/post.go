package models

import (
	"database/sql"
	"time"
)

// Post represents a post or reply. The posts table is owned by the
// post-CRUD subsystem; this service reads it but never writes it.
type Post struct {
	ID         int64         `gorm:"primaryKey;autoIncrement;column:id"`
	AuthorID   int64         `gorm:"not null;index;column:author_id"`
	Content    string        `gorm:"type:text;not null;column:content"`
	ParentID   sql.NullInt64 `gorm:"column:parent_id"`
	Upvotes    int64         `gorm:"not null;default:0;column:upvotes"`
	Downvotes  int64         `gorm:"not null;default:0;column:downvotes"`
	ReplyCount int64         `gorm:"not null;default:0;column:reply_count"`
	CreatedAt  time.Time     `gorm:"not null;column:created_at"`

	// Relationships
	Parent   *Post  `gorm:"foreignKey:ParentID;references:ID"`
	Children []Post `gorm:"foreignKey:ParentID;references:ID"`
}

// TableName specifies the table name for Post
func (Post) TableName() string {
	return "posts"
}

// IsReply reports whether the post is a reply rather than a top-level post.
func (p *Post) IsReply() bool {
	return p.ParentID.Valid
}

// Score returns the net vote score.
func (p *Post) Score() int64 {
	return p.Upvotes - p.Downvotes
}
