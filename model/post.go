package model

import "time"

// PostRef records that a post belongs to an author. Posts themselves live in
// another service; this table only keeps the ordered reference list that
// backs a user's posts and postsCount.
type PostRef struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"-"`
	AuthorID  int64     `gorm:"index:idx_post_refs_author;not null" json:"authorId"`
	PostID    int64     `gorm:"uniqueIndex;not null" json:"postId"`
	CreatedAt time.Time `json:"createdAt"`
}

func (PostRef) TableName() string { return "post_refs" }
