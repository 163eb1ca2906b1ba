package model

import "time"

// Follow is one edge of the follow graph: follower -> followee.
type Follow struct {
	ID         int64     `gorm:"primaryKey;autoIncrement" json:"-"`
	FollowerID int64     `gorm:"uniqueIndex:uniq_follow_edge;not null" json:"followerId"`
	FolloweeID int64     `gorm:"uniqueIndex:uniq_follow_edge;not null" json:"followeeId"`
	CreatedAt  time.Time `json:"createdAt"`
}

func (Follow) TableName() string { return "follows" }

// FollowEdge is the list projection of a follow relation: the other user's
// identifier plus when the edge was created.
type FollowEdge struct {
	UserID    int64     `json:"user"`
	CreatedAt time.Time `json:"createdAt"`
}
