package repository

import (
	"errors"
	"fmt"
	"time"

	"pulsegram/model"

	"gorm.io/gorm"
)

// FollowRepository owns the follow graph. Every mutation maintains the
// denormalized follower/following counters inside the same transaction as
// the edge change.
type FollowRepository interface {
	Follow(followerID, followeeID int64) (*model.Follow, error)
	Unfollow(followerID, followeeID int64) error
	Followers(userID int64, limit, offset int) ([]model.FollowEdge, error)
	Following(userID int64, limit, offset int) ([]model.FollowEdge, error)
	IsFollowing(followerID, followeeID int64) (bool, error)
}

type gormFollowRepository struct {
	db *gorm.DB
}

// NewGormFollowRepository creates a follow repository over GORM.
func NewGormFollowRepository(db *gorm.DB) FollowRepository {
	return &gormFollowRepository{db: db}
}

// Follow creates the edge and bumps both counters atomically.
func (r *gormFollowRepository) Follow(followerID, followeeID int64) (*model.Follow, error) {
	if followerID == followeeID {
		return nil, ErrSelfFollow
	}

	edge := &model.Follow{
		FollowerID: followerID,
		FolloweeID: followeeID,
		CreatedAt:  time.Now(),
	}

	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(edge).Error; err != nil {
			if isDuplicateKey(err) {
				return ErrAlreadyFollowing
			}
			return fmt.Errorf("failed to create follow edge: %w", err)
		}
		if err := tx.Exec("UPDATE users SET followers_count = followers_count + 1 WHERE id = ?", followeeID).Error; err != nil {
			return fmt.Errorf("failed to bump followers count: %w", err)
		}
		if err := tx.Exec("UPDATE users SET following_count = following_count + 1 WHERE id = ?", followerID).Error; err != nil {
			return fmt.Errorf("failed to bump following count: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return edge, nil
}

// Unfollow removes the edge and decrements both counters atomically.
func (r *gormFollowRepository) Unfollow(followerID, followeeID int64) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Where("follower_id = ? AND followee_id = ?", followerID, followeeID).Delete(&model.Follow{})
		if res.Error != nil {
			return fmt.Errorf("failed to delete follow edge: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrNotFollowing
		}
		if err := tx.Exec("UPDATE users SET followers_count = followers_count - 1 WHERE id = ? AND followers_count > 0", followeeID).Error; err != nil {
			return fmt.Errorf("failed to drop followers count: %w", err)
		}
		if err := tx.Exec("UPDATE users SET following_count = following_count - 1 WHERE id = ? AND following_count > 0", followerID).Error; err != nil {
			return fmt.Errorf("failed to drop following count: %w", err)
		}
		return nil
	})
}

// Followers lists users following userID, newest first.
func (r *gormFollowRepository) Followers(userID int64, limit, offset int) ([]model.FollowEdge, error) {
	return r.edges("followee_id", "follower_id", userID, limit, offset)
}

// Following lists users userID follows, newest first.
func (r *gormFollowRepository) Following(userID int64, limit, offset int) ([]model.FollowEdge, error) {
	return r.edges("follower_id", "followee_id", userID, limit, offset)
}

func (r *gormFollowRepository) edges(whereCol, selectCol string, userID int64, limit, offset int) ([]model.FollowEdge, error) {
	if limit <= 0 {
		limit = 50
	}

	var edges []model.FollowEdge
	err := r.db.Model(&model.Follow{}).
		Select(selectCol+" AS user_id, created_at").
		Where(whereCol+" = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Scan(&edges).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list follow edges: %w", err)
	}
	return edges, nil
}

// IsFollowing reports whether the edge exists.
func (r *gormFollowRepository) IsFollowing(followerID, followeeID int64) (bool, error) {
	var edge model.Follow
	err := r.db.Where("follower_id = ? AND followee_id = ?", followerID, followeeID).First(&edge).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("failed to check follow edge: %w", err)
	}
	return true, nil
}
