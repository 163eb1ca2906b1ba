package repository

import (
	"fmt"
	"time"

	"pulsegram/model"

	"gorm.io/gorm"
)

// PostRefRepository keeps the per-user ordered post reference list and its
// denormalized counter in step. The posts themselves are owned by another
// service; only identifiers pass through here.
type PostRefRepository interface {
	Attach(authorID, postID int64) error
	Detach(authorID, postID int64) error
	ListPostIDs(authorID int64, limit, offset int) ([]int64, error)
}

type gormPostRefRepository struct {
	db *gorm.DB
}

// NewGormPostRefRepository creates a post reference repository over GORM.
func NewGormPostRefRepository(db *gorm.DB) PostRefRepository {
	return &gormPostRefRepository{db: db}
}

// Attach records a post reference and bumps posts_count atomically.
func (r *gormPostRefRepository) Attach(authorID, postID int64) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		ref := &model.PostRef{AuthorID: authorID, PostID: postID, CreatedAt: time.Now()}
		if err := tx.Create(ref).Error; err != nil {
			if isDuplicateKey(err) {
				// Reference already recorded; nothing to count.
				return nil
			}
			return fmt.Errorf("failed to create post reference: %w", err)
		}
		if err := tx.Exec("UPDATE users SET posts_count = posts_count + 1 WHERE id = ?", authorID).Error; err != nil {
			return fmt.Errorf("failed to bump posts count: %w", err)
		}
		return nil
	})
}

// Detach removes a post reference and decrements posts_count atomically.
func (r *gormPostRefRepository) Detach(authorID, postID int64) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Where("author_id = ? AND post_id = ?", authorID, postID).Delete(&model.PostRef{})
		if res.Error != nil {
			return fmt.Errorf("failed to delete post reference: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return nil
		}
		if err := tx.Exec("UPDATE users SET posts_count = posts_count - 1 WHERE id = ? AND posts_count > 0", authorID).Error; err != nil {
			return fmt.Errorf("failed to drop posts count: %w", err)
		}
		return nil
	})
}

// ListPostIDs returns the author's post identifiers in insertion order.
func (r *gormPostRefRepository) ListPostIDs(authorID int64, limit, offset int) ([]int64, error) {
	if limit <= 0 {
		limit = 50
	}

	var ids []int64
	err := r.db.Model(&model.PostRef{}).
		Where("author_id = ?", authorID).
		Order("id ASC").
		Limit(limit).
		Offset(offset).
		Pluck("post_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list post references: %w", err)
	}
	return ids, nil
}
