package dao

import (
	"context"

	"gorm.io/gorm"

	"github.com/errandly/errandly/internal/model"
)

type MessageDao interface {
	Create(ctx context.Context, m *model.Message) error
	ListByTask(ctx context.Context, taskID int64, offset, limit int) ([]*model.Message, error)
}

type messageDaoImpl struct{ db *gorm.DB }

func NewMessageDao(db *gorm.DB) MessageDao { return &messageDaoImpl{db: db} }

func (r *messageDaoImpl) Create(ctx context.Context, m *model.Message) error {
	return r.db.WithContext(ctx).Create(m).Error
}

// ListByTask returns messages in creation order (id ascending).
func (r *messageDaoImpl) ListByTask(ctx context.Context, taskID int64, offset, limit int) ([]*model.Message, error) {
	var list []*model.Message
	q := r.db.WithContext(ctx).Where("task_id=?", taskID).Order("id ASC")
	if offset > 0 {
		q = q.Offset(offset)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}
