package dao

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/errandly/errandly/internal/consts"
	"github.com/errandly/errandly/internal/model"
)

// TaskDao persists tasks. Every lifecycle transition is a single conditional
// UPDATE keyed on the state-determining timestamp columns; callers learn
// whether they won the transition from the returned bool, never by reading
// first and writing second.
type TaskDao interface {
	Create(ctx context.Context, t *model.Task) error
	Get(ctx context.Context, id int64) (*model.Task, error)
	ListFiltered(ctx context.Context, f *model.TaskListFilters, limit, offset int) ([]*model.Task, error)
	CountFiltered(ctx context.Context, f *model.TaskListFilters) (int64, error)

	// Claim sets executor and accepted_time iff the task is still unassigned.
	Claim(ctx context.Context, taskID, executorID int64, now time.Time) (bool, error)
	// MarkCompleted sets completed_time iff the task is accepted and assigned
	// to the given executor.
	MarkCompleted(ctx context.Context, taskID, executorID int64, now time.Time) (bool, error)
	// MarkCanceled sets canceled_time iff the task is accepted.
	MarkCanceled(ctx context.Context, taskID int64, now time.Time) (bool, error)
	// MarkExpired cancels an accepted task iff it was accepted before cutoff.
	MarkExpired(ctx context.Context, taskID int64, cutoff, now time.Time) (bool, error)
	// ListAcceptedBefore returns accepted tasks whose accepted_time precedes
	// cutoff, for the expiration sweep.
	ListAcceptedBefore(ctx context.Context, cutoff time.Time, limit int) ([]*model.Task, error)
}

type taskDaoImpl struct{ db *gorm.DB }

func NewTaskDao(db *gorm.DB) TaskDao { return &taskDaoImpl{db: db} }

func (r *taskDaoImpl) Create(ctx context.Context, t *model.Task) error {
	return r.db.WithContext(ctx).Create(t).Error
}

func (r *taskDaoImpl) Get(ctx context.Context, id int64) (*model.Task, error) {
	var t model.Task
	if err := r.db.WithContext(ctx).Where("id=?", id).First(&t).Error; err != nil {
		return nil, err
	}
	return &t, nil
}

func applyFilters(q *gorm.DB, f *model.TaskListFilters) *gorm.DB {
	if f == nil {
		return q
	}
	switch f.Status {
	case consts.TaskUnassigned:
		q = q.Where("accepted_time IS NULL AND completed_time IS NULL AND canceled_time IS NULL")
	case consts.TaskAccepted:
		q = q.Where("accepted_time IS NOT NULL AND completed_time IS NULL AND canceled_time IS NULL")
	case consts.TaskCompleted:
		q = q.Where("completed_time IS NOT NULL AND canceled_time IS NULL")
	case consts.TaskCanceled:
		q = q.Where("canceled_time IS NOT NULL")
	}
	if f.RequestedByID > 0 {
		q = q.Where("requested_by_id=?", f.RequestedByID)
	}
	if f.ExecutedByID > 0 {
		q = q.Where("executed_by_id=?", f.ExecutedByID)
	}
	if len(f.ExcludeRequesters) > 0 {
		q = q.Where("requested_by_id NOT IN ?", f.ExcludeRequesters)
	}
	return q
}

func (r *taskDaoImpl) ListFiltered(ctx context.Context, f *model.TaskListFilters, limit, offset int) ([]*model.Task, error) {
	var list []*model.Task
	q := applyFilters(r.db.WithContext(ctx).Model(&model.Task{}), f).Order("id ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if offset > 0 {
		q = q.Offset(offset)
	}
	if err := q.Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *taskDaoImpl) CountFiltered(ctx context.Context, f *model.TaskListFilters) (int64, error) {
	var n int64
	err := applyFilters(r.db.WithContext(ctx).Model(&model.Task{}), f).Count(&n).Error
	return n, err
}

func (r *taskDaoImpl) Claim(ctx context.Context, taskID, executorID int64, now time.Time) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.Task{}).
		Where("id=? AND accepted_time IS NULL AND completed_time IS NULL AND canceled_time IS NULL", taskID).
		Updates(map[string]any{"executed_by_id": executorID, "accepted_time": now})
	return res.RowsAffected == 1 && res.Error == nil, res.Error
}

func (r *taskDaoImpl) MarkCompleted(ctx context.Context, taskID, executorID int64, now time.Time) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.Task{}).
		Where("id=? AND executed_by_id=? AND accepted_time IS NOT NULL AND completed_time IS NULL AND canceled_time IS NULL", taskID, executorID).
		Update("completed_time", now)
	return res.RowsAffected == 1 && res.Error == nil, res.Error
}

func (r *taskDaoImpl) MarkCanceled(ctx context.Context, taskID int64, now time.Time) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.Task{}).
		Where("id=? AND accepted_time IS NOT NULL AND completed_time IS NULL AND canceled_time IS NULL", taskID).
		Update("canceled_time", now)
	return res.RowsAffected == 1 && res.Error == nil, res.Error
}

func (r *taskDaoImpl) MarkExpired(ctx context.Context, taskID int64, cutoff, now time.Time) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.Task{}).
		Where("id=? AND accepted_time IS NOT NULL AND accepted_time<? AND completed_time IS NULL AND canceled_time IS NULL", taskID, cutoff).
		Update("canceled_time", now)
	return res.RowsAffected == 1 && res.Error == nil, res.Error
}

func (r *taskDaoImpl) ListAcceptedBefore(ctx context.Context, cutoff time.Time, limit int) ([]*model.Task, error) {
	var list []*model.Task
	q := r.db.WithContext(ctx).
		Where("accepted_time IS NOT NULL AND accepted_time<? AND completed_time IS NULL AND canceled_time IS NULL", cutoff).
		Order("accepted_time ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}
