package dao

import (
	"context"

	"gorm.io/gorm"

	"github.com/errandly/errandly/internal/model"
)

type UserDao interface {
	Create(ctx context.Context, u *model.User) error
	Get(ctx context.Context, id int64) (*model.User, error)
	GetByIdentity(ctx context.Context, identity string) (*model.User, error)
	UpdateDisplayName(ctx context.Context, id int64, displayName string) error
	UpdateBlockedList(ctx context.Context, id int64, blockedCSV string) error
	UpdateMinTaskPrice(ctx context.Context, id int64, minPrice int64) error
}

type userDaoImpl struct{ db *gorm.DB }

func NewUserDao(db *gorm.DB) UserDao { return &userDaoImpl{db: db} }

func (r *userDaoImpl) Create(ctx context.Context, u *model.User) error {
	return r.db.WithContext(ctx).Create(u).Error
}

func (r *userDaoImpl) Get(ctx context.Context, id int64) (*model.User, error) {
	var u model.User
	if err := r.db.WithContext(ctx).Where("id=?", id).First(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *userDaoImpl) GetByIdentity(ctx context.Context, identity string) (*model.User, error) {
	var u model.User
	if err := r.db.WithContext(ctx).Where("identity=?", identity).First(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *userDaoImpl) UpdateDisplayName(ctx context.Context, id int64, displayName string) error {
	res := r.db.WithContext(ctx).Model(&model.User{}).Where("id=?", id).Update("display_name", displayName)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *userDaoImpl) UpdateBlockedList(ctx context.Context, id int64, blockedCSV string) error {
	res := r.db.WithContext(ctx).Model(&model.User{}).Where("id=?", id).Update("blocked_user_ids", blockedCSV)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *userDaoImpl) UpdateMinTaskPrice(ctx context.Context, id int64, minPrice int64) error {
	res := r.db.WithContext(ctx).Model(&model.User{}).Where("id=?", id).Update("min_task_price", minPrice)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
