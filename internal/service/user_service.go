package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/errandly/errandly/internal/dao"
	"github.com/errandly/errandly/internal/logging"
	"github.com/errandly/errandly/internal/model"
)

// UserService owns registration, profile updates and identity resolution.
// Identity is unique and immutable after creation; profiles are mutated,
// never deleted.
type UserService struct {
	userDao dao.UserDao
}

func NewUserService(userDao dao.UserDao) *UserService {
	return &UserService{userDao: userDao}
}

func (s *UserService) Register(ctx context.Context, displayName, identity string) (int64, error) {
	if strings.TrimSpace(displayName) == "" || strings.TrimSpace(identity) == "" {
		return 0, fmt.Errorf("%w: display_name and identity are required", ErrValidation)
	}
	u := &model.User{DisplayName: displayName, Identity: identity}
	if err := s.userDao.Create(ctx, u); err != nil {
		return 0, fmt.Errorf("create user: %w", err)
	}
	logging.Infof(ctx, "user registered id=%d identity=%s", u.ID, identity)
	return u.ID, nil
}

// Resolve maps an external identity to the stored user record.
func (s *UserService) Resolve(ctx context.Context, identity string) (*model.User, error) {
	u, err := s.userDao.GetByIdentity(ctx, identity)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	return u, nil
}

// UpdateDisplayName lets a user rename their own profile only.
func (s *UserService) UpdateDisplayName(ctx context.Context, caller *model.User, targetID int64, displayName string) error {
	if caller.ID != targetID {
		return fmt.Errorf("%w: users may only update their own profile", ErrUnauthorized)
	}
	if strings.TrimSpace(displayName) == "" {
		return fmt.Errorf("%w: display_name is required", ErrValidation)
	}
	if err := s.userDao.UpdateDisplayName(ctx, targetID, displayName); err != nil {
		return mapStoreErr(err)
	}
	return nil
}

// SetBlockedUsers replaces the caller's blocked set.
func (s *UserService) SetBlockedUsers(ctx context.Context, caller *model.User, blocked []int64) error {
	parts := make([]string, 0, len(blocked))
	for _, id := range blocked {
		if id <= 0 {
			return fmt.Errorf("%w: invalid blocked user id %d", ErrValidation, id)
		}
		parts = append(parts, strconv.FormatInt(id, 10))
	}
	if err := s.userDao.UpdateBlockedList(ctx, caller.ID, strings.Join(parts, ",")); err != nil {
		return mapStoreErr(err)
	}
	return nil
}

// SetMinTaskPrice updates the caller's minimum acceptable task price.
func (s *UserService) SetMinTaskPrice(ctx context.Context, caller *model.User, minPrice int64) error {
	if minPrice < 0 {
		return fmt.Errorf("%w: min_task_price must be non-negative", ErrValidation)
	}
	if err := s.userDao.UpdateMinTaskPrice(ctx, caller.ID, minPrice); err != nil {
		return mapStoreErr(err)
	}
	return nil
}
