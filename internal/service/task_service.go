package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/errandly/errandly/internal/consts"
	"github.com/errandly/errandly/internal/dao"
	"github.com/errandly/errandly/internal/logging"
	"github.com/errandly/errandly/internal/metrics"
	"github.com/errandly/errandly/internal/model"
	"github.com/errandly/errandly/internal/payment"
)

// TaskService drives the task lifecycle: submit, claim, complete (with
// payment capture), cancel, list. All transitions go through conditional
// DAO updates, so two racing callers resolve deterministically: whoever
// commits first wins, the loser gets ErrInvalidTransition.
type TaskService struct {
	taskDao  dao.TaskDao
	userDao  dao.UserDao
	gateway  payment.Gateway
	currency string

	now func() time.Time
}

func NewTaskService(taskDao dao.TaskDao, userDao dao.UserDao, gw payment.Gateway, currency string) *TaskService {
	if currency == "" {
		currency = "usd"
	}
	return &TaskService{taskDao: taskDao, userDao: userDao, gateway: gw, currency: currency, now: time.Now}
}

// SetClock substitutes the wall-clock source, for tests.
func (s *TaskService) SetClock(now func() time.Time) { s.now = now }

// Submit creates a task in the unassigned state.
func (s *TaskService) Submit(ctx context.Context, requester *model.User, description string, minPrice, maxPrice int64, paymentMethodID string) (int64, error) {
	if strings.TrimSpace(description) == "" {
		return 0, fmt.Errorf("%w: description is empty", ErrValidation)
	}
	if minPrice < 0 || minPrice > maxPrice {
		return 0, fmt.Errorf("%w: price range [%d,%d]", ErrValidation, minPrice, maxPrice)
	}
	if strings.TrimSpace(paymentMethodID) == "" {
		return 0, fmt.Errorf("%w: payment method is required", ErrValidation)
	}
	now := s.now()
	t := &model.Task{
		Description:     description,
		MinPrice:        minPrice,
		MaxPrice:        maxPrice,
		RequestedByID:   requester.ID,
		SubmittedTime:   &now,
		PaymentMethodID: paymentMethodID,
	}
	if err := s.taskDao.Create(ctx, t); err != nil {
		return 0, fmt.Errorf("create task: %w", err)
	}
	metrics.TasksSubmitted.Inc()
	logging.Infof(ctx, "task submitted id=%d requester=%d range=[%d,%d]", t.ID, requester.ID, minPrice, maxPrice)
	return t.ID, nil
}

// Get returns a task by ID.
func (s *TaskService) Get(ctx context.Context, id int64) (*model.Task, error) {
	t, err := s.taskDao.Get(ctx, id)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	return t, nil
}

// List returns tasks matching the filters, excluding tasks whose requester
// the caller has blocked, in a bounded offset/limit slice.
func (s *TaskService) List(ctx context.Context, caller *model.User, f *model.TaskListFilters, limit, offset int) ([]*model.Task, error) {
	if f == nil {
		f = &model.TaskListFilters{}
	}
	for id := range caller.BlockedIDs() {
		f.ExcludeRequesters = append(f.ExcludeRequesters, id)
	}
	if limit <= 0 || limit > 100 {
		limit = 100
	}
	return s.taskDao.ListFiltered(ctx, f, limit, offset)
}

// Claim transitions a task from unassigned to accepted on behalf of the
// executor. At most one concurrent caller succeeds: the accept is a single
// conditional update keyed on the task still being unassigned.
func (s *TaskService) Claim(ctx context.Context, executor *model.User, taskID int64) (int64, error) {
	t, err := s.taskDao.Get(ctx, taskID)
	if err != nil {
		return 0, mapStoreErr(err)
	}
	if reason, ok := CanClaim(executor, t); !ok {
		metrics.ClaimResults.WithLabelValues("denied").Inc()
		return 0, fmt.Errorf("%w: %s", ErrEligibilityDenied, reason)
	}
	won, err := s.taskDao.Claim(ctx, taskID, executor.ID, s.now())
	if err != nil {
		return 0, fmt.Errorf("claim task %d: %w", taskID, err)
	}
	if !won {
		metrics.ClaimResults.WithLabelValues("conflict").Inc()
		return 0, fmt.Errorf("%w: task %d is not unassigned", ErrInvalidTransition, taskID)
	}
	metrics.ClaimResults.WithLabelValues("won").Inc()
	logging.Infof(ctx, "task claimed id=%d executor=%d", taskID, executor.ID)
	return taskID, nil
}

// Complete transitions an accepted task to completed and then captures
// payment. The transition is committed before the gateway is called: a
// capture failure never reverts the task, it is surfaced as
// ErrPaymentCaptureFailed alongside the completed task ID so a separate
// reconciliation path can pick it up.
func (s *TaskService) Complete(ctx context.Context, executor *model.User, taskID int64) (int64, error) {
	t, err := s.taskDao.Get(ctx, taskID)
	if err != nil {
		return 0, mapStoreErr(err)
	}
	if t.Status() != consts.TaskAccepted {
		return 0, fmt.Errorf("%w: task %d is not accepted", ErrInvalidTransition, taskID)
	}
	if t.ExecutedByID == nil || *t.ExecutedByID != executor.ID {
		return 0, fmt.Errorf("%w: only the assigned executor can complete", ErrUnauthorized)
	}
	done, err := s.taskDao.MarkCompleted(ctx, taskID, executor.ID, s.now())
	if err != nil {
		return 0, fmt.Errorf("complete task %d: %w", taskID, err)
	}
	if !done {
		return 0, fmt.Errorf("%w: task %d left accepted concurrently", ErrInvalidTransition, taskID)
	}
	metrics.TasksCompleted.Inc()
	logging.Infof(ctx, "task completed id=%d executor=%d", taskID, executor.ID)

	if err := s.capture(ctx, t); err != nil {
		metrics.PaymentCaptures.WithLabelValues("failure").Inc()
		logging.Errorf(ctx, "payment capture failed task=%d: %v", taskID, err)
		return taskID, fmt.Errorf("%w: %v", ErrPaymentCaptureFailed, err)
	}
	metrics.PaymentCaptures.WithLabelValues("success").Inc()
	return taskID, nil
}

func (s *TaskService) capture(ctx context.Context, t *model.Task) error {
	requester, err := s.userDao.Get(ctx, t.RequestedByID)
	if err != nil {
		return fmt.Errorf("load requester %d: %w", t.RequestedByID, err)
	}
	return s.gateway.Capture(ctx, payment.CaptureRequest{
		CustomerRef:      requester.StripeCustomerID,
		PaymentMethodRef: t.PaymentMethodID,
		Amount:           t.MaxPrice,
		Currency:         s.currency,
		// Deterministic per task: a transport retry can never double-charge.
		IdempotencyKey: fmt.Sprintf("task-capture-%d", t.ID),
	})
}

// Cancel transitions an accepted task to canceled. Only the requester may
// cancel, and only while the task is accepted.
func (s *TaskService) Cancel(ctx context.Context, requester *model.User, taskID int64) (int64, error) {
	t, err := s.taskDao.Get(ctx, taskID)
	if err != nil {
		return 0, mapStoreErr(err)
	}
	if t.Status() != consts.TaskAccepted {
		return 0, fmt.Errorf("%w: task %d is not accepted", ErrInvalidTransition, taskID)
	}
	if t.RequestedByID != requester.ID {
		return 0, fmt.Errorf("%w: only the requester can cancel", ErrUnauthorized)
	}
	done, err := s.taskDao.MarkCanceled(ctx, taskID, s.now())
	if err != nil {
		return 0, fmt.Errorf("cancel task %d: %w", taskID, err)
	}
	if !done {
		return 0, fmt.Errorf("%w: task %d left accepted concurrently", ErrInvalidTransition, taskID)
	}
	metrics.TasksCanceled.Inc()
	logging.Infof(ctx, "task canceled id=%d requester=%d", taskID, requester.ID)
	return taskID, nil
}

func mapStoreErr(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: %v", ErrNotFound, err)
	}
	return err
}
