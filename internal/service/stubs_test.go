package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/errandly/errandly/internal/consts"
	"github.com/errandly/errandly/internal/model"
	"github.com/errandly/errandly/internal/payment"
)

// memStore is an in-memory stand-in for the DAO layer that preserves the
// conditional-update semantics of the real store: every transition checks
// its precondition and commits atomically under one mutex.
type memStore struct {
	mu       sync.Mutex
	users    map[int64]*model.User
	tasks    map[int64]*model.Task
	messages []*model.Message
	nextID   int64

	claimErr   error // injected failure for Claim
	expireErrs map[int64]error
}

func newMemStore() *memStore {
	return &memStore{
		users:      map[int64]*model.User{},
		tasks:      map[int64]*model.Task{},
		expireErrs: map[int64]error{},
	}
}

func (m *memStore) putUser(u *model.User) *model.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u.ID == 0 {
		m.nextID++
		u.ID = m.nextID
	}
	m.users[u.ID] = u
	return u
}

func copyTask(t *model.Task) *model.Task {
	c := *t
	return &c
}

// --- dao.UserDao ---

func (m *memStore) Create(ctx context.Context, u *model.User) error {
	m.putUser(u)
	return nil
}

func (m *memStore) Get(ctx context.Context, id int64) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return u, nil
}

func (m *memStore) GetByIdentity(ctx context.Context, identity string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Identity == identity {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *memStore) UpdateDisplayName(ctx context.Context, id int64, displayName string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	u.DisplayName = displayName
	return nil
}

func (m *memStore) UpdateBlockedList(ctx context.Context, id int64, blockedCSV string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	u.BlockedUserIDs = blockedCSV
	return nil
}

func (m *memStore) UpdateMinTaskPrice(ctx context.Context, id int64, minPrice int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	u.MinTaskPrice = minPrice
	return nil
}

// taskStore adapts memStore to dao.TaskDao; a separate type keeps the two
// Create/Get method sets apart.
type taskStore struct{ m *memStore }

func (s taskStore) Create(ctx context.Context, t *model.Task) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	s.m.nextID++
	t.ID = s.m.nextID
	s.m.tasks[t.ID] = copyTask(t)
	return nil
}

func (s taskStore) Get(ctx context.Context, id int64) (*model.Task, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	t, ok := s.m.tasks[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return copyTask(t), nil
}

func (s taskStore) ListFiltered(ctx context.Context, f *model.TaskListFilters, limit, offset int) ([]*model.Task, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	var out []*model.Task
	for id := int64(1); id <= s.m.nextID; id++ {
		t, ok := s.m.tasks[id]
		if !ok || !matches(t, f) {
			continue
		}
		out = append(out, copyTask(t))
	}
	if offset > 0 {
		if offset >= len(out) {
			return nil, nil
		}
		out = out[offset:]
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func matches(t *model.Task, f *model.TaskListFilters) bool {
	if f == nil {
		return true
	}
	if f.Status != "" && t.Status() != f.Status {
		return false
	}
	if f.RequestedByID > 0 && t.RequestedByID != f.RequestedByID {
		return false
	}
	if f.ExecutedByID > 0 && (t.ExecutedByID == nil || *t.ExecutedByID != f.ExecutedByID) {
		return false
	}
	for _, r := range f.ExcludeRequesters {
		if t.RequestedByID == r {
			return false
		}
	}
	return true
}

func (s taskStore) CountFiltered(ctx context.Context, f *model.TaskListFilters) (int64, error) {
	list, err := s.ListFiltered(ctx, f, 0, 0)
	return int64(len(list)), err
}

func (s taskStore) Claim(ctx context.Context, taskID, executorID int64, now time.Time) (bool, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if s.m.claimErr != nil {
		return false, s.m.claimErr
	}
	t, ok := s.m.tasks[taskID]
	if !ok || t.Status() != consts.TaskUnassigned {
		return false, nil
	}
	exec := executorID
	t.ExecutedByID = &exec
	ts := now
	t.AcceptedTime = &ts
	return true, nil
}

func (s taskStore) MarkCompleted(ctx context.Context, taskID, executorID int64, now time.Time) (bool, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	t, ok := s.m.tasks[taskID]
	if !ok || t.Status() != consts.TaskAccepted || t.ExecutedByID == nil || *t.ExecutedByID != executorID {
		return false, nil
	}
	ts := now
	t.CompletedTime = &ts
	return true, nil
}

func (s taskStore) MarkCanceled(ctx context.Context, taskID int64, now time.Time) (bool, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	t, ok := s.m.tasks[taskID]
	if !ok || t.Status() != consts.TaskAccepted {
		return false, nil
	}
	ts := now
	t.CanceledTime = &ts
	return true, nil
}

func (s taskStore) MarkExpired(ctx context.Context, taskID int64, cutoff, now time.Time) (bool, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if err := s.m.expireErrs[taskID]; err != nil {
		return false, err
	}
	t, ok := s.m.tasks[taskID]
	if !ok || t.Status() != consts.TaskAccepted || !t.AcceptedTime.Before(cutoff) {
		return false, nil
	}
	ts := now
	t.CanceledTime = &ts
	return true, nil
}

func (s taskStore) ListAcceptedBefore(ctx context.Context, cutoff time.Time, limit int) ([]*model.Task, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	var out []*model.Task
	for id := int64(1); id <= s.m.nextID; id++ {
		t, ok := s.m.tasks[id]
		if !ok || t.Status() != consts.TaskAccepted || !t.AcceptedTime.Before(cutoff) {
			continue
		}
		out = append(out, copyTask(t))
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

// messageStore adapts memStore to dao.MessageDao.
type messageStore struct{ m *memStore }

func (s messageStore) Create(ctx context.Context, msg *model.Message) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	s.m.nextID++
	msg.ID = s.m.nextID
	c := *msg
	s.m.messages = append(s.m.messages, &c)
	return nil
}

func (s messageStore) ListByTask(ctx context.Context, taskID int64, offset, limit int) ([]*model.Message, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	var out []*model.Message
	for _, msg := range s.m.messages {
		if msg.TaskID == taskID {
			c := *msg
			out = append(out, &c)
		}
	}
	if offset > 0 {
		if offset >= len(out) {
			return nil, nil
		}
		out = out[offset:]
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// stubGateway records capture calls and optionally fails them.
type stubGateway struct {
	mu       sync.Mutex
	captures []payment.CaptureRequest
	err      error
}

var errGatewayDeclined = errors.New("card declined")

func (g *stubGateway) Capture(ctx context.Context, req payment.CaptureRequest) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.captures = append(g.captures, req)
	return g.err
}
