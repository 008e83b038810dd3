package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/errandly/errandly/internal/consts"
	"github.com/errandly/errandly/internal/dao"
	"github.com/errandly/errandly/internal/metrics"
	"github.com/errandly/errandly/internal/model"
)

// MessageService manages the append-only message thread of a task. Posting
// requires the task to be accepted and the sender to be a party; reading
// requires party membership but is not gated by state, so history stays
// visible after completion or cancellation.
type MessageService struct {
	messageDao dao.MessageDao
	taskDao    dao.TaskDao
}

func NewMessageService(messageDao dao.MessageDao, taskDao dao.TaskDao) *MessageService {
	return &MessageService{messageDao: messageDao, taskDao: taskDao}
}

// PostText appends a text message to the task thread.
func (s *MessageService) PostText(ctx context.Context, sender *model.User, taskID int64, text string) (int64, error) {
	return s.post(ctx, sender, taskID, text, "")
}

// PostImage appends an image message; imageURL is the blob store reference
// produced by the caller, the bytes never reach this layer.
func (s *MessageService) PostImage(ctx context.Context, sender *model.User, taskID int64, imageURL string) (int64, error) {
	return s.post(ctx, sender, taskID, "", imageURL)
}

func (s *MessageService) post(ctx context.Context, sender *model.User, taskID int64, text, imageURL string) (int64, error) {
	hasText := strings.TrimSpace(text) != ""
	hasImage := strings.TrimSpace(imageURL) != ""
	if hasText == hasImage {
		return 0, fmt.Errorf("%w: exactly one of text and image is required", ErrValidation)
	}
	t, err := s.taskDao.Get(ctx, taskID)
	if err != nil {
		return 0, mapStoreErr(err)
	}
	if t.Status() != consts.TaskAccepted {
		return 0, fmt.Errorf("%w: task %d is not in progress", ErrInvalidTransition, taskID)
	}
	if !t.IsParty(sender.ID) {
		return 0, fmt.Errorf("%w: sender is not a party to task %d", ErrUnauthorized, taskID)
	}
	m := &model.Message{TaskID: taskID, SenderID: sender.ID, Text: text, ImageURL: imageURL}
	if err := s.messageDao.Create(ctx, m); err != nil {
		return 0, fmt.Errorf("create message: %w", err)
	}
	kind := "text"
	if hasImage {
		kind = "image"
	}
	metrics.MessagesPosted.WithLabelValues(kind).Inc()
	return m.ID, nil
}

// List returns the task's messages in creation order. The caller must be a
// party to the task; state is not checked.
func (s *MessageService) List(ctx context.Context, caller *model.User, taskID int64, offset, limit int) ([]*model.Message, error) {
	t, err := s.taskDao.Get(ctx, taskID)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	if !t.IsParty(caller.ID) {
		return nil, fmt.Errorf("%w: caller is not a party to task %d", ErrUnauthorized, taskID)
	}
	if limit <= 0 || limit > 200 {
		limit = 200
	}
	return s.messageDao.ListByTask(ctx, taskID, offset, limit)
}
