package model

import (
	"time"

	"github.com/errandly/errandly/internal/consts"
)

// Task is a unit of work offered by a requester and claimed by exactly one
// executor. Its status is a pure function of the four nullable timestamps;
// there is no stored status column.
type Task struct {
	ID          int64
	Description string
	MinPrice    int64
	MaxPrice    int64

	RequestedByID int64
	ExecutedByID  *int64

	SubmittedTime *time.Time
	AcceptedTime  *time.Time
	CompletedTime *time.Time
	CanceledTime  *time.Time

	// PaymentMethodID is the requester's pre-authorized payment method
	// captured against on completion.
	PaymentMethodID string

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (Task) TableName() string { return "tasks" }

// Status derives the lifecycle state with precedence
// canceled > completed > accepted > unassigned.
func (t *Task) Status() consts.TaskStatus {
	switch {
	case t.CanceledTime != nil:
		return consts.TaskCanceled
	case t.CompletedTime != nil:
		return consts.TaskCompleted
	case t.AcceptedTime != nil:
		return consts.TaskAccepted
	default:
		return consts.TaskUnassigned
	}
}

// IsParty reports whether the given user is the requester or the assigned
// executor of this task.
func (t *Task) IsParty(userID int64) bool {
	if t.RequestedByID == userID {
		return true
	}
	return t.ExecutedByID != nil && *t.ExecutedByID == userID
}
