package model

import "github.com/errandly/errandly/internal/consts"

// TaskListFilters represents optional filters for listing tasks.
// Zero values / nil meaning filter not applied. ExcludeRequesters removes
// tasks whose requester the caller has blocked; it is populated by the
// service layer from the caller's blocked set, never by the API directly.
type TaskListFilters struct {
	Status            consts.TaskStatus
	RequestedByID     int64
	ExecutedByID      int64
	ExcludeRequesters []int64
}
