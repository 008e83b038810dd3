package service

import (
	"github.com/errandly/errandly/internal/consts"
	"github.com/errandly/errandly/internal/model"
)

// CanClaim decides whether an executor may claim a task. Pure function of
// the two records: no side effects, deterministic.
//
// Denials:
//   - the task's requester appears in the executor's blocked set
//   - the task's min_price is below the executor's minimum acceptable price
func CanClaim(executor *model.User, task *model.Task) (consts.DenialReason, bool) {
	if executor.HasBlocked(task.RequestedByID) {
		return consts.DenialRequesterBlocked, false
	}
	if task.MinPrice < executor.MinTaskPrice {
		return consts.DenialPriceBelowFloor, false
	}
	return "", true
}
