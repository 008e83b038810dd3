package consts

// TaskStatus is derived from timestamp presence, never stored as its own column.
type TaskStatus string

const (
	TaskUnassigned TaskStatus = "unassigned"
	TaskAccepted   TaskStatus = "accepted"
	TaskCompleted  TaskStatus = "completed"
	TaskCanceled   TaskStatus = "canceled"
)

// DenialReason explains why an executor may not claim a task.
type DenialReason string

const (
	DenialRequesterBlocked DenialReason = "REQUESTER_BLOCKED"
	DenialPriceBelowFloor  DenialReason = "PRICE_BELOW_FLOOR"
)
