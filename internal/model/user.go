package model

import (
	"strconv"
	"strings"
	"time"
)

// User is a marketplace participant. Identity is the stable external
// identifier resolved by the API layer; it is unique and immutable.
type User struct {
	ID          int64
	DisplayName string
	Identity    string
	CreatedAt   time.Time
	UpdatedAt   time.Time

	Banned bool
	// BlockedUserIDs is a comma separated list of user IDs this user refuses
	// to work with, kept as a single column like the rest of the profile.
	BlockedUserIDs string

	MinTaskPrice     int64
	StripeCustomerID string
}

func (User) TableName() string { return "users" }

// BlockedIDs parses BlockedUserIDs into a set. Malformed entries are skipped.
func (u *User) BlockedIDs() map[int64]struct{} {
	out := map[int64]struct{}{}
	if strings.TrimSpace(u.BlockedUserIDs) == "" {
		return out
	}
	for _, part := range strings.Split(u.BlockedUserIDs, ",") {
		id, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64)
		if err != nil || id <= 0 {
			continue
		}
		out[id] = struct{}{}
	}
	return out
}

// HasBlocked reports whether the given user ID appears in the blocked set.
func (u *User) HasBlocked(id int64) bool {
	_, ok := u.BlockedIDs()[id]
	return ok
}
