package domain

import "time"

// Comment is a user comment on a stall's auction page.
type Comment struct {
	ID        int64
	StallID   int64
	UserID    int64
	UserName  string
	Text      string
	CreatedAt time.Time
}
