package domain

import "time"

// StallStatus represents the lifecycle state of a stall's auction. Only the
// backend moves a stall between statuses; clients hold read-only copies.
type StallStatus string

const (
	StallStatusAvailable StallStatus = "AVAILABLE"
	StallStatusBooked    StallStatus = "BOOKED"
	StallStatusActive    StallStatus = "ACTIVE"
	StallStatusClosed    StallStatus = "CLOSED"
)

// Stall is a point-in-time snapshot of an auctionable stall. The descriptive
// fields are immutable; the auction fields (CurrentHighestBid, TotalBids,
// Status, bidding window) change server-side on each accepted bid or
// lifecycle command and are refreshed here by polling.
type Stall struct {
	ID          int64
	Number      int
	Name        string
	Description string
	Location    string
	Category    string
	ImageURL    string
	BasePrice   int64
	// OriginalPrice is the stall's listed market price, shown for reference
	// only. It plays no role in bid validation.
	OriginalPrice     int64
	CurrentHighestBid int64
	TotalBids         int
	MaxBidders        int
	Status            StallStatus
	BiddingStart      *time.Time // nil until an admin schedules the auction
	BiddingEnd        *time.Time
	Winner            *Winner
	CreatedAt         time.Time
}

// Winner identifies the declared winner of a closed stall auction.
type Winner struct {
	UserID int64
	Name   string
	Email  string
}

// HighestOrBase returns the floor a new bid must clear before the increment
// is applied: the current highest bid, or the base price when no bid exists.
func (s Stall) HighestOrBase() int64 {
	if s.CurrentHighestBid > 0 {
		return s.CurrentHighestBid
	}
	return s.BasePrice
}
