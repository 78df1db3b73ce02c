package domain

import "time"

// PaymentStatus tracks payment for a won stall.
type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "PENDING"
	PaymentPaid      PaymentStatus = "PAID"
	PaymentCancelled PaymentStatus = "CANCELLED"
	PaymentRefunded  PaymentStatus = "REFUNDED"
)

// BiddingResult is the declared outcome of a closed stall auction.
type BiddingResult struct {
	ID          int64
	StallID     int64
	StallName   string
	StallNumber int
	WinnerID    int64
	WinnerName  string
	WinnerEmail string
	WinningBid  int64
	BasePrice   int64
	TotalBids   int
	Payment     PaymentStatus
	DeclaredAt  time.Time
	ClosedAt    time.Time
}

// ResultSummary aggregates outcomes across all declared results.
type ResultSummary struct {
	TotalAuctions     int
	TotalRevenue      int64
	AverageWinningBid int64
	HighestBid        int64
	LowestBid         int64
	TotalParticipants int
}
