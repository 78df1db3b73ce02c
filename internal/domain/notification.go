package domain

import "time"

// NotificationType classifies a platform notification.
type NotificationType string

const (
	NotifyBidPlaced      NotificationType = "BID_PLACED"
	NotifyBidOutbid      NotificationType = "BID_OUTBID"
	NotifyAuctionStarted NotificationType = "AUCTION_STARTED"
	NotifyAuctionEnding  NotificationType = "AUCTION_ENDING"
	NotifyAuctionEnded   NotificationType = "AUCTION_ENDED"
	NotifyAuctionWon     NotificationType = "AUCTION_WON"
	NotifyAuctionLost    NotificationType = "AUCTION_LOST"
)

// Notification is a backend-issued notification for a user.
type Notification struct {
	ID        int64
	UserID    int64
	Type      NotificationType
	Title     string
	Message   string
	StallID   int64 // zero when the notification is not stall-related
	Read      bool
	CreatedAt time.Time
}
