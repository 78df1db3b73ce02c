package domain

import "errors"

var (
	ErrNotFound          = errors.New("not found")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrForbidden         = errors.New("forbidden")
	ErrRateLimited       = errors.New("rate limited")
	ErrBidTooLow         = errors.New("bid below minimum")
	ErrBidInFlight       = errors.New("bid submission already in flight")
	ErrBidRejected       = errors.New("bid rejected by backend")
	ErrAuctionNotStarted = errors.New("auction has not started")
	ErrAuctionEnded      = errors.New("auction has ended")
	ErrNoSession         = errors.New("no stored session")
	ErrWSDisconnect      = errors.New("websocket disconnected")
)
