package stallapi

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/campusbid/stallbid/internal/domain"
)

// flexTime unmarshals backend timestamps that arrive in several shapes:
// RFC 3339 strings (with or without zone), the backend's bare
// "2006-01-02T15:04:05" layout, or epoch milliseconds. A JSON null or empty
// string leaves the time zero.
type flexTime struct {
	time.Time
}

var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

func (t *flexTime) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		t.Time = time.Time{}
		return nil
	}
	for _, layout := range timeLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			t.Time = parsed
			return nil
		}
	}
	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		t.Time = time.UnixMilli(ms).UTC()
		return nil
	}
	return fmt.Errorf("unrecognized timestamp %q", s)
}

// flexAmount unmarshals a money amount that may arrive as a JSON number or
// as a numeric string.
type flexAmount int64

func (a *flexAmount) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		*a = 0
		return nil
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		*a = flexAmount(n)
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("unrecognized amount %q", s)
	}
	*a = flexAmount(f)
	return nil
}

// --------------------------------------------------------------------------
// Stall DTOs
// --------------------------------------------------------------------------

// apiWinner is the embedded winner block on a closed stall.
type apiWinner struct {
	StudentID    int64  `json:"studentId"`
	StudentName  string `json:"studentName"`
	StudentEmail string `json:"studentEmail"`
}

// apiStall is a stall as returned by the backend. The bidding window fields
// appear as biddingStart/biddingEnd on read endpoints and
// biddingStartTime/biddingEndTime on a couple of admin ones.
type apiStall struct {
	StallID           int64      `json:"stallId"`
	StallNo           int        `json:"stallNo"`
	StallName         string     `json:"stallName"`
	Description       string     `json:"description"`
	Location          string     `json:"location"`
	Category          string     `json:"category"`
	Image             string     `json:"image"`
	BasePrice         flexAmount `json:"basePrice"`
	OriginalPrice     flexAmount `json:"originalPrice"`
	CurrentHighestBid flexAmount `json:"currentHighestBid"`
	TotalBids         int        `json:"totalBids"`
	MaxBidders        int        `json:"maxBidders"`
	Status            string     `json:"status"`
	BiddingStart      *flexTime  `json:"biddingStart"`
	BiddingStartAlt   *flexTime  `json:"biddingStartTime"`
	BiddingEnd        *flexTime  `json:"biddingEnd"`
	BiddingEndAlt     *flexTime  `json:"biddingEndTime"`
	Winner            *apiWinner `json:"winner"`
	CreatedAt         flexTime   `json:"createdAt"`
}

// toDomain converts an apiStall into a domain.Stall, picking whichever
// bidding window variant the backend sent.
func (s *apiStall) toDomain() domain.Stall {
	stall := domain.Stall{
		ID:                s.StallID,
		Number:            s.StallNo,
		Name:              s.StallName,
		Description:       s.Description,
		Location:          s.Location,
		Category:          s.Category,
		ImageURL:          s.Image,
		BasePrice:         int64(s.BasePrice),
		OriginalPrice:     int64(s.OriginalPrice),
		CurrentHighestBid: int64(s.CurrentHighestBid),
		TotalBids:         s.TotalBids,
		MaxBidders:        s.MaxBidders,
		Status:            domain.StallStatus(strings.ToUpper(s.Status)),
		BiddingStart:      pickTime(s.BiddingStart, s.BiddingStartAlt),
		BiddingEnd:        pickTime(s.BiddingEnd, s.BiddingEndAlt),
		CreatedAt:         s.CreatedAt.Time,
	}
	if s.Winner != nil {
		stall.Winner = &domain.Winner{
			UserID: s.Winner.StudentID,
			Name:   s.Winner.StudentName,
			Email:  s.Winner.StudentEmail,
		}
	}
	return stall
}

// pickTime returns the first non-zero timestamp among the variants, or nil.
func pickTime(variants ...*flexTime) *time.Time {
	for _, v := range variants {
		if v != nil && !v.Time.IsZero() {
			t := v.Time
			return &t
		}
	}
	return nil
}

// --------------------------------------------------------------------------
// Bid DTOs
// --------------------------------------------------------------------------

// apiBid is a bid record as returned by the backend. History endpoints are
// inconsistent about field names across deployments (bidId|id,
// bidderId|userId, biddedPrice|amount, bidTime|time|createdAt|timestamp), so
// every variant is declared and resolved in toDomain.
type apiBid struct {
	BidID       *int64      `json:"bidId"`
	ID          *int64      `json:"id"`
	StallID     int64       `json:"stallId"`
	StallName   string      `json:"stallName"`
	BidderID    *int64      `json:"bidderId"`
	UserID      *int64      `json:"userId"`
	BidderName  string      `json:"bidderName"`
	UserName    string      `json:"userName"`
	BiddedPrice *flexAmount `json:"biddedPrice"`
	Amount      *flexAmount `json:"amount"`
	BidTime     *flexTime   `json:"bidTime"`
	Time        *flexTime   `json:"time"`
	Timestamp   *flexTime   `json:"timestamp"`
	CreatedAt   *flexTime   `json:"createdAt"`
	Status      string      `json:"status"`
	Rank        int         `json:"rank"`
}

// toDomain validates and normalizes an apiBid. index is the record's
// position in the fetched list and backs the identity and rank defaults.
// Records with no usable amount are rejected rather than coerced to zero.
func (b *apiBid) toDomain(index int) (domain.Bid, error) {
	amount := pickAmount(b.BiddedPrice, b.Amount)
	if amount <= 0 {
		return domain.Bid{}, fmt.Errorf("bid record %d has no usable amount", index)
	}

	bid := domain.Bid{
		ID:         pickID(b.BidID, b.ID),
		StallID:    b.StallID,
		StallName:  b.StallName,
		BidderID:   pickID(b.BidderID, b.UserID),
		BidderName: b.BidderName,
		Amount:     amount,
		Status:     domain.BidStatus(strings.ToUpper(b.Status)),
		Rank:       b.Rank,
	}
	if bid.BidderName == "" {
		bid.BidderName = b.UserName
	}
	if bid.BidderName == "" {
		bid.BidderName = "Anonymous"
	}
	if bid.Status == "" {
		bid.Status = domain.BidStatusActive
	}
	if bid.Rank == 0 {
		bid.Rank = index + 1
	}
	if bid.ID == 0 {
		// History rows without an ID are still displayable; synthesize a
		// list-local one so dedup by ID does not collapse them.
		bid.ID = int64(-(index + 1))
	}
	if t := pickTime(b.BidTime, b.Time, b.Timestamp, b.CreatedAt); t != nil {
		bid.PlacedAt = *t
	}
	return bid, nil
}

func pickID(variants ...*int64) int64 {
	for _, v := range variants {
		if v != nil && *v != 0 {
			return *v
		}
	}
	return 0
}

func pickAmount(variants ...*flexAmount) int64 {
	for _, v := range variants {
		if v != nil && *v > 0 {
			return int64(*v)
		}
	}
	return 0
}

// apiBidResult is the response envelope for a bid submission.
type apiBidResult struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Error   string          `json:"error"`
	Bid     json.RawMessage `json:"bid"`
}

func (r *apiBidResult) toDomain() domain.BidResult {
	res := domain.BidResult{
		Success: r.Success,
		Message: r.Message,
	}
	if res.Message == "" {
		res.Message = r.Error
	}
	if len(r.Bid) > 0 && string(r.Bid) != "null" {
		var ab apiBid
		if err := json.Unmarshal(r.Bid, &ab); err == nil {
			if bid, err := ab.toDomain(0); err == nil {
				res.Bid = &bid
			}
		}
	}
	return res
}

// --------------------------------------------------------------------------
// Auth DTOs
// --------------------------------------------------------------------------

// apiUser is the authenticated user as returned by auth endpoints.
type apiUser struct {
	StudentID    *int64 `json:"studentId"`
	ID           *int64 `json:"id"`
	StudentName  string `json:"studentName"`
	Name         string `json:"name"`
	StudentEmail string `json:"studentEmail"`
	Email        string `json:"email"`
	Phone        string `json:"phone"`
	Role         string `json:"role"`
	Verified     bool   `json:"verified"`
}

func (u *apiUser) toDomain() domain.User {
	user := domain.User{
		ID:       pickID(u.StudentID, u.ID),
		Name:     u.StudentName,
		Email:    u.StudentEmail,
		Phone:    u.Phone,
		Role:     domain.Role(strings.ToUpper(u.Role)),
		Verified: u.Verified,
	}
	if user.Name == "" {
		user.Name = u.Name
	}
	if user.Email == "" {
		user.Email = u.Email
	}
	return user
}

// apiAuthResponse is the login/signup/OTP response envelope.
type apiAuthResponse struct {
	Success   bool     `json:"success"`
	Message   string   `json:"message"`
	Token     string   `json:"token"`
	ExpiresAt flexTime `json:"expiresAt"`
	User      *apiUser `json:"user"`
}

// --------------------------------------------------------------------------
// Comment, result, and notification DTOs
// --------------------------------------------------------------------------

type apiComment struct {
	CommentID   int64    `json:"commentId"`
	StallID     int64    `json:"stallId"`
	UserID      int64    `json:"userId"`
	UserName    string   `json:"userName"`
	CommentText string   `json:"commentText"`
	CreatedAt   flexTime `json:"createdAt"`
}

func (c *apiComment) toDomain() domain.Comment {
	name := c.UserName
	if name == "" {
		name = "Anonymous"
	}
	return domain.Comment{
		ID:        c.CommentID,
		StallID:   c.StallID,
		UserID:    c.UserID,
		UserName:  name,
		Text:      c.CommentText,
		CreatedAt: c.CreatedAt.Time,
	}
}

type apiResult struct {
	ResultID    int64      `json:"resultId"`
	StallID     int64      `json:"stallId"`
	StallName   string     `json:"stallName"`
	StallNo     int        `json:"stallNo"`
	WinnerID    int64      `json:"winnerId"`
	WinnerName  string     `json:"winnerName"`
	WinnerEmail string     `json:"winnerEmail"`
	WinningBid  flexAmount `json:"winningBid"`
	BasePrice   flexAmount `json:"basePrice"`
	TotalBids   int        `json:"totalBids"`
	Payment     string     `json:"paymentStatus"`
	DeclaredAt  flexTime   `json:"declaredAt"`
	ClosedAt    flexTime   `json:"closedAt"`
}

func (r *apiResult) toDomain() domain.BiddingResult {
	return domain.BiddingResult{
		ID:          r.ResultID,
		StallID:     r.StallID,
		StallName:   r.StallName,
		StallNumber: r.StallNo,
		WinnerID:    r.WinnerID,
		WinnerName:  r.WinnerName,
		WinnerEmail: r.WinnerEmail,
		WinningBid:  int64(r.WinningBid),
		BasePrice:   int64(r.BasePrice),
		TotalBids:   r.TotalBids,
		Payment:     domain.PaymentStatus(strings.ToUpper(r.Payment)),
		DeclaredAt:  r.DeclaredAt.Time,
		ClosedAt:    r.ClosedAt.Time,
	}
}

type apiResultSummary struct {
	TotalAuctions     int        `json:"totalAuctions"`
	TotalRevenue      flexAmount `json:"totalRevenue"`
	AverageWinningBid flexAmount `json:"averageWinningBid"`
	HighestBid        flexAmount `json:"highestBid"`
	LowestBid         flexAmount `json:"lowestBid"`
	TotalParticipants int        `json:"totalParticipants"`
}

func (s *apiResultSummary) toDomain() domain.ResultSummary {
	return domain.ResultSummary{
		TotalAuctions:     s.TotalAuctions,
		TotalRevenue:      int64(s.TotalRevenue),
		AverageWinningBid: int64(s.AverageWinningBid),
		HighestBid:        int64(s.HighestBid),
		LowestBid:         int64(s.LowestBid),
		TotalParticipants: s.TotalParticipants,
	}
}

type apiNotification struct {
	ID              int64    `json:"id"`
	UserID          int64    `json:"userId"`
	Type            string   `json:"type"`
	Title           string   `json:"title"`
	Message         string   `json:"message"`
	RelatedEntityID int64    `json:"relatedEntityId"`
	IsRead          bool     `json:"isRead"`
	CreatedAt       flexTime `json:"createdAt"`
}

func (n *apiNotification) toDomain() domain.Notification {
	return domain.Notification{
		ID:        n.ID,
		UserID:    n.UserID,
		Type:      domain.NotificationType(strings.ToUpper(n.Type)),
		Title:     n.Title,
		Message:   n.Message,
		StallID:   n.RelatedEntityID,
		Read:      n.IsRead,
		CreatedAt: n.CreatedAt.Time,
	}
}
