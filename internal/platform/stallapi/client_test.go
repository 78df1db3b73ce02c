package stallapi

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/campusbid/stallbid/internal/domain"
)

func TestClientAttachesAuthAndRequestID(t *testing.T) {
	var gotAuth, gotReqID string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotReqID = r.Header.Get("X-Request-ID")
		w.Write([]byte(`{"stallId": 7, "stallName": "North Lawn 12", "basePrice": 5000, "status": "ACTIVE"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, StaticToken("tok-123"))
	stall, err := c.GetStall(context.Background(), 7)
	if err != nil {
		t.Fatal(err)
	}
	if stall.ID != 7 || stall.Name != "North Lawn 12" {
		t.Errorf("stall = %+v", stall)
	}
	if gotAuth != "Bearer tok-123" {
		t.Errorf("Authorization = %q", gotAuth)
	}
	if gotReqID == "" {
		t.Error("X-Request-ID not set")
	}
}

func TestClientMapsStatusToSentinel(t *testing.T) {
	cases := []struct {
		status int
		want   error
	}{
		{http.StatusUnauthorized, domain.ErrUnauthorized},
		{http.StatusForbidden, domain.ErrForbidden},
		{http.StatusNotFound, domain.ErrNotFound},
		{http.StatusTooManyRequests, domain.ErrRateLimited},
	}
	for _, tc := range cases {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tc.status)
			w.Write([]byte(`{"message": "nope"}`))
		}))
		c := NewClient(srv.URL, nil)
		_, err := c.GetStall(context.Background(), 7)
		srv.Close()

		if !errors.Is(err, tc.want) {
			t.Errorf("status %d: err = %v, want %v", tc.status, err, tc.want)
		}
		if err == nil || !strings.Contains(err.Error(), "nope") {
			t.Errorf("status %d: backend message lost from %v", tc.status, err)
		}
	}
}

func TestPlaceBidSendsBackendShape(t *testing.T) {
	var gotPath, gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		buf := make([]byte, r.ContentLength)
		r.Body.Read(buf)
		gotBody = string(buf)
		w.Write([]byte(`{"success": true, "message": "Bid placed", "bid": {"bidId": 41, "biddedPrice": 8600}}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, StaticToken("tok"))
	res, err := c.PlaceBid(context.Background(), domain.BidRequest{StallID: 7, BidderID: 21, Amount: 8600})
	if err != nil {
		t.Fatal(err)
	}
	if gotPath != "/bids/place" {
		t.Errorf("path = %q", gotPath)
	}
	for _, frag := range []string{`"stallId":7`, `"bidderId":21`, `"biddedPrice":8600`} {
		if !strings.Contains(gotBody, frag) {
			t.Errorf("request body %q missing %s", gotBody, frag)
		}
	}
	if !res.Success || res.Bid == nil || res.Bid.Amount != 8600 {
		t.Errorf("result = %+v", res)
	}
}

func TestPlaceBidRejectionPreservesMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success": false, "message": "Bid must be at least 8600"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, StaticToken("tok"))
	res, err := c.PlaceBid(context.Background(), domain.BidRequest{StallID: 7, BidderID: 21, Amount: 8500})
	if !errors.Is(err, domain.ErrBidRejected) {
		t.Fatalf("err = %v, want ErrBidRejected", err)
	}
	if !strings.Contains(err.Error(), "Bid must be at least 8600") {
		t.Errorf("backend message lost: %v", err)
	}
	if res.Message != "Bid must be at least 8600" {
		t.Errorf("result message = %q", res.Message)
	}
}

func TestGetBidHistoryDropsBadRecords(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/bids/stall/7/history" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(`[
			{"bidId": 41, "bidderName": "Priya", "biddedPrice": 8500},
			{"bidId": 42},
			{"id": 43, "userName": "Arun", "amount": "8200"}
		]`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, nil)
	bids, err := c.GetBidHistory(context.Background(), 7)
	if err != nil {
		t.Fatal(err)
	}
	if len(bids) != 2 {
		t.Fatalf("got %d bids, want 2", len(bids))
	}
	if bids[1].BidderName != "Arun" || bids[1].Amount != 8200 {
		t.Errorf("alternate field names not mapped: %+v", bids[1])
	}
}

func TestLoginBuildsSession(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/auth/login" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(`{
			"success": true,
			"token": "jwt-abc",
			"expiresAt": "2025-03-02T12:00:00Z",
			"user": {"studentId": 21, "studentName": "Priya", "studentEmail": "priya@campus.edu", "role": "STUDENT"}
		}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, nil)
	session, err := c.Login(context.Background(), "priya@campus.edu", "hunter2")
	if err != nil {
		t.Fatal(err)
	}
	if session.Token != "jwt-abc" {
		t.Errorf("token = %q", session.Token)
	}
	if session.User.ID != 21 || session.User.Role != domain.RoleStudent {
		t.Errorf("user = %+v", session.User)
	}
}
