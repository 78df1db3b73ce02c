package stallapi

import (
	"context"
	"fmt"
	"net/http"

	"github.com/campusbid/stallbid/internal/domain"
)

// ListNotifications returns the caller's notifications, newest first.
func (c *Client) ListNotifications(ctx context.Context) ([]domain.Notification, error) {
	var apiNotes []apiNotification
	if err := c.getJSON(ctx, "/notifications", &apiNotes); err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	notes := make([]domain.Notification, 0, len(apiNotes))
	for i := range apiNotes {
		notes = append(notes, apiNotes[i].toDomain())
	}
	return notes, nil
}

// UnreadCount returns the number of unread notifications.
func (c *Client) UnreadCount(ctx context.Context) (int, error) {
	var resp struct {
		Count int `json:"count"`
	}
	if err := c.getJSON(ctx, "/notifications/unread-count", &resp); err != nil {
		return 0, fmt.Errorf("unread count: %w", err)
	}
	return resp.Count, nil
}

// MarkRead marks a single notification as read.
func (c *Client) MarkRead(ctx context.Context, id int64) error {
	if _, err := c.do(ctx, http.MethodPut, fmt.Sprintf("/notifications/%d/read", id), nil); err != nil {
		return fmt.Errorf("mark notification %d read: %w", id, err)
	}
	return nil
}

// MarkAllRead marks every notification as read.
func (c *Client) MarkAllRead(ctx context.Context) error {
	if _, err := c.do(ctx, http.MethodPut, "/notifications/read-all", nil); err != nil {
		return fmt.Errorf("mark all notifications read: %w", err)
	}
	return nil
}
