package stallapi

import (
	"context"
	"fmt"
	"net/http"

	"github.com/campusbid/stallbid/internal/domain"
)

// ListComments returns the comments on a stall's auction page.
func (c *Client) ListComments(ctx context.Context, stallID int64) ([]domain.Comment, error) {
	var apiComments []apiComment
	if err := c.getJSON(ctx, fmt.Sprintf("/comments/stall/%d", stallID), &apiComments); err != nil {
		return nil, fmt.Errorf("comments for stall %d: %w", stallID, err)
	}
	comments := make([]domain.Comment, 0, len(apiComments))
	for i := range apiComments {
		comments = append(comments, apiComments[i].toDomain())
	}
	return comments, nil
}

// AddComment posts a comment on a stall.
func (c *Client) AddComment(ctx context.Context, stallID int64, text string) (domain.Comment, error) {
	body := map[string]any{
		"stallId":     stallID,
		"commentText": text,
	}
	var api apiComment
	if err := c.postJSON(ctx, "/comments", body, &api); err != nil {
		return domain.Comment{}, fmt.Errorf("add comment: %w", err)
	}
	return api.toDomain(), nil
}

// DeleteComment removes one of the caller's comments.
func (c *Client) DeleteComment(ctx context.Context, commentID int64) error {
	if _, err := c.do(ctx, http.MethodDelete, fmt.Sprintf("/comments/%d", commentID), nil); err != nil {
		return fmt.Errorf("delete comment %d: %w", commentID, err)
	}
	return nil
}
