package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/inkpress/desk/internal/models"
)

func (c *Client) ListComments(ctx context.Context, postIDOrSlug string) ([]models.Comment, error) {
	var resp models.Envelope[[]models.Comment]
	path := fmt.Sprintf("/posts/%s/comments", url.PathEscape(postIDOrSlug))
	if err := c.do(ctx, http.MethodGet, path, nil, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

func (c *Client) CreateComment(ctx context.Context, postIDOrSlug string, input models.CommentInput) (*models.Comment, error) {
	var resp models.Envelope[models.Comment]
	path := fmt.Sprintf("/posts/%s/comments", url.PathEscape(postIDOrSlug))
	if err := c.do(ctx, http.MethodPost, path, input, nil, &resp); err != nil {
		return nil, err
	}
	return &resp.Data, nil
}
