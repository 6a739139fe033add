package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/inkpress/desk/internal/models"
)

func (c *Client) ListTags(ctx context.Context) ([]models.Tag, error) {
	var resp models.Envelope[[]models.Tag]
	if err := c.do(ctx, http.MethodGet, "/tags", nil, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

func (c *Client) CreateTag(ctx context.Context, input models.TagInput) (*models.Tag, error) {
	var resp models.Envelope[models.Tag]
	if err := c.do(ctx, http.MethodPost, "/tags", input, nil, &resp); err != nil {
		return nil, err
	}
	return &resp.Data, nil
}

func (c *Client) UpdateTag(ctx context.Context, id uint, input models.TagInput) (*models.Tag, error) {
	var resp models.Envelope[models.Tag]
	if err := c.do(ctx, http.MethodPut, fmt.Sprintf("/tags/%d", id), input, nil, &resp); err != nil {
		return nil, err
	}
	return &resp.Data, nil
}

func (c *Client) DeleteTag(ctx context.Context, id uint) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/tags/%d", id), nil, nil, nil)
}

func (c *Client) ListPostsByTag(ctx context.Context, slug string, query models.PostQuery) (*models.Paginated[models.Post], error) {
	var resp models.Paginated[models.Post]
	path := fmt.Sprintf("/tags/%s/posts", url.PathEscape(slug))
	if err := c.do(ctx, http.MethodGet, path, nil, query.Params(), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
