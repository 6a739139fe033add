package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/inkpress/desk/internal/models"
)

func (c *Client) ListCategories(ctx context.Context) ([]models.Category, error) {
	var resp models.Envelope[[]models.Category]
	if err := c.do(ctx, http.MethodGet, "/categories", nil, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

func (c *Client) CreateCategory(ctx context.Context, input models.CategoryInput) (*models.Category, error) {
	var resp models.Envelope[models.Category]
	if err := c.do(ctx, http.MethodPost, "/categories", input, nil, &resp); err != nil {
		return nil, err
	}
	return &resp.Data, nil
}

func (c *Client) UpdateCategory(ctx context.Context, id uint, input models.CategoryInput) (*models.Category, error) {
	var resp models.Envelope[models.Category]
	if err := c.do(ctx, http.MethodPut, fmt.Sprintf("/categories/%d", id), input, nil, &resp); err != nil {
		return nil, err
	}
	return &resp.Data, nil
}

func (c *Client) DeleteCategory(ctx context.Context, id uint) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/categories/%d", id), nil, nil, nil)
}

// ListPostsByCategory accepts either the numeric id or the slug of the category.
func (c *Client) ListPostsByCategory(ctx context.Context, idOrSlug string, query models.PostQuery) (*models.Paginated[models.Post], error) {
	var resp models.Paginated[models.Post]
	path := fmt.Sprintf("/categories/%s/posts", url.PathEscape(idOrSlug))
	if err := c.do(ctx, http.MethodGet, path, nil, query.Params(), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
