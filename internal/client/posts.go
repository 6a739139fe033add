package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/inkpress/desk/internal/models"
)

func (c *Client) ListPosts(ctx context.Context, query models.PostQuery) (*models.Paginated[models.Post], error) {
	var resp models.Paginated[models.Post]
	if err := c.do(ctx, http.MethodGet, "/posts", nil, query.Params(), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) ListMyPosts(ctx context.Context, query models.PostQuery) (*models.Paginated[models.Post], error) {
	var resp models.Paginated[models.Post]
	if err := c.do(ctx, http.MethodGet, "/me/posts", nil, query.Params(), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) GetPostBySlug(ctx context.Context, slug string) (*models.Post, error) {
	var resp models.Envelope[models.Post]
	path := fmt.Sprintf("/posts/slug/%s", url.PathEscape(slug))
	if err := c.do(ctx, http.MethodGet, path, nil, nil, &resp); err != nil {
		return nil, err
	}
	return &resp.Data, nil
}

func (c *Client) GetPost(ctx context.Context, id uint) (*models.Post, error) {
	var resp models.Envelope[models.Post]
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/posts/%d", id), nil, nil, &resp); err != nil {
		return nil, err
	}
	return &resp.Data, nil
}

func (c *Client) CreatePost(ctx context.Context, input models.PostInput) (*models.Post, error) {
	var resp models.Envelope[models.Post]
	if err := c.do(ctx, http.MethodPost, "/posts", input, nil, &resp); err != nil {
		return nil, err
	}
	return &resp.Data, nil
}

func (c *Client) UpdatePost(ctx context.Context, id uint, input models.PostInput) (*models.Post, error) {
	var resp models.Envelope[models.Post]
	if err := c.do(ctx, http.MethodPut, fmt.Sprintf("/posts/%d", id), input, nil, &resp); err != nil {
		return nil, err
	}
	return &resp.Data, nil
}

func (c *Client) DeletePost(ctx context.Context, id uint) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/posts/%d", id), nil, nil, nil)
}
