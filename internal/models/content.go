package models

import (
	"strconv"
	"time"
)

type PostStatus string

const (
	PostStatusDraft     PostStatus = "draft"
	PostStatusPublished PostStatus = "published"
	PostStatusArchived  PostStatus = "archived"
)

func (s PostStatus) IsValid() bool {
	switch s {
	case PostStatusDraft, PostStatusPublished, PostStatusArchived:
		return true
	}
	return false
}

type Category struct {
	ID          uint      `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

type Tag struct {
	ID        uint      `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	CreatedAt time.Time `json:"createdAt"`
}

type Comment struct {
	ID         uint      `json:"id"`
	AuthorName string    `json:"authorName"`
	Body       string    `json:"body"`
	Approved   bool      `json:"approved"`
	CreatedAt  time.Time `json:"createdAt"`
	User       *User     `json:"user,omitempty"`
}

type Post struct {
	ID          uint       `json:"id"`
	Title       string     `json:"title"`
	Summary     string     `json:"summary,omitempty"`
	Content     string     `json:"content"`
	Slug        string     `json:"slug"`
	Status      PostStatus `json:"status"`
	CoverImage  string     `json:"coverImage,omitempty"`
	PublishedAt *time.Time `json:"publishedAt,omitempty"`
	Author      User       `json:"author"`
	Category    *Category  `json:"category,omitempty"`
	Tags        []Tag      `json:"tags"`
	Comments    []Comment  `json:"comments,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

func (p *Post) IsPublished() bool {
	return p.Status == PostStatusPublished && p.PublishedAt != nil
}

// Paginated is the list envelope used by every paged endpoint.
type Paginated[T any] struct {
	Data     []T `json:"data"`
	Page     int `json:"page"`
	PageSize int `json:"pageSize"`
	Total    int `json:"total"`
}

// Envelope wraps single resources and unpaged lists.
type Envelope[T any] struct {
	Data T `json:"data"`
}

type PostInput struct {
	Title        string     `json:"title,omitempty"`
	Summary      string     `json:"summary,omitempty"`
	Content      string     `json:"content,omitempty"`
	Status       PostStatus `json:"status,omitempty"`
	Slug         string     `json:"slug,omitempty"`
	CategoryID   *uint      `json:"categoryId,omitempty"`
	CategorySlug string     `json:"categorySlug,omitempty"`
	Tags         []string   `json:"tags,omitempty"`
	CoverImage   string     `json:"coverImage,omitempty"`
	PublishedAt  *time.Time `json:"publishedAt,omitempty"`
}

type CategoryInput struct {
	Name        string `json:"name,omitempty"`
	Slug        string `json:"slug,omitempty"`
	Description string `json:"description,omitempty"`
}

type TagInput struct {
	Name string `json:"name,omitempty"`
	Slug string `json:"slug,omitempty"`
}

type CommentInput struct {
	AuthorName string `json:"authorName,omitempty"`
	Body       string `json:"body"`
}

// PostQuery holds the filters accepted by the post listing endpoints.
type PostQuery struct {
	Page           int
	PageSize       int
	Status         string
	Tag            string
	Category       string
	Author         string
	Search         string
	IncludeContent bool
}

// Params renders the query as request parameters, omitting zero values.
func (q PostQuery) Params() map[string]string {
	params := map[string]string{}
	if q.Page > 0 {
		params["page"] = strconv.Itoa(q.Page)
	}
	if q.PageSize > 0 {
		params["pageSize"] = strconv.Itoa(q.PageSize)
	}
	if len(q.Status) > 0 {
		params["status"] = q.Status
	}
	if len(q.Tag) > 0 {
		params["tag"] = q.Tag
	}
	if len(q.Category) > 0 {
		params["category"] = q.Category
	}
	if len(q.Author) > 0 {
		params["author"] = q.Author
	}
	if len(q.Search) > 0 {
		params["search"] = q.Search
	}
	if q.IncludeContent {
		params["includeContent"] = "true"
	}
	return params
}
