package console

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/inkpress/desk/internal/models"
	"github.com/inkpress/desk/internal/router"
)

const defaultPageSize = 10

type PostsPageData struct {
	TemplateData
	Title    string
	Subtitle string
	Posts    []models.Post
	Page     int
	PageSize int
	Total    int
	HasPrev  bool
	HasNext  bool
}

type PostPageData struct {
	TemplateData
	Post     *models.Post
	Comments []models.Comment
}

func pageQuery(c *gin.Context) models.PostQuery {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}
	return models.PostQuery{
		Page:     page,
		PageSize: defaultPageSize,
		Search:   strings.TrimSpace(c.Query("search")),
	}
}

func (s *Server) newPostsPageData(c *gin.Context, title string, result *models.Paginated[models.Post]) PostsPageData {
	data := PostsPageData{
		TemplateData: s.GetTemplateData(c),
		Title:        title,
		Posts:        result.Data,
		Page:         result.Page,
		PageSize:     result.PageSize,
		Total:        result.Total,
	}
	data.HasPrev = data.Page > 1
	data.HasNext = data.Page*data.PageSize < data.Total
	return data
}

func (s *Server) getHomePage(c *gin.Context) {
	query := pageQuery(c)
	query.Status = string(models.PostStatusPublished)

	result, err := s.App.Client.ListPosts(c.Request.Context(), query)
	if err != nil {
		s.apiErrorPage(c, "Failed to load posts", err)
		return
	}

	s.renderHtml(c, http.StatusOK, "posts.html", s.newPostsPageData(c, "Latest posts", result))
}

func (s *Server) getCategoryPage(c *gin.Context) {
	slug := c.Param("slug")

	result, err := s.App.Client.ListPostsByCategory(c.Request.Context(), slug, pageQuery(c))
	if err != nil {
		s.apiErrorPage(c, "Failed to load category", err)
		return
	}

	s.renderHtml(c, http.StatusOK, "posts.html", s.newPostsPageData(c, fmt.Sprintf("Category: %s", slug), result))
}

func (s *Server) getTagPage(c *gin.Context) {
	slug := c.Param("slug")

	result, err := s.App.Client.ListPostsByTag(c.Request.Context(), slug, pageQuery(c))
	if err != nil {
		s.apiErrorPage(c, "Failed to load tag", err)
		return
	}

	s.renderHtml(c, http.StatusOK, "posts.html", s.newPostsPageData(c, fmt.Sprintf("Tag: %s", slug), result))
}

func (s *Server) getPostPage(c *gin.Context) {
	ctx := c.Request.Context()

	post, err := s.App.Client.GetPostBySlug(ctx, c.Param("slug"))
	if err != nil {
		s.apiErrorPage(c, "Post not found", err)
		return
	}

	comments, err := s.App.Client.ListComments(ctx, strconv.FormatUint(uint64(post.ID), 10))
	if err != nil {
		LogWithCorrelation(c).WithError(err).Warnln("Failed to load comments")
		comments = post.Comments
	}

	s.renderHtml(c, http.StatusOK, "post.html", PostPageData{
		TemplateData: s.GetTemplateData(c),
		Post:         post,
		Comments:     comments,
	})
}

func (s *Server) postComment(c *gin.Context) {
	slug := c.Param("slug")

	back, err := s.App.Router.Table().PathFor(router.RoutePostDetail, map[string]string{"slug": slug})
	if err != nil {
		s.getErrorPage(c, http.StatusNotFound, "Post not found", err)
		return
	}

	input := models.CommentInput{
		AuthorName: strings.TrimSpace(c.PostForm("authorName")),
		Body:       strings.TrimSpace(c.PostForm("body")),
	}

	if len(input.Body) == 0 {
		s.setFlash(c, "Comment body is required")
		c.Redirect(http.StatusFound, back)
		return
	}

	if _, err := s.App.Client.CreateComment(c.Request.Context(), slug, input); err != nil {
		LogWithCorrelation(c).WithError(err).Warnln("Failed to create comment")
		s.setFlash(c, "Failed to post comment")
		c.Redirect(http.StatusFound, back)
		return
	}

	s.setNotice(c, "Comment submitted for review")
	c.Redirect(http.StatusFound, back)
}
