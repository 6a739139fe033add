package console

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/inkpress/desk/internal/common"
	"github.com/inkpress/desk/internal/models"
	"github.com/inkpress/desk/internal/router"
)

type DashboardPostsPageData struct {
	PostsPageData
	Categories []models.Category
	Statuses   []models.PostStatus
}

type DashboardCategoriesPageData struct {
	TemplateData
	Categories []models.Category
}

type DashboardTagsPageData struct {
	TemplateData
	Tags []models.Tag
}

func (s *Server) dashboardPath(name string) string {
	path, err := s.App.Router.Table().PathFor(name, nil)
	if err != nil {
		return router.HomePath
	}
	return path
}

func (s *Server) getDashboardPostsPage(c *gin.Context) {
	ctx := c.Request.Context()

	query := pageQuery(c)
	query.Status = c.Query("status")

	result, err := s.App.Client.ListMyPosts(ctx, query)
	if err != nil {
		s.apiErrorPage(c, "Failed to load your posts", err)
		return
	}

	categories, err := s.App.Client.ListCategories(ctx)
	if err != nil {
		LogWithCorrelation(c).WithError(err).Warnln("Failed to load categories")
	}

	s.renderHtml(c, http.StatusOK, "dashboard_posts.html", DashboardPostsPageData{
		PostsPageData: s.newPostsPageData(c, "My posts", result),
		Categories:    categories,
		Statuses: []models.PostStatus{
			models.PostStatusDraft,
			models.PostStatusPublished,
			models.PostStatusArchived,
		},
	})
}

// splitTags turns "go, web ,testing" into its non-empty names.
func splitTags(raw string) []string {
	var tags []string
	for _, tag := range strings.Split(raw, ",") {
		if tag = strings.TrimSpace(tag); len(tag) > 0 {
			tags = append(tags, tag)
		}
	}
	return tags
}

func (s *Server) postDashboardPost(c *gin.Context) {
	back := s.dashboardPath(router.RouteDashboardPosts)

	input := models.PostInput{
		Title:   strings.TrimSpace(c.PostForm("title")),
		Summary: strings.TrimSpace(c.PostForm("summary")),
		Content: c.PostForm("content"),
		Status:  models.PostStatus(c.DefaultPostForm("status", string(models.PostStatusDraft))),
		Tags:    splitTags(c.PostForm("tags")),
	}

	if raw := c.PostForm("categoryId"); len(raw) > 0 {
		id, err := common.ParseID(raw)
		if err != nil {
			s.setFlash(c, "Category is not valid")
			c.Redirect(http.StatusFound, back)
			return
		}
		input.CategoryID = &id
	}

	switch {
	case len(input.Title) == 0 || len(strings.TrimSpace(input.Content)) == 0:
		s.setFlash(c, "Title and content are required")
	case !input.Status.IsValid():
		s.setFlash(c, "Status is not valid")
	default:
		post, err := s.App.Client.CreatePost(c.Request.Context(), input)
		if err != nil {
			LogWithCorrelation(c).WithError(err).Warnln("Failed to create post")
			s.setFlash(c, "Failed to create post")
			break
		}
		s.setNotice(c, "Created \""+post.Title+"\"")
	}

	c.Redirect(http.StatusFound, back)
}

func (s *Server) postDashboardPostStatus(c *gin.Context) {
	back := s.dashboardPath(router.RouteDashboardPosts)

	id, err := common.ParseID(c.Param("id"))
	if err != nil {
		s.getErrorPage(c, http.StatusBadRequest, "Invalid post", err)
		return
	}

	status := models.PostStatus(c.PostForm("status"))
	if !status.IsValid() {
		s.setFlash(c, "Status is not valid")
		c.Redirect(http.StatusFound, back)
		return
	}

	if _, err := s.App.Client.UpdatePost(c.Request.Context(), id, models.PostInput{Status: status}); err != nil {
		LogWithCorrelation(c).WithError(err).Warnln("Failed to update post")
		s.setFlash(c, "Failed to update post")
	} else {
		s.setNotice(c, "Post is now "+string(status))
	}

	c.Redirect(http.StatusFound, back)
}

func (s *Server) postDashboardPostDelete(c *gin.Context) {
	back := s.dashboardPath(router.RouteDashboardPosts)

	id, err := common.ParseID(c.Param("id"))
	if err != nil {
		s.getErrorPage(c, http.StatusBadRequest, "Invalid post", err)
		return
	}

	if err := s.App.Client.DeletePost(c.Request.Context(), id); err != nil {
		LogWithCorrelation(c).WithError(err).Warnln("Failed to delete post")
		s.setFlash(c, "Failed to delete post")
	} else {
		s.setNotice(c, "Post deleted")
	}

	c.Redirect(http.StatusFound, back)
}

func (s *Server) getDashboardCategoriesPage(c *gin.Context) {
	categories, err := s.App.Client.ListCategories(c.Request.Context())
	if err != nil {
		s.apiErrorPage(c, "Failed to load categories", err)
		return
	}

	s.renderHtml(c, http.StatusOK, "dashboard_categories.html", DashboardCategoriesPageData{
		TemplateData: s.GetTemplateData(c),
		Categories:   categories,
	})
}

func (s *Server) postDashboardCategory(c *gin.Context) {
	input := models.CategoryInput{
		Name:        strings.TrimSpace(c.PostForm("name")),
		Slug:        strings.TrimSpace(c.PostForm("slug")),
		Description: strings.TrimSpace(c.PostForm("description")),
	}

	if len(input.Name) == 0 {
		s.setFlash(c, "Name is required")
	} else if _, err := s.App.Client.CreateCategory(c.Request.Context(), input); err != nil {
		LogWithCorrelation(c).WithError(err).Warnln("Failed to create category")
		s.setFlash(c, "Failed to create category")
	} else {
		s.setNotice(c, "Category created")
	}

	c.Redirect(http.StatusFound, s.dashboardPath(router.RouteDashboardCategories))
}

func (s *Server) postDashboardCategoryDelete(c *gin.Context) {
	id, err := common.ParseID(c.Param("id"))
	if err != nil {
		s.getErrorPage(c, http.StatusBadRequest, "Invalid category", err)
		return
	}

	if err := s.App.Client.DeleteCategory(c.Request.Context(), id); err != nil {
		LogWithCorrelation(c).WithError(err).Warnln("Failed to delete category")
		s.setFlash(c, "Failed to delete category")
	} else {
		s.setNotice(c, "Category deleted")
	}

	c.Redirect(http.StatusFound, s.dashboardPath(router.RouteDashboardCategories))
}

func (s *Server) getDashboardTagsPage(c *gin.Context) {
	tags, err := s.App.Client.ListTags(c.Request.Context())
	if err != nil {
		s.apiErrorPage(c, "Failed to load tags", err)
		return
	}

	s.renderHtml(c, http.StatusOK, "dashboard_tags.html", DashboardTagsPageData{
		TemplateData: s.GetTemplateData(c),
		Tags:         tags,
	})
}

func (s *Server) postDashboardTag(c *gin.Context) {
	input := models.TagInput{
		Name: strings.TrimSpace(c.PostForm("name")),
		Slug: strings.TrimSpace(c.PostForm("slug")),
	}

	if len(input.Name) == 0 {
		s.setFlash(c, "Name is required")
	} else if _, err := s.App.Client.CreateTag(c.Request.Context(), input); err != nil {
		LogWithCorrelation(c).WithError(err).Warnln("Failed to create tag")
		s.setFlash(c, "Failed to create tag")
	} else {
		s.setNotice(c, "Tag created")
	}

	c.Redirect(http.StatusFound, s.dashboardPath(router.RouteDashboardTags))
}

func (s *Server) postDashboardTagDelete(c *gin.Context) {
	id, err := common.ParseID(c.Param("id"))
	if err != nil {
		s.getErrorPage(c, http.StatusBadRequest, "Invalid tag", err)
		return
	}

	if err := s.App.Client.DeleteTag(c.Request.Context(), id); err != nil {
		LogWithCorrelation(c).WithError(err).Warnln("Failed to delete tag")
		s.setFlash(c, "Failed to delete tag")
	} else {
		s.setNotice(c, "Tag deleted")
	}

	c.Redirect(http.StatusFound, s.dashboardPath(router.RouteDashboardTags))
}
