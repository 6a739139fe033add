package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/inkpress/desk/internal/models"
)

const (
	outputText = "text"
	outputJSON = "json"
	outputYAML = "yaml"
)

func outputFormat(cmd *cobra.Command) (string, error) {
	format, err := cmd.Flags().GetString("output")
	if err != nil {
		return "", fmt.Errorf("failed to get output flag: %w", err)
	}

	switch strings.ToLower(format) {
	case "", outputText:
		return outputText, nil
	case outputJSON:
		return outputJSON, nil
	case outputYAML, "yml":
		return outputYAML, nil
	}
	return "", fmt.Errorf("unknown output format %q", format)
}

// render prints value as json or yaml when asked to, otherwise it calls text.
func render(cmd *cobra.Command, value any, text func()) error {
	format, err := outputFormat(cmd)
	if err != nil {
		return err
	}

	switch format {
	case outputJSON:
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(value)
	case outputYAML:
		encoder := yaml.NewEncoder(os.Stdout)
		encoder.SetIndent(2)
		defer encoder.Close()
		return encoder.Encode(value)
	}

	text()
	return nil
}

func formatDate(t *time.Time) string {
	if t == nil || t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04")
}

func statusBadge(status models.PostStatus) string {
	switch status {
	case models.PostStatusPublished:
		return publishedStyle.Render(strings.ToUpper(string(status)))
	case models.PostStatusArchived:
		return archivedStyle.Render(strings.ToUpper(string(status)))
	}
	return draftStyle.Render(strings.ToUpper(string(status)))
}

func printPosts(result *models.Paginated[models.Post]) {
	if len(result.Data) == 0 {
		fmt.Println(infoStyle.Render("No posts found"))
		return
	}

	for _, post := range result.Data {
		fmt.Printf("%s %s\n", headerStyle.Render(post.Title), statusBadge(post.Status))
		fmt.Printf("  %s  #%d  /posts/%s\n", mutedStyle.Render(formatDate(post.PublishedAt)), post.ID, post.Slug)
		if len(post.Summary) > 0 {
			fmt.Printf("  %s\n", post.Summary)
		}
		fmt.Println()
	}

	pages := 1
	if result.PageSize > 0 {
		pages = (result.Total + result.PageSize - 1) / result.PageSize
	}
	fmt.Println(mutedStyle.Render(fmt.Sprintf("Page %d of %d (%d posts)", result.Page, max(pages, 1), result.Total)))
}

func printPost(post *models.Post) {
	fmt.Println(titleStyle.Render(post.Title))
	fmt.Printf("%s %s\n", statusBadge(post.Status), mutedStyle.Render(fmt.Sprintf("#%d /posts/%s", post.ID, post.Slug)))
	fmt.Printf("By %s, %s\n", post.Author.GetName(), formatDate(post.PublishedAt))

	if post.Category != nil {
		fmt.Printf("Category: %s\n", post.Category.Name)
	}
	if len(post.Tags) > 0 {
		names := make([]string, 0, len(post.Tags))
		for _, tag := range post.Tags {
			names = append(names, "#"+tag.Name)
		}
		fmt.Printf("Tags: %s\n", strings.Join(names, " "))
	}

	fmt.Println()
	if len(post.Summary) > 0 {
		fmt.Println(infoStyle.Render(post.Summary))
		fmt.Println()
	}
	fmt.Println(post.Content)
}

func printCategories(categories []models.Category) {
	if len(categories) == 0 {
		fmt.Println(infoStyle.Render("No categories found"))
		return
	}

	for _, category := range categories {
		fmt.Printf("%s %s\n", headerStyle.Render(category.Name), mutedStyle.Render(fmt.Sprintf("#%d %s", category.ID, category.Slug)))
		if len(category.Description) > 0 {
			fmt.Printf("  %s\n", category.Description)
		}
	}
}

func printTags(tags []models.Tag) {
	if len(tags) == 0 {
		fmt.Println(infoStyle.Render("No tags found"))
		return
	}

	for _, tag := range tags {
		fmt.Printf("%s %s\n", headerStyle.Render("#"+tag.Name), mutedStyle.Render(fmt.Sprintf("#%d %s", tag.ID, tag.Slug)))
	}
}

func printComments(comments []models.Comment) {
	if len(comments) == 0 {
		fmt.Println(infoStyle.Render("No comments yet"))
		return
	}

	for _, comment := range comments {
		author := comment.AuthorName
		if comment.User != nil {
			author = comment.User.GetName()
		}
		if len(author) == 0 {
			author = "Anonymous"
		}

		created := comment.CreatedAt
		fmt.Printf("%s %s\n", headerStyle.Render(author), mutedStyle.Render(formatDate(&created)))
		fmt.Printf("  %s\n\n", comment.Body)
	}
}
