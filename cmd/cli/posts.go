package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/inkpress/desk/internal/common"
	"github.com/inkpress/desk/internal/models"
	"github.com/inkpress/desk/internal/router"
)

var postsCmd = &cobra.Command{
	Use:     "posts",
	Aliases: []string{"post"},
	Short:   "Read and manage posts",
}

var postsListCmd = &cobra.Command{
	Use:         "list",
	Short:       "List published posts",
	Annotations: map[string]string{routeAnnotation: router.RouteHome},
	RunE: func(cmd *cobra.Command, args []string) error {
		query, err := postQuery(cmd)
		if err != nil {
			return err
		}
		if len(query.Status) == 0 {
			query.Status = string(models.PostStatusPublished)
		}

		result, err := application.Client.ListPosts(cmd.Context(), query)
		if err != nil {
			return fmt.Errorf("failed to list posts: %w", err)
		}

		return render(cmd, result, func() { printPosts(result) })
	},
}

var postsMineCmd = &cobra.Command{
	Use:         "mine",
	Short:       "List your own posts, drafts included",
	Annotations: map[string]string{routeAnnotation: router.RouteDashboardPosts},
	RunE: func(cmd *cobra.Command, args []string) error {
		query, err := postQuery(cmd)
		if err != nil {
			return err
		}

		result, err := application.Client.ListMyPosts(cmd.Context(), query)
		if err != nil {
			return fmt.Errorf("failed to list your posts: %w", err)
		}

		return render(cmd, result, func() { printPosts(result) })
	},
}

var postsShowCmd = &cobra.Command{
	Use:         "show <slug|id>",
	Short:       "Show a post",
	Args:        cobra.ExactArgs(1),
	Annotations: map[string]string{routeAnnotation: router.RoutePostDetail},
	RunE: func(cmd *cobra.Command, args []string) error {
		var post *models.Post
		var err error

		if id, parseErr := common.ParseID(args[0]); parseErr == nil {
			post, err = application.Client.GetPost(cmd.Context(), id)
		} else {
			post, err = application.Client.GetPostBySlug(cmd.Context(), args[0])
		}
		if err != nil {
			return fmt.Errorf("failed to get post %s: %w", args[0], err)
		}

		return render(cmd, post, func() { printPost(post) })
	},
}

var postsCreateCmd = &cobra.Command{
	Use:         "create",
	Short:       "Write a new post",
	Annotations: map[string]string{routeAnnotation: router.RouteDashboardPosts},
	RunE: func(cmd *cobra.Command, args []string) error {
		input, err := postInput(cmd)
		if err != nil {
			return err
		}
		if len(input.Status) == 0 {
			input.Status = models.PostStatusDraft
		}

		if len(input.Title) == 0 || len(strings.TrimSpace(input.Content)) == 0 {
			if !isInteractive() {
				return fmt.Errorf("--title and --content (or --file) are required without a terminal")
			}
			if err := promptPost(&input); err != nil {
				return err
			}
		}

		post, err := application.Client.CreatePost(cmd.Context(), input)
		if err != nil {
			return fmt.Errorf("failed to create post: %w", err)
		}

		return render(cmd, post, func() {
			fmt.Println(successStyle.Render(fmt.Sprintf("Created post #%d", post.ID)))
			fmt.Printf("  %s %s\n", post.Title, statusBadge(post.Status))
		})
	},
}

var postsUpdateCmd = &cobra.Command{
	Use:         "update <id>",
	Short:       "Change a post",
	Args:        cobra.ExactArgs(1),
	Annotations: map[string]string{routeAnnotation: router.RouteDashboardPosts},
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := common.ParseID(args[0])
		if err != nil {
			return err
		}

		input, err := postInput(cmd)
		if err != nil {
			return err
		}

		post, err := application.Client.UpdatePost(cmd.Context(), id, input)
		if err != nil {
			return fmt.Errorf("failed to update post %d: %w", id, err)
		}

		return render(cmd, post, func() {
			fmt.Println(successStyle.Render(fmt.Sprintf("Updated post #%d", post.ID)))
			fmt.Printf("  %s %s\n", post.Title, statusBadge(post.Status))
		})
	},
}

var postsDeleteCmd = &cobra.Command{
	Use:         "delete <id>",
	Short:       "Delete a post",
	Args:        cobra.ExactArgs(1),
	Annotations: map[string]string{routeAnnotation: router.RouteDashboardPosts},
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := common.ParseID(args[0])
		if err != nil {
			return err
		}

		if !confirmDelete(cmd, fmt.Sprintf("Delete post #%d?", id)) {
			fmt.Println("Cancelled.")
			return nil
		}

		if err := application.Client.DeletePost(cmd.Context(), id); err != nil {
			return fmt.Errorf("failed to delete post %d: %w", id, err)
		}

		fmt.Println(successStyle.Render(fmt.Sprintf("Deleted post #%d", id)))
		return nil
	},
}

func postQuery(cmd *cobra.Command) (models.PostQuery, error) {
	page, _ := cmd.Flags().GetInt("page")
	pageSize, _ := cmd.Flags().GetInt("page-size")

	query := models.PostQuery{
		Page:     page,
		PageSize: pageSize,
		Status:   trimmed(cmd, "status"),
		Tag:      trimmed(cmd, "tag"),
		Category: trimmed(cmd, "category"),
		Search:   trimmed(cmd, "search"),
	}

	if len(query.Status) > 0 && !models.PostStatus(query.Status).IsValid() {
		return query, fmt.Errorf("unknown status %q", query.Status)
	}

	return query, nil
}

// postInput collects the flags that were set. Unset flags stay empty so an
// update only sends what changed.
func postInput(cmd *cobra.Command) (models.PostInput, error) {
	flags := cmd.Flags()

	input := models.PostInput{
		Title:      trimmed(cmd, "title"),
		Summary:    trimmed(cmd, "summary"),
		Slug:       trimmed(cmd, "slug"),
		CoverImage: trimmed(cmd, "cover"),
		Status:     models.PostStatus(trimmed(cmd, "status")),
	}

	if len(input.Status) > 0 && !input.Status.IsValid() {
		return input, fmt.Errorf("unknown status %q", input.Status)
	}

	input.Content, _ = flags.GetString("content")
	if file, _ := flags.GetString("file"); len(file) > 0 {
		content, err := readContent(file)
		if err != nil {
			return input, err
		}
		input.Content = content
	}

	if flags.Changed("tags") {
		input.Tags, _ = flags.GetStringSlice("tags")
	}

	if category := trimmed(cmd, "category"); len(category) > 0 {
		if id, err := common.ParseID(category); err == nil {
			input.CategoryID = &id
		} else {
			input.CategorySlug = category
		}
	}

	return input, nil
}

// readContent reads post content from a file, or stdin for "-".
func readContent(file string) (string, error) {
	var content []byte
	var err error

	if file == "-" {
		content, err = io.ReadAll(os.Stdin)
	} else {
		content, err = os.ReadFile(file)
	}
	if err != nil {
		return "", fmt.Errorf("failed to read content: %w", err)
	}
	return string(content), nil
}

func promptPost(input *models.PostInput) error {
	status := string(input.Status)

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Title").
				Value(&input.Title).
				Validate(required("title")),
			huh.NewInput().
				Title("Summary").
				Value(&input.Summary),
			huh.NewText().
				Title("Content").
				Value(&input.Content).
				Validate(required("content")),
			huh.NewSelect[string]().
				Title("Status").
				Options(
					huh.NewOption("Draft", string(models.PostStatusDraft)),
					huh.NewOption("Published", string(models.PostStatusPublished)),
				).
				Value(&status),
		),
	)

	if err := form.Run(); err != nil {
		return fmt.Errorf("post editor cancelled: %w", err)
	}

	input.Title = strings.TrimSpace(input.Title)
	input.Summary = strings.TrimSpace(input.Summary)
	input.Status = models.PostStatus(status)

	return nil
}

// confirmDelete asks before deleting unless --yes was given. Without a
// terminal it refuses.
func confirmDelete(cmd *cobra.Command, title string) bool {
	if yes, _ := cmd.Flags().GetBool("yes"); yes {
		return true
	}
	if !isInteractive() {
		fmt.Println(warningStyle.Render("Refusing to delete without --yes"))
		return false
	}

	var confirmed bool
	err := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(title).
				Description("This cannot be undone").
				Value(&confirmed),
		),
	).Run()

	return err == nil && confirmed
}

func addPostQueryFlags(cmd *cobra.Command) {
	cmd.Flags().Int("page", 1, "Page to show")
	cmd.Flags().Int("page-size", 10, "Posts per page")
	cmd.Flags().String("status", "", "Only posts with this status (draft, published, archived)")
	cmd.Flags().String("tag", "", "Only posts with this tag")
	cmd.Flags().String("category", "", "Only posts in this category")
	cmd.Flags().String("search", "", "Search titles and content")
}

func addPostInputFlags(cmd *cobra.Command) {
	cmd.Flags().String("title", "", "Title")
	cmd.Flags().String("summary", "", "Short summary")
	cmd.Flags().String("content", "", "Content")
	cmd.Flags().StringP("file", "f", "", "Read content from a file, - for stdin")
	cmd.Flags().String("slug", "", "Slug (derived from the title when empty)")
	cmd.Flags().String("status", "", "Status (draft, published, archived)")
	cmd.Flags().String("category", "", "Category id or slug")
	cmd.Flags().StringSlice("tags", nil, "Comma separated tag names")
	cmd.Flags().String("cover", "", "Cover image URL")
}

func init() {
	addPostQueryFlags(postsListCmd)
	addPostQueryFlags(postsMineCmd)
	addPostInputFlags(postsCreateCmd)
	addPostInputFlags(postsUpdateCmd)
	postsDeleteCmd.Flags().BoolP("yes", "y", false, "Delete without asking")

	postsCmd.AddCommand(postsListCmd)
	postsCmd.AddCommand(postsMineCmd)
	postsCmd.AddCommand(postsShowCmd)
	postsCmd.AddCommand(postsCreateCmd)
	postsCmd.AddCommand(postsUpdateCmd)
	postsCmd.AddCommand(postsDeleteCmd)

	rootCmd.AddCommand(postsCmd)
}
