package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/inkpress/desk/internal/models"
	"github.com/inkpress/desk/internal/router"
)

var commentsCmd = &cobra.Command{
	Use:     "comments",
	Aliases: []string{"comment"},
	Short:   "Read and write comments on a post",
}

var commentsListCmd = &cobra.Command{
	Use:         "list <post slug|id>",
	Short:       "List the comments on a post",
	Args:        cobra.ExactArgs(1),
	Annotations: map[string]string{routeAnnotation: router.RoutePostDetail},
	RunE: func(cmd *cobra.Command, args []string) error {
		comments, err := application.Client.ListComments(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("failed to list comments: %w", err)
		}

		return render(cmd, comments, func() { printComments(comments) })
	},
}

var commentsAddCmd = &cobra.Command{
	Use:         "add <post slug|id> [body]",
	Short:       "Comment on a post",
	Args:        cobra.RangeArgs(1, 2),
	Annotations: map[string]string{routeAnnotation: router.RoutePostDetail},
	RunE: func(cmd *cobra.Command, args []string) error {
		input := models.CommentInput{
			AuthorName: trimmed(cmd, "name"),
		}
		if len(args) > 1 {
			input.Body = strings.TrimSpace(args[1])
		}

		if len(input.Body) == 0 {
			if !isInteractive() {
				return fmt.Errorf("a comment body is required")
			}

			err := huh.NewForm(
				huh.NewGroup(
					huh.NewText().
						Title("Comment").
						Value(&input.Body).
						Validate(required("comment")),
				),
			).Run()
			if err != nil {
				return fmt.Errorf("comment cancelled: %w", err)
			}
			input.Body = strings.TrimSpace(input.Body)
		}

		comment, err := application.Client.CreateComment(cmd.Context(), args[0], input)
		if err != nil {
			return fmt.Errorf("failed to add comment: %w", err)
		}

		return render(cmd, comment, func() {
			if comment.Approved {
				fmt.Println(successStyle.Render("Comment posted"))
			} else {
				fmt.Println(successStyle.Render("Comment submitted for review"))
			}
		})
	},
}

func init() {
	commentsAddCmd.Flags().String("name", "", "Name shown when commenting without signing in")

	commentsCmd.AddCommand(commentsListCmd)
	commentsCmd.AddCommand(commentsAddCmd)

	rootCmd.AddCommand(commentsCmd)
}
