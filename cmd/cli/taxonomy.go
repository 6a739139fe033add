package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/inkpress/desk/internal/common"
	"github.com/inkpress/desk/internal/models"
	"github.com/inkpress/desk/internal/router"
)

var categoriesCmd = &cobra.Command{
	Use:     "categories",
	Aliases: []string{"category"},
	Short:   "Read and manage categories",
}

var categoriesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List categories",
	RunE: func(cmd *cobra.Command, args []string) error {
		categories, err := application.Client.ListCategories(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to list categories: %w", err)
		}

		return render(cmd, categories, func() { printCategories(categories) })
	},
}

var categoriesPostsCmd = &cobra.Command{
	Use:         "posts <slug|id>",
	Short:       "List the posts in a category",
	Args:        cobra.ExactArgs(1),
	Annotations: map[string]string{routeAnnotation: router.RouteCategoryPosts},
	RunE: func(cmd *cobra.Command, args []string) error {
		query, err := postQuery(cmd)
		if err != nil {
			return err
		}

		result, err := application.Client.ListPostsByCategory(cmd.Context(), args[0], query)
		if err != nil {
			return fmt.Errorf("failed to list posts in %s: %w", args[0], err)
		}

		return render(cmd, result, func() { printPosts(result) })
	},
}

var categoriesCreateCmd = &cobra.Command{
	Use:         "create <name>",
	Short:       "Create a category",
	Args:        cobra.ExactArgs(1),
	Annotations: map[string]string{routeAnnotation: router.RouteDashboardCategories},
	RunE: func(cmd *cobra.Command, args []string) error {
		category, err := application.Client.CreateCategory(cmd.Context(), models.CategoryInput{
			Name:        args[0],
			Slug:        trimmed(cmd, "slug"),
			Description: trimmed(cmd, "description"),
		})
		if err != nil {
			return fmt.Errorf("failed to create category: %w", err)
		}

		return render(cmd, category, func() {
			fmt.Println(successStyle.Render(fmt.Sprintf("Created category #%d %s", category.ID, category.Slug)))
		})
	},
}

var categoriesUpdateCmd = &cobra.Command{
	Use:         "update <id>",
	Short:       "Change a category",
	Args:        cobra.ExactArgs(1),
	Annotations: map[string]string{routeAnnotation: router.RouteDashboardCategories},
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := common.ParseID(args[0])
		if err != nil {
			return err
		}

		category, err := application.Client.UpdateCategory(cmd.Context(), id, models.CategoryInput{
			Name:        trimmed(cmd, "name"),
			Slug:        trimmed(cmd, "slug"),
			Description: trimmed(cmd, "description"),
		})
		if err != nil {
			return fmt.Errorf("failed to update category %d: %w", id, err)
		}

		return render(cmd, category, func() {
			fmt.Println(successStyle.Render(fmt.Sprintf("Updated category #%d %s", category.ID, category.Slug)))
		})
	},
}

var categoriesDeleteCmd = &cobra.Command{
	Use:         "delete <id>",
	Short:       "Delete a category",
	Args:        cobra.ExactArgs(1),
	Annotations: map[string]string{routeAnnotation: router.RouteDashboardCategories},
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := common.ParseID(args[0])
		if err != nil {
			return err
		}

		if !confirmDelete(cmd, fmt.Sprintf("Delete category #%d?", id)) {
			fmt.Println("Cancelled.")
			return nil
		}

		if err := application.Client.DeleteCategory(cmd.Context(), id); err != nil {
			return fmt.Errorf("failed to delete category %d: %w", id, err)
		}

		fmt.Println(successStyle.Render(fmt.Sprintf("Deleted category #%d", id)))
		return nil
	},
}

var tagsCmd = &cobra.Command{
	Use:     "tags",
	Aliases: []string{"tag"},
	Short:   "Read and manage tags",
}

var tagsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List tags",
	RunE: func(cmd *cobra.Command, args []string) error {
		tags, err := application.Client.ListTags(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to list tags: %w", err)
		}

		return render(cmd, tags, func() { printTags(tags) })
	},
}

var tagsPostsCmd = &cobra.Command{
	Use:         "posts <slug>",
	Short:       "List the posts with a tag",
	Args:        cobra.ExactArgs(1),
	Annotations: map[string]string{routeAnnotation: router.RouteTagPosts},
	RunE: func(cmd *cobra.Command, args []string) error {
		query, err := postQuery(cmd)
		if err != nil {
			return err
		}

		result, err := application.Client.ListPostsByTag(cmd.Context(), args[0], query)
		if err != nil {
			return fmt.Errorf("failed to list posts tagged %s: %w", args[0], err)
		}

		return render(cmd, result, func() { printPosts(result) })
	},
}

var tagsCreateCmd = &cobra.Command{
	Use:         "create <name>",
	Short:       "Create a tag",
	Args:        cobra.ExactArgs(1),
	Annotations: map[string]string{routeAnnotation: router.RouteDashboardTags},
	RunE: func(cmd *cobra.Command, args []string) error {
		tag, err := application.Client.CreateTag(cmd.Context(), models.TagInput{
			Name: args[0],
			Slug: trimmed(cmd, "slug"),
		})
		if err != nil {
			return fmt.Errorf("failed to create tag: %w", err)
		}

		return render(cmd, tag, func() {
			fmt.Println(successStyle.Render(fmt.Sprintf("Created tag #%d %s", tag.ID, tag.Slug)))
		})
	},
}

var tagsUpdateCmd = &cobra.Command{
	Use:         "update <id>",
	Short:       "Change a tag",
	Args:        cobra.ExactArgs(1),
	Annotations: map[string]string{routeAnnotation: router.RouteDashboardTags},
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := common.ParseID(args[0])
		if err != nil {
			return err
		}

		tag, err := application.Client.UpdateTag(cmd.Context(), id, models.TagInput{
			Name: trimmed(cmd, "name"),
			Slug: trimmed(cmd, "slug"),
		})
		if err != nil {
			return fmt.Errorf("failed to update tag %d: %w", id, err)
		}

		return render(cmd, tag, func() {
			fmt.Println(successStyle.Render(fmt.Sprintf("Updated tag #%d %s", tag.ID, tag.Slug)))
		})
	},
}

var tagsDeleteCmd = &cobra.Command{
	Use:         "delete <id>",
	Short:       "Delete a tag",
	Args:        cobra.ExactArgs(1),
	Annotations: map[string]string{routeAnnotation: router.RouteDashboardTags},
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := common.ParseID(args[0])
		if err != nil {
			return err
		}

		if !confirmDelete(cmd, fmt.Sprintf("Delete tag #%d?", id)) {
			fmt.Println("Cancelled.")
			return nil
		}

		if err := application.Client.DeleteTag(cmd.Context(), id); err != nil {
			return fmt.Errorf("failed to delete tag %d: %w", id, err)
		}

		fmt.Println(successStyle.Render(fmt.Sprintf("Deleted tag #%d", id)))
		return nil
	},
}

func init() {
	addPostQueryFlags(categoriesPostsCmd)
	categoriesCreateCmd.Flags().String("slug", "", "Slug (derived from the name when empty)")
	categoriesCreateCmd.Flags().String("description", "", "Description")
	categoriesUpdateCmd.Flags().String("name", "", "New name")
	categoriesUpdateCmd.Flags().String("slug", "", "New slug")
	categoriesUpdateCmd.Flags().String("description", "", "New description")
	categoriesDeleteCmd.Flags().BoolP("yes", "y", false, "Delete without asking")

	categoriesCmd.AddCommand(categoriesListCmd)
	categoriesCmd.AddCommand(categoriesPostsCmd)
	categoriesCmd.AddCommand(categoriesCreateCmd)
	categoriesCmd.AddCommand(categoriesUpdateCmd)
	categoriesCmd.AddCommand(categoriesDeleteCmd)

	addPostQueryFlags(tagsPostsCmd)
	tagsCreateCmd.Flags().String("slug", "", "Slug (derived from the name when empty)")
	tagsUpdateCmd.Flags().String("name", "", "New name")
	tagsUpdateCmd.Flags().String("slug", "", "New slug")
	tagsDeleteCmd.Flags().BoolP("yes", "y", false, "Delete without asking")

	tagsCmd.AddCommand(tagsListCmd)
	tagsCmd.AddCommand(tagsPostsCmd)
	tagsCmd.AddCommand(tagsCreateCmd)
	tagsCmd.AddCommand(tagsUpdateCmd)
	tagsCmd.AddCommand(tagsDeleteCmd)

	rootCmd.AddCommand(categoriesCmd)
	rootCmd.AddCommand(tagsCmd)
}
