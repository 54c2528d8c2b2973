package cli

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/spf13/cobra"

	"github.com/notsoai/dashboard/internal/models"
)

var slugRe = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)

func newClientCmd(env Env) *cobra.Command {
	cmd := &cobra.Command{Use: "client", Short: "Manage tenants"}

	create := &cobra.Command{
		Use:     "create",
		Short:   "Create a tenant",
		Example: `  dashctl client create --id c_123 --slug acme-inc --name "Acme Inc"`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			id, _ := cmd.Flags().GetString("id")
			slug, _ := cmd.Flags().GetString("slug")
			name, _ := cmd.Flags().GetString("name")
			plan, _ := cmd.Flags().GetString("plan")

			slug = strings.ToLower(strings.TrimSpace(slug))
			if !slugRe.MatchString(slug) {
				return fmt.Errorf("invalid slug %q", slug)
			}
			if strings.TrimSpace(id) == "" || strings.TrimSpace(name) == "" {
				return fmt.Errorf("--id and --name are required")
			}

			st, err := env.OpenStore()
			if err != nil {
				return err
			}
			c := models.Client{ID: strings.TrimSpace(id), Slug: slug, Name: strings.TrimSpace(name), Plan: plan}
			if err := st.CreateClient(cmd.Context(), &c); err != nil {
				return fmt.Errorf("create client: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "client %s (%s) created\n", c.ID, c.Slug)
			return nil
		},
	}
	create.Flags().String("id", "", "tenant id")
	create.Flags().String("slug", "", "URL slug, lowercase with dashes")
	create.Flags().String("name", "", "display name")
	create.Flags().String("plan", "starter", "billing plan")

	cmd.AddCommand(create)
	return cmd
}
