package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/notsoai/dashboard/internal/auth"
	"github.com/notsoai/dashboard/internal/common"
	"github.com/notsoai/dashboard/internal/models"
	"github.com/notsoai/dashboard/internal/session"
	"github.com/notsoai/dashboard/internal/store"
)

const minPasswordLen = 8

func newUserCmd(env Env) *cobra.Command {
	cmd := &cobra.Command{Use: "user", Short: "Manage dashboard users"}

	create := &cobra.Command{
		Use:     "create",
		Short:   "Create a user inside a tenant",
		Example: `  dashctl user create --client acme-inc --email owner@acme.test --password 's3cretpass' --role owner`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			clientRef, _ := cmd.Flags().GetString("client")
			email, _ := cmd.Flags().GetString("email")
			password, _ := cmd.Flags().GetString("password")
			roleStr, _ := cmd.Flags().GetString("role")

			email = strings.ToLower(strings.TrimSpace(email))
			if email == "" || !strings.Contains(email, "@") {
				return fmt.Errorf("invalid --email %q", email)
			}
			if len(password) < minPasswordLen {
				return fmt.Errorf("--password must be at least %d characters", minPasswordLen)
			}
			role, ok := session.ParseRole(roleStr)
			if !ok || !role.Valid() {
				return fmt.Errorf("--role must be one of owner, admin, member, viewer")
			}

			st, err := env.OpenStore()
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			client, err := st.GetClient(ctx, clientRef)
			if errors.Is(err, store.ErrNotFound) {
				return fmt.Errorf("client %q not found", clientRef)
			}
			if err != nil {
				return err
			}

			hash, err := auth.HashPassword(password)
			if err != nil {
				return err
			}
			id, err := common.NewULID()
			if err != nil {
				return err
			}
			u := models.User{ID: id, ClientID: client.ID, Email: email, PasswordHash: hash, Role: string(role)}

			if ws, err := st.ListWorkspaces(ctx, client.ID); err == nil && len(ws) > 0 {
				u.DefaultWorkspaceID = &ws[0].ID
			}
			if err := st.CreateUser(ctx, &u); err != nil {
				return fmt.Errorf("create user: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "user %s <%s> created in %s as %s\n", u.ID, u.Email, client.Slug, role)
			return nil
		},
	}
	create.Flags().String("client", "", "tenant id or slug")
	create.Flags().String("email", "", "login email")
	create.Flags().String("password", "", "initial password")
	create.Flags().String("role", string(session.RoleViewer), "owner, admin, member or viewer")
	_ = create.MarkFlagRequired("client")
	_ = create.MarkFlagRequired("email")
	_ = create.MarkFlagRequired("password")

	cmd.AddCommand(create)
	return cmd
}
