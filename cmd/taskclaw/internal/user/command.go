package user

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sipeed/taskclaw/cmd/taskclaw/internal"
	"github.com/sipeed/taskclaw/pkg/access"
)

func NewUserCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage chat users and their roles",
	}

	cmd.AddCommand(
		newAddCommand(),
		newListCommand(),
	)

	return cmd
}

func newAddCommand() *cobra.Command {
	var (
		login     string
		name      string
		roles     []string
		superuser bool
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			u, err := buildUser(login, name, roles, superuser)
			if err != nil {
				return err
			}

			app, err := internal.OpenApp()
			if err != nil {
				return err
			}
			defer app.Close()

			if err := app.Store.CreateUser(cmd.Context(), u); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ User %s added (id %d)\n", u.Login, u.UserID)
			return nil
		},
	}

	cmd.Flags().StringVarP(&login, "login", "l", "", "Login used in chat")
	cmd.Flags().StringVarP(&name, "name", "n", "", "Display name (defaults to login)")
	cmd.Flags().StringArrayVarP(&roles, "role", "r", []string{"user"}, "Role: user, pm or dev (repeatable)")
	cmd.Flags().BoolVar(&superuser, "superuser", false, "Bypass every role check")
	_ = cmd.MarkFlagRequired("login")

	return cmd
}

// buildUser validates role names before anything touches the store.
func buildUser(login, name string, roleNames []string, superuser bool) (*access.User, error) {
	if strings.TrimSpace(login) == "" {
		return nil, fmt.Errorf("--login is required")
	}
	u := &access.User{Login: login, Name: name, Superuser: superuser}
	for _, rn := range roleNames {
		role, ok := access.ParseRole(rn)
		if !ok {
			return nil, fmt.Errorf("unknown role %q (want user, pm or dev)", rn)
		}
		if !u.HasRole(role) {
			u.Roles = append(u.Roles, role)
		}
	}
	return u, nil
}

func newListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List users",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := internal.OpenApp()
			if err != nil {
				return err
			}
			defer app.Close()

			return listUsers(cmd.Context(), app.Store, cmd.OutOrStdout())
		},
	}
}

type userLister interface {
	ListUsers(ctx context.Context) ([]access.User, error)
}

func listUsers(ctx context.Context, st userLister, w io.Writer) error {
	users, err := st.ListUsers(ctx)
	if err != nil {
		return err
	}
	if len(users) == 0 {
		fmt.Fprintln(w, "No users.")
		return nil
	}
	for _, u := range users {
		flag := ""
		if u.Superuser {
			flag = " [superuser]"
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s%s\n", u.UserID, u.Login, u.Name, access.JoinRoles(u.Roles), flag)
	}
	return nil
}
