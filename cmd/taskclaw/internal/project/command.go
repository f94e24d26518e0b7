package project

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/sipeed/taskclaw/cmd/taskclaw/internal"
	"github.com/sipeed/taskclaw/pkg/store"
)

func NewProjectCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "project",
		Short: "Manage projects",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "add <name>",
			Short: "Add a project",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				app, err := internal.OpenApp()
				if err != nil {
					return err
				}
				defer app.Close()

				id, err := app.Store.CreateProject(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "✓ Project %q added (id %d)\n", args[0], id)
				return nil
			},
		},
		&cobra.Command{
			Use:   "list",
			Short: "List projects",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				app, err := internal.OpenApp()
				if err != nil {
					return err
				}
				defer app.Close()

				return listProjects(cmd.Context(), app.Store, cmd.OutOrStdout())
			},
		},
	)

	return cmd
}

type projectLister interface {
	ListProjects(ctx context.Context) ([]store.Project, error)
}

func listProjects(ctx context.Context, st projectLister, w io.Writer) error {
	projects, err := st.ListProjects(ctx)
	if err != nil {
		return err
	}
	if len(projects) == 0 {
		fmt.Fprintln(w, "No projects.")
		return nil
	}
	for _, p := range projects {
		fmt.Fprintf(w, "%d\t%s\n", p.ID, p.Name)
	}
	return nil
}
