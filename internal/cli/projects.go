package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/cutroom/cutroom-agent/internal/cloud"
	"github.com/cutroom/cutroom-agent/internal/project"
)

// NewProjectsCommand creates the projects command tree.
func NewProjectsCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "projects",
		Short: "Inspect and sync saved projects",
	}

	cmd.AddCommand(newProjectsListCommand(rootOpts))
	cmd.AddCommand(newProjectsPushCommand(rootOpts))
	cmd.AddCommand(newProjectsPullCommand(rootOpts))

	return cmd
}

func newProjectsListCommand(rootOpts *RootOptions) *cobra.Command {
	var remote bool

	cmd := &cobra.Command{
		Use:           "list",
		Short:         "List saved projects",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProjectsList(rootOpts, remote)
		},
	}

	cmd.Flags().BoolVar(&remote, "remote", false, "list projects on the cloud backend instead")

	return cmd
}

func runProjectsList(rootOpts *RootOptions, remote bool) error {
	env, err := newCmdEnv(rootOpts.Verbose)
	if err != nil {
		return err
	}
	defer env.Close()

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	defer w.Flush()

	if remote {
		client, err := env.cloudClient()
		if err != nil {
			return err
		}
		projects, err := client.Sync().ListRemote(context.Background())
		if err != nil {
			return err
		}
		fmt.Fprintln(w, "ID\tNAME\tREVISION\tUPDATED")
		for _, p := range projects {
			fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", p.ProjectID, p.Name, p.Revision, p.UpdatedAt)
		}
		return nil
	}

	projects, err := env.repo.ListProjects(context.Background())
	if err != nil {
		return err
	}
	fmt.Fprintln(w, "ID\tNAME\tCLIPS\tUPDATED")
	for _, p := range projects {
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\n",
			p.ID, p.Name, len(p.Document.Clips), p.UpdatedAt.Format(time.RFC3339))
	}
	return nil
}

func newProjectsPushCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "push <project-id>",
		Short:         "Publish a project document to the cloud backend",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProjectsPush(rootOpts, args[0])
		},
	}

	return cmd
}

func runProjectsPush(rootOpts *RootOptions, projectID string) error {
	env, err := newCmdEnv(rootOpts.Verbose)
	if err != nil {
		return err
	}
	defer env.Close()

	ctx := context.Background()

	p, err := env.repo.GetProject(ctx, projectID)
	if err != nil {
		return fmt.Errorf("load project: %w", err)
	}
	if p == nil {
		return fmt.Errorf("no project with id %s", projectID)
	}

	client, err := env.cloudClient()
	if err != nil {
		return err
	}

	doc, err := project.EncodeDocument(p.Document)
	if err != nil {
		return err
	}

	result, err := client.Sync().PushDocument(ctx, cloud.DocumentPushPayload{
		ProjectID: p.ID,
		Name:      p.Name,
		Document:  json.RawMessage(doc),
		UpdatedAt: p.UpdatedAt.UTC().Format(time.RFC3339),
	})
	if err != nil {
		return err
	}

	fmt.Printf("pushed %q at revision %d\n", p.Name, result.Revision)
	return nil
}

func newProjectsPullCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "pull <project-id>",
		Short:         "Fetch a project document from the cloud backend",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProjectsPull(rootOpts, args[0])
		},
	}

	return cmd
}

func runProjectsPull(rootOpts *RootOptions, projectID string) error {
	env, err := newCmdEnv(rootOpts.Verbose)
	if err != nil {
		return err
	}
	defer env.Close()

	ctx := context.Background()

	client, err := env.cloudClient()
	if err != nil {
		return err
	}

	remote, err := client.Sync().PullDocument(ctx, projectID)
	if err != nil {
		return err
	}
	if remote == nil {
		return fmt.Errorf("project %s has no remote copy", projectID)
	}

	doc, err := project.DecodeDocument(remote.Document)
	if err != nil {
		return fmt.Errorf("remote document: %w", err)
	}
	if remote.Name != "" {
		doc.Name = remote.Name
	}

	existing, err := env.repo.GetProject(ctx, remote.ProjectID)
	if err != nil {
		return err
	}
	if existing == nil {
		now := time.Now().UTC()
		err = env.repo.CreateProject(ctx, &project.Project{
			ID:        remote.ProjectID,
			Name:      doc.Name,
			Document:  doc,
			CreatedAt: now,
			UpdatedAt: now,
		})
	} else {
		err = env.repo.SaveDocument(ctx, remote.ProjectID, doc)
	}
	if err != nil {
		return fmt.Errorf("store project: %w", err)
	}

	fmt.Printf("pulled %q (%d clips) at revision %d\n", doc.Name, len(doc.Clips), remote.Revision)
	return nil
}
