package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/cutroom/cutroom-agent/internal/export"
)

// ExportOptions holds flags for the export command.
type ExportOptions struct {
	*RootOptions
	Format    string
	OutputDir string
	FrameRate float64
}

// NewExportCommand creates the export command.
func NewExportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ExportOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "export <project-id>",
		Short: "Export a saved project without a running agent",
		Long: `Export renders a saved project's timeline to an interchange format,
reading the document straight from the database.

Example:
  cutroom-agent export 6e1f22c7 --format edl --output ./cuts`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(opts, args[0])
		},
	}

	cmd.Flags().StringVar(&opts.Format, "format", export.FormatEDL,
		"export format ("+strings.Join(export.Formats(), "|")+")")
	cmd.Flags().StringVar(&opts.OutputDir, "output", ".", "directory the export is written into")
	cmd.Flags().Float64Var(&opts.FrameRate, "fps", export.DefaultFrameRate, "frame rate for timecode maths")

	return cmd
}

func runExport(opts *ExportOptions, projectID string) error {
	env, err := newCmdEnv(opts.Verbose)
	if err != nil {
		return err
	}
	defer env.Close()

	p, err := env.repo.GetProject(context.Background(), projectID)
	if err != nil {
		return fmt.Errorf("load project: %w", err)
	}
	if p == nil {
		return fmt.Errorf("no project with id %s", projectID)
	}

	format := strings.ToLower(opts.Format)
	if !export.ValidFormat(format) {
		return fmt.Errorf("format must be one of %s", strings.Join(export.Formats(), ", "))
	}

	bar := progressbar.NewOptions(
		len(p.Document.Clips),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetTheme(progressbar.ThemeASCII),
		progressbar.OptionShowCount(),
		progressbar.OptionSetDescription(fmt.Sprintf("Exporting %q as %s", p.Name, format)),
	)

	result, err := export.Run(export.Request{
		Title:     p.Name,
		Format:    format,
		FrameRate: opts.FrameRate,
		OutputDir: opts.OutputDir,
		Tracks:    p.Document.Tracks,
		Clips:     p.Document.Clips,
		Progress: func(done, total int) {
			bar.ChangeMax(total)
			_ = bar.Set(done)
		},
	})
	if err != nil {
		fmt.Fprintln(os.Stderr)
		return err
	}
	_ = bar.Finish()
	fmt.Fprintln(os.Stderr)

	fmt.Printf("wrote %s (%d items)\n", result.OutputPath, result.ItemCount)
	return nil
}
