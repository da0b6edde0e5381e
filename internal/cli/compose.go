package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/ophysqc/pkg/composite"
	"github.com/matzehuels/ophysqc/pkg/pipeline"
)

// composeOpts holds the command-line flags for the compose command.
type composeOpts struct {
	output     string   // output PNG path
	columns    int      // images per row; 0 picks a count for aspect
	aspect     float64  // target width/height ratio when columns is 0
	spacing    int      // pixels between cells
	labels     []string // row labels, top to bottom
	labelWidth int      // label gutter width
	font       string   // label font file
}

// composeCommand creates the compose command for tiling arbitrary images.
func (c *CLI) composeCommand() *cobra.Command {
	opts := composeOpts{
		columns:    composite.DefaultColumns,
		aspect:     pipeline.DefaultTargetAspect,
		spacing:    composite.DefaultSpacing,
		labelWidth: composite.DefaultLabelWidth,
	}

	cmd := &cobra.Command{
		Use:   "compose IMAGE...",
		Short: "Tile images into a labeled grid",
		Long: `Tile images into a single PNG grid, row by row.

Every cell is as large as the largest input; smaller images are centered.
With --label, a gutter is reserved on the left and each label is drawn next
to its row. Pass --columns 0 to choose the column count whose grid comes
closest to --aspect.

Examples:
  ophysqc compose a.png b.png c.png d.png -o grid.png
  ophysqc compose plane_*/avg.png -o fov.png --columns 1 --label plane_0 --label plane_1`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runCompose(cmd.Context(), args, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output PNG file (required)")
	cmd.Flags().IntVar(&opts.columns, "columns", opts.columns, "images per row (0 chooses from --aspect)")
	cmd.Flags().Float64Var(&opts.aspect, "aspect", opts.aspect, "target aspect ratio when --columns is 0")
	cmd.Flags().IntVar(&opts.spacing, "spacing", opts.spacing, "pixels between images")
	cmd.Flags().StringArrayVar(&opts.labels, "label", nil, "row label (repeatable, top to bottom)")
	cmd.Flags().IntVar(&opts.labelWidth, "label-width", opts.labelWidth, "width reserved for row labels")
	cmd.Flags().StringVar(&opts.font, "font", "", "label font file (.ttf, .ttc, .otf)")
	_ = cmd.MarkFlagRequired("output")

	return cmd
}

// runCompose composes the images and writes the PNG.
func (c *CLI) runCompose(ctx context.Context, paths []string, opts composeOpts) error {
	logger := loggerFromContext(ctx)

	columns := opts.columns
	if columns == 0 {
		if opts.aspect <= 0 {
			return fmt.Errorf("--aspect must be positive, got %g", opts.aspect)
		}
		n, err := composite.ChooseColumnCountFiles(paths, opts.aspect)
		if err != nil {
			return err
		}
		logger.Debug("chose column count", "columns", n, "aspect", opts.aspect)
		columns = n
	}

	copts := composite.DefaultOptions()
	copts.Columns = columns
	copts.Spacing = opts.spacing
	copts.RowLabels = opts.labels
	copts.LabelWidth = opts.labelWidth
	copts.FontPath = opts.font
	copts.Logger = logger

	prog := newProgress(logger)
	if err := composite.WriteFile(paths, opts.output, copts); err != nil {
		return err
	}
	prog.done(fmt.Sprintf("Composed %d images", len(paths)))

	printSuccess("Composite written")
	printFile(opts.output)
	return nil
}
