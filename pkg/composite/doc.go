// Package composite tiles same-purpose images into one labeled PNG figure.
//
// Images are placed row-major into a grid of uniform cells. Each cell is as
// large as the largest input image; smaller images are centered in their
// cell, never scaled or cropped. When row labels are given, a gutter is
// reserved on the left and each label is drawn next to the first cell of
// its row.
//
// # Geometry
//
// For n images and c columns:
//
//	rows   = ceil(n / c)
//	gutter = labelWidth + spacing   (only when labels are given, else 0)
//	width  = gutter + cellWidth*c + spacing*(c-1)
//	height = cellHeight*rows + spacing*(rows-1)
//
// [NewLayout] computes this without touching pixels, which is what
// [ChooseColumnCount] and the tests rely on.
//
// # Fonts
//
// Labels are rendered with the first font that can be loaded from: the
// configured path, the platform default (Arial, Helvetica, DejaVu Sans),
// or a search of the platform font directories. If none loads, the 7x13
// bitmap face from golang.org/x/image is used. Font problems never fail a
// composition.
//
// # Usage
//
//	opts := composite.DefaultOptions()
//	opts.RowLabels = []string{"VISp_0", "VISp_1"}
//	if err := composite.WriteFile(paths, "results/fov_summary.png", opts); err != nil {
//	    return err
//	}
package composite
